package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/j-veylop/sense-dashboard-tui/internal/logger"
	"github.com/j-veylop/sense-dashboard-tui/internal/models"
	"github.com/j-veylop/sense-dashboard-tui/internal/render"
	"github.com/j-veylop/sense-dashboard-tui/internal/server"
	"github.com/j-veylop/sense-dashboard-tui/internal/sshserver"
	"github.com/j-veylop/sense-dashboard-tui/internal/version"
)

const shutdownTimeout = 5 * time.Second

func newLoginCommand() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to Sense and store the access token in the OS keychain",
		Long:  "Prompts for the Sense account email and password. Only the returned token payload is stored; the password is never written anywhere.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var password string
			form := huh.NewForm(
				huh.NewGroup(
					huh.NewInput().
						Title("Email").
						Value(&email).
						Placeholder("you@example.com").
						Validate(func(s string) error {
							if !strings.Contains(s, "@") {
								return errors.New("enter the email of your Sense account")
							}
							return nil
						}),
					huh.NewInput().
						Title("Password").
						EchoMode(huh.EchoModePassword).
						Value(&password).
						Validate(func(s string) error {
							if s == "" {
								return errors.New("password required")
							}
							return nil
						}),
				),
			)
			if err := form.Run(); err != nil {
				if errors.Is(err, huh.ErrUserAborted) {
					return nil
				}
				return err
			}

			sess, err := openSession()
			if err != nil {
				return err
			}
			defer sess.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), sess.cfg.HTTPTimeout)
			defer cancel()
			if err := sess.mgr.Login(ctx, strings.TrimSpace(email), password); err != nil {
				return fmt.Errorf("login failed: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", strings.TrimSpace(email))
			return nil
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "prefill the account email")
	return cmd
}

func newLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored access token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := openSession()
			if err != nil {
				return err
			}
			defer sess.Close()

			if err := sess.mgr.Logout(); err != nil {
				return fmt.Errorf("logout failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

// resolveRange returns the flag value as a range, or the configured default
// when the flag is empty.
func resolveRange(flag string, fallback models.TimeRange) (models.TimeRange, error) {
	if flag == "" {
		return fallback, nil
	}
	return models.ParseTimeRange(strings.ToUpper(flag))
}

func newFetchCommand() *cobra.Command {
	var rangeFlag string

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch usage once and print the plot data as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := openSession()
			if err != nil {
				return err
			}
			defer sess.Close()

			r, err := resolveRange(rangeFlag, sess.cfg.Range)
			if err != nil {
				return err
			}

			plot, err := sess.mgr.Fetch(cmd.Context(), r)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(plot)
		},
	}

	cmd.Flags().StringVarP(&rangeFlag, "range", "r", "", "time range: HOUR, DAY, WEEK, MONTH or YEAR (default from config)")
	return cmd
}

func newRenderCommand() *cobra.Command {
	var (
		rangeFlag  string
		formatFlag string
		outFlag    string
		themeFlag  string
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the usage widget to an image",
		Long:  "Fetches usage and draws the widget as PNG or SVG. On failure the error widget is written instead and the command exits non-zero.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := openSession()
			if err != nil {
				return err
			}
			defer sess.Close()

			r, err := resolveRange(rangeFlag, sess.cfg.Range)
			if err != nil {
				return err
			}
			if formatFlag == "" {
				formatFlag = formatFromPath(outFlag)
			}
			format, err := render.ParseFormat(formatFlag)
			if err != nil {
				return err
			}
			if themeFlag == "" {
				themeFlag = sess.cfg.Theme
			}
			theme, err := render.ThemeByName(themeFlag)
			if err != nil {
				return err
			}

			w, closeOut, err := openOutput(cmd.OutOrStdout(), outFlag)
			if err != nil {
				return err
			}
			defer closeOut()

			plot, fetchErr := sess.mgr.Fetch(cmd.Context(), r)
			if fetchErr == nil {
				fetchErr = render.RenderWidget(w, format, plot, theme)
				if fetchErr == nil {
					return nil
				}
			}

			logger.Error("render failed", "range", r, "error", fetchErr)
			if err := render.RenderError(w, format, fetchErr.Error()); err != nil {
				return errors.Join(fetchErr, err)
			}
			return fetchErr
		},
	}

	cmd.Flags().StringVarP(&rangeFlag, "range", "r", "", "time range: HOUR, DAY, WEEK, MONTH or YEAR (default from config)")
	cmd.Flags().StringVarP(&formatFlag, "format", "f", "", "image format: png or svg (default from --out extension, else png)")
	cmd.Flags().StringVarP(&outFlag, "out", "o", "-", "output file, - for stdout")
	cmd.Flags().StringVar(&themeFlag, "theme", "", "widget theme: dark or light (default from config)")
	return cmd
}

// formatFromPath guesses the image format from a file extension.
func formatFromPath(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".svg") {
		return string(render.FormatSVG)
	}
	return string(render.FormatPNG)
}

// openOutput returns stdout for "-" and a created file otherwise.
func openOutput(stdout io.Writer, path string) (io.Writer, func(), error) {
	if path == "" || path == "-" {
		return stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() {
		if err := f.Close(); err != nil {
			logger.Warn("failed to close output file", "path", path, "error", err)
		}
	}, nil
}

func newServeCommand() *cobra.Command {
	var (
		addr    string
		withSSH bool
		sshAddr string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the widget over HTTP, and optionally the dashboard over SSH",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := openSession()
			if err != nil {
				return err
			}
			defer sess.Close()

			if addr == "" {
				addr = sess.cfg.ListenAddr
			}
			if sshAddr == "" {
				sshAddr = sess.cfg.SSHAddr
			}

			httpSrv := server.New(addr, sess.mgr)
			var sshSrv *sshserver.Server
			if withSSH {
				sshSrv, err = sshserver.New(sshAddr, sess.cfg.SSHHostKeyPath, sess.cfg.AuthorizedKeysPath, sess.mgr)
				if err != nil {
					return err
				}
				// SSH dashboards follow the poll loop.
				sess.mgr.Start()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			g, ctx := errgroup.WithContext(ctx)
			g.Go(httpSrv.Start)
			if sshSrv != nil {
				g.Go(sshSrv.Start)
			}
			g.Go(func() error {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()

				errs := []error{httpSrv.Shutdown(shutdownCtx)}
				if sshSrv != nil {
					errs = append(errs, sshSrv.Shutdown(shutdownCtx))
				}
				return errors.Join(errs...)
			})

			fmt.Fprintf(cmd.OutOrStdout(), "Serving widget on %s", addr)
			if sshSrv != nil {
				fmt.Fprintf(cmd.OutOrStdout(), " and dashboard on ssh %s", sshAddr)
			}
			fmt.Fprintln(cmd.OutOrStdout(), " (Ctrl+C to stop)")

			return g.Wait()
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "HTTP listen address (default from config)")
	cmd.Flags().BoolVar(&withSSH, "ssh", false, "also serve the dashboard over SSH")
	cmd.Flags().StringVar(&sshAddr, "ssh-addr", "", "SSH listen address (default from config)")
	return cmd
}

func newHistoryCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent fetches from the fetch log",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := openSession()
			if err != nil {
				return err
			}
			defer sess.Close()

			ctx := cmd.Context()
			records, err := sess.mgr.RecentFetches(ctx, limit)
			if err != nil {
				return err
			}
			ok, failed, err := sess.mgr.Database().FetchCounts(ctx)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tRANGE\tGRANULARITY\tPOINTS\tPEAK\tLATEST\tSTATUS")
			for _, rec := range records {
				peak, latest, status := "-", "-", "ok"
				if rec.Succeeded() {
					peak = fmt.Sprintf("%.0fW", rec.PeakWatts)
					latest = fmt.Sprintf("%.0fW", rec.LatestWatts)
				} else {
					status = rec.Error
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d\t%s\t%s\t%s\n",
					rec.Timestamp.Local().Format("2006-01-02 15:04:05"),
					rec.Range,
					rec.Granularity,
					rec.Used,
					rec.Retrieved,
					peak,
					latest,
					status,
				)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\n%d ok, %d failed in total\n", ok, failed)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries to show")
	return cmd
}

func newPruneCommand() *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete old fetch log entries and compact the database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if olderThan <= 0 {
				return errors.New("--older-than must be positive")
			}

			sess, err := openSession()
			if err != nil {
				return err
			}
			defer sess.Close()

			database := sess.mgr.Database()
			n, err := database.PruneFetches(cmd.Context(), olderThan)
			if err != nil {
				return err
			}
			if err := database.Vacuum(); err != nil {
				return fmt.Errorf("failed to vacuum database: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d entries older than %s\n", n, olderThan)
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "remove entries older than this")
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Info())
		},
	}
}
