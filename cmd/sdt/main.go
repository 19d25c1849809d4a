// Package main is the entry point for the Sense Dashboard TUI application.
// The root command runs the Bubble Tea program; subcommands manage the login,
// render the widget and serve it over HTTP and SSH.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/j-veylop/sense-dashboard-tui/internal/config"
	"github.com/j-veylop/sense-dashboard-tui/internal/logger"
	"github.com/j-veylop/sense-dashboard-tui/internal/services"
	"github.com/j-veylop/sense-dashboard-tui/internal/ui/dashboard"
	"github.com/j-veylop/sense-dashboard-tui/internal/version"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "sdt",
		Short: "Sense Dashboard TUI - home energy usage monitor",
		Long: `Sense Dashboard TUI polls the Sense energy monitor and charts recent usage.

Keyboard Shortcuts:
  1-3             Switch between tabs (Usage, History, Info)
  Tab/Shift+Tab   Navigate between tabs
  t               Cycle the time range
  r               Refresh now
  ?               Toggle help
  q, Ctrl+C       Quit

Configuration is read from .env files (current directory,
~/.config/sense-dashboard-tui/.env, ~/.sense/.env) and the environment.`,
		Version:       version.GetVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runDashboard()
		},
	}
	root.SetVersionTemplate("{{.Version}}\n")

	root.AddCommand(
		newLoginCommand(),
		newLogoutCommand(),
		newFetchCommand(),
		newRenderCommand(),
		newServeCommand(),
		newHistoryCommand(),
		newPruneCommand(),
		newVersionCommand(),
	)
	return root
}

// session holds what every subcommand needs: configuration, the log file and
// the service manager.
type session struct {
	cfg      *config.Config
	mgr      *services.Manager
	closeLog func() error
}

// openSession loads configuration, redirects logging and builds the manager.
// Background services are not started.
func openSession() (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	closeLog, err := logger.Init(cfg.LogPath, cfg.Debug)
	if err != nil {
		return nil, err
	}

	mgr, err := services.NewManager(cfg)
	if err != nil {
		_ = closeLog()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return &session{cfg: cfg, mgr: mgr, closeLog: closeLog}, nil
}

func (s *session) Close() {
	if err := s.mgr.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: error closing services: %v\n", err)
	}
	_ = s.closeLog()
}

// runDashboard runs the TUI until the user quits.
func runDashboard() error {
	sess, err := openSession()
	if err != nil {
		return err
	}
	defer sess.Close()

	logger.Info("starting dashboard", "version", version.GetVersion(), "range", sess.cfg.Range)
	sess.mgr.Start()

	model := dashboard.New(sess.mgr)
	defer model.Close()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	go func() {
		<-sigChan
		p.Send(tea.Quit())
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
