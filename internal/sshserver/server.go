// Package sshserver serves the dashboard over SSH. Every session gets its own
// root model subscribed to the shared service manager.
package sshserver

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	"github.com/charmbracelet/wish/bubbletea"
	wishlogging "github.com/charmbracelet/wish/logging"
	gossh "golang.org/x/crypto/ssh"

	"github.com/j-veylop/sense-dashboard-tui/internal/logger"
	"github.com/j-veylop/sense-dashboard-tui/internal/services"
	"github.com/j-veylop/sense-dashboard-tui/internal/ui/dashboard"
)

// Server is the SSH dashboard server.
type Server struct {
	mgr            *services.Manager
	addr           string
	authorizedKeys string
	wishServer     *ssh.Server
}

// New creates a server listening on addr. The host key is generated at
// hostKeyPath when missing. Only keys listed in authorizedKeysPath may log in.
func New(addr, hostKeyPath, authorizedKeysPath string, mgr *services.Manager) (*Server, error) {
	s := &Server{
		mgr:            mgr,
		addr:           addr,
		authorizedKeys: authorizedKeysPath,
	}

	if err := os.MkdirAll(filepath.Dir(hostKeyPath), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create SSH key directory: %w", err)
	}

	// Middleware runs last to first.
	wishServer, err := wish.NewServer(
		wish.WithAddress(addr),
		wish.WithHostKeyPath(hostKeyPath),
		wish.WithPublicKeyAuth(s.authorize),
		wish.WithMiddleware(
			bubbletea.Middleware(s.teaHandler),
			activeterm.Middleware(),
			wishlogging.Middleware(),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create SSH server: %w", err)
	}

	s.wishServer = wishServer
	return s, nil
}

// Start listens and serves until Shutdown.
func (s *Server) Start() error {
	logger.Info("ssh listen", "addr", s.addr)
	if err := s.wishServer.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.wishServer.Shutdown(ctx)
}

func (s *Server) authorize(ctx ssh.Context, key ssh.PublicKey) bool {
	ok := isKeyAuthorized(key, s.authorizedKeys)
	if ok {
		logger.Info("ssh key authenticated", "user", ctx.User(), "fingerprint", gossh.FingerprintSHA256(key))
	} else {
		logger.Warn("ssh key rejected", "user", ctx.User(), "fingerprint", gossh.FingerprintSHA256(key))
	}
	return ok
}

// teaHandler creates a dashboard for each SSH session.
func (s *Server) teaHandler(sess ssh.Session) (tea.Model, []tea.ProgramOption) {
	pty, _, _ := sess.Pty()
	logger.Info("ssh session",
		"user", sess.User(),
		"remote_addr", sess.RemoteAddr().String(),
		"term", pty.Term,
		"window", fmt.Sprintf("%dx%d", pty.Window.Width, pty.Window.Height))

	model := dashboard.New(s.mgr)
	// Unsubscribes even if the program never started.
	go func() {
		<-sess.Context().Done()
		model.Close()
	}()

	return model, []tea.ProgramOption{tea.WithAltScreen()}
}

// isKeyAuthorized reports whether key appears in the authorized_keys file.
func isKeyAuthorized(key ssh.PublicKey, path string) bool {
	file, err := os.Open(path)
	if err != nil {
		logger.Warn("failed to open authorized_keys", "path", path, "error", err)
		return false
	}
	defer file.Close()

	want := key.Marshal()
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		authorized, _, _, _, err := gossh.ParseAuthorizedKey([]byte(line))
		if err != nil {
			logger.Debug("skipping unparsable authorized key", "error", err)
			continue
		}
		if bytes.Equal(want, authorized.Marshal()) {
			return true
		}
	}

	if err := scanner.Err(); err != nil {
		logger.Error("failed to read authorized_keys", "path", path, "error", err)
	}
	return false
}
