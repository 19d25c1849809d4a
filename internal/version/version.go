// Package version provides build version information and runtime metadata.
package version

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"
)

const gitTimeout = 2 * time.Second

var (
	// These are set via ldflags at build time
	Version = ""
	Commit  = ""
	Date    = ""

	buildValues = [3]string{Version, Commit, Date}

	execCommand = exec.CommandContext

	mu   sync.Mutex
	once sync.Once
)

func ensureInitialized() {
	once.Do(func() {
		mu.Lock()
		defer mu.Unlock()

		if Date == "" {
			Date = time.Now().Format("2006-01-02")
		}
		if Commit == "" {
			Commit = getGitCommit()
		}
		if Version == "" {
			Version = getGitVersion()
		}
	})
}

// Reset restores the ldflags values and forces the next call to resolve
// missing fields again.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	Version, Commit, Date = buildValues[0], buildValues[1], buildValues[2]
	once = sync.Once{}
}

func runGit(args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), gitTimeout)
	defer cancel()

	cmd := execCommand(ctx, "git", args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return "", err
	}
	return strings.TrimSpace(out.String()), nil
}

func getGitCommit() string {
	out, err := runGit("describe", "--always", "--dirty")
	if err != nil || out == "" {
		return "unknown"
	}
	return out
}

func getGitVersion() string {
	out, err := runGit("describe", "--tags", "--abbrev=0")
	if err != nil || out == "" {
		return "dev"
	}
	return out
}

// GetVersion returns the release tag, or "dev".
func GetVersion() string {
	ensureInitialized()
	mu.Lock()
	defer mu.Unlock()
	return Version
}

// GetCommit returns the commit the binary was built from, or "unknown".
func GetCommit() string {
	ensureInitialized()
	mu.Lock()
	defer mu.Unlock()
	return Commit
}

// GetDate returns the build date.
func GetDate() string {
	ensureInitialized()
	mu.Lock()
	defer mu.Unlock()
	return Date
}

// Info returns a one-line version banner.
func Info() string {
	ensureInitialized()
	mu.Lock()
	defer mu.Unlock()
	return fmt.Sprintf("sense-dashboard-tui %s (commit: %s, built: %s, %s/%s)",
		Version, Commit, Date, runtime.GOOS, runtime.GOARCH)
}
