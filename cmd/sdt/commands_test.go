package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/j-veylop/sense-dashboard-tui/internal/models"
)

func TestResolveRange(t *testing.T) {
	r, err := resolveRange("", models.RangeWeek)
	require.NoError(t, err)
	assert.Equal(t, models.RangeWeek, r)

	r, err = resolveRange("day", models.RangeWeek)
	require.NoError(t, err)
	assert.Equal(t, models.RangeDay, r)

	_, err = resolveRange("fortnight", models.RangeWeek)
	var rangeErr *models.InvalidRangeError
	assert.ErrorAs(t, err, &rangeErr)
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, "svg", formatFromPath("widget.SVG"))
	assert.Equal(t, "png", formatFromPath("widget.png"))
	assert.Equal(t, "png", formatFromPath("-"))
}

func TestOpenOutput(t *testing.T) {
	var stdout bytes.Buffer
	w, closeOut, err := openOutput(&stdout, "-")
	require.NoError(t, err)
	assert.Same(t, &stdout, w)
	closeOut()

	path := filepath.Join(t.TempDir(), "widget.svg")
	w, closeOut, err = openOutput(&stdout, path)
	require.NoError(t, err)
	_, err = w.Write([]byte("<svg/>"))
	require.NoError(t, err)
	closeOut()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "<svg/>", string(data))
}

func TestRootCommand_Subcommands(t *testing.T) {
	root := newRootCommand()
	for _, name := range []string{"login", "logout", "fetch", "render", "serve", "history", "prune", "version"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := newVersionCommand()
	cmd.SetOut(&out)
	cmd.SetArgs(nil)
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "sense-dashboard-tui")
}

func TestPruneCommand_RejectsNonPositive(t *testing.T) {
	cmd := newPruneCommand()
	cmd.SetArgs([]string{"--older-than", "0s"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	assert.Error(t, cmd.Execute())
}
