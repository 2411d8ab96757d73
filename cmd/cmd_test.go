package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	internalApp "github.com/haierkeys/preppal-study-sync/internal/app"
	"github.com/haierkeys/preppal-study-sync/internal/domain"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	return runWithInput(t, "", args...)
}

func runWithInput(t *testing.T, input string, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetIn(strings.NewReader(input))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute(), out.String())
	return out.String()
}

func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "config.yaml")
	body := fmt.Sprintf("database:\n  path: %s\nlog:\n  file: \"\"\n", filepath.Join(dir, "db.sqlite3"))
	require.NoError(t, os.WriteFile(p, []byte(body), 0644))
	return p
}

func TestVersionCommand(t *testing.T) {
	out := run(t, "version")
	assert.Contains(t, out, internalApp.Name)
	assert.Contains(t, out, "v"+internalApp.Version)
}

func TestResolveConfigWritesDefault(t *testing.T) {
	t.Chdir(t.TempDir())
	configDefault = "server:\n  run-mode: release\n"

	p, err := resolveConfig("")
	require.NoError(t, err)
	assert.Equal(t, defaultConfigPath, p)
	data, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, configDefault, string(data))

	p, err = resolveConfig("")
	require.NoError(t, err)
	assert.Equal(t, defaultConfigPath, p)

	p, err = resolveConfig("custom.yaml")
	require.NoError(t, err)
	assert.Equal(t, "custom.yaml", p)
}

func TestOfflineCommands(t *testing.T) {
	cfg := writeTestConfig(t)
	cliEnv.config, cliEnv.profile = cfg, "alice"

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	var id string
	require.NoError(t, withApp(cmd, func(ctx context.Context, a *internalApp.App) error {
		n, err := a.NoteService.Create(ctx, "alice", domain.NoteDraft{Title: "Lecture", Body: "Q: what\nA: that", Tags: []string{"exam"}})
		if err != nil {
			return err
		}
		id = n.ID
		return nil
	}))

	out := run(t, "notes", "list", "-c", cfg, "-p", "alice")
	assert.Contains(t, out, id)
	assert.Contains(t, out, "Lecture")

	out = run(t, "notes", "show", id, "-c", cfg, "-p", "alice")
	assert.Contains(t, out, "# Lecture")
	assert.Contains(t, out, "versions: 1")

	out = run(t, "deck", "list", "-c", cfg, "-p", "alice")
	assert.Contains(t, out, "note:"+id)

	out = run(t, "deck", "rebuild", "-c", cfg, "-p", "alice")
	assert.Contains(t, out, "rebuilt 1 cards from notes")

	out = run(t, "stats", "-c", cfg, "-p", "alice")
	assert.Contains(t, out, "accuracy: 0%")

	out = runWithInput(t, "\ny\n", "study", "-c", cfg, "-p", "alice")
	assert.Contains(t, out, "[1/1] Q: what")
	assert.Contains(t, out, "A: that")
	assert.Contains(t, out, "session: 1/1 correct")

	out = run(t, "stats", "show", "-c", cfg, "-p", "alice")
	assert.Contains(t, out, "accuracy: 100%")

	out = run(t, "timeline", "add", "--when", "2026-12-01", "--label", "Exam", "-c", cfg, "-p", "alice")
	assert.Contains(t, out, "added ")
	entryID := strings.Fields(strings.TrimPrefix(out, "added "))[0]

	out = run(t, "timeline", "-c", cfg, "-p", "alice")
	assert.Contains(t, out, "WHEN")
	assert.Contains(t, out, "Exam")

	run(t, "timeline", "done", entryID, "-c", cfg, "-p", "alice")
	out = run(t, "timeline", "-c", cfg, "-p", "alice")
	assert.NotContains(t, out, "Exam")
}

func TestNoteEditingCommands(t *testing.T) {
	cfg := writeTestConfig(t)

	out := runWithInput(t, "Q: first\nA: one", "notes", "add", "-t", "Draft", "-b", "-", "--tags", "a, b", "-c", cfg, "-p", "bob")
	require.True(t, strings.HasPrefix(out, "created "), out)
	id := strings.TrimSpace(strings.TrimPrefix(out, "created "))

	out = run(t, "notes", "edit", id, "--body", "Q: second\nA: two", "-c", cfg, "-p", "bob")
	assert.Contains(t, out, "(2 versions)")

	out = run(t, "notes", "versions", id, "-c", cfg, "-p", "bob")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	oldest := strings.Fields(lines[2])[0]

	out = run(t, "notes", "diff", id, "--version", oldest, "-c", cfg, "-p", "bob")
	assert.Contains(t, out, "@@ -")

	out = run(t, "notes", "restore", id, oldest, "-c", cfg, "-p", "bob")
	assert.Contains(t, out, "(3 versions)")

	out = run(t, "deck", "list", "-c", cfg, "-p", "bob")
	assert.Contains(t, out, "first")

	run(t, "notes", "delete", id, "-c", cfg, "-p", "bob")
	out = run(t, "deck", "list", "-c", cfg, "-p", "bob")
	assert.NotContains(t, out, id)
}
