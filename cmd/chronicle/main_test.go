package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/chronicle/pkg/config"
)

// TestGetPath verifies path handling from CLI arguments.
func TestGetPath(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"no args defaults to current dir", []string{}, "."},
		{"single path", []string{"/foo/bar"}, "/foo/bar"},
		{"first path wins", []string{"/foo", "/bar"}, "/foo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			app := &cli.App{
				Action: func(c *cli.Context) error {
					got = getPath(c)
					return nil
				},
			}
			require.NoError(t, app.Run(append([]string{"test"}, tt.args...)))
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, loadEnvFile(""))
	assert.NoError(t, loadEnvFile(filepath.Join(dir, "missing.env")))

	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("CHRONICLE_TEST_ENV_VALUE=loaded\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("CHRONICLE_TEST_ENV_VALUE") })

	require.NoError(t, loadEnvFile(path))
	assert.Equal(t, "loaded", os.Getenv("CHRONICLE_TEST_ENV_VALUE"))
}

func TestLoadEnvFile_DoesNotOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("CHRONICLE_TEST_PRESET=file\n"), 0o644))
	t.Setenv("CHRONICLE_TEST_PRESET", "shell")

	require.NoError(t, loadEnvFile(path))
	assert.Equal(t, "shell", os.Getenv("CHRONICLE_TEST_PRESET"))
}

func TestGenerateDefaultConfig_LoadsBack(t *testing.T) {
	content, err := generateDefaultConfig()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(content, "# Chronicle configuration"))

	path := filepath.Join(t.TempDir(), "chronicle.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, config.DefaultConfig().History.SinceDays, cfg.History.SinceDays)
	assert.Equal(t, config.DefaultConfig().Exclude.Dirs, cfg.Exclude.Dirs)
}

func TestInitCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "chronicle.toml")
	app := newApp()
	app.Writer = &bytes.Buffer{}

	require.NoError(t, app.Run([]string{"chronicle", "--env-file", "", "init", path}))
	_, err := os.Stat(path)
	require.NoError(t, err)

	err = app.Run([]string{"chronicle", "--env-file", "", "init", path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	require.NoError(t, app.Run([]string{"chronicle", "--env-file", "", "init", "--force", path}))
}

func TestConfigShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chronicle.toml")
	require.NoError(t, os.WriteFile(path, []byte("[history]\nsince_days = 30\n"), 0o644))

	var buf bytes.Buffer
	app := newApp()
	app.Writer = &buf
	require.NoError(t, app.Run([]string{"chronicle", "--env-file", "", "-c", path, "config", "show"}))

	out := buf.String()
	assert.Contains(t, out, "# Configuration from: "+path)
	assert.Contains(t, out, "since_days = 30")
}

func TestConfigValidate_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chronicle.toml")
	require.NoError(t, os.WriteFile(path, []byte("[burnout]\noff_hours_start = 30\n"), 0o644))

	app := newApp()
	app.Writer = &bytes.Buffer{}
	err := app.Run([]string{"chronicle", "--env-file", "", "-c", path, "config", "validate"})
	require.Error(t, err)
}

func TestMCPManifestCmd(t *testing.T) {
	var buf bytes.Buffer
	app := newApp()
	app.Writer = &buf
	require.NoError(t, app.Run([]string{"chronicle", "--env-file", "", "mcp", "manifest"}))

	var m map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	assert.Equal(t, "io.github.panbanda/chronicle", m["name"])
}

// newRepo commits app.go twice and notes.md once.
func newRepo(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	repo, err := git.PlainInit(root, false)
	require.NoError(t, err)
	w, err := repo.Worktree()
	require.NoError(t, err)

	steps := []struct {
		file, content, author string
		when                  time.Time
	}{
		{"app.go", "package app\n\nfunc run() {\n}\n", "alice", time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)},
		{"app.go", "package app\n\nfunc run() {\n\tfor {\n\t}\n}\n", "bob", time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)},
		{"notes.md", "notes\n", "alice", time.Date(2024, 5, 3, 9, 0, 0, 0, time.UTC)},
	}
	for _, s := range steps {
		require.NoError(t, os.WriteFile(filepath.Join(root, s.file), []byte(s.content), 0o644))
		_, err := w.Add(s.file)
		require.NoError(t, err)
		_, err = w.Commit("update "+s.file, &git.CommitOptions{
			Author: &object.Signature{Name: s.author, Email: s.author + "@example.com", When: s.when},
		})
		require.NoError(t, err)
	}
	return root
}

// writeConfig disables the history window and the disk cache.
func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chronicle.toml")
	require.NoError(t, os.WriteFile(path, []byte("[history]\nsince_days = 0\n\n[cache]\nbackend = \"memory\"\n"), 0o644))
	return path
}

func TestChurnCmd_JSON(t *testing.T) {
	root := newRepo(t)
	out := filepath.Join(t.TempDir(), "churn.json")

	app := newApp()
	require.NoError(t, app.Run([]string{
		"chronicle", "--env-file", "", "-c", writeConfig(t), "-f", "json", "-o", out, "churn", root,
	}))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var decoded struct {
		Files []struct {
			Path    string `json:"path"`
			Commits int    `json:"commit_count"`
		} `json:"files"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))

	commits := make(map[string]int)
	for _, f := range decoded.Files {
		commits[f.Path] = f.Commits
	}
	assert.Equal(t, 2, commits["app.go"])
	assert.Equal(t, 1, commits["notes.md"])
}

func TestAnalyzeCmd_Markdown(t *testing.T) {
	root := newRepo(t)
	out := filepath.Join(t.TempDir(), "report.md")

	app := newApp()
	require.NoError(t, app.Run([]string{
		"chronicle", "--env-file", "", "-c", writeConfig(t), "-f", "markdown", "-o", out, "analyze", "--no-prs", root,
	}))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Code Evolution Report")
	assert.Contains(t, string(data), "app.go")
}

func TestAnalyzeCmd_InvalidSince(t *testing.T) {
	root := newRepo(t)
	app := newApp()
	err := app.Run([]string{"chronicle", "--env-file", "", "-c", writeConfig(t), "--since", "soon", "churn", root})
	require.Error(t, err)
}

func TestTodosCmd_Disabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chronicle.toml")
	require.NoError(t, os.WriteFile(path, []byte("[todos]\nenabled = false\n"), 0o644))

	app := newApp()
	err := app.Run([]string{"chronicle", "--env-file", "", "-c", path, "todos", newRepo(t)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disabled")
}
