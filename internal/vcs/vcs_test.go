package vcs

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/chronicle/pkg/analyzer/satd"
)

var (
	day1 = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	day2 = time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)
	day3 = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
)

const mainV1 = `package main

// TODO: wire config
func main() {
}
`

const mainV2 = mainV1 + `func helper() int {
	return 1
}
`

type fixture struct {
	path   string
	hashes []plumbing.Hash // oldest first
}

func writeFile(t *testing.T, root, name string, content []byte) {
	t.Helper()
	full := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, content, 0o644))
}

func commitAll(t *testing.T, w *git.Worktree, msg, author string, when time.Time) plumbing.Hash {
	t.Helper()
	_, err := w.Add(".")
	require.NoError(t, err)
	h, err := w.Commit(msg, &git.CommitOptions{
		Author: &object.Signature{Name: author, Email: author + "@example.com", When: when},
	})
	require.NoError(t, err)
	return h
}

// newFixture builds a three-commit linear history:
// alice adds main.go, README.md and a binary; bob appends a helper to
// main.go; alice adds pkg/util.go.
func newFixture(t *testing.T) fixture {
	t.Helper()
	root := t.TempDir()
	repo, err := git.PlainInit(root, false)
	require.NoError(t, err)
	w, err := repo.Worktree()
	require.NoError(t, err)

	f := fixture{path: root}

	writeFile(t, root, "main.go", []byte(mainV1))
	writeFile(t, root, "README.md", []byte("hello\n"))
	writeFile(t, root, "logo.bin", []byte{0x89, 0x00, 0x01, 0x02})
	f.hashes = append(f.hashes, commitAll(t, w, "initial commit", "alice", day1))

	writeFile(t, root, "main.go", []byte(mainV2))
	f.hashes = append(f.hashes, commitAll(t, w, "add helper", "bob", day2))

	writeFile(t, root, "pkg/util.go", []byte("package pkg\n"))
	f.hashes = append(f.hashes, commitAll(t, w, "add util\n\nwith a body", "alice", day3))

	return f
}

func openFixture(t *testing.T) (fixture, Repository) {
	t.Helper()
	f := newFixture(t)
	repo, err := NewGitOpener().PlainOpen(f.path)
	require.NoError(t, err)
	return f, repo
}

func TestGitOpener_PlainOpen_NonExistent(t *testing.T) {
	_, err := NewGitOpener().PlainOpen(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestGitOpener_PlainOpenWithDetect(t *testing.T) {
	f := newFixture(t)

	repo, err := NewGitOpener().PlainOpenWithDetect(filepath.Join(f.path, "pkg"))
	require.NoError(t, err)

	want, err := filepath.EvalSymlinks(f.path)
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(repo.RepoPath())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestGitRepository_Head(t *testing.T) {
	f, repo := openFixture(t)

	head, err := repo.Head()
	require.NoError(t, err)
	assert.Equal(t, f.hashes[2], head.Hash())
	assert.NotEmpty(t, head.Name())
}

func TestGitRepository_LogBranch(t *testing.T) {
	_, repo := openFixture(t)

	head, err := repo.Head()
	require.NoError(t, err)

	iter, err := repo.Log(&LogOptions{Branch: head.Name()})
	require.NoError(t, err)
	n := 0
	require.NoError(t, iter.ForEach(func(Commit) error { n++; return nil }))
	iter.Close()
	assert.Equal(t, 3, n)

	_, err = repo.Log(&LogOptions{Branch: "does-not-exist"})
	assert.Error(t, err)
}

func TestHistory(t *testing.T) {
	f, repo := openFixture(t)

	raw, err := History(context.Background(), repo, HistoryOptions{})
	require.NoError(t, err)
	require.Len(t, raw, 3)

	assert.Equal(t, f.hashes[2].String(), raw[0].Hash)
	assert.Equal(t, "add util\n\nwith a body", raw[0].Message)
	assert.Equal(t, "alice", raw[0].Author)
	assert.Equal(t, "alice@example.com", raw[0].Email)
	assert.True(t, raw[0].Timestamp.Equal(day3))
	assert.Equal(t, []string{f.hashes[1].String()}, raw[0].Parents)

	assert.Equal(t, "bob", raw[1].Author)
	assert.Equal(t, "3\t0\tmain.go\n", raw[1].StatText)

	assert.Empty(t, raw[2].Parents)
	assert.Contains(t, raw[2].StatText, "5\t0\tmain.go\n")
	assert.Contains(t, raw[2].StatText, "1\t0\tREADME.md\n")
}

func TestHistory_Bounds(t *testing.T) {
	_, repo := openFixture(t)
	ctx := context.Background()

	raw, err := History(ctx, repo, HistoryOptions{MaxCommits: 2})
	require.NoError(t, err)
	assert.Len(t, raw, 2)

	since := day1.AddDate(0, 0, 14)
	raw, err = History(ctx, repo, HistoryOptions{Since: &since})
	require.NoError(t, err)
	assert.Len(t, raw, 2)

	raw, err = History(ctx, repo, HistoryOptions{SkipStats: true})
	require.NoError(t, err)
	for _, rc := range raw {
		assert.Empty(t, rc.StatText)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = History(cancelled, repo, HistoryOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSource_CommitStats(t *testing.T) {
	f, repo := openFixture(t)
	src := NewSource(repo, 3)

	stats, err := src.CommitStats(context.Background(), f.hashes[1].String())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Insertions)
	assert.Equal(t, 0, stats.Deletions)
	assert.Equal(t, []string{"main.go"}, stats.Files)
	require.Len(t, stats.FileChanges, 1)
	assert.Equal(t, 3, stats.FileChanges[0].Additions)

	_, err = src.CommitStats(context.Background(), "not-a-hash")
	assert.Error(t, err)
}

func TestSource_CommitDiff(t *testing.T) {
	f, repo := openFixture(t)
	src := NewSource(repo, 3)
	ctx := context.Background()

	child, err := src.CommitDiff(ctx, f.hashes[1].String())
	require.NoError(t, err)
	assert.Contains(t, child, "diff --git a/main.go b/main.go")
	assert.Contains(t, child, "+func helper() int {")
	assert.Contains(t, child, " func main() {")

	root, err := src.CommitDiff(ctx, f.hashes[0].String())
	require.NoError(t, err)
	assert.Contains(t, root, "+package main")
	assert.Contains(t, root, "+hello")

	_, err = src.CommitDiff(ctx, strings.Repeat("0", 40))
	assert.Error(t, err)
}

func TestSource_FilesAndRead(t *testing.T) {
	_, repo := openFixture(t)
	src := NewSource(repo, 3)
	ctx := context.Background()

	files, err := src.Files(ctx)
	require.NoError(t, err)
	sort.Strings(files)
	assert.Equal(t, []string{"README.md", "main.go", "pkg/util.go"}, files)

	content, err := src.Read(ctx, "main.go")
	require.NoError(t, err)
	assert.Equal(t, mainV2, string(content))

	_, err = src.Read(ctx, "missing.go")
	assert.Error(t, err)
}

func TestSource_BlameLines(t *testing.T) {
	_, repo := openFixture(t)
	src := NewSource(repo, 3)

	lines, err := src.BlameLines(context.Background(), "main.go")
	require.NoError(t, err)
	require.Len(t, lines, 8)

	assert.Equal(t, "alice", lines[2].Author)
	assert.True(t, lines[2].Date.Equal(day1))
	assert.Equal(t, "bob", lines[5].Author)
	assert.True(t, lines[5].Date.Equal(day2))
}

func TestSource_TodoInventory(t *testing.T) {
	_, repo := openFixture(t)
	src := NewSource(repo, 3)

	inventory, err := satd.NewInventory(src, satd.WithBlamer(src)).ReadTodoInventory(context.Background())
	require.NoError(t, err)

	require.Len(t, inventory["main.go"], 1)
	todo := inventory["main.go"][0]
	assert.Equal(t, 3, todo.Line)
	assert.Equal(t, "wire config", todo.Text)
	assert.Equal(t, "alice", todo.Author)
	require.NotNil(t, todo.Date)
	assert.True(t, todo.Date.Equal(day1))
}

func TestGitRepository_RemoteURL(t *testing.T) {
	f := newFixture(t)
	r, err := git.PlainOpen(f.path)
	require.NoError(t, err)
	_, err = r.CreateRemote(&config.RemoteConfig{Name: "origin", URLs: []string{"git@github.com:acme/app.git"}})
	require.NoError(t, err)

	repo, err := NewGitOpener().PlainOpen(f.path)
	require.NoError(t, err)
	u, err := repo.RemoteURL("origin")
	require.NoError(t, err)
	assert.Equal(t, "git@github.com:acme/app.git", u)

	_, err = repo.RemoteURL("upstream")
	assert.Error(t, err)
}

func TestSetDefaultOpener(t *testing.T) {
	original := DefaultOpener()
	defer SetDefaultOpener(original)

	custom := NewGitOpener()
	SetDefaultOpener(custom)
	assert.Same(t, custom, DefaultOpener())
}

func TestRepository_BlameRejectsForeignCommit(t *testing.T) {
	_, repo := openFixture(t)
	_, err := repo.Blame(nil, "main.go")
	assert.ErrorIs(t, err, ErrInvalidType)
}
