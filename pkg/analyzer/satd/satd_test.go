package satd

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/chronicle/pkg/models"
)

type memSource map[string]string

func (m memSource) Files(context.Context) ([]string, error) {
	files := make([]string, 0, len(m))
	for f := range m {
		files = append(files, f)
	}
	return files, nil
}

func (m memSource) Read(_ context.Context, path string) ([]byte, error) {
	s, ok := m[path]
	if !ok {
		return nil, errors.New("not found")
	}
	return []byte(s), nil
}

type memBlamer struct {
	lines map[string][]LineOrigin
	fail  map[string]bool
}

func (b memBlamer) BlameLines(_ context.Context, path string) ([]LineOrigin, error) {
	if b.fail[path] {
		return nil, errors.New("blame failed")
	}
	return b.lines[path], nil
}

func TestNew(t *testing.T) {
	a := New()
	assert.NotEmpty(t, a.patterns)
	assert.True(t, a.includeTests)
	assert.False(t, a.includeVendor)

	a = New(WithSkipTests(), WithIncludeVendor(), WithStrictMode(), WithMaxFileSize(1024))
	assert.False(t, a.includeTests)
	assert.True(t, a.includeVendor)
	assert.True(t, a.strictMode)
	assert.Equal(t, int64(1024), a.maxFileSize)
}

func TestAnalyzeContent_Markers(t *testing.T) {
	code := `package main

// TODO: implement this function
func notImplemented() {
}

// FIXME: this is broken
func broken() {
}

// HACK: workaround for issue #123
func workaround() {
}
`
	items, err := New().AnalyzeContent("main.go", []byte(code))
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, "TODO", items[0].Marker)
	assert.Equal(t, 3, items[0].Line)
	assert.Equal(t, CategoryRequirement, items[0].Category)
	assert.Equal(t, SeverityLow, items[0].Severity)
	assert.Equal(t, "implement this function", items[0].Description)

	assert.Equal(t, "FIXME", items[1].Marker)
	assert.Equal(t, SeverityHigh, items[1].Severity)
	assert.Equal(t, CategoryDefect, items[1].Category)

	assert.Equal(t, "HACK", items[2].Marker)
	assert.Equal(t, CategoryDesign, items[2].Category)
	assert.Equal(t, SeverityMedium, items[2].Severity)
}

func TestAnalyzeContent_IgnoresCodeAndDirectives(t *testing.T) {
	code := `package main

var todo = "TODO: not a comment"

// TODO: skip me chronicle:ignore
// See BUG-1234 for details
`
	items, err := New().AnalyzeContent("main.go", []byte(code))
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestAnalyzeContent_CommentStyleByExtension(t *testing.T) {
	py := "x = 1\n# TODO: handle unicode\n"
	items, err := New().AnalyzeContent("tool.py", []byte(py))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Line)

	// a hash comment is not a comment in Go
	goCode := "package x\n# TODO: nope\n"
	items, err = New().AnalyzeContent("x.go", []byte(goCode))
	require.NoError(t, err)
	assert.Empty(t, items)

	sql := "-- TODO: add index\nSELECT 1;\n"
	items, err = New().AnalyzeContent("schema.sql", []byte(sql))
	require.NoError(t, err)
	require.Len(t, items, 1)
}

func TestAnalyzeContent_SeverityAdjustment(t *testing.T) {
	items, err := New().AnalyzeContent("auth/login.go", []byte("// TODO: tidy up\n"))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, SeverityMedium, items[0].Severity)

	items, err = New().AnalyzeContent("pkg/x_test.go", []byte("// FIXME: flaky\n"))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, SeverityMedium, items[0].Severity)

	items, err = New(WithSkipSeverityAdjustment()).AnalyzeContent("pkg/x_test.go", []byte("// FIXME: flaky\n"))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, SeverityHigh, items[0].Severity)
}

func TestAnalyzeContent_StrictMode(t *testing.T) {
	code := "// TODO: explicit\n// todo lowercase mention\n"
	items, err := New(WithStrictMode()).AnalyzeContent("a.go", []byte(code))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "explicit", items[0].Description)
}

func TestAnalyzeContent_RustTestBlocks(t *testing.T) {
	code := `// TODO: real one
#[cfg(test)]
mod tests {
    // TODO: inside tests
    fn t() {
    }
}
// FIXME: after tests
`
	items, err := New().AnalyzeContent("lib.rs", []byte(code))
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 1, items[0].Line)
	assert.Equal(t, 8, items[1].Line)

	items, err = New(WithIncludeTestBlocks()).AnalyzeContent("lib.rs", []byte(code))
	require.NoError(t, err)
	assert.Len(t, items, 3)
}

func TestAnalyzeContent_SkipsFiles(t *testing.T) {
	a := New()
	items, err := a.AnalyzeContent("vendor/lib/a.go", []byte("// TODO: x\n"))
	require.NoError(t, err)
	assert.Empty(t, items)

	items, err = a.AnalyzeContent("static/app.min.js", []byte("// TODO: x\n"))
	require.NoError(t, err)
	assert.Empty(t, items)

	items, err = a.AnalyzeContent("blob.bin", []byte("// TODO\x00: x\n"))
	require.NoError(t, err)
	assert.Empty(t, items)

	items, err = New(WithMaxFileSize(4)).AnalyzeContent("a.go", []byte("// TODO: x\n"))
	require.NoError(t, err)
	assert.Empty(t, items)

	items, err = New(WithSkipTests()).AnalyzeContent("a_test.go", []byte("// TODO: x\n"))
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestContextHash_Stable(t *testing.T) {
	a := New()
	first, err := a.AnalyzeContent("a.go", []byte("// TODO: x\n"))
	require.NoError(t, err)
	second, err := a.AnalyzeContent("a.go", []byte("// TODO: x\n"))
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Len(t, first[0].ContextHash, 32)
	assert.Equal(t, first[0].ContextHash, second[0].ContextHash)

	other, err := a.AnalyzeContent("b.go", []byte("// TODO: x\n"))
	require.NoError(t, err)
	assert.NotEqual(t, first[0].ContextHash, other[0].ContextHash)
}

func TestAddPattern(t *testing.T) {
	a := New()
	require.NoError(t, a.AddPattern(`(?i)\bDEPRECATE\b[:\s]*(.+)?`, CategoryDesign, SeverityMedium))
	assert.Error(t, a.AddPattern(`(`, CategoryDesign, SeverityLow))

	items, err := a.AnalyzeContent("a.go", []byte("// DEPRECATE: old api\n"))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "old api", items[0].Description)
}

func TestSeverity(t *testing.T) {
	assert.Equal(t, SeverityCritical, SeverityHigh.Escalate())
	assert.Equal(t, SeverityCritical, SeverityCritical.Escalate())
	assert.Equal(t, SeverityLow, SeverityLow.Reduce())
	assert.Equal(t, SeverityMedium, SeverityHigh.Reduce())
	assert.Greater(t, SeverityCritical.Weight(), SeverityHigh.Weight())
	assert.Equal(t, 0, Severity("bogus").Weight())
}

func TestAnalyze_SortsAndSummarizes(t *testing.T) {
	src := memSource{
		"b.go":     "// TODO: b\n",
		"a.go":     "// TODO: a1\n\n// FIXME: a2\n",
		"docs.txt": "nothing here\n",
	}
	analysis, err := New().Analyze(context.Background(), src)
	require.NoError(t, err)

	require.Len(t, analysis.Items, 3)
	assert.Equal(t, "FIXME", analysis.Items[0].Marker)
	assert.Equal(t, "a.go", analysis.Items[1].File)
	assert.Equal(t, "b.go", analysis.Items[2].File)

	assert.Equal(t, 3, analysis.TotalFilesAnalyzed)
	assert.Equal(t, 3, analysis.Summary.TotalItems)
	assert.Equal(t, 2, analysis.Summary.FilesWithSATD)
	assert.Equal(t, 1, analysis.Summary.BySeverity["high"])
	assert.Equal(t, 0, analysis.Summary.DatedItems)
}

func TestAnalyze_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().Analyze(ctx, memSource{"a.go": "// TODO: x\n"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestInventory_DatesByBlame(t *testing.T) {
	src := memSource{
		"a.go":       "package a\n// TODO: one\n",
		"b.go":       "// FIXME: two\n",
		"skip.go":    "// TODO: excluded\n",
		"noblame.go": "// TODO: undated\n",
	}
	when := time.Date(2023, 3, 1, 12, 0, 0, 0, time.FixedZone("X", 3600))
	blamer := memBlamer{
		lines: map[string][]LineOrigin{
			"a.go": {{Author: "alice", Date: when}, {Author: "bob", Date: when}},
			"b.go": {{Author: "carol", Date: when.AddDate(0, 1, 0)}},
		},
		fail: map[string]bool{"noblame.go": true},
	}

	inv := NewInventory(src,
		WithBlamer(blamer),
		WithExclude(func(p string) bool { return p == "skip.go" }),
	)
	got, err := inv.ReadTodoInventory(context.Background())
	require.NoError(t, err)

	require.Len(t, got, 3)
	require.Len(t, got["a.go"], 1)
	a := got["a.go"][0]
	assert.Equal(t, 2, a.Line)
	assert.Equal(t, "TODO", a.Marker)
	assert.Equal(t, "one", a.Text)
	assert.Equal(t, "bob", a.Author)
	require.NotNil(t, a.Date)
	assert.Equal(t, time.UTC, a.Date.Location())
	assert.True(t, a.Date.Equal(when))

	assert.Equal(t, "carol", got["b.go"][0].Author)
	assert.Nil(t, got["noblame.go"][0].Date)
	assert.NotContains(t, got, "skip.go")
}

func TestInventory_WithoutBlamer(t *testing.T) {
	got, err := NewInventory(memSource{"a.go": "// TODO: x\n"}).ReadTodoInventory(context.Background())
	require.NoError(t, err)
	require.Len(t, got["a.go"], 1)
	assert.Nil(t, got["a.go"][0].Date)
}

func TestFindStale(t *testing.T) {
	ref := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	old := ref.AddDate(0, 0, -400)
	recent := ref.AddDate(0, 0, -30)

	commits := []models.Commit{
		models.NewCommit("h1", "alice", ref, "latest", []string{"active.go"}, 1, 0),
		models.NewCommit("h2", "alice", ref.AddDate(0, 0, -300), "old", []string{"dormant.go"}, 1, 0),
	}
	inventory := map[string][]models.TodoItem{
		"dormant.go": {{File: "dormant.go", Line: 3, Marker: "TODO", Text: "feature x", Author: "bob", Date: &old}},
		"active.go":  {{File: "active.go", Line: 1, Marker: "TODO", Text: "still worked on", Date: &old}},
		"young.go":   {{File: "young.go", Line: 1, Marker: "TODO", Text: "new", Date: &recent}},
		"undated.go": {{File: "undated.go", Line: 1, Marker: "TODO", Text: "?"}},
		"ghost.go":   {{File: "ghost.go", Line: 9, Marker: "FIXME", Text: "never touched", Date: &old}},
	}

	stale := FindStale(inventory, commits, 180)
	require.Len(t, stale, 2)

	assert.Equal(t, "dormant.go", stale[0].File)
	assert.Equal(t, 400, stale[0].AgeDays)
	assert.Equal(t, 300, stale[0].DaysSinceFileChange)
	assert.Equal(t, "bob", stale[0].Author)

	// no commit in history touched it: its own blame date is the last change
	assert.Equal(t, "ghost.go", stale[1].File)
	assert.Equal(t, 400, stale[1].DaysSinceFileChange)
	assert.True(t, stale[1].FileLastChanged.Equal(old))
}

func TestFindStale_EdgeCases(t *testing.T) {
	old := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	inventory := map[string][]models.TodoItem{"a.go": {{File: "a.go", Line: 1, Date: &old}}}

	assert.Empty(t, FindStale(nil, nil, 10))
	assert.Empty(t, FindStale(inventory, nil, 10))
	assert.NotNil(t, FindStale(inventory, nil, 10))

	commits := []models.Commit{models.NewCommit("h", "a", old.AddDate(0, 0, 179), "", nil, 0, 0)}
	assert.Empty(t, FindStale(inventory, commits, 0))

	commits[0].Timestamp = old.AddDate(0, 0, 180)
	assert.Len(t, FindStale(inventory, commits, 0), 1)
}
