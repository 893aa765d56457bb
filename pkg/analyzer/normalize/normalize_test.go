package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/chronicle/pkg/models"
)

func TestParseStatText(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		insertions int
		deletions  int
		files      []string
	}{
		{
			name:       "plural summary",
			text:       " a.go | 12 ++++++++++--\n b.go | 3 ---\n 2 files changed, 10 insertions(+), 5 deletions(-)",
			insertions: 10,
			deletions:  5,
			files:      []string{"a.go", "b.go"},
		},
		{
			name:       "singular summary",
			text:       " a.go | 2 +-\n 1 file changed, 1 insertion(+), 1 deletion(-)",
			insertions: 1,
			deletions:  1,
			files:      []string{"a.go"},
		},
		{
			name:       "insertions only",
			text:       " 1 file changed, 7 insertions(+)",
			insertions: 7,
			deletions:  0,
			files:      []string{},
		},
		{
			name:       "summary without sign markers",
			text:       " 2 files changed, 10 insertions, 4 deletions",
			insertions: 10,
			deletions:  4,
			files:      []string{},
		},
		{
			name:       "singular summary without sign markers",
			text:       "1 file changed, 1 insertion, 1 deletion",
			insertions: 1,
			deletions:  1,
			files:      []string{},
		},
		{
			name:       "garbage defaults to zero",
			text:       "not a stat line at all",
			insertions: 0,
			deletions:  0,
			files:      []string{},
		},
		{
			name:       "empty",
			text:       "",
			insertions: 0,
			deletions:  0,
			files:      []string{},
		},
		{
			name:       "numstat sums totals",
			text:       "3\t1\tsrc/main.go\n-\t-\tlogo.png\n10\t0\tREADME.md",
			insertions: 13,
			deletions:  1,
			files:      []string{"src/main.go", "logo.png", "README.md"},
		},
		{
			name:       "rename notation",
			text:       " pkg/{old => new}/x.go | 4 ++--\n 1 file changed, 2 insertions(+), 2 deletions(-)",
			insertions: 2,
			deletions:  2,
			files:      []string{"pkg/new/x.go"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseStatText(tt.text)
			if got.Insertions != tt.insertions {
				t.Errorf("Insertions = %d, want %d", got.Insertions, tt.insertions)
			}
			if got.Deletions != tt.deletions {
				t.Errorf("Deletions = %d, want %d", got.Deletions, tt.deletions)
			}
			assert.Equal(t, tt.files, got.Files)
		})
	}
}

func TestParseStatText_NumstatFileChanges(t *testing.T) {
	got := ParseStatText("3\t1\tsrc/main.go\n-\t-\tlogo.png")
	require.Len(t, got.FileChanges, 1)
	assert.Equal(t, models.FileChange{Path: "src/main.go", Additions: 3, Deletions: 1}, got.FileChanges[0])
}

func TestResolveRename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"a.go", "a.go"},
		{"old.go => new.go", "new.go"},
		{"pkg/{a => b}/c.go", "pkg/b/c.go"},
		{"pkg/{ => sub}/c.go", "pkg/sub/c.go"},
		{"pkg/{sub => }/c.go", "pkg/c.go"},
	}
	for _, tt := range tests {
		if got := ResolveRename(tt.in); got != tt.want {
			t.Errorf("ResolveRename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizer_Normalize(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	raw := []models.RawCommit{
		{Hash: "c2", Author: "bob", Timestamp: base.Add(48 * time.Hour), StatText: " x | 1 +\n 1 file changed, 1 insertion(+)"},
		{Hash: "c1", Author: "alice", Timestamp: base, StatText: " x | 3 +++\n 1 file changed, 3 insertions(+)"},
		{Hash: "c1", Author: "mallory", Timestamp: base.Add(time.Hour)},
		{Hash: "", Author: "nobody", Timestamp: base},
		{Hash: "c3", Author: "carol", Timestamp: base.Add(24 * time.Hour)},
	}

	commits := New().Normalize(raw)

	require.Len(t, commits, 3)
	assert.Equal(t, "c1", commits[0].Hash)
	assert.Equal(t, "alice", commits[0].Author, "first occurrence wins")
	assert.Equal(t, 3, commits[0].Insertions)
	assert.Equal(t, "c3", commits[1].Hash)
	assert.False(t, commits[1].HasFiles(), "commits without files are kept")
	assert.Equal(t, "c2", commits[2].Hash)

	assert.Len(t, FilesOnly(commits), 2)
}

func TestFromRaw_PrefersExplicitFiles(t *testing.T) {
	c := FromRaw(models.RawCommit{
		Hash:     "a",
		Files:    []string{"explicit.go", "explicit.go"},
		StatText: " other.go | 1 +\n 1 file changed, 1 insertion(+)",
		Parents:  []string{"p"},
	})
	assert.Equal(t, []string{"explicit.go"}, c.Files)
	assert.Equal(t, 1, c.Insertions)
	assert.Equal(t, []string{"p"}, c.Parents)
}
