// Package models holds the records shared between the analyzers, the
// collaborators that feed them and the renderers that consume them.
package models

import (
	"sort"
	"time"
)

// FileChange is the per-file line delta of a single commit.
type FileChange struct {
	Path      string `json:"path" toon:"path"`
	Additions int    `json:"additions" toon:"additions"`
	Deletions int    `json:"deletions" toon:"deletions"`
}

// Churn returns additions plus deletions.
func (f FileChange) Churn() int {
	return f.Additions + f.Deletions
}

// Commit is a normalized commit. Values are treated as immutable once built
// by NewCommit or the normalizer.
type Commit struct {
	Hash        string       `json:"hash" toon:"hash"`
	Author      string       `json:"author" toon:"author"`
	Email       string       `json:"email,omitempty" toon:"email,omitempty"`
	Timestamp   time.Time    `json:"timestamp" toon:"timestamp"`
	Message     string       `json:"message" toon:"message"`
	Files       []string     `json:"files" toon:"files"`
	FileChanges []FileChange `json:"file_changes" toon:"file_changes"`
	Insertions  int          `json:"insertions" toon:"insertions"`
	Deletions   int          `json:"deletions" toon:"deletions"`
	Parents     []string     `json:"parents" toon:"parents"`
}

// NewCommit builds a Commit with every optional collection defaulted to an
// empty, non-nil slice so records serialize with a fixed shape.
func NewCommit(hash, author string, ts time.Time, message string, files []string, insertions, deletions int) Commit {
	c := Commit{
		Hash:       hash,
		Author:     author,
		Timestamp:  ts,
		Message:    message,
		Files:      append([]string(nil), files...),
		Insertions: insertions,
		Deletions:  deletions,
	}
	c.Normalize()
	return c
}

// Normalize defaults nil collections to empty slices.
func (c *Commit) Normalize() {
	if c.Files == nil {
		c.Files = []string{}
	}
	if c.FileChanges == nil {
		c.FileChanges = []FileChange{}
	}
	if c.Parents == nil {
		c.Parents = []string{}
	}
}

// Churn returns insertions plus deletions.
func (c Commit) Churn() int {
	return c.Insertions + c.Deletions
}

// HasFiles reports whether the commit touched at least one file.
func (c Commit) HasFiles() bool {
	return len(c.Files) > 0
}

// IsMerge reports whether the commit has more than one parent.
func (c Commit) IsMerge() bool {
	return len(c.Parents) > 1
}

// FileChurn returns the line delta recorded for path. When the commit has no
// per-file breakdown and touches exactly that one file, the commit totals are
// attributed to it.
func (c Commit) FileChurn(path string) (FileChange, bool) {
	for _, fc := range c.FileChanges {
		if fc.Path == path {
			return fc, true
		}
	}
	if len(c.FileChanges) == 0 && len(c.Files) == 1 && c.Files[0] == path {
		return FileChange{Path: path, Additions: c.Insertions, Deletions: c.Deletions}, true
	}
	return FileChange{Path: path}, false
}

// SortCommits orders commits chronologically, breaking timestamp ties by hash.
func SortCommits(commits []Commit) {
	sort.SliceStable(commits, func(i, j int) bool {
		if !commits[i].Timestamp.Equal(commits[j].Timestamp) {
			return commits[i].Timestamp.Before(commits[j].Timestamp)
		}
		return commits[i].Hash < commits[j].Hash
	})
}

// RawCommit is what a history source hands the normalizer: metadata plus the
// free-form `--stat` summary text.
type RawCommit struct {
	Hash      string    `json:"hash"`
	Author    string    `json:"author"`
	Email     string    `json:"email,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	StatText  string    `json:"stat_text"`
	Files     []string  `json:"files,omitempty"`
	Parents   []string  `json:"parents,omitempty"`
}

// StatSummary is the parsed form of a commit's stat text.
type StatSummary struct {
	Insertions  int          `json:"insertions"`
	Deletions   int          `json:"deletions"`
	Files       []string     `json:"files"`
	FileChanges []FileChange `json:"file_changes"`
}
