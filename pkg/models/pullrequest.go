package models

import "time"

// PRRecord is a pull request associated with one or more commits.
type PRRecord struct {
	Number       int        `json:"number" toon:"number"`
	Title        string     `json:"title" toon:"title"`
	State        string     `json:"state" toon:"state"`
	Author       string     `json:"author" toon:"author"`
	URL          string     `json:"url" toon:"url"`
	CreatedAt    time.Time  `json:"created_at" toon:"created_at"`
	MergedAt     *time.Time `json:"merged_at,omitempty" toon:"merged_at,omitempty"`
	CommitHashes []string   `json:"commit_hashes" toon:"commit_hashes"`
}

// IsMerged reports whether the pull request has a merge time.
func (p PRRecord) IsMerged() bool {
	return p.MergedAt != nil
}

// TodoItem is a TODO-style marker found in the working tree.
type TodoItem struct {
	File   string     `json:"file" toon:"file"`
	Line   int        `json:"line" toon:"line"`
	Marker string     `json:"marker" toon:"marker"`
	Text   string     `json:"text" toon:"text"`
	Author string     `json:"author,omitempty" toon:"author,omitempty"`
	Date   *time.Time `json:"date,omitempty" toon:"date,omitempty"`
}
