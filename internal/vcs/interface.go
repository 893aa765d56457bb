// Package vcs provides version control system abstractions.
package vcs

import (
	"context"
	"io"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Repository provides access to git repository operations.
type Repository interface {
	// Head returns a reference to the HEAD commit.
	Head() (Reference, error)
	// Log returns a commit iterator starting from HEAD, newest first.
	Log(opts *LogOptions) (CommitIterator, error)
	// CommitObject returns the commit with the given hash.
	CommitObject(hash plumbing.Hash) (Commit, error)
	// Blame returns blame information for a file at a specific commit.
	Blame(commit Commit, path string) (*BlameResult, error)
	// RepoPath returns the root path of the repository.
	RepoPath() string
	// RemoteURL returns the first URL of the named remote.
	RemoteURL(name string) (string, error)
}

// Reference represents a git reference (branch, tag, HEAD).
type Reference interface {
	Hash() plumbing.Hash
	// Name is the short branch name, or the hash for a detached HEAD.
	Name() string
}

// LogOptions configures the commit log query.
type LogOptions struct {
	Since *time.Time
	// Branch starts the walk from refs/heads/<Branch> instead of HEAD.
	Branch string
}

// CommitIterator iterates over commits.
type CommitIterator interface {
	ForEach(fn func(Commit) error) error
	Close()
}

// Commit represents a git commit.
type Commit interface {
	// Hash returns the commit hash.
	Hash() plumbing.Hash
	// NumParents returns the number of parent commits.
	NumParents() int
	// ParentHashes returns the parent hashes in order.
	ParentHashes() []plumbing.Hash
	// Tree returns the tree object for this commit.
	Tree() (Tree, error)
	// Stats returns file stats against the first parent.
	Stats() (object.FileStats, error)
	// Author returns commit author information.
	Author() object.Signature
	// Message returns the commit message.
	Message() string
	// Patch returns the changes against the first parent, or against the
	// empty tree for a root commit.
	Patch(ctx context.Context) (Patch, error)
}

// TreeEntry represents a file in a git tree.
type TreeEntry struct {
	Path   string
	Size   int64
	Binary bool
}

// Tree represents a git tree object.
type Tree interface {
	// Entries returns all files in the tree (recursively).
	Entries() ([]TreeEntry, error)
	// File returns the contents of the file at path.
	File(path string) ([]byte, error)
}

// Patch is a set of file changes that can be rendered as a unified diff.
type Patch interface {
	// Encode writes the unified diff with the given number of context lines.
	Encode(w io.Writer, contextLines int) error
}

// BlameResult contains blame information for a file.
type BlameResult struct {
	Lines []BlameLine
}

// BlameLine represents a single line in a blame result.
type BlameLine struct {
	Author     string // email
	AuthorName string
	Text       string
	Date       time.Time
	Hash       string
}

// Opener opens git repositories.
type Opener interface {
	// PlainOpen opens an existing git repository.
	PlainOpen(path string) (Repository, error)
	// PlainOpenWithDetect opens a git repository, detecting .git in parent directories.
	PlainOpenWithDetect(path string) (Repository, error)
}
