package vcs

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/panbanda/chronicle/pkg/analyzer"
	"github.com/panbanda/chronicle/pkg/analyzer/satd"
	"github.com/panbanda/chronicle/pkg/models"
)

var (
	_ analyzer.StatsSource = (*Source)(nil)
	_ analyzer.DiffSource  = (*Source)(nil)
	_ satd.FileSource      = (*Source)(nil)
	_ satd.Blamer          = (*Source)(nil)
)

// Source serves per-commit stats and diffs, and HEAD file contents and blame,
// from one repository.
type Source struct {
	repo         Repository
	contextLines int

	headOnce sync.Once
	head     Commit
	headErr  error
}

// NewSource creates a Source. contextLines sets the unified diff context.
func NewSource(repo Repository, contextLines int) *Source {
	if contextLines < 0 {
		contextLines = 0
	}
	return &Source{repo: repo, contextLines: contextLines}
}

func (s *Source) commit(hash string) (Commit, error) {
	if !plumbing.IsHash(hash) {
		return nil, fmt.Errorf("invalid commit hash %q", hash)
	}
	return s.repo.CommitObject(plumbing.NewHash(hash))
}

// CommitStats returns the stat summary of a commit against its first parent.
func (s *Source) CommitStats(ctx context.Context, hash string) (models.StatSummary, error) {
	if err := ctx.Err(); err != nil {
		return models.StatSummary{}, err
	}
	c, err := s.commit(hash)
	if err != nil {
		return models.StatSummary{}, err
	}
	stats, err := c.Stats()
	if err != nil {
		return models.StatSummary{}, fmt.Errorf("stats for %s: %w", hash, err)
	}
	return StatSummary(stats), nil
}

// CommitDiff returns the unified diff of a commit against its first parent.
func (s *Source) CommitDiff(ctx context.Context, hash string) (string, error) {
	c, err := s.commit(hash)
	if err != nil {
		return "", err
	}
	patch, err := c.Patch(ctx)
	if err != nil {
		return "", fmt.Errorf("patch for %s: %w", hash, err)
	}
	var b strings.Builder
	if err := patch.Encode(&b, s.contextLines); err != nil {
		return "", fmt.Errorf("encode patch for %s: %w", hash, err)
	}
	return b.String(), nil
}

func (s *Source) headCommit() (Commit, error) {
	s.headOnce.Do(func() {
		ref, err := s.repo.Head()
		if err != nil {
			s.headErr = err
			return
		}
		s.head, s.headErr = s.repo.CommitObject(ref.Hash())
	})
	return s.head, s.headErr
}

// Files lists the non-binary files at HEAD.
func (s *Source) Files(ctx context.Context) ([]string, error) {
	c, err := s.headCommit()
	if err != nil {
		return nil, err
	}
	tree, err := c.Tree()
	if err != nil {
		return nil, err
	}
	entries, err := tree.Entries()
	if err != nil {
		return nil, err
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Binary {
			continue
		}
		files = append(files, e.Path)
	}
	return files, ctx.Err()
}

// Read returns the content of path at HEAD.
func (s *Source) Read(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, err := s.headCommit()
	if err != nil {
		return nil, err
	}
	tree, err := c.Tree()
	if err != nil {
		return nil, err
	}
	return tree.File(path)
}

// BlameLines returns the origin of every line of path at HEAD, indexed by
// line number minus one.
func (s *Source) BlameLines(ctx context.Context, path string) ([]satd.LineOrigin, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, err := s.headCommit()
	if err != nil {
		return nil, err
	}
	blame, err := s.repo.Blame(c, path)
	if err != nil {
		return nil, err
	}
	out := make([]satd.LineOrigin, len(blame.Lines))
	for i, l := range blame.Lines {
		out[i] = satd.LineOrigin{Author: l.AuthorName, Date: l.Date}
	}
	return out, nil
}
