package vcs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/sirupsen/logrus"

	"github.com/panbanda/chronicle/internal/logging"
	"github.com/panbanda/chronicle/pkg/models"
)

// HistoryOptions bounds a history read.
type HistoryOptions struct {
	Since  *time.Time
	Branch string
	// MaxCommits keeps only the newest N commits. Zero reads everything.
	MaxCommits int
	// SkipStats leaves StatText empty so stats can be fetched later.
	SkipStats bool
	Logger    logrus.FieldLogger
}

// History reads commit metadata and numstat text from repo, newest first.
// A commit whose stats cannot be computed is kept with empty stat text.
func History(ctx context.Context, repo Repository, opts HistoryOptions) ([]models.RawCommit, error) {
	logger := logging.OrDiscard(opts.Logger)

	iter, err := repo.Log(&LogOptions{Since: opts.Since, Branch: opts.Branch})
	if err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	defer iter.Close()

	var raw []models.RawCommit
	err = iter.ForEach(func(c Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if opts.MaxCommits > 0 && len(raw) >= opts.MaxCommits {
			return storer.ErrStop
		}

		rc := RawFromCommit(c)
		if !opts.SkipStats {
			stats, err := c.Stats()
			if err != nil {
				logger.WithError(err).WithField("hash", rc.Hash).Warn("commit stats unavailable")
			} else {
				rc.StatText = NumstatText(stats)
			}
		}
		raw = append(raw, rc)
		return nil
	})
	if err != nil && !errors.Is(err, storer.ErrStop) {
		return nil, err
	}
	return raw, nil
}

// RawFromCommit copies commit metadata into a RawCommit.
func RawFromCommit(c Commit) models.RawCommit {
	author := c.Author()
	parents := c.ParentHashes()
	rc := models.RawCommit{
		Hash:      c.Hash().String(),
		Author:    author.Name,
		Email:     author.Email,
		Timestamp: author.When,
		Message:   strings.TrimSpace(c.Message()),
		Parents:   make([]string, len(parents)),
	}
	for i, p := range parents {
		rc.Parents[i] = p.String()
	}
	return rc
}

// NumstatText renders file stats in `git log --numstat` form.
func NumstatText(stats object.FileStats) string {
	var b strings.Builder
	for _, s := range stats {
		fmt.Fprintf(&b, "%d\t%d\t%s\n", s.Addition, s.Deletion, s.Name)
	}
	return b.String()
}

// StatSummary converts file stats into a models.StatSummary.
func StatSummary(stats object.FileStats) models.StatSummary {
	summary := models.StatSummary{
		Files:       make([]string, 0, len(stats)),
		FileChanges: make([]models.FileChange, 0, len(stats)),
	}
	for _, s := range stats {
		summary.Files = append(summary.Files, s.Name)
		summary.FileChanges = append(summary.FileChanges, models.FileChange{
			Path:      s.Name,
			Additions: s.Addition,
			Deletions: s.Deletion,
		})
		summary.Insertions += s.Addition
		summary.Deletions += s.Deletion
	}
	return summary
}
