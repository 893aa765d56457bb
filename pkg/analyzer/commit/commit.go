// Package commit enriches normalized commits with per-commit stats and diff
// text fetched from collaborators. Fetches for a batch run concurrently and
// all of them finish before Enrich returns.
package commit

import (
	"context"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/panbanda/chronicle/internal/logging"
	"github.com/panbanda/chronicle/pkg/analyzer"
	"github.com/panbanda/chronicle/pkg/models"
)

// Enricher fills in stats and diffs for a batch of commits.
type Enricher struct {
	stats      analyzer.StatsSource
	diffs      analyzer.DiffSource
	workers    int
	logger     logrus.FieldLogger
	onProgress analyzer.ProgressFunc
}

// Option is a functional option for configuring Enricher.
type Option func(*Enricher)

// WithStats sets the stats collaborator.
func WithStats(s analyzer.StatsSource) Option {
	return func(e *Enricher) {
		e.stats = s
	}
}

// WithDiffs sets the diff collaborator.
func WithDiffs(d analyzer.DiffSource) Option {
	return func(e *Enricher) {
		e.diffs = d
	}
}

// WithWorkers bounds the number of concurrent fetches. Zero means NumCPU.
func WithWorkers(n int) Option {
	return func(e *Enricher) {
		if n >= 0 {
			e.workers = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(e *Enricher) {
		e.logger = logging.OrDiscard(l)
	}
}

// WithProgress sets a callback invoked once per processed commit.
func WithProgress(fn analyzer.ProgressFunc) Option {
	return func(e *Enricher) {
		e.onProgress = fn
	}
}

// New creates an Enricher. Without collaborators it passes commits through.
func New(opts ...Option) *Enricher {
	e := &Enricher{logger: logging.Discard()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result is an enriched batch.
type Result struct {
	Commits  []models.Commit
	Diffs    map[string]string
	Warnings []Warning
}

type enriched struct {
	commit   models.Commit
	diff     string
	hasDiff  bool
	warnings []Warning
}

// Enrich fetches stats for commits that carry none and diffs for every
// commit that touched files. A failed fetch degrades only its own commit.
// Commits are returned in chronological order.
func (e *Enricher) Enrich(ctx context.Context, commits []models.Commit) *Result {
	out := analyzer.MapIndexed(commits, e.workers, func(c models.Commit) enriched {
		return e.enrichOne(ctx, c)
	}, e.onProgress)

	res := &Result{
		Commits:  make([]models.Commit, 0, len(out)),
		Diffs:    make(map[string]string),
		Warnings: []Warning{},
	}
	for _, r := range out {
		res.Commits = append(res.Commits, r.commit)
		if r.hasDiff {
			res.Diffs[r.commit.Hash] = r.diff
		}
		res.Warnings = append(res.Warnings, r.warnings...)
	}
	models.SortCommits(res.Commits)
	SortWarnings(res.Warnings)
	return res
}

func (e *Enricher) enrichOne(ctx context.Context, c models.Commit) enriched {
	r := enriched{commit: c}

	if e.stats != nil && NeedsStats(c) {
		s, err := e.stats.CommitStats(ctx, c.Hash)
		if err != nil {
			e.logger.WithError(err).WithField("hash", c.Hash).Warn("commit stats unavailable")
			r.warnings = append(r.warnings, Warning{Hash: c.Hash, Source: SourceStats, Message: err.Error()})
		} else {
			r.commit = ApplyStats(c, s)
		}
	}

	if e.diffs != nil && r.commit.HasFiles() {
		d, err := e.diffs.CommitDiff(ctx, c.Hash)
		if err != nil {
			e.logger.WithError(err).WithField("hash", c.Hash).Warn("commit diff unavailable")
			r.warnings = append(r.warnings, Warning{Hash: c.Hash, Source: SourceDiff, Message: err.Error()})
		} else {
			r.diff = d
			r.hasDiff = true
		}
	}

	return r
}

// NeedsStats reports whether a commit has no line counts or per-file data.
func NeedsStats(c models.Commit) bool {
	return c.Churn() == 0 && len(c.FileChanges) == 0
}

// ApplyStats returns a copy of c carrying the fetched stats. Files already
// on the commit are kept.
func ApplyStats(c models.Commit, s models.StatSummary) models.Commit {
	c.Insertions = s.Insertions
	c.Deletions = s.Deletions
	c.FileChanges = append([]models.FileChange(nil), s.FileChanges...)
	if len(c.Files) == 0 {
		c.Files = append([]string(nil), s.Files...)
	}
	c.Normalize()
	return c
}

// SortWarnings orders warnings by hash then source.
func SortWarnings(ws []Warning) {
	sort.SliceStable(ws, func(i, j int) bool {
		if ws[i].Hash != ws[j].Hash {
			return ws[i].Hash < ws[j].Hash
		}
		return ws[i].Source < ws[j].Source
	})
}
