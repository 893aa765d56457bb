// Package evolution runs the full analysis pipeline over a commit history:
// normalization, collaborator enrichment, complexity trends, ownership drift,
// churn, burnout and risk, plus the optional pull request and TODO
// enrichments.
package evolution

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/sirupsen/logrus"

	"github.com/panbanda/chronicle/internal/logging"
	"github.com/panbanda/chronicle/pkg/analyzer"
	"github.com/panbanda/chronicle/pkg/analyzer/burnout"
	"github.com/panbanda/chronicle/pkg/analyzer/churn"
	"github.com/panbanda/chronicle/pkg/analyzer/commit"
	"github.com/panbanda/chronicle/pkg/analyzer/commitgraph"
	"github.com/panbanda/chronicle/pkg/analyzer/normalize"
	"github.com/panbanda/chronicle/pkg/analyzer/ownership"
	"github.com/panbanda/chronicle/pkg/analyzer/risk"
	"github.com/panbanda/chronicle/pkg/analyzer/satd"
	"github.com/panbanda/chronicle/pkg/analyzer/trend"
	"github.com/panbanda/chronicle/pkg/config"
	"github.com/panbanda/chronicle/pkg/models"
)

// Engine wires the analyzers together. It holds no per-run state and may be
// reused.
type Engine struct {
	cfg        *config.Config
	stats      analyzer.StatsSource
	diffs      analyzer.DiffSource
	prs        analyzer.PullRequestFetcher
	todos      analyzer.TodoReader
	workers    int
	onProgress analyzer.ProgressFunc
	logger     logrus.FieldLogger
}

// Option is a functional option for configuring Engine.
type Option func(*Engine)

// WithStats sets the source for commits that arrive without stats.
func WithStats(s analyzer.StatsSource) Option {
	return func(e *Engine) {
		e.stats = s
	}
}

// WithDiffs sets the diff source. Without one no complexity trends are
// computed.
func WithDiffs(d analyzer.DiffSource) Option {
	return func(e *Engine) {
		e.diffs = d
	}
}

// WithPullRequests enables pull request enrichment of the commit graph.
func WithPullRequests(f analyzer.PullRequestFetcher) Option {
	return func(e *Engine) {
		e.prs = f
	}
}

// WithTodos enables the TODO inventory.
func WithTodos(r analyzer.TodoReader) Option {
	return func(e *Engine) {
		e.todos = r
	}
}

// WithWorkers bounds the enrichment pool. Zero uses the configured value.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithProgress is called once per enriched commit.
func WithProgress(fn analyzer.ProgressFunc) Option {
	return func(e *Engine) {
		e.onProgress = fn
	}
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(e *Engine) {
		e.logger = logging.OrDiscard(l)
	}
}

// New creates an Engine. A nil cfg uses config.DefaultConfig().
func New(cfg *config.Config, opts ...Option) *Engine {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	e := &Engine{
		cfg:     cfg,
		workers: cfg.History.Workers,
		logger:  logging.Discard(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type options struct {
	trend     trend.Options
	ownership ownership.Options
	burnout   burnout.Options
	risk      risk.Options
}

// resolve validates the configuration and derives the analyzer options.
func (e *Engine) resolve() (options, error) {
	var o options
	if err := e.cfg.Validate(); err != nil {
		return o, err
	}

	var err error
	if o.trend, err = e.cfg.TrendOptions(e.logger); err != nil {
		return o, fmt.Errorf("%w: %v", analyzer.ErrInvalidConfig, err)
	}
	if o.burnout, err = e.cfg.BurnoutOptions(); err != nil {
		return o, err
	}
	o.ownership = e.cfg.OwnershipOptions()
	o.risk = e.cfg.RiskOptions()

	o.ownership.Logger = e.logger
	o.burnout.Logger = e.logger
	return o, nil
}

// Run analyzes raw commits. Configuration errors are returned before any
// commit is processed; collaborator failures become Report.Warnings.
func (e *Engine) Run(ctx context.Context, raw []models.RawCommit) (*Report, error) {
	opts, err := e.resolve()
	if err != nil {
		return nil, err
	}

	commits := normalize.New(normalize.WithLogger(e.logger)).Normalize(raw)
	e.logger.WithField("commits", len(commits)).Debug("normalized history")
	return e.analyze(ctx, commits, opts)
}

// RunCommits analyzes already-normalized commits.
func (e *Engine) RunCommits(ctx context.Context, commits []models.Commit) (*Report, error) {
	opts, err := e.resolve()
	if err != nil {
		return nil, err
	}
	ordered := append([]models.Commit(nil), commits...)
	for i := range ordered {
		ordered[i].Normalize()
	}
	models.SortCommits(ordered)
	return e.analyze(ctx, ordered, opts)
}

func (e *Engine) analyze(ctx context.Context, commits []models.Commit, opts options) (*Report, error) {
	enriched := commit.New(
		commit.WithStats(e.stats),
		commit.WithDiffs(e.diffs),
		commit.WithWorkers(e.workers),
		commit.WithLogger(e.logger),
		commit.WithProgress(e.onProgress),
	).Enrich(ctx, commits)

	commits = excludeFiles(enriched.Commits, e.cfg.ShouldExclude)
	report := &Report{Commits: commits, Warnings: enriched.Warnings}

	var err error
	if report.Complexity, err = trend.TrackComplexityTrends(commits, enriched.Diffs, opts.trend); err != nil {
		return nil, fmt.Errorf("complexity trends: %w", err)
	}
	if report.Ownership, err = ownership.AnalyzeDrift(commits, opts.ownership); err != nil {
		return nil, fmt.Errorf("ownership drift: %w", err)
	}
	report.Churn = churn.Analyze(commits)
	if report.Burnout, err = burnout.AnalyzeRisk(commits, opts.burnout); err != nil {
		return nil, fmt.Errorf("burnout: %w", err)
	}
	report.Risk, err = risk.Evaluate(risk.Inputs{
		Trends:    report.Complexity,
		Churn:     report.Churn,
		Ownership: report.Ownership,
		Burnout:   report.Burnout,
	}, opts.risk)
	if err != nil {
		return nil, fmt.Errorf("risk: %w", err)
	}

	prs := e.pullRequests(ctx, commits, report)
	report.Graph = commitgraph.Ordered(commitgraph.Build(commits, prs))
	report.Todos = e.todoInventory(ctx, commits, report)

	commit.SortWarnings(report.Warnings)
	report.Fingerprint, err = Fingerprint(report)
	if err != nil {
		return nil, err
	}

	e.logger.WithFields(logrus.Fields{
		"commits":  len(report.Commits),
		"files":    len(report.Churn.Files),
		"warnings": len(report.Warnings),
	}).Info("analysis complete")
	return report, nil
}

func (e *Engine) pullRequests(ctx context.Context, commits []models.Commit, report *Report) []models.PRRecord {
	if e.prs == nil || len(commits) == 0 {
		return nil
	}
	prs, err := e.prs.FetchPullRequestsForCommits(ctx, commits)
	if err != nil {
		e.logger.WithError(err).Warn("pull request enrichment incomplete")
		report.Warnings = append(report.Warnings, commit.Warning{
			Source:  commit.SourcePullRequests,
			Message: err.Error(),
		})
	}
	// Lookups that succeeded still enrich the graph.
	return prs
}

func (e *Engine) todoInventory(ctx context.Context, commits []models.Commit, report *Report) *TodoReport {
	if e.todos == nil || !e.cfg.Todos.Enabled {
		return nil
	}
	inventory, err := e.todos.ReadTodoInventory(ctx)
	if err != nil {
		e.logger.WithError(err).Warn("todo inventory unavailable")
		report.Warnings = append(report.Warnings, commit.Warning{
			Source:  commit.SourceTodos,
			Message: err.Error(),
		})
		return nil
	}

	todos := &TodoReport{Items: []models.TodoItem{}}
	for path, items := range inventory {
		if e.cfg.ShouldExclude(path) {
			delete(inventory, path)
			continue
		}
		todos.Items = append(todos.Items, items...)
	}
	sort.SliceStable(todos.Items, func(i, j int) bool {
		if todos.Items[i].File != todos.Items[j].File {
			return todos.Items[i].File < todos.Items[j].File
		}
		return todos.Items[i].Line < todos.Items[j].Line
	})
	todos.Stale = satd.FindStale(inventory, commits, e.cfg.Todos.StaleDays)
	return todos
}

// excludeFiles drops excluded paths from each commit's file lists. Commit
// totals are left as recorded so churn stays insertions plus deletions.
func excludeFiles(commits []models.Commit, exclude func(string) bool) []models.Commit {
	out := make([]models.Commit, len(commits))
	for i, c := range commits {
		files := make([]string, 0, len(c.Files))
		for _, f := range c.Files {
			if !exclude(f) {
				files = append(files, f)
			}
		}
		changes := make([]models.FileChange, 0, len(c.FileChanges))
		for _, fc := range c.FileChanges {
			if !exclude(fc.Path) {
				changes = append(changes, fc)
			}
		}
		// a lone survivor must not inherit totals that covered excluded files
		if len(c.FileChanges) == 0 && len(files) == 1 && len(c.Files) > 1 {
			changes = append(changes, models.FileChange{Path: files[0]})
		}
		c.Files = files
		c.FileChanges = changes
		out[i] = c
	}
	return out
}

// Fingerprint hashes the report's JSON form, excluding the fingerprint
// itself. Two runs over the same input and configuration agree.
func Fingerprint(r *Report) (string, error) {
	if r == nil {
		return "", errors.New("nil report")
	}
	clone := *r
	clone.Fingerprint = ""
	data, err := json.Marshal(&clone)
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}
	return fmt.Sprintf("%016x", xxhash.Sum64(data)), nil
}
