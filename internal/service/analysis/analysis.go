// Package analysis runs the evolution engine against a git repository on
// disk. It resolves the history window, wires the git, GitHub, cache and
// TODO collaborators from configuration, and hands back the report. The CLI
// and the MCP server share it.
package analysis

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/panbanda/chronicle/internal/cache"
	"github.com/panbanda/chronicle/internal/github"
	"github.com/panbanda/chronicle/internal/logging"
	"github.com/panbanda/chronicle/internal/progress"
	"github.com/panbanda/chronicle/internal/vcs"
	"github.com/panbanda/chronicle/pkg/analyzer"
	"github.com/panbanda/chronicle/pkg/analyzer/evolution"
	"github.com/panbanda/chronicle/pkg/analyzer/satd"
	"github.com/panbanda/chronicle/pkg/config"
	"github.com/panbanda/chronicle/pkg/models"
)

// EnvGitHubToken names the variable holding the GitHub API token.
const EnvGitHubToken = "GITHUB_TOKEN"

// Service orchestrates repository analysis.
type Service struct {
	config   *config.Config
	opener   vcs.Opener
	logger   logrus.FieldLogger
	token    *string
	noCache  bool
	progress bool
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.config = cfg
		}
	}
}

// WithOpener sets the VCS opener (for testing).
func WithOpener(opener vcs.Opener) Option {
	return func(s *Service) {
		s.opener = opener
	}
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Service) {
		s.logger = logging.OrDiscard(l)
	}
}

// WithGitHubToken sets the API token instead of reading GITHUB_TOKEN.
func WithGitHubToken(token string) Option {
	return func(s *Service) {
		s.token = &token
	}
}

// WithoutCache disables the persistent pull request cache.
func WithoutCache() Option {
	return func(s *Service) {
		s.noCache = true
	}
}

// WithProgress draws progress bars on stderr.
func WithProgress(enabled bool) Option {
	return func(s *Service) {
		s.progress = enabled
	}
}

// New creates a new analysis service.
func New(opts ...Option) *Service {
	s := &Service{
		config: config.LoadOrDefault(),
		opener: vcs.DefaultOpener(),
		logger: logging.Discard(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the configuration in use.
func (s *Service) Config() *config.Config {
	return s.config
}

// Request selects what one run computes.
type Request struct {
	// RepoPath is any path inside the repository.
	RepoPath string
	// Since overrides the configured history window.
	Since *time.Time
	// Diffs enables per-function complexity tracking. Without diffs the
	// complexity analysis and the complexity side of risk stay empty.
	Diffs bool
	// PullRequests enables GitHub enrichment when it is configured.
	PullRequests bool
	// Todos enables the TODO inventory.
	Todos bool
}

// FullRequest computes everything for the repository at path.
func FullRequest(path string) Request {
	return Request{RepoPath: path, Diffs: true, PullRequests: true, Todos: true}
}

// Run reads the repository history and analyzes it.
func (s *Service) Run(ctx context.Context, req Request) (*evolution.Report, error) {
	if err := s.config.Validate(); err != nil {
		return nil, err
	}

	path := req.RepoPath
	if path == "" {
		path = "."
	}
	repo, err := s.opener.PlainOpenWithDetect(path)
	if err != nil {
		return nil, fmt.Errorf("open repository %s: %w", path, err)
	}

	raw, err := s.history(ctx, repo, req)
	if err != nil {
		return nil, err
	}

	src := vcs.NewSource(repo, s.config.Complexity.DiffContext)
	opts := []evolution.Option{
		evolution.WithStats(src),
		evolution.WithLogger(s.logger),
	}
	if req.Diffs {
		opts = append(opts, evolution.WithDiffs(src))
	}
	if req.Todos && s.config.Todos.Enabled {
		opts = append(opts, evolution.WithTodos(s.todoInventory(src)))
	}
	if req.PullRequests && s.config.GitHub.Enabled {
		fetcher, closeCache := s.pullRequestFetcher(repo)
		defer closeCache()
		opts = append(opts, evolution.WithPullRequests(fetcher))
	}

	var tracker *progress.Tracker
	if s.progress && req.Diffs {
		tracker = progress.NewTracker("Enriching commits...", len(raw))
		opts = append(opts, evolution.WithProgress(tracker.Func()))
	}

	report, err := evolution.New(s.config, opts...).Run(ctx, raw)
	if err != nil {
		tracker.FinishError(err)
		return nil, err
	}
	tracker.FinishSuccess()
	return report, nil
}

func (s *Service) history(ctx context.Context, repo vcs.Repository, req Request) ([]models.RawCommit, error) {
	since := req.Since
	if since == nil && s.config.History.SinceDays > 0 {
		t := s.now().AddDate(0, 0, -s.config.History.SinceDays)
		since = &t
	}

	var spinner *progress.Tracker
	if s.progress {
		spinner = progress.NewSpinner("Reading history...")
	}
	raw, err := vcs.History(ctx, repo, vcs.HistoryOptions{
		Since:      since,
		Branch:     s.config.History.Branch,
		MaxCommits: s.config.History.MaxCommits,
		Logger:     s.logger,
	})
	if err != nil {
		spinner.FinishError(err)
		return nil, fmt.Errorf("read history: %w", err)
	}
	spinner.FinishSuccess()

	s.logger.WithFields(logrus.Fields{
		"repo":    repo.RepoPath(),
		"commits": len(raw),
	}).Debug("read history")
	return raw, nil
}

func (s *Service) todoInventory(src *vcs.Source) analyzer.TodoReader {
	var opts []satd.Option
	if s.config.Todos.Strict {
		opts = append(opts, satd.WithStrictMode())
	}
	return satd.NewInventory(src,
		satd.WithAnalyzer(satd.New(opts...)),
		satd.WithBlamer(src),
		satd.WithExclude(s.config.ShouldExclude),
		satd.WithInventoryLogger(s.logger),
	)
}

// pullRequestFetcher builds the GitHub fetcher. When enrichment cannot be
// set up the returned fetcher reports why, so the run records a warning
// instead of failing.
func (s *Service) pullRequestFetcher(repo vcs.Repository) (analyzer.PullRequestFetcher, func()) {
	noop := func() {}
	gh := s.config.GitHub

	owner, name := gh.Owner, gh.Repo
	if owner == "" || name == "" {
		remote, err := repo.RemoteURL("origin")
		if err != nil {
			return unavailable{fmt.Errorf("resolve github repository: %w", err)}, noop
		}
		if owner, name, err = github.ParseSlug(remote); err != nil {
			return unavailable{err}, noop
		}
	}

	token := os.Getenv(EnvGitHubToken)
	if s.token != nil {
		token = *s.token
	}

	opts := []github.Option{
		github.WithRateLimit(gh.RequestsPerSecond),
		github.WithConcurrency(gh.Concurrency),
		github.WithLogger(s.logger),
	}
	if gh.BaseURL != "" {
		opts = append(opts, github.WithBaseURL(gh.BaseURL))
	}

	closeStore := noop
	if s.config.Cache.Enabled && !s.noCache {
		dir := s.config.Cache.Dir
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(repo.RepoPath(), dir)
		}
		store, err := cache.Open(s.config.Cache.Backend, dir, s.config.CacheTTL())
		if err != nil {
			s.logger.WithError(err).Warn("pull request cache unavailable")
		} else {
			closeStore = func() {
				if err := store.Close(); err != nil {
					s.logger.WithError(err).Warn("close pull request cache")
				}
			}
			opts = append(opts, github.WithCache(cache.NewPRCache(store, owner+"/"+name, s.logger)))
		}
	}

	fetcher, err := github.New(token, owner, name, opts...)
	if err != nil {
		closeStore()
		return unavailable{err}, noop
	}
	return fetcher, closeStore
}

// unavailable is a PullRequestFetcher that always fails with err.
type unavailable struct {
	err error
}

func (u unavailable) FetchPullRequestsForCommits(context.Context, []models.Commit) ([]models.PRRecord, error) {
	return nil, u.err
}
