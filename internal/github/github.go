// Package github looks up the pull requests that contain a commit through
// the GitHub REST API.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	gh "github.com/google/go-github/v57/github"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/panbanda/chronicle/internal/cache"
	"github.com/panbanda/chronicle/internal/logging"
	"github.com/panbanda/chronicle/pkg/analyzer"
	"github.com/panbanda/chronicle/pkg/models"
)

// ErrNoToken is returned by New when no API token is available.
var ErrNoToken = errors.New("github: no token (set GITHUB_TOKEN)")

var _ analyzer.PullRequestFetcher = (*Fetcher)(nil)

const (
	defaultRequestsPerSecond = 10
	defaultConcurrency       = 4
	perPage                  = 100
)

// Fetcher finds the pull requests associated with commits. Each commit is
// looked up once; answers are kept in a PRCache.
type Fetcher struct {
	client      *gh.Client
	owner       string
	repo        string
	limiter     *rate.Limiter
	concurrency int
	cache       *cache.PRCache
	logger      logrus.FieldLogger

	baseURL    string
	httpClient *http.Client
	rps        float64
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithBaseURL points the client at a GitHub Enterprise (or test) API root.
func WithBaseURL(u string) Option {
	return func(f *Fetcher) {
		f.baseURL = u
	}
}

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.httpClient = c
	}
}

// WithRateLimit caps requests per second. Values <= 0 keep the default.
func WithRateLimit(rps float64) Option {
	return func(f *Fetcher) {
		if rps > 0 {
			f.rps = rps
		}
	}
}

// WithConcurrency bounds in-flight requests. Values <= 0 keep the default.
func WithConcurrency(n int) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.concurrency = n
		}
	}
}

// WithCache shares a PRCache, typically one backed by a persistent Store.
func WithCache(c *cache.PRCache) Option {
	return func(f *Fetcher) {
		if c != nil {
			f.cache = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(f *Fetcher) {
		f.logger = logging.OrDiscard(l)
	}
}

// New creates a Fetcher for owner/repo. An empty token yields ErrNoToken.
func New(token, owner, repo string, opts ...Option) (*Fetcher, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrNoToken
	}
	if owner == "" || repo == "" {
		return nil, fmt.Errorf("github: owner and repo are required")
	}

	f := &Fetcher{
		owner:       owner,
		repo:        repo,
		concurrency: defaultConcurrency,
		rps:         defaultRequestsPerSecond,
		logger:      logging.Discard(),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.cache == nil {
		f.cache = cache.NewPRCache(nil, owner+"/"+repo, f.logger)
	}

	client := gh.NewClient(f.httpClient).WithAuthToken(token)
	if f.baseURL != "" {
		base, err := url.Parse(strings.TrimSuffix(f.baseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("github: base url: %w", err)
		}
		client.BaseURL = base
	}
	f.client = client
	f.limiter = rate.NewLimiter(rate.Limit(f.rps), 1)
	return f, nil
}

// FetchPullRequestsForCommits returns the pull requests containing any of
// the commits, one record per pull request with the matching commit hashes
// merged, ordered by number. Only the first page of results per commit is
// read. A failed lookup does not stop the others: the records that were
// found are returned together with the joined lookup errors.
func (f *Fetcher) FetchPullRequestsForCommits(ctx context.Context, commits []models.Commit) ([]models.PRRecord, error) {
	hashes := uniqueHashes(commits)
	results := make([][]models.PRRecord, len(hashes))
	failures := make([]error, len(hashes))

	var g errgroup.Group
	g.SetLimit(f.concurrency)
	for i, hash := range hashes {
		if prs, ok := f.cache.Get(hash); ok {
			results[i] = prs
			continue
		}
		g.Go(func() error {
			prs, err := f.lookup(ctx, hash)
			if err != nil {
				f.logger.WithError(err).WithField("hash", hash).Debug("pull request lookup failed")
				failures[i] = err
				return nil
			}
			f.cache.Put(hash, prs)
			results[i] = prs
			return nil
		})
	}
	_ = g.Wait()
	return mergeByNumber(results), errors.Join(failures...)
}

func (f *Fetcher) lookup(ctx context.Context, hash string) ([]models.PRRecord, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	prs, _, err := f.client.PullRequests.ListPullRequestsWithCommit(ctx, f.owner, f.repo, hash, &gh.ListOptions{PerPage: perPage})
	if err != nil {
		return nil, fmt.Errorf("list pull requests for %s: %w", hash, err)
	}
	f.logger.WithFields(logrus.Fields{"hash": hash, "count": len(prs)}).Debug("pull requests fetched")

	out := make([]models.PRRecord, 0, len(prs))
	for _, pr := range prs {
		out = append(out, toRecord(pr, hash))
	}
	return out, nil
}

func toRecord(pr *gh.PullRequest, hash string) models.PRRecord {
	rec := models.PRRecord{
		Number:       pr.GetNumber(),
		Title:        pr.GetTitle(),
		State:        pr.GetState(),
		Author:       pr.GetUser().GetLogin(),
		URL:          pr.GetHTMLURL(),
		CreatedAt:    pr.GetCreatedAt().Time.UTC(),
		CommitHashes: []string{hash},
	}
	if pr.MergedAt != nil {
		merged := pr.GetMergedAt().Time.UTC()
		rec.MergedAt = &merged
	}
	return rec
}

func uniqueHashes(commits []models.Commit) []string {
	seen := make(map[string]bool, len(commits))
	hashes := make([]string, 0, len(commits))
	for _, c := range commits {
		if c.Hash == "" || seen[c.Hash] {
			continue
		}
		seen[c.Hash] = true
		hashes = append(hashes, c.Hash)
	}
	return hashes
}

func mergeByNumber(results [][]models.PRRecord) []models.PRRecord {
	byNumber := make(map[int]*models.PRRecord)
	for _, prs := range results {
		for _, pr := range prs {
			existing, ok := byNumber[pr.Number]
			if !ok {
				rec := pr
				rec.CommitHashes = append([]string(nil), pr.CommitHashes...)
				byNumber[pr.Number] = &rec
				continue
			}
			existing.CommitHashes = append(existing.CommitHashes, pr.CommitHashes...)
		}
	}

	out := make([]models.PRRecord, 0, len(byNumber))
	for _, rec := range byNumber {
		sort.Strings(rec.CommitHashes)
		rec.CommitHashes = dedupSorted(rec.CommitHashes)
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

func dedupSorted(s []string) []string {
	if len(s) < 2 {
		return s
	}
	out := s[:1]
	for _, v := range s[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}
