// Package analyzer defines the collaborator contracts shared by the
// evolution analyzers and the helpers they use to fan work out.
package analyzer

import (
	"context"
	"errors"

	"github.com/panbanda/chronicle/pkg/models"
)

// ErrInvalidConfig is wrapped by every configuration validation failure.
// Invalid configuration is rejected before any commit is processed.
var ErrInvalidConfig = errors.New("invalid configuration")

// StatsSource supplies the stat summary of a single commit.
type StatsSource interface {
	CommitStats(ctx context.Context, hash string) (models.StatSummary, error)
}

// DiffSource supplies the unified diff text of a single commit.
type DiffSource interface {
	CommitDiff(ctx context.Context, hash string) (string, error)
}

// PullRequestFetcher looks up the pull requests that contain the given
// commits. Implementations may be absent. An error may come with partial
// records; callers keep those and report the error as a warning.
type PullRequestFetcher interface {
	FetchPullRequestsForCommits(ctx context.Context, commits []models.Commit) ([]models.PRRecord, error)
}

// TodoReader returns the TODO inventory keyed by file path.
type TodoReader interface {
	ReadTodoInventory(ctx context.Context) (map[string][]models.TodoItem, error)
}
