// Package trend tracks per-function complexity histories across a commit
// sequence and derives growth signals from them.
package trend

import (
	"fmt"
	"math"
	"sort"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"github.com/panbanda/chronicle/internal/logging"
	"github.com/panbanda/chronicle/pkg/analyzer"
	"github.com/panbanda/chronicle/pkg/analyzer/funcdiff"
	"github.com/panbanda/chronicle/pkg/models"
)

// DefaultGrowthThreshold is the growth rate above which an increasing
// function needs refactoring.
const DefaultGrowthThreshold = 1.5

// Options configures TrackComplexityTrends.
type Options struct {
	GrowthThreshold float64
	Differ          *funcdiff.Differ
	// Exclude drops function changes in matching files.
	Exclude func(path string) bool
	Logger  logrus.FieldLogger
}

// DefaultOptions returns the standard options.
func DefaultOptions() Options {
	return Options{GrowthThreshold: DefaultGrowthThreshold}
}

// Validate checks the options.
func (o Options) Validate() error {
	if o.GrowthThreshold < 0 || math.IsNaN(o.GrowthThreshold) {
		return fmt.Errorf("%w: growth threshold must be non-negative, got %v", analyzer.ErrInvalidConfig, o.GrowthThreshold)
	}
	return nil
}

// TrackComplexityTrends diffs every commit that has diff text, appends the
// post-change measurement of each touched function to that function's
// history, and summarizes each history. Commits are walked chronologically;
// a commit without a diff is skipped.
func TrackComplexityTrends(commits []models.Commit, diffs map[string]string, opts Options) (*Analysis, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	differ := opts.Differ
	if differ == nil {
		differ = funcdiff.New()
	}
	logger := logging.OrDiscard(opts.Logger)

	ordered := append([]models.Commit(nil), commits...)
	models.SortCommits(ordered)

	analysis := &Analysis{
		ComplexityChanges: []funcdiff.FunctionChange{},
		ComplexityTrends:  []FunctionTrend{},
	}
	histories := make(map[string][]Sample)
	var order []string

	for _, c := range ordered {
		text, ok := diffs[c.Hash]
		if !ok {
			analysis.Summary.CommitsWithoutDiff++
			logger.WithField("hash", c.Hash).Debug("no diff for commit, skipping complexity")
			continue
		}
		analysis.Summary.CommitsAnalyzed++

		for _, change := range differ.Diff(c, text) {
			if opts.Exclude != nil && opts.Exclude(change.File) {
				continue
			}
			analysis.ComplexityChanges = append(analysis.ComplexityChanges, change)
			if change.IsSignificantIncrease {
				analysis.Summary.SignificantIncreases++
			}
			if change.RefactoringCandidate {
				analysis.Summary.RefactoringCandidates++
			}

			key := change.Key()
			if _, seen := histories[key]; !seen {
				order = append(order, key)
			}
			histories[key] = append(histories[key], Sample{
				File:         change.File,
				Function:     change.Function,
				CommitHash:   change.CommitHash,
				Timestamp:    change.Timestamp,
				Complexity:   change.AfterComplexity,
				NestingDepth: change.AfterNesting,
				LineCount:    change.AfterLines,
			})
		}
	}

	for _, key := range order {
		analysis.ComplexityTrends = append(analysis.ComplexityTrends, Summarize(histories[key], opts.GrowthThreshold))
	}
	sort.SliceStable(analysis.ComplexityTrends, func(i, j int) bool {
		return analysis.ComplexityTrends[i].Key() < analysis.ComplexityTrends[j].Key()
	})

	analysis.calculateSummary()
	return analysis, nil
}

// Summarize derives the trend of a single history.
//
//	growth     = (last - first) / len(history)
//	increasing = more than half of consecutive transitions rise
//	refactor   = increasing && growth > threshold
//
// Fewer than two points yield growth 0 and not increasing.
func Summarize(history []Sample, growthThreshold float64) FunctionTrend {
	t := FunctionTrend{History: history}
	if len(history) == 0 {
		t.InsufficientData = true
		return t
	}
	first, last := history[0], history[len(history)-1]
	t.File = first.File
	t.Function = first.Function
	t.FirstComplexity = first.Complexity
	t.LatestComplexity = last.Complexity

	if len(history) < 2 {
		t.InsufficientData = true
		return t
	}

	t.GrowthRate = float64(last.Complexity-first.Complexity) / float64(len(history))

	transitions := len(history) - 1
	var rising int
	for i := 1; i < len(history); i++ {
		if history[i].Complexity > history[i-1].Complexity {
			rising++
		}
	}
	t.IncreasingRatio = float64(rising) / float64(transitions)
	t.IsIncreasing = rising*2 > transitions
	t.NeedsRefactoring = t.IsIncreasing && t.GrowthRate > growthThreshold

	t.Slope, t.Intercept, t.RSquared = regression(history)
	return t
}

// regression fits complexity against sample index. Degenerate fits (flat
// histories) report a zero R².
func regression(history []Sample) (slope, intercept, rSquared float64) {
	xs := make([]float64, len(history))
	ys := make([]float64, len(history))
	for i, s := range history {
		xs[i] = float64(i)
		ys[i] = float64(s.Complexity)
	}

	intercept, slope = stat.LinearRegression(xs, ys, nil, false)
	rSquared = stat.RSquared(xs, ys, nil, intercept, slope)
	return finite(slope), finite(intercept), finite(rSquared)
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func (a *Analysis) calculateSummary() {
	a.Summary.FunctionsTracked = len(a.ComplexityTrends)
	a.Summary.TopGrowing = []string{}

	growing := make([]FunctionTrend, 0)
	for _, t := range a.ComplexityTrends {
		if t.IsIncreasing {
			a.Summary.IncreasingFunctions++
			growing = append(growing, t)
		}
		if t.NeedsRefactoring {
			a.Summary.NeedsRefactoring++
		}
	}

	sort.SliceStable(growing, func(i, j int) bool {
		if growing[i].GrowthRate != growing[j].GrowthRate {
			return growing[i].GrowthRate > growing[j].GrowthRate
		}
		return growing[i].Key() < growing[j].Key()
	})
	for i, t := range growing {
		if i >= 5 {
			break
		}
		a.Summary.TopGrowing = append(a.Summary.TopGrowing, t.Key())
	}
}
