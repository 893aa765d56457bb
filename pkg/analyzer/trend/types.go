package trend

import (
	"time"

	"github.com/panbanda/chronicle/pkg/analyzer/funcdiff"
)

// Sample is one point of a function's complexity history.
type Sample struct {
	File         string    `json:"file" toon:"file"`
	Function     string    `json:"function" toon:"function"`
	CommitHash   string    `json:"commit_hash" toon:"commit_hash"`
	Timestamp    time.Time `json:"timestamp" toon:"timestamp"`
	Complexity   int       `json:"complexity" toon:"complexity"`
	NestingDepth int       `json:"nesting_depth" toon:"nesting_depth"`
	LineCount    int       `json:"line_count" toon:"line_count"`
}

// FunctionTrend summarizes the complexity history of one function.
type FunctionTrend struct {
	File             string   `json:"file" toon:"file"`
	Function         string   `json:"function" toon:"function"`
	History          []Sample `json:"history" toon:"history"`
	FirstComplexity  int      `json:"first_complexity" toon:"first_complexity"`
	LatestComplexity int      `json:"latest_complexity" toon:"latest_complexity"`
	GrowthRate       float64  `json:"growth_rate" toon:"growth_rate"`
	IsIncreasing     bool     `json:"is_increasing" toon:"is_increasing"`
	NeedsRefactoring bool     `json:"needs_refactoring" toon:"needs_refactoring"`
	InsufficientData bool     `json:"insufficient_data" toon:"insufficient_data"`

	// IncreasingRatio is the share of consecutive transitions that rise, 0-1.
	IncreasingRatio float64 `json:"increasing_ratio" toon:"increasing_ratio"`
	Slope           float64 `json:"slope" toon:"slope"`
	Intercept       float64 `json:"intercept" toon:"intercept"`
	RSquared        float64 `json:"r_squared" toon:"r_squared"`
}

// Key identifies the function across commits.
func (t FunctionTrend) Key() string {
	return t.File + "::" + t.Function
}

// Summary aggregates the trend analysis.
type Summary struct {
	CommitsAnalyzed       int      `json:"commits_analyzed" toon:"commits_analyzed"`
	CommitsWithoutDiff    int      `json:"commits_without_diff" toon:"commits_without_diff"`
	FunctionsTracked      int      `json:"functions_tracked" toon:"functions_tracked"`
	IncreasingFunctions   int      `json:"increasing_functions" toon:"increasing_functions"`
	NeedsRefactoring      int      `json:"needs_refactoring" toon:"needs_refactoring"`
	SignificantIncreases  int      `json:"significant_increases" toon:"significant_increases"`
	RefactoringCandidates int      `json:"refactoring_candidates" toon:"refactoring_candidates"`
	TopGrowing            []string `json:"top_growing" toon:"top_growing"`
}

// Analysis is the result of TrackComplexityTrends.
type Analysis struct {
	ComplexityChanges []funcdiff.FunctionChange `json:"complexity_changes" toon:"complexity_changes"`
	ComplexityTrends  []FunctionTrend           `json:"complexity_trends" toon:"complexity_trends"`
	Summary           Summary                   `json:"summary" toon:"summary"`
}

// ByFile groups trends by file path.
func (a *Analysis) ByFile() map[string][]FunctionTrend {
	out := make(map[string][]FunctionTrend)
	for _, t := range a.ComplexityTrends {
		out[t.File] = append(out[t.File], t)
	}
	return out
}
