// Package risk combines churn, complexity trends and ownership stability into
// 0-10 risk scores for files and functions, and carries author burnout scores
// on the same scale.
package risk

import (
	"fmt"
	"math"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/panbanda/chronicle/internal/logging"
	"github.com/panbanda/chronicle/pkg/analyzer"
	"github.com/panbanda/chronicle/pkg/analyzer/burnout"
	"github.com/panbanda/chronicle/pkg/analyzer/churn"
	"github.com/panbanda/chronicle/pkg/analyzer/ownership"
	"github.com/panbanda/chronicle/pkg/analyzer/trend"
	"github.com/panbanda/chronicle/pkg/stats"
)

// Options configures risk scoring.
type Options struct {
	ChurnWeight      float64
	ComplexityWeight float64
	TrendBoost       float64

	// ChurnDivisor and ComplexityDivisor scale raw values to 0-10:
	// min(10, changes/ChurnDivisor), min(10, complexity/ComplexityDivisor).
	ChurnDivisor      float64
	ComplexityDivisor float64

	HighThreshold   float64
	MediumThreshold float64

	// A refactoring candidate needs composite >= CandidateComposite and
	// complexity > CandidateComplexity and churn > CandidateChurn.
	CandidateComposite  float64
	CandidateComplexity float64
	CandidateChurn      float64

	Logger logrus.FieldLogger
}

// DefaultOptions returns the default scoring options.
func DefaultOptions() Options {
	return Options{
		ChurnWeight:         0.4,
		ComplexityWeight:    0.6,
		TrendBoost:          2,
		ChurnDivisor:        2,
		ComplexityDivisor:   5,
		HighThreshold:       7,
		MediumThreshold:     4,
		CandidateComposite:  7,
		CandidateComplexity: 7,
		CandidateChurn:      5,
	}
}

// Validate rejects unusable options.
func (o Options) Validate() error {
	if o.ChurnWeight < 0 || o.ChurnWeight > 1 || o.ComplexityWeight < 0 || o.ComplexityWeight > 1 {
		return fmt.Errorf("%w: risk weights must be within [0,1]", analyzer.ErrInvalidConfig)
	}
	if sum := o.ChurnWeight + o.ComplexityWeight; math.Abs(sum-1) > 1e-6 {
		return fmt.Errorf("%w: risk weights must sum to 1, got %v", analyzer.ErrInvalidConfig, sum)
	}
	if o.TrendBoost < 0 {
		return fmt.Errorf("%w: trend boost must not be negative, got %v", analyzer.ErrInvalidConfig, o.TrendBoost)
	}
	if o.ChurnDivisor <= 0 || o.ComplexityDivisor <= 0 {
		return fmt.Errorf("%w: risk divisors must be positive", analyzer.ErrInvalidConfig)
	}
	if o.MediumThreshold < 0 || o.HighThreshold > 10 || o.MediumThreshold > o.HighThreshold {
		return fmt.Errorf("%w: risk thresholds must satisfy 0 <= medium (%v) <= high (%v) <= 10",
			analyzer.ErrInvalidConfig, o.MediumThreshold, o.HighThreshold)
	}
	return nil
}

// Classify maps a composite score to a level.
func (o Options) Classify(score float64) Level {
	switch {
	case score >= o.HighThreshold:
		return LevelHigh
	case score >= o.MediumThreshold:
		return LevelMedium
	default:
		return LevelLow
	}
}

// NormalizeChurn returns min(10, changes/ChurnDivisor).
func (o Options) NormalizeChurn(changes int) float64 {
	return math.Min(10, float64(changes)/o.ChurnDivisor)
}

// NormalizeComplexity returns min(10, complexity/ComplexityDivisor).
func (o Options) NormalizeComplexity(complexity int) float64 {
	return math.Min(10, float64(complexity)/o.ComplexityDivisor)
}

// Inputs are the analyses a risk run combines. Any of them may be nil.
type Inputs struct {
	Trends    *trend.Analysis
	Churn     *churn.Analysis
	Ownership *ownership.Analysis
	Burnout   *burnout.Analysis
}

// Evaluate scores every file, function and author found in the inputs.
func Evaluate(in Inputs, opts Options) (*Analysis, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	logger := logging.OrDiscard(opts.Logger)

	a := &Analysis{
		Files:     []Score{},
		Functions: []Score{},
		Authors:   []Score{},
	}

	var byFile map[string][]trend.FunctionTrend
	if in.Trends != nil {
		byFile = in.Trends.ByFile()
		for _, t := range in.Trends.ComplexityTrends {
			a.Functions = append(a.Functions, opts.scoreFunction(t))
		}
	}

	for _, path := range filePaths(in, byFile) {
		s, ok := opts.scoreFile(path, in, byFile[path])
		if !ok {
			logger.WithField("file", path).Debug("no churn or complexity data for file")
			continue
		}
		a.Files = append(a.Files, s)
	}

	if in.Burnout != nil {
		for _, ins := range in.Burnout.Insights {
			a.Authors = append(a.Authors, authorScore(ins))
		}
	}

	sortScores(a.Files)
	sortScores(a.Functions)
	sortScores(a.Authors)
	a.calculateSummary()
	return a, nil
}

// Composite returns the clamped weighted sum of the components.
func (o Options) Composite(churnComponent, complexityComponent, trendComponent float64) float64 {
	score := o.ChurnWeight*churnComponent + o.ComplexityWeight*complexityComponent + o.TrendBoost*trendComponent
	if math.IsNaN(score) {
		return 0
	}
	return stats.Clamp(score, 0, 10)
}

// IsRefactoringCandidate requires every threshold to be exceeded at once.
func (o Options) IsRefactoringCandidate(composite, complexityComponent, churnComponent float64) bool {
	return composite >= o.CandidateComposite &&
		complexityComponent > o.CandidateComplexity &&
		churnComponent > o.CandidateChurn
}

func (o Options) build(subject string, kind Kind, changes, complexity int, trendComponent float64) Score {
	churnComponent := o.NormalizeChurn(changes)
	complexityComponent := o.NormalizeComplexity(complexity)
	composite := o.Composite(churnComponent, complexityComponent, trendComponent)
	hotspot := HotspotScore(changes, float64(complexity))

	return Score{
		Subject:                subject,
		Kind:                   kind,
		ChurnComponent:         churnComponent,
		ComplexityComponent:    complexityComponent,
		TrendComponent:         trendComponent,
		CompositeScore:         composite,
		Classification:         o.Classify(composite),
		IsRefactoringCandidate: o.IsRefactoringCandidate(composite, complexityComponent, churnComponent),
		ChangeCount:            changes,
		LatestComplexity:       complexity,
		HotspotScore:           hotspot,
		HotspotSeverity:        HotspotSeverity(hotspot),
	}
}

func (o Options) scoreFunction(t trend.FunctionTrend) Score {
	s := o.build(t.Key(), KindFunction, len(t.History), t.LatestComplexity, t.IncreasingRatio)
	s.File = t.File
	return s
}

// scoreFile uses the file's commit count when churn data exists, otherwise
// the number of distinct commits seen in its function histories. Complexity
// and trend are the maxima over the file's functions.
func (o Options) scoreFile(path string, in Inputs, trends []trend.FunctionTrend) (Score, bool) {
	changes := 0
	haveChurn := false
	if in.Churn != nil {
		if fm, ok := in.Churn.File(path); ok {
			changes = fm.Commits
			haveChurn = true
		}
	}
	if !haveChurn && len(trends) == 0 {
		return Score{}, false
	}

	latest := 0
	trendComponent := 0.0
	hashes := make(map[string]bool)
	for _, t := range trends {
		if t.LatestComplexity > latest {
			latest = t.LatestComplexity
		}
		if t.IncreasingRatio > trendComponent {
			trendComponent = t.IncreasingRatio
		}
		for _, sample := range t.History {
			hashes[sample.CommitHash] = true
		}
	}
	if !haveChurn {
		changes = len(hashes)
	}

	s := o.build(path, KindFile, changes, latest, trendComponent)
	s.File = path
	if in.Ownership != nil {
		if st, ok := in.Ownership.StabilityFor(path); ok && st.Score != nil {
			s.OwnershipComponent = stats.Clamp((1-*st.Score)*10, 0, 10)
		}
	}
	return s, true
}

func authorScore(in burnout.Insight) Score {
	level := LevelLow
	switch in.RiskLevel {
	case burnout.RiskHigh:
		level = LevelHigh
	case burnout.RiskMedium:
		level = LevelMedium
	}
	return Score{
		Subject:        in.Author,
		Kind:           KindAuthor,
		CompositeScore: in.Score,
		Classification: level,
		ChangeCount:    in.Commits,
	}
}

func filePaths(in Inputs, byFile map[string][]trend.FunctionTrend) []string {
	set := make(map[string]bool, len(byFile))
	for path := range byFile {
		set[path] = true
	}
	if in.Churn != nil {
		for _, fm := range in.Churn.Files {
			set[fm.Path] = true
		}
	}
	paths := make([]string, 0, len(set))
	for p := range set {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func sortScores(scores []Score) {
	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].CompositeScore != scores[j].CompositeScore {
			return scores[i].CompositeScore > scores[j].CompositeScore
		}
		return scores[i].Subject < scores[j].Subject
	})
}

func (a *Analysis) calculateSummary() {
	a.Summary.Files = len(a.Files)
	a.Summary.Functions = len(a.Functions)
	a.Summary.Authors = len(a.Authors)

	for _, list := range [][]Score{a.Files, a.Functions, a.Authors} {
		for _, s := range list {
			switch s.Classification {
			case LevelHigh:
				a.Summary.HighRisk++
			case LevelMedium:
				a.Summary.MediumRisk++
			default:
				a.Summary.LowRisk++
			}
			if s.IsRefactoringCandidate {
				a.Summary.RefactoringCandidates++
			}
		}
	}

	if len(a.Files) == 0 {
		return
	}
	scores := make([]float64, len(a.Files))
	for i, s := range a.Files {
		scores[i] = s.CompositeScore
	}
	sort.Float64s(scores)
	a.Summary.MaxFileScore = scores[len(scores)-1]
	a.Summary.AvgFileScore, _ = stats.MeanVariance(scores)
	a.Summary.P90FileScore = stats.Percentile(scores, 90)
}
