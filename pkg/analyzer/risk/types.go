package risk

// Kind is the subject type of a score.
type Kind string

const (
	KindFile     Kind = "file"
	KindFunction Kind = "function"
	KindAuthor   Kind = "author"
)

// Level is a risk classification.
type Level string

const (
	LevelHigh   Level = "high"
	LevelMedium Level = "medium"
	LevelLow    Level = "low"
)

// Score is the risk of one file, function or author. Scores are produced
// fresh on every run from the analyses they combine.
type Score struct {
	Subject             string  `json:"subject" toon:"subject"`
	Kind                Kind    `json:"kind" toon:"kind"`
	File                string  `json:"file,omitempty" toon:"file,omitempty"`
	ChurnComponent      float64 `json:"churn_component" toon:"churn_component"`
	ComplexityComponent float64 `json:"complexity_component" toon:"complexity_component"`
	TrendComponent      float64 `json:"trend_component" toon:"trend_component"`
	// OwnershipComponent is reported alongside, not folded into the composite.
	OwnershipComponent     float64 `json:"ownership_component" toon:"ownership_component"`
	CompositeScore         float64 `json:"composite_score" toon:"composite_score"`
	Classification         Level   `json:"classification" toon:"classification"`
	IsRefactoringCandidate bool    `json:"is_refactoring_candidate" toon:"is_refactoring_candidate"`

	ChangeCount      int     `json:"change_count" toon:"change_count"`
	LatestComplexity int     `json:"latest_complexity" toon:"latest_complexity"`
	HotspotScore     float64 `json:"hotspot_score" toon:"hotspot_score"`
	HotspotSeverity  string  `json:"hotspot_severity" toon:"hotspot_severity"`
}

// Summary counts scores by classification.
type Summary struct {
	Files                 int     `json:"files" toon:"files"`
	Functions             int     `json:"functions" toon:"functions"`
	Authors               int     `json:"authors" toon:"authors"`
	HighRisk              int     `json:"high_risk" toon:"high_risk"`
	MediumRisk            int     `json:"medium_risk" toon:"medium_risk"`
	LowRisk               int     `json:"low_risk" toon:"low_risk"`
	RefactoringCandidates int     `json:"refactoring_candidates" toon:"refactoring_candidates"`
	MaxFileScore          float64 `json:"max_file_score" toon:"max_file_score"`
	AvgFileScore          float64 `json:"avg_file_score" toon:"avg_file_score"`
	P90FileScore          float64 `json:"p90_file_score" toon:"p90_file_score"`
}

// Analysis holds every score of one run, each list sorted by composite
// score descending then subject.
type Analysis struct {
	Files     []Score `json:"files" toon:"files"`
	Functions []Score `json:"functions" toon:"functions"`
	Authors   []Score `json:"authors" toon:"authors"`
	Summary   Summary `json:"summary" toon:"summary"`
}

// File returns the score of a file.
func (a *Analysis) File(path string) (Score, bool) {
	for _, s := range a.Files {
		if s.Subject == path {
			return s, true
		}
	}
	return Score{}, false
}

// RefactoringCandidates returns the file and function scores flagged for
// refactoring.
func (a *Analysis) RefactoringCandidates() []Score {
	var out []Score
	for _, s := range a.Files {
		if s.IsRefactoringCandidate {
			out = append(out, s)
		}
	}
	for _, s := range a.Functions {
		if s.IsRefactoringCandidate {
			out = append(out, s)
		}
	}
	return out
}
