package burnout

import "time"

// RiskLevel classifies an author's burnout risk.
type RiskLevel string

const (
	RiskHigh   RiskLevel = "high"
	RiskMedium RiskLevel = "medium"
	RiskLow    RiskLevel = "low"
)

// Insight is the burnout profile of one eligible author.
type Insight struct {
	Author          string    `json:"author" toon:"author"`
	Commits         int       `json:"commits" toon:"commits"`
	OffHoursCommits int       `json:"off_hours_commits" toon:"off_hours_commits"`
	WeekendCommits  int       `json:"weekend_commits" toon:"weekend_commits"`
	AfterHours      int       `json:"after_hours_commits" toon:"after_hours_commits"` // off-hours or weekend
	OffHoursRatio   float64   `json:"off_hours_ratio" toon:"off_hours_ratio"`
	WeekendRatio    float64   `json:"weekend_ratio" toon:"weekend_ratio"`
	AfterHoursRatio float64   `json:"after_hours_ratio" toon:"after_hours_ratio"`
	Score           float64   `json:"score" toon:"score"` // 0-10
	RiskLevel       RiskLevel `json:"risk_level" toon:"risk_level"`
	ActiveDays      int       `json:"active_days" toon:"active_days"`
	FirstCommit     time.Time `json:"first_commit" toon:"first_commit"`
	LastCommit      time.Time `json:"last_commit" toon:"last_commit"`
	HourHistogram   [24]int   `json:"hour_histogram" toon:"hour_histogram"`
	WeekdayCounts   [7]int    `json:"weekday_counts" toon:"weekday_counts"` // Sunday first
}

// IneligibleAuthor is an author with too few commits to classify.
type IneligibleAuthor struct {
	Author  string `json:"author" toon:"author"`
	Commits int    `json:"commits" toon:"commits"`
}

// Summary aggregates burnout across authors.
type Summary struct {
	TotalAuthors        int     `json:"total_authors" toon:"total_authors"`
	EligibleAuthors     int     `json:"eligible_authors" toon:"eligible_authors"`
	HighRisk            int     `json:"high_risk" toon:"high_risk"`
	MediumRisk          int     `json:"medium_risk" toon:"medium_risk"`
	LowRisk             int     `json:"low_risk" toon:"low_risk"`
	RepoAfterHoursRatio float64 `json:"repo_after_hours_ratio" toon:"repo_after_hours_ratio"`
	MeanScore           float64 `json:"mean_score" toon:"mean_score"`
	P90Score            float64 `json:"p90_score" toon:"p90_score"`
}

// Analysis is the result of AnalyzeRisk.
type Analysis struct {
	Insights          []Insight          `json:"insights" toon:"insights"`
	HighRiskAuthors   []string           `json:"high_risk_authors" toon:"high_risk_authors"`
	MediumRiskAuthors []string           `json:"medium_risk_authors" toon:"medium_risk_authors"`
	LowRiskAuthors    []string           `json:"low_risk_authors" toon:"low_risk_authors"`
	IneligibleAuthors []IneligibleAuthor `json:"ineligible_authors" toon:"ineligible_authors"`
	Summary           Summary            `json:"summary" toon:"summary"`
}

// Insight returns the profile of one author.
func (a *Analysis) Insight(author string) (Insight, bool) {
	for _, in := range a.Insights {
		if in.Author == author {
			return in, true
		}
	}
	return Insight{}, false
}
