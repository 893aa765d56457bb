package ownership

import (
	"sort"
	"time"
)

// StabilityClass buckets a file's ownership stability.
type StabilityClass string

const (
	HighStability    StabilityClass = "high-stability"
	MediumStability  StabilityClass = "medium-stability"
	LowStability     StabilityClass = "low-stability"
	InsufficientData StabilityClass = "insufficient-data"
)

// Contributor is an author's share of the commits touching a file.
type Contributor struct {
	Name       string  `json:"name" toon:"name"`
	Commits    int     `json:"commits" toon:"commits"`
	Percentage float64 `json:"percentage" toon:"percentage"` // 0-100
}

// FileOwnership lists who has committed to a file.
type FileOwnership struct {
	Path          string        `json:"path" toon:"path"`
	CurrentOwner  string        `json:"current_owner" toon:"current_owner"`
	Commits       int           `json:"commits" toon:"commits"`
	Concentration float64       `json:"concentration" toon:"concentration"` // 0-1, higher = more concentrated
	Contributors  []Contributor `json:"contributors" toon:"contributors"`
	IsSilo        bool          `json:"is_silo" toon:"is_silo"` // Single contributor
}

// Period is a contiguous run of commits to one file by one author. End is
// nil while the period is open; an open period's duration runs to the
// file's last commit.
type Period struct {
	File         string     `json:"file" toon:"file"`
	Author       string     `json:"author" toon:"author"`
	Start        time.Time  `json:"start" toon:"start"`
	End          *time.Time `json:"end" toon:"end"`
	DurationDays float64    `json:"duration_days" toon:"duration_days"`
	CommitCount  int        `json:"commit_count" toon:"commit_count"`
}

// IsOpen reports whether the period is the file's current one.
func (p Period) IsOpen() bool {
	return p.End == nil
}

// Change records a switch of a file's active author.
type Change struct {
	File       string    `json:"file" toon:"file"`
	CommitHash string    `json:"commit_hash" toon:"commit_hash"`
	Timestamp  time.Time `json:"timestamp" toon:"timestamp"`
	FromAuthor string    `json:"from_author" toon:"from_author"`
	ToAuthor   string    `json:"to_author" toon:"to_author"`
}

// RapidChangeWindow is a span in which a file changed hands at least the
// configured number of times.
type RapidChangeWindow struct {
	File          string    `json:"file" toon:"file"`
	Start         time.Time `json:"start" toon:"start"`
	End           time.Time `json:"end" toon:"end"`
	ChangeCount   int       `json:"change_count" toon:"change_count"`
	UniqueAuthors []string  `json:"unique_authors" toon:"unique_authors"`
}

// Stability is the ownership stability of one file. Score is nil when the
// file has too few commits to judge.
type Stability struct {
	File             string         `json:"file" toon:"file"`
	Score            *float64       `json:"score" toon:"score"`
	Classification   StabilityClass `json:"classification" toon:"classification"`
	Commits          int            `json:"commits" toon:"commits"`
	UniqueAuthors    int            `json:"unique_authors" toon:"unique_authors"`
	OwnershipChanges int            `json:"ownership_changes" toon:"ownership_changes"`
	AvgPeriodDays    float64        `json:"avg_period_days" toon:"avg_period_days"`
	HasRapidChanges  bool           `json:"has_rapid_changes" toon:"has_rapid_changes"`
}

// Insight is a human-readable finding about a file.
type Insight struct {
	Type     string `json:"type" toon:"type"`
	File     string `json:"file" toon:"file"`
	Severity string `json:"severity" toon:"severity"`
	Message  string `json:"message" toon:"message"`
}

// Summary provides aggregate statistics.
type Summary struct {
	TotalFiles            int      `json:"total_files" toon:"total_files"`
	SkippedCommits        int      `json:"skipped_commits" toon:"skipped_commits"`
	BusFactor             int      `json:"bus_factor" toon:"bus_factor"`
	SiloCount             int      `json:"silo_count" toon:"silo_count"`
	AvgContributors       float64  `json:"avg_contributors" toon:"avg_contributors"`
	MaxConcentration      float64  `json:"max_concentration" toon:"max_concentration"`
	TopContributors       []string `json:"top_contributors" toon:"top_contributors"`
	TotalOwnershipChanges int      `json:"total_ownership_changes" toon:"total_ownership_changes"`
	RapidChangeFiles      int      `json:"rapid_change_files" toon:"rapid_change_files"`
	HighStabilityFiles    int      `json:"high_stability_files" toon:"high_stability_files"`
	MediumStabilityFiles  int      `json:"medium_stability_files" toon:"medium_stability_files"`
	LowStabilityFiles     int      `json:"low_stability_files" toon:"low_stability_files"`
	InsufficientDataFiles int      `json:"insufficient_data_files" toon:"insufficient_data_files"`
}

// Analysis represents the full ownership drift result.
type Analysis struct {
	FileAuthors        []FileOwnership     `json:"file_authors" toon:"file_authors"`
	Periods            []Period            `json:"periods" toon:"periods"`
	OwnershipChanges   []Change            `json:"ownership_changes" toon:"ownership_changes"`
	RapidChangeWindows []RapidChangeWindow `json:"rapid_change_windows" toon:"rapid_change_windows"`
	StabilityScores    []Stability         `json:"stability_scores" toon:"stability_scores"`
	Insights           []Insight           `json:"insights" toon:"insights"`
	Summary            Summary             `json:"summary" toon:"summary"`
}

// StabilityFor returns the stability record of a file.
func (a *Analysis) StabilityFor(file string) (Stability, bool) {
	for _, s := range a.StabilityScores {
		if s.File == file {
			return s, true
		}
	}
	return Stability{}, false
}

// PeriodsFor returns a file's periods in chronological order.
func (a *Analysis) PeriodsFor(file string) []Period {
	var out []Period
	for _, p := range a.Periods {
		if p.File == file {
			out = append(out, p)
		}
	}
	return out
}

// CalculateSummary computes summary statistics.
func (a *Analysis) CalculateSummary() {
	a.Summary.TopContributors = []string{}
	if len(a.FileAuthors) == 0 {
		return
	}

	a.Summary.TotalFiles = len(a.FileAuthors)

	contributorCounts := make(map[string]int)
	var totalContributors int
	var maxConcentration float64

	for _, f := range a.FileAuthors {
		if f.IsSilo {
			a.Summary.SiloCount++
		}
		totalContributors += len(f.Contributors)
		if f.Concentration > maxConcentration {
			maxConcentration = f.Concentration
		}
		for _, c := range f.Contributors {
			contributorCounts[c.Name] += c.Commits
		}
	}

	a.Summary.AvgContributors = float64(totalContributors) / float64(len(a.FileAuthors))
	a.Summary.MaxConcentration = maxConcentration
	a.Summary.BusFactor = calculateBusFactor(contributorCounts)
	a.Summary.TopContributors = getTopContributors(contributorCounts, 5)

	a.Summary.TotalOwnershipChanges = len(a.OwnershipChanges)
	rapid := make(map[string]bool)
	for _, w := range a.RapidChangeWindows {
		rapid[w.File] = true
	}
	a.Summary.RapidChangeFiles = len(rapid)

	for _, s := range a.StabilityScores {
		switch s.Classification {
		case HighStability:
			a.Summary.HighStabilityFiles++
		case MediumStability:
			a.Summary.MediumStabilityFiles++
		case LowStability:
			a.Summary.LowStabilityFiles++
		default:
			a.Summary.InsufficientDataFiles++
		}
	}
}

type authorCount struct {
	name    string
	commits int
}

// sortedCounts orders authors by count descending, then name.
func sortedCounts(counts map[string]int) []authorCount {
	sorted := make([]authorCount, 0, len(counts))
	for name, n := range counts {
		sorted = append(sorted, authorCount{name, n})
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].commits != sorted[j].commits {
			return sorted[i].commits > sorted[j].commits
		}
		return sorted[i].name < sorted[j].name
	})
	return sorted
}

// calculateBusFactor returns the minimum number of contributors
// who together account for at least half of all file commits.
func calculateBusFactor(contributorCounts map[string]int) int {
	if len(contributorCounts) == 0 {
		return 0
	}

	var total int
	for _, count := range contributorCounts {
		total += count
	}
	if total == 0 {
		return 0
	}

	threshold := total / 2
	var accumulated int
	sorted := sortedCounts(contributorCounts)
	for i, kv := range sorted {
		accumulated += kv.commits
		if accumulated >= threshold {
			return i + 1
		}
	}

	return len(sorted)
}

// getTopContributors returns the top N contributors by commit count.
func getTopContributors(contributorCounts map[string]int, n int) []string {
	result := []string{}
	for i, kv := range sortedCounts(contributorCounts) {
		if i >= n {
			break
		}
		result = append(result, kv.name)
	}
	return result
}

// CalculateConcentration computes ownership concentration (0-1):
// the top contributor's percentage / 100.
func CalculateConcentration(contributors []Contributor) float64 {
	if len(contributors) == 0 {
		return 0
	}
	if len(contributors) == 1 {
		return 1.0
	}

	var maxPct float64
	for _, c := range contributors {
		if c.Percentage > maxPct {
			maxPct = c.Percentage
		}
	}
	return maxPct / 100.0
}
