package churn

import (
	"math"
	"sort"
	"time"

	"github.com/panbanda/chronicle/pkg/stats"
)

// FileMetrics represents churn data for a single file.
type FileMetrics struct {
	Path          string         `json:"path" toon:"path"`
	Commits       int            `json:"commit_count" toon:"commit_count"`
	UniqueAuthors []string       `json:"unique_authors" toon:"unique_authors"`
	AuthorCounts  map[string]int `json:"-" toon:"-"` // author name -> commit count
	LinesAdded    int            `json:"additions" toon:"additions"`
	LinesDeleted  int            `json:"deletions" toon:"deletions"`
	ChurnScore    float64        `json:"churn_score" toon:"churn_score"` // 0.0-1.0 normalized
	FirstCommit   time.Time      `json:"first_seen" toon:"first_seen"`
	LastCommit    time.Time      `json:"last_modified" toon:"last_modified"`

	// NormalizedChurn is the risk-scale churn component: min(10, commits/2).
	NormalizedChurn float64 `json:"normalized_churn" toon:"normalized_churn"`
	ChangeFrequency float64 `json:"change_frequency" toon:"change_frequency"` // commits per active day
	DaysActive      int     `json:"days_active" toon:"days_active"`
}

// TotalChurn returns lines added plus deleted.
func (f *FileMetrics) TotalChurn() int {
	return f.LinesAdded + f.LinesDeleted
}

// CalculateChurnScoreWithMax computes a normalized churn score against the
// largest commit count and line churn of the analysis:
// churn_score = (commit_factor * 0.6 + change_factor * 0.4)
func (f *FileMetrics) CalculateChurnScoreWithMax(maxCommits, maxChanges int) float64 {
	var commitFactor float64
	if maxCommits > 0 {
		commitFactor = stats.Clamp(float64(f.Commits)/float64(maxCommits), 0, 1)
	}

	var changeFactor float64
	if maxChanges > 0 {
		changeFactor = stats.Clamp(float64(f.TotalChurn())/float64(maxChanges), 0, 1)
	}

	f.ChurnScore = stats.Clamp(commitFactor*0.6+changeFactor*0.4, 0, 1)
	return f.ChurnScore
}

// calculateActivity fills DaysActive and ChangeFrequency from the first and
// last commit, counting at least one day.
func (f *FileMetrics) calculateActivity() {
	f.DaysActive = 1
	if !f.FirstCommit.IsZero() && !f.LastCommit.IsZero() {
		if d := int(f.LastCommit.Sub(f.FirstCommit).Hours() / 24); d > 1 {
			f.DaysActive = d
		}
	}
	f.ChangeFrequency = float64(f.Commits) / float64(f.DaysActive)
}

// AuthorContribution is an author's commit and line totals.
type AuthorContribution struct {
	Author     string `json:"author" toon:"author"`
	Commits    int    `json:"commits" toon:"commits"`
	Insertions int    `json:"insertions" toon:"insertions"`
	Deletions  int    `json:"deletions" toon:"deletions"`
}

// Summary provides aggregate statistics.
type Summary struct {
	TotalCommits        int                  `json:"total_commits" toon:"total_commits"`
	TotalChurn          int                  `json:"total_churn" toon:"total_churn"`
	TotalFileChanges    int                  `json:"total_file_changes" toon:"total_file_changes"`
	TotalFilesChanged   int                  `json:"total_files_changed" toon:"total_files_changed"`
	HotspotFiles        []string             `json:"hotspot_files" toon:"hotspot_files"`
	StableFiles         []string             `json:"stable_files" toon:"stable_files"`
	AuthorContributions []AuthorContribution `json:"author_contributions" toon:"author_contributions"`
	MeanChurnScore      float64              `json:"mean_churn_score" toon:"mean_churn_score"`
	VarianceChurnScore  float64              `json:"variance_churn_score" toon:"variance_churn_score"`
	StdDevChurnScore    float64              `json:"stddev_churn_score" toon:"stddev_churn_score"`
	TotalAdditions      int                  `json:"total_additions" toon:"total_additions"`
	TotalDeletions      int                  `json:"total_deletions" toon:"total_deletions"`
	AvgCommitsPerFile   float64              `json:"avg_commits_per_file" toon:"avg_commits_per_file"`
	MaxChurnScore       float64              `json:"max_churn_score" toon:"max_churn_score"`
	P50ChurnScore       float64              `json:"p50_churn_score" toon:"p50_churn_score"`
	P95ChurnScore       float64              `json:"p95_churn_score" toon:"p95_churn_score"`
}

// CalculateStatistics computes mean, variance, standard deviation, and percentiles.
func (s *Summary) CalculateStatistics(files []FileMetrics) {
	if len(files) == 0 {
		return
	}

	scores := make([]float64, len(files))
	for i, f := range files {
		scores[i] = f.ChurnScore
	}
	s.MeanChurnScore, s.VarianceChurnScore = stats.MeanVariance(scores)
	s.StdDevChurnScore = math.Sqrt(s.VarianceChurnScore)

	sort.Float64s(scores)
	s.P50ChurnScore = stats.Percentile(scores, 50)
	s.P95ChurnScore = stats.Percentile(scores, 95)
}

// Analysis represents the full churn analysis result.
type Analysis struct {
	Files   []FileMetrics `json:"files" toon:"files"`
	Summary Summary       `json:"summary" toon:"summary"`
}

// File returns the metrics of one path.
func (a *Analysis) File(path string) (FileMetrics, bool) {
	for _, f := range a.Files {
		if f.Path == path {
			return f, true
		}
	}
	return FileMetrics{}, false
}

// NewSummary creates an initialized summary.
func NewSummary() Summary {
	return Summary{
		HotspotFiles:        make([]string, 0),
		StableFiles:         make([]string, 0),
		AuthorContributions: make([]AuthorContribution, 0),
	}
}

// Thresholds for hotspot and stable file detection.
const (
	HotspotThreshold = 0.5
	StableThreshold  = 0.1
)

// IdentifyHotspotAndStableFiles populates HotspotFiles and StableFiles.
// Files must be sorted by ChurnScore descending before calling.
// Hotspots: top 10 files filtered by churn_score > 0.5
// Stable: bottom 10 files filtered by churn_score < 0.1 and commit_count > 0
func (s *Summary) IdentifyHotspotAndStableFiles(files []FileMetrics) {
	s.HotspotFiles = make([]string, 0)
	s.StableFiles = make([]string, 0)

	candidateCount := min(10, len(files))
	for i := 0; i < candidateCount; i++ {
		if files[i].ChurnScore > HotspotThreshold {
			s.HotspotFiles = append(s.HotspotFiles, files[i].Path)
		}
	}

	startIdx := max(0, len(files)-10)
	for i := len(files) - 1; i >= startIdx; i-- {
		if files[i].ChurnScore < StableThreshold && files[i].Commits > 0 {
			s.StableFiles = append(s.StableFiles, files[i].Path)
		}
	}
}
