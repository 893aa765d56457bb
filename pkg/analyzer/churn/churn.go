// Package churn aggregates line and commit churn per file and per author
// from a normalized commit stream.
package churn

import (
	"math"
	"sort"

	"github.com/panbanda/chronicle/pkg/models"
)

// Analyze aggregates churn over commits. Per-file line counts come from the
// commit's per-file breakdown; a commit without one contributes its totals
// only when it touches a single file. Commits without files still count
// toward author and repository totals.
func Analyze(commits []models.Commit) *Analysis {
	fileMetrics := make(map[string]*FileMetrics)
	authors := make(map[string]*AuthorContribution)
	summary := NewSummary()

	ordered := append([]models.Commit(nil), commits...)
	models.SortCommits(ordered)

	for _, c := range ordered {
		summary.TotalCommits++
		summary.TotalChurn += c.Churn()
		summary.TotalAdditions += c.Insertions
		summary.TotalDeletions += c.Deletions

		if c.Author != "" {
			ac, ok := authors[c.Author]
			if !ok {
				ac = &AuthorContribution{Author: c.Author}
				authors[c.Author] = ac
			}
			ac.Commits++
			ac.Insertions += c.Insertions
			ac.Deletions += c.Deletions
		}

		for _, path := range c.Files {
			fm, ok := fileMetrics[path]
			if !ok {
				fm = &FileMetrics{
					Path:         path,
					AuthorCounts: make(map[string]int),
					FirstCommit:  c.Timestamp,
					LastCommit:   c.Timestamp,
				}
				fileMetrics[path] = fm
			}
			fm.Commits++
			if c.Author != "" {
				fm.AuthorCounts[c.Author]++
			}
			if fc, ok := c.FileChurn(path); ok {
				fm.LinesAdded += fc.Additions
				fm.LinesDeleted += fc.Deletions
			}
			if c.Timestamp.Before(fm.FirstCommit) {
				fm.FirstCommit = c.Timestamp
			}
			if c.Timestamp.After(fm.LastCommit) {
				fm.LastCommit = c.Timestamp
			}
		}
	}

	return buildAnalysis(fileMetrics, authors, summary)
}

// NormalizeChurn maps a change count onto the 0-10 risk scale.
func NormalizeChurn(changeCount int) float64 {
	return math.Min(10, float64(changeCount)/2)
}

func buildAnalysis(fileMetrics map[string]*FileMetrics, authors map[string]*AuthorContribution, summary Summary) *Analysis {
	analysis := &Analysis{
		Files:   make([]FileMetrics, 0, len(fileMetrics)),
		Summary: summary,
	}

	var maxCommits, maxChanges int
	for _, fm := range fileMetrics {
		maxCommits = max(maxCommits, fm.Commits)
		maxChanges = max(maxChanges, fm.TotalChurn())
	}

	for _, fm := range fileMetrics {
		fm.UniqueAuthors = make([]string, 0, len(fm.AuthorCounts))
		for a := range fm.AuthorCounts {
			fm.UniqueAuthors = append(fm.UniqueAuthors, a)
		}
		sort.Strings(fm.UniqueAuthors)

		fm.CalculateChurnScoreWithMax(maxCommits, maxChanges)
		fm.NormalizedChurn = NormalizeChurn(fm.Commits)
		fm.calculateActivity()

		analysis.Files = append(analysis.Files, *fm)
		analysis.Summary.TotalFileChanges += fm.Commits
	}

	sort.Slice(analysis.Files, func(i, j int) bool {
		if analysis.Files[i].ChurnScore != analysis.Files[j].ChurnScore {
			return analysis.Files[i].ChurnScore > analysis.Files[j].ChurnScore
		}
		return analysis.Files[i].Path < analysis.Files[j].Path
	})

	for _, ac := range authors {
		analysis.Summary.AuthorContributions = append(analysis.Summary.AuthorContributions, *ac)
	}
	sort.Slice(analysis.Summary.AuthorContributions, func(i, j int) bool {
		a, b := analysis.Summary.AuthorContributions[i], analysis.Summary.AuthorContributions[j]
		if a.Commits != b.Commits {
			return a.Commits > b.Commits
		}
		return a.Author < b.Author
	})

	analysis.Summary.TotalFilesChanged = len(analysis.Files)
	if len(analysis.Files) > 0 {
		analysis.Summary.AvgCommitsPerFile = float64(analysis.Summary.TotalFileChanges) / float64(len(analysis.Files))
		analysis.Summary.MaxChurnScore = analysis.Files[0].ChurnScore
	}

	analysis.Summary.IdentifyHotspotAndStableFiles(analysis.Files)
	analysis.Summary.CalculateStatistics(analysis.Files)

	return analysis
}
