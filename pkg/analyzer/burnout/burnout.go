// Package burnout scores contributors by how much of their work lands
// outside working hours.
package burnout

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/sirupsen/logrus"

	"github.com/panbanda/chronicle/internal/logging"
	"github.com/panbanda/chronicle/pkg/analyzer"
	"github.com/panbanda/chronicle/pkg/models"
	"github.com/panbanda/chronicle/pkg/stats"
)

// Options configures burnout scoring. The off-hours window is
// [OffHoursStart, OffHoursEnd) and wraps midnight when start > end.
type Options struct {
	OffHoursStart   int
	OffHoursEnd     int
	MinCommits      int
	OffHoursWeight  float64
	WeekendWeight   float64
	HighThreshold   float64
	MediumThreshold float64
	// Location overrides the commit's recorded time zone when set.
	Location *time.Location
	Logger   logrus.FieldLogger
}

// DefaultOptions returns 22:00-06:00 off-hours, five-commit eligibility and
// 0.6/0.4 weighting.
func DefaultOptions() Options {
	return Options{
		OffHoursStart:   22,
		OffHoursEnd:     6,
		MinCommits:      5,
		OffHoursWeight:  0.6,
		WeekendWeight:   0.4,
		HighThreshold:   4,
		MediumThreshold: 2,
	}
}

// Validate rejects unusable options.
func (o Options) Validate() error {
	if o.OffHoursStart < 0 || o.OffHoursStart > 23 || o.OffHoursEnd < 0 || o.OffHoursEnd > 23 {
		return fmt.Errorf("%w: off-hours must be within 0-23, got %d-%d", analyzer.ErrInvalidConfig, o.OffHoursStart, o.OffHoursEnd)
	}
	if o.MinCommits < 1 {
		return fmt.Errorf("%w: burnout min commits must be at least 1, got %d", analyzer.ErrInvalidConfig, o.MinCommits)
	}
	if o.OffHoursWeight < 0 || o.OffHoursWeight > 1 || o.WeekendWeight < 0 || o.WeekendWeight > 1 {
		return fmt.Errorf("%w: burnout weights must be within [0,1]", analyzer.ErrInvalidConfig)
	}
	if sum := o.OffHoursWeight + o.WeekendWeight; math.Abs(sum-1) > 1e-6 {
		return fmt.Errorf("%w: burnout weights must sum to 1, got %v", analyzer.ErrInvalidConfig, sum)
	}
	if o.MediumThreshold < 0 || o.HighThreshold > 10 || o.MediumThreshold > o.HighThreshold {
		return fmt.Errorf("%w: burnout thresholds must satisfy 0 <= medium (%v) <= high (%v) <= 10",
			analyzer.ErrInvalidConfig, o.MediumThreshold, o.HighThreshold)
	}
	return nil
}

// IsOffHours reports whether hour falls in the off-hours window.
func (o Options) IsOffHours(hour int) bool {
	switch {
	case o.OffHoursStart == o.OffHoursEnd:
		return false
	case o.OffHoursStart > o.OffHoursEnd:
		return hour >= o.OffHoursStart || hour < o.OffHoursEnd
	default:
		return hour >= o.OffHoursStart && hour < o.OffHoursEnd
	}
}

// Classify maps a 0-10 score to a risk level.
func (o Options) Classify(score float64) RiskLevel {
	switch {
	case score >= o.HighThreshold:
		return RiskHigh
	case score >= o.MediumThreshold:
		return RiskMedium
	default:
		return RiskLow
	}
}

// authorSets holds commit indices per author.
type authorSets struct {
	all      *roaring.Bitmap
	offHours *roaring.Bitmap
	weekend  *roaring.Bitmap
	insight  Insight
	days     map[string]bool
}

// AnalyzeRisk scores every author with at least MinCommits commits.
// Authors below the minimum are listed as ineligible and never classified.
func AnalyzeRisk(commits []models.Commit, opts Options) (*Analysis, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	logger := logging.OrDiscard(opts.Logger)

	ordered := append([]models.Commit(nil), commits...)
	models.SortCommits(ordered)

	sets := make(map[string]*authorSets)
	for i, c := range ordered {
		if c.Author == "" || c.Timestamp.IsZero() {
			logger.WithField("hash", c.Hash).Debug("skipping commit without author or timestamp")
			continue
		}
		ts := c.Timestamp
		if opts.Location != nil {
			ts = ts.In(opts.Location)
		}

		s, ok := sets[c.Author]
		if !ok {
			s = &authorSets{
				all:      roaring.New(),
				offHours: roaring.New(),
				weekend:  roaring.New(),
				insight:  Insight{Author: c.Author, FirstCommit: c.Timestamp},
				days:     make(map[string]bool),
			}
			sets[c.Author] = s
		}

		idx := uint32(i)
		s.all.Add(idx)
		if opts.IsOffHours(ts.Hour()) {
			s.offHours.Add(idx)
		}
		if wd := ts.Weekday(); wd == time.Saturday || wd == time.Sunday {
			s.weekend.Add(idx)
		}
		s.insight.HourHistogram[ts.Hour()]++
		s.insight.WeekdayCounts[ts.Weekday()]++
		s.insight.LastCommit = c.Timestamp
		s.days[ts.Format("2006-01-02")] = true
	}

	analysis := &Analysis{
		Insights:          []Insight{},
		HighRiskAuthors:   []string{},
		MediumRiskAuthors: []string{},
		LowRiskAuthors:    []string{},
		IneligibleAuthors: []IneligibleAuthor{},
	}

	authors := make([]string, 0, len(sets))
	for a := range sets {
		authors = append(authors, a)
	}
	sort.Strings(authors)

	eligibleAfterHours := make([]*roaring.Bitmap, 0, len(authors))
	eligibleAll := make([]*roaring.Bitmap, 0, len(authors))

	for _, a := range authors {
		s := sets[a]
		commitCount := int(s.all.GetCardinality())
		if commitCount < opts.MinCommits {
			analysis.IneligibleAuthors = append(analysis.IneligibleAuthors, IneligibleAuthor{Author: a, Commits: commitCount})
			continue
		}

		afterHours := roaring.Or(s.offHours, s.weekend)
		eligibleAfterHours = append(eligibleAfterHours, afterHours)
		eligibleAll = append(eligibleAll, s.all)

		in := s.insight
		in.Commits = commitCount
		in.OffHoursCommits = int(s.offHours.GetCardinality())
		in.WeekendCommits = int(s.weekend.GetCardinality())
		in.AfterHours = int(afterHours.GetCardinality())
		in.OffHoursRatio = float64(in.OffHoursCommits) / float64(commitCount)
		in.WeekendRatio = float64(in.WeekendCommits) / float64(commitCount)
		in.AfterHoursRatio = float64(in.AfterHours) / float64(commitCount)
		in.Score = Score(in.OffHoursRatio, in.WeekendRatio, opts)
		in.RiskLevel = opts.Classify(in.Score)
		in.ActiveDays = len(s.days)

		analysis.Insights = append(analysis.Insights, in)
	}

	sort.SliceStable(analysis.Insights, func(i, j int) bool {
		if analysis.Insights[i].Score != analysis.Insights[j].Score {
			return analysis.Insights[i].Score > analysis.Insights[j].Score
		}
		return analysis.Insights[i].Author < analysis.Insights[j].Author
	})

	for _, in := range analysis.Insights {
		switch in.RiskLevel {
		case RiskHigh:
			analysis.HighRiskAuthors = append(analysis.HighRiskAuthors, in.Author)
		case RiskMedium:
			analysis.MediumRiskAuthors = append(analysis.MediumRiskAuthors, in.Author)
		default:
			analysis.LowRiskAuthors = append(analysis.LowRiskAuthors, in.Author)
		}
	}

	analysis.calculateSummary(len(authors), eligibleAll, eligibleAfterHours)
	return analysis, nil
}

// Score is 10 * (offHoursWeight*offHoursRatio + weekendWeight*weekendRatio).
func Score(offHoursRatio, weekendRatio float64, opts Options) float64 {
	return stats.Clamp(10*(opts.OffHoursWeight*offHoursRatio+opts.WeekendWeight*weekendRatio), 0, 10)
}

func (a *Analysis) calculateSummary(totalAuthors int, all, afterHours []*roaring.Bitmap) {
	a.Summary.TotalAuthors = totalAuthors
	a.Summary.EligibleAuthors = len(a.Insights)
	a.Summary.HighRisk = len(a.HighRiskAuthors)
	a.Summary.MediumRisk = len(a.MediumRiskAuthors)
	a.Summary.LowRisk = len(a.LowRiskAuthors)

	if len(all) > 0 {
		total := roaring.FastOr(all...).GetCardinality()
		if total > 0 {
			a.Summary.RepoAfterHoursRatio = float64(roaring.FastOr(afterHours...).GetCardinality()) / float64(total)
		}
	}

	scores := make([]float64, len(a.Insights))
	for i, in := range a.Insights {
		scores[i] = in.Score
	}
	a.Summary.MeanScore, _ = stats.MeanVariance(scores)
	sort.Float64s(scores)
	a.Summary.P90Score = stats.Percentile(scores, 90)
}
