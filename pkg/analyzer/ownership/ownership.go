// Package ownership follows who owns each file over time: contiguous
// ownership periods, hand-offs between authors, bursts of rapid hand-offs and
// a stability score per file.
package ownership

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/panbanda/chronicle/internal/logging"
	"github.com/panbanda/chronicle/pkg/analyzer"
	"github.com/panbanda/chronicle/pkg/analyzer/normalize"
	"github.com/panbanda/chronicle/pkg/models"
)

const day = 24 * time.Hour

// StabilityWeights weight the three stability components.
type StabilityWeights struct {
	Authors  float64 `json:"authors" koanf:"authors" toml:"authors"`
	Changes  float64 `json:"changes" koanf:"changes" toml:"changes"`
	Duration float64 `json:"duration" koanf:"duration" toml:"duration"`
}

// Options configures drift analysis.
type Options struct {
	// Window bounds a rapid-change burst.
	Window time.Duration
	// ChangeThreshold is the number of hand-offs within Window that makes a burst.
	ChangeThreshold int
	// MinCommits below which stability is insufficient-data.
	MinCommits      int
	Weights         StabilityWeights
	RapidPenalty    float64
	DurationCapDays float64
	HighThreshold   float64
	MediumThreshold float64
	Logger          logrus.FieldLogger
}

// DefaultOptions returns the standard drift options.
func DefaultOptions() Options {
	return Options{
		Window:          14 * day,
		ChangeThreshold: 3,
		MinCommits:      3,
		Weights:         StabilityWeights{Authors: 0.3, Changes: 0.4, Duration: 0.3},
		RapidPenalty:    0.3,
		DurationCapDays: 90,
		HighThreshold:   0.8,
		MediumThreshold: 0.5,
	}
}

// Validate rejects configurations the analysis cannot honour.
func (o Options) Validate() error {
	if o.Window <= 0 {
		return fmt.Errorf("%w: rapid change window must be positive, got %s", analyzer.ErrInvalidConfig, o.Window)
	}
	if o.ChangeThreshold < 1 {
		return fmt.Errorf("%w: rapid change threshold must be at least 1, got %d", analyzer.ErrInvalidConfig, o.ChangeThreshold)
	}
	if o.MinCommits < 1 {
		return fmt.Errorf("%w: stability min commits must be at least 1, got %d", analyzer.ErrInvalidConfig, o.MinCommits)
	}
	w := o.Weights
	for name, v := range map[string]float64{"authors": w.Authors, "changes": w.Changes, "duration": w.Duration} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: stability weight %s must be within [0,1], got %v", analyzer.ErrInvalidConfig, name, v)
		}
	}
	if sum := w.Authors + w.Changes + w.Duration; math.Abs(sum-1) > 1e-6 {
		return fmt.Errorf("%w: stability weights must sum to 1, got %v", analyzer.ErrInvalidConfig, sum)
	}
	if o.RapidPenalty < 0 || o.RapidPenalty > 1 {
		return fmt.Errorf("%w: rapid change penalty must be within [0,1], got %v", analyzer.ErrInvalidConfig, o.RapidPenalty)
	}
	if o.DurationCapDays <= 0 {
		return fmt.Errorf("%w: duration cap must be positive, got %v", analyzer.ErrInvalidConfig, o.DurationCapDays)
	}
	if o.MediumThreshold < 0 || o.HighThreshold > 1 || o.MediumThreshold > o.HighThreshold {
		return fmt.Errorf("%w: stability thresholds must satisfy 0 <= medium (%v) <= high (%v) <= 1",
			analyzer.ErrInvalidConfig, o.MediumThreshold, o.HighThreshold)
	}
	return nil
}

// Classify maps a stability score to its class.
func (o Options) Classify(score float64) StabilityClass {
	switch {
	case score >= o.HighThreshold:
		return HighStability
	case score >= o.MediumThreshold:
		return MediumStability
	default:
		return LowStability
	}
}

// fileHistory is the chronological list of commits touching one file.
type fileHistory struct {
	path    string
	commits []models.Commit
}

// AnalyzeDrift derives ownership periods, hand-offs, rapid-change windows
// and stability for every file in commits. Commits without author, timestamp
// or files are skipped.
func AnalyzeDrift(commits []models.Commit, opts Options) (*Analysis, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	logger := logging.OrDiscard(opts.Logger)

	analysis := &Analysis{
		FileAuthors:        []FileOwnership{},
		Periods:            []Period{},
		OwnershipChanges:   []Change{},
		RapidChangeWindows: []RapidChangeWindow{},
		StabilityScores:    []Stability{},
		Insights:           []Insight{},
	}

	ordered := normalize.FilesOnly(commits)
	if fileless := len(commits) - len(ordered); fileless > 0 {
		analysis.Summary.SkippedCommits += fileless
		logger.WithField("commits", fileless).Debug("skipping commits without files for ownership analysis")
	}
	models.SortCommits(ordered)

	byFile := make(map[string]*fileHistory)
	for _, c := range ordered {
		if c.Author == "" || c.Timestamp.IsZero() {
			analysis.Summary.SkippedCommits++
			logger.WithFields(logrus.Fields{
				"hash":   c.Hash,
				"author": c.Author,
				"files":  len(c.Files),
			}).Debug("skipping commit for ownership analysis")
			continue
		}
		for _, f := range c.Files {
			h, ok := byFile[f]
			if !ok {
				h = &fileHistory{path: f}
				byFile[f] = h
			}
			h.commits = append(h.commits, c)
		}
	}

	paths := make([]string, 0, len(byFile))
	for p := range byFile {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		h := byFile[p]
		periods, changes := walkPeriods(h)
		windows := rapidWindows(p, changes, opts.Window, opts.ChangeThreshold)
		stability := scoreStability(h, periods, changes, windows, opts)

		analysis.FileAuthors = append(analysis.FileAuthors, fileOwnership(h, periods))
		analysis.Periods = append(analysis.Periods, periods...)
		analysis.OwnershipChanges = append(analysis.OwnershipChanges, changes...)
		analysis.RapidChangeWindows = append(analysis.RapidChangeWindows, windows...)
		analysis.StabilityScores = append(analysis.StabilityScores, stability)
		analysis.Insights = append(analysis.Insights, insightsFor(stability, windows, opts)...)
	}

	analysis.CalculateSummary()
	return analysis, nil
}

// walkPeriods splits a file's history into author periods. A switch of
// author closes the open period at the switching commit.
func walkPeriods(h *fileHistory) ([]Period, []Change) {
	var periods []Period
	var changes []Change
	var current *Period

	for _, c := range h.commits {
		switch {
		case current == nil:
			current = &Period{File: h.path, Author: c.Author, Start: c.Timestamp, CommitCount: 1}
		case c.Author == current.Author:
			current.CommitCount++
		default:
			end := c.Timestamp
			current.End = &end
			current.DurationDays = days(end.Sub(current.Start))
			periods = append(periods, *current)

			changes = append(changes, Change{
				File:       h.path,
				CommitHash: c.Hash,
				Timestamp:  c.Timestamp,
				FromAuthor: current.Author,
				ToAuthor:   c.Author,
			})
			current = &Period{File: h.path, Author: c.Author, Start: c.Timestamp, CommitCount: 1}
		}
	}

	if current != nil {
		last := h.commits[len(h.commits)-1].Timestamp
		current.DurationDays = days(last.Sub(current.Start))
		periods = append(periods, *current)
	}
	return periods, changes
}

// rapidWindows slides a window over a file's hand-offs. Any window holding
// at least threshold hand-offs is reported; windows overlapping the previous
// report are merged into it so one burst yields one window. Authors include
// both sides of every hand-off, so the owner before the burst is listed.
func rapidWindows(file string, changes []Change, window time.Duration, threshold int) []RapidChangeWindow {
	var windows []RapidChangeWindow
	var authors map[string]bool
	firstIdx := -1

	left := 0
	for right := range changes {
		for changes[right].Timestamp.Sub(changes[left].Timestamp) > window {
			left++
		}
		if right-left+1 < threshold {
			continue
		}

		if n := len(windows); n > 0 && !changes[left].Timestamp.After(windows[n-1].End) {
			w := &windows[n-1]
			w.End = changes[right].Timestamp
			w.ChangeCount = right - firstIdx + 1
			for i := left; i <= right; i++ {
				authors[changes[i].FromAuthor] = true
				authors[changes[i].ToAuthor] = true
			}
			w.UniqueAuthors = sortedKeys(authors)
			continue
		}

		firstIdx = left
		authors = make(map[string]bool)
		for i := left; i <= right; i++ {
			authors[changes[i].FromAuthor] = true
			authors[changes[i].ToAuthor] = true
		}
		windows = append(windows, RapidChangeWindow{
			File:          file,
			Start:         changes[left].Timestamp,
			End:           changes[right].Timestamp,
			ChangeCount:   right - left + 1,
			UniqueAuthors: sortedKeys(authors),
		})
	}
	return windows
}

// scoreStability computes
//
//	wA*(1/authors) + wC*(1 - changes/commits) + wD*(min(avgDays, cap)/cap)
//
// minus the rapid-change penalty, clamped to [0,1].
func scoreStability(h *fileHistory, periods []Period, changes []Change, windows []RapidChangeWindow, opts Options) Stability {
	authors := make(map[string]bool)
	for _, c := range h.commits {
		authors[c.Author] = true
	}

	var totalDays float64
	for _, p := range periods {
		totalDays += p.DurationDays
	}
	var avgDays float64
	if len(periods) > 0 {
		avgDays = totalDays / float64(len(periods))
	}

	s := Stability{
		File:             h.path,
		Commits:          len(h.commits),
		UniqueAuthors:    len(authors),
		OwnershipChanges: len(changes),
		AvgPeriodDays:    avgDays,
		HasRapidChanges:  len(windows) > 0,
	}

	if s.Commits < opts.MinCommits {
		s.Classification = InsufficientData
		return s
	}

	w := opts.Weights
	score := w.Authors*(1/float64(s.UniqueAuthors)) +
		w.Changes*(1-float64(s.OwnershipChanges)/float64(s.Commits)) +
		w.Duration*(math.Min(avgDays, opts.DurationCapDays)/opts.DurationCapDays)
	if s.HasRapidChanges {
		score -= opts.RapidPenalty
	}
	score = clamp01(score)

	s.Score = &score
	s.Classification = opts.Classify(score)
	return s
}

// fileOwnership summarizes commit shares per author for a file.
func fileOwnership(h *fileHistory, periods []Period) FileOwnership {
	counts := make(map[string]int)
	for _, c := range h.commits {
		counts[c.Author]++
	}

	contributors := make([]Contributor, 0, len(counts))
	for _, kv := range sortedCounts(counts) {
		contributors = append(contributors, Contributor{
			Name:       kv.name,
			Commits:    kv.commits,
			Percentage: float64(kv.commits) / float64(len(h.commits)) * 100,
		})
	}

	fo := FileOwnership{
		Path:          h.path,
		Commits:       len(h.commits),
		Contributors:  contributors,
		Concentration: CalculateConcentration(contributors),
		IsSilo:        len(contributors) == 1,
	}
	if len(periods) > 0 {
		fo.CurrentOwner = periods[len(periods)-1].Author
	}
	return fo
}

func insightsFor(s Stability, windows []RapidChangeWindow, opts Options) []Insight {
	var out []Insight
	for _, w := range windows {
		out = append(out, Insight{
			Type:     "rapid-ownership-change",
			File:     s.File,
			Severity: "high",
			Message: fmt.Sprintf("%d ownership changes between %s and %s among %d authors",
				w.ChangeCount, w.Start.Format("2006-01-02"), w.End.Format("2006-01-02"), len(w.UniqueAuthors)),
		})
	}
	if s.Classification == LowStability {
		out = append(out, Insight{
			Type:     "low-stability",
			File:     s.File,
			Severity: "medium",
			Message: fmt.Sprintf("stability %.2f: %d authors, %d ownership changes over %d commits",
				*s.Score, s.UniqueAuthors, s.OwnershipChanges, s.Commits),
		})
	}
	if s.UniqueAuthors == 1 && s.Commits >= opts.MinCommits {
		out = append(out, Insight{
			Type:     "knowledge-silo",
			File:     s.File,
			Severity: "low",
			Message:  fmt.Sprintf("all %d commits by a single author", s.Commits),
		})
	}
	return out
}

func days(d time.Duration) float64 {
	return d.Hours() / 24
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
