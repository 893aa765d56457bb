package output

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/panbanda/chronicle/pkg/analyzer/burnout"
	"github.com/panbanda/chronicle/pkg/analyzer/churn"
	"github.com/panbanda/chronicle/pkg/analyzer/commitgraph"
	"github.com/panbanda/chronicle/pkg/analyzer/evolution"
	"github.com/panbanda/chronicle/pkg/analyzer/ownership"
	"github.com/panbanda/chronicle/pkg/analyzer/risk"
	"github.com/panbanda/chronicle/pkg/analyzer/trend"
)

// limit returns at most top rows; top <= 0 keeps everything.
func limit[T any](items []T, top int) []T {
	if top <= 0 || len(items) <= top {
		return items
	}
	return items[:top]
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return ""
}

// ChurnTable lists files by churn score.
func ChurnTable(a *churn.Analysis, top int) *Table {
	rows := make([][]string, 0, len(a.Files))
	for _, f := range limit(a.Files, top) {
		rows = append(rows, []string{
			f.Path,
			Count(f.Commits),
			fmt.Sprintf("+%s/-%s", Count(f.LinesAdded), Count(f.LinesDeleted)),
			fmt.Sprintf("%d", len(f.UniqueAuthors)),
			fmt.Sprintf("%.2f", f.ChurnScore),
			f.LastCommit.UTC().Format("2006-01-02"),
		})
	}
	footer := []string{
		fmt.Sprintf("%d files", a.Summary.TotalFilesChanged),
		Count(a.Summary.TotalCommits),
		fmt.Sprintf("churn %s", Count(a.Summary.TotalChurn)),
		"", "", "",
	}
	return NewTable("Code Churn",
		[]string{"File", "Commits", "Lines", "Authors", "Score", "Last Change"},
		rows, footer, a)
}

// ComplexityView shows the functions whose complexity grows fastest and the
// per-commit refactoring candidates.
func ComplexityView(a *trend.Analysis, top int) *Document {
	trends := append([]trend.FunctionTrend(nil), a.ComplexityTrends...)
	sort.SliceStable(trends, func(i, j int) bool {
		if trends[i].GrowthRate != trends[j].GrowthRate {
			return trends[i].GrowthRate > trends[j].GrowthRate
		}
		return trends[i].Key() < trends[j].Key()
	})

	trendRows := make([][]string, 0, len(trends))
	for _, t := range limit(trends, top) {
		growth := fmt.Sprintf("%+.2f", t.GrowthRate)
		if t.InsufficientData {
			growth = "n/a"
		}
		trendRows = append(trendRows, []string{
			t.File,
			t.Function,
			fmt.Sprintf("%d -> %d", t.FirstComplexity, t.LatestComplexity),
			growth,
			fmt.Sprintf("%d", len(t.History)),
			yesNo(t.NeedsRefactoring),
		})
	}

	var candidateRows [][]string
	for _, c := range a.ComplexityChanges {
		if !c.RefactoringCandidate {
			continue
		}
		candidateRows = append(candidateRows, []string{
			shortHash(c.CommitHash),
			c.File,
			c.Function,
			fmt.Sprintf("%+d", c.ComplexityIncrease),
			fmt.Sprintf("%+d", c.NestingLevelChange),
			c.Author,
		})
	}

	return &Document{
		Title: "Complexity Evolution",
		Parts: []Renderable{
			NewTable("Function Trends",
				[]string{"File", "Function", "Complexity", "Growth", "Samples", "Refactor"},
				trendRows, nil, nil),
			NewTable("Refactoring Candidates",
				[]string{"Commit", "File", "Function", "Complexity", "Nesting", "Author"},
				limit(candidateRows, top), nil, nil),
		},
		Data: a,
	}
}

// OwnershipView shows per-file stability and the drift insights.
func OwnershipView(a *ownership.Analysis, top int) *Document {
	scores := append([]ownership.Stability(nil), a.StabilityScores...)
	sort.SliceStable(scores, func(i, j int) bool {
		return stabilityValue(scores[i]) < stabilityValue(scores[j])
	})

	rows := make([][]string, 0, len(scores))
	for _, s := range limit(scores, top) {
		score := "-"
		if s.Score != nil {
			score = fmt.Sprintf("%.2f", *s.Score)
		}
		rows = append(rows, []string{
			s.File,
			string(s.Classification),
			score,
			fmt.Sprintf("%d", s.OwnershipChanges),
			fmt.Sprintf("%d", s.UniqueAuthors),
			Days(s.AvgPeriodDays),
			yesNo(s.HasRapidChanges),
		})
	}

	var insights []string
	for _, in := range a.Insights {
		insights = append(insights, fmt.Sprintf("[%s] %s", in.Severity, in.Message))
	}

	return &Document{
		Title: "Ownership Drift",
		Parts: []Renderable{
			NewTable("Stability",
				[]string{"File", "Class", "Score", "Changes", "Authors", "Avg Period", "Rapid"},
				rows, nil, nil),
			&Section{
				Title: "Insights",
				Content: fmt.Sprintf("Bus factor %d, %d ownership changes, %d files with rapid changes.\n%s",
					a.Summary.BusFactor, a.Summary.TotalOwnershipChanges, a.Summary.RapidChangeFiles,
					strings.Join(limit(insights, top), "\n")),
			},
		},
		Data: a,
	}
}

// insufficient-data files sort last
func stabilityValue(s ownership.Stability) float64 {
	if s.Score == nil {
		return 2
	}
	return *s.Score
}

// BurnoutTable lists eligible authors by burnout score.
func BurnoutTable(a *burnout.Analysis, top int) *Table {
	rows := make([][]string, 0, len(a.Insights))
	for _, in := range limit(a.Insights, top) {
		rows = append(rows, []string{
			in.Author,
			Count(in.Commits),
			Percent(in.OffHoursRatio),
			Percent(in.WeekendRatio),
			Percent(in.AfterHoursRatio),
			Score(in.Score),
			string(in.RiskLevel),
		})
	}
	footer := []string{
		fmt.Sprintf("%d ineligible", len(a.IneligibleAuthors)),
		"", "", "",
		Percent(a.Summary.RepoAfterHoursRatio),
		Score(a.Summary.MeanScore),
		fmt.Sprintf("%d high", a.Summary.HighRisk),
	}
	return NewTable("Burnout Risk",
		[]string{"Author", "Commits", "Off-hours", "Weekend", "After-hours", "Score", "Risk"},
		rows, footer, a)
}

// RiskView shows file, function and author risk scores, then the files and
// functions flagged for refactoring.
func RiskView(a *risk.Analysis, top int) *Document {
	return &Document{
		Title: "Risk",
		Parts: []Renderable{
			riskTable("Files", a.Files, top),
			riskTable("Functions", a.Functions, top),
			riskTable("Authors", a.Authors, top),
			candidateTable(a.RefactoringCandidates(), top),
		},
		Data: a,
	}
}

func candidateTable(scores []risk.Score, top int) *Table {
	rows := make([][]string, 0, len(scores))
	for _, s := range limit(scores, top) {
		rows = append(rows, []string{
			string(s.Kind),
			s.Subject,
			Score(s.CompositeScore),
			fmt.Sprintf("%d", s.LatestComplexity),
			fmt.Sprintf("%d", s.ChangeCount),
		})
	}
	return NewTable(fmt.Sprintf("Refactoring Candidates (%d)", len(scores)),
		[]string{"Kind", "Subject", "Risk", "Complexity", "Changes"},
		rows, nil, nil)
}

func riskTable(title string, scores []risk.Score, top int) *Table {
	rows := make([][]string, 0, len(scores))
	for _, s := range limit(scores, top) {
		rows = append(rows, []string{
			s.Subject,
			Score(s.CompositeScore),
			Score(s.ChurnComponent),
			Score(s.ComplexityComponent),
			Score(s.TrendComponent),
			string(s.Classification),
			yesNo(s.IsRefactoringCandidate),
		})
	}
	return NewTable(title,
		[]string{"Subject", "Risk", "Churn", "Complexity", "Trend", "Level", "Refactor"},
		rows, nil, nil)
}

// GraphTable lists the newest commits of the graph first.
func GraphTable(nodes []commitgraph.EnrichedCommitNode, top int) *Table {
	newest := make([]commitgraph.EnrichedCommitNode, len(nodes))
	for i, n := range nodes {
		newest[len(nodes)-1-i] = n
	}

	rows := make([][]string, 0, len(newest))
	for _, n := range limit(newest, top) {
		kind := ""
		switch {
		case n.IsFix:
			kind = "fix"
		case n.IsAutomated:
			kind = "auto"
		}
		prs := make([]string, 0, len(n.PullRequests))
		for _, pr := range n.PullRequests {
			prs = append(prs, fmt.Sprintf("#%d", pr.Number))
		}
		rows = append(rows, []string{
			shortHash(n.Hash),
			n.Timestamp.UTC().Format("2006-01-02"),
			n.Author,
			Count(n.Churn),
			kind,
			strings.Join(prs, ","),
			firstLine(n.Message),
		})
	}
	return NewTable("Commit Graph",
		[]string{"Commit", "Date", "Author", "Churn", "Kind", "PRs", "Message"},
		rows, nil, nodes)
}

// TodosView lists the TODO inventory and the stale subset. Ages are relative
// to ref, normally the newest commit.
func TodosView(t *evolution.TodoReport, ref time.Time, top int) *Document {
	if t == nil {
		t = &evolution.TodoReport{}
	}

	rows := make([][]string, 0, len(t.Items))
	for _, it := range limit(t.Items, top) {
		age := "unknown"
		if it.Date != nil {
			age = Age(*it.Date, ref)
		}
		rows = append(rows, []string{
			fmt.Sprintf("%s:%d", it.File, it.Line),
			it.Marker,
			it.Author,
			age,
			it.Text,
		})
	}

	staleRows := make([][]string, 0, len(t.Stale))
	for _, s := range limit(t.Stale, top) {
		staleRows = append(staleRows, []string{
			fmt.Sprintf("%s:%d", s.File, s.Line),
			s.Marker,
			Days(float64(s.AgeDays)),
			Age(s.FileLastChanged, ref),
			s.Text,
		})
	}

	return &Document{
		Title: "TODO Inventory",
		Parts: []Renderable{
			NewTable(fmt.Sprintf("Markers (%d)", len(t.Items)),
				[]string{"Location", "Marker", "Author", "Added", "Text"},
				rows, nil, nil),
			NewTable(fmt.Sprintf("Stale (%d)", len(t.Stale)),
				[]string{"Location", "Marker", "Age", "File Changed", "Text"},
				staleRows, nil, nil),
		},
		Data: t,
	}
}

// ReportView renders every section of a full run.
func ReportView(r *evolution.Report, top int) *Document {
	ref := time.Time{}
	if n := len(r.Graph); n > 0 {
		ref = r.Graph[n-1].Timestamp
	}

	parts := []Renderable{
		&Section{
			Title: "Summary",
			Content: fmt.Sprintf("%s commits, %s lines churned, %d files, %d authors at risk, %d warnings.\nFingerprint %s",
				Count(r.Churn.Summary.TotalCommits), Count(r.Churn.Summary.TotalChurn), len(r.Churn.Files),
				r.Burnout.Summary.HighRisk, len(r.Warnings), r.Fingerprint),
		},
		ChurnTable(r.Churn, top),
		ComplexityView(r.Complexity, top),
		OwnershipView(r.Ownership, top),
		BurnoutTable(r.Burnout, top),
		RiskView(r.Risk, top),
	}
	if r.Todos != nil {
		parts = append(parts, TodosView(r.Todos, ref, top))
	}
	if len(r.Warnings) > 0 {
		rows := make([][]string, 0, len(r.Warnings))
		for _, w := range r.Warnings {
			rows = append(rows, []string{shortHash(w.Hash), string(w.Source), w.Message})
		}
		parts = append(parts, NewTable("Warnings", []string{"Commit", "Source", "Message"}, rows, nil, nil))
	}

	return &Document{Title: "Code Evolution Report", Parts: parts, Data: r}
}

func shortHash(h string) string {
	if len(h) > 8 {
		return h[:8]
	}
	return h
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
