package output

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/chronicle/pkg/analyzer/evolution"
	"github.com/panbanda/chronicle/pkg/analyzer/risk"
	"github.com/panbanda/chronicle/pkg/models"
)

func sampleReport(t *testing.T) *evolution.Report {
	t.Helper()
	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	raw := []models.RawCommit{
		{Hash: "aaaaaaaaaaaa", Author: "alice", Timestamp: base, Message: "create x",
			Files: []string{"x.go"}, StatText: " 1 file changed, 100 insertions(+)"},
		{Hash: "bbbbbbbbbbbb", Author: "bob", Timestamp: base.AddDate(0, 0, 1), Message: "fix x\n\nlong body",
			Files: []string{"x.go"}, StatText: " 1 file changed, 50 insertions(+), 50 deletions(-)"},
		{Hash: "cccccccccccc", Author: "alice", Timestamp: base.AddDate(0, 0, 2), Message: "tweak x",
			Files: []string{"x.go"}, StatText: " 1 file changed, 10 insertions(+), 5 deletions(-)"},
	}
	report, err := evolution.New(nil).Run(context.Background(), raw)
	require.NoError(t, err)
	return report
}

func TestChurnTable(t *testing.T) {
	report := sampleReport(t)
	table := ChurnTable(report.Churn, 10)

	require.Len(t, table.Rows, 1)
	assert.Equal(t, "x.go", table.Rows[0][0])
	assert.Equal(t, "3", table.Rows[0][1])
	assert.Equal(t, "+160/-55", table.Rows[0][2])
	assert.Equal(t, "churn 215", table.Footer[2])
	assert.Same(t, report.Churn, table.RenderData())
}

func TestGraphTable_NewestFirst(t *testing.T) {
	report := sampleReport(t)
	table := GraphTable(report.Graph, 2)

	require.Len(t, table.Rows, 2)
	assert.Equal(t, "cccccccc", table.Rows[0][0])
	assert.Equal(t, "bbbbbbbb", table.Rows[1][0])
	assert.Equal(t, "fix", table.Rows[1][4])
	assert.Equal(t, "fix x", table.Rows[1][6])
}

func TestOwnershipView(t *testing.T) {
	report := sampleReport(t)
	doc := OwnershipView(report.Ownership, 0)

	var buf bytes.Buffer
	require.NoError(t, doc.RenderText(&buf, false))
	assert.Contains(t, buf.String(), "Ownership Drift")
	assert.Contains(t, buf.String(), "x.go")
	assert.Contains(t, buf.String(), "Bus factor")
}

func TestRiskView_RefactoringCandidates(t *testing.T) {
	a := &risk.Analysis{
		Files: []risk.Score{
			{Subject: "hot.go", Kind: risk.KindFile, CompositeScore: 8.2, LatestComplexity: 14, ChangeCount: 9, IsRefactoringCandidate: true},
			{Subject: "calm.go", Kind: risk.KindFile, CompositeScore: 2.1},
		},
		Functions: []risk.Score{
			{Subject: "hot.go::parse", Kind: risk.KindFunction, File: "hot.go", CompositeScore: 7.5, LatestComplexity: 11, ChangeCount: 6, IsRefactoringCandidate: true},
		},
	}

	tests := []struct {
		name     string
		top      int
		wantRows [][]string
		title    string
	}{
		{
			name: "all candidates",
			top:  0,
			wantRows: [][]string{
				{"file", "hot.go", Score(8.2), "14", "9"},
				{"function", "hot.go::parse", Score(7.5), "11", "6"},
			},
			title: "Refactoring Candidates (2)",
		},
		{
			name:     "limited rows keep the total in the title",
			top:      1,
			wantRows: [][]string{{"file", "hot.go", Score(8.2), "14", "9"}},
			title:    "Refactoring Candidates (2)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := RiskView(a, tt.top)
			require.Len(t, doc.Parts, 4)
			table := doc.Parts[3].(*Table)
			assert.Equal(t, tt.title, table.Title)
			assert.Equal(t, tt.wantRows, table.Rows)
		})
	}
}

func TestTodosView(t *testing.T) {
	ref := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	added := ref.AddDate(0, 0, -14)
	todos := &evolution.TodoReport{
		Items: []models.TodoItem{
			{File: "a.go", Line: 3, Marker: "TODO", Text: "wire retries", Author: "alice", Date: &added},
			{File: "b.go", Line: 9, Marker: "FIXME", Text: "undated"},
		},
	}

	doc := TodosView(todos, ref, 0)
	items := doc.Parts[0].(*Table)
	require.Len(t, items.Rows, 2)
	assert.Equal(t, []string{"a.go:3", "TODO", "alice", "2 weeks ago", "wire retries"}, items.Rows[0])
	assert.Equal(t, "unknown", items.Rows[1][3])

	stale := doc.Parts[1].(*Table)
	assert.Empty(t, stale.Rows)
	assert.Equal(t, "Stale (0)", stale.Title)
}

func TestReportView(t *testing.T) {
	report := sampleReport(t)
	doc := ReportView(report, 5)

	var md bytes.Buffer
	require.NoError(t, doc.RenderMarkdown(&md))
	out := md.String()
	for _, want := range []string{"# Code Evolution Report", "## Summary", "215 lines churned", "## Code Churn", "## Burnout Risk"} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "Warnings")

	var js bytes.Buffer
	require.NoError(t, NewWriterFormatter(FormatJSON, &js, false).Output(doc))
	assert.Contains(t, js.String(), report.Fingerprint)
}
