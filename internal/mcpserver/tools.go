package mcpserver

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/panbanda/chronicle/internal/output"
	"github.com/panbanda/chronicle/internal/service/analysis"
	"github.com/panbanda/chronicle/pkg/analyzer/evolution"
	"github.com/panbanda/chronicle/pkg/analyzer/ownership"
	"github.com/panbanda/chronicle/pkg/analyzer/risk"
	"github.com/panbanda/chronicle/pkg/analyzer/trend"
)

const defaultTop = 20

// AnalyzeInput is the input shared by every tool.
type AnalyzeInput struct {
	Path   string `json:"path,omitempty" jsonschema:"Repository path. Defaults to the current directory."`
	Since  string `json:"since,omitempty" jsonschema:"History bound: a date (2024-01-31) or a look-back like 90d, 12w, 6m, 1y. Defaults to the configured window."`
	Format string `json:"format,omitempty" jsonschema:"Output format: toon (default), json, yaml, or markdown."`
	Top    int    `json:"top,omitempty" jsonschema:"Maximum entries per list. Default 20."`
}

// EvolutionInput adds the optional enrichments of a full run.
type EvolutionInput struct {
	AnalyzeInput
	PullRequests bool `json:"pull_requests,omitempty" jsonschema:"Attach GitHub pull requests to commits. Requires GITHUB_TOKEN and github.enabled."`
}

func getPath(input AnalyzeInput) string {
	if input.Path == "" {
		return "."
	}
	return input.Path
}

func getTop(input AnalyzeInput) int {
	if input.Top <= 0 {
		return defaultTop
	}
	return input.Top
}

func getFormat(input AnalyzeInput) output.Format {
	switch strings.ToLower(input.Format) {
	case "json":
		return output.FormatJSON
	case "yaml", "yml":
		return output.FormatYAML
	case "markdown", "md":
		return output.FormatMarkdown
	default:
		return output.FormatTOON
	}
}

func toolResult(view output.Renderable, format output.Format) (*mcp.CallToolResult, any, error) {
	var sb strings.Builder
	var err error
	if format == output.FormatMarkdown {
		err = view.RenderMarkdown(&sb)
	} else {
		err = output.Encode(&sb, format, view.RenderData())
	}
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: sb.String()},
		},
	}, nil, nil
}

func toolError(msg string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "Error: " + msg},
		},
		IsError: true,
	}, nil, nil
}

// run analyzes the repository for one tool call. Tool failures are returned
// to the client as error results, not protocol errors.
func (s *Server) run(ctx context.Context, input AnalyzeInput, req analysis.Request) (*evolution.Report, *mcp.CallToolResult) {
	since, err := analysis.ParseSince(input.Since, time.Now())
	if err != nil {
		res, _, _ := toolError(err.Error())
		return nil, res
	}
	req.RepoPath = getPath(input)
	req.Since = since

	report, err := s.service().Run(ctx, req)
	if err != nil {
		res, _, _ := toolError(err.Error())
		return nil, res
	}
	return report, nil
}

func (s *Server) handleChurn(ctx context.Context, _ *mcp.CallToolRequest, input AnalyzeInput) (*mcp.CallToolResult, any, error) {
	report, failed := s.run(ctx, input, analysis.Request{})
	if failed != nil {
		return failed, nil, nil
	}
	top := getTop(input)
	churn := *report.Churn
	churn.Files = limit(churn.Files, top)
	return toolResult(output.ChurnTable(&churn, top), getFormat(input))
}

func (s *Server) handleComplexity(ctx context.Context, _ *mcp.CallToolRequest, input AnalyzeInput) (*mcp.CallToolResult, any, error) {
	report, failed := s.run(ctx, input, analysis.Request{Diffs: true})
	if failed != nil {
		return failed, nil, nil
	}
	top := getTop(input)
	return toolResult(output.ComplexityView(trimComplexity(report.Complexity, top), top), getFormat(input))
}

func (s *Server) handleOwnership(ctx context.Context, _ *mcp.CallToolRequest, input AnalyzeInput) (*mcp.CallToolResult, any, error) {
	report, failed := s.run(ctx, input, analysis.Request{})
	if failed != nil {
		return failed, nil, nil
	}
	top := getTop(input)
	return toolResult(output.OwnershipView(trimOwnership(report.Ownership, top), top), getFormat(input))
}

func (s *Server) handleBurnout(ctx context.Context, _ *mcp.CallToolRequest, input AnalyzeInput) (*mcp.CallToolResult, any, error) {
	report, failed := s.run(ctx, input, analysis.Request{})
	if failed != nil {
		return failed, nil, nil
	}
	return toolResult(output.BurnoutTable(report.Burnout, getTop(input)), getFormat(input))
}

func (s *Server) handleRisk(ctx context.Context, _ *mcp.CallToolRequest, input AnalyzeInput) (*mcp.CallToolResult, any, error) {
	report, failed := s.run(ctx, input, analysis.Request{Diffs: true})
	if failed != nil {
		return failed, nil, nil
	}
	top := getTop(input)
	return toolResult(output.RiskView(trimRisk(report.Risk, top), top), getFormat(input))
}

func (s *Server) handleGraph(ctx context.Context, _ *mcp.CallToolRequest, input AnalyzeInput) (*mcp.CallToolResult, any, error) {
	report, failed := s.run(ctx, input, analysis.Request{PullRequests: true})
	if failed != nil {
		return failed, nil, nil
	}
	top := getTop(input)
	nodes := report.Graph
	if len(nodes) > top {
		nodes = nodes[len(nodes)-top:]
	}
	return toolResult(output.GraphTable(nodes, top), getFormat(input))
}

func (s *Server) handleTodos(ctx context.Context, _ *mcp.CallToolRequest, input AnalyzeInput) (*mcp.CallToolResult, any, error) {
	report, failed := s.run(ctx, input, analysis.Request{Todos: true})
	if failed != nil {
		return failed, nil, nil
	}
	if report.Todos == nil {
		return toolError("todo inventory is disabled (todos.enabled = false)")
	}
	top := getTop(input)
	todos := &evolution.TodoReport{
		Items: limit(report.Todos.Items, top),
		Stale: limit(report.Todos.Stale, top),
	}
	return toolResult(output.TodosView(todos, newest(report), top), getFormat(input))
}

func (s *Server) handleEvolution(ctx context.Context, _ *mcp.CallToolRequest, input EvolutionInput) (*mcp.CallToolResult, any, error) {
	req := analysis.Request{Diffs: true, Todos: true, PullRequests: input.PullRequests}
	report, failed := s.run(ctx, input.AnalyzeInput, req)
	if failed != nil {
		return failed, nil, nil
	}
	top := getTop(input.AnalyzeInput)
	return toolResult(output.ReportView(trimReport(report, top), top), getFormat(input.AnalyzeInput))
}

func newest(r *evolution.Report) time.Time {
	if n := len(r.Commits); n > 0 {
		return r.Commits[n-1].Timestamp
	}
	return time.Time{}
}

func limit[T any](items []T, top int) []T {
	if top <= 0 || len(items) <= top {
		return items
	}
	return items[:top]
}

func trimComplexity(a *trend.Analysis, top int) *trend.Analysis {
	out := *a
	trends := append([]trend.FunctionTrend(nil), a.ComplexityTrends...)
	sort.SliceStable(trends, func(i, j int) bool {
		return trends[i].GrowthRate > trends[j].GrowthRate
	})
	out.ComplexityTrends = limit(trends, top)
	out.ComplexityChanges = nil
	for _, c := range a.ComplexityChanges {
		if c.RefactoringCandidate {
			out.ComplexityChanges = append(out.ComplexityChanges, c)
		}
	}
	out.ComplexityChanges = limit(out.ComplexityChanges, top)
	return &out
}

func trimOwnership(a *ownership.Analysis, top int) *ownership.Analysis {
	out := *a
	scores := append([]ownership.Stability(nil), a.StabilityScores...)
	sort.SliceStable(scores, func(i, j int) bool {
		return scoreOrTwo(scores[i].Score) < scoreOrTwo(scores[j].Score)
	})
	out.StabilityScores = limit(scores, top)
	out.FileAuthors = limit(a.FileAuthors, top)
	out.Periods = nil
	out.OwnershipChanges = nil
	out.RapidChangeWindows = limit(a.RapidChangeWindows, top)
	out.Insights = limit(a.Insights, top)
	return &out
}

func scoreOrTwo(v *float64) float64 {
	if v == nil {
		return 2
	}
	return *v
}

// trimRisk limits each score list to top, keeping refactoring candidates
// ranked below the cut.
func trimRisk(a *risk.Analysis, top int) *risk.Analysis {
	out := *a
	out.Files = keepCandidates(a.Files, top)
	out.Functions = keepCandidates(a.Functions, top)
	out.Authors = limit(a.Authors, top)
	return &out
}

func keepCandidates(scores []risk.Score, top int) []risk.Score {
	if top <= 0 || len(scores) <= top {
		return scores
	}
	out := append([]risk.Score(nil), scores[:top]...)
	for _, s := range scores[top:] {
		if s.IsRefactoringCandidate {
			out = append(out, s)
		}
	}
	return out
}

func trimReport(r *evolution.Report, top int) *evolution.Report {
	out := *r
	out.Commits = nil
	if len(r.Graph) > top {
		out.Graph = r.Graph[len(r.Graph)-top:]
	}
	churn := *r.Churn
	churn.Files = limit(churn.Files, top)
	out.Churn = &churn
	out.Complexity = trimComplexity(r.Complexity, top)
	out.Ownership = trimOwnership(r.Ownership, top)
	out.Risk = trimRisk(r.Risk, top)
	if r.Todos != nil {
		out.Todos = &evolution.TodoReport{
			Items: limit(r.Todos.Items, top),
			Stale: limit(r.Todos.Stale, top),
		}
	}
	return &out
}
