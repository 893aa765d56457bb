package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/panbanda/chronicle/internal/logging"
	"github.com/panbanda/chronicle/internal/service/analysis"
	"github.com/panbanda/chronicle/pkg/config"
)

// Server wraps the MCP server and registers the chronicle analysis tools.
type Server struct {
	server *mcp.Server
	config *config.Config
	logger logrus.FieldLogger
}

// Option configures a Server.
type Option func(*Server)

// WithConfig sets the configuration used by every tool call.
func WithConfig(cfg *config.Config) Option {
	return func(s *Server) {
		s.config = cfg
	}
}

// WithLogger sets the logger. Stdout carries the protocol, so the logger
// must write elsewhere.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Server) {
		s.logger = logging.OrDiscard(l)
	}
}

// NewServer creates a new MCP server with all chronicle tools registered.
func NewServer(version string, opts ...Option) *Server {
	if version == "" {
		version = "dev"
	}
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "chronicle",
			Version: version,
		},
		nil,
	)

	s := &Server{server: server, logger: logging.Discard()}
	for _, opt := range opts {
		opt(s)
	}
	if s.config == nil {
		s.config = config.LoadOrDefault()
	}
	s.registerTools()
	s.registerPrompts()
	return s
}

// Run starts the MCP server over stdio transport.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) service() *analysis.Service {
	return analysis.New(analysis.WithConfig(s.config), analysis.WithLogger(s.logger))
}

// toolEntry pairs a tool definition with the call that registers its
// typed handler.
type toolEntry struct {
	tool *mcp.Tool
	add  func(*mcp.Server, *mcp.Tool)
}

func bind[In any](h mcp.ToolHandlerFor[In, any]) func(*mcp.Server, *mcp.Tool) {
	return func(srv *mcp.Server, t *mcp.Tool) {
		mcp.AddTool(srv, t, h)
	}
}

func (s *Server) tools() []toolEntry {
	return []toolEntry{
		{&mcp.Tool{Name: "analyze_churn", Title: "File change frequency", Description: describeChurn()}, bind(s.handleChurn)},
		{&mcp.Tool{Name: "analyze_complexity_trends", Title: "Per-function complexity over time", Description: describeComplexityTrends()}, bind(s.handleComplexity)},
		{&mcp.Tool{Name: "analyze_ownership_drift", Title: "Ownership periods, drift and stability", Description: describeOwnershipDrift()}, bind(s.handleOwnership)},
		{&mcp.Tool{Name: "analyze_burnout", Title: "Off-hours and weekend commit patterns", Description: describeBurnout()}, bind(s.handleBurnout)},
		{&mcp.Tool{Name: "analyze_risk", Title: "Combined churn/complexity risk scores", Description: describeRisk()}, bind(s.handleRisk)},
		{&mcp.Tool{Name: "analyze_commit_graph", Title: "Commits with fixes and pull requests", Description: describeCommitGraph()}, bind(s.handleGraph)},
		{&mcp.Tool{Name: "analyze_todos", Title: "TODO inventory and stale markers", Description: describeTodos()}, bind(s.handleTodos)},
		{&mcp.Tool{Name: "analyze_evolution", Title: "Everything above in one report", Description: describeEvolution()}, bind(s.handleEvolution)},
	}
}

func (s *Server) registerTools() {
	for _, entry := range s.tools() {
		entry.add(s.server, entry.tool)
	}
}

// ToolInfo names a registered tool.
type ToolInfo struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

// Tools lists the tools NewServer registers, in registration order.
func Tools() []ToolInfo {
	entries := (&Server{}).tools()
	out := make([]ToolInfo, 0, len(entries))
	for _, entry := range entries {
		out = append(out, ToolInfo{Name: entry.tool.Name, Title: entry.tool.Title})
	}
	return out
}
