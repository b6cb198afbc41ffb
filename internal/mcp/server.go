// Package mcp exposes the journal as Model Context Protocol tools over stdio.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"github.com/sadopc/inkwell/internal/analytics"
	"github.com/sadopc/inkwell/internal/logging"
	"github.com/sadopc/inkwell/internal/pipeline"
	"github.com/sadopc/inkwell/internal/store"
)

type Store interface {
	CreateEntry(ctx context.Context, in store.NewEntry) (*store.Entry, error)
	GetEntry(ctx context.Context, id string) (*store.Entry, error)
	ListEntries(ctx context.Context, f store.EntryFilter) ([]store.Entry, error)
	ListCategories(ctx context.Context, userID string) ([]store.Category, error)
}

type Analyzer interface {
	Analyze(ctx context.Context, entryID string) (pipeline.Result, error)
	Preview(text string) pipeline.Result
}

type Summarizer interface {
	Summary(ctx context.Context, q analytics.Query) (*analytics.Summary, error)
}

type Deps struct {
	Store     Store
	Analyzer  Analyzer
	Analytics Summarizer
	UserID    string
	Log       logrus.FieldLogger
}

// ToolNames lists the registered tools in registration order.
var ToolNames = []string{
	"ping",
	"create_entry",
	"list_entries",
	"analyze_entry",
	"preview_sentiment",
	"get_analytics",
	"list_categories",
}

type Server struct {
	mcpServer *server.MCPServer
	deps      Deps
}

// NewServer builds an MCP server with every journal tool registered.
func NewServer(version string, deps Deps) *Server {
	if deps.Log == nil {
		deps.Log = logging.Discard()
	}
	s := &Server{
		mcpServer: server.NewMCPServer(
			"Inkwell MCP Server",
			version,
			server.WithLogging(),
			server.WithRecovery(),
		),
		deps: deps,
	}
	s.registerTools()
	return s
}

// Start runs the stdio event loop until stdin closes.
func (s *Server) Start() error {
	return server.ServeStdio(s.mcpServer)
}

// MCPRawServer exposes the underlying mcp-go server.
func (s *Server) MCPRawServer() *server.MCPServer {
	return s.mcpServer
}
