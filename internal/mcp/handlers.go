package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/sadopc/inkwell/internal/analytics"
	"github.com/sadopc/inkwell/internal/store"
)

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("ping",
		mcp.WithDescription("Responds with 'pong' to check if the Inkwell MCP server is alive."),
	), s.handlePing)

	s.mcpServer.AddTool(mcp.NewTool("create_entry",
		mcp.WithDescription("Creates a journal entry. Word count and reading time are filled in immediately."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Body text of the entry.")),
		mcp.WithString("title", mcp.Description("Optional title.")),
		mcp.WithBoolean("analyze", mcp.Description("Run sentiment analysis right away (default true).")),
	), s.handleCreateEntry)

	s.mcpServer.AddTool(mcp.NewTool("list_entries",
		mcp.WithDescription("Lists journal entries, newest first."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of entries to return (default 20).")),
		mcp.WithString("category_id", mcp.Description("Only entries in this category.")),
	), s.handleListEntries)

	s.mcpServer.AddTool(mcp.NewTool("analyze_entry",
		mcp.WithDescription("Scores an entry's sentiment and stores the result."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Entry id.")),
	), s.handleAnalyzeEntry)

	s.mcpServer.AddTool(mcp.NewTool("preview_sentiment",
		mcp.WithDescription("Scores arbitrary text without storing anything."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Text to score.")),
	), s.handlePreview)

	s.mcpServer.AddTool(mcp.NewTool("get_analytics",
		mcp.WithDescription("Summarizes writing activity and mood over a window."),
		mcp.WithString("window", mcp.Description("day, week, month or year (default week).")),
		mcp.WithString("category_id", mcp.Description("Only count entries in this category.")),
	), s.handleAnalytics)

	s.mcpServer.AddTool(mcp.NewTool("list_categories",
		mcp.WithDescription("Lists categories with their entry counts."),
	), s.handleListCategories)
}

func (s *Server) handlePing(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText("pong_inkwell"), nil
}

func (s *Server) handleCreateEntry(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, ok := request.Params.Arguments["content"].(string)
	if !ok || content == "" {
		return mcp.NewToolResultError("'content' parameter is required and must be a non-empty string."), nil
	}
	title, _ := request.Params.Arguments["title"].(string)
	analyze := true
	if v, ok := request.Params.Arguments["analyze"].(bool); ok {
		analyze = v
	}

	e, err := s.deps.Store.CreateEntry(ctx, store.NewEntry{UserID: s.deps.UserID, Title: title, Content: content})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to create entry: %v", err)), nil
	}
	if analyze {
		if _, err := s.deps.Analyzer.Analyze(ctx, e.ID); err != nil {
			s.deps.Log.WithError(err).WithField("entry_id", e.ID).Warn("analysis after create failed")
		} else if e, err = s.deps.Store.GetEntry(ctx, e.ID); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to reload entry: %v", err)), nil
		}
	}
	return jsonResult(e)
}

func (s *Server) handleListEntries(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	f := store.EntryFilter{UserID: s.deps.UserID, Limit: 20}
	if v, ok := request.Params.Arguments["limit"].(float64); ok && v > 0 {
		f.Limit = int(v)
	}
	if v, ok := request.Params.Arguments["category_id"].(string); ok && v != "" {
		f.CategoryID = &v
	}

	entries, err := s.deps.Store.ListEntries(ctx, f)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list entries: %v", err)), nil
	}
	if len(entries) == 0 {
		return mcp.NewToolResultText("[]"), nil
	}
	return jsonResult(entries)
}

func (s *Server) handleAnalyzeEntry(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, ok := request.Params.Arguments["id"].(string)
	if !ok || id == "" {
		return mcp.NewToolResultError("'id' parameter is required."), nil
	}
	e, err := s.deps.Store.GetEntry(ctx, id)
	if err != nil || e.UserID != s.deps.UserID {
		return mcp.NewToolResultError(fmt.Sprintf("Entry '%s' not found.", id)), nil
	}

	res, err := s.deps.Analyzer.Analyze(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to analyze entry: %v", err)), nil
	}
	return jsonResult(res)
}

func (s *Server) handlePreview(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, ok := request.Params.Arguments["text"].(string)
	if !ok {
		return mcp.NewToolResultError("'text' parameter is required."), nil
	}
	return jsonResult(s.deps.Analyzer.Preview(text))
}

func (s *Server) handleAnalytics(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, _ := request.Params.Arguments["window"].(string)
	w, err := analytics.ParseWindow(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	category, _ := request.Params.Arguments["category_id"].(string)

	sum, err := s.deps.Analytics.Summary(ctx, analytics.Query{UserID: s.deps.UserID, Window: w, CategoryID: category})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to build analytics: %v", err)), nil
	}
	return jsonResult(sum)
}

func (s *Server) handleListCategories(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cats, err := s.deps.Store.ListCategories(ctx, s.deps.UserID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list categories: %v", err)), nil
	}
	return jsonResult(cats)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to serialize result to JSON: %v", err)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}
