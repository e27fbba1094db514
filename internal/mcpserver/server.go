// Package mcpserver exposes ingredient matching as MCP tools over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/recipebox/backend/internal/domain"
	"github.com/recipebox/backend/internal/usecase"
)

// Searcher is the matching surface the tools call into
type Searcher interface {
	SearchIngredients(ctx context.Context, lines []string) (*domain.SearchResult, error)
	Extract(ctx context.Context, lines []string) ([]usecase.Extraction, error)
	MatchPhrase(ctx context.Context, phrase string) (*domain.MatchResult, error)
}

// Server wraps the MCP server with the recipebox tools.
type Server struct {
	mcp    *server.MCPServer
	search Searcher
}

// New creates a new MCP server with all tools registered.
func New(search Searcher, version string) *Server {
	s := &Server{search: search}

	s.mcp = server.NewMCPServer(
		"recipebox",
		version,
		server.WithToolCapabilities(false),
	)

	s.mcp.AddTool(mcp.NewTool("search_ingredients",
		mcp.WithDescription("Match raw recipe ingredient lines (e.g. \"2 cups chicken broth\") against the "+
			"ingredient vocabulary. Returns matches grouped by category plus the lines that did not match."),
		mcp.WithArray("lines",
			mcp.Required(),
			mcp.Description("Ingredient lines, one per entry"),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.searchIngredients)

	s.mcp.AddTool(mcp.NewTool("match_phrase",
		mcp.WithDescription("Resolve one already-clean ingredient phrase (e.g. \"green onions\") to a vocabulary entry."),
		mcp.WithString("phrase", mcp.Required(), mcp.Description("Ingredient phrase")),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.matchPhrase)

	s.mcp.AddTool(mcp.NewTool("extract_candidates",
		mcp.WithDescription("Show the candidate phrases extracted from one ingredient line, without matching them."),
		mcp.WithString("line", mcp.Required(), mcp.Description("Raw ingredient line")),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.extractCandidates)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) searchIngredients(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	lines, err := stringSlice(req, "lines")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	result, err := s.search.SearchIngredients(ctx, lines)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(result)
}

func (s *Server) matchPhrase(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	phrase, err := req.RequireString("phrase")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	result, err := s.search.MatchPhrase(ctx, phrase)
	if errors.Is(err, domain.ErrNotFound) {
		return mcp.NewToolResultText(fmt.Sprintf("no match: %s", phrase)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(result)
}

func (s *Server) extractCandidates(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	line, err := req.RequireString("line")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	extractions, err := s.search.Extract(ctx, []string{line})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(extractions) == 0 {
		return mcp.NewToolResultError("line is blank"), nil
	}
	return jsonResult(extractions[0])
}

// stringSlice reads a required array-of-strings argument
func stringSlice(req mcp.CallToolRequest, key string) ([]string, error) {
	args, ok := req.Params.Arguments.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("required argument %q not found", key)
	}
	raw, ok := args[key]
	if !ok {
		return nil, fmt.Errorf("required argument %q not found", key)
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("argument %q must be an array of strings", key)
	}

	out := make([]string, 0, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("argument %q item %d is not a string", key, i)
		}
		out = append(out, s)
	}
	return out, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}
