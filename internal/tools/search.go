package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/tools/duckduckgo"

	"github.com/rahul/sutra/internal/payload"
)

// searchClient is the slice of the duckduckgo tool the search tool uses,
// separated so tests can substitute a canned backend.
type searchClient interface {
	Call(ctx context.Context, input string) (string, error)
}

// SearchTool queries the web and returns result snippets cleaned the same
// way as the other web-facing tools.
type SearchTool struct {
	client searchClient

	// Diag receives cleaning diagnostics; optional.
	Diag DiagnosticSink
}

func NewSearchTool() (*SearchTool, error) {
	ddg, err := duckduckgo.New(10, duckduckgo.DefaultUserAgent)
	if err != nil {
		return nil, err
	}
	return &SearchTool{client: ddg}, nil
}

func (s *SearchTool) Name() string {
	return "search"
}

func (s *SearchTool) Description() string {
	return "Search the web using DuckDuckGo for real-time information."
}

func (s *SearchTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "The search query to look up",
			},
		},
		"required": []string{"query"},
	}
}

func (s *SearchTool) Execute(ctx context.Context, input string) (string, error) {
	var args struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal([]byte(input), &args); err != nil {
		return "", fmt.Errorf("invalid input: %v", err)
	}
	if strings.TrimSpace(args.Query) == "" {
		return "", fmt.Errorf("query is required")
	}

	res, err := s.client.Call(ctx, args.Query)
	if err != nil {
		return "", fmt.Errorf("search failed: %w", err)
	}

	// Result snippets inherit boilerplate from the pages they were taken
	// from; clean them like scraped content. The guards keep short result
	// sets intact.
	cleaned, diag := payload.ProcessWebContent(res)
	if diag != nil && s.Diag != nil {
		s.Diag.LogDiagnostic("search", fmt.Sprintf("%q: %s", args.Query, diag))
	}

	// An empty result set is a real error: the backend rate-limits and
	// intermittently returns nothing, so surfacing it lets the caller retry.
	if strings.TrimSpace(cleaned) == "" {
		return "", fmt.Errorf("search returned no results for %q", args.Query)
	}
	return cleaned, nil
}
