package memtools

import (
	"context"
	"fmt"
	"math"

	"github.com/HendryAvila/Hive/internal/memory"
	"github.com/mark3labs/mcp-go/mcp"
)

// defaultSearchLimit matches what agents usually need before a risky step.
const defaultSearchLimit = 5

// SearchTool handles the memory_search MCP tool.
type SearchTool struct {
	mem Memory
}

// NewSearchTool creates a SearchTool.
func NewSearchTool(mem Memory) *SearchTool {
	return &SearchTool{mem: mem}
}

// Definition returns the MCP tool definition for memory_search.
func (t *SearchTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_search",
		mcp.WithDescription(
			"Search for relevant learnings and past experiences. "+
				"Always search before attempting risky operations to check for known gotchas or proven solutions.",
		),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query (natural language)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max results to return (default: 5)"),
		),
	)
}

// memoryHit is one search result as returned to the agent.
type memoryHit struct {
	Text  string   `json:"text"`
	Tags  []string `json:"tags"`
	Score float64  `json:"score"`
}

// Handle processes the memory_search tool call.
func (t *SearchTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := req.GetString("query", "")
	if query == "" {
		return mcp.NewToolResultError("'query' is required"), nil
	}
	limit := intArg(req, "limit", defaultSearchLimit)
	if limit <= 0 {
		return mcp.NewToolResultError("'limit' must be positive"), nil
	}

	results, err := t.mem.Search(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("searching memory: %w", err)
	}

	hits := make([]memoryHit, len(results))
	for i, r := range results {
		hits[i] = memoryHit{
			Text:  r.Content,
			Tags:  memory.Tags(r),
			Score: math.Round(r.Score*1000) / 1000,
		}
	}
	return mcp.NewToolResultJSON(map[string]any{
		"count":    len(hits),
		"memories": hits,
	})
}
