package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/pensieveco/pensieve/pkg/recall"
)

var (
	recallToolName    = "memory_recall"
	recallDescription = "Recall memories relevant to a query. Returns the most relevant stored memories ranked by semantic similarity, each with its current salience and a context-matched perspective when available. Use hybrid to also search the markdown corpus."
)

// RecallInput represents the input arguments for the memory_recall tool.
type RecallInput struct {
	Query      string   `json:"query" jsonschema:"the query text to recall memories for"`
	MaxResults int      `json:"max_results,omitempty" jsonschema:"number of results to return (default: 3)"`
	Frames     []string `json:"frames,omitempty" jsonschema:"semantic frames active in the current conversation"`
	Hybrid     bool     `json:"hybrid,omitempty" jsonschema:"merge markdown corpus chunks into the results"`
}

// RecallOutput represents the structured output of a recall.
type RecallOutput struct {
	Query   string          `json:"query"`
	Results []recall.Result `json:"results"`
	Count   int             `json:"count"`

	// Context is the result list rendered as a markdown block ready for
	// prompt injection.
	Context string `json:"context"`
}

// handleRecall processes a memory recall request via MCP.
func (s *Server) handleRecall(ctx context.Context, _ *mcp.CallToolRequest, input RecallInput) (*mcp.CallToolResult, RecallOutput, error) {
	if input.Query == "" {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: "query is required"},
			},
		}, RecallOutput{}, nil
	}

	opts := recall.Options{
		MaxResults:    input.MaxResults,
		ContextFrames: input.Frames,
	}

	var (
		results []recall.Result
		err     error
	)
	if input.Hybrid {
		results, err = s.config.Engine.RecallHybrid(ctx, input.Query, opts)
	} else {
		results, err = s.config.Engine.Recall(ctx, input.Query, opts)
	}
	if err != nil {
		s.config.Logger.Error("recall failed", "error", err)
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Recall failed: %v", err)},
			},
		}, RecallOutput{}, nil
	}

	if results == nil {
		results = []recall.Result{}
	}

	output := RecallOutput{
		Query:   input.Query,
		Results: results,
		Count:   len(results),
		Context: recall.FormatForContext(results, false),
	}

	// Serialize the structured output as JSON for the text field
	// Per MCP spec: tools returning structured content should also return
	// serialized JSON in a TextContent block for backwards compatibility
	jsonBytes, err := json.Marshal(output)
	if err != nil {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Failed to serialize results: %v", err)},
			},
		}, RecallOutput{}, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}
