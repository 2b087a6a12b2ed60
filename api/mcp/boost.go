package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/pensieveco/pensieve/pkg/reinforce"
)

var (
	boostToolName    = "memory_boost"
	boostDescription = "Explicitly raise a memory's salience so it surfaces more readily in recall. Set lock to make the memory immune to recency decay."
)

// BoostInput represents the input arguments for the memory_boost tool.
type BoostInput struct {
	MemoryID string  `json:"memory_id" jsonschema:"the ID of the memory to boost"`
	Amount   float64 `json:"amount,omitempty" jsonschema:"boost amount (default: 0.2)"`
	Lock     bool    `json:"lock,omitempty" jsonschema:"make the memory immune to recency decay"`
}

// BoostOutput represents the structured output of a boost.
type BoostOutput struct {
	MemoryID    string  `json:"memory_id"`
	Salience    float64 `json:"salience"`
	Boost       float64 `json:"boost"`
	DecayImmune bool    `json:"decay_immune"`
}

// handleBoost processes a memory boost request via MCP.
func (s *Server) handleBoost(ctx context.Context, _ *mcp.CallToolRequest, input BoostInput) (*mcp.CallToolResult, BoostOutput, error) {
	if input.MemoryID == "" {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: "memory_id is required"},
			},
		}, BoostOutput{}, nil
	}

	amount := input.Amount
	if amount <= 0 {
		amount = reinforce.DefaultBoostAmount
	}

	if err := s.config.Tracker.Boost(ctx, input.MemoryID, amount, input.Lock); err != nil {
		s.config.Logger.Error("boost failed", "memory_id", input.MemoryID, "error", err)
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Boost failed: %v", err)},
			},
		}, BoostOutput{}, nil
	}

	detail, err := s.config.Tracker.Inspect(ctx, input.MemoryID)
	if err != nil {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Boost succeeded but inspect failed: %v", err)},
			},
		}, BoostOutput{}, nil
	}

	output := BoostOutput{
		MemoryID:    input.MemoryID,
		Salience:    detail.CurrentSalience,
		Boost:       detail.ExplicitBoost,
		DecayImmune: detail.DecayImmune,
	}

	jsonBytes, err := json.Marshal(output)
	if err != nil {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Failed to serialize results: %v", err)},
			},
		}, BoostOutput{}, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}
