package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/pensieveco/pensieve/pkg/linkgraph"
)

var (
	linkToolName    = "memory_link"
	linkDescription = "Create a typed link between two memories. Valid types: elaborates, supersedes, contradicts, caused_by, leads_to, relates_to. The inverse link is created automatically."
)

// LinkInput represents the input arguments for the memory_link tool.
type LinkInput struct {
	From string `json:"from" jsonschema:"the ID of the source memory"`
	To   string `json:"to" jsonschema:"the ID of the target memory"`
	Type string `json:"type" jsonschema:"the link type"`
	Note string `json:"note,omitempty" jsonschema:"optional note explaining the relationship"`
}

// LinkOutput represents the structured output of a link creation.
type LinkOutput struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Type    string `json:"type"`
	Inverse string `json:"inverse"`
}

// handleLink processes a memory link request via MCP.
func (s *Server) handleLink(ctx context.Context, _ *mcp.CallToolRequest, input LinkInput) (*mcp.CallToolResult, LinkOutput, error) {
	if input.From == "" || input.To == "" {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: "from and to are required"},
			},
		}, LinkOutput{}, nil
	}

	linkType, err := linkgraph.ParseLinkType(input.Type)
	if err != nil {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: err.Error()},
			},
		}, LinkOutput{}, nil
	}

	if err := s.config.Links.AddLink(ctx, input.From, input.To, linkType, linkgraph.AddOptions{Note: input.Note}); err != nil {
		if !errors.Is(err, linkgraph.ErrSelfLink) {
			s.config.Logger.Error("link failed", "from", input.From, "to", input.To, "error", err)
		}
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Link failed: %v", err)},
			},
		}, LinkOutput{}, nil
	}

	output := LinkOutput{
		From:    input.From,
		To:      input.To,
		Type:    string(linkType),
		Inverse: string(linkType.Inverse()),
	}

	jsonBytes, err := json.Marshal(output)
	if err != nil {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Failed to serialize results: %v", err)},
			},
		}, LinkOutput{}, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}
