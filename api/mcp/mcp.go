// Package mcp provides an MCP (Model Context Protocol) server for the
// pensieve memory layer.
package mcp

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/pensieveco/pensieve/pkg/linkgraph"
	"github.com/pensieveco/pensieve/pkg/recall"
	"github.com/pensieveco/pensieve/pkg/reinforce"
	"github.com/pensieveco/pensieve/pkg/utils"
)

type Config struct {
	// Engine runs semantic and hybrid recall
	Engine *recall.Engine

	// Tracker records reinforcement for the memory_boost tool
	Tracker *reinforce.Tracker

	// Links manages the memory graph for the memory_link tool
	Links *linkgraph.Manager

	// Noop for empty MCP server
	Noop bool

	// Logger is the configured slog logger
	Logger *slog.Logger
}

type Server struct {
	config    Config
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer creates a new MCP server with the memory tools.
func NewServer(c Config) (*Server, error) {
	s := &Server{
		config: c,
	}

	// Create the MCP server
	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "pensieve",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)

	if c.Noop {
		// return the empty MCP server with no tools configured
		// if the noop flag is set (i.e., MCP capabilities are disabled)
		s.mcpServer = mcpServer
		return s, nil
	}

	if c.Engine == nil {
		return nil, errors.New("recall engine is required")
	}
	if c.Tracker == nil {
		return nil, errors.New("reinforcement tracker is required")
	}
	if c.Links == nil {
		return nil, errors.New("link manager is required")
	}
	if c.Logger == nil {
		return nil, errors.New("logger is required")
	}

	// Add tools
	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        recallToolName,
		Description: recallDescription,
	}, s.handleRecall)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        boostToolName,
		Description: boostDescription,
	}, s.handleBoost)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        linkToolName,
		Description: linkDescription,
	}, s.handleLink)

	s.mcpServer = mcpServer

	// Create a streamable HTTP net/http handler for stateless operations
	s.handler = mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)

	return s, nil
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}
