// Package api provides the HTTP API server for querying and managing the
// pensieve memory layer.
package api

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/pensieveco/pensieve/pkg/linkgraph"
	"github.com/pensieveco/pensieve/pkg/recall"
	"github.com/pensieveco/pensieve/pkg/reinforce"
	"github.com/pensieveco/pensieve/pkg/tier"
)

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8081")
	ListenAddr string
}

// ErrorResponse is the JSON error envelope for failed requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Server is the API server exposing the memory services over REST.
type Server struct {
	config  Config
	engine  *recall.Engine
	tracker *reinforce.Tracker
	links   *linkgraph.Manager
	tiers   *tier.Manager
	logger  *slog.Logger
	app     *fiber.App
}

// NewServer creates a new API server. The services are injected to allow
// sharing with the MCP server and CLI commands.
func NewServer(config Config, engine *recall.Engine, tracker *reinforce.Tracker,
	links *linkgraph.Manager, tiers *tier.Manager, logger *slog.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:  config,
		engine:  engine,
		tracker: tracker,
		links:   links,
		tiers:   tiers,
		logger:  logger,
		app:     app,
	}

	app.Get("/ping", s.handlePing)

	app.Get("/v1/recall", s.handleRecall)
	app.Get("/v1/stats", s.handleStats)
	app.Get("/v1/decay", s.handleDecayReport)

	app.Get("/v1/memories/:id/reinforcement", s.handleInspect)
	app.Post("/v1/memories/:id/boost", s.handleBoost)
	app.Post("/v1/memories/:id/feedback", s.handleFeedback)

	app.Post("/v1/links", s.handleAddLink)
	app.Delete("/v1/links", s.handleRemoveLink)
	app.Get("/v1/links/graph", s.handleGraph)
	app.Get("/v1/links/path", s.handleFindPath)
	app.Get("/v1/memories/:id/links", s.handleRelated)
	app.Get("/v1/memories/:id/links/suggest", s.handleSuggestLinks)

	app.Get("/v1/tiers", s.handleTierReport)
	app.Post("/v1/tiers/update", s.handleUpdateAllTiers)
	app.Get("/v1/memories/:id/tier", s.handleGetTier)
	app.Post("/v1/memories/:id/tier/update", s.handleUpdateTier)
	app.Post("/v1/memories/:id/lock", s.handleLock)
	app.Post("/v1/memories/:id/archive", s.handleArchive)
	app.Post("/v1/memories/:id/restore", s.handleRestore)

	return s
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server", "listen", s.config.ListenAddr)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}
