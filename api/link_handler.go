package api

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/pensieveco/pensieve/pkg/linkgraph"
)

// LinkRequest is the payload for POST and DELETE /v1/links. Type is required
// when creating a link; on removal it is optional, and the empty type removes
// every link between the pair. Bidirectional defaults to true.
type LinkRequest struct {
	From          string `json:"from"`
	To            string `json:"to"`
	Type          string `json:"type"`
	Note          string `json:"note,omitempty"`
	Bidirectional *bool  `json:"bidirectional,omitempty"`
}

func (r LinkRequest) validate() error {
	if r.From == "" || r.To == "" {
		return errors.New("from and to are required")
	}
	return nil
}

// handleAddLink creates a typed link between two memories.
func (s *Server) handleAddLink(c *fiber.Ctx) error {
	var req LinkRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}
	if err := req.validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}
	if req.Type == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "type is required"})
	}

	linkType, err := linkgraph.ParseLinkType(req.Type)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	opts := linkgraph.AddOptions{
		Note:   req.Note,
		OneWay: req.Bidirectional != nil && !*req.Bidirectional,
	}
	if err := s.links.AddLink(c.Context(), req.From, req.To, linkType, opts); err != nil {
		if errors.Is(err, linkgraph.ErrSelfLink) {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
		}
		s.logger.Error("add link failed", "from", req.From, "to", req.To, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: err.Error()})
	}

	return c.SendStatus(fiber.StatusCreated)
}

// handleRemoveLink deletes links between a pair of memories and reports
// whether anything came off.
func (s *Server) handleRemoveLink(c *fiber.Ctx) error {
	var req LinkRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}
	if err := req.validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	var linkType linkgraph.LinkType
	if req.Type != "" {
		parsed, err := linkgraph.ParseLinkType(req.Type)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
		}
		linkType = parsed
	}

	removed, err := s.links.RemoveLink(c.Context(), req.From, req.To, linkType)
	if err != nil {
		s.logger.Error("remove link failed", "from", req.From, "to", req.To, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: err.Error()})
	}

	return c.JSON(map[string]any{
		"removed": removed,
	})
}

// handleRelated returns a memory's links in both directions, optionally
// filtered by type.
func (s *Server) handleRelated(c *fiber.Ctx) error {
	id := c.Params("id")

	var linkType linkgraph.LinkType
	if raw := c.Query("type"); raw != "" {
		parsed, err := linkgraph.ParseLinkType(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
		}
		linkType = parsed
	}

	neighbors, err := s.links.Related(c.Context(), id, linkType)
	if err != nil {
		s.logger.Error("related failed", "memory_id", id, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: err.Error()})
	}

	return c.JSON(map[string]any{
		"memory_id": id,
		"links":     neighbors,
		"count":     len(neighbors),
	})
}

// handleFindPath searches for a link chain between two memories.
// Query parameters: from, to (required); max_depth (optional).
func (s *Server) handleFindPath(c *fiber.Ctx) error {
	from := c.Query("from")
	to := c.Query("to")
	if from == "" || to == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "from and to parameters are required",
		})
	}

	maxDepth := 0
	if raw := c.Query("max_depth"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Error: "max_depth must be a positive integer",
			})
		}
		maxDepth = parsed
	}

	path, err := s.links.FindPath(c.Context(), from, to, maxDepth)
	if err != nil {
		s.logger.Error("find path failed", "from", from, "to", to, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: err.Error()})
	}

	return c.JSON(map[string]any{
		"from":  from,
		"to":    to,
		"path":  path,
		"found": path != nil,
	})
}

// handleSuggestLinks proposes link candidates via shared neighbors.
func (s *Server) handleSuggestLinks(c *fiber.Ctx) error {
	id := c.Params("id")

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Error: "limit must be a positive integer",
			})
		}
		limit = parsed
	}

	suggestions, err := s.links.SuggestLinks(c.Context(), id, limit)
	if err != nil {
		s.logger.Error("suggest links failed", "memory_id", id, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: err.Error()})
	}

	return c.JSON(map[string]any{
		"memory_id":   id,
		"suggestions": suggestions,
		"count":       len(suggestions),
	})
}

// handleGraph dumps the outbound adjacency list for every linked memory.
func (s *Server) handleGraph(c *fiber.Ctx) error {
	graph, err := s.links.Graph(c.Context())
	if err != nil {
		s.logger.Error("graph dump failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: err.Error()})
	}

	return c.JSON(map[string]any{
		"memories": len(graph),
		"graph":    graph,
	})
}
