package api

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/pensieveco/pensieve/pkg/reinforce"
)

// BoostRequest is the payload for POST /v1/memories/:id/boost.
type BoostRequest struct {
	// Amount raises the explicit boost; zero means the default.
	Amount float64 `json:"amount"`

	// Lock makes the memory decay-immune.
	Lock bool `json:"lock"`
}

// FeedbackRequest is the payload for POST /v1/memories/:id/feedback.
type FeedbackRequest struct {
	Helpful bool `json:"helpful"`
}

// handleInspect returns the full reinforcement detail for a memory.
func (s *Server) handleInspect(c *fiber.Ctx) error {
	id := c.Params("id")

	detail, err := s.tracker.Inspect(c.Context(), id)
	if err != nil {
		s.logger.Error("inspect failed", "memory_id", id, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: err.Error()})
	}

	return c.JSON(detail)
}

// handleBoost explicitly raises a memory's salience.
func (s *Server) handleBoost(c *fiber.Ctx) error {
	id := c.Params("id")

	var req BoostRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}
	if req.Amount == 0 {
		req.Amount = reinforce.DefaultBoostAmount
	}
	if req.Amount < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "amount must be positive"})
	}

	if err := s.tracker.Boost(c.Context(), id, req.Amount, req.Lock); err != nil {
		s.logger.Error("boost failed", "memory_id", id, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: err.Error()})
	}

	detail, err := s.tracker.Inspect(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: err.Error()})
	}

	return c.JSON(detail)
}

// handleFeedback records helpful/unhelpful feedback for a memory.
func (s *Server) handleFeedback(c *fiber.Ctx) error {
	id := c.Params("id")

	var req FeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	if err := s.tracker.RecordFeedback(c.Context(), id, req.Helpful); err != nil {
		s.logger.Error("feedback failed", "memory_id", id, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: err.Error()})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// handleDecayReport returns memories fading below a salience threshold.
func (s *Server) handleDecayReport(c *fiber.Ctx) error {
	threshold := 0.3
	if raw := c.Query("threshold"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Error: "threshold must be a number",
			})
		}
		threshold = parsed
	}

	fading, err := s.tracker.DecayReport(c.Context(), threshold)
	if err != nil {
		s.logger.Error("decay report failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: err.Error()})
	}

	return c.JSON(map[string]any{
		"threshold": threshold,
		"count":     len(fading),
		"fading":    fading,
	})
}

// handleStats returns population statistics across the services.
func (s *Server) handleStats(c *fiber.Ctx) error {
	stats, err := s.tracker.Stats(c.Context())
	if err != nil {
		s.logger.Error("stats failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: err.Error()})
	}

	payload := map[string]any{
		"reinforcement": stats,
	}

	if s.tiers != nil {
		report, err := s.tiers.Report(c.Context())
		if err != nil {
			s.logger.Error("tier report failed", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: err.Error()})
		}
		payload["tiers"] = report.Counts
	}

	return c.JSON(payload)
}
