package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/pensieveco/pensieve/pkg/tier"
)

// LockRequest is the payload for POST /v1/memories/:id/lock.
type LockRequest struct {
	Locked bool `json:"locked"`
}

// handleTierReport returns the full tier report.
func (s *Server) handleTierReport(c *fiber.Ctx) error {
	report, err := s.tiers.Report(c.Context())
	if err != nil {
		s.logger.Error("tier report failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: err.Error()})
	}

	return c.JSON(report)
}

// handleGetTier returns the tier state for one memory.
func (s *Server) handleGetTier(c *fiber.Ctx) error {
	id := c.Params("id")

	state, err := s.tiers.State(c.Context(), id)
	if err != nil {
		s.logger.Error("tier state failed", "memory_id", id, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: err.Error()})
	}

	return c.JSON(state)
}

// handleUpdateTier recalculates and applies the tier for one memory.
func (s *Server) handleUpdateTier(c *fiber.Ctx) error {
	id := c.Params("id")

	change, err := s.tiers.UpdateTier(c.Context(), id)
	if err != nil {
		s.logger.Error("tier update failed", "memory_id", id, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: err.Error()})
	}
	if change == nil {
		return c.SendStatus(fiber.StatusNoContent)
	}

	return c.JSON(change)
}

// handleUpdateAllTiers recalculates every tracked memory's tier.
func (s *Server) handleUpdateAllTiers(c *fiber.Ctx) error {
	changes, err := s.tiers.UpdateAllTiers(c.Context())
	if err != nil {
		s.logger.Error("tier sweep failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: err.Error()})
	}

	return c.JSON(map[string]any{
		"moved":   len(changes),
		"changes": changes,
	})
}

// handleLock pins or unpins a memory against COLD demotion.
func (s *Server) handleLock(c *fiber.Ctx) error {
	id := c.Params("id")

	req := LockRequest{Locked: true}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
		}
	}

	if err := s.tiers.Lock(c.Context(), id, req.Locked); err != nil {
		s.logger.Error("lock failed", "memory_id", id, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: err.Error()})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// handleArchive moves a COLD memory's verbatim payload to the archive.
func (s *Server) handleArchive(c *fiber.Ctx) error {
	id := c.Params("id")

	err := s.tiers.ArchiveVerbatim(c.Context(), id)
	switch {
	case errors.Is(err, tier.ErrNotCold), errors.Is(err, tier.ErrNoVerbatim):
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{Error: err.Error()})
	case err != nil:
		s.logger.Error("archive failed", "memory_id", id, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: err.Error()})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// handleRestore brings an archived verbatim payload back byte for byte.
func (s *Server) handleRestore(c *fiber.Ctx) error {
	id := c.Params("id")

	err := s.tiers.RestoreVerbatim(c.Context(), id)
	switch {
	case errors.Is(err, tier.ErrNotArchived):
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{Error: err.Error()})
	case err != nil:
		s.logger.Error("restore failed", "memory_id", id, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: err.Error()})
	}

	return c.SendStatus(fiber.StatusNoContent)
}
