package api

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/pensieveco/pensieve/pkg/recall"
)

// RecallResponse is the payload for GET /v1/recall.
type RecallResponse struct {
	Query   string          `json:"query"`
	Results []recall.Result `json:"results"`
	Count   int             `json:"count"`
}

// handleRecall handles GET /v1/recall requests.
// Query parameters:
//   - query (required): the recall query text
//   - max_results (optional): result cap
//   - min_similarity (optional): acceptance floor
//   - include_low_confidence (optional): keep hits below the floor
//   - frames (optional): comma-separated context frames
//   - hybrid (optional): merge corpus chunks into the results
func (s *Server) handleRecall(c *fiber.Ctx) error {
	query := c.Query("query")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "query parameter is required",
		})
	}

	opts := recall.Options{}
	if raw := c.Query("max_results"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Error: "max_results must be a positive integer",
			})
		}
		opts.MaxResults = parsed
	}
	if raw := c.Query("min_similarity"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Error: "min_similarity must be a number",
			})
		}
		opts.MinSimilarity = parsed
	}
	opts.IncludeLowConfidence = c.QueryBool("include_low_confidence")
	if raw := c.Query("frames"); raw != "" {
		opts.ContextFrames = strings.Split(raw, ",")
	}

	var (
		results []recall.Result
		err     error
	)
	if c.QueryBool("hybrid") {
		results, err = s.engine.RecallHybrid(c.Context(), query, opts)
	} else {
		results, err = s.engine.Recall(c.Context(), query, opts)
	}
	if err != nil {
		s.logger.Error("recall failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: err.Error(),
		})
	}

	return c.JSON(RecallResponse{
		Query:   query,
		Results: results,
		Count:   len(results),
	})
}
