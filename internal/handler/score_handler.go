package handler

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"urgency-engine/internal/domain"
)

// ScoringService is the mutation surface exposed for manual score
// adjustments.
type ScoringService interface {
	ApplyAutoResponsePenalty(userID string) domain.UserScore
}

type ScoreHandler struct {
	scoring ScoringService
}

func NewScoreHandler(scoring ScoringService) (*ScoreHandler, error) {
	if scoring == nil {
		return nil, fmt.Errorf("scoring service is required")
	}
	return &ScoreHandler{scoring: scoring}, nil
}

func RegisterScoreRoutes(router fiber.Router, scoring ScoringService) error {
	h, err := NewScoreHandler(scoring)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/users/:userId/penalties/auto-response", h.ApplyAutoResponsePenalty)

	return nil
}

func (h *ScoreHandler) ApplyAutoResponsePenalty(c *fiber.Ctx) error {
	userID := strings.TrimSpace(c.Params("userId"))
	if userID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "userId is required")
	}

	score := h.scoring.ApplyAutoResponsePenalty(userID)
	return c.Status(fiber.StatusOK).JSON(toUserScoreResponse(score))
}
