package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"engagement-engine/internal/app/service"
	"engagement-engine/internal/domain"
	"engagement-engine/internal/transport/httpserver/dto"
	"engagement-engine/internal/validator"
)

// RankingHandler handles ranking and score read requests.
type RankingHandler struct {
	service   *service.RankService
	validator *validator.Validator
	logger    *zap.Logger
}

// NewRankingHandler creates a new RankingHandler.
func NewRankingHandler(svc *service.RankService, v *validator.Validator, logger *zap.Logger) *RankingHandler {
	return &RankingHandler{
		service:   svc,
		validator: v,
		logger:    logger,
	}
}

// Rankings handles GET /api/v1/rankings
func (h *RankingHandler) Rankings(c *fiber.Ctx) error {
	var req dto.RankingsRequest
	if err := c.QueryParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "invalid query parameters",
			Code:  "INVALID_PARAMS",
		})
	}

	if err := h.validator.Validate(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error:   "validation failed",
			Code:    "VALIDATION_ERROR",
			Details: err,
		})
	}

	items, err := h.service.GetTopRanked(c.Context(), req.LimitOrDefault())
	if err != nil {
		h.logger.Error("rankings read failed", zap.Error(err))

		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: "failed to read rankings",
			Code:  "INTERNAL_ERROR",
		})
	}

	return c.JSON(dto.FromRankedItems(items))
}

// Score handles GET /api/v1/contents/:id/score
func (h *RankingHandler) Score(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "id is required",
			Code:  "MISSING_ID",
		})
	}

	snap, err := h.service.GetScore(c.Context(), id)
	if err != nil {
		return h.readError(c, id, "score read failed", err)
	}

	return c.JSON(dto.FromSnapshot(snap))
}

// Tier handles GET /api/v1/contents/:id/tier
func (h *RankingHandler) Tier(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "id is required",
			Code:  "MISSING_ID",
		})
	}

	tier, pct, err := h.service.GetTier(c.Context(), id)
	if err != nil {
		return h.readError(c, id, "tier read failed", err)
	}

	return c.JSON(dto.TierResponse{
		ContentID:  id,
		Tier:       string(tier),
		Percentile: pct,
	})
}

func (h *RankingHandler) readError(c *fiber.Ctx, id, msg string, err error) error {
	if errors.Is(err, domain.ErrNotTracked) {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: "content not tracked",
			Code:  "NOT_TRACKED",
		})
	}

	h.logger.Error(msg, zap.String("id", id), zap.Error(err))

	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Error: msg,
		Code:  "INTERNAL_ERROR",
	})
}
