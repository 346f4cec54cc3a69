package handler

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"engagement-engine/internal/app/service"
	"engagement-engine/internal/domain"
	"engagement-engine/internal/transport/httpserver/dto"
)

// AdminHandler handles admin HTTP requests: manual sweeps, deletion
// callbacks, and the promotion audit trail.
type AdminHandler struct {
	promotions  *service.PromotionService
	engagement  *service.EngagementService
	ranks       *service.RankService
	sweepBudget time.Duration
	logger      *zap.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(
	promotions *service.PromotionService,
	engagement *service.EngagementService,
	ranks *service.RankService,
	sweepBudget time.Duration,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		promotions:  promotions,
		engagement:  engagement,
		ranks:       ranks,
		sweepBudget: sweepBudget,
		logger:      logger,
	}
}

// Sweep handles POST /api/v1/admin/sweep
//
// Runs a promotion sweep immediately under the same time budget the
// scheduler uses. The execution guards make this safe to trigger while a
// scheduled sweep is running.
func (h *AdminHandler) Sweep(c *fiber.Ctx) error {
	h.logger.Info("manual sweep triggered")

	ctx, cancel := context.WithTimeout(c.Context(), h.sweepBudget)
	defer cancel()

	res, err := h.promotions.Sweep(ctx)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: err.Error(),
			Code:  "SWEEP_FAILED",
		})
	}

	return c.JSON(dto.FromSweepResult(res))
}

// DeleteContent handles DELETE /api/v1/admin/contents/:id
//
// The content service calls this when an item is deleted or archived.
func (h *AdminHandler) DeleteContent(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "id is required",
			Code:  "MISSING_ID",
		})
	}

	if err := h.engagement.HandleContentDeleted(c.Context(), id); err != nil {
		h.logger.Error("content deletion failed", zap.String("id", id), zap.Error(err))

		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: "failed to delete content",
			Code:  "INTERNAL_ERROR",
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Promotions handles GET /api/v1/admin/promotions/:id
func (h *AdminHandler) Promotions(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "id is required",
			Code:  "MISSING_ID",
		})
	}

	recs, err := h.ranks.GetPromotions(c.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotTracked) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: "content not tracked",
				Code:  "NOT_TRACKED",
			})
		}

		h.logger.Error("promotion trail read failed", zap.String("id", id), zap.Error(err))

		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: "failed to read promotions",
			Code:  "INTERNAL_ERROR",
		})
	}

	return c.JSON(dto.FromPromotionRecords(id, recs))
}
