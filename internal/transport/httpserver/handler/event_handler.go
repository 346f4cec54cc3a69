// Package handler provides HTTP handlers for the API.
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

// EventHandler handles engagement event ingestion.
type EventHandler struct {
	service   *service.EngagementService
	validator *validator.Validator
	logger    *zap.Logger
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(svc *service.EngagementService, v *validator.Validator, logger *zap.Logger) *EventHandler {
	return &EventHandler{
		service:   svc,
		validator: v,
		logger:    logger,
	}
}

// Record handles POST /api/v1/events
func (h *EventHandler) Record(c *fiber.Ctx) error {
	var req dto.EventRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "invalid request body",
			Code:  "INVALID_BODY",
		})
	}

	if err := h.validator.Validate(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error:   "validation failed",
			Code:    "VALIDATION_ERROR",
			Details: err,
		})
	}

	snap, err := h.service.RecordEvent(c.Context(), req.ToEvent())
	if err != nil {
		if errors.Is(err, domain.ErrNotTracked) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: "content not tracked and event carries no author",
				Code:  "NOT_TRACKED",
			})
		}

		h.logger.Error("event ingestion failed",
			zap.String("content_id", req.ContentID),
			zap.Error(err),
		)

		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: "failed to record event",
			Code:  "INTERNAL_ERROR",
		})
	}

	return c.Status(fiber.StatusAccepted).JSON(dto.FromSnapshot(snap))
}
