package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"engagement-engine/internal/app/service"
)

// DashboardHandler handles dashboard-related HTTP requests.
type DashboardHandler struct {
	ranks  *service.RankService
	logger *zap.Logger
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(svc *service.RankService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		ranks:  svc,
		logger: logger,
	}
}

// Render handles GET /dashboard
// Renders the ranking dashboard using Fiber's template engine.
func (h *DashboardHandler) Render(c *fiber.Ctx) error {
	items, err := h.ranks.GetTopRanked(c.Context(), 20)
	if err != nil {
		h.logger.Warn("dashboard ranking read failed", zap.Error(err))
	}

	return c.Render("pages/dashboard", fiber.Map{
		"Title": "Engagement Engine Dashboard",
		"Items": items,
		"Count": len(items),
	}, "layouts/base")
}
