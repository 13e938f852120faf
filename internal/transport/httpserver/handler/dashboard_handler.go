package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"repair-offers-service/internal/app/service"
)

// DashboardHandler handles dashboard-related HTTP requests.
type DashboardHandler struct {
	favoritesService *service.FavoritesService
	sources          []string
	logger           *zap.Logger
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(svc *service.FavoritesService, sources []string, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		favoritesService: svc,
		sources:          sources,
		logger:           logger,
	}
}

// Render handles GET /dashboard
// Renders the dashboard HTML page using Fiber's template engine.
func (h *DashboardHandler) Render(c *fiber.Ctx) error {
	favorites, err := h.favoritesService.List(c.Context(), service.ListFilter{})
	if err != nil {
		h.logger.Warn("dashboard favorites lookup failed", zap.Error(err))
	}

	return c.Render("pages/dashboard", fiber.Map{
		"Title":         "Repair Offers Dashboard",
		"Sources":       h.sources,
		"FavoriteCount": len(favorites),
		"Favorites":     favorites,
	}, "layouts/base")
}
