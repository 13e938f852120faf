package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"repair-offers-service/internal/app/service"
	"repair-offers-service/internal/domain"
	"repair-offers-service/internal/transport/httpserver/dto"
	"repair-offers-service/internal/validator"
)

// FavoritesHandler handles favorites HTTP requests.
type FavoritesHandler struct {
	service   *service.FavoritesService
	validator *validator.Validator
	logger    *zap.Logger
}

// NewFavoritesHandler creates a new FavoritesHandler.
func NewFavoritesHandler(svc *service.FavoritesService, v *validator.Validator, logger *zap.Logger) *FavoritesHandler {
	return &FavoritesHandler{
		service:   svc,
		validator: v,
		logger:    logger,
	}
}

// List handles GET /api/v1/favorites
func (h *FavoritesHandler) List(c *fiber.Ctx) error {
	var req dto.ListFavoritesRequest
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

	favorites, err := h.service.List(c.Context(), service.ListFilter{
		Source:      domain.Source(req.Source),
		Model:       req.Model,
		MaxPriceEur: req.MaxPriceEur,
	})
	if err != nil {
		h.logger.Error("listing favorites failed", zap.Error(err))

		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: "failed to list favorites",
			Code:  "INTERNAL_ERROR",
		})
	}

	return c.JSON(dto.FromDomainFavorites(favorites))
}

// Toggle handles POST /api/v1/favorites/toggle
func (h *FavoritesHandler) Toggle(c *fiber.Ctx) error {
	var req dto.ToggleFavoriteRequest
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

	favorite, added, err := h.service.Toggle(c.Context(), req.Offer.ToOffer())
	if err != nil {
		var specErr *domain.SpecError
		if errors.As(err, &specErr) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: specErr.Error(),
				Code:  "INVALID_OFFER",
			})
		}

		h.logger.Error("toggling favorite failed", zap.Error(err))

		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: "failed to toggle favorite",
			Code:  "INTERNAL_ERROR",
		})
	}

	resp := dto.ToggleFavoriteResponse{Favorited: added}
	if favorite != nil {
		fav := dto.FromDomainFavorite(*favorite)
		resp.Favorite = &fav
	}

	return c.JSON(resp)
}

// Delete handles DELETE /api/v1/favorites/:id
func (h *FavoritesHandler) Delete(c *fiber.Ctx) error {
	favoriteID, err := c.ParamsInt("id")
	if err != nil || favoriteID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "id must be a positive integer",
			Code:  "INVALID_ID",
		})
	}

	removed, err := h.service.Remove(c.Context(), int64(favoriteID))
	if err != nil {
		h.logger.Error("deleting favorite failed",
			zap.Int("favorite_id", favoriteID),
			zap.Error(err),
		)

		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: "failed to delete favorite",
			Code:  "INTERNAL_ERROR",
		})
	}

	return c.JSON(dto.DeleteFavoriteResponse{Removed: removed})
}
