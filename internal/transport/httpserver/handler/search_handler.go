// Package handler provides HTTP handlers for the API.
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

// SearchHandler handles offer search HTTP requests.
type SearchHandler struct {
	service   *service.SearchService
	validator *validator.Validator
	logger    *zap.Logger
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(svc *service.SearchService, v *validator.Validator, logger *zap.Logger) *SearchHandler {
	return &SearchHandler{
		service:   svc,
		validator: v,
		logger:    logger,
	}
}

// Search handles POST /api/v1/search
func (h *SearchHandler) Search(c *fiber.Ctx) error {
	var req dto.SearchRequest
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

	result, err := h.service.Search(c.Context(), req.ToSpec(), req.ForceRefresh)
	if err != nil {
		var specErr *domain.SpecError
		if errors.As(err, &specErr) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: specErr.Error(),
				Code:  "INVALID_SPEC",
			})
		}

		h.logger.Error("search failed", zap.Error(err))

		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: "search failed",
			Code:  "INTERNAL_ERROR",
		})
	}

	return c.JSON(dto.FromAggregationResult(result))
}
