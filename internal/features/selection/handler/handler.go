package handler

import (
	"errors"

	"parcel-ops/internal/core/logger"
	"parcel-ops/internal/features/selection/domain"
	"parcel-ops/internal/features/selection/ports"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// SelectionHandler handles HTTP requests for the selection handoff.
type SelectionHandler struct {
	service ports.SelectionService
}

// NewSelectionHandler creates a new SelectionHandler.
func NewSelectionHandler(service ports.SelectionService) *SelectionHandler {
	return &SelectionHandler{
		service: service,
	}
}

// ParkSelectionRequest is the request body for parking a selection.
type ParkSelectionRequest struct {
	// ParcelIDs are the selected parcel identifiers.
	ParcelIDs []string `json:"parcel_ids"`
}

// Park handles PUT /selections/:session.
// @Summary Park a parcel selection for a session
// @Description Stores the selected parcel ids for the assignment step, replacing any previous selection.
// @Tags selections
// @Accept json
// @Produce json
// @Param session path string true "Session identifier"
// @Param body body ParkSelectionRequest true "Selected parcels"
// @Success 200 {object} domain.Selection
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /selections/{session} [put]
func (h *SelectionHandler) Park(c *fiber.Ctx) error {
	var req ParkSelectionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	selection, err := h.service.Park(c.Context(), c.Params("session"), req.ParcelIDs)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidSession) || errors.Is(err, domain.ErrEmptySelection) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		logger.Get().Error("Failed to park selection", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}

	return c.JSON(selection)
}

// Peek handles GET /selections/:session.
// @Summary Peek at a parked selection
// @Tags selections
// @Produce json
// @Param session path string true "Session identifier"
// @Success 200 {object} domain.Selection
// @Failure 404 {object} map[string]string
// @Router /selections/{session} [get]
func (h *SelectionHandler) Peek(c *fiber.Ctx) error {
	selection, err := h.service.Peek(c.Context(), c.Params("session"))
	if err != nil {
		logger.Get().Error("Failed to peek selection", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}

	if selection == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "no selection parked for session",
		})
	}

	return c.JSON(selection)
}

// Consume handles POST /selections/:session/consume.
// @Summary Consume a parked selection
// @Description Returns the selection and clears it in the same step; a second consume finds nothing.
// @Tags selections
// @Produce json
// @Param session path string true "Session identifier"
// @Success 200 {object} domain.Selection
// @Failure 404 {object} map[string]string
// @Router /selections/{session}/consume [post]
func (h *SelectionHandler) Consume(c *fiber.Ctx) error {
	selection, err := h.service.Consume(c.Context(), c.Params("session"))
	if err != nil {
		logger.Get().Error("Failed to consume selection", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}

	if selection == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "no selection parked for session",
		})
	}

	return c.JSON(selection)
}
