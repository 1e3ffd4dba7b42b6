package handler

import (
	"errors"

	"parcel-ops/internal/core/logger"
	"parcel-ops/internal/features/deliveries/domain"
	"parcel-ops/internal/features/deliveries/ports"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// DeliveryHandler handles HTTP requests for delivery operations.
type DeliveryHandler struct {
	service ports.DeliveryService
}

// NewDeliveryHandler creates a new DeliveryHandler.
func NewDeliveryHandler(service ports.DeliveryService) *DeliveryHandler {
	return &DeliveryHandler{
		service: service,
	}
}

// ErrorResponse represents an error response with Ray ID.
type ErrorResponse struct {
	// Message is the error description.
	Message string `json:"message"`
	// Fields carries field-level validation reasons, when applicable.
	Fields map[string]string `json:"fields,omitempty"`
	// RayID is the unique request identifier for tracing.
	RayID string `json:"ray_id,omitempty"`
}

// CompleteDeliveryRequest is the request body for confirming a delivery.
type CompleteDeliveryRequest struct {
	// AssignmentID identifies the assignment being closed.
	AssignmentID string `json:"assignment_id"`
	// PaymentMethod is how the amount was collected (cash or momo).
	PaymentMethod domain.PaymentMethod `json:"payment_method"`
	// ConfirmationCode is the recipient-provided delivery code.
	ConfirmationCode string `json:"confirmation_code"`
	// CollectedAmount is the amount the courier collected.
	CollectedAmount *float64 `json:"collected_amount"`
}

// FailDeliveryRequest is the request body for recording a failed attempt.
type FailDeliveryRequest struct {
	// AssignmentID identifies the assignment being closed.
	AssignmentID string `json:"assignment_id"`
	// Reason is one of the fixed failure reasons.
	Reason domain.FailureReason `json:"reason"`
	// Detail is free text, required when reason is "other".
	Detail string `json:"detail"`
}

// PreferenceRequest is the request body for a delivery preference update.
type PreferenceRequest struct {
	// HomeDelivery is true for courier delivery, false for station pickup.
	HomeDelivery bool `json:"home_delivery"`
}

// ListDeliveries godoc
// @Summary List flattened delivery records
// @Description Fetches one assignment page from the station hub, normalized and flattened to one record per parcel.
// @Tags deliveries
// @Produce json
// @Param page query int false "0-based page number"
// @Param size query int false "Page size (assignments)"
// @Success 200 {object} domain.DeliveryPage
// @Failure 502 {object} ErrorResponse
// @Router /deliveries [get]
func (h *DeliveryHandler) ListDeliveries(c *fiber.Ctx) error {
	page := c.QueryInt("page", 0)
	size := c.QueryInt("size", 0)

	dp, err := h.service.ListDeliveries(c.Context(), page, size)
	if err != nil {
		logger.Get().Error("Failed to list deliveries", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{
			Message: "failed to fetch deliveries from station hub",
			RayID:   rayID(c),
		})
	}

	return c.JSON(dp)
}

// Summary godoc
// @Summary Financial summary over a delivery page
// @Description Aggregates expected collectible amounts and per-component totals over one page.
// @Tags deliveries
// @Produce json
// @Param page query int false "0-based page number"
// @Param size query int false "Page size (assignments)"
// @Success 200 {object} domain.FinancialSummary
// @Failure 502 {object} ErrorResponse
// @Router /deliveries/summary [get]
func (h *DeliveryHandler) Summary(c *fiber.Ctx) error {
	page := c.QueryInt("page", 0)
	size := c.QueryInt("size", 0)

	summary, err := h.service.Summary(c.Context(), page, size)
	if err != nil {
		logger.Get().Error("Failed to build summary", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{
			Message: "failed to fetch deliveries from station hub",
			RayID:   rayID(c),
		})
	}

	return c.JSON(summary)
}

// CompleteDelivery godoc
// @Summary Confirm delivery of a parcel
// @Description Validates the delivery evidence and submits the closing status update. Amount variance is reported, not refused.
// @Tags deliveries
// @Accept json
// @Produce json
// @Param parcelId path string true "Parcel ID"
// @Param body body CompleteDeliveryRequest true "Delivery confirmation"
// @Success 200 {object} domain.ReconciliationOutcome
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /deliveries/{parcelId}/complete [post]
func (h *DeliveryHandler) CompleteDelivery(c *fiber.Ctx) error {
	parcelID := c.Params("parcelId")

	var req CompleteDeliveryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Message: "invalid request body",
			RayID:   rayID(c),
		})
	}

	outcome, err := h.service.CompleteDelivery(c.Context(), req.AssignmentID, parcelID, domain.DeliveryConfirmation{
		PaymentMethod:    req.PaymentMethod,
		ConfirmationCode: req.ConfirmationCode,
		CollectedAmount:  req.CollectedAmount,
	})
	if err != nil {
		return h.completionError(c, err)
	}

	return c.JSON(outcome)
}

// FailDelivery godoc
// @Summary Record a failed delivery attempt
// @Description Validates the failure reason and submits the closing status update.
// @Tags deliveries
// @Accept json
// @Produce json
// @Param parcelId path string true "Parcel ID"
// @Param body body FailDeliveryRequest true "Failure report"
// @Success 200 {object} map[string]string
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /deliveries/{parcelId}/fail [post]
func (h *DeliveryHandler) FailDelivery(c *fiber.Ctx) error {
	parcelID := c.Params("parcelId")

	var req FailDeliveryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Message: "invalid request body",
			RayID:   rayID(c),
		})
	}

	err := h.service.FailDelivery(c.Context(), req.AssignmentID, parcelID, domain.FailureReport{
		Reason: req.Reason,
		Detail: req.Detail,
	})
	if err != nil {
		return h.completionError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "delivery marked failed",
	})
}

// MarkContacted godoc
// @Summary Mark a recipient as contacted
// @Tags deliveries
// @Produce json
// @Param parcelId path string true "Parcel ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} ErrorResponse
// @Router /deliveries/{parcelId}/contacted [post]
func (h *DeliveryHandler) MarkContacted(c *fiber.Ctx) error {
	parcelID := c.Params("parcelId")

	if err := h.service.MarkContacted(c.Context(), parcelID); err != nil {
		return h.completionError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "recipient marked contacted",
	})
}

// SetPreference godoc
// @Summary Record the recipient's delivery preference
// @Tags deliveries
// @Accept json
// @Produce json
// @Param parcelId path string true "Parcel ID"
// @Param body body PreferenceRequest true "Preference"
// @Success 200 {object} map[string]string
// @Failure 404 {object} ErrorResponse
// @Router /deliveries/{parcelId}/preference [put]
func (h *DeliveryHandler) SetPreference(c *fiber.Ctx) error {
	parcelID := c.Params("parcelId")

	var req PreferenceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Message: "invalid request body",
			RayID:   rayID(c),
		})
	}

	if err := h.service.SetHomeDelivery(c.Context(), parcelID, req.HomeDelivery); err != nil {
		return h.completionError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "delivery preference updated",
	})
}

// completionError maps service errors onto HTTP statuses: validation
// failures are 422 with field reasons, unknown records 404, already-terminal
// records 409, and hub failures 502.
func (h *DeliveryHandler) completionError(c *fiber.Ctx, err error) error {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponse{
			Message: "completion validation failed",
			Fields:  verr.Fields,
			RayID:   rayID(c),
		})
	}

	if errors.Is(err, ports.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Message: "delivery record not found",
			RayID:   rayID(c),
		})
	}

	if errors.Is(err, domain.ErrRecordTerminal) {
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{
			Message: "record already reached a terminal status",
			RayID:   rayID(c),
		})
	}

	logger.Get().Error("Delivery operation failed", zap.Error(err))
	return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{
		Message: err.Error(),
		RayID:   rayID(c),
	})
}

// rayID extracts the request id set by the requestid middleware, tolerating
// its absence in tests.
func rayID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return ""
}
