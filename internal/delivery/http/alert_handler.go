package http

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"stockwizard/internal/delivery/http/dto"
	"stockwizard/internal/middleware"
	"stockwizard/internal/service"
)

// AlertHandler manages price alerts
type AlertHandler struct {
	alertService *service.AlertService
}

// NewAlertHandler creates a new AlertHandler
func NewAlertHandler(alertService *service.AlertService) *AlertHandler {
	return &AlertHandler{alertService: alertService}
}

// GetAlerts lists the user's alerts
// GET /api/alerts
func (h *AlertHandler) GetAlerts(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "User not authenticated")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	alerts, err := h.alertService.List(ctx, userID)
	if err != nil {
		return DomainErrorResponse(c, err, "Failed to load alerts")
	}

	return SuccessResponse(c, map[string]interface{}{
		"alerts": alerts,
		"count":  len(alerts),
	})
}

// CreateAlert sets a price alert
// POST /api/alerts
func (h *AlertHandler) CreateAlert(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "User not authenticated")
	}

	var req dto.AlertRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	alert, err := h.alertService.Create(ctx, userID, req.Symbol, req.TargetPrice, req.Direction)
	if err != nil {
		return DomainErrorResponse(c, err, "Failed to set price alert")
	}

	return CreatedResponse(c, alert)
}

// DeleteAlert removes a price alert
// DELETE /api/alerts/:id
func (h *AlertHandler) DeleteAlert(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "User not authenticated")
	}

	alertID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return BadRequestResponse(c, "Invalid alert ID")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.alertService.Delete(ctx, userID, alertID); err != nil {
		return DomainErrorResponse(c, err, "Failed to delete alert")
	}

	return SuccessMessageResponse(c, "Alert deleted", nil)
}
