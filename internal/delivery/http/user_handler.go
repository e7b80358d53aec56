package http

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"

	"stockwizard/internal/delivery/http/dto"
	"stockwizard/internal/middleware"
	"stockwizard/internal/service"
)

// UserHandler handles profile and subscription requests
type UserHandler struct {
	authService    *service.AuthService
	profileService *service.ProfileService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(authService *service.AuthService, profileService *service.ProfileService) *UserHandler {
	return &UserHandler{
		authService:    authService,
		profileService: profileService,
	}
}

// GetMe returns current user details
// GET /api/user/me
func (h *UserHandler) GetMe(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "User not authenticated")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	user, err := h.authService.CurrentUser(ctx, userID)
	if err != nil {
		return DomainErrorResponse(c, err, "Failed to get user details")
	}

	return SuccessResponse(c, dto.NewUserOutput(user))
}

// UpdateProfile saves the profile page form
// PUT /api/user/profile
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "User not authenticated")
	}

	var req dto.UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	user, err := h.profileService.Update(ctx, userID, service.ProfileUpdate{
		DisplayName:  req.DisplayName,
		Preferences:  req.Preferences,
		AvatarBase64: req.AvatarBase64,
	})
	if err != nil {
		return DomainErrorResponse(c, err, "Failed to update profile")
	}

	return SuccessMessageResponse(c, "Profile updated successfully", dto.NewUserOutput(user))
}

// Upgrade activates the Pro plan
// POST /api/user/upgrade
func (h *UserHandler) Upgrade(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "User not authenticated")
	}

	var req dto.UpgradeRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	user, err := h.profileService.Upgrade(ctx, userID, req.BillingPeriod)
	if err != nil {
		return DomainErrorResponse(c, err, "Failed to upgrade account")
	}

	return SuccessMessageResponse(c, "Welcome to StockWizard Pro", dto.NewUserOutput(user))
}

// GetPlans lists the pricing tiers
// GET /api/plans?billing=monthly|annual
func (h *UserHandler) GetPlans(c echo.Context) error {
	plans, err := service.Plans(c.QueryParam("billing"))
	if err != nil {
		return DomainErrorResponse(c, err, "Failed to load plans")
	}
	return SuccessResponse(c, plans)
}
