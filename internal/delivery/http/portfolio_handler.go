package http

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"stockwizard/internal/delivery/http/dto"
	"stockwizard/internal/domain"
	"stockwizard/internal/middleware"
	"stockwizard/internal/service"
	"stockwizard/internal/usecase"
	"stockwizard/internal/view"
)

// DefaultPortfolioSort is the table order when none is requested
const DefaultPortfolioSort = "value-desc"

// PortfolioHandler serves the assets page
type PortfolioHandler struct {
	portfolioService *service.PortfolioService
	authService      *service.AuthService
	sessions         *usecase.SessionManager
}

// NewPortfolioHandler creates a new PortfolioHandler
func NewPortfolioHandler(portfolioService *service.PortfolioService, authService *service.AuthService, sessions *usecase.SessionManager) *PortfolioHandler {
	return &PortfolioHandler{
		portfolioService: portfolioService,
		authService:      authService,
		sessions:         sessions,
	}
}

// GetPortfolio renders the wealth overview and asset table
// GET /api/portfolio?sort=value-desc
func (h *PortfolioHandler) GetPortfolio(c echo.Context) error {
	sort := c.QueryParam("sort")
	if sort == "" {
		sort = DefaultPortfolioSort
	}
	order, err := domain.ParseSortOrder(sort)
	if err != nil {
		return DomainErrorResponse(c, err, "Invalid sort")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	session, err := currentSession(ctx, c, h.sessions)
	if err != nil {
		return DomainErrorResponse(c, err, "Failed to load portfolio")
	}
	session.Mount(usecase.ViewPortfolio)

	return h.render(ctx, c, session.UID, order)
}

// CreateAsset adds an asset
// POST /api/portfolio/assets
func (h *PortfolioHandler) CreateAsset(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "User not authenticated")
	}

	var req dto.AssetRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), viewTimeout)
	defer cancel()

	asset, err := h.portfolioService.Add(ctx, userID, assetInput(req))
	if err != nil {
		return DomainErrorResponse(c, err, "Failed to add asset")
	}

	return c.JSON(http.StatusCreated, Response{
		Status:  "success",
		Message: "Asset added successfully",
		Data:    asset,
	})
}

// UpdateAsset edits an asset
// PUT /api/portfolio/assets/:id
func (h *PortfolioHandler) UpdateAsset(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "User not authenticated")
	}

	assetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return BadRequestResponse(c, "Invalid asset ID")
	}

	var req dto.AssetRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), viewTimeout)
	defer cancel()

	asset, err := h.portfolioService.Update(ctx, userID, assetID, assetInput(req))
	if err != nil {
		return DomainErrorResponse(c, err, "Failed to update asset")
	}

	return SuccessMessageResponse(c, "Asset updated successfully", asset)
}

// DeleteAsset removes an asset permanently
// DELETE /api/portfolio/assets/:id
func (h *PortfolioHandler) DeleteAsset(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "User not authenticated")
	}

	assetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return BadRequestResponse(c, "Invalid asset ID")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.portfolioService.Delete(ctx, userID, assetID); err != nil {
		return DomainErrorResponse(c, err, "Failed to delete asset")
	}

	return SuccessMessageResponse(c, "Asset deleted successfully", nil)
}

// RefreshPrices re-prices every asset from the latest quotes
// POST /api/portfolio/refresh
func (h *PortfolioHandler) RefreshPrices(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "User not authenticated")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), viewTimeout)
	defer cancel()

	if _, err := h.portfolioService.RefreshPrices(ctx, userID); err != nil {
		return DomainErrorResponse(c, err, "Failed to refresh prices")
	}

	order, _ := domain.ParseSortOrder(DefaultPortfolioSort)
	return h.render(ctx, c, userID, order)
}

// ExportCSV downloads the assets as CSV
// GET /api/portfolio/export
func (h *PortfolioHandler) ExportCSV(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "User not authenticated")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	var buf bytes.Buffer
	if err := h.portfolioService.ExportCSV(ctx, userID, &buf); err != nil {
		return DomainErrorResponse(c, err, "Failed to export assets")
	}

	name := service.ExportFileName(time.Now())
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (h *PortfolioHandler) render(ctx context.Context, c echo.Context, userID uuid.UUID, order domain.SortOrder) error {
	assets, err := h.portfolioService.List(ctx, userID)
	if err != nil {
		return DomainErrorResponse(c, err, "Failed to load portfolio")
	}

	currency := view.DefaultCurrency
	if user, err := h.authService.CurrentUser(ctx, userID); err == nil {
		currency = user.Preferences.Currency
	} else {
		log.Printf("[WARN] Using %s for portfolio of %s: %v", currency, userID, err)
	}

	return SuccessResponse(c, view.Portfolio(assets, order, currency, time.Now()))
}

func assetInput(req dto.AssetRequest) service.AssetInput {
	return service.AssetInput{
		Name:          req.Name,
		Symbol:        req.Symbol,
		Quantity:      req.Quantity,
		PurchasePrice: req.PurchasePrice,
		PurchaseDate:  req.PurchaseDate,
	}
}
