package http

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	custommiddleware "stockwizard/internal/middleware"
)

// RouterConfig holds all dependencies for routing
type RouterConfig struct {
	JWT              *custommiddleware.JWTManager
	AuthHandler      *AuthHandler
	UserHandler      *UserHandler
	WatchlistHandler *WatchlistHandler
	StockHandler     *StockHandler
	PortfolioHandler *PortfolioHandler
	AlertHandler     *AlertHandler
}

// SetupRoutes configures all HTTP routes
func SetupRoutes(e *echo.Echo, config *RouterConfig) {
	// Middleware
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			// Skip logging for search keystrokes and health probes
			path := c.Request().URL.Path
			if strings.HasSuffix(path, "/api/search") {
				return true
			}
			return path == "/health"
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestID())
	e.Use(middleware.Secure())

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return SuccessResponse(c, map[string]interface{}{
			"status":    "healthy",
			"service":   "stockwizard-api",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	// API group
	api := e.Group("/api")

	// Auth routes (public)
	auth := api.Group("/auth")
	{
		auth.POST("/login", config.AuthHandler.Login)
		auth.POST("/logout", config.AuthHandler.Logout)
		auth.POST("/register", config.AuthHandler.Register)
	}

	api.GET("/plans", config.UserHandler.GetPlans)

	// Everything below requires a valid token
	protected := api.Group("", config.JWT.Auth)

	user := protected.Group("/user")
	{
		user.GET("/me", config.UserHandler.GetMe)
		user.PUT("/profile", config.UserHandler.UpdateProfile)
		user.POST("/upgrade", config.UserHandler.Upgrade)
	}

	protected.GET("/dashboard", config.WatchlistHandler.GetDashboard)
	protected.DELETE("/views/:kind", config.WatchlistHandler.CloseView)

	watchlist := protected.Group("/watchlist")
	{
		watchlist.GET("", config.WatchlistHandler.GetWatchlist)
		watchlist.POST("", config.WatchlistHandler.AddToWatchlist)
		watchlist.DELETE("/:symbol", config.WatchlistHandler.RemoveFromWatchlist)
	}

	search := protected.Group("/search")
	{
		search.GET("", config.WatchlistHandler.Search)
		search.DELETE("", config.WatchlistHandler.DismissSearch)
		search.POST("/select", config.WatchlistHandler.SelectSearch)
	}

	stocks := protected.Group("/stocks")
	{
		stocks.GET("/:symbol", config.StockHandler.GetStock)
		stocks.GET("/:symbol/history", config.StockHandler.GetHistory)
		stocks.POST("/:symbol/watchlist", config.StockHandler.ToggleWatchlist)
	}

	portfolio := protected.Group("/portfolio")
	{
		portfolio.GET("", config.PortfolioHandler.GetPortfolio)
		portfolio.POST("/assets", config.PortfolioHandler.CreateAsset)
		portfolio.PUT("/assets/:id", config.PortfolioHandler.UpdateAsset)
		portfolio.DELETE("/assets/:id", config.PortfolioHandler.DeleteAsset)
		portfolio.POST("/refresh", config.PortfolioHandler.RefreshPrices)
		portfolio.GET("/export", config.PortfolioHandler.ExportCSV)
	}

	alerts := protected.Group("/alerts")
	{
		alerts.GET("", config.AlertHandler.GetAlerts)
		alerts.POST("", config.AlertHandler.CreateAlert)
		alerts.DELETE("/:id", config.AlertHandler.DeleteAlert)
	}
}
