package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"stockwizard/configs"
	"stockwizard/internal/adapter/alpaca"
	"stockwizard/internal/adapter/marketstack"
	"stockwizard/internal/adapter/newsdata"
	"stockwizard/internal/adapter/telegram"
	"stockwizard/internal/database"
	httpdelivery "stockwizard/internal/delivery/http"
	"stockwizard/internal/domain"
	"stockwizard/internal/infra"
	custommiddleware "stockwizard/internal/middleware"
	"stockwizard/internal/repository"
	"stockwizard/internal/service"
	"stockwizard/internal/usecase"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("[WARN] .env file not found, using environment variables")
	}

	// Load configuration
	cfg, err := configs.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize context
	ctx := context.Background()

	// Initialize database
	db, err := infra.NewDatabase(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.RunMigrations(ctx, db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	assetRepo := repository.NewAssetRepository(db)
	alertRepo := repository.NewAlertRepository(db)

	// Market data
	marketstackClient := marketstack.NewClient(cfg.Marketstack.BaseURL, cfg.Marketstack.AccessKey, cfg.Marketstack.CacheTTL)

	var source domain.QuoteProvider = marketstackClient
	var news domain.NewsProvider
	var alpacaProvider *alpaca.Provider
	if cfg.QuoteSource == configs.SourceAlpaca || (cfg.News.APIKey == "" && cfg.Alpaca.APIKey != "") {
		alpacaProvider = alpaca.NewProvider(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.DataURL)
	}
	if cfg.QuoteSource == configs.SourceAlpaca {
		source = alpacaProvider
	}
	switch {
	case cfg.News.APIKey != "":
		news = newsdata.NewClient(cfg.News.BaseURL, cfg.News.APIKey)
	case alpacaProvider != nil:
		news = alpacaProvider
	default:
		log.Println("[WARN] No news provider configured, stock pages will show no news")
	}
	log.Printf("[INFO] Quote source: %s", cfg.QuoteSource)

	// Quote cache
	cache, closeCache, err := newQuoteCache(cfg, db)
	if err != nil {
		log.Fatalf("Failed to open quote cache: %v", err)
	}
	defer closeCache()
	quotes := service.NewCachedQuoteProvider(source, cache, cfg.Cache.TTL)

	// Notifications
	telegramNotifier := telegram.NewNotificationService(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	if telegramNotifier.Enabled() {
		log.Println("[OK] Telegram notifications enabled")
	}

	// Initialize services
	authService := service.NewAuthService(userRepo)
	profileService := service.NewProfileService(userRepo)
	portfolioService := service.NewPortfolioService(assetRepo, quotes)
	alertService := service.NewAlertService(alertRepo, quotes, telegramNotifier)

	sessions := usecase.NewSessionManager(userRepo, quotes, marketstackClient, usecase.DefaultDebounce)
	sessions.SetIdleTTL(cfg.Refresh.SessionIdleTTL)
	sessions.Attach(authService)
	defer sessions.Detach()

	// Background jobs
	scheduler := infra.NewScheduler(sessions, alertService, cache, cfg.Refresh.Schedule, cfg.Refresh.AlertSchedule)
	if err := scheduler.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	defer scheduler.Stop()

	// Initialize HTTP API
	jwtManager := custommiddleware.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if cfg.Auth.JWTSecret == "" {
		log.Println("[WARN] JWT_SECRET not set, using development secret")
	}

	e := echo.New()
	e.HideBanner = true
	httpdelivery.SetupRoutes(e, &httpdelivery.RouterConfig{
		JWT:              jwtManager,
		AuthHandler:      httpdelivery.NewAuthHandler(authService, jwtManager, cfg.IsProduction()),
		UserHandler:      httpdelivery.NewUserHandler(authService, profileService),
		WatchlistHandler: httpdelivery.NewWatchlistHandler(sessions, authService, portfolioService),
		StockHandler:     httpdelivery.NewStockHandler(sessions, quotes, news),
		PortfolioHandler: httpdelivery.NewPortfolioHandler(portfolioService, authService, sessions),
		AlertHandler:     httpdelivery.NewAlertHandler(alertService),
	})

	// Ops listener
	ops := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.OpsPort),
		Handler:      opsRouter(db, scheduler, sessions),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("[OK] StockWizard API starting on %s", addr)
	log.Printf("[INFO] Ops listener on %s", ops.Addr)
	log.Printf("[INFO] Environment: %s", cfg.Server.Env)
	log.Printf("[INFO] Refresh schedule: %s, alert schedule: %s", cfg.Refresh.Schedule, cfg.Refresh.AlertSchedule)

	go func() {
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	go func() {
		if err := ops.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start ops listener: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("ERROR: API server forced to shutdown: %v", err)
	}
	if err := ops.Shutdown(shutdownCtx); err != nil {
		log.Printf("ERROR: Ops listener forced to shutdown: %v", err)
	}

	log.Println("[OK] Server exited gracefully")
}

// quoteCache is the TTL cache backend, purged by the scheduler
type quoteCache interface {
	domain.QuoteCacheRepository
	infra.CachePurger
}

func newQuoteCache(cfg *configs.Config, db *pgxpool.Pool) (quoteCache, func(), error) {
	if cfg.Cache.Driver == configs.DriverSQLite {
		c, err := repository.NewSQLiteQuoteCache(cfg.Cache.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("[INFO] Quote cache: sqlite (%s)", cfg.Cache.SQLitePath)
		return c, func() { c.Close() }, nil
	}
	log.Println("[INFO] Quote cache: postgres")
	return repository.NewQuoteCacheRepository(db), func() {}, nil
}

func opsRouter(db *pgxpool.Pool, scheduler *infra.Scheduler, sessions *usecase.SessionManager) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", handleHealth(db, sessions))
	r.Post("/refresh/trigger", handleTriggerRefresh(scheduler))
	return r
}

func handleHealth(db interface{ Ping(context.Context) error }, sessions *usecase.SessionManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		dbStatus := "healthy"
		if err := db.Ping(ctx); err != nil {
			dbStatus = "unhealthy"
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":    "healthy",
			"service":   "stockwizard-ops",
			"database":  dbStatus,
			"sessions":  sessions.Len(),
			"timestamp": time.Now().Format(time.RFC3339),
		})
	}
}

func handleTriggerRefresh(scheduler *infra.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Println("[INFO] Manual refresh triggered via ops API")

		go scheduler.RunRefresh()
		go scheduler.RunAlertCheck()

		writeJSON(w, http.StatusAccepted, map[string]string{
			"message": "Refresh triggered successfully",
			"status":  "processing",
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("ERROR: Failed to write response: %v", err)
	}
}
