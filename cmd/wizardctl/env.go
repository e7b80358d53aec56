package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/subcommands"
	"github.com/jackc/pgx/v5/pgxpool"

	"stockwizard/configs"
	"stockwizard/internal/adapter/alpaca"
	"stockwizard/internal/adapter/marketstack"
	"stockwizard/internal/domain"
	"stockwizard/internal/infra"
	"stockwizard/internal/repository"
	"stockwizard/internal/service"
)

var commands = []subcommands.Command{
	&migrateCmd{},
	&exportCmd{},
	&reportCmd{},
	&refreshCmd{},
	&watchCmd{},
}

// env is the shared state of a command run
type env struct {
	cfg       *configs.Config
	db        *pgxpool.Pool
	users     domain.UserRepository
	portfolio *service.PortfolioService
}

func openEnv(ctx context.Context) (*env, error) {
	cfg, err := configs.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	db, err := infra.NewDatabase(ctx, cfg.Database.URL)
	if err != nil {
		return nil, err
	}

	var quotes domain.QuoteProvider = marketstack.NewClient(cfg.Marketstack.BaseURL, cfg.Marketstack.AccessKey, cfg.Marketstack.CacheTTL)
	if cfg.QuoteSource == configs.SourceAlpaca {
		quotes = alpaca.NewProvider(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.DataURL)
	}
	quotes = service.NewCachedQuoteProvider(quotes, repository.NewQuoteCacheRepository(db), cfg.Cache.TTL)

	return &env{
		cfg:       cfg,
		db:        db,
		users:     repository.NewUserRepository(db),
		portfolio: service.NewPortfolioService(repository.NewAssetRepository(db), quotes),
	}, nil
}

func (e *env) Close() {
	e.db.Close()
}

func (e *env) user(ctx context.Context, email string) (*domain.UserProfile, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, fmt.Errorf("%w: -user is required", domain.ErrValidationFailed)
	}
	return e.users.GetByEmail(ctx, email)
}
