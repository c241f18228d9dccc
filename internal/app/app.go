package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/templui/goalkeep/internal/clock"
	"github.com/templui/goalkeep/internal/config"
	"github.com/templui/goalkeep/internal/db"
	"github.com/templui/goalkeep/internal/model"
	"github.com/templui/goalkeep/internal/repository"
	"github.com/templui/goalkeep/internal/service"
	"github.com/templui/goalkeep/internal/storage"
)

type App struct {
	Cfg         *config.Config
	DB          *sqlx.DB
	Clock       clock.Source
	AuthService *service.AuthService
	GoalService *service.GoalService
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	src, err := newClock(cfg)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to initialize clock: %w", err)
	}

	rewards, err := newRewardIssuer(ctx, cfg)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to initialize reward issuer: %w", err)
	}

	store := repository.NewStore(database)

	return &App{
		Cfg:         cfg,
		DB:          database,
		Clock:       src,
		AuthService: service.NewAuthService(cfg.JWTSecret, cfg.JWTExpiry),
		GoalService: service.NewGoalService(store, src, rewards),
	}, nil
}

func newClock(cfg *config.Config) (clock.Source, error) {
	if cfg.ClockMode == config.ClockModeManual {
		slog.Warn("using manual clock", "start", cfg.ClockStart)
		return clock.NewManualClock(model.Height(cfg.ClockStart)), nil
	}

	slog.Info("using block clock", "genesis", cfg.ClockGenesis, "interval", cfg.ClockBlockInterval)
	return clock.NewBlockClock(cfg.ClockGenesis, cfg.ClockBlockInterval)
}

func newRewardIssuer(ctx context.Context, cfg *config.Config) (service.RewardIssuer, error) {
	if !cfg.RewardStorageEnabled() {
		slog.Info("S3_BUCKET not set, rewards are recorded in the log only")
		return service.LogRewardIssuer{}, nil
	}

	certStorage, err := storage.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return service.NewCertificateIssuer(certStorage), nil
}

func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
