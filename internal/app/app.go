package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/guild-war-tracker/internal/config"
	"github.com/riskibarqy/guild-war-tracker/internal/domain/snapshot"
	"github.com/riskibarqy/guild-war-tracker/internal/domain/warsession"
	"github.com/riskibarqy/guild-war-tracker/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/guild-war-tracker/internal/infrastructure/repository/file"
	"github.com/riskibarqy/guild-war-tracker/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/guild-war-tracker/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/guild-war-tracker/internal/interfaces/httpapi"
	"github.com/riskibarqy/guild-war-tracker/internal/metrics"
	idgen "github.com/riskibarqy/guild-war-tracker/internal/platform/id"
	"github.com/riskibarqy/guild-war-tracker/internal/platform/logging"
	"github.com/riskibarqy/guild-war-tracker/internal/platform/resilience"
	"github.com/riskibarqy/guild-war-tracker/internal/usecase"
)

// App holds the HTTP server and the resources that must be released with it.
type App struct {
	Server  *http.Server
	Metrics *metrics.Recorder

	db *sqlx.DB
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	var recorder *metrics.Recorder
	if cfg.MetricsEnabled {
		recorder = metrics.NewRecorder()
	}

	out := &App{Metrics: recorder}

	repo, err := out.snapshotRepository(ctx, cfg, recorder, logger)
	if err != nil {
		return nil, err
	}

	reportSvc := usecase.NewReportService(repo, cfg.ReportWorkers, logger, recorder)
	sessionSvc := usecase.NewSessionService(warsession.NewRosterSession(), repo, reportSvc, logger, recorder)

	handler := httpapi.NewHandler(sessionSvc, reportSvc, logger)
	router := httpapi.NewRouter(handler, logger, httpapi.RouterConfig{
		SwaggerEnabled:     cfg.SwaggerEnabled,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		AdminToken:         cfg.AdminToken,
		Metrics:            recorder,
		IDGenerator:        idgen.NewUUIDGenerator(),
	})
	if cfg.AdminToken == "" {
		logger.Warn("INTERNAL_ADMIN_TOKEN empty, command routes will answer 503")
	}

	out.Server = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return out, nil
}

// snapshotRepository builds the configured store and puts the read cache in
// front of it when enabled.
func (a *App) snapshotRepository(ctx context.Context, cfg config.Config, recorder *metrics.Recorder, logger *logging.Logger) (snapshot.Repository, error) {
	var repo snapshot.Repository

	switch cfg.SnapshotStore {
	case config.StoreFile:
		fileRepo, err := file.NewSnapshotRepository(cfg.SnapshotDir)
		if err != nil {
			return nil, fmt.Errorf("open file snapshot store: %w", err)
		}
		repo = fileRepo
	case config.StorePostgres:
		db, err := openPostgres(ctx, cfg)
		if err != nil {
			return nil, err
		}
		a.db = db

		pgRepo := postgres.NewSnapshotRepository(db, resilience.CircuitBreakerConfig{
			Enabled:          cfg.StoreCircuitEnabled,
			FailureThreshold: cfg.StoreCircuitFailureCount,
			OpenTimeout:      cfg.StoreCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.StoreCircuitHalfOpenMaxReq,
		})
		pgRepo.Breaker().OnStateChange(func(from, to resilience.CircuitState) {
			recorder.SetBreakerOpen(config.StorePostgres, to == resilience.CircuitStateOpen)
			logger.Warn("snapshot store breaker state changed", "from", from, "to", to)
		})
		repo = pgRepo
	default:
		repo = memory.NewSnapshotRepository()
	}

	logger.Info("snapshot store ready", "store", cfg.SnapshotStore, "cache_enabled", cfg.CacheEnabled)
	if !cfg.CacheEnabled {
		return repo, nil
	}
	return cache.NewSnapshotRepository(repo, cfg.CacheTTL), nil
}

func (a *App) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	return a.db.Close()
}
