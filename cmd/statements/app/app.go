// Package app wires configuration, storage and services for the statements CLI.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/FACorreiaa/statement-tracker/internal/domain/categorization"
	"github.com/FACorreiaa/statement-tracker/internal/domain/import/extractor"
	"github.com/FACorreiaa/statement-tracker/internal/domain/import/parser"
	importservice "github.com/FACorreiaa/statement-tracker/internal/domain/import/service"
	"github.com/FACorreiaa/statement-tracker/internal/domain/reports"
	"github.com/FACorreiaa/statement-tracker/internal/domain/transactions"
	"github.com/FACorreiaa/statement-tracker/pkg/config"
	"github.com/FACorreiaa/statement-tracker/pkg/cron"
	"github.com/FACorreiaa/statement-tracker/pkg/db"
	"github.com/FACorreiaa/statement-tracker/pkg/storage"
)

// App holds all application dependencies
type App struct {
	Config *config.Config
	Logger *slog.Logger
	DB     *db.DB // nil for the memory backend

	Metrics *prometheus.Registry

	Transactions   transactions.Repository
	Archive        storage.Storage // nil when archiving is disabled
	Registry       *parser.Registry
	Engine         *categorization.Engine
	Categorization *categorization.Service
	Import         *importservice.ImportService
}

// New initializes all application dependencies
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: prometheus.NewRegistry(),
	}
	a.Metrics.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	if err := a.initStore(ctx); err != nil {
		return nil, fmt.Errorf("failed to init transaction store: %w", err)
	}

	if err := a.initServices(); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	logger.Debug("all dependencies initialized",
		slog.String("backend", cfg.DataBackend),
		slog.Int("rules", a.Engine.RuleCount()),
	)
	return a, nil
}

// initStore connects the configured backend and runs migrations
func (a *App) initStore(ctx context.Context) error {
	if a.Config.DataBackend == config.BackendMemory {
		a.Transactions = transactions.NewMemoryRepository()
		return nil
	}

	database, err := db.New(ctx, db.Config{
		DSN:             a.Config.Database.DSN(),
		MaxConns:        int32(a.Config.Database.MaxConns),
		MinConns:        1,
		MaxConnLifetime: 30 * time.Minute,
		MaxConnIdleTime: 5 * time.Minute,
	}, a.Logger)
	if err != nil {
		return err
	}
	a.DB = database

	if err := a.DB.RunMigrations(ctx); err != nil {
		a.DB.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	a.Transactions = transactions.NewPostgresRepository(a.DB.Pool)
	return nil
}

// initServices builds the parsing, categorization and import services
func (a *App) initServices() error {
	engine, err := categorization.NewDefaultEngine()
	if err != nil {
		return err
	}
	a.Engine = engine
	a.Categorization = categorization.NewService(engine, a.Transactions, a.Logger)

	archive, err := storage.New(storage.Config{
		Type:      storage.StorageType(a.Config.Storage.Type),
		LocalPath: a.Config.Storage.LocalPath,
	})
	if err != nil {
		return fmt.Errorf("failed to init file storage: %w", err)
	}
	a.Archive = archive

	a.Registry = parser.DefaultRegistry(parser.WithCurrency(a.Config.Import.HomeCurrency))
	a.Import = importservice.NewImportService(
		extractor.NewPDFSource(a.Logger),
		a.Registry,
		engine,
		a.Transactions,
		a.Logger,
	).
		WithMetrics(importservice.NewMetrics(a.Metrics)).
		WithWorkers(a.Config.Import.Workers)
	if archive != nil {
		a.Import.WithStorage(archive)
	}
	return nil
}

// Reports returns a report service over the transaction store.
func (a *App) Reports(includeInternalTransfers bool) *reports.Service {
	return reports.NewService(a.Transactions, reports.Options{IncludeInternalTransfers: includeInternalTransfers})
}

// Scheduler returns the category migration scheduler.
func (a *App) Scheduler() *cron.Scheduler {
	return cron.NewScheduler(a.Categorization, a.Config.Migration.Schedule, a.Logger)
}

// MetricsServer serves the prometheus registry on the configured port.
func (a *App) MetricsServer() *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.Metrics, promhttp.HandlerOpts{Registry: a.Metrics}))
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", a.Config.Observability.MetricsPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// Close releases the database pool.
func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
}
