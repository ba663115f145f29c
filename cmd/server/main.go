// Command server runs the flight tracker: the HTTP API, the periodic status
// sweep, and the retention cleanup.
//
// @title          Flight Tracker API
// @version        1.0
// @description    Tracks employee flights and keeps their status current.
// @BasePath       /api
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-flight-tracker/docs"
	"github.com/tbourn/go-flight-tracker/internal/config"
	httpapi "github.com/tbourn/go-flight-tracker/internal/http"
	"github.com/tbourn/go-flight-tracker/internal/observability"
	"github.com/tbourn/go-flight-tracker/internal/provider/aeroapi"
	"github.com/tbourn/go-flight-tracker/internal/repo"
	"github.com/tbourn/go-flight-tracker/internal/services"
	"github.com/tbourn/go-flight-tracker/internal/store"
	"github.com/tbourn/go-flight-tracker/internal/sysutil"
	"github.com/tbourn/go-flight-tracker/internal/tracking"
	"github.com/tbourn/go-flight-tracker/internal/worker"
)

// version is set with -ldflags "-X main.version=..." or APP_VERSION.
var version = "dev"

func main() {
	// .env is optional; real environment variables win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("could not read .env")
	}

	cfg := config.MustLoad()
	version = sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), version)

	log.Logger = sysutil.NewLogger(cfg.LogLevel, cfg.LogPretty, cfg.OTEL.ServiceName, os.Stderr)
	gin.SetMode(cfg.GinMode)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version, observability.ProviderMode(cfg.MockMode()))
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}

	st, db, err := openStore(cfg.Store)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.Store.Backend).Msg("store setup failed")
	}

	var provider tracking.Provider
	if !cfg.MockMode() {
		provider = aeroapi.NewClient(cfg.Provider.APIKey, aeroapi.WithBaseURL(cfg.Provider.BaseURL))
	}
	resolver := tracking.NewResolver(provider, cfg.Provider.Timeout)
	tracker := services.NewTracker(st, resolver, cfg.Provider.Pacing, log.Logger)

	log.Info().
		Str("version", version).
		Str("store", cfg.Store.Backend).
		Bool("mock_mode", cfg.MockMode()).
		Msg("starting flight tracker")
	if cfg.MockMode() {
		log.Warn().Msg("AEROAPI_KEY not set; flight statuses come from the mock table")
	}

	// Background jobs
	var runner *worker.Runner
	if cfg.Scheduler.Enabled {
		retention := &services.Retention{Store: st, Window: cfg.Scheduler.RetentionWindow, Log: log.Logger}
		runner = worker.NewRunner(log.Logger,
			worker.Job{
				Name:     "status_sweep",
				Interval: cfg.Scheduler.UpdateInterval,
				Run: func(ctx context.Context) error {
					_, err := tracker.Sweep(ctx)
					return err
				},
			},
			worker.Job{
				Name:     "retention",
				Interval: cfg.Scheduler.CleanupInterval,
				Run: func(ctx context.Context) error {
					_, err := retention.Run(ctx)
					return err
				},
			},
		)
		runner.Start(ctx)
	}

	// HTTP
	docs.SwaggerInfo.BasePath = cfg.APIBasePath
	r := gin.New()
	httpapi.RegisterRoutes(r, st, tracker, cfg)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown error")
	}

	cancel()
	if runner != nil {
		runner.Wait()
	}

	if db != nil {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("otel shutdown error")
	}
	log.Info().Msg("flight tracker stopped")
}

// openStore builds the configured backend. The returned *gorm.DB is nil for
// the memory backend.
func openStore(cfg config.StoreConfig) (store.Store, *gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)
	switch cfg.Backend {
	case "memory":
		return store.NewMemory(), nil, nil
	case "postgres":
		db, err = repo.OpenPostgres(cfg.DatabaseURL)
	default:
		db, err = repo.OpenSQLite(cfg.DBPath)
	}
	if err != nil {
		return nil, nil, err
	}
	if err := repo.InstrumentDB(db); err != nil {
		return nil, nil, err
	}
	if err := repo.AutoMigrate(db); err != nil {
		return nil, nil, err
	}
	return store.NewGorm(db), db, nil
}
