package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ndewijer/Investment-Portfolio-Planner/internal/api"
	"github.com/ndewijer/Investment-Portfolio-Planner/internal/config"
	"github.com/ndewijer/Investment-Portfolio-Planner/internal/database"
	"github.com/ndewijer/Investment-Portfolio-Planner/internal/projection"
	"github.com/ndewijer/Investment-Portfolio-Planner/internal/repository"
	"github.com/ndewijer/Investment-Portfolio-Planner/internal/scheduler"
	"github.com/ndewijer/Investment-Portfolio-Planner/internal/service"
	"github.com/ndewijer/Investment-Portfolio-Planner/internal/validation"
)

// sweepTimeout bounds a single expiry sweep.
const sweepTimeout = time.Minute

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	setupLogging(cfg)

	// Create data directory
	if dir := filepath.Dir(cfg.Database.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			log.Fatal().Err(err).Str("dir", dir).Msg("failed to create data directory")
		}
	}

	// Open database connection
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	if err := database.Migrate(context.Background(), db); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	log.Info().Str("path", cfg.Database.Path).Msg("connected to database")

	// Create repositories
	portfolioRepo := repository.NewPortfolioRepository(db)
	assetRepo := repository.NewAssetRepository(db)
	plannedChangeRepo := repository.NewPlannedChangeRepository(db)

	// The projection engine is optional; without it previews answer 503.
	var previewer service.Previewer
	if cfg.Projection.URL != "" {
		previewer = projection.NewClient(cfg.Projection.URL, cfg.Projection.Timeout)
		log.Info().Str("url", cfg.Projection.URL).Msg("projection previews enabled")
	}

	// Create services
	validator := validation.PlannedChangeValidator{Strict: cfg.IsDevelopment()}
	systemService := service.NewSystemService(db, previewer != nil, validator.Strict)
	plannedChangeService := service.NewPlannedChangeService(
		db,
		plannedChangeRepo,
		portfolioRepo,
		assetRepo,
		validator,
		previewer,
	)

	// Schedule background jobs
	jobs := scheduler.New()
	if err := jobs.AddExpirySweep(cfg.Scheduler.ExpirySchedule, plannedChangeService, sweepTimeout); err != nil {
		log.Fatal().Err(err).Msg("failed to schedule expiry sweep")
	}
	jobs.Start()

	// Create router
	router := api.NewRouter(systemService, plannedChangeService, cfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second + cfg.Projection.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Str("environment", cfg.Environment).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	jobs.Stop(ctx)
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return
	}

	log.Info().Msg("server exited")
}

// setupLogging configures the global zerolog logger. Output is human readable when
// requested or in development, JSON otherwise.
func setupLogging(cfg *config.Config) {
	output := io.Writer(os.Stdout)
	if cfg.HumanLogs() {
		output = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	if cfg.IsDevelopment() && cfg.Log.Level == "info" {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Logger = log.Output(output).With().Timestamp().Logger()
}
