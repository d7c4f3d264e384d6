package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/comment-server/internal/api"
	"github.com/comment-server/internal/config"
	"github.com/comment-server/internal/database"
	"github.com/comment-server/internal/gate"
	"github.com/comment-server/internal/idgen"
	"github.com/comment-server/internal/notify"
	"github.com/comment-server/internal/repository"
	"github.com/comment-server/internal/service"
	"github.com/comment-server/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log := logger.New(config.LogConfig{})
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	log := logger.New(cfg.Log)
	log.Info().Msg("Starting comment server...")

	// Initialize database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Run migrations
	if err := db.RunMigrations(cfg.Database.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// First-comment gate; the server still starts when Redis is down
	// and the gate fails closed until it comes back
	firstGate, err := gate.NewRedisGate(cfg.Redis.URL, cfg.Redis.GateTTL, cfg.Redis.GateTimeout, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid Redis configuration")
	}
	defer firstGate.Close()

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 2*time.Second)
	if err := firstGate.Ping(pingCtx); err != nil {
		log.Warn().Err(err).Msg("Redis unreachable, first-comment notifications suppressed")
	}
	pingCancel()

	// Notification transport
	publisher := newPublisher(cfg.Notify, log)
	defer publisher.Close()

	ids, err := idgen.New(cfg.ID.Generator, cfg.ID.SnowflakeNode)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create id generator")
	}

	// Initialize repositories
	repos := repository.New(db)

	// Initialize services
	services := service.NewServices(repos, service.Dependencies{
		Gate:     firstGate,
		Notifier: notify.NewNotifier(publisher, cfg.Notify.Timeout, log),
		IDs:      ids,
	}, cfg, log)

	// Start background counter reconciler
	go services.Reconcile.Start(context.Background())

	// Initialize router
	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(services, cfg, log,
		api.HealthCheck{Name: "database", Critical: true, Check: db.HealthCheck},
		api.HealthCheck{Name: "redis", Check: firstGate.Ping},
	)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Stop reconciler
	services.Reconcile.Stop()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited gracefully")
}

// newPublisher connects to RabbitMQ when configured and falls back to the
// log publisher otherwise
func newPublisher(cfg config.NotifyConfig, log zerolog.Logger) notify.Publisher {
	if cfg.RabbitMQURL == "" {
		log.Info().Msg("RABBITMQ_URL not set, events are written to the log")
		return notify.NewLogPublisher(log)
	}

	publisher, err := notify.NewAMQPPublisher(cfg.RabbitMQURL, cfg.Exchange)
	if err != nil {
		log.Warn().Err(err).Msg("RabbitMQ unavailable, events are written to the log")
		return notify.NewLogPublisher(log)
	}

	log.Info().Str("exchange", cfg.Exchange).Msg("Publishing events to RabbitMQ")
	return publisher
}
