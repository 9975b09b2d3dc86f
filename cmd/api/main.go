package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hanspeterhess/show-time-aws-V1/internal/config"
	"github.com/hanspeterhess/show-time-aws-V1/internal/database"
	"github.com/hanspeterhess/show-time-aws-V1/internal/database/migration"
	handlers "github.com/hanspeterhess/show-time-aws-V1/internal/http/handler"
	"github.com/hanspeterhess/show-time-aws-V1/internal/http/middleware"
	"github.com/hanspeterhess/show-time-aws-V1/internal/logging"
	"github.com/hanspeterhess/show-time-aws-V1/internal/otel"
	"github.com/hanspeterhess/show-time-aws-V1/internal/queue"
	"github.com/hanspeterhess/show-time-aws-V1/internal/relay"
	"github.com/hanspeterhess/show-time-aws-V1/internal/repository/postgres"
	"github.com/hanspeterhess/show-time-aws-V1/internal/service"
	"github.com/hanspeterhess/show-time-aws-V1/internal/storage"
)

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	logging.Init(os.Getenv("LOG_LEVEL"), os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logging.Error().Err(err).Msg("tracing shutdown failed")
		}
	}()

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, time.UTC, cfg.Database.Host); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	// Initialize reusable S3-compatible object storage client (MinIO-supported)
	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		log.Fatalf("failed to initialize object storage: %v", err)
	}

	// Scale-up requests go over NATS when configured; without a broker the
	// relay still runs, it just cannot ask for workers.
	var pub queue.Publisher = queue.NoopPublisher{}
	if cfg.Queue.URL != "" {
		pub, err = queue.NewNATS(cfg.Queue)
		if err != nil {
			log.Fatalf("failed to connect to queue: %v", err)
		}
	}
	defer pub.Close()

	hub := relay.NewHub()
	go hub.Run(ctx)

	// Initialize repositories and services
	tsRepo := postgres.NewTimestampPostgres(db)
	relaySvc := service.NewRelayService(objStore, tsRepo, hub, pub, cfg.Relay, cfg.Queue.WorkerFunction)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	// Register global middleware
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger())
	app.Use(otelfiber.Middleware())

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	promMW, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.Fatalf("failed to register metrics: %v", err)
	}
	app.Use(promMW.Handler())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// Register HTTP routes with injected service
	handlers.RegisterRoutes(app, db, relaySvc, hub, middleware.Auth(cfg.Auth.JWTSecret, cfg.Auth.Audience, cfg.Auth.Issuer))

	go func() {
		<-ctx.Done()
		logging.Info().Msg("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logging.Error().Err(err).Msg("server shutdown failed")
		}
	}()

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
