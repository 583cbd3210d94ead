package main

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"patientapi/docs"
	"patientapi/internal/billing"
	"patientapi/internal/config"
	"patientapi/internal/database"
	"patientapi/internal/database/migration"
	"patientapi/internal/events"
	handlers "patientapi/internal/http/handler"
	"patientapi/internal/http/middleware"
	"patientapi/internal/otel"
	"patientapi/internal/repository/postgres"
	"patientapi/internal/service"
)

// @title Patient API
// @version 1.0
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	loc := time.UTC

	ctx := context.Background()

	// Initialize OpenTelemetry tracing (OTLP); degrades to noop when disabled
	shutdownTracing, err := otel.Init(ctx, loc)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer shutdownTracing(ctx)

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, loc, cfg.Database.Host); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	// Billing provisioning is optional; without an address the service runs
	// in billing-free mode.
	var billingClient billing.Client
	if cfg.Billing.Enabled && cfg.Billing.Addr != "" {
		grpcClient, err := billing.NewGRPCClient(cfg.Billing)
		if err != nil {
			log.Fatalf("failed to connect to billing service: %v", err)
		}
		defer grpcClient.Close()
		billingClient = grpcClient
	}

	// Event publication is optional as well; no Redis address means created
	// patients are simply not announced.
	var publisher events.Publisher
	if cfg.Events.RedisAddr != "" {
		redisPublisher, err := events.NewRedisPublisher(cfg.Events)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisPublisher.Close()
		publisher = redisPublisher
	}

	metrics, err := service.NewMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatalf("failed to register metrics: %v", err)
	}

	// Initialize repository and service
	patientRepo := postgres.NewPatientPostgres(db)
	patientSvc := service.NewPatientService(patientRepo, billingClient, publisher, metrics)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	// Register global middleware
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger(loc))
	// Distributed tracing for incoming HTTP requests
	app.Use(otelfiber.Middleware())

	promMiddleware, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatalf("failed to register http metrics: %v", err)
	}
	app.Use(promMiddleware.Handler())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Register HTTP routes with injected service
	handlers.RegisterRoutes(app, db, patientSvc)

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
