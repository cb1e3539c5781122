package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/XF2S/document-service/internal/config"
	"github.com/XF2S/document-service/internal/database"
	"github.com/XF2S/document-service/internal/database/migration"
	handlers "github.com/XF2S/document-service/internal/http/handler"
	"github.com/XF2S/document-service/internal/http/middleware"
	"github.com/XF2S/document-service/internal/model"
	"github.com/XF2S/document-service/internal/otel"
	"github.com/XF2S/document-service/internal/repository/postgres"
	"github.com/XF2S/document-service/internal/scanner"
	"github.com/XF2S/document-service/internal/service"
	"github.com/XF2S/document-service/internal/storage"
	"github.com/XF2S/document-service/internal/validator"
)

func main() {
	loc := time.UTC

	// Load configuration from environment variables (.env auto-loaded if present)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	// Tracing is optional; a failed exporter degrades to a no-op provider.
	ctx := context.Background()
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
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Initialize reusable S3-compatible object storage client (MinIO-supported)
	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		log.Fatalf("failed to initialize object storage: %v", err)
	}

	// Malware scanning is optional; when disabled the validation pipeline
	// skips the scan stage entirely.
	var scan scanner.Scanner
	if cfg.Upload.VirusScanEnabled {
		scan, err = scanner.NewClamAV(cfg.Upload.ClamAVAddress)
		if err != nil {
			log.Fatalf("failed to initialize virus scanner: %v", err)
		}
		if err := scanner.Ping(scan); err != nil {
			log.Fatalf("clamav daemon unreachable at %s: %v", cfg.Upload.ClamAVAddress, err)
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// Initialize validation pipeline, repositories and services
	fileValidator := validator.New(cfg.MaxFileSizeBytes(), model.AllowedMimeTypes, scan)
	docRepo := postgres.NewDocumentPostgres(db)
	docSvc := service.NewDocumentService(fileValidator, objStore, docRepo, service.Options{
		MaxFileSize:      cfg.MaxFileSizeBytes(),
		PresignMinExpiry: time.Duration(cfg.Upload.PresignMinExpirySec) * time.Second,
		PresignMaxExpiry: time.Duration(cfg.Upload.PresignMaxExpirySec) * time.Second,
		Registerer:       reg,
		LogWriter:        os.Stdout,
	})

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    int(cfg.MaxFileSizeBytes()) + 1<<20,
	})

	promMW, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.Fatalf("failed to register http metrics: %v", err)
	}

	// Register global middleware
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger())
	app.Use(promMW.Handler())
	app.Use(otelfiber.Middleware())

	// Register HTTP routes with injected service
	handlers.RegisterRoutes(app, db, docSvc)

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
