package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	auditpg "3tcapital/ms_extraccion_facturas/internal/adapters/audit/postgres"
	extractionhttp "3tcapital/ms_extraccion_facturas/internal/adapters/http/extraction"
	healthhttp "3tcapital/ms_extraccion_facturas/internal/adapters/http/health"
	"3tcapital/ms_extraccion_facturas/internal/adapters/textsource/ocr"
	"3tcapital/ms_extraccion_facturas/internal/adapters/textsource/pdf"
	"3tcapital/ms_extraccion_facturas/internal/application/extraction"
	apphealth "3tcapital/ms_extraccion_facturas/internal/application/health"
	"3tcapital/ms_extraccion_facturas/internal/core/document"
	"3tcapital/ms_extraccion_facturas/internal/infrastructure/cache"
	"3tcapital/ms_extraccion_facturas/internal/infrastructure/config"
	"3tcapital/ms_extraccion_facturas/internal/infrastructure/database"
	"3tcapital/ms_extraccion_facturas/internal/infrastructure/http/middleware"
	"3tcapital/ms_extraccion_facturas/internal/infrastructure/http/server"
	"3tcapital/ms_extraccion_facturas/internal/infrastructure/logger"
	"3tcapital/ms_extraccion_facturas/internal/infrastructure/metrics"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "service stopped: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.NewWithOptions(logger.Options{
		AppName:     cfg.App.Name,
		Level:       cfg.Log.Level,
		Environment: cfg.App.Environment,
		Format:      cfg.Log.Format,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []extraction.Option{}
	var checkers []apphealth.Checker

	// Audit trail: the service keeps working without a database.
	if cfg.Database.Enabled && cfg.Audit.Enabled {
		pool, err := database.NewPool(ctx, database.Config{
			Host:            cfg.Database.Host,
			Port:            cfg.Database.Port,
			Database:        cfg.Database.Database,
			User:            cfg.Database.User,
			Password:        cfg.Database.Password,
			SSLMode:         cfg.Database.SSLMode,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		})
		if err != nil {
			log.Warn("Failed to connect to database, audit trail will be disabled",
				"error", err,
				"host", cfg.Database.Host,
				"database", cfg.Database.Database,
				"user", cfg.Database.User,
				"password_set", cfg.Database.Password != "")
		} else {
			defer pool.Close()
			if err := database.RunMigrations(ctx, pool, log); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}
			opts = append(opts, extraction.WithAuditRepository(auditpg.NewRepositoryWithLogger(pool, log)))
			checkers = append(checkers, apphealth.Checker{Name: "postgres", Check: pool.Ping})
			log.Info("Audit trail configuration: ENABLED",
				"database", cfg.Database.Database,
				"store_excerpt", cfg.Audit.StoreExcerpt,
			)
		}
	} else {
		log.Info("Audit trail configuration: DISABLED",
			"audit_enabled_config", cfg.Audit.Enabled,
			"database_enabled_config", cfg.Database.Enabled,
		)
	}

	pdfSource := pdf.NewSource(0, log)
	opts = append(opts, extraction.WithTextSource(document.ModalityPDF, pdfSource))
	checkers = append(checkers, apphealth.Checker{Name: "pdf", Check: pdfSource.Check})

	if cfg.OCR.Enabled {
		ocrSource := ocr.NewSource(ocr.Config{
			Binary:        cfg.OCR.TesseractPath,
			Languages:     cfg.OCR.Languages,
			TessdataDir:   cfg.OCR.TessdataDir,
			PSM:           cfg.OCR.PSM,
			MaxConcurrent: cfg.OCR.MaxConcurrent,
			Timeout:       cfg.OCR.Timeout,
		}, ocr.ExecRunner{}, log)
		opts = append(opts, extraction.WithTextSource(document.ModalityImage, ocrSource))
		checkers = append(checkers, apphealth.Checker{Name: "tesseract", Check: ocrSource.Check})
		log.Info("OCR engine configured",
			"binary", cfg.OCR.TesseractPath,
			"languages", cfg.OCR.Languages,
			"max_concurrent", cfg.OCR.MaxConcurrent,
		)
	} else {
		log.Warn("OCR disabled, image documents will be rejected")
	}

	if cfg.Extraction.CacheTTL > 0 {
		opts = append(opts, extraction.WithCache(cache.NewResultCache[extraction.Result](cfg.Extraction.CacheTTL, cfg.Extraction.CacheMaxEntries)))
	}

	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		m := metrics.New()
		opts = append(opts, extraction.WithMetrics(m))
		metricsHandler = m.Handler()
	}

	service := extraction.NewService(extraction.Config{
		ReviewThreshold: cfg.Extraction.ReviewThreshold,
		MaxBatchSize:    cfg.Extraction.MaxBatchSize,
		WorkerPoolSize:  cfg.Extraction.WorkerPoolSize,
		SourceTimeout:   cfg.Extraction.SourceTimeout,
		StoreExcerpt:    cfg.Audit.StoreExcerpt,
		MaxExcerptRunes: cfg.Audit.MaxExcerptRunes,
	}, log, opts...)

	extractionHandler := extractionhttp.NewHandler(service, cfg.Extraction.MaxBodyBytes, log)
	routes := extractionHandler.Routes(
		middleware.RateLimit(cfg.Extraction.RateLimitRPS, cfg.Extraction.RateLimitBurst, log),
		middleware.RequestTimeout(cfg.Extraction.RequestTimeout),
	)

	healthService := apphealth.NewService(apphealth.Metadata{
		Service:     cfg.App.Name,
		Version:     cfg.App.Version,
		Environment: cfg.App.Environment,
	}, checkers...)

	srv, err := server.New(server.Options{
		Config:            cfg,
		Logger:            log,
		HealthHandler:     http.HandlerFunc(healthhttp.NewHandler(healthService).Status),
		ExtractionHandler: routes,
		MetricsHandler:    metricsHandler,
	})
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}
	defer srv.Close()

	logStartup(log, cfg)
	return srv.Run(ctx)
}

func logStartup(log *slog.Logger, cfg config.AppConfig) {
	log.Info("Starting HTTP server",
		"port", cfg.HTTP.Port,
		"environment", cfg.App.Environment,
		"auth_enabled", cfg.Auth.Enabled,
		"review_threshold", cfg.Extraction.ReviewThreshold,
		"max_batch_size", cfg.Extraction.MaxBatchSize,
	)
}
