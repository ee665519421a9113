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
	appinvoicing "github.com/invoicedesk/backend/internal/application/invoicing"
	appreport "github.com/invoicedesk/backend/internal/application/report"
	"github.com/invoicedesk/backend/internal/infrastructure/cache"
	"github.com/invoicedesk/backend/internal/infrastructure/config"
	"github.com/invoicedesk/backend/internal/infrastructure/logger"
	"github.com/invoicedesk/backend/internal/infrastructure/persistence"
	"github.com/invoicedesk/backend/internal/infrastructure/printing"
	"github.com/invoicedesk/backend/internal/infrastructure/storage"
	"github.com/invoicedesk/backend/internal/infrastructure/telemetry"
	"github.com/invoicedesk/backend/internal/interfaces/http/handler"
	"github.com/invoicedesk/backend/internal/interfaces/http/middleware"
	"github.com/invoicedesk/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

//	@title			Invoice Desk API
//	@version		1.0
//	@description	Invoice management and financial dashboard API
//	@BasePath		/api/v1

const (
	version         = "1.0.0"
	shutdownTimeout = 30 * time.Second
	sweepInterval   = 5 * time.Minute
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	ctx := context.Background()
	telemetryCfg := telemetry.Config{
		Enabled:               cfg.Telemetry.Enabled,
		CollectorEndpoint:     cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:         cfg.Telemetry.SamplingRatio,
		ServiceName:           cfg.Telemetry.ServiceName,
		Insecure:              cfg.Telemetry.Insecure,
		MetricsExportInterval: cfg.Telemetry.MetricsExportInterval,
		LogsEnabled:           cfg.Telemetry.LogsEnabled,
		ProfilingEnabled:      cfg.Telemetry.ProfilingEnabled,
	}

	// The OTLP log bridge must exist before the logger so every entry is exported
	logProvider, err := telemetry.NewLoggerProvider(ctx, telemetryCfg, nil)
	if err != nil {
		panic("Failed to initialize log exporter: " + err.Error())
	}
	var logOpts []logger.Option
	if logProvider.IsEnabled() {
		logOpts = append(logOpts, logger.WithCore(
			telemetry.NewZapOTELCore(logProvider, cfg.Telemetry.ServiceName, parseLevel(cfg.Log.Level)),
		))
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	}, logOpts...)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting Invoice Desk",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Telemetry.ProfilingEnabled,
		ServerAddress:   cfg.Telemetry.ProfilingServer,
		ApplicationName: cfg.Telemetry.ServiceName,
		ProfileTypes:    cfg.Telemetry.ProfileTypes,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithFullSQL(cfg.Telemetry.DBLogFullSQL),
	)
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully", zap.String("driver", db.Driver()))

	// Postgres schemas are owned by cmd/migrate
	if db.Driver() == "sqlite" {
		if err := db.AutoMigrate(log); err != nil {
			log.Fatal("Failed to migrate database", zap.Error(err))
		}
	}

	dbTracing := telemetry.DefaultDBTracingConfig()
	dbTracing.Enabled = cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled
	dbTracing.LogFullSQL = cfg.Telemetry.DBLogFullSQL
	dbTracing.DBName = cfg.Database.DBName
	if err := telemetry.NewDBTracingPlugin(dbTracing, log).RegisterOtelGorm(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	dbMetrics, err := telemetry.RegisterDBMetrics(db.DB, meterProvider, telemetry.DefaultDBMetricsConfig(), log)
	if err != nil {
		log.Fatal("Failed to register database metrics", zap.Error(err))
	}
	if dbMetrics != nil {
		dbMetrics.StartPoolStatsCollection(ctx)
		defer dbMetrics.Stop()
	}

	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)

	// Dashboard
	var dashboardOpts []appreport.DashboardServiceOption
	if meterProvider.IsEnabled() {
		dashboardMetrics, err := telemetry.NewDashboardMetrics(meterProvider.Meter("invoice.dashboard"), log)
		if err != nil {
			log.Fatal("Failed to create dashboard metrics", zap.Error(err))
		}
		dashboardOpts = append(dashboardOpts, appreport.WithRecorder(dashboardMetrics))
	}
	dashboardService := appreport.NewDashboardService(invoiceRepo, cfg.Report.Thresholds(), log, dashboardOpts...)

	var (
		dashboard   appreport.DashboardProvider = dashboardService
		invalidator appinvoicing.DashboardInvalidator
	)
	if cfg.Report.CacheEnabled {
		dashboardCache, err := cache.NewDashboardCacheFactory(cfg.Report, cfg.Redis, cache.WithLogger(log)).CreateCache()
		if err != nil {
			log.Fatal("Failed to create dashboard cache", zap.Error(err))
		}
		defer func() {
			if err := dashboardCache.Close(); err != nil {
				log.Error("Error closing dashboard cache", zap.Error(err))
			}
		}()
		cached := appreport.NewCachedDashboardService(dashboardService, dashboardCache, cfg.Report.CacheTTL, log)
		dashboard = cached
		invalidator = cached
	}

	// Invoices
	invoiceOpts := []appinvoicing.InvoiceServiceOption{}
	if invalidator != nil {
		invoiceOpts = append(invoiceOpts, appinvoicing.WithDashboardInvalidator(invalidator))
	}

	var documents *storage.LocalDocumentStorage
	if cfg.Printing.Enabled {
		renderer, err := printing.NewChromedpRenderer(&printing.ChromedpConfig{
			DefaultTimeout: cfg.Printing.Timeout,
			RemoteURL:      cfg.Printing.ChromeURL,
			NoSandbox:      cfg.Printing.NoSandbox,
			Logger:         log,
		})
		if err != nil {
			log.Fatal("Failed to create PDF renderer", zap.Error(err))
		}
		defer func() {
			_ = renderer.Close()
		}()

		tmpl, err := printing.NewInvoiceTemplate(
			printing.WithLocale(cfg.Printing.Locale),
			printing.WithCompany(printing.CompanyInfo{
				Name:    cfg.Printing.CompanyName,
				Address: cfg.Printing.CompanyAddress,
			}),
		)
		if err != nil {
			log.Fatal("Failed to load invoice template", zap.Error(err))
		}

		docStorage, err := storage.NewDocumentStorage(ctx, &cfg.Storage, log)
		if err != nil {
			log.Fatal("Failed to initialize document storage", zap.Error(err))
		}
		if local, ok := docStorage.(*storage.LocalDocumentStorage); ok {
			documents = local
		}

		generator := printing.NewInvoicePDFGenerator(renderer, tmpl, log,
			printing.WithRenderTimeout(cfg.Printing.Timeout),
		)
		invoiceOpts = append(invoiceOpts, appinvoicing.WithPDFExport(generator, docStorage))
	} else {
		log.Info("PDF export disabled")
	}

	invoiceService := appinvoicing.NewInvoiceService(invoiceRepo, customerRepo, productRepo, log, invoiceOpts...)
	catalogService := appinvoicing.NewCatalogService(customerRepo, productRepo)

	handlers := router.Handlers{
		System:    handler.NewSystemHandler(cfg.App.Name, version, db),
		Invoices:  handler.NewInvoiceHandler(invoiceService),
		Catalog:   handler.NewCatalogHandler(catalogService),
		Dashboard: handler.NewDashboardHandler(dashboard),
	}
	opts := router.EngineOptions{
		Logger: log,
		HTTP:   cfg.HTTP,
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     tracerProvider.IsEnabled(),
			SkipPaths:   []string{"/health"},
		},
		Metrics: middleware.HTTPMetricsConfig{
			MeterProvider: meterProvider,
			Enabled:       meterProvider.IsEnabled(),
			Logger:        log,
		},
	}
	if documents != nil {
		handlers.Documents = handler.NewDocumentHandler(documents)
		opts.DocumentsURL = documents.BaseURL()
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	if cfg.HTTP.ExportRateLimit > 0 {
		limiter := middleware.NewRateLimiter(cfg.HTTP.ExportRateLimit, cfg.HTTP.ExportRateBurst)
		opts.ExportLimiter = limiter
		go sweepLimiter(sweepCtx, limiter)
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := router.NewEngine(handlers, opts)

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down meter provider", zap.Error(err))
	}
	if err := profiler.Stop(); err != nil {
		log.Error("Error stopping profiler", zap.Error(err))
	}
	if err := logProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down log provider", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// sweepLimiter drops idle rate limiter entries until ctx is done
func sweepLimiter(ctx context.Context, limiter *middleware.RateLimiter) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			limiter.Sweep()
		}
	}
}

func parseLevel(level string) zapcore.Level {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}
