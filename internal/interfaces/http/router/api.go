package router

import (
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/invoicedesk/backend/internal/infrastructure/config"
	"github.com/invoicedesk/backend/internal/infrastructure/logger"
	"github.com/invoicedesk/backend/internal/interfaces/http/handler"
	"github.com/invoicedesk/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// Handlers groups the HTTP handlers mounted by NewEngine.
// Documents is nil when documents are not served by this process.
type Handlers struct {
	System    *handler.SystemHandler
	Invoices  *handler.InvoiceHandler
	Catalog   *handler.CatalogHandler
	Dashboard *handler.DashboardHandler
	Documents *handler.DocumentHandler
}

// EngineOptions configures the middleware stack of NewEngine
type EngineOptions struct {
	Logger        *zap.Logger
	HTTP          config.HTTPConfig
	Tracing       middleware.TracingConfig
	Metrics       middleware.HTTPMetricsConfig
	ExportLimiter *middleware.RateLimiter // nil disables export rate limiting
	DocumentsURL  string                  // URL prefix documents are served under, e.g. "/files"
}

// NewEngine builds the gin engine with the middleware stack and every API route
func NewEngine(h Handlers, opts EngineOptions) *gin.Engine {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	middleware.SetupValidator()

	engine := gin.New()
	if len(opts.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(opts.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Order matters: the request id feeds the logger, and tracing must wrap
	// the attribute injector so the injector sees the server span.
	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log, "/health"))
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.TracingWithConfig(opts.Tracing))
	engine.Use(middleware.TracingAttributeInjector())
	engine.Use(middleware.HTTPMetrics(opts.Metrics))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(corsConfig(opts.HTTP)))
	if opts.HTTP.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(opts.HTTP.MaxBodySize))
	}

	if h.System != nil {
		engine.GET("/health", h.System.Health)
	}
	if h.Documents != nil {
		engine.GET(documentsRoute(opts.DocumentsURL), h.Documents.Download)
	}

	r := NewRouter(engine, WithAPIVersion("v1"))
	if h.System != nil {
		r.Register(systemRoutes(h.System))
	}
	if h.Invoices != nil {
		var exportLimit gin.HandlerFunc
		if opts.ExportLimiter != nil {
			exportLimit = middleware.RateLimit(opts.ExportLimiter)
		}
		r.Register(invoiceRoutes(h.Invoices, exportLimit))
	}
	if h.Catalog != nil {
		r.Register(catalogRoutes(h.Catalog))
	}
	if h.Dashboard != nil {
		r.Register(dashboardRoutes(h.Dashboard))
	}
	r.Setup()

	return engine
}

func systemRoutes(h *handler.SystemHandler) *DomainGroup {
	return NewDomainGroup("system", "/system").
		GET("/info", h.GetSystemInfo).
		GET("/ping", h.Ping)
}

func invoiceRoutes(h *handler.InvoiceHandler, exportLimit gin.HandlerFunc) *DomainGroup {
	return NewDomainGroup("invoices", "/invoices").
		GET("", h.List).
		POST("", h.Create).
		GET("/:id", h.Get).
		PUT("/:id", h.Update).
		DELETE("/:id", h.Delete).
		POST("/:id/finalize", h.Finalize).
		POST("/:id/pay", h.Pay).
		POST("/:id/pdf", exportLimit, h.ExportPDF)
}

func catalogRoutes(h *handler.CatalogHandler) *DomainGroup {
	return NewDomainGroup("catalog", "").
		GET("/customers/search", h.SearchCustomers).
		GET("/products/search", h.SearchProducts)
}

func dashboardRoutes(h *handler.DashboardHandler) *DomainGroup {
	return NewDomainGroup("dashboard", "/dashboard").
		GET("", h.GetDashboard).
		GET("/deadlines", h.GetDeadlines)
}

func corsConfig(cfg config.HTTPConfig) middleware.CORSConfig {
	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.CORSAllowOrigins
	if len(cfg.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.CORSAllowMethods
	}
	if len(cfg.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.CORSAllowHeaders
	}
	cors.MaxAge = 12 * time.Hour
	return cors
}

// documentsRoute turns a download URL prefix, absolute or not, into a wildcard route
func documentsRoute(baseURL string) string {
	prefix := baseURL
	if u, err := url.Parse(baseURL); err == nil && u.Path != "" {
		prefix = u.Path
	}
	prefix = "/" + strings.Trim(prefix, "/")
	if prefix == "/" {
		prefix = "/files"
	}
	return prefix + "/*key"
}
