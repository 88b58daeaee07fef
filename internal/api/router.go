// Package api wires together all HTTP routes for the asset registry backend.
//
// Route grouping philosophy:
//   - System routes (/health, /ready, /version) are unauthenticated so that
//     load balancers and Kubernetes probes can reach them without credentials.
//   - Everything under /api/v1/ runs behind the identity middleware. Requests
//     without a token are still served — the directory service in front of
//     this API owns authentication — but their writes are attributed to the
//     system account in the audit trail.
//
// Mutating routes (transfers, returns, asset CRUD) carry a stricter rate
// limit than reads: each transfer opens a row-locking transaction and a
// misbehaving client would serialize everyone else behind those locks.
package api

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/curiango/curiango/internal/allocation"
	"github.com/curiango/curiango/internal/api/assets"
	"github.com/curiango/curiango/internal/api/auditlog"
	"github.com/curiango/curiango/internal/api/employees"
	"github.com/curiango/curiango/internal/api/parameters"
	"github.com/curiango/curiango/internal/audit"
	"github.com/curiango/curiango/internal/config"
	"github.com/curiango/curiango/internal/db/repositories"
	"github.com/curiango/curiango/internal/documents"
	"github.com/curiango/curiango/internal/jobs"
	"github.com/curiango/curiango/internal/middleware"
	"github.com/curiango/curiango/internal/notifications"
)

// BackgroundServices holds references to background jobs and resources that must
// be stopped during graceful shutdown. The caller (cmd/server) is responsible for
// calling Shutdown() when the process receives a termination signal.
type BackgroundServices struct {
	documentReconciler *jobs.DocumentReconciler
	auditShipper       *audit.MultiShipper
	rateLimiters       []*middleware.RateLimiter
}

// Shutdown stops all background goroutines. It should be called after the HTTP
// server has been shut down so that in-flight requests are drained first.
func (bg *BackgroundServices) Shutdown() {
	slog.Info("stopping background services")
	if bg.documentReconciler != nil {
		bg.documentReconciler.Stop()
	}
	if bg.auditShipper != nil {
		if err := bg.auditShipper.Close(); err != nil {
			slog.Error("failed to close audit shipper", "error", err)
		}
	}
	for _, rl := range bg.rateLimiters {
		rl.Stop()
	}
	slog.Info("all background services stopped")
}

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, db *sql.DB) (*gin.Engine, *BackgroundServices) {
	router := gin.New()

	// Initialize repositories
	assetRepo := repositories.NewAssetRepository(db)
	employeeRepo := repositories.NewEmployeeRepository(db)
	allocationRepo := repositories.NewAllocationRepository(db)
	auditRepo := repositories.NewAuditRepository(db)

	// Wrap *sql.DB with sqlx for the sqlx-based repositories
	sqlxDB := sqlx.NewDb(db, "postgres")
	maintenanceRepo := repositories.NewMaintenanceRepository(sqlxDB)
	noteRepo := repositories.NewAssetNoteRepository(sqlxDB)
	lookupRepo := repositories.NewLookupRepository(sqlxDB)
	paramRepo := repositories.NewParameterRepository(sqlxDB)

	// External audit destinations (file, webhook) on top of the database trail
	shipper, err := audit.NewMultiShipper(shipperConfigs(cfg.Audit.Shippers))
	if err != nil {
		log.Fatalf("Failed to initialize audit shippers: %v", err)
	}
	recorder := audit.NewRecorder(auditRepo, shipper)

	// Responsibility document generation. Without a renderer command the
	// generator falls back to plain-text documents.
	var renderer documents.Renderer
	if cfg.Documents.RendererCommand != "" {
		renderer = documents.NewCommandRenderer(cfg.Documents.RendererCommand, cfg.Documents.RenderTimeout)
		log.Printf("Document renderer: %s", cfg.Documents.RendererCommand)
	} else {
		log.Println("No document renderer configured, using plain-text fallback")
	}
	generator := documents.NewGenerator(paramRepo, renderer)

	// Email notifications are optional; when disabled, transfers skip the
	// best-effort delivery step and the reconciler never starts.
	var dispatcher *notifications.Dispatcher
	if cfg.Notifications.Enabled {
		mailer := notifications.NewSMTPMailer(cfg.Notifications.SMTP)
		dispatcher = notifications.NewDispatcher(mailer, paramRepo)
		log.Printf("Notifications enabled via %s:%d", cfg.Notifications.SMTP.Host, cfg.Notifications.SMTP.Port)
	}

	engineParams := allocation.Params{
		DB:              db,
		Assets:          assetRepo,
		Employees:       employeeRepo,
		Allocations:     allocationRepo,
		Maintenances:    maintenanceRepo,
		AuditLog:        auditRepo,
		Recorder:        recorder,
		Generator:       generator,
		DispatchTimeout: cfg.Notifications.DispatchTimeout,
	}
	if dispatcher != nil {
		engineParams.Dispatcher = dispatcher
	}
	engine := allocation.NewEngine(engineParams)

	// Retry delivery for allocations whose document never went out
	var reconciler *jobs.DocumentReconciler
	if dispatcher != nil {
		reconciler = jobs.NewDocumentReconciler(
			db, allocationRepo, assetRepo, employeeRepo,
			generator, dispatcher, &cfg.Notifications,
		)
		go reconciler.Start(context.Background())
		log.Println("Document reconciler started")
	}

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(LoggerMiddleware(cfg))
	router.Use(CORSMiddleware(cfg))
	router.Use(middleware.SecurityHeadersMiddleware(middleware.APISecurityHeadersConfig()))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db))

	// Readiness check endpoint
	router.GET("/ready", readinessHandler(db))

	// API version
	router.GET("/version", versionHandler())

	// Prometheus scrape endpoint on the main listener; a dedicated metrics
	// port can be served by cmd/server when telemetry.metrics.prometheus_port
	// is set.
	if cfg.Telemetry.Metrics.Enabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	// Handlers
	assetHandlers := assets.NewHandlers(assetRepo, maintenanceRepo, noteRepo, lookupRepo, engine, recorder)
	employeeHandlers := employees.NewHandlers(employeeRepo)
	auditHandlers := auditlog.NewHandlers(auditRepo)
	parameterHandlers := parameters.NewHandlers(paramRepo, recorder)

	bg := &BackgroundServices{
		documentReconciler: reconciler,
		auditShipper:       shipper,
	}

	api := router.Group("/api/v1")
	api.Use(middleware.IdentityMiddleware())
	api.Use(middleware.ReadAuditMiddleware(recorder, &cfg.Audit))

	var readLimit, writeLimit gin.HandlerFunc
	if cfg.Security.RateLimiting.Enabled {
		generalCfg := middleware.DefaultRateLimitConfig()
		if cfg.Security.RateLimiting.RequestsPerMinute > 0 {
			generalCfg.RequestsPerMinute = cfg.Security.RateLimiting.RequestsPerMinute
		}
		if cfg.Security.RateLimiting.Burst > 0 {
			generalCfg.BurstSize = cfg.Security.RateLimiting.Burst
		}
		generalLimiter := middleware.NewRateLimiter(generalCfg)
		writeLimiter := middleware.NewRateLimiter(middleware.WriteRateLimitConfig())
		bg.rateLimiters = append(bg.rateLimiters, generalLimiter, writeLimiter)

		readLimit = middleware.RateLimitMiddleware(generalLimiter)
		writeLimit = middleware.RateLimitMiddleware(writeLimiter)
	} else {
		passthrough := func(c *gin.Context) { c.Next() }
		readLimit, writeLimit = passthrough, passthrough
	}

	// Assets and custody operations
	api.POST("/assets", writeLimit, assetHandlers.CreateAssetHandler())
	api.GET("/assets", readLimit, assetHandlers.ListAssetsHandler())
	api.GET("/assets/:id", readLimit, assetHandlers.GetAssetHandler())
	api.DELETE("/assets/:id", writeLimit, assetHandlers.DeleteAssetHandler())
	api.POST("/assets/:id/allocation", writeLimit, assetHandlers.TransferHandler())
	api.POST("/transfers", writeLimit, assetHandlers.CreateTransferHandler())
	api.POST("/assets/:id/return", writeLimit, assetHandlers.ReturnHandler())
	api.GET("/assets/:id/history", readLimit, assetHandlers.HistoryHandler())
	api.POST("/assets/:id/maintenances", writeLimit, assetHandlers.CreateMaintenanceHandler())
	api.GET("/assets/:id/maintenances", readLimit, assetHandlers.ListMaintenancesHandler())
	api.POST("/assets/:id/notes", writeLimit, assetHandlers.CreateNoteHandler())
	api.GET("/assets/:id/notes", readLimit, assetHandlers.ListNotesHandler())
	api.GET("/lookups", readLimit, assetHandlers.LookupsHandler())

	// Employee directory (read-only)
	api.GET("/employees", readLimit, employeeHandlers.ListEmployeesHandler())
	api.GET("/employees/:id", readLimit, employeeHandlers.GetEmployeeHandler())

	// Audit trail (read-only, entries are appended server-side)
	api.GET("/audit", readLimit, auditHandlers.ListAuditHandler())
	api.GET("/audit/:id", readLimit, auditHandlers.GetAuditHandler())

	// Template and setting parameters
	api.GET("/parameters", readLimit, parameterHandlers.ListParametersHandler())
	api.PUT("/parameters/:key", writeLimit, parameterHandlers.UpsertParameterHandler())

	return router, bg
}

// shipperConfigs maps the flat YAML shipper entries onto the typed shipper
// configuration. Webhook auth tokens become a Bearer Authorization header.
func shipperConfigs(entries []config.ShipperConfig) []audit.ShipperConfig {
	configs := make([]audit.ShipperConfig, 0, len(entries))
	for _, e := range entries {
		if !e.Enabled {
			continue
		}
		cfg := audit.ShipperConfig{Enabled: true, Type: e.Type}
		switch e.Type {
		case "file":
			cfg.File = &audit.FileConfig{Path: e.Path}
		case "webhook":
			webhook := &audit.WebhookConfig{URL: e.URL}
			if e.AuthToken != "" {
				webhook.Headers = map[string]string{"Authorization": "Bearer " + e.AuthToken}
			}
			cfg.Webhook = webhook
		}
		configs = append(configs, cfg)
	}
	return configs
}

// @Summary      Health check
// @Description  Returns the health status of the service, including database connectivity.
// @Tags         System
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status: healthy, time: RFC3339 timestamp"
// @Failure      503  {object}  map[string]interface{}  "status: unhealthy, error: database connection failed"
// @Router       /health [get]
// healthCheckHandler returns the health status of the service
func healthCheckHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Check database connection
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "database connection failed",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// @Summary      Readiness check
// @Description  Returns whether the service is ready to accept traffic. Checks database connectivity.
// @Tags         System
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "ready: true, time: RFC3339 timestamp"
// @Failure      503  {object}  map[string]interface{}  "ready: false, error: database not ready"
// @Router       /ready [get]
// readinessHandler returns the readiness status of the service
func readinessHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		checks := gin.H{}

		// Check database connection
		if err := db.Ping(); err != nil {
			checks["database"] = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"ready":  false,
				"checks": checks,
				"error":  "database not ready",
			})
			return
		}
		checks["database"] = "healthy"

		c.JSON(http.StatusOK, gin.H{
			"ready":  true,
			"checks": checks,
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// @Summary      API version
// @Description  Returns the current API version.
// @Tags         System
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "version, api_version"
// @Router       /version [get]
// versionHandler returns the API version
func versionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":     "0.1.0",
			"api_version": "v1",
		})
	}
}

// LoggerMiddleware provides structured logging
func LoggerMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		// Log the request
		if cfg.Logging.Format == "json" {
			logJSON(c, latency, path, query)
		} else {
			logText(c, latency, path, query)
		}
	}
}

// logJSON logs a request as a JSON-structured slog record.
func logJSON(c *gin.Context, latency time.Duration, path, query string) {
	requestID, _ := c.Get(middleware.RequestIDKey)
	slog.LogAttrs(
		c.Request.Context(),
		slog.LevelInfo,
		"http request",
		slog.String("method", c.Request.Method),
		slog.String("path", path),
		slog.String("query", query),
		slog.Int("status", c.Writer.Status()),
		slog.Int("size", c.Writer.Size()),
		slog.Duration("latency", latency),
		slog.String("ip", c.ClientIP()),
		slog.String("request_id", fmt.Sprintf("%v", requestID)),
		slog.String("user_agent", c.Request.UserAgent()),
	)
}

// logText logs a request as a human-readable slog text record.
func logText(c *gin.Context, latency time.Duration, path, query string) {
	// reuse the same structured output; slog will emit text format when the global
	// handler is a TextHandler (configured in telemetry.SetupLogger).
	logJSON(c, latency, path, query)
}

// CORSMiddleware handles CORS
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		// Check if origin is allowed
		allowed := false
		for _, allowedOrigin := range cfg.Security.CORS.AllowedOrigins {
			if allowedOrigin == "*" || allowedOrigin == origin {
				allowed = true
				break
			}
		}

		if allowed {
			if origin == "" {
				c.Header("Access-Control-Allow-Origin", "*")
			} else {
				c.Header("Access-Control-Allow-Origin", origin)
			}
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Requested-With")
			c.Header("Access-Control-Max-Age", "3600")
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
