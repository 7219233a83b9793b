// Package router provides HTTP routing, middleware configuration, and server setup for the web application
package router

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/compress"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/helmet"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/keithamus/tickrs/app/dto"
	"github.com/keithamus/tickrs/app/handlers"
	"github.com/keithamus/tickrs/app/middleware"
	"github.com/keithamus/tickrs/config"
	"github.com/keithamus/tickrs/utils"
)

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>tickrs</title>
</head>
<body>
<h1>tickrs</h1>
<p>Increment and retrieve a number.</p>
<ul>
<li><code>POST /c</code> create a counter</li>
<li><code>GET /c/{id}</code> read it</li>
<li><code>GET /c+/{id}</code> hit it (increment, creating on first hit)</li>
<li><code>POST /g</code> create a gauge, <code>GET /g+/{id}</code> and <code>GET /g-/{id}</code> move it</li>
</ul>
<p>Append <code>.txt</code>, <code>.json</code>, <code>.svg</code>, <code>.png</code> or <code>.gif</code> to any read or hit URL to pick the response format.</p>
</body>
</html>`

// Router interface for HTTP routing
type Router interface {
	SetupRoutes()
	Start(address string) error
	GetApp() *fiber.App
}

// FiberRouter implements Router using Fiber v3
type FiberRouter struct {
	app            *fiber.App
	cfg            *config.ProductionConfig
	counterHandler handlers.CounterHandlerInterface
	gaugeHandler   handlers.GaugeHandlerInterface
	statsHandler   handlers.StatsHandlerInterface
}

// NewFiberRouter creates a new Fiber router
func NewFiberRouter(
	cfg *config.ProductionConfig,
	counterHandler handlers.CounterHandlerInterface,
	gaugeHandler handlers.GaugeHandlerInterface,
	statsHandler handlers.StatsHandlerInterface,
) Router {
	app := fiber.New(fiber.Config{
		AppName:      "tickrs",
		ServerHeader: "tickrs",
		ErrorHandler: errorHandler,
		BodyLimit:    cfg.Server.BodyLimit,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	})

	return &FiberRouter{
		app:            app,
		cfg:            cfg,
		counterHandler: counterHandler,
		gaugeHandler:   gaugeHandler,
		statsHandler:   statsHandler,
	}
}

// SetupRoutes configures all application routes
func (r *FiberRouter) SetupRoutes() {
	log.Println("Setting up routes...")

	// Global middleware
	r.setupMiddleware()

	// Static surface
	r.app.Get("/", r.index)
	r.app.Get("/favicon.ico", handlers.Favicon)
	r.app.Get("/_h", r.healthCheck)

	// Aggregate stats
	r.app.Get("/_total", r.statsHandler.Total)
	r.app.Get("/_highest", r.statsHandler.Highest)

	// Prometheus exposition for the service itself
	if r.cfg.Metrics.Enabled {
		r.app.Get(r.cfg.Metrics.Path, adaptor.HTTPHandler(promhttp.Handler()))
	}

	adminGuard := middleware.RequireAPIKey(r.cfg.Security.APIKeyHeader, r.cfg.Security.AllowedAPIKeys)

	// Counter routes. The ".:ext" variants must be registered before the
	// plain ":id" ones so "abc.svg" is split rather than taken as an id.
	// The plus in the hit paths is escaped: a bare + is a route wildcard in
	// Fiber and would swallow the metrics routes and arbitrary /cX/Y paths.
	r.app.Post("/c", r.counterHandler.New)
	r.app.Get("/c\\+/:id.:ext", r.counterHandler.HitExt)
	r.app.Get("/c\\+/:id", r.counterHandler.Hit)
	r.app.Get("/c/:id/metrics", r.counterHandler.RowMetrics)
	r.app.Get("/c/:id.:ext", r.counterHandler.GetExt)
	r.app.Get("/c/:id", r.counterHandler.Get)
	r.app.Post("/c/:id", r.counterHandler.Increment)
	r.app.Put("/c/:id", r.counterHandler.Provision)
	r.app.Delete("/c/:id", r.counterHandler.Delete, adminGuard)

	// Gauge routes
	r.app.Post("/g", r.gaugeHandler.New)
	r.app.Get("/g\\+/:id.:ext", r.gaugeHandler.HitUpExt)
	r.app.Get("/g\\+/:id", r.gaugeHandler.HitUp)
	r.app.Get("/g-/:id.:ext", r.gaugeHandler.HitDownExt)
	r.app.Get("/g-/:id", r.gaugeHandler.HitDown)
	r.app.Post("/g-/:id", r.gaugeHandler.HitDown)
	r.app.Get("/g/:id/metrics", r.gaugeHandler.RowMetrics)
	r.app.Get("/g/:id.:ext", r.gaugeHandler.GetExt)
	r.app.Get("/g/:id", r.gaugeHandler.Get)
	r.app.Post("/g/:id", r.gaugeHandler.Increment)
	r.app.Put("/g/:id", r.gaugeHandler.Provision)
	r.app.Delete("/g/:id", r.gaugeHandler.Delete, adminGuard)

	// Not found handler
	r.app.Use(r.notFoundHandler)

	log.Println("Routes configured successfully")
}

// setupMiddleware configures global middleware
func (r *FiberRouter) setupMiddleware() {
	// Request ID middleware - must be first
	r.app.Use(requestid.New(requestid.Config{
		Header: "X-Request-ID",
		Generator: func() string {
			return generateRequestID()
		},
	}))

	// Security headers middleware. The counter URLs are meant to be embedded
	// in third-party pages, so frames and cross-origin resources stay open.
	r.app.Use(helmet.New(helmet.Config{
		XSSProtection:             "1; mode=block",
		ContentTypeNosniff:        "nosniff",
		ReferrerPolicy:            "strict-origin-when-cross-origin",
		CrossOriginResourcePolicy: "cross-origin",
		XDNSPrefetchControl:       "off",
	}))

	// CORS middleware; the public API is origin-agnostic by default
	r.app.Use(cors.New(cors.Config{
		AllowOrigins:  r.cfg.Security.AllowedOrigins,
		AllowMethods:  r.cfg.Security.AllowedMethods,
		AllowHeaders:  r.cfg.Security.AllowedHeaders,
		ExposeHeaders: []string{"X-Request-ID", "Last-Modified"},
		MaxAge:        r.cfg.Security.CORSMaxAge,
	}))

	// Compression middleware for performance
	r.app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
		Next: func(c fiber.Ctx) bool {
			// The pixel assets are already as small as they get
			path := c.Path()
			return strings.HasSuffix(path, ".png") ||
				strings.HasSuffix(path, ".jpg") ||
				strings.HasSuffix(path, ".gif") ||
				path == "/favicon.ico"
		},
	}))

	// General rate limiting by client IP
	r.app.Use(limiter.New(limiter.Config{
		Max:        r.cfg.Security.GlobalRateLimit,
		Expiration: r.cfg.Security.RateLimitWindow,
		KeyGenerator: func(c fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.APIResponse{
				Success: false,
				Message: "Too many requests. Please try again later.",
				Error: dto.ErrorDetail{
					Code: "RATE_LIMIT_EXCEEDED",
				},
			})
		},
		Next: func(c fiber.Ctx) bool {
			// Never throttle health checks
			return c.Path() == "/_h"
		},
	}))

	// Advanced logging middleware
	r.app.Use(logger.New(logger.Config{
		Format:     `{"time":"${time}","pid":"${pid}","request_id":"${locals:requestid}","level":"info","method":"${method}","path":"${path}","protocol":"${protocol}","ip":"${ip}","user_agent":"${ua}","status":${status},"latency":"${latency}","bytes_in":${bytesReceived},"bytes_out":${bytesSent},"referer":"${referer}"}` + "\n",
		TimeFormat: time.RFC3339,
		TimeZone:   "UTC",
		Next: func(c fiber.Ctx) bool {
			// Skip logging for health checks in production
			return c.Path() == "/_h"
		},
	}))

	// Request duration and count metrics
	if r.cfg.Metrics.Enabled {
		r.app.Use(middleware.Metrics())
	}

	// Recovery middleware with custom error handling
	r.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c fiber.Ctx, e interface{}) {
			// Log panic with request context
			log.Printf(`{"time":"%s","level":"error","request_id":"%s","event":"panic","error":"%v","path":"%s","method":"%s","ip":"%s"}`,
				utils.UTCNow().Format(time.RFC3339),
				c.Locals("requestid"),
				e,
				c.Path(),
				c.Method(),
				c.IP(),
			)
		},
	}))
}

// Start starts the HTTP server
func (r *FiberRouter) Start(address string) error {
	log.Printf("Starting server on %s", address)
	return r.app.Listen(address)
}

// GetApp returns the Fiber app instance
func (r *FiberRouter) GetApp() *fiber.App {
	return r.app
}

func (r *FiberRouter) index(c fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.SendString(indexHTML)
}

// Health check endpoint
func (r *FiberRouter) healthCheck(c fiber.Ctx) error {
	return c.JSON(dto.APIResponse{
		Success: true,
		Message: "Service is healthy",
		Data: fiber.Map{
			"status":    "ok",
			"timestamp": utils.UTCNow().Unix(),
			"version":   r.cfg.Deployment.Version,
			"commit":    r.cfg.Deployment.CommitHash,
			"service":   "tickrs",
		},
	})
}

// Not found handler
func (r *FiberRouter) notFoundHandler(c fiber.Ctx) error {
	requestID := c.Locals("requestid")

	return c.Status(fiber.StatusNotFound).JSON(dto.APIResponse{
		Success: false,
		Message: "The requested resource was not found",
		Error: dto.ErrorDetail{
			Code: "NOT_FOUND",
			Details: fiber.Map{
				"path":       c.Path(),
				"method":     c.Method(),
				"request_id": requestID,
			},
		},
	})
}

// Global error handler
func errorHandler(c fiber.Ctx, err error) error {
	// Default error code
	code := fiber.StatusInternalServerError

	// Retrieve the custom status code if it's a fiber.*Error
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	// Log the error
	log.Printf("Error %d: %v", code, err)

	// Get RequestID for tracing
	requestID := c.Locals("requestid")

	// Return JSON error response
	return c.Status(code).JSON(dto.APIResponse{
		Success: false,
		Message: "An internal server error occurred",
		Error: dto.ErrorDetail{
			Code: "INTERNAL_ERROR",
			Details: fiber.Map{
				"timestamp":  utils.UTCNow().Unix(),
				"request_id": requestID,
			},
		},
	})
}

// Helper functions

// generateRequestID creates a unique request ID
func generateRequestID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}
