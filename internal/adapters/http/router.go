package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/brianfending/contact-service/internal/adapters/http/dto"
	"github.com/brianfending/contact-service/internal/adapters/http/handlers"
	"github.com/brianfending/contact-service/internal/adapters/http/middleware"
	"github.com/brianfending/contact-service/internal/platform/config"
	"github.com/brianfending/contact-service/internal/platform/telemetry"
)

// DefaultRequestTimeout bounds a contact submission end to end.
const DefaultRequestTimeout = 25 * time.Second

// RouterConfig contains configuration for setting up the router.
type RouterConfig struct {
	Logger *slog.Logger

	AppConfig *config.AppConfig

	// HealthHandler serves /-/ routes. Optional.
	HealthHandler *handlers.HealthHandler

	// ContactHandler serves /api/contact. Optional.
	ContactHandler *handlers.ContactHandler

	// Timeout bounds /api requests. Zero disables it.
	Timeout time.Duration

	// CORSOrigins may call the API from a browser. Empty serves same-origin
	// callers only.
	CORSOrigins []string

	// PanicHooks run after a handler panic is recovered.
	PanicHooks []middleware.PanicHook
}

// SetupRouter configures all routes and middleware on the Gin engine.
// Middleware is applied in the following order (first to last):
//  1. Recovery - catch panics first
//  2. Security headers - set before any handler writes
//  3. Request ID - generate/extract request ID
//  4. Correlation ID - handle distributed tracing correlation
//  5. OpenTelemetry - tracing and metrics
//  6. Logging - request logging
//  7. CORS - only when origins are configured
//  8. Timeout - request deadline on /api only
//
// Route groups:
//   - /-/ (internal): health, build info and metrics
//   - /api/ (public): the contact form
func SetupRouter(engine *gin.Engine, cfg RouterConfig) {
	global := gin.HandlersChain{
		middleware.Recovery(cfg.Logger, cfg.PanicHooks...),
		middleware.SecurityHeaders(),
		middleware.RequestID(),
		middleware.CorrelationID(),
	}
	global = append(global, telemetry.Middleware(cfg.AppConfig.Name)...)
	global = append(global, middleware.Logging(cfg.Logger))

	if len(cfg.CORSOrigins) > 0 {
		global = append(global, middleware.CORS(cfg.CORSOrigins))
	}

	engine.Use(global...)
	engine.NoRoute(notFound)

	// Operational routes are not subject to the request timeout.
	if cfg.HealthHandler != nil {
		cfg.HealthHandler.Register(engine)
	}

	api := engine.Group("/api")
	if cfg.Timeout > 0 {
		api.Use(middleware.Timeout(cfg.Timeout))
	}

	if cfg.ContactHandler != nil {
		cfg.ContactHandler.RegisterRoutes(api)
	}
}

// NewDefaultRouterConfig creates a RouterConfig using the server's request timeout.
func NewDefaultRouterConfig(
	logger *slog.Logger,
	appCfg *config.AppConfig,
	serverCfg *config.ServerConfig,
	healthHandler *handlers.HealthHandler,
	contactHandler *handlers.ContactHandler,
) RouterConfig {
	timeout := DefaultRequestTimeout

	var origins []string
	if serverCfg != nil {
		if serverCfg.RequestTimeout > 0 {
			timeout = serverCfg.RequestTimeout
		}

		origins = serverCfg.CORSOrigins
	}

	return RouterConfig{
		Logger:         logger,
		AppConfig:      appCfg,
		HealthHandler:  healthHandler,
		ContactHandler: contactHandler,
		Timeout:        timeout,
		CORSOrigins:    origins,
	}
}

func notFound(c *gin.Context) {
	dto.AbortWithMessage(c, http.StatusNotFound, dto.MessageNotFound)
}
