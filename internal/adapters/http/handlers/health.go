// Package handlers provides HTTP request handlers for the service.
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/brianfending/contact-service/internal/platform/logging"
	"github.com/brianfending/contact-service/internal/ports"
)

// OpsPrefix is the route group for liveness, readiness, build info and metrics.
const OpsPrefix = "/-"

// readyTimeout caps one readiness check so a hung sink cannot stall it.
const readyTimeout = 3 * time.Second

// BuildInfo identifies the running binary. Version, Commit and BuildTime
// come from ldflags.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
}

// NewBuildInfo fills in the Go version of the running binary.
func NewBuildInfo(version, commit, buildTime string) BuildInfo {
	return BuildInfo{Version: version, Commit: commit, BuildTime: buildTime, GoVersion: runtime.Version()}
}

// HealthHandler serves the operational endpoints.
type HealthHandler struct {
	registry ports.HealthRegistry
	build    BuildInfo
	metrics  http.Handler
}

// NewHealthHandler wires the sink health registry and the metrics gatherer.
// A nil gatherer serves prometheus.DefaultGatherer.
func NewHealthHandler(registry ports.HealthRegistry, build BuildInfo, gatherer prometheus.Gatherer) *HealthHandler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	return &HealthHandler{
		registry: registry,
		build:    build,
		metrics:  promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}),
	}
}

// Register mounts GET live, ready, build and metrics under OpsPrefix.
func (h *HealthHandler) Register(r gin.IRouter) {
	ops := r.Group(OpsPrefix)
	ops.GET("/live", h.Live)
	ops.GET("/ready", h.Ready)
	ops.GET("/build", h.Build)
	ops.GET("/metrics", gin.WrapH(h.metrics))
}

// Live reports that the process is serving. It never calls a downstream.
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type readiness struct {
	Status string                        `json:"status"`
	Checks map[string]*ports.CheckResult `json:"checks,omitempty"`
}

// Ready checks every sink and logs each failure cause; the body carries
// only a generic message. One reachable sink is enough to accept
// inquiries, so degraded answers 200 and only unhealthy answers 503.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
	defer cancel()

	result := h.registry.CheckAll(ctx)

	logger := logging.FromContext(c.Request.Context())
	for name, check := range result.Checks {
		if check.Err != nil {
			logger.LogAttrs(ctx, slog.LevelWarn, "readiness check failed",
				slog.String("check", name),
				slog.Any("error", check.Err),
			)
		}
	}

	code := http.StatusOK
	if result.Status == ports.HealthStatusUnhealthy {
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, readiness{Status: string(result.Status), Checks: result.Checks})
}

// Build reports the build metadata.
func (h *HealthHandler) Build(c *gin.Context) {
	c.JSON(http.StatusOK, h.build)
}
