package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-ledger-api/internal/repository"
	"github.com/noah-isme/campus-ledger-api/internal/service"
	"github.com/noah-isme/campus-ledger-api/pkg/response"
)

// MetricsHandler serves probes, the Prometheus scrape endpoint and the JSON
// runtime summary.
type MetricsHandler struct {
	metrics *service.MetricsService
	dir     *repository.Directory
	started time.Time
}

// NewMetricsHandler constructs a metrics handler. metrics may be nil when
// instrumentation is disabled.
func NewMetricsHandler(metrics *service.MetricsService, dir *repository.Directory) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, dir: dir, started: time.Now()}
}

// Prometheus serves the text exposition format.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health is the liveness probe.
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "uptime_seconds": int64(time.Since(h.started).Seconds())})
}

// Ready reports whether the directory is mounted and how much it holds.
func (h *MetricsHandler) Ready(c *gin.Context) {
	if h.dir == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "directory": h.dir.Snapshot()})
}

// Summary godoc
// @Summary Runtime summary
// @Tags Metrics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /metrics/summary [get]
func (h *MetricsHandler) Summary(c *gin.Context) {
	payload := gin.H{"metrics": h.metrics.Snapshot(), "metrics_enabled": h.metrics != nil}
	if h.dir != nil {
		payload["directory"] = h.dir.Snapshot()
	}
	response.JSON(c, http.StatusOK, payload, nil)
}
