package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/chancov/WebAppMiningGameTG/internal/repository"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
)

// probe is one dependency the readiness check pings. Only critical probes can
// take the instance out of rotation.
type probe struct {
	name     string
	critical bool
	ping     func(ctx context.Context) error
}

// HealthHandler serves liveness and readiness for the economy API.
type HealthHandler struct {
	probes    []probe
	startTime time.Time
	version   string
}

// NewHealthHandler creates a new health handler. redis may be nil.
func NewHealthHandler(store repository.Store, rdb *redis.Client, version string) *HealthHandler {
	h := &HealthHandler{
		probes:    []probe{{name: "ledger", critical: true, ping: store.Ping}},
		startTime: time.Now(),
		version:   version,
	}
	// Rate limiting and the leaderboard cache both work without redis.
	if rdb != nil {
		h.probes = append(h.probes, probe{
			name: "redis",
			ping: func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		})
	}
	return h
}

// CheckResult is the outcome of one probe.
type CheckResult struct {
	Status    string `json:"status"`
	LatencyMS int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

// ReadinessResponse is the /readyz body.
type ReadinessResponse struct {
	Status     string                 `json:"status"`
	Version    string                 `json:"version,omitempty"`
	Uptime     string                 `json:"uptime"`
	Goroutines int                    `json:"goroutines"`
	HeapMB     uint64                 `json:"heap_mb"`
	Checks     map[string]CheckResult `json:"checks"`
}

// Liveness returns simple alive status (for k8s liveness probe)
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness pings every dependency and fails only when a critical one is down.
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	resp := ReadinessResponse{
		Status:     "ready",
		Version:    h.version,
		Uptime:     time.Since(h.startTime).Round(time.Second).String(),
		Goroutines: runtime.NumGoroutine(),
		Checks:     make(map[string]CheckResult, len(h.probes)),
	}
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	resp.HeapMB = m.HeapAlloc >> 20

	code := http.StatusOK
	for _, p := range h.probes {
		res := runProbe(ctx, p)
		resp.Checks[p.name] = res
		if res.Status == "down" {
			resp.Status = "not_ready"
			code = http.StatusServiceUnavailable
		}
	}
	c.JSON(code, resp)
}

func runProbe(ctx context.Context, p probe) CheckResult {
	start := time.Now()
	err := p.ping(ctx)
	res := CheckResult{Status: "up", LatencyMS: time.Since(start).Milliseconds()}
	if err == nil {
		return res
	}
	res.Error = err.Error()
	res.Status = "degraded"
	if p.critical {
		res.Status = "down"
	}
	return res
}

// Health is the cheap check used by the webapp and load balancers: the ledger
// store must answer.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if res := runProbe(ctx, h.probes[0]); res.Status != "up" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": "ledger store unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": h.version})
}
