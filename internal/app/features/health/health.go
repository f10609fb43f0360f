// internal/app/features/health/health.go
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/dalemusser/stratafight/internal/app/store/apistats"
	"github.com/dalemusser/stratafight/internal/app/system/jsonutil"
	"github.com/dalemusser/stratafight/internal/app/system/tasks"
	"github.com/dalemusser/stratafight/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Handler provides health check endpoints.
type Handler struct {
	mongoClient *mongo.Client
	runner      *tasks.Runner
	stats       *apistats.Store
	logger      *zap.Logger
}

// NewHandler creates a new health check Handler. runner and stats may be
// nil; their sections are then omitted from /health.
func NewHandler(mongoClient *mongo.Client, runner *tasks.Runner, stats *apistats.Store, logger *zap.Logger) *Handler {
	return &Handler{
		mongoClient: mongoClient,
		runner:      runner,
		stats:       stats,
		logger:      logger,
	}
}

// Response is the data part of the /health envelope.
type Response struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services,omitempty"`
	Jobs     []tasks.JobStatus `json:"jobs,omitempty"`
	// Requests summarizes API traffic over the last 24 hours.
	Requests []apistats.Summary `json:"requests_24h,omitempty"`
}

// Routes returns a chi.Router with health check routes mounted.
// Provides /health (full check), /health/ready, and /health/live.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.Check)
	r.Get("/ready", h.Ready)
	r.Get("/live", h.Live)
	return r
}

// MountRootEndpoints adds the probe aliases /ready, /readyz and /livez on
// the root router.
func MountRootEndpoints(r chi.Router, h *Handler) {
	r.Get("/ready", h.Ready)
	r.Get("/readyz", h.Ready)
	r.Get("/livez", h.Live)
}

func (h *Handler) ping(ctx context.Context) error {
	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Ping(), h.logger, "mongodb ping")
	defer cancel()
	return h.mongoClient.Ping(ctx, readpref.Primary())
}

// Check reports database connectivity and background job state.
//
// Response (200 OK, 503 when degraded):
//
//	{"success": true, "data": {"status": "ok", "services": {"mongodb": "ok"}, "jobs": [...], "requests_24h": [...]}}
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	resp := Response{
		Status:   "ok",
		Services: make(map[string]string),
	}

	if err := h.ping(r.Context()); err != nil {
		resp.Status = "degraded"
		resp.Services["mongodb"] = "unavailable"
		h.logger.Warn("health check: mongodb ping failed", zap.Error(err))
	} else {
		resp.Services["mongodb"] = "ok"
	}
	if h.runner != nil {
		resp.Jobs = h.runner.Status()
	}
	if h.stats != nil && resp.Services["mongodb"] == "ok" {
		sums, err := h.stats.Summarize(r.Context(), time.Now().Add(-24*time.Hour))
		if err != nil {
			h.logger.Warn("health check: api stats unavailable", zap.Error(err))
		}
		resp.Requests = sums
	}

	if resp.Status != "ok" {
		jsonutil.JSON(w, http.StatusServiceUnavailable, jsonutil.Envelope{Success: false, Message: "Service degraded.", Data: resp})
		return
	}
	jsonutil.OK(w, "", resp)
}

// Ready answers readiness probes: 200 once MongoDB answers a ping.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if err := h.ping(r.Context()); err != nil {
		h.logger.Warn("readiness check failed", zap.Error(err))
		jsonutil.Error(w, http.StatusServiceUnavailable, "NOT_READY", "not ready")
		return
	}
	jsonutil.OK(w, "", map[string]string{"status": "ready"})
}

// Live answers liveness probes without touching dependencies.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	jsonutil.OK(w, "", map[string]string{"status": "alive"})
}
