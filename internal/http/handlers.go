package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/medicure-service/internal/greeting"
	"github.com/kjstillabower/medicure-service/internal/idle"
	"github.com/kjstillabower/medicure-service/internal/lifecycle"
	"github.com/kjstillabower/medicure-service/internal/models"
	"github.com/kjstillabower/medicure-service/internal/observability"
	"github.com/kjstillabower/medicure-service/internal/overload"
	"github.com/kjstillabower/medicure-service/internal/traffic"
)

// Health statuses reported by GET /health.
const (
	StatusHealthy      = "healthy"
	StatusIdle         = "idle"
	StatusOverloaded   = "overloaded"
	StatusShuttingDown = "shutting-down"
)

// HealthConfig holds lifecycle thresholds for the health handler.
type HealthConfig struct {
	OverloadWindow         time.Duration
	OverloadThresholdPct   int
	RateLimitRPS           int // 0 when rate limiter disabled
	RateLimitBurst         int
	IdleWindow             time.Duration
	IdleThresholdReqPerMin int
	MinimumLifespan        time.Duration
	StartTime              time.Time
	// GRPCStatus, when set, reports the gRPC listener state for the checks map.
	GRPCStatus func() string
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	greeter          greeting.Greeter
	healthConfig     *HealthConfig
	logger           *zap.Logger
	rateLimiter      *rate.Limiter
	healthStatusMu   sync.Mutex
	healthStatusPrev string
}

// NewHandler returns a new Handler. healthConfig and rateLimiter may be nil.
func NewHandler(
	greeter greeting.Greeter,
	healthConfig *HealthConfig,
	logger *zap.Logger,
	rateLimiter *rate.Limiter,
) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		greeter:      greeter,
		healthConfig: healthConfig,
		logger:       logger,
		rateLimiter:  rateLimiter,
	}
}

// GetHello handles GET /hello.
func (h *Handler) GetHello(w http.ResponseWriter, r *http.Request) {
	idle.RecordRequest()
	msg := h.greeter.SayHello()
	observability.RecordGreeting(observability.TransportHTTP)
	observability.LoggerFromContext(r.Context()).Debug("greeting served", zap.String("transport", observability.TransportHTTP))
	writeJSON(w, http.StatusOK, models.Greeting{Message: msg})
}

// healthResult holds the computed health status and metadata for logging.
type healthResult struct {
	status     string
	statusCode int
	reason     string
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	result := h.computeHealthStatus(r.Context())

	h.healthStatusMu.Lock()
	prev := h.healthStatusPrev
	if prev != "" && prev != result.status {
		h.logger.Info("health status transition",
			zap.String("previous_status", prev),
			zap.String("current_status", result.status),
			zap.String("reason", result.reason))
	}
	h.healthStatusPrev = result.status
	h.healthStatusMu.Unlock()
	observability.SetHealthStatus(result.status)

	checks := map[string]string{"greeter": "healthy"}
	if h.greeter.SayHello() == "" {
		checks["greeter"] = "unhealthy"
	}
	if h.healthConfig != nil && h.healthConfig.GRPCStatus != nil {
		checks["grpc"] = h.healthConfig.GRPCStatus()
	}
	writeJSON(w, result.statusCode, models.Health{
		Status:    result.status,
		Service:   observability.ServiceName,
		Version:   observability.Version,
		Checks:    checks,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// computeHealthStatus evaluates conditions in priority order:
// shutting-down > overloaded > idle > healthy.
func (h *Handler) computeHealthStatus(_ context.Context) healthResult {
	if lifecycle.IsShuttingDown() {
		return healthResult{StatusShuttingDown, http.StatusServiceUnavailable, "signal"}
	}
	if h.healthConfig == nil {
		return healthResult{StatusHealthy, http.StatusOK, ""}
	}
	cfg := h.healthConfig
	if overload.IsOverloaded(cfg.RateLimitRPS, cfg.OverloadWindow, cfg.OverloadThresholdPct) {
		return healthResult{StatusOverloaded, http.StatusServiceUnavailable, "overload_threshold"}
	}
	// Idle is informational: the instance still serves, so 200.
	if idle.IsIdle(cfg.StartTime, cfg.MinimumLifespan, cfg.IdleWindow, cfg.IdleThresholdReqPerMin) {
		return healthResult{StatusIdle, http.StatusOK, "low_traffic"}
	}
	return healthResult{StatusHealthy, http.StatusOK, ""}
}

// writeJSON writes v as JSON with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes the standard error envelope, tagging it with the request correlation ID.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, models.ErrorBody{Error: models.ErrorDetail{
		Code:      code,
		Message:   message,
		RequestID: observability.CorrelationIDFromContext(r.Context()),
	}})
}

// GetTestStatus handles GET /test. Returns the current simulated state.
func (h *Handler) GetTestStatus(w http.ResponseWriter, r *http.Request) {
	window := 60 * time.Second
	cfg := make(map[string]interface{})
	if h.healthConfig != nil {
		if h.healthConfig.OverloadWindow > 0 {
			window = h.healthConfig.OverloadWindow
		}
		cfg["rate_limit_rps"] = h.healthConfig.RateLimitRPS
		cfg["rate_limit_burst"] = h.healthConfig.RateLimitBurst
		cfg["overload_threshold"] = int(overload.Threshold(h.healthConfig.RateLimitRPS, h.healthConfig.OverloadWindow, h.healthConfig.OverloadThresholdPct))
		cfg["overload_window_seconds"] = h.healthConfig.OverloadWindow.Seconds()
		cfg["idle_threshold_req_per_min"] = h.healthConfig.IdleThresholdReqPerMin
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total_requests_in_window":  overload.RequestCount(window),
		"denied_requests_in_window": overload.DenialCount(window),
		"window_length":             window.String(),
		"shutting_down":             lifecycle.IsShuttingDown(),
		"config":                    cfg,
	})
}

// PostTestAction handles POST /test/{action} for load, reset and shutdown.
func (h *Handler) PostTestAction(w http.ResponseWriter, r *http.Request) {
	action := mux.Vars(r)["action"]
	switch action {
	case "load":
		h.postTestLoad(w, r)
	case "reset":
		h.postTestReset(w, r)
	case "shutdown":
		h.postTestShutdown(w, r)
	default:
		writeError(w, r, http.StatusNotFound, "UNKNOWN_ACTION", "unknown test action: "+action)
	}
}

// MaxTestLoadCount bounds POST /test/load; every unit is held in the traffic window.
const MaxTestLoadCount = 10000

// postTestLoad records synthetic greeting traffic through the rate limiter, if configured.
func (h *Handler) postTestLoad(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Count <= 0 {
		body.Count = 10
	}
	if body.Count > MaxTestLoadCount {
		writeError(w, r, http.StatusBadRequest, "INVALID_COUNT",
			"count must be at most "+strconv.Itoa(MaxTestLoadCount))
		return
	}
	var accepted, denied int
	if h.rateLimiter != nil {
		for i := 0; i < body.Count; i++ {
			if h.rateLimiter.Allow() {
				accepted++
			} else {
				overload.RecordDenial()
				observability.RecordRateLimitDenied(observability.TransportHTTP)
				denied++
			}
		}
	} else {
		accepted = body.Count
	}
	traffic.RecordAcceptedN(accepted)

	result := h.computeHealthStatus(r.Context())
	msg := "Recorded " + strconv.Itoa(accepted) + " accepted"
	if denied > 0 {
		msg += ", " + strconv.Itoa(denied) + " denied"
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":       true,
		"action":   "load",
		"message":  msg,
		"state":    result.status,
		"accepted": accepted,
		"denied":   denied,
	})
}

// postTestReset clears simulated traffic and the shutdown flag.
func (h *Handler) postTestReset(w http.ResponseWriter, r *http.Request) {
	traffic.Reset()
	lifecycle.SetShuttingDown(false)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":      true,
		"action":  "reset",
		"message": "All simulated state cleared",
	})
}

// postTestShutdown sets the shutdown flag without stopping the process.
func (h *Handler) postTestShutdown(w http.ResponseWriter, r *http.Request) {
	lifecycle.SetShuttingDown(true)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":      true,
		"action":  "shutdown",
		"message": "Shutting-down flag set",
	})
}
