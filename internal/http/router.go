package http

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/medicure-service/internal/observability"
)

// RouterConfig selects optional routes and middleware.
type RouterConfig struct {
	RequestTimeout time.Duration
	Limiter        *rate.Limiter // nil disables rate limiting
	TestingMode    bool          // exposes /test endpoints
}

// NewRouter wires routes and middleware around h.
// /hello is rate limited and time-bounded; /health and /metrics are not.
func NewRouter(h *Handler, logger *zap.Logger, cfg RouterConfig) *mux.Router {
	router := mux.NewRouter()
	// mux skips middleware for these, so tag them with a correlation ID here.
	router.NotFoundHandler = CorrelationIDMiddleware(logger)(http.HandlerFunc(notFound))
	router.MethodNotAllowedHandler = CorrelationIDMiddleware(logger)(http.HandlerFunc(methodNotAllowed))
	router.Use(CorrelationIDMiddleware(logger))
	router.Use(MetricsMiddleware)
	router.HandleFunc("/health", h.GetHealth).Methods("GET")
	router.Handle("/metrics", observability.MetricsHandler()).Methods("GET")

	helloRouter := router.PathPrefix("/hello").Subrouter()
	helloRouter.Use(RateLimitMiddleware(cfg.Limiter))
	if cfg.RequestTimeout > 0 {
		helloRouter.Use(TimeoutMiddleware(cfg.RequestTimeout))
	}
	helloRouter.HandleFunc("", h.GetHello).Methods("GET")

	if cfg.TestingMode {
		logger.Warn("testing mode enabled; /test endpoint exposed")
		router.HandleFunc("/test", h.GetTestStatus).Methods("GET")
		router.HandleFunc("/test/{action}", h.PostTestAction).Methods("POST")
	}
	return router
}

func notFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusNotFound, "NOT_FOUND", "no route for "+r.URL.Path)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", r.Method+" not allowed on "+r.URL.Path)
}
