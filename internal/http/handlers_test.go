package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/medicure-service/internal/greeting"
	"github.com/kjstillabower/medicure-service/internal/idle"
	"github.com/kjstillabower/medicure-service/internal/lifecycle"
	"github.com/kjstillabower/medicure-service/internal/models"
	"github.com/kjstillabower/medicure-service/internal/overload"
	"github.com/kjstillabower/medicure-service/internal/traffic"
)

type stubGreeter struct {
	msg string
}

func (s stubGreeter) SayHello() string {
	return s.msg
}

func resetState(t *testing.T) {
	t.Helper()
	traffic.Reset()
	lifecycle.SetShuttingDown(false)
	t.Cleanup(func() {
		traffic.Reset()
		lifecycle.SetShuttingDown(false)
	})
}

// TestHandler_GetHello_Success verifies GET /hello returns the Doctor greeting.
func TestHandler_GetHello_Success(t *testing.T) {
	resetState(t)
	handler := NewHandler(greeting.NewDoctorService(), nil, zap.NewNop(), nil)

	req := httptest.NewRequest("GET", "/hello", nil)
	w := httptest.NewRecorder()
	handler.GetHello(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("GetHello() status = %d, want %d", w.Code, http.StatusOK)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	var resp models.Greeting
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Message != "Hello from Doctor Shubham" {
		t.Errorf("Response.Message = %q, want %q", resp.Message, "Hello from Doctor Shubham")
	}
}

// TestHandler_GetHello_UsesInjectedGreeter verifies the handler does not hardcode the message.
func TestHandler_GetHello_UsesInjectedGreeter(t *testing.T) {
	resetState(t)
	handler := NewHandler(stubGreeter{msg: "stub"}, nil, nil, nil)

	w := httptest.NewRecorder()
	handler.GetHello(w, httptest.NewRequest("GET", "/hello", nil))

	var resp models.Greeting
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Message != "stub" {
		t.Errorf("Response.Message = %q, want stub", resp.Message)
	}
}

func TestHandler_GetHello_RecordsIdleRequest(t *testing.T) {
	resetState(t)
	handler := NewHandler(greeting.NewDoctorService(), nil, nil, nil)

	for i := 0; i < 3; i++ {
		handler.GetHello(httptest.NewRecorder(), httptest.NewRequest("GET", "/hello", nil))
	}
	if n := idle.RequestCount(time.Minute); n != 3 {
		t.Errorf("idle.RequestCount() = %d, want 3", n)
	}
}

func TestHandler_GetHealth(t *testing.T) {
	longAgo := time.Now().Add(-time.Hour)
	busy := &HealthConfig{
		RateLimitRPS:           1,
		OverloadWindow:         10 * time.Second,
		OverloadThresholdPct:   50,
		IdleWindow:             time.Minute,
		IdleThresholdReqPerMin: 5,
		MinimumLifespan:        time.Millisecond,
		StartTime:              longAgo,
	}
	quiet := &HealthConfig{
		RateLimitRPS:           100,
		OverloadWindow:         60 * time.Second,
		OverloadThresholdPct:   80,
		IdleWindow:             time.Minute,
		IdleThresholdReqPerMin: 5,
		MinimumLifespan:        time.Millisecond,
		StartTime:              longAgo,
	}
	young := *quiet
	young.MinimumLifespan = time.Hour
	young.StartTime = time.Now()

	tests := []struct {
		name       string
		cfg        *HealthConfig
		requests   int
		shutdown   bool
		wantStatus string
		wantCode   int
	}{
		{"no config is healthy", nil, 0, false, StatusHealthy, http.StatusOK},
		{"shutting down wins", busy, 100, true, StatusShuttingDown, http.StatusServiceUnavailable},
		{"overloaded", busy, 6, false, StatusOverloaded, http.StatusServiceUnavailable},
		{"idle after minimum lifespan", quiet, 1, false, StatusIdle, http.StatusOK},
		{"not idle within minimum lifespan", &young, 0, false, StatusHealthy, http.StatusOK},
		{"healthy with traffic", quiet, 5, false, StatusHealthy, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetState(t)
			traffic.RecordAcceptedN(tt.requests)
			lifecycle.SetShuttingDown(tt.shutdown)

			handler := NewHandler(greeting.NewDoctorService(), tt.cfg, zap.NewNop(), nil)
			w := httptest.NewRecorder()
			handler.GetHealth(w, httptest.NewRequest("GET", "/health", nil))

			if w.Code != tt.wantCode {
				t.Errorf("GetHealth() status = %d, want %d", w.Code, tt.wantCode)
			}
			var resp models.Health
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if resp.Status != tt.wantStatus {
				t.Errorf("Response.Status = %q, want %q", resp.Status, tt.wantStatus)
			}
			if resp.Service != "medicure-service" {
				t.Errorf("Response.Service = %q, want medicure-service", resp.Service)
			}
			if resp.Checks["greeter"] != "healthy" {
				t.Errorf("Response.Checks[greeter] = %q, want healthy", resp.Checks["greeter"])
			}
			if _, err := time.Parse(time.RFC3339, resp.Timestamp); err != nil {
				t.Errorf("Response.Timestamp = %q, not RFC3339: %v", resp.Timestamp, err)
			}
		})
	}
}

func TestHandler_GetHealth_Checks(t *testing.T) {
	resetState(t)
	cfg := &HealthConfig{GRPCStatus: func() string { return "serving" }}
	handler := NewHandler(stubGreeter{}, cfg, zap.NewNop(), nil)

	w := httptest.NewRecorder()
	handler.GetHealth(w, httptest.NewRequest("GET", "/health", nil))

	var resp models.Health
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Checks["greeter"] != "unhealthy" {
		t.Errorf("Checks[greeter] = %q, want unhealthy for empty greeting", resp.Checks["greeter"])
	}
	if resp.Checks["grpc"] != "serving" {
		t.Errorf("Checks[grpc] = %q, want serving", resp.Checks["grpc"])
	}
}

// TestHandler_GetHealth_LogsTransition verifies a status change is logged once.
func TestHandler_GetHealth_LogsTransition(t *testing.T) {
	resetState(t)
	core, logs := observer.New(zap.InfoLevel)
	handler := NewHandler(greeting.NewDoctorService(), nil, zap.New(core), nil)

	handler.GetHealth(httptest.NewRecorder(), httptest.NewRequest("GET", "/health", nil))
	lifecycle.SetShuttingDown(true)
	handler.GetHealth(httptest.NewRecorder(), httptest.NewRequest("GET", "/health", nil))
	handler.GetHealth(httptest.NewRecorder(), httptest.NewRequest("GET", "/health", nil))

	entries := logs.FilterMessage("health status transition").All()
	if len(entries) != 1 {
		t.Fatalf("logged %d transitions, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["previous_status"] != StatusHealthy || fields["current_status"] != StatusShuttingDown {
		t.Errorf("transition fields = %v, want healthy -> shutting-down", fields)
	}
}

func postAction(t *testing.T, handler *Handler, action, body string) *httptest.ResponseRecorder {
	t.Helper()
	router := mux.NewRouter()
	router.HandleFunc("/test/{action}", handler.PostTestAction).Methods("POST")
	req := httptest.NewRequest("POST", "/test/"+action, strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandler_PostTestAction_Load(t *testing.T) {
	resetState(t)
	limiter := rate.NewLimiter(rate.Every(time.Hour), 3)
	handler := NewHandler(greeting.NewDoctorService(), nil, zap.NewNop(), limiter)

	w := postAction(t, handler, "load", `{"count":5}`)
	if w.Code != http.StatusOK {
		t.Fatalf("load status = %d, want 200", w.Code)
	}
	var resp struct {
		Accepted int    `json:"accepted"`
		Denied   int    `json:"denied"`
		State    string `json:"state"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Accepted != 3 || resp.Denied != 2 {
		t.Errorf("load = (%d accepted, %d denied), want (3, 2)", resp.Accepted, resp.Denied)
	}
	if n := overload.RequestCount(time.Minute); n != 5 {
		t.Errorf("overload.RequestCount() = %d, want 5", n)
	}
}

func TestHandler_PostTestAction_LoadDefaultCount(t *testing.T) {
	resetState(t)
	handler := NewHandler(greeting.NewDoctorService(), nil, zap.NewNop(), nil)

	w := postAction(t, handler, "load", "")
	if w.Code != http.StatusOK {
		t.Fatalf("load status = %d, want 200", w.Code)
	}
	if n := idle.RequestCount(time.Minute); n != 10 {
		t.Errorf("idle.RequestCount() = %d, want default 10", n)
	}
}

func TestHandler_PostTestAction_LoadCountBounds(t *testing.T) {
	tests := []struct {
		name     string
		count    int
		wantCode int
		wantN    int
	}{
		{"at limit", MaxTestLoadCount, http.StatusOK, MaxTestLoadCount},
		{"above limit", MaxTestLoadCount + 1, http.StatusBadRequest, 0},
		{"huge", 20000000, http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetState(t)
			handler := NewHandler(greeting.NewDoctorService(), nil, zap.NewNop(), nil)

			w := postAction(t, handler, "load", `{"count":`+strconv.Itoa(tt.count)+`}`)
			if w.Code != tt.wantCode {
				t.Fatalf("load status = %d, want %d", w.Code, tt.wantCode)
			}
			if tt.wantCode == http.StatusBadRequest {
				var resp models.ErrorBody
				if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
					t.Fatalf("Failed to decode response: %v", err)
				}
				if resp.Error.Code != "INVALID_COUNT" {
					t.Errorf("Error.Code = %q, want INVALID_COUNT", resp.Error.Code)
				}
			}
			if n := traffic.RequestCount(time.Minute); n != tt.wantN {
				t.Errorf("traffic.RequestCount() = %d, want %d", n, tt.wantN)
			}
		})
	}
}

func TestHandler_PostTestAction_ShutdownAndReset(t *testing.T) {
	resetState(t)
	handler := NewHandler(greeting.NewDoctorService(), nil, zap.NewNop(), nil)

	if w := postAction(t, handler, "shutdown", ""); w.Code != http.StatusOK {
		t.Fatalf("shutdown status = %d, want 200", w.Code)
	}
	if !lifecycle.IsShuttingDown() {
		t.Error("IsShuttingDown() = false after /test/shutdown")
	}

	traffic.RecordAcceptedN(4)
	if w := postAction(t, handler, "reset", ""); w.Code != http.StatusOK {
		t.Fatalf("reset status = %d, want 200", w.Code)
	}
	if lifecycle.IsShuttingDown() {
		t.Error("IsShuttingDown() = true after /test/reset")
	}
	if n := traffic.RequestCount(time.Minute); n != 0 {
		t.Errorf("traffic.RequestCount() = %d after reset, want 0", n)
	}
}

func TestHandler_PostTestAction_Unknown(t *testing.T) {
	resetState(t)
	handler := NewHandler(greeting.NewDoctorService(), nil, zap.NewNop(), nil)

	w := postAction(t, handler, "explode", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	var resp models.ErrorBody
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Error.Code != "UNKNOWN_ACTION" {
		t.Errorf("Error.Code = %q, want UNKNOWN_ACTION", resp.Error.Code)
	}
}

func TestHandler_GetTestStatus(t *testing.T) {
	resetState(t)
	cfg := &HealthConfig{RateLimitRPS: 10, OverloadWindow: 10 * time.Second, OverloadThresholdPct: 50}
	handler := NewHandler(greeting.NewDoctorService(), cfg, zap.NewNop(), nil)
	traffic.RecordAcceptedN(2)
	traffic.RecordDenied()

	w := httptest.NewRecorder()
	handler.GetTestStatus(w, httptest.NewRequest("GET", "/test", nil))

	var resp struct {
		Total  int                    `json:"total_requests_in_window"`
		Denied int                    `json:"denied_requests_in_window"`
		Window string                 `json:"window_length"`
		Config map[string]interface{} `json:"config"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Total != 3 || resp.Denied != 1 {
		t.Errorf("window = (%d total, %d denied), want (3, 1)", resp.Total, resp.Denied)
	}
	if resp.Window != "10s" {
		t.Errorf("window_length = %q, want 10s", resp.Window)
	}
	if got := resp.Config["overload_threshold"]; got != float64(50) {
		t.Errorf("overload_threshold = %v, want 50", got)
	}
}
