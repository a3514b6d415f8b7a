//go:build integration
// +build integration

package testhelpers

import (
	"context"
	"net"
	"os"
	"testing"
	"time"

	"github.com/kjstillabower/medicure-service/internal/app"
	"github.com/kjstillabower/medicure-service/internal/config"
	"github.com/kjstillabower/medicure-service/internal/lifecycle"
	"github.com/kjstillabower/medicure-service/internal/observability"
	"github.com/kjstillabower/medicure-service/internal/traffic"
)

// IntegrationTestConfig holds the endpoints integration tests talk to.
type IntegrationTestConfig struct {
	HTTPURL  string // base URL, no trailing slash
	GRPCAddr string // host:port
}

// GetIntegrationConfig returns endpoints of an already running service when
// MEDICURE_HTTP_URL is set (MEDICURE_GRPC_ADDR optional). Otherwise it starts an
// in-process service on ephemeral ports, stopped on test cleanup.
func GetIntegrationConfig(t *testing.T) IntegrationTestConfig {
	t.Helper()
	if url := os.Getenv("MEDICURE_HTTP_URL"); url != "" {
		return IntegrationTestConfig{HTTPURL: url, GRPCAddr: os.Getenv("MEDICURE_GRPC_ADDR")}
	}
	return StartIntegrationApp(t, DefaultIntegrationAppConfig())
}

// DefaultIntegrationAppConfig returns a config with short shutdown timeouts and testing mode on.
// Ports are placeholders; StartIntegrationApp binds ephemeral listeners.
func DefaultIntegrationAppConfig() *config.Config {
	return &config.Config{
		TestingMode:                   true,
		ServerPort:                    "8080",
		GRPCPort:                      "9090",
		RequestTimeout:                5 * time.Second,
		RateLimitRPS:                  100,
		RateLimitBurst:                250,
		ShutdownTimeout:               5 * time.Second,
		ShutdownInFlightTimeout:       2 * time.Second,
		ShutdownInFlightCheckInterval: 10 * time.Millisecond,
		OverloadWindow:                60 * time.Second,
		OverloadThresholdPct:          80,
		IdleThresholdReqPerMin:        5,
		IdleWindow:                    5 * time.Minute,
		MinimumLifespan:               5 * time.Minute,
	}
}

// StartIntegrationApp wires the full application from cfg and serves it on 127.0.0.1 ephemeral ports.
// GRPCAddr is empty when cfg disables gRPC.
func StartIntegrationApp(t *testing.T, cfg *config.Config) IntegrationTestConfig {
	t.Helper()
	traffic.Reset()
	lifecycle.SetShuttingDown(false)

	logger, err := observability.NewLogger()
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	application, err := app.New(cfg, logger)
	if err != nil {
		t.Fatalf("app.New() error = %v", err)
	}
	t.Cleanup(application.Close)

	httpLis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen http: %v", err)
	}
	result := IntegrationTestConfig{HTTPURL: "http://" + httpLis.Addr().String()}

	var grpcLis net.Listener
	if application.GRPCEnabled() {
		grpcLis, err = net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			_ = httpLis.Close()
			t.Fatalf("listen grpc: %v", err)
		}
		result.GRPCAddr = grpcLis.Addr().String()
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- application.Serve(ctx, httpLis, grpcLis) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Serve() error = %v", err)
			}
		case <-time.After(10 * time.Second):
			t.Error("Serve() did not return after cancel")
		}
		traffic.Reset()
		lifecycle.SetShuttingDown(false)
	})
	return result
}
