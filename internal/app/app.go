// Package app is the composition root: it builds the greeting service once and
// hands it to every transport by constructor injection.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/medicure-service/internal/config"
	"github.com/kjstillabower/medicure-service/internal/greeting"
	httphandler "github.com/kjstillabower/medicure-service/internal/http"
	"github.com/kjstillabower/medicure-service/internal/lifecycle"
	"github.com/kjstillabower/medicure-service/internal/observability"
	"github.com/kjstillabower/medicure-service/internal/rpc"
)

// App holds the wired component graph.
type App struct {
	cfg        *config.Config
	logger     *zap.Logger
	doctor     *greeting.DoctorService
	httpServer *http.Server
	rpcServer  *rpc.Server // nil when gRPC is disabled
	unhook     []func()
}

// New wires the greeting service into the HTTP handler and, when enabled, the gRPC server.
// Both transports share one rate limiter so the configured budget covers all greeting traffic.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	doctor := greeting.NewDoctorService()

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}

	a := &App{cfg: cfg, logger: logger, doctor: doctor}

	healthConfig := &httphandler.HealthConfig{
		OverloadWindow:         cfg.OverloadWindow,
		OverloadThresholdPct:   cfg.OverloadThresholdPct,
		RateLimitRPS:           cfg.RateLimitRPS,
		RateLimitBurst:         cfg.RateLimitBurst,
		IdleWindow:             cfg.IdleWindow,
		IdleThresholdReqPerMin: cfg.IdleThresholdReqPerMin,
		MinimumLifespan:        cfg.MinimumLifespan,
		StartTime:              time.Now(),
	}

	if cfg.GRPCEnabled() {
		a.rpcServer = rpc.New(":"+cfg.GRPCPort, doctor, logger, limiter)
		healthConfig.GRPCStatus = a.rpcServer.Status
		a.unhook = append(a.unhook,
			lifecycle.OnShutdown(a.rpcServer.SetNotServing),
			lifecycle.OnResume(a.rpcServer.Resume),
		)
	}

	handler := httphandler.NewHandler(doctor, healthConfig, logger, limiter)
	router := httphandler.NewRouter(handler, logger, httphandler.RouterConfig{
		RequestTimeout: cfg.RequestTimeout,
		Limiter:        limiter,
		TestingMode:    cfg.TestingMode,
	})
	a.httpServer = &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	observability.RegisterLifecycleGauges(cfg.OverloadWindow, cfg.IdleWindow)
	return a, nil
}

// Close detaches the App from process lifecycle hooks. Safe to call more than once.
func (a *App) Close() {
	for _, unregister := range a.unhook {
		unregister()
	}
}

// Doctor returns the greeting service shared by every transport.
func (a *App) Doctor() greeting.Greeter {
	return a.doctor
}

// Handler returns the HTTP handler tree.
func (a *App) Handler() http.Handler {
	return a.httpServer.Handler
}

// GRPCEnabled reports whether the gRPC server is part of the graph.
func (a *App) GRPCEnabled() bool {
	return a.rpcServer != nil
}

// Run binds the configured ports and serves until ctx is cancelled or a server fails.
func (a *App) Run(ctx context.Context) error {
	httpLis, err := net.Listen("tcp", a.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", a.httpServer.Addr, err)
	}
	var grpcLis net.Listener
	if a.rpcServer != nil {
		grpcLis, err = net.Listen("tcp", ":"+a.cfg.GRPCPort)
		if err != nil {
			_ = httpLis.Close()
			return fmt.Errorf("listen on :%s: %w", a.cfg.GRPCPort, err)
		}
	}
	return a.Serve(ctx, httpLis, grpcLis)
}

// Serve runs the servers on the given listeners until ctx is cancelled, then shuts down.
// grpcLis is ignored when gRPC is disabled.
func (a *App) Serve(ctx context.Context, httpLis, grpcLis net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("server starting", zap.String("addr", httpLis.Addr().String()))
		if err := a.httpServer.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve HTTP: %w", err)
		}
		return nil
	})
	if a.rpcServer != nil && grpcLis != nil {
		g.Go(func() error {
			return a.rpcServer.Serve(gctx, grpcLis)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		a.shutdown()
		return nil
	})
	return g.Wait()
}

func (a *App) shutdown() {
	a.logger.Info("graceful shutdown triggered")
	lifecycle.SetShuttingDown(true)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("server shutdown", zap.Error(err))
	}

	inFlight := httphandler.InFlightCount()
	a.logger.Info("waiting for in-flight requests", zap.Int64("count", inFlight))
	observability.RecordShutdownInFlight(inFlight)
	waitCtx, waitCancel := context.WithTimeout(context.Background(), a.cfg.ShutdownInFlightTimeout)
	defer waitCancel()
	if err := httphandler.WaitForInFlight(waitCtx, a.cfg.ShutdownInFlightCheckInterval); err != nil {
		a.logger.Warn("in-flight requests not completed", zap.Error(err), zap.Int64("remaining", httphandler.InFlightCount()))
	}

	if err := observability.FlushTelemetry(context.Background(), a.logger); err != nil {
		a.logger.Error("telemetry flush", zap.Error(err))
	}
	a.logger.Info("shutdown complete")
}
