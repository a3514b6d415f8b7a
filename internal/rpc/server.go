package rpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/kjstillabower/medicure-service/internal/greeting"
)

// Listener states reported by Status.
const (
	StatusServing    = "serving"
	StatusNotServing = "not_serving"
	StatusDraining   = "draining"
)

// Server manages the gRPC server lifecycle: DoctorService plus the standard health service.
type Server struct {
	listenAddr string
	grpcServer *grpc.Server
	health     *health.Server
	logger     *zap.Logger
	serving    atomic.Bool
	draining   atomic.Bool

	addrMu sync.Mutex
	addr   net.Addr
}

// New builds a gRPC server that will listen on listenAddr. limiter may be nil.
// Extra opts are applied after the built-in interceptor.
func New(listenAddr string, greeter greeting.Greeter, logger *zap.Logger, limiter *rate.Limiter, opts ...grpc.ServerOption) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts = append([]grpc.ServerOption{grpc.ChainUnaryInterceptor(UnaryServerInterceptor(logger, limiter))}, opts...)
	srv := grpc.NewServer(opts...)
	RegisterDoctorServiceServer(srv, NewDoctorHandler(greeter))

	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(DoctorServiceName, healthpb.HealthCheckResponse_SERVING)

	return &Server{
		listenAddr: listenAddr,
		grpcServer: srv,
		health:     hs,
		logger:     logger,
	}
}

// Run listens on the configured address and serves until ctx is cancelled, then stops gracefully.
func (s *Server) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.listenAddr, err)
	}
	return s.Serve(ctx, lis)
}

// Serve serves on lis until ctx is cancelled, then stops gracefully.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	s.addrMu.Lock()
	s.addr = lis.Addr()
	s.addrMu.Unlock()

	stopped := make(chan struct{})
	defer close(stopped)
	go func() {
		select {
		case <-ctx.Done():
			s.GracefulStop()
		case <-stopped:
		}
	}()

	s.serving.Store(true)
	s.logger.Info("grpc server listening", zap.String("addr", lis.Addr().String()))
	err := s.grpcServer.Serve(lis)
	s.serving.Store(false)
	if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve gRPC: %w", err)
	}
	return nil
}

// SetNotServing flips every health status to NOT_SERVING so load balancers drain this instance.
// Calls keep being served until GracefulStop.
func (s *Server) SetNotServing() {
	s.draining.Store(true)
	s.health.Shutdown()
}

// Resume undoes SetNotServing. After GracefulStop the listener stays closed.
func (s *Server) Resume() {
	s.draining.Store(false)
	s.health.Resume()
}

// GracefulStop reports NOT_SERVING and waits for pending calls to finish.
func (s *Server) GracefulStop() {
	s.SetNotServing()
	s.grpcServer.GracefulStop()
}

// Status reports the state the health service advertises: StatusDraining after SetNotServing,
// StatusServing while Serve is running, StatusNotServing otherwise.
func (s *Server) Status() string {
	switch {
	case !s.serving.Load():
		return StatusNotServing
	case s.draining.Load():
		return StatusDraining
	default:
		return StatusServing
	}
}

// Addr returns the bound listener address, or nil before Serve.
func (s *Server) Addr() net.Addr {
	s.addrMu.Lock()
	defer s.addrMu.Unlock()
	return s.addr
}
