package rpc

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/kjstillabower/medicure-service/internal/observability"
	"github.com/kjstillabower/medicure-service/internal/overload"
)

// CorrelationIDKey is the metadata key carrying the request correlation ID.
// gRPC metadata keys are lowercase.
const CorrelationIDKey = "x-correlation-id"

// UnaryServerInterceptor tags each call with a correlation ID and request-scoped logger
// and records call metrics. Only DoctorService methods are rate limited; limiter may be nil.
func UnaryServerInterceptor(logger *zap.Logger, limiter *rate.Limiter) grpc.UnaryServerInterceptor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()

		corrID := correlationIDFromMetadata(ctx)
		if corrID == "" {
			corrID = uuid.New().String()
		}
		ctx = observability.WithRequest(ctx, logger, corrID)
		_ = grpc.SetHeader(ctx, metadata.Pairs(CorrelationIDKey, corrID)) // fails only outside a real stream

		var resp interface{}
		var err error
		if limiter != nil && isRateLimited(info.FullMethod) && !limiter.Allow() {
			overload.RecordDenial()
			observability.RecordRateLimitDenied(observability.TransportGRPC)
			err = status.Error(codes.ResourceExhausted, "too many requests")
		} else {
			resp, err = handler(ctx, req)
		}

		code := status.Code(err)
		observability.GRPCRequestsTotal.WithLabelValues(info.FullMethod, code.String()).Inc()
		observability.GRPCRequestDuration.WithLabelValues(info.FullMethod).Observe(time.Since(start).Seconds())
		observability.LoggerFromContext(ctx).Debug("grpc call",
			zap.String("method", info.FullMethod),
			zap.String("code", code.String()),
			zap.Duration("duration", time.Since(start)))
		return resp, err
	}
}

func isRateLimited(fullMethod string) bool {
	return strings.HasPrefix(fullMethod, "/"+DoctorServiceName+"/")
}

func correlationIDFromMetadata(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if vals := md.Get(CorrelationIDKey); len(vals) > 0 {
		return strings.TrimSpace(vals[0])
	}
	return ""
}
