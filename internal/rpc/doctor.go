package rpc

import (
	"context"

	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/kjstillabower/medicure-service/internal/greeting"
	"github.com/kjstillabower/medicure-service/internal/idle"
	"github.com/kjstillabower/medicure-service/internal/observability"
)

// DoctorHandler adapts a greeting.Greeter to the gRPC DoctorService.
type DoctorHandler struct {
	UnimplementedDoctorServiceServer
	greeter greeting.Greeter
}

// NewDoctorHandler returns a DoctorHandler backed by g.
func NewDoctorHandler(g greeting.Greeter) *DoctorHandler {
	return &DoctorHandler{greeter: g}
}

// SayHello returns the greeting wrapped in a StringValue.
func (h *DoctorHandler) SayHello(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.StringValue, error) {
	idle.RecordRequest()
	observability.RecordGreeting(observability.TransportGRPC)
	return wrapperspb.String(h.greeter.SayHello()), nil
}
