package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Service descriptor for api/medicure/v1/doctor.proto. The contract only uses
// well-known types, so no message code is generated.

const (
	DoctorServiceName               = "medicure.v1.DoctorService"
	DoctorService_SayHello_FullName = "/medicure.v1.DoctorService/SayHello"
)

// DoctorServiceClient is the client API for DoctorService.
type DoctorServiceClient interface {
	SayHello(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
}

type doctorServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewDoctorServiceClient returns a DoctorServiceClient backed by cc.
func NewDoctorServiceClient(cc grpc.ClientConnInterface) DoctorServiceClient {
	return &doctorServiceClient{cc: cc}
}

func (c *doctorServiceClient) SayHello(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, DoctorService_SayHello_FullName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// DoctorServiceServer is the server API for DoctorService.
type DoctorServiceServer interface {
	SayHello(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error)
}

// UnimplementedDoctorServiceServer can be embedded to satisfy DoctorServiceServer.
type UnimplementedDoctorServiceServer struct{}

func (UnimplementedDoctorServiceServer) SayHello(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error) {
	return nil, status.Error(codes.Unimplemented, "method SayHello not implemented")
}

// RegisterDoctorServiceServer registers srv on s.
func RegisterDoctorServiceServer(s grpc.ServiceRegistrar, srv DoctorServiceServer) {
	s.RegisterService(&DoctorService_ServiceDesc, srv)
}

func _DoctorService_SayHello_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DoctorServiceServer).SayHello(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: DoctorService_SayHello_FullName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(DoctorServiceServer).SayHello(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// DoctorService_ServiceDesc is the grpc.ServiceDesc for DoctorService.
var DoctorService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: DoctorServiceName,
	HandlerType: (*DoctorServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "SayHello",
			Handler:    _DoctorService_SayHello_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "medicure/v1/doctor.proto",
}
