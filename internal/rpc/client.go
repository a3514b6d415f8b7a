package rpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/emptypb"
)

// DoctorClient calls DoctorService over a plaintext gRPC connection.
type DoctorClient struct {
	conn   *grpc.ClientConn
	client DoctorServiceClient
}

// NewDoctorClient connects lazily to target. Extra opts are applied after the insecure transport credentials.
func NewDoctorClient(target string, opts ...grpc.DialOption) (*DoctorClient, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc client %s: %w", target, err)
	}
	return &DoctorClient{conn: conn, client: NewDoctorServiceClient(conn)}, nil
}

// SayHello returns the doctor's greeting. When correlationID is non-empty it is sent as x-correlation-id.
func (c *DoctorClient) SayHello(ctx context.Context, correlationID string) (string, error) {
	if correlationID != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, CorrelationIDKey, correlationID)
	}
	resp, err := c.client.SayHello(ctx, &emptypb.Empty{})
	if err != nil {
		return "", fmt.Errorf("SayHello: %w", err)
	}
	return resp.GetValue(), nil
}

// Close releases the underlying connection.
func (c *DoctorClient) Close() error {
	return c.conn.Close()
}
