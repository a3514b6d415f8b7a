package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kjstillabower/medicure-service/internal/models"
	"github.com/kjstillabower/medicure-service/internal/rpc"
)

// helloCmd prints the doctor's greeting over HTTP (default) or gRPC.
func helloCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hello",
		Short: "Fetch the doctor's greeting",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			timeout, _ := cmd.Flags().GetDuration("timeout")
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			grpcAddr, _ := cmd.Flags().GetString("grpc")
			baseURL, _ := cmd.Flags().GetString("http")

			var msg string
			var err error
			if grpcAddr != "" {
				msg, err = helloGRPC(ctx, grpcAddr)
			} else {
				msg, err = helloHTTP(ctx, baseURL)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
	cmd.Flags().String("grpc", "", "gRPC address (host:port)")
	cmd.Flags().String("http", defaultHTTPURL, "HTTP base URL")
	cmd.MarkFlagsMutuallyExclusive("grpc", "http")
	return cmd
}

func helloGRPC(ctx context.Context, addr string) (string, error) {
	client, err := rpc.NewDoctorClient(addr)
	if err != nil {
		return "", err
	}
	defer client.Close()
	return client.SayHello(ctx, "")
}

func helloHTTP(ctx context.Context, baseURL string) (string, error) {
	var body models.Greeting
	status, err := getJSON(ctx, strings.TrimRight(baseURL, "/")+"/hello", &body)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("GET /hello: unexpected status %d", status)
	}
	return body.Message, nil
}

// getJSON decodes the response body into v regardless of status and returns the status code.
func getJSON(ctx context.Context, url string, v interface{}) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return resp.StatusCode, fmt.Errorf("decode %s: %w", url, err)
	}
	return resp.StatusCode, nil
}
