package main

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kjstillabower/medicure-service/internal/models"
)

// healthCmd prints the service health status and checks. Non-200 health exits 1.
func healthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Show service health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			timeout, _ := cmd.Flags().GetDuration("timeout")
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			baseURL, _ := cmd.Flags().GetString("http")
			var body models.Health
			status, err := getJSON(ctx, strings.TrimRight(baseURL, "/")+"/health", &body)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Status: %s\n", body.Status)
			fmt.Fprintf(out, "  Service: %s %s\n", body.Service, body.Version)
			names := make([]string, 0, len(body.Checks))
			for name := range body.Checks {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintf(out, "  %s: %s\n", name, body.Checks[name])
			}
			if status != http.StatusOK {
				return fmt.Errorf("service %s (HTTP %d)", body.Status, status)
			}
			return nil
		},
	}
	cmd.Flags().String("http", defaultHTTPURL, "HTTP base URL")
	return cmd
}
