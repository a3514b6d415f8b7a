// Package main provides medicurectl, a client for the medicure service.
package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
)

const (
	defaultHTTPURL = "http://localhost:8080"
	defaultTimeout = 5 * time.Second
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "medicurectl",
		Short: "Client for the medicure greeting service",
		Long: `medicurectl talks to a running medicure service.

Examples:
  medicurectl hello
  medicurectl hello --grpc localhost:9090
  medicurectl health --http http://localhost:8080`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(out)
	rootCmd.PersistentFlags().Duration("timeout", defaultTimeout, "Request timeout")

	rootCmd.AddCommand(
		helloCmd(),
		healthCmd(),
	)
	return rootCmd
}
