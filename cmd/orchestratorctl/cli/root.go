// Package cli implements the orchestratorctl command-line interface.
package cli

import (
	"github.com/spf13/cobra"
)

var (
	serverAddr  string
	bearerToken string
)

var rootCmd = &cobra.Command{
	Use:   "orchestratorctl",
	Short: "Operate a running orchestratord instance",
	Long:  "orchestratorctl talks to a running orchestratord instance over its Streamable HTTP transport to submit, inspect, and cancel tasks.",
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverAddr, "addr", "http://localhost:8787/rpc", "orchestratord RPC endpoint")
	rootCmd.PersistentFlags().StringVar(&bearerToken, "token", "", "bearer token for the orchestratord instance")
}
