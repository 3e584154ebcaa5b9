package main

import (
	"github.com/spf13/cobra"
)

var (
	serverURL string
	outputFmt string
)

var rootCmd = &cobra.Command{
	Use:   "registryctl",
	Short: "CLI for the workflow version registry server",
	Long: `registryctl manages workflow versions, deployments, and rollbacks
against a running registry server.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "Registry server URL")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "table", "Output format: table, json")

	rootCmd.AddCommand(versionsCmd)
	rootCmd.AddCommand(deployCmd)
	rootCmd.AddCommand(rollbackCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(deploymentsCmd)
	rootCmd.AddCommand(healthCmd)
}
