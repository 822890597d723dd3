package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "onboardd",
	Short: "Onboardd is the onboarding profile service for fractional executives",
	Long: `Onboardd collects and persists the six onboarding profile fields through
a resumable, idempotent state machine. It can serve a conversational front
end over HTTP or MCP, and manage stored profiles from the command line.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "onboard.yaml", "Path to the configuration file")
}
