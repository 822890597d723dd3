package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fractionalquest/onboard"
	"github.com/fractionalquest/onboard/internal/presentation/tui"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of onboardd",
	Run: func(cmd *cobra.Command, args []string) {
		tui.PrintBanner()
		fmt.Printf("onboardd version %s\n", strings.TrimSpace(onboard.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
