package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fractionalquest/onboard/pkg/domain"
)

// assertCmd drives the machine directly against the configured store, which
// is handy for smoke-testing a backend without the HTTP or MCP surface.
var assertCmd = &cobra.Command{
	Use:   "assert <user-id> <field-key> <value>",
	Short: "Assert a field value for a user",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		userID, fieldKey, value := args[0], args[1], args[2]

		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}
		logger := newLogger(cfg)
		engine, closeStore, err := buildEngine(cmd.Context(), cfg, logger)
		if err != nil {
			fmt.Printf("Error initializing engine: %v\n", err)
			os.Exit(1)
		}
		defer closeStore()

		sess, err := engine.AssertField(cmd.Context(), userID, domain.FieldKey(fieldKey), value)
		if err != nil {
			fmt.Printf("Assertion failed: %v\n", err)
			os.Exit(1)
		}

		data, _ := json.MarshalIndent(sess, "", "  ")
		fmt.Println(string(data))
	},
}

func init() {
	rootCmd.AddCommand(assertCmd)
}
