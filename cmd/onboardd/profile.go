package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/fractionalquest/onboard/internal/presentation/tui"
	"github.com/fractionalquest/onboard/pkg/domain"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage stored onboarding profiles",
	Long:  `List, inspect, and remove persisted onboarding profiles in the configured store.`,
}

var profileLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all users with stored profiles",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}
		store, _, closeStore, err := buildStore(cmd.Context(), cfg)
		if err != nil {
			fmt.Printf("Error opening store: %v\n", err)
			os.Exit(1)
		}
		defer closeStore()

		users, err := store.ListUsers(cmd.Context())
		if err != nil {
			fmt.Printf("Error listing profiles: %v\n", err)
			os.Exit(1)
		}

		if len(users) == 0 {
			fmt.Println("No stored profiles found.")
			return
		}

		fmt.Println("Stored profiles:")
		for _, u := range users {
			fmt.Println("- " + u)
		}
	},
}

var profileInspectCmd = &cobra.Command{
	Use:   "inspect <user-id>",
	Short: "Inspect the raw stored fields for a user",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		userID := args[0]

		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}
		store, _, closeStore, err := buildStore(cmd.Context(), cfg)
		if err != nil {
			fmt.Printf("Error opening store: %v\n", err)
			os.Exit(1)
		}
		defer closeStore()

		fields, err := store.GetAll(cmd.Context(), userID)
		if err != nil {
			fmt.Printf("Error loading profile '%s': %v\n", userID, err)
			os.Exit(1)
		}

		// Pretty print JSON
		data, err := json.MarshalIndent(fields, "", "  ")
		if err != nil {
			fmt.Printf("Error marshaling fields: %v\n", err)
			os.Exit(1)
		}

		fmt.Println(string(data))
	},
}

var profileShowCmd = &cobra.Command{
	Use:   "show <user-id>",
	Short: "Show a user's onboarding progress as a readable summary",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		userID := args[0]

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

		sess, err := engine.GetSession(cmd.Context(), userID)
		if err != nil {
			fmt.Printf("Error loading session '%s': %v\n", userID, err)
			os.Exit(1)
		}

		markdown := sessionMarkdown(sess)

		// Only render styled output on a real terminal; pipes get plain markdown.
		if term.IsTerminal(int(os.Stdout.Fd())) {
			render := tui.NewRenderer()
			if out, err := render(markdown); err == nil {
				fmt.Print(out)
				return
			}
		}
		fmt.Println(markdown)
	},
}

var profileRmCmd = &cobra.Command{
	Use:   "rm <user-id>...",
	Short: "Remove one or more stored profiles",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}
		store, _, closeStore, err := buildStore(cmd.Context(), cfg)
		if err != nil {
			fmt.Printf("Error opening store: %v\n", err)
			os.Exit(1)
		}
		defer closeStore()

		hasError := false
		for _, userID := range args {
			if err := store.Delete(cmd.Context(), userID); err != nil {
				fmt.Printf("Error removing '%s': %v\n", userID, err)
				hasError = true
			} else {
				fmt.Printf("Removed profile '%s'\n", userID)
			}
		}

		if hasError {
			os.Exit(1)
		}
	},
}

// sessionMarkdown formats the session snapshot for the show command.
func sessionMarkdown(sess *domain.Session) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Onboarding: %s\n\n", sess.UserID)

	if sess.Completed {
		b.WriteString("**Status:** complete\n\n")
	} else {
		fmt.Fprintf(&b, "**Status:** in progress, current step `%s`\n\n", sess.CurrentStep)
	}

	b.WriteString("| Step | Value | Confirmed |\n|---|---|---|\n")
	for _, key := range sess.Steps {
		f, ok := sess.Fields[key]
		value, confirmed := "-", " "
		if ok {
			value = f.NormalizedValue
			if f.Confirmed {
				confirmed = "yes"
			}
		}
		fmt.Fprintf(&b, "| %s | %s | %s |\n", key, value, confirmed)
	}

	if sess.Summary != "" {
		fmt.Fprintf(&b, "\n%s\n", sess.Summary)
	}
	return b.String()
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileLsCmd)
	profileCmd.AddCommand(profileInspectCmd)
	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileRmCmd)
}
