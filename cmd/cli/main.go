package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	authToken string
	apiURL    string = "http://localhost:8787"
	output    string = "text" // "text" or "json"
	asUser    string
)

var rootCmd = &cobra.Command{
	Use:   "sprinta",
	Short: "Sprinta CLI - Inspect notifications, affiliations and search",
	Long: `Sprinta CLI provides command-line access to a Sprinta backend.
Read and acknowledge notifications, manage agent affiliations, and search
athletes and professionals.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if authToken == "" {
			authToken = os.Getenv("SPRINTA_TOKEN")
		}
		if asUser == "" {
			asUser = os.Getenv("SPRINTA_USER")
		}
		if output != "text" && output != "json" {
			return fmt.Errorf("unknown output format %q", output)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&authToken, "token", "", "Bearer token (defaults to SPRINTA_TOKEN env var)")
	rootCmd.PersistentFlags().StringVar(&asUser, "user", "", "Acting user id when the server runs without auth (defaults to SPRINTA_USER)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", apiURL, "API server URL")
	rootCmd.PersistentFlags().StringVar(&output, "output", output, "Output format: text or json")

	rootCmd.AddCommand(notificationsCmd)
	rootCmd.AddCommand(affiliationsCmd)
	rootCmd.AddCommand(searchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// requireUser returns the acting user id or an error telling how to set it.
func requireUser() (string, error) {
	if asUser == "" {
		return "", fmt.Errorf("no acting user: pass --user or export SPRINTA_USER=<user-id>")
	}
	return asUser, nil
}
