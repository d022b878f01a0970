package main

import (
	"fmt"
	"os"

	"github.com/brandpulse-ai/brandpulse/internal/cli"
	"github.com/brandpulse-ai/brandpulse/internal/cli/client"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "brandpulse",
		Short: "BrandPulse CLI - Brand intelligence from social content",
		Long: `BrandPulse CLI provides commands to monitor brand mentions and chat over insights.

Environment variables:
  BRANDPULSE_API_KEY   API key for authentication (required)
  BRANDPULSE_API_URL   API base URL (default: http://localhost:8080)`,
		Version: version,
	}

	rootCmd.PersistentFlags().Bool("output", false, "Output as JSON")
	rootCmd.PersistentFlags().String("api-key", "", "API key for authentication (overrides env and config)")
	rootCmd.PersistentFlags().String("api-url", "", "API base URL (overrides env and config)")
	cli.AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(client.InitCmd())
	rootCmd.AddCommand(client.CampaignCmd())
	rootCmd.AddCommand(client.RunCmd())
	rootCmd.AddCommand(client.ChatCmd())

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
