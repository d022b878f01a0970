package main

import (
	"fmt"
	"os"

	"github.com/brandpulse-ai/brandpulse/internal/cli"
	"github.com/brandpulse-ai/brandpulse/internal/cli/admin"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "brandpulsed",
		Short: "BrandPulse daemon and CLI",
		Long:  "BrandPulse daemon for running the API server and managing database migrations",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(admin.ServeCmd())
	rootCmd.AddCommand(admin.MigrateCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
