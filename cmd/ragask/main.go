package main

import (
	"fmt"
	"os"

	"github.com/cloo-solutions/ragserve/internal/cli"
	"github.com/cloo-solutions/ragserve/internal/cli/client"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "ragask",
		Short: "Ask questions of a running ragserved",
		Long: `ragask sends questions to a ragserved instance and prints the answers.

Environment variables:
  RAG_API_URL   API base URL (default: http://localhost:5000)`,
		Version:      version,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().Bool("output", false, "Output as JSON")
	rootCmd.PersistentFlags().String("api-url", "", "API base URL (overrides env)")
	cli.AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(client.AskCmd())
	rootCmd.AddCommand(client.HealthCmd())

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
