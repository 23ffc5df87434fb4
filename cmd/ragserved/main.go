package main

import (
	"fmt"
	"os"

	"github.com/cloo-solutions/ragserve/internal/cli"
	"github.com/cloo-solutions/ragserve/internal/cli/admin"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ragserved",
		Short: "Retrieval-augmented question answering server",
		Long: `ragserved indexes a text corpus and answers questions about it over HTTP.

Configuration is read from RAG_* environment variables (and a .env file).
RAG_HF_ACCESS_TOKEN is required.`,
		SilenceUsage: true,
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(admin.ServeCmd())
	rootCmd.AddCommand(admin.IndexCmd())
	rootCmd.AddCommand(admin.CorpusCmd())
	rootCmd.AddCommand(admin.QueriesCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
