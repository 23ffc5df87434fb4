package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// HealthCmd creates the health command.
func HealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the server is up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runHealth(cmd.Context(), NewAPIClientWithCmd(cmd), os.Stdout, outputJSON)
		},
	}
}

func runHealth(ctx context.Context, api *APIClient, w io.Writer, outputJSON bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	resp, err := api.Health(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(resp, "", "  ")
		fmt.Fprintln(w, string(output))
	} else {
		fmt.Fprintf(w, "%s: %s\n", api.baseURL, resp.Status)
	}
	return nil
}
