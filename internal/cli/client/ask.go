package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// AskCmd creates the ask command.
func AskCmd() *cobra.Command {
	var requestID string

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question about the indexed corpus",
		Long:  "Sends the question to POST /query and prints the answer with its source passages.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			if requestID == "" {
				requestID = uuid.NewString()
			}
			api := NewAPIClientWithCmd(cmd)
			return runAsk(cmd.Context(), api, os.Stdout, strings.Join(args, " "), requestID, outputJSON)
		},
	}

	cmd.Flags().StringVar(&requestID, "request-id", "", "Request ID to send as X-Request-ID (default: random UUID)")

	return cmd
}

func runAsk(ctx context.Context, api *APIClient, w io.Writer, question, requestID string, outputJSON bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	resp, err := api.Query(ctx, question, requestID)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(resp, "", "  ")
		fmt.Fprintln(w, string(output))
		return nil
	}

	fmt.Fprintln(w, strings.TrimSpace(resp.Answer))
	if len(resp.Sources) == 0 {
		return nil
	}

	fmt.Fprintf(w, "\nSources (%d):\n", len(resp.Sources))
	for i, src := range resp.Sources {
		fmt.Fprintf(w, "%d. %s\n", i+1, preview(src, 100))
	}
	return nil
}

// preview collapses whitespace and truncates to max runes.
func preview(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
