package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloo-solutions/ragserve/internal/config"
	"github.com/cloo-solutions/ragserve/internal/database"
	"github.com/cloo-solutions/ragserve/internal/domain"
	"github.com/cloo-solutions/ragserve/internal/pagination"
	"github.com/cloo-solutions/ragserve/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

func QueriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queries",
		Short: "Inspect served queries",
		Long:  "Review the query log written by the server when RAG_DATABASE_URL is set",
	}

	cmd.AddCommand(QueriesListCmd())

	return cmd
}

func QueriesListCmd() *cobra.Command {
	var (
		limit  int
		cursor string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent queries",
		Long:  "List served queries, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputFormat, _ := cmd.Flags().GetString("output")
			return runQueriesList(outputFormat, limit, cursor)
		},
	}

	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of results")
	cmd.Flags().StringVar(&cursor, "cursor", "", "Pagination cursor from previous response")

	return cmd
}

type queryLogItem struct {
	ID         string   `json:"id"`
	RequestID  string   `json:"request_id,omitempty"`
	Query      string   `json:"query"`
	Status     string   `json:"status"`
	Sources    []string `json:"sources"`
	DurationMs int64    `json:"duration_ms"`
	CreatedAt  string   `json:"created_at"`
}

func runQueriesList(outputFormat string, limit int, cursorStr string) error {
	ctx := context.Background()

	cursor, err := pagination.DecodeCursor(cursorStr)
	if err != nil {
		return err
	}

	pool, err := getDBPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	result, err := repository.NewQueryLogRepository(pool).ListWithCursor(ctx, cursor, limit)
	if err != nil {
		return fmt.Errorf("failed to list queries: %w", err)
	}

	if outputFormat == "json" {
		page := pagination.PageResult[queryLogItem]{
			Items:   make([]queryLogItem, len(result.Items)),
			Cursor:  result.NextCursor,
			HasMore: result.HasMore,
		}
		for i, q := range result.Items {
			page.Items[i] = toQueryLogItem(q)
		}
		jsonBytes, _ := json.MarshalIndent(page, "", "  ")
		fmt.Println(string(jsonBytes))
		return nil
	}

	if len(result.Items) == 0 {
		fmt.Println("No queries found")
		return nil
	}
	fmt.Println("Queries:")
	for _, q := range result.Items {
		fmt.Printf("  %s [%s %dms] %s\n", q.CreatedAt.Format("2006-01-02 15:04:05"), q.Status, q.DurationMs, q.Query)
		if len(q.Sources) > 0 {
			fmt.Printf("    sources: %s\n", strings.Join(q.Sources, ", "))
		}
	}
	if result.HasMore && result.NextCursor != "" {
		fmt.Printf("\nMore results available. Use --cursor %s\n", result.NextCursor)
	}

	return nil
}

func toQueryLogItem(q *domain.QueryLog) queryLogItem {
	sources := q.Sources
	if sources == nil {
		sources = []string{}
	}
	return queryLogItem{
		ID:         q.ID,
		RequestID:  q.RequestID,
		Query:      q.Query,
		Status:     string(q.Status),
		Sources:    sources,
		DurationMs: q.DurationMs,
		CreatedAt:  q.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func getDBPool(ctx context.Context) (*pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if !cfg.HasDatabase() {
		return nil, fmt.Errorf("RAG_DATABASE_URL is not set")
	}

	return database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
}
