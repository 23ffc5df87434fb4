package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cloo-solutions/ragserve/internal/domain"
	"github.com/cloo-solutions/ragserve/internal/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type QueryLogPageResult struct {
	Items      []*domain.QueryLog
	NextCursor string
	HasMore    bool
}

// QueryLogRepository stores served queries for later review.
type QueryLogRepository struct {
	pool *pgxpool.Pool
}

func NewQueryLogRepository(pool *pgxpool.Pool) *QueryLogRepository {
	return &QueryLogRepository{pool: pool}
}

func (r *QueryLogRepository) Create(ctx context.Context, entry *domain.QueryLog) (string, error) {
	sources := entry.Sources
	if sources == nil {
		sources = []string{}
	}
	sourcesJSON, err := json.Marshal(sources)
	if err != nil {
		return "", fmt.Errorf("failed to encode sources: %w", err)
	}

	var id string
	err = r.pool.QueryRow(ctx,
		`INSERT INTO query_logs (request_id, query, status, sources, source_count, duration_ms)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		nullableString(entry.RequestID),
		entry.Query,
		string(entry.Status),
		sourcesJSON,
		len(sources),
		entry.DurationMs,
	).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *QueryLogRepository) ListWithCursor(ctx context.Context, cursor *pagination.Cursor, limit int) (*QueryLogPageResult, error) {
	if limit <= 0 {
		limit = 20
	}

	var rows pgx.Rows
	var err error

	if cursor != nil {
		rows, err = r.pool.Query(ctx,
			`SELECT id, request_id, query, status, sources, duration_ms, created_at FROM query_logs
			 WHERE (created_at, id) < ($1, $2)
			 ORDER BY created_at DESC, id DESC
			 LIMIT $3`,
			cursor.Timestamp, cursor.LastID, limit+1,
		)
	} else {
		rows, err = r.pool.Query(ctx,
			`SELECT id, request_id, query, status, sources, duration_ms, created_at FROM query_logs
			 ORDER BY created_at DESC, id DESC
			 LIMIT $1`,
			limit+1,
		)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*domain.QueryLog
	for rows.Next() {
		var entry domain.QueryLog
		var requestID *string
		var status string
		var sourcesJSON []byte
		if err := rows.Scan(&entry.ID, &requestID, &entry.Query, &status, &sourcesJSON, &entry.DurationMs, &entry.CreatedAt); err != nil {
			return nil, err
		}
		if requestID != nil {
			entry.RequestID = *requestID
		}
		entry.Status = domain.QueryStatus(status)
		if err := json.Unmarshal(sourcesJSON, &entry.Sources); err != nil {
			return nil, fmt.Errorf("failed to decode sources: %w", err)
		}
		logs = append(logs, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	hasMore := len(logs) > limit
	if hasMore {
		logs = logs[:limit]
	}

	var nextCursor string
	if hasMore && len(logs) > 0 {
		last := logs[len(logs)-1]
		nextCursor = pagination.EncodeCursor(last.ID, last.CreatedAt)
	}

	return &QueryLogPageResult{
		Items:      logs,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
