package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloo-solutions/ragserve/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// ChunkRepository stores one named collection of chunk embeddings in pgvector.
type ChunkRepository struct {
	pool       *pgxpool.Pool
	collection string
}

func NewChunkRepository(pool *pgxpool.Pool, collection string) *ChunkRepository {
	return &ChunkRepository{pool: pool, collection: collection}
}

// Replace deletes the collection and inserts entries in a single transaction.
func (r *ChunkRepository) Replace(ctx context.Context, entries []domain.IndexEntry) error {
	if _, err := domain.ValidateEntries(entries); err != nil {
		return err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}

	if err := replaceChunks(ctx, tx, r.collection, entries); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	return tx.Commit(ctx)
}

func replaceChunks(ctx context.Context, db dbtx, collection string, entries []domain.IndexEntry) error {
	if _, err := db.Exec(ctx, `DELETE FROM rag_chunks WHERE collection = $1`, collection); err != nil {
		return fmt.Errorf("failed to clear collection: %w", err)
	}

	now := time.Now().UTC()
	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(
			`INSERT INTO rag_chunks (id, collection, source, chunk_index, content, embedding, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			e.Chunk.ID,
			collection,
			e.Chunk.Source,
			e.Chunk.Index,
			e.Chunk.Text,
			pgvector.NewVector(e.Embedding),
			now,
		)
	}

	results := db.SendBatch(ctx, batch)
	for i := range entries {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("failed to insert chunk %d: %w", i, err)
		}
	}
	return results.Close()
}

func (r *ChunkRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM rag_chunks WHERE collection = $1`,
		r.collection,
	).Scan(&n)
	return n, err
}

// Search returns the k chunks nearest to embedding by cosine distance.
func (r *ChunkRepository) Search(ctx context.Context, embedding []float32, k int) ([]domain.ScoredChunk, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, source, chunk_index, content, (1 - (embedding <=> $2))::real AS score
		 FROM rag_chunks
		 WHERE collection = $1
		 ORDER BY embedding <=> $2, chunk_index
		 LIMIT $3`,
		r.collection, pgvector.NewVector(embedding), k,
	)
	if err != nil {
		return nil, translateVectorError(err)
	}
	defer rows.Close()

	results := []domain.ScoredChunk{}
	for rows.Next() {
		var sc domain.ScoredChunk
		if err := rows.Scan(&sc.Chunk.ID, &sc.Chunk.Source, &sc.Chunk.Index, &sc.Chunk.Text, &sc.Score); err != nil {
			return nil, err
		}
		results = append(results, sc)
	}

	if err := rows.Err(); err != nil {
		return nil, translateVectorError(err)
	}
	return results, nil
}

// pgvector raises data_exception when operand dimensions differ.
func translateVectorError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "22000" {
		return domain.NewDomainErrorWithCause(domain.ErrCodeValidation, domain.ErrDimensionMismatch.Message, err)
	}
	return err
}
