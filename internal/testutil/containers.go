// Package testutil starts throwaway Postgres and S3 containers for
// integration tests.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/cloo-solutions/ragserve/internal/database"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	pgImage    = "pgvector/pgvector:0.8.1-pg18"
	pgUser     = "ragserve"
	pgPassword = "ragserve"
	pgDatabase = "ragserve"

	rustfsImage  = "rustfs/rustfs:latest"
	RustFSKey    = "rustfsadmin"
	RustFSSecret = "rustfsadmin"
)

// PostgresURL starts a pgvector container and returns its connection URL.
// The container is removed when the test ends.
func PostgresURL(ctx context.Context, t *testing.T) string {
	t.Helper()

	container := start(ctx, t, testcontainers.ContainerRequest{
		Image:        pgImage,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     pgUser,
			"POSTGRES_PASSWORD": pgPassword,
			"POSTGRES_DB":       pgDatabase,
		},
		WaitingFor: wait.ForAll(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			wait.ForListeningPort("5432/tcp"),
		).WithStartupTimeout(60 * time.Second),
	})

	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("failed to get postgres port: %v", err)
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		pgUser, pgPassword, host(ctx, t, container), port.Port(), pgDatabase)
}

// MigratedPool starts Postgres, applies the embedded migrations and returns
// an open pool. Both are released when the test ends.
func MigratedPool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()

	url := PostgresURL(ctx, t)
	pool := connectWithRetry(ctx, t, url)
	t.Cleanup(pool.Close)

	if err := database.Migrate(url); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return pool
}

// the port can accept connections a moment before Postgres does
func connectWithRetry(ctx context.Context, t *testing.T, url string) *pgxpool.Pool {
	var lastErr error
	for attempt := 1; attempt <= 5; attempt++ {
		pool, err := database.NewPool(ctx, database.Config{URL: url, MaxConns: 4})
		if err == nil {
			return pool
		}
		lastErr = err
		time.Sleep(time.Duration(attempt) * 500 * time.Millisecond)
	}
	t.Fatalf("failed to connect to postgres: %v", lastErr)
	return nil
}

// TruncateAll empties the chunk and query log tables.
func TruncateAll(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, "TRUNCATE TABLE query_logs, rag_chunks")
	if err != nil {
		return fmt.Errorf("failed to truncate tables: %w", err)
	}
	return nil
}

// RustFSEndpoint starts an S3-compatible RustFS container and returns its
// base URL. Credentials are RustFSKey and RustFSSecret.
func RustFSEndpoint(ctx context.Context, t *testing.T) string {
	t.Helper()

	container := start(ctx, t, testcontainers.ContainerRequest{
		Image:        rustfsImage,
		ExposedPorts: []string{"9000/tcp"},
		Env: map[string]string{
			"RUSTFS_ACCESS_KEY": RustFSKey,
			"RUSTFS_SECRET_KEY": RustFSSecret,
		},
		WaitingFor: wait.ForListeningPort("9000/tcp").WithStartupTimeout(30 * time.Second),
	})

	port, err := container.MappedPort(ctx, "9000/tcp")
	if err != nil {
		t.Fatalf("failed to get rustfs port: %v", err)
	}

	return fmt.Sprintf("http://%s:%s", host(ctx, t, container), port.Port())
}

func start(ctx context.Context, t *testing.T, req testcontainers.ContainerRequest) testcontainers.Container {
	t.Helper()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	testcontainers.CleanupContainer(t, container)
	if err != nil {
		t.Fatalf("failed to start %s: %v", req.Image, err)
	}
	return container
}

func host(ctx context.Context, t *testing.T, container testcontainers.Container) string {
	t.Helper()

	h, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get container host: %v", err)
	}
	return h
}
