package jobs

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"

	"github.com/cloo-solutions/ragserve/internal/domain"
)

// DefaultQueryLogCapacity bounds the number of entries waiting to be written.
const DefaultQueryLogCapacity = 1024

// QueryLogRepository persists query log entries
type QueryLogRepository interface {
	Create(ctx context.Context, entry *domain.QueryLog) (string, error)
}

// QueryLogWriter buffers query logs from request handlers and writes them in
// the background. Entries are dropped when the buffer is full so the query
// path never waits on the database.
type QueryLogWriter struct {
	repo    QueryLogRepository
	queue   chan domain.QueryLog
	dropped atomic.Int64
}

func NewQueryLogWriter(repo QueryLogRepository, capacity int) *QueryLogWriter {
	if capacity <= 0 {
		capacity = DefaultQueryLogCapacity
	}
	return &QueryLogWriter{
		repo:  repo,
		queue: make(chan domain.QueryLog, capacity),
	}
}

// Record enqueues entry without blocking.
func (w *QueryLogWriter) Record(entry domain.QueryLog) {
	select {
	case w.queue <- entry:
	default:
		if n := w.dropped.Add(1); n == 1 || n%100 == 0 {
			log.Printf("query log buffer full, %d entries dropped so far", n)
		}
	}
}

// Dropped returns how many entries were discarded because the buffer was full.
func (w *QueryLogWriter) Dropped() int64 {
	return w.dropped.Load()
}

// ProcessJobs writes every entry queued so far. Failed writes are logged and
// not retried.
func (w *QueryLogWriter) ProcessJobs(ctx context.Context) error {
	var written, failed int
	for {
		select {
		case entry := <-w.queue:
			if _, err := w.repo.Create(ctx, &entry); err != nil {
				failed++
				log.Printf("failed to write query log: %v", err)
				continue
			}
			written++
		default:
			if failed > 0 {
				return fmt.Errorf("%d of %d query logs failed to write", failed, written+failed)
			}
			return nil
		}
	}
}
