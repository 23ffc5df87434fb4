// Package jobs runs periodic background processors alongside the HTTP server.
package jobs

import (
	"context"
	"log"
	"sync"
	"time"
)

// JobProcessor is called once per tick. A returned error is logged and the
// worker keeps running.
type JobProcessor interface {
	ProcessJobs(ctx context.Context) error
}

// Worker calls its processor on a fixed interval until stopped. On Stop it
// runs one last pass so buffered work is flushed.
type Worker struct {
	name      string
	processor JobProcessor
	interval  time.Duration

	stop    chan struct{}
	done    chan struct{}
	started chan struct{}

	mu      sync.Mutex
	running bool
	stopped bool
}

func NewWorker(name string, processor JobProcessor, interval time.Duration) *Worker {
	return &Worker{
		name:      name,
		processor: processor,
		interval:  interval,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
		started:   make(chan struct{}),
	}
}

// Start blocks until Stop is called or ctx is cancelled. Only the first call
// runs the loop, and none does once Stop has been called.
func (w *Worker) Start(ctx context.Context) {
	w.mu.Lock()
	if w.running || w.stopped {
		w.mu.Unlock()
		return
	}
	w.running = true
	close(w.started)
	w.mu.Unlock()

	defer close(w.done)
	w.loop(ctx)
}

func (w *Worker) loop(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	log.Printf("%s worker started (interval %v)", w.name, w.interval)

	for {
		select {
		case <-ctx.Done():
			log.Printf("%s worker stopped: %v", w.name, ctx.Err())
			return
		case <-w.stop:
			w.process(context.WithoutCancel(ctx), "final pass")
			log.Printf("%s worker stopped", w.name)
			return
		case <-ticker.C:
			w.process(ctx, "tick")
		}
	}
}

func (w *Worker) process(ctx context.Context, phase string) {
	if err := w.processor.ProcessJobs(ctx); err != nil {
		log.Printf("%s worker %s: %v", w.name, phase, err)
	}
}

// Stop signals the loop and waits for the final pass. It is safe to call
// more than once. Before Start it returns at once and the worker never runs.
func (w *Worker) Stop() {
	w.mu.Lock()
	running := w.running
	if !w.stopped {
		w.stopped = true
		close(w.stop)
	}
	w.mu.Unlock()

	if running {
		<-w.done
	}
}
