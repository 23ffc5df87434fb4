// Package telemetry wraps sentry-go for request transactions, pipeline spans
// and error capture. Every helper is a no-op when Sentry is not initialized.
package telemetry

import (
	"context"
	"log"
	"time"

	"github.com/getsentry/sentry-go"
)

const serverName = "ragserve"

// Operation names shared by spans and the sampler.
const (
	OpStartup        = "app.startup"
	OpEmbedDocuments = "embed.documents"
	OpEmbedQuery     = "embed.query"
	OpIndexReplace   = "index.replace"
	OpIndexSearch    = "index.search"
	OpGenerate       = "llm.generate"
)

type Config struct {
	DSN              string
	Environment      string
	Release          string
	TracesSampleRate float64
	Debug            bool
}

// Init configures the global Sentry client and returns a flush function.
// An empty DSN yields a no-op.
func Init(cfg Config) (func(), error) {
	if cfg.DSN == "" {
		return func() {}, nil
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.TracesSampleRate <= 0 {
		cfg.TracesSampleRate = 1.0
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		ServerName:       serverName,
		Debug:            cfg.Debug,
		EnableTracing:    true,
		TracesSampler:    sampler(cfg.TracesSampleRate),
		BeforeSend:       scrubRequest,
		AttachStacktrace: true,
	})
	if err != nil {
		return func() {}, err
	}

	log.Printf("sentry: tracing initialized (environment: %s, sample_rate: %.2f)", cfg.Environment, cfg.TracesSampleRate)
	return func() { sentry.Flush(5 * time.Second) }, nil
}

// sampler drops health checks, always keeps startup and lets children follow
// their parent.
func sampler(rate float64) sentry.TracesSampler {
	return func(ctx sentry.SamplingContext) float64 {
		if ctx.Parent != nil {
			if ctx.Parent.Sampled.Bool() {
				return 1.0
			}
			return 0.0
		}
		switch {
		case ctx.Span.Op == OpStartup:
			return 1.0
		case ctx.Span.Name == "GET /health":
			return 0.0
		}
		return rate
	}
}

// scrubRequest strips request bodies and cookies; questions may hold user data.
func scrubRequest(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
	if event.Request != nil {
		event.Request.Data = ""
		event.Request.Cookies = ""
	}
	return event
}

// Attrs are tags and data attached to pipeline spans. Zero values are skipped.
type Attrs struct {
	Collection string
	Model      string
	TopK       int
	Items      int
}

func (a Attrs) apply(span *sentry.Span) {
	if a.Collection != "" {
		span.SetTag("rag.collection", a.Collection)
	}
	if a.Model != "" {
		span.SetTag("rag.model", a.Model)
	}
	if a.TopK > 0 {
		span.SetData("rag.top_k", a.TopK)
	}
	if a.Items > 0 {
		span.SetData("rag.items", a.Items)
	}
}

// Span is a started pipeline span. Finish must be called exactly once.
type Span struct {
	inner *sentry.Span
}

// Finish records the outcome and ends the span. Errors are not captured here;
// the boundary that decides the error is fatal does that.
func (s *Span) Finish(err error) {
	if err != nil {
		s.inner.Status = sentry.SpanStatusInternalError
	} else {
		s.inner.Status = sentry.SpanStatusOK
	}
	s.inner.Finish()
}

// StartSpan starts a child of the span in ctx, or a new transaction named
// after op when there is none.
func StartSpan(ctx context.Context, op string, attrs Attrs) (context.Context, *Span) {
	var span *sentry.Span
	if parent := sentry.SpanFromContext(ctx); parent != nil {
		span = parent.StartChild(op)
	} else {
		span = sentry.StartTransaction(ctx, op, sentry.WithOpName(op), sentry.WithTransactionSource(sentry.SourceTask))
	}
	attrs.apply(span)
	return span.Context(), &Span{inner: span}
}

// CaptureError reports err on the hub attached to ctx, or the global hub.
func CaptureError(ctx context.Context, err error) {
	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		hub.CaptureException(err)
		return
	}
	sentry.CaptureException(err)
}

// AddBreadcrumb records a pipeline step on the request's scope.
func AddBreadcrumb(ctx context.Context, category, message string, data map[string]interface{}) {
	crumb := &sentry.Breadcrumb{
		Category:  category,
		Message:   message,
		Data:      data,
		Level:     sentry.LevelInfo,
		Timestamp: time.Now(),
	}
	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		hub.AddBreadcrumb(crumb, nil)
		return
	}
	sentry.AddBreadcrumb(crumb)
}
