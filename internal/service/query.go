package service

import (
	"context"
	"strings"
	"time"

	"github.com/cloo-solutions/ragserve/internal/domain"
	"github.com/cloo-solutions/ragserve/internal/index"
	"github.com/cloo-solutions/ragserve/internal/telemetry"
)

const promptPreamble = "Use the following pieces of context to answer the question at the end. " +
	"If you don't know the answer, just say that you don't know, don't try to make up an answer."

// DefaultTopK is the number of chunks retrieved per query.
const DefaultTopK = 4

// QueryRecorder receives one entry per answered or failed query. Record must not block.
type QueryRecorder interface {
	Record(entry domain.QueryLog)
}

type QueryInput struct {
	Query     string
	RequestID string
}

type QueryOutput struct {
	Answer  string
	Sources []string
}

// QueryService answers questions against the index built at startup.
type QueryService struct {
	embedder   Embedder
	searcher   index.Searcher
	generator  Generator
	topK       int
	collection string
	recorder   QueryRecorder
	now        func() time.Time
}

func NewQueryService(rt *Runtime, topK int, collection string) *QueryService {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &QueryService{
		embedder:   rt.Embedder,
		searcher:   rt.Searcher,
		generator:  rt.Generator,
		topK:       topK,
		collection: collection,
		now:        time.Now,
	}
}

// WithRecorder attaches a query log sink.
func (s *QueryService) WithRecorder(r QueryRecorder) *QueryService {
	s.recorder = r
	return s
}

// Answer embeds the question, retrieves the nearest chunks and asks the
// generator. Validation failures return domain.ErrQueryMissing; every other
// failure is an internal DomainError wrapping the cause.
func (s *QueryService) Answer(ctx context.Context, in QueryInput) (*QueryOutput, error) {
	if in.Query == "" {
		return nil, domain.ErrQueryMissing
	}

	start := s.now()
	out, err := s.answer(ctx, in.Query)
	s.record(in, out, err, start)
	return out, err
}

func (s *QueryService) answer(ctx context.Context, query string) (*QueryOutput, error) {
	hits, err := s.retrieve(ctx, query)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, domain.ErrRetrievalFailed.Message, err)
	}

	sources := make([]string, len(hits))
	for i, h := range hits {
		sources[i] = h.Chunk.Text
	}
	telemetry.AddBreadcrumb(ctx, "rag", "retrieved context", map[string]interface{}{
		"collection": s.collection,
		"chunks":     len(hits),
	})

	genCtx, span := telemetry.StartSpan(ctx, telemetry.OpGenerate, telemetry.Attrs{Items: len(sources)})
	answer, err := s.generator.Generate(genCtx, BuildPrompt(sources, query))
	span.Finish(err)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, domain.ErrGenerationFailed.Message, err)
	}

	return &QueryOutput{Answer: answer, Sources: sources}, nil
}

func (s *QueryService) retrieve(ctx context.Context, query string) ([]domain.ScoredChunk, error) {
	embedCtx, span := telemetry.StartSpan(ctx, telemetry.OpEmbedQuery, telemetry.Attrs{})
	vector, err := s.embedder.EmbedQuery(embedCtx, query)
	span.Finish(err)
	if err != nil {
		return nil, err
	}

	searchCtx, span := telemetry.StartSpan(ctx, telemetry.OpIndexSearch, telemetry.Attrs{
		Collection: s.collection,
		TopK:       s.topK,
	})
	hits, err := s.searcher.Search(searchCtx, vector, s.topK)
	span.Finish(err)
	return hits, err
}

func (s *QueryService) record(in QueryInput, out *QueryOutput, err error, start time.Time) {
	if s.recorder == nil {
		return
	}

	entry := domain.QueryLog{
		RequestID:  in.RequestID,
		Query:      in.Query,
		Status:     domain.QueryStatusAnswered,
		DurationMs: s.now().Sub(start).Milliseconds(),
	}
	if err != nil {
		entry.Status = domain.QueryStatusFailed
	} else {
		entry.Sources = out.Sources
	}
	s.recorder.Record(entry)
}

// BuildPrompt stuffs every retrieved chunk into a single prompt ahead of the question.
func BuildPrompt(chunks []string, question string) string {
	var b strings.Builder
	b.WriteString(promptPreamble)
	b.WriteString("\n\n")
	b.WriteString(strings.Join(chunks, "\n\n"))
	b.WriteString("\n\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\nHelpful Answer:")
	return b.String()
}
