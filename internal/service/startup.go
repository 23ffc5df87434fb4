package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/cloo-solutions/ragserve/internal/domain"
	"github.com/cloo-solutions/ragserve/internal/index"
	"github.com/cloo-solutions/ragserve/internal/telemetry"
)

// ErrNoChunks is returned when the corpus splits into nothing.
var ErrNoChunks = errors.New("corpus produced zero chunks")

// CorpusLoader reads the corpus source into a document.
type CorpusLoader interface {
	Load(ctx context.Context, source string) (*domain.Document, error)
}

// Embedder maps text to fixed-dimension vectors.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Generator is the hosted text-generation endpoint.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Ping(ctx context.Context) error
}

// StartupConfig holds the inputs of the startup pipeline.
type StartupConfig struct {
	CorpusSource string
	Collection   string
	Chunk        ChunkConfig
	// SkipProbe builds the index without contacting the generation endpoint.
	SkipProbe bool
}

// Runtime is the read-only state built once at startup and shared by every request.
type Runtime struct {
	Searcher   index.Searcher
	Embedder   Embedder
	Generator  Generator
	ChunkCount int
}

// Startup runs the load, chunk, embed, index and probe steps in order.
type Startup struct {
	cfg       StartupConfig
	loader    CorpusLoader
	chunker   *Chunker
	embedder  Embedder
	store     index.Store
	generator Generator
}

func NewStartup(cfg StartupConfig, loader CorpusLoader, embedder Embedder, store index.Store, generator Generator) *Startup {
	return &Startup{
		cfg:       cfg,
		loader:    loader,
		chunker:   NewChunker(cfg.Chunk),
		embedder:  embedder,
		store:     store,
		generator: generator,
	}
}

// Run returns a *domain.StartupError naming the failed stage on any error.
func (s *Startup) Run(ctx context.Context) (*Runtime, error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.OpStartup, telemetry.Attrs{Collection: s.cfg.Collection})
	rt, err := s.run(ctx)
	span.Finish(err)
	if err != nil {
		telemetry.CaptureError(ctx, err)
		return nil, err
	}
	return rt, nil
}

func (s *Startup) run(ctx context.Context) (*Runtime, error) {
	if s.generator == nil && !s.cfg.SkipProbe {
		return nil, domain.NewStartupError(domain.StartupStageConfig, errors.New("generation endpoint is not configured"))
	}

	doc, err := s.loader.Load(ctx, s.cfg.CorpusSource)
	if err != nil {
		return nil, domain.NewStartupError(domain.StartupStageCorpus, err)
	}
	log.Printf("startup: loaded corpus %s (%d bytes)", doc.Source, len(doc.Content))

	chunks := s.chunker.Split(doc)
	if len(chunks) == 0 {
		return nil, domain.NewStartupError(domain.StartupStageCorpus, ErrNoChunks)
	}
	log.Printf("startup: split corpus into %d chunks", len(chunks))

	entries, err := s.embed(ctx, chunks)
	if err != nil {
		return nil, domain.NewStartupError(domain.StartupStageEmbedding, err)
	}

	spanCtx, span := telemetry.StartSpan(ctx, telemetry.OpIndexReplace, telemetry.Attrs{
		Collection: s.cfg.Collection,
		Items:      len(entries),
	})
	err = s.persist(spanCtx, entries)
	span.Finish(err)
	if err != nil {
		return nil, domain.NewStartupError(domain.StartupStageIndex, err)
	}
	log.Printf("startup: indexed %d chunks into collection %q", len(entries), s.cfg.Collection)

	if !s.cfg.SkipProbe {
		if err := s.generator.Ping(ctx); err != nil {
			return nil, domain.NewStartupError(domain.StartupStageEndpoint, err)
		}
		log.Println("startup: generation endpoint reachable")
	}

	return &Runtime{
		Searcher:   s.store,
		Embedder:   s.embedder,
		Generator:  s.generator,
		ChunkCount: len(entries),
	}, nil
}

// persist replaces the collection and reads the count back, so a store that
// silently kept old rows or dropped new ones fails startup.
func (s *Startup) persist(ctx context.Context, entries []domain.IndexEntry) error {
	if err := s.store.Replace(ctx, entries); err != nil {
		return fmt.Errorf("failed to persist index: %w", err)
	}

	stored, err := s.store.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count persisted index: %w", err)
	}
	if stored != len(entries) {
		return fmt.Errorf("persisted index holds %d entries, expected %d", stored, len(entries))
	}
	return nil
}

func (s *Startup) embed(ctx context.Context, chunks []domain.Chunk) (entries []domain.IndexEntry, err error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.OpEmbedDocuments, telemetry.Attrs{
		Collection: s.cfg.Collection,
		Items:      len(chunks),
	})
	defer func() { span.Finish(err) }()

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(chunks), len(vectors))
	}

	entries = make([]domain.IndexEntry, len(chunks))
	for i, c := range chunks {
		entries[i] = domain.IndexEntry{Chunk: c, Embedding: vectors[i]}
	}
	return entries, nil
}
