package service

import (
	"log"
	"strings"
	"unicode/utf8"

	"github.com/cloo-solutions/ragserve/internal/domain"
	"github.com/google/uuid"
)

// ChunkConfig controls how the corpus is split before embedding.
type ChunkConfig struct {
	Size      int
	Overlap   int
	Separator string
}

// DefaultChunkConfig splits on blank lines into chunks of at most 1000 characters.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		Size:      1000,
		Overlap:   0,
		Separator: "\n\n",
	}
}

// Chunker splits documents into retrieval chunks.
type Chunker struct {
	cfg   ChunkConfig
	newID func() string
}

func NewChunker(cfg ChunkConfig) *Chunker {
	if cfg.Size <= 0 {
		cfg.Size = DefaultChunkConfig().Size
	}
	if cfg.Separator == "" {
		cfg.Separator = DefaultChunkConfig().Separator
	}
	if cfg.Overlap < 0 {
		cfg.Overlap = 0
	}
	return &Chunker{cfg: cfg, newID: uuid.NewString}
}

// Split returns the chunks of doc in order.
func (c *Chunker) Split(doc *domain.Document) []domain.Chunk {
	texts := splitText(doc.Content, c.cfg)
	chunks := make([]domain.Chunk, 0, len(texts))
	for i, text := range texts {
		chunks = append(chunks, domain.Chunk{
			ID:     c.newID(),
			Source: doc.Source,
			Index:  i,
			Text:   text,
		})
	}
	return chunks
}

func splitText(text string, cfg ChunkConfig) []string {
	pieces := make([]string, 0, 16)
	for _, p := range strings.Split(text, cfg.Separator) {
		if p != "" {
			pieces = append(pieces, p)
		}
	}
	return mergePieces(pieces, cfg)
}

// mergePieces greedily joins pieces with the separator while the result fits
// in cfg.Size runes. After each emitted chunk, trailing pieces totalling at
// most cfg.Overlap runes are carried into the next one.
func mergePieces(pieces []string, cfg ChunkConfig) []string {
	sepLen := utf8.RuneCountInString(cfg.Separator)

	var (
		chunks  []string
		current []string
		total   int
	)

	joinLen := func() int {
		if len(current) > 0 {
			return sepLen
		}
		return 0
	}

	for _, p := range pieces {
		pLen := utf8.RuneCountInString(p)

		if total+pLen+joinLen() > cfg.Size {
			if total > cfg.Size {
				log.Printf("created a chunk of size %d, which is longer than the specified %d", total, cfg.Size)
			}
			if len(current) > 0 {
				if chunk := joinPieces(current, cfg.Separator); chunk != "" {
					chunks = append(chunks, chunk)
				}
				for total > cfg.Overlap || (total > 0 && total+pLen+joinLen() > cfg.Size) {
					drop := utf8.RuneCountInString(current[0])
					if len(current) > 1 {
						drop += sepLen
					}
					total -= drop
					current = current[1:]
				}
			}
		}

		current = append(current, p)
		total += pLen
		if len(current) > 1 {
			total += sepLen
		}
	}

	if chunk := joinPieces(current, cfg.Separator); chunk != "" {
		chunks = append(chunks, chunk)
	}

	return chunks
}

func joinPieces(pieces []string, sep string) string {
	return strings.TrimSpace(strings.Join(pieces, sep))
}
