package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/cloo-solutions/ragserve/internal/domain"
)

const fileFormatVersion = 1

type diskEntry struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Index     int       `json:"index"`
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding"`
}

type diskFile struct {
	Version    int         `json:"version"`
	Collection string      `json:"collection"`
	Dimension  int         `json:"dimension"`
	Entries    []diskEntry `json:"entries"`
}

// DiskStore keeps a collection in memory and persists it as one JSON file
// under the persistence directory.
type DiskStore struct {
	path       string
	collection string

	mu        sync.RWMutex
	dimension int
	entries   []domain.IndexEntry
}

// OpenDiskStore creates dir if needed and loads a previously persisted
// collection when one exists.
func OpenDiskStore(dir, collection string) (*DiskStore, error) {
	if dir == "" {
		return nil, errors.New("persistence directory is required")
	}
	if collection == "" {
		return nil, errors.New("collection name is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create persistence directory: %w", err)
	}

	s := &DiskStore{
		path:       filepath.Join(dir, collection+".json"),
		collection: collection,
	}
	if err := s.load(); err != nil {
		return nil, err
	}

	return s, nil
}

// Path returns the file backing the collection.
func (s *DiskStore) Path() string {
	return s.path
}

func (s *DiskStore) load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read index file: %w", err)
	}

	var f diskFile
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to decode index file %s: %w", s.path, err)
	}
	if f.Version != fileFormatVersion {
		return fmt.Errorf("unsupported index file version %d", f.Version)
	}

	entries := make([]domain.IndexEntry, len(f.Entries))
	for i, e := range f.Entries {
		entries[i] = domain.IndexEntry{
			Chunk:     domain.Chunk{ID: e.ID, Source: e.Source, Index: e.Index, Text: e.Text},
			Embedding: e.Embedding,
		}
	}
	if len(entries) > 0 {
		if _, err := domain.ValidateEntries(entries); err != nil {
			return fmt.Errorf("corrupt index file %s: %w", s.path, err)
		}
	}

	s.dimension = f.Dimension
	s.entries = entries
	return nil
}

// Replace atomically swaps the persisted collection for entries.
func (s *DiskStore) Replace(ctx context.Context, entries []domain.IndexEntry) error {
	dim, err := domain.ValidateEntries(entries)
	if err != nil {
		return err
	}

	f := diskFile{
		Version:    fileFormatVersion,
		Collection: s.collection,
		Dimension:  dim,
		Entries:    make([]diskEntry, len(entries)),
	}
	for i, e := range entries {
		f.Entries[i] = diskEntry{
			ID:        e.Chunk.ID,
			Source:    e.Chunk.Source,
			Index:     e.Chunk.Index,
			Text:      e.Chunk.Text,
			Embedding: e.Embedding,
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := writeFileAtomic(s.path, f); err != nil {
		return err
	}

	stored := make([]domain.IndexEntry, len(entries))
	copy(stored, entries)

	s.mu.Lock()
	s.dimension = dim
	s.entries = stored
	s.mu.Unlock()

	return nil
}

func writeFileAtomic(path string, v interface{}) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp index file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := json.NewEncoder(tmp).Encode(v); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode index file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync index file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close index file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to persist index file: %w", err)
	}
	return nil
}

// Count returns the number of stored entries.
func (s *DiskStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

// Search ranks every stored entry by cosine similarity to embedding.
func (s *DiskStore) Search(ctx context.Context, embedding []float32, k int) ([]domain.ScoredChunk, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.entries) == 0 {
		return []domain.ScoredChunk{}, nil
	}
	if len(embedding) != s.dimension {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, domain.ErrDimensionMismatch.Message,
			fmt.Errorf("query has %d dimensions, index has %d", len(embedding), s.dimension))
	}

	hits := make([]domain.ScoredChunk, len(s.entries))
	for i, e := range s.entries {
		hits[i] = domain.ScoredChunk{
			Chunk: e.Chunk,
			Score: cosineSimilarity(embedding, e.Embedding),
		}
	}

	return rankTopK(hits, k), nil
}
