// Package corpus loads the source text the index is built from.
package corpus

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/cloo-solutions/ragserve/internal/domain"
	"github.com/cloo-solutions/ragserve/internal/storage"
)

var (
	// ErrEmptyCorpus is returned when the source holds no text
	ErrEmptyCorpus = errors.New("corpus is empty")
	// ErrNoObjectStore is returned for s3:// sources when S3 is not configured
	ErrNoObjectStore = errors.New("s3 corpus source requires S3 configuration")
	// ErrInvalidEncoding is returned when the corpus is not valid UTF-8
	ErrInvalidEncoding = errors.New("corpus is not valid UTF-8")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ObjectGetter fetches objects from remote storage.
type ObjectGetter interface {
	GetObject(ctx context.Context, bucket, key string) ([]byte, error)
}

// Loader reads a single corpus source into one Document.
type Loader struct {
	objects ObjectGetter
}

// NewLoader creates a loader for local files only.
func NewLoader() *Loader {
	return &Loader{}
}

// NewLoaderWithObjects creates a loader that also resolves s3:// sources.
func NewLoaderWithObjects(objects ObjectGetter) *Loader {
	return &Loader{objects: objects}
}

// Load reads source, a local path or an s3://bucket/key URI.
func (l *Loader) Load(ctx context.Context, source string) (*domain.Document, error) {
	var (
		data []byte
		err  error
	)

	if storage.IsS3URI(source) {
		data, err = l.loadObject(ctx, source)
	} else {
		data, err = os.ReadFile(source)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load corpus %s: %w", source, err)
	}

	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("failed to load corpus %s: %w", source, ErrInvalidEncoding)
	}

	content := string(data)
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("failed to load corpus %s: %w", source, ErrEmptyCorpus)
	}

	return &domain.Document{
		Source:  source,
		Content: content,
	}, nil
}

func (l *Loader) loadObject(ctx context.Context, source string) ([]byte, error) {
	if l.objects == nil {
		return nil, ErrNoObjectStore
	}

	bucket, key, err := storage.ParseS3URI(source)
	if err != nil {
		return nil, err
	}

	return l.objects.GetObject(ctx, bucket, key)
}
