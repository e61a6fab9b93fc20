package repository

import (
	"context"

	"github.com/eslsoft/wordindex/internal/entity"
)

// SearchBackend is the capability set the search engine is built on. The
// index may be a dedicated full-text index or the entry store itself.
//
// Index and Remove report per-word failures in the returned map; the error is
// reserved for failures that hit the whole call.
type SearchBackend interface {
	Name() string
	Available(ctx context.Context) error

	Exact(ctx context.Context, word string) ([]*entity.WordEntry, error)
	Folded(ctx context.Context, folded string) ([]*entity.WordEntry, error)
	Prefix(ctx context.Context, prefix string, limit int) ([]*entity.WordEntry, error)
	FullText(ctx context.Context, term string, limit int) ([]*entity.WordEntry, error)
	Autocomplete(ctx context.Context, partial string, limit int) ([]string, error)
	Count(ctx context.Context) (int64, error)

	Index(ctx context.Context, entries []*entity.WordEntry) (map[string]error, error)
	Remove(ctx context.Context, words []string) (map[string]error, error)
}
