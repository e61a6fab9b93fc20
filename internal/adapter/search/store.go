package search

import (
	"context"
	"fmt"

	"github.com/samber/lo"

	"github.com/eslsoft/wordindex/internal/entity"
	"github.com/eslsoft/wordindex/internal/repository"
)

// StoreBackendName identifies the store-backed search backend.
const StoreBackendName = "store"

var publishedOnly = []entity.State{entity.StatePublished}

type storeBackend struct {
	repo repository.WordEntryRepository
}

// NewStoreBackend searches the entry store directly. Only PUBLISHED entries
// are visible, so indexing is a matter of state and Index does nothing.
func NewStoreBackend(repo repository.WordEntryRepository) repository.SearchBackend {
	return &storeBackend{repo: repo}
}

func (b *storeBackend) Name() string { return StoreBackendName }

func (b *storeBackend) Available(ctx context.Context) error {
	return ctx.Err()
}

func (b *storeBackend) Exact(ctx context.Context, word string) ([]*entity.WordEntry, error) {
	return b.repo.FindExact(ctx, word, repository.MatchFilter{States: publishedOnly})
}

func (b *storeBackend) Folded(ctx context.Context, folded string) ([]*entity.WordEntry, error) {
	return b.repo.FindFolded(ctx, folded, repository.MatchFilter{States: publishedOnly})
}

func (b *storeBackend) Prefix(ctx context.Context, prefix string, limit int) ([]*entity.WordEntry, error) {
	return b.repo.FindByPrefix(ctx, prefix, repository.MatchFilter{States: publishedOnly, Limit: limit})
}

func (b *storeBackend) FullText(ctx context.Context, term string, limit int) ([]*entity.WordEntry, error) {
	return b.repo.FindContaining(ctx, term, repository.MatchFilter{States: publishedOnly, Limit: limit})
}

func (b *storeBackend) Autocomplete(ctx context.Context, partial string, limit int) ([]string, error) {
	entries, err := b.Prefix(ctx, partial, limit)
	if err != nil {
		return nil, err
	}
	return lo.Map(entries, func(e *entity.WordEntry, _ int) string { return e.Word }), nil
}

func (b *storeBackend) Count(ctx context.Context) (int64, error) {
	return b.repo.CountByState(ctx, entity.StatePublished)
}

func (b *storeBackend) Index(ctx context.Context, _ []*entity.WordEntry) (map[string]error, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return map[string]error{}, nil
}

func (b *storeBackend) Remove(ctx context.Context, words []string) (map[string]error, error) {
	failed := make(map[string]error)
	if len(words) == 0 {
		return failed, nil
	}
	entries, err := b.repo.FindByWords(ctx, words)
	if err != nil {
		return nil, fmt.Errorf("load entries for removal: %w", err)
	}
	byWord := lo.KeyBy(entries, func(e *entity.WordEntry) string { return e.Word })
	for _, word := range words {
		entry, ok := byWord[word]
		if !ok || !entry.State.Indexed() {
			failed[word] = entity.ErrNotIndexed
		}
	}
	return failed, nil
}
