package repository

import (
	"context"
	"time"

	"github.com/eslsoft/wordindex/internal/entity"
)

type ListWordEntryQuery struct {
	Pagination
	FilterOrder
	States []entity.State
}

// MatchFilter restricts the search-shaped store queries. An empty States
// matches every state; Limit <= 0 means unbounded.
type MatchFilter struct {
	States []entity.State
	Limit  int
}

// WordEntryRepository defines data access for word entries.
type WordEntryRepository interface {
	Create(ctx context.Context, entry *entity.WordEntry) (*entity.WordEntry, error)
	CreateBatch(ctx context.Context, entries []*entity.WordEntry) error
	Update(ctx context.Context, entry *entity.WordEntry) (*entity.WordEntry, error)
	GetByWord(ctx context.Context, word string) (*entity.WordEntry, error)
	FindByWords(ctx context.Context, words []string) ([]*entity.WordEntry, error)
	ExistsAsVariant(ctx context.Context, word string) (bool, error)
	List(ctx context.Context, query *ListWordEntryQuery) ([]*entity.WordEntry, int64, error)
	Delete(ctx context.Context, word string) error
	UpdateStates(ctx context.Context, words []string, state entity.State, at time.Time) (int64, error)
	WalkWords(ctx context.Context, fn func(word string) error) error

	FindExact(ctx context.Context, word string, filter MatchFilter) ([]*entity.WordEntry, error)
	FindFolded(ctx context.Context, folded string, filter MatchFilter) ([]*entity.WordEntry, error)
	FindByPrefix(ctx context.Context, prefix string, filter MatchFilter) ([]*entity.WordEntry, error)
	FindContaining(ctx context.Context, term string, filter MatchFilter) ([]*entity.WordEntry, error)
	CountByState(ctx context.Context, state entity.State) (int64, error)
}
