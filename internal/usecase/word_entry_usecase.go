package usecase

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eslsoft/wordindex/internal/entity"
	"github.com/eslsoft/wordindex/internal/infrastructure/cache"
	"github.com/eslsoft/wordindex/internal/repository"
	"github.com/eslsoft/wordindex/pkg/filterexpr"
)

// WordEntryUsecase defines the editorial lifecycle of word entries.
type WordEntryUsecase interface {
	Create(ctx context.Context, entry *entity.WordEntry, suggested bool) (*entity.WordEntry, error)
	Update(ctx context.Context, word string, patch *entity.WordEntry) (*entity.WordEntry, error)
	Get(ctx context.Context, word string) (*entity.WordEntry, error)
	List(ctx context.Context, query *repository.ListWordEntryQuery) ([]*entity.WordEntry, int64, error)
	Delete(ctx context.Context, word string) error
}

const (
	_defaultPageSize = int32(20)
	_maxPageSize     = int32(1000)
	_maxCandidates   = int32(10000)
)

var wordEntrySchema = filterexpr.ResourceSchema[*entity.WordEntry]{
	Filter: map[string]filterexpr.ValueKind{
		"word":         filterexpr.KindString,
		"state":        filterexpr.KindString,
		"submitted_by": filterexpr.KindString,
		"variants":     filterexpr.KindStringList,
		"created_at":   filterexpr.KindTimestamp,
		"updated_at":   filterexpr.KindTimestamp,
	},
	Vars: func(e *entity.WordEntry) map[string]any {
		return map[string]any{
			"word":         e.Word,
			"state":        string(e.State),
			"submitted_by": e.SubmittedBy,
			"variants":     e.VariantWords(),
			"created_at":   e.CreatedAt,
			"updated_at":   e.UpdatedAt,
		}
	},
	Order: filterexpr.OrderSchema[*entity.WordEntry]{
		DefaultPrimary: "word",
		FallbackKey:    "created_at",
		Fields: map[string]filterexpr.CompareFunc[*entity.WordEntry]{
			"word":       func(a, b *entity.WordEntry) int { return strings.Compare(a.Word, b.Word) },
			"state":      func(a, b *entity.WordEntry) int { return cmp.Compare(a.State, b.State) },
			"created_at": func(a, b *entity.WordEntry) int { return a.CreatedAt.Compare(b.CreatedAt) },
			"updated_at": func(a, b *entity.WordEntry) int { return a.UpdatedAt.Compare(b.UpdatedAt) },
		},
	},
}

type wordEntryUsecase struct {
	repo   repository.WordEntryRepository
	cache  cache.Cache
	logger logrus.FieldLogger
	now    func() time.Time
}

// NewWordEntryUsecase shares the search result cache so edits to stored
// entries drop results that may still show their old content.
func NewWordEntryUsecase(repo repository.WordEntryRepository, resultCache cache.Cache, logger logrus.FieldLogger) WordEntryUsecase {
	if resultCache == nil {
		resultCache = cache.Noop{}
	}
	return &wordEntryUsecase{repo: repo, cache: resultCache, logger: logger, now: time.Now}
}

func (u *wordEntryUsecase) Create(ctx context.Context, entry *entity.WordEntry, suggested bool) (*entity.WordEntry, error) {
	if entry == nil {
		return nil, errors.New("word entry payload required")
	}
	in := entry.Clone()
	in.ID = 0
	in.CreatedAt, in.UpdatedAt = time.Time{}, time.Time{}
	in.State = entity.StateNew
	if suggested {
		in.State = entity.StateSuggested
	}
	in.Normalize(u.now())
	if in.Word == "" {
		return nil, entity.ErrInvalidWord
	}

	isVariant, err := u.repo.ExistsAsVariant(ctx, in.Word)
	if err != nil {
		return nil, err
	}
	if isVariant {
		return nil, entity.ErrWordExistsAsVariant
	}
	return u.repo.Create(ctx, in)
}

func (u *wordEntryUsecase) Update(ctx context.Context, word string, patch *entity.WordEntry) (*entity.WordEntry, error) {
	if patch == nil {
		return nil, errors.New("word entry payload required")
	}
	word = entity.NormalizeWordToken(word)
	if word == "" {
		return nil, entity.ErrInvalidWord
	}
	existing, err := u.repo.GetByWord(ctx, word)
	if err != nil {
		return nil, err
	}
	existing.ApplyUpdate(patch, u.now())
	updated, err := u.repo.Update(ctx, existing)
	if err != nil {
		return nil, err
	}
	u.invalidate(ctx)
	return updated, nil
}

func (u *wordEntryUsecase) Get(ctx context.Context, word string) (*entity.WordEntry, error) {
	word = entity.NormalizeWordToken(word)
	if word == "" {
		return nil, entity.ErrInvalidWord
	}
	return u.repo.GetByWord(ctx, word)
}

// List pages through entries. Without a filter or order_by the store pages
// directly; otherwise up to _maxCandidates entries are filtered and ordered
// in memory before paging.
func (u *wordEntryUsecase) List(ctx context.Context, query *repository.ListWordEntryQuery) ([]*entity.WordEntry, int64, error) {
	q := repository.ListWordEntryQuery{}
	if query != nil {
		q = *query
	}
	q.PageNo = max(q.PageNo, 1)
	switch {
	case q.PageSize <= 0:
		q.PageSize = _defaultPageSize
	case q.PageSize > _maxPageSize:
		q.PageSize = _maxPageSize
	}

	if strings.TrimSpace(q.Filter) == "" && strings.TrimSpace(q.OrderBy) == "" {
		return u.repo.List(ctx, &q)
	}

	parsed, err := filterexpr.Parse(&q.FilterOrder, wordEntrySchema)
	if err != nil {
		return nil, 0, invalidFilter(err)
	}
	candidates, _, err := u.repo.List(ctx, &repository.ListWordEntryQuery{
		Pagination: repository.Pagination{PageNo: 1, PageSize: _maxCandidates},
		States:     q.States,
	})
	if err != nil {
		return nil, 0, err
	}
	matched, err := parsed.Apply(candidates)
	if err != nil {
		return nil, 0, invalidFilter(err)
	}

	total := int64(len(matched))
	start := int(q.Offset())
	if start >= len(matched) {
		return []*entity.WordEntry{}, total, nil
	}
	end := min(start+int(q.PageSize), len(matched))
	return matched[start:end], total, nil
}

func (u *wordEntryUsecase) Delete(ctx context.Context, word string) error {
	word = entity.NormalizeWordToken(word)
	if word == "" {
		return entity.ErrInvalidWord
	}
	if err := u.repo.Delete(ctx, word); err != nil {
		return err
	}
	u.invalidate(ctx)
	return nil
}

func (u *wordEntryUsecase) invalidate(ctx context.Context) {
	if err := u.cache.Clear(ctx); err != nil {
		u.logger.WithError(err).Warn("search cache clear failed")
	}
}

func invalidFilter(err error) error {
	if errors.Is(err, filterexpr.ErrInvalid) {
		return fmt.Errorf("%w: %v", entity.ErrInvalidFilter, err)
	}
	return err
}
