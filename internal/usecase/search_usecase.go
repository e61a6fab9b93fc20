package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/wordindex/internal/entity"
	"github.com/eslsoft/wordindex/internal/infrastructure/cache"
	"github.com/eslsoft/wordindex/internal/repository"
)

// SearchUsecase answers dictionary lookups.
type SearchUsecase interface {
	Search(ctx context.Context, term string) ([]*entity.WordEntry, error)
	GetByWord(ctx context.Context, word string) (*entity.WordEntry, error)
	ListByAlphabet(ctx context.Context, prefix string) ([]*entity.WordEntry, error)
	Autocomplete(ctx context.Context, partial string) ([]string, error)
	SearchableCount(ctx context.Context) (int64, error)
}

// ActivityRecorder receives search and index events. Recording never fails
// from the caller's point of view.
type ActivityRecorder interface {
	RecordSearch(word string)
	RecordIndex(word string)
}

// Backends pairs the configured search backend with the one queries fall
// back to while it is unavailable. Fallback may be nil.
type Backends struct {
	Primary  repository.SearchBackend
	Fallback repository.SearchBackend
}

// SearchOptions holds the result caps of the search stages.
type SearchOptions struct {
	ResultLimit           int
	AutocompleteMinLength int
}

const (
	_defaultResultLimit     = 20
	_defaultAutocompleteMin = 2
	_searchCacheKeyPrefix   = "search:"
)

type searchUsecase struct {
	backends Backends
	activity ActivityRecorder
	cache    cache.Cache
	opts     SearchOptions
	logger   logrus.FieldLogger
}

func NewSearchUsecase(backends Backends, activity ActivityRecorder, resultCache cache.Cache, opts SearchOptions, logger logrus.FieldLogger) SearchUsecase {
	if opts.ResultLimit <= 0 {
		opts.ResultLimit = _defaultResultLimit
	}
	if opts.AutocompleteMinLength <= 0 {
		opts.AutocompleteMinLength = _defaultAutocompleteMin
	}
	if resultCache == nil {
		resultCache = cache.Noop{}
	}
	return &searchUsecase{
		backends: backends,
		activity: activity,
		cache:    resultCache,
		opts:     opts,
		logger:   logger,
	}
}

// Search runs the exact, folded, prefix and full-text stages in order and
// stops at the first stage that settles the query.
func (u *searchUsecase) Search(ctx context.Context, term string) ([]*entity.WordEntry, error) {
	term = entity.NormalizeWordToken(term)
	if term == "" {
		return []*entity.WordEntry{}, nil
	}

	if cached, ok := u.cachedResult(ctx, term); ok {
		u.recordExactHit(term, cached)
		return cached, nil
	}

	backend, err := u.backend(ctx)
	if err != nil {
		return nil, err
	}
	results, err := u.runStages(ctx, backend, term)
	if err != nil {
		return nil, err
	}

	// fallback answers are not cached so the primary serves as soon as it recovers
	if backend == u.backends.Primary {
		u.storeResult(ctx, term, results)
	}
	u.recordExactHit(term, results)
	return results, nil
}

func (u *searchUsecase) runStages(ctx context.Context, backend repository.SearchBackend, term string) ([]*entity.WordEntry, error) {
	set := newResultSet()

	exact, err := backend.Exact(ctx, term)
	if err != nil {
		return nil, fmt.Errorf("exact stage: %w", err)
	}
	set.add(exact)
	if len(exact) == 1 {
		return set.items(), nil
	}

	folded, err := backend.Folded(ctx, entity.FoldAccents(term))
	if err != nil {
		return nil, fmt.Errorf("folded stage: %w", err)
	}
	set.add(folded)
	if len(folded) == 1 {
		return set.items(), nil
	}

	prefix, err := backend.Prefix(ctx, term, u.opts.ResultLimit)
	if err != nil {
		return nil, fmt.Errorf("prefix stage: %w", err)
	}
	set.add(prefix)
	if len(prefix) > 0 {
		return set.items(), nil
	}

	text, err := backend.FullText(ctx, term, u.opts.ResultLimit)
	if err != nil {
		return nil, fmt.Errorf("full text stage: %w", err)
	}
	set.add(text)
	return set.items(), nil
}

func (u *searchUsecase) GetByWord(ctx context.Context, word string) (*entity.WordEntry, error) {
	word = entity.NormalizeWordToken(word)
	if word == "" {
		return nil, entity.ErrWordEntryNotFound
	}
	backend, err := u.backend(ctx)
	if err != nil {
		return nil, err
	}
	hits, err := backend.Exact(ctx, word)
	if err != nil {
		return nil, fmt.Errorf("get by word: %w", err)
	}
	if len(hits) == 0 {
		return nil, entity.ErrWordEntryNotFound
	}
	u.activity.RecordSearch(word)
	return hits[0], nil
}

// ListByAlphabet returns every match for prefix, most recently indexed first.
func (u *searchUsecase) ListByAlphabet(ctx context.Context, prefix string) ([]*entity.WordEntry, error) {
	prefix = entity.NormalizeWordToken(prefix)
	if prefix == "" {
		return []*entity.WordEntry{}, nil
	}
	backend, err := u.backend(ctx)
	if err != nil {
		return nil, err
	}
	hits, err := backend.Prefix(ctx, prefix, 0)
	if err != nil {
		return nil, fmt.Errorf("list by alphabet: %w", err)
	}
	return lo.Reverse(hits), nil
}

func (u *searchUsecase) Autocomplete(ctx context.Context, partial string) ([]string, error) {
	partial = entity.NormalizeWordToken(partial)
	if utf8.RuneCountInString(partial) < u.opts.AutocompleteMinLength {
		return []string{}, nil
	}
	backend, err := u.backend(ctx)
	if err != nil {
		return nil, err
	}
	words, err := backend.Autocomplete(ctx, partial, u.opts.ResultLimit)
	if err != nil {
		return nil, fmt.Errorf("autocomplete: %w", err)
	}
	if len(words) > u.opts.ResultLimit {
		words = words[:u.opts.ResultLimit]
	}
	return words, nil
}

func (u *searchUsecase) SearchableCount(ctx context.Context) (int64, error) {
	backend, err := u.backend(ctx)
	if err != nil {
		return 0, err
	}
	return backend.Count(ctx)
}

func (u *searchUsecase) backend(ctx context.Context) (repository.SearchBackend, error) {
	err := u.backends.Primary.Available(ctx)
	if err == nil {
		return u.backends.Primary, nil
	}
	if u.backends.Fallback == nil || u.backends.Fallback == u.backends.Primary {
		return nil, fmt.Errorf("%s backend: %w", u.backends.Primary.Name(), err)
	}
	u.logger.WithError(err).WithFields(logrus.Fields{
		"primary":  u.backends.Primary.Name(),
		"fallback": u.backends.Fallback.Name(),
	}).Warn("search backend unavailable, using fallback")
	if err := u.backends.Fallback.Available(ctx); err != nil {
		return nil, fmt.Errorf("%s backend: %w", u.backends.Fallback.Name(), err)
	}
	return u.backends.Fallback, nil
}

func (u *searchUsecase) recordExactHit(term string, results []*entity.WordEntry) {
	if len(results) == 1 && results[0].Word == term {
		u.activity.RecordSearch(term)
	}
}

func (u *searchUsecase) cachedResult(ctx context.Context, term string) ([]*entity.WordEntry, bool) {
	raw, err := u.cache.Get(ctx, _searchCacheKeyPrefix+term)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			u.logger.WithError(err).WithField("term", term).Warn("search cache read failed")
		}
		return nil, false
	}
	var results []*entity.WordEntry
	if err := json.Unmarshal(raw, &results); err != nil {
		u.logger.WithError(err).WithField("term", term).Warn("search cache entry unreadable")
		return nil, false
	}
	if results == nil {
		results = []*entity.WordEntry{}
	}
	return results, true
}

func (u *searchUsecase) storeResult(ctx context.Context, term string, results []*entity.WordEntry) {
	raw, err := json.Marshal(results)
	if err != nil {
		u.logger.WithError(err).WithField("term", term).Warn("search result not cacheable")
		return
	}
	if err := u.cache.Set(ctx, _searchCacheKeyPrefix+term, raw, 0); err != nil {
		u.logger.WithError(err).WithField("term", term).Warn("search cache write failed")
	}
}

// resultSet keeps the first occurrence of each word in arrival order.
type resultSet struct {
	seen  map[string]struct{}
	order []*entity.WordEntry
}

func newResultSet() *resultSet {
	return &resultSet{seen: make(map[string]struct{})}
}

func (s *resultSet) add(entries []*entity.WordEntry) {
	for _, e := range entries {
		if e == nil {
			continue
		}
		if _, ok := s.seen[e.Word]; ok {
			continue
		}
		s.seen[e.Word] = struct{}{}
		s.order = append(s.order, e)
	}
}

func (s *resultSet) items() []*entity.WordEntry {
	if s.order == nil {
		return []*entity.WordEntry{}
	}
	return s.order
}
