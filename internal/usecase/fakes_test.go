package usecase

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eslsoft/wordindex/internal/entity"
	"github.com/eslsoft/wordindex/internal/repository"
)

func quietLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// memoryRepo is an in-memory WordEntryRepository keyed by word.
type memoryRepo struct {
	mu      sync.RWMutex
	entries map[string]*entity.WordEntry
	nextID  int64

	updateStatesErr    error
	beforeUpdateStates func()
}

func newMemoryRepo(entries ...*entity.WordEntry) *memoryRepo {
	r := &memoryRepo{entries: make(map[string]*entity.WordEntry)}
	for _, e := range entries {
		r.nextID++
		c := e.Clone()
		c.ID = r.nextID
		r.entries[c.Word] = c
	}
	return r
}

func (r *memoryRepo) sorted(match func(*entity.WordEntry) bool, filter repository.MatchFilter) []*entity.WordEntry {
	out := make([]*entity.WordEntry, 0)
	for _, e := range r.entries {
		if len(filter.States) > 0 && !containsState(filter.States, e.State) {
			continue
		}
		if match(e) {
			out = append(out, e.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out
}

func containsState(states []entity.State, s entity.State) bool {
	for _, candidate := range states {
		if candidate == s {
			return true
		}
	}
	return false
}

func (r *memoryRepo) Create(ctx context.Context, entry *entity.WordEntry) (*entity.WordEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[entry.Word]; ok {
		return nil, entity.ErrDuplicateWordEntry
	}
	r.nextID++
	c := entry.Clone()
	c.ID = r.nextID
	r.entries[c.Word] = c
	return c.Clone(), nil
}

func (r *memoryRepo) CreateBatch(ctx context.Context, entries []*entity.WordEntry) error {
	for _, e := range entries {
		if _, err := r.Create(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (r *memoryRepo) Update(ctx context.Context, entry *entity.WordEntry) (*entity.WordEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.entries[entry.Word]
	if !ok {
		return nil, entity.ErrWordEntryNotFound
	}
	c := entry.Clone()
	c.ID = existing.ID
	c.CreatedAt = existing.CreatedAt
	r.entries[c.Word] = c
	return c.Clone(), nil
}

func (r *memoryRepo) GetByWord(ctx context.Context, word string) (*entity.WordEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[word]
	if !ok {
		return nil, entity.ErrWordEntryNotFound
	}
	return e.Clone(), nil
}

func (r *memoryRepo) FindByWords(ctx context.Context, words []string) ([]*entity.WordEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	want := make(map[string]bool, len(words))
	for _, w := range words {
		want[w] = true
	}
	return r.sorted(func(e *entity.WordEntry) bool { return want[e.Word] }, repository.MatchFilter{}), nil
}

func (r *memoryRepo) ExistsAsVariant(ctx context.Context, word string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.entries {
		if e.Word == word {
			continue
		}
		for _, v := range e.VariantWords() {
			if v == word {
				return true, nil
			}
		}
	}
	return false, nil
}

func (r *memoryRepo) List(ctx context.Context, query *repository.ListWordEntryQuery) ([]*entity.WordEntry, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := r.sorted(func(*entity.WordEntry) bool { return true }, repository.MatchFilter{States: query.States})
	total := int64(len(all))
	if query.PageSize > 0 {
		start := int(query.Offset())
		if start >= len(all) {
			return []*entity.WordEntry{}, total, nil
		}
		end := start + int(query.PageSize)
		if end > len(all) {
			end = len(all)
		}
		all = all[start:end]
	}
	return all, total, nil
}

func (r *memoryRepo) Delete(ctx context.Context, word string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[word]; !ok {
		return entity.ErrWordEntryNotFound
	}
	delete(r.entries, word)
	return nil
}

func (r *memoryRepo) UpdateStates(ctx context.Context, words []string, state entity.State, at time.Time) (int64, error) {
	if r.beforeUpdateStates != nil {
		r.beforeUpdateStates()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateStatesErr != nil {
		return 0, r.updateStatesErr
	}
	var n int64
	for _, w := range words {
		if e, ok := r.entries[w]; ok {
			e.State = state
			e.UpdatedAt = at
			n++
		}
	}
	return n, nil
}

func (r *memoryRepo) WalkWords(ctx context.Context, fn func(word string) error) error {
	r.mu.RLock()
	all := r.sorted(func(*entity.WordEntry) bool { return true }, repository.MatchFilter{})
	r.mu.RUnlock()
	for _, e := range all {
		if err := fn(e.Word); err != nil {
			return err
		}
	}
	return nil
}

func (r *memoryRepo) FindExact(ctx context.Context, word string, filter repository.MatchFilter) ([]*entity.WordEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sorted(func(e *entity.WordEntry) bool { return e.Word == word }, filter), nil
}

func (r *memoryRepo) FindFolded(ctx context.Context, folded string, filter repository.MatchFilter) ([]*entity.WordEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sorted(func(e *entity.WordEntry) bool { return e.Folded() == folded }, filter), nil
}

func (r *memoryRepo) FindByPrefix(ctx context.Context, prefix string, filter repository.MatchFilter) ([]*entity.WordEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sorted(func(e *entity.WordEntry) bool { return strings.HasPrefix(e.Word, prefix) }, filter), nil
}

func (r *memoryRepo) FindContaining(ctx context.Context, term string, filter repository.MatchFilter) ([]*entity.WordEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	term = strings.ToLower(term)
	return r.sorted(func(e *entity.WordEntry) bool {
		return strings.Contains(e.Word, term) ||
			strings.Contains(strings.ToLower(e.Meaning), term) ||
			strings.Contains(strings.ToLower(e.ExtendedMeaning), term) ||
			strings.Contains(e.VariantText(), term)
	}, filter), nil
}

func (r *memoryRepo) CountByState(ctx context.Context, state entity.State) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, e := range r.entries {
		if e.State == state {
			n++
		}
	}
	return n, nil
}

func (r *memoryRepo) state(word string) entity.State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.entries[word]; ok {
		return e.State
	}
	return ""
}

// scriptedBackend is a SearchBackend whose stage answers are fixed per term.
type scriptedBackend struct {
	mu          sync.Mutex
	name        string
	unavailable bool
	exact       map[string][]*entity.WordEntry
	folded      map[string][]*entity.WordEntry
	prefix      map[string][]*entity.WordEntry
	fullText    map[string][]*entity.WordEntry
	complete    []string
	count       int64

	calls       []string
	indexed     map[string]*entity.WordEntry
	failIndex   map[string]error
	indexErr    error
	indexCalls  int
	removeCalls int
}

func newScriptedBackend(name string) *scriptedBackend {
	return &scriptedBackend{
		name:      name,
		exact:     map[string][]*entity.WordEntry{},
		folded:    map[string][]*entity.WordEntry{},
		prefix:    map[string][]*entity.WordEntry{},
		fullText:  map[string][]*entity.WordEntry{},
		indexed:   map[string]*entity.WordEntry{},
		failIndex: map[string]error{},
	}
}

func (b *scriptedBackend) record(call string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, call)
}

func (b *scriptedBackend) callLog() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

func (b *scriptedBackend) Name() string { return b.name }

func (b *scriptedBackend) Available(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.unavailable {
		return entity.ErrEngineUnavailable
	}
	return nil
}

func (b *scriptedBackend) Exact(ctx context.Context, word string) ([]*entity.WordEntry, error) {
	b.record("exact:" + word)
	return b.exact[word], nil
}

func (b *scriptedBackend) Folded(ctx context.Context, folded string) ([]*entity.WordEntry, error) {
	b.record("folded:" + folded)
	return b.folded[folded], nil
}

func (b *scriptedBackend) Prefix(ctx context.Context, prefix string, limit int) ([]*entity.WordEntry, error) {
	b.record("prefix:" + prefix)
	hits := b.prefix[prefix]
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return append([]*entity.WordEntry(nil), hits...), nil
}

func (b *scriptedBackend) FullText(ctx context.Context, term string, limit int) ([]*entity.WordEntry, error) {
	b.record("fulltext:" + term)
	return b.fullText[term], nil
}

func (b *scriptedBackend) Autocomplete(ctx context.Context, partial string, limit int) ([]string, error) {
	b.record("autocomplete:" + partial)
	return b.complete, nil
}

func (b *scriptedBackend) Count(ctx context.Context) (int64, error) {
	return b.count, nil
}

func (b *scriptedBackend) Index(ctx context.Context, entries []*entity.WordEntry) (map[string]error, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.indexCalls++
	if b.indexErr != nil {
		return nil, b.indexErr
	}
	failed := map[string]error{}
	for _, e := range entries {
		if err, ok := b.failIndex[e.Word]; ok {
			failed[e.Word] = err
			continue
		}
		b.indexed[e.Word] = e.Clone()
	}
	return failed, nil
}

func (b *scriptedBackend) Remove(ctx context.Context, words []string) (map[string]error, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.removeCalls++
	failed := map[string]error{}
	for _, w := range words {
		if _, ok := b.indexed[w]; !ok {
			failed[w] = entity.ErrNotIndexed
			continue
		}
		delete(b.indexed, w)
	}
	return failed, nil
}

// recorder captures activity events.
type recorder struct {
	mu       sync.Mutex
	searches []string
	indexes  []string
}

func (r *recorder) RecordSearch(word string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.searches = append(r.searches, word)
}

func (r *recorder) RecordIndex(word string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.indexes = append(r.indexes, word)
}

func (r *recorder) snapshot() ([]string, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.searches...), append([]string(nil), r.indexes...)
}

func published(word string) *entity.WordEntry {
	e := &entity.WordEntry{Word: word, State: entity.StatePublished, Meaning: "meaning of " + word}
	e.Normalize(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	return e
}

func withState(word string, state entity.State) *entity.WordEntry {
	e := published(word)
	e.State = state
	return e
}
