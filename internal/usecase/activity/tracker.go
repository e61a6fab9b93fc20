// Package activity keeps the recent-search, recent-index and popularity
// registers shown on the dictionary front page.
package activity

import (
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eslsoft/wordindex/internal/entity"
	"github.com/eslsoft/wordindex/internal/infrastructure/config"
)

const (
	defaultCapacity     = 10
	defaultPopularLimit = 5
	defaultMaxTracked   = 10000
)

type popularity struct {
	count   int64
	lastSeq uint64
}

// Tracker records search and index events. It is safe for concurrent use.
type Tracker struct {
	mu       sync.Mutex
	searches *ring
	indexes  *ring
	popular  map[string]*popularity
	seq      uint64

	popularLimit int
	maxTracked   int
	logger       logrus.FieldLogger
	now          func() time.Time
}

// NewTracker builds a tracker sized by the activity config section.
func NewTracker(cfg config.ActivityConfig, logger logrus.FieldLogger) *Tracker {
	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	popularLimit := cfg.PopularLimit
	if popularLimit <= 0 {
		popularLimit = defaultPopularLimit
	}
	maxTracked := cfg.MaxTracked
	if maxTracked <= 0 {
		maxTracked = defaultMaxTracked
	}
	return &Tracker{
		searches:     newRing(capacity),
		indexes:      newRing(capacity),
		popular:      make(map[string]*popularity),
		popularLimit: popularLimit,
		maxTracked:   maxTracked,
		logger:       logger,
		now:          time.Now,
	}
}

// RecordSearch notes a successful lookup of key.
func (t *Tracker) RecordSearch(key string) {
	key = entity.NormalizeWordToken(key)
	if key == "" {
		t.logger.Warn("activity: dropping search event with empty key")
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.seq++
	t.searches.push(key)
	if p, ok := t.popular[key]; ok {
		p.count++
		p.lastSeq = t.seq
		return
	}
	if len(t.popular) >= t.maxTracked {
		t.evictLocked()
	}
	t.popular[key] = &popularity{count: 1, lastSeq: t.seq}
}

// RecordIndex notes that key was added to the search index.
func (t *Tracker) RecordIndex(key string) {
	key = entity.NormalizeWordToken(key)
	if key == "" {
		t.logger.Warn("activity: dropping index event with empty key")
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.seq++
	t.indexes.push(key)
}

func (t *Tracker) RecentSearches() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.searches.items()
}

func (t *Tracker) RecentIndexes() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.indexes.items()
}

// MostPopular returns the most searched keys, ties going to the most
// recently searched.
func (t *Tracker) MostPopular() []entity.Popularity {
	t.mu.Lock()
	defer t.mu.Unlock()
	ranked := t.rankedLocked()
	if len(ranked) > t.popularLimit {
		ranked = ranked[:t.popularLimit]
	}
	return ranked
}

// Snapshot copies every register, including the full popularity table.
func (t *Tracker) Snapshot() entity.ActivitySnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return entity.ActivitySnapshot{
		Searches: t.searches.items(),
		Indexes:  t.indexes.items(),
		Popular:  t.rankedLocked(),
		TakenAt:  t.now().UTC(),
	}
}

// Restore replaces the registers with snap. Entries that no longer fit the
// configured bounds are dropped, oldest first.
func (t *Tracker) Restore(snap entity.ActivitySnapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.searches.reset()
	t.indexes.reset()
	t.popular = make(map[string]*popularity)
	t.seq = 0

	replay(t.searches, snap.Searches)
	replay(t.indexes, snap.Indexes)

	popular := snap.Popular
	if len(popular) > t.maxTracked {
		popular = popular[:t.maxTracked]
	}
	// later ranks get older sequence numbers so equal counts keep their order
	for i := len(popular) - 1; i >= 0; i-- {
		p := popular[i]
		key := entity.NormalizeWordToken(p.Word)
		if key == "" || p.Count <= 0 {
			continue
		}
		t.seq++
		t.popular[key] = &popularity{count: p.Count, lastSeq: t.seq}
	}
}

func replay(r *ring, mostRecentFirst []string) {
	items := mostRecentFirst
	if len(items) > len(r.buf) {
		items = items[:len(r.buf)]
	}
	for i := len(items) - 1; i >= 0; i-- {
		if key := entity.NormalizeWordToken(items[i]); key != "" {
			r.push(key)
		}
	}
}

func (t *Tracker) rankedLocked() []entity.Popularity {
	type ranked struct {
		word string
		popularity
	}
	all := make([]ranked, 0, len(t.popular))
	for word, p := range t.popular {
		all = append(all, ranked{word: word, popularity: *p})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].count != all[j].count {
			return all[i].count > all[j].count
		}
		return all[i].lastSeq > all[j].lastSeq
	})
	out := make([]entity.Popularity, 0, len(all))
	for _, r := range all {
		out = append(out, entity.Popularity{Word: r.word, Count: r.count})
	}
	return out
}

// evictLocked drops the least popular key, the least recent among equals.
func (t *Tracker) evictLocked() {
	var (
		victim string
		worst  *popularity
	)
	for word, p := range t.popular {
		if worst == nil || p.count < worst.count || (p.count == worst.count && p.lastSeq < worst.lastSeq) {
			victim, worst = word, p
		}
	}
	if worst != nil {
		delete(t.popular, victim)
	}
}
