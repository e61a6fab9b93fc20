package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/eslsoft/wordindex/internal/entity"
)

// BleveBackendName identifies the bleve-backed search backend.
const BleveBackendName = "bleve"

const (
	wordDocType = "word_entry"

	fieldWord            = "word"
	fieldFolded          = "folded"
	fieldVariants        = "variants"
	fieldMeaning         = "meaning"
	fieldExtendedMeaning = "extended_meaning"
	fieldIndexedAt       = "indexed_at"
	fieldSource          = "source"

	// cap for stages the caller leaves unbounded
	maxUnboundedHits = 10000
)

// BleveBackend keeps a dedicated full-text index of published entries.
type BleveBackend struct {
	index bleve.Index
	now   func() time.Time
}

// OpenBleveBackend opens the index at path, creating it when missing.
func OpenBleveBackend(path string) (*BleveBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create search index directory: %w", err)
	}
	index, err := bleve.Open(path)
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		index, err = bleve.New(path, newIndexMapping())
	}
	if err != nil {
		return nil, fmt.Errorf("open search index: %w", err)
	}
	return &BleveBackend{index: index, now: time.Now}, nil
}

// NewMemoryBleveBackend builds an index that lives only in memory.
func NewMemoryBleveBackend() (*BleveBackend, error) {
	index, err := bleve.NewMemOnly(newIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create in-memory search index: %w", err)
	}
	return &BleveBackend{index: index, now: time.Now}, nil
}

func newIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()

	doc := bleve.NewDocumentMapping()
	doc.Dynamic = false

	keywordField := func() *mapping.FieldMapping {
		f := bleve.NewTextFieldMapping()
		f.Analyzer = keyword.Name
		f.Store = false
		f.IncludeInAll = false
		return f
	}
	doc.AddFieldMappingsAt(fieldWord, keywordField())
	doc.AddFieldMappingsAt(fieldFolded, keywordField())
	doc.AddFieldMappingsAt(fieldVariants, keywordField())

	meaning := bleve.NewTextFieldMapping()
	meaning.Analyzer = standard.Name
	meaning.Store = false
	doc.AddFieldMappingsAt(fieldMeaning, meaning)
	doc.AddFieldMappingsAt(fieldExtendedMeaning, meaning)

	indexedAt := bleve.NewNumericFieldMapping()
	indexedAt.Store = false
	doc.AddFieldMappingsAt(fieldIndexedAt, indexedAt)

	source := bleve.NewTextFieldMapping()
	source.Index = false
	source.Store = true
	source.IncludeInAll = false
	doc.AddFieldMappingsAt(fieldSource, source)

	indexMapping.AddDocumentMapping(wordDocType, doc)
	indexMapping.DefaultType = wordDocType
	return indexMapping
}

func (b *BleveBackend) Name() string { return BleveBackendName }

// Close releases the index. Every later call reports the index unavailable.
func (b *BleveBackend) Close() error {
	return b.index.Close()
}

func (b *BleveBackend) Available(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := b.index.DocCount(); err != nil {
		return fmt.Errorf("%w: %v", entity.ErrEngineUnavailable, err)
	}
	return nil
}

func (b *BleveBackend) Exact(ctx context.Context, word string) ([]*entity.WordEntry, error) {
	return b.entries(ctx, termOn(fieldWord, word), 0, nil)
}

func (b *BleveBackend) Folded(ctx context.Context, folded string) ([]*entity.WordEntry, error) {
	return b.entries(ctx, termOn(fieldFolded, folded), 0, nil)
}

func (b *BleveBackend) Prefix(ctx context.Context, prefix string, limit int) ([]*entity.WordEntry, error) {
	q := bleve.NewPrefixQuery(prefix)
	q.SetField(fieldWord)
	return b.entries(ctx, q, limit, []string{fieldIndexedAt, fieldWord})
}

func (b *BleveBackend) FullText(ctx context.Context, term string, limit int) ([]*entity.WordEntry, error) {
	term = strings.NewReplacer("*", "", "?", "").Replace(term)
	if term == "" {
		return []*entity.WordEntry{}, nil
	}

	wildcard := "*" + term + "*"
	queries := []query.Query{
		wildcardOn(fieldWord, wildcard),
		wildcardOn(fieldVariants, wildcard),
		fuzzyOn(fieldMeaning, term),
		fuzzyOn(fieldExtendedMeaning, term),
	}
	return b.entries(ctx, bleve.NewDisjunctionQuery(queries...), limit, nil)
}

func (b *BleveBackend) Autocomplete(ctx context.Context, partial string, limit int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q := bleve.NewPrefixQuery(partial)
	q.SetField(fieldWord)
	req := bleve.NewSearchRequestOptions(q, hitSize(limit), 0, false)
	req.SortBy([]string{fieldWord})

	res, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("autocomplete: %w", err)
	}
	words := make([]string, 0, len(res.Hits))
	for _, hit := range res.Hits {
		words = append(words, hit.ID)
	}
	return words, nil
}

func (b *BleveBackend) Count(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	n, err := b.index.DocCount()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", entity.ErrEngineUnavailable, err)
	}
	return int64(n), nil
}

func (b *BleveBackend) Index(ctx context.Context, entries []*entity.WordEntry) (map[string]error, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	failed := make(map[string]error)
	batch := b.index.NewBatch()
	now := b.now()
	for _, e := range entries {
		doc, err := toDocument(e, publishedAt(e, now))
		if err != nil {
			failed[e.Word] = err
			continue
		}
		if err := batch.Index(e.Word, doc); err != nil {
			failed[e.Word] = err
		}
	}
	if batch.Size() == 0 {
		return failed, nil
	}
	if err := b.index.Batch(batch); err != nil {
		return nil, fmt.Errorf("index batch: %w", err)
	}
	return failed, nil
}

func (b *BleveBackend) Remove(ctx context.Context, words []string) (map[string]error, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	failed := make(map[string]error)
	batch := b.index.NewBatch()
	for _, word := range words {
		doc, err := b.index.Document(word)
		if err != nil {
			failed[word] = err
			continue
		}
		if doc == nil {
			failed[word] = entity.ErrNotIndexed
			continue
		}
		batch.Delete(word)
	}
	if batch.Size() == 0 {
		return failed, nil
	}
	if err := b.index.Batch(batch); err != nil {
		return nil, fmt.Errorf("remove batch: %w", err)
	}
	return failed, nil
}

func (b *BleveBackend) entries(ctx context.Context, q query.Query, limit int, sortBy []string) ([]*entity.WordEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	req := bleve.NewSearchRequestOptions(q, hitSize(limit), 0, false)
	req.Fields = []string{fieldSource}
	if len(sortBy) > 0 {
		req.SortBy(sortBy)
	}

	res, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}
	out := make([]*entity.WordEntry, 0, len(res.Hits))
	for _, hit := range res.Hits {
		raw, ok := hit.Fields[fieldSource].(string)
		if !ok {
			continue
		}
		var e entity.WordEntry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return nil, fmt.Errorf("decode indexed entry %q: %w", hit.ID, err)
		}
		out = append(out, &e)
	}
	return out, nil
}

// publishedAt orders documents by publish time, so re-feeding an entry keeps
// its place in newest-first listings.
func publishedAt(e *entity.WordEntry, now time.Time) float64 {
	if e.UpdatedAt.IsZero() {
		return float64(now.UnixMilli())
	}
	return float64(e.UpdatedAt.UnixMilli())
}

func toDocument(e *entity.WordEntry, at float64) (map[string]any, error) {
	source, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode entry: %w", err)
	}
	return map[string]any{
		fieldWord:            e.Word,
		fieldFolded:          e.Folded(),
		fieldVariants:        e.VariantWords(),
		fieldMeaning:         e.Meaning,
		fieldExtendedMeaning: e.ExtendedMeaning,
		fieldIndexedAt:       at,
		fieldSource:          string(source),
	}, nil
}

func hitSize(limit int) int {
	if limit <= 0 || limit > maxUnboundedHits {
		return maxUnboundedHits
	}
	return limit
}

func termOn(field, term string) query.Query {
	q := bleve.NewTermQuery(term)
	q.SetField(field)
	return q
}

func wildcardOn(field, pattern string) query.Query {
	q := bleve.NewWildcardQuery(pattern)
	q.SetField(field)
	return q
}

func fuzzyOn(field, term string) query.Query {
	q := bleve.NewMatchQuery(term)
	q.SetField(field)
	q.SetFuzziness(1)
	return q
}
