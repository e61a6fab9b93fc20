package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/wordindex/internal/entity"
	"github.com/eslsoft/wordindex/internal/infrastructure/cache"
	"github.com/eslsoft/wordindex/internal/repository"
)

// IndexUsecase publishes entries to the search backend and withdraws them.
// It reports every outcome as a status and never returns an error for
// missing words or engine failures.
type IndexUsecase interface {
	IndexWord(ctx context.Context, entry *entity.WordEntry) entity.IndexOperationStatus
	IndexByWord(ctx context.Context, word string) entity.IndexOperationStatus
	BulkIndex(ctx context.Context, entries []*entity.WordEntry) entity.IndexOperationStatus
	BulkIndexByWords(ctx context.Context, words []string) entity.IndexOperationStatus
	RemoveFromIndex(ctx context.Context, word string) entity.IndexOperationStatus
	BulkRemove(ctx context.Context, words []string) entity.IndexOperationStatus
	// Reconcile feeds every PUBLISHED entry back to the backend and returns
	// how many were sent.
	Reconcile(ctx context.Context) (int, error)
}

const (
	_defaultBatchSize = 50

	msgIndexUnavailable  = "Index attempt unsuccessful. The search index is unavailable"
	msgDeleteUnavailable = "Delete unsuccessful. The search index is unavailable"
	msgEmptyIndexList    = "Cannot index an empty list"
	msgEmptyRemoveList   = "Cannot remove an empty list"
)

type bulkVerb struct {
	done    string
	partial string
	past    string
}

var (
	indexVerb = bulkVerb{
		done:    "Bulk indexing successful. Indexed the following words: ",
		partial: "Bulk indexing completed with failures.",
		past:    "Indexed",
	}
	removeVerb = bulkVerb{
		done:    "Bulk removal successful. Removed the following words: ",
		partial: "Bulk removal completed with failures.",
		past:    "Removed",
	}
)

type indexUsecase struct {
	backend   repository.SearchBackend
	repo      repository.WordEntryRepository
	activity  ActivityRecorder
	cache     cache.Cache
	batchSize int
	logger    logrus.FieldLogger
	now       func() time.Time
}

func NewIndexUsecase(backends Backends, repo repository.WordEntryRepository, activity ActivityRecorder, resultCache cache.Cache, batchSize int, logger logrus.FieldLogger) IndexUsecase {
	if batchSize <= 0 {
		batchSize = _defaultBatchSize
	}
	if resultCache == nil {
		resultCache = cache.Noop{}
	}
	return &indexUsecase{
		backend:   backends.Primary,
		repo:      repo,
		activity:  activity,
		cache:     resultCache,
		batchSize: batchSize,
		logger:    logger,
		now:       time.Now,
	}
}

// bulkOutcome collects per-word results in input order.
type bulkOutcome struct {
	done   []string
	failed []string
	errs   map[string]error
}

func newBulkOutcome() *bulkOutcome {
	return &bulkOutcome{errs: make(map[string]error)}
}

func (o *bulkOutcome) fail(word string, err error) {
	if _, seen := o.errs[word]; seen {
		return
	}
	o.failed = append(o.failed, word)
	o.errs[word] = err
}

func (o *bulkOutcome) status(verb bulkVerb) entity.IndexOperationStatus {
	if len(o.failed) == 0 {
		return entity.Succeeded(verb.done + strings.Join(o.done, ", "))
	}
	details := make([]string, 0, len(o.failed))
	for _, w := range o.failed {
		details = append(details, fmt.Sprintf("%s (%v)", w, o.errs[w]))
	}
	done := "none"
	if len(o.done) > 0 {
		done = strings.Join(o.done, ", ")
	}
	msg := fmt.Sprintf("%s %s: %s. Failed: %s", verb.partial, verb.past, done, strings.Join(details, ", "))
	return entity.Failed(o.kind(), msg)
}

func (o *bulkOutcome) kind() entity.FailureKind {
	if len(o.done) > 0 {
		return entity.FailurePartial
	}
	for _, w := range o.failed {
		if !errors.Is(o.errs[w], entity.ErrNotIndexed) && !errors.Is(o.errs[w], entity.ErrWordEntryNotFound) {
			return entity.FailureEngine
		}
	}
	return entity.FailureNotFound
}

func (u *indexUsecase) IndexWord(ctx context.Context, entry *entity.WordEntry) entity.IndexOperationStatus {
	if entry == nil || entity.NormalizeWordToken(entry.Word) == "" {
		return entity.Failed(entity.FailureValidation, "Cannot index an entry without a word")
	}
	if err := u.backend.Available(ctx); err != nil {
		u.logger.WithError(err).Warn("index attempt while search index unavailable")
		return entity.Failed(entity.FailureUnavailable, msgIndexUnavailable)
	}

	word := entity.NormalizeWordToken(entry.Word)
	out := newBulkOutcome()
	u.indexChunk(ctx, []*entity.WordEntry{entry}, out)
	if err, failed := out.errs[word]; failed {
		if errors.Is(err, entity.ErrWordEntryNotFound) {
			return entity.Failed(entity.FailureNotFound, word+" not found in the repository so not indexed")
		}
		return entity.Failed(entity.FailureEngine, fmt.Sprintf("%s could not be indexed: %v", word, err))
	}
	return entity.Succeeded(word + " indexed successfully")
}

func (u *indexUsecase) IndexByWord(ctx context.Context, word string) entity.IndexOperationStatus {
	word = entity.NormalizeWordToken(word)
	if word == "" {
		return entity.Failed(entity.FailureValidation, "Cannot index an entry without a word")
	}
	entry, err := u.repo.GetByWord(ctx, word)
	if errors.Is(err, entity.ErrWordEntryNotFound) {
		return entity.Failed(entity.FailureNotFound, word+" not found in the repository so not indexed")
	}
	if err != nil {
		return entity.Failed(entity.FailureEngine, fmt.Sprintf("Index attempt unsuccessful. %v", err))
	}
	return u.IndexWord(ctx, entry)
}

func (u *indexUsecase) BulkIndex(ctx context.Context, entries []*entity.WordEntry) entity.IndexOperationStatus {
	entries = lo.Filter(entries, func(e *entity.WordEntry, _ int) bool { return e != nil })
	if len(entries) == 0 {
		return entity.Failed(entity.FailureValidation, msgEmptyIndexList)
	}
	if err := u.backend.Available(ctx); err != nil {
		u.logger.WithError(err).Warn("bulk index attempt while search index unavailable")
		return entity.Failed(entity.FailureUnavailable, msgIndexUnavailable)
	}

	out := newBulkOutcome()
	for _, chunk := range lo.Chunk(entries, u.batchSize) {
		u.indexChunk(ctx, chunk, out)
	}
	return out.status(indexVerb)
}

func (u *indexUsecase) BulkIndexByWords(ctx context.Context, words []string) entity.IndexOperationStatus {
	words = entity.NormalizeWordTokens(words)
	if len(words) == 0 {
		return entity.Failed(entity.FailureValidation, msgEmptyIndexList)
	}
	entries, err := u.repo.FindByWords(ctx, words)
	if err != nil {
		return entity.Failed(entity.FailureEngine, fmt.Sprintf("Index attempt unsuccessful. %v", err))
	}
	byWord := lo.KeyBy(entries, func(e *entity.WordEntry) string { return e.Word })

	found := make([]*entity.WordEntry, 0, len(entries))
	var missing []string
	for _, w := range words {
		if e, ok := byWord[w]; ok {
			found = append(found, e)
		} else {
			missing = append(missing, w)
		}
	}
	if len(found) == 0 {
		return entity.Failed(entity.FailureNotFound,
			"None of the words was found in the database so none was indexed: "+strings.Join(missing, ", "))
	}

	status := u.BulkIndex(ctx, found)
	if len(missing) == 0 || status.Kind == entity.FailureUnavailable {
		return status
	}
	status.Message += " The following words were ignored as they were not found in the database: " + strings.Join(missing, ", ")
	if status.Success {
		status.Success = false
		status.Kind = entity.FailurePartial
	}
	return status
}

func (u *indexUsecase) RemoveFromIndex(ctx context.Context, word string) entity.IndexOperationStatus {
	word = entity.NormalizeWordToken(word)
	if word == "" {
		return entity.Failed(entity.FailureValidation, "Cannot remove an entry without a word")
	}
	if err := u.backend.Available(ctx); err != nil {
		u.logger.WithError(err).Warn("delete attempt while search index unavailable")
		return entity.Failed(entity.FailureUnavailable, msgDeleteUnavailable)
	}

	out := newBulkOutcome()
	u.removeChunk(ctx, []string{word}, out)
	if err, failed := out.errs[word]; failed {
		if errors.Is(err, entity.ErrNotIndexed) {
			return entity.Failed(entity.FailureNotFound, word+" not found in the index")
		}
		return entity.Failed(entity.FailureEngine, fmt.Sprintf("%s could not be removed: %v", word, err))
	}
	return entity.Succeeded(word + " removed from index")
}

func (u *indexUsecase) BulkRemove(ctx context.Context, words []string) entity.IndexOperationStatus {
	words = entity.NormalizeWordTokens(words)
	if len(words) == 0 {
		return entity.Failed(entity.FailureValidation, msgEmptyRemoveList)
	}
	if err := u.backend.Available(ctx); err != nil {
		u.logger.WithError(err).Warn("bulk delete attempt while search index unavailable")
		return entity.Failed(entity.FailureUnavailable, msgDeleteUnavailable)
	}

	out := newBulkOutcome()
	for _, chunk := range lo.Chunk(words, u.batchSize) {
		u.removeChunk(ctx, chunk, out)
	}
	return out.status(removeVerb)
}

func (u *indexUsecase) Reconcile(ctx context.Context) (int, error) {
	if err := u.backend.Available(ctx); err != nil {
		return 0, err
	}
	sent := 0
	for page := int32(1); ; page++ {
		entries, _, err := u.repo.List(ctx, &repository.ListWordEntryQuery{
			Pagination: repository.Pagination{PageNo: page, PageSize: int32(u.batchSize)},
			States:     []entity.State{entity.StatePublished},
		})
		if err != nil {
			return sent, fmt.Errorf("reconcile page %d: %w", page, err)
		}
		if len(entries) == 0 {
			break
		}
		failed, err := u.backend.Index(ctx, entries)
		if err != nil {
			return sent, fmt.Errorf("reconcile page %d: %w", page, err)
		}
		for word, ferr := range failed {
			u.logger.WithError(ferr).WithField("word", word).Warn("reconcile could not index entry")
		}
		sent += len(entries) - len(failed)
		if len(entries) < u.batchSize {
			break
		}
	}
	u.invalidate(ctx)
	return sent, nil
}

// indexChunk sends the stored entries of one batch to the backend, then
// publishes the entries the backend accepted.
func (u *indexUsecase) indexChunk(ctx context.Context, chunk []*entity.WordEntry, out *bulkOutcome) {
	now := u.now()
	batch := make([]*entity.WordEntry, 0, len(chunk))
	for _, e := range lo.UniqBy(chunk, func(e *entity.WordEntry) string { return entity.NormalizeWordToken(e.Word) }) {
		doc := e.Clone()
		doc.Word = entity.NormalizeWordToken(doc.Word)
		if doc.Word == "" {
			out.fail("(blank)", entity.ErrInvalidWord)
			continue
		}
		doc.State = entity.StatePublished
		doc.UpdatedAt = now
		batch = append(batch, doc)
	}
	batch = u.stored(ctx, batch, out)
	if len(batch) == 0 {
		return
	}

	failed, err := u.backend.Index(ctx, batch)
	if err != nil {
		u.logger.WithError(err).WithField("size", len(batch)).Error("index batch failed")
		for _, e := range batch {
			out.fail(e.Word, err)
		}
		return
	}

	accepted := make([]string, 0, len(batch))
	for _, e := range batch {
		if ferr, ok := failed[e.Word]; ok {
			out.fail(e.Word, ferr)
			continue
		}
		accepted = append(accepted, e.Word)
	}
	if len(accepted) == 0 {
		return
	}
	affected, err := u.repo.UpdateStates(ctx, accepted, entity.StatePublished, now)
	if err != nil {
		u.logger.WithError(err).Error("publish state update failed after indexing")
		for _, w := range accepted {
			out.fail(w, err)
		}
		return
	}
	if affected < int64(len(accepted)) {
		accepted = u.withdrawVanished(ctx, accepted, out)
	}
	for _, w := range accepted {
		out.done = append(out.done, w)
		u.activity.RecordIndex(w)
	}
	u.invalidate(ctx)
}

// stored keeps the entries that have a row in the entry store and fails the
// rest, so the index never holds a document the store does not know.
func (u *indexUsecase) stored(ctx context.Context, batch []*entity.WordEntry, out *bulkOutcome) []*entity.WordEntry {
	if len(batch) == 0 {
		return batch
	}
	words := lo.Map(batch, func(e *entity.WordEntry, _ int) string { return e.Word })
	rows, err := u.repo.FindByWords(ctx, words)
	if err != nil {
		u.logger.WithError(err).WithField("size", len(batch)).Error("entry lookup failed before indexing")
		for _, w := range words {
			out.fail(w, err)
		}
		return nil
	}
	known := lo.SliceToMap(rows, func(e *entity.WordEntry) (string, bool) { return e.Word, true })
	return lo.Filter(batch, func(e *entity.WordEntry, _ int) bool {
		if known[e.Word] {
			return true
		}
		out.fail(e.Word, entity.ErrWordEntryNotFound)
		return false
	})
}

// withdrawVanished handles entries deleted between the lookup and the state
// update. Their documents are taken back out of the index and they are
// reported as not found.
func (u *indexUsecase) withdrawVanished(ctx context.Context, accepted []string, out *bulkOutcome) []string {
	rows, err := u.repo.FindByWords(ctx, accepted)
	if err != nil {
		u.logger.WithError(err).Warn("could not verify published entries")
		return accepted
	}
	known := lo.SliceToMap(rows, func(e *entity.WordEntry) (string, bool) { return e.Word, true })
	kept := make([]string, 0, len(accepted))
	var vanished []string
	for _, w := range accepted {
		if known[w] {
			kept = append(kept, w)
		} else {
			vanished = append(vanished, w)
		}
	}
	if len(vanished) == 0 {
		return kept
	}
	if _, err := u.backend.Remove(ctx, vanished); err != nil {
		u.logger.WithError(err).WithField("words", vanished).Warn("could not withdraw documents without a store row")
	}
	for _, w := range vanished {
		out.fail(w, entity.ErrWordEntryNotFound)
	}
	return kept
}

// removeChunk withdraws one batch from the backend, then unpublishes the
// words the backend released.
func (u *indexUsecase) removeChunk(ctx context.Context, chunk []string, out *bulkOutcome) {
	failed, err := u.backend.Remove(ctx, chunk)
	if err != nil {
		u.logger.WithError(err).WithField("size", len(chunk)).Error("remove batch failed")
		for _, w := range chunk {
			out.fail(w, err)
		}
		return
	}

	removed := make([]string, 0, len(chunk))
	for _, w := range chunk {
		if ferr, ok := failed[w]; ok {
			out.fail(w, ferr)
			continue
		}
		removed = append(removed, w)
	}
	if len(removed) == 0 {
		return
	}
	if _, err := u.repo.UpdateStates(ctx, removed, entity.StateAfterRemoval, u.now()); err != nil {
		u.logger.WithError(err).Error("unpublish state update failed after removal")
		for _, w := range removed {
			out.fail(w, err)
		}
		return
	}
	out.done = append(out.done, removed...)
	u.invalidate(ctx)
}

func (u *indexUsecase) invalidate(ctx context.Context) {
	if err := u.cache.Clear(ctx); err != nil {
		u.logger.WithError(err).Warn("search cache clear failed")
	}
}
