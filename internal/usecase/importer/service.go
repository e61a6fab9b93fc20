// Package importer loads word entries from delimited files into the store.
package importer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/wordindex/internal/entity"
	"github.com/eslsoft/wordindex/internal/infrastructure/config"
	"github.com/eslsoft/wordindex/internal/repository"
)

const (
	_defaultWorkers   = 1
	_defaultBatchSize = 50
	_defaultMaxBytes  = 10 << 20

	_bloomFalsePositive = 0.01
	_bloomMinEstimate   = 1024
)

// Report summarises one finished import.
type Report struct {
	JobID    string
	Total    int64
	Uploaded int64
	Skipped  int64
	Failed   int64
	// Words lists the stored keys in file order.
	Words []string
}

// Service runs one import at a time, either inline or on its worker pool.
type Service struct {
	repo      repository.WordEntryRepository
	pool      *ants.Pool
	batchSize int
	maxBytes  int64
	logger    logrus.FieldLogger
	now       func() time.Time

	running  atomic.Bool
	jobID    atomic.Value
	total    atomic.Int64
	uploaded atomic.Int64
	skipped  atomic.Int64
	failed   atomic.Int64

	wg sync.WaitGroup
}

func NewService(cfg config.ImportConfig, repo repository.WordEntryRepository, logger logrus.FieldLogger) (*Service, func(), error) {
	workers := cfg.Workers
	if workers <= 0 {
		workers = _defaultWorkers
	}
	logger = logger.WithField("component", "importer")
	pool, err := ants.NewPool(workers, ants.WithPanicHandler(func(p any) {
		logger.WithField("panic", p).Error("import worker panicked")
	}))
	if err != nil {
		return nil, nil, fmt.Errorf("create import pool: %w", err)
	}

	s := &Service{
		repo:      repo,
		pool:      pool,
		batchSize: cfg.BatchSize,
		maxBytes:  cfg.MaxBytes,
		logger:    logger,
		now:       time.Now,
	}
	if s.batchSize <= 0 {
		s.batchSize = _defaultBatchSize
	}
	if s.maxBytes <= 0 {
		s.maxBytes = _defaultMaxBytes
	}
	s.jobID.Store("")
	return s, s.Close, nil
}

// Close waits for a running import and releases the pool.
func (s *Service) Close() {
	s.wg.Wait()
	s.pool.Release()
}

// Wait blocks until the submitted import, if any, has finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

// Import runs an import on the calling goroutine.
func (s *Service) Import(ctx context.Context, r io.Reader, f Format) (*Report, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, entity.ErrImportInProgress
	}
	defer s.running.Store(false)
	return s.run(ctx, s.begin(), r, f)
}

// Submit buffers r and runs the import on the worker pool. It returns the job
// id without waiting for the import to finish.
func (s *Service) Submit(r io.Reader, f Format) (string, error) {
	if !s.running.CompareAndSwap(false, true) {
		return "", entity.ErrImportInProgress
	}
	buf, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		s.running.Store(false)
		return "", fmt.Errorf("read upload: %w", err)
	}
	if int64(len(buf)) > s.maxBytes {
		s.running.Store(false)
		return "", fmt.Errorf("%w: limit is %d bytes", entity.ErrImportTooLarge, s.maxBytes)
	}

	id := s.begin()
	s.wg.Add(1)
	err = s.pool.Submit(func() {
		defer s.wg.Done()
		defer s.running.Store(false)
		if _, err := s.run(context.Background(), id, bytes.NewReader(buf), f); err != nil {
			s.logger.WithError(err).WithField("job_id", id).Error("import failed")
		}
	})
	if err != nil {
		s.wg.Done()
		s.running.Store(false)
		return "", fmt.Errorf("schedule import: %w", err)
	}
	return id, nil
}

// Progress reports the counters of the current or most recent import.
func (s *Service) Progress() entity.UploadProgress {
	id, _ := s.jobID.Load().(string)
	return entity.UploadProgress{
		JobID:     id,
		Uploading: s.running.Load(),
		Total:     s.total.Load(),
		Uploaded:  s.uploaded.Load(),
		Skipped:   s.skipped.Load(),
		Failed:    s.failed.Load(),
	}
}

func (s *Service) begin() string {
	id := uuid.NewString()
	s.jobID.Store(id)
	s.total.Store(0)
	s.uploaded.Store(0)
	s.skipped.Store(0)
	s.failed.Store(0)
	return id
}

// createEach stores the rows of a rejected batch one at a time and returns
// the words that were stored.
func (s *Service) createEach(ctx context.Context, log logrus.FieldLogger, batch []*entity.WordEntry) []string {
	var stored []string
	for _, e := range batch {
		_, err := s.repo.Create(ctx, e)
		switch {
		case err == nil:
			s.uploaded.Add(1)
			stored = append(stored, e.Word)
		case errors.Is(err, entity.ErrDuplicateWordEntry):
			s.skipped.Add(1)
		default:
			log.WithError(err).WithField("word", e.Word).Warn("import row rejected")
			s.failed.Add(1)
		}
	}
	return stored
}

func (s *Service) run(ctx context.Context, id string, r io.Reader, f Format) (*Report, error) {
	log := s.logger.WithField("job_id", id)
	started := s.now()

	cols, rows, err := readRows(r, f)
	if err != nil {
		return nil, err
	}
	s.total.Store(int64(len(rows)))

	seen, err := s.loadExisting(ctx, len(rows))
	if err != nil {
		return nil, err
	}

	report := &Report{JobID: id, Total: int64(len(rows))}
	accepted := make(map[string]struct{}, len(rows))
	batch := make([]*entity.WordEntry, 0, s.batchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := s.repo.CreateBatch(ctx, batch); err != nil {
			log.WithError(err).WithField("size", len(batch)).Warn("import batch rejected, retrying rows one by one")
			report.Words = append(report.Words, s.createEach(ctx, log, batch)...)
		} else {
			s.uploaded.Add(int64(len(batch)))
			for _, e := range batch {
				report.Words = append(report.Words, e.Word)
			}
		}
		batch = batch[:0]
	}

	for _, record := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entry := rowToEntry(record, cols)
		entry.State = entity.StateNew
		entry.Normalize(s.now())
		if entry.Word == "" {
			s.failed.Add(1)
			continue
		}

		exists, err := s.exists(ctx, seen, accepted, entry.Word)
		if err != nil {
			return nil, err
		}
		if exists {
			s.skipped.Add(1)
			continue
		}
		seen.AddString(entry.Word)
		accepted[entry.Word] = struct{}{}

		batch = append(batch, entry)
		if len(batch) >= s.batchSize {
			flush()
		}
	}
	flush()

	report.Uploaded = s.uploaded.Load()
	report.Skipped = s.skipped.Load()
	report.Failed = s.failed.Load()
	log.WithFields(logrus.Fields{
		"total":    report.Total,
		"uploaded": report.Uploaded,
		"skipped":  report.Skipped,
		"failed":   report.Failed,
		"elapsed":  s.now().Sub(started).String(),
	}).Info("import finished")
	return report, nil
}

// loadExisting fills a bloom filter with every stored key.
func (s *Service) loadExisting(ctx context.Context, incoming int) (*bloom.BloomFilter, error) {
	_, stored, err := s.repo.List(ctx, &repository.ListWordEntryQuery{
		Pagination: repository.Pagination{PageNo: 1, PageSize: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("count stored words: %w", err)
	}
	estimate := max(uint(stored)+uint(incoming), _bloomMinEstimate)
	filter := bloom.NewWithEstimates(estimate, _bloomFalsePositive)
	err = s.repo.WalkWords(ctx, func(word string) error {
		filter.AddString(word)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load stored words: %w", err)
	}
	return filter, nil
}

// exists confirms a bloom hit against this file's accepted words and then
// the store.
func (s *Service) exists(ctx context.Context, seen *bloom.BloomFilter, accepted map[string]struct{}, word string) (bool, error) {
	if !seen.TestString(word) {
		return false, nil
	}
	if _, ok := accepted[word]; ok {
		return true, nil
	}
	_, err := s.repo.GetByWord(ctx, word)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, entity.ErrWordEntryNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("confirm %q: %w", word, err)
	}
}
