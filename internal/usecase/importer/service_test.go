package importer

import (
	"context"
	"errors"
	"io"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eslsoft/wordindex/internal/entity"
	"github.com/eslsoft/wordindex/internal/infrastructure/config"
	"github.com/eslsoft/wordindex/internal/repository"
)

// fakeRepo implements the store methods the importer uses.
type fakeRepo struct {
	repository.WordEntryRepository

	mu         sync.RWMutex
	entries    map[string]*entity.WordEntry
	order      []string
	lookups    int
	rejectWith error
	rejectRow  map[string]error
	block      chan struct{}
}

func newFakeRepo(words ...string) *fakeRepo {
	r := &fakeRepo{entries: map[string]*entity.WordEntry{}}
	for _, w := range words {
		r.entries[w] = &entity.WordEntry{Word: w, State: entity.StatePublished}
		r.order = append(r.order, w)
	}
	return r
}

func (r *fakeRepo) List(ctx context.Context, query *repository.ListWordEntryQuery) ([]*entity.WordEntry, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return nil, int64(len(r.entries)), nil
}

func (r *fakeRepo) WalkWords(ctx context.Context, fn func(word string) error) error {
	r.mu.RLock()
	words := append([]string(nil), r.order...)
	r.mu.RUnlock()
	for _, w := range words {
		if err := fn(w); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeRepo) GetByWord(ctx context.Context, word string) (*entity.WordEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lookups++
	e, ok := r.entries[word]
	if !ok {
		return nil, entity.ErrWordEntryNotFound
	}
	return e.Clone(), nil
}

func (r *fakeRepo) CreateBatch(ctx context.Context, entries []*entity.WordEntry) error {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rejectWith != nil {
		return r.rejectWith
	}
	for _, e := range entries {
		if _, ok := r.entries[e.Word]; ok {
			return entity.ErrDuplicateWordEntry
		}
	}
	for _, e := range entries {
		r.entries[e.Word] = e.Clone()
		r.order = append(r.order, e.Word)
	}
	return nil
}

func (r *fakeRepo) Create(ctx context.Context, entry *entity.WordEntry) (*entity.WordEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.rejectRow[entry.Word]; ok {
		return nil, err
	}
	if _, ok := r.entries[entry.Word]; ok {
		return nil, entity.ErrDuplicateWordEntry
	}
	r.entries[entry.Word] = entry.Clone()
	r.order = append(r.order, entry.Word)
	return entry.Clone(), nil
}

func (r *fakeRepo) get(word string) *entity.WordEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries[word]
}

func newTestService(t *testing.T, repo *fakeRepo, cfg config.ImportConfig) *Service {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	s, cleanup, err := NewService(cfg, repo, logger)
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}
	t.Cleanup(cleanup)
	return s
}

const sample = `Word,Meaning,Geo Locations,Variants,Submitted_By
Koko,knot,Oyo;Ekiti,kokoh:Ekiti;kooko,ade
,,,,
 ,no word here,,,
tola,wealth,,,
tola,duplicate in file,,,
omo,child,,,
`

func TestImport_ParsesRowsAndSkipsExisting(t *testing.T) {
	repo := newFakeRepo("omo")
	s := newTestService(t, repo, config.ImportConfig{BatchSize: 2})

	report, err := s.Import(context.Background(), strings.NewReader(sample), Format{})
	if err != nil {
		t.Fatalf("Import returned error: %v", err)
	}
	if report.Total != 5 || report.Uploaded != 2 || report.Skipped != 2 || report.Failed != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	if !reflect.DeepEqual(report.Words, []string{"koko", "tola"}) {
		t.Fatalf("words = %v", report.Words)
	}

	koko := repo.get("koko")
	if koko == nil {
		t.Fatalf("koko was not stored")
	}
	if koko.State != entity.StateNew || koko.Meaning != "knot" || koko.SubmittedBy != "ade" {
		t.Fatalf("unexpected entry %+v", koko)
	}
	if !reflect.DeepEqual(koko.GeoLocations, []string{"Oyo", "Ekiti"}) {
		t.Fatalf("geo = %v", koko.GeoLocations)
	}
	want := []entity.Variant{{Word: "kokoh", GeoLocation: "Ekiti"}, {Word: "kooko"}}
	if !reflect.DeepEqual(koko.Variants, want) {
		t.Fatalf("variants = %+v", koko.Variants)
	}

	progress := s.Progress()
	if progress.Uploading || progress.Uploaded != 2 || progress.JobID != report.JobID {
		t.Fatalf("unexpected progress %+v", progress)
	}
}

func TestImport_BloomAvoidsLookupsForNewWords(t *testing.T) {
	repo := newFakeRepo("alpha", "beta")
	s := newTestService(t, repo, config.ImportConfig{})

	input := "word\nkoko\nayo\nife\nbeta\n"
	report, err := s.Import(context.Background(), strings.NewReader(input), Format{})
	if err != nil {
		t.Fatalf("Import returned error: %v", err)
	}
	if report.Uploaded != 3 || report.Skipped != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	if repo.lookups < 1 || repo.lookups > 2 {
		t.Fatalf("expected the store to confirm only bloom hits, got %d lookups", repo.lookups)
	}
}

func TestImport_TabSeparated(t *testing.T) {
	repo := newFakeRepo()
	s := newTestService(t, repo, config.ImportConfig{})

	report, err := s.Import(context.Background(), strings.NewReader("name\tmeaning\nàdìsá\tone who is covered\n"), Format{Comma: '\t'})
	if err != nil {
		t.Fatalf("Import returned error: %v", err)
	}
	if report.Uploaded != 1 || repo.get("àdìsá").Meaning != "one who is covered" {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestImport_MissingWordColumn(t *testing.T) {
	s := newTestService(t, newFakeRepo(), config.ImportConfig{})
	for _, input := range []string{"", "meaning,morphology\nx,y\n"} {
		if _, err := s.Import(context.Background(), strings.NewReader(input), Format{}); !errors.Is(err, entity.ErrMissingWordColumn) {
			t.Fatalf("expected ErrMissingWordColumn for %q, got %v", input, err)
		}
	}
	if s.Progress().Uploading {
		t.Fatalf("failed import must not stay running")
	}
}

func TestImport_RejectedBatchRetriesRows(t *testing.T) {
	repo := newFakeRepo()
	repo.rejectWith = errors.New("UNIQUE constraint failed")
	repo.rejectRow = map[string]error{"b": errors.New("disk full")}
	s := newTestService(t, repo, config.ImportConfig{BatchSize: 3})

	report, err := s.Import(context.Background(), strings.NewReader("word\na\nb\nc\n"), Format{})
	if err != nil {
		t.Fatalf("Import returned error: %v", err)
	}
	if report.Uploaded != 2 || report.Failed != 1 || report.Skipped != 0 {
		t.Fatalf("unexpected report %+v", report)
	}
	if !reflect.DeepEqual(report.Words, []string{"a", "c"}) {
		t.Fatalf("words = %v", report.Words)
	}
	if repo.get("b") != nil {
		t.Fatalf("rejected row must not be stored")
	}
}

func TestImport_RejectedBatchSkipsRowsStoredMeanwhile(t *testing.T) {
	repo := newFakeRepo()
	repo.rejectWith = entity.ErrDuplicateWordEntry
	s := newTestService(t, repo, config.ImportConfig{})
	// stored after the import loaded its view of existing words
	repo.rejectRow = map[string]error{"b": entity.ErrDuplicateWordEntry}

	report, err := s.Import(context.Background(), strings.NewReader("word\na\nb\n"), Format{})
	if err != nil {
		t.Fatalf("Import returned error: %v", err)
	}
	if report.Uploaded != 1 || report.Skipped != 1 || report.Failed != 0 {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestSubmit_RunsInBackgroundAndRejectsConcurrentImports(t *testing.T) {
	repo := newFakeRepo()
	repo.block = make(chan struct{})
	s := newTestService(t, repo, config.ImportConfig{})

	id, err := s.Submit(strings.NewReader("word\nkoko\nayo\n"), Format{})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if id == "" {
		t.Fatalf("expected a job id")
	}

	if _, err := s.Submit(strings.NewReader("word\nx\n"), Format{}); !errors.Is(err, entity.ErrImportInProgress) {
		t.Fatalf("expected ErrImportInProgress, got %v", err)
	}
	if _, err := s.Import(context.Background(), strings.NewReader("word\nx\n"), Format{}); !errors.Is(err, entity.ErrImportInProgress) {
		t.Fatalf("expected ErrImportInProgress, got %v", err)
	}
	if p := s.Progress(); !p.Uploading || p.JobID != id {
		t.Fatalf("unexpected progress while running %+v", p)
	}

	close(repo.block)
	done := make(chan struct{})
	go func() {
		s.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("import did not finish")
	}

	p := s.Progress()
	if p.Uploading || p.Total != 2 || p.Uploaded != 2 {
		t.Fatalf("unexpected final progress %+v", p)
	}
}

func TestSubmit_TooLarge(t *testing.T) {
	s := newTestService(t, newFakeRepo(), config.ImportConfig{MaxBytes: 8})
	if _, err := s.Submit(strings.NewReader("word\nkokokoko\n"), Format{}); !errors.Is(err, entity.ErrImportTooLarge) {
		t.Fatalf("expected ErrImportTooLarge, got %v", err)
	}
	if s.Progress().Uploading {
		t.Fatalf("rejected upload must not leave the importer running")
	}
}
