package usecase

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/eslsoft/wordindex/internal/entity"
	"github.com/eslsoft/wordindex/internal/infrastructure/cache"
	"github.com/eslsoft/wordindex/internal/repository"
)

func newWordEntryUsecase(repo *memoryRepo, now time.Time) *wordEntryUsecase {
	return &wordEntryUsecase{repo: repo, cache: cache.Noop{}, logger: quietLogger(), now: func() time.Time { return now }}
}

func TestWordEntryUsecase_CreateNormalizesAndSetsState(t *testing.T) {
	repo := newMemoryRepo()
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	uc := newWordEntryUsecase(repo, now)
	ctx := context.Background()

	created, err := uc.Create(ctx, &entity.WordEntry{Word: "  Koko ", Meaning: "<b>knot</b>", State: entity.StatePublished}, false)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if created.Word != "koko" || created.Meaning != "knot" {
		t.Fatalf("entry not normalized: %+v", created)
	}
	if created.State != entity.StateNew {
		t.Fatalf("state = %s, want NEW", created.State)
	}
	if !created.CreatedAt.Equal(now) || created.SubmittedBy != entity.DefaultSubmitter {
		t.Fatalf("defaults not applied: %+v", created)
	}

	suggested, err := uc.Create(ctx, &entity.WordEntry{Word: "ayo"}, true)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if suggested.State != entity.StateSuggested {
		t.Fatalf("state = %s, want SUGGESTED", suggested.State)
	}
}

func TestWordEntryUsecase_CreateRejects(t *testing.T) {
	base := published("omo")
	base.Variants = []entity.Variant{{Word: "omoh", GeoLocation: "Ekiti"}}
	repo := newMemoryRepo(base)
	uc := newWordEntryUsecase(repo, time.Now())
	ctx := context.Background()

	if _, err := uc.Create(ctx, &entity.WordEntry{Word: " "}, false); !errors.Is(err, entity.ErrInvalidWord) {
		t.Fatalf("expected ErrInvalidWord, got %v", err)
	}
	if _, err := uc.Create(ctx, &entity.WordEntry{Word: "OMO"}, false); !errors.Is(err, entity.ErrDuplicateWordEntry) {
		t.Fatalf("expected ErrDuplicateWordEntry, got %v", err)
	}
	if _, err := uc.Create(ctx, &entity.WordEntry{Word: "omoh"}, false); !errors.Is(err, entity.ErrWordExistsAsVariant) {
		t.Fatalf("expected ErrWordExistsAsVariant, got %v", err)
	}
	if _, err := uc.Create(ctx, nil, false); err == nil {
		t.Fatalf("expected error for nil payload")
	}
}

func TestWordEntryUsecase_UpdateMarksPublishedModified(t *testing.T) {
	repo := newMemoryRepo(published("ife"))
	later := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	uc := newWordEntryUsecase(repo, later)
	ctx := context.Background()

	before, _ := repo.GetByWord(ctx, "ife")
	updated, err := uc.Update(ctx, "IFE", &entity.WordEntry{Meaning: "love", State: entity.StateNew})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.Meaning != "love" || updated.State != entity.StateModified {
		t.Fatalf("unexpected entry %+v", updated)
	}
	if updated.ID != before.ID || !updated.CreatedAt.Equal(before.CreatedAt) || !updated.UpdatedAt.Equal(later) {
		t.Fatalf("identity or timestamps wrong: %+v", updated)
	}

	if _, err := uc.Update(ctx, "ghost", &entity.WordEntry{}); !errors.Is(err, entity.ErrWordEntryNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestWordEntryUsecase_GetAndDelete(t *testing.T) {
	repo := newMemoryRepo(published("ade"))
	uc := NewWordEntryUsecase(repo, nil, quietLogger())
	ctx := context.Background()

	got, err := uc.Get(ctx, " ADE ")
	if err != nil || got.Word != "ade" {
		t.Fatalf("Get = %v, %v", got, err)
	}
	if err := uc.Delete(ctx, "ade"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, err := uc.Get(ctx, "ade"); !errors.Is(err, entity.ErrWordEntryNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if err := uc.Delete(ctx, "ade"); !errors.Is(err, entity.ErrWordEntryNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestWordEntryUsecase_ListWithFilterAndOrder(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var entries []*entity.WordEntry
	for i, w := range []string{"kola", "koko", "ade", "kofo"} {
		e := withState(w, entity.StatePublished)
		e.UpdatedAt = base.Add(time.Duration(i) * time.Hour)
		entries = append(entries, e)
	}
	entries[2].State = entity.StateNew
	uc := NewWordEntryUsecase(newMemoryRepo(entries...), nil, quietLogger())
	ctx := context.Background()

	got, total, err := uc.List(ctx, &repository.ListWordEntryQuery{
		FilterOrder: repository.FilterOrder{Filter: "state == 'PUBLISHED' && word.startsWith('ko')", OrderBy: "updated_at desc"},
	})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if total != 3 || !reflect.DeepEqual(wordsOf(got), []string{"kofo", "koko", "kola"}) {
		t.Fatalf("got %v (total %d)", wordsOf(got), total)
	}

	page2, total, err := uc.List(ctx, &repository.ListWordEntryQuery{
		Pagination:  repository.Pagination{PageNo: 2, PageSize: 2},
		FilterOrder: repository.FilterOrder{OrderBy: "word"},
	})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if total != 4 || !reflect.DeepEqual(wordsOf(page2), []string{"koko", "kola"}) {
		t.Fatalf("page 2 = %v (total %d)", wordsOf(page2), total)
	}
}

func TestWordEntryUsecase_ListWithoutFilterPagesInStore(t *testing.T) {
	var entries []*entity.WordEntry
	for i := 0; i < 25; i++ {
		entries = append(entries, withState(fmt.Sprintf("w%02d", i), entity.StateNew))
	}
	entries = append(entries, published("zz"))
	uc := NewWordEntryUsecase(newMemoryRepo(entries...), nil, quietLogger())

	got, total, err := uc.List(context.Background(), &repository.ListWordEntryQuery{States: []entity.State{entity.StateNew}})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if total != 25 || len(got) != 20 {
		t.Fatalf("expected default page of 20 out of 25, got %d of %d", len(got), total)
	}
}

func TestWordEntryUsecase_ListRejectsBadFilter(t *testing.T) {
	uc := NewWordEntryUsecase(newMemoryRepo(published("ade")), nil, quietLogger())
	for _, fo := range []repository.FilterOrder{
		{Filter: "colour == 'red'"},
		{Filter: "word"},
		{OrderBy: "meaning desc"},
	} {
		if _, _, err := uc.List(context.Background(), &repository.ListWordEntryQuery{FilterOrder: fo}); !errors.Is(err, entity.ErrInvalidFilter) {
			t.Fatalf("expected ErrInvalidFilter for %+v, got %v", fo, err)
		}
	}
}
