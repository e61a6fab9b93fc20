package importer

import (
	"bytes"
	"context"
	"reflect"
	"testing"

	"github.com/eslsoft/wordindex/internal/entity"
	"github.com/eslsoft/wordindex/internal/repository"
)

type pagedLister struct {
	entries []*entity.WordEntry
	calls   int
}

func (l *pagedLister) List(_ context.Context, q *repository.ListWordEntryQuery) ([]*entity.WordEntry, int64, error) {
	l.calls++
	var matched []*entity.WordEntry
	for _, e := range l.entries {
		if len(q.States) == 0 || containsState(q.States, e.State) {
			matched = append(matched, e)
		}
	}
	start := int(q.Offset())
	if start >= len(matched) {
		return nil, int64(len(matched)), nil
	}
	end := min(start+int(q.PageSize), len(matched))
	return matched[start:end], int64(len(matched)), nil
}

func containsState(states []entity.State, s entity.State) bool {
	for _, st := range states {
		if st == s {
			return true
		}
	}
	return false
}

func TestExport_RoundTripsThroughReader(t *testing.T) {
	lister := &pagedLister{entries: []*entity.WordEntry{
		{
			Word:         "omowumi",
			Meaning:      "a child, to be loved",
			GeoLocations: []string{"IBADAN", "OYO"},
			Variants:     []entity.Variant{{Word: "omewami", GeoLocation: "EKITI"}, {Word: "omowunmi"}},
			SubmittedBy:  "tester",
			State:        entity.StatePublished,
		},
		{Word: "kola", Meaning: "wealth", State: entity.StateNew},
	}}

	var buf bytes.Buffer
	n, err := Export(context.Background(), lister, &buf, Format{}, []entity.State{entity.StatePublished})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 row, got %d", n)
	}

	cols, rows, err := readRows(&buf, Format{})
	if err != nil {
		t.Fatalf("readRows: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 data row, got %d", len(rows))
	}
	got := rowToEntry(rows[0], cols)
	want := lister.entries[0]
	if got.Word != want.Word || got.Meaning != want.Meaning || got.SubmittedBy != want.SubmittedBy {
		t.Fatalf("unexpected entry %+v", got)
	}
	if !reflect.DeepEqual(got.GeoLocations, want.GeoLocations) {
		t.Fatalf("geo locations = %v", got.GeoLocations)
	}
	if !reflect.DeepEqual(got.Variants, want.Variants) {
		t.Fatalf("variants = %v", got.Variants)
	}
}

func TestExport_PagesThroughEverything(t *testing.T) {
	lister := &pagedLister{}
	for i := 0; i < _exportPageSize+3; i++ {
		lister.entries = append(lister.entries, &entity.WordEntry{Word: string(rune('a'+i%26)) + "x", State: entity.StateNew})
	}

	var buf bytes.Buffer
	n, err := Export(context.Background(), lister, &buf, Format{Comma: '\t'}, nil)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if n != _exportPageSize+3 {
		t.Fatalf("expected %d rows, got %d", _exportPageSize+3, n)
	}
	if lister.calls != 2 {
		t.Fatalf("expected 2 pages, got %d", lister.calls)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("word\tpronunciation\t")) {
		t.Fatalf("unexpected header: %q", buf.String()[:40])
	}
}
