package entity

import (
	"testing"
	"time"
)

func TestWordEntryNormalize(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	e := &WordEntry{
		Word:     "  Ọmọ ",
		Meaning:  " <b>child</b> ",
		Variants: []Variant{{Word: " Omo "}, {Word: "omo"}, {Word: ""}},
	}
	e.Normalize(now)

	if e.Word != "ọmọ" {
		t.Fatalf("expected lower-cased trimmed word, got %q", e.Word)
	}
	if e.Meaning != "child" {
		t.Fatalf("expected sanitised meaning, got %q", e.Meaning)
	}
	if len(e.Variants) != 1 || e.Variants[0].Word != "omo" {
		t.Fatalf("expected one deduplicated variant, got %+v", e.Variants)
	}
	if e.State != StateNew || e.SubmittedBy != DefaultSubmitter {
		t.Fatalf("unexpected defaults: state=%s submitter=%s", e.State, e.SubmittedBy)
	}
	if !e.CreatedAt.Equal(now) || !e.UpdatedAt.Equal(now) {
		t.Fatalf("expected timestamps to default to now")
	}
	if e.Folded() != "omo" {
		t.Fatalf("expected folded key omo, got %q", e.Folded())
	}
	if e.VariantText() != "|omo|" {
		t.Fatalf("unexpected variant text %q", e.VariantText())
	}
}

func TestWordEntryApplyUpdate_PublishedBecomesModified(t *testing.T) {
	created := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	later := created.Add(48 * time.Hour)
	e := &WordEntry{ID: 7, Word: "koko", State: StatePublished, CreatedAt: created, UpdatedAt: created}

	e.ApplyUpdate(&WordEntry{ID: 99, Word: "other", Meaning: "new meaning", CreatedAt: later}, later)

	if e.ID != 7 || e.Word != "koko" || !e.CreatedAt.Equal(created) {
		t.Fatalf("identity fields changed: %+v", e)
	}
	if e.State != StateModified {
		t.Fatalf("expected MODIFIED, got %s", e.State)
	}
	if !e.UpdatedAt.Equal(later) {
		t.Fatalf("expected updatedAt refreshed, got %v", e.UpdatedAt)
	}
	if e.Meaning != "new meaning" {
		t.Fatalf("expected meaning updated, got %q", e.Meaning)
	}
}

func TestWordEntryApplyUpdate_KeepsUnpublishedState(t *testing.T) {
	e := &WordEntry{Word: "tola", State: StateNew}
	e.ApplyUpdate(&WordEntry{Meaning: "wealth"}, time.Now())
	if e.State != StateNew {
		t.Fatalf("expected NEW to stay NEW, got %s", e.State)
	}
}

func TestParseState(t *testing.T) {
	s, err := ParseState(" published ")
	if err != nil || s != StatePublished {
		t.Fatalf("got (%s, %v)", s, err)
	}
	if _, err := ParseState("archived"); err == nil {
		t.Fatal("expected error for unknown state")
	}
	if !StateModified.Indexed() || StateUnpublished.Indexed() {
		t.Fatal("unexpected Indexed() result")
	}
}

func TestFoldAccents(t *testing.T) {
	cases := map[string]string{
		"Àdìsá":  "adisa",
		"ọmọ":    "omo",
		"plain":  "plain",
		" Éwà  ": "ewa",
	}
	for in, want := range cases {
		if got := FoldAccents(in); got != want {
			t.Fatalf("FoldAccents(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeWordTokens(t *testing.T) {
	got := NormalizeWordTokens([]string{" Tola", "tola", "", "Dadepo"})
	if len(got) != 2 || got[0] != "tola" || got[1] != "dadepo" {
		t.Fatalf("unexpected tokens %v", got)
	}
}
