package entity

import (
	"strings"
	"time"
)

const DefaultSubmitter = "Not Available"

// WordEntry is a dictionary entry keyed by its lower-cased word.
type WordEntry struct {
	ID              int64              `json:"id"`
	Word            string             `json:"word"`
	Pronunciation   string             `json:"pronunciation,omitempty"`
	IPANotation     string             `json:"ipaNotation,omitempty"`
	Syllables       string             `json:"syllables,omitempty"`
	Meaning         string             `json:"meaning,omitempty"`
	ExtendedMeaning string             `json:"extendedMeaning,omitempty"`
	Morphology      string             `json:"morphology,omitempty"`
	GeoLocations    []string           `json:"geoLocations,omitempty"`
	Variants        []Variant          `json:"variants,omitempty"`
	Etymology       []EtymologySegment `json:"etymology,omitempty"`
	MediaLinks      []MediaLink        `json:"mediaLinks,omitempty"`
	Definitions     []Definition       `json:"definitions,omitempty"`
	SubmittedBy     string             `json:"submittedBy,omitempty"`
	State           State              `json:"state"`
	CreatedAt       time.Time          `json:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt"`
}

// Variant is an alternative spelling of an entry, usually regional.
type Variant struct {
	Word        string `json:"word"`
	GeoLocation string `json:"geoLocation,omitempty"`
}

type EtymologySegment struct {
	Part  string `json:"part"`
	Value string `json:"value"`
}

type MediaType string

const (
	MediaTypeAudio MediaType = "AUDIO"
	MediaTypeVideo MediaType = "VIDEO"
	MediaTypeImage MediaType = "IMAGE"
)

type MediaLink struct {
	Link    string    `json:"link"`
	Caption string    `json:"caption,omitempty"`
	Type    MediaType `json:"type,omitempty"`
}

type Definition struct {
	Content            string    `json:"content"`
	EnglishTranslation string    `json:"englishTranslation,omitempty"`
	SubmittedAt        time.Time `json:"submittedAt,omitempty"`
	Examples           []Example `json:"examples,omitempty"`
}

type Example struct {
	Content            string `json:"content"`
	EnglishTranslation string `json:"englishTranslation,omitempty"`
	Type               string `json:"type,omitempty"`
}

// Normalize ensures defaults & constraints before persistence.
func (e *WordEntry) Normalize(now time.Time) {
	e.Word = NormalizeWordToken(e.Word)
	e.Pronunciation = CleanText(e.Pronunciation)
	e.IPANotation = CleanText(e.IPANotation)
	e.Syllables = CleanText(e.Syllables)
	e.Meaning = CleanText(e.Meaning)
	e.ExtendedMeaning = CleanText(e.ExtendedMeaning)
	e.Morphology = CleanText(e.Morphology)
	e.SubmittedBy = CleanText(e.SubmittedBy)
	if e.SubmittedBy == "" {
		e.SubmittedBy = DefaultSubmitter
	}
	e.GeoLocations = cleanList(e.GeoLocations)
	e.Variants = normalizeVariants(e.Variants)
	if e.State == "" {
		e.State = StateNew
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = now
	}
}

// ApplyUpdate copies the editable fields of src onto e. Identity, creation
// time and the submitter stay untouched; a published entry becomes MODIFIED.
func (e *WordEntry) ApplyUpdate(src *WordEntry, now time.Time) {
	e.Pronunciation = src.Pronunciation
	e.IPANotation = src.IPANotation
	e.Syllables = src.Syllables
	e.Meaning = src.Meaning
	e.ExtendedMeaning = src.ExtendedMeaning
	e.Morphology = src.Morphology
	e.GeoLocations = src.GeoLocations
	e.Variants = src.Variants
	e.Etymology = src.Etymology
	e.MediaLinks = src.MediaLinks
	e.Definitions = src.Definitions
	if e.State == StatePublished {
		e.State = StateModified
	}
	e.UpdatedAt = now
	e.Normalize(now)
}

// Folded returns the accent-insensitive key of the entry.
func (e *WordEntry) Folded() string {
	return FoldAccents(e.Word)
}

// VariantWords returns the lower-cased variant spellings.
func (e *WordEntry) VariantWords() []string {
	if len(e.Variants) == 0 {
		return nil
	}
	out := make([]string, 0, len(e.Variants))
	for _, v := range e.Variants {
		out = append(out, v.Word)
	}
	return out
}

// VariantText joins the variant spellings as "|a|b|" so that a containment
// lookup on "|a|" matches whole variants only.
func (e *WordEntry) VariantText() string {
	words := e.VariantWords()
	if len(words) == 0 {
		return ""
	}
	return "|" + strings.Join(words, "|") + "|"
}

// Clone returns a deep copy of the entry.
func (e *WordEntry) Clone() *WordEntry {
	if e == nil {
		return nil
	}
	out := *e
	out.GeoLocations = append([]string(nil), e.GeoLocations...)
	out.Variants = append([]Variant(nil), e.Variants...)
	out.Etymology = append([]EtymologySegment(nil), e.Etymology...)
	out.MediaLinks = append([]MediaLink(nil), e.MediaLinks...)
	if e.Definitions != nil {
		out.Definitions = make([]Definition, len(e.Definitions))
		for i, d := range e.Definitions {
			d.Examples = append([]Example(nil), d.Examples...)
			out.Definitions[i] = d
		}
	}
	return &out
}

func normalizeVariants(in []Variant) []Variant {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]Variant, 0, len(in))
	for _, v := range in {
		word := NormalizeWordToken(v.Word)
		if word == "" {
			continue
		}
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		out = append(out, Variant{Word: word, GeoLocation: CleanText(v.GeoLocation)})
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func cleanList(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, item := range in {
		if cleaned := CleanText(item); cleaned != "" {
			out = append(out, cleaned)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// ListWordEntriesFilter narrows entry listings.
type ListWordEntriesFilter struct {
	States []State
}
