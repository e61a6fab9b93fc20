package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/eslsoft/wordindex/internal/entity"
)

// Format describes the delimited file layout. A zero Comma means ','.
type Format struct {
	Comma rune
}

const (
	colWord            = "word"
	colPronunciation   = "pronunciation"
	colIPANotation     = "ipa_notation"
	colSyllables       = "syllables"
	colMeaning         = "meaning"
	colExtendedMeaning = "extended_meaning"
	colMorphology      = "morphology"
	colGeoLocations    = "geo_locations"
	colVariants        = "variants"
	colSubmittedBy     = "submitted_by"

	listSeparator = ";"
)

var headerAliases = map[string]string{
	"name":     colWord,
	"syllable": colSyllables,
	"ipa":      colIPANotation,
}

type columns map[string]int

func (c columns) value(record []string, name string) string {
	idx, ok := c[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

// readRows parses the header and returns the column positions with every
// non-blank data row.
func readRows(r io.Reader, f Format) (columns, [][]string, error) {
	reader := csv.NewReader(r)
	if f.Comma != 0 {
		reader.Comma = f.Comma
	}
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, entity.ErrMissingWordColumn
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	cols := parseHeader(header)
	if _, ok := cols[colWord]; !ok {
		return nil, nil, entity.ErrMissingWordColumn
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read row: %w", err)
		}
		if blank(record) {
			continue
		}
		rows = append(rows, record)
	}
	return cols, rows, nil
}

func parseHeader(header []string) columns {
	cols := make(columns, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		key = strings.ReplaceAll(key, " ", "_")
		if alias, ok := headerAliases[key]; ok {
			key = alias
		}
		if _, dup := cols[key]; !dup && key != "" {
			cols[key] = i
		}
	}
	return cols
}

func blank(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

func rowToEntry(record []string, cols columns) *entity.WordEntry {
	return &entity.WordEntry{
		Word:            cols.value(record, colWord),
		Pronunciation:   cols.value(record, colPronunciation),
		IPANotation:     cols.value(record, colIPANotation),
		Syllables:       cols.value(record, colSyllables),
		Meaning:         cols.value(record, colMeaning),
		ExtendedMeaning: cols.value(record, colExtendedMeaning),
		Morphology:      cols.value(record, colMorphology),
		GeoLocations:    splitList(cols.value(record, colGeoLocations)),
		Variants:        parseVariants(cols.value(record, colVariants)),
		SubmittedBy:     cols.value(record, colSubmittedBy),
	}
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	return strings.Split(raw, listSeparator)
}

// parseVariants reads "word:geo;word2" into variants.
func parseVariants(raw string) []entity.Variant {
	items := splitList(raw)
	if len(items) == 0 {
		return nil
	}
	out := make([]entity.Variant, 0, len(items))
	for _, item := range items {
		word, geo, _ := strings.Cut(item, ":")
		out = append(out, entity.Variant{Word: word, GeoLocation: geo})
	}
	return out
}
