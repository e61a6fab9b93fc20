package importer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/samber/lo"

	"github.com/eslsoft/wordindex/internal/entity"
	"github.com/eslsoft/wordindex/internal/repository"
)

const _exportPageSize = 500

var exportColumns = []string{
	colWord, colPronunciation, colIPANotation, colSyllables, colMeaning,
	colExtendedMeaning, colMorphology, colGeoLocations, colVariants, colSubmittedBy,
}

// EntryLister pages through stored entries.
type EntryLister interface {
	List(ctx context.Context, query *repository.ListWordEntryQuery) ([]*entity.WordEntry, int64, error)
}

// Export writes the entries in the given states (all when empty) in the
// layout the importer reads. It returns the number of rows written.
func Export(ctx context.Context, repo EntryLister, w io.Writer, f Format, states []entity.State) (int, error) {
	out := csv.NewWriter(w)
	if f.Comma != 0 {
		out.Comma = f.Comma
	}
	if err := out.Write(exportColumns); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}

	written := 0
	for page := int32(1); ; page++ {
		entries, total, err := repo.List(ctx, &repository.ListWordEntryQuery{
			Pagination: repository.Pagination{PageNo: page, PageSize: _exportPageSize},
			States:     states,
		})
		if err != nil {
			return written, fmt.Errorf("list page %d: %w", page, err)
		}
		for _, e := range entries {
			if err := out.Write(entryToRow(e)); err != nil {
				return written, fmt.Errorf("write %s: %w", e.Word, err)
			}
			written++
		}
		if len(entries) == 0 || int64(written) >= total {
			break
		}
	}
	out.Flush()
	return written, out.Error()
}

func entryToRow(e *entity.WordEntry) []string {
	variants := lo.Map(e.Variants, func(v entity.Variant, _ int) string {
		if v.GeoLocation == "" {
			return v.Word
		}
		return v.Word + ":" + v.GeoLocation
	})
	return []string{
		e.Word,
		e.Pronunciation,
		e.IPANotation,
		e.Syllables,
		e.Meaning,
		e.ExtendedMeaning,
		e.Morphology,
		strings.Join(e.GeoLocations, listSeparator),
		strings.Join(variants, listSeparator),
		e.SubmittedBy,
	}
}
