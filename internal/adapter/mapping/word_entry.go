package mapping

import (
	"strings"

	"github.com/samber/lo"

	"github.com/eslsoft/wordindex/internal/entity"
)

// WordEntryRequest is the writable part of a word entry. Identity, state and
// timestamps are owned by the server.
type WordEntryRequest struct {
	Word            string                    `json:"word"`
	Pronunciation   string                    `json:"pronunciation"`
	IPANotation     string                    `json:"ipaNotation"`
	Syllables       string                    `json:"syllables"`
	Meaning         string                    `json:"meaning"`
	ExtendedMeaning string                    `json:"extendedMeaning"`
	Morphology      string                    `json:"morphology"`
	GeoLocations    []string                  `json:"geoLocations"`
	Variants        []entity.Variant          `json:"variants"`
	Etymology       []entity.EtymologySegment `json:"etymology"`
	MediaLinks      []entity.MediaLink        `json:"mediaLinks"`
	Definitions     []entity.Definition       `json:"definitions"`
	SubmittedBy     string                    `json:"submittedBy"`
}

func FromWordEntryRequest(in *WordEntryRequest) *entity.WordEntry {
	if in == nil {
		return nil
	}
	return &entity.WordEntry{
		Word:            strings.TrimSpace(in.Word),
		Pronunciation:   in.Pronunciation,
		IPANotation:     in.IPANotation,
		Syllables:       in.Syllables,
		Meaning:         in.Meaning,
		ExtendedMeaning: in.ExtendedMeaning,
		Morphology:      in.Morphology,
		GeoLocations:    in.GeoLocations,
		Variants:        in.Variants,
		Etymology: lo.FilterMap(in.Etymology, func(seg entity.EtymologySegment, _ int) (entity.EtymologySegment, bool) {
			seg.Part, seg.Value = strings.TrimSpace(seg.Part), strings.TrimSpace(seg.Value)
			return seg, seg.Part != "" || seg.Value != ""
		}),
		MediaLinks: lo.FilterMap(in.MediaLinks, func(link entity.MediaLink, _ int) (entity.MediaLink, bool) {
			link.Link = strings.TrimSpace(link.Link)
			link.Caption = strings.TrimSpace(link.Caption)
			link.Type = entity.MediaType(strings.ToUpper(strings.TrimSpace(string(link.Type))))
			return link, link.Link != ""
		}),
		Definitions: lo.FilterMap(in.Definitions, func(def entity.Definition, _ int) (entity.Definition, bool) {
			def.Content = strings.TrimSpace(def.Content)
			def.EnglishTranslation = strings.TrimSpace(def.EnglishTranslation)
			def.Examples = lo.Filter(def.Examples, func(ex entity.Example, _ int) bool {
				return strings.TrimSpace(ex.Content) != ""
			})
			return def, def.Content != ""
		}),
		SubmittedBy: in.SubmittedBy,
	}
}

// WordEntryList is one page of entries.
type WordEntryList struct {
	Entries  []*entity.WordEntry `json:"entries"`
	Total    int64               `json:"total"`
	Page     int32               `json:"page"`
	PageSize int32               `json:"pageSize"`
}

// SearchMeta reports how many entries are searchable.
type SearchMeta struct {
	TotalPublishedWords int64 `json:"totalPublishedWords"`
}

// ActivityRegisters is the body of the all-registers activity route.
type ActivityRegisters struct {
	Search  []string            `json:"search"`
	Index   []string            `json:"index"`
	Popular []entity.Popularity `json:"popular"`
}

func ToActivityRegisters(searches, indexes []string, popular []entity.Popularity) ActivityRegisters {
	return ActivityRegisters{
		Search:  lo.Ternary(searches == nil, []string{}, searches),
		Index:   lo.Ternary(indexes == nil, []string{}, indexes),
		Popular: lo.Ternary(popular == nil, []entity.Popularity{}, popular),
	}
}
