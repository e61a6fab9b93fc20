package rest

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/wordindex/internal/adapter/mapping"
	"github.com/eslsoft/wordindex/internal/entity"
	"github.com/eslsoft/wordindex/internal/usecase"
)

// ActivityReader exposes the activity registers.
type ActivityReader interface {
	RecentSearches() []string
	RecentIndexes() []string
	MostPopular() []entity.Popularity
}

// SearchHandler serves lookups and index administration under /v1/search.
type SearchHandler struct {
	search   usecase.SearchUsecase
	index    usecase.IndexUsecase
	activity ActivityReader
	logger   logrus.FieldLogger
}

func NewSearchHandler(search usecase.SearchUsecase, index usecase.IndexUsecase, activity ActivityReader, logger logrus.FieldLogger) *SearchHandler {
	return &SearchHandler{search: search, index: index, activity: activity, logger: logger}
}

func (h *SearchHandler) Routes(r chi.Router) {
	r.Get("/", h.handleSearch)
	r.Get("/meta", h.handleMeta)
	r.Get("/autocomplete", h.handleAutocomplete)
	r.Get("/alphabet/{prefix}", h.handleAlphabet)
	r.Get("/activity", h.handleActivity)
	r.Get("/activity/all", h.handleAllActivity)

	r.Post("/indexes", h.handleIndexEntry)
	r.Post("/indexes/batch", h.handleBulkIndex)
	r.Post("/indexes/{word}", h.handleIndexWord)
	r.Delete("/indexes/batch", h.handleBulkRemove)
	r.Delete("/indexes/{word}", h.handleRemove)

	r.Get("/{word}", h.handleGetByWord)
}

func (h *SearchHandler) handleSearch(w http.ResponseWriter, r *http.Request) {
	results, err := h.search.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	mapping.WriteJSON(w, http.StatusOK, results)
}

func (h *SearchHandler) handleMeta(w http.ResponseWriter, r *http.Request) {
	n, err := h.search.SearchableCount(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	mapping.WriteJSON(w, http.StatusOK, mapping.SearchMeta{TotalPublishedWords: n})
}

func (h *SearchHandler) handleAutocomplete(w http.ResponseWriter, r *http.Request) {
	words, err := h.search.Autocomplete(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	mapping.WriteJSON(w, http.StatusOK, words)
}

func (h *SearchHandler) handleAlphabet(w http.ResponseWriter, r *http.Request) {
	results, err := h.search.ListByAlphabet(r.Context(), pathWord(r, "prefix"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	mapping.WriteJSON(w, http.StatusOK, results)
}

func (h *SearchHandler) handleGetByWord(w http.ResponseWriter, r *http.Request) {
	word := pathWord(r, "word")
	entry, err := h.search.GetByWord(r.Context(), word)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	mapping.WriteJSON(w, http.StatusOK, entry)
}

func (h *SearchHandler) handleActivity(w http.ResponseWriter, r *http.Request) {
	switch strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q"))) {
	case "", "search":
		mapping.WriteJSON(w, http.StatusOK, nonNil(h.activity.RecentSearches()))
	case "index":
		mapping.WriteJSON(w, http.StatusOK, nonNil(h.activity.RecentIndexes()))
	case "popular":
		popular := h.activity.MostPopular()
		if popular == nil {
			popular = []entity.Popularity{}
		}
		mapping.WriteJSON(w, http.StatusOK, popular)
	default:
		mapping.WriteError(w, http.StatusBadRequest, mapping.CodeInvalidArgument,
			"q must be one of search, index or popular")
	}
}

func (h *SearchHandler) handleAllActivity(w http.ResponseWriter, r *http.Request) {
	mapping.WriteJSON(w, http.StatusOK, mapping.ToActivityRegisters(
		h.activity.RecentSearches(),
		h.activity.RecentIndexes(),
		h.activity.MostPopular(),
	))
}

func (h *SearchHandler) handleIndexEntry(w http.ResponseWriter, r *http.Request) {
	var req mapping.WordEntryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	mapping.WriteStatus(w, h.index.IndexByWord(r.Context(), req.Word))
}

func (h *SearchHandler) handleIndexWord(w http.ResponseWriter, r *http.Request) {
	mapping.WriteStatus(w, h.index.IndexByWord(r.Context(), pathWord(r, "word")))
}

func (h *SearchHandler) handleBulkIndex(w http.ResponseWriter, r *http.Request) {
	var words []string
	if err := decodeJSON(w, r, &words); err != nil {
		writeBadRequest(w, err)
		return
	}
	mapping.WriteStatus(w, h.index.BulkIndexByWords(r.Context(), words))
}

func (h *SearchHandler) handleRemove(w http.ResponseWriter, r *http.Request) {
	mapping.WriteStatus(w, h.index.RemoveFromIndex(r.Context(), pathWord(r, "word")))
}

func (h *SearchHandler) handleBulkRemove(w http.ResponseWriter, r *http.Request) {
	var words []string
	if err := decodeJSON(w, r, &words); err != nil {
		writeBadRequest(w, err)
		return
	}
	mapping.WriteStatus(w, h.index.BulkRemove(r.Context(), words))
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
