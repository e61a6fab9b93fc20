package rest

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/wordindex/internal/adapter/mapping"
	"github.com/eslsoft/wordindex/internal/entity"
	"github.com/eslsoft/wordindex/internal/repository"
	"github.com/eslsoft/wordindex/internal/usecase"
	"github.com/eslsoft/wordindex/internal/usecase/importer"
)

// Importer accepts uploads and reports their progress.
type Importer interface {
	Submit(r io.Reader, f importer.Format) (string, error)
	Progress() entity.UploadProgress
}

// WordHandler serves entry administration under /v1/words.
type WordHandler struct {
	words    usecase.WordEntryUsecase
	index    usecase.IndexUsecase
	importer Importer
	logger   logrus.FieldLogger
}

func NewWordHandler(words usecase.WordEntryUsecase, index usecase.IndexUsecase, imp Importer, logger logrus.FieldLogger) *WordHandler {
	return &WordHandler{words: words, index: index, importer: imp, logger: logger}
}

func (h *WordHandler) Routes(r chi.Router) {
	r.Post("/", h.handleCreate)
	r.Get("/", h.handleList)
	r.Post("/import", h.handleImport)
	r.Get("/import/status", h.handleImportStatus)
	r.Get("/{word}", h.handleGet)
	r.Put("/{word}", h.handleUpdate)
	r.Delete("/{word}", h.handleDelete)
}

func (h *WordHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req mapping.WordEntryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	suggested, _ := strconv.ParseBool(r.URL.Query().Get("suggested"))
	created, err := h.words.Create(r.Context(), mapping.FromWordEntryRequest(&req), suggested)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	mapping.WriteJSON(w, http.StatusCreated, created)
}

func (h *WordHandler) handleList(w http.ResponseWriter, r *http.Request) {
	query, err := listQuery(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	entries, total, err := h.words.List(r.Context(), query)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	mapping.WriteJSON(w, http.StatusOK, mapping.WordEntryList{
		Entries:  entries,
		Total:    total,
		Page:     max(query.PageNo, 1),
		PageSize: int32(len(entries)),
	})
}

func listQuery(r *http.Request) (*repository.ListWordEntryQuery, error) {
	params := r.URL.Query()
	q := &repository.ListWordEntryQuery{
		FilterOrder: repository.FilterOrder{
			Filter:  params.Get("filter"),
			OrderBy: params.Get("order_by"),
		},
	}
	for _, raw := range strings.Split(params.Get("state"), ",") {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		state, err := entity.ParseState(raw)
		if err != nil {
			return nil, err
		}
		q.States = append(q.States, state)
	}
	var err error
	if q.PageNo, err = intParam(params.Get("page"), "page"); err != nil {
		return nil, err
	}
	if q.PageSize, err = intParam(params.Get("page_size"), "page_size"); err != nil {
		return nil, err
	}
	return q, nil
}

func intParam(raw, name string) (int32, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", name)
	}
	return int32(n), nil
}

func (h *WordHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	entry, err := h.words.Get(r.Context(), pathWord(r, "word"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	mapping.WriteJSON(w, http.StatusOK, entry)
}

func (h *WordHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req mapping.WordEntryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	updated, err := h.words.Update(r.Context(), pathWord(r, "word"), mapping.FromWordEntryRequest(&req))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	mapping.WriteJSON(w, http.StatusOK, updated)
}

// handleDelete withdraws an indexed entry from the search index before
// deleting it from the store.
func (h *WordHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entry, err := h.words.Get(ctx, pathWord(r, "word"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if entry.State.Indexed() {
		status := h.index.RemoveFromIndex(ctx, entry.Word)
		if !status.Success && status.Kind != entity.FailureNotFound {
			mapping.WriteStatus(w, status)
			return
		}
	}
	if err := h.words.Delete(ctx, entry.Word); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	mapping.WriteJSON(w, http.StatusOK, map[string]string{"message": entry.Word + " deleted"})
}

func (h *WordHandler) handleImport(w http.ResponseWriter, r *http.Request) {
	format := importer.Format{}
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "text/tab-separated-values" || r.URL.Query().Get("comma") == "tab" {
		format.Comma = '\t'
	}
	id, err := h.importer.Submit(r.Body, format)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	mapping.WriteJSON(w, http.StatusAccepted, map[string]string{"jobId": id})
}

func (h *WordHandler) handleImportStatus(w http.ResponseWriter, r *http.Request) {
	mapping.WriteJSON(w, http.StatusOK, h.importer.Progress())
}
