package mapping

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/eslsoft/wordindex/internal/entity"
)

const (
	CodeInvalidArgument = "invalid_argument"
	CodeNotFound        = "not_found"
	CodeAlreadyExists   = "already_exists"
	CodeConflict        = "conflict"
	CodeTooLarge        = "payload_too_large"
	CodeUnavailable     = "unavailable"
	CodeRateLimited     = "rate_limit_exceeded"
	CodeInternal        = "internal"
)

// ErrorBody is the JSON error envelope.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ToHTTPError maps a domain error to a status code and envelope code.
func ToHTTPError(err error) (int, string) {
	switch {
	case err == nil:
		return http.StatusOK, ""
	case errors.Is(err, entity.ErrInvalidWord), errors.Is(err, entity.ErrInvalidState),
		errors.Is(err, entity.ErrInvalidFilter), errors.Is(err, entity.ErrMissingWordColumn),
		errors.Is(err, entity.ErrEmptyBatch):
		return http.StatusBadRequest, CodeInvalidArgument
	case errors.Is(err, entity.ErrWordEntryNotFound), errors.Is(err, entity.ErrNotIndexed):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, entity.ErrDuplicateWordEntry), errors.Is(err, entity.ErrWordExistsAsVariant):
		return http.StatusConflict, CodeAlreadyExists
	case errors.Is(err, entity.ErrImportInProgress):
		return http.StatusConflict, CodeConflict
	case errors.Is(err, entity.ErrImportTooLarge):
		return http.StatusRequestEntityTooLarge, CodeTooLarge
	case errors.Is(err, entity.ErrEngineUnavailable):
		return http.StatusServiceUnavailable, CodeUnavailable
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// StatusForKind maps an index operation outcome to a status code.
func StatusForKind(kind entity.FailureKind) int {
	switch kind {
	case entity.FailureNone:
		return http.StatusOK
	case entity.FailureValidation:
		return http.StatusBadRequest
	case entity.FailureNotFound:
		return http.StatusNotFound
	case entity.FailureUnavailable:
		return http.StatusServiceUnavailable
	case entity.FailurePartial:
		return http.StatusMultiStatus
	default:
		return http.StatusInternalServerError
	}
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, ErrorBody{Error: ErrorDetail{Code: code, Message: message}})
}

// WriteDomainError writes err in the envelope. Internal errors are not echoed
// to the client.
func WriteDomainError(w http.ResponseWriter, err error) {
	status, code := ToHTTPError(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = http.StatusText(status)
	}
	WriteError(w, status, code, message)
}

// WriteStatus writes an index operation outcome with its mapped status code.
func WriteStatus(w http.ResponseWriter, status entity.IndexOperationStatus) {
	WriteJSON(w, StatusForKind(status.Kind), status)
}
