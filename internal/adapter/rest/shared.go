package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/wordindex/internal/adapter/mapping"
)

const _maxJSONBody = 1 << 20

var errInvalidBody = errors.New("invalid request body")

// pathWord returns the decoded word path parameter.
func pathWord(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	if decoded, err := url.PathUnescape(raw); err == nil {
		return strings.TrimSpace(decoded)
	}
	return strings.TrimSpace(raw)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, _maxJSONBody))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", errInvalidBody)
		}
		return fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	return nil
}

func writeBadRequest(w http.ResponseWriter, err error) {
	mapping.WriteError(w, http.StatusBadRequest, mapping.CodeInvalidArgument, err.Error())
}

// writeError logs server-side failures and writes the envelope.
func writeError(w http.ResponseWriter, r *http.Request, logger logrus.FieldLogger, err error) {
	if status, _ := mapping.ToHTTPError(err); status >= http.StatusInternalServerError {
		logger.WithError(err).WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error("request failed")
	}
	mapping.WriteDomainError(w, err)
}
