package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eslsoft/wordindex/internal/adapter/mapping"
	"github.com/eslsoft/wordindex/internal/adapter/rest"
	"github.com/eslsoft/wordindex/internal/infrastructure/config"
)

func TestRateLimit_PerClient(t *testing.T) {
	handler := RateLimit(1, 2)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	call := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusNoContent, call("10.0.0.1:1000").Code)
	assert.Equal(t, http.StatusNoContent, call("10.0.0.1:1001").Code)
	limited := call("10.0.0.1:1002")
	require.Equal(t, http.StatusTooManyRequests, limited.Code)

	var body mapping.ErrorBody
	require.NoError(t, json.Unmarshal(limited.Body.Bytes(), &body))
	assert.Equal(t, mapping.CodeRateLimited, body.Error.Code)

	assert.Equal(t, http.StatusNoContent, call("10.0.0.2:1000").Code)
}

func TestRateLimit_DisabledWithoutRate(t *testing.T) {
	handler := RateLimit(0, 0)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	for i := 0; i < 50; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusNoContent, rec.Code)
	}
}

func TestAccessLog_LevelByStatus(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(AccessLog(logger))
	r.Get("/ok", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/missing", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNotFound) })
	r.Get("/boom", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusServiceUnavailable) })

	cases := map[string]logrus.Level{
		"/ok":      logrus.InfoLevel,
		"/missing": logrus.WarnLevel,
		"/boom":    logrus.ErrorLevel,
	}
	for path, level := range cases {
		hook.Reset()
		req := httptest.NewRequest(http.MethodGet, path+"?x=1", nil)
		req.Header.Set("X-Forwarded-For", " , 203.0.113.9, 10.0.0.1")
		r.ServeHTTP(httptest.NewRecorder(), req)

		entry := hook.LastEntry()
		require.NotNil(t, entry, path)
		assert.Equal(t, level, entry.Level, path)
		assert.Equal(t, path, entry.Data["path"])
		assert.Equal(t, "x=1", entry.Data["query"])
		assert.Equal(t, "203.0.113.9", entry.Data["client_ip"])
		assert.NotEmpty(t, entry.Data["request_id"])
	}
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(&config.Config{Log: config.LogConfig{Level: "debug", Format: "text"}})
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, logger.Formatter)

	_, err = NewLogger(&config.Config{Log: config.LogConfig{Level: "chatty"}})
	assert.Error(t, err)
}

func TestRouter_FallbackRoutes(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	cfg := &config.Config{}
	router := NewRouter(cfg, logger,
		rest.NewSearchHandler(nil, nil, nil, logger),
		rest.NewWordHandler(nil, nil, nil, logger))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v2/nothing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), mapping.CodeNotFound)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/v1/words/", nil)
	req.Header.Set("Origin", "https://example.org")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	router.ServeHTTP(rec, req)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
