package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerRecordsRouteStatusAndSize(t *testing.T) {
	var buf bytes.Buffer
	r := chi.NewRouter()
	r.Use(RequestID, Logger(zerolog.New(&buf)))
	r.Get("/v1/articles/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("missing"))
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/articles/a-42", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "warn", line["level"])
	assert.Equal(t, "/v1/articles/a-42", line["path"])
	assert.Equal(t, "/v1/articles/{id}", line["route"])
	assert.EqualValues(t, http.StatusNotFound, line["status"])
	assert.EqualValues(t, len("missing"), line["bytes"])
	assert.NotEmpty(t, line["request_id"])
}

func TestLoggerLevels(t *testing.T) {
	cases := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "info"},
		{http.StatusTooManyRequests, "warn"},
		{http.StatusBadGateway, "error"},
	}
	for _, tc := range cases {
		var buf bytes.Buffer
		h := Logger(zerolog.New(&buf))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(tc.status)
		}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		assert.Equal(t, tc.level, line["level"], "status %d", tc.status)
		assert.Equal(t, "", line["route"])
	}
}
