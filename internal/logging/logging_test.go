package logging

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"finance-tracker/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_LevelAndFormat(t *testing.T) {
	buf := new(bytes.Buffer)
	logger := New(config.LogConfig{Level: "warn", Format: "json"}, buf)

	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "shown", entry["message"])
	assert.Equal(t, "warn", entry["level"])
}

func TestNew_BadLevelFallsBackToInfo(t *testing.T) {
	logger := New(config.LogConfig{Level: "loud", Format: "json"}, new(bytes.Buffer))
	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
}

func TestMiddleware(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantLevel string
	}{
		{"ok", http.StatusOK, "info"},
		{"client error", http.StatusNotFound, "warn"},
		{"server error", http.StatusInternalServerError, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := new(bytes.Buffer)
			logger := New(config.LogConfig{Level: "debug", Format: "json"}, buf)

			var ctxLogger *zerolog.Logger
			handler := Middleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				ctxLogger = zerolog.Ctx(r.Context())
				w.WriteHeader(tt.status)
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/summary", http.NoBody)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			require.NotNil(t, ctxLogger)
			assert.NotEqual(t, zerolog.Disabled, ctxLogger.GetLevel(), "handler should see the request logger")

			requestID := w.Header().Get(RequestIDHeader)
			assert.NotEmpty(t, requestID)

			var entry map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			assert.Equal(t, tt.wantLevel, entry["level"])
			assert.Equal(t, requestID, entry["request_id"])
			assert.Equal(t, "/api/summary", entry["path"])
			assert.EqualValues(t, tt.status, entry["status"])
		})
	}
}

func TestMiddleware_KeepsIncomingRequestID(t *testing.T) {
	logger := New(config.LogConfig{Level: "info", Format: "json"}, new(bytes.Buffer))
	handler := Middleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}
