package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestRequestLoggingWritesOneLine(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	handler := CorrelationID(logger)(RequestLogging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})))

	req := httptest.NewRequest(http.MethodPost, "/events", nil)
	req.Header.Set("X-Request-ID", "log-1")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	require.Equal(t, "request", line["message"])
	require.Equal(t, "info", line["level"])
	require.Equal(t, "POST", line["method"])
	require.Equal(t, "/events", line["path"])
	require.Equal(t, float64(http.StatusCreated), line["status"])
	require.Equal(t, "log-1", line["request_id"])
}

func TestRequestLoggingServerErrorsAtErrorLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	handler := RequestLogging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/events", nil))

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	require.Equal(t, "error", line["level"])
}

func TestRequestLoggingDefaultsStatusAndCountsBytes(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	handler := RequestLogging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/events", nil))

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	require.Equal(t, float64(http.StatusOK), line["status"])
	require.Equal(t, float64(2), line["bytes"])
}
