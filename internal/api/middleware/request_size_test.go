package middleware

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestSize(t *testing.T) {
	tests := []struct {
		name         string
		maxBytes     int64
		bodySize     int
		expectStatus int
	}{
		{name: "small request accepted", maxBytes: 1024, bodySize: 512, expectStatus: http.StatusOK},
		{name: "exact limit accepted", maxBytes: 1024, bodySize: 1024, expectStatus: http.StatusOK},
		{name: "oversized request rejected", maxBytes: 1024, bodySize: 2048, expectStatus: http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlerCalled := false
			handler := RequestSize(tt.maxBytes)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handlerCalled = true
				_, err := io.ReadAll(r.Body)
				require.NoError(t, err)
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodPost, "/events", bytes.NewReader(make([]byte, tt.bodySize)))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectStatus, rec.Code)
			assert.Equal(t, tt.expectStatus == http.StatusOK, handlerCalled)
			assert.Empty(t, rec.Body.Bytes())
		})
	}
}

func TestRequestSizeChunkedBodyHitsReaderLimit(t *testing.T) {
	var readErr error
	handler := RequestSize(16)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	}))

	req := httptest.NewRequest(http.MethodPost, "/events", bytes.NewReader(make([]byte, 64)))
	req.ContentLength = -1
	handler.ServeHTTP(httptest.NewRecorder(), req)

	var maxBytesErr *http.MaxBytesError
	require.True(t, errors.As(readErr, &maxBytesErr))
	require.Equal(t, int64(16), maxBytesErr.Limit)
}

func TestRequestSizeDefaultsNonPositiveLimit(t *testing.T) {
	handler := RequestSize(0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/events", bytes.NewReader(make([]byte, DefaultMaxBodySize+1)))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}
