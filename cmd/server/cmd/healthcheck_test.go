package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPerformHealthCheck(t *testing.T) {
	healthcheckTimeout = 5

	tests := []struct {
		name          string
		statusCode    int
		responseBody  any
		expectHealthy bool
		expectError   bool
		expectStatus  string
	}{
		{
			name:       "healthy server",
			statusCode: http.StatusOK,
			responseBody: HealthResponse{
				Status: "healthy",
				Checks: map[string]CheckResult{"database": {Status: "pass"}},
			},
			expectHealthy: true,
			expectStatus:  "healthy",
		},
		{
			name:          "degraded server",
			statusCode:    http.StatusOK,
			responseBody:  HealthResponse{Status: "degraded"},
			expectHealthy: false,
			expectStatus:  "degraded",
		},
		{
			name:          "unhealthy server (503)",
			statusCode:    http.StatusServiceUnavailable,
			responseBody:  HealthResponse{Status: "unhealthy"},
			expectHealthy: false,
			expectStatus:  "unhealthy",
		},
		{
			name:         "invalid response",
			statusCode:   http.StatusOK,
			responseBody: "not json",
			expectError:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				if str, ok := tt.responseBody.(string); ok {
					fmt.Fprint(w, str)
					return
				}
				_ = json.NewEncoder(w).Encode(tt.responseBody)
			}))
			defer server.Close()

			result := performHealthCheck(context.Background(), server.URL)

			assert.Equal(t, tt.expectHealthy, result.IsHealthy)
			assert.Equal(t, server.URL, result.URL)
			assert.GreaterOrEqual(t, result.LatencyMs, int64(0))
			if tt.expectError {
				assert.NotEmpty(t, result.Error)
			} else {
				assert.Empty(t, result.Error)
				assert.Equal(t, tt.expectStatus, result.Status)
			}
		})
	}
}

func TestPerformHealthCheckTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-time.After(5 * time.Second):
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()
	defer close(release)

	healthcheckTimeout = 1
	t.Cleanup(func() { healthcheckTimeout = 5 })

	result := performHealthCheck(context.Background(), server.URL)
	assert.NotEmpty(t, result.Error)
	assert.False(t, result.IsHealthy)
}

func TestPerformHealthCheckWithRetries(t *testing.T) {
	healthcheckTimeout = 5

	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(HealthResponse{Status: "unhealthy"})
			return
		}
		_ = json.NewEncoder(w).Encode(HealthResponse{Status: "healthy"})
	}))
	defer server.Close()

	result := performHealthCheckWithRetries(context.Background(), server.URL, 5)
	require.True(t, result.IsHealthy)
	assert.EqualValues(t, 3, attempts.Load())

	attempts.Store(0)
	result = performHealthCheckWithRetries(context.Background(), server.URL, 0)
	assert.False(t, result.IsHealthy)
	assert.EqualValues(t, 1, attempts.Load())
}

func TestDetermineHealthCheckURL(t *testing.T) {
	t.Cleanup(func() { healthcheckURL = "" })

	healthcheckURL = "http://example.com/health"
	assert.Equal(t, "http://example.com/health", determineHealthCheckURL())

	healthcheckURL = ""
	t.Setenv("SERVER_PORT", "9000")
	assert.Equal(t, "http://localhost:9000/health", determineHealthCheckURL())

	t.Setenv("SERVER_PORT", "")
	assert.Equal(t, "http://localhost:8080/health", determineHealthCheckURL())
}
