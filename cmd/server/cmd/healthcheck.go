package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/spf13/cobra"
)

var (
	healthcheckTimeout int
	healthcheckRetries int
	healthcheckURL     string
)

func newHealthcheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "healthcheck",
		Short: "Check if the server is healthy",
		Long: `Performs a health check by calling the /health endpoint.

This command is used by Docker HEALTHCHECK to monitor container health.
It exits with code 0 if the server is healthy, non-zero otherwise.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			result := performHealthCheckWithRetries(cmd.Context(), determineHealthCheckURL(), healthcheckRetries)
			out, _ := json.Marshal(result)
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			if !result.IsHealthy {
				if result.Error != "" {
					return fmt.Errorf("unhealthy: %s", result.Error)
				}
				return fmt.Errorf("unhealthy: status=%s", result.Status)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&healthcheckTimeout, "timeout", 5, "timeout in seconds")
	cmd.Flags().IntVar(&healthcheckRetries, "retries", 0, "extra attempts before giving up")
	cmd.Flags().StringVar(&healthcheckURL, "url", "", "health check URL (default: http://localhost:{SERVER_PORT}/health)")
	return cmd
}

// HealthResponse matches the body served by the /health handler.
type HealthResponse struct {
	Status string                 `json:"status"`
	Checks map[string]CheckResult `json:"checks,omitempty"`
}

type CheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HealthCheckResult is what the command prints.
type HealthCheckResult struct {
	URL       string                 `json:"url"`
	Status    string                 `json:"status,omitempty"`
	IsHealthy bool                   `json:"healthy"`
	LatencyMs int64                  `json:"latency_ms"`
	Error     string                 `json:"error,omitempty"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

func determineHealthCheckURL() string {
	if healthcheckURL != "" {
		return healthcheckURL
	}
	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}
	return fmt.Sprintf("http://localhost:%s/health", port)
}

func performHealthCheck(ctx context.Context, url string) HealthCheckResult {
	result := HealthCheckResult{URL: url}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(healthcheckTimeout)*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		result.Error = fmt.Sprintf("create request: %v", err)
		return result
	}

	start := time.Now()
	resp, err := http.DefaultClient.Do(req)
	result.LatencyMs = time.Since(start).Milliseconds()
	if err != nil {
		result.Error = err.Error()
		return result
	}
	defer func() { _ = resp.Body.Close() }()

	var body HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		result.Error = fmt.Sprintf("invalid response: %v", err)
		return result
	}

	result.Status = body.Status
	result.Checks = body.Checks
	result.IsHealthy = resp.StatusCode == http.StatusOK && body.Status == "healthy"
	return result
}

// performHealthCheckWithRetries retries unhealthy results with exponential
// backoff, up to retries extra attempts.
func performHealthCheckWithRetries(ctx context.Context, url string, retries int) HealthCheckResult {
	if ctx == nil {
		ctx = context.Background()
	}

	var result HealthCheckResult
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 200 * time.Millisecond
	policy.MaxInterval = 2 * time.Second

	_ = backoff.Retry(func() error {
		result = performHealthCheck(ctx, url)
		if result.IsHealthy {
			return nil
		}
		return fmt.Errorf("unhealthy")
	}, backoff.WithContext(backoff.WithMaxRetries(policy, uint64(max(retries, 0))), ctx))
	return result
}
