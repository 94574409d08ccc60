package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Togather-Foundation/events-api/internal/metrics"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	checkPass = "pass"
	checkWarn = "warn"
	checkFail = "fail"
)

// HealthCheck represents the health status of the server
type HealthCheck struct {
	Status    string                 `json:"status"`
	Version   string                 `json:"version"`
	GitCommit string                 `json:"git_commit"`
	Checks    map[string]CheckResult `json:"checks"`
	Timestamp string                 `json:"timestamp"`
}

// CheckResult represents the result of a single health check
type CheckResult struct {
	Status    string         `json:"status"`
	Message   string         `json:"message,omitempty"`
	LatencyMs int64          `json:"latency_ms"`
	Details   map[string]any `json:"details,omitempty"`
}

// HealthDB is the slice of the connection pool the health checks need.
type HealthDB interface {
	Ping(ctx context.Context) error
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// HealthChecker reports database and schema state for /health and /readyz.
type HealthChecker struct {
	db        HealthDB
	version   string
	gitCommit string
}

func NewHealthChecker(db HealthDB, version, gitCommit string) *HealthChecker {
	return &HealthChecker{db: db, version: version, gitCommit: gitCommit}
}

// Health returns the detailed health handler. Any failing check turns the
// response into a 503.
func (h *HealthChecker) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Context().Err() != nil {
			respondHealth(w, http.StatusServiceUnavailable, "shutting_down")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		checks := map[string]CheckResult{
			"database":   h.checkDatabase(ctx),
			"migrations": h.checkMigrations(ctx),
		}

		overallStatus := "healthy"
		statusCode := http.StatusOK
		for name, check := range checks {
			metrics.HealthCheckStatus.WithLabelValues(name).Set(checkStatusValue(check.Status))
			metrics.HealthCheckLatency.WithLabelValues(name).Set(float64(check.LatencyMs))

			switch check.Status {
			case checkFail:
				overallStatus = "unhealthy"
				statusCode = http.StatusServiceUnavailable
			case checkWarn:
				if overallStatus == "healthy" {
					overallStatus = "degraded"
				}
			}
		}
		metrics.HealthStatus.Set(overallStatusValue(overallStatus))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		_ = json.NewEncoder(w).Encode(HealthCheck{
			Status:    overallStatus,
			Version:   h.version,
			GitCommit: h.gitCommit,
			Checks:    checks,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// Readyz answers 200 once the database responds to a ping.
func (h *HealthChecker) Readyz() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h == nil || h.db == nil {
			respondHealth(w, http.StatusServiceUnavailable, "not_ready")
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := h.db.Ping(ctx); err != nil {
			respondHealth(w, http.StatusServiceUnavailable, "not_ready")
			return
		}
		respondHealth(w, http.StatusOK, "ready")
	})
}

func (h *HealthChecker) checkDatabase(ctx context.Context) CheckResult {
	if h.db == nil {
		return CheckResult{Status: checkFail, Message: "Database pool not initialized"}
	}

	start := time.Now()
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := h.db.Ping(pingCtx); err != nil {
		return CheckResult{
			Status:    checkFail,
			Message:   "Database ping failed",
			LatencyMs: time.Since(start).Milliseconds(),
			Details:   map[string]any{"error": err.Error()},
		}
	}

	latency := time.Since(start).Milliseconds()
	status := checkPass
	message := "PostgreSQL connection successful"
	if latency > 500 {
		status = checkWarn
		message = "PostgreSQL responding slowly"
	}
	return CheckResult{Status: status, Message: message, LatencyMs: latency}
}

// checkMigrations reads the golang-migrate bookkeeping table. A dirty schema
// fails the check.
func (h *HealthChecker) checkMigrations(ctx context.Context) CheckResult {
	if h.db == nil {
		return CheckResult{Status: checkFail, Message: "Database pool not initialized"}
	}

	start := time.Now()
	migCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	var (
		version int64
		dirty   bool
	)
	err := h.db.QueryRow(migCtx, `SELECT version, dirty FROM schema_migrations ORDER BY version DESC LIMIT 1`).Scan(&version, &dirty)
	latency := time.Since(start).Milliseconds()

	if err != nil {
		message := "Failed to query migration version"
		var pgErr *pgconn.PgError
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			message = "No migrations applied"
		case errors.As(err, &pgErr) && pgErr.Code == "42P01":
			message = "Migrations table not found"
		}
		return CheckResult{
			Status:    checkFail,
			Message:   message,
			LatencyMs: latency,
			Details:   map[string]any{"error": err.Error()},
		}
	}

	if dirty {
		return CheckResult{
			Status:    checkFail,
			Message:   "Database in dirty migration state - manual intervention required",
			LatencyMs: latency,
			Details:   map[string]any{"version": version, "dirty": true},
		}
	}

	return CheckResult{
		Status:    checkPass,
		Message:   fmt.Sprintf("Migrations applied successfully (version %d)", version),
		LatencyMs: latency,
		Details:   map[string]any{"version": version, "dirty": false},
	}
}

func checkStatusValue(status string) float64 {
	switch status {
	case checkPass:
		return 2
	case checkWarn:
		return 1
	default:
		return 0
	}
}

func overallStatusValue(status string) float64 {
	switch status {
	case "healthy":
		return 2
	case "degraded":
		return 1
	default:
		return 0
	}
}

// Healthz returns a lightweight liveness response
func Healthz() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondHealth(w, http.StatusOK, "ok")
	})
}

type healthResponse struct {
	Status string `json:"status"`
}

func respondHealth(w http.ResponseWriter, status int, value string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(healthResponse{Status: value})
}
