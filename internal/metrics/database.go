package metrics

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Database metrics
var (
	// DBConnectionsOpen is the total number of open connections to the database
	DBConnectionsOpen = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_connections_open",
			Help:      "Total number of open database connections",
		},
	)

	// DBConnectionsInUse is the number of database connections currently in use
	DBConnectionsInUse = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_connections_in_use",
			Help:      "Number of database connections currently in use (acquired)",
		},
	)

	// DBConnectionsIdle is the number of idle database connections
	DBConnectionsIdle = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_connections_idle",
			Help:      "Number of idle database connections",
		},
	)

	// DBConnectionsMaxOpen is the maximum number of open database connections
	DBConnectionsMaxOpen = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_connections_max_open",
			Help:      "Maximum number of open database connections allowed",
		},
	)

	// DBQueryDuration records database query latency
	DBQueryDuration = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "db_query_duration_seconds",
			Help:      "Database query duration in seconds",
			// Buckets: 1ms, 5ms, 10ms, 25ms, 50ms, 100ms, 250ms, 500ms, 1s, 2.5s, 5s
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	// DBErrors counts database errors by type
	DBErrors = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "db_errors_total",
			Help:      "Total number of database errors",
		},
		[]string{"operation", "error_type"},
	)
)

// DBCollector periodically collects database pool statistics
type DBCollector struct {
	pool     *pgxpool.Pool
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewDBCollector creates a new database metrics collector
func NewDBCollector(pool *pgxpool.Pool) *DBCollector {
	return &DBCollector{
		pool:     pool,
		stopChan: make(chan struct{}),
	}
}

// Start collects pool statistics every interval until ctx is done or Stop is
// called. It blocks.
func (c *DBCollector) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.collect()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Stop stops the metrics collector. Safe to call more than once.
func (c *DBCollector) Stop() {
	c.stopOnce.Do(func() { close(c.stopChan) })
}

func (c *DBCollector) collect() {
	if c.pool == nil {
		return
	}

	stat := c.pool.Stat()
	DBConnectionsOpen.Set(float64(stat.TotalConns()))
	DBConnectionsInUse.Set(float64(stat.AcquiredConns()))
	DBConnectionsIdle.Set(float64(stat.IdleConns()))
	DBConnectionsMaxOpen.Set(float64(stat.MaxConns()))
}

// RecordQuery records latency and failures of a database operation:
//
//	start := time.Now()
//	err := ...
//	metrics.RecordQuery("events_list", start, err)
func RecordQuery(operation string, start time.Time, err error) {
	DBQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())

	if err != nil {
		DBErrors.WithLabelValues(operation, classifyDBError(err)).Inc()
	}
}

func classifyDBError(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, pgx.ErrNoRows):
		return "not_found"
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && len(pgErr.Code) >= 2 {
		switch pgErr.Code[:2] {
		case "23":
			return "constraint"
		case "08":
			return "connection"
		case "40":
			return "transaction"
		}
	}
	return "query_error"
}
