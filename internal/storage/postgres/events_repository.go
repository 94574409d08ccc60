package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Togather-Foundation/events-api/internal/domain/events"
	"github.com/Togather-Foundation/events-api/internal/metrics"
	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ events.Repository = (*EventRepository)(nil)

const (
	listEventsSQL = `
SELECT id, attributes
  FROM events
 ORDER BY id`

	getEventSQL = `
SELECT id, attributes
  FROM events
 WHERE id = $1`

	insertEventSQL = `
INSERT INTO events (attributes)
VALUES ($1::jsonb)
RETURNING id, attributes`

	// A supplied id is only accepted inside the range the identity sequence
	// has already handed out, so generated ids can never run into it and the
	// sequence itself is never touched.
	insertEventWithIDSQL = `
INSERT INTO events (id, attributes)
SELECT $1::bigint, $2::jsonb
 WHERE $1::bigint <= (SELECT CASE WHEN is_called THEN last_value ELSE 0 END FROM events_id_seq)
RETURNING id, attributes`

	deleteEventSQL = `DELETE FROM events WHERE id = $1`
)

// EventRepository stores events as a JSONB attribute document keyed by a
// bigint identity column.
type EventRepository struct {
	pool  *pgxpool.Pool
	retry func() backoff.BackOff
}

// errIDNotIssued marks a supplied id the identity sequence has not reached.
var errIDNotIssued = errors.New("id has not been issued by the store")

func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{pool: pool, retry: defaultReadBackOff}
}

// defaultReadBackOff bounds retries of read queries to a few short attempts so
// a request never stalls long on a flapping connection.
func defaultReadBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxInterval = 500 * time.Millisecond
	b.MaxElapsedTime = 2 * time.Second
	return backoff.WithMaxRetries(b, 3)
}

func (r *EventRepository) List(ctx context.Context) ([]events.Event, error) {
	start := time.Now()
	var items []events.Event
	err := r.withReadRetry(ctx, func() error {
		rows, err := r.pool.Query(ctx, listEventsSQL)
		if err != nil {
			return err
		}
		defer rows.Close()

		collected := make([]events.Event, 0)
		for rows.Next() {
			item, err := scanEvent(rows)
			if err != nil {
				return err
			}
			collected = append(collected, *item)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		items = collected
		return nil
	})
	metrics.RecordQuery("events_list", start, err)
	if err != nil {
		return nil, translateError("list events", err)
	}
	return items, nil
}

func (r *EventRepository) GetByID(ctx context.Context, id int64) (*events.Event, error) {
	start := time.Now()
	var item *events.Event
	err := r.withReadRetry(ctx, func() error {
		found, err := scanEvent(r.pool.QueryRow(ctx, getEventSQL, id))
		if err != nil {
			return err
		}
		item = found
		return nil
	})
	metrics.RecordQuery("events_get", start, err)
	if err != nil {
		return nil, translateError("get event", err)
	}
	return item, nil
}

func (r *EventRepository) Create(ctx context.Context, event events.Event) (*events.Event, error) {
	attrs, err := event.Attributes()
	if err != nil {
		return nil, fmt.Errorf("encode event attributes: %w", err)
	}

	start := time.Now()
	var created *events.Event
	if !event.HasID() {
		created, err = scanEvent(r.pool.QueryRow(ctx, insertEventSQL, attrs))
	} else {
		created, err = scanEvent(r.pool.QueryRow(ctx, insertEventWithIDSQL, event.ID, attrs))
		if errors.Is(err, pgx.ErrNoRows) {
			err = fmt.Errorf("event %d: %w: %w", event.ID, events.ErrConflict, errIDNotIssued)
		}
	}
	metrics.RecordQuery("events_create", start, err)
	if err != nil {
		return nil, translateError("create event", err)
	}
	return created, nil
}

func (r *EventRepository) Delete(ctx context.Context, id int64) error {
	start := time.Now()
	tag, err := r.pool.Exec(ctx, deleteEventSQL, id)
	if err == nil && tag.RowsAffected() == 0 {
		err = pgx.ErrNoRows
	}
	metrics.RecordQuery("events_delete", start, err)
	return translateError("delete event", err)
}

// withReadRetry runs fn until it succeeds, fails with a non-transient error,
// or the backoff policy or ctx gives up.
func (r *EventRepository) withReadRetry(ctx context.Context, fn func() error) error {
	policy := r.retry
	if policy == nil {
		policy = defaultReadBackOff
	}
	return backoff.Retry(func() error {
		err := fn()
		if err != nil && !isTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(policy(), ctx))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*events.Event, error) {
	var (
		id    int64
		attrs []byte
	)
	if err := row.Scan(&id, &attrs); err != nil {
		return nil, err
	}
	item := &events.Event{ID: id}
	if err := item.SetAttributes(attrs); err != nil {
		return nil, fmt.Errorf("decode attributes of event %d: %w", id, err)
	}
	return item, nil
}
