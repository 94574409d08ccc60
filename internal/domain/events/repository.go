package events

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no event exists for the requested id.
var ErrNotFound = errors.New("event not found")

// ErrConflict is returned when a write violates a store integrity constraint
// (duplicate id, foreign key, check constraint).
var ErrConflict = errors.New("event conflict")

// ErrInvalidInput marks a request the store was never asked to handle because
// the id or body could not be parsed.
var ErrInvalidInput = errors.New("invalid event input")

// Repository is the persistence contract for events. Implementations must
// report missing rows as ErrNotFound and constraint violations as ErrConflict
// so callers can tell them apart with errors.Is.
type Repository interface {
	List(ctx context.Context) ([]Event, error)
	Create(ctx context.Context, event Event) (*Event, error)
	GetByID(ctx context.Context, id int64) (*Event, error)
	Delete(ctx context.Context, id int64) error
}
