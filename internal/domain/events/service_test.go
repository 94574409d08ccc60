package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubRepository struct {
	listFn   func() ([]Event, error)
	createFn func(event Event) (*Event, error)
	getFn    func(id int64) (*Event, error)
	deleteFn func(id int64) error
}

func (s stubRepository) List(_ context.Context) ([]Event, error) {
	return s.listFn()
}

func (s stubRepository) Create(_ context.Context, event Event) (*Event, error) {
	return s.createFn(event)
}

func (s stubRepository) GetByID(_ context.Context, id int64) (*Event, error) {
	return s.getFn(id)
}

func (s stubRepository) Delete(_ context.Context, id int64) error {
	return s.deleteFn(id)
}

func TestServiceListNeverReturnsNil(t *testing.T) {
	svc := NewService(stubRepository{
		listFn: func() ([]Event, error) { return nil, nil },
	})

	items, err := svc.List(context.Background())
	require.NoError(t, err)
	require.NotNil(t, items)
	require.Empty(t, items)
}

func TestServiceListPropagatesError(t *testing.T) {
	boom := errors.New("boom")
	svc := NewService(stubRepository{
		listFn: func() ([]Event, error) { return nil, boom },
	})

	_, err := svc.List(context.Background())
	require.ErrorIs(t, err, boom)
}

func TestServiceCreatePassesEventThrough(t *testing.T) {
	svc := NewService(stubRepository{
		createFn: func(event Event) (*Event, error) {
			require.False(t, event.HasID())
			require.JSONEq(t, `"Conference"`, string(event.Fields["name"]))
			event.ID = 42
			return &event, nil
		},
	})

	created, err := svc.Create(context.Background(), Event{
		Fields: map[string]json.RawMessage{"name": json.RawMessage(`"Conference"`)},
	})
	require.NoError(t, err)
	require.Equal(t, int64(42), created.ID)
}

func TestServiceCreateConflict(t *testing.T) {
	svc := NewService(stubRepository{
		createFn: func(_ Event) (*Event, error) { return nil, ErrConflict },
	})

	_, err := svc.Create(context.Background(), Event{ID: 1})
	require.ErrorIs(t, err, ErrConflict)
}

func TestServiceGetAndDelete(t *testing.T) {
	svc := NewService(stubRepository{
		getFn: func(id int64) (*Event, error) {
			if id == 5 {
				return &Event{ID: 5}, nil
			}
			return nil, ErrNotFound
		},
		deleteFn: func(id int64) error {
			if id == 5 {
				return nil
			}
			return ErrNotFound
		},
	})

	item, err := svc.GetByID(context.Background(), 5)
	require.NoError(t, err)
	require.Equal(t, int64(5), item.ID)

	_, err = svc.GetByID(context.Background(), 6)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, svc.Delete(context.Background(), 5))
	require.ErrorIs(t, svc.Delete(context.Background(), 6), ErrNotFound)
}
