package events

import "context"

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]Event, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []Event{}
	}
	return items, nil
}

// Create persists a new event. The store assigns an id when the event has none.
func (s *Service) Create(ctx context.Context, event Event) (*Event, error) {
	return s.repo.Create(ctx, event)
}

func (s *Service) GetByID(ctx context.Context, id int64) (*Event, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
