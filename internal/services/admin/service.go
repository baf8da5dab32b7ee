package admin

import (
	"context"
	"fmt"

	"oversight/internal/domain"
	"oversight/internal/ports"
)

const (
	DefaultActivityLimit = 100
	MaxActivityLimit     = 500
)

type Service struct {
	store ports.Store
}

func New(store ports.Store) *Service { return &Service{store: store} }

var _ ports.Admin = (*Service)(nil)

func (s *Service) Dashboard(ctx context.Context) (domain.Dashboard, error) {
	var (
		out domain.Dashboard
		err error
	)
	if out.Users, err = s.store.Users.Count(ctx); err != nil {
		return domain.Dashboard{}, fmt.Errorf("count users: %w", err)
	}
	if out.Visits, err = s.store.Visits.Count(ctx); err != nil {
		return domain.Dashboard{}, fmt.Errorf("count visits: %w", err)
	}
	if out.Documents, err = s.store.Documents.Count(ctx); err != nil {
		return domain.Dashboard{}, fmt.Errorf("count documents: %w", err)
	}
	return out, nil
}

// Activity returns the latest convention history entries across all conventions.
// Non-positive limits fall back to the default; larger ones are capped.
func (s *Service) Activity(ctx context.Context, limit int) ([]domain.ActivityEntry, error) {
	if limit <= 0 {
		limit = DefaultActivityLimit
	}
	if limit > MaxActivityLimit {
		limit = MaxActivityLimit
	}
	return s.store.Conventions.RecentHistory(ctx, limit)
}
