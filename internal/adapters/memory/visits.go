package memory

import (
	"context"

	"github.com/google/uuid"

	"oversight/internal/domain"
)

type Visits struct{ s *Store }

func cloneVisit(v domain.Visit) domain.Visit {
	if v.InspectorID != nil {
		id := *v.InspectorID
		v.InspectorID = &id
	}
	if v.Report != nil {
		rep := *v.Report
		v.Report = &rep
	}
	return v
}

func (r *Visits) Create(ctx context.Context, v domain.Visit) (domain.Visit, error) {
	if err := alive(ctx, "create visit"); err != nil {
		return domain.Visit{}, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.visits[v.ID] = cloneVisit(v)
	return cloneVisit(v), nil
}

func (r *Visits) Get(ctx context.Context, id uuid.UUID) (domain.Visit, error) {
	if err := alive(ctx, "get visit"); err != nil {
		return domain.Visit{}, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	v, ok := r.s.visits[id]
	if !ok {
		return domain.Visit{}, domain.NotFound("Visit")
	}
	return cloneVisit(v), nil
}

func (r *Visits) Update(ctx context.Context, v domain.Visit) (domain.Visit, error) {
	if err := alive(ctx, "update visit"); err != nil {
		return domain.Visit{}, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.visits[v.ID]; !ok {
		return domain.Visit{}, domain.NotFound("Visit")
	}
	r.s.visits[v.ID] = cloneVisit(v)
	return cloneVisit(v), nil
}

func (r *Visits) ListByEnterprise(ctx context.Context, enterpriseID uuid.UUID) ([]domain.Visit, error) {
	return r.list(ctx, func(v domain.Visit) bool { return v.EnterpriseID == enterpriseID })
}

func (r *Visits) ListByInspector(ctx context.Context, inspectorID uuid.UUID) ([]domain.Visit, error) {
	return r.list(ctx, func(v domain.Visit) bool { return v.InspectorID != nil && *v.InspectorID == inspectorID })
}

func (r *Visits) list(ctx context.Context, keep func(domain.Visit) bool) ([]domain.Visit, error) {
	if err := alive(ctx, "list visits"); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := sortedValues(r.s.visits, keep,
		func(a, b domain.Visit) bool { return a.ScheduledAt.Before(b.ScheduledAt) })
	for i := range out {
		out[i] = cloneVisit(out[i])
	}
	return out, nil
}

func (r *Visits) Count(ctx context.Context) (int, error) {
	if err := alive(ctx, "count visits"); err != nil {
		return 0, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.visits), nil
}
