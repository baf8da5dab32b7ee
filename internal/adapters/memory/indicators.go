package memory

import (
	"context"

	"github.com/google/uuid"

	"oversight/internal/domain"
)

type Indicators struct{ s *Store }

func cloneIndicator(i domain.Indicator) domain.Indicator {
	i.Submissions = append([]domain.Submission{}, i.Submissions...)
	if i.ConventionID != nil {
		id := *i.ConventionID
		i.ConventionID = &id
	}
	return i
}

func (r *Indicators) Create(ctx context.Context, i domain.Indicator) (domain.Indicator, error) {
	if err := alive(ctx, "create indicator"); err != nil {
		return domain.Indicator{}, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.indicators[i.ID] = cloneIndicator(i)
	return cloneIndicator(i), nil
}

func (r *Indicators) Get(ctx context.Context, id uuid.UUID) (domain.Indicator, error) {
	if err := alive(ctx, "get indicator"); err != nil {
		return domain.Indicator{}, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	i, ok := r.s.indicators[id]
	if !ok {
		return domain.Indicator{}, domain.NotFound("Indicator")
	}
	return cloneIndicator(i), nil
}

func (r *Indicators) GetMany(ctx context.Context, ids []uuid.UUID) ([]domain.Indicator, error) {
	if err := alive(ctx, "get indicators"); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return pick(r.s.indicators, ids, cloneIndicator), nil
}

func (r *Indicators) Update(ctx context.Context, i domain.Indicator) (domain.Indicator, error) {
	if err := alive(ctx, "update indicator"); err != nil {
		return domain.Indicator{}, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.indicators[i.ID]; !ok {
		return domain.Indicator{}, domain.NotFound("Indicator")
	}
	r.s.indicators[i.ID] = cloneIndicator(i)
	return cloneIndicator(i), nil
}

func (r *Indicators) Delete(ctx context.Context, id uuid.UUID) error {
	if err := alive(ctx, "delete indicator"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.indicators[id]; !ok {
		return domain.NotFound("Indicator")
	}
	delete(r.s.indicators, id)
	return nil
}

func (r *Indicators) ListByEnterprise(ctx context.Context, enterpriseID uuid.UUID) ([]domain.Indicator, error) {
	if err := alive(ctx, "list indicators"); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := sortedValues(r.s.indicators,
		func(i domain.Indicator) bool { return i.EnterpriseID == enterpriseID },
		func(a, b domain.Indicator) bool { return a.CreatedAt.Before(b.CreatedAt) })
	for i := range out {
		out[i] = cloneIndicator(out[i])
	}
	return out, nil
}

func (r *Indicators) List(ctx context.Context) ([]domain.Indicator, error) {
	if err := alive(ctx, "list indicators"); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := sortedValues(r.s.indicators, nil,
		func(a, b domain.Indicator) bool { return a.CreatedAt.Before(b.CreatedAt) })
	for i := range out {
		out[i] = cloneIndicator(out[i])
	}
	return out, nil
}
