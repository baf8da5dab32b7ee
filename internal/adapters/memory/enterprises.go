package memory

import (
	"context"

	"github.com/google/uuid"

	"oversight/internal/domain"
)

type Enterprises struct{ s *Store }

func cloneEnterprise(e domain.Enterprise) domain.Enterprise {
	e.PerformanceEconomique = cloneMap(e.PerformanceEconomique)
	e.InvestissementEmploi = cloneMap(e.InvestissementEmploi)
	e.InnovationDigitalisation = cloneMap(e.InnovationDigitalisation)
	e.Conventions = cloneMap(e.Conventions)
	return e
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		if nested, ok := v.(map[string]any); ok {
			v = cloneMap(nested)
		}
		out[k] = v
	}
	return out
}

func (r *Enterprises) Create(ctx context.Context, e domain.Enterprise) (domain.Enterprise, error) {
	if err := alive(ctx, "create enterprise"); err != nil {
		return domain.Enterprise{}, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.enterprises[e.ID]; ok {
		return domain.Enterprise{}, domain.Conflict("enterprise %s already exists", e.ID)
	}
	r.s.enterprises[e.ID] = cloneEnterprise(e)
	return cloneEnterprise(e), nil
}

func (r *Enterprises) Get(ctx context.Context, id uuid.UUID) (domain.Enterprise, error) {
	if err := alive(ctx, "get enterprise"); err != nil {
		return domain.Enterprise{}, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	e, ok := r.s.enterprises[id]
	if !ok {
		return domain.Enterprise{}, domain.NotFound("Enterprise")
	}
	return cloneEnterprise(e), nil
}

func (r *Enterprises) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	if err := alive(ctx, "check enterprise"); err != nil {
		return false, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	_, ok := r.s.enterprises[id]
	return ok, nil
}

func (r *Enterprises) Update(ctx context.Context, e domain.Enterprise) (domain.Enterprise, error) {
	if err := alive(ctx, "update enterprise"); err != nil {
		return domain.Enterprise{}, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.enterprises[e.ID]; !ok {
		return domain.Enterprise{}, domain.NotFound("Enterprise")
	}
	r.s.enterprises[e.ID] = cloneEnterprise(e)
	return cloneEnterprise(e), nil
}

func (r *Enterprises) Delete(ctx context.Context, id uuid.UUID) error {
	if err := alive(ctx, "delete enterprise"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.enterprises[id]; !ok {
		return domain.NotFound("Enterprise")
	}
	delete(r.s.enterprises, id)
	return nil
}

func (r *Enterprises) List(ctx context.Context) ([]domain.Enterprise, error) {
	if err := alive(ctx, "list enterprises"); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := sortedValues(r.s.enterprises, nil,
		func(a, b domain.Enterprise) bool { return a.CreatedAt.Before(b.CreatedAt) })
	for i := range out {
		out[i] = cloneEnterprise(out[i])
	}
	return out, nil
}
