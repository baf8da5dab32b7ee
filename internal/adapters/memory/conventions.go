package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"oversight/internal/domain"
)

type Conventions struct{ s *Store }

func cloneConvention(c domain.Convention) domain.Convention {
	c.Documents = append([]uuid.UUID{}, c.Documents...)
	c.Indicators = append([]uuid.UUID{}, c.Indicators...)
	c.History = append([]domain.HistoryEntry{}, c.History...)
	return c
}

func (r *Conventions) Create(ctx context.Context, c domain.Convention) (domain.Convention, error) {
	if err := alive(ctx, "create convention"); err != nil {
		return domain.Convention{}, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.conventions[c.ID]; ok {
		return domain.Convention{}, domain.Conflict("convention %s already exists", c.ID)
	}
	c.Version = 1
	r.s.conventions[c.ID] = cloneConvention(c)
	return cloneConvention(c), nil
}

func (r *Conventions) Get(ctx context.Context, id uuid.UUID) (domain.Convention, error) {
	if err := alive(ctx, "get convention"); err != nil {
		return domain.Convention{}, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.conventions[id]
	if !ok {
		return domain.Convention{}, domain.NotFound("Convention")
	}
	return cloneConvention(c), nil
}

// Update keeps the stored history and appends entry to it, so callers cannot rewrite past entries.
func (r *Conventions) Update(ctx context.Context, c domain.Convention, entry domain.HistoryEntry, expectedVersion int64) (domain.Convention, error) {
	if err := alive(ctx, "update convention"); err != nil {
		return domain.Convention{}, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.conventions[c.ID]
	if !ok {
		return domain.Convention{}, domain.NotFound("Convention")
	}
	if stored.Version != expectedVersion {
		return domain.Convention{}, domain.Conflict("convention %s was modified concurrently (version %d, expected %d)", c.ID, stored.Version, expectedVersion)
	}
	next := cloneConvention(c)
	next.History = append(append([]domain.HistoryEntry{}, stored.History...), entry)
	next.CreatedAt = stored.CreatedAt
	next.Metadata.CreatedBy = stored.Metadata.CreatedBy
	next.Metadata.LastModifiedBy = entry.UserID
	next.Version = stored.Version + 1
	next.UpdatedAt = entry.Timestamp
	r.s.conventions[c.ID] = next
	return cloneConvention(next), nil
}

func (r *Conventions) ListByEnterprise(ctx context.Context, enterpriseID uuid.UUID) ([]domain.Convention, error) {
	if err := alive(ctx, "list conventions"); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := sortedValues(r.s.conventions,
		func(c domain.Convention) bool { return c.EnterpriseID == enterpriseID },
		func(a, b domain.Convention) bool { return a.CreatedAt.After(b.CreatedAt) })
	for i := range out {
		out[i] = cloneConvention(out[i])
	}
	return out, nil
}

func (r *Conventions) ListActive(ctx context.Context, enterpriseID uuid.UUID, asOf time.Time) ([]domain.Convention, error) {
	if err := alive(ctx, "list active conventions"); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := sortedValues(r.s.conventions,
		func(c domain.Convention) bool { return c.EnterpriseID == enterpriseID && c.IsActiveAt(asOf) },
		func(a, b domain.Convention) bool { return a.EndDate.Before(b.EndDate) })
	for i := range out {
		out[i] = cloneConvention(out[i])
	}
	return out, nil
}

func (r *Conventions) List(ctx context.Context) ([]domain.Convention, error) {
	if err := alive(ctx, "list conventions"); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := sortedValues(r.s.conventions, nil,
		func(a, b domain.Convention) bool { return a.CreatedAt.Before(b.CreatedAt) })
	for i := range out {
		out[i] = cloneConvention(out[i])
	}
	return out, nil
}

// ListExpired returns ACTIVE conventions whose end date is before asOf's day.
func (r *Conventions) ListExpired(ctx context.Context, asOf time.Time, limit int) ([]uuid.UUID, error) {
	if err := alive(ctx, "list expired conventions"); err != nil {
		return nil, err
	}
	today := domain.DateOf(asOf)
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	expired := sortedValues(r.s.conventions,
		func(c domain.Convention) bool { return c.Status == domain.StatusActive && c.EndDate.Before(today) },
		func(a, b domain.Convention) bool { return a.EndDate.Before(b.EndDate) })
	if limit > 0 && len(expired) > limit {
		expired = expired[:limit]
	}
	ids := make([]uuid.UUID, len(expired))
	for i, c := range expired {
		ids[i] = c.ID
	}
	return ids, nil
}

func (r *Conventions) RecentHistory(ctx context.Context, limit int) ([]domain.ActivityEntry, error) {
	if err := alive(ctx, "recent history"); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	var out []domain.ActivityEntry
	for _, c := range r.s.conventions {
		for _, h := range c.History {
			out = append(out, domain.ActivityEntry{ConventionID: c.ID, EnterpriseID: c.EnterpriseID, Entry: h})
		}
	}
	r.s.mu.RUnlock()

	sortActivity(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func sortActivity(entries []domain.ActivityEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.Entry.Timestamp.Equal(b.Entry.Timestamp) {
			return a.Entry.Timestamp.After(b.Entry.Timestamp)
		}
		return a.ConventionID.String() < b.ConventionID.String()
	})
}
