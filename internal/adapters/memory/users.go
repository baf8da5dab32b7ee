package memory

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"oversight/internal/domain"
)

type Users struct{ s *Store }

func cloneUser(u domain.User) domain.User {
	if u.EnterpriseID != nil {
		id := *u.EnterpriseID
		u.EnterpriseID = &id
	}
	return u
}

func (r *Users) Create(ctx context.Context, u domain.User) (domain.User, error) {
	if err := alive(ctx, "create user"); err != nil {
		return domain.User{}, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return domain.User{}, domain.Conflict("email %s is already registered", u.Email)
		}
	}
	r.s.users[u.ID] = cloneUser(u)
	return cloneUser(u), nil
}

func (r *Users) Get(ctx context.Context, id uuid.UUID) (domain.User, error) {
	if err := alive(ctx, "get user"); err != nil {
		return domain.User{}, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return domain.User{}, domain.NotFound("User")
	}
	return cloneUser(u), nil
}

func (r *Users) GetMany(ctx context.Context, ids []uuid.UUID) ([]domain.User, error) {
	if err := alive(ctx, "get users"); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return pick(r.s.users, ids, cloneUser), nil
}

func (r *Users) Update(ctx context.Context, u domain.User) (domain.User, error) {
	if err := alive(ctx, "update user"); err != nil {
		return domain.User{}, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[u.ID]; !ok {
		return domain.User{}, domain.NotFound("User")
	}
	for id, existing := range r.s.users {
		if id != u.ID && strings.EqualFold(existing.Email, u.Email) {
			return domain.User{}, domain.Conflict("email %s is already registered", u.Email)
		}
	}
	r.s.users[u.ID] = cloneUser(u)
	return cloneUser(u), nil
}

func (r *Users) List(ctx context.Context) ([]domain.User, error) {
	if err := alive(ctx, "list users"); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := sortedValues(r.s.users, nil, func(a, b domain.User) bool { return a.CreatedAt.Before(b.CreatedAt) })
	for i := range out {
		out[i] = cloneUser(out[i])
	}
	return out, nil
}

func (r *Users) Count(ctx context.Context) (int, error) {
	if err := alive(ctx, "count users"); err != nil {
		return 0, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.users), nil
}
