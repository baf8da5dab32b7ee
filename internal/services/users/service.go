package users

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"oversight/internal/domain"
	"oversight/internal/ports"
)

// Service provisions and manages accounts. There is no self-service registration.
type Service struct {
	users       ports.UserRepository
	enterprises ports.EnterpriseRepository
	now         func() time.Time
}

func New(users ports.UserRepository, enterprises ports.EnterpriseRepository) *Service {
	return &Service{users: users, enterprises: enterprises, now: time.Now}
}

var _ ports.Users = (*Service)(nil)

func (s *Service) Create(ctx context.Context, in domain.UserInput) (domain.User, error) {
	name, err := cleanName(in.Name)
	if err != nil {
		return domain.User{}, err
	}
	email, err := cleanEmail(in.Email)
	if err != nil {
		return domain.User{}, err
	}
	if in.Role == "" {
		in.Role = domain.RoleUser
	}
	if !in.Role.Valid() {
		return domain.User{}, domain.Validation("unknown role %q", in.Role)
	}
	if err := s.checkEnterprise(ctx, in.EnterpriseID); err != nil {
		return domain.User{}, err
	}
	return s.users.Create(ctx, domain.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		Role:         in.Role,
		EnterpriseID: in.EnterpriseID,
		Active:       true,
		CreatedAt:    s.now().UTC(),
	})
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (domain.User, error) {
	return s.users.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]domain.User, error) {
	return s.users.List(ctx)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in domain.UserUpdate, actor domain.User) (domain.User, error) {
	admin := actor.Role == domain.RoleAdmin
	if !admin && actor.ID != id {
		return domain.User{}, domain.Forbidden("not allowed to modify this account")
	}
	if !admin && (in.Role != nil || in.EnterpriseID != nil || in.Active != nil) {
		return domain.User{}, domain.Forbidden("only administrators can change role, enterprise or status")
	}
	if actor.ID == id && ((in.Role != nil && *in.Role != actor.Role) || (in.Active != nil && !*in.Active)) {
		return domain.User{}, domain.Validation("cannot demote or deactivate your own account")
	}

	u, err := s.users.Get(ctx, id)
	if err != nil {
		return domain.User{}, err
	}
	if in.Name != nil {
		if u.Name, err = cleanName(*in.Name); err != nil {
			return domain.User{}, err
		}
	}
	if in.Email != nil {
		if u.Email, err = cleanEmail(*in.Email); err != nil {
			return domain.User{}, err
		}
	}
	if in.Role != nil {
		if !in.Role.Valid() {
			return domain.User{}, domain.Validation("unknown role %q", *in.Role)
		}
		u.Role = *in.Role
	}
	if in.EnterpriseID != nil {
		if err := s.checkEnterprise(ctx, in.EnterpriseID); err != nil {
			return domain.User{}, err
		}
		u.EnterpriseID = in.EnterpriseID
	}
	if in.Active != nil {
		u.Active = *in.Active
	}
	return s.users.Update(ctx, u)
}

// Deactivate is the account removal: the record stays so history entries still resolve.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID, actor domain.User) (domain.User, error) {
	if actor.ID == id {
		return domain.User{}, domain.Validation("cannot deactivate your own account")
	}
	u, err := s.users.Get(ctx, id)
	if err != nil {
		return domain.User{}, err
	}
	if !u.Active {
		return u, nil
	}
	u.Active = false
	return s.users.Update(ctx, u)
}

func (s *Service) checkEnterprise(ctx context.Context, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	ok, err := s.enterprises.Exists(ctx, *id)
	if err != nil {
		return fmt.Errorf("check enterprise: %w", err)
	}
	if !ok {
		return domain.NotFound("Enterprise")
	}
	return nil
}

func cleanName(s string) (string, error) {
	name := strings.TrimSpace(s)
	if name == "" {
		return "", domain.Validation("name is required")
	}
	return name, nil
}

func cleanEmail(s string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(s))
	if err != nil {
		return "", domain.Validation("invalid email %q", s)
	}
	return strings.ToLower(addr.Address), nil
}
