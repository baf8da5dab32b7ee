package enterprises

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"oversight/internal/domain"
	"oversight/internal/ports"
)

type Service struct {
	repo ports.EnterpriseRepository
	log  logrus.FieldLogger
	now  func() time.Time
}

func New(repo ports.EnterpriseRepository, log logrus.FieldLogger, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{repo: repo, log: log.WithField("component", "enterprises"), now: now}
}

var _ ports.Enterprises = (*Service)(nil)

func (s *Service) Get(ctx context.Context, id uuid.UUID) (domain.Enterprise, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, body map[string]json.RawMessage) (domain.Enterprise, error) {
	e, err := domain.NewEnterprise(uuid.New(), body, s.now())
	if err != nil {
		return domain.Enterprise{}, err
	}
	stored, err := s.repo.Create(ctx, e)
	if err != nil {
		return domain.Enterprise{}, fmt.Errorf("create enterprise: %w", err)
	}
	s.log.WithFields(logrus.Fields{"enterprise": stored.ID, "domain": stored.Contact.Domain}).Info("enterprise created")
	return stored, nil
}

// Update applies the provided fields as dotted paths; nested keys not in body are kept.
func (s *Service) Update(ctx context.Context, id uuid.UUID, body map[string]json.RawMessage) (domain.Enterprise, error) {
	update, err := domain.BuildEnterpriseUpdate(body)
	if err != nil {
		return domain.Enterprise{}, err
	}
	e, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Enterprise{}, err
	}
	if err := e.Apply(update, s.now()); err != nil {
		return domain.Enterprise{}, err
	}
	stored, err := s.repo.Update(ctx, e)
	if err != nil {
		return domain.Enterprise{}, fmt.Errorf("update enterprise %s: %w", id, err)
	}
	s.log.WithFields(logrus.Fields{"enterprise": id, "paths": update.Paths()}).Debug("enterprise updated")
	return stored, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.WithField("enterprise", id).Info("enterprise deleted")
	return nil
}
