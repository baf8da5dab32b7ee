// Package conventions implements the convention lifecycle: creation, field
// updates, status changes and reference tracking, each recorded in the
// convention's audit history.
package conventions

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
	conventions ports.ConventionRepository
	enterprises ports.EnterpriseRepository
	documents   ports.DocumentRepository
	indicators  ports.IndicatorRepository
	users       ports.UserRepository
	notifier    ports.Notifier
	log         logrus.FieldLogger
	now         func() time.Time
}

type Option func(*Service)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func WithNotifier(n ports.Notifier) Option { return func(s *Service) { s.notifier = n } }

func WithLogger(l logrus.FieldLogger) Option { return func(s *Service) { s.log = l } }

func New(store ports.Store, opts ...Option) *Service {
	s := &Service{
		conventions: store.Conventions,
		enterprises: store.Enterprises,
		documents:   store.Documents,
		indicators:  store.Indicators,
		users:       store.Users,
		notifier:    ports.NopNotifier{},
		log:         logrus.StandardLogger(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithField("component", "conventions")
	return s
}

var _ ports.Conventions = (*Service)(nil)

func (s *Service) Create(ctx context.Context, in domain.ConventionInput, actor uuid.UUID) (domain.Convention, error) {
	c, err := domain.NewConvention(uuid.New(), in, actor, s.now())
	if err != nil {
		return domain.Convention{}, err
	}
	if err := s.requireEnterprise(ctx, c.EnterpriseID); err != nil {
		return domain.Convention{}, err
	}
	stored, err := s.conventions.Create(ctx, c)
	if err != nil {
		return domain.Convention{}, fmt.Errorf("create convention: %w", err)
	}
	s.log.WithFields(logrus.Fields{"convention": stored.ID, "enterprise": stored.EnterpriseID, "actor": actor}).Info("convention created")
	s.publish(ctx, "convention.created", stored, nil)
	return stored, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (domain.Convention, error) {
	return s.conventions.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, fields map[string]json.RawMessage, actor uuid.UUID, expectedVersion int64) (domain.Convention, error) {
	c, err := s.mutate(ctx, id, actor, expectedVersion, func(c *domain.Convention) (domain.Changes, error) {
		changes, err := c.ApplyUpdate(fields)
		if err != nil {
			return nil, err
		}
		if _, moved := changes.Fields["enterpriseId"]; moved {
			if err := s.requireEnterprise(ctx, c.EnterpriseID); err != nil {
				return nil, err
			}
		}
		return changes, nil
	})
	if err != nil {
		return domain.Convention{}, err
	}
	s.publish(ctx, "convention.updated", c, nil)
	return c, nil
}

// UpdateStatus records a STATUS_CHANGED entry even when the status does not change.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.Status, actor uuid.UUID, expectedVersion int64) (domain.Convention, error) {
	if !status.Valid() {
		return domain.Convention{}, domain.Validation("unknown status %q", status)
	}
	var from domain.Status
	c, err := s.mutate(ctx, id, actor, expectedVersion, func(c *domain.Convention) (domain.Changes, error) {
		from = c.Status
		c.Status = status
		return domain.StatusChange{From: from, To: status}, nil
	})
	if err != nil {
		return domain.Convention{}, err
	}
	s.publish(ctx, "convention.status_changed", c, map[string]any{"from": from, "to": status})
	return c, nil
}

// AddDocument appends a document reference. The document itself is not looked up.
func (s *Service) AddDocument(ctx context.Context, id, documentID, actor uuid.UUID, expectedVersion int64) (domain.Convention, error) {
	if documentID == uuid.Nil {
		return domain.Convention{}, domain.Validation("documentId is required")
	}
	c, err := s.mutate(ctx, id, actor, expectedVersion, func(c *domain.Convention) (domain.Changes, error) {
		c.Documents = append(c.Documents, documentID)
		return domain.DocumentAdded{DocumentID: documentID}, nil
	})
	if err != nil {
		return domain.Convention{}, err
	}
	s.publish(ctx, "convention.document_added", c, map[string]any{"documentId": documentID})
	return c, nil
}

func (s *Service) LinkIndicator(ctx context.Context, id, indicatorID, actor uuid.UUID) (domain.Convention, error) {
	if indicatorID == uuid.Nil {
		return domain.Convention{}, domain.Validation("indicatorId is required")
	}
	return s.mutate(ctx, id, actor, 0, func(c *domain.Convention) (domain.Changes, error) {
		c.Indicators = append(c.Indicators, indicatorID)
		return domain.IndicatorAdded{IndicatorID: indicatorID}, nil
	})
}

// mutate runs one read-modify-append-write cycle. apply edits the loaded copy and
// returns the payload of the history entry; nothing is persisted if it fails.
func (s *Service) mutate(ctx context.Context, id, actor uuid.UUID, expectedVersion int64, apply func(c *domain.Convention) (domain.Changes, error)) (domain.Convention, error) {
	c, err := s.conventions.Get(ctx, id)
	if err != nil {
		return domain.Convention{}, err
	}
	if expectedVersion == 0 {
		expectedVersion = c.Version
	} else if expectedVersion != c.Version {
		return domain.Convention{}, domain.Conflict("convention %s is at version %d, not %d", id, c.Version, expectedVersion)
	}
	changes, err := apply(&c)
	if err != nil {
		return domain.Convention{}, err
	}
	entry := c.Record(actor, changes, s.now())
	c.UpdatedAt = entry.Timestamp
	stored, err := s.conventions.Update(ctx, c, entry, expectedVersion)
	if err != nil {
		return domain.Convention{}, fmt.Errorf("%s convention %s: %w", entry.Action, id, err)
	}
	s.log.WithFields(logrus.Fields{"convention": id, "action": entry.Action, "actor": actor, "version": stored.Version}).Debug("convention mutated")
	return stored, nil
}

func (s *Service) requireEnterprise(ctx context.Context, id uuid.UUID) error {
	ok, err := s.enterprises.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("check enterprise %s: %w", id, err)
	}
	if !ok {
		return domain.NotFound("Enterprise")
	}
	return nil
}

func (s *Service) publish(ctx context.Context, kind string, c domain.Convention, extra map[string]any) {
	data := map[string]any{
		"conventionId": c.ID,
		"enterpriseId": c.EnterpriseID,
		"status":       c.Status,
		"version":      c.Version,
	}
	for k, v := range extra {
		data[k] = v
	}
	s.notifier.Publish(ctx, domain.Notification{
		Type:  kind,
		Rooms: []string{domain.EnterpriseRoom(c.EnterpriseID)},
		Data:  data,
	})
}
