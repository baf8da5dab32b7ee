package documents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"oversight/internal/domain"
	"oversight/internal/ports"
)

// Service tracks document metadata. File bytes live elsewhere; only references are stored.
type Service struct {
	docs        ports.DocumentRepository
	enterprises ports.EnterpriseRepository
	notifier    ports.Notifier
	log         logrus.FieldLogger
	now         func() time.Time
}

func New(docs ports.DocumentRepository, enterprises ports.EnterpriseRepository, notifier ports.Notifier, log logrus.FieldLogger) *Service {
	return &Service{
		docs:        docs,
		enterprises: enterprises,
		notifier:    notifier,
		log:         log.WithField("component", "documents"),
		now:         time.Now,
	}
}

var _ ports.Documents = (*Service)(nil)

func (s *Service) Types() []string {
	return append([]string(nil), domain.DocumentTypes...)
}

func (s *Service) ListByEnterprise(ctx context.Context, enterpriseID uuid.UUID) ([]domain.Document, error) {
	if err := s.requireEnterprise(ctx, enterpriseID); err != nil {
		return nil, err
	}
	return s.docs.ListByEnterprise(ctx, enterpriseID)
}

func (s *Service) Register(ctx context.Context, enterpriseID uuid.UUID, in domain.DocumentInput) (domain.Document, error) {
	if !domain.ValidDocumentType(in.Type) {
		return domain.Document{}, domain.Validation("unknown document type %q", in.Type)
	}
	if len(in.Files) == 0 {
		return domain.Document{}, domain.Validation("at least one file is required")
	}
	for i, f := range in.Files {
		if strings.TrimSpace(f.Name) == "" || strings.TrimSpace(f.URL) == "" {
			return domain.Document{}, domain.Validation("file %d needs a name and a url", i)
		}
	}
	if err := s.requireEnterprise(ctx, enterpriseID); err != nil {
		return domain.Document{}, err
	}
	d, err := s.docs.Create(ctx, domain.Document{
		ID:           uuid.New(),
		EnterpriseID: enterpriseID,
		Type:         in.Type,
		Files:        in.Files,
		Status:       domain.DocumentWaiting,
		UploadedAt:   s.now().UTC(),
	})
	if err != nil {
		return domain.Document{}, fmt.Errorf("register document: %w", err)
	}
	s.log.WithFields(logrus.Fields{"document": d.ID, "enterprise": enterpriseID, "type": d.Type}).Info("document registered")
	return d, nil
}

func (s *Service) Validate(ctx context.Context, id uuid.UUID, review domain.Review, actor uuid.UUID) (domain.Document, error) {
	status := domain.DocumentStatus(review.Status)
	if status != domain.DocumentValidated && status != domain.DocumentRejected {
		return domain.Document{}, domain.Validation("status must be VALIDATED or REJECTED")
	}
	d, err := s.docs.Get(ctx, id)
	if err != nil {
		return domain.Document{}, err
	}
	at := s.now().UTC()
	d.Status = status
	d.Comment = review.Comment
	d.ValidatedBy = &actor
	d.ValidatedAt = &at
	d, err = s.docs.Update(ctx, d)
	if err != nil {
		return domain.Document{}, fmt.Errorf("validate document %s: %w", id, err)
	}
	s.notifier.Publish(ctx, domain.Notification{
		Type:  "document.validated",
		Rooms: []string{domain.EnterpriseRoom(d.EnterpriseID)},
		Data:  map[string]any{"documentId": d.ID, "status": d.Status, "comment": d.Comment},
	})
	return d, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.docs.Delete(ctx, id)
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
