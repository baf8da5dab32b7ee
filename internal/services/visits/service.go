package visits

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"oversight/internal/domain"
	"oversight/internal/ports"
)

type Service struct {
	visits      ports.VisitRepository
	enterprises ports.EnterpriseRepository
	users       ports.UserRepository
	notifier    ports.Notifier
	log         logrus.FieldLogger
	now         func() time.Time
}

func New(visits ports.VisitRepository, enterprises ports.EnterpriseRepository, users ports.UserRepository, notifier ports.Notifier, log logrus.FieldLogger) *Service {
	return &Service{
		visits:      visits,
		enterprises: enterprises,
		users:       users,
		notifier:    notifier,
		log:         log.WithField("component", "visits"),
		now:         time.Now,
	}
}

var _ ports.Visits = (*Service)(nil)

func (s *Service) Request(ctx context.Context, in domain.VisitRequest) (domain.Visit, error) {
	if in.ScheduledAt.IsZero() {
		return domain.Visit{}, domain.Validation("scheduledAt is required")
	}
	in.Type = strings.TrimSpace(in.Type)
	if in.Type == "" {
		return domain.Visit{}, domain.Validation("type is required")
	}
	ok, err := s.enterprises.Exists(ctx, in.EnterpriseID)
	if err != nil {
		return domain.Visit{}, fmt.Errorf("check enterprise: %w", err)
	}
	if !ok {
		return domain.Visit{}, domain.NotFound("Enterprise")
	}
	now := s.now().UTC()
	v, err := s.visits.Create(ctx, domain.Visit{
		ID:           uuid.New(),
		EnterpriseID: in.EnterpriseID,
		ScheduledAt:  in.ScheduledAt.UTC(),
		Type:         in.Type,
		Comment:      in.Comment,
		Status:       domain.VisitScheduled,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return domain.Visit{}, fmt.Errorf("request visit: %w", err)
	}
	s.publish(ctx, "visit.requested", v)
	return v, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (domain.Visit, error) {
	return s.visits.Get(ctx, id)
}

func (s *Service) Cancel(ctx context.Context, id uuid.UUID, reason string) (domain.Visit, error) {
	v, err := s.transition(ctx, id, domain.VisitCancelled, func(v *domain.Visit) {
		v.CancellationReason = strings.TrimSpace(reason)
	})
	if err != nil {
		return domain.Visit{}, err
	}
	s.publish(ctx, "visit.cancelled", v)
	return v, nil
}

// Report files the inspection report and completes the visit.
func (s *Service) Report(ctx context.Context, id uuid.UUID, in domain.VisitReportInput, actor uuid.UUID) (domain.Visit, error) {
	if strings.TrimSpace(in.Content) == "" {
		return domain.Visit{}, domain.Validation("report content is required")
	}
	v, err := s.transition(ctx, id, domain.VisitCompleted, func(v *domain.Visit) {
		v.Outcome = in.Outcome
		v.Report = &domain.VisitReport{
			Content:     in.Content,
			Outcome:     in.Outcome,
			SubmittedAt: s.now().UTC(),
			SubmittedBy: actor,
		}
	})
	if err != nil {
		return domain.Visit{}, err
	}
	s.publish(ctx, "visit.completed", v)
	return v, nil
}

func (s *Service) AssignInspector(ctx context.Context, id, inspectorID uuid.UUID) (domain.Visit, error) {
	inspector, err := s.users.Get(ctx, inspectorID)
	if err != nil {
		return domain.Visit{}, err
	}
	if inspector.Role != domain.RoleInspector {
		return domain.Visit{}, domain.Validation("user %s is not an inspector", inspectorID)
	}
	v, err := s.visits.Get(ctx, id)
	if err != nil {
		return domain.Visit{}, err
	}
	if v.Status == domain.VisitCompleted || v.Status == domain.VisitCancelled {
		return domain.Visit{}, domain.Validation("visit is already %s", v.Status)
	}
	v.InspectorID = &inspector.ID
	v.UpdatedAt = s.now().UTC()
	return s.visits.Update(ctx, v)
}

// UpdateStatus is reserved to the inspector assigned to the visit.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.VisitStatus, actor uuid.UUID) (domain.Visit, error) {
	v, err := s.visits.Get(ctx, id)
	if err != nil {
		return domain.Visit{}, err
	}
	if v.InspectorID == nil || *v.InspectorID != actor {
		return domain.Visit{}, domain.Forbidden("only the assigned inspector can change this visit")
	}
	v, err = s.transition(ctx, id, status, nil)
	if err != nil {
		return domain.Visit{}, err
	}
	if status == domain.VisitCompleted {
		s.publish(ctx, "visit.completed", v)
	}
	return v, nil
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, to domain.VisitStatus, edit func(v *domain.Visit)) (domain.Visit, error) {
	v, err := s.visits.Get(ctx, id)
	if err != nil {
		return domain.Visit{}, err
	}
	if err := domain.ValidateTransition(domain.VisitTransitions, string(v.Status), string(to)); err != nil {
		return domain.Visit{}, err
	}
	v.Status = to
	if edit != nil {
		edit(&v)
	}
	v.UpdatedAt = s.now().UTC()
	v, err = s.visits.Update(ctx, v)
	if err != nil {
		return domain.Visit{}, fmt.Errorf("move visit %s to %s: %w", id, to, err)
	}
	s.log.WithFields(logrus.Fields{"visit": id, "status": to}).Debug("visit status changed")
	return v, nil
}

func (s *Service) ListForInspector(ctx context.Context, inspectorID uuid.UUID) ([]domain.Visit, error) {
	return s.visits.ListByInspector(ctx, inspectorID)
}

func (s *Service) ListByEnterprise(ctx context.Context, enterpriseID uuid.UUID) ([]domain.Visit, error) {
	return s.visits.ListByEnterprise(ctx, enterpriseID)
}

// Upcoming lists scheduled visits that have not started yet, earliest first.
func (s *Service) Upcoming(ctx context.Context, enterpriseID uuid.UUID) ([]domain.Visit, error) {
	all, err := s.visits.ListByEnterprise(ctx, enterpriseID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := []domain.Visit{}
	for _, v := range all {
		if v.Status == domain.VisitScheduled && !v.ScheduledAt.Before(now) {
			out = append(out, v)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	return out, nil
}

// Past lists completed or overdue visits, most recent first.
func (s *Service) Past(ctx context.Context, enterpriseID uuid.UUID) ([]domain.Visit, error) {
	all, err := s.visits.ListByEnterprise(ctx, enterpriseID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := []domain.Visit{}
	for _, v := range all {
		if v.Status == domain.VisitCompleted || v.ScheduledAt.Before(now) {
			out = append(out, v)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ScheduledAt.After(out[j].ScheduledAt) })
	return out, nil
}

func (s *Service) publish(ctx context.Context, kind string, v domain.Visit) {
	data := map[string]any{
		"visitId":      v.ID,
		"enterpriseId": v.EnterpriseID,
		"status":       v.Status,
		"scheduledAt":  v.ScheduledAt,
	}
	s.notifier.Publish(ctx, domain.Notification{
		Type:  kind,
		Rooms: []string{domain.EnterpriseRoom(v.EnterpriseID), domain.RoleRoom(domain.RoleInspector)},
		Data:  data,
	})
}
