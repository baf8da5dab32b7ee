package indicators

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"oversight/internal/domain"
	"oversight/internal/ports"
)

// ConventionLinker is the slice of the convention service indicators depend on.
type ConventionLinker interface {
	Get(ctx context.Context, id uuid.UUID) (domain.Convention, error)
	LinkIndicator(ctx context.Context, id, indicatorID, actor uuid.UUID) (domain.Convention, error)
}

type Service struct {
	repo        ports.IndicatorRepository
	enterprises ports.EnterpriseRepository
	conventions ConventionLinker
	notifier    ports.Notifier
	log         logrus.FieldLogger
	now         func() time.Time
}

func New(repo ports.IndicatorRepository, enterprises ports.EnterpriseRepository, conventions ConventionLinker, notifier ports.Notifier, log logrus.FieldLogger) *Service {
	return &Service{
		repo:        repo,
		enterprises: enterprises,
		conventions: conventions,
		notifier:    notifier,
		log:         log.WithField("component", "indicators"),
		now:         time.Now,
	}
}

var _ ports.Indicators = (*Service)(nil)

// Create registers a KPI. When a convention is given it must belong to the same
// enterprise, and the convention records an INDICATOR_ADDED entry once the KPI exists.
func (s *Service) Create(ctx context.Context, in domain.IndicatorInput, actor uuid.UUID) (domain.Indicator, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Indicator{}, domain.Validation("name is required")
	}
	if in.TargetValue.IsNegative() {
		return domain.Indicator{}, domain.Validation("targetValue must not be negative")
	}
	ok, err := s.enterprises.Exists(ctx, in.EnterpriseID)
	if err != nil {
		return domain.Indicator{}, fmt.Errorf("check enterprise: %w", err)
	}
	if !ok {
		return domain.Indicator{}, domain.NotFound("Enterprise")
	}
	if in.ConventionID != nil {
		c, err := s.conventions.Get(ctx, *in.ConventionID)
		if err != nil {
			return domain.Indicator{}, err
		}
		if c.EnterpriseID != in.EnterpriseID {
			return domain.Indicator{}, domain.Validation("convention %s does not belong to enterprise %s", c.ID, in.EnterpriseID)
		}
	}

	now := s.now().UTC()
	ind, err := s.repo.Create(ctx, domain.Indicator{
		ID:           uuid.New(),
		EnterpriseID: in.EnterpriseID,
		ConventionID: in.ConventionID,
		Name:         name,
		Unit:         strings.TrimSpace(in.Unit),
		TargetValue:  in.TargetValue,
		CurrentValue: decimal.Zero,
		Status:       domain.EvaluateStatus(decimal.Zero, in.TargetValue),
		Submissions:  []domain.Submission{},
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return domain.Indicator{}, fmt.Errorf("create indicator: %w", err)
	}
	if in.ConventionID != nil {
		if _, err := s.conventions.LinkIndicator(ctx, *in.ConventionID, ind.ID, actor); err != nil {
			log := s.log.WithError(err).WithFields(logrus.Fields{"indicator": ind.ID, "convention": *in.ConventionID})
			// The caller sees a failed create, so the row must not survive.
			if derr := s.repo.Delete(context.WithoutCancel(ctx), ind.ID); derr != nil {
				log.WithField("cleanup_error", derr).Error("unlinked indicator could not be removed")
			} else {
				log.Warn("indicator link failed, creation rolled back")
			}
			return domain.Indicator{}, fmt.Errorf("link indicator: %w", err)
		}
	}
	return ind, nil
}

func (s *Service) ListByEnterprise(ctx context.Context, enterpriseID uuid.UUID) ([]domain.Indicator, error) {
	return s.repo.ListByEnterprise(ctx, enterpriseID)
}

func (s *Service) Overview(ctx context.Context, enterpriseID uuid.UUID) (domain.IndicatorOverview, error) {
	list, err := s.repo.ListByEnterprise(ctx, enterpriseID)
	if err != nil {
		return domain.IndicatorOverview{}, err
	}
	out := domain.IndicatorOverview{Total: len(list), AverageCompletion: decimal.Zero}
	sum := decimal.Zero
	for _, ind := range list {
		switch ind.Status {
		case domain.IndicatorOnTrack:
			out.OnTrack++
		case domain.IndicatorAtRisk:
			out.AtRisk++
		default:
			out.Late++
		}
		sum = sum.Add(ind.Completion())
	}
	if len(list) > 0 {
		out.AverageCompletion = sum.Div(decimal.NewFromInt(int64(len(list)))).Round(4)
	}
	return out, nil
}

func (s *Service) Submit(ctx context.Context, id uuid.UUID, in domain.SubmissionInput, actor uuid.UUID) (domain.Indicator, error) {
	if in.Value.IsNegative() {
		return domain.Indicator{}, domain.Validation("value must not be negative")
	}
	ind, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Indicator{}, err
	}
	sub := domain.Submission{
		ID:          uuid.New(),
		Value:       in.Value,
		Period:      strings.TrimSpace(in.Period),
		Comment:     in.Comment,
		Status:      domain.SubmissionPending,
		SubmittedBy: actor,
		SubmittedAt: s.now().UTC(),
	}
	ind.Submissions = append(ind.Submissions, sub)
	ind.UpdatedAt = sub.SubmittedAt
	ind, err = s.repo.Update(ctx, ind)
	if err != nil {
		return domain.Indicator{}, fmt.Errorf("submit value for %s: %w", id, err)
	}
	s.notifier.Publish(ctx, domain.Notification{
		Type:  "kpi.submitted",
		Rooms: []string{domain.RoleRoom(domain.RoleInspector)},
		Data:  map[string]any{"kpiId": ind.ID, "enterpriseId": ind.EnterpriseID, "submissionId": sub.ID, "value": sub.Value},
	})
	return ind, nil
}

// ReviewSubmission settles a pending submission. A validated value becomes the
// indicator's current value and its status is re-evaluated.
func (s *Service) ReviewSubmission(ctx context.Context, id, submissionID uuid.UUID, review domain.Review, actor uuid.UUID) (domain.Indicator, error) {
	status := domain.SubmissionStatus(review.Status)
	if status != domain.SubmissionValidated && status != domain.SubmissionRejected {
		return domain.Indicator{}, domain.Validation("status must be VALIDATED or REJECTED")
	}
	ind, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Indicator{}, err
	}
	idx := -1
	for i, sub := range ind.Submissions {
		if sub.ID == submissionID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return domain.Indicator{}, domain.NotFound("Submission")
	}
	sub := &ind.Submissions[idx]
	if sub.Status != domain.SubmissionPending {
		return domain.Indicator{}, domain.Validation("submission is already %s", sub.Status)
	}
	at := s.now().UTC()
	sub.Status = status
	if review.Comment != "" {
		sub.Comment = review.Comment
	}
	sub.ValidatedBy = &actor
	sub.ValidatedAt = &at
	if status == domain.SubmissionValidated {
		ind.CurrentValue = sub.Value
		ind.Status = domain.EvaluateStatus(ind.CurrentValue, ind.TargetValue)
	}
	ind.UpdatedAt = at
	ind, err = s.repo.Update(ctx, ind)
	if err != nil {
		return domain.Indicator{}, fmt.Errorf("review submission %s: %w", submissionID, err)
	}
	return ind, nil
}

// History returns the submissions newest first.
func (s *Service) History(ctx context.Context, id uuid.UUID) ([]domain.Submission, error) {
	ind, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	out := append([]domain.Submission{}, ind.Submissions...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	return out, nil
}
