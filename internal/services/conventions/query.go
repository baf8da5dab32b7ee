package conventions

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"oversight/internal/domain"
)

func (s *Service) ListByEnterprise(ctx context.Context, enterpriseID uuid.UUID) ([]domain.ConventionDetail, error) {
	list, err := s.conventions.ListByEnterprise(ctx, enterpriseID)
	if err != nil {
		return nil, fmt.Errorf("list conventions of %s: %w", enterpriseID, err)
	}
	return s.resolve(ctx, list)
}

// ListActive returns the conventions in force today, soonest to lapse first.
func (s *Service) ListActive(ctx context.Context, enterpriseID uuid.UUID) ([]domain.ConventionDetail, error) {
	list, err := s.conventions.ListActive(ctx, enterpriseID, s.now())
	if err != nil {
		return nil, fmt.Errorf("list active conventions of %s: %w", enterpriseID, err)
	}
	return s.resolve(ctx, list)
}

func (s *Service) GetHistory(ctx context.Context, id uuid.UUID) ([]domain.HistoryView, error) {
	c, err := s.conventions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(c.History))
	for i, h := range c.History {
		ids[i] = h.UserID
	}
	users, err := newUserResolver(s.users).resolveAll(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve history actors: %w", err)
	}
	out := make([]domain.HistoryView, len(c.History))
	for i, h := range c.History {
		out[i] = domain.HistoryView{Action: h.Action, User: users[i], Changes: h.Changes, Timestamp: h.Timestamp}
	}
	return out, nil
}

func (s *Service) GetSummary(ctx context.Context, id uuid.UUID) (domain.Summary, error) {
	c, err := s.conventions.Get(ctx, id)
	if err != nil {
		return domain.Summary{}, err
	}
	indicators, err := s.indicators.GetMany(ctx, c.Indicators)
	if err != nil {
		return domain.Summary{}, fmt.Errorf("load indicators of %s: %w", id, err)
	}
	return c.Summarize(indicators, s.now()), nil
}

// resolve replaces document and indicator references with their records,
// fetching each kind once for the whole page. Dangling references are dropped.
func (s *Service) resolve(ctx context.Context, list []domain.Convention) ([]domain.ConventionDetail, error) {
	var docIDs, indIDs []uuid.UUID
	for _, c := range list {
		docIDs = append(docIDs, c.Documents...)
		indIDs = append(indIDs, c.Indicators...)
	}
	docs, err := s.documents.GetMany(ctx, docIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve documents: %w", err)
	}
	inds, err := s.indicators.GetMany(ctx, indIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve indicators: %w", err)
	}
	docByID := make(map[uuid.UUID]domain.Document, len(docs))
	for _, d := range docs {
		docByID[d.ID] = d
	}
	indByID := make(map[uuid.UUID]domain.Indicator, len(inds))
	for _, ind := range inds {
		indByID[ind.ID] = ind
	}

	out := make([]domain.ConventionDetail, 0, len(list))
	for _, c := range list {
		detail := domain.ConventionDetail{
			Convention: c,
			Documents:  []domain.Document{},
			Indicators: []domain.Indicator{},
		}
		for _, id := range c.Documents {
			if d, ok := docByID[id]; ok {
				detail.Documents = append(detail.Documents, d)
			}
		}
		for _, id := range c.Indicators {
			if ind, ok := indByID[id]; ok {
				detail.Indicators = append(detail.Indicators, ind)
			}
		}
		out = append(out, detail)
	}
	return out, nil
}
