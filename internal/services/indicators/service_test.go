package indicators

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oversight/internal/adapters/memory"
	"oversight/internal/domain"
	"oversight/internal/ports"
	"oversight/internal/services/conventions"
)

type setup struct {
	svc         *Service
	conventions *conventions.Service
	enterprise  uuid.UUID
	actor       uuid.UUID
}

func newSetup(t *testing.T) setup {
	t.Helper()
	store := memory.New()
	logger, _ := test.NewNullLogger()
	ent, err := store.Enterprises().Create(context.Background(), domain.Enterprise{ID: uuid.New()})
	require.NoError(t, err)
	convs := conventions.New(store.Repositories(), conventions.WithLogger(logger))
	return setup{
		svc:         New(store.Indicators(), store.Enterprises(), convs, ports.NopNotifier{}, logger),
		conventions: convs,
		enterprise:  ent.ID,
		actor:       uuid.New(),
	}
}

func TestCreateLinksConvention(t *testing.T) {
	s := newSetup(t)
	ctx := context.Background()
	start := time.Now().UTC().AddDate(0, -1, 0)
	c, err := s.conventions.Create(ctx, domain.ConventionInput{
		EnterpriseID: s.enterprise, SignedDate: start, StartDate: start, EndDate: start.AddDate(1, 0, 0), Type: "ANNUAL",
	}, s.actor)
	require.NoError(t, err)

	ind, err := s.svc.Create(ctx, domain.IndicatorInput{
		EnterpriseID: s.enterprise, ConventionID: &c.ID, Name: "Jobs created", Unit: "jobs", TargetValue: decimal.NewFromInt(50),
	}, s.actor)
	require.NoError(t, err)
	assert.Equal(t, domain.IndicatorLate, ind.Status)

	c, err = s.conventions.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{ind.ID}, c.Indicators)
	require.Len(t, c.History, 2)
	assert.Equal(t, domain.IndicatorAdded{IndicatorID: ind.ID}, c.History[1].Changes)
}

type staleLinker struct {
	ConventionLinker
}

func (staleLinker) LinkIndicator(context.Context, uuid.UUID, uuid.UUID, uuid.UUID) (domain.Convention, error) {
	return domain.Convention{}, domain.Conflict("convention was modified concurrently")
}

func TestCreateRollsBackWhenLinkFails(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	logger, hook := test.NewNullLogger()
	ent, err := store.Enterprises().Create(ctx, domain.Enterprise{ID: uuid.New()})
	require.NoError(t, err)
	convs := conventions.New(store.Repositories(), conventions.WithLogger(logger))
	start := time.Now().UTC().AddDate(0, -1, 0)
	c, err := convs.Create(ctx, domain.ConventionInput{
		EnterpriseID: ent.ID, SignedDate: start, StartDate: start, EndDate: start.AddDate(1, 0, 0), Type: "ANNUAL",
	}, uuid.New())
	require.NoError(t, err)

	svc := New(store.Indicators(), store.Enterprises(), staleLinker{convs}, ports.NopNotifier{}, logger)
	_, err = svc.Create(ctx, domain.IndicatorInput{EnterpriseID: ent.ID, ConventionID: &c.ID, Name: "Jobs", TargetValue: decimal.NewFromInt(5)}, uuid.New())
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindConflict))

	left, err := store.Indicators().ListByEnterprise(ctx, ent.ID)
	require.NoError(t, err)
	assert.Empty(t, left)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "indicator link failed, creation rolled back", hook.LastEntry().Message)
}

func TestCreateRejectsForeignConvention(t *testing.T) {
	s := newSetup(t)
	ctx := context.Background()
	missing := uuid.New()

	_, err := s.svc.Create(ctx, domain.IndicatorInput{EnterpriseID: s.enterprise, ConventionID: &missing, Name: "x"}, s.actor)
	assert.True(t, domain.IsKind(err, domain.KindNotFound))

	_, err = s.svc.Create(ctx, domain.IndicatorInput{EnterpriseID: uuid.New(), Name: "x"}, s.actor)
	assert.True(t, domain.IsKind(err, domain.KindNotFound))

	_, err = s.svc.Create(ctx, domain.IndicatorInput{EnterpriseID: s.enterprise, Name: " "}, s.actor)
	assert.True(t, domain.IsKind(err, domain.KindValidation))
}

func TestSubmitAndReview(t *testing.T) {
	s := newSetup(t)
	ctx := context.Background()
	ind, err := s.svc.Create(ctx, domain.IndicatorInput{EnterpriseID: s.enterprise, Name: "Export volume", TargetValue: decimal.NewFromInt(100)}, s.actor)
	require.NoError(t, err)

	ind, err = s.svc.Submit(ctx, ind.ID, domain.SubmissionInput{Value: decimal.NewFromInt(70), Period: "2026-Q1"}, s.actor)
	require.NoError(t, err)
	require.Len(t, ind.Submissions, 1)
	sub := ind.Submissions[0]
	assert.Equal(t, domain.SubmissionPending, sub.Status)
	assert.True(t, ind.CurrentValue.IsZero())

	inspector := uuid.New()
	ind, err = s.svc.ReviewSubmission(ctx, ind.ID, sub.ID, domain.Review{Status: "VALIDATED"}, inspector)
	require.NoError(t, err)
	assert.True(t, ind.CurrentValue.Equal(decimal.NewFromInt(70)))
	assert.Equal(t, domain.IndicatorAtRisk, ind.Status)

	_, err = s.svc.ReviewSubmission(ctx, ind.ID, sub.ID, domain.Review{Status: "REJECTED"}, inspector)
	assert.True(t, domain.IsKind(err, domain.KindValidation))
	_, err = s.svc.ReviewSubmission(ctx, ind.ID, uuid.New(), domain.Review{Status: "REJECTED"}, inspector)
	assert.True(t, domain.IsKind(err, domain.KindNotFound))

	history, err := s.svc.History(ctx, ind.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestOverview(t *testing.T) {
	s := newSetup(t)
	ctx := context.Background()
	for _, target := range []int64{0, 100} {
		_, err := s.svc.Create(ctx, domain.IndicatorInput{EnterpriseID: s.enterprise, Name: "kpi", TargetValue: decimal.NewFromInt(target)}, s.actor)
		require.NoError(t, err)
	}

	ov, err := s.svc.Overview(ctx, s.enterprise)
	require.NoError(t, err)
	assert.Equal(t, 2, ov.Total)
	assert.Equal(t, 1, ov.OnTrack)
	assert.Equal(t, 1, ov.Late)
	assert.True(t, ov.AverageCompletion.Equal(decimal.RequireFromString("0.5")), ov.AverageCompletion.String())
}
