package conventions

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oversight/internal/adapters/memory"
	"oversight/internal/domain"
)

var clock = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

type recorder struct {
	mu   sync.Mutex
	sent []domain.Notification
}

func (r *recorder) Publish(_ context.Context, n domain.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

type fixture struct {
	store      *memory.Store
	svc        *Service
	notes      *recorder
	enterprise uuid.UUID
	admin      domain.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	logger, _ := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	notes := &recorder{}

	ent := domain.Enterprise{ID: uuid.New(), CreatedAt: clock}
	_, err := store.Enterprises().Create(ctx, ent)
	require.NoError(t, err)
	admin, err := store.Users().Create(ctx, domain.User{ID: uuid.New(), Name: "Awa Admin", Email: "awa@example.cm", Role: domain.RoleAdmin, Active: true})
	require.NoError(t, err)

	svc := New(store.Repositories(), WithClock(func() time.Time { return clock }), WithNotifier(notes), WithLogger(logger))
	return &fixture{store: store, svc: svc, notes: notes, enterprise: ent.ID, admin: admin}
}

func (f *fixture) create(t *testing.T, typ string) domain.Convention {
	t.Helper()
	c, err := f.svc.Create(context.Background(), domain.ConventionInput{
		EnterpriseID: f.enterprise,
		SignedDate:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		StartDate:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
		Type:         typ,
	}, f.admin.ID)
	require.NoError(t, err)
	return c
}

func fields(t *testing.T, kv map[string]any) map[string]json.RawMessage {
	t.Helper()
	out := map[string]json.RawMessage{}
	for k, v := range kv {
		data, err := json.Marshal(v)
		require.NoError(t, err)
		out[k] = data
	}
	return out
}

func TestCreateUpdateScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c := f.create(t, "ANNUAL")
	require.Len(t, c.History, 1)
	assert.Equal(t, domain.CreatedChanges{Type: "ANNUAL"}, c.History[0].Changes)
	assert.Equal(t, domain.StatusActive, c.Status)

	c, err := f.svc.Update(ctx, c.ID, fields(t, map[string]any{"type": "ANNUAL"}), f.admin.ID, 0)
	require.NoError(t, err)
	require.Len(t, c.History, 2)
	assert.Empty(t, c.History[1].Changes.(domain.UpdatedChanges).Fields)

	c, err = f.svc.Update(ctx, c.ID, fields(t, map[string]any{"type": "BIENNIAL"}), f.admin.ID, 0)
	require.NoError(t, err)
	require.Len(t, c.History, 3)
	assert.Equal(t, map[string]domain.FieldChange{"type": {From: "ANNUAL", To: "BIENNIAL"}},
		c.History[2].Changes.(domain.UpdatedChanges).Fields)
	assert.EqualValues(t, 3, c.Version)
}

func TestCreateRequiresExistingEnterprise(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), domain.ConventionInput{
		EnterpriseID: uuid.New(),
		SignedDate:   clock,
		StartDate:    clock,
		EndDate:      clock.AddDate(1, 0, 0),
		Type:         "ANNUAL",
	}, f.admin.ID)
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
	assert.Empty(t, f.notes.sent)
}

func TestUpdateToUnknownEnterpriseFails(t *testing.T) {
	f := newFixture(t)
	c := f.create(t, "ANNUAL")

	_, err := f.svc.Update(context.Background(), c.ID, fields(t, map[string]any{"enterpriseId": uuid.New().String()}), f.admin.ID, 0)
	assert.True(t, domain.IsKind(err, domain.KindNotFound))

	stored, err := f.svc.Get(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Len(t, stored.History, 1)
}

func TestInvalidUpdateAppendsNothing(t *testing.T) {
	f := newFixture(t)
	c := f.create(t, "ANNUAL")

	for _, body := range []map[string]any{
		{"documents": []string{}},
		{"startDate": "2027-02-01"},
		{"status": "ARCHIVED"},
	} {
		_, err := f.svc.Update(context.Background(), c.ID, fields(t, body), f.admin.ID, 0)
		assert.True(t, domain.IsKind(err, domain.KindValidation), "%v: %v", body, err)
	}

	stored, err := f.svc.Get(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Len(t, stored.History, 1)
	assert.EqualValues(t, 1, stored.Version)
}

func TestUpdateStatusRecordsTransition(t *testing.T) {
	f := newFixture(t)
	c := f.create(t, "ANNUAL")
	editor := uuid.New()

	c, err := f.svc.UpdateStatus(context.Background(), c.ID, domain.StatusSuspended, editor, 0)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuspended, c.Status)
	require.Len(t, c.History, 2)
	assert.Equal(t, domain.StatusChange{From: domain.StatusActive, To: domain.StatusSuspended}, c.History[1].Changes)
	assert.Equal(t, editor, c.Metadata.LastModifiedBy)

	c, err = f.svc.UpdateStatus(context.Background(), c.ID, domain.StatusSuspended, editor, 0)
	require.NoError(t, err)
	assert.Len(t, c.History, 3)

	_, err = f.svc.UpdateStatus(context.Background(), c.ID, "PAUSED", editor, 0)
	assert.True(t, domain.IsKind(err, domain.KindValidation))
}

func TestStaleVersionConflicts(t *testing.T) {
	f := newFixture(t)
	c := f.create(t, "ANNUAL")

	_, err := f.svc.AddDocument(context.Background(), c.ID, uuid.New(), f.admin.ID, 1)
	require.NoError(t, err)

	_, err = f.svc.Update(context.Background(), c.ID, fields(t, map[string]any{"type": "BIENNIAL"}), f.admin.ID, 1)
	assert.True(t, domain.IsKind(err, domain.KindConflict))

	stored, err := f.svc.Get(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Len(t, stored.History, 2)
	assert.Equal(t, "ANNUAL", stored.Type)
}

func TestOperationsOnMissingConvention(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	missing := uuid.New()

	_, err := f.svc.Update(ctx, missing, fields(t, map[string]any{"type": "X"}), f.admin.ID, 0)
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
	_, err = f.svc.UpdateStatus(ctx, missing, domain.StatusExpired, f.admin.ID, 0)
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
	_, err = f.svc.AddDocument(ctx, missing, uuid.New(), f.admin.ID, 0)
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
	_, err = f.svc.GetHistory(ctx, missing)
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
	_, err = f.svc.GetSummary(ctx, missing)
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
}

func TestHistoryGrowsByOnePerMutation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.create(t, "ANNUAL")
	first := c.History[0]

	ops := []func() (domain.Convention, error){
		func() (domain.Convention, error) { return f.svc.AddDocument(ctx, c.ID, uuid.New(), f.admin.ID, 0) },
		func() (domain.Convention, error) {
			return f.svc.Update(ctx, c.ID, fields(t, map[string]any{"obligations": []string{"report quarterly"}}), f.admin.ID, 0)
		},
		func() (domain.Convention, error) { return f.svc.UpdateStatus(ctx, c.ID, domain.StatusDraft, f.admin.ID, 0) },
		func() (domain.Convention, error) { return f.svc.LinkIndicator(ctx, c.ID, uuid.New(), f.admin.ID) },
	}
	for i, op := range ops {
		got, err := op()
		require.NoError(t, err)
		assert.Len(t, got.History, i+2)
		assert.Equal(t, first, got.History[0])
	}
}

func TestGetHistoryResolvesUsers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.create(t, "ANNUAL")
	ghost := uuid.New()

	_, err := f.svc.UpdateStatus(ctx, c.ID, domain.StatusSuspended, ghost, 0)
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, c.ID, domain.StatusExpired, domain.SystemUserID, 0)
	require.NoError(t, err)

	views, err := f.svc.GetHistory(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, views, 3)
	assert.Equal(t, domain.UserSummary{ID: f.admin.ID, Name: "Awa Admin", Email: "awa@example.cm"}, views[0].User)
	assert.Equal(t, domain.UserSummary{ID: ghost, Name: "unknown user"}, views[1].User)
	assert.Equal(t, domain.UserSummary{ID: domain.SystemUserID, Name: "system"}, views[2].User)
	assert.Equal(t, domain.ActionStatusChanged, views[2].Action)
}

func TestGetSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.create(t, "ANNUAL")

	for i := 0; i < 3; i++ {
		_, err := f.svc.AddDocument(ctx, c.ID, uuid.New(), f.admin.ID, 0)
		require.NoError(t, err)
	}
	for _, status := range []domain.IndicatorStatus{domain.IndicatorOnTrack, domain.IndicatorOnTrack, domain.IndicatorLate} {
		ind, err := f.store.Indicators().Create(ctx, domain.Indicator{
			ID: uuid.New(), EnterpriseID: f.enterprise, Name: "jobs", TargetValue: decimal.NewFromInt(10), Status: status,
		})
		require.NoError(t, err)
		_, err = f.svc.LinkIndicator(ctx, c.ID, ind.ID, f.admin.ID)
		require.NoError(t, err)
	}

	summary, err := f.svc.GetSummary(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.Progress{DocumentsSubmitted: 3, IndicatorsOnTrack: 2, TotalIndicators: 3}, summary.Progress)
	// 2026-04-01 09:00 to 2026-12-31 00:00 is 273.6 days.
	assert.Equal(t, 274, summary.DaysRemaining)
}

func TestListActiveResolvesReferences(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.create(t, "ANNUAL")

	doc, err := f.store.Documents().Create(ctx, domain.Document{ID: uuid.New(), EnterpriseID: f.enterprise, Type: "OTHER", Status: domain.DocumentWaiting})
	require.NoError(t, err)
	_, err = f.svc.AddDocument(ctx, c.ID, doc.ID, f.admin.ID, 0)
	require.NoError(t, err)
	_, err = f.svc.AddDocument(ctx, c.ID, uuid.New(), f.admin.ID, 0)
	require.NoError(t, err)

	suspended := f.create(t, "BIENNIAL")
	_, err = f.svc.UpdateStatus(ctx, suspended.ID, domain.StatusSuspended, f.admin.ID, 0)
	require.NoError(t, err)

	active, err := f.svc.ListActive(ctx, f.enterprise)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, c.ID, active[0].ID)
	assert.Len(t, active[0].Convention.Documents, 2)
	require.Len(t, active[0].Documents, 1)
	assert.Equal(t, doc.ID, active[0].Documents[0].ID)

	all, err := f.svc.ListByEnterprise(ctx, f.enterprise)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestMutationsNotifyEnterpriseRoom(t *testing.T) {
	f := newFixture(t)
	c := f.create(t, "ANNUAL")
	_, err := f.svc.UpdateStatus(context.Background(), c.ID, domain.StatusTerminated, f.admin.ID, 0)
	require.NoError(t, err)

	require.Len(t, f.notes.sent, 2)
	assert.Equal(t, "convention.created", f.notes.sent[0].Type)
	assert.Equal(t, "convention.status_changed", f.notes.sent[1].Type)
	assert.Equal(t, []string{domain.EnterpriseRoom(f.enterprise)}, f.notes.sent[1].Rooms)
}
