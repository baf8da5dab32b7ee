package expiry

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oversight/internal/adapters/memory"
	"oversight/internal/domain"
	"oversight/internal/services/conventions"
)

func date(s string) time.Time {
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestSweepExpiresLapsedConventions(t *testing.T) {
	ctx := context.Background()
	logger, _ := test.NewNullLogger()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	store := memory.New()
	repos := store.Repositories()
	enterprise := domain.Enterprise{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
	_, err := repos.Enterprises.Create(ctx, enterprise)
	require.NoError(t, err)
	svc := conventions.New(repos, conventions.WithClock(clock), conventions.WithLogger(logger))

	create := func(end string, status domain.Status) domain.Convention {
		c, err := svc.Create(ctx, domain.ConventionInput{
			EnterpriseID: enterprise.ID,
			SignedDate:   date("2025-01-01"),
			StartDate:    date("2025-01-01"),
			EndDate:      date(end),
			Type:         "ANNUAL",
			Status:       status,
		}, uuid.New())
		require.NoError(t, err)
		return c
	}
	lapsed := create("2026-02-28", domain.StatusActive)
	endsToday := create("2026-03-01", domain.StatusActive)
	draft := create("2025-06-30", domain.StatusDraft)

	w := New(repos.Expiry, svc, 10, 2, logger)
	w.now = clock
	listed, err := w.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, listed)

	got, err := svc.Get(ctx, lapsed.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusExpired, got.Status)
	last := got.History[len(got.History)-1]
	assert.Equal(t, domain.ActionStatusChanged, last.Action)
	assert.Equal(t, domain.SystemUserID, last.UserID)
	assert.Equal(t, domain.StatusChange{From: domain.StatusActive, To: domain.StatusExpired}, last.Changes)

	for _, id := range []uuid.UUID{endsToday.ID, draft.ID} {
		c, err := svc.Get(ctx, id)
		require.NoError(t, err)
		assert.Len(t, c.History, 1, "convention %s must be untouched", id)
	}

	listed, err = w.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, listed)
}

type fixedExpiry []uuid.UUID

func (f fixedExpiry) ListExpired(context.Context, time.Time, int) ([]uuid.UUID, error) {
	return f, nil
}

type conflictingUpdater struct{}

func (conflictingUpdater) UpdateStatus(_ context.Context, id uuid.UUID, _ domain.Status, _ uuid.UUID, _ int64) (domain.Convention, error) {
	return domain.Convention{}, domain.Conflict("convention %s was modified concurrently", id)
}

func TestSweepSkipsConflicts(t *testing.T) {
	logger, hook := test.NewNullLogger()
	w := New(fixedExpiry{uuid.New(), uuid.New()}, conflictingUpdater{}, 10, 1, logger)

	listed, err := w.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, listed)

	warnings := 0
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warnings++
		}
	}
	assert.Equal(t, 2, warnings)
}

func TestRunDisabledWithoutInterval(t *testing.T) {
	logger, _ := test.NewNullLogger()
	w := New(fixedExpiry{}, conflictingUpdater{}, 0, 0, logger)
	done := make(chan struct{})
	go func() {
		w.Run(context.Background(), 0)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run must return immediately when the interval is zero")
	}
}
