package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oversight/internal/domain"
)

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate(nil, "Convention", "get"))
	assert.True(t, domain.IsKind(translate(pgx.ErrNoRows, "Convention", "get"), domain.KindNotFound))
	assert.True(t, domain.IsKind(translate(fmt.Errorf("scan: %w", pgx.ErrNoRows), "Convention", "get"), domain.KindNotFound))
	assert.True(t, domain.IsKind(translate(&pgconn.PgError{Code: uniqueViolation}, "User", "create"), domain.KindConflict))
	assert.True(t, domain.IsKind(translate(errors.New("boom"), "User", "create"), domain.KindPersistence))
	assert.True(t, domain.IsKind(translate(context.DeadlineExceeded, "User", "create"), domain.KindPersistence))

	conflict := domain.Conflict("stale")
	assert.Same(t, conflict, translate(conflict, "Convention", "update"))
}

func TestInOrder(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	found := []domain.Document{{ID: c}, {ID: a}}
	out := inOrder([]uuid.UUID{a, b, c}, found, func(d domain.Document) uuid.UUID { return d.ID })
	require.Len(t, out, 2)
	assert.Equal(t, a, out[0].ID)
	assert.Equal(t, c, out[1].ID)
}

func TestHistoryArgsRejectsUnencodableChanges(t *testing.T) {
	id := uuid.New()
	entry := domain.HistoryEntry{
		Action:  domain.ActionUpdated,
		Changes: domain.UpdatedChanges{Fields: map[string]domain.FieldChange{"type": {From: "A", To: make(chan int)}}},
	}
	_, err := historyArgs(id, entry)
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindPersistence))

	entry.Changes = domain.UpdatedChanges{Fields: map[string]domain.FieldChange{"type": {From: "A", To: "B"}}}
	args, err := historyArgs(id, entry)
	require.NoError(t, err)
	require.Len(t, args, 5)
	assert.JSONEq(t, `{"type":{"from":"A","to":"B"}}`, string(args[3].([]byte)))
}

// openTestDB connects to OVERSIGHT_TEST_DATABASE_URL and migrates it, or skips.
func openTestDB(t *testing.T) *DB {
	t.Helper()
	url := os.Getenv("OVERSIGHT_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("OVERSIGHT_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	db, err := Connect(ctx, url, 4)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.Migrate(ctx, "up"))
	return db
}

func TestConventionRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repos := db.Repositories()

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	actor := uuid.New()
	c, err := domain.NewConvention(uuid.New(), domain.ConventionInput{
		EnterpriseID: uuid.New(),
		SignedDate:   now,
		StartDate:    now,
		EndDate:      now.AddDate(1, 0, 0),
		Type:         "ANNUAL",
		Advantages:   map[string]any{"tax": "reduced"},
	}, actor, now)
	require.NoError(t, err)

	created, err := repos.Conventions.Create(ctx, c)
	require.NoError(t, err)
	assert.EqualValues(t, 1, created.Version)

	loaded, err := repos.Conventions.Get(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, loaded.History, 1)
	assert.Equal(t, domain.ActionCreated, loaded.History[0].Action)
	assert.Equal(t, map[string]any{"tax": "reduced"}, loaded.Advantages)

	entry := loaded.Record(actor, domain.StatusChange{From: domain.StatusActive, To: domain.StatusSuspended}, now.Add(time.Hour))
	loaded.Status = domain.StatusSuspended
	updated, err := repos.Conventions.Update(ctx, loaded, entry, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, updated.Version)
	assert.Len(t, updated.History, 2)

	_, err = repos.Conventions.Update(ctx, loaded, entry, 1)
	assert.True(t, domain.IsKind(err, domain.KindConflict))

	_, err = repos.Conventions.Get(ctx, uuid.New())
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
}
