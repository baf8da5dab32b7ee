package admin

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oversight/internal/adapters/memory"
	"oversight/internal/domain"
)

func TestDashboardAndActivity(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	_, err := store.Users().Create(ctx, domain.User{ID: uuid.New(), Email: "a@example.cm"})
	require.NoError(t, err)
	_, err = store.Documents().Create(ctx, domain.Document{ID: uuid.New()})
	require.NoError(t, err)

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		c, err := domain.NewConvention(uuid.New(), domain.ConventionInput{
			EnterpriseID: uuid.New(), SignedDate: start, StartDate: start, EndDate: start.AddDate(1, 0, 0), Type: "ANNUAL",
		}, uuid.New(), start.Add(time.Duration(i)*time.Hour))
		require.NoError(t, err)
		_, err = store.Conventions().Create(ctx, c)
		require.NoError(t, err)
	}

	svc := New(store.Repositories())
	dash, err := svc.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Dashboard{Users: 1, Visits: 0, Documents: 1}, dash)

	activity, err := svc.Activity(ctx, 2)
	require.NoError(t, err)
	require.Len(t, activity, 2)
	assert.True(t, activity[0].Entry.Timestamp.After(activity[1].Entry.Timestamp))

	activity, err = svc.Activity(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, activity, 3)
}
