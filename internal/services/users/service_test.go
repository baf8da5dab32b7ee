package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oversight/internal/adapters/memory"
	"oversight/internal/domain"
)

func TestCreateUser(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := New(store.Users(), store.Enterprises())

	u, err := svc.Create(ctx, domain.UserInput{Name: " Inès ", Email: "Ines@Example.cm"})
	require.NoError(t, err)
	assert.Equal(t, "Inès", u.Name)
	assert.Equal(t, "ines@example.cm", u.Email)
	assert.Equal(t, domain.RoleUser, u.Role)
	assert.True(t, u.Active)

	_, err = svc.Create(ctx, domain.UserInput{Name: "Dup", Email: "ines@example.cm"})
	assert.True(t, domain.IsKind(err, domain.KindConflict))

	_, err = svc.Create(ctx, domain.UserInput{Name: "X", Email: "not-an-email"})
	assert.True(t, domain.IsKind(err, domain.KindValidation))

	_, err = svc.Create(ctx, domain.UserInput{Name: "X", Email: "x@example.cm", Role: "root"})
	assert.True(t, domain.IsKind(err, domain.KindValidation))

	ghost := uuid.New()
	_, err = svc.Create(ctx, domain.UserInput{Name: "X", Email: "x@example.cm", EnterpriseID: &ghost})
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
}

func TestUpdateAndDeactivate(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := New(store.Users(), store.Enterprises())

	admin, err := svc.Create(ctx, domain.UserInput{Name: "Root", Email: "root@example.cm", Role: domain.RoleAdmin})
	require.NoError(t, err)
	owner, err := svc.Create(ctx, domain.UserInput{Name: "Owen", Email: "owen@example.cm"})
	require.NoError(t, err)
	other, err := svc.Create(ctx, domain.UserInput{Name: "Olga", Email: "olga@example.cm"})
	require.NoError(t, err)

	name, email := " Owen N. ", "Owen.N@Example.cm"
	u, err := svc.Update(ctx, owner.ID, domain.UserUpdate{Name: &name, Email: &email}, owner)
	require.NoError(t, err)
	assert.Equal(t, "Owen N.", u.Name)
	assert.Equal(t, "owen.n@example.cm", u.Email)

	role := domain.RoleAdmin
	_, err = svc.Update(ctx, owner.ID, domain.UserUpdate{Role: &role}, owner)
	assert.True(t, domain.IsKind(err, domain.KindForbidden))
	_, err = svc.Update(ctx, other.ID, domain.UserUpdate{Name: &name}, owner)
	assert.True(t, domain.IsKind(err, domain.KindForbidden))

	taken := "olga@example.cm"
	_, err = svc.Update(ctx, owner.ID, domain.UserUpdate{Email: &taken}, owner)
	assert.True(t, domain.IsKind(err, domain.KindConflict))

	inspector := domain.RoleInspector
	u, err = svc.Update(ctx, owner.ID, domain.UserUpdate{Role: &inspector}, admin)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleInspector, u.Role)

	off := false
	_, err = svc.Update(ctx, admin.ID, domain.UserUpdate{Active: &off}, admin)
	assert.True(t, domain.IsKind(err, domain.KindValidation))
	_, err = svc.Deactivate(ctx, admin.ID, admin)
	assert.True(t, domain.IsKind(err, domain.KindValidation))

	u, err = svc.Deactivate(ctx, other.ID, admin)
	require.NoError(t, err)
	assert.False(t, u.Active)
	stored, err := svc.Get(ctx, other.ID)
	require.NoError(t, err)
	assert.False(t, stored.Active)

	_, err = svc.Deactivate(ctx, uuid.New(), admin)
	assert.True(t, domain.IsKind(err, domain.KindNotFound))

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
