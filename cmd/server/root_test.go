package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oversight/internal/adapters/memory"
	"oversight/internal/auth"
	"oversight/internal/domain"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	chdir(t, t.TempDir())
	t.Setenv("STORE", "memory")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("LOG_LEVEL", "error")

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestUsersAddPrintsCreatedUser(t *testing.T) {
	out, err := execute(t, "users", "add", "--name", "Awa Bello", "--email", "Awa@Minmidt.cm", "--role", "inspector")
	require.NoError(t, err)

	var u domain.User
	require.NoError(t, json.Unmarshal([]byte(out), &u))
	assert.Equal(t, "Awa Bello", u.Name)
	assert.Equal(t, "awa@minmidt.cm", u.Email)
	assert.Equal(t, domain.RoleInspector, u.Role)
	assert.True(t, u.Active)
}

func TestUsersAddRejectsBadInput(t *testing.T) {
	_, err := execute(t, "users", "add", "--name", "X", "--email", "not-an-email")
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindValidation))

	_, err = execute(t, "users", "add", "--name", "X", "--email", "x@y.cm", "--enterprise", "nope")
	require.ErrorContains(t, err, "invalid --enterprise")

	_, err = execute(t, "users", "add", "--email", "x@y.cm")
	require.ErrorContains(t, err, "name")
}

func TestMigrateNeedsPostgres(t *testing.T) {
	_, err := execute(t, "migrate", "up")
	require.ErrorContains(t, err, "STORE=postgres")

	_, err = execute(t, "migrate", "sideways")
	require.Error(t, err)
}

func TestTokenForUnknownUser(t *testing.T) {
	_, err := execute(t, "token", "--user", "1b4e28ba-2fa1-11d2-883f-0016d3cca427")
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
}

func TestExpireOnEmptyStore(t *testing.T) {
	out, err := execute(t, "expire")
	require.NoError(t, err)
	assert.Equal(t, "0 conventions past their end date swept\n", out)
}

func TestBootstrapAdminPrintsTokenOutsideTheLog(t *testing.T) {
	ctx := context.Background()
	logger, hook := test.NewNullLogger()
	e := &env{log: logger, store: memory.New().Repositories()}
	tokens := auth.NewTokens("test-secret", time.Hour)

	var out bytes.Buffer
	require.NoError(t, bootstrapAdmin(ctx, e, tokens, "root@example.cm", &out))
	token, ok := strings.CutPrefix(strings.TrimSpace(out.String()), "bootstrap admin token: ")
	require.True(t, ok, out.String())

	u, err := auth.NewAuthenticator(tokens, e.store.Users).Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, u.Role)
	for _, entry := range hook.AllEntries() {
		assert.NotContains(t, entry.Message, token)
		for _, v := range entry.Data {
			assert.NotContains(t, fmt.Sprint(v), token)
		}
	}

	out.Reset()
	require.NoError(t, bootstrapAdmin(ctx, e, tokens, "root@example.cm", &out))
	assert.Empty(t, out.String())
	assert.Equal(t, "bootstrap admin already exists", hook.LastEntry().Message)
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}
