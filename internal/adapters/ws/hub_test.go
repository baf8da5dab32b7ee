package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oversight/internal/domain"
)

type stubAuth map[string]domain.User

func (s stubAuth) Authenticate(_ context.Context, token string) (domain.User, error) {
	u, ok := s[token]
	if !ok {
		return domain.User{}, domain.Unauthorized("invalid token")
	}
	return u, nil
}

func startHub(t *testing.T, authn Authenticator) (*Hub, *httptest.Server) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	hub := NewHub(16, logger)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	srv := httptest.NewServer(hub.Handler(authn, []string{"*"}))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestPublishReachesRoomMembers(t *testing.T) {
	enterpriseID := uuid.New()
	authn := stubAuth{
		"owner": {ID: uuid.New(), Role: domain.RoleUser, EnterpriseID: &enterpriseID},
		"other": {ID: uuid.New(), Role: domain.RoleUser},
	}
	hub, srv := startHub(t, authn)

	owner := dial(t, srv, "owner")
	other := dial(t, srv, "other")
	require.Eventually(t, func() bool { return hub.Clients() == 2 }, time.Second, 10*time.Millisecond)

	hub.Publish(context.Background(), domain.Notification{
		Type:  "document.validated",
		Rooms: []string{domain.EnterpriseRoom(enterpriseID)},
		Data:  map[string]any{"status": "VALIDATED"},
	})

	require.NoError(t, owner.SetReadDeadline(time.Now().Add(time.Second)))
	_, payload, err := owner.ReadMessage()
	require.NoError(t, err)
	var env Envelope
	require.NoError(t, json.Unmarshal(payload, &env))
	assert.Equal(t, "document.validated", env.Type)
	assert.Equal(t, "VALIDATED", env.Data["status"])
	assert.NotZero(t, env.Timestamp)

	require.NoError(t, other.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err = other.ReadMessage()
	assert.Error(t, err, "client outside the room must not receive the event")
}

func TestRoleRoom(t *testing.T) {
	authn := stubAuth{"inspector": {ID: uuid.New(), Role: domain.RoleInspector}}
	hub, srv := startHub(t, authn)
	conn := dial(t, srv, "inspector")
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	hub.Publish(context.Background(), domain.Notification{
		Type:  "kpi.submitted",
		Rooms: []string{domain.RoleRoom(domain.RoleInspector)},
	})
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"kpi.submitted"`)
}

func TestHandlerRejectsUnknownToken(t *testing.T) {
	_, srv := startHub(t, stubAuth{})
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?token=nope"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRoomsFor(t *testing.T) {
	id := uuid.New()
	assert.Equal(t, []string{"role_admin"}, RoomsFor(domain.User{Role: domain.RoleAdmin}))
	assert.Equal(t, []string{"role_user", "enterprise_" + id.String()}, RoomsFor(domain.User{Role: domain.RoleUser, EnterpriseID: &id}))
}

func TestPublishDropsWhenQueueFull(t *testing.T) {
	logger, hook := test.NewNullLogger()
	hub := NewHub(1, logger)
	n := domain.Notification{Type: "x", Rooms: []string{"role_admin"}}
	hub.Publish(context.Background(), n)
	hub.Publish(context.Background(), n)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "notification queue full, dropping", hook.LastEntry().Message)
}
