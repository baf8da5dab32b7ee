package httpadapter

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oversight/internal/domain"
)

type userEnvelope struct {
	Success bool        `json:"success"`
	Data    domain.User `json:"data"`
}

func TestUserManagement(t *testing.T) {
	api := newTestAPI(t, Options{})

	resp, _ := api.do(call{method: http.MethodGet, path: "/api/users", as: &api.owner})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, data := api.do(call{method: http.MethodGet, path: "/api/users", as: &api.admin})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	assert.Equal(t, float64(3), decodeBody[map[string]any](t, data)["count"])

	resp, data = api.do(call{method: http.MethodPost, path: "/api/users", as: &api.admin,
		body: map[string]any{"name": "Vera", "email": "Vera@Example.cm", "role": "inspector"}})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))
	vera := decodeBody[userEnvelope](t, data).Data
	assert.Equal(t, "vera@example.cm", vera.Email)
	assert.Equal(t, domain.RoleInspector, vera.Role)

	resp, _ = api.do(call{method: http.MethodGet, path: "/api/users/" + vera.ID.String(), as: &api.owner})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, data = api.do(call{method: http.MethodGet, path: "/api/users/" + api.owner.ID.String(), as: &api.owner})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	assert.Equal(t, "Owen", decodeBody[userEnvelope](t, data).Data.Name)

	resp, _ = api.do(call{method: http.MethodPut, path: "/api/users/" + api.owner.ID.String(), as: &api.owner,
		body: map[string]any{"role": "admin"}})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, data = api.do(call{method: http.MethodDelete, path: "/api/users/" + vera.ID.String(), as: &api.admin})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	assert.False(t, decodeBody[userEnvelope](t, data).Data.Active)

	resp, _ = api.do(call{method: http.MethodGet, path: "/api/auth/moi", as: &vera})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "deactivated accounts lose access")

	resp, _ = api.do(call{method: http.MethodDelete, path: "/api/users/" + api.admin.ID.String(), as: &api.admin})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestProfile(t *testing.T) {
	api := newTestAPI(t, Options{})

	resp, data := api.do(call{method: http.MethodGet, path: "/api/auth/moi", as: &api.inspector})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	assert.Equal(t, api.inspector.ID, decodeBody[userEnvelope](t, data).Data.ID)

	resp, data = api.do(call{method: http.MethodPut, path: "/api/auth/moi", as: &api.inspector,
		body: map[string]any{"name": "Ines K."}})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	assert.Equal(t, "Ines K.", decodeBody[userEnvelope](t, data).Data.Name)

	resp, _ = api.do(call{method: http.MethodPut, path: "/api/auth/moi", as: &api.inspector,
		body: map[string]any{"active": false}})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
