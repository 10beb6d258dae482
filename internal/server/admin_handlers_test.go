package server

import (
	"net/http"
	"testing"

	"miniblog/internal/models"
	"miniblog/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleAdministration(t *testing.T) {
	env := newTestEnv(t)
	root := testutil.CreateUser(t, env.db, "root", models.RoleAdmin)
	testutil.CreateUser(t, env.db, "bob", models.RoleUser)
	token := env.tokenFor(t, root)

	resp := env.do(t, http.MethodPost, "/api/admin/assign-role", token, jsonBody{"username": "bob", "role": "moderator"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{models.RoleModerator, models.RoleUser}, decodeBody[models.UserRolesView](t, resp).Roles)

	resp = env.do(t, http.MethodPost, "/api/admin/assign-role", token, jsonBody{"username": "bob", "role": "Moderator"})
	requireErrorCode(t, resp, http.StatusConflict, models.CodeConflict)

	resp = env.do(t, http.MethodGet, "/api/admin/user-roles/bob", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{models.RoleModerator, models.RoleUser}, decodeBody[models.UserRolesView](t, resp).Roles)

	resp = env.do(t, http.MethodDelete, "/api/admin/remove-role", token, jsonBody{"username": "bob", "role": "Moderator"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{models.RoleUser}, decodeBody[models.UserRolesView](t, resp).Roles)

	resp = env.do(t, http.MethodPost, "/api/admin/remove-role", token, jsonBody{"username": "bob", "role": "Moderator"})
	requireErrorCode(t, resp, http.StatusConflict, models.CodeConflict)

	resp = env.do(t, http.MethodPost, "/api/admin/assign-role", token, jsonBody{"username": "nobody", "role": "User"})
	requireErrorCode(t, resp, http.StatusNotFound, models.CodeNotFound)

	resp = env.do(t, http.MethodGet, "/api/admin/users", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	users := decodeBody[[]models.UserView](t, resp)
	require.Len(t, users, 2)
	assert.Equal(t, "bob", users[0].Username)

	resp = env.do(t, http.MethodGet, "/api/admin/roles", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, decodeBody[[]models.Role](t, resp))
}

func TestRoleAdministration_AdminsOnly(t *testing.T) {
	env := newTestEnv(t)
	mod := testutil.CreateUser(t, env.db, "carol", models.RoleModerator)
	testutil.CreateUser(t, env.db, "bob", models.RoleUser)

	resp := env.do(t, http.MethodPost, "/api/admin/assign-role", env.tokenFor(t, mod), jsonBody{"username": "bob", "role": "Admin"})
	requireErrorCode(t, resp, http.StatusForbidden, models.CodeForbidden)

	resp = env.do(t, http.MethodGet, "/api/admin/users", "", nil)
	requireErrorCode(t, resp, http.StatusUnauthorized, models.CodeUnauthorized)
}
