package server

import (
	"net/http"
	"testing"

	"miniblog/internal/models"
	"miniblog/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModerationQueue(t *testing.T) {
	env := newTestEnv(t)
	alice := testutil.CreateUser(t, env.db, "alice", models.RoleUser)
	mod := testutil.CreateUser(t, env.db, "carol", models.RoleModerator)
	first := testutil.CreatePost(t, env.db, alice, "first", models.PostStatusPending)
	second := testutil.CreatePost(t, env.db, alice, "second", models.PostStatusPending)
	testutil.CreatePost(t, env.db, alice, "public", models.PostStatusApproved)
	modToken := env.tokenFor(t, mod)

	resp := env.do(t, http.MethodGet, "/api/posts/pending", env.tokenFor(t, alice), nil)
	requireErrorCode(t, resp, http.StatusForbidden, models.CodeForbidden)

	resp = env.do(t, http.MethodGet, "/api/posts/pending", "", nil)
	requireErrorCode(t, resp, http.StatusUnauthorized, models.CodeUnauthorized)

	resp = env.do(t, http.MethodGet, "/api/posts/pending", modToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decodeBody[[]models.PostView](t, resp), 2)

	resp = env.do(t, http.MethodPut, postPath(first.ID, "/reject"), modToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.PostStatusRejected, decodeBody[models.PostView](t, resp).Status)

	t.Run("decided posts cannot be decided again", func(t *testing.T) {
		resp := env.do(t, http.MethodPut, postPath(first.ID, "/approve"), modToken, nil)
		requireErrorCode(t, resp, http.StatusConflict, models.CodeConflict)

		resp = env.do(t, http.MethodPut, postPath(first.ID, "/reject"), modToken, nil)
		requireErrorCode(t, resp, http.StatusConflict, models.CodeConflict)
	})

	t.Run("unknown post", func(t *testing.T) {
		resp := env.do(t, http.MethodPut, postPath(9999, "/approve"), modToken, nil)
		requireErrorCode(t, resp, http.StatusNotFound, models.CodeNotFound)
	})

	resp = env.do(t, http.MethodGet, "/api/posts/pending", modToken, nil)
	pending := decodeBody[[]models.PostView](t, resp)
	require.Len(t, pending, 1)
	assert.Equal(t, second.ID, pending[0].ID)

	sent := env.mail.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, "Your post was rejected", sent[0].Subject)
	assert.Equal(t, alice.ID, sent[0].UserID)
}

func TestModerationQueue_EmptyIsOK(t *testing.T) {
	env := newTestEnv(t)
	admin := testutil.CreateUser(t, env.db, "root", models.RoleAdmin)

	resp := env.do(t, http.MethodGet, "/api/posts/pending", env.tokenFor(t, admin), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decodeBody[[]models.PostView](t, resp))

	resp = env.do(t, http.MethodGet, "/api/comments", env.tokenFor(t, admin), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decodeBody[[]models.CommentView](t, resp))
}

func TestGetAllComments(t *testing.T) {
	env := newTestEnv(t)
	alice := testutil.CreateUser(t, env.db, "alice", models.RoleUser)
	bob := testutil.CreateUser(t, env.db, "bob", models.RoleUser)
	mod := testutil.CreateUser(t, env.db, "carol", models.RoleModerator)
	post := testutil.CreatePost(t, env.db, alice, "topic", models.PostStatusApproved)
	testutil.CreateComment(t, env.db, bob, post, "one")
	testutil.CreateComment(t, env.db, alice, post, "two")

	resp := env.do(t, http.MethodGet, "/api/comments", env.tokenFor(t, bob), nil)
	requireErrorCode(t, resp, http.StatusForbidden, models.CodeForbidden)

	resp = env.do(t, http.MethodGet, "/api/comments", env.tokenFor(t, mod), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	comments := decodeBody[[]models.CommentView](t, resp)
	require.Len(t, comments, 2)
	assert.Equal(t, "two", comments[0].Text)
	assert.Equal(t, "topic", comments[0].PostTitle)
}
