package server

import (
	"net/http"
	"strconv"
	"testing"

	"miniblog/internal/models"
	"miniblog/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postPath(id uint, suffix string) string {
	return "/api/posts/" + strconv.FormatUint(uint64(id), 10) + suffix
}

func TestPostLifecycle(t *testing.T) {
	env := newTestEnv(t)
	alice := testutil.CreateUser(t, env.db, "alice", models.RoleUser)
	bob := testutil.CreateUser(t, env.db, "bob", models.RoleUser)
	carol := testutil.CreateUser(t, env.db, "carol", models.RoleModerator)
	aliceToken, bobToken, carolToken := env.tokenFor(t, alice), env.tokenFor(t, bob), env.tokenFor(t, carol)

	resp := env.do(t, http.MethodGet, "/api/posts", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decodeBody[[]models.PostView](t, resp))

	resp = env.do(t, http.MethodPost, "/api/posts", aliceToken, jsonBody{"title": "Hello", "content": "First post"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	post := decodeBody[models.PostView](t, resp)
	assert.Equal(t, models.PostStatusPending, post.Status)
	assert.Equal(t, "alice", post.AuthorName)

	t.Run("pending post is hidden from others", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/api/posts", "", nil)
		assert.Empty(t, decodeBody[[]models.PostView](t, resp))

		resp = env.do(t, http.MethodGet, postPath(post.ID, ""), bobToken, nil)
		requireErrorCode(t, resp, http.StatusNotFound, models.CodeNotFound)

		resp = env.do(t, http.MethodGet, postPath(post.ID, ""), aliceToken, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		resp = env.do(t, http.MethodGet, postPath(post.ID, ""), carolToken, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("only the owner edits", func(t *testing.T) {
		resp := env.do(t, http.MethodPut, postPath(post.ID, ""), bobToken, jsonBody{"title": "Mine now", "content": "x"})
		requireErrorCode(t, resp, http.StatusForbidden, models.CodeForbidden)

		resp = env.do(t, http.MethodPut, postPath(post.ID, ""), carolToken, jsonBody{"title": "Edited", "content": "x"})
		requireErrorCode(t, resp, http.StatusForbidden, models.CodeForbidden)

		resp = env.do(t, http.MethodPut, postPath(post.ID, ""), aliceToken, jsonBody{"title": "Hello again", "content": "First post, edited"})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "Hello again", decodeBody[models.PostView](t, resp).Title)
	})

	t.Run("users cannot moderate", func(t *testing.T) {
		resp := env.do(t, http.MethodPut, postPath(post.ID, "/approve"), aliceToken, nil)
		requireErrorCode(t, resp, http.StatusForbidden, models.CodeForbidden)
	})

	resp = env.do(t, http.MethodPut, postPath(post.ID, "/approve"), carolToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.PostStatusApproved, decodeBody[models.PostView](t, resp).Status)

	sent := env.mail.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, "alice@example.com", sent[0].To)
	assert.Equal(t, "Your post was approved", sent[0].Subject)

	resp = env.do(t, http.MethodGet, "/api/posts", "", nil)
	listed := decodeBody[[]models.PostView](t, resp)
	require.Len(t, listed, 1)
	assert.Equal(t, post.ID, listed[0].ID)

	t.Run("search", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/api/posts/search?q=HELLO", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Len(t, decodeBody[[]models.PostView](t, resp), 1)

		resp = env.do(t, http.MethodGet, "/api/posts/search?q=nothing-matches", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Empty(t, decodeBody[[]models.PostView](t, resp))
	})

	t.Run("comments and detail", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/api/comments", bobToken, jsonBody{"post_id": post.ID, "text": "Nice one"})
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		resp = env.do(t, http.MethodGet, postPath(post.ID, "/comments"), "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		comments := decodeBody[[]models.CommentView](t, resp)
		require.Len(t, comments, 1)
		assert.Equal(t, "bob", comments[0].AuthorName)

		resp = env.do(t, http.MethodGet, postPath(post.ID, ""), "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		detail := decodeBody[models.PostDetail](t, resp)
		assert.Len(t, detail.Comments, 1)
	})

	t.Run("delete cascades to comments", func(t *testing.T) {
		resp := env.do(t, http.MethodDelete, postPath(post.ID, ""), bobToken, nil)
		requireErrorCode(t, resp, http.StatusForbidden, models.CodeForbidden)

		resp = env.do(t, http.MethodDelete, postPath(post.ID, ""), aliceToken, nil)
		require.Equal(t, http.StatusNoContent, resp.StatusCode)

		var count int64
		require.NoError(t, env.db.Model(&models.Comment{}).Where("post_id = ?", post.ID).Count(&count).Error)
		assert.Zero(t, count)

		resp = env.do(t, http.MethodGet, postPath(post.ID, ""), aliceToken, nil)
		requireErrorCode(t, resp, http.StatusNotFound, models.CodeNotFound)
	})
}

func TestCreatePost_StaffIsApprovedImmediately(t *testing.T) {
	env := newTestEnv(t)
	admin := testutil.CreateUser(t, env.db, "root", models.RoleAdmin)

	resp := env.do(t, http.MethodPost, "/api/posts", env.tokenFor(t, admin), jsonBody{"title": "Notice", "content": "Welcome"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, models.PostStatusApproved, decodeBody[models.PostView](t, resp).Status)
}

func TestCreatePost_Validation(t *testing.T) {
	env := newTestEnv(t)
	alice := testutil.CreateUser(t, env.db, "alice", models.RoleUser)
	token := env.tokenFor(t, alice)

	resp := env.do(t, http.MethodPost, "/api/posts", "", jsonBody{"title": "t", "content": "c"})
	requireErrorCode(t, resp, http.StatusUnauthorized, models.CodeUnauthorized)

	resp = env.do(t, http.MethodPost, "/api/posts", token, jsonBody{"title": "", "content": "c"})
	requireErrorCode(t, resp, http.StatusBadRequest, models.CodeValidation)

	resp = env.do(t, http.MethodPost, "/api/posts", token, jsonBody{"title": "t", "content": "  "})
	requireErrorCode(t, resp, http.StatusBadRequest, models.CodeValidation)
}

func TestMyPostListings(t *testing.T) {
	env := newTestEnv(t)
	alice := testutil.CreateUser(t, env.db, "alice", models.RoleUser)
	bob := testutil.CreateUser(t, env.db, "bob", models.RoleUser)
	testutil.CreatePost(t, env.db, alice, "pending", models.PostStatusPending)
	testutil.CreatePost(t, env.db, alice, "rejected", models.PostStatusRejected)
	testutil.CreatePost(t, env.db, alice, "approved", models.PostStatusApproved)
	testutil.CreatePost(t, env.db, bob, "bob's", models.PostStatusRejected)
	token := env.tokenFor(t, alice)

	for _, path := range []string{"/api/posts/mine", "/api/myposts"} {
		resp := env.do(t, http.MethodGet, path, token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Len(t, decodeBody[[]models.PostView](t, resp), 3, path)
	}

	resp := env.do(t, http.MethodGet, "/api/posts/rejected", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rejected := decodeBody[[]models.PostView](t, resp)
	require.Len(t, rejected, 1)
	assert.Equal(t, "rejected", rejected[0].Title)

	t.Run("paging", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/api/posts/mine?limit=2&offset=2", token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Len(t, decodeBody[[]models.PostView](t, resp), 1)
	})

	t.Run("every post is staff only", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/api/posts?scope=all", token, nil)
		requireErrorCode(t, resp, http.StatusForbidden, models.CodeForbidden)

		mod := testutil.CreateUser(t, env.db, "mod", models.RoleModerator)
		resp = env.do(t, http.MethodGet, "/api/posts?scope=all", env.tokenFor(t, mod), nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Len(t, decodeBody[[]models.PostView](t, resp), 4)
	})
}
