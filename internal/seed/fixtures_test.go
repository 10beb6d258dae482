package seed

import (
	"context"
	"strings"
	"testing"

	"miniblog/internal/models"
	"miniblog/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const demoFixture = `
users:
  - username: alice
    password: alicepass
    roles: [user]
  - username: mod
    email: mod@blog.test
    password: modpass1
    roles: [User, Moderator]
posts:
  - author: alice
    title: Hello world
    content: First post.
    status: Approved
    comments:
      - author: mod
        text: Welcome!
  - author: alice
    title: Draft
    content: Waiting.
`

func TestLoadFixture_Validation(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown field", "users:\n  - username: a\n    password: b\n    age: 3\n"},
		{"missing password", "users:\n  - username: a\n"},
		{"unknown author", "posts:\n  - author: nobody\n    title: t\n"},
		{"bad status", "users:\n  - {username: a, password: b}\nposts:\n  - {author: a, title: t, status: Published}\n"},
		{"long comment", "users:\n  - {username: a, password: b}\nposts:\n  - author: a\n    title: t\n    comments:\n      - {author: a, text: " + strings.Repeat("x", models.MaxCommentLength+1) + "}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFixture(strings.NewReader(tt.doc))
			assert.Error(t, err)
		})
	}

	f, err := LoadFixture(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, f.Users)
}

func TestApplyFixture(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()

	f, err := LoadFixture(strings.NewReader(demoFixture))
	require.NoError(t, err)

	res, err := ApplyFixture(ctx, db, f)
	require.NoError(t, err)
	assert.Equal(t, Result{Users: 2, Posts: 2, Comments: 1}, *res)

	var alice models.User
	require.NoError(t, db.Preload("Roles").Where("username = ?", "alice").First(&alice).Error)
	assert.Equal(t, "alice@example.com", alice.Email)
	assert.Equal(t, []string{models.RoleUser}, alice.RoleNames())
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(alice.Password), []byte("alicepass")))

	var draft models.Post
	require.NoError(t, db.Where("title = ?", "Draft").First(&draft).Error)
	assert.Equal(t, models.PostStatusPending, draft.Status)

	again, err := ApplyFixture(ctx, db, f)
	require.NoError(t, err)
	assert.Equal(t, Result{}, *again)

	var posts int64
	require.NoError(t, db.Model(&models.Post{}).Count(&posts).Error)
	assert.EqualValues(t, 2, posts)
}
