package service

import (
	"context"
	"strings"
	"testing"

	"miniblog/internal/middleware"
	"miniblog/internal/models"
	"miniblog/internal/notifications"
	"miniblog/internal/repository"
	"miniblog/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-at-least-32-characters-long"

func newAccountService(t *testing.T, requireConfirmation bool) (*AccountService, *recordingDispatcher, repository.UserRepository) {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	users := repository.NewUserRepository(db)
	notify := &recordingDispatcher{}
	svc := NewAccountService(users, notify, AccountOptions{
		JWTSecret:                testSecret,
		PublicBaseURL:            "http://blog.test/",
		RequireEmailConfirmation: requireConfirmation,
	})
	return svc, notify, users
}

func TestAccountService_RegisterConflicts(t *testing.T) {
	svc, _, _ := newAccountService(t, true)
	ctx := context.Background()

	view, err := svc.Register(ctx, RegisterInput{Username: "alice", Email: "a@x.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, []string{models.RoleUser}, view.Roles)
	assert.False(t, view.EmailConfirmed)

	_, err = svc.Register(ctx, RegisterInput{Username: "alice", Email: "other@x.com", Password: "pw"})
	assertAppError(t, err, models.CodeConflict)

	_, err = svc.Register(ctx, RegisterInput{Username: "alice2", Email: "a@x.com", Password: "pw"})
	assertAppError(t, err, models.CodeConflict)
}

func TestAccountService_RegisterValidation(t *testing.T) {
	svc, _, _ := newAccountService(t, true)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Username: "al", Email: "a@x.com", Password: "pw"})
	assertValidationError(t, err)
	_, err = svc.Register(ctx, RegisterInput{Username: "alice", Email: "nope", Password: "pw"})
	assertValidationError(t, err)
	_, err = svc.Register(ctx, RegisterInput{Username: "alice", Email: "a@x.com", Password: ""})
	assertValidationError(t, err)
}

func TestAccountService_ConfirmThenLogin(t *testing.T) {
	svc, notify, users := newAccountService(t, true)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Username: "alice", Email: "a@x.com", Password: "pw"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, "alice", "pw")
	assertAppError(t, err, models.CodeUnauthorized)
	assert.Contains(t, err.Error(), "Email not confirmed")

	msgs := notify.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, notifications.KindConfirmEmail, msgs[0].Kind)
	assert.Contains(t, msgs[0].Body, "http://blog.test/api/account/confirm?token=")

	stored, err := users.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, stored.ConfirmationToken)
	assert.Contains(t, msgs[0].Body, *stored.ConfirmationToken)

	_, err = svc.ConfirmEmail(ctx, "not-a-token")
	assertAppError(t, err, models.CodeNotFound)

	confirmed, err := svc.ConfirmEmail(ctx, *stored.ConfirmationToken)
	require.NoError(t, err)
	assert.True(t, confirmed.EmailConfirmed)

	result, err := svc.Login(ctx, "a@x.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "alice", result.User.Username)

	claims, err := middleware.ParseToken(testSecret, result.Token)
	require.NoError(t, err)
	assert.Equal(t, stored.ID, claims.UserID)
}

func TestAccountService_LoginRejectsBadPassword(t *testing.T) {
	svc, _, _ := newAccountService(t, false)
	ctx := context.Background()

	view, err := svc.Register(ctx, RegisterInput{Username: "bob", Email: "b@x.com", Password: "secret"})
	require.NoError(t, err)
	assert.True(t, view.EmailConfirmed)

	_, err = svc.Login(ctx, "bob", "wrong")
	assertAppError(t, err, models.CodeUnauthorized)
	_, err = svc.Login(ctx, "nobody", "secret")
	assertAppError(t, err, models.CodeUnauthorized)

	res, err := svc.Login(ctx, strings.ToUpper("bob"), "secret")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
}
