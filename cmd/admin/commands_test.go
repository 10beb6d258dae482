package main

import (
	"bytes"
	"context"
	"testing"

	"miniblog/internal/models"
	"miniblog/internal/repository"
	"miniblog/internal/seed"
	"miniblog/internal/service"
	"miniblog/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func runAdmin(t *testing.T, db *gorm.DB, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(func(context.Context) (*service.RoleService, error) {
		return service.NewRoleService(repository.NewUserRepository(db), repository.NewRoleRepository(db)), nil
	})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestAdminCommands(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	require.NoError(t, seed.EnsureRoles(context.Background(), db))
	testutil.CreateUser(t, db, "alice", models.RoleUser)

	out, err := runAdmin(t, db, "assign-role", "alice", "moderator")
	require.NoError(t, err)
	assert.Equal(t, "alice: Moderator, User\n", out)

	_, err = runAdmin(t, db, "assign-role", "alice", "Moderator")
	assert.True(t, models.IsCode(err, models.CodeConflict))

	out, err = runAdmin(t, db, "user-roles", "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice: Moderator, User\n", out)

	out, err = runAdmin(t, db, "list-users")
	require.NoError(t, err)
	assert.Contains(t, out, "USERNAME")
	assert.Contains(t, out, "Moderator,User")

	out, err = runAdmin(t, db, "remove-role", "alice", "Moderator")
	require.NoError(t, err)
	assert.Equal(t, "alice: User\n", out)

	out, err = runAdmin(t, db, "roles")
	require.NoError(t, err)
	assert.Contains(t, out, models.RoleAdmin)

	_, err = runAdmin(t, db, "user-roles", "nobody")
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestAdminCommands_ArgValidation(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	_, err := runAdmin(t, db, "assign-role", "alice")
	assert.Error(t, err)
}
