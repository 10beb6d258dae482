package seed

import (
	"context"
	"testing"

	"miniblog/internal/models"
	"miniblog/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureRoles_Idempotent(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()

	require.NoError(t, EnsureRoles(ctx, db))
	require.NoError(t, EnsureRoles(ctx, db))

	var names []string
	require.NoError(t, db.Model(&models.Role{}).Order("name").Pluck("name", &names).Error)
	assert.Equal(t, []string{models.RoleAdmin, models.RoleModerator, models.RoleUser}, names)
}

func TestEnsureRoles_KeepsExisting(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	existing := models.Role{Name: models.RoleModerator}
	require.NoError(t, db.Create(&existing).Error)

	require.NoError(t, EnsureRoles(context.Background(), db))

	var mod models.Role
	require.NoError(t, db.Where("name = ?", models.RoleModerator).First(&mod).Error)
	assert.Equal(t, existing.ID, mod.ID)

	var count int64
	require.NoError(t, db.Model(&models.Role{}).Count(&count).Error)
	assert.EqualValues(t, 3, count)
}
