package database

import (
	"testing"

	modelspkg "miniblog/internal/models"

	"github.com/stretchr/testify/require"
)

func TestPersistentModels_RolesBeforeUsers(t *testing.T) {
	all := PersistentModels()
	require.Len(t, all, 4)
	_, ok := all[0].(*modelspkg.Role)
	require.True(t, ok, "roles must be migrated before users")
	_, ok = all[len(all)-1].(*modelspkg.Comment)
	require.True(t, ok, "comments reference posts and must be migrated last")
}
