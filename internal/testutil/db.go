// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"miniblog/internal/database"
	"miniblog/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewSQLiteDB opens an in-memory sqlite database private to t with the full
// schema applied and foreign keys enforced. The shared cache keeps every pooled
// connection on the same database.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_foreign_keys=on", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: database.NewGormLogger(logger.Silent)})
	require.NoError(t, err, "open sqlite")
	require.NoError(t, database.ApplySchema(context.Background(), db), "apply schema")

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// CreateUser inserts a confirmed user holding the given roles. Roles are
// created on demand.
func CreateUser(t *testing.T, db *gorm.DB, username string, roles ...string) *models.User {
	t.Helper()
	user := &models.User{
		Username:       username,
		Email:          strings.ToLower(username) + "@example.com",
		Password:       "not-a-real-hash",
		EmailConfirmed: true,
	}
	for _, name := range roles {
		role := models.Role{Name: models.CanonicalRoleName(name)}
		require.NoError(t, db.Where(models.Role{Name: role.Name}).FirstOrCreate(&role).Error)
		user.Roles = append(user.Roles, role)
	}
	require.NoError(t, db.Omit("Roles.*").Create(user).Error)
	return user
}

// CreatePost inserts a post owned by author with the given status.
func CreatePost(t *testing.T, db *gorm.DB, author *models.User, title string, status models.PostStatus) *models.Post {
	t.Helper()
	post := &models.Post{
		Title:   title,
		Content: "content of " + title,
		UserID:  author.ID,
		Status:  status,
	}
	require.NoError(t, db.Omit("User").Create(post).Error)
	return post
}

// CreateComment inserts a comment by author on post.
func CreateComment(t *testing.T, db *gorm.DB, author *models.User, post *models.Post, text string) *models.Comment {
	t.Helper()
	comment := &models.Comment{Text: text, UserID: author.ID, PostID: post.ID}
	require.NoError(t, db.Omit("User", "Post").Create(comment).Error)
	return comment
}
