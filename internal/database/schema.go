package database

import (
	"context"
	"fmt"
	"log/slog"

	"miniblog/internal/middleware"

	"gorm.io/gorm"
)

// ApplySchema creates or updates the tables for PersistentModels, including the
// user_roles join table and the restrict-on-delete key from comments to posts.
func ApplySchema(ctx context.Context, db *gorm.DB) error {
	middleware.Logger.InfoContext(ctx, "Running GORM AutoMigrate",
		slog.Int("models", len(PersistentModels())),
	)
	if err := db.WithContext(ctx).AutoMigrate(PersistentModels()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}
