package seed

import (
	"context"
	"fmt"
	"log/slog"

	"miniblog/internal/middleware"
	"miniblog/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EnsureRoles creates the built-in roles that are missing. Running it again
// changes nothing.
func EnsureRoles(ctx context.Context, db *gorm.DB) error {
	created := 0
	for _, name := range models.DefaultRoles() {
		role := models.Role{Name: name}
		res := db.WithContext(ctx).
			Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
			Create(&role)
		if res.Error != nil {
			return fmt.Errorf("seed role %s: %w", name, res.Error)
		}
		created += int(res.RowsAffected)
	}
	if created > 0 {
		middleware.Logger.InfoContext(ctx, "Seeded built-in roles", slog.Int("created", created))
	}
	return nil
}
