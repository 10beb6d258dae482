// Package bootstrap brings up the storage the server and tools share.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"miniblog/internal/cache"
	"miniblog/internal/config"
	"miniblog/internal/database"
	"miniblog/internal/middleware"
	"miniblog/internal/models"
	"miniblog/internal/repository"
	"miniblog/internal/seed"
	"miniblog/internal/service"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	SkipRedis bool
}

// InitRuntime connects to the database and Redis, installs the built-in roles and
// ensures the configured root admin. Redis is optional: a nil client is returned
// when it is unreachable.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	if err := Prepare(ctx, cfg, db); err != nil {
		return nil, nil, err
	}

	var rdb *redis.Client
	if !opts.SkipRedis {
		rdb = cache.InitRedis(cfg.RedisURL)
	}
	return db, rdb, nil
}

// Prepare seeds the role table and the root admin on an open database.
func Prepare(ctx context.Context, cfg *config.Config, db *gorm.DB) error {
	if err := seed.EnsureRoles(ctx, db); err != nil {
		return fmt.Errorf("failed to seed built-in roles: %w", err)
	}
	if err := ensureRootAdmin(ctx, cfg, db); err != nil {
		return fmt.Errorf("failed to bootstrap root admin: %w", err)
	}
	return nil
}

// ensureRootAdmin creates the configured admin account on first start and makes
// sure it keeps the Admin role. Existing credentials are never overwritten.
func ensureRootAdmin(ctx context.Context, cfg *config.Config, db *gorm.DB) error {
	username := strings.TrimSpace(cfg.RootAdminUsername)
	if username == "" {
		return nil
	}

	users := repository.NewUserRepository(db)
	roles := service.NewRoleService(users, repository.NewRoleRepository(db))

	existing, err := users.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if existing == nil {
		if cfg.RootAdminPassword == "" {
			return fmt.Errorf("ROOT_ADMIN_PASSWORD must be set when ROOT_ADMIN_USERNAME is")
		}
		email := strings.ToLower(strings.TrimSpace(cfg.RootAdminEmail))
		if email == "" {
			email = strings.ToLower(username) + "@localhost"
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(cfg.RootAdminPassword), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash root password: %w", err)
		}
		root := &models.User{
			Username:       username,
			Email:          email,
			Password:       string(hashed),
			EmailConfirmed: true,
		}
		if err := users.CreateWithRole(ctx, root, models.RoleUser); err != nil {
			return err
		}
		existing = root
		middleware.Logger.InfoContext(ctx, "Root admin account created", slog.String("username", username))
	}

	if existing.HasRole(models.RoleAdmin) {
		return nil
	}
	if _, err := roles.AssignRole(ctx, service.SystemActor, username, models.RoleAdmin); err != nil && !models.IsCode(err, models.CodeConflict) {
		return err
	}
	return nil
}
