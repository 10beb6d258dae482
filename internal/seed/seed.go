package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"miniblog/internal/middleware"
	"miniblog/internal/models"

	"gorm.io/gorm"
)

// Options configures the seeder.
type Options struct {
	NumUsers        int
	NumPosts        int
	CommentsPerPost int
	ShouldClean     bool
	// RandSeed makes the generated data reproducible when non-zero.
	RandSeed int64
}

// Result counts what Seed created.
type Result struct {
	Users    int
	Posts    int
	Comments int
}

// Seed fills the database with demo users, posts in every moderation state and
// comments on the approved ones. The built-in roles are installed first.
func Seed(ctx context.Context, db *gorm.DB, opts Options) (*Result, error) {
	if opts.NumUsers < 1 {
		return nil, errors.New("seed needs at least one user")
	}
	log := middleware.Logger.With(slog.String("component", "seed"))
	log.InfoContext(ctx, "Starting database seeding",
		slog.Int("users", opts.NumUsers),
		slog.Int("posts", opts.NumPosts),
	)

	if opts.ShouldClean {
		if err := clearData(ctx, db); err != nil {
			log.WarnContext(ctx, "Could not clear existing data", slog.String("error", err.Error()))
		}
	}
	if err := EnsureRoles(ctx, db); err != nil {
		return nil, err
	}

	f := NewFactory(db, opts.RandSeed)
	res := &Result{}

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		roles := []string{models.RoleUser}
		if i == 0 {
			roles = append(roles, models.RoleModerator)
		}
		user, err := f.CreateUser(ctx, roles)
		if err != nil {
			log.WarnContext(ctx, "Skipping user", slog.String("error", err.Error()))
			continue
		}
		users = append(users, user)
	}
	if len(users) == 0 {
		return nil, errors.New("seed created no users")
	}
	res.Users = len(users)

	for i := 0; i < opts.NumPosts; i++ {
		author := users[f.faker.Number(0, len(users)-1)]
		post, err := f.CreatePost(ctx, author, f.status())
		if err != nil {
			return res, fmt.Errorf("failed to create posts: %w", err)
		}
		res.Posts++

		if post.Status != models.PostStatusApproved {
			continue
		}
		for j := 0; j < opts.CommentsPerPost; j++ {
			commenter := users[f.faker.Number(0, len(users)-1)]
			if _, err := f.CreateComment(ctx, commenter, post); err != nil {
				return res, fmt.Errorf("failed to create comments: %w", err)
			}
			res.Comments++
		}
	}

	log.InfoContext(ctx, "Database seeding completed",
		slog.Int("users", res.Users),
		slog.Int("posts", res.Posts),
		slog.Int("comments", res.Comments),
	)
	return res, nil
}

// status picks a moderation state, mostly Approved.
func (f *Factory) status() models.PostStatus {
	switch n := f.faker.Number(1, 10); {
	case n <= 6:
		return models.PostStatusApproved
	case n <= 9:
		return models.PostStatusPending
	default:
		return models.PostStatusRejected
	}
}

// clearData removes content and accounts. Roles stay.
func clearData(ctx context.Context, db *gorm.DB) error {
	middleware.Logger.InfoContext(ctx, "Clearing existing data")
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range []string{"comments", "posts", "user_roles", "users"} {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		return nil
	})
}
