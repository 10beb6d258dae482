package repository

import (
	"context"
	"errors"
	"strings"

	"miniblog/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByConfirmationToken(ctx context.Context, token string) (*models.User, error)
	CreateWithRole(ctx context.Context, user *models.User, roleName string) error
	ConfirmEmail(ctx context.Context, userID uint) error
	List(ctx context.Context, page Page) ([]models.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Preload("Roles").First(&user, id).Error; err != nil {
		return nil, lookupError(err, "User", id)
	}
	return &user, nil
}

// GetByUsername returns nil, nil when no user matches.
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, "LOWER(username) = ?", strings.ToLower(strings.TrimSpace(username)))
}

// GetByEmail returns nil, nil when no user matches.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email)))
}

// GetByConfirmationToken returns nil, nil when the token is unknown.
func (r *userRepository) GetByConfirmationToken(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, nil
	}
	return r.findOne(ctx, "confirmation_token = ?", token)
}

func (r *userRepository) findOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Preload("Roles").Where(query, arg).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

// CreateWithRole inserts the user and grants roleName, creating the role if needed,
// in one transaction.
func (r *userRepository) CreateWithRole(ctx context.Context, user *models.User, roleName string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		role, err := findOrCreateRole(tx, roleName)
		if err != nil {
			return err
		}
		user.Roles = []models.Role{*role}
		// the role row already exists; only write the join row
		return tx.Omit("Roles.*").Create(user).Error
	})
	if err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Username or email is already taken")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) ConfirmEmail(ctx context.Context, userID uint) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"email_confirmed":    true,
			"confirmation_token": nil,
		})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User", userID)
	}
	return nil
}

func (r *userRepository) List(ctx context.Context, page Page) ([]models.User, error) {
	var users []models.User
	err := page.apply(r.db.WithContext(ctx).Preload("Roles").Order("username ASC")).
		Find(&users).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}
