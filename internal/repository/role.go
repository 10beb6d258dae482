package repository

import (
	"context"
	"errors"

	"miniblog/internal/models"

	"gorm.io/gorm"
)

// RoleRepository manages roles and their grants.
type RoleRepository interface {
	FindOrCreate(ctx context.Context, name string) (*models.Role, error)
	List(ctx context.Context) ([]models.Role, error)
	Grant(ctx context.Context, user *models.User, role *models.Role) error
	Revoke(ctx context.Context, user *models.User, role *models.Role) error
	GetByName(ctx context.Context, name string) (*models.Role, error)
}

type roleRepository struct {
	db *gorm.DB
}

// NewRoleRepository returns a new RoleRepository implementation.
func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &roleRepository{db: db}
}

func findOrCreateRole(db *gorm.DB, name string) (*models.Role, error) {
	role := models.Role{Name: models.CanonicalRoleName(name)}
	if err := db.Where(models.Role{Name: role.Name}).FirstOrCreate(&role).Error; err != nil {
		// lost a race with a concurrent creator; the row is there now
		if isUniqueConstraintError(err) {
			if err := db.Where("name = ?", role.Name).First(&role).Error; err != nil {
				return nil, err
			}
			return &role, nil
		}
		return nil, err
	}
	return &role, nil
}

func (r *roleRepository) FindOrCreate(ctx context.Context, name string) (*models.Role, error) {
	role, err := findOrCreateRole(r.db.WithContext(ctx), name)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return role, nil
}

// GetByName returns nil, nil for an unknown role.
func (r *roleRepository) GetByName(ctx context.Context, name string) (*models.Role, error) {
	var role models.Role
	err := r.db.WithContext(ctx).Where("name = ?", models.CanonicalRoleName(name)).First(&role).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &role, nil
}

func (r *roleRepository) List(ctx context.Context) ([]models.Role, error) {
	var roles []models.Role
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&roles).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return roles, nil
}

func (r *roleRepository) Grant(ctx context.Context, user *models.User, role *models.Role) error {
	if err := r.db.WithContext(ctx).Model(user).Association("Roles").Append(role); err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("User already has role " + role.Name)
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *roleRepository) Revoke(ctx context.Context, user *models.User, role *models.Role) error {
	if err := r.db.WithContext(ctx).Model(user).Association("Roles").Delete(role); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
