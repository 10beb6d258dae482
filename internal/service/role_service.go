package service

import (
	"context"
	"log/slog"
	"strings"

	"miniblog/internal/middleware"
	"miniblog/internal/models"
	"miniblog/internal/policy"
	"miniblog/internal/repository"
)

// RoleService administers role grants. A zero Actor is the trusted system
// caller (CLI and bootstrap); HTTP callers must be Admins.
type RoleService struct {
	userRepo repository.UserRepository
	roleRepo repository.RoleRepository
}

func NewRoleService(userRepo repository.UserRepository, roleRepo repository.RoleRepository) *RoleService {
	return &RoleService{userRepo: userRepo, roleRepo: roleRepo}
}

// SystemActor marks calls made by trusted tooling rather than a signed-in user.
var SystemActor = policy.Actor{Roles: []string{models.RoleAdmin}}

func (s *RoleService) authorize(actor policy.Actor) error {
	if !actor.Authenticated() && actor.Has(models.RoleAdmin) {
		return nil
	}
	_, err := authorize(actor, policy.ManageRoles, policy.Resource{}, "Only admins can manage roles")
	return err
}

func (s *RoleService) loadUser(ctx context.Context, username string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, models.NewValidationError("Username is required")
	}
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("User", username)
	}
	return user, nil
}

// AssignRole grants role to username, creating the role on first use.
func (s *RoleService) AssignRole(ctx context.Context, actor policy.Actor, username, role string) (*models.UserRolesView, error) {
	if err := s.authorize(actor); err != nil {
		return nil, err
	}
	role = models.CanonicalRoleName(role)
	if role == "" {
		return nil, models.NewValidationError("Role is required")
	}
	user, err := s.loadUser(ctx, username)
	if err != nil {
		return nil, err
	}
	if user.HasRole(role) {
		return nil, models.NewConflictError("User " + user.Username + " already has role " + role)
	}

	r, err := s.roleRepo.FindOrCreate(ctx, role)
	if err != nil {
		return nil, err
	}
	if err := s.roleRepo.Grant(ctx, user, r); err != nil {
		return nil, err
	}
	middleware.Logger.InfoContext(ctx, "Role assigned",
		slog.String("username", user.Username),
		slog.String("role", role),
		slog.Uint64("by", uint64(actor.UserID)),
	)
	return s.GetUserRoles(ctx, SystemActor, user.Username)
}

// RemoveRole revokes role from username.
func (s *RoleService) RemoveRole(ctx context.Context, actor policy.Actor, username, role string) (*models.UserRolesView, error) {
	if err := s.authorize(actor); err != nil {
		return nil, err
	}
	role = models.CanonicalRoleName(role)
	user, err := s.loadUser(ctx, username)
	if err != nil {
		return nil, err
	}
	if !user.HasRole(role) {
		return nil, models.NewConflictError("User " + user.Username + " does not have role " + role)
	}

	r, err := s.roleRepo.GetByName(ctx, role)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, models.NewNotFoundError("Role", role)
	}
	if err := s.roleRepo.Revoke(ctx, user, r); err != nil {
		return nil, err
	}
	middleware.Logger.InfoContext(ctx, "Role removed",
		slog.String("username", user.Username),
		slog.String("role", role),
		slog.Uint64("by", uint64(actor.UserID)),
	)
	return s.GetUserRoles(ctx, SystemActor, user.Username)
}

func (s *RoleService) GetUserRoles(ctx context.Context, actor policy.Actor, username string) (*models.UserRolesView, error) {
	if err := s.authorize(actor); err != nil {
		return nil, err
	}
	user, err := s.loadUser(ctx, username)
	if err != nil {
		return nil, err
	}
	return &models.UserRolesView{Username: user.Username, Roles: user.RoleNames()}, nil
}

// ListUsers returns every account with its roles, ordered by username.
func (s *RoleService) ListUsers(ctx context.Context, actor policy.Actor, limit, offset int) ([]models.UserView, error) {
	if err := s.authorize(actor); err != nil {
		return nil, err
	}
	users, err := s.userRepo.List(ctx, repository.Page{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	views := make([]models.UserView, 0, len(users))
	for i := range users {
		views = append(views, models.NewUserView(&users[i]))
	}
	return views, nil
}

// ListRoles returns every known role.
func (s *RoleService) ListRoles(ctx context.Context, actor policy.Actor) ([]models.Role, error) {
	if err := s.authorize(actor); err != nil {
		return nil, err
	}
	return s.roleRepo.List(ctx)
}
