package server

import (
	"miniblog/internal/models"

	"github.com/gofiber/fiber/v2"
)

type roleRequest struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// ListUsers handles GET /api/admin/users
// @Summary Users with their roles
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Offset"
// @Success 200 {array} models.UserView
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/users [get]
func (s *Server) ListUsers(c *fiber.Ctx) error {
	page := parsePagination(c, defaultPageSize)
	users, err := s.roleService.ListUsers(c.UserContext(), actorFrom(c), page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(users)
}

// ListRoles handles GET /api/admin/roles
// @Summary Known roles
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Role
// @Router /admin/roles [get]
func (s *Server) ListRoles(c *fiber.Ctx) error {
	roles, err := s.roleService.ListRoles(c.UserContext(), actorFrom(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(roles)
}

// GetUserRoles handles GET /api/admin/user-roles/:name
// @Summary Roles held by a user
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param name path string true "Username"
// @Success 200 {object} models.UserRolesView
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/user-roles/{name} [get]
func (s *Server) GetUserRoles(c *fiber.Ctx) error {
	view, err := s.roleService.GetUserRoles(c.UserContext(), actorFrom(c), c.Params("name"))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(view)
}

// AssignRole handles POST /api/admin/assign-role
// @Summary Grant a role
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body roleRequest true "Grant"
// @Success 200 {object} models.UserRolesView
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse "user already holds the role"
// @Router /admin/assign-role [post]
func (s *Server) AssignRole(c *fiber.Ctx) error {
	var req roleRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	view, err := s.roleService.AssignRole(c.UserContext(), actorFrom(c), req.Username, req.Role)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(view)
}

// RemoveRole handles POST and DELETE /api/admin/remove-role
// @Summary Revoke a role
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body roleRequest true "Revocation"
// @Success 200 {object} models.UserRolesView
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse "user does not hold the role"
// @Router /admin/remove-role [post]
func (s *Server) RemoveRole(c *fiber.Ctx) error {
	var req roleRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	view, err := s.roleService.RemoveRole(c.UserContext(), actorFrom(c), req.Username, req.Role)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(view)
}
