package server

import (
	"time"

	"miniblog/internal/cache"
	"miniblog/internal/middleware"
	"miniblog/internal/models"
	"miniblog/internal/observability"
	"miniblog/internal/service"

	"github.com/gofiber/fiber/v2"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	// Username accepts either a username or an email address.
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles POST /api/account/register
// @Summary Register an account
// @Description Creates a user with the User role and emails a confirmation link
// @Tags account
// @Accept json
// @Produce json
// @Param request body registerRequest true "Registration"
// @Success 201 {object} models.UserView
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /account/register [post]
func (s *Server) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	user, err := s.accountService.Register(c.UserContext(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

// ConfirmEmail handles GET /api/account/confirm?token=
// @Summary Confirm email address
// @Tags account
// @Produce json
// @Param token query string true "Confirmation token"
// @Success 200 {object} models.UserView
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /account/confirm [get]
func (s *Server) ConfirmEmail(c *fiber.Ctx) error {
	user, err := s.accountService.ConfirmEmail(c.UserContext(), c.Query("token"))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(user)
}

// Login handles POST /api/account/login
// @Summary Log in
// @Description Authenticates by username or email and returns a JWT
// @Tags account
// @Accept json
// @Produce json
// @Param request body loginRequest true "Credentials"
// @Success 200 {object} service.LoginResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /account/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	identity := req.Username
	if identity == "" {
		identity = req.Email
	}

	result, err := s.accountService.Login(c.UserContext(), identity, req.Password)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(result)
}

// Logout handles POST /api/account/logout by blacklisting the token's jti until it expires.
// @Summary Log out
// @Tags account
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{message=string}
// @Failure 401 {object} models.ErrorResponse
// @Router /account/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	claims, ok := c.Locals(localClaims).(*middleware.TokenClaims)
	if ok && claims.JTI != "" && s.redis != nil {
		ttl := time.Until(claims.ExpiresAt)
		if ttl <= 0 {
			ttl = time.Minute
		}
		if err := s.redis.Set(c.UserContext(), cache.TokenBlacklistKey(claims.JTI), "1", ttl).Err(); err != nil {
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		}
	}
	observability.AuthEvents.WithLabelValues("logout").Inc()
	return c.JSON(fiber.Map{"message": "Logged out"})
}
