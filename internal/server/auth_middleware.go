package server

import (
	"context"
	"errors"
	"strings"

	"miniblog/internal/cache"
	"miniblog/internal/middleware"
	"miniblog/internal/models"
	"miniblog/internal/policy"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

const (
	localUserID = "userID"
	localActor  = "actor"
	localClaims = "claims"
)

// AuthRequired validates the bearer token, rejects revoked tokens and loads the caller's roles.
// Websocket upgrades may pass the token as ?token= instead of a header.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		isWSPath := strings.HasPrefix(c.Path(), "/api/ws")

		tokenString, err := middleware.BearerToken(c, isWSPath)
		if errors.Is(err, middleware.ErrMissingToken) {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid authorization header"))
		}

		claims, err := middleware.ParseToken(s.config.JWTSecret, tokenString)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired token"))
		}

		if s.isRevoked(c.UserContext(), claims.JTI) {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Token has been revoked"))
		}

		user, err := s.userRepo.GetByID(c.UserContext(), claims.UserID)
		if err != nil {
			if models.IsCode(err, models.CodeNotFound) {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Account no longer exists"))
			}
			return models.RespondWithAppError(c, err)
		}

		s.setCaller(c, user, claims)
		return c.Next()
	}
}

// OptionalAuth identifies the caller when a valid token is present and otherwise
// continues anonymously.
func (s *Server) OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, err := middleware.BearerToken(c, false)
		if err != nil {
			return c.Next()
		}
		claims, err := middleware.ParseToken(s.config.JWTSecret, tokenString)
		if err != nil || s.isRevoked(c.UserContext(), claims.JTI) {
			return c.Next()
		}
		user, err := s.userRepo.GetByID(c.UserContext(), claims.UserID)
		if err != nil {
			return c.Next()
		}
		s.setCaller(c, user, claims)
		return c.Next()
	}
}

// AdminRequired rejects callers without the Admin role with 403.
// Must be placed after AuthRequired.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !actorFrom(c).Has(models.RoleAdmin) {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Admin access required"))
		}
		return c.Next()
	}
}

func (s *Server) requireUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

func (s *Server) isRevoked(ctx context.Context, jti string) bool {
	if jti == "" || s.redis == nil {
		return false
	}
	n, err := s.redis.Exists(ctx, cache.TokenBlacklistKey(jti)).Result()
	return err == nil && n > 0
}

func (s *Server) setCaller(c *fiber.Ctx, user *models.User, claims *middleware.TokenClaims) {
	c.Locals(localUserID, user.ID)
	c.Locals(localActor, policy.ActorFor(user))
	c.Locals(localClaims, claims)
	ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, user.ID)
	c.SetUserContext(ctx)
}

// actorFrom returns the caller set by AuthRequired or OptionalAuth; anonymous otherwise.
func actorFrom(c *fiber.Ctx) policy.Actor {
	if actor, ok := c.Locals(localActor).(policy.Actor); ok {
		return actor
	}
	return policy.Actor{}
}
