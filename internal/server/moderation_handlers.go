package server

import (
	"context"

	"miniblog/internal/models"
	"miniblog/internal/policy"

	"github.com/gofiber/fiber/v2"
)

// ApprovePost handles PUT /api/posts/:id/approve
// @Summary Approve a pending post
// @Description Moves the post to Approved and notifies its author.
// @Tags moderation
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} models.PostView
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse "NOTIFICATION_FAILED: the status change was saved"
// @Router /posts/{id}/approve [put]
func (s *Server) ApprovePost(c *fiber.Ctx) error {
	return s.moderate(c, s.moderationService.Approve)
}

// RejectPost handles PUT /api/posts/:id/reject
// @Summary Reject a pending post
// @Description Moves the post to Rejected and notifies its author.
// @Tags moderation
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} models.PostView
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse "NOTIFICATION_FAILED: the status change was saved"
// @Router /posts/{id}/reject [put]
func (s *Server) RejectPost(c *fiber.Ctx) error {
	return s.moderate(c, s.moderationService.Reject)
}

type moderationFunc func(ctx context.Context, actor policy.Actor, postID uint) (*models.PostView, error)

func (s *Server) moderate(c *fiber.Ctx, decide moderationFunc) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	post, err := decide(c.UserContext(), actorFrom(c), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(post)
}

// GetAllComments handles GET /api/comments
// @Summary Every comment, newest first
// @Tags moderation
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Offset"
// @Success 200 {array} models.CommentView
// @Failure 403 {object} models.ErrorResponse
// @Router /comments [get]
func (s *Server) GetAllComments(c *fiber.Ctx) error {
	page := parsePagination(c, defaultPageSize)
	comments, err := s.moderationService.AllComments(c.UserContext(), actorFrom(c), page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(comments)
}
