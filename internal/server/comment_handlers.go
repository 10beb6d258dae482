package server

import (
	"miniblog/internal/models"
	"miniblog/internal/service"

	"github.com/gofiber/fiber/v2"
)

type commentRequest struct {
	PostID uint   `json:"post_id"`
	Text   string `json:"text"`
}

// CreateComment handles POST /api/comments
// @Summary Comment on a post
// @Description Text is 1 to 300 characters. The post author is notified unless they wrote the comment.
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body commentRequest true "Comment"
// @Success 201 {object} models.CommentView
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /comments [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	var req commentRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if req.PostID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("post_id is required"))
	}

	comment, err := s.commentService.AddComment(c.UserContext(), service.CreateCommentInput{
		Actor:  actorFrom(c),
		PostID: req.PostID,
		Text:   req.Text,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// DeleteComment handles DELETE /api/comments/:id
// @Summary Delete a comment
// @Description Allowed for the comment author, the post author, moderators and admins.
// @Tags comments
// @Security BearerAuth
// @Param id path int true "Comment ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /comments/{id} [delete]
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.commentService.DeleteComment(c.UserContext(), service.DeleteCommentInput{
		Actor:     actorFrom(c),
		CommentID: id,
	}); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
