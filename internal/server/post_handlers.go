package server

import (
	"miniblog/internal/models"
	"miniblog/internal/service"

	"github.com/gofiber/fiber/v2"
)

type postRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// GetPosts handles GET /api/posts
// @Summary List approved posts
// @Description Approved posts newest first. Staff may pass scope=all to include every status.
// @Tags posts
// @Produce json
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Offset"
// @Param scope query string false "all (moderators and admins only)"
// @Success 200 {array} models.PostView
// @Failure 403 {object} models.ErrorResponse
// @Router /posts [get]
func (s *Server) GetPosts(c *fiber.Ctx) error {
	kind := service.ListApproved
	if c.Query("scope") == "all" {
		kind = service.ListAll
	}
	return s.listPosts(c, kind)
}

// GetPendingPosts handles GET /api/posts/pending
// @Summary Moderation queue
// @Tags moderation
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Offset"
// @Success 200 {array} models.PostView
// @Failure 403 {object} models.ErrorResponse
// @Router /posts/pending [get]
func (s *Server) GetPendingPosts(c *fiber.Ctx) error {
	page := parsePagination(c, defaultPageSize)
	posts, err := s.moderationService.PendingPosts(c.UserContext(), actorFrom(c), page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(posts)
}

// GetMyPosts handles GET /api/posts/mine (and /api/myposts)
// @Summary Caller's posts with their status
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.PostView
// @Router /posts/mine [get]
func (s *Server) GetMyPosts(c *fiber.Ctx) error {
	return s.listPosts(c, service.ListMine)
}

// GetMyRejectedPosts handles GET /api/posts/rejected
// @Summary Caller's rejected posts
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.PostView
// @Router /posts/rejected [get]
func (s *Server) GetMyRejectedPosts(c *fiber.Ctx) error {
	return s.listPosts(c, service.ListMyRejected)
}

func (s *Server) listPosts(c *fiber.Ctx, kind service.PostListKind) error {
	page := parsePagination(c, defaultPageSize)
	posts, err := s.postService.ListPosts(c.UserContext(), service.ListPostsInput{
		Actor:  actorFrom(c),
		Kind:   kind,
		Limit:  page.Limit,
		Offset: page.Offset,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(posts)
}

// SearchPosts handles GET /api/posts/search?q=
// @Summary Search approved posts
// @Description Case-insensitive match on title or content. Only approved posts are searched, so pending and rejected posts never appear. An empty query lists approved posts.
// @Tags posts
// @Produce json
// @Param q query string false "Search text"
// @Success 200 {array} models.PostView
// @Router /posts/search [get]
func (s *Server) SearchPosts(c *fiber.Ctx) error {
	page := parsePagination(c, defaultPageSize)
	posts, err := s.postService.SearchPosts(c.UserContext(), c.Query("q"), page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(posts)
}

// GetPost handles GET /api/posts/:id
// @Summary Get a post with its comments
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} models.PostDetail
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	post, err := s.postService.GetPost(c.UserContext(), actorFrom(c), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(post)
}

// GetPostComments handles GET /api/posts/:id/comments
// @Summary Comments of a post, oldest first
// @Tags comments
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {array} models.CommentView
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/comments [get]
func (s *Server) GetPostComments(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	comments, err := s.commentService.ListPostComments(c.UserContext(), actorFrom(c), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(comments)
}

// CreatePost handles POST /api/posts
// @Summary Create a post
// @Description Posts by users start Pending; posts by moderators and admins are approved immediately.
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body postRequest true "Post"
// @Success 201 {object} models.PostView
// @Failure 400 {object} models.ErrorResponse
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req postRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	post, err := s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
		Actor:   actorFrom(c),
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// UpdatePost handles PUT /api/posts/:id
// @Summary Edit own post
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body postRequest true "Post"
// @Success 200 {object} models.PostView
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [put]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req postRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	post, err := s.postService.UpdatePost(c.UserContext(), service.UpdatePostInput{
		Actor:   actorFrom(c),
		PostID:  id,
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(post)
}

// DeletePost handles DELETE /api/posts/:id
// @Summary Delete own post and its comments
// @Tags posts
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.postService.DeletePost(c.UserContext(), actorFrom(c), id); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
