package service

import (
	"context"
	"strings"

	"miniblog/internal/models"
	"miniblog/internal/notifications"
	"miniblog/internal/policy"
	"miniblog/internal/repository"
	"miniblog/internal/validation"
)

type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	userRepo    repository.UserRepository
	notify      Dispatcher
}

type CreateCommentInput struct {
	Actor  policy.Actor
	PostID uint
	Text   string
}

type DeleteCommentInput struct {
	Actor     policy.Actor
	CommentID uint
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	notify Dispatcher,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		userRepo:    userRepo,
		notify:      dispatcherOrNoop(notify),
	}
}

// AddComment stores a comment and tells the post author, unless they wrote it.
func (s *CommentService) AddComment(ctx context.Context, in CreateCommentInput) (*models.CommentView, error) {
	if _, err := authorize(in.Actor, policy.CreateComment, policy.Resource{}, "You cannot comment"); err != nil {
		return nil, err
	}
	if err := validation.ValidateCommentText(in.Text); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if !policy.Decide(in.Actor, policy.ViewPost, policy.Resource{OwnerID: post.UserID, Status: post.Status}).Allowed() {
		return nil, models.NewNotFoundError("Post", in.PostID)
	}

	comment := &models.Comment{
		Text:   strings.TrimSpace(in.Text),
		UserID: in.Actor.UserID,
		PostID: in.PostID,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	created, err := s.commentRepo.GetByID(ctx, comment.ID)
	if err != nil {
		return nil, err
	}
	view := models.NewCommentView(created)

	if post.UserID == in.Actor.UserID {
		return &view, nil
	}
	msg := notifications.CommentAdded(recipientOf(&post.User), created.User.Username, post.Title, created.Text)
	if err := s.notify.Dispatch(ctx, msg); err != nil {
		return &view, err
	}
	return &view, nil
}

// DeleteComment removes a comment. Comment and post authors may delete; staff
// may delete anything through the moderation path, which sends no notification.
func (s *CommentService) DeleteComment(ctx context.Context, in DeleteCommentInput) error {
	comment, err := s.commentRepo.GetByID(ctx, in.CommentID)
	if err != nil {
		return err
	}
	var postOwner uint
	if comment.Post != nil {
		postOwner = comment.Post.UserID
	}

	decision, err := authorize(in.Actor, policy.DeleteComment,
		policy.Resource{OwnerID: comment.UserID, ParentOwnerID: postOwner},
		"You can only delete your own comments or comments on your posts")
	if err != nil {
		return err
	}

	if err := s.commentRepo.Delete(ctx, in.CommentID); err != nil {
		return err
	}

	if decision == policy.AllowModeration ||
		comment.Post == nil ||
		comment.UserID == postOwner ||
		in.Actor.UserID == postOwner {
		return nil
	}
	return s.notifyRemoval(ctx, in.Actor, comment)
}

func (s *CommentService) notifyRemoval(ctx context.Context, actor policy.Actor, comment *models.Comment) error {
	owner, err := s.userRepo.GetByID(ctx, comment.Post.UserID)
	if err != nil {
		return err
	}
	remover, err := s.userRepo.GetByID(ctx, actor.UserID)
	if err != nil {
		return err
	}
	return s.notify.Dispatch(ctx, notifications.CommentRemoved(recipientOf(owner), remover.Username, comment.Post.Title))
}

// ListAllComments is the staff-only listing, newest first.
func (s *CommentService) ListAllComments(ctx context.Context, actor policy.Actor, limit, offset int) ([]models.CommentView, error) {
	if _, err := authorize(actor, policy.ViewAllComments, policy.Resource{}, "Only moderators can list all comments"); err != nil {
		return nil, err
	}
	comments, err := s.commentRepo.ListAll(ctx, repository.Page{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return models.NewCommentViews(comments), nil
}

// ListPostComments returns one post's comments, oldest first.
func (s *CommentService) ListPostComments(ctx context.Context, actor policy.Actor, postID uint) ([]models.CommentView, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !policy.Decide(actor, policy.ViewPost, policy.Resource{OwnerID: post.UserID, Status: post.Status}).Allowed() {
		return nil, models.NewNotFoundError("Post", postID)
	}
	comments, err := s.commentRepo.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	return models.NewCommentViews(comments), nil
}
