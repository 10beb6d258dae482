package service

import (
	"context"

	"miniblog/internal/models"
	"miniblog/internal/policy"
)

// ModerationService is the staff view of the work queue.
type ModerationService struct {
	posts    *PostService
	comments *CommentService
}

// NewModerationService returns a new ModerationService.
func NewModerationService(posts *PostService, comments *CommentService) *ModerationService {
	return &ModerationService{posts: posts, comments: comments}
}

// PendingPosts lists posts awaiting a decision, newest first.
func (s *ModerationService) PendingPosts(ctx context.Context, actor policy.Actor, limit, offset int) ([]models.PostView, error) {
	return s.posts.ListPosts(ctx, ListPostsInput{Actor: actor, Kind: ListPending, Limit: limit, Offset: offset})
}

// AllComments lists every comment with author and post title, newest first.
func (s *ModerationService) AllComments(ctx context.Context, actor policy.Actor, limit, offset int) ([]models.CommentView, error) {
	return s.comments.ListAllComments(ctx, actor, limit, offset)
}

func (s *ModerationService) Approve(ctx context.Context, actor policy.Actor, postID uint) (*models.PostView, error) {
	return s.posts.ApprovePost(ctx, actor, postID)
}

func (s *ModerationService) Reject(ctx context.Context, actor policy.Actor, postID uint) (*models.PostView, error) {
	return s.posts.RejectPost(ctx, actor, postID)
}
