package service

import (
	"context"
	"strings"

	"miniblog/internal/models"
	"miniblog/internal/notifications"
	"miniblog/internal/observability"
	"miniblog/internal/policy"
	"miniblog/internal/repository"
	"miniblog/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

// PostListKind selects a post listing.
type PostListKind int

const (
	ListApproved PostListKind = iota
	ListAll
	ListPending
	ListMine
	ListMyRejected
)

type PostService struct {
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	notify      Dispatcher
}

type CreatePostInput struct {
	Actor   policy.Actor
	Title   string
	Content string
}

type UpdatePostInput struct {
	Actor   policy.Actor
	PostID  uint
	Title   string
	Content string
}

type ListPostsInput struct {
	Actor  policy.Actor
	Kind   PostListKind
	Limit  int
	Offset int
}

func NewPostService(
	postRepo repository.PostRepository,
	commentRepo repository.CommentRepository,
	notify Dispatcher,
) *PostService {
	return &PostService{
		postRepo:    postRepo,
		commentRepo: commentRepo,
		notify:      dispatcherOrNoop(notify),
	}
}

// CreatePost stores a new post. Staff authors skip the moderation queue.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.PostView, error) {
	if _, err := authorize(in.Actor, policy.CreatePost, policy.Resource{}, "You cannot create posts"); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	content := strings.TrimSpace(in.Content)
	if err := validation.ValidatePostInput(title, content); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	status := models.PostStatusPending
	if in.Actor.IsStaff() {
		status = models.PostStatusApproved
	}
	post := &models.Post{
		Title:   title,
		Content: content,
		UserID:  in.Actor.UserID,
		Status:  status,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	created, err := s.postRepo.GetByID(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	view := models.NewPostView(created)
	return &view, nil
}

// UpdatePost rewrites title and content. Only the author may do this.
func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.PostView, error) {
	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if _, err := authorize(in.Actor, policy.UpdatePost, policy.Resource{OwnerID: post.UserID}, "You can only update your own posts"); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	content := strings.TrimSpace(in.Content)
	if err := validation.ValidatePostInput(title, content); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	post.Title = title
	post.Content = content
	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}

	updated, err := s.postRepo.GetByID(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	view := models.NewPostView(updated)
	return &view, nil
}

// DeletePost removes the post and its comments. Only the author may do this.
func (s *PostService) DeletePost(ctx context.Context, actor policy.Actor, postID uint) error {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if _, err := authorize(actor, policy.DeletePost, policy.Resource{OwnerID: post.UserID}, "You can only delete your own posts"); err != nil {
		return err
	}
	return s.postRepo.DeleteWithComments(ctx, postID)
}

func (s *PostService) ApprovePost(ctx context.Context, actor policy.Actor, postID uint) (*models.PostView, error) {
	return s.moderate(ctx, actor, postID, models.PostStatusApproved)
}

func (s *PostService) RejectPost(ctx context.Context, actor policy.Actor, postID uint) (*models.PostView, error) {
	return s.moderate(ctx, actor, postID, models.PostStatusRejected)
}

// moderate applies a Pending -> Approved/Rejected transition, then notifies the
// author. A notification failure is returned alongside the committed view.
func (s *PostService) moderate(ctx context.Context, actor policy.Actor, postID uint, to models.PostStatus) (*models.PostView, error) {
	ctx, span := observability.StartSpan(ctx, "posts", "moderate",
		attribute.Int64("post.id", int64(postID)),
		attribute.String("post.to_status", string(to)),
	)
	var err error
	defer func() { span.End(err) }()

	var post *models.Post
	if post, err = s.postRepo.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	if _, err = authorize(actor, policy.ModeratePost, policy.Resource{OwnerID: post.UserID, Status: post.Status}, "Only moderators can approve or reject posts"); err != nil {
		return nil, err
	}
	if !post.Status.CanTransitionTo(to) {
		err = models.NewConflictError("Post is already " + string(post.Status))
		return nil, err
	}

	var moved bool
	if moved, err = s.postRepo.TransitionStatus(ctx, postID, models.PostStatusPending, to); err != nil {
		return nil, err
	}
	if !moved {
		err = models.NewConflictError("Post is no longer pending")
		return nil, err
	}
	observability.PostsModerated.WithLabelValues(string(to)).Inc()

	post.Status = to
	view := models.NewPostView(post)

	msg := notifications.PostApproved(recipientOf(&post.User), post.Title)
	if to == models.PostStatusRejected {
		msg = notifications.PostRejected(recipientOf(&post.User), post.Title)
	}
	if err = s.notify.Dispatch(ctx, msg); err != nil {
		return &view, err
	}
	return &view, nil
}

// ListPosts returns posts newest first. The result is never nil.
func (s *PostService) ListPosts(ctx context.Context, in ListPostsInput) ([]models.PostView, error) {
	filter := repository.PostFilter{}
	switch in.Kind {
	case ListApproved:
		filter.Status = models.PostStatusApproved
	case ListAll:
		if _, err := authorize(in.Actor, policy.ViewPending, policy.Resource{}, "Only moderators can list every post"); err != nil {
			return nil, err
		}
	case ListPending:
		if _, err := authorize(in.Actor, policy.ViewPending, policy.Resource{}, "Only moderators can view pending posts"); err != nil {
			return nil, err
		}
		filter.Status = models.PostStatusPending
	case ListMine, ListMyRejected:
		if !in.Actor.Authenticated() {
			return nil, models.NewUnauthorizedError("Authentication required")
		}
		filter.AuthorID = in.Actor.UserID
		if in.Kind == ListMyRejected {
			filter.Status = models.PostStatusRejected
		}
	}

	posts, err := s.postRepo.List(ctx, filter, repository.Page{Limit: in.Limit, Offset: in.Offset})
	if err != nil {
		return nil, err
	}
	return models.NewPostViews(posts), nil
}

// SearchPosts matches approved posts case-insensitively. A blank query lists
// every approved post.
func (s *PostService) SearchPosts(ctx context.Context, query string, limit, offset int) ([]models.PostView, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.ListPosts(ctx, ListPostsInput{Kind: ListApproved, Limit: limit, Offset: offset})
	}
	posts, err := s.postRepo.Search(ctx, query, repository.Page{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return models.NewPostViews(posts), nil
}

// GetPost returns a post with its comments. Posts the actor may not see are NotFound.
func (s *PostService) GetPost(ctx context.Context, actor policy.Actor, postID uint) (*models.PostDetail, error) {
	post, err := s.visiblePost(ctx, actor, postID)
	if err != nil {
		return nil, err
	}
	comments, err := s.commentRepo.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	return &models.PostDetail{
		PostView: models.NewPostView(post),
		Comments: models.NewCommentViews(comments),
	}, nil
}

func (s *PostService) visiblePost(ctx context.Context, actor policy.Actor, postID uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	res := policy.Resource{OwnerID: post.UserID, Status: post.Status}
	if !policy.Decide(actor, policy.ViewPost, res).Allowed() {
		return nil, models.NewNotFoundError("Post", postID)
	}
	return post, nil
}
