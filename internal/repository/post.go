package repository

import (
	"context"

	"miniblog/internal/cache"
	"miniblog/internal/models"

	"gorm.io/gorm"
)

// PostFilter narrows a post listing. Zero values mean "any".
type PostFilter struct {
	Status   models.PostStatus
	AuthorID uint
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	TransitionStatus(ctx context.Context, id uint, from, to models.PostStatus) (bool, error)
	DeleteWithComments(ctx context.Context, id uint) error
	List(ctx context.Context, filter PostFilter, page Page) ([]models.Post, error)
	Search(ctx context.Context, query string, page Page) ([]models.Post, error)
}

// postRepository implements PostRepository
type postRepository struct {
	db    *gorm.DB
	cache *cache.Store
}

// NewPostRepository creates a post repository. store may be nil.
func NewPostRepository(db *gorm.DB, store *cache.Store) PostRepository {
	if store == nil {
		store = cache.NewStore(nil)
	}
	return &postRepository{db: db, cache: store}
}

func (r *postRepository) invalidate(ctx context.Context, id uint) {
	r.cache.Invalidate(ctx, cache.PostKey(id))
	r.cache.Bump(ctx, cache.ApprovedPostsGeneration)
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Omit("User").Create(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	if post.Status == models.PostStatusApproved {
		r.cache.Bump(ctx, cache.ApprovedPostsGeneration)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := r.cache.Aside(ctx, cache.PostKey(id), &post, cache.PostTTL, func() error {
		if err := r.db.WithContext(ctx).Preload("User").First(&post, id).Error; err != nil {
			return lookupError(err, "Post", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// Update writes title and content only; status and author are never touched here.
func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	res := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", post.ID).
		Updates(map[string]any{
			"title":   post.Title,
			"content": post.Content,
		})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Post", post.ID)
	}
	r.invalidate(ctx, post.ID)
	return nil
}

// TransitionStatus moves a post from one status to another atomically. It reports
// false when the post was not in the expected status.
func (r *postRepository) TransitionStatus(ctx context.Context, id uint, from, to models.PostStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	r.invalidate(ctx, id)
	return true, nil
}

// DeleteWithComments removes a post and its comments in one transaction.
func (r *postRepository) DeleteWithComments(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Post{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return lookupError(err, "Post", id)
	}
	r.invalidate(ctx, id)
	return nil
}

func (r *postRepository) List(ctx context.Context, filter PostFilter, page Page) ([]models.Post, error) {
	posts := []models.Post{}
	query := func() error {
		q := r.db.WithContext(ctx).Preload("User")
		if filter.Status != "" {
			q = q.Where("status = ?", filter.Status)
		}
		if filter.AuthorID != 0 {
			q = q.Where("user_id = ?", filter.AuthorID)
		}
		return page.apply(q.Order("created_at DESC").Order("id DESC")).Find(&posts).Error
	}

	var err error
	if filter == (PostFilter{Status: models.PostStatusApproved}) {
		gen := r.cache.Generation(ctx, cache.ApprovedPostsGeneration)
		key := cache.ApprovedPostsKey(gen, page.Limit, page.Offset)
		err = r.cache.Aside(ctx, key, &posts, cache.ApprovedPostsTTL, query)
	} else {
		err = query()
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// Search matches approved posts whose title or content contains query, ignoring case.
func (r *postRepository) Search(ctx context.Context, query string, page Page) ([]models.Post, error) {
	pattern := likePattern(query)
	posts := []models.Post{}
	err := page.apply(r.db.WithContext(ctx).
		Preload("User").
		Where("status = ?", models.PostStatusApproved).
		Where(`(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(content) LIKE ? ESCAPE '\')`, pattern, pattern).
		Order("created_at DESC").Order("id DESC")).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}
