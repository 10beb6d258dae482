package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"miniblog/internal/models"
	"miniblog/internal/notifications"
	"miniblog/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn     func(context.Context, *models.Post) error
	getByIDFn    func(context.Context, uint) (*models.Post, error)
	updateFn     func(context.Context, *models.Post) error
	transitionFn func(context.Context, uint, models.PostStatus, models.PostStatus) (bool, error)
	deleteFn     func(context.Context, uint) error
	listFn       func(context.Context, repository.PostFilter, repository.Page) ([]models.Post, error)
	searchFn     func(context.Context, string, repository.Page) ([]models.Post, error)
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) Update(ctx context.Context, post *models.Post) error {
	return s.updateFn(ctx, post)
}
func (s *postRepoStub) TransitionStatus(ctx context.Context, id uint, from, to models.PostStatus) (bool, error) {
	return s.transitionFn(ctx, id, from, to)
}
func (s *postRepoStub) DeleteWithComments(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *postRepoStub) List(ctx context.Context, f repository.PostFilter, p repository.Page) ([]models.Post, error) {
	return s.listFn(ctx, f, p)
}
func (s *postRepoStub) Search(ctx context.Context, q string, p repository.Page) ([]models.Post, error) {
	return s.searchFn(ctx, q, p)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn:     func(_ context.Context, _ *models.Post) error { return nil },
		getByIDFn:    func(_ context.Context, id uint) (*models.Post, error) { return &models.Post{ID: id}, nil },
		updateFn:     func(_ context.Context, _ *models.Post) error { return nil },
		transitionFn: func(_ context.Context, _ uint, _, _ models.PostStatus) (bool, error) { return true, nil },
		deleteFn:     func(_ context.Context, _ uint) error { return nil },
		listFn: func(_ context.Context, _ repository.PostFilter, _ repository.Page) ([]models.Post, error) {
			return []models.Post{}, nil
		},
		searchFn: func(_ context.Context, _ string, _ repository.Page) ([]models.Post, error) {
			return []models.Post{}, nil
		},
	}
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn     func(context.Context, *models.Comment) error
	getByIDFn    func(context.Context, uint) (*models.Comment, error)
	listByPostFn func(context.Context, uint) ([]models.Comment, error)
	listAllFn    func(context.Context, repository.Page) ([]models.Comment, error)
	deleteFn     func(context.Context, uint) error
}

func (s *commentRepoStub) Create(ctx context.Context, comment *models.Comment) error {
	return s.createFn(ctx, comment)
}
func (s *commentRepoStub) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *commentRepoStub) ListByPost(ctx context.Context, postID uint) ([]models.Comment, error) {
	return s.listByPostFn(ctx, postID)
}
func (s *commentRepoStub) ListAll(ctx context.Context, p repository.Page) ([]models.Comment, error) {
	return s.listAllFn(ctx, p)
}
func (s *commentRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn:     func(_ context.Context, _ *models.Comment) error { return nil },
		getByIDFn:    func(_ context.Context, id uint) (*models.Comment, error) { return &models.Comment{ID: id}, nil },
		listByPostFn: func(_ context.Context, _ uint) ([]models.Comment, error) { return []models.Comment{}, nil },
		listAllFn:    func(_ context.Context, _ repository.Page) ([]models.Comment, error) { return []models.Comment{}, nil },
		deleteFn:     func(_ context.Context, _ uint) error { return nil },
	}
}

// recordingDispatcher captures dispatched messages and can be told to fail.
type recordingDispatcher struct {
	mu   sync.Mutex
	sent []notifications.Message
	err  error
}

func (d *recordingDispatcher) Dispatch(_ context.Context, msg notifications.Message) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, msg)
	return d.err
}

func (d *recordingDispatcher) messages() []notifications.Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]notifications.Message(nil), d.sent...)
}

// assertAppError asserts that err is an AppError with the given code.
func assertAppError(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertAppError(t, err, models.CodeValidation)
}
