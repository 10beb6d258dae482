package repository

import (
	"context"
	"regexp"
	"testing"

	"miniblog/internal/cache"
	"miniblog/internal/models"
	"miniblog/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostRepository_Create_Mock(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db, nil)

	post := &models.Post{Title: "Test Post", Content: "Content", UserID: 1, Status: models.PostStatusPending}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "posts"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	require.NoError(t, repo.Create(context.Background(), post))
	assert.Equal(t, uint(1), post.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_ListFilters(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewPostRepository(db, nil)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice", models.RoleUser)
	bob := testutil.CreateUser(t, db, "bob", models.RoleUser)
	testutil.CreatePost(t, db, alice, "first", models.PostStatusApproved)
	testutil.CreatePost(t, db, alice, "second", models.PostStatusPending)
	newest := testutil.CreatePost(t, db, bob, "third", models.PostStatusApproved)
	testutil.CreatePost(t, db, bob, "fourth", models.PostStatusRejected)

	approved, err := repo.List(ctx, PostFilter{Status: models.PostStatusApproved}, Page{})
	require.NoError(t, err)
	require.Len(t, approved, 2)
	assert.Equal(t, newest.ID, approved[0].ID)
	assert.Equal(t, "bob", approved[0].User.Username)

	mine, err := repo.List(ctx, PostFilter{AuthorID: alice.ID}, Page{})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	rejected, err := repo.List(ctx, PostFilter{Status: models.PostStatusRejected, AuthorID: alice.ID}, Page{})
	require.NoError(t, err)
	assert.NotNil(t, rejected)
	assert.Empty(t, rejected)

	paged, err := repo.List(ctx, PostFilter{}, Page{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, "third", paged[0].Title)
}

func TestPostRepository_Search(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewPostRepository(db, nil)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice", models.RoleUser)
	testutil.CreatePost(t, db, alice, "Go Tips", models.PostStatusApproved)
	testutil.CreatePost(t, db, alice, "go draft", models.PostStatusPending)
	testutil.CreatePost(t, db, alice, "100% done", models.PostStatusApproved)

	found, err := repo.Search(ctx, "GO", Page{})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Go Tips", found[0].Title)

	pct, err := repo.Search(ctx, "%", Page{})
	require.NoError(t, err)
	require.Len(t, pct, 1)
	assert.Equal(t, "100% done", pct[0].Title)

	none, err := repo.Search(ctx, "nothing", Page{})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestPostRepository_TransitionStatus(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewPostRepository(db, nil)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice", models.RoleUser)
	post := testutil.CreatePost(t, db, alice, "pending", models.PostStatusPending)

	ok, err := repo.TransitionStatus(ctx, post.ID, models.PostStatusPending, models.PostStatusApproved)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.TransitionStatus(ctx, post.ID, models.PostStatusPending, models.PostStatusRejected)
	require.NoError(t, err)
	assert.False(t, ok)

	loaded, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusApproved, loaded.Status)
}

func TestPostRepository_UpdateKeepsStatus(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewPostRepository(db, nil)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice", models.RoleUser)
	post := testutil.CreatePost(t, db, alice, "old", models.PostStatusApproved)

	post.Title = "new"
	post.Status = models.PostStatusRejected
	require.NoError(t, repo.Update(ctx, post))

	loaded, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", loaded.Title)
	assert.Equal(t, models.PostStatusApproved, loaded.Status)

	err = repo.Update(ctx, &models.Post{ID: 999, Title: "x"})
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestPostRepository_DeleteWithComments(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewPostRepository(db, nil)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice", models.RoleUser)
	bob := testutil.CreateUser(t, db, "bob", models.RoleUser)
	post := testutil.CreatePost(t, db, alice, "doomed", models.PostStatusApproved)
	testutil.CreateComment(t, db, bob, post, "one")
	testutil.CreateComment(t, db, alice, post, "two")

	require.NoError(t, repo.DeleteWithComments(ctx, post.ID))

	var comments int64
	require.NoError(t, db.Model(&models.Comment{}).Count(&comments).Error)
	assert.Zero(t, comments)

	_, err := repo.GetByID(ctx, post.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	err = repo.DeleteWithComments(ctx, post.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestPostRepository_CommentsRestrictPostDelete(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewPostRepository(db, nil)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice", models.RoleUser)
	post := testutil.CreatePost(t, db, alice, "guarded", models.PostStatusApproved)
	testutil.CreateComment(t, db, alice, post, "still here")

	assert.Error(t, db.Delete(&models.Post{}, post.ID).Error, "a post with comments cannot be deleted directly")

	var comments int64
	require.NoError(t, db.Model(&models.Comment{}).Where("post_id = ?", post.ID).Count(&comments).Error)
	assert.EqualValues(t, 1, comments)

	require.NoError(t, repo.DeleteWithComments(ctx, post.ID))
	var posts int64
	require.NoError(t, db.Model(&models.Post{}).Where("id = ?", post.ID).Count(&posts).Error)
	assert.Zero(t, posts)
}

func TestPostRepository_ApprovedListCacheInvalidatesOnTransition(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	db := testutil.NewSQLiteDB(t)
	repo := NewPostRepository(db, cache.NewStore(rdb))
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice", models.RoleUser)
	post := testutil.CreatePost(t, db, alice, "pending", models.PostStatusPending)

	before, err := repo.List(ctx, PostFilter{Status: models.PostStatusApproved}, Page{Limit: 20})
	require.NoError(t, err)
	assert.Empty(t, before)

	ok, err := repo.TransitionStatus(ctx, post.ID, models.PostStatusPending, models.PostStatusApproved)
	require.NoError(t, err)
	require.True(t, ok)

	after, err := repo.List(ctx, PostFilter{Status: models.PostStatusApproved}, Page{Limit: 20})
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, post.ID, after[0].ID)
}
