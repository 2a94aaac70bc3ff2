package repository

import (
	"context"
	"testing"
	"time"

	"quill/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostRepository_ListPageOrdering(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, "orderer")
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	first := createTestPost(t, db, author, "older", base)
	second := createTestPost(t, db, author, "newer", base.Add(time.Hour))

	posts, err := repo.ListPage(ctx, 1)
	require.NoError(t, err)
	require.Len(t, posts, 2)

	// Newest first: the later post precedes the earlier one.
	assert.Equal(t, second.ID, posts[0].ID)
	assert.Equal(t, first.ID, posts[1].ID)
	assert.Equal(t, "orderer", posts[0].Author.Username)
}

func TestPostRepository_Pagination(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, "paginator")
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		createTestPost(t, db, author, "post", base.Add(time.Duration(i)*time.Minute))
	}

	page1, err := repo.ListPage(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, page1, 10)

	page2, err := repo.ListPage(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, page2, 2)

	// A page past the end is empty, not an error.
	page3, err := repo.ListPage(ctx, 3)
	require.NoError(t, err)
	assert.Empty(t, page3)

	// Page numbers below 1 clamp to the first page.
	page0, err := repo.ListPage(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, page0, 10)
	assert.Equal(t, page1[0].ID, page0[0].ID)

	// Pages do not overlap.
	seen := make(map[uint]bool)
	for _, p := range append(page1, page2...) {
		assert.False(t, seen[p.ID])
		seen[p.ID] = true
	}
}

func TestPostRepository_ListByGroupAndAuthor(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	group := &models.Group{Title: "Go", Slug: "go"}
	require.NoError(t, db.Create(group).Error)

	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	tagged := &models.Post{Text: "in group", AuthorID: alice.ID, GroupID: &group.ID, CreatedAt: base}
	require.NoError(t, db.Create(tagged).Error)
	createTestPost(t, db, alice, "no group", base.Add(time.Minute))
	createTestPost(t, db, bob, "other author", base.Add(2*time.Minute))

	byGroup, err := repo.ListByGroup(ctx, group.ID, 1)
	require.NoError(t, err)
	require.Len(t, byGroup, 1)
	assert.Equal(t, tagged.ID, byGroup[0].ID)
	require.NotNil(t, byGroup[0].Group)
	assert.Equal(t, "go", byGroup[0].Group.Slug)

	byAuthor, err := repo.ListByAuthor(ctx, alice.ID, 1)
	require.NoError(t, err)
	assert.Len(t, byAuthor, 2)
	for _, p := range byAuthor {
		assert.Equal(t, alice.ID, p.AuthorID)
	}
}

func TestPostRepository_ListFollowing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	follows := NewFollowRepository(db)
	ctx := context.Background()

	follower := createTestUser(t, db, "follower")
	followed := createTestUser(t, db, "followed")
	stranger := createTestUser(t, db, "stranger")

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	wanted := createTestPost(t, db, followed, "from followed", base)
	createTestPost(t, db, stranger, "from stranger", base.Add(time.Minute))

	require.NoError(t, follows.Follow(ctx, follower.ID, followed.ID))

	feed, err := repo.ListFollowing(ctx, follower.ID, 1)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, wanted.ID, feed[0].ID)

	// A user following nobody has an empty following feed.
	empty, err := repo.ListFollowing(ctx, stranger.ID, 1)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestPostRepository_UpdateKeepsAuthorAndTimestamp(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, "owner")
	createdAt := time.Date(2026, 4, 1, 9, 30, 0, 0, time.UTC)
	post := createTestPost(t, db, author, "original", createdAt)

	post.Text = "edited"
	post.AuthorID = 999 // must not be persisted
	require.NoError(t, repo.Update(ctx, post))

	got, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Text)
	assert.Equal(t, author.ID, got.AuthorID)
	assert.True(t, got.CreatedAt.Equal(createdAt))
}

func TestPostRepository_DeleteCascadesComments(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, "cascader")
	post := createTestPost(t, db, author, "with comments", time.Now())
	other := createTestPost(t, db, author, "untouched", time.Now())

	require.NoError(t, db.Create(&models.Comment{Text: "one", AuthorID: author.ID, PostID: post.ID}).Error)
	require.NoError(t, db.Create(&models.Comment{Text: "two", AuthorID: author.ID, PostID: post.ID}).Error)
	require.NoError(t, db.Create(&models.Comment{Text: "keep", AuthorID: author.ID, PostID: other.ID}).Error)

	require.NoError(t, repo.Delete(ctx, post.ID))

	var comments int64
	require.NoError(t, db.Model(&models.Comment{}).Where("post_id = ?", post.ID).Count(&comments).Error)
	assert.Zero(t, comments)

	require.NoError(t, db.Model(&models.Comment{}).Where("post_id = ?", other.ID).Count(&comments).Error)
	assert.EqualValues(t, 1, comments)

	_, err := repo.GetByID(ctx, post.ID)
	require.Error(t, err)
	appErr, ok := err.(*models.AppError)
	require.True(t, ok)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}

func TestPostRepository_GetByAuthorAndID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	post := createTestPost(t, db, alice, "mine", time.Now())

	got, err := repo.GetByAuthorAndID(ctx, "alice", post.ID)
	require.NoError(t, err)
	assert.Equal(t, post.ID, got.ID)

	// The same id under the wrong username does not resolve.
	_, err = repo.GetByAuthorAndID(ctx, bob.Username, post.ID)
	require.Error(t, err)
}
