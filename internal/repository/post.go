package repository

import (
	"context"
	"errors"

	"quill/internal/models"

	"gorm.io/gorm"
)

// PageSize is the fixed number of posts per feed page.
const PageSize = 10

// pageOffset converts a 1-indexed page number into a row offset. Pages
// below 1 are clamped to the first page; pages beyond the data simply
// produce empty result sets.
func pageOffset(page int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * PageSize
}

// PostRepository defines the interface for post data operations. All listing
// methods return one feed page, newest-first.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	GetByAuthorAndID(ctx context.Context, username string, id uint) (*models.Post, error)
	ListPage(ctx context.Context, page int) ([]*models.Post, error)
	ListByGroup(ctx context.Context, groupID uint, page int) ([]*models.Post, error)
	ListByAuthor(ctx context.Context, authorID uint, page int) ([]*models.Post, error)
	ListFollowing(ctx context.Context, userID uint, page int) ([]*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).Preload("Author").Preload("Group").First(&post, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &post, nil
}

// GetByAuthorAndID resolves a post by id only when it belongs to the named
// author, matching the /{username}/{post_id}/ address shape.
func (r *postRepository) GetByAuthorAndID(ctx context.Context, username string, id uint) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).
		Joins("JOIN users ON users.id = posts.author_id").
		Where("posts.id = ? AND users.username = ?", id, username).
		Preload("Author").
		Preload("Group").
		First(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &post, nil
}

func (r *postRepository) feedQuery(ctx context.Context, page int) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Author").
		Preload("Group").
		Order("posts.created_at DESC, posts.id DESC").
		Limit(PageSize).
		Offset(pageOffset(page))
}

func (r *postRepository) ListPage(ctx context.Context, page int) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.feedQuery(ctx, page).Find(&posts).Error
	return posts, err
}

func (r *postRepository) ListByGroup(ctx context.Context, groupID uint, page int) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.feedQuery(ctx, page).Where("group_id = ?", groupID).Find(&posts).Error
	return posts, err
}

func (r *postRepository) ListByAuthor(ctx context.Context, authorID uint, page int) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.feedQuery(ctx, page).Where("author_id = ?", authorID).Find(&posts).Error
	return posts, err
}

// ListFollowing returns one page of posts written by authors the user
// follows; posts of anyone else never appear.
func (r *postRepository) ListFollowing(ctx context.Context, userID uint, page int) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.feedQuery(ctx, page).
		Joins("JOIN follows ON follows.author_id = posts.author_id").
		Where("follows.user_id = ?", userID).
		Find(&posts).Error
	return posts, err
}

// Update persists the editable fields only. The author and the creation
// timestamp are invariant under edit.
func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).
		Model(&models.Post{ID: post.ID}).
		Updates(map[string]interface{}{
			"text":      post.Text,
			"image_url": post.ImageURL,
			"group_id":  post.GroupID,
		}).Error
}

// Delete removes a post together with its comments in one transaction.
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Post{}, id).Error
	})
}
