package repository

import (
	"context"

	"petconnect/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint, currentUserID uint) (*models.Post, error)
	GetByUserID(ctx context.Context, userID uint, limit, offset int, currentUserID uint) ([]*models.Post, error)
	Feed(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error
	ToggleLike(ctx context.Context, userID, postID uint) (liked bool, likesCount int64, err error)
	Count(ctx context.Context) (int64, error)
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
	if post.Visibility == "" {
		post.Visibility = models.VisibilityPublic
	}
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint, currentUserID uint) (*models.Post, error) {
	var post models.Post
	err := r.applyPostDetails(readDB(r.db).WithContext(ctx), currentUserID).
		Preload("User").
		First(&post, id).Error
	if err != nil {
		return nil, notFoundOr(err, "Post", id)
	}
	return &post, nil
}

func (r *postRepository) GetByUserID(ctx context.Context, userID uint, limit, offset int, currentUserID uint) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.applyPostDetails(readDB(r.db).WithContext(ctx), currentUserID).
		Preload("User").
		Where("posts.user_id = ?", userID).
		Order("posts.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// Feed returns the caller's own posts, every PUBLIC post and CONNECTIONS posts
// authored by accepted connections, newest first.
func (r *postRepository) Feed(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	db := readDB(r.db).WithContext(ctx)
	following := db.Model(&models.Follow{}).Select("following_id").
		Where("follower_id = ? AND status = ?", userID, models.FollowStatusAccepted)
	followers := db.Model(&models.Follow{}).Select("follower_id").
		Where("following_id = ? AND status = ?", userID, models.FollowStatusAccepted)

	var posts []*models.Post
	err := r.applyPostDetails(db, userID).
		Preload("User").
		Where(db.Where("posts.user_id = ?", userID).
			Or("posts.visibility = ?", models.VisibilityPublic).
			Or(db.Where("posts.visibility = ?", models.VisibilityConnections).
				Where(db.Where("posts.user_id IN (?)", following).Or("posts.user_id IN (?)", followers)))).
		Order("posts.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// applyPostDetails adds subqueries to fetch counts and liked status in a single query.
func (r *postRepository) applyPostDetails(db *gorm.DB, currentUserID uint) *gorm.DB {
	selectQuery := "posts.*, " +
		"(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id) AS comments_count, " +
		"(SELECT COUNT(*) FROM post_likes WHERE post_likes.post_id = posts.id) AS likes_count"

	if currentUserID != 0 {
		return db.Select(selectQuery+", EXISTS(SELECT 1 FROM post_likes WHERE post_likes.post_id = posts.id AND post_likes.user_id = ?) AS liked_by_me", currentUserID)
	}

	return db.Select(selectQuery + ", false AS liked_by_me")
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	err := r.db.WithContext(ctx).Model(&models.Post{ID: post.ID}).
		Select("Title", "Description", "ImageURL", "Visibility").
		Updates(post).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// Delete removes the post with its likes and comments.
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.PostLike{}).Error; err != nil {
			return err
		}
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
		return notFoundOr(err, "Post", id)
	}
	return nil
}

// ToggleLike removes the caller's like if present, otherwise adds it, and
// returns the new state with the fresh like count.
func (r *postRepository) ToggleLike(ctx context.Context, userID, postID uint) (bool, int64, error) {
	var liked bool
	var count int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND post_id = ?", userID, postID).Delete(&models.PostLike{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// ON CONFLICT DO NOTHING keeps a concurrent double-like idempotent
			like := models.PostLike{UserID: userID, PostID: postID}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&like).Error; err != nil {
				return err
			}
			liked = true
		}
		return tx.Model(&models.PostLike{}).Where("post_id = ?", postID).Count(&count).Error
	})
	if err != nil {
		return false, 0, models.NewInternalError(err)
	}
	return liked, count, nil
}

func (r *postRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := readDB(r.db).WithContext(ctx).Model(&models.Post{}).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}
