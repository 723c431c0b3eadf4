package repository

import (
	"context"
	"errors"

	"petconnect/internal/models"

	"gorm.io/gorm"
)

// FollowRepository persists directed follow edges.
type FollowRepository interface {
	Get(ctx context.Context, followerID, followingID uint) (*models.Follow, error)
	Create(ctx context.Context, follow *models.Follow) error
	SetStatus(ctx context.Context, id uint, status models.FollowStatus) error
	DeleteBetween(ctx context.Context, a, b uint) (int64, error)
	DeletePending(ctx context.Context, followerID, followingID uint) (bool, error)
	EdgesBetween(ctx context.Context, userID uint, others []uint) ([]models.Follow, error)
	ListConnections(ctx context.Context, userID uint) ([]models.User, error)
	ListIncomingPending(ctx context.Context, userID uint) ([]models.Follow, error)
}

type followRepository struct {
	db *gorm.DB
}

func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db}
}

// Get returns (nil, nil) when there is no edge.
func (r *followRepository) Get(ctx context.Context, followerID, followingID uint) (*models.Follow, error) {
	var f models.Follow
	err := r.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		First(&f).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &f, nil
}

func (r *followRepository) Create(ctx context.Context, follow *models.Follow) error {
	if err := r.db.WithContext(ctx).Create(follow).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Connection already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *followRepository) SetStatus(ctx context.Context, id uint, status models.FollowStatus) error {
	if err := r.db.WithContext(ctx).Model(&models.Follow{ID: id}).Update("status", status).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// DeleteBetween removes every edge between a and b in either direction.
func (r *followRepository) DeleteBetween(ctx context.Context, a, b uint) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("(follower_id = ? AND following_id = ?) OR (follower_id = ? AND following_id = ?)", a, b, b, a).
		Delete(&models.Follow{})
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}

func (r *followRepository) DeletePending(ctx context.Context, followerID, followingID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ? AND status = ?", followerID, followingID, models.FollowStatusPending).
		Delete(&models.Follow{})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

// EdgesBetween returns all edges in either direction between userID and any of others.
func (r *followRepository) EdgesBetween(ctx context.Context, userID uint, others []uint) ([]models.Follow, error) {
	if len(others) == 0 {
		return nil, nil
	}
	var edges []models.Follow
	err := readDB(r.db).WithContext(ctx).
		Where("(follower_id = ? AND following_id IN ?) OR (following_id = ? AND follower_id IN ?)", userID, others, userID, others).
		Find(&edges).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return edges, nil
}

// ListConnections returns users joined to userID by an ACCEPTED edge in either direction.
func (r *followRepository) ListConnections(ctx context.Context, userID uint) ([]models.User, error) {
	db := readDB(r.db).WithContext(ctx)
	following := db.Model(&models.Follow{}).Select("following_id").
		Where("follower_id = ? AND status = ?", userID, models.FollowStatusAccepted)
	followers := db.Model(&models.Follow{}).Select("follower_id").
		Where("following_id = ? AND status = ?", userID, models.FollowStatusAccepted)

	var users []models.User
	err := db.Where("id IN (?) OR id IN (?)", following, followers).
		Order("full_name ASC").
		Find(&users).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *followRepository) ListIncomingPending(ctx context.Context, userID uint) ([]models.Follow, error) {
	var edges []models.Follow
	err := readDB(r.db).WithContext(ctx).
		Preload("Follower").
		Where("following_id = ? AND status = ?", userID, models.FollowStatusPending).
		Order("created_at DESC").
		Find(&edges).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return edges, nil
}
