package repository

import (
	"context"
	"errors"

	"petconnect/internal/cache"
	"petconnect/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	ExistsByUsername(ctx context.Context, username string, excludeID uint) (bool, error)
	ExistsByEmail(ctx context.Context, email string, excludeID uint) (bool, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	UpdateLocation(ctx context.Context, id uint, lat, lon float64) error
	UpdateRole(ctx context.Context, id uint, role models.Role) error
	UpdatePassword(ctx context.Context, id uint, hash string) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, limit, offset int) ([]models.User, error)
	ListByRole(ctx context.Context, role models.Role) ([]models.User, error)
	ListWithLocation(ctx context.Context, excludeID uint) ([]models.User, error)
	Search(ctx context.Context, query string, excludeID uint, limit int) ([]models.User, error)
	Suggestions(ctx context.Context, userID uint, limit int) ([]models.User, error)
	Count(ctx context.Context) (int64, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// GetByID is served from cache when possible. Cached copies never carry the
// password hash; use GetByEmail or GetByUsername when the hash is needed.
func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := cache.Aside(ctx, cache.UserKey(id), &user, cache.UserTTL, func() error {
		if err := readDB(r.db).WithContext(ctx).First(&user, id).Error; err != nil {
			return notFoundOr(err, "User", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, "username = ?", username)
}

// findOne returns (nil, nil) when no row matches.
func (r *userRepository) findOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var user models.User
	if err := readDB(r.db).WithContext(ctx).Where(query, arg).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) ExistsByUsername(ctx context.Context, username string, excludeID uint) (bool, error) {
	return r.exists(ctx, "username = ?", username, excludeID)
}

func (r *userRepository) ExistsByEmail(ctx context.Context, email string, excludeID uint) (bool, error) {
	return r.exists(ctx, "email = ?", email, excludeID)
}

func (r *userRepository) exists(ctx context.Context, query string, arg any, excludeID uint) (bool, error) {
	q := r.db.WithContext(ctx).Model(&models.User{}).Where(query, arg)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Username or email already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

// Update writes the editable profile columns only. Role, password and
// coordinates have their own setters.
func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	err := r.db.WithContext(ctx).Model(&models.User{ID: user.ID}).
		Select("Username", "Email", "FullName", "Phone", "ImageURL", "Bio").
		Updates(user).Error
	if err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Username or email already exists")
		}
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, user.ID)
	return nil
}

func (r *userRepository) UpdateLocation(ctx context.Context, id uint, lat, lon float64) error {
	return r.updateColumns(ctx, id, map[string]any{"latitude": lat, "longitude": lon})
}

func (r *userRepository) UpdateRole(ctx context.Context, id uint, role models.Role) error {
	return r.updateColumns(ctx, id, map[string]any{"role": role})
}

func (r *userRepository) UpdatePassword(ctx context.Context, id uint, hash string) error {
	return r.updateColumns(ctx, id, map[string]any{"password": hash})
}

func (r *userRepository) updateColumns(ctx context.Context, id uint, cols map[string]any) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User", id)
	}
	cache.InvalidateUser(ctx, id)
	return nil
}

// Delete removes the user and everything they own in one transaction.
// Children are removed explicitly so the result does not depend on the
// driver enforcing ON DELETE CASCADE.
func (r *userRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ownPosts := tx.Model(&models.Post{}).Select("id").Where("user_id = ?", id)
		ownReports := tx.Model(&models.MissingPetReport{}).Select("id").Where("reporter_id = ?", id)
		ownOrders := tx.Model(&models.Order{}).Select("id").Where("user_id = ?", id)

		steps := []struct {
			model any
			query string
			args  []any
		}{
			{&models.PostLike{}, "user_id = ? OR post_id IN (?)", []any{id, ownPosts}},
			{&models.Comment{}, "user_id = ? OR post_id IN (?)", []any{id, ownPosts}},
			{&models.Post{}, "user_id = ?", []any{id}},
			{&models.Pet{}, "user_id = ?", []any{id}},
			{&models.Follow{}, "follower_id = ? OR following_id = ?", []any{id, id}},
			{&models.CartItem{}, "user_id = ?", []any{id}},
			{&models.Notification{}, "user_id = ?", []any{id}},
			{&models.MissingPetContact{}, "contact_user_id = ? OR report_id IN (?)", []any{id, ownReports}},
			{&models.MissingPetReport{}, "reporter_id = ?", []any{id}},
			{&models.OrderItem{}, "order_id IN (?)", []any{ownOrders}},
			{&models.Order{}, "user_id = ?", []any{id}},
		}
		for _, s := range steps {
			if err := tx.Where(s.query, s.args...).Delete(s.model).Error; err != nil {
				return err
			}
		}

		res := tx.Delete(&models.User{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("User", id)
		}
		return nil
	})
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			return err
		}
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, id)
	return nil
}

func (r *userRepository) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	var users []models.User
	if err := readDB(r.db).WithContext(ctx).Order("id ASC").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *userRepository) ListByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	var users []models.User
	if err := readDB(r.db).WithContext(ctx).Where("role = ?", role).Order("id ASC").Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

// ListWithLocation returns every user with both coordinates set, except excludeID.
func (r *userRepository) ListWithLocation(ctx context.Context, excludeID uint) ([]models.User, error) {
	var users []models.User
	err := readDB(r.db).WithContext(ctx).
		Where("latitude IS NOT NULL AND longitude IS NOT NULL AND id <> ?", excludeID).
		Find(&users).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

// Search matches full name, username or email case-insensitively, skipping
// excludeID and admins.
func (r *userRepository) Search(ctx context.Context, query string, excludeID uint, limit int) ([]models.User, error) {
	like := likePattern(query)
	var users []models.User
	err := readDB(r.db).WithContext(ctx).
		Where("id <> ? AND role <> ?", excludeID, models.RoleAdmin).
		Where("LOWER(full_name) LIKE ? OR LOWER(username) LIKE ? OR LOWER(email) LIKE ?", like, like, like).
		Order("full_name ASC").
		Limit(clampLimit(limit, 20, 100)).
		Find(&users).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

// Suggestions lists newest non-admin users with no follow edge to or from userID.
func (r *userRepository) Suggestions(ctx context.Context, userID uint, limit int) ([]models.User, error) {
	db := readDB(r.db).WithContext(ctx)
	outgoing := db.Model(&models.Follow{}).Select("following_id").Where("follower_id = ?", userID)
	incoming := db.Model(&models.Follow{}).Select("follower_id").Where("following_id = ?", userID)

	var users []models.User
	err := db.
		Where("id <> ? AND role <> ?", userID, models.RoleAdmin).
		Where("id NOT IN (?)", outgoing).
		Where("id NOT IN (?)", incoming).
		Order("created_at DESC").
		Limit(clampLimit(limit, 10, 50)).
		Find(&users).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *userRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := readDB(r.db).WithContext(ctx).Model(&models.User{}).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}
