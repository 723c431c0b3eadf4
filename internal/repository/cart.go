package repository

import (
	"context"
	"errors"

	"petconnect/internal/models"

	"gorm.io/gorm"
)

// CartRepository persists cart lines.
type CartRepository interface {
	ListByUser(ctx context.Context, userID uint) ([]models.CartItem, error)
	GetByID(ctx context.Context, id uint) (*models.CartItem, error)
	GetByUserAndProduct(ctx context.Context, userID, productID uint) (*models.CartItem, error)
	Create(ctx context.Context, item *models.CartItem) error
	UpdateQuantity(ctx context.Context, id uint, quantity int) error
	Delete(ctx context.Context, id uint) error
	Clear(ctx context.Context, userID uint) error
}

type cartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) ListByUser(ctx context.Context, userID uint) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return items, nil
}

func (r *cartRepository) GetByID(ctx context.Context, id uint) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.db.WithContext(ctx).Preload("Product").First(&item, id).Error; err != nil {
		return nil, notFoundOr(err, "Cart item", id)
	}
	return &item, nil
}

// GetByUserAndProduct returns (nil, nil) when the product is not in the cart.
func (r *cartRepository) GetByUserAndProduct(ctx context.Context, userID, productID uint) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).Where("user_id = ? AND product_id = ?", userID, productID).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &item, nil
}

func (r *cartRepository) Create(ctx context.Context, item *models.CartItem) error {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Product already in cart")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *cartRepository) UpdateQuantity(ctx context.Context, id uint, quantity int) error {
	res := r.db.WithContext(ctx).Model(&models.CartItem{}).Where("id = ?", id).Update("quantity", quantity)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Cart item", id)
	}
	return nil
}

func (r *cartRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.CartItem{}, id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Cart item", id)
	}
	return nil
}

func (r *cartRepository) Clear(ctx context.Context, userID uint) error {
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.CartItem{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
