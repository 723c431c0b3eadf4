package repository

import (
	"context"
	"errors"

	"petconnect/internal/cache"
	"petconnect/internal/models"

	"gorm.io/gorm"
)

// CheckoutLine is one cart line priced at checkout time.
type CheckoutLine struct {
	ProductID   uint
	ProductName string
	Quantity    int
	Price       float64
}

// OrderRepository persists orders and runs the checkout transaction.
type OrderRepository interface {
	Checkout(ctx context.Context, order *models.Order, lines []CheckoutLine) error
	GetByID(ctx context.Context, id uint) (*models.Order, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Order, error)
	List(ctx context.Context, limit, offset int) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id uint, status models.OrderStatus) error
	Count(ctx context.Context) (int64, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// Checkout deducts stock with a compare-and-set per line, inserts the order
// with its items and clears the buyer's cart, all in one transaction. A line
// whose stock moved below the requested quantity aborts everything with an
// OutOfStock error.
func (r *orderRepository) Checkout(ctx context.Context, order *models.Order, lines []CheckoutLine) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, line := range lines {
			res := tx.Model(&models.Product{}).
				Where("id = ? AND quantity >= ?", line.ProductID, line.Quantity).
				Updates(map[string]any{
					"quantity":     gorm.Expr("quantity - ?", line.Quantity),
					"is_available": gorm.Expr("(quantity - ?) > 0", line.Quantity),
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return models.NewOutOfStockError(line.ProductName)
			}
		}

		order.Items = make([]models.OrderItem, 0, len(lines))
		for _, line := range lines {
			order.Items = append(order.Items, models.OrderItem{
				ProductID:       line.ProductID,
				Quantity:        line.Quantity,
				PriceAtPurchase: line.Price,
			})
		}
		if err := tx.Create(order).Error; err != nil {
			return err
		}

		return tx.Where("user_id = ?", order.UserID).Delete(&models.CartItem{}).Error
	})
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			return err
		}
		return models.NewInternalError(err)
	}

	ids := make([]uint, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}
	cache.InvalidateProducts(ctx, ids...)
	return nil
}

func (r *orderRepository) withDetails(db *gorm.DB) *gorm.DB {
	return db.Preload("User").Preload("Items").Preload("Items.Product")
}

func (r *orderRepository) GetByID(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	if err := r.withDetails(readDB(r.db).WithContext(ctx)).First(&order, id).Error; err != nil {
		return nil, notFoundOr(err, "Order", id)
	}
	return &order, nil
}

func (r *orderRepository) ListByUser(ctx context.Context, userID uint) ([]models.Order, error) {
	var orders []models.Order
	err := r.withDetails(readDB(r.db).WithContext(ctx)).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return orders, nil
}

func (r *orderRepository) List(ctx context.Context, limit, offset int) ([]models.Order, error) {
	var orders []models.Order
	err := r.withDetails(readDB(r.db).WithContext(ctx)).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&orders).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return orders, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id uint, status models.OrderStatus) error {
	res := r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Order", id)
	}
	return nil
}

func (r *orderRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := readDB(r.db).WithContext(ctx).Model(&models.Order{}).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}
