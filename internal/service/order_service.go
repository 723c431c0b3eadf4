package service

import (
	"context"
	"strings"

	"petconnect/internal/models"
	"petconnect/internal/observability"
	"petconnect/internal/repository"
)

type OrderService struct {
	orderRepo repository.OrderRepository
	cartRepo  repository.CartRepository
	isAdmin   func(ctx context.Context, userID uint) (bool, error)
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	isAdmin func(ctx context.Context, userID uint) (bool, error),
) *OrderService {
	return &OrderService{orderRepo: orderRepo, cartRepo: cartRepo, isAdmin: isAdmin}
}

// Checkout turns the cart into an order. Stock is re-checked inside the
// transaction, so a concurrent buyer can still make this fail with OutOfStock;
// in that case nothing is written.
func (s *OrderService) Checkout(ctx context.Context, userID uint, transactionID *string) (*models.Order, error) {
	order, err := s.checkout(ctx, userID, transactionID)
	switch {
	case err == nil:
		observability.CheckoutOutcomes.WithLabelValues("success").Inc()
	case models.IsCode(err, models.CodeEmptyCart):
		observability.CheckoutOutcomes.WithLabelValues("empty_cart").Inc()
	case models.IsCode(err, models.CodeOutOfStock):
		observability.CheckoutOutcomes.WithLabelValues("out_of_stock").Inc()
	default:
		observability.CheckoutOutcomes.WithLabelValues("error").Inc()
	}
	return order, err
}

func (s *OrderService) checkout(ctx context.Context, userID uint, transactionID *string) (*models.Order, error) {
	items, err := s.cartRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, models.NewEmptyCartError()
	}

	lines := make([]repository.CheckoutLine, 0, len(items))
	var total float64
	for _, item := range items {
		if item.Product == nil {
			return nil, models.NewNotFoundError("Product", item.ProductID)
		}
		if item.Quantity > item.Product.Quantity {
			return nil, models.NewOutOfStockError(item.Product.Name)
		}
		total += item.Product.Price * float64(item.Quantity)
		lines = append(lines, repository.CheckoutLine{
			ProductID:   item.ProductID,
			ProductName: item.Product.Name,
			Quantity:    item.Quantity,
			Price:       item.Product.Price,
		})
	}

	status := models.OrderStatusPending
	if transactionID != nil {
		trimmed := strings.TrimSpace(*transactionID)
		if trimmed == "" {
			transactionID = nil
		} else {
			if tooLong(trimmed, 100) {
				return nil, models.NewValidationError("Transaction id too long (max 100 characters)")
			}
			transactionID = &trimmed
			status = models.OrderStatusPaid
		}
	}

	order := &models.Order{
		UserID:        userID,
		TotalPrice:    roundPrice(total),
		Status:        status,
		TransactionID: transactionID,
	}
	if err := s.orderRepo.Checkout(ctx, order, lines); err != nil {
		return nil, err
	}
	return s.orderRepo.GetByID(ctx, order.ID)
}

func (s *OrderService) ListUserOrders(ctx context.Context, userID uint) ([]models.Order, error) {
	return s.orderRepo.ListByUser(ctx, userID)
}

// GetOrder is visible to the buyer and to admins.
func (s *OrderService) GetOrder(ctx context.Context, userID, orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := ownerOrAdmin(ctx, s.isAdmin, userID, order.UserID, "You can only view your own orders"); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderService) ListAllOrders(ctx context.Context, limit, offset int) ([]models.Order, error) {
	limit, offset = clampPage(limit, offset)
	return s.orderRepo.List(ctx, limit, offset)
}

func (s *OrderService) UpdateStatus(ctx context.Context, orderID uint, raw string) (*models.Order, error) {
	status, ok := models.ParseOrderStatus(raw)
	if !ok {
		return nil, models.NewValidationError("Status must be one of PENDING, PAID, COMPLETED, CANCELLED")
	}
	if err := s.orderRepo.UpdateStatus(ctx, orderID, status); err != nil {
		return nil, err
	}
	return s.orderRepo.GetByID(ctx, orderID)
}
