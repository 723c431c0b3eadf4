package service

import (
	"context"

	"petconnect/internal/models"
	"petconnect/internal/repository"
)

type CartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) *CartService {
	return &CartService{cartRepo: cartRepo, productRepo: productRepo}
}

// GetCart returns the cart priced at current product prices.
func (s *CartService) GetCart(ctx context.Context, userID uint) (*models.CartDTO, error) {
	items, err := s.cartRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	cart := &models.CartDTO{Items: make([]models.CartItemDTO, 0, len(items))}
	for _, item := range items {
		line := models.CartItemDTO{
			CartItemID: item.ID,
			ProductID:  item.ProductID,
			Quantity:   item.Quantity,
		}
		if item.Product != nil {
			line.ProductName = item.Product.Name
			line.Price = item.Product.Price
			line.ImageURL = item.Product.ImageURL
		}
		cart.Total += line.Price * float64(line.Quantity)
		cart.Items = append(cart.Items, line)
	}
	cart.Total = roundPrice(cart.Total)
	return cart, nil
}

// AddItem adds quantity to the product's line, creating it if needed. The
// resulting line may not exceed current stock.
func (s *CartService) AddItem(ctx context.Context, userID, productID uint, quantity int) (*models.CartDTO, error) {
	if quantity < 1 {
		return nil, models.NewValidationError("Quantity must be at least 1")
	}
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	existing, err := s.cartRepo.GetByUserAndProduct(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	total := quantity
	if existing != nil {
		total += existing.Quantity
	}
	if total > product.Quantity {
		return nil, models.NewOutOfStockError(product.Name)
	}

	if existing != nil {
		err = s.cartRepo.UpdateQuantity(ctx, existing.ID, total)
	} else {
		err = s.cartRepo.Create(ctx, &models.CartItem{UserID: userID, ProductID: productID, Quantity: total})
	}
	if err != nil {
		return nil, err
	}
	return s.GetCart(ctx, userID)
}

func (s *CartService) ownedItem(ctx context.Context, userID, itemID uint) (*models.CartItem, error) {
	item, err := s.cartRepo.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.UserID != userID {
		return nil, models.NewForbiddenError("You can only modify your own cart")
	}
	return item, nil
}

func (s *CartService) UpdateItem(ctx context.Context, userID, itemID uint, quantity int) (*models.CartDTO, error) {
	if quantity < 1 {
		return nil, models.NewValidationError("Quantity must be at least 1")
	}
	item, err := s.ownedItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	product, err := s.productRepo.GetByID(ctx, item.ProductID)
	if err != nil {
		return nil, err
	}
	if quantity > product.Quantity {
		return nil, models.NewOutOfStockError(product.Name)
	}
	if err := s.cartRepo.UpdateQuantity(ctx, itemID, quantity); err != nil {
		return nil, err
	}
	return s.GetCart(ctx, userID)
}

func (s *CartService) RemoveItem(ctx context.Context, userID, itemID uint) error {
	if _, err := s.ownedItem(ctx, userID, itemID); err != nil {
		return err
	}
	return s.cartRepo.Delete(ctx, itemID)
}

func (s *CartService) Clear(ctx context.Context, userID uint) error {
	return s.cartRepo.Clear(ctx, userID)
}
