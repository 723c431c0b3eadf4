package service

import (
	"context"
	"math"
	"strings"

	"petconnect/internal/models"
	"petconnect/internal/repository"
	"petconnect/internal/validation"
)

type CatalogService struct {
	categoryRepo repository.CategoryRepository
	productRepo  repository.ProductRepository
}

type CategoryInput struct {
	Name        string
	Description string
}

type ProductInput struct {
	Name        string
	Description string
	Price       float64
	Quantity    int
	ImageURL    string
	CategoryID  uint
}

func NewCatalogService(categoryRepo repository.CategoryRepository, productRepo repository.ProductRepository) *CatalogService {
	return &CatalogService{categoryRepo: categoryRepo, productRepo: productRepo}
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.categoryRepo.List(ctx)
}

func (s *CatalogService) GetCategory(ctx context.Context, id uint) (*models.Category, error) {
	return s.categoryRepo.GetByID(ctx, id)
}

func (in *CategoryInput) validate() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return models.NewValidationError("Category name is required")
	}
	if tooLong(in.Name, 100) {
		return models.NewValidationError("Category name too long (max 100 characters)")
	}
	return nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, in CategoryInput) (*models.Category, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	category := &models.Category{Name: in.Name, Description: in.Description}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id uint, in CategoryInput) (*models.Category, error) {
	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	category.Name = in.Name
	category.Description = in.Description
	if err := s.categoryRepo.Update(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id uint) error {
	return s.categoryRepo.Delete(ctx, id)
}

func (s *CatalogService) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]models.Product, error) {
	filter.Query = strings.TrimSpace(filter.Query)
	return s.productRepo.List(ctx, filter)
}

// GetProduct returns the product with its category attached.
func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.attachCategory(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *CatalogService) attachCategory(ctx context.Context, product *models.Product) error {
	category, err := s.categoryRepo.GetByID(ctx, product.CategoryID)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return nil
		}
		return err
	}
	product.Category = category
	return nil
}

// validateProduct checks fields and returns the referenced category.
func (s *CatalogService) validateProduct(ctx context.Context, in *ProductInput) (*models.Category, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, models.NewValidationError("Product name is required")
	}
	if tooLong(in.Name, 150) {
		return nil, models.NewValidationError("Product name too long (max 150 characters)")
	}
	if !(in.Price > 0) || math.IsInf(in.Price, 0) {
		return nil, models.NewValidationError("Price must be greater than 0")
	}
	if in.Price >= 1e8 {
		return nil, models.NewValidationError("Price is too large")
	}
	if in.Quantity < 0 {
		return nil, models.NewValidationError("Quantity cannot be negative")
	}
	if err := validation.ValidateImageURL(in.ImageURL); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if in.CategoryID == 0 {
		return nil, models.NewValidationError("Category is required")
	}
	return s.categoryRepo.GetByID(ctx, in.CategoryID)
}

func roundPrice(p float64) float64 {
	return math.Round(p*100) / 100
}

func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	category, err := s.validateProduct(ctx, &in)
	if err != nil {
		return nil, err
	}
	product := &models.Product{
		Name:        in.Name,
		Description: in.Description,
		Price:       roundPrice(in.Price),
		Quantity:    in.Quantity,
		ImageURL:    in.ImageURL,
		CategoryID:  in.CategoryID,
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}
	product.Category = category
	return product, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id uint, in ProductInput) (*models.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	category, err := s.validateProduct(ctx, &in)
	if err != nil {
		return nil, err
	}

	product.Name = in.Name
	product.Description = in.Description
	product.Price = roundPrice(in.Price)
	product.Quantity = in.Quantity
	product.ImageURL = in.ImageURL
	product.CategoryID = in.CategoryID
	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}
	product.Category = category
	return product, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id uint) error {
	return s.productRepo.Delete(ctx, id)
}
