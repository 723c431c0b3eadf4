package repository

import (
	"context"

	"petconnect/internal/cache"
	"petconnect/internal/models"

	"gorm.io/gorm"
)

// CategoryRepository persists shop categories.
type CategoryRepository interface {
	List(ctx context.Context) ([]models.Category, error)
	GetByID(ctx context.Context, id uint) (*models.Category, error)
	Create(ctx context.Context, category *models.Category) error
	Update(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, id uint) error
}

type categoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) List(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := cache.Aside(ctx, cache.CategoryListKey, &categories, cache.CategoryTTL, func() error {
		if err := readDB(r.db).WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *categoryRepository) GetByID(ctx context.Context, id uint) (*models.Category, error) {
	var category models.Category
	err := cache.Aside(ctx, cache.CategoryKey(id), &category, cache.CategoryTTL, func() error {
		if err := readDB(r.db).WithContext(ctx).First(&category, id).Error; err != nil {
			return notFoundOr(err, "Category", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) Create(ctx context.Context, category *models.Category) error {
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Category name already exists")
		}
		return models.NewInternalError(err)
	}
	cache.Invalidate(ctx, cache.CategoryListKey)
	return nil
}

func (r *categoryRepository) Update(ctx context.Context, category *models.Category) error {
	err := r.db.WithContext(ctx).Model(&models.Category{ID: category.ID}).
		Select("Name", "Description").
		Updates(category).Error
	if err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Category name already exists")
		}
		return models.NewInternalError(err)
	}
	cache.InvalidateCategory(ctx, category.ID)
	return nil
}

// Delete refuses while any product still references the category.
func (r *categoryRepository) Delete(ctx context.Context, id uint) error {
	var inUse int64
	if err := r.db.WithContext(ctx).Model(&models.Product{}).Where("category_id = ?", id).Count(&inUse).Error; err != nil {
		return models.NewInternalError(err)
	}
	if inUse > 0 {
		return models.NewConflictError("Category still has products")
	}

	res := r.db.WithContext(ctx).Delete(&models.Category{}, id)
	if res.Error != nil {
		if isForeignKeyError(res.Error) {
			return models.NewConflictError("Category still has products")
		}
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Category", id)
	}
	cache.InvalidateCategory(ctx, id)
	return nil
}

// ProductFilter narrows a product listing. Zero values match everything.
type ProductFilter struct {
	CategoryID uint
	Query      string
}

// ProductRepository persists shop products.
type ProductRepository interface {
	List(ctx context.Context, filter ProductFilter) ([]models.Product, error)
	ListAvailable(ctx context.Context) ([]models.Product, error)
	GetByID(ctx context.Context, id uint) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) List(ctx context.Context, filter ProductFilter) ([]models.Product, error) {
	q := readDB(r.db).WithContext(ctx).Preload("Category")
	if filter.CategoryID != 0 {
		q = q.Where("category_id = ?", filter.CategoryID)
	}
	if filter.Query != "" {
		like := likePattern(filter.Query)
		q = q.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}

	var products []models.Product
	if err := q.Order("name ASC").Find(&products).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return products, nil
}

// ListAvailable returns in-stock products; the diet recommender embeds these.
func (r *productRepository) ListAvailable(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := readDB(r.db).WithContext(ctx).
		Preload("Category").
		Where("is_available = ?", true).
		Order("name ASC").
		Find(&products).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return products, nil
}

// GetByID is cache-aside. The cached copy has no Category loaded.
func (r *productRepository) GetByID(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	err := cache.Aside(ctx, cache.ProductKey(id), &product, cache.ProductTTL, func() error {
		if err := readDB(r.db).WithContext(ctx).First(&product, id).Error; err != nil {
			return notFoundOr(err, "Product", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) Create(ctx context.Context, product *models.Product) error {
	product.SyncAvailability()
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		if isForeignKeyError(err) {
			return models.NewNotFoundError("Category", product.CategoryID)
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *productRepository) Update(ctx context.Context, product *models.Product) error {
	product.SyncAvailability()
	err := r.db.WithContext(ctx).Model(&models.Product{ID: product.ID}).
		Select("Name", "Description", "Price", "Quantity", "ImageURL", "IsAvailable", "CategoryID").
		Updates(product).Error
	if err != nil {
		if isForeignKeyError(err) {
			return models.NewNotFoundError("Category", product.CategoryID)
		}
		return models.NewInternalError(err)
	}
	cache.InvalidateProducts(ctx, product.ID)
	return nil
}

func (r *productRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Product{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		if isForeignKeyError(err) {
			return models.NewConflictError("Product is referenced by existing orders")
		}
		return notFoundOr(err, "Product", id)
	}
	cache.InvalidateProducts(ctx, id)
	return nil
}

func (r *productRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := readDB(r.db).WithContext(ctx).Model(&models.Product{}).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}
