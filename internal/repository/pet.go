package repository

import (
	"context"

	"petconnect/internal/models"

	"gorm.io/gorm"
)

// PetRepository defines persistence operations for pet profiles.
type PetRepository interface {
	Create(ctx context.Context, pet *models.Pet) error
	GetByID(ctx context.Context, id uint) (*models.Pet, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Pet, error)
	Update(ctx context.Context, pet *models.Pet) error
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)
}

type petRepository struct {
	db *gorm.DB
}

func NewPetRepository(db *gorm.DB) PetRepository {
	return &petRepository{db: db}
}

func (r *petRepository) Create(ctx context.Context, pet *models.Pet) error {
	if err := r.db.WithContext(ctx).Create(pet).Error; err != nil {
		return models.NewInternalError(err)
	}
	if err := r.db.WithContext(ctx).Preload("User").First(pet, pet.ID).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *petRepository) GetByID(ctx context.Context, id uint) (*models.Pet, error) {
	var pet models.Pet
	if err := readDB(r.db).WithContext(ctx).Preload("User").First(&pet, id).Error; err != nil {
		return nil, notFoundOr(err, "Pet", id)
	}
	return &pet, nil
}

func (r *petRepository) ListByUser(ctx context.Context, userID uint) ([]models.Pet, error) {
	var pets []models.Pet
	err := readDB(r.db).WithContext(ctx).
		Preload("User").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&pets).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return pets, nil
}

func (r *petRepository) Update(ctx context.Context, pet *models.Pet) error {
	err := r.db.WithContext(ctx).Model(&models.Pet{ID: pet.ID}).
		Select("Name", "Species", "Breed", "Age", "ImageURL").
		Updates(pet).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *petRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Pet{}, id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Pet", id)
	}
	return nil
}

func (r *petRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := readDB(r.db).WithContext(ctx).Model(&models.Pet{}).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}
