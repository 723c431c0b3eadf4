package database

import "petconnect/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models,
// ordered so that referenced tables come first.
func PersistentModels() []any {
	return []any{
		&models.User{},
		&models.Pet{},
		&models.Post{},
		&models.Comment{},
		&models.PostLike{},
		&models.Follow{},
		&models.Category{},
		&models.Product{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.Notification{},
		&models.MissingPetReport{},
		&models.MissingPetContact{},
	}
}
