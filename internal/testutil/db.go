// Package testutil provides shared test doubles and fixtures for backend tests.
package testutil

import (
	"fmt"
	"testing"

	"petconnect/internal/database"
	"petconnect/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewSQLiteDB returns a fresh in-memory SQLite database carrying the full
// schema, with foreign keys enforced. It is closed when the test ends.
func NewSQLiteDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every pooled connection to :memory: is its own database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	return db
}

// UserOption tweaks a fixture user before insert.
type UserOption func(*models.User)

func WithLocation(lat, lon float64) UserOption {
	return func(u *models.User) {
		u.Latitude = &lat
		u.Longitude = &lon
	}
}

func WithPassword(hash string) UserOption {
	return func(u *models.User) { u.Password = hash }
}

func AsAdmin(u *models.User) {
	u.Role = models.RoleAdmin
}

// CreateUser inserts a user named after username, e.g. "alice" becomes
// alice@example.com / "alice Tester".
func CreateUser(t testing.TB, db *gorm.DB, username string, opts ...UserOption) *models.User {
	t.Helper()
	u := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "hash",
		FullName: fmt.Sprintf("%s Tester", username),
		Phone:    "555-0100",
		Role:     models.RoleUser,
	}
	for _, opt := range opts {
		opt(u)
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func CreatePost(t testing.TB, db *gorm.DB, userID uint, title string, vis models.Visibility) *models.Post {
	t.Helper()
	p := &models.Post{Title: title, Description: title + " body", UserID: userID, Visibility: vis}
	require.NoError(t, db.Create(p).Error)
	return p
}

func Connect(t testing.TB, db *gorm.DB, follower, following uint, status models.FollowStatus) {
	t.Helper()
	require.NoError(t, db.Create(&models.Follow{FollowerID: follower, FollowingID: following, Status: status}).Error)
}

// CreateProduct inserts a product in the shared "Food" category.
func CreateProduct(t testing.TB, db *gorm.DB, name string, price float64, qty int) *models.Product {
	t.Helper()
	var cat models.Category
	require.NoError(t, db.FirstOrCreate(&cat, models.Category{Name: "Food"}).Error)
	p := &models.Product{Name: name, Price: price, Quantity: qty, CategoryID: cat.ID}
	p.SyncAvailability()
	require.NoError(t, db.Create(p).Error)
	return p
}
