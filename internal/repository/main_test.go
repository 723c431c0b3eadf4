package repository

import (
	"testing"

	"petconnect/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func setupTestDB(t *testing.T) *gorm.DB {
	return testutil.NewSQLiteDB(t)
}

var (
	createUser    = testutil.CreateUser
	createPost    = testutil.CreatePost
	connect       = testutil.Connect
	createProduct = testutil.CreateProduct
	withLocation  = testutil.WithLocation
	asAdmin       = testutil.AsAdmin
)
