package database

import (
	"testing"

	"petconnect/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestConfigurePool(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	cfg := &config.Config{
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           5,
		DBConnMaxLifetimeMinutes: 15,
	}
	require.NoError(t, configurePool(db, cfg))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 10, sqlDB.Stats().MaxOpenConnections)
}

func TestConfigurePool_Defaults(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, configurePool(db, &config.Config{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 25, sqlDB.Stats().MaxOpenConnections)
}

func TestReplicaDSN_FallsBackToPrimaryCredentials(t *testing.T) {
	cfg := &config.Config{
		DBHost:     "primary",
		DBPort:     "5432",
		DBUser:     "app",
		DBPassword: "secret",
		DBName:     "petconnect",
		DBReadHost: "replica",
	}

	assert.Equal(t,
		"host=replica port=5432 user=app password=secret dbname=petconnect sslmode=disable",
		replicaDSN(cfg))

	cfg.DBReadUser = "reader"
	cfg.DBSSLMode = "require"
	assert.Contains(t, replicaDSN(cfg), "user=reader")
	assert.Contains(t, primaryDSN(cfg), "host=primary")
	assert.Contains(t, primaryDSN(cfg), "sslmode=require")
}

func TestGetReadDB_NilWithoutReplica(t *testing.T) {
	replicaEnabled = false
	assert.Nil(t, GetReadDB())
}
