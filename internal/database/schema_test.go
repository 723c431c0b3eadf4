package database

import (
	"context"
	"testing"

	"petconnect/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestSchemaPolicy(t *testing.T) {
	tests := []struct {
		name        string
		mode        string
		env         string
		destructive bool
		wantSQL     bool
		wantAuto    bool
		wantErr     bool
	}{
		{"hybrid in development", "", "development", false, true, true, false},
		{"hybrid in production", "hybrid", "production", false, true, false, false},
		{"sql only", "sql", "development", false, true, false, false},
		{"auto in development", "auto", "development", false, false, true, false},
		{"auto refused in production", "auto", "production", false, false, false, true},
		{"auto allowed in production when destructive", "auto", "production", true, false, true, false},
		{"unknown mode", "yolo", "development", false, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{
				DBSchemaMode:                  tt.mode,
				Env:                           tt.env,
				DBAutoMigrateAllowDestructive: tt.destructive,
			}
			runSQL, runAuto, err := schemaPolicy(cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.wantSQL, runSQL)
			assert.Equal(t, tt.wantAuto, runAuto)
		})
	}
}

func TestValidateAppliedVersions(t *testing.T) {
	registered := []Migration{{Version: 1, Name: "init"}}
	assert.NoError(t, validateAppliedVersions(nil, registered))
	assert.NoError(t, validateAppliedVersions([]int{1}, registered))

	err := validateAppliedVersions([]int{1, 7}, registered)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "000007")
}

func TestMigrationIsDestructive(t *testing.T) {
	tests := []struct {
		name string
		up   string
		want bool
	}{
		{"create table", "CREATE TABLE IF NOT EXISTS pets (id BIGSERIAL PRIMARY KEY);", false},
		{"add column", "ALTER TABLE notifications ADD COLUMN IF NOT EXISTS related_report_id BIGINT;", false},
		{"drop column", "ALTER TABLE pets drop column age;", true},
		{"drop table", "DROP TABLE IF EXISTS cart_items;", true},
		{"truncate", "TRUNCATE orders;", true},
		{"dropped_at column name", "ALTER TABLE orders ADD COLUMN dropped_at TIMESTAMPTZ;", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Migration{UpScript: tt.up}
			assert.Equal(t, tt.want, m.IsDestructive())
		})
	}

	for _, m := range GetMigrations() {
		assert.False(t, m.IsDestructive(), "shipped migration %s must be additive", m.String())
	}
}

func TestGuardDestructive(t *testing.T) {
	pending := []Migration{
		{Version: 3, Name: "add_index", UpScript: "CREATE INDEX idx ON pets (species);"},
		{Version: 4, Name: "drop_legacy", UpScript: "DROP TABLE legacy;"},
	}

	assert.NoError(t, guardDestructive(&config.Config{Env: "development"}, pending))
	assert.NoError(t, guardDestructive(&config.Config{Env: "production"}, pending[:1]))
	assert.NoError(t, guardDestructive(&config.Config{Env: "production", DBAutoMigrateAllowDestructive: true}, pending))

	err := guardDestructive(&config.Config{Env: "staging"}, pending)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "000004_drop_legacy")
	assert.NotContains(t, err.Error(), "add_index")
}

func TestGetSchemaStatus_MissingTables(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	cfg := &config.Config{Env: "development", DBSchemaMode: SchemaModeAuto}
	ctx := context.Background()

	status, err := GetSchemaStatus(ctx, db, cfg)
	require.NoError(t, err)
	assert.Contains(t, status.MissingTables, "missing_pet_reports")
	assert.Len(t, status.MissingTables, len(PersistentModels()))
	assert.Empty(t, status.PendingMigrations, "auto mode does not track SQL migrations")

	require.NoError(t, ApplySchema(ctx, db, cfg))

	status, err = GetSchemaStatus(ctx, db, cfg)
	require.NoError(t, err)
	assert.Empty(t, status.MissingTables)
}
