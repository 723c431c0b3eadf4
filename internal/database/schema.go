package database

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"petconnect/internal/config"
	"petconnect/internal/middleware"

	"gorm.io/gorm"
)

// DB_SCHEMA_MODE values.
const (
	SchemaModeHybrid = "hybrid"
	SchemaModeSQL    = "sql"
	SchemaModeAuto   = "auto"
)

// SchemaStatus is what `migrate status` prints.
type SchemaStatus struct {
	Mode               string
	Environment        string
	WillRunSQL         bool
	WillRunAutoMigrate bool
	AppliedVersions    []int
	PendingMigrations  []Migration
	// DestructivePending lists pending migrations that drop or truncate data.
	DestructivePending []Migration
	// MissingTables are registered model tables absent from the database.
	MissingTables []string
}

var destructiveSQL = regexp.MustCompile(`(?i)\b(DROP\s+(TABLE|COLUMN|SCHEMA)|TRUNCATE)\b`)

// IsDestructive reports whether the migration's up script removes data.
func (m *Migration) IsDestructive() bool {
	return destructiveSQL.MatchString(m.UpScript)
}

func isProdLikeEnv(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "production", "prod", "staging", "stage":
		return true
	}
	return false
}

func normalizedSchemaMode(cfg *config.Config) string {
	mode := strings.ToLower(strings.TrimSpace(cfg.DBSchemaMode))
	if mode == "" {
		return SchemaModeHybrid
	}
	return mode
}

// schemaPolicy decides which schema tools run. Hybrid applies SQL everywhere
// and adds AutoMigrate only outside production-like environments.
func schemaPolicy(cfg *config.Config) (runSQL bool, runAuto bool, err error) {
	mode := normalizedSchemaMode(cfg)
	prodLike := isProdLikeEnv(cfg.Env)

	switch mode {
	case SchemaModeSQL:
		return true, false, nil
	case SchemaModeAuto:
		if prodLike && !cfg.DBAutoMigrateAllowDestructive {
			return false, false, fmt.Errorf("refusing DB_SCHEMA_MODE=auto in %q without DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE=true", cfg.Env)
		}
		return false, true, nil
	case SchemaModeHybrid:
		return true, !prodLike, nil
	default:
		return false, false, fmt.Errorf("unsupported DB_SCHEMA_MODE %q", mode)
	}
}

// guardDestructive refuses destructive pending migrations in production-like
// environments unless DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE is set.
func guardDestructive(cfg *config.Config, pending []Migration) error {
	if !isProdLikeEnv(cfg.Env) || cfg.DBAutoMigrateAllowDestructive {
		return nil
	}
	var names []string
	for _, m := range pending {
		if m.IsDestructive() {
			names = append(names, m.String())
		}
	}
	if len(names) == 0 {
		return nil
	}
	return fmt.Errorf("refusing destructive migrations in %q without DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE=true: %s",
		cfg.Env, strings.Join(names, ", "))
}

func pendingMigrations(applied []int) []Migration {
	done := make(map[int]bool, len(applied))
	for _, v := range applied {
		done[v] = true
	}
	var out []Migration
	for _, m := range GetMigrations() {
		if !done[m.Version] {
			out = append(out, m)
		}
	}
	return out
}

// missingTables returns the tables of PersistentModels not present in db.
func missingTables(db *gorm.DB) ([]string, error) {
	var missing []string
	for _, model := range PersistentModels() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			return nil, fmt.Errorf("parse model %T: %w", model, err)
		}
		if !db.Migrator().HasTable(stmt.Schema.Table) {
			missing = append(missing, stmt.Schema.Table)
		}
	}
	return missing, nil
}

func runAutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(PersistentModels()...)
}

// ApplySchema brings the schema up to date according to DB_SCHEMA_MODE.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	runSQL, runAuto, err := schemaPolicy(cfg)
	if err != nil {
		return err
	}

	if runSQL {
		if err := db.WithContext(ctx).AutoMigrate(&MigrationLog{}); err != nil {
			return fmt.Errorf("failed to ensure migration logs table: %w", err)
		}
		applied, err := NewMigrationStore(db).GetAppliedMigrations(ctx)
		if err != nil {
			return err
		}
		if err := guardDestructive(cfg, pendingMigrations(applied)); err != nil {
			return err
		}
		if err := RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("run sql migrations: %w", err)
		}
	}

	if runAuto {
		mode := normalizedSchemaMode(cfg)
		if mode == SchemaModeAuto && cfg.DBAutoMigrateAllowDestructive {
			middleware.Logger.Warn("DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE=true set for DB_SCHEMA_MODE=auto; review schema diffs before production deployment")
		}
		middleware.Logger.Info("Running GORM AutoMigrate", slog.String("mode", mode), slog.String("env", cfg.Env))
		if err := runAutoMigrate(db); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
	}

	missing, err := missingTables(db)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return fmt.Errorf("schema incomplete after apply, missing tables: %s", strings.Join(missing, ", "))
	}
	return nil
}

// GetSchemaStatus reports the policy, migration state and missing tables
// without changing anything.
func GetSchemaStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) (*SchemaStatus, error) {
	runSQL, runAuto, err := schemaPolicy(cfg)
	if err != nil {
		return nil, err
	}

	status := &SchemaStatus{
		Mode:               normalizedSchemaMode(cfg),
		Environment:        cfg.Env,
		WillRunSQL:         runSQL,
		WillRunAutoMigrate: runAuto,
	}

	if status.MissingTables, err = missingTables(db.WithContext(ctx)); err != nil {
		return nil, err
	}
	if !runSQL {
		return status, nil
	}

	if db.Migrator().HasTable(&MigrationLog{}) {
		applied, err := NewMigrationStore(db).GetAppliedMigrations(ctx)
		if err != nil {
			return nil, err
		}
		status.AppliedVersions = applied
	}
	status.PendingMigrations = pendingMigrations(status.AppliedVersions)
	for _, m := range status.PendingMigrations {
		if m.IsDestructive() {
			status.DestructivePending = append(status.DestructivePending, m)
		}
	}

	return status, nil
}
