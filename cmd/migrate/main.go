// Command migrate runs schema operations for the backend.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"

	"petconnect/internal/config"
	"petconnect/internal/database"

	"gorm.io/gorm"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func usage() error {
	return fmt.Errorf("usage: go run ./cmd/migrate <up|auto|status|list|inspect|reset|down> [version|table]")
}

func run() error {
	flag.Parse()
	if flag.NArg() < 1 {
		return usage()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: false})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	ctx := context.Background()
	cmd := strings.ToLower(strings.TrimSpace(flag.Arg(0)))
	switch cmd {
	case "up":
		if err := database.RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("sql migrations failed: %w", err)
		}
		log.Println("sql migrations applied")
	case "auto":
		cfg.DBSchemaMode = database.SchemaModeAuto
		if err := database.ApplySchema(ctx, db, cfg); err != nil {
			return fmt.Errorf("auto schema apply failed: %w", err)
		}
		log.Println("automigrations applied")
	case "status":
		status, err := database.GetSchemaStatus(ctx, db, cfg)
		if err != nil {
			return fmt.Errorf("schema status failed: %w", err)
		}
		log.Printf("mode=%s env=%s run_sql=%t run_auto=%t applied=%d pending=%d", status.Mode, status.Environment, status.WillRunSQL, status.WillRunAutoMigrate, len(status.AppliedVersions), len(status.PendingMigrations))
		for _, m := range status.PendingMigrations {
			marker := ""
			if m.IsDestructive() {
				marker = " (destructive)"
			}
			log.Printf("pending: %06d_%s%s", m.Version, m.Name, marker)
		}
		if len(status.MissingTables) > 0 {
			log.Printf("missing tables: %s", strings.Join(status.MissingTables, ", "))
		}
	case "list":
		applied := make(map[int]bool)
		status, err := database.GetSchemaStatus(ctx, db, cfg)
		if err != nil {
			return fmt.Errorf("schema status failed: %w", err)
		}
		for _, v := range status.AppliedVersions {
			applied[v] = true
		}
		for _, m := range database.GetMigrations() {
			mark := " "
			if applied[m.Version] {
				mark = "x"
			}
			log.Printf("[%s] %06d_%s", mark, m.Version, m.Name)
		}
	case "inspect":
		return inspect(db, flag.Arg(1))
	case "reset":
		if cfg.IsProduction() {
			return fmt.Errorf("refusing to reset a production database")
		}
		if err := db.Exec("DROP SCHEMA public CASCADE; CREATE SCHEMA public;").Error; err != nil {
			return fmt.Errorf("drop schema failed: %w", err)
		}
		if err := db.Exec("GRANT ALL ON SCHEMA public TO public;").Error; err != nil {
			return fmt.Errorf("grant schema permissions failed: %w", err)
		}
		log.Println("public schema dropped and recreated; run `up` or `auto` next")
	case "down":
		if flag.NArg() < 2 {
			return fmt.Errorf("usage: go run ./cmd/migrate down <version>")
		}
		version, err := strconv.Atoi(flag.Arg(1))
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", flag.Arg(1), err)
		}
		if err := database.RollbackMigration(ctx, db, version); err != nil {
			return fmt.Errorf("rollback failed: %w", err)
		}
		log.Printf("rolled back migration %d", version)
	default:
		return usage()
	}

	return nil
}

// inspect prints the public tables with their row counts, or the columns and
// constraints of one table.
func inspect(db *gorm.DB, table string) error {
	if table == "" {
		var tables []string
		if err := db.Raw("SELECT table_name FROM information_schema.tables WHERE table_schema = 'public' ORDER BY table_name").
			Scan(&tables).Error; err != nil {
			return err
		}
		for _, t := range tables {
			var count int64
			if err := db.Table(t).Count(&count).Error; err != nil {
				return fmt.Errorf("count %s: %w", t, err)
			}
			log.Printf("%-24s %d rows", t, count)
		}
		return nil
	}

	var columns []struct {
		ColumnName string `gorm:"column:column_name"`
		DataType   string `gorm:"column:data_type"`
		IsNullable string `gorm:"column:is_nullable"`
	}
	if err := db.Raw("SELECT column_name, data_type, is_nullable FROM information_schema.columns WHERE table_schema = 'public' AND table_name = ? ORDER BY ordinal_position", table).
		Scan(&columns).Error; err != nil {
		return err
	}
	if len(columns) == 0 {
		return fmt.Errorf("table %q not found", table)
	}
	log.Printf("Columns in %s:", table)
	for _, c := range columns {
		log.Printf(" - %s: %s (nullable=%s)", c.ColumnName, c.DataType, c.IsNullable)
	}

	var constraints []struct {
		ConstraintName string `gorm:"column:constraint_name"`
		ConstraintType string `gorm:"column:constraint_type"`
	}
	if err := db.Raw("SELECT constraint_name, constraint_type FROM information_schema.table_constraints WHERE table_schema = 'public' AND table_name = ? ORDER BY constraint_name", table).
		Scan(&constraints).Error; err != nil {
		return err
	}
	log.Printf("Constraints in %s:", table)
	for _, c := range constraints {
		log.Printf(" - %s: %s", c.ConstraintName, c.ConstraintType)
	}
	return nil
}
