// Package main provides admin management utilities for PetConnect.
package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"petconnect/internal/bootstrap"
	"petconnect/internal/config"
	"petconnect/internal/models"

	"gorm.io/gorm"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  go run ./cmd/admin promote <user_id|username>  - Grant the ADMIN role")
	fmt.Println("  go run ./cmd/admin demote <user_id|username>   - Revert to the USER role")
	fmt.Println("  go run ./cmd/admin list-admins                 - List all admins")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, _, err := bootstrap.InitRuntime(cfg, bootstrap.Options{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	switch command := os.Args[1]; command {
	case "promote", "demote":
		if len(os.Args) < 3 {
			usage()
			os.Exit(1)
		}
		role := models.RoleAdmin
		if command == "demote" {
			role = models.RoleUser
		}
		if err := setRole(db, os.Args[2], role); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	case "list-admins":
		listAdmins(db)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		usage()
		os.Exit(1)
	}
}

func findUser(db *gorm.DB, ref string) (*models.User, error) {
	var user models.User
	q := db.Where("username = ?", ref)
	if id, err := strconv.ParseUint(ref, 10, 64); err == nil {
		q = db.Where("id = ?", id)
	}
	if err := q.First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %s not found", ref)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &user, nil
}

func setRole(db *gorm.DB, ref string, role models.Role) error {
	user, err := findUser(db, ref)
	if err != nil {
		return err
	}
	if user.Role == role {
		fmt.Printf("User %s (ID: %d) already has role %s\n", user.Username, user.ID, role)
		return nil
	}
	if err := db.Model(user).Update("role", role).Error; err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}
	fmt.Printf("✅ %s (ID: %d) is now %s\n", user.Username, user.ID, role)
	return nil
}

func listAdmins(db *gorm.DB) {
	var admins []models.User
	if err := db.Where("role = ?", models.RoleAdmin).Order("id").Find(&admins).Error; err != nil {
		log.Fatalf("Failed to fetch admins: %v", err)
	}

	if len(admins) == 0 {
		fmt.Println("No admins found in the system")
		return
	}

	fmt.Println("\n📋 Current Admins:")
	fmt.Println("─────────────────────────────────────")
	for _, admin := range admins {
		fmt.Printf("ID: %d | Username: %s | Email: %s\n", admin.ID, admin.Username, admin.Email)
	}
	fmt.Println("─────────────────────────────────────")
}
