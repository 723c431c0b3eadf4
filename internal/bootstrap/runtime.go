// Package bootstrap wires the process-level dependencies shared by the API
// server and the command line tools.
package bootstrap

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"petconnect/internal/cache"
	"petconnect/internal/config"
	"petconnect/internal/database"
	"petconnect/internal/mail"
	"petconnect/internal/mailqueue"
	"petconnect/internal/models"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// ApplySchema runs migrations (per DB_SCHEMA_MODE) before returning.
	ApplySchema bool
}

// InitRuntime connects to the database and Redis, applies the schema when
// asked to, and ensures the development root admin.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: opts.ApplySchema})
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Init Redis (may result in nil client if unreachable)
	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if err := ensureDevRootAdmin(cfg, db); err != nil {
		return nil, nil, fmt.Errorf("failed to bootstrap development root admin: %w", err)
	}

	return db, r, nil
}

// SMTPSender builds the direct SMTP sender, or nil when SMTP is not configured.
func SMTPSender(cfg *config.Config) *mail.SMTPSender {
	if !cfg.SMTPConfigured() {
		return nil
	}
	port, err := strconv.Atoi(cfg.SMTPPort)
	if err != nil || port <= 0 {
		port = 587
	}
	return mail.NewSMTPSender(cfg.SMTPHost, port, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
}

// Mailer picks how login codes leave the API: RabbitMQ when configured, then
// direct SMTP, then a log-only sender. The returned close func is never nil.
func Mailer(cfg *config.Config) (mail.Sender, func() error) {
	noop := func() error { return nil }

	if cfg.RabbitMQURL != "" {
		pub, err := mailqueue.NewPublisher(cfg.RabbitMQURL, cfg.MailQueue)
		if err == nil {
			return pub, pub.Close
		}
		log.Printf("WARNING: mail queue unavailable, falling back: %v", err)
	}
	if smtp := SMTPSender(cfg); smtp != nil {
		return smtp, noop
	}
	return mail.LogSender{Env: cfg.Env}, noop
}

func ensureDevRootAdmin(cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil {
		return nil
	}
	if !strings.EqualFold(cfg.Env, "development") || !cfg.DevBootstrapRoot {
		return nil
	}

	username := strings.TrimSpace(cfg.DevRootUsername)
	if username == "" {
		username = "root"
	}
	email := strings.TrimSpace(strings.ToLower(cfg.DevRootEmail))
	if email == "" {
		email = "root@petconnect.local"
	}
	password := cfg.DevRootPassword
	if password == "" {
		return fmt.Errorf("DEV_ROOT_PASSWORD must be set when DEV_BOOTSTRAP_ROOT is enabled")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash root password: %w", err)
	}

	if err := db.Transaction(func(tx *gorm.DB) error {
		var root models.User
		findErr := tx.Where("email = ?", email).First(&root).Error
		switch {
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			root = models.User{
				Username: username,
				Email:    email,
				Password: string(hashedPassword),
				FullName: "PetConnect Root",
				Role:     models.RoleAdmin,
			}
			return tx.Create(&root).Error
		case findErr != nil:
			return findErr
		default:
			updates := map[string]any{"role": models.RoleAdmin}
			if cfg.DevRootForceCredentials {
				updates["username"] = username
				updates["password"] = string(hashedPassword)
			}
			return tx.Model(&models.User{}).Where("id = ?", root.ID).Updates(updates).Error
		}
	}); err != nil {
		return err
	}

	log.Printf("development root admin bootstrap ensured (%s)", email)
	return nil
}
