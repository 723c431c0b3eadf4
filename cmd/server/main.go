// Command main is the entry point for the PetConnect backend server.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"petconnect/internal/bootstrap"
	"petconnect/internal/config"
	"petconnect/internal/mailqueue"
	"petconnect/internal/observability"
	"petconnect/internal/server"
)

// @title PetConnect API
// @version 1.0
// @description Pet social network with connections, missing pet alerts, AI pet care and a pet supply shop
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@petconnect.dev

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    "petconnect-api",
		ServiceVersion: "1.0.0",
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   1.0,
	})
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}

	db, redisClient, err := bootstrap.InitRuntime(cfg, bootstrap.Options{ApplySchema: true})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}

	srv, err := server.NewServerWithDeps(cfg, db, redisClient, server.Deps{})
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The API publishes login codes to RabbitMQ; this process also drains
	// the queue into SMTP when both are configured.
	if cfg.RabbitMQURL != "" {
		if smtp := bootstrap.SMTPSender(cfg); smtp != nil {
			consumer, err := mailqueue.NewConsumer(cfg.RabbitMQURL, cfg.MailQueue, smtp)
			if err != nil {
				log.Printf("WARNING: mail consumer disabled: %v", err)
			} else {
				defer func() { _ = consumer.Close() }()
				if err := consumer.Start(ctx); err != nil {
					log.Printf("WARNING: mail consumer failed to start: %v", err)
				}
			}
		}
	}

	go func() {
		<-ctx.Done()
		log.Println("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Printf("Tracing shutdown error: %v", err)
		}
	}()

	if err := srv.Start(); err != nil {
		log.Printf("Server stopped: %v", err)
		os.Exit(1)
	}
}
