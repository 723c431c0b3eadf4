// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"log"
	"time"

	_ "petconnect/docs" // swagger docs
	"petconnect/internal/bootstrap"
	"petconnect/internal/cache"
	"petconnect/internal/config"
	"petconnect/internal/database"
	"petconnect/internal/featureflags"
	"petconnect/internal/mail"
	"petconnect/internal/middleware"
	"petconnect/internal/models"
	"petconnect/internal/notifications"
	"petconnect/internal/otp"
	"petconnect/internal/repository"
	"petconnect/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	requestTimeout = 5 * time.Second
	maxImageBytes  = 10 << 20
)

// Deps overrides pieces NewServerWithDeps would otherwise build from config.
// Zero fields fall back to the defaults.
type Deps struct {
	Mailer   mail.Sender
	OTPStore otp.Store
}

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc
	closers        []func() error

	userRepo     repository.UserRepository
	notifier     *notifications.Notifier
	hub          *notifications.Hub
	featureFlags *featureflags.Manager
	memoryOTP    *otp.MemoryStore

	authService         *service.AuthService
	userService         *service.UserService
	followService       *service.FollowService
	petService          *service.PetService
	postService         *service.PostService
	commentService      *service.CommentService
	notificationService *service.NotificationService
	catalogService      *service.CatalogService
	cartService         *service.CartService
	orderService        *service.OrderService
	missingPetService   *service.MissingPetService
	aiService           *service.AIService
	uploadService       *service.UploadService
	adminService        *service.AdminService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	return NewServerWithDeps(cfg, db, cache.GetClient(), Deps{})
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, deps Deps) (*Server, error) {
	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("petconnect-api"),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
		hub:            notifications.NewHub(),
		notifier:       notifications.NewNotifier(redisClient),
	}

	userRepo := repository.NewUserRepository(db)
	petRepo := repository.NewPetRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	followRepo := repository.NewFollowRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	productRepo := repository.NewProductRepository(db)
	cartRepo := repository.NewCartRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	reportRepo := repository.NewMissingPetRepository(db)
	s.userRepo = userRepo

	otpStore := deps.OTPStore
	if otpStore == nil {
		if redisClient != nil {
			otpStore = otp.NewRedisStore(redisClient)
		} else {
			log.Println("WARNING: Redis unavailable, OTP codes are kept in process memory")
			s.memoryOTP = otp.NewMemoryStore()
			if err := s.memoryOTP.Start(); err != nil {
				return nil, fmt.Errorf("start otp sweeper: %w", err)
			}
			otpStore = s.memoryOTP
		}
	}

	mailer := deps.Mailer
	if mailer == nil {
		var closeMailer func() error
		mailer, closeMailer = bootstrap.Mailer(cfg)
		s.closers = append(s.closers, closeMailer)
	}

	isAdmin := service.AdminChecker(userRepo)
	dispatcher := notifications.NewDispatcher(s.hub, s.notifier)

	s.notificationService = service.NewNotificationService(notificationRepo, dispatcher)
	s.authService = service.NewAuthService(userRepo, otpStore, mailer, redisClient, cfg.JWTSecret)
	s.userService = service.NewUserService(userRepo)
	s.followService = service.NewFollowService(followRepo, userRepo, s.notificationService)
	s.petService = service.NewPetService(petRepo, isAdmin)
	s.postService = service.NewPostService(postRepo, followRepo, userRepo, s.notificationService, isAdmin)
	s.commentService = service.NewCommentService(commentRepo, s.postService, userRepo, s.notificationService, isAdmin)
	s.catalogService = service.NewCatalogService(categoryRepo, productRepo)
	s.cartService = service.NewCartService(cartRepo, productRepo)
	s.orderService = service.NewOrderService(orderRepo, cartRepo, isAdmin)
	s.missingPetService = service.NewMissingPetService(reportRepo, petRepo, userRepo, s.notificationService, s.featureFlags)
	s.aiService = service.NewAIService(productRepo, service.AIConfig{
		APIKey:            cfg.GeminiAPIKey,
		Model:             cfg.GeminiModel,
		BaseURL:           cfg.GeminiBaseURL,
		RequestsPerMinute: cfg.AIRequestsPerMinute,
	})
	s.uploadService = service.NewUploadService(service.UploadConfig{
		Endpoint:        cfg.S3Endpoint,
		Region:          cfg.S3Region,
		Bucket:          cfg.S3Bucket,
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretAccessKey,
		PublicURL:       cfg.S3PublicURL,
	})
	s.adminService = service.NewAdminService(userRepo, petRepo, postRepo, orderRepo, productRepo, reportRepo)

	return s, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())
	app.Use(middleware.TracingMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return models.RespondWithError(c, fiber.StatusTooManyRequests,
				models.NewTooManyRequestsError("Too many requests, please try again later."))
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)
	api.Get("/", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "PetConnect API Metrics",
	}))
	api.Get("/swagger/*", swagger.HandlerDefault)

	auth := api.Group("/auth")
	auth.Post("/register", middleware.RateLimit(s.redis, 3, 10*time.Minute, "register"), s.Register)
	auth.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/verify-otp", middleware.RateLimit(s.redis, 10, 5*time.Minute, "verify_otp"), s.VerifyOTP)
	auth.Post("/logout", s.AuthRequired(), s.Logout)

	// Public catalogue
	api.Get("/categories", s.ListCategories)
	api.Get("/categories/:id", s.GetCategory)
	api.Get("/products", s.ListProducts)
	api.Get("/products/:id", s.GetProduct)

	// Catalogue management
	api.Post("/categories", s.AuthRequired(), s.AdminRequired(), s.CreateCategory)
	api.Put("/categories/:id", s.AuthRequired(), s.AdminRequired(), s.UpdateCategory)
	api.Delete("/categories/:id", s.AuthRequired(), s.AdminRequired(), s.DeleteCategory)
	api.Post("/products", s.AuthRequired(), s.AdminRequired(), s.CreateProduct)
	api.Put("/products/:id", s.AuthRequired(), s.AdminRequired(), s.UpdateProduct)
	api.Delete("/products/:id", s.AuthRequired(), s.AdminRequired(), s.DeleteProduct)

	// The upgrade only accepts a ticket; POST /ws/ticket needs the bearer token
	api.Post("/ws/ticket", s.AuthRequired(), s.IssueWSTicket)
	api.Get("/ws", s.AuthRequired(), s.WebsocketHandler())

	// Auth is attached per prefix so unknown /api paths fall through to a 404.
	authed := s.AuthRequired()

	// Specific /users routes before the generic /:id route
	users := api.Group("/users", authed)
	users.Get("/me", s.GetMyProfile)
	users.Put("/me", s.UpdateMyProfile)
	users.Put("/me/location", s.UpdateMyLocation)
	users.Get("/nearby", s.GetNearbyUsers)
	users.Get("/search", s.SearchUsers)
	users.Get("/:id", s.GetUserProfile)

	follows := api.Group("/follows", authed)
	follows.Get("/connections", s.GetConnections)
	follows.Get("/requests", s.GetPendingRequests)
	follows.Get("/suggestions", s.GetSuggestions)
	follows.Get("/status/:userId", s.GetFollowStatus)
	follows.Post("/:userId", middleware.RateLimit(s.redis, 20, 5*time.Minute, "follow"), s.FollowUser)
	follows.Post("/:userId/accept", s.AcceptFollowRequest)
	follows.Delete("/:userId/request", s.CancelFollowRequest)
	follows.Delete("/:userId", s.UnfollowUser)

	pets := api.Group("/pets", authed)
	pets.Post("/", s.CreatePet)
	pets.Get("/me", s.GetMyPets)
	pets.Get("/user/:userId", s.GetUserPets)
	pets.Get("/:id", s.GetPet)
	pets.Put("/:id", s.UpdatePet)
	pets.Delete("/:id", s.DeletePet)

	posts := api.Group("/posts", authed)
	posts.Post("/", middleware.RateLimit(s.redis, 10, 5*time.Minute, "create_post"), s.CreatePost)
	posts.Get("/feed", s.GetFeed)
	posts.Get("/me", s.GetMyPosts)
	// Define specific /:id/:resource routes BEFORE generic /:id route
	posts.Post("/:id/like", s.ToggleLike)
	posts.Get("/:id/comments", s.GetComments)
	posts.Post("/:id/comments", middleware.RateLimit(s.redis, 20, time.Minute, "create_comment"), s.CreateComment)
	posts.Put("/:id/comments/:commentId", s.UpdateComment)
	posts.Delete("/:id/comments/:commentId", s.DeleteComment)
	posts.Get("/:id", s.GetPost)
	posts.Put("/:id", s.UpdatePost)
	posts.Delete("/:id", s.DeletePost)

	notifs := api.Group("/notifications", authed)
	notifs.Get("/", s.GetNotifications)
	notifs.Get("/unread-count", s.GetUnreadCount)
	notifs.Put("/read-all", s.MarkAllNotificationsRead)
	notifs.Put("/:id/read", s.MarkNotificationRead)

	cart := api.Group("/cart", authed)
	cart.Get("/", s.GetCart)
	cart.Post("/", s.AddToCart)
	cart.Delete("/", s.ClearCart)
	cart.Put("/:cartItemId", s.UpdateCartItem)
	cart.Delete("/:cartItemId", s.RemoveCartItem)

	orders := api.Group("/orders", authed)
	orders.Post("/checkout", s.Checkout)
	orders.Get("/me", s.GetMyOrders)
	orders.Get("/:id", s.GetOrder)

	missing := api.Group("/missing-pets", authed)
	missing.Post("/", s.CreateMissingReport)
	missing.Get("/me", s.GetMyMissingReports)
	missing.Get("/nearby", s.GetNearbyMissingReports)
	missing.Patch("/:id/status", s.UpdateMissingReportStatus)
	missing.Post("/:id/contact", middleware.RateLimit(s.redis, 5, 10*time.Minute, "missing_contact"), s.ContactReporter)
	missing.Get("/:id/contacts", s.GetReportContacts)
	missing.Get("/:id", s.GetMissingReport)
	missing.Delete("/:id", s.DeleteMissingReport)

	ai := api.Group("/ai", authed, s.FeatureRequired(featureflags.AIAdvice),
		middleware.RateLimit(s.redis, 5, time.Minute, "ai"))
	ai.Post("/advice", s.PetAdvice)
	ai.Post("/diet-product", s.DietAndProducts)

	api.Post("/uploads/presign", authed, s.PresignUpload)

	admin := api.Group("/admin", authed, s.AdminRequired())
	admin.Get("/stats", s.GetAdminStats)
	admin.Get("/users", s.AdminListUsers)
	admin.Get("/users/:id", s.AdminGetUser)
	admin.Delete("/users/:id", s.AdminDeleteUser)
	admin.Put("/users/:id/role", s.AdminSetRole)
	admin.Get("/orders", s.AdminListOrders)
	admin.Put("/orders/:id/status", s.AdminUpdateOrderStatus)
	admin.Get("/feature-flags", s.GetFeatureFlags)

	api.Use(s.RouteNotFound)
}

// RouteNotFound answers any /api path no route matched.
func (s *Server) RouteNotFound(c *fiber.Ctx) error {
	return models.RespondWithError(c, fiber.StatusNotFound, &models.AppError{
		Code:    models.CodeNotFound,
		Message: "Route " + c.Method() + " " + c.Path() + " not found",
	})
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), requestTimeout)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"message": "PetConnect API",
		"version": "1.0.0",
		"status":  overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := fiber.New(fiber.Config{
		AppName:   "PetConnect API",
		BodyLimit: maxImageBytes + 1<<20,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return models.RespondWithError(c, fe.Code, fe)
			}
			log.Printf("Error: %v", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	// Without Redis the dispatcher delivers straight to the local hub.
	if s.notifier.Enabled() {
		go func() {
			if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
				log.Printf("failed to start %s wiring: %v", s.hub.Name(), err)
			}
		}()
	}

	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	if err := s.hub.Shutdown(ctx); err != nil {
		log.Printf("error shutting down %s: %v", s.hub.Name(), err)
	}

	if s.memoryOTP != nil {
		s.memoryOTP.Stop()
	}
	for _, closeFn := range s.closers {
		if err := closeFn(); err != nil {
			log.Printf("error closing dependency: %v", err)
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing sql DB: %v", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}
