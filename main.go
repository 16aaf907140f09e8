// main.go
package main

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"lifequest/config"
	"lifequest/database"
	"lifequest/handlers"
	"lifequest/middleware"
	"lifequest/services"
	"lifequest/token"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}

	db, err := database.Connect(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	tokens, err := token.NewManager(token.Config{
		AccessSecret:  cfg.AccessTokenSecret,
		RefreshSecret: cfg.RefreshTokenSecret,
		EmailSecret:   cfg.EmailTokenSecret,
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshTTL:    cfg.RefreshTokenTTL,
		EmailTTL:      cfg.EmailTokenTTL,
	})
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}

	users := services.NewGormUserStore(db)
	mailer := services.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword)
	authService := services.NewAuthService(users, tokens, mailer, cfg.BaseURL)
	generator := services.NewQuestGenerator(cfg.HuggingFaceToken, cfg.AIModel)

	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(users)
	questHandler := handlers.NewQuestHandler(db, users, generator)

	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler(cfg.AppEnv),
		BodyLimit:    4 * 1024 * 1024, // 4MB
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
	}))

	limiter := middleware.NewLimiter(middleware.LimiterConfig{
		Enabled:     cfg.RateLimitEnabled,
		MaxRequests: cfg.RateLimitMax,
		Window:      cfg.RateLimitWindow,
		AuthMax:     cfg.AuthRateLimitMax,
		AuthWindow:  cfg.AuthRateLimitWindow,
	})
	app.Use(limiter.General())

	// API Routes
	api := app.Group("/api")

	// Auth routes with stricter rate limiting
	authGroup := api.Group("/auth")
	authGroup.Use(limiter.Auth())
	authGroup.Post("/register", authHandler.Register)
	authGroup.Get("/verify-email", authHandler.VerifyEmail)
	authGroup.Post("/login", authHandler.Login)
	authGroup.Post("/refresh", authHandler.Refresh)

	// User routes (require authentication)
	requireAuth := middleware.Auth(tokens)

	userGroup := api.Group("/users", requireAuth)
	userGroup.Get("/me", userHandler.GetCurrentUser)
	userGroup.Put("/me", userHandler.UpdateCurrentUser)
	userGroup.Get("/me/ai-settings", userHandler.GetAISettings)
	userGroup.Put("/me/ai-settings", userHandler.UpdateAISettings)
	userGroup.Post("/me/generate-quest", questHandler.GenerateQuest)

	// Quest routes
	questGroup := api.Group("/quests", requireAuth)
	questGroup.Get("/", questHandler.GetQuests)
	questGroup.Post("/", questHandler.CreateQuest)
	questGroup.Post("/:id/complete", questHandler.CompleteQuest)

	// Task routes
	taskGroup := api.Group("/tasks", requireAuth)
	taskGroup.Post("/:id/complete", questHandler.CompleteTask)

	// Progression
	api.Get("/progression", requireAuth, userHandler.GetProgression)

	// Health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "healthy",
			"timestamp": time.Now().Unix(),
			"version":   "1.0.0",
		})
	})

	log.Printf("HTTP server starting on port %s", cfg.Port)
	log.Printf("Environment: %s", cfg.AppEnv)
	log.Printf("AI generation enabled: %v", cfg.HuggingFaceToken != "")

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start HTTP server:", err)
	}
}

func errorHandler(appEnv string) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal Server Error"

		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
			message = e.Message
		}

		// Don't expose internal errors in production
		if appEnv == "production" && code == 500 {
			message = "An error occurred. Please try again later."
		}

		return c.Status(code).JSON(fiber.Map{
			"success": false,
			"error":   message,
		})
	}
}
