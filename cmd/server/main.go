package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"sitegear-custody/internal/adapters/http/middleware"
	"sitegear-custody/internal/adapters/http/routes"
	"sitegear-custody/internal/adapters/persistence/models"
	"sitegear-custody/internal/adapters/persistence/repositories"
	"sitegear-custody/internal/config"
	"sitegear-custody/internal/core/services"

	"github.com/gofiber/fiber/v2"

	_ "sitegear-custody/docs" // Swagger docs
)

// @title SiteGear Custody API
// @version 1.0
// @description Construction site equipment custody and borrowing workflow API
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@sitegear.io

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host custody.sitegear.io
// @BasePath /api/v1
// @schemes https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer config.CloseDatabase()

	// Auto migrate (creates tables if not exist)
	if err := models.AutoMigrate(db); err != nil {
		log.Fatalf("❌ Failed to auto migrate: %v", err)
	}
	log.Println("✅ Database migration completed")

	// Seed development data
	if err := config.NewSeeder(db).Run(); err != nil {
		log.Printf("⚠️ Warning: Failed to seed data: %v", err)
	}

	// Start the overdue sweep (daily, config-driven schedule)
	requestRepo := repositories.NewRequestRepository(db)
	notifyService := services.NewNotificationService(cfg.Workflow.WebhookURL)
	overdueService := services.NewOverdueService(requestRepo, notifyService, cfg.Workflow.OverdueCron)
	if err := overdueService.Start(); err != nil {
		log.Fatalf("❌ Failed to start overdue monitor: %v", err)
	}
	defer overdueService.Stop()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "SiteGear Custody API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
	})

	// Setup middlewares
	middleware.Setup(app, cfg)

	// Setup routes (pass db and cfg for dependency injection)
	routes.Setup(app, db, cfg)

	// Graceful shutdown
	go gracefulShutdown(app)

	// Start server
	log.Printf("🚀 Server starting on port %s [MODE: %s]", cfg.Port, cfg.AppMode)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("❌ Error during shutdown: %v", err)
	}
	log.Println("✅ Server stopped gracefully")
}
