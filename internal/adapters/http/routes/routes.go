package routes

import (
	"time"

	"sitegear-custody/internal/adapters/http/handlers"
	"sitegear-custody/internal/adapters/http/middleware"
	"sitegear-custody/internal/adapters/persistence/repositories"
	"sitegear-custody/internal/config"
	"sitegear-custody/internal/core/domain"
	"sitegear-custody/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"gorm.io/gorm"
)

// Setup configures all routes for the application
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db)
	assetRepo := repositories.NewAssetRepository(db)
	requestRepo := repositories.NewRequestRepository(db)

	// Initialize services
	authService := services.NewAuthService(userRepo, refreshTokenRepo, cfg)
	userService := services.NewUserService(userRepo)
	assetService := services.NewAssetService(assetRepo)

	notifyService := services.NewNotificationService(cfg.Workflow.WebhookURL)
	workflowService := services.NewWorkflowService(requestRepo, assetRepo, notifyService, cfg.Workflow)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(authService, cfg)
	userHandler := handlers.NewUserHandler(userService)
	assetHandler := handlers.NewAssetHandler(assetService)
	requestHandler := handlers.NewRequestHandler(workflowService)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API v1 group
	apiV1 := app.Group("/api/v1")
	setupAPIV1Routes(apiV1, healthHandler, authHandler, userHandler, assetHandler, requestHandler, cfg)
}

// setupAPIV1Routes configures API v1 routes
func setupAPIV1Routes(
	router fiber.Router,
	healthHandler *handlers.HealthHandler,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	assetHandler *handlers.AssetHandler,
	requestHandler *handlers.RequestHandler,
	cfg *config.Config,
) {
	// API Info
	router.Get("/", healthHandler.APIInfo)

	// Auth routes (public)
	authRoutes := router.Group("/auth")
	setupAuthRoutes(authRoutes, authHandler, cfg)

	// User management routes (Admin only)
	userRoutes := router.Group("/users")
	userRoutes.Use(middleware.AuthMiddleware(cfg))
	userRoutes.Use(middleware.AdminOnly())
	setupUserRoutes(userRoutes, userHandler)

	// Profile routes (Authenticated users)
	profileRoutes := router.Group("/profile")
	profileRoutes.Use(middleware.AuthMiddleware(cfg))
	setupProfileRoutes(profileRoutes, userHandler)

	// Asset catalog routes (Authenticated users)
	assetRoutes := router.Group("/assets")
	assetRoutes.Use(middleware.AuthMiddleware(cfg))
	setupAssetRoutes(assetRoutes, assetHandler)

	// Custody request routes (Authenticated users; per-endpoint role gates)
	requestRoutes := router.Group("/requests")
	requestRoutes.Use(middleware.AuthMiddleware(cfg))
	requestRoutes.Use(middleware.NoCacheHeaders())
	setupRequestRoutes(requestRoutes, requestHandler)
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, cfg *config.Config) {
	// Public routes (rate limited against brute force)
	router.Post("/register", middleware.AuthRateLimiter(), handler.Register)
	router.Post("/login", middleware.AuthRateLimiter(), handler.Login)
	router.Post("/refresh", handler.RefreshToken)
	router.Post("/logout", handler.Logout)

	// Protected routes
	router.Get("/me", middleware.AuthMiddleware(cfg), handler.Me)
	router.Post("/logout-all", middleware.AuthMiddleware(cfg), handler.LogoutAll)
}

// setupUserRoutes configures user management routes (Admin only)
func setupUserRoutes(router fiber.Router, handler *handlers.UserHandler) {
	router.Get("/", handler.ListUsers)
	router.Get("/:id", handler.GetUser)
	router.Put("/:id", handler.UpdateUser)
	router.Delete("/:id", handler.DeleteUser)
}

// setupProfileRoutes configures profile routes (Authenticated)
func setupProfileRoutes(router fiber.Router, handler *handlers.UserHandler) {
	router.Get("/", middleware.PrivateCacheHeaders(30*time.Second), handler.GetProfile)
	router.Put("/", handler.UpdateProfile)
	router.Put("/password", middleware.StrictRateLimiter(), handler.ChangePassword)
}

// setupAssetRoutes configures equipment catalog routes
func setupAssetRoutes(router fiber.Router, handler *handlers.AssetHandler) {
	// Any authenticated user can browse the catalog
	router.Get("/", middleware.CatalogCache(), handler.ListAssets)
	router.Get("/:id", middleware.CatalogCache(), handler.GetAsset)

	// Catalog maintenance (Warehouseman/Admin)
	warehouseRoutes := router.Group("")
	warehouseRoutes.Use(middleware.RoleMiddleware(string(domain.RoleWarehouseman)))
	warehouseRoutes.Post("/", handler.CreateAsset)
	warehouseRoutes.Put("/:id", handler.UpdateAsset)

	// Admin only
	router.Delete("/:id", middleware.AdminOnly(), handler.DeleteAsset)
}

// setupRequestRoutes configures custody request routes.
// Each transition is gated by the role the workflow expects; the service
// re-checks roles, so the middleware is the first line, not the only one.
func setupRequestRoutes(router fiber.Router, handler *handlers.RequestHandler) {
	maker := middleware.RoleMiddleware(string(domain.RoleMaker))
	verifier := middleware.RoleMiddleware(string(domain.RoleVerifier))
	authorizer := middleware.RoleMiddleware(string(domain.RoleAuthorizer))
	warehouseman := middleware.RoleMiddleware(string(domain.RoleWarehouseman))
	returner := middleware.RoleMiddleware(
		string(domain.RoleWarehouseman),
		string(domain.RoleClerk),
	)
	extender := middleware.RoleMiddleware(
		string(domain.RoleMaker),
		string(domain.RoleClerk),
	)
	canceler := middleware.RoleMiddleware(
		string(domain.RoleMaker),
		string(domain.RoleAuthorizer),
	)

	// Queries (any authenticated user)
	router.Get("/", handler.List)
	router.Get("/overdue", handler.ListOverdue)
	router.Get("/no/:requestNo", handler.GetByRequestNo)
	router.Get("/:id", handler.GetByID)
	router.Get("/:id/history", handler.GetHistory)

	// Maker actions
	router.Post("/", maker, handler.Create)
	router.Post("/:id/submit", maker, handler.Submit)
	router.Post("/:id/extend", extender, handler.Extend)
	router.Post("/:id/cancel", canceler, handler.Cancel)
	router.Post("/:id/items/:lineId/cancel", canceler, handler.CancelItem)

	// Verifier / Authorizer actions
	router.Post("/:id/verify", verifier, handler.Verify)
	router.Post("/:id/approve", authorizer, handler.Approve)

	// Warehouse actions
	router.Post("/:id/activate", warehouseman, handler.Activate)
	router.Post("/:id/return", returner, handler.Return)
}
