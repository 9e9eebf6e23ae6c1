package router

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"

	"fabric_pos_backend/internal/handlers"
	"fabric_pos_backend/internal/middleware"
	"fabric_pos_backend/internal/repositories"
	"fabric_pos_backend/internal/services"
	"fabric_pos_backend/pkg/utils"
)

// Config carries the runtime settings routing needs.
type Config struct {
	Tokens    *utils.TokenManager
	TaxPolicy services.TaxPolicy
}

// Setup initializes the routing for the application.
func Setup(engine *gin.Engine, db *sql.DB, cfg Config) {
	// Repositories
	userRepo := repositories.NewUserRepository(db)
	rbacRepo := repositories.NewRBACRepository(db)
	categoryRepo := repositories.NewCategoryRepository(db)
	productRepo := repositories.NewProductRepository(db)
	stockRepo := repositories.NewStockRepository(db)
	movementRepo := repositories.NewStockMovementRepository(db)
	saleRepo := repositories.NewSaleRepository(db)
	reportRepo := repositories.NewReportRepository(db)

	// Services
	authService := services.NewAuthService(db, userRepo, rbacRepo, cfg.Tokens)
	accessService := services.NewAccessService(db, rbacRepo)
	userService := services.NewUserService(db, userRepo, rbacRepo)
	catalogService := services.NewCatalogService(db, categoryRepo, productRepo)
	stockService := services.NewStockService(db, stockRepo, movementRepo, productRepo)
	saleService := services.NewSaleService(db, saleRepo, stockRepo, movementRepo, cfg.TaxPolicy)
	reportService := services.NewReportService(reportRepo)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	categoryHandler := handlers.NewCategoryHandler(catalogService)
	productHandler := handlers.NewProductHandler(catalogService, stockService)
	saleHandler := handlers.NewSaleHandler(saleService)
	movementHandler := handlers.NewStockMovementHandler(stockService)
	roleHandler := handlers.NewRoleHandler(accessService)
	userHandler := handlers.NewUserHandler(userService)
	reportHandler := handlers.NewReportHandler(reportService)

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := engine.Group("/api/v1")

	SetupPublicAuthRoutes(apiV1, authHandler)

	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware(cfg.Tokens))
	{
		SetupAuthenticatedAuthRoutes(authenticated, authHandler)
		SetupCategoryRoutes(authenticated, categoryHandler, accessService)
		SetupProductRoutes(authenticated, productHandler, accessService)
		SetupSaleRoutes(authenticated, saleHandler, accessService)
		SetupStockMovementRoutes(authenticated, movementHandler, accessService)
		SetupRoleRoutes(authenticated, roleHandler, accessService)
		SetupUserRoutes(authenticated, userHandler, roleHandler, accessService)
		SetupReportRoutes(authenticated, reportHandler, accessService)
	}
}
