package router

import (
	"github.com/gin-gonic/gin"

	"fabric_pos_backend/internal/handlers"
	"fabric_pos_backend/internal/middleware"
	"fabric_pos_backend/internal/services"
)

// SetupPublicAuthRoutes sets up the unauthenticated auth routes.
func SetupPublicAuthRoutes(apiGroup *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	authRoutes := apiGroup.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
		authRoutes.POST("/refresh", authHandler.Refresh)
	}
}

// SetupAuthenticatedAuthRoutes sets up the auth routes that need a valid token.
func SetupAuthenticatedAuthRoutes(authenticatedGroup *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	authRoutes := authenticatedGroup.Group("/auth")
	{
		authRoutes.GET("/me", authHandler.Me)
	}
}

// SetupCategoryRoutes sets up the category routes.
func SetupCategoryRoutes(authenticatedGroup *gin.RouterGroup, categoryHandler *handlers.CategoryHandler, accessService services.AccessService) {
	categoryRoutes := authenticatedGroup.Group("/categories")
	{
		categoryRoutes.GET("", middleware.RequirePermission(accessService, services.PermViewProducts), categoryHandler.GetCategories)
		categoryRoutes.GET("/:id", middleware.RequirePermission(accessService, services.PermViewProducts), categoryHandler.GetCategory)
		categoryRoutes.POST("", middleware.RequirePermission(accessService, services.PermManageProducts), categoryHandler.CreateCategory)
		categoryRoutes.PUT("/:id", middleware.RequirePermission(accessService, services.PermManageProducts), categoryHandler.UpdateCategory)
		categoryRoutes.DELETE("/:id", middleware.RequirePermission(accessService, services.PermManageProducts), categoryHandler.DeleteCategory)
	}
}

// SetupProductRoutes sets up the product routes, including manual stock adjustment.
func SetupProductRoutes(authenticatedGroup *gin.RouterGroup, productHandler *handlers.ProductHandler, accessService services.AccessService) {
	productRoutes := authenticatedGroup.Group("/products")
	{
		productRoutes.GET("", middleware.RequirePermission(accessService, services.PermViewProducts), productHandler.GetProducts)
		productRoutes.GET("/:id", middleware.RequirePermission(accessService, services.PermViewProducts), productHandler.GetProduct)
		productRoutes.POST("", middleware.RequirePermission(accessService, services.PermManageProducts), productHandler.CreateProduct)
		productRoutes.PUT("/:id", middleware.RequirePermission(accessService, services.PermManageProducts), productHandler.UpdateProduct)
		productRoutes.DELETE("/:id", middleware.RequirePermission(accessService, services.PermManageProducts), productHandler.DeleteProduct)
		productRoutes.POST("/:id/stock", middleware.RequirePermission(accessService, services.PermAdjustStock), productHandler.AdjustStock)
	}
}

// SetupSaleRoutes sets up the sale routes.
func SetupSaleRoutes(authenticatedGroup *gin.RouterGroup, saleHandler *handlers.SaleHandler, accessService services.AccessService) {
	saleRoutes := authenticatedGroup.Group("/sales")
	{
		saleRoutes.GET("", middleware.RequirePermission(accessService, services.PermViewSales), saleHandler.GetSales)
		saleRoutes.GET("/:id", middleware.RequirePermission(accessService, services.PermViewSales), saleHandler.GetSale)
		saleRoutes.POST("", middleware.RequirePermission(accessService, services.PermCreateSales), saleHandler.CreateSale)
		saleRoutes.POST("/:id/cancel", middleware.RequirePermission(accessService, services.PermCancelSales), saleHandler.CancelSale)
		saleRoutes.DELETE("/:id", middleware.RequirePermission(accessService, services.PermDeleteSales), saleHandler.DeleteSale)
	}
}

// SetupStockMovementRoutes sets up the stock audit trail routes.
func SetupStockMovementRoutes(authenticatedGroup *gin.RouterGroup, movementHandler *handlers.StockMovementHandler, accessService services.AccessService) {
	movementRoutes := authenticatedGroup.Group("/stock-movements")
	{
		movementRoutes.GET("", middleware.RequirePermission(accessService, services.PermViewProducts), movementHandler.GetStockMovements)
	}
}

// SetupRoleRoutes sets up role and permission management routes.
func SetupRoleRoutes(authenticatedGroup *gin.RouterGroup, roleHandler *handlers.RoleHandler, accessService services.AccessService) {
	roleRoutes := authenticatedGroup.Group("/roles")
	roleRoutes.Use(middleware.RequirePermission(accessService, services.PermManageRoles))
	{
		roleRoutes.GET("", roleHandler.GetRoles)
		roleRoutes.GET("/:id", roleHandler.GetRole)
		roleRoutes.POST("", roleHandler.CreateRole)
		roleRoutes.PUT("/:id", roleHandler.UpdateRole)
		roleRoutes.DELETE("/:id", roleHandler.DeleteRole)
	}

	permissionRoutes := authenticatedGroup.Group("/permissions")
	permissionRoutes.Use(middleware.RequirePermission(accessService, services.PermManageRoles))
	{
		permissionRoutes.GET("", roleHandler.GetPermissions)
	}
}

// SetupUserRoutes sets up user administration routes.
func SetupUserRoutes(authenticatedGroup *gin.RouterGroup, userHandler *handlers.UserHandler, roleHandler *handlers.RoleHandler, accessService services.AccessService) {
	userRoutes := authenticatedGroup.Group("/users")
	userRoutes.Use(middleware.RequirePermission(accessService, services.PermManageUsers))
	{
		userRoutes.GET("", userHandler.GetUsers)
		userRoutes.GET("/:id", userHandler.GetUser)
		userRoutes.POST("", userHandler.CreateUser)
		userRoutes.PUT("/:id", userHandler.UpdateUser)
		userRoutes.POST("/:id/deactivate", userHandler.DeactivateUser)
		userRoutes.POST("/:id/reactivate", userHandler.ReactivateUser)
		userRoutes.POST("/:id/assignments", roleHandler.AssignToUser)
		userRoutes.DELETE("/:id/assignments", roleHandler.RemoveFromUser)
	}
}

// SetupReportRoutes sets up the dashboard report routes.
func SetupReportRoutes(authenticatedGroup *gin.RouterGroup, reportHandler *handlers.ReportHandler, accessService services.AccessService) {
	reportRoutes := authenticatedGroup.Group("/reports")
	{
		reportRoutes.GET("/dashboard", middleware.RequirePermission(accessService, services.PermViewReports), reportHandler.GetDashboardStats)
	}
}
