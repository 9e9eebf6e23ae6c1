package main

import (
	"log"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"fabric_pos_backend/internal/database"
	"fabric_pos_backend/internal/router"
	"fabric_pos_backend/internal/services"
	"fabric_pos_backend/pkg/utils"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	utils.InitLogger()

	dbHost := utils.Getenv("DB_HOST", "localhost")
	dbPort := utils.Getenv("DB_PORT", "5432")
	dbUser := utils.Getenv("DB_USER", "fabric_pos_user")
	dbPassword := utils.Getenv("DB_PASSWORD", "fabric_pos_password")
	dbName := utils.Getenv("DB_NAME", "fabric_pos_db")
	dbSSLMode := utils.Getenv("DB_SSLMODE", "disable")
	dbSchemaPath := utils.Getenv("DB_SCHEMA_PATH", "")

	database.InitDB(dbHost, dbPort, dbUser, dbPassword, dbName, dbSSLMode, dbSchemaPath)
	utils.LogInfo("Database initialized")

	jwtSecret := utils.Getenv("JWT_SECRET", "")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}
	tokens := utils.NewTokenManager(jwtSecret, utils.Getenv("JWT_ISSUER", "fabric-pos"))

	taxPolicy := services.TaxPolicy{
		Enabled:         utils.GetenvBool("TAX_ENABLED", false),
		RateBasisPoints: utils.GetenvInt64("TAX_RATE_BPS", 1600),
	}

	engine := gin.Default()
	engine.Use(utils.GinLogger())

	allowedOrigins := []string{"http://localhost:3000", "http://localhost:3001"}
	if originsEnv := utils.Getenv("CORS_ALLOWED_ORIGINS", ""); originsEnv != "" {
		allowedOrigins = strings.Split(originsEnv, ",")
	}
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = allowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	corsConfig.AllowCredentials = true
	engine.Use(cors.New(corsConfig))

	router.Setup(engine, database.GetDB(), router.Config{
		Tokens:    tokens,
		TaxPolicy: taxPolicy,
	})

	port := utils.Getenv("PORT", "8080")
	utils.LogInfo("Server starting", map[string]interface{}{"port": port})

	if err := engine.Run(":" + port); err != nil {
		utils.LogError(err, "Failed to start server")
		log.Fatalf("Failed to start server: %v", err)
	}
}
