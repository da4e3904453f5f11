package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cityscope/cityscope/backend/directory-service/internal/api"
	"github.com/cityscope/cityscope/backend/directory-service/internal/db"
	"github.com/cityscope/cityscope/backend/directory-service/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	log.SetOutput(os.Stdout)

	log.Printf("Directory Service starting (GIT_SHA=%s BUILD_TIME=%s)", os.Getenv("GIT_SHA"), os.Getenv("BUILD_TIME"))

	// Initialize database connection (non-fatal; allow process to start for /live)
	database, err := db.NewDatabase()
	if err != nil {
		log.Printf("[WARN] Database initialization failed at startup: %v", err)
	}
	if database != nil {
		defer database.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := database.EnsureSchema(ctx); err != nil {
			log.Printf("[WARN] Schema bootstrap failed: %v", err)
		}
		cancel()
	}

	handler := api.NewHandler(database)

	router := setupRouter(handler)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Set up graceful shutdown
	go func() {
		log.Printf("Starting server on port %s", port)
		if err := router.Run(":" + port); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
}

func setupRouter(handler *api.Handler) *gin.Engine {
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(logging.JSONLogger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	// Serve uploaded files for local development
	router.Static("/uploads", "./uploads")

	// Health and readiness endpoints
	router.GET("/live", func(c *gin.Context) { c.Status(200) })
	router.GET("/ready", handler.Health)
	router.GET("/health", handler.Health)

	// District-scoped read-only listing is the only open data endpoint
	router.GET("/organizations/:district_id", handler.ListOrganizationsByDistrict)

	// Everything else requires a bearer token
	authed := router.Group("")
	authed.Use(api.AuthMiddleware())
	{
		authed.GET("/categories", handler.ListCategories)
		authed.POST("/categories", handler.CreateCategory)
		authed.GET("/categories/:id", handler.GetCategory)
		authed.PUT("/categories/:id", handler.UpdateCategory)
		authed.PATCH("/categories/:id", handler.UpdateCategory)
		authed.DELETE("/categories/:id", handler.DeleteCategory)

		authed.GET("/districts", handler.ListDistricts)
		authed.POST("/districts", handler.CreateDistrict)
		authed.GET("/districts/:id", handler.GetDistrict)
		authed.PUT("/districts/:id", handler.UpdateDistrict)
		authed.PATCH("/districts/:id", handler.UpdateDistrict)
		authed.DELETE("/districts/:id", handler.DeleteDistrict)

		authed.GET("/networks", handler.ListNetworks)
		authed.POST("/networks", handler.CreateNetwork)
		authed.GET("/networks/:id", handler.GetNetwork)
		authed.PUT("/networks/:id", handler.UpdateNetwork)
		authed.PATCH("/networks/:id", handler.UpdateNetwork)
		authed.DELETE("/networks/:id", handler.DeleteNetwork)

		authed.GET("/products", handler.ListProducts)
		authed.POST("/products", handler.CreateProduct)
		authed.GET("/products/:id", handler.GetProduct)
		authed.PUT("/products/:id", handler.UpdateProduct)
		authed.PATCH("/products/:id", handler.UpdateProduct)
		authed.DELETE("/products/:id", handler.DeleteProduct)
		authed.POST("/products/:id/image", handler.UploadProductImage)

		authed.GET("/organizations_all", handler.ListOrganizations)
		authed.POST("/organizations_all", handler.CreateOrganization)
		authed.GET("/organizations_all/:id", handler.GetOrganization)
		authed.PUT("/organizations_all/:id", handler.UpdateOrganization)
		authed.PATCH("/organizations_all/:id", handler.UpdateOrganization)
		authed.DELETE("/organizations_all/:id", handler.DeleteOrganization)
	}

	// Root endpoint for basic info
	router.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service": "directory-service",
			"version": "1.0.0",
			"status":  "running",
		})
	})

	return router
}

// corsMiddleware adds CORS headers to allow cross-origin requests
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
