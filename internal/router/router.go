package router

import (
	"github.com/gin-gonic/gin"
	"github.com/ksaito/hatchobori-lunch-backend/config"
	"github.com/ksaito/hatchobori-lunch-backend/internal/app/controller"
	"github.com/ksaito/hatchobori-lunch-backend/internal/middleware"
)

type Router struct {
	authController       *controller.AuthController
	categoryController   *controller.CategoryController
	restaurantController *controller.RestaurantController
	favoriteController   *controller.FavoriteController
	chatController       *controller.ChatController
	extractController    *controller.ExtractController
	uploadController     *controller.UploadController
	authMiddleware       *middleware.AuthMiddleware
	config               *config.Config
}

func NewRouter(
	authController *controller.AuthController,
	categoryController *controller.CategoryController,
	restaurantController *controller.RestaurantController,
	favoriteController *controller.FavoriteController,
	chatController *controller.ChatController,
	extractController *controller.ExtractController,
	uploadController *controller.UploadController,
	authMiddleware *middleware.AuthMiddleware,
	cfg *config.Config,
) *Router {
	return &Router{
		authController:       authController,
		categoryController:   categoryController,
		restaurantController: restaurantController,
		favoriteController:   favoriteController,
		chatController:       chatController,
		extractController:    extractController,
		uploadController:     uploadController,
		authMiddleware:       authMiddleware,
		config:               cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"message": "Hatchobori Lunch API is running",
		})
	})

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", r.authController.Register)
			auth.POST("/login", r.authController.Login)
			auth.GET("/me", r.authMiddleware.Authenticate(), r.authController.GetMe)
			auth.PUT("/me", r.authMiddleware.Authenticate(), r.authController.UpdateMe)
		}

		categories := v1.Group("/categories")
		{
			categories.GET("", r.categoryController.GetCategories)
			categories.GET("/usage", r.categoryController.GetCategoriesWithUsage)

			categories.POST("",
				r.authMiddleware.Authenticate(),
				r.authMiddleware.RequireCompanyEmail(),
				r.categoryController.CreateCategory,
			)
			// "/order" registers before "/:id" so the reorder route wins
			categories.PUT("/order",
				r.authMiddleware.Authenticate(),
				r.authMiddleware.RequireCompanyEmail(),
				r.categoryController.ReorderCategories,
			)
			categories.PUT("/:id",
				r.authMiddleware.Authenticate(),
				r.authMiddleware.RequireCompanyEmail(),
				r.categoryController.UpdateCategory,
			)
			categories.DELETE("/:id",
				r.authMiddleware.Authenticate(),
				r.authMiddleware.RequireCompanyEmail(),
				r.categoryController.DeleteCategory,
			)
		}

		restaurants := v1.Group("/restaurants")
		{
			restaurants.GET("", r.authMiddleware.OptionalAuthenticate(), r.restaurantController.GetRestaurants)
			restaurants.GET("/closed", r.restaurantController.GetClosedRestaurants)
			restaurants.GET("/:id", r.authMiddleware.OptionalAuthenticate(), r.restaurantController.GetRestaurantByID)

			restaurants.POST("",
				r.authMiddleware.Authenticate(),
				r.authMiddleware.RequireCompanyEmail(),
				r.restaurantController.CreateRestaurant,
			)
			restaurants.POST("/extract",
				r.authMiddleware.Authenticate(),
				r.authMiddleware.RequireCompanyEmail(),
				r.extractController.ExtractRestaurant,
			)
			restaurants.PUT("/:id",
				r.authMiddleware.Authenticate(),
				r.authMiddleware.RequireCompanyEmail(),
				r.restaurantController.UpdateRestaurant,
			)
			restaurants.PATCH("/:id/active",
				r.authMiddleware.Authenticate(),
				r.authMiddleware.RequireCompanyEmail(),
				r.restaurantController.ToggleActive,
			)
			restaurants.DELETE("/:id",
				r.authMiddleware.Authenticate(),
				r.authMiddleware.RequireCompanyEmail(),
				r.restaurantController.DeleteRestaurant,
			)
		}

		favorites := v1.Group("/favorites")
		favorites.Use(r.authMiddleware.Authenticate())
		{
			favorites.GET("", r.favoriteController.GetFavorites)
			favorites.POST("/toggle", r.favoriteController.ToggleFavorite)
		}

		chat := v1.Group("/chat")
		chat.Use(r.authMiddleware.Authenticate())
		{
			chat.POST("", r.chatController.Chat)
			chat.GET("/ws", r.chatController.ChatWebSocket)
		}

		uploads := v1.Group("/uploads")
		uploads.Use(r.authMiddleware.Authenticate(), r.authMiddleware.RequireCompanyEmail())
		{
			uploads.POST("/presigned-url", r.uploadController.GeneratePresignedURL)
		}
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
