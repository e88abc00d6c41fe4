package main

import (
	"log"
	"net/http"
	"time"

	"github.com/ican-bangcat/LemariLama-sub000/config"
	"github.com/ican-bangcat/LemariLama-sub000/database"
	"github.com/ican-bangcat/LemariLama-sub000/handlers"
	"github.com/ican-bangcat/LemariLama-sub000/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	logger, err := buildLogger(cfg.Environment)
	if err != nil {
		log.Fatal("Failed to build logger: ", err)
	}
	defer logger.Sync()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := db.InitializeTables(logger); err != nil {
		logger.Fatal("failed to initialize tables", zap.Error(err))
	}

	var uploads *services.CloudinaryService
	if cfg.CloudinaryURL != "" {
		uploads, err = services.NewCloudinaryService(cfg.CloudinaryURL, time.Now)
		if err != nil {
			logger.Warn("cloudinary unavailable, uploads disabled", zap.Error(err))
			uploads = nil
		}
	} else {
		logger.Info("CLOUDINARY_URL not set, uploads disabled")
	}

	notifier := services.NewNotifier()
	carts := services.NewCartService(db.DB, logger, time.Now)
	wishlist := services.NewWishlistService(db.DB, logger, time.Now)
	orders := services.NewOrderService(db.DB, logger, time.Now, notifier)
	reviews := services.NewReviewService(db.DB, logger, time.Now)
	addresses := services.NewAddressService(db.DB, logger, time.Now)
	catalog := services.NewCatalogService(db.DB, logger, time.Now, services.DefaultCatalogTTL)

	h := handlers.New(cfg, logger, db.DB, carts, wishlist, orders, reviews, addresses, catalog, uploads)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "LemariLama server is running",
		})
	})

	api := router.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", h.RegisterUser)
			auth.POST("/login", h.LoginUser)
		}

		// Public catalog
		api.GET("/products", h.GetProducts)
		api.GET("/products/:id", h.GetProduct)
		api.GET("/products/:id/reviews", h.GetProductReviews)
		api.GET("/orders/track/:orderNumber", h.TrackOrder)

		// Authenticated customer routes
		user := api.Group("/")
		user.Use(h.AuthMiddleware())
		{
			user.PUT("/users/push-token", h.UpdatePushToken)

			cart := user.Group("/cart")
			{
				cart.GET("", h.GetCart)
				cart.GET("/count", h.GetCartCount)
				cart.POST("", h.AddToCart)
				cart.PUT("/:id", h.UpdateCartItem)
				cart.DELETE("/:id", h.RemoveCartItem)
				cart.DELETE("", h.ClearCart)
			}

			wl := user.Group("/wishlist")
			{
				wl.GET("", h.GetWishlist)
				wl.GET("/ids", h.GetWishlistIDs)
				wl.POST("", h.AddToWishlist)
				wl.POST("/:productId/toggle", h.ToggleWishlist)
				wl.POST("/:productId/move-to-cart", h.MoveWishlistToCart)
				wl.DELETE("/:productId", h.RemoveFromWishlist)
				wl.DELETE("", h.ClearWishlist)
			}

			ord := user.Group("/orders")
			{
				ord.POST("", h.CreateOrder)
				ord.GET("", h.GetOrders)
				ord.GET("/:id", h.GetOrder)
				ord.POST("/:id/cancel", h.CancelOrder)
				ord.POST("/:id/confirm-delivery", h.ConfirmDelivery)
				ord.POST("/:id/payment-proof", h.UploadPaymentProof)
			}

			rev := user.Group("/reviews")
			{
				rev.GET("/can-review/:productId", h.CanReviewProduct)
				rev.POST("", h.CreateReview)
				rev.PUT("/:id", h.UpdateReview)
				rev.DELETE("/:id", h.DeleteReview)
				rev.POST("/images", h.UploadReviewImage)
			}

			addr := user.Group("/addresses")
			{
				addr.GET("", h.GetAddresses)
				addr.GET("/:id", h.GetAddress)
				addr.POST("", h.CreateAddress)
				addr.PUT("/:id", h.UpdateAddress)
				addr.DELETE("/:id", h.DeleteAddress)
				addr.POST("/:id/default", h.SetDefaultAddress)
			}
		}

		// Admin routes
		admin := api.Group("/admin")
		admin.Use(h.AuthMiddleware(), h.AdminMiddleware())
		{
			admin.GET("/orders", h.AdminGetOrders)
			admin.PUT("/orders/:id/status", h.AdminUpdateOrderStatus)
			admin.PUT("/orders/:id/payment-status", h.AdminUpdatePaymentStatus)
			admin.POST("/products", h.AdminCreateProduct)
			admin.PUT("/products/:id", h.AdminUpdateProduct)
			admin.DELETE("/products/:id", h.AdminArchiveProduct)
			admin.POST("/products/images", h.AdminUploadProductImage)
		}
	}

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(router)

	addr := ":" + cfg.ServerPort
	logger.Info("server listening", zap.String("addr", addr), zap.String("env", cfg.Environment))
	if err := http.ListenAndServe(addr, corsHandler); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func buildLogger(environment string) (*zap.Logger, error) {
	if environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
