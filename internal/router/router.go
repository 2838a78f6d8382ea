// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/tezrent/tezrent-backend/internal/config"
	"github.com/tezrent/tezrent-backend/internal/handlers"
	"github.com/tezrent/tezrent-backend/internal/middleware"
	"github.com/tezrent/tezrent-backend/internal/services"
	"github.com/tezrent/tezrent-backend/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config) *gin.Engine {
	// Initialize services
	storageService, err := services.NewStorageService(cfg)
	if err != nil {
		logrus.WithError(err).Warn("Storage unavailable, falling back to local uploads")
	}
	stockService := services.NewStockService(db)
	documentService := services.NewDocumentService(db, storageService)

	authService := services.NewAuthService(db, cfg)
	equipmentService := services.NewEquipmentService(db, storageService)
	rentalService := services.NewRentalService(db, cfg, stockService, documentService)
	paymentService := services.NewPaymentService(db, cfg, storageService)
	revenueService := services.NewRevenueService(db, cfg)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	equipmentHandler := handlers.NewEquipmentHandler(equipmentService)
	rentalHandler := handlers.NewRentalHandler(rentalService, documentService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	revenueHandler := handlers.NewRevenueHandler(revenueService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS())
	r.Use(middleware.GeneralRateLimit())
	r.Use(middleware.AuditLogMiddleware(db))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", middleware.AuthRequired(), authHandler.Logout)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.GET("/me", middleware.AuthRequired(), authHandler.GetProfile)
		}

		// Equipment catalog
		equipment := v1.Group("/equipment")
		{
			equipment.GET("", middleware.OptionalAuth(), equipmentHandler.SearchEquipment)

			// Seller routes. "/mine" is registered before "/:id" so gin
			// does not treat it as an equipment ID.
			sellers := equipment.Group("")
			sellers.Use(middleware.AuthRequired(), middleware.SellerRequired())
			{
				sellers.POST("", equipmentHandler.CreateEquipment)
				sellers.GET("/mine", equipmentHandler.GetMyEquipment)
				sellers.PUT("/:id", equipmentHandler.UpdateEquipment)
				sellers.POST("/:id/manual", middleware.UploadRateLimit(), equipmentHandler.AttachManual)
			}

			equipment.GET("/:id", middleware.OptionalAuth(), equipmentHandler.GetEquipment)
		}

		// Rental lifecycle
		rentals := v1.Group("/rentals")
		rentals.Use(middleware.AuthRequired())
		{
			rentals.POST("", rentalHandler.CreateRental)
			rentals.GET("", rentalHandler.ListRentals)
			rentals.GET("/dashboard/seller", middleware.SellerRequired(), rentalHandler.SellerDashboard)
			rentals.GET("/dashboard/customer", rentalHandler.CustomerDashboard)
			rentals.GET("/:id", rentalHandler.GetRental)
			rentals.POST("/:id/approve", rentalHandler.ApproveRental)
			rentals.POST("/:id/reject", rentalHandler.RejectRental)
			rentals.POST("/:id/cancel", rentalHandler.CancelRental)
			rentals.POST("/:id/activate", rentalHandler.ActivateRental)
			rentals.POST("/:id/complete", rentalHandler.CompleteRental)

			// Documents
			rentals.GET("/:id/documents", rentalHandler.ListDocuments)
			rentals.POST("/:id/documents/provision", middleware.AdminRequired(), rentalHandler.ProvisionDocuments)

			// Payments scoped to a rental
			rentals.POST("/:id/payments/receipt", middleware.UploadRateLimit(), paymentHandler.RecordReceipt)
			rentals.POST("/:id/payments/intent", paymentHandler.CreatePaymentIntent)
			rentals.GET("/:id/payments", paymentHandler.GetRentalPayments)
		}

		// Payment routes
		payments := v1.Group("/payments")
		payments.Use(middleware.AuthRequired())
		{
			payments.POST("/confirm", paymentHandler.ConfirmPayment)
			payments.GET("/history", paymentHandler.GetPaymentHistory)
		}

		// Revenue reporting
		revenue := v1.Group("/revenue")
		revenue.Use(middleware.AuthRequired(), middleware.SellerRequired())
		{
			revenue.GET("/summary", revenueHandler.GetSummary)
			revenue.GET("/trends", revenueHandler.GetTrends)
			revenue.POST("/payouts/:id/complete", middleware.AdminRequired(), revenueHandler.CompletePayout)
		}
	}

	// Static file serving (for development)
	if cfg.Environment == "development" {
		r.Static("/uploads", "./uploads")
	}

	return r
}
