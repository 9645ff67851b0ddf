package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"taskora/handlers"
)

// RegisterProviderRoutes registers provider schedule endpoints.
func RegisterProviderRoutes(r *gin.Engine, bh *handlers.BookingHandler) {
	api := r.Group("/api/providers")
	{
		api.GET("/:id/availability", bh.GetAvailability)
		api.PUT("/:id/availability", bh.UpdateAvailability)
	}
}

// RegisterBookingRoutes sets up the endpoints for the booking engine.
func RegisterBookingRoutes(r *gin.Engine, bh *handlers.BookingHandler) {
	bookingGroup := r.Group("/api/bookings")
	{
		bookingGroup.POST("", bh.CreateBooking)
		bookingGroup.POST("/:id/transition", bh.Transition)
		bookingGroup.POST("/:id/review", bh.SubmitReview)
	}

	r.POST("/api/slots", bh.GenerateSlots)
	r.GET("/api/settlement", bh.Settle)
}

// RegisterWalletRoutes sets up the balance and ledger endpoints.
func RegisterWalletRoutes(r *gin.Engine, wh *handlers.WalletHandler) {
	api := r.Group("/api/wallets")
	{
		api.GET("/:ownerId", wh.Balance)
		api.GET("/:ownerId/transactions", wh.History)
		api.POST("/:ownerId/deposit", wh.Deposit)
		api.POST("/:ownerId/withdraw", wh.Withdraw)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Hi, I'm Taskora"})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, bh *handlers.BookingHandler, wh *handlers.WalletHandler) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterHealthRoute(r)
	RegisterProviderRoutes(r, bh)
	RegisterBookingRoutes(r, bh)
	RegisterWalletRoutes(r, wh)
}
