// File: taskora/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"taskora/config"
	"taskora/cron"
	"taskora/database"
	bookingRepoPkg "taskora/database/repository/booking"
	catalogRepoPkg "taskora/database/repository/catalog"
	providerRepoPkg "taskora/database/repository/provider"
	userRepoPkg "taskora/database/repository/user"
	walletRepoPkg "taskora/database/repository/wallet"
	"taskora/handlers"
	"taskora/middleware"
	"taskora/routes"
	"taskora/services/booking"
	"taskora/services/notification"
	"taskora/services/wallet"
	"taskora/utils"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitRedis()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	// repositories.
	bookRepo := bookingRepoPkg.NewMongoBookingRepo()
	provRepo := providerRepoPkg.NewMongoProviderRepo()
	walRepo := walletRepoPkg.NewMongoWalletRepo()
	catRepo := catalogRepoPkg.NewMongoCatalogRepo()
	usrRepo := userRepoPkg.NewMongoUserRepo()

	// services.
	notifier, err := notification.NewDefaultNotificationService(usrRepo, provRepo, notification.NewSendGridSender())
	if err != nil {
		logger.Sugar().Fatalf("main: failed to initialize notification service: %v", err)
	}

	engine := &booking.DefaultBookingEngine{
		BookingRepo:  bookRepo,
		ProviderRepo: provRepo,
		WalletRepo:   walRepo,
		CatalogRepo:  catRepo,
		Notifier:     notifier,
		SlotStep:     config.AppConfig.SlotStepMinutes,
	}

	walletService := &wallet.DefaultWalletService{Repo: walRepo}

	bookingHandler := handlers.NewBookingHandler(engine, logger)
	walletHandler := handlers.NewWalletHandler(walletService, logger)

	routes.RegisterRoutes(router, bookingHandler, walletHandler)

	// Background jobs: daily expiry sweep and availability cleanup.
	cron.InitJobWorker(engine)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	database.CloseDB()
	logger.Sugar().Info("main: server stopped gracefully")
}
