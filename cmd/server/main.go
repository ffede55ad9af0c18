package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ikkim/cosmetica-backend/config"
	"github.com/ikkim/cosmetica-backend/internal/app/controller"
	"github.com/ikkim/cosmetica-backend/internal/app/repository"
	"github.com/ikkim/cosmetica-backend/internal/app/service"
	"github.com/ikkim/cosmetica-backend/internal/cart"
	"github.com/ikkim/cosmetica-backend/internal/db"
	"github.com/ikkim/cosmetica-backend/internal/middleware"
	"github.com/ikkim/cosmetica-backend/internal/pricing"
	"github.com/ikkim/cosmetica-backend/internal/router"
	"github.com/ikkim/cosmetica-backend/internal/scheduler"
	"github.com/ikkim/cosmetica-backend/internal/storage"
	ws "github.com/ikkim/cosmetica-backend/internal/websocket"
	"github.com/ikkim/cosmetica-backend/pkg/logger"
	"github.com/ikkim/cosmetica-backend/pkg/metrics"
	"github.com/ikkim/cosmetica-backend/pkg/payment/yoco"
	"github.com/ikkim/cosmetica-backend/pkg/redis"
	"github.com/prometheus/client_golang/prometheus"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	logger.Initialize(logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		EnableColor: cfg.Log.Format == "console",
	})

	logger.Info("Starting Cosmetica Backend Server", map[string]interface{}{
		"environment":  cfg.Server.Environment,
		"port":         cfg.Server.Port,
		"cart_storage": cfg.Cart.Storage,
	})

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}
	if err := db.Seed(db.GetDB()); err != nil {
		logger.Warn("Failed to seed database", map[string]interface{}{
			"error": err.Error(),
		})
	}

	storeMetrics := metrics.New(prometheus.DefaultRegisterer)

	// Cart persistence
	var cartStorage cart.Storage
	var snapshotPurger scheduler.SnapshotPurger
	switch cfg.Cart.Storage {
	case "redis":
		if err := redis.Init(&cfg.Redis); err != nil {
			logger.Fatal("Failed to connect to Redis", err)
		}
		defer redis.Close()
		cartStorage = redis.NewCartStorage(redis.GetClient(), cfg.Cart.KeyPrefix, cfg.Cart.TTL)
	case "database":
		snapshots := repository.NewCartSnapshotRepository(db.GetDB())
		cartStorage = snapshots
		snapshotPurger = snapshots
	case "memory":
		logger.Warn("Carts are kept in memory only and will not survive a restart", nil)
		cartStorage = cart.NewMemoryStorage()
	default:
		logger.Fatal("Unknown cart storage", fmt.Errorf("CART_STORAGE=%q", cfg.Cart.Storage))
	}

	registry := cart.NewRegistry(cartStorage, cart.WithOnOpen(func(*cart.Store) {
		storeMetrics.IncCartOp("open")
	}))

	// Payment gateway
	gateway, err := yoco.NewClient(yoco.Config{
		SecretKey: cfg.Payment.Yoco.SecretKey,
		BaseURL:   cfg.Payment.Yoco.BaseURL,
		Currency:  cfg.Payment.Yoco.Currency,
		Timeout:   cfg.Payment.Yoco.Timeout,
	})
	if err != nil {
		logger.Fatal("Failed to create payment gateway client", err)
	}

	// Export archive is optional
	var archive storage.ObjectStore
	if cfg.S3.Enabled() {
		s3Storage, err := storage.NewS3Storage(context.Background(), cfg.S3)
		if err != nil {
			logger.Warn("S3 unavailable, exports will not be archived", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			archive = s3Storage
		}
	}

	// Initialize repositories
	productRepo := repository.NewProductRepository(db.GetDB())
	courseRepo := repository.NewCourseRepository(db.GetDB())
	orderRepo := repository.NewOrderRepository(db.GetDB())
	bookingRepo := repository.NewBookingRepository(db.GetDB())

	// Initialize services
	rates := pricing.Rates{
		LockerFee:             cfg.Pricing.LockerFee,
		DoorToDoorFee:         cfg.Pricing.DoorToDoorFee,
		FreeShippingThreshold: cfg.Pricing.FreeShippingThreshold,
	}
	urls := service.NewCallbackURLs(cfg.Server.PublicURL)

	productService := service.NewProductService(productRepo, courseRepo)
	cartService := service.NewCartService(registry, productRepo, rates, storeMetrics)
	paymentService := service.NewPaymentService(orderRepo, bookingRepo, cartService, gateway, storeMetrics, db.GetDB())
	checkoutService := service.NewCheckoutService(cartService, orderRepo, gateway, rates, urls, cfg.Pricing.Currency, storeMetrics, db.GetDB())
	orderService := service.NewOrderService(orderRepo, bookingRepo, paymentService, db.GetDB())
	bookingService := service.NewBookingService(bookingRepo, courseRepo, gateway, urls, cfg.Pricing.Currency, storeMetrics)
	exportService := service.NewExportService(orderRepo, archive)

	// Live cart updates
	hubCtx, stopHub := context.WithCancel(context.Background())
	hub := ws.NewHub(cartService)
	go hub.Run(hubCtx)

	// Initialize controllers
	productController := controller.NewProductController(productService)
	cartController := controller.NewCartController(cartService, hub, cfg.CORS.AllowedOrigins)
	checkoutController := controller.NewCheckoutController(checkoutService)
	paymentController := controller.NewPaymentController(paymentService, cfg.Server.FrontendURL)
	bookingController := controller.NewBookingController(bookingService)
	orderController := controller.NewOrderController(orderService, paymentService, exportService)

	authMiddleware := middleware.NewAuthMiddleware(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.AdminRoles)

	r := router.NewRouter(
		productController,
		cartController,
		checkoutController,
		paymentController,
		bookingController,
		orderController,
		authMiddleware,
		cartService,
		metrics.Handler(prometheus.DefaultGatherer),
		cfg,
	)
	r.AddHealthCheck("database", func(ctx context.Context) error {
		return db.Ping(ctx, db.GetDB())
	})
	if cfg.Cart.Storage == "redis" {
		r.AddHealthCheck("redis", redis.Ping)
	}

	// Background jobs
	jobs := scheduler.NewStoreScheduler(scheduler.Config{
		CartEvictSpec:   cfg.Scheduler.CartEvictSpec,
		CartIdleTimeout: cfg.Cart.IdleTimeout,
		CartTTL:         cfg.Cart.TTL,
		OrderExpirySpec: cfg.Scheduler.OrderExpirySpec,
		OrderPendingTTL: cfg.Scheduler.OrderPendingTTL,
	}, registry, snapshotPurger, orderService, storeMetrics)
	if err := jobs.Start(); err != nil {
		logger.Fatal("Failed to start scheduler", err)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r.Setup(),
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	jobs.Stop()
	hub.Close()
	stopHub()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}
	// detaches cart listeners and rejects later mutations
	registry.Close()

	logger.Info("Server stopped successfully")
}
