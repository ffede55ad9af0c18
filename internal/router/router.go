package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/cosmetica-backend/config"
	"github.com/ikkim/cosmetica-backend/internal/app/controller"
	"github.com/ikkim/cosmetica-backend/internal/middleware"
)

const healthCheckTimeout = 2 * time.Second

// HealthCheck reports whether a dependency can serve requests
type HealthCheck func(ctx context.Context) error

type namedCheck struct {
	name  string
	check HealthCheck
}

type Router struct {
	productController  *controller.ProductController
	cartController     *controller.CartController
	checkoutController *controller.CheckoutController
	paymentController  *controller.PaymentController
	bookingController  *controller.BookingController
	orderController    *controller.OrderController
	authMiddleware     *middleware.AuthMiddleware
	cartMerger         middleware.CartMerger
	metricsHandler     http.Handler
	healthChecks       []namedCheck
	config             *config.Config
}

func NewRouter(
	productController *controller.ProductController,
	cartController *controller.CartController,
	checkoutController *controller.CheckoutController,
	paymentController *controller.PaymentController,
	bookingController *controller.BookingController,
	orderController *controller.OrderController,
	authMiddleware *middleware.AuthMiddleware,
	cartMerger middleware.CartMerger,
	metricsHandler http.Handler,
	cfg *config.Config,
) *Router {
	return &Router{
		productController:  productController,
		cartController:     cartController,
		checkoutController: checkoutController,
		paymentController:  paymentController,
		bookingController:  bookingController,
		orderController:    orderController,
		authMiddleware:     authMiddleware,
		cartMerger:         cartMerger,
		metricsHandler:     metricsHandler,
		config:             cfg,
	}
}

// AddHealthCheck makes /health report on a dependency such as the database
func (r *Router) AddHealthCheck(name string, check HealthCheck) {
	r.healthChecks = append(r.healthChecks, namedCheck{name: name, check: check})
}

func (r *Router) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	status := http.StatusOK
	checks := gin.H{}
	for _, hc := range r.healthChecks {
		if err := hc.check(ctx); err != nil {
			middleware.GetLoggerFromContext(c).Warn("Health check failed", map[string]interface{}{
				"check": hc.name,
				"error": err.Error(),
			})
			checks[hc.name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[hc.name] = "ok"
	}

	if status != http.StatusOK {
		c.JSON(status, gin.H{"status": "unhealthy", "checks": checks})
		return
	}
	c.JSON(status, gin.H{
		"status":  "healthy",
		"message": "Cosmetica API is running",
		"checks":  checks,
	})
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", r.health)
	if r.metricsHandler != nil {
		router.GET("/metrics", gin.WrapH(r.metricsHandler))
	}

	cartSession := middleware.CartSession(middleware.CartSessionConfig{
		CookieName: r.config.Cart.SessionCookie,
		MaxAge:     r.config.Cart.CookieMaxAge,
		Secure:     r.config.Server.Environment == "production",
	}, r.cartMerger)

	v1 := router.Group("/api/v1")
	{
		products := v1.Group("/products")
		{
			products.GET("", r.productController.ListProducts)
			products.GET("/:id", r.productController.GetProduct)
		}

		courses := v1.Group("/courses")
		{
			courses.GET("", r.productController.ListCourses)
			courses.GET("/:id", r.productController.GetCourse)
			courses.GET("/:id/quote", r.bookingController.QuoteBooking)
		}

		cart := v1.Group("/cart")
		cart.Use(r.authMiddleware.OptionalAuthenticate(), cartSession)
		{
			cart.GET("", r.cartController.GetCart)
			cart.GET("/count", r.cartController.GetItemCount)
			cart.GET("/quote", r.cartController.Quote)
			cart.GET("/ws", r.cartController.Stream)
			cart.POST("/items", r.cartController.AddItem)
			cart.PUT("/items/:id", r.cartController.UpdateItem)
			cart.DELETE("/items/:id", r.cartController.RemoveItem)
			cart.DELETE("", r.cartController.ClearCart)
		}

		v1.POST("/checkout",
			r.authMiddleware.OptionalAuthenticate(),
			cartSession,
			r.checkoutController.Checkout,
		)

		// the gateway sends the shopper back here
		payments := v1.Group("/payments")
		{
			payments.GET("/success", r.paymentController.OrderSuccess)
			payments.GET("/cancel", r.paymentController.OrderCancel)
			payments.GET("/failure", r.paymentController.OrderFailure)
			payments.GET("/bookings/success", r.paymentController.BookingSuccess)
			payments.GET("/bookings/cancel", r.paymentController.BookingCancel)
		}

		bookings := v1.Group("/bookings")
		{
			bookings.POST("", r.authMiddleware.OptionalAuthenticate(), r.bookingController.CreateBooking)
			bookings.GET("", r.authMiddleware.Authenticate(), r.bookingController.ListBookings)
			bookings.GET("/:id", r.authMiddleware.Authenticate(), r.bookingController.GetBooking)
		}

		orders := v1.Group("/orders")
		orders.Use(r.authMiddleware.Authenticate())
		{
			orders.GET("", r.orderController.GetOrders)
			orders.GET("/:id", r.orderController.GetOrderByID)
		}

		admin := v1.Group("/admin")
		admin.Use(r.authMiddleware.Authenticate(), r.authMiddleware.RequireAdmin())
		{
			admin.PUT("/orders/:id/status", r.orderController.UpdateOrderStatus)
			admin.POST("/orders/:id/refund", r.orderController.RefundOrder)
			admin.GET("/orders/export", r.orderController.ExportOrders)
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
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		}

		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID, X-Export-URL, Content-Disposition")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
