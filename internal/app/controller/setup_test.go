package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/cosmetica-backend/internal/app/repository"
	"github.com/ikkim/cosmetica-backend/internal/app/service"
	"github.com/ikkim/cosmetica-backend/internal/cart"
	"github.com/ikkim/cosmetica-backend/internal/db"
	"github.com/ikkim/cosmetica-backend/internal/middleware"
	"github.com/ikkim/cosmetica-backend/internal/pricing"
	ws "github.com/ikkim/cosmetica-backend/internal/websocket"
	"github.com/ikkim/cosmetica-backend/pkg/metrics"
	"github.com/ikkim/cosmetica-backend/pkg/payment/yoco"
	"github.com/ikkim/cosmetica-backend/pkg/util"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	testJWTSecret  = "controller-test-secret"
	testIssuer     = "https://auth.test/auth/v1"
	testCookieName = "cart_session"
)

// fakeYoco is an in-memory hosted checkout API
type fakeYoco struct {
	mu        sync.Mutex
	seq       int
	checkouts map[string]*yoco.Checkout
	refunds   []string
	server    *httptest.Server
}

func newFakeYoco(t *testing.T) *fakeYoco {
	f := &fakeYoco{checkouts: make(map[string]*yoco.Checkout)}
	f.server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeYoco) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")

	switch {
	case r.Method == http.MethodPost && len(parts) == 1 && parts[0] == "checkouts":
		var req yoco.CheckoutRequest
		json.NewDecoder(r.Body).Decode(&req)
		f.seq++
		id := fmt.Sprintf("ch_%d", f.seq)
		f.checkouts[id] = &yoco.Checkout{
			ID:          id,
			RedirectURL: "https://pay.test/" + id,
			Status:      yoco.StatusCreated,
			Amount:      req.Amount,
			Currency:    req.Currency,
			Metadata:    req.Metadata,
		}
		json.NewEncoder(w).Encode(f.checkouts[id])

	case r.Method == http.MethodGet && len(parts) == 2:
		checkout, ok := f.checkouts[parts[1]]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(yoco.ErrorResponse{ErrorCode: "not_found", Message: "checkout not found"})
			return
		}
		json.NewEncoder(w).Encode(checkout)

	case r.Method == http.MethodPost && len(parts) == 3 && parts[2] == "refund":
		f.refunds = append(f.refunds, parts[1])
		json.NewEncoder(w).Encode(yoco.RefundResponse{ID: parts[1], RefundID: "rf_" + parts[1], Status: "succeeded"})

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// complete marks a checkout paid, as if the shopper finished the hosted page
func (f *fakeYoco) complete(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkouts[id].Status = yoco.StatusCompleted
	f.checkouts[id].PaymentID = "pay_" + id
}

type testApp struct {
	router *gin.Engine
	db     *gorm.DB
	yoco   *fakeYoco
	hub    *ws.Hub
}

// setupControllerTest wires the full stack on sqlite and an in-memory cart.
// An empty frontendURL makes payment callbacks answer with JSON.
func setupControllerTest(t *testing.T, frontendURL string) *testApp {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})
	require.NoError(t, db.Seed(testDB))

	fake := newFakeYoco(t)
	gateway, err := yoco.NewClient(yoco.Config{
		SecretKey: "sk_test_controller",
		BaseURL:   fake.server.URL,
		Currency:  "ZAR",
		Timeout:   5 * time.Second,
	})
	require.NoError(t, err)

	registry := cart.NewRegistry(cart.NewMemoryStorage())
	t.Cleanup(registry.Close)

	productRepo := repository.NewProductRepository(testDB)
	courseRepo := repository.NewCourseRepository(testDB)
	orderRepo := repository.NewOrderRepository(testDB)
	bookingRepo := repository.NewBookingRepository(testDB)

	rates := pricing.DefaultRates()
	urls := service.NewCallbackURLs("https://shop.test")
	m := metrics.New(nil)

	productService := service.NewProductService(productRepo, courseRepo)
	cartService := service.NewCartService(registry, productRepo, rates, m)
	paymentService := service.NewPaymentService(orderRepo, bookingRepo, cartService, gateway, m, testDB)
	checkoutService := service.NewCheckoutService(cartService, orderRepo, gateway, rates, urls, "ZAR", m, testDB)
	orderService := service.NewOrderService(orderRepo, bookingRepo, paymentService, testDB)
	bookingService := service.NewBookingService(bookingRepo, courseRepo, gateway, urls, "ZAR", m)
	exportService := service.NewExportService(orderRepo, nil)

	hub := ws.NewHub(cartService)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(func() {
		hub.Close()
		cancel()
	})

	productController := NewProductController(productService)
	cartController := NewCartController(cartService, hub, []string{"*"})
	checkoutController := NewCheckoutController(checkoutService)
	paymentController := NewPaymentController(paymentService, frontendURL)
	bookingController := NewBookingController(bookingService)
	orderController := NewOrderController(orderService, paymentService, exportService)

	auth := middleware.NewAuthMiddleware(testJWTSecret, testIssuer, []string{"admin"})
	session := middleware.CartSession(middleware.CartSessionConfig{
		CookieName: testCookieName,
		MaxAge:     time.Hour,
	}, cartService)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.LoggingMiddleware())

	v1 := router.Group("/api/v1")
	v1.GET("/products", productController.ListProducts)
	v1.GET("/products/:id", productController.GetProduct)
	v1.GET("/courses", productController.ListCourses)
	v1.GET("/courses/:id", productController.GetCourse)
	v1.GET("/courses/:id/quote", bookingController.QuoteBooking)

	shop := v1.Group("", auth.OptionalAuthenticate(), session)
	shop.GET("/cart", cartController.GetCart)
	shop.GET("/cart/count", cartController.GetItemCount)
	shop.GET("/cart/quote", cartController.Quote)
	shop.GET("/cart/ws", cartController.Stream)
	shop.POST("/cart/items", cartController.AddItem)
	shop.PUT("/cart/items/:id", cartController.UpdateItem)
	shop.DELETE("/cart/items/:id", cartController.RemoveItem)
	shop.DELETE("/cart", cartController.ClearCart)
	shop.POST("/checkout", checkoutController.Checkout)

	v1.POST("/bookings", auth.OptionalAuthenticate(), bookingController.CreateBooking)
	v1.GET("/payments/success", paymentController.OrderSuccess)
	v1.GET("/payments/cancel", paymentController.OrderCancel)
	v1.GET("/payments/failure", paymentController.OrderFailure)
	v1.GET("/payments/bookings/success", paymentController.BookingSuccess)
	v1.GET("/payments/bookings/cancel", paymentController.BookingCancel)

	account := v1.Group("", auth.Authenticate())
	account.GET("/orders", orderController.GetOrders)
	account.GET("/orders/:id", orderController.GetOrderByID)
	account.GET("/bookings", bookingController.ListBookings)
	account.GET("/bookings/:id", bookingController.GetBooking)

	admin := v1.Group("/admin", auth.Authenticate(), auth.RequireAdmin())
	admin.PUT("/orders/:id/status", orderController.UpdateOrderStatus)
	admin.POST("/orders/:id/refund", orderController.RefundOrder)
	admin.GET("/orders/export", orderController.ExportOrders)

	return &testApp{router: router, db: testDB, yoco: fake, hub: hub}
}

// shopper carries a cart cookie and an optional token between requests
type shopper struct {
	cookie *http.Cookie
	token  string
}

func newShopper() *shopper { return &shopper{} }

func signedIn(t *testing.T, userID, role string) *shopper {
	token, err := util.GenerateToken(userID, userID+"@example.com", role, testJWTSecret, testIssuer, time.Hour)
	require.NoError(t, err)
	return &shopper{token: token}
}

func (app *testApp) do(t *testing.T, s *shopper, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if s != nil {
		if s.cookie != nil {
			req.AddCookie(s.cookie)
		}
		if s.token != "" {
			req.Header.Set("Authorization", "Bearer "+s.token)
		}
	}

	w := httptest.NewRecorder()
	app.router.ServeHTTP(w, req)

	if s != nil {
		for _, ck := range w.Result().Cookies() {
			if ck.Name != testCookieName {
				continue
			}
			if ck.MaxAge < 0 {
				s.cookie = nil
			} else {
				s.cookie = &http.Cookie{Name: ck.Name, Value: ck.Value}
			}
		}
	}
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	var body map[string]interface{}
	decode(t, w, &body)
	code, _ := body["error"].(string)
	return code
}

type cartResponse struct {
	Cart cart.State `json:"cart"`
}

func (app *testApp) addItem(t *testing.T, s *shopper, productID, variant string, qty int) cart.State {
	t.Helper()
	w := app.do(t, s, http.MethodPost, "/api/v1/cart/items", AddToCartRequest{
		ProductID: productID,
		Variant:   variant,
		Quantity:  qty,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp cartResponse
	decode(t, w, &resp)
	return resp.Cart
}
