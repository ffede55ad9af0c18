package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/ikkim/cosmetica-backend/internal/app/repository"
	"github.com/ikkim/cosmetica-backend/internal/cart"
	"github.com/ikkim/cosmetica-backend/internal/db"
	"github.com/ikkim/cosmetica-backend/internal/pricing"
	"github.com/ikkim/cosmetica-backend/pkg/metrics"
	"github.com/ikkim/cosmetica-backend/pkg/payment/yoco"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeGateway records hosted checkouts in memory
type fakeGateway struct {
	mu        sync.Mutex
	seq       int
	checkouts map[string]*yoco.Checkout
	requests  []yoco.CheckoutRequest
	refunds   []string
	createErr error
	getErr    error
	refundErr error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{checkouts: make(map[string]*yoco.Checkout)}
}

func (g *fakeGateway) CreateCheckout(_ context.Context, req yoco.CheckoutRequest) (*yoco.Checkout, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.createErr != nil {
		return nil, g.createErr
	}
	g.seq++
	id := fmt.Sprintf("ch_%d", g.seq)
	g.checkouts[id] = &yoco.Checkout{
		ID:          id,
		RedirectURL: "https://pay.test/" + id,
		Status:      yoco.StatusCreated,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Metadata:    req.Metadata,
	}
	g.requests = append(g.requests, req)
	c := *g.checkouts[id]
	return &c, nil
}

func (g *fakeGateway) GetCheckout(_ context.Context, id string) (*yoco.Checkout, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.getErr != nil {
		return nil, g.getErr
	}
	c, ok := g.checkouts[id]
	if !ok {
		return nil, yoco.ErrCheckoutNotFound
	}
	cp := *c
	return &cp, nil
}

func (g *fakeGateway) Refund(_ context.Context, id string, _ yoco.RefundRequest) (*yoco.RefundResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.refundErr != nil {
		return nil, g.refundErr
	}
	g.refunds = append(g.refunds, id)
	return &yoco.RefundResponse{ID: id, RefundID: "rf_" + id, Status: "succeeded"}, nil
}

// complete marks a checkout as paid, as if the shopper finished on the
// hosted page
func (g *fakeGateway) complete(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.checkouts[id].Status = yoco.StatusCompleted
	g.checkouts[id].PaymentID = "pay_" + id
}

func (g *fakeGateway) lastRequest() yoco.CheckoutRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.requests[len(g.requests)-1]
}

type testEnv struct {
	db       *gorm.DB
	registry *cart.Registry
	storage  *cart.MemoryStorage
	gateway  *fakeGateway
	products ProductService
	cart     CartService
	checkout CheckoutService
	payments PaymentService
	orders   OrderService
	bookings BookingService
	exports  ExportService
}

func setupServiceTest(t *testing.T) *testEnv {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})
	require.NoError(t, db.Seed(testDB))

	storage := cart.NewMemoryStorage()
	registry := cart.NewRegistry(storage)
	t.Cleanup(registry.Close)

	productRepo := repository.NewProductRepository(testDB)
	courseRepo := repository.NewCourseRepository(testDB)
	orderRepo := repository.NewOrderRepository(testDB)
	bookingRepo := repository.NewBookingRepository(testDB)

	gateway := newFakeGateway()
	rates := pricing.DefaultRates()
	urls := NewCallbackURLs("https://shop.test")
	m := metrics.New(nil)

	cartService := NewCartService(registry, productRepo, rates, m)
	paymentService := NewPaymentService(orderRepo, bookingRepo, cartService, gateway, m, testDB)

	return &testEnv{
		db:       testDB,
		registry: registry,
		storage:  storage,
		gateway:  gateway,
		products: NewProductService(productRepo, courseRepo),
		cart:     cartService,
		checkout: NewCheckoutService(cartService, orderRepo, gateway, rates, urls, "ZAR", m, testDB),
		payments: paymentService,
		orders:   NewOrderService(orderRepo, bookingRepo, paymentService, testDB),
		bookings: NewBookingService(bookingRepo, courseRepo, gateway, urls, "ZAR", m),
		exports:  NewExportService(orderRepo, nil),
	}
}
