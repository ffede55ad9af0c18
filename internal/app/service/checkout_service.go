package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/ikkim/cosmetica-backend/internal/app/model"
	"github.com/ikkim/cosmetica-backend/internal/app/repository"
	"github.com/ikkim/cosmetica-backend/internal/pricing"
	"github.com/ikkim/cosmetica-backend/pkg/logger"
	"github.com/ikkim/cosmetica-backend/pkg/metrics"
	"github.com/ikkim/cosmetica-backend/pkg/payment/yoco"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrContactRequired   = errors.New("full name and email are required")
	ErrPaymentInitiation = errors.New("failed to start payment")
)

const paymentProviderYoco = "yoco"

// CheckoutInput is everything the checkout form submits plus the session
// that owns the cart
type CheckoutInput struct {
	SessionKey string
	UserID     string
	FullName   string
	Email      string
	Phone      string
	Shipping   pricing.ShippingSelection
	Address    pricing.Address
}

type CheckoutResult struct {
	Order       *model.Order `json:"order"`
	RedirectURL string       `json:"redirect_url"`
}

type CheckoutService interface {
	Checkout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error)
}

type checkoutService struct {
	cartService CartService
	orderRepo   repository.OrderRepository
	gateway     PaymentGateway
	rates       pricing.Rates
	urls        CallbackURLs
	currency    string
	metrics     *metrics.StoreMetrics
	db          *gorm.DB
}

func NewCheckoutService(
	cartService CartService,
	orderRepo repository.OrderRepository,
	gateway PaymentGateway,
	rates pricing.Rates,
	urls CallbackURLs,
	currency string,
	m *metrics.StoreMetrics,
	db *gorm.DB,
) CheckoutService {
	return &checkoutService{
		cartService: cartService,
		orderRepo:   orderRepo,
		gateway:     gateway,
		rates:       rates,
		urls:        urls,
		currency:    currency,
		metrics:     m,
		db:          db,
	}
}

// Checkout turns the live cart into a pending order and opens a hosted
// payment page for its grand total. The cart is left intact until the
// payment is confirmed.
func (s *checkoutService) Checkout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error) {
	method := input.Shipping.Method
	logger.Info("Starting checkout", map[string]interface{}{
		"cart_key":        input.SessionKey,
		"user_id":         input.UserID,
		"shipping_method": method,
	})

	if input.FullName == "" || input.Email == "" {
		return nil, ErrContactRequired
	}
	if err := input.Shipping.Validate(); err != nil {
		s.metrics.IncCheckout(string(method), "invalid")
		return nil, err
	}
	if err := input.Shipping.ValidateAddress(input.Address); err != nil {
		s.metrics.IncCheckout(string(method), "invalid")
		return nil, err
	}

	state, err := s.cartService.GetCart(ctx, input.SessionKey)
	if err != nil {
		return nil, err
	}
	if state.IsEmpty() {
		s.metrics.IncCheckout(string(method), "empty")
		return nil, ErrEmptyCart
	}

	quote, err := s.rates.Quote(state.Subtotal, method)
	if err != nil {
		return nil, err
	}

	order := &model.Order{
		Reference:      model.NewReference("ORD"),
		UserID:         input.UserID,
		SessionKey:     input.SessionKey,
		FullName:       input.FullName,
		Email:          input.Email,
		Phone:          input.Phone,
		ShippingMethod: method,
		LockerLocation: input.Shipping.LockerLocation,
		Subtotal:       quote.Subtotal,
		ShippingCost:   quote.Shipping,
		GrandTotal:     quote.GrandTotal,
		Currency:       s.currency,
		Status:         model.OrderStatusPending,
		PaymentStatus:  model.PaymentStatusPending,
	}
	if input.Shipping.RequiresAddress() {
		order.Address = input.Address
	}
	for _, li := range state.Items {
		order.OrderItems = append(order.OrderItems, model.OrderItem{
			ProductID: li.ProductID,
			Name:      li.Name,
			Variant:   li.Variant,
			ImageURL:  li.Image,
			Price:     li.Price,
			Quantity:  li.Quantity,
			LineTotal: li.LineTotal(),
		})
	}

	if err := s.reserveAndCreate(order); err != nil {
		s.metrics.IncCheckout(string(method), "rejected")
		return nil, err
	}

	checkout, err := s.gateway.CreateCheckout(ctx, yoco.CheckoutRequest{
		Amount:     int64(order.GrandTotal),
		Currency:   s.currency,
		SuccessURL: s.urls.orderURL(s.urls.Success, order.ID),
		CancelURL:  s.urls.orderURL(s.urls.Cancel, order.ID),
		FailureURL: s.urls.orderURL(s.urls.Failure, order.ID),
		Metadata: map[string]string{
			"order_reference": order.Reference,
		},
		IdempotencyKey: order.Reference,
	})
	if err != nil {
		logger.Error("Failed to create hosted checkout", err, map[string]interface{}{
			"order_id":  order.ID,
			"reference": order.Reference,
		})
		if relErr := releaseOrder(s.db, order.ID, model.OrderStatusCancelled, model.PaymentStatusFailed); relErr != nil {
			logger.Error("Failed to release order after payment error", relErr, map[string]interface{}{
				"order_id": order.ID,
			})
		}
		s.metrics.IncCheckout(string(method), "payment_error")
		return nil, fmt.Errorf("%w: %v", ErrPaymentInitiation, err)
	}

	order.PaymentProvider = paymentProviderYoco
	order.PaymentCheckoutID = checkout.ID
	if err := s.orderRepo.Update(order); err != nil {
		return nil, err
	}

	s.metrics.IncCheckout(string(method), "created")
	logger.Info("Checkout created", map[string]interface{}{
		"order_id":    order.ID,
		"reference":   order.Reference,
		"grand_total": order.GrandTotal.String(),
		"checkout_id": checkout.ID,
	})

	return &CheckoutResult{
		Order:       order,
		RedirectURL: checkout.RedirectURL,
	}, nil
}

// reserveAndCreate decrements stock for every line and inserts the order in
// one transaction
func (s *checkoutService) reserveAndCreate(order *model.Order) error {
	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	for _, item := range order.OrderItems {
		var product model.Product
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&product, "id = ?", item.ProductID).Error; err != nil {
			tx.Rollback()
			if errors.Is(err, gorm.ErrRecordNotFound) {
				logger.Warn("Cart line references a missing product", map[string]interface{}{
					"product_id": item.ProductID,
				})
				return ErrProductUnavailable
			}
			return err
		}

		if !product.Active {
			tx.Rollback()
			return ErrProductUnavailable
		}
		if product.StockQuantity < item.Quantity {
			tx.Rollback()
			logger.Warn("Insufficient stock at checkout", map[string]interface{}{
				"product_id": product.ID,
				"requested":  item.Quantity,
				"available":  product.StockQuantity,
			})
			return ErrInsufficientStock
		}

		if err := tx.Model(&model.Product{}).
			Where("id = ?", product.ID).
			Update("stock_quantity", gorm.Expr("stock_quantity - ?", item.Quantity)).Error; err != nil {
			tx.Rollback()
			return err
		}
	}

	if err := s.orderRepo.WithTx(tx).Create(order); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit().Error; err != nil {
		logger.Error("Failed to commit checkout transaction", err, map[string]interface{}{
			"reference": order.Reference,
		})
		return err
	}
	return nil
}

// releaseOrder moves a pending order to status and gives its stock back.
// Orders that already left pending are not touched.
func releaseOrder(db *gorm.DB, orderID uint, status model.OrderStatus, paymentStatus model.PaymentStatus) error {
	return db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Order{}).
			Where("id = ? AND status = ?", orderID, model.OrderStatusPending).
			Updates(map[string]interface{}{
				"status":         status,
				"payment_status": paymentStatus,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		return restockOrder(tx, orderID)
	})
}

func restockOrder(tx *gorm.DB, orderID uint) error {
	var items []model.OrderItem
	if err := tx.Where("order_id = ?", orderID).Find(&items).Error; err != nil {
		return err
	}
	for _, item := range items {
		if err := tx.Model(&model.Product{}).
			Where("id = ?", item.ProductID).
			Update("stock_quantity", gorm.Expr("stock_quantity + ?", item.Quantity)).Error; err != nil {
			return err
		}
	}
	return nil
}
