package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/ikkim/cosmetica-backend/internal/app/model"
	"github.com/ikkim/cosmetica-backend/internal/app/repository"
	"github.com/ikkim/cosmetica-backend/pkg/logger"
	"github.com/ikkim/cosmetica-backend/pkg/metrics"
	"github.com/ikkim/cosmetica-backend/pkg/payment/yoco"
	"gorm.io/gorm"
)

var (
	ErrPaymentNotComplete  = errors.New("payment has not been completed")
	ErrPaymentNotPaid      = errors.New("order has not been paid")
	ErrPaymentRefunded     = errors.New("payment already refunded")
	ErrPaymentNotStarted   = errors.New("no payment was started for this order")
	ErrOrderNotPayable     = errors.New("order is no longer awaiting payment")
	ErrBookingNotPayable   = errors.New("booking is no longer awaiting payment")
	ErrInvalidPaymentState = errors.New("invalid payment status")
)

// PaymentGateway is the hosted-checkout provider. *yoco.Client satisfies it.
type PaymentGateway interface {
	CreateCheckout(ctx context.Context, req yoco.CheckoutRequest) (*yoco.Checkout, error)
	GetCheckout(ctx context.Context, checkoutID string) (*yoco.Checkout, error)
	Refund(ctx context.Context, checkoutID string, req yoco.RefundRequest) (*yoco.RefundResponse, error)
}

// CallbackURLs are where the gateway sends the shopper back to. Each gets
// an order_id or booking_id query parameter appended.
type CallbackURLs struct {
	Success        string
	Cancel         string
	Failure        string
	BookingSuccess string
	BookingCancel  string
}

// NewCallbackURLs derives the payment return URLs from the public base URL
func NewCallbackURLs(publicURL string) CallbackURLs {
	base := publicURL + "/api/v1/payments"
	return CallbackURLs{
		Success:        base + "/success",
		Cancel:         base + "/cancel",
		Failure:        base + "/failure",
		BookingSuccess: base + "/bookings/success",
		BookingCancel:  base + "/bookings/cancel",
	}
}

func (u CallbackURLs) orderURL(base string, orderID uint) string {
	return withQuery(base, "order_id", orderID)
}

func (u CallbackURLs) bookingURL(base string, bookingID uint) string {
	return withQuery(base, "booking_id", bookingID)
}

func withQuery(base, name string, id uint) string {
	q := url.Values{}
	q.Set(name, strconv.FormatUint(uint64(id), 10))
	return base + "?" + q.Encode()
}

type PaymentService interface {
	ConfirmOrderPayment(ctx context.Context, orderID uint) (*model.Order, error)
	AbandonOrderPayment(ctx context.Context, orderID uint, status model.PaymentStatus) (*model.Order, error)
	RefundOrder(ctx context.Context, orderID uint) (*model.Order, error)
	ConfirmBookingPayment(ctx context.Context, bookingID uint) (*model.Booking, error)
	AbandonBookingPayment(ctx context.Context, bookingID uint) (*model.Booking, error)
}

type paymentService struct {
	orderRepo   repository.OrderRepository
	bookingRepo repository.BookingRepository
	cartService CartService
	gateway     PaymentGateway
	metrics     *metrics.StoreMetrics
	db          *gorm.DB
	now         func() time.Time
}

func NewPaymentService(
	orderRepo repository.OrderRepository,
	bookingRepo repository.BookingRepository,
	cartService CartService,
	gateway PaymentGateway,
	m *metrics.StoreMetrics,
	db *gorm.DB,
) PaymentService {
	return &paymentService{
		orderRepo:   orderRepo,
		bookingRepo: bookingRepo,
		cartService: cartService,
		gateway:     gateway,
		metrics:     m,
		db:          db,
		now:         time.Now,
	}
}

func (s *paymentService) findOrder(orderID uint) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

// ConfirmOrderPayment asks the gateway whether the order's checkout was paid.
// On success the order is confirmed and the shopper's cart is cleared.
// Repeated calls for a paid order return it unchanged.
func (s *paymentService) ConfirmOrderPayment(ctx context.Context, orderID uint) (*model.Order, error) {
	log := logger.Get()

	order, err := s.findOrder(orderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus == model.PaymentStatusCompleted {
		return order, nil
	}
	if order.Status != model.OrderStatusPending {
		log.Warn("Payment confirmation for order not pending", map[string]interface{}{
			"order_id": orderID,
			"status":   order.Status,
		})
		return nil, ErrOrderNotPayable
	}
	if order.PaymentCheckoutID == "" {
		return nil, ErrPaymentNotStarted
	}

	checkout, err := s.gateway.GetCheckout(ctx, order.PaymentCheckoutID)
	if err != nil {
		log.Error("Failed to fetch checkout status", err, map[string]interface{}{
			"order_id":    orderID,
			"checkout_id": order.PaymentCheckoutID,
		})
		return nil, fmt.Errorf("failed to verify payment: %w", err)
	}
	if !checkout.Completed() {
		log.Info("Checkout not completed yet", map[string]interface{}{
			"order_id": orderID,
			"status":   checkout.Status,
		})
		return nil, ErrPaymentNotComplete
	}

	paidAt := s.now()
	changed, err := s.orderRepo.UpdateIfStatus(order.ID, model.OrderStatusPending, map[string]interface{}{
		"status":         model.OrderStatusConfirmed,
		"payment_status": model.PaymentStatusCompleted,
		"payment_id":     checkout.PaymentID,
		"paid_at":        paidAt,
	})
	if err != nil {
		return nil, err
	}

	if changed {
		if order.SessionKey != "" {
			if err := s.cartService.ClearCart(ctx, order.SessionKey); err != nil {
				log.Error("Failed to clear cart after payment", err, map[string]interface{}{
					"order_id": orderID,
					"cart_key": order.SessionKey,
				})
			}
		}
		s.metrics.IncPayment("order", string(model.PaymentStatusCompleted))
		log.Info("Order payment confirmed", map[string]interface{}{
			"order_id":   orderID,
			"reference":  order.Reference,
			"payment_id": checkout.PaymentID,
		})
	}

	return s.findOrder(orderID)
}

// AbandonOrderPayment handles the cancel and failure redirects. The order is
// cancelled and its stock released; the cart is kept so the shopper can try
// again.
func (s *paymentService) AbandonOrderPayment(ctx context.Context, orderID uint, status model.PaymentStatus) (*model.Order, error) {
	if status != model.PaymentStatusCancelled && status != model.PaymentStatusFailed {
		return nil, ErrInvalidPaymentState
	}

	order, err := s.findOrder(orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != model.OrderStatusPending {
		return order, nil
	}

	if err := releaseOrder(s.db, order.ID, model.OrderStatusCancelled, status); err != nil {
		logger.Error("Failed to release abandoned order", err, map[string]interface{}{
			"order_id": orderID,
		})
		return nil, err
	}

	s.metrics.IncPayment("order", string(status))
	logger.Info("Order payment abandoned", map[string]interface{}{
		"order_id":       orderID,
		"payment_status": status,
	})
	return s.findOrder(orderID)
}

// RefundOrder refunds a paid order in full through the gateway
func (s *paymentService) RefundOrder(ctx context.Context, orderID uint) (*model.Order, error) {
	order, err := s.findOrder(orderID)
	if err != nil {
		return nil, err
	}

	switch order.PaymentStatus {
	case model.PaymentStatusCompleted:
	case model.PaymentStatusRefunded:
		return nil, ErrPaymentRefunded
	default:
		return nil, ErrPaymentNotPaid
	}

	resp, err := s.gateway.Refund(ctx, order.PaymentCheckoutID, yoco.RefundRequest{
		IdempotencyKey: "refund-" + order.Reference,
	})
	if err != nil {
		if errors.Is(err, yoco.ErrAlreadyRefunded) {
			return nil, ErrPaymentRefunded
		}
		logger.Error("Failed to refund order", err, map[string]interface{}{
			"order_id": orderID,
		})
		return nil, fmt.Errorf("failed to refund payment: %w", err)
	}

	refundedAt := s.now()
	restock := order.Status == model.OrderStatusConfirmed
	err = s.db.Transaction(func(tx *gorm.DB) error {
		changed, err := s.orderRepo.WithTx(tx).UpdateIfStatus(order.ID, order.Status, map[string]interface{}{
			"status":         model.OrderStatusCancelled,
			"payment_status": model.PaymentStatusRefunded,
			"refunded_at":    refundedAt,
		})
		if err != nil {
			return err
		}
		if changed && restock {
			return restockOrder(tx, order.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncPayment("order", string(model.PaymentStatusRefunded))
	logger.Info("Order refunded", map[string]interface{}{
		"order_id":  orderID,
		"refund_id": resp.RefundID,
		"restocked": restock,
	})
	return s.findOrder(orderID)
}

func (s *paymentService) findBooking(bookingID uint) (*model.Booking, error) {
	booking, err := s.bookingRepo.FindByID(bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return booking, nil
}

func (s *paymentService) ConfirmBookingPayment(ctx context.Context, bookingID uint) (*model.Booking, error) {
	booking, err := s.findBooking(bookingID)
	if err != nil {
		return nil, err
	}
	if booking.PaymentStatus == model.PaymentStatusCompleted {
		return booking, nil
	}
	if booking.Status != model.BookingStatusPending {
		return nil, ErrBookingNotPayable
	}
	if booking.PaymentCheckoutID == "" {
		return nil, ErrPaymentNotStarted
	}

	checkout, err := s.gateway.GetCheckout(ctx, booking.PaymentCheckoutID)
	if err != nil {
		logger.Error("Failed to fetch booking checkout status", err, map[string]interface{}{
			"booking_id": bookingID,
		})
		return nil, fmt.Errorf("failed to verify payment: %w", err)
	}
	if !checkout.Completed() {
		return nil, ErrPaymentNotComplete
	}

	changed, err := s.bookingRepo.UpdateIfStatus(booking.ID, model.BookingStatusPending, map[string]interface{}{
		"status":         model.BookingStatusConfirmed,
		"payment_status": model.PaymentStatusCompleted,
		"payment_id":     checkout.PaymentID,
		"paid_at":        s.now(),
	})
	if err != nil {
		return nil, err
	}
	if changed {
		s.metrics.IncPayment("booking", string(model.PaymentStatusCompleted))
		logger.Info("Booking payment confirmed", map[string]interface{}{
			"booking_id": bookingID,
			"reference":  booking.Reference,
		})
	}
	return s.findBooking(bookingID)
}

func (s *paymentService) AbandonBookingPayment(ctx context.Context, bookingID uint) (*model.Booking, error) {
	booking, err := s.findBooking(bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != model.BookingStatusPending {
		return booking, nil
	}

	changed, err := s.bookingRepo.UpdateIfStatus(booking.ID, model.BookingStatusPending, map[string]interface{}{
		"status":         model.BookingStatusCancelled,
		"payment_status": model.PaymentStatusCancelled,
	})
	if err != nil {
		return nil, err
	}
	if changed {
		s.metrics.IncPayment("booking", string(model.PaymentStatusCancelled))
	}
	return s.findBooking(bookingID)
}
