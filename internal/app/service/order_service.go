package service

import (
	"context"
	"errors"
	"time"

	"github.com/ikkim/cosmetica-backend/internal/app/model"
	"github.com/ikkim/cosmetica-backend/internal/app/repository"
	"github.com/ikkim/cosmetica-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrInvalidOrderStatus = errors.New("invalid order status")
	ErrInvalidTransition  = errors.New("order status transition not allowed")
)

// ExpiryReport summarises one run of the pending payment sweep
type ExpiryReport struct {
	OrdersExpired     int
	OrdersConfirmed   int
	BookingsExpired   int
	BookingsConfirmed int
}

type OrderService interface {
	GetUserOrders(userID string) ([]model.Order, error)
	GetOrderByID(userID string, orderID uint) (*model.Order, error)
	GetOrder(orderID uint) (*model.Order, error)
	UpdateOrderStatus(orderID uint, status model.OrderStatus) (*model.Order, error)
	ExpirePendingPayments(ctx context.Context, olderThan time.Duration) (*ExpiryReport, error)
}

type orderService struct {
	orderRepo   repository.OrderRepository
	bookingRepo repository.BookingRepository
	payments    PaymentService
	db          *gorm.DB
	now         func() time.Time
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	bookingRepo repository.BookingRepository,
	payments PaymentService,
	db *gorm.DB,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		bookingRepo: bookingRepo,
		payments:    payments,
		db:          db,
		now:         time.Now,
	}
}

func (s *orderService) GetUserOrders(userID string) ([]model.Order, error) {
	orders, err := s.orderRepo.FindByUserID(userID)
	if err != nil {
		logger.Error("Failed to fetch user orders", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return orders, nil
}

// GetOrderByID returns the order only to the user who placed it
func (s *orderService) GetOrderByID(userID string, orderID uint) (*model.Order, error) {
	order, err := s.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID == "" || order.UserID != userID {
		logger.Warn("Order requested by non-owner", map[string]interface{}{
			"order_id": orderID,
			"user_id":  userID,
		})
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *orderService) GetOrder(orderID uint) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

// UpdateOrderStatus moves an order along the fulfilment workflow. Cancelling
// an unpaid order gives its stock back.
func (s *orderService) UpdateOrderStatus(orderID uint, status model.OrderStatus) (*model.Order, error) {
	if !status.Valid() {
		return nil, ErrInvalidOrderStatus
	}

	order, err := s.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanTransitionTo(status) {
		logger.Warn("Rejected order status transition", map[string]interface{}{
			"order_id": orderID,
			"from":     order.Status,
			"to":       status,
		})
		return nil, ErrInvalidTransition
	}

	if order.Status == model.OrderStatusPending && status == model.OrderStatusCancelled {
		err = releaseOrder(s.db, orderID, status, model.PaymentStatusCancelled)
	} else {
		var changed bool
		changed, err = s.orderRepo.UpdateIfStatus(orderID, order.Status, map[string]interface{}{
			"status": status,
		})
		if err == nil && !changed {
			err = ErrInvalidTransition
		}
	}
	if err != nil {
		return nil, err
	}

	logger.Info("Order status updated", map[string]interface{}{
		"order_id": orderID,
		"from":     order.Status,
		"to":       status,
	})
	return s.GetOrder(orderID)
}

// ExpirePendingPayments sweeps orders and bookings left unpaid for longer
// than olderThan. Each one is checked with the gateway first, since a shopper
// may have paid without returning to the success page.
func (s *orderService) ExpirePendingPayments(ctx context.Context, olderThan time.Duration) (*ExpiryReport, error) {
	cutoff := s.now().Add(-olderThan)
	report := &ExpiryReport{}

	orders, err := s.orderRepo.FindPendingBefore(cutoff)
	if err != nil {
		return nil, err
	}
	for _, order := range orders {
		_, err := s.payments.ConfirmOrderPayment(ctx, order.ID)
		switch {
		case err == nil:
			report.OrdersConfirmed++
		case errors.Is(err, ErrPaymentNotComplete), errors.Is(err, ErrPaymentNotStarted):
			if err := releaseOrder(s.db, order.ID, model.OrderStatusExpired, model.PaymentStatusCancelled); err != nil {
				logger.Error("Failed to expire order", err, map[string]interface{}{
					"order_id": order.ID,
				})
				continue
			}
			report.OrdersExpired++
		default:
			logger.Warn("Skipping order expiry, payment status unknown", map[string]interface{}{
				"order_id": order.ID,
				"error":    err.Error(),
			})
		}
	}

	bookings, err := s.bookingRepo.FindPendingBefore(cutoff)
	if err != nil {
		return nil, err
	}
	for _, booking := range bookings {
		_, err := s.payments.ConfirmBookingPayment(ctx, booking.ID)
		switch {
		case err == nil:
			report.BookingsConfirmed++
		case errors.Is(err, ErrPaymentNotComplete), errors.Is(err, ErrPaymentNotStarted):
			changed, err := s.bookingRepo.UpdateIfStatus(booking.ID, model.BookingStatusPending, map[string]interface{}{
				"status":         model.BookingStatusExpired,
				"payment_status": model.PaymentStatusCancelled,
			})
			if err != nil {
				continue
			}
			if changed {
				report.BookingsExpired++
			}
		default:
			logger.Warn("Skipping booking expiry, payment status unknown", map[string]interface{}{
				"booking_id": booking.ID,
				"error":      err.Error(),
			})
		}
	}

	logger.Info("Pending payment sweep finished", map[string]interface{}{
		"orders_expired":     report.OrdersExpired,
		"orders_confirmed":   report.OrdersConfirmed,
		"bookings_expired":   report.BookingsExpired,
		"bookings_confirmed": report.BookingsConfirmed,
	})
	return report, nil
}
