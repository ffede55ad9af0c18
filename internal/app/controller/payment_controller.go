package controller

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/cosmetica-backend/internal/app/model"
	"github.com/ikkim/cosmetica-backend/internal/app/service"
	apperrors "github.com/ikkim/cosmetica-backend/internal/errors"
	"github.com/ikkim/cosmetica-backend/internal/middleware"
)

// Outcome values passed back to the storefront
const (
	outcomePaid      = "paid"
	outcomePending   = "pending"
	outcomeCancelled = "cancelled"
	outcomeFailed    = "failed"
	outcomeClosed    = "closed"
	outcomeError     = "error"
)

// PaymentController handles the shopper returning from the hosted checkout.
// With a frontend URL configured it redirects there; otherwise it answers
// with JSON.
type PaymentController struct {
	paymentService service.PaymentService
	frontendURL    string
}

func NewPaymentController(paymentService service.PaymentService, frontendURL string) *PaymentController {
	return &PaymentController{
		paymentService: paymentService,
		frontendURL:    frontendURL,
	}
}

// OrderSuccess confirms an order payment with the gateway
// GET /api/v1/payments/success?order_id=
func (ctrl *PaymentController) OrderSuccess(c *gin.Context) {
	orderID, ok := queryID(c, "order_id")
	if !ok {
		return
	}

	order, err := ctrl.paymentService.ConfirmOrderPayment(c.Request.Context(), orderID)
	ctrl.finishOrder(c, orderID, order, outcomePaid, err)
}

// OrderCancel releases an order the shopper backed out of
// GET /api/v1/payments/cancel?order_id=
func (ctrl *PaymentController) OrderCancel(c *gin.Context) {
	ctrl.abandonOrder(c, model.PaymentStatusCancelled, outcomeCancelled)
}

// OrderFailure releases an order whose payment was declined
// GET /api/v1/payments/failure?order_id=
func (ctrl *PaymentController) OrderFailure(c *gin.Context) {
	ctrl.abandonOrder(c, model.PaymentStatusFailed, outcomeFailed)
}

func (ctrl *PaymentController) abandonOrder(c *gin.Context, status model.PaymentStatus, outcome string) {
	orderID, ok := queryID(c, "order_id")
	if !ok {
		return
	}

	order, err := ctrl.paymentService.AbandonOrderPayment(c.Request.Context(), orderID, status)
	ctrl.finishOrder(c, orderID, order, outcome, err)
}

// BookingSuccess confirms a course booking payment
// GET /api/v1/payments/bookings/success?booking_id=
func (ctrl *PaymentController) BookingSuccess(c *gin.Context) {
	bookingID, ok := queryID(c, "booking_id")
	if !ok {
		return
	}

	booking, err := ctrl.paymentService.ConfirmBookingPayment(c.Request.Context(), bookingID)
	ctrl.finishBooking(c, bookingID, booking, outcomePaid, err)
}

// BookingCancel releases a booking the shopper backed out of
// GET /api/v1/payments/bookings/cancel?booking_id=
func (ctrl *PaymentController) BookingCancel(c *gin.Context) {
	bookingID, ok := queryID(c, "booking_id")
	if !ok {
		return
	}

	booking, err := ctrl.paymentService.AbandonBookingPayment(c.Request.Context(), bookingID)
	ctrl.finishBooking(c, bookingID, booking, outcomeCancelled, err)
}

func (ctrl *PaymentController) finishOrder(c *gin.Context, orderID uint, order *model.Order, outcome string, err error) {
	log := middleware.GetLoggerFromContext(c)

	if err != nil {
		outcome = paymentOutcome(err)
		log.Warn("Order payment callback not applied", map[string]interface{}{
			"order_id": orderID,
			"outcome":  outcome,
			"error":    err.Error(),
		})
	} else {
		log.Info("Order payment callback applied", map[string]interface{}{
			"order_id": orderID,
			"outcome":  outcome,
		})
	}

	if ctrl.frontendURL != "" {
		ctrl.redirect(c, "/checkout/result", "order_id", orderID, outcome)
		return
	}
	if err != nil {
		respondServiceError(c, err, "payment callback")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": outcome,
		"order":  order,
	})
}

func (ctrl *PaymentController) finishBooking(c *gin.Context, bookingID uint, booking *model.Booking, outcome string, err error) {
	log := middleware.GetLoggerFromContext(c)

	if err != nil {
		outcome = paymentOutcome(err)
		log.Warn("Booking payment callback not applied", map[string]interface{}{
			"booking_id": bookingID,
			"outcome":    outcome,
			"error":      err.Error(),
		})
	}

	if ctrl.frontendURL != "" {
		ctrl.redirect(c, "/courses/booking-result", "booking_id", bookingID, outcome)
		return
	}
	if err != nil {
		respondServiceError(c, err, "booking payment callback")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  outcome,
		"booking": booking,
	})
}

func (ctrl *PaymentController) redirect(c *gin.Context, path, idParam string, id uint, outcome string) {
	q := url.Values{}
	q.Set(idParam, strconv.FormatUint(uint64(id), 10))
	q.Set("status", outcome)
	c.Redirect(http.StatusFound, fmt.Sprintf("%s%s?%s", ctrl.frontendURL, path, q.Encode()))
}

// paymentOutcome tells the storefront which page to show when a callback
// could not be applied
func paymentOutcome(err error) string {
	switch {
	case errors.Is(err, service.ErrPaymentNotComplete):
		return outcomePending
	case errors.Is(err, service.ErrOrderNotPayable), errors.Is(err, service.ErrBookingNotPayable):
		return outcomeClosed
	default:
		return outcomeError
	}
}

func queryID(c *gin.Context, name string) (uint, bool) {
	raw := c.Query(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		middleware.GetLoggerFromContext(c).Warn("Missing or invalid callback id", map[string]interface{}{
			name: raw,
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Missing or invalid "+name)
		return 0, false
	}
	return uint(id), true
}
