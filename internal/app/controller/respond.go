package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/cosmetica-backend/internal/app/service"
	"github.com/ikkim/cosmetica-backend/internal/cart"
	apperrors "github.com/ikkim/cosmetica-backend/internal/errors"
	"github.com/ikkim/cosmetica-backend/internal/middleware"
	"github.com/ikkim/cosmetica-backend/internal/pricing"
)

type serviceError struct {
	target  error
	status  int
	code    string
	message string
}

// serviceErrors maps domain errors to responses. First match wins.
var serviceErrors = []serviceError{
	{service.ErrProductNotFound, http.StatusNotFound, apperrors.ProductNotFound, "Product not found"},
	{service.ErrProductUnavailable, http.StatusConflict, apperrors.ProductUnavailable, "This product is no longer available"},
	{service.ErrInvalidVariant, http.StatusBadRequest, apperrors.ProductInvalidVariant, "Please choose one of the offered options"},
	{service.ErrInsufficientStock, http.StatusConflict, apperrors.ProductOutOfStock, "Not enough stock for the requested quantity"},
	{service.ErrCourseNotFound, http.StatusNotFound, apperrors.CourseNotFound, "Course not found"},
	{service.ErrInvalidPackage, http.StatusBadRequest, apperrors.CourseInvalidPackage, "Please choose one of the offered packages"},
	{service.ErrInvalidDate, http.StatusBadRequest, apperrors.CourseInvalidDate, "Please choose one of the scheduled dates"},
	{pricing.ErrPackageRequired, http.StatusBadRequest, apperrors.CourseInvalidPackage, "Please choose a package"},
	{pricing.ErrDateRequired, http.StatusBadRequest, apperrors.CourseInvalidDate, "Please choose a date"},

	{cart.ErrInvalidQuantity, http.StatusBadRequest, apperrors.CartInvalidQuantity, "Quantity must be at least 1"},
	{cart.ErrStoreClosed, http.StatusServiceUnavailable, apperrors.CartUnavailable, "Your cart is temporarily unavailable"},
	{service.ErrEmptyCart, http.StatusBadRequest, apperrors.CartEmpty, "Your cart is empty"},

	{pricing.ErrUnknownShippingMethod, http.StatusBadRequest, apperrors.CheckoutInvalidShipping, "Please choose a shipping method"},
	{pricing.ErrLockerLocationRequired, http.StatusBadRequest, apperrors.CheckoutLockerRequired, "Please choose a locker location"},
	{pricing.ErrAddressRequired, http.StatusBadRequest, apperrors.CheckoutAddressRequired, "Street address, city and postal code are required"},
	{service.ErrContactRequired, http.StatusBadRequest, apperrors.ValidationRequired, "Full name and email are required"},

	{service.ErrOrderNotFound, http.StatusNotFound, apperrors.OrderNotFound, "Order not found"},
	{service.ErrBookingNotFound, http.StatusNotFound, apperrors.BookingNotFound, "Booking not found"},
	{service.ErrInvalidOrderStatus, http.StatusBadRequest, apperrors.OrderInvalidStatus, "Unknown order status"},
	{service.ErrInvalidTransition, http.StatusConflict, apperrors.OrderStatusTransition, "The order cannot move to that status"},
	{service.ErrInvalidExportRange, http.StatusBadRequest, apperrors.ValidationInvalidInput, "The export range end must be after its start"},

	{service.ErrPaymentInitiation, http.StatusBadGateway, apperrors.PaymentFailed, "We could not start the payment. Please try again"},
	{service.ErrPaymentNotComplete, http.StatusConflict, apperrors.PaymentNotComplete, "The payment has not been completed"},
	{service.ErrPaymentNotPaid, http.StatusConflict, apperrors.PaymentNotPaid, "The order has not been paid"},
	{service.ErrPaymentNotStarted, http.StatusConflict, apperrors.PaymentNotPaid, "No payment was started for this order"},
	{service.ErrPaymentRefunded, http.StatusConflict, apperrors.PaymentRefunded, "The payment was already refunded"},
	{service.ErrOrderNotPayable, http.StatusConflict, apperrors.OrderStatusTransition, "The order is no longer awaiting payment"},
	{service.ErrBookingNotPayable, http.StatusConflict, apperrors.OrderStatusTransition, "The booking is no longer awaiting payment"},
	{service.ErrInvalidPaymentState, http.StatusBadRequest, apperrors.ValidationInvalidInput, "Invalid payment status"},
}

// respondServiceError writes the response for err and logs it at a level
// matching its status. action names the operation, e.g. "add to cart".
func respondServiceError(c *gin.Context, err error, action string) {
	log := middleware.GetLoggerFromContext(c)

	for _, se := range serviceErrors {
		if errors.Is(err, se.target) {
			fields := map[string]interface{}{
				"action": action,
				"code":   se.code,
				"error":  err.Error(),
			}
			if se.status >= http.StatusInternalServerError {
				log.Error("Request failed", err, fields)
			} else {
				log.Warn("Request rejected", fields)
			}
			apperrors.RespondWithError(c, se.status, se.code, se.message)
			return
		}
	}

	log.Error("Request failed", err, map[string]interface{}{
		"action": action,
	})
	apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, action)
}

// parseUintParam reads a numeric path parameter
func parseUintParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		middleware.GetLoggerFromContext(c).Warn("Invalid id parameter", map[string]interface{}{
			name: raw,
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid id")
		return 0, false
	}
	return uint(id), true
}

// requireUser returns the signed-in user id or writes a 401
func requireUser(c *gin.Context) (string, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		middleware.GetLoggerFromContext(c).Warn("Unauthenticated request", nil)
		apperrors.Unauthorized(c, "")
		return "", false
	}
	return userID, true
}
