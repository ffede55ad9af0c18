package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/cosmetica-backend/internal/app/service"
	apperrors "github.com/ikkim/cosmetica-backend/internal/errors"
	"github.com/ikkim/cosmetica-backend/internal/middleware"
	"github.com/ikkim/cosmetica-backend/internal/pricing"
)

type CheckoutController struct {
	checkoutService service.CheckoutService
}

func NewCheckoutController(checkoutService service.CheckoutService) *CheckoutController {
	return &CheckoutController{
		checkoutService: checkoutService,
	}
}

type ContactRequest struct {
	FullName string `json:"full_name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone"`
}

type CheckoutRequest struct {
	Contact  ContactRequest            `json:"contact" binding:"required"`
	Shipping pricing.ShippingSelection `json:"shipping"`
	Address  pricing.Address           `json:"address"`
}

// Checkout places an order from the session cart and starts payment
// POST /api/v1/checkout
func (ctrl *CheckoutController) Checkout(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid checkout request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Full name and a valid email are required")
		return
	}

	method, err := pricing.ParseShippingMethod(string(req.Shipping.Method))
	if err != nil {
		respondServiceError(c, err, "checkout")
		return
	}
	req.Shipping.Method = method

	userID, _ := middleware.GetUserID(c)
	result, err := ctrl.checkoutService.Checkout(c.Request.Context(), service.CheckoutInput{
		SessionKey: middleware.GetCartKey(c),
		UserID:     userID,
		FullName:   req.Contact.FullName,
		Email:      req.Contact.Email,
		Phone:      req.Contact.Phone,
		Shipping:   req.Shipping,
		Address:    req.Address,
	})
	if err != nil {
		respondServiceError(c, err, "checkout")
		return
	}

	log.Info("Checkout started", map[string]interface{}{
		"order_id":    result.Order.ID,
		"reference":   result.Order.Reference,
		"grand_total": result.Order.GrandTotal,
	})

	c.JSON(http.StatusCreated, result)
}
