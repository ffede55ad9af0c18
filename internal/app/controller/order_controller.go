package controller

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/cosmetica-backend/internal/app/model"
	"github.com/ikkim/cosmetica-backend/internal/app/service"
	apperrors "github.com/ikkim/cosmetica-backend/internal/errors"
	"github.com/ikkim/cosmetica-backend/internal/middleware"
)

const (
	exportDateLayout   = "2006-01-02"
	defaultExportRange = 30 * 24 * time.Hour

	// set when the export was also archived
	exportURLHeader = "X-Export-URL"
)

type OrderController struct {
	orderService   service.OrderService
	paymentService service.PaymentService
	exportService  service.ExportService
}

func NewOrderController(
	orderService service.OrderService,
	paymentService service.PaymentService,
	exportService service.ExportService,
) *OrderController {
	return &OrderController{
		orderService:   orderService,
		paymentService: paymentService,
		exportService:  exportService,
	}
}

type UpdateOrderStatusRequest struct {
	Status model.OrderStatus `json:"status" binding:"required"`
}

// GetOrders returns the signed-in shopper's orders
// GET /api/v1/orders
func (ctrl *OrderController) GetOrders(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := requireUser(c)
	if !ok {
		return
	}

	orders, err := ctrl.orderService.GetUserOrders(userID)
	if err != nil {
		respondServiceError(c, err, "list orders")
		return
	}

	log.Info("Orders fetched successfully", map[string]interface{}{
		"user_id": userID,
		"count":   len(orders),
	})

	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"count":  len(orders),
	})
}

// GetOrderByID returns one of the shopper's orders
// GET /api/v1/orders/:id
func (ctrl *OrderController) GetOrderByID(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	orderID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	order, err := ctrl.orderService.GetOrderByID(userID, orderID)
	if err != nil {
		respondServiceError(c, err, "get order")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order": order,
	})
}

// UpdateOrderStatus moves an order through fulfilment (Admin only)
// PUT /api/v1/admin/orders/:id/status
func (ctrl *OrderController) UpdateOrderStatus(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	orderID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Status is required")
		return
	}

	order, err := ctrl.orderService.UpdateOrderStatus(orderID, req.Status)
	if err != nil {
		respondServiceError(c, err, "update order status")
		return
	}

	adminID, _ := middleware.GetUserID(c)
	log.Info("Order status updated", map[string]interface{}{
		"order_id": orderID,
		"status":   order.Status,
		"admin_id": adminID,
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "Order status updated",
		"order":   order,
	})
}

// RefundOrder refunds a paid order in full (Admin only)
// POST /api/v1/admin/orders/:id/refund
func (ctrl *OrderController) RefundOrder(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	orderID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	order, err := ctrl.paymentService.RefundOrder(c.Request.Context(), orderID)
	if err != nil {
		respondServiceError(c, err, "refund order")
		return
	}

	adminID, _ := middleware.GetUserID(c)
	log.Info("Order refunded", map[string]interface{}{
		"order_id": orderID,
		"admin_id": adminID,
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "Order refunded",
		"order":   order,
	})
}

// ExportOrders downloads orders placed in [from, to] as a spreadsheet
// (Admin only). Dates are inclusive days; the default is the last 30 days.
// GET /api/v1/admin/orders/export?from=2026-01-01&to=2026-01-31
func (ctrl *OrderController) ExportOrders(c *gin.Context) {
	now := time.Now().UTC()
	to := now
	from := now.Add(-defaultExportRange)

	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse(exportDateLayout, raw)
		if err != nil {
			apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "from must be a date like 2026-01-31")
			return
		}
		from = parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse(exportDateLayout, raw)
		if err != nil {
			apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "to must be a date like 2026-01-31")
			return
		}
		to = parsed.AddDate(0, 0, 1)
	}

	result, err := ctrl.exportService.ExportOrders(c.Request.Context(), from, to)
	if err != nil {
		respondServiceError(c, err, "export orders")
		return
	}

	if result.Archive != nil {
		c.Header(exportURLHeader, result.Archive.DownloadURL)
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, result.Filename))
	c.Data(http.StatusOK, service.XLSXContentType, result.Content)
}
