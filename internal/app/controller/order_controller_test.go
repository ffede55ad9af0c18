package controller

import (
	"bytes"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/ikkim/cosmetica-backend/internal/app/model"
	"github.com/ikkim/cosmetica-backend/internal/app/service"
	"github.com/ikkim/cosmetica-backend/internal/pricing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type orderResponse struct {
	Order model.Order `json:"order"`
}

// paidOrder places and pays an order for user
func (app *testApp) paidOrder(t *testing.T, user *shopper) model.Order {
	t.Helper()
	app.addItem(t, user, "gel-02", "50ml", 2)
	resp := app.checkout(t, user, checkoutRequest(pricing.ShippingDoorToDoor))
	app.yoco.complete(resp.checkoutID())

	w := app.do(t, nil, http.MethodGet, fmt.Sprintf("/api/v1/payments/success?order_id=%d", resp.Order.ID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return resp.Order
}

func TestOrderController_UserOrders(t *testing.T) {
	app := setupControllerTest(t, "")
	user := signedIn(t, "user-orders", "")
	order := app.paidOrder(t, user)
	assert.Equal(t, "user-orders", order.UserID)

	w := app.do(t, user, http.MethodGet, "/api/v1/orders", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Orders []model.Order `json:"orders"`
		Count  int           `json:"count"`
	}
	decode(t, w, &list)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, model.OrderStatusConfirmed, list.Orders[0].Status)

	w = app.do(t, user, http.MethodGet, fmt.Sprintf("/api/v1/orders/%d", order.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp orderResponse
	decode(t, w, &resp)
	require.Len(t, resp.Order.OrderItems, 1)
	assert.Equal(t, "50ml", resp.Order.OrderItems[0].Variant)

	w = app.do(t, signedIn(t, "user-nosy", ""), http.MethodGet, fmt.Sprintf("/api/v1/orders/%d", order.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = app.do(t, user, http.MethodGet, "/api/v1/orders/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(t, nil, http.MethodGet, "/api/v1/orders", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOrderController_AdminStatusAndRefund(t *testing.T) {
	app := setupControllerTest(t, "")
	admin := signedIn(t, "admin-1", "admin")
	order := app.paidOrder(t, signedIn(t, "user-buyer", ""))
	statusURL := fmt.Sprintf("/api/v1/admin/orders/%d/status", order.ID)

	w := app.do(t, signedIn(t, "user-buyer", ""), http.MethodPut, statusURL, UpdateOrderStatusRequest{Status: model.OrderStatusShipped})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = app.do(t, admin, http.MethodPut, statusURL, UpdateOrderStatusRequest{Status: "lost"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ORDER_INVALID_STATUS", errorCode(t, w))

	w = app.do(t, admin, http.MethodPut, statusURL, UpdateOrderStatusRequest{Status: model.OrderStatusPending})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "ORDER_STATUS_TRANSITION", errorCode(t, w))

	w = app.do(t, admin, http.MethodPut, statusURL, UpdateOrderStatusRequest{Status: model.OrderStatusShipped})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp orderResponse
	decode(t, w, &resp)
	assert.Equal(t, model.OrderStatusShipped, resp.Order.Status)

	refundURL := fmt.Sprintf("/api/v1/admin/orders/%d/refund", order.ID)
	w = app.do(t, admin, http.MethodPost, refundURL, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &resp)
	assert.Equal(t, model.PaymentStatusRefunded, resp.Order.PaymentStatus)
	assert.Equal(t, []string{"ch_1"}, app.yoco.refunds)

	w = app.do(t, admin, http.MethodPost, refundURL, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "PAYMENT_ALREADY_REFUNDED", errorCode(t, w))
}

func TestOrderController_RefundUnpaid(t *testing.T) {
	app := setupControllerTest(t, "")
	user := signedIn(t, "user-unpaid", "")
	app.addItem(t, user, "oil-01", "", 1)
	resp := app.checkout(t, user, checkoutRequest(pricing.ShippingStorePickup))

	w := app.do(t, signedIn(t, "admin-1", "admin"), http.MethodPost, fmt.Sprintf("/api/v1/admin/orders/%d/refund", resp.Order.ID), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "PAYMENT_NOT_PAID", errorCode(t, w))
}

func TestOrderController_Export(t *testing.T) {
	app := setupControllerTest(t, "")
	admin := signedIn(t, "admin-1", "admin")
	app.paidOrder(t, signedIn(t, "user-export", ""))

	today := time.Now().UTC().Format(exportDateLayout)
	w := app.do(t, admin, http.MethodGet, "/api/v1/admin/orders/export?from="+today+"&to="+today, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, service.XLSXContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	assert.Empty(t, w.Header().Get(exportURLHeader))

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Orders")
	require.NoError(t, err)
	assert.Len(t, rows, 2, "header plus one order")

	w = app.do(t, admin, http.MethodGet, "/api/v1/admin/orders/export?from=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(t, admin, http.MethodGet, "/api/v1/admin/orders/export?from=2026-02-01&to=2026-01-01", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
