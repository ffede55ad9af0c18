package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ikkim/cosmetica-backend/internal/app/model"
	"github.com/ikkim/cosmetica-backend/internal/pricing"
	"github.com/ikkim/cosmetica-backend/pkg/money"
	"github.com/ikkim/cosmetica-backend/pkg/payment/yoco"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testAddress = pricing.Address{Street: "12 Long St", City: "Cape Town", PostalCode: "8001"}

func checkoutInput(method pricing.ShippingMethod) CheckoutInput {
	return CheckoutInput{
		SessionKey: testCartKey,
		FullName:   "Lerato Mokoena",
		Email:      "lerato@example.com",
		Phone:      "+27821234567",
		Shipping:   pricing.ShippingSelection{Method: method},
		Address:    testAddress,
	}
}

func fillCart(t *testing.T, env *testEnv) {
	ctx := context.Background()
	_, err := env.cart.AddToCart(ctx, testCartKey, AddToCartInput{ProductID: "acr-01", Variant: "Pink", Quantity: 2})
	require.NoError(t, err)
	_, err = env.cart.AddToCart(ctx, testCartKey, AddToCartInput{ProductID: "brush-01", Quantity: 1})
	require.NoError(t, err)
}

func stockOf(t *testing.T, env *testEnv, productID string) int {
	var p model.Product
	require.NoError(t, env.db.First(&p, "id = ?", productID).Error)
	return p.StockQuantity
}

func TestCheckoutService_CreatesPendingOrder(t *testing.T) {
	env := setupServiceTest(t)
	fillCart(t, env)

	result, err := env.checkout.Checkout(context.Background(), checkoutInput(pricing.ShippingDoorToDoor))
	require.NoError(t, err)

	order := result.Order
	assert.True(t, strings.HasPrefix(order.Reference, "ORD-"))
	assert.Equal(t, money.FromMajor(1550), order.Subtotal)
	assert.Zero(t, order.ShippingCost)
	assert.Equal(t, money.FromMajor(1550), order.GrandTotal)
	assert.Equal(t, model.OrderStatusPending, order.Status)
	assert.Equal(t, model.PaymentStatusPending, order.PaymentStatus)
	assert.Equal(t, "Cape Town", order.Address.City)
	assert.Equal(t, "ch_1", order.PaymentCheckoutID)
	assert.Equal(t, "https://pay.test/ch_1", result.RedirectURL)
	require.Len(t, order.OrderItems, 2)

	req := env.gateway.lastRequest()
	assert.Equal(t, int64(155000), req.Amount)
	assert.Equal(t, "ZAR", req.Currency)
	assert.Equal(t, order.Reference, req.IdempotencyKey)
	assert.Contains(t, req.SuccessURL, "https://shop.test/api/v1/payments/success?order_id=")

	assert.Equal(t, 118, stockOf(t, env, "acr-01"))
	assert.Equal(t, 39, stockOf(t, env, "brush-01"))

	// the cart survives until payment is confirmed
	state, err := env.cart.GetCart(context.Background(), testCartKey)
	require.NoError(t, err)
	assert.Equal(t, 3, state.ItemCount)
}

func TestCheckoutService_ShippingByMethod(t *testing.T) {
	tests := []struct {
		method       pricing.ShippingMethod
		locker       string
		wantShipping money.Amount
		wantCity     string
	}{
		{pricing.ShippingStorePickup, "", 0, ""},
		{pricing.ShippingLocker, "Sea Point Pick n Pay", money.FromMajor(50), "Cape Town"},
		{pricing.ShippingDoorToDoor, "", money.FromMajor(75), "Cape Town"},
	}

	for _, tt := range tests {
		t.Run(string(tt.method), func(t *testing.T) {
			env := setupServiceTest(t)
			_, err := env.cart.AddToCart(context.Background(), testCartKey, AddToCartInput{ProductID: "oil-01", Quantity: 2})
			require.NoError(t, err)

			input := checkoutInput(tt.method)
			input.Shipping.LockerLocation = tt.locker
			result, err := env.checkout.Checkout(context.Background(), input)
			require.NoError(t, err)

			assert.Equal(t, money.FromMajor(190), result.Order.Subtotal)
			assert.Equal(t, tt.wantShipping, result.Order.ShippingCost)
			assert.Equal(t, result.Order.Subtotal+tt.wantShipping, result.Order.GrandTotal)
			assert.Equal(t, tt.wantCity, result.Order.Address.City)
		})
	}
}

func TestCheckoutService_Validation(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()

	_, err := env.checkout.Checkout(ctx, checkoutInput(pricing.ShippingDoorToDoor))
	assert.ErrorIs(t, err, ErrEmptyCart)

	fillCart(t, env)

	input := checkoutInput(pricing.ShippingLocker)
	_, err = env.checkout.Checkout(ctx, input)
	assert.ErrorIs(t, err, pricing.ErrLockerLocationRequired)

	input = checkoutInput(pricing.ShippingDoorToDoor)
	input.Address = pricing.Address{}
	_, err = env.checkout.Checkout(ctx, input)
	assert.ErrorIs(t, err, pricing.ErrAddressRequired)

	input = checkoutInput("courier-pigeon")
	_, err = env.checkout.Checkout(ctx, input)
	assert.ErrorIs(t, err, pricing.ErrUnknownShippingMethod)

	input = checkoutInput(pricing.ShippingStorePickup)
	input.Email = ""
	_, err = env.checkout.Checkout(ctx, input)
	assert.ErrorIs(t, err, ErrContactRequired)

	var count int64
	env.db.Model(&model.Order{}).Count(&count)
	assert.Zero(t, count)
}

func TestCheckoutService_InsufficientStockRollsBack(t *testing.T) {
	env := setupServiceTest(t)
	fillCart(t, env)

	require.NoError(t, env.db.Model(&model.Product{}).Where("id = ?", "brush-01").Update("stock_quantity", 0).Error)

	_, err := env.checkout.Checkout(context.Background(), checkoutInput(pricing.ShippingStorePickup))
	assert.ErrorIs(t, err, ErrInsufficientStock)

	assert.Equal(t, 120, stockOf(t, env, "acr-01"))
	var count int64
	env.db.Model(&model.Order{}).Count(&count)
	assert.Zero(t, count)
}

func TestCheckoutService_GatewayFailureReleasesStock(t *testing.T) {
	env := setupServiceTest(t)
	fillCart(t, env)
	env.gateway.createErr = yoco.ErrNetworkError

	_, err := env.checkout.Checkout(context.Background(), checkoutInput(pricing.ShippingStorePickup))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPaymentInitiation))

	var order model.Order
	require.NoError(t, env.db.First(&order).Error)
	assert.Equal(t, model.OrderStatusCancelled, order.Status)
	assert.Equal(t, model.PaymentStatusFailed, order.PaymentStatus)
	assert.Equal(t, 120, stockOf(t, env, "acr-01"))
	assert.Equal(t, 40, stockOf(t, env, "brush-01"))
}
