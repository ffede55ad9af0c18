package service

import (
	"context"
	"testing"

	"github.com/ikkim/cosmetica-backend/internal/app/model"
	"github.com/ikkim/cosmetica-backend/internal/pricing"
	"github.com/ikkim/cosmetica-backend/pkg/payment/yoco"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func placeOrder(t *testing.T, env *testEnv) *model.Order {
	fillCart(t, env)
	result, err := env.checkout.Checkout(context.Background(), checkoutInput(pricing.ShippingDoorToDoor))
	require.NoError(t, err)
	return result.Order
}

func TestPaymentService_ConfirmClearsCart(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()
	order := placeOrder(t, env)

	env.gateway.complete(order.PaymentCheckoutID)

	confirmed, err := env.payments.ConfirmOrderPayment(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusConfirmed, confirmed.Status)
	assert.Equal(t, model.PaymentStatusCompleted, confirmed.PaymentStatus)
	assert.Equal(t, "pay_"+order.PaymentCheckoutID, confirmed.PaymentID)
	assert.NotNil(t, confirmed.PaidAt)

	state, err := env.cart.GetCart(ctx, testCartKey)
	require.NoError(t, err)
	assert.True(t, state.IsEmpty())
}

func TestPaymentService_ConfirmIsIdempotent(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()
	order := placeOrder(t, env)
	env.gateway.complete(order.PaymentCheckoutID)

	_, err := env.payments.ConfirmOrderPayment(ctx, order.ID)
	require.NoError(t, err)

	// a new cart after payment must survive a repeated success redirect
	_, err = env.cart.AddToCart(ctx, testCartKey, AddToCartInput{ProductID: "oil-01", Quantity: 1})
	require.NoError(t, err)

	again, err := env.payments.ConfirmOrderPayment(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusConfirmed, again.Status)

	count, err := env.cart.GetItemCount(ctx, testCartKey)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPaymentService_ConfirmBeforePaymentCompletes(t *testing.T) {
	env := setupServiceTest(t)
	order := placeOrder(t, env)

	_, err := env.payments.ConfirmOrderPayment(context.Background(), order.ID)
	assert.ErrorIs(t, err, ErrPaymentNotComplete)

	count, err := env.cart.GetItemCount(context.Background(), testCartKey)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestPaymentService_ConfirmUnknownOrder(t *testing.T) {
	env := setupServiceTest(t)
	_, err := env.payments.ConfirmOrderPayment(context.Background(), 999)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestPaymentService_AbandonKeepsCart(t *testing.T) {
	for _, status := range []model.PaymentStatus{model.PaymentStatusCancelled, model.PaymentStatusFailed} {
		t.Run(string(status), func(t *testing.T) {
			env := setupServiceTest(t)
			ctx := context.Background()
			order := placeOrder(t, env)

			abandoned, err := env.payments.AbandonOrderPayment(ctx, order.ID, status)
			require.NoError(t, err)
			assert.Equal(t, model.OrderStatusCancelled, abandoned.Status)
			assert.Equal(t, status, abandoned.PaymentStatus)

			assert.Equal(t, 120, stockOf(t, env, "acr-01"))
			count, err := env.cart.GetItemCount(ctx, testCartKey)
			require.NoError(t, err)
			assert.Equal(t, 3, count)

			// a late success redirect cannot resurrect it
			env.gateway.complete(order.PaymentCheckoutID)
			_, err = env.payments.ConfirmOrderPayment(ctx, order.ID)
			assert.ErrorIs(t, err, ErrOrderNotPayable)
		})
	}
}

func TestPaymentService_AbandonRejectsOtherStatuses(t *testing.T) {
	env := setupServiceTest(t)
	order := placeOrder(t, env)
	_, err := env.payments.AbandonOrderPayment(context.Background(), order.ID, model.PaymentStatusCompleted)
	assert.ErrorIs(t, err, ErrInvalidPaymentState)
}

func TestPaymentService_Refund(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()
	order := placeOrder(t, env)

	_, err := env.payments.RefundOrder(ctx, order.ID)
	assert.ErrorIs(t, err, ErrPaymentNotPaid)

	env.gateway.complete(order.PaymentCheckoutID)
	_, err = env.payments.ConfirmOrderPayment(ctx, order.ID)
	require.NoError(t, err)

	refunded, err := env.payments.RefundOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusRefunded, refunded.PaymentStatus)
	assert.Equal(t, model.OrderStatusCancelled, refunded.Status)
	assert.NotNil(t, refunded.RefundedAt)
	assert.Equal(t, []string{order.PaymentCheckoutID}, env.gateway.refunds)
	assert.Equal(t, 120, stockOf(t, env, "acr-01"))

	_, err = env.payments.RefundOrder(ctx, order.ID)
	assert.ErrorIs(t, err, ErrPaymentRefunded)
}

func TestPaymentService_RefundGatewayConflict(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()
	order := placeOrder(t, env)
	env.gateway.complete(order.PaymentCheckoutID)
	_, err := env.payments.ConfirmOrderPayment(ctx, order.ID)
	require.NoError(t, err)

	env.gateway.refundErr = yoco.ErrAlreadyRefunded
	_, err = env.payments.RefundOrder(ctx, order.ID)
	assert.ErrorIs(t, err, ErrPaymentRefunded)
}

func TestPaymentService_BookingFlow(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()

	result, err := env.bookings.CreateBooking(ctx, BookingInput{
		UserID:    "user-1",
		CourseID:  "acrylic-masterclass",
		Selection: pricing.CourseBookingSelection{Package: "With Kit", Date: "2026-11-14"},
		FullName:  "Naledi Dube",
		Email:     "naledi@example.com",
	})
	require.NoError(t, err)

	_, err = env.payments.ConfirmBookingPayment(ctx, result.Booking.ID)
	assert.ErrorIs(t, err, ErrPaymentNotComplete)

	env.gateway.complete(result.Booking.PaymentCheckoutID)
	booking, err := env.payments.ConfirmBookingPayment(ctx, result.Booking.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusConfirmed, booking.Status)
	assert.Equal(t, model.PaymentStatusCompleted, booking.PaymentStatus)

	abandoned, err := env.payments.AbandonBookingPayment(ctx, result.Booking.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusConfirmed, abandoned.Status)
}

func TestCallbackURLs(t *testing.T) {
	urls := NewCallbackURLs("https://shop.test")
	assert.Equal(t, "https://shop.test/api/v1/payments/success?order_id=42", urls.orderURL(urls.Success, 42))
	assert.Equal(t, "https://shop.test/api/v1/payments/bookings/cancel?booking_id=7", urls.bookingURL(urls.BookingCancel, 7))
}
