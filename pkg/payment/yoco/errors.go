package yoco

import "errors"

var (
	// ErrInvalidRequest is returned when the request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrPaymentFailed is returned when the gateway rejects the call
	ErrPaymentFailed = errors.New("payment failed")

	// ErrCheckoutNotFound is returned for an unknown checkout id
	ErrCheckoutNotFound = errors.New("checkout not found")

	// ErrNetworkError is returned when there's a network communication error
	ErrNetworkError = errors.New("network error")

	// ErrUnauthorized is returned when the secret key is invalid
	ErrUnauthorized = errors.New("unauthorized: invalid secret key")

	// ErrAlreadyRefunded is returned when a refund is requested twice
	ErrAlreadyRefunded = errors.New("checkout already refunded")
)
