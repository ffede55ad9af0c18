package yoco

import "time"

// Checkout statuses reported by the gateway
const (
	StatusCreated    = "created"
	StatusStarted    = "started"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
)

// CheckoutRequest creates a hosted checkout page.
// Amount is in minor units (cents).
type CheckoutRequest struct {
	Amount     int64             `json:"amount"`
	Currency   string            `json:"currency"`
	SuccessURL string            `json:"successUrl,omitempty"`
	CancelURL  string            `json:"cancelUrl,omitempty"`
	FailureURL string            `json:"failureUrl,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`

	// IdempotencyKey is sent as a header, not in the body
	IdempotencyKey string `json:"-"`
}

// Checkout is the gateway's view of a hosted checkout
type Checkout struct {
	ID             string            `json:"id"`
	RedirectURL    string            `json:"redirectUrl"`
	Status         string            `json:"status"`
	Amount         int64             `json:"amount"`
	Currency       string            `json:"currency"`
	PaymentID      string            `json:"paymentId,omitempty"`
	ProcessingMode string            `json:"processingMode,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	CreatedAt      time.Time         `json:"createdAt,omitempty"`
}

// Completed reports whether the shopper paid
func (c *Checkout) Completed() bool {
	return c.Status == StatusCompleted
}

// RefundRequest refunds a completed checkout. Amount zero refunds in full.
type RefundRequest struct {
	Amount         int64  `json:"amount,omitempty"`
	IdempotencyKey string `json:"-"`
}

// RefundResponse represents the response from the refund API
type RefundResponse struct {
	ID       string `json:"id"`
	RefundID string `json:"refundId"`
	Status   string `json:"status"`
	Message  string `json:"message,omitempty"`
}

// ErrorResponse represents an error body returned by the gateway
type ErrorResponse struct {
	ErrorCode      string `json:"errorCode"`
	ErrorType      string `json:"errorType"`
	Message        string `json:"message"`
	DisplayMessage string `json:"displayMessage,omitempty"`
}
