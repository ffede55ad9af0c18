package yoco

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ikkim/cosmetica-backend/pkg/logger"
)

// Client represents a Yoco hosted-checkout API client
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient creates a new Yoco client with the given configuration
func NewClient(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// GetConfig returns the client configuration
func (c *Client) GetConfig() Config {
	return c.config
}

// CreateCheckout opens a hosted checkout; the shopper is sent to RedirectURL
func (c *Client) CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidRequest)
	}
	if req.Currency == "" {
		req.Currency = c.config.Currency
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "checkouts", req, req.IdempotencyKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout: %w", err)
	}

	var checkout Checkout
	if err := json.Unmarshal(resp, &checkout); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkout response: %w", err)
	}

	return &checkout, nil
}

// GetCheckout fetches the current status of a checkout
func (c *Client) GetCheckout(ctx context.Context, checkoutID string) (*Checkout, error) {
	if checkoutID == "" {
		return nil, fmt.Errorf("%w: empty checkout id", ErrInvalidRequest)
	}

	resp, err := c.doRequest(ctx, http.MethodGet, "checkouts/"+url.PathEscape(checkoutID), nil, "")
	if err != nil {
		return nil, fmt.Errorf("failed to get checkout: %w", err)
	}

	var checkout Checkout
	if err := json.Unmarshal(resp, &checkout); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkout response: %w", err)
	}

	return &checkout, nil
}

// Refund refunds a completed checkout
func (c *Client) Refund(ctx context.Context, checkoutID string, req RefundRequest) (*RefundResponse, error) {
	if checkoutID == "" {
		return nil, fmt.Errorf("%w: empty checkout id", ErrInvalidRequest)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "checkouts/"+url.PathEscape(checkoutID)+"/refund", req, req.IdempotencyKey)
	if err != nil {
		return nil, fmt.Errorf("failed to refund checkout: %w", err)
	}

	var refundResp RefundResponse
	if err := json.Unmarshal(resp, &refundResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal refund response: %w", err)
	}

	return &refundResp, nil
}

// doRequest performs an HTTP request to the Yoco API
func (c *Client) doRequest(ctx context.Context, method, endpoint string, payload interface{}, idempotencyKey string) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		reqBody, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(reqBody)
	}

	endpointURL := fmt.Sprintf("%s/%s", c.config.BaseURL, endpoint)

	logger.Debug("Yoco request", map[string]interface{}{
		"method":   method,
		"endpoint": endpoint,
	})

	req, err := http.NewRequestWithContext(ctx, method, endpointURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.config.SecretKey)
	req.Header.Set("Content-Type", "application/json")
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err != nil {
			return nil, fmt.Errorf("%w: unexpected status code: %d", ErrPaymentFailed, resp.StatusCode)
		}

		errorMsg := fmt.Sprintf("Yoco API error - Status: %d, Code: %s, Message: %s",
			resp.StatusCode, errResp.ErrorCode, errResp.Message)

		logger.Warn("Yoco request rejected", map[string]interface{}{
			"endpoint":   endpoint,
			"status":     resp.StatusCode,
			"error_code": errResp.ErrorCode,
		})

		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return nil, fmt.Errorf("%w: %s", ErrUnauthorized, errorMsg)
		case http.StatusNotFound:
			return nil, fmt.Errorf("%w: %s", ErrCheckoutNotFound, errorMsg)
		case http.StatusConflict:
			return nil, fmt.Errorf("%w: %s", ErrAlreadyRefunded, errorMsg)
		case http.StatusBadRequest, http.StatusUnprocessableEntity:
			return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, errorMsg)
		default:
			return nil, fmt.Errorf("%w: %s", ErrPaymentFailed, errorMsg)
		}
	}

	return respBody, nil
}
