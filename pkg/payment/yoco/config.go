package yoco

import "time"

// Config represents the configuration for the Yoco client
type Config struct {
	// SecretKey authenticates server-side calls (sk_test_... / sk_live_...)
	SecretKey string

	// BaseURL is the checkout API base URL
	BaseURL string

	// Currency is the ISO code sent with every checkout, e.g. ZAR
	Currency string

	// Timeout bounds each HTTP call; zero means 30s
	Timeout time.Duration
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.SecretKey == "" {
		return ErrInvalidRequest
	}
	if c.BaseURL == "" {
		return ErrInvalidRequest
	}
	if c.Currency == "" {
		return ErrInvalidRequest
	}
	return nil
}
