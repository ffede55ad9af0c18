package pricing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ikkim/cosmetica-backend/pkg/money"
)

// ShippingMethod is how an order reaches the buyer
type ShippingMethod string

const (
	ShippingStorePickup ShippingMethod = "store-pickup"
	ShippingLocker      ShippingMethod = "locker"
	ShippingDoorToDoor  ShippingMethod = "door-to-door"
)

var (
	ErrUnknownShippingMethod = errors.New("unknown shipping method")
	ErrNegativeAmount        = errors.New("amount must not be negative")
)

// ParseShippingMethod accepts the canonical names plus underscore spellings
func ParseShippingMethod(s string) (ShippingMethod, error) {
	m := ShippingMethod(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-"))
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownShippingMethod, s)
	}
	return m, nil
}

func (m ShippingMethod) Valid() bool {
	switch m {
	case ShippingStorePickup, ShippingLocker, ShippingDoorToDoor:
		return true
	}
	return false
}

// Rates holds the flat fees and the free-shipping threshold
type Rates struct {
	LockerFee             money.Amount
	DoorToDoorFee         money.Amount
	FreeShippingThreshold money.Amount
}

// DefaultRates: R50 locker, R75 courier, courier free from R1500
func DefaultRates() Rates {
	return Rates{
		LockerFee:             money.FromMajor(50),
		DoorToDoorFee:         money.FromMajor(75),
		FreeShippingThreshold: money.FromMajor(1500),
	}
}

// ComputeShipping returns the shipping cost for subtotal under method.
// Door-to-door is free when subtotal is at or above the threshold.
func (r Rates) ComputeShipping(subtotal money.Amount, method ShippingMethod) (money.Amount, error) {
	if subtotal < 0 {
		return 0, ErrNegativeAmount
	}
	switch method {
	case ShippingStorePickup:
		return 0, nil
	case ShippingLocker:
		return r.LockerFee, nil
	case ShippingDoorToDoor:
		if subtotal >= r.FreeShippingThreshold {
			return 0, nil
		}
		return r.DoorToDoorFee, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownShippingMethod, method)
	}
}

// Quote is the checkout total breakdown
type Quote struct {
	Method     ShippingMethod `json:"method"`
	Subtotal   money.Amount   `json:"subtotal"`
	Shipping   money.Amount   `json:"shipping"`
	GrandTotal money.Amount   `json:"grand_total"`
}

func (r Rates) Quote(subtotal money.Amount, method ShippingMethod) (Quote, error) {
	shipping, err := r.ComputeShipping(subtotal, method)
	if err != nil {
		return Quote{}, err
	}
	return Quote{
		Method:     method,
		Subtotal:   subtotal,
		Shipping:   shipping,
		GrandTotal: subtotal + shipping,
	}, nil
}

// AmountToFreeShipping is how much more the buyer must spend before
// door-to-door delivery becomes free. Zero once the threshold is reached.
func (r Rates) AmountToFreeShipping(subtotal money.Amount) money.Amount {
	return money.Max(0, r.FreeShippingThreshold-subtotal)
}
