package pricing

import (
	"errors"
	"strings"
)

var (
	ErrLockerLocationRequired = errors.New("locker location is required for locker delivery")
	ErrAddressRequired        = errors.New("street address, city and postal code are required")
	ErrPackageRequired        = errors.New("course package is required")
	ErrDateRequired           = errors.New("course date is required")
)

// ShippingSelection is the buyer's fulfilment choice at checkout
type ShippingSelection struct {
	Method         ShippingMethod `json:"method"`
	LockerLocation string         `json:"locker_location,omitempty"`
}

// Address is a delivery address. Province and suburb are optional.
type Address struct {
	Street     string `json:"street"`
	Suburb     string `json:"suburb,omitempty"`
	City       string `json:"city"`
	Province   string `json:"province,omitempty"`
	PostalCode string `json:"postal_code"`
}

func (s ShippingSelection) Validate() error {
	if !s.Method.Valid() {
		return ErrUnknownShippingMethod
	}
	if s.Method == ShippingLocker && strings.TrimSpace(s.LockerLocation) == "" {
		return ErrLockerLocationRequired
	}
	return nil
}

// RequiresAddress is false only for store pickup
func (s ShippingSelection) RequiresAddress() bool {
	return s.Method != ShippingStorePickup
}

// ValidateAddress checks addr only when the method needs one
func (s ShippingSelection) ValidateAddress(addr Address) error {
	if !s.RequiresAddress() {
		return nil
	}
	if strings.TrimSpace(addr.Street) == "" ||
		strings.TrimSpace(addr.City) == "" ||
		strings.TrimSpace(addr.PostalCode) == "" {
		return ErrAddressRequired
	}
	return nil
}

// CourseBookingSelection is the package and date picked on a course page
type CourseBookingSelection struct {
	Package string `json:"package"`
	Date    string `json:"date"`
}

func (c CourseBookingSelection) Validate() error {
	if strings.TrimSpace(c.Package) == "" {
		return ErrPackageRequired
	}
	if strings.TrimSpace(c.Date) == "" {
		return ErrDateRequired
	}
	return nil
}
