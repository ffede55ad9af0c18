package model

import (
	"time"

	"github.com/ikkim/cosmetica-backend/internal/pricing"
	"github.com/ikkim/cosmetica-backend/pkg/money"
	"gorm.io/gorm"
)

type OrderStatus string
type PaymentStatus string

const (
	OrderStatusPending   OrderStatus = "pending"   // awaiting payment
	OrderStatusConfirmed OrderStatus = "confirmed" // paid
	OrderStatusShipped   OrderStatus = "shipped"   // handed to courier or locker
	OrderStatusDelivered OrderStatus = "delivered" // delivered or collected
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusExpired   OrderStatus = "expired" // never paid

	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusConfirmed, OrderStatusCancelled, OrderStatusExpired},
	OrderStatusConfirmed: {OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled},
	OrderStatusShipped:   {OrderStatusDelivered},
}

// CanTransitionTo reports whether the admin workflow allows moving to next
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled, OrderStatusExpired:
		return true
	}
	return false
}

type Order struct {
	ID                uint                   `gorm:"primarykey" json:"id"`
	Reference         string                 `gorm:"type:varchar(20);uniqueIndex" json:"reference"`
	UserID            string                 `gorm:"type:varchar(64);index" json:"user_id,omitempty"` // empty for guest checkout
	SessionKey        string                 `gorm:"type:varchar(128);index" json:"-"`
	FullName          string                 `gorm:"not null" json:"full_name"`
	Email             string                 `gorm:"not null;index" json:"email"`
	Phone             string                 `json:"phone"`
	ShippingMethod    pricing.ShippingMethod `gorm:"type:varchar(20);not null" json:"shipping_method"`
	LockerLocation    string                 `json:"locker_location,omitempty"`
	Address           pricing.Address        `gorm:"embedded;embeddedPrefix:address_" json:"address"`
	Subtotal          money.Amount           `gorm:"not null" json:"subtotal"`
	ShippingCost      money.Amount           `gorm:"not null" json:"shipping_cost"`
	GrandTotal        money.Amount           `gorm:"not null" json:"grand_total"`
	Currency          string                 `gorm:"type:varchar(3)" json:"currency"`
	Status            OrderStatus            `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	PaymentStatus     PaymentStatus          `gorm:"type:varchar(20);default:'pending'" json:"payment_status"`
	PaymentProvider   string                 `gorm:"type:varchar(50)" json:"payment_provider,omitempty"`
	PaymentCheckoutID string                 `gorm:"type:varchar(64);index" json:"-"`
	PaymentID         string                 `gorm:"type:varchar(64)" json:"payment_id,omitempty"`
	PaidAt            *time.Time             `json:"paid_at,omitempty"`
	RefundedAt        *time.Time             `json:"refunded_at,omitempty"`
	CreatedAt         time.Time              `json:"created_at"`
	UpdatedAt         time.Time              `json:"updated_at"`
	DeletedAt         gorm.DeletedAt         `gorm:"index" json:"-"`

	OrderItems []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"order_items,omitempty"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderItem is a snapshot of a cart line at checkout time
type OrderItem struct {
	ID        uint         `gorm:"primarykey" json:"id"`
	OrderID   uint         `gorm:"not null;index" json:"order_id"`
	ProductID string       `gorm:"type:varchar(64);not null;index" json:"product_id"`
	Name      string       `gorm:"not null" json:"name"`
	Variant   string       `json:"variant,omitempty"`
	ImageURL  string       `json:"image_url"`
	Price     money.Amount `gorm:"not null" json:"price"`
	Quantity  int          `gorm:"not null" json:"quantity"`
	LineTotal money.Amount `gorm:"not null" json:"line_total"`
	CreatedAt time.Time    `json:"created_at"`
}

func (OrderItem) TableName() string {
	return "order_items"
}
