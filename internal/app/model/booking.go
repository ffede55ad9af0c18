package model

import (
	"time"

	"github.com/ikkim/cosmetica-backend/pkg/money"
	"gorm.io/gorm"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusExpired   BookingStatus = "expired"
)

// Booking reserves a seat on a course date. AmountOwed is settled in
// person on the day.
type Booking struct {
	ID                uint           `gorm:"primarykey" json:"id"`
	Reference         string         `gorm:"type:varchar(20);uniqueIndex" json:"reference"`
	UserID            string         `gorm:"type:varchar(64);index" json:"user_id,omitempty"`
	CourseID          string         `gorm:"type:varchar(64);not null;index" json:"course_id"`
	PackageName       string         `gorm:"not null" json:"package_name"`
	PackagePrice      money.Amount   `gorm:"not null" json:"package_price"`
	CourseDate        string         `gorm:"type:varchar(32);not null" json:"course_date"`
	IsOnline          bool           `json:"is_online"`
	AmountDueNow      money.Amount   `gorm:"not null" json:"amount_due_now"`
	AmountOwed        money.Amount   `gorm:"not null" json:"amount_owed"`
	FullName          string         `gorm:"not null" json:"full_name"`
	Email             string         `gorm:"not null;index" json:"email"`
	Phone             string         `json:"phone"`
	Currency          string         `gorm:"type:varchar(3)" json:"currency"`
	Status            BookingStatus  `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	PaymentStatus     PaymentStatus  `gorm:"type:varchar(20);default:'pending'" json:"payment_status"`
	PaymentCheckoutID string         `gorm:"type:varchar(64);index" json:"-"`
	PaymentID         string         `gorm:"type:varchar(64)" json:"payment_id,omitempty"`
	PaidAt            *time.Time     `json:"paid_at,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`

	Course *Course `gorm:"foreignKey:CourseID" json:"course,omitempty"`
}

func (Booking) TableName() string {
	return "bookings"
}
