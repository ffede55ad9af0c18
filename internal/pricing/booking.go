package pricing

import (
	"github.com/ikkim/cosmetica-backend/pkg/money"
)

// BookingAmounts splits a course package price into what is charged at
// booking time and what remains payable on the day.
type BookingAmounts struct {
	AmountDueNow money.Amount `json:"amount_due_now"`
	AmountOwed   money.Amount `json:"amount_owed"`
}

// ComputeCourseBookingAmounts charges online courses in full. In-person
// courses take a fixed deposit now; the remainder never goes below zero.
func ComputeCourseBookingAmounts(packagePrice, deposit money.Amount, isOnline bool) BookingAmounts {
	if isOnline {
		return BookingAmounts{AmountDueNow: packagePrice}
	}
	return BookingAmounts{
		AmountDueNow: deposit,
		AmountOwed:   money.Max(0, packagePrice-deposit),
	}
}
