package controller

import (
	"fmt"
	"net/http"
	"path"
	"testing"

	"github.com/ikkim/cosmetica-backend/internal/app/model"
	"github.com/ikkim/cosmetica-backend/internal/pricing"
	"github.com/ikkim/cosmetica-backend/pkg/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bookingResponse struct {
	Booking     model.Booking `json:"booking"`
	RedirectURL string        `json:"redirect_url"`
}

func bookingRequest(courseID, pkg, date string) CreateBookingRequest {
	return CreateBookingRequest{
		CourseID: courseID,
		Package:  pkg,
		Date:     date,
		Contact:  ContactRequest{FullName: "Lerato Dlamini", Email: "lerato@example.com"},
	}
}

func TestBookingController_Quote(t *testing.T) {
	app := setupControllerTest(t, "")

	tests := []struct {
		name    string
		query   string
		wantNow money.Amount
		wantDue money.Amount
	}{
		{"in person deposit", "/api/v1/courses/acrylic-masterclass/quote?package=With+Kit&date=2026-11-14", money.FromMajor(1800), money.FromMajor(2700)},
		{"online in full", "/api/v1/courses/gel-online/quote?package=Self-paced&date=self-paced", money.FromMajor(1200), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := app.do(t, nil, http.MethodGet, tt.query, nil)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			var amounts pricing.BookingAmounts
			decode(t, w, &amounts)
			assert.Equal(t, tt.wantNow, amounts.AmountDueNow)
			assert.Equal(t, tt.wantDue, amounts.AmountOwed)
		})
	}

	w := app.do(t, nil, http.MethodGet, "/api/v1/courses/acrylic-masterclass/quote?package=With+Kit&date=2027-01-01", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "COURSE_INVALID_DATE", errorCode(t, w))

	w = app.do(t, nil, http.MethodGet, "/api/v1/courses/acrylic-masterclass/quote?date=2026-11-14", nil)
	assert.Equal(t, "COURSE_INVALID_PACKAGE", errorCode(t, w))

	w = app.do(t, nil, http.MethodGet, "/api/v1/courses/nails-101/quote?package=x&date=y", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBookingController_CreateAndConfirm(t *testing.T) {
	app := setupControllerTest(t, "")
	user := signedIn(t, "user-booker", "")

	w := app.do(t, user, http.MethodPost, "/api/v1/bookings", bookingRequest("acrylic-masterclass", "Course Only", "2026-12-05"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp bookingResponse
	decode(t, w, &resp)
	assert.Equal(t, money.FromMajor(1800), resp.Booking.AmountDueNow)
	assert.Equal(t, money.FromMajor(1700), resp.Booking.AmountOwed)
	assert.Equal(t, "user-booker", resp.Booking.UserID)

	app.yoco.complete(path.Base(resp.RedirectURL))
	w = app.do(t, nil, http.MethodGet, fmt.Sprintf("/api/v1/payments/bookings/success?booking_id=%d", resp.Booking.ID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"status":"paid"`)

	w = app.do(t, user, http.MethodGet, "/api/v1/bookings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Bookings []model.Booking `json:"bookings"`
		Count    int             `json:"count"`
	}
	decode(t, w, &list)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, model.BookingStatusConfirmed, list.Bookings[0].Status)

	w = app.do(t, user, http.MethodGet, fmt.Sprintf("/api/v1/bookings/%d", resp.Booking.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// someone else's booking is invisible
	w = app.do(t, signedIn(t, "user-other", ""), http.MethodGet, fmt.Sprintf("/api/v1/bookings/%d", resp.Booking.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBookingController_CancelAndAuth(t *testing.T) {
	app := setupControllerTest(t, "")

	w := app.do(t, nil, http.MethodPost, "/api/v1/bookings", bookingRequest("gel-online", "Self-paced", "self-paced"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp bookingResponse
	decode(t, w, &resp)
	assert.Empty(t, resp.Booking.UserID, "guest booking")

	w = app.do(t, nil, http.MethodGet, fmt.Sprintf("/api/v1/payments/bookings/cancel?booking_id=%d", resp.Booking.ID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"status":"cancelled"`)

	w = app.do(t, nil, http.MethodGet, "/api/v1/bookings", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = app.do(t, nil, http.MethodPost, "/api/v1/bookings", CreateBookingRequest{CourseID: "gel-online"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
