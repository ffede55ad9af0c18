package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/cosmetica-backend/internal/app/service"
	apperrors "github.com/ikkim/cosmetica-backend/internal/errors"
	"github.com/ikkim/cosmetica-backend/internal/middleware"
	"github.com/ikkim/cosmetica-backend/internal/pricing"
)

type BookingController struct {
	bookingService service.BookingService
}

func NewBookingController(bookingService service.BookingService) *BookingController {
	return &BookingController{
		bookingService: bookingService,
	}
}

type CreateBookingRequest struct {
	CourseID string         `json:"course_id" binding:"required"`
	Package  string         `json:"package"`
	Date     string         `json:"date"`
	Contact  ContactRequest `json:"contact" binding:"required"`
}

// QuoteBooking returns what is due now and on the day for a selection
// GET /api/v1/courses/:id/quote?package=&date=
func (ctrl *BookingController) QuoteBooking(c *gin.Context) {
	amounts, err := ctrl.bookingService.Quote(c.Param("id"), pricing.CourseBookingSelection{
		Package: c.Query("package"),
		Date:    c.Query("date"),
	})
	if err != nil {
		respondServiceError(c, err, "quote course booking")
		return
	}

	c.JSON(http.StatusOK, amounts)
}

// CreateBooking reserves a course seat and starts payment for the amount
// due now
// POST /api/v1/bookings
func (ctrl *BookingController) CreateBooking(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid booking request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Course, full name and a valid email are required")
		return
	}

	userID, _ := middleware.GetUserID(c)
	result, err := ctrl.bookingService.CreateBooking(c.Request.Context(), service.BookingInput{
		UserID:   userID,
		CourseID: req.CourseID,
		Selection: pricing.CourseBookingSelection{
			Package: req.Package,
			Date:    req.Date,
		},
		FullName: req.Contact.FullName,
		Email:    req.Contact.Email,
		Phone:    req.Contact.Phone,
	})
	if err != nil {
		respondServiceError(c, err, "create booking")
		return
	}

	log.Info("Booking created", map[string]interface{}{
		"booking_id": result.Booking.ID,
		"course_id":  req.CourseID,
	})

	c.JSON(http.StatusCreated, result)
}

// ListBookings returns the signed-in shopper's bookings
// GET /api/v1/bookings
func (ctrl *BookingController) ListBookings(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	bookings, err := ctrl.bookingService.GetUserBookings(userID)
	if err != nil {
		respondServiceError(c, err, "list bookings")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"bookings": bookings,
		"count":    len(bookings),
	})
}

// GetBooking returns one of the shopper's bookings
// GET /api/v1/bookings/:id
func (ctrl *BookingController) GetBooking(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	bookingID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	booking, err := ctrl.bookingService.GetBookingByID(userID, bookingID)
	if err != nil {
		respondServiceError(c, err, "get booking")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"booking": booking,
	})
}
