package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/ikkim/cosmetica-backend/internal/app/model"
	"github.com/ikkim/cosmetica-backend/internal/app/repository"
	"github.com/ikkim/cosmetica-backend/internal/pricing"
	"github.com/ikkim/cosmetica-backend/pkg/logger"
	"github.com/ikkim/cosmetica-backend/pkg/metrics"
	"github.com/ikkim/cosmetica-backend/pkg/payment/yoco"
	"gorm.io/gorm"
)

var (
	ErrBookingNotFound = errors.New("booking not found")
	ErrInvalidPackage  = errors.New("package is not offered for this course")
	ErrInvalidDate     = errors.New("date is not scheduled for this course")
)

type BookingInput struct {
	UserID    string
	CourseID  string
	Selection pricing.CourseBookingSelection
	FullName  string
	Email     string
	Phone     string
}

type BookingResult struct {
	Booking     *model.Booking `json:"booking"`
	RedirectURL string         `json:"redirect_url"`
}

type BookingService interface {
	Quote(courseID string, selection pricing.CourseBookingSelection) (*pricing.BookingAmounts, error)
	CreateBooking(ctx context.Context, input BookingInput) (*BookingResult, error)
	GetUserBookings(userID string) ([]model.Booking, error)
	GetBookingByID(userID string, bookingID uint) (*model.Booking, error)
}

type bookingService struct {
	bookingRepo repository.BookingRepository
	courseRepo  repository.CourseRepository
	gateway     PaymentGateway
	urls        CallbackURLs
	currency    string
	metrics     *metrics.StoreMetrics
}

func NewBookingService(
	bookingRepo repository.BookingRepository,
	courseRepo repository.CourseRepository,
	gateway PaymentGateway,
	urls CallbackURLs,
	currency string,
	m *metrics.StoreMetrics,
) BookingService {
	return &bookingService{
		bookingRepo: bookingRepo,
		courseRepo:  courseRepo,
		gateway:     gateway,
		urls:        urls,
		currency:    currency,
		metrics:     m,
	}
}

func (s *bookingService) resolve(courseID string, selection pricing.CourseBookingSelection) (*model.Course, model.CoursePackage, error) {
	if err := selection.Validate(); err != nil {
		return nil, model.CoursePackage{}, err
	}

	course, err := s.courseRepo.FindByID(courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.CoursePackage{}, ErrCourseNotFound
		}
		return nil, model.CoursePackage{}, err
	}
	if !course.Active {
		return nil, model.CoursePackage{}, ErrCourseNotFound
	}

	pkg, ok := course.FindPackage(selection.Package)
	if !ok {
		return nil, model.CoursePackage{}, ErrInvalidPackage
	}
	// online courses are self-paced and carry no dates
	if !course.IsOnline && !course.HasDate(selection.Date) {
		return nil, model.CoursePackage{}, ErrInvalidDate
	}
	return course, pkg, nil
}

// Quote shows what the shopper pays now and what remains owed
func (s *bookingService) Quote(courseID string, selection pricing.CourseBookingSelection) (*pricing.BookingAmounts, error) {
	course, pkg, err := s.resolve(courseID, selection)
	if err != nil {
		return nil, err
	}
	amounts := pricing.ComputeCourseBookingAmounts(pkg.Price, course.Deposit, course.IsOnline)
	return &amounts, nil
}

func (s *bookingService) CreateBooking(ctx context.Context, input BookingInput) (*BookingResult, error) {
	logger.Info("Creating course booking", map[string]interface{}{
		"course_id": input.CourseID,
		"package":   input.Selection.Package,
		"date":      input.Selection.Date,
		"user_id":   input.UserID,
	})

	if input.FullName == "" || input.Email == "" {
		return nil, ErrContactRequired
	}

	course, pkg, err := s.resolve(input.CourseID, input.Selection)
	if err != nil {
		logger.Warn("Invalid course booking selection", map[string]interface{}{
			"course_id": input.CourseID,
			"error":     err.Error(),
		})
		return nil, err
	}

	amounts := pricing.ComputeCourseBookingAmounts(pkg.Price, course.Deposit, course.IsOnline)
	booking := &model.Booking{
		Reference:     model.NewReference("BKG"),
		UserID:        input.UserID,
		CourseID:      course.ID,
		PackageName:   pkg.Name,
		PackagePrice:  pkg.Price,
		CourseDate:    input.Selection.Date,
		IsOnline:      course.IsOnline,
		AmountDueNow:  amounts.AmountDueNow,
		AmountOwed:    amounts.AmountOwed,
		FullName:      input.FullName,
		Email:         input.Email,
		Phone:         input.Phone,
		Currency:      s.currency,
		Status:        model.BookingStatusPending,
		PaymentStatus: model.PaymentStatusPending,
	}
	if err := s.bookingRepo.Create(booking); err != nil {
		return nil, err
	}

	checkout, err := s.gateway.CreateCheckout(ctx, yoco.CheckoutRequest{
		Amount:     int64(booking.AmountDueNow),
		Currency:   s.currency,
		SuccessURL: s.urls.bookingURL(s.urls.BookingSuccess, booking.ID),
		CancelURL:  s.urls.bookingURL(s.urls.BookingCancel, booking.ID),
		FailureURL: s.urls.bookingURL(s.urls.BookingCancel, booking.ID),
		Metadata: map[string]string{
			"booking_reference": booking.Reference,
			"course_id":         course.ID,
		},
		IdempotencyKey: booking.Reference,
	})
	if err != nil {
		logger.Error("Failed to create booking checkout", err, map[string]interface{}{
			"booking_id": booking.ID,
		})
		booking.Status = model.BookingStatusCancelled
		booking.PaymentStatus = model.PaymentStatusFailed
		if updErr := s.bookingRepo.Update(booking); updErr != nil {
			logger.Error("Failed to cancel booking after payment error", updErr, map[string]interface{}{
				"booking_id": booking.ID,
			})
		}
		return nil, fmt.Errorf("%w: %v", ErrPaymentInitiation, err)
	}

	booking.PaymentCheckoutID = checkout.ID
	if err := s.bookingRepo.Update(booking); err != nil {
		return nil, err
	}

	s.metrics.IncCheckout("course", "created")
	return &BookingResult{Booking: booking, RedirectURL: checkout.RedirectURL}, nil
}

func (s *bookingService) GetUserBookings(userID string) ([]model.Booking, error) {
	return s.bookingRepo.FindByUserID(userID)
}

// GetBookingByID hides bookings owned by someone else
func (s *bookingService) GetBookingByID(userID string, bookingID uint) (*model.Booking, error) {
	booking, err := s.bookingRepo.FindByID(bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if booking.UserID != userID {
		return nil, ErrBookingNotFound
	}
	return booking, nil
}
