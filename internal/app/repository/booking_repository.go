package repository

import (
	"time"

	"github.com/ikkim/cosmetica-backend/internal/app/model"
	"github.com/ikkim/cosmetica-backend/pkg/logger"
	"gorm.io/gorm"
)

type BookingRepository interface {
	Create(booking *model.Booking) error
	FindByID(id uint) (*model.Booking, error)
	FindByUserID(userID string) ([]model.Booking, error)
	FindPendingBefore(cutoff time.Time) ([]model.Booking, error)
	Update(booking *model.Booking) error
	UpdateIfStatus(id uint, expected model.BookingStatus, updates map[string]interface{}) (bool, error)
}

type bookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) BookingRepository {
	return &bookingRepository{db: db}
}

func (r *bookingRepository) Create(booking *model.Booking) error {
	logger.Debug("Creating booking in database", map[string]interface{}{
		"course_id":      booking.CourseID,
		"amount_due_now": int64(booking.AmountDueNow),
	})

	if err := r.db.Omit("Course").Create(booking).Error; err != nil {
		logger.Error("Failed to create booking in database", err, map[string]interface{}{
			"course_id": booking.CourseID,
		})
		return err
	}
	return nil
}

func (r *bookingRepository) FindByID(id uint) (*model.Booking, error) {
	var booking model.Booking
	if err := r.db.Preload("Course").First(&booking, id).Error; err != nil {
		logger.Error("Failed to find booking by ID in database", err, map[string]interface{}{
			"booking_id": id,
		})
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) FindByUserID(userID string) ([]model.Booking, error) {
	var bookings []model.Booking
	if err := r.db.Preload("Course").Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&bookings).Error; err != nil {
		logger.Error("Failed to find bookings by user ID in database", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return bookings, nil
}

func (r *bookingRepository) FindPendingBefore(cutoff time.Time) ([]model.Booking, error) {
	var bookings []model.Booking
	if err := r.db.Where("status = ? AND created_at < ?", model.BookingStatusPending, cutoff).
		Find(&bookings).Error; err != nil {
		logger.Error("Failed to find stale pending bookings", err)
		return nil, err
	}
	return bookings, nil
}

func (r *bookingRepository) Update(booking *model.Booking) error {
	if err := r.db.Omit("Course").Save(booking).Error; err != nil {
		logger.Error("Failed to update booking in database", err, map[string]interface{}{
			"booking_id": booking.ID,
		})
		return err
	}
	return nil
}

func (r *bookingRepository) UpdateIfStatus(id uint, expected model.BookingStatus, updates map[string]interface{}) (bool, error) {
	result := r.db.Model(&model.Booking{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(updates)
	if result.Error != nil {
		logger.Error("Failed to conditionally update booking", result.Error, map[string]interface{}{
			"booking_id": id,
		})
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
