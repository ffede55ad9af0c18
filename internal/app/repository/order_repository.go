package repository

import (
	"time"

	"github.com/ikkim/cosmetica-backend/internal/app/model"
	"github.com/ikkim/cosmetica-backend/pkg/logger"
	"gorm.io/gorm"
)

type OrderRepository interface {
	WithTx(tx *gorm.DB) OrderRepository
	Create(order *model.Order) error
	FindByID(id uint) (*model.Order, error)
	FindByUserID(userID string) ([]model.Order, error)
	FindPendingBefore(cutoff time.Time) ([]model.Order, error)
	FindCreatedBetween(from, to time.Time) ([]model.Order, error)
	Update(order *model.Order) error
	UpdateStatus(id uint, status model.OrderStatus) error
	// UpdateIfStatus applies updates only while the order is still in
	// expected; it reports whether a row changed.
	UpdateIfStatus(id uint, expected model.OrderStatus, updates map[string]interface{}) (bool, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) WithTx(tx *gorm.DB) OrderRepository {
	return &orderRepository{db: tx}
}

func (r *orderRepository) preloadOrder() *gorm.DB {
	return r.db.Preload("OrderItems", func(db *gorm.DB) *gorm.DB {
		return db.Order("order_items.id ASC")
	})
}

func (r *orderRepository) Create(order *model.Order) error {
	logger.Debug("Creating order in database", map[string]interface{}{
		"user_id":         order.UserID,
		"grand_total":     int64(order.GrandTotal),
		"shipping_method": order.ShippingMethod,
	})

	if err := r.db.Create(order).Error; err != nil {
		logger.Error("Failed to create order in database", err, map[string]interface{}{
			"user_id":     order.UserID,
			"grand_total": int64(order.GrandTotal),
		})
		return err
	}

	logger.Debug("Order created in database", map[string]interface{}{
		"order_id":  order.ID,
		"reference": order.Reference,
	})
	return nil
}

func (r *orderRepository) FindByID(id uint) (*model.Order, error) {
	logger.Debug("Finding order by ID in database", map[string]interface{}{
		"order_id": id,
	})

	var order model.Order
	if err := r.preloadOrder().First(&order, id).Error; err != nil {
		logger.Error("Failed to find order by ID in database", err, map[string]interface{}{
			"order_id": id,
		})
		return nil, err
	}

	logger.Debug("Order found by ID in database", map[string]interface{}{
		"order_id": order.ID,
		"status":   order.Status,
	})
	return &order, nil
}

func (r *orderRepository) FindByUserID(userID string) ([]model.Order, error) {
	logger.Debug("Finding orders by user ID in database", map[string]interface{}{
		"user_id": userID,
	})

	var orders []model.Order
	if err := r.preloadOrder().Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		logger.Error("Failed to find orders by user ID in database", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	logger.Debug("Orders found by user ID in database", map[string]interface{}{
		"user_id": userID,
		"count":   len(orders),
	})
	return orders, nil
}

func (r *orderRepository) FindPendingBefore(cutoff time.Time) ([]model.Order, error) {
	var orders []model.Order
	if err := r.preloadOrder().
		Where("status = ? AND created_at < ?", model.OrderStatusPending, cutoff).
		Find(&orders).Error; err != nil {
		logger.Error("Failed to find stale pending orders", err, map[string]interface{}{
			"cutoff": cutoff,
		})
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) FindCreatedBetween(from, to time.Time) ([]model.Order, error) {
	var orders []model.Order
	if err := r.preloadOrder().
		Where("created_at >= ? AND created_at < ?", from, to).
		Order("created_at ASC").
		Find(&orders).Error; err != nil {
		logger.Error("Failed to find orders in range", err, map[string]interface{}{
			"from": from,
			"to":   to,
		})
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) Update(order *model.Order) error {
	logger.Debug("Updating order in database", map[string]interface{}{
		"order_id": order.ID,
		"status":   order.Status,
	})

	if err := r.db.Omit("OrderItems").Save(order).Error; err != nil {
		logger.Error("Failed to update order in database", err, map[string]interface{}{
			"order_id": order.ID,
		})
		return err
	}
	return nil
}

func (r *orderRepository) UpdateStatus(id uint, status model.OrderStatus) error {
	logger.Debug("Updating order status in database", map[string]interface{}{
		"order_id": id,
		"status":   status,
	})

	if err := r.db.Model(&model.Order{}).Where("id = ?", id).
		Update("status", status).Error; err != nil {
		logger.Error("Failed to update order status in database", err, map[string]interface{}{
			"order_id": id,
			"status":   status,
		})
		return err
	}
	return nil
}

func (r *orderRepository) UpdateIfStatus(id uint, expected model.OrderStatus, updates map[string]interface{}) (bool, error) {
	result := r.db.Model(&model.Order{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(updates)
	if result.Error != nil {
		logger.Error("Failed to conditionally update order", result.Error, map[string]interface{}{
			"order_id": id,
			"expected": expected,
		})
		return false, result.Error
	}

	logger.Debug("Conditional order update applied", map[string]interface{}{
		"order_id": id,
		"expected": expected,
		"changed":  result.RowsAffected > 0,
	})
	return result.RowsAffected > 0, nil
}
