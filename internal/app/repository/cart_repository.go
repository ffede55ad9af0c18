package repository

import (
	"context"
	"errors"
	"time"

	"github.com/ikkim/cosmetica-backend/internal/app/model"
	"github.com/ikkim/cosmetica-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CartSnapshotRepository stores cart snapshots in the main database. It
// satisfies cart.Storage for deployments without Redis.
type CartSnapshotRepository struct {
	db *gorm.DB
}

func NewCartSnapshotRepository(db *gorm.DB) *CartSnapshotRepository {
	return &CartSnapshotRepository{db: db}
}

func (r *CartSnapshotRepository) Load(ctx context.Context, key string) ([]byte, error) {
	var snapshot model.CartSnapshot
	err := r.db.WithContext(ctx).First(&snapshot, "cart_key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		logger.Error("Failed to load cart snapshot", err, map[string]interface{}{
			"cart_key": key,
		})
		return nil, err
	}
	return []byte(snapshot.Payload), nil
}

func (r *CartSnapshotRepository) Save(ctx context.Context, key string, data []byte) error {
	snapshot := model.CartSnapshot{Key: key, Payload: string(data), UpdatedAt: time.Now()}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cart_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&snapshot).Error
	if err != nil {
		logger.Error("Failed to save cart snapshot", err, map[string]interface{}{
			"cart_key": key,
		})
		return err
	}
	return nil
}

func (r *CartSnapshotRepository) Delete(ctx context.Context, key string) error {
	if err := r.db.WithContext(ctx).Delete(&model.CartSnapshot{}, "cart_key = ?", key).Error; err != nil {
		logger.Error("Failed to delete cart snapshot", err, map[string]interface{}{
			"cart_key": key,
		})
		return err
	}
	return nil
}

// DeleteOlderThan purges abandoned carts and returns how many were removed
func (r *CartSnapshotRepository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	result := r.db.Where("updated_at < ?", cutoff).Delete(&model.CartSnapshot{})
	if result.Error != nil {
		logger.Error("Failed to purge cart snapshots", result.Error)
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
