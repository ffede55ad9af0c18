package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ikkim/cosmetica-backend/config"
	"github.com/ikkim/cosmetica-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

var client *redis.Client

var errNotInitialized = errors.New("redis client not initialized")

// Init connects the client that backs cart snapshots
func Init(cfg *config.RedisConfig) error {
	logger.Info("Initializing Redis connection", map[string]interface{}{
		"host":      cfg.Host,
		"port":      cfg.Port,
		"db":        cfg.DB,
		"pool_size": cfg.PoolSize,
	})

	client = redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := Ping(ctx); err != nil {
		logger.Error("Failed to connect to Redis", err, map[string]interface{}{
			"host": cfg.Host,
			"port": cfg.Port,
		})
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis connection established successfully", nil)
	return nil
}

// Ping checks the cart snapshot store. Used by /health.
func Ping(ctx context.Context) error {
	if client == nil {
		return errNotInitialized
	}
	return client.Ping(ctx).Err()
}

// GetClient returns the Redis client instance
func GetClient() *redis.Client {
	return client
}

// Close closes the Redis connection
func Close() error {
	if client == nil {
		return nil
	}
	logger.Info("Closing Redis connection", nil)
	err := client.Close()
	client = nil
	return err
}
