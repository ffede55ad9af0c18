package redis

import (
	"context"
	"errors"
	"time"

	"github.com/ikkim/cosmetica-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// CartStorage persists cart snapshots as plain string values. Every save
// refreshes the TTL so abandoned carts expire on their own.
type CartStorage struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

func NewCartStorage(client redis.Cmdable, prefix string, ttl time.Duration) *CartStorage {
	return &CartStorage{client: client, prefix: prefix, ttl: ttl}
}

func (s *CartStorage) key(cartKey string) string {
	return s.prefix + cartKey
}

func (s *CartStorage) Load(ctx context.Context, cartKey string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key(cartKey)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		logger.Error("Failed to load cart from Redis", err, map[string]interface{}{
			"cart_key": cartKey,
		})
		return nil, err
	}
	return data, nil
}

func (s *CartStorage) Save(ctx context.Context, cartKey string, data []byte) error {
	if err := s.client.Set(ctx, s.key(cartKey), data, s.ttl).Err(); err != nil {
		logger.Error("Failed to save cart to Redis", err, map[string]interface{}{
			"cart_key": cartKey,
		})
		return err
	}
	return nil
}

// Delete drops a stored cart. The registry calls it once a guest cart has
// been merged into a user cart.
func (s *CartStorage) Delete(ctx context.Context, cartKey string) error {
	if err := s.client.Del(ctx, s.key(cartKey)).Err(); err != nil {
		logger.Error("Failed to delete cart from Redis", err, map[string]interface{}{
			"cart_key": cartKey,
		})
		return err
	}
	return nil
}
