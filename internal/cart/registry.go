package cart

import (
	"context"
	"sync"
	"time"

	"github.com/ikkim/cosmetica-backend/pkg/logger"
)

// Registry hands out one Store per session key so that every request and
// websocket for the same shopper shares a single authoritative cart.
type Registry struct {
	storage Storage
	opts    []Option
	onOpen  func(*Store)
	now     func() time.Time

	mu     sync.Mutex
	stores map[string]*Store
	closed bool
}

// RegistryOption configures a Registry
type RegistryOption func(*Registry)

// WithStoreOptions applies opts to every store the registry creates
func WithStoreOptions(opts ...Option) RegistryOption {
	return func(r *Registry) { r.opts = append(r.opts, opts...) }
}

// WithOnOpen runs fn once for every newly created store, before it is shared
func WithOnOpen(fn func(*Store)) RegistryOption {
	return func(r *Registry) { r.onOpen = fn }
}

// WithRegistryClock replaces time.Now for idle eviction
func WithRegistryClock(fn func() time.Time) RegistryOption {
	return func(r *Registry) {
		r.now = fn
		r.opts = append(r.opts, WithClock(fn))
	}
}

func NewRegistry(storage Storage, opts ...RegistryOption) *Registry {
	r := &Registry{
		storage: storage,
		now:     time.Now,
		stores:  make(map[string]*Store),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Open returns the live store for key, restoring it from storage on first use
func (r *Registry) Open(ctx context.Context, key string) (*Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrStoreClosed
	}
	if s, ok := r.stores[key]; ok {
		// a store handed to a caller must not look idle to EvictIdle
		s.touch()
		return s, nil
	}

	s := NewStore(ctx, r.storage, key, r.opts...)
	if r.onOpen != nil {
		r.onOpen(s)
	}
	r.stores[key] = s

	logger.Debug("Cart store opened", map[string]interface{}{
		"cart_key": key,
		"open":     len(r.stores),
	})
	return s, nil
}

// Release closes and forgets the store for key. A later Open restores it
// from storage.
func (r *Registry) Release(key string) {
	r.mu.Lock()
	s, ok := r.stores[key]
	delete(r.stores, key)
	r.mu.Unlock()

	if ok {
		s.Close()
	}
}

// Discard releases the store for key and drops its snapshot when the
// storage supports deletion. The next Open starts an empty cart.
func (r *Registry) Discard(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.stores[key]; ok {
		delete(r.stores, key)
		s.Close()
	}

	deleter, ok := r.storage.(Deleter)
	if !ok {
		return nil
	}
	if err := deleter.Delete(ctx, key); err != nil {
		logger.Error("Failed to delete cart snapshot", err, map[string]interface{}{
			"cart_key": key,
		})
		return err
	}
	return nil
}

// Len reports the number of live stores
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}

// EvictIdle releases stores untouched for longer than maxIdle that have no
// listeners attached. It returns how many were evicted.
func (r *Registry) EvictIdle(maxIdle time.Duration) int {
	cutoff := r.now().Add(-maxIdle)

	r.mu.Lock()
	var idle []*Store
	for key, s := range r.stores {
		if s.ListenerCount() > 0 {
			continue
		}
		if s.LastTouched().Before(cutoff) {
			idle = append(idle, s)
			delete(r.stores, key)
		}
	}
	r.mu.Unlock()

	for _, s := range idle {
		s.Close()
	}

	if len(idle) > 0 {
		logger.Info("Evicted idle cart stores", map[string]interface{}{
			"evicted":  len(idle),
			"max_idle": maxIdle.String(),
		})
	}
	return len(idle)
}

// Close closes every store; Open fails afterwards
func (r *Registry) Close() {
	r.mu.Lock()
	stores := r.stores
	r.stores = make(map[string]*Store)
	r.closed = true
	r.mu.Unlock()

	for _, s := range stores {
		s.Close()
	}
}
