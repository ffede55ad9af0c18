package cart

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ikkim/cosmetica-backend/pkg/logger"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrInvalidPrice    = errors.New("price must not be negative")
	ErrInvalidItem     = errors.New("item has no product id")
	ErrStoreClosed     = errors.New("cart store is closed")
)

// Listener receives the resulting State after every mutating call
type Listener func(State)

type subscription struct {
	id uint64
	fn Listener
}

// Store is the authoritative cart for one shopper session.
//
// Mutations are serialised; listeners are invoked synchronously in
// subscription order, once per mutating call, outside the state lock so
// they may read State(). A listener must not mutate the store it observes.
type Store struct {
	key     string
	storage Storage
	newID   func() string
	now     func() time.Time

	mu      sync.Mutex
	items   []LineItem
	closed  bool
	touched time.Time

	// notifyMu keeps notifications in the same order as mutations
	notifyMu sync.Mutex

	subMu  sync.Mutex
	subs   []subscription
	nextID uint64
}

// Option configures a Store
type Option func(*Store)

// WithIDGenerator replaces the uuid line-id generator
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// WithClock replaces time.Now, used for idle tracking
func WithClock(fn func() time.Time) Option {
	return func(s *Store) { s.now = fn }
}

// NewStore builds a store for key and restores whatever snapshot storage
// holds for it. Missing, unreadable or corrupt snapshots start an empty cart.
func NewStore(ctx context.Context, storage Storage, key string, opts ...Option) *Store {
	s := &Store{
		key:     key,
		storage: storage,
		newID:   uuid.NewString,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.touched = s.now()
	s.items = s.restore(ctx)
	return s
}

func (s *Store) restore(ctx context.Context) []LineItem {
	if s.storage == nil {
		return nil
	}

	data, err := s.storage.Load(ctx, s.key)
	if err != nil {
		logger.Warn("Failed to load cart snapshot, starting empty", map[string]interface{}{
			"cart_key": s.key,
			"error":    err.Error(),
		})
		return nil
	}
	if len(data) == 0 {
		return nil
	}

	items, err := decodeItems(data)
	if err != nil {
		logger.Warn("Discarding corrupt cart snapshot", map[string]interface{}{
			"cart_key": s.key,
			"error":    err.Error(),
		})
		return nil
	}

	logger.Debug("Cart snapshot restored", map[string]interface{}{
		"cart_key": s.key,
		"lines":    len(items),
	})
	return items
}

// Key returns the storage key of this cart
func (s *Store) Key() string {
	return s.key
}

// State returns a copy of the current aggregate state
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return newState(s.items)
}

// ItemCount is the total quantity across all lines
func (s *Store) ItemCount() int {
	return s.State().ItemCount
}

// AddItem merges quantity into the line with the same product and variant,
// or appends a new line with a fresh id.
func (s *Store) AddItem(ctx context.Context, item Item, quantity int) error {
	switch {
	case item.ProductID == "":
		return ErrInvalidItem
	case quantity < 1:
		return ErrInvalidQuantity
	case item.Price < 0:
		return ErrInvalidPrice
	}

	return s.mutate(ctx, "add_item", func() bool {
		for i := range s.items {
			if s.items[i].matches(item) {
				s.items[i].Quantity += quantity
				return true
			}
		}
		s.items = append(s.items, LineItem{
			ID:        s.newID(),
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.Price,
			Image:     item.Image,
			Quantity:  quantity,
			Variant:   item.Variant,
		})
		return true
	})
}

// UpdateQuantity sets a line's quantity. Zero or below removes the line.
// Unknown ids leave the cart unchanged.
func (s *Store) UpdateQuantity(ctx context.Context, lineID string, quantity int) error {
	if quantity <= 0 {
		return s.mutate(ctx, "update_quantity", func() bool {
			return s.removeLocked(lineID)
		})
	}
	return s.mutate(ctx, "update_quantity", func() bool {
		for i := range s.items {
			if s.items[i].ID == lineID {
				if s.items[i].Quantity == quantity {
					return false
				}
				s.items[i].Quantity = quantity
				return true
			}
		}
		return false
	})
}

// RemoveItem drops a line; unknown ids are a no-op
func (s *Store) RemoveItem(ctx context.Context, lineID string) error {
	return s.mutate(ctx, "remove_item", func() bool {
		return s.removeLocked(lineID)
	})
}

// Clear empties the cart, typically after an order is paid
func (s *Store) Clear(ctx context.Context) error {
	return s.mutate(ctx, "clear", func() bool {
		if len(s.items) == 0 {
			return false
		}
		s.items = nil
		return true
	})
}

func (s *Store) removeLocked(lineID string) bool {
	for i := range s.items {
		if s.items[i].ID == lineID {
			s.items = append(s.items[:i:i], s.items[i+1:]...)
			return true
		}
	}
	return false
}

// mutate applies fn under the state lock, persists when fn reports a change
// and then notifies every listener, no-op calls included.
//
// notifyMu is always taken before mu. Listeners run holding only notifyMu, so
// they can read State while other mutations queue behind them.
func (s *Store) mutate(ctx context.Context, op string, fn func() bool) error {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrStoreClosed
	}

	changed := fn()
	s.touched = s.now()
	state := newState(s.items)
	if changed {
		s.persistLocked(ctx, op)
	}
	s.mu.Unlock()

	logger.Debug("Cart mutated", map[string]interface{}{
		"cart_key":   s.key,
		"op":         op,
		"changed":    changed,
		"item_count": state.ItemCount,
		"subtotal":   int64(state.Subtotal),
	})

	for _, sub := range s.listeners() {
		sub.fn(newState(state.Items))
	}
	return nil
}

func (s *Store) persistLocked(ctx context.Context, op string) {
	if s.storage == nil {
		return
	}
	data, err := encodeItems(s.items)
	if err != nil {
		logger.Error("Failed to encode cart snapshot", err, map[string]interface{}{
			"cart_key": s.key,
			"op":       op,
		})
		return
	}
	if err := s.storage.Save(ctx, s.key, data); err != nil {
		logger.Error("Failed to persist cart snapshot", err, map[string]interface{}{
			"cart_key": s.key,
			"op":       op,
		})
	}
}

// Subscribe registers a listener and returns its unsubscribe function.
// Unsubscribing is idempotent and never affects other listeners.
func (s *Store) Subscribe(fn Listener) func() {
	s.subMu.Lock()
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscription{id: id, fn: fn})
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// ListenerCount reports how many listeners are attached
func (s *Store) ListenerCount() int {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	return len(s.subs)
}

func (s *Store) listeners() []subscription {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	out := make([]subscription, len(s.subs))
	copy(out, s.subs)
	return out
}

// touch marks the store as in use without changing it
func (s *Store) touch() {
	s.mu.Lock()
	s.touched = s.now()
	s.mu.Unlock()
}

// LastTouched is the time of the last mutation, Open or construction
func (s *Store) LastTouched() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touched
}

// Close detaches all listeners. Later mutations fail with ErrStoreClosed.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.subMu.Lock()
	s.subs = nil
	s.subMu.Unlock()
}
