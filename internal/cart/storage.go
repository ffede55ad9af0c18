package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// Storage is the durable key-value medium a Store persists into.
// Load returns (nil, nil) when nothing is stored under key.
type Storage interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}

// Deleter is implemented by storages that can drop a snapshot outright
// instead of keeping an empty one.
type Deleter interface {
	Delete(ctx context.Context, key string) error
}

var errCorruptSnapshot = errors.New("corrupt cart snapshot")

func encodeItems(items []LineItem) ([]byte, error) {
	if items == nil {
		items = []LineItem{}
	}
	return json.Marshal(items)
}

// decodeItems parses a persisted snapshot. Any structurally invalid line
// rejects the whole snapshot.
func decodeItems(data []byte) ([]LineItem, error) {
	var items []LineItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", errCorruptSnapshot, err)
	}

	seen := make(map[string]struct{}, len(items))
	for i, li := range items {
		switch {
		case li.ID == "":
			return nil, fmt.Errorf("%w: line %d has no id", errCorruptSnapshot, i)
		case li.ProductID == "":
			return nil, fmt.Errorf("%w: line %d has no product id", errCorruptSnapshot, i)
		case li.Quantity < 1:
			return nil, fmt.Errorf("%w: line %d has quantity %d", errCorruptSnapshot, i, li.Quantity)
		case li.Price < 0:
			return nil, fmt.Errorf("%w: line %d has negative price", errCorruptSnapshot, i)
		}
		if _, dup := seen[li.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate line id %s", errCorruptSnapshot, li.ID)
		}
		seen[li.ID] = struct{}{}
	}
	return items, nil
}

// MemoryStorage keeps snapshots in process memory. Used in tests and
// single-instance development setups.
type MemoryStorage struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: make(map[string][]byte)}
}

func (m *MemoryStorage) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (m *MemoryStorage) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStorage) Save(_ context.Context, key string, data []byte) error {
	buf := make([]byte, len(data))
	copy(buf, data)
	m.mu.Lock()
	m.data[key] = buf
	m.mu.Unlock()
	return nil
}
