package cache

import (
	"context"
	"sync"

	"github.com/example/zari-storefront/internal/domain"
)

type stateKey struct {
	client string
	key    string
}

// MemoryStateStore — хранилище клиентского состояния в памяти процесса.
type MemoryStateStore struct {
	mu    sync.RWMutex
	store map[stateKey][]byte
}

func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{store: make(map[stateKey][]byte)}
}

func (c *MemoryStateStore) Load(_ context.Context, clientID, key string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	raw, ok := c.store[stateKey{clientID, key}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return append([]byte(nil), raw...), nil
}

func (c *MemoryStateStore) Save(_ context.Context, clientID, key string, raw []byte) error {
	c.mu.Lock()
	c.store[stateKey{clientID, key}] = append([]byte(nil), raw...)
	c.mu.Unlock()
	return nil
}

func (c *MemoryStateStore) Delete(_ context.Context, clientID, key string) error {
	c.mu.Lock()
	delete(c.store, stateKey{clientID, key})
	c.mu.Unlock()
	return nil
}

var _ domain.StateStore = (*MemoryStateStore)(nil)
