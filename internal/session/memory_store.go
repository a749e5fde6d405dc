package session

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

const lockStripes = 64

// MemoryStore keeps session documents in a bounded in-process LRU whose
// entries expire after the session TTL. Updates of one key are serialized
// through a striped lock; other keys proceed in parallel.
type MemoryStore struct {
	locks [lockStripes]sync.Mutex
	cache *expirable.LRU[string, []byte]
}

// NewMemoryStore creates a store holding at most size documents.
func NewMemoryStore(size int, ttl time.Duration) *MemoryStore {
	if size <= 0 {
		size = 10000
	}
	return &MemoryStore{cache: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) lockFor(key string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return &s.locks[h.Sum32()%lockStripes]
}

// Get returns a copy of the stored document. Stored slices are never
// modified in place, so reads need no key lock.
func (s *MemoryStore) Get(_ context.Context, id uuid.UUID, kind string) ([]byte, bool, error) {
	data, ok := s.cache.Get(stateKey(id, kind))
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), data...), true, nil
}

// Update runs fn under the key's lock, so updates of one document never interleave.
func (s *MemoryStore) Update(_ context.Context, id uuid.UUID, kind string, fn func([]byte) ([]byte, error)) ([]byte, error) {
	key := stateKey(id, kind)
	mu := s.lockFor(key)
	mu.Lock()
	defer mu.Unlock()

	var current []byte
	if data, ok := s.cache.Get(key); ok {
		current = append([]byte(nil), data...)
	}

	next, err := fn(current)
	if err != nil {
		return nil, err
	}
	s.cache.Add(key, next)
	return append([]byte(nil), next...), nil
}

// Delete removes the given kinds.
func (s *MemoryStore) Delete(_ context.Context, id uuid.UUID, kinds ...string) error {
	for _, kind := range kinds {
		key := stateKey(id, kind)
		mu := s.lockFor(key)
		mu.Lock()
		s.cache.Remove(key)
		mu.Unlock()
	}
	return nil
}
