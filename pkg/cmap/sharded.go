package cmap

import (
	"encoding/binary"
	"sync"

	"github.com/spaolacci/murmur3"
)

// DefaultShardCount is the default number of shards.
const DefaultShardCount = 16

// Map is a concurrent-safe sharded map keyed by uint64.
type Map[V any] struct {
	shards    []*shard[V]
	shardMask uint64
}

type shard[V any] struct {
	mu    sync.RWMutex
	items map[uint64]V
}

// New creates a sharded map with the default shard count.
func New[V any]() *Map[V] {
	return NewWithShards[V](DefaultShardCount)
}

// NewWithShards creates a sharded map. shardCount must be a power of 2;
// anything else falls back to the default.
func NewWithShards[V any](shardCount int) *Map[V] {
	if shardCount <= 0 || shardCount&(shardCount-1) != 0 {
		shardCount = DefaultShardCount
	}

	m := &Map[V]{
		shards:    make([]*shard[V], shardCount),
		shardMask: uint64(shardCount - 1),
	}
	for i := range m.shards {
		m.shards[i] = &shard[V]{items: make(map[uint64]V)}
	}
	return m
}

// getShard hashes the key with murmur3 for an even shard distribution even
// when keys are sequential.
func (m *Map[V]) getShard(key uint64) *shard[V] {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], key)
	return m.shards[murmur3.Sum64(buf[:])&m.shardMask]
}

// Get returns the value for key.
func (m *Map[V]) Get(key uint64) (V, bool) {
	s := m.getShard(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[key]
	return v, ok
}

// Set stores key=value.
func (m *Map[V]) Set(key uint64, value V) {
	s := m.getShard(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = value
}

// Delete removes key, reporting whether it existed.
func (m *Map[V]) Delete(key uint64) bool {
	s := m.getShard(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.items[key]
	delete(s.items, key)
	return ok
}

// Has reports whether key exists.
func (m *Map[V]) Has(key uint64) bool {
	_, ok := m.Get(key)
	return ok
}

// Len returns the total number of entries.
func (m *Map[V]) Len() int {
	total := 0
	for _, s := range m.shards {
		s.mu.RLock()
		total += len(s.items)
		s.mu.RUnlock()
	}
	return total
}

// Range calls fn for every entry until fn returns false. Entries added or
// removed concurrently may or may not be visited.
func (m *Map[V]) Range(fn func(key uint64, value V) bool) {
	for _, s := range m.shards {
		s.mu.RLock()
		keys := make([]uint64, 0, len(s.items))
		for k := range s.items {
			keys = append(keys, k)
		}
		s.mu.RUnlock()

		for _, k := range keys {
			v, ok := m.Get(k)
			if !ok {
				continue
			}
			if !fn(k, v) {
				return
			}
		}
	}
}
