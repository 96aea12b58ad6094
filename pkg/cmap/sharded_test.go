package cmap

import (
	"sync"
	"testing"
)

func TestMap_Basics(t *testing.T) {
	m := New[string]()

	m.Set(1, "a")
	m.Set(2, "b")

	if v, ok := m.Get(1); !ok || v != "a" {
		t.Fatalf("Get(1) = %q, %v", v, ok)
	}
	if m.Has(3) {
		t.Fatal("Has(3) should be false")
	}
	if m.Len() != 2 {
		t.Fatalf("Len = %d", m.Len())
	}
	if !m.Delete(1) || m.Delete(1) {
		t.Fatal("delete semantics wrong")
	}
	if m.Len() != 1 {
		t.Fatalf("Len after delete = %d", m.Len())
	}
}

func TestMap_Range(t *testing.T) {
	m := New[int]()
	for i := uint64(0); i < 100; i++ {
		m.Set(i, int(i))
	}

	seen := make(map[uint64]bool)
	m.Range(func(k uint64, v int) bool {
		seen[k] = true
		return true
	})
	if len(seen) != 100 {
		t.Fatalf("visited %d entries", len(seen))
	}

	// Early stop.
	count := 0
	m.Range(func(uint64, int) bool {
		count++
		return false
	})
	if count != 1 {
		t.Fatalf("early stop visited %d", count)
	}
}

func TestMap_Concurrent(t *testing.T) {
	m := New[int]()
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				key := uint64(g*1000 + i)
				m.Set(key, i)
				m.Get(key)
				if i%2 == 0 {
					m.Delete(key)
				}
			}
		}(g)
	}
	wg.Wait()
	if m.Len() != 8*500 {
		t.Fatalf("Len = %d, want %d", m.Len(), 8*500)
	}
}

func TestNewWithShards_InvalidCount(t *testing.T) {
	m := NewWithShards[int](3)
	if len(m.shards) != DefaultShardCount {
		t.Fatalf("shards = %d, want %d", len(m.shards), DefaultShardCount)
	}
}
