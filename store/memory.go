// SPDX-License-Identifier: MIT

package store

import (
	"hash/maphash"
	"sync"
	"sync/atomic"
)

const shardCount = 32

type memShard struct {
	mu sync.RWMutex
	m  map[string][]byte
}

// MemoryStore is the in-process backend: a fixed set of maps, each behind
// its own RWMutex.
type MemoryStore struct {
	seed   maphash.Seed
	shards [shardCount]memShard
	size   atomic.Int64
	closed atomic.Bool
}

// NewMemory returns an empty in-memory store.
func NewMemory() *MemoryStore {
	ms := &MemoryStore{seed: maphash.MakeSeed()}
	for i := range ms.shards {
		ms.shards[i].m = make(map[string][]byte)
	}

	return ms
}

func (ms *MemoryStore) shard(key []byte) *memShard {
	return &ms.shards[maphash.Bytes(ms.seed, key)%shardCount]
}

// Get returns the value under key.
func (ms *MemoryStore) Get(key []byte) ([]byte, bool, error) {
	if ms.closed.Load() {
		return nil, false, ErrClosed
	}
	sh := ms.shard(key)
	sh.mu.RLock()
	v, ok := sh.m[string(key)]
	sh.mu.RUnlock()

	return v, ok, nil
}

// PutIfAbsent stores a copy of val unless key is present.
func (ms *MemoryStore) PutIfAbsent(key, val []byte) ([]byte, bool, error) {
	if ms.closed.Load() {
		return nil, false, ErrClosed
	}
	sh := ms.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if v, ok := sh.m[string(key)]; ok {
		return v, true, nil
	}
	v := append([]byte(nil), val...)
	sh.m[string(key)] = v
	ms.size.Add(1)

	return v, false, nil
}

// Len returns the number of keys.
func (ms *MemoryStore) Len() (int, error) {
	return int(ms.size.Load()), nil
}

// Close marks the store closed. Data is kept for readers holding values.
func (ms *MemoryStore) Close() error {
	ms.closed.Store(true)

	return nil
}
