package tables

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

var (
	// ErrQueueFull is returned by Push when the queue is at capacity. The key
	// is dropped: the queue keeps the older pending keys, since their replies
	// are already on the way.
	ErrQueueFull = errors.New("pending key queue is full")
	// ErrQueueEmpty is returned by Pop when no key is pending.
	ErrQueueEmpty = errors.New("pending key queue is empty")
	// ErrKeyTooLong is returned by Push for keys above the queue key limit.
	ErrKeyTooLong = errors.New("pending key is too long")
)

// PendingKey is a key that missed the cache and waits for its reply.
type PendingKey struct {
	Hash uint32
	Len  uint32
	Key  []byte
}

// Bytes returns the key bytes.
func (m *PendingKey) Bytes() []byte {
	return m.Key[:m.Len]
}

// PendingKeyQueue is a bounded FIFO of keys that missed the cache.
//
// The k-th push is assumed to belong to the k-th reply parsed on the egress
// side, which only holds while every connection has at most one GET in
// flight. Push and Pop are atomic with respect to each other and carry no
// other ordering guarantee.
type PendingKeyQueue struct {
	mu       sync.Mutex
	keys     []byte
	hashes   []uint32
	lens     []uint32
	head     uint32
	count    uint32
	capacity uint32
	maxKey   uint32

	overflows atomic.Uint64
}

// NewPendingKeyQueue creates a queue holding up to capacity keys of up to
// maxKeyLength bytes each.
func NewPendingKeyQueue(capacity uint32, maxKeyLength uint32) (*PendingKeyQueue, error) {
	if capacity == 0 {
		return nil, fmt.Errorf("pending key queue must have a positive capacity")
	}

	return &PendingKeyQueue{
		keys:     make([]byte, uint64(capacity)*uint64(maxKeyLength)),
		hashes:   make([]uint32, capacity),
		lens:     make([]uint32, capacity),
		capacity: capacity,
		maxKey:   maxKeyLength,
	}, nil
}

// Push appends a key to the tail of the queue.
//
// On overflow the new key is dropped and ErrQueueFull is returned.
func (m *PendingKeyQueue) Push(hash uint32, key []byte) error {
	if uint32(len(key)) > m.maxKey {
		return ErrKeyTooLong
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.count == m.capacity {
		m.overflows.Add(1)
		return ErrQueueFull
	}

	idx := (m.head + m.count) % m.capacity
	m.hashes[idx] = hash
	m.lens[idx] = uint32(copy(m.slotLocked(idx), key))
	m.count++

	return nil
}

// Pop removes the head of the queue and copies it into dst, reusing the
// capacity of dst.Key.
func (m *PendingKeyQueue) Pop(dst *PendingKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.count == 0 {
		return ErrQueueEmpty
	}

	idx := m.head
	if dst != nil {
		dst.Hash = m.hashes[idx]
		dst.Len = m.lens[idx]
		dst.Key = append(dst.Key[:0], m.slotLocked(idx)[:m.lens[idx]]...)
	}

	m.head = (m.head + 1) % m.capacity
	m.count--

	return nil
}

// Len returns the number of pending keys.
func (m *PendingKeyQueue) Len() uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.count
}

// Cap returns the queue capacity.
func (m *PendingKeyQueue) Cap() uint32 {
	return m.capacity
}

// Overflows returns the number of keys dropped because the queue was full.
func (m *PendingKeyQueue) Overflows() uint64 {
	return m.overflows.Load()
}

// Reset drops every pending key.
func (m *PendingKeyQueue) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.head = 0
	m.count = 0
}

func (m *PendingKeyQueue) slotLocked(idx uint32) []byte {
	off := uint64(idx) * uint64(m.maxKey)
	return m.keys[off : off+uint64(m.maxKey)]
}
