package tables

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
)

// UpdatePolicy decides what a fill does to a slot that already holds a valid
// entry.
type UpdatePolicy uint8

const (
	// UpdatePolicyFillOnce keeps the first entry installed into a slot until
	// it is invalidated. Later fills of a valid slot are ignored, including
	// fills of a different key colliding on the same slot.
	UpdatePolicyFillOnce UpdatePolicy = iota
	// UpdatePolicyOverwrite replaces the contents of the slot on every fill.
	UpdatePolicyOverwrite
)

func (m UpdatePolicy) String() string {
	switch m {
	case UpdatePolicyFillOnce:
		return "fill_once"
	case UpdatePolicyOverwrite:
		return "overwrite"
	default:
		return fmt.Sprintf("UpdatePolicy(%d)", uint8(m))
	}
}

func (m UpdatePolicy) MarshalText() ([]byte, error) {
	switch m {
	case UpdatePolicyFillOnce, UpdatePolicyOverwrite:
		return []byte(m.String()), nil
	default:
		return nil, fmt.Errorf("unknown update policy %d", uint8(m))
	}
}

func (m *UpdatePolicy) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "fill_once", "":
		*m = UpdatePolicyFillOnce
	case "overwrite":
		*m = UpdatePolicyOverwrite
	default:
		return fmt.Errorf("unknown update policy %q", text)
	}
	return nil
}

// CacheEntry is a single slot of the cache table.
type CacheEntry struct {
	mu      sync.Mutex
	valid   bool
	hash    uint32
	keyLen  uint32
	dataLen uint32
	key     []byte
	data    []byte
}

// EntrySnapshot is a copy of a valid cache entry taken under its lock.
type EntrySnapshot struct {
	Slot uint32
	Hash uint32
	Key  []byte
	Data []byte
}

// FillResult tells what a fill did to the slot.
type FillResult uint8

const (
	// FillInstalled means the key and value were written into the slot.
	FillInstalled FillResult = iota
	// FillOccupied means the slot was valid and the policy kept it.
	FillOccupied
	// FillTooLarge means the key or the value exceed the table limits.
	FillTooLarge
)

// CacheTable is a direct-mapped table of cache entries.
//
// There is no chaining: a key can only live in slot Hash(key) % N, so two keys
// colliding on a slot cannot be cached at the same time. Every operation locks
// at most one entry at a time.
type CacheTable struct {
	entries      []CacheEntry
	maxKeyLength uint32
	maxValueSize uint32
	policy       UpdatePolicy
}

// NewCacheTable creates a table of size slots, each able to hold a key of up
// to maxKeyLength bytes and a value of up to maxValueSize bytes.
//
// Key and value storage is preallocated, so fills never allocate.
func NewCacheTable(size uint32, maxKeyLength uint32, maxValueSize uint32, policy UpdatePolicy) (*CacheTable, error) {
	if size == 0 {
		return nil, fmt.Errorf("cache table must have at least one entry")
	}
	if maxKeyLength == 0 {
		return nil, fmt.Errorf("max key length must be positive")
	}

	keys := make([]byte, uint64(size)*uint64(maxKeyLength))
	values := make([]byte, uint64(size)*uint64(maxValueSize))

	entries := make([]CacheEntry, size)
	for idx := range entries {
		keyOff := uint64(idx) * uint64(maxKeyLength)
		valueOff := uint64(idx) * uint64(maxValueSize)
		entries[idx].key = keys[keyOff : keyOff+uint64(maxKeyLength) : keyOff+uint64(maxKeyLength)]
		entries[idx].data = values[valueOff : valueOff+uint64(maxValueSize) : valueOff+uint64(maxValueSize)]
	}

	return &CacheTable{
		entries:      entries,
		maxKeyLength: maxKeyLength,
		maxValueSize: maxValueSize,
		policy:       policy,
	}, nil
}

// Len returns the number of slots.
func (m *CacheTable) Len() uint32 {
	return uint32(len(m.entries))
}

func (m *CacheTable) MaxKeyLength() uint32 {
	return m.maxKeyLength
}

func (m *CacheTable) MaxValueSize() uint32 {
	return m.maxValueSize
}

func (m *CacheTable) Policy() UpdatePolicy {
	return m.policy
}

// Slot returns the slot index a hash maps to.
func (m *CacheTable) Slot(hash uint32) uint32 {
	return hash % uint32(len(m.entries))
}

// Lookup reports whether the slot for hash holds a valid entry for exactly
// this key.
func (m *CacheTable) Lookup(hash uint32, key []byte) bool {
	if uint32(len(key)) > m.maxKeyLength {
		return false
	}

	entry := &m.entries[m.Slot(hash)]
	entry.mu.Lock()
	defer entry.mu.Unlock()

	return entry.matchLocked(hash, key)
}

// Fill installs key and value into the slot for hash, subject to the update
// policy.
func (m *CacheTable) Fill(hash uint32, key []byte, value []byte) FillResult {
	if uint32(len(key)) > m.maxKeyLength || uint32(len(value)) > m.maxValueSize {
		return FillTooLarge
	}

	entry := &m.entries[m.Slot(hash)]
	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.valid && m.policy == UpdatePolicyFillOnce {
		return FillOccupied
	}

	entry.hash = hash
	entry.keyLen = uint32(copy(entry.key, key))
	entry.dataLen = uint32(copy(entry.data, value))
	entry.valid = true

	return FillInstalled
}

// Get returns a copy of the entry cached for key.
func (m *CacheTable) Get(key []byte) (EntrySnapshot, bool) {
	if uint32(len(key)) > m.maxKeyLength {
		return EntrySnapshot{}, false
	}

	hash := Hash(key)
	slot := m.Slot(hash)

	entry := &m.entries[slot]
	entry.mu.Lock()
	defer entry.mu.Unlock()

	if !entry.matchLocked(hash, key) {
		return EntrySnapshot{}, false
	}

	return entry.snapshotLocked(slot), true
}

// Invalidate clears the entry cached for key, if any.
func (m *CacheTable) Invalidate(key []byte) bool {
	if uint32(len(key)) > m.maxKeyLength {
		return false
	}

	hash := Hash(key)

	entry := &m.entries[m.Slot(hash)]
	entry.mu.Lock()
	defer entry.mu.Unlock()

	if !entry.matchLocked(hash, key) {
		return false
	}

	entry.valid = false
	return true
}

// Reset invalidates every slot, one lock at a time.
func (m *CacheTable) Reset() {
	for idx := range m.entries {
		entry := &m.entries[idx]
		entry.mu.Lock()
		entry.valid = false
		entry.mu.Unlock()
	}
}

// Entries returns copies of all valid entries.
//
// Slots are locked one by one, so the result is not an atomic view of the
// whole table.
func (m *CacheTable) Entries() []EntrySnapshot {
	var out []EntrySnapshot

	for idx := range m.entries {
		entry := &m.entries[idx]
		entry.mu.Lock()
		if entry.valid {
			out = append(out, entry.snapshotLocked(uint32(idx)))
		}
		entry.mu.Unlock()
	}

	return out
}

// Valid returns the number of valid slots.
func (m *CacheTable) Valid() int {
	count := 0
	for idx := range m.entries {
		entry := &m.entries[idx]
		entry.mu.Lock()
		if entry.valid {
			count++
		}
		entry.mu.Unlock()
	}
	return count
}

func (m *CacheEntry) matchLocked(hash uint32, key []byte) bool {
	if !m.valid {
		return false
	}
	if m.keyLen != uint32(len(key)) || m.hash != hash {
		return false
	}

	return bytes.Equal(m.key[:m.keyLen], key)
}

func (m *CacheEntry) snapshotLocked(slot uint32) EntrySnapshot {
	return EntrySnapshot{
		Slot: slot,
		Hash: m.hash,
		Key:  bytes.Clone(m.key[:m.keyLen]),
		Data: bytes.Clone(m.data[:m.dataLen]),
	}
}
