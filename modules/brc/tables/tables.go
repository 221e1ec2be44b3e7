package tables

import (
	"fmt"
)

// Config describes the size of the shared tables.
type Config struct {
	// Cores is the number of per-core slots in core-local tables.
	Cores uint32
	// CacheEntries is the number of cache slots.
	CacheEntries uint32
	// MaxKeyLength is the longest key that can be cached.
	MaxKeyLength uint32
	// MaxValueSize is the longest value that can be cached.
	MaxValueSize uint32
	// QueueSize is the capacity of the pending key queue.
	QueueSize uint32
	// UpdatePolicy is applied when a reply is cached into a valid slot.
	UpdatePolicy UpdatePolicy
}

// Tables is the set of tables shared between stages and with the control
// plane.
type Tables struct {
	Cache   *CacheTable
	Pending *PendingKeyQueue
	Stats   *StatsTable
	Parsing *ParsingContextTable
}

// New allocates all tables.
func New(cfg Config) (*Tables, error) {
	if cfg.Cores == 0 {
		return nil, fmt.Errorf("at least one core is required")
	}

	cache, err := NewCacheTable(cfg.CacheEntries, cfg.MaxKeyLength, cfg.MaxValueSize, cfg.UpdatePolicy)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache table: %w", err)
	}

	pending, err := NewPendingKeyQueue(cfg.QueueSize, cfg.MaxKeyLength)
	if err != nil {
		return nil, fmt.Errorf("failed to create pending key queue: %w", err)
	}

	return &Tables{
		Cache:   cache,
		Pending: pending,
		Stats:   NewStatsTable(cfg.Cores),
		Parsing: NewParsingContextTable(cfg.Cores),
	}, nil
}
