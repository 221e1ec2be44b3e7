package brc

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/yanet-platform/brc/common/go/dataplane"
	"github.com/yanet-platform/brc/modules/brc/pipeline"
	"github.com/yanet-platform/brc/modules/brc/tables"
)

// BrcModule is a control-plane component of the GET cache.
//
// It owns the shared tables and the dataplane running over them, and is the
// only way to read and reset their contents from outside the packet path.
type BrcModule struct {
	cfg       *Config
	tables    *tables.Tables
	dataplane *pipeline.Dataplane
	log       *zap.SugaredLogger
}

func NewBrcModule(cfg *Config, log *zap.SugaredLogger) (*BrcModule, error) {
	log = log.With(zap.String("module", "brc"))

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	log.Debugw("allocating shared tables",
		zap.Uint32("cores", cfg.Workers),
		zap.Uint32("entries", cfg.Cache.Entries),
		zap.Stringer("max_key_length", cfg.Cache.MaxKeyLength),
		zap.Stringer("max_value_size", cfg.Cache.MaxValueSize),
		zap.Uint32("queue_size", cfg.Queue.Size),
	)

	t, err := tables.New(cfg.tablesConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	cores := dataplane.NewWithTrailingOnes(int(cfg.Workers))
	dp, err := pipeline.New(cfg.pipelineConfig(), t, cores, pipeline.WithLog(log))
	if err != nil {
		return nil, fmt.Errorf("failed to create dataplane: %w", err)
	}

	return &BrcModule{
		cfg:       cfg,
		tables:    t,
		dataplane: dp,
		log:       log,
	}, nil
}

func (m *BrcModule) Name() string {
	return "brc"
}

// Dataplane returns the dataplane served by this module.
func (m *BrcModule) Dataplane() *pipeline.Dataplane {
	return m.dataplane
}

// Stats returns the counters summed over all cores.
func (m *BrcModule) Stats() tables.Stats {
	return m.tables.Stats.Sum()
}

// CoreStats returns the counters of a single core.
func (m *BrcModule) CoreStats(core uint32) (tables.Stats, error) {
	entry := m.tables.Stats.Lookup(core)
	if entry == nil {
		return tables.Stats{}, fmt.Errorf("core %d is out of range: only %d cores are configured", core, m.tables.Stats.Cores())
	}
	return entry.Snapshot(), nil
}

func (m *BrcModule) ResetStats() {
	m.tables.Stats.Reset()
	m.log.Infow("reset stats")
}

// ResetCache invalidates every cache entry.
func (m *BrcModule) ResetCache() {
	m.tables.Cache.Reset()
	m.log.Infow("reset cache")
}

// ResetQueue drops every pending key.
//
// Replies in flight for the dropped keys are counted as correlation
// underruns.
func (m *BrcModule) ResetQueue() {
	m.tables.Pending.Reset()
	m.log.Infow("reset pending key queue")
}

// Invalidate clears the entry cached for key. Returns false if the key was
// not cached.
func (m *BrcModule) Invalidate(key []byte) bool {
	ok := m.tables.Cache.Invalidate(key)
	m.log.Debugw("invalidated key", zap.ByteString("key", key), zap.Bool("found", ok))
	return ok
}

// Entries returns copies of all valid cache entries.
func (m *BrcModule) Entries() []tables.EntrySnapshot {
	return m.tables.Cache.Entries()
}

// PendingLen returns the number of keys waiting for their reply.
func (m *BrcModule) PendingLen() uint32 {
	return m.tables.Pending.Len()
}
