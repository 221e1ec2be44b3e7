package pipeline

import (
	"fmt"

	"github.com/gobwas/glob"
	"go.uber.org/zap"

	"github.com/yanet-platform/brc/common/go/dataplane"
	"github.com/yanet-platform/brc/modules/brc/tables"
)

// Config is the configuration of the packet programs.
type Config struct {
	// ServerPort is the port the server listens on.
	ServerPort uint16
	// MaxPacketLength bounds every payload offset the programs use.
	MaxPacketLength uint32
	// DenyKeys are glob patterns of keys that must never be cached.
	DenyKeys []string
}

type options struct {
	Log *zap.SugaredLogger
}

func newOptions() *options {
	return &options{
		Log: zap.NewNop().Sugar(),
	}
}

// DataplaneOption is a function that configures the dataplane.
type DataplaneOption func(*options)

// WithLog sets the logger for the dataplane.
func WithLog(log *zap.SugaredLogger) DataplaneOption {
	return func(o *options) {
		o.Log = log
	}
}

// Dataplane ties the programs, the dispatch table and the shared tables
// together and owns one worker per configured core.
type Dataplane struct {
	cfg     Config
	tables  *tables.Tables
	cores   dataplane.CoreMap
	workers []*Worker
	log     *zap.SugaredLogger
}

// New creates a dataplane running on the given cores.
//
// Every core must have its slots in the core-local tables.
func New(cfg Config, t *tables.Tables, cores dataplane.CoreMap, options ...DataplaneOption) (*Dataplane, error) {
	opts := newOptions()
	for _, o := range options {
		o(opts)
	}

	if cores.IsEmpty() {
		return nil, fmt.Errorf("at least one core is required")
	}
	if cores.Max() > t.Stats.Cores() {
		return nil, fmt.Errorf("core %d has no slot in the shared tables: only %d are allocated", cores.Max()-1, t.Stats.Cores())
	}
	if cfg.MaxPacketLength == 0 || cfg.MaxPacketLength > 65535 {
		return nil, fmt.Errorf("max packet length must be in [1, 65535], got %d", cfg.MaxPacketLength)
	}

	deny := make([]glob.Glob, 0, len(cfg.DenyKeys))
	for _, pattern := range cfg.DenyKeys {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("failed to compile deny key pattern %q: %w", pattern, err)
		}
		deny = append(deny, g)
	}

	dispatch := NewDispatchTable()
	programs := []struct {
		id      ProgramID
		program Program
	}{
		{ProgRequestClassifier, &RequestClassifier{serverPort: cfg.ServerPort, maxPacketLength: cfg.MaxPacketLength}},
		{ProgKeyHasher, &KeyHasher{maxPacketLength: cfg.MaxPacketLength}},
		{ProgResponseSynthesizer, &ResponseSynthesizer{}},
		{ProgWriteReply, &WriteReply{}},
		{ProgMaintainTcp, &MaintainTcp{}},
		{ProgInvalidator, &Invalidator{}},
		{ProgResponseClassifier, &ResponseClassifier{serverPort: cfg.ServerPort, maxPacketLength: cfg.MaxPacketLength}},
		{ProgCacheUpdater, &CacheUpdater{maxPacketLength: cfg.MaxPacketLength, deny: deny}},
	}
	for _, p := range programs {
		if err := dispatch.Register(p.id, p.program); err != nil {
			return nil, fmt.Errorf("failed to register %s: %w", p.id, err)
		}
	}

	dp := &Dataplane{
		cfg:     cfg,
		tables:  t,
		cores:   cores,
		workers: make([]*Worker, cores.Max()),
		log:     opts.Log,
	}
	for core := range cores.Iter() {
		dp.workers[core] = newWorker(core, dispatch, t, dp)
	}

	dp.log.Infow("initialized dataplane",
		"server_port", cfg.ServerPort,
		"cores", cores.Len(),
		"deny_keys", cfg.DenyKeys,
	)

	return dp, nil
}

// Worker returns the worker of the given core, or nil if the core is not
// configured.
func (m *Dataplane) Worker(core uint32) *Worker {
	if !m.cores.Contains(core) {
		return nil
	}
	return m.workers[core]
}

// Workers returns all workers, ordered by core index.
func (m *Dataplane) Workers() []*Worker {
	workers := make([]*Worker, 0, m.cores.Len())
	for core := range m.cores.Iter() {
		workers = append(workers, m.workers[core])
	}
	return workers
}

func (m *Dataplane) Tables() *tables.Tables {
	return m.tables
}

func (m *Dataplane) ServerPort() uint16 {
	return m.cfg.ServerPort
}
