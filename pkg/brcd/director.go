package brcd

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	brc "github.com/yanet-platform/brc/modules/brc/controlplane"
	"github.com/yanet-platform/brc/modules/brc/replay"
	"github.com/yanet-platform/brc/modules/brc/tables"
)

// snapLen is the snapshot length of written captures.
const snapLen = 65536

type options struct {
	Log *zap.SugaredLogger
}

func newOptions() *options {
	return &options{
		Log: zap.NewNop().Sugar(),
	}
}

// DirectorOption is a function that configures the director.
type DirectorOption func(*options)

// WithLog sets the logger for the director.
func WithLog(log *zap.SugaredLogger) DirectorOption {
	return func(o *options) {
		o.Log = log
	}
}

// Director wires the cache module to the capture replay.
type Director struct {
	cfg    *Config
	module *brc.BrcModule
	log    *zap.SugaredLogger
}

func NewDirector(cfg *Config, options ...DirectorOption) (*Director, error) {
	opts := newOptions()
	for _, o := range options {
		o(opts)
	}

	log := opts.Log
	log.Infof("initializing brc ...")
	log.Debugw("parsed config", zap.Any("config", cfg))

	module, err := brc.NewBrcModule(cfg.Brc, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create brc module: %w", err)
	}

	return &Director{
		cfg:    cfg,
		module: module,
		log:    log,
	}, nil
}

// Module returns the cache module.
func (m *Director) Module() *brc.BrcModule {
	return m.module
}

// Report is the outcome of a replay.
type Report struct {
	Replay  replay.Summary `yaml:"replay"`
	Stats   tables.Stats   `yaml:"stats"`
	Entries int            `yaml:"entries"`
	Pending uint32         `yaml:"pending"`
}

// Replay runs the given capture files through the cache, in order, and
// writes forwarded frames to output unless it is empty.
func (m *Director) Replay(ctx context.Context, inputs []string, output string) (*Report, error) {
	sources := make([]replay.Source, 0, len(inputs))
	for _, path := range inputs {
		in, err := replay.OpenFile(path)
		if err != nil {
			return nil, err
		}
		defer in.Close()

		sources = append(sources, in)
	}

	var sink replay.Sink
	var out *replay.OutputFile
	if output != "" {
		f, err := replay.CreateFile(output, snapLen)
		if err != nil {
			return nil, err
		}

		out = f
		sink = f
	}

	m.log.Infow("replaying captures", zap.Strings("inputs", inputs), zap.String("output", output))

	r := replay.NewReplayer(m.module.Dataplane(), replay.WithLog(m.log))
	summary, err := r.Replay(ctx, sources, sink)
	if out != nil {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close %q: %w", output, closeErr)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to replay: %w", err)
	}

	return &Report{
		Replay:  summary,
		Stats:   m.module.Stats(),
		Entries: len(m.module.Entries()),
		Pending: m.module.PendingLen(),
	}, nil
}
