package replay

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yanet-platform/brc/common/go/dataplane"
	"github.com/yanet-platform/brc/modules/brc/pipeline"
	"github.com/yanet-platform/brc/modules/brc/tables"
)

const defaultBatchSize = 32

type options struct {
	Log       *zap.SugaredLogger
	BatchSize int
}

func newOptions() *options {
	return &options{
		Log:       zap.NewNop().Sugar(),
		BatchSize: defaultBatchSize,
	}
}

// ReplayerOption is a function that configures the replayer.
type ReplayerOption func(*options)

// WithLog sets the logger for the replayer.
func WithLog(log *zap.SugaredLogger) ReplayerOption {
	return func(o *options) {
		o.Log = log
	}
}

// WithBatchSize sets the largest number of packets handed to a worker at
// once.
func WithBatchSize(size int) ReplayerOption {
	return func(o *options) {
		o.BatchSize = max(1, size)
	}
}

// Summary describes a finished replay.
type Summary struct {
	Packets uint64 `yaml:"packets"`
	Ingress uint64 `yaml:"ingress"`
	Egress  uint64 `yaml:"egress"`
	Batches uint64 `yaml:"batches"`
}

// Replayer feeds captured traffic through the dataplane workers.
//
// Frames are sharded onto workers by a symmetric hash of their network and
// transport flows, so both directions of a connection are handled by the
// same worker, in capture order. Frames sent to the server port run the
// ingress hook, all others run the egress hook.
type Replayer struct {
	workers    []*pipeline.Worker
	serverPort uint16
	batchSize  int
	log        *zap.SugaredLogger
}

func NewReplayer(dp *pipeline.Dataplane, options ...ReplayerOption) *Replayer {
	opts := newOptions()
	for _, o := range options {
		o(opts)
	}

	return &Replayer{
		workers:    dp.Workers(),
		serverPort: dp.ServerPort(),
		batchSize:  opts.BatchSize,
		log:        opts.Log,
	}
}

type capture struct {
	data []byte
	ci   gopacket.CaptureInfo
}

type batch struct {
	direction tables.Direction
	packets   []capture
}

// Replay runs every frame of the sources, one source after another, through
// the dataplane.
//
// Forwarded frames are written to sink unless it is nil. Frames of different
// workers are written in completion order.
func (m *Replayer) Replay(ctx context.Context, sources []Source, sink Sink) (Summary, error) {
	summary := Summary{}

	queues := make([]chan batch, len(m.workers))
	for idx := range queues {
		queues[idx] = make(chan batch, 16)
	}
	forwarded := make(chan []capture, len(m.workers))

	wg, ctx := errgroup.WithContext(ctx)
	wg.Go(func() error {
		return m.read(ctx, sources, queues, &summary)
	})
	wg.Go(func() error {
		defer close(forwarded)

		workers, ctx := errgroup.WithContext(ctx)
		for idx, worker := range m.workers {
			workers.Go(func() error {
				return m.work(ctx, worker, queues[idx], forwarded)
			})
		}
		return workers.Wait()
	})
	wg.Go(func() error {
		return m.write(forwarded, sink)
	})

	if err := wg.Wait(); err != nil {
		return summary, err
	}

	m.log.Infow("replay finished",
		zap.Uint64("packets", summary.Packets),
		zap.Uint64("ingress", summary.Ingress),
		zap.Uint64("egress", summary.Egress),
		zap.Uint64("batches", summary.Batches),
	)

	return summary, nil
}

func (m *Replayer) read(ctx context.Context, sources []Source, queues []chan batch, summary *Summary) error {
	defer func() {
		for _, q := range queues {
			close(q)
		}
	}()

	pending := make([]batch, len(queues))
	flush := func(idx int) error {
		b := pending[idx]
		if len(b.packets) == 0 {
			return nil
		}
		pending[idx] = batch{}
		summary.Batches++

		select {
		case queues[idx] <- b:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	for srcIdx, src := range sources {
		if linkType := src.LinkType(); linkType != layers.LinkTypeEthernet {
			return fmt.Errorf("source %d has unsupported link type %s", srcIdx, linkType)
		}

		for {
			data, ci, err := src.ReadPacketData()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return fmt.Errorf("failed to read packet %d of source %d: %w", summary.Packets, srcIdx, err)
			}
			if len(data) == 0 {
				continue
			}

			hash, direction := m.classify(data)
			idx := int(hash % uint64(len(queues)))

			b := &pending[idx]
			if len(b.packets) > 0 && (b.direction != direction || len(b.packets) >= m.batchSize) {
				if err := flush(idx); err != nil {
					return err
				}
			}
			b.direction = direction
			b.packets = append(b.packets, capture{data: data, ci: ci})

			summary.Packets++
			if direction == tables.Ingress {
				summary.Ingress++
			} else {
				summary.Egress++
			}
		}
	}

	for idx := range pending {
		if err := flush(idx); err != nil {
			return err
		}
	}
	return nil
}

// classify returns the shard hash and the hook of a frame.
func (m *Replayer) classify(data []byte) (uint64, tables.Direction) {
	pkt := gopacket.NewPacket(data, layers.LayerTypeEthernet, gopacket.DecodeOptions{Lazy: true, NoCopy: true})

	network := pkt.NetworkLayer()
	transport := pkt.TransportLayer()
	if network == nil || transport == nil {
		return 0, tables.Egress
	}

	hash := network.NetworkFlow().FastHash() ^ transport.TransportFlow().FastHash()

	var dstPort uint16
	switch l := transport.(type) {
	case *layers.TCP:
		dstPort = uint16(l.DstPort)
	case *layers.UDP:
		dstPort = uint16(l.DstPort)
	}
	if dstPort == m.serverPort {
		return hash, tables.Ingress
	}
	return hash, tables.Egress
}

func (m *Replayer) work(ctx context.Context, worker *pipeline.Worker, in <-chan batch, out chan<- []capture) error {
	for b := range in {
		front := &dataplane.PacketFront{}
		for idx := range b.packets {
			pkt, err := dataplane.NewPacketFromData(dataplane.PacketData{Payload: b.packets[idx].data})
			if err != nil {
				return fmt.Errorf("failed to create packet: %w", err)
			}
			front.Input.Add(pkt)
		}

		worker.HandlePackets(b.direction, front)

		// Every packet is forwarded, in input order.
		result := make([]capture, 0, front.Output.Count())
		for pkt := front.Output.First(); pkt != nil; pkt = pkt.Next() {
			result = append(result, capture{
				data: pkt.Data().Payload,
				ci:   b.packets[len(result)].ci,
			})
		}

		select {
		case out <- result:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return nil
}

func (m *Replayer) write(in <-chan []capture, sink Sink) error {
	var err error
	for packets := range in {
		if sink == nil || err != nil {
			continue
		}
		for _, c := range packets {
			if err = sink.WritePacket(c.ci, c.data); err != nil {
				err = fmt.Errorf("failed to write packet: %w", err)
				break
			}
		}
	}
	return err
}
