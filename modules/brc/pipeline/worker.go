package pipeline

import (
	"github.com/yanet-platform/brc/common/go/dataplane"
	"github.com/yanet-platform/brc/modules/brc/tables"
)

// Worker is a single execution core.
//
// It runs the chain of every packet to completion before it starts the next
// one. A Worker is not safe for concurrent use: run one goroutine per worker.
type Worker struct {
	ctx      Context
	dispatch *DispatchTable
}

func newWorker(core uint32, dispatch *DispatchTable, t *tables.Tables, dp *Dataplane) *Worker {
	return &Worker{
		ctx:      newContext(core, t, dp.log.With("core", core)),
		dispatch: dispatch,
	}
}

// Core returns the core index of this worker.
func (m *Worker) Core() uint32 {
	return m.ctx.core
}

// Ingress runs the ingress hook on a packet received from a client.
func (m *Worker) Ingress(pkt *dataplane.Packet) {
	m.Handle(tables.Ingress, pkt)
}

// Egress runs the egress hook on a packet sent by the server.
func (m *Worker) Egress(pkt *dataplane.Packet) {
	m.Handle(tables.Egress, pkt)
}

// Handle runs the hook of the given direction on a packet.
//
// The packet always continues unmodified: the cache never drops traffic.
func (m *Worker) Handle(direction tables.Direction, pkt *dataplane.Packet) {
	entry := ProgRequestClassifier
	if direction == tables.Egress {
		entry = ProgResponseClassifier
	}

	m.ctx.direction = direction
	m.dispatch.Run(&m.ctx, entry, pkt)
}

// HandlePackets runs the hook of the given direction on every input packet
// of the front, moving them to the output list.
func (m *Worker) HandlePackets(direction tables.Direction, front *dataplane.PacketFront) {
	for pkt := front.Input.Pop(); pkt != nil; pkt = front.Input.Pop() {
		m.Handle(direction, pkt)
		front.Output.Add(pkt)
	}
}

// LastChain returns the programs the last handled packet went through.
func (m *Worker) LastChain() Chain {
	return m.ctx.chain
}
