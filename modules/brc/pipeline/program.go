package pipeline

import (
	"fmt"

	"github.com/yanet-platform/brc/common/go/dataplane"
)

// MaxChainDepth is the largest number of programs a single packet can pass
// through, entry program included.
const MaxChainDepth = 33

// ProgramID is an index into the dispatch table.
type ProgramID uint32

const (
	ProgRequestClassifier ProgramID = iota
	ProgKeyHasher
	ProgResponseSynthesizer
	ProgWriteReply
	ProgMaintainTcp
	ProgInvalidator
	ProgResponseClassifier
	ProgCacheUpdater
)

func (m ProgramID) String() string {
	switch m {
	case ProgRequestClassifier:
		return "request_classifier"
	case ProgKeyHasher:
		return "key_hasher"
	case ProgResponseSynthesizer:
		return "response_synthesizer"
	case ProgWriteReply:
		return "write_reply"
	case ProgMaintainTcp:
		return "maintain_tcp"
	case ProgInvalidator:
		return "invalidator"
	case ProgResponseClassifier:
		return "response_classifier"
	case ProgCacheUpdater:
		return "cache_updater"
	default:
		return fmt.Sprintf("program(%d)", uint32(m))
	}
}

// Action is what a program asks for once it is done with a packet: either
// pass it on to normal processing or hand it to another program.
type Action struct {
	next     ProgramID
	tailCall bool
}

// Pass ends the chain, the packet continues unmodified.
func Pass() Action {
	return Action{}
}

// TailCall hands the packet to another program of the dispatch table.
func TailCall(id ProgramID) Action {
	return Action{next: id, tailCall: true}
}

// Program is a single stage of the chain.
//
// Programs run to completion without blocking. State is passed to the next
// program only through the shared tables reachable from the context.
type Program interface {
	Run(ctx *Context, pkt *dataplane.Packet) Action
}

// ProgramFunc adapts a function to the Program interface.
type ProgramFunc func(ctx *Context, pkt *dataplane.Packet) Action

func (m ProgramFunc) Run(ctx *Context, pkt *dataplane.Packet) Action {
	return m(ctx, pkt)
}

// DispatchTable maps program IDs to programs and runs chains across them.
type DispatchTable struct {
	programs [MaxChainDepth]Program
}

func NewDispatchTable() *DispatchTable {
	return &DispatchTable{}
}

// Register installs a program under the given ID, replacing the previous one.
func (m *DispatchTable) Register(id ProgramID, program Program) error {
	if id >= MaxChainDepth {
		return fmt.Errorf("program ID %d is out of range: must be less than %d", id, MaxChainDepth)
	}

	m.programs[id] = program
	return nil
}

// Lookup returns the program registered under id, or nil.
func (m *DispatchTable) Lookup(id ProgramID) Program {
	if id >= MaxChainDepth {
		return nil
	}
	return m.programs[id]
}

// Run passes the packet through the chain starting at entry.
//
// The chain ends when a program passes the packet, tail-calls an empty slot
// or the depth limit is reached. In every case the packet continues
// unmodified.
func (m *DispatchTable) Run(ctx *Context, entry ProgramID, pkt *dataplane.Packet) {
	ctx.chain.reset()

	id := entry
	for depth := 0; depth < MaxChainDepth; depth++ {
		program := m.Lookup(id)
		if program == nil {
			return
		}

		ctx.chain.push(id)
		action := program.Run(ctx, pkt)
		if !action.tailCall {
			return
		}
		id = action.next
	}

	ctx.chain.truncated = true
	ctx.log.Debugw("chain depth limit reached",
		"core", ctx.core,
		"direction", ctx.direction,
		"entry", entry,
	)
}

// Chain records the programs a packet went through.
type Chain struct {
	ids       [MaxChainDepth]ProgramID
	count     int
	truncated bool
}

func (m *Chain) reset() {
	m.count = 0
	m.truncated = false
}

func (m *Chain) push(id ProgramID) {
	if m.count < len(m.ids) {
		m.ids[m.count] = id
		m.count++
	}
}

// IDs returns the programs run, in order.
func (m Chain) IDs() []ProgramID {
	return append([]ProgramID(nil), m.ids[:m.count]...)
}

// Truncated reports whether the chain hit the depth limit.
func (m Chain) Truncated() bool {
	return m.truncated
}
