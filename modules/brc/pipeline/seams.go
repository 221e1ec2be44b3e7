package pipeline

import (
	"github.com/yanet-platform/brc/common/go/dataplane"
)

// The hit path is a chain of placeholders: the request is forwarded to the
// server unchanged and the reply comes from there. The cached value is
// reachable with CacheTable.Get and the request headers are in the packet.

// ResponseSynthesizer receives requests whose key is cached.
type ResponseSynthesizer struct{}

func (m *ResponseSynthesizer) Run(ctx *Context, pkt *dataplane.Packet) Action {
	return TailCall(ProgWriteReply)
}

// WriteReply receives hit requests after the reply has been synthesized.
type WriteReply struct{}

func (m *WriteReply) Run(ctx *Context, pkt *dataplane.Packet) Action {
	return TailCall(ProgMaintainTcp)
}

// MaintainTcp receives hit requests after the reply has been written.
type MaintainTcp struct{}

func (m *MaintainTcp) Run(ctx *Context, pkt *dataplane.Packet) Action {
	return Pass()
}
