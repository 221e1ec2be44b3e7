package pipeline

import (
	"github.com/gobwas/glob"

	"github.com/yanet-platform/brc/common/go/dataplane"
	"github.com/yanet-platform/brc/modules/brc/tables"
)

// ResponseClassifier is the egress entry program.
//
// It recognizes bulk replies sent from the server port. A nil reply only
// consumes the pending key it answers. A complete value that fits the cache
// is located and handed to CacheUpdater. Anything else leaves the pending
// key queue untouched.
type ResponseClassifier struct {
	serverPort      uint16
	maxPacketLength uint32
}

func (m *ResponseClassifier) Run(ctx *Context, pkt *dataplane.Packet) Action {
	hdr := &ctx.hdr
	if !hdr.parse(pkt) || hdr.srcPort != m.serverPort || !hdr.isTCP() {
		return Pass()
	}

	p := hdr.payload(pkt, m.maxPacketLength)
	if marker, ok := p.at(0); !ok || marker != bulkMarker {
		return Pass()
	}

	stats := ctx.Stats()
	pctx := ctx.ParsingContext()
	if stats == nil || pctx == nil {
		return Pass()
	}

	b, ok := p.at(1)
	if !ok {
		return Pass()
	}
	if b == nilMarker {
		if err := ctx.tables.Pending.Pop(nil); err != nil {
			stats.CorrelationUnderrun.Add(1)
		} else {
			stats.NilReplyCount.Add(1)
		}
		return Pass()
	}

	size, next, over := scanLength(p, 1, ctx.tables.Cache.MaxValueSize())
	if over {
		stats.BigValuePassToUser.Add(1)
		return Pass()
	}
	if next == 1 || !hasTerminator(p, next) {
		return Pass()
	}

	start := next + 2
	if _, ok := p.slice(start, int(size)); !ok {
		// The value spans several segments.
		return Pass()
	}

	pctx.ValueSize = size
	pctx.ReadOffset = uint16(start)
	stats.TryUpdate.Add(1)

	return TailCall(ProgCacheUpdater)
}

// CacheUpdater installs the value located by ResponseClassifier under the key
// at the head of the pending key queue.
type CacheUpdater struct {
	maxPacketLength uint32
	deny            []glob.Glob
}

func (m *CacheUpdater) Run(ctx *Context, pkt *dataplane.Packet) Action {
	if !ctx.hdr.parse(pkt) {
		return Pass()
	}

	stats := ctx.Stats()
	pctx := ctx.ParsingContext()
	if stats == nil || pctx == nil {
		return Pass()
	}

	cache := ctx.tables.Cache
	if pctx.ValueSize > cache.MaxValueSize() || uint32(pctx.ReadOffset) > m.maxPacketLength {
		return Pass()
	}

	p := ctx.hdr.payload(pkt, m.maxPacketLength)
	value, ok := p.slice(int(pctx.ReadOffset), int(pctx.ValueSize))
	if !ok {
		return Pass()
	}

	pending := &ctx.pending
	if err := ctx.tables.Pending.Pop(pending); err != nil {
		stats.CorrelationUnderrun.Add(1)
		return Pass()
	}

	key := pending.Bytes()
	if m.denied(key) {
		stats.AdmissionDenied.Add(1)
		return Pass()
	}

	// The hash carried by the queue is not trusted.
	hash := tables.Hash(key)
	switch cache.Fill(hash, key, value) {
	case tables.FillInstalled:
		stats.UpdateCount.Add(1)
	case tables.FillOccupied, tables.FillTooLarge:
		ctx.log.Debugw("reply is not cached",
			"core", ctx.core,
			"slot", cache.Slot(hash),
			"key_len", len(key),
			"value_len", len(value),
		)
	}

	return Pass()
}

func (m *CacheUpdater) denied(key []byte) bool {
	if len(m.deny) == 0 {
		return false
	}

	k := string(key)
	for _, g := range m.deny {
		if g.Match(k) {
			return true
		}
	}
	return false
}
