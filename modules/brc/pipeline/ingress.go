package pipeline

import (
	"errors"

	"github.com/yanet-platform/brc/common/go/dataplane"
	"github.com/yanet-platform/brc/modules/brc/tables"
)

// RequestClassifier is the ingress entry program.
//
// It recognizes GET requests sent to the server port, extracts the key length
// and hands the packet to KeyHasher. Any other non-empty TCP payload sent to
// the server port goes to Invalidator.
type RequestClassifier struct {
	serverPort      uint16
	maxPacketLength uint32
}

func (m *RequestClassifier) Run(ctx *Context, pkt *dataplane.Packet) Action {
	hdr := &ctx.hdr
	if !hdr.parse(pkt) || hdr.dstPort != m.serverPort || !hdr.isTCP() {
		return Pass()
	}

	p := hdr.payload(pkt, m.maxPacketLength)
	if p.empty() {
		return Pass()
	}
	if !isGetRequest(p) {
		return TailCall(ProgInvalidator)
	}

	stats := ctx.Stats()
	pctx := ctx.ParsingContext()
	if stats == nil || pctx == nil {
		return Pass()
	}
	stats.GetRecvCount.Add(1)

	marker, ok := p.at(keyLengthMarkerOff)
	if !ok || marker != bulkMarker {
		return Pass()
	}

	keyLen, next, over := scanLength(p, keyLengthMarkerOff+1, ctx.tables.Cache.MaxKeyLength())
	if over {
		stats.BigKeyPassToUser.Add(1)
		return Pass()
	}
	if next == keyLengthMarkerOff+1 {
		return Pass()
	}

	pctx.ValueSize = keyLen
	pctx.ReadOffset = uint16(next)

	return TailCall(ProgKeyHasher)
}

// KeyHasher hashes the key located by RequestClassifier and probes the cache.
//
// Every GET that gets this far is forwarded to the server, hit or miss, so
// its key is queued for the reply to be correlated with.
type KeyHasher struct {
	maxPacketLength uint32
}

func (m *KeyHasher) Run(ctx *Context, pkt *dataplane.Packet) Action {
	if !ctx.hdr.parse(pkt) {
		return Pass()
	}

	stats := ctx.Stats()
	pctx := ctx.ParsingContext()
	if stats == nil || pctx == nil {
		return Pass()
	}

	cache := ctx.tables.Cache
	if pctx.ValueSize > cache.MaxKeyLength() || uint32(pctx.ReadOffset) > m.maxPacketLength {
		return Pass()
	}

	p := ctx.hdr.payload(pkt, m.maxPacketLength)
	off := int(pctx.ReadOffset)
	if !hasTerminator(p, off) {
		return Pass()
	}
	key, ok := p.slice(off+2, int(pctx.ValueSize))
	if !ok {
		return Pass()
	}

	hash := tables.Hash(key)
	hit := cache.Lookup(hash, key)
	if hit {
		stats.HitCount.Add(1)
	} else {
		stats.MissCount.Add(1)
	}

	if err := ctx.tables.Pending.Push(hash, key); err != nil {
		if errors.Is(err, tables.ErrQueueFull) {
			stats.QueueOverflow.Add(1)
		}
		ctx.log.Debugw("failed to queue pending key",
			"core", ctx.core,
			"hash", hash,
			"error", err,
		)
	}

	if hit {
		return TailCall(ProgResponseSynthesizer)
	}
	return Pass()
}

// Invalidator receives every non-GET request sent to the server port.
//
// Requests are only counted, cached entries are left intact.
type Invalidator struct{}

func (m *Invalidator) Run(ctx *Context, pkt *dataplane.Packet) Action {
	if stats := ctx.Stats(); stats != nil {
		stats.InvalidateRequests.Add(1)
	}
	return Pass()
}
