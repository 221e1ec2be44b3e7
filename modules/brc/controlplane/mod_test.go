package brc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/yanet-platform/brc/common/go/dataplane"
	"github.com/yanet-platform/brc/common/go/xpacket"
	"github.com/yanet-platform/brc/modules/brc/pipeline"
	"github.com/yanet-platform/brc/modules/brc/tables"
)

func newTestModule(t *testing.T) *BrcModule {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Workers = 2
	cfg.Cache.Entries = 1024

	m, err := NewBrcModule(cfg, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	return m
}

func handle(t *testing.T, w *pipeline.Worker, direction tables.Direction, frame []byte) {
	t.Helper()

	pkt, err := dataplane.NewPacketFromData(dataplane.PacketData{Payload: frame})
	require.NoError(t, err)
	w.Handle(direction, pkt)
}

func TestBrcModule_Operations(t *testing.T) {
	m := newTestModule(t)
	assert.Equal(t, "brc", m.Name())
	assert.Equal(t, tables.UpdatePolicyFillOnce, m.Dataplane().Tables().Cache.Policy())

	workers := m.Dataplane().Workers()
	require.Len(t, workers, 2)

	flow := xpacket.DefaultFlow(6379)
	handle(t, workers[0], tables.Ingress, flow.ToServer(t, xpacket.GetCommand("foo")).Data())
	handle(t, workers[1], tables.Egress, flow.ToClient(t, xpacket.BulkString([]byte("bar"))).Data())
	handle(t, workers[0], tables.Ingress, flow.ToServer(t, xpacket.GetCommand("user:1")).Data())

	stats := m.Stats()
	assert.EqualValues(t, 2, stats.MissCount)
	assert.EqualValues(t, 1, stats.UpdateCount)

	core0, err := m.CoreStats(0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, core0.MissCount)
	assert.Zero(t, core0.UpdateCount)

	core1, err := m.CoreStats(1)
	require.NoError(t, err)
	assert.EqualValues(t, 1, core1.UpdateCount)

	_, err = m.CoreStats(2)
	assert.Error(t, err)

	entries := m.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "foo", string(entries[0].Key))
	assert.Equal(t, "bar", string(entries[0].Data))

	assert.EqualValues(t, 1, m.PendingLen())
	m.ResetQueue()
	assert.Zero(t, m.PendingLen())

	assert.False(t, m.Invalidate([]byte("user:1")))
	assert.True(t, m.Invalidate([]byte("foo")))
	assert.Empty(t, m.Entries())

	m.ResetStats()
	assert.Equal(t, tables.Stats{}, m.Stats())
}

func TestBrcModule_ResetCache(t *testing.T) {
	m := newTestModule(t)
	w := m.Dataplane().Worker(0)
	require.NotNil(t, w)

	flow := xpacket.DefaultFlow(6379)
	for _, key := range []string{"a", "b", "c"} {
		handle(t, w, tables.Ingress, flow.ToServer(t, xpacket.GetCommand(key)).Data())
	}
	for _, value := range []string{"1", "2", "3"} {
		handle(t, w, tables.Egress, flow.ToClient(t, xpacket.BulkString([]byte(value))).Data())
	}
	require.Len(t, m.Entries(), 3)

	m.ResetCache()
	assert.Empty(t, m.Entries())

	// Entries can be filled again after a reset.
	handle(t, w, tables.Ingress, flow.ToServer(t, xpacket.GetCommand("a")).Data())
	handle(t, w, tables.Egress, flow.ToClient(t, xpacket.BulkString([]byte("4"))).Data())

	entries := m.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "4", string(entries[0].Data))
}

func TestNewBrcModule_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Cache.DenyKeys = []string{"["}

	_, err := NewBrcModule(cfg, zaptest.NewLogger(t).Sugar())
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.Workers = 0
	_, err = NewBrcModule(cfg, zaptest.NewLogger(t).Sugar())
	assert.Error(t, err)
}
