package tables

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestStatsSumAndReset(t *testing.T) {
	table := NewStatsTable(3)
	require.Nil(t, table.Lookup(3))

	table.Lookup(0).GetRecvCount.Add(2)
	table.Lookup(0).MissCount.Add(1)
	table.Lookup(2).GetRecvCount.Add(5)
	table.Lookup(2).UpdateCount.Add(1)
	table.Lookup(1).NilReplyCount.Add(4)

	expected := Stats{
		GetRecvCount:  7,
		MissCount:     1,
		UpdateCount:   1,
		NilReplyCount: 4,
	}
	require.Empty(t, cmp.Diff(expected, table.Sum()))

	table.Reset()
	require.Empty(t, cmp.Diff(Stats{}, table.Sum()))
}

func TestParsingContextLookup(t *testing.T) {
	table := NewParsingContextTable(2)

	ingress := table.Lookup(1, Ingress)
	egress := table.Lookup(1, Egress)
	require.NotNil(t, ingress)
	require.NotNil(t, egress)
	require.NotSame(t, ingress, egress)
	require.NotSame(t, ingress, table.Lookup(0, Ingress))

	ingress.ValueSize = 3
	require.Equal(t, uint32(3), table.Lookup(1, Ingress).ValueSize)

	require.Nil(t, table.Lookup(2, Ingress))
	require.Nil(t, table.Lookup(0, Direction(7)))
}

func TestNewTablesValidates(t *testing.T) {
	_, err := New(Config{Cores: 0, CacheEntries: 1, MaxKeyLength: 1, QueueSize: 1})
	require.Error(t, err)

	_, err = New(Config{Cores: 1, CacheEntries: 0, MaxKeyLength: 1, QueueSize: 1})
	require.Error(t, err)

	_, err = New(Config{Cores: 1, CacheEntries: 1, MaxKeyLength: 1, QueueSize: 0})
	require.Error(t, err)

	tables, err := New(Config{Cores: 2, CacheEntries: 4, MaxKeyLength: 8, MaxValueSize: 8, QueueSize: 4})
	require.NoError(t, err)
	require.Equal(t, uint32(4), tables.Cache.Len())
	require.Equal(t, uint32(4), tables.Pending.Cap())
	require.Equal(t, uint32(2), tables.Stats.Cores())
}
