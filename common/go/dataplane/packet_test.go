package dataplane

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPacketFromData_Empty(t *testing.T) {
	_, err := NewPacketFromData(PacketData{})
	assert.ErrorIs(t, err, ErrEmptyPacket)
}

func TestPacket_Pull(t *testing.T) {
	data := []byte("0123456789")

	pkt, err := NewPacketFromData(PacketData{Payload: data}, WithResident(4), WithPullLimit(8))
	require.NoError(t, err)
	assert.Equal(t, 10, pkt.Len())
	assert.Equal(t, 4, pkt.Resident())

	assert.True(t, pkt.Pull(2))
	assert.Equal(t, 4, pkt.Resident())

	assert.True(t, pkt.Pull(6))
	assert.Equal(t, 6, pkt.Resident())

	assert.False(t, pkt.Pull(9))
	assert.Equal(t, 6, pkt.Resident())
}

func TestPacket_Ensure(t *testing.T) {
	pkt, err := NewPacketFromData(PacketData{Payload: []byte("0123456789")}, WithResident(2))
	require.NoError(t, err)

	b, ok := pkt.Ensure(5, 3)
	require.True(t, ok)
	assert.Equal(t, []byte("567"), b)
	assert.Equal(t, 8, pkt.Resident())

	_, ok = pkt.Ensure(8, 3)
	assert.False(t, ok)
	_, ok = pkt.Ensure(-1, 1)
	assert.False(t, ok)

	// The resident region never exceeds the pull limit.
	pkt, err = NewPacketFromData(PacketData{Payload: []byte("0123456789")}, WithResident(10), WithPullLimit(3))
	require.NoError(t, err)
	assert.Equal(t, 3, pkt.Resident())
}

func TestPacketList(t *testing.T) {
	list, err := NewPacketListFromData(
		PacketData{Payload: []byte{1}},
		PacketData{Payload: []byte{2}},
		PacketData{Payload: []byte{3}},
	)
	require.NoError(t, err)
	assert.Equal(t, 3, list.Count())

	first := list.Pop()
	require.NotNil(t, first)
	assert.Equal(t, []byte{1}, first.Data().Payload)
	assert.Nil(t, first.Next())
	assert.Equal(t, 2, list.Count())

	data := list.Data()
	require.Len(t, data, 2)
	assert.Equal(t, []byte{2}, data[0].Payload)

	list.Add(first)
	assert.Equal(t, []byte{1}, list.Data()[2].Payload)

	for list.Pop() != nil {
	}
	assert.Zero(t, list.Count())
	assert.Nil(t, list.First())

	_, err = NewPacketListFromData(PacketData{Payload: []byte{1}}, PacketData{})
	assert.ErrorIs(t, err, ErrEmptyPacket)
}

func TestPacketFront_Payload(t *testing.T) {
	front, err := NewPacketFrontFromPayload([][]byte{{1}, {2}})
	require.NoError(t, err)

	front.Output.Add(front.Input.Pop())

	payload := front.Payload()
	assert.Equal(t, [][]byte{{1}}, payload.Output)
	assert.Equal(t, [][]byte{{2}}, payload.Input)
}
