package dataplane

import (
	"errors"
	"fmt"

	"github.com/gopacket/gopacket"
)

type PacketData struct {
	Payload []uint8
}

func PacketsData(packets ...gopacket.Packet) []PacketData {
	payload := make([]PacketData, 0, len(packets))
	for idx := range packets {
		payload = append(payload, PacketData{Payload: packets[idx].Data()})
	}
	return payload
}

////////////////////////////////////////////////////////////////////////////////

var ErrEmptyPacket = errors.New("empty packet")

// Packet is a frame travelling through a stage chain.
//
// Only the first Resident() bytes of the frame are directly readable, the
// rest is considered to live in non-linear buffer fragments. Stages must
// range-check every access against the resident region and call Pull to
// materialize more bytes, which may fail.
type Packet struct {
	data      []byte
	resident  int
	pullLimit int
	next      *Packet
}

// PacketOption tunes the buffer layout of a new packet.
type PacketOption func(*Packet)

// WithResident limits the initially resident region to n bytes.
func WithResident(n int) PacketOption {
	return func(p *Packet) {
		p.resident = max(0, min(n, len(p.data)))
	}
}

// WithPullLimit limits how far Pull can extend the resident region.
func WithPullLimit(n int) PacketOption {
	return func(p *Packet) {
		p.pullLimit = max(0, min(n, len(p.data)))
	}
}

func NewPacketFromData(data PacketData, options ...PacketOption) (*Packet, error) {
	if len(data.Payload) == 0 {
		return nil, ErrEmptyPacket
	}

	packet := &Packet{
		data:      data.Payload,
		resident:  len(data.Payload),
		pullLimit: len(data.Payload),
	}
	for _, o := range options {
		o(packet)
	}
	packet.resident = min(packet.resident, packet.pullLimit)

	return packet, nil
}

func (packet *Packet) Data() PacketData {
	return PacketData{Payload: packet.data}
}

// Len returns the full frame length, resident or not.
func (packet *Packet) Len() int {
	return len(packet.data)
}

// Resident returns the length of the directly readable region.
func (packet *Packet) Resident() int {
	return packet.resident
}

// Pull makes the first n bytes of the frame resident.
//
// Returns false if the frame is shorter than n bytes or the buffer cannot be
// linearized that far. A failed pull leaves the resident region unchanged.
func (packet *Packet) Pull(n int) bool {
	if n <= packet.resident {
		return true
	}
	if n > packet.pullLimit {
		return false
	}

	packet.resident = n
	return true
}

// Ensure returns the n bytes starting at off, pulling them in if needed.
func (packet *Packet) Ensure(off int, n int) ([]byte, bool) {
	if off < 0 || n < 0 {
		return nil, false
	}

	end := off + n
	if end > packet.resident {
		packet.Pull(end)
	}
	if end > packet.resident {
		return nil, false
	}

	return packet.data[off:end], true
}

func (packet *Packet) Next() *Packet {
	return packet.next
}

////////////////////////////////////////////////////////////////////////////////

// PacketList is a singly linked list of packets.
type PacketList struct {
	first *Packet
	last  *Packet
	count int
}

func (packetList *PacketList) First() *Packet {
	return packetList.first
}

func (packetList *PacketList) Count() int {
	return packetList.count
}

func (packetList *PacketList) Add(packet *Packet) {
	packet.next = nil
	if packetList.last == nil {
		packetList.first = packet
	} else {
		packetList.last.next = packet
	}
	packetList.last = packet
	packetList.count++
}

// Pop detaches the first packet of the list.
func (packetList *PacketList) Pop() *Packet {
	packet := packetList.first
	if packet == nil {
		return nil
	}

	packetList.first = packet.next
	if packetList.first == nil {
		packetList.last = nil
	}
	packetList.count--
	packet.next = nil

	return packet
}

func (packetList *PacketList) Data() []PacketData {
	data := make([]PacketData, 0, packetList.count)
	for packet := packetList.first; packet != nil; packet = packet.next {
		data = append(data, packet.Data())
	}
	return data
}

func NewPacketListFromPackets(packets ...gopacket.Packet) (*PacketList, error) {
	return NewPacketListFromData(PacketsData(packets...)...)
}

func NewPacketListFromData(data ...PacketData) (*PacketList, error) {
	packetList := &PacketList{}
	for idx := range data {
		packet, err := NewPacketFromData(data[idx])
		if err != nil {
			return nil, fmt.Errorf("failed to create new packet from data[%d]: %w", idx, err)
		}
		packetList.Add(packet)
	}
	return packetList, nil
}

////////////////////////////////////////////////////////////////////////////////

// PacketFront is a batch of packets handed to a worker. Handled packets move
// from the input list to the output list.
type PacketFront struct {
	Input  PacketList
	Output PacketList
}

type PacketFrontPayload struct {
	Output [][]byte
	Input  [][]byte
}

func (pf *PacketFront) Payload() PacketFrontPayload {
	raw := func(data []PacketData) [][]byte {
		result := make([][]byte, 0, len(data))
		for idx := range data {
			result = append(result, data[idx].Payload)
		}
		return result
	}
	return PacketFrontPayload{
		Output: raw(pf.Output.Data()),
		Input:  raw(pf.Input.Data()),
	}
}

func NewPacketFrontFromPackets(packets ...gopacket.Packet) (*PacketFront, error) {
	packetList, err := NewPacketListFromPackets(packets...)
	if err != nil {
		return nil, fmt.Errorf("failed to create packet list: %w", err)
	}
	return &PacketFront{Input: *packetList}, nil
}

func NewPacketFrontFromPayload(payload [][]byte) (*PacketFront, error) {
	packets := make([]PacketData, 0, len(payload))
	for idx := range payload {
		packets = append(packets, PacketData{Payload: payload[idx]})
	}
	packetList, err := NewPacketListFromData(packets...)
	if err != nil {
		return nil, fmt.Errorf("failed to create new packet list: %w", err)
	}
	return &PacketFront{Input: *packetList}, nil
}
