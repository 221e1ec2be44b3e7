package pipeline

import (
	"encoding/binary"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"

	"github.com/yanet-platform/brc/common/go/dataplane"
)

const (
	ethHeaderLen     = 14
	dot1qHeaderLen   = 4
	ipv4MinHeaderLen = 20
	ipv6HeaderLen    = 40
	tcpMinHeaderLen  = 20
	udpHeaderLen     = 8
)

// headers holds the decoded L2-L4 headers of the current packet.
//
// Each header is materialized with an explicit range check before it is
// decoded. Only unfragmented IPv4 and IPv6 without extension headers are
// recognized, carrying TCP or UDP, behind at most one VLAN tag.
type headers struct {
	eth   layers.Ethernet
	dot1q layers.Dot1Q
	ip4   layers.IPv4
	ip6   layers.IPv6
	tcp   layers.TCP
	udp   layers.UDP

	proto   layers.IPProtocol
	srcPort uint16
	dstPort uint16

	// Payload bounds, as frame offsets. The end is taken from the IP length,
	// so Ethernet padding is never part of the payload.
	payloadOff int
	payloadEnd int
}

func (m *headers) parse(pkt *dataplane.Packet) bool {
	hdr, ok := pkt.Ensure(0, ethHeaderLen)
	if !ok {
		return false
	}
	if err := m.eth.DecodeFromBytes(hdr, gopacket.NilDecodeFeedback); err != nil {
		return false
	}

	off := ethHeaderLen
	etherType := m.eth.EthernetType
	if etherType == layers.EthernetTypeDot1Q {
		hdr, ok := pkt.Ensure(off, dot1qHeaderLen)
		if !ok {
			return false
		}
		if err := m.dot1q.DecodeFromBytes(hdr, gopacket.NilDecodeFeedback); err != nil {
			return false
		}
		etherType = m.dot1q.Type
		off += dot1qHeaderLen
	}

	ipEnd := 0
	switch etherType {
	case layers.EthernetTypeIPv4:
		hdr, ok := pkt.Ensure(off, ipv4MinHeaderLen)
		if !ok {
			return false
		}
		headerLen := int(hdr[0]&0x0f) * 4
		if headerLen < ipv4MinHeaderLen {
			return false
		}
		totalLen := int(binary.BigEndian.Uint16(hdr[2:4]))
		if hdr, ok = pkt.Ensure(off, headerLen); !ok {
			return false
		}
		if err := m.ip4.DecodeFromBytes(hdr, gopacket.NilDecodeFeedback); err != nil {
			return false
		}
		if m.ip4.Flags&layers.IPv4MoreFragments != 0 || m.ip4.FragOffset != 0 {
			return false
		}

		m.proto = m.ip4.Protocol
		ipEnd = off + totalLen
		if totalLen == 0 {
			// Segmentation offload leaves the length unset.
			ipEnd = pkt.Len()
		}
		off += headerLen
	case layers.EthernetTypeIPv6:
		hdr, ok := pkt.Ensure(off, ipv6HeaderLen)
		if !ok {
			return false
		}
		if err := m.ip6.DecodeFromBytes(hdr, gopacket.NilDecodeFeedback); err != nil {
			return false
		}

		m.proto = m.ip6.NextHeader
		ipEnd = off + ipv6HeaderLen + int(m.ip6.Length)
		off += ipv6HeaderLen
	default:
		return false
	}
	ipEnd = min(ipEnd, pkt.Len())

	switch m.proto {
	case layers.IPProtocolTCP:
		hdr, ok := pkt.Ensure(off, tcpMinHeaderLen)
		if !ok {
			return false
		}
		headerLen := int(hdr[12]>>4) * 4
		if headerLen < tcpMinHeaderLen {
			return false
		}
		if hdr, ok = pkt.Ensure(off, headerLen); !ok {
			return false
		}
		if err := m.tcp.DecodeFromBytes(hdr, gopacket.NilDecodeFeedback); err != nil {
			return false
		}

		m.srcPort = uint16(m.tcp.SrcPort)
		m.dstPort = uint16(m.tcp.DstPort)
		off += headerLen
	case layers.IPProtocolUDP:
		hdr, ok := pkt.Ensure(off, udpHeaderLen)
		if !ok {
			return false
		}
		if err := m.udp.DecodeFromBytes(hdr, gopacket.NilDecodeFeedback); err != nil {
			return false
		}

		m.srcPort = uint16(m.udp.SrcPort)
		m.dstPort = uint16(m.udp.DstPort)
		off += udpHeaderLen
	default:
		return false
	}

	if off > ipEnd {
		return false
	}

	m.payloadOff = off
	m.payloadEnd = ipEnd
	return true
}

func (m *headers) isTCP() bool {
	return m.proto == layers.IPProtocolTCP
}

// payload returns a range-checked view of the L4 payload, truncated to
// maxLen bytes.
func (m *headers) payload(pkt *dataplane.Packet, maxLen uint32) payload {
	return payload{
		pkt: pkt,
		off: m.payloadOff,
		len: min(m.payloadEnd-m.payloadOff, int(maxLen)),
	}
}

// payload is a view of the L4 payload. Every access is checked against the
// payload length and materialized from the packet on demand.
type payload struct {
	pkt *dataplane.Packet
	off int
	len int
}

func (m payload) empty() bool {
	return m.len <= 0
}

func (m payload) at(idx int) (byte, bool) {
	if idx < 0 || idx >= m.len {
		return 0, false
	}

	b, ok := m.pkt.Ensure(m.off+idx, 1)
	if !ok {
		return 0, false
	}
	return b[0], true
}

func (m payload) slice(idx int, n int) ([]byte, bool) {
	if idx < 0 || n < 0 || idx+n > m.len {
		return nil, false
	}

	return m.pkt.Ensure(m.off+idx, n)
}
