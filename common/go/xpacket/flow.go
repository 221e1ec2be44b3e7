package xpacket

import (
	"net"
	"testing"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"
)

// Flow describes a client-server TCP conversation used to build test frames.
type Flow struct {
	ClientMAC  net.HardwareAddr
	ServerMAC  net.HardwareAddr
	ClientIP   net.IP
	ServerIP   net.IP
	ClientPort uint16
	ServerPort uint16
}

// DefaultFlow returns an IPv4 flow from an ephemeral client port to port.
func DefaultFlow(port uint16) Flow {
	return Flow{
		ClientMAC:  net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55},
		ServerMAC:  net.HardwareAddr{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff},
		ClientIP:   net.IP{192, 168, 1, 10},
		ServerIP:   net.IP{192, 168, 1, 20},
		ClientPort: 41000,
		ServerPort: port,
	}
}

// ToServer builds a client-to-server TCP frame carrying payload.
func (m Flow) ToServer(t *testing.T, payload []byte) gopacket.Packet {
	return LayersToPacket(t, m.tcpLayers(true, payload)...)
}

// ToClient builds a server-to-client TCP frame carrying payload.
func (m Flow) ToClient(t *testing.T, payload []byte) gopacket.Packet {
	return LayersToPacket(t, m.tcpLayers(false, payload)...)
}

// UDPToServer builds a client-to-server UDP datagram carrying payload.
func (m Flow) UDPToServer(t *testing.T, payload []byte) gopacket.Packet {
	eth, ip := m.network(true, layers.IPProtocolUDP)
	udp := &layers.UDP{
		SrcPort: layers.UDPPort(m.ClientPort),
		DstPort: layers.UDPPort(m.ServerPort),
	}
	udp.SetNetworkLayerForChecksum(ip)

	return LayersToPacket(t, eth, ip, udp, gopacket.Payload(payload))
}

func (m Flow) network(toServer bool, proto layers.IPProtocol) (*layers.Ethernet, *layers.IPv4) {
	eth := &layers.Ethernet{
		SrcMAC:       m.ClientMAC,
		DstMAC:       m.ServerMAC,
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		Version:  4,
		IHL:      5,
		TTL:      64,
		Protocol: proto,
		SrcIP:    m.ClientIP,
		DstIP:    m.ServerIP,
	}
	if !toServer {
		eth.SrcMAC, eth.DstMAC = eth.DstMAC, eth.SrcMAC
		ip.SrcIP, ip.DstIP = ip.DstIP, ip.SrcIP
	}
	return eth, ip
}

func (m Flow) tcpLayers(toServer bool, payload []byte) []gopacket.SerializableLayer {
	eth, ip := m.network(toServer, layers.IPProtocolTCP)
	tcp := &layers.TCP{
		SrcPort: layers.TCPPort(m.ClientPort),
		DstPort: layers.TCPPort(m.ServerPort),
		ACK:     true,
		PSH:     len(payload) > 0,
		Seq:     1105024978,
		Ack:     2087360501,
		Window:  14600,
	}
	if !toServer {
		tcp.SrcPort, tcp.DstPort = tcp.DstPort, tcp.SrcPort
		tcp.Seq, tcp.Ack = tcp.Ack, tcp.Seq
	}
	tcp.SetNetworkLayerForChecksum(ip)

	return []gopacket.SerializableLayer{eth, ip, tcp, gopacket.Payload(payload)}
}
