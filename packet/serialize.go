package packet

import (
	"fmt"
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// Serialize encodes the packet as an Ethernet frame. The MAC addresses are
// the ones of the transmitting and receiving interfaces. The payload is zero
// filled.
func (p *Packet) Serialize(srcMAC, dstMAC net.HardwareAddr) ([]byte, error) {
	ethLayer := &layers.Ethernet{
		SrcMAC:       srcMAC,
		DstMAC:       dstMAC,
		EthernetType: layers.EthernetTypeIPv4,
	}
	ipLayer := &layers.IPv4{
		SrcIP:    net.IP(p.Src.AsSlice()),
		DstIP:    net.IP(p.Dst.AsSlice()),
		Version:  4,
		TTL:      64,
		Protocol: layers.IPProtocol(p.Protocol),
	}
	tcpLayer := &layers.TCP{
		SrcPort: layers.TCPPort(p.SrcPort),
		DstPort: layers.TCPPort(p.DstPort),
		Seq:     p.Seq,
		Ack:     p.Ack,
		ACK:     p.Flags&FlagACK != 0,
		PSH:     p.Flags&FlagPSH != 0,
		Window:  65535,
	}

	err := tcpLayer.SetNetworkLayerForChecksum(ipLayer)
	if err != nil {
		return nil, fmt.Errorf("failed to set checksum layer: %w", err)
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{
		ComputeChecksums: true,
		FixLengths:       true,
	}

	err = gopacket.SerializeLayers(buf, opts,
		ethLayer, ipLayer, tcpLayer,
		gopacket.Payload(make([]byte, p.PayloadSize)))
	if err != nil {
		return nil, fmt.Errorf("failed to serialize %s: %w", p, err)
	}

	return buf.Bytes(), nil
}
