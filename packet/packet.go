// Package packet defines the IPv4/TCP packets exchanged by the reference
// network stack.
package packet

import (
	"fmt"
	"net/netip"
	"sync/atomic"
)

// Header sizes, in bytes.
const (
	IPv4HeaderSize = 20
	TCPHeaderSize  = 20
)

// ProtocolTCP is the IANA protocol number of TCP.
const ProtocolTCP uint8 = 6

// TCP flags used by the reference stack.
const (
	FlagACK uint8 = 1 << iota
	FlagPSH
)

var nextUID uint64

// NextUID returns a process-wide unique packet identifier.
func NextUID() uint64 {
	return atomic.AddUint64(&nextUID, 1)
}

// Packet is one IPv4 datagram carrying a TCP segment. Payload bytes are not
// materialized; only their count is.
type Packet struct {
	UID         uint64
	Protocol    uint8
	Src         netip.Addr
	Dst         netip.Addr
	SrcPort     uint16
	DstPort     uint16
	Seq         uint32
	Ack         uint32
	Flags       uint8
	PayloadSize int
}

// NewTCP creates a TCP packet with a fresh UID.
func NewTCP(
	src netip.AddrPort,
	dst netip.AddrPort,
	seq, ack uint32,
	flags uint8,
	payloadSize int,
) *Packet {
	return &Packet{
		UID:         NextUID(),
		Protocol:    ProtocolTCP,
		Src:         src.Addr(),
		Dst:         dst.Addr(),
		SrcPort:     src.Port(),
		DstPort:     dst.Port(),
		Seq:         seq,
		Ack:         ack,
		Flags:       flags,
		PayloadSize: payloadSize,
	}
}

// Size returns the size of the IP datagram in bytes.
func (p *Packet) Size() int {
	return IPv4HeaderSize + TCPHeaderSize + p.PayloadSize
}

// IsPureAck tells if the packet carries no payload.
func (p *Packet) IsPureAck() bool {
	return p.PayloadSize == 0 && p.Flags&FlagACK != 0
}

// String describes the packet for logs.
func (p *Packet) String() string {
	return fmt.Sprintf("pkt-%d %s:%d->%s:%d seq=%d ack=%d len=%d",
		p.UID, p.Src, p.SrcPort, p.Dst, p.DstPort,
		p.Seq, p.Ack, p.PayloadSize)
}
