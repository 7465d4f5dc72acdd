// Package flowmon classifies packets into flows and accumulates per-flow
// transport statistics over a run.
package flowmon

import (
	"fmt"
	"net/netip"

	"github.com/sarchlab/wlanexp/packet"
	"github.com/sarchlab/wlanexp/sim"
)

// FlowID identifies a flow within one run. IDs start from 1 and are assigned
// in the order flows are first seen.
type FlowID uint32

// FiveTuple is the key of a flow.
type FiveTuple struct {
	Protocol uint8
	Src      netip.Addr
	Dst      netip.Addr
	SrcPort  uint16
	DstPort  uint16
}

// TupleOf extracts the five-tuple of a packet.
func TupleOf(p *packet.Packet) FiveTuple {
	return FiveTuple{
		Protocol: p.Protocol,
		Src:      p.Src,
		Dst:      p.Dst,
		SrcPort:  p.SrcPort,
		DstPort:  p.DstPort,
	}
}

// String formats the tuple as src:port->dst:port/proto.
func (t FiveTuple) String() string {
	return fmt.Sprintf("%s:%d->%s:%d/%d",
		t.Src, t.SrcPort, t.Dst, t.DstPort, t.Protocol)
}

// FlowStats are the counters of one flow.
type FlowStats struct {
	TxBytes     uint64
	RxBytes     uint64
	TxPackets   uint64
	RxPackets   uint64
	LostPackets uint64

	TimeFirstTx sim.VTimeInSec
	TimeLastRx  sim.VTimeInSec
	DelaySum    sim.VTimeInSec
}

// Validate reports a measurement bug if more was received than sent.
func (s FlowStats) Validate() error {
	if s.RxBytes > s.TxBytes {
		return fmt.Errorf("received %d bytes but only %d were sent",
			s.RxBytes, s.TxBytes)
	}

	if s.RxPackets > s.TxPackets {
		return fmt.Errorf("received %d packets but only %d were sent",
			s.RxPackets, s.TxPackets)
	}

	return nil
}

// MeanDelay returns the average one-way delay of received packets.
func (s FlowStats) MeanDelay() sim.VTimeInSec {
	if s.RxPackets == 0 {
		return 0
	}

	return s.DelaySum / sim.VTimeInSec(s.RxPackets)
}

// FlowRecord pairs a flow with its key and counters.
type FlowRecord struct {
	ID    FlowID
	Tuple FiveTuple
	Stats FlowStats
}

func formatID(id FlowID) string {
	return fmt.Sprintf("%d", id)
}
