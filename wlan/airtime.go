package wlan

import (
	"github.com/sarchlab/wlanexp/sim"
)

// 802.11b DSSS timing with the long PLCP preamble, in seconds.
const (
	SlotTime    = 20e-6
	SIFS        = 10e-6
	DIFS        = SIFS + 2*SlotTime
	PLCPTime    = 192e-6
	CWMin       = 31
	MeanBackoff = CWMin / 2.0 * SlotTime
)

// Frame overheads in bytes.
const (
	MACHeaderSize = 24
	FCSSize       = 4
	LLCSNAPSize   = 8
	ACKFrameSize  = 14
)

// SpeedOfLight is the propagation speed used for delays, in m/s.
const SpeedOfLight = 299792458.0

// FrameAirtime returns how long one attempt to deliver an IP datagram of the
// given size occupies the channel: deferral, mean backoff, the data frame,
// SIFS and the MAC acknowledgment.
func FrameAirtime(ipBytes int, mgr WifiManager) sim.VTimeInSec {
	macBytes := ipBytes + MACHeaderSize + FCSSize + LLCSNAPSize
	data := PLCPTime + float64(macBytes)*8/(mgr.DataMode.RateMbps*1e6)
	ack := PLCPTime + float64(ACKFrameSize)*8/(mgr.AckMode.RateMbps*1e6)

	return sim.Quantize(sim.VTimeInSec(DIFS + MeanBackoff + data + SIFS + ack))
}

// PropagationDelay returns the time a signal takes between two positions.
func PropagationDelay(a, b Position) sim.VTimeInSec {
	return sim.Quantize(sim.VTimeInSec(a.DistanceTo(b) / SpeedOfLight))
}
