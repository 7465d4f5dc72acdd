package measurement

import (
	"strconv"

	"github.com/sarchlab/wlanexp/sim"
)

// DefaultInterval is the sampling cadence of the throughput trace.
const DefaultInterval sim.VTimeInSec = 0.1

// SampleTick is the observation of one sampling window.
type SampleTick struct {
	Time       sim.VTimeInSec
	DeltaBytes uint64
	RateMbps   float64
}

// RateMbps converts the bytes received over an interval into Mbit/s. For the
// 100 ms window this is deltaBytes * 8 / 1e5.
func RateMbps(deltaBytes uint64, interval sim.VTimeInSec) float64 {
	bitsPerMbitWindow := 1e6 * float64(interval)

	return float64(deltaBytes) * 8 / bitsPerMbitWindow
}

// FormatFloat prints a float the way a default C++ output stream does: at
// most six significant digits, trailing zeros dropped, exponent form for very
// large or small magnitudes.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}

// TraceLine renders a sample as a line of the throughput trace, without the
// line break.
func (s SampleTick) TraceLine() string {
	return FormatFloat(float64(s.Time)) + "s: \t" + FormatFloat(s.RateMbps) + " Mbit/s"
}
