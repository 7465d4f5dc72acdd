package sim

import (
	"log"
	"math"
	"time"
)

// stepsPerSecond is the number of grid steps in one simulated second. Times
// are snapped to this nanosecond grid so that repeatedly adding a decimal
// period such as 0.1 s does not drift away from the decimal value.
const stepsPerSecond = 1e9

// Resolution is the finest time step the timeline distinguishes.
const Resolution VTimeInSec = 1 / stepsPerSecond

// Quantize rounds t to the closest multiple of Resolution.
func Quantize(t VTimeInSec) VTimeInSec {
	if math.IsNaN(float64(t)) {
		log.Panic("invalid time")
	}

	if math.IsInf(float64(t), 0) {
		return t
	}

	return VTimeInSec(math.Round(float64(t)*stepsPerSecond) / stepsPerSecond)
}

// Seconds converts a time.Duration to a VTimeInSec.
func Seconds(d time.Duration) VTimeInSec {
	return Quantize(VTimeInSec(d.Seconds()))
}

// Duration converts a VTimeInSec to a time.Duration, rounded to the closest
// nanosecond.
func (t VTimeInSec) Duration() time.Duration {
	return time.Duration(math.Round(float64(t) * 1e9))
}

// Later returns the quantized time d after t.
func (t VTimeInSec) Later(d VTimeInSec) VTimeInSec {
	return Quantize(t + d)
}
