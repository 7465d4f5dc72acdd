package measurement

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/sarchlab/wlanexp/sim"
)

// RateStats is a hook that keeps the rates of all samples so that the spread
// of the trace can be summarized after the run.
type RateStats struct {
	rates []float64
}

// NewRateStats creates an empty RateStats.
func NewRateStats() *RateStats {
	return &RateStats{}
}

// Func records the rate of a sample.
func (r *RateStats) Func(ctx sim.HookCtx) {
	if ctx.Pos != HookPosSample {
		return
	}

	tick, ok := ctx.Item.(SampleTick)
	if !ok {
		return
	}

	r.rates = append(r.rates, tick.RateMbps)
}

// RateSummary describes the distribution of sampled rates, in Mbit/s.
type RateSummary struct {
	Count  int
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
	P95    float64
}

// String formats the summary on one line.
func (s RateSummary) String() string {
	return fmt.Sprintf(
		"samples=%d mean=%s stddev=%s min=%s max=%s p95=%s Mbit/s",
		s.Count,
		FormatFloat(s.Mean), FormatFloat(s.StdDev),
		FormatFloat(s.Min), FormatFloat(s.Max), FormatFloat(s.P95),
	)
}

// Summary computes the summary of the rates seen so far.
func (r *RateStats) Summary() RateSummary {
	if len(r.rates) == 0 {
		return RateSummary{}
	}

	sorted := make([]float64, len(r.rates))
	copy(sorted, r.rates)
	sort.Float64s(sorted)

	s := RateSummary{
		Count: len(sorted),
		Mean:  stat.Mean(sorted, nil),
		Min:   floats.Min(sorted),
		Max:   floats.Max(sorted),
		P95:   stat.Quantile(0.95, stat.Empirical, sorted, nil),
	}

	if len(sorted) > 1 {
		s.StdDev = stat.StdDev(sorted, nil)
	}

	return s
}
