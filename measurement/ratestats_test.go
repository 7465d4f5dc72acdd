package measurement

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/wlanexp/sim"
)

var _ = Describe("RateStats", func() {
	It("should summarize sampled rates", func() {
		r := NewRateStats()
		for _, rate := range []float64{2, 4, 4, 4, 5, 5, 7, 9} {
			r.Func(sim.HookCtx{
				Pos:  HookPosSample,
				Item: SampleTick{RateMbps: rate},
			})
		}

		s := r.Summary()
		Expect(s.Count).To(Equal(8))
		Expect(s.Mean).To(BeNumerically("~", 5, 1e-12))
		Expect(s.Min).To(Equal(2.0))
		Expect(s.Max).To(Equal(9.0))
		Expect(s.P95).To(Equal(9.0))
		Expect(s.StdDev).To(BeNumerically("~", 2.138, 1e-3))
	})

	It("should ignore other hook positions", func() {
		r := NewRateStats()
		r.Func(sim.HookCtx{Pos: sim.HookPosBeforeEvent, Item: SampleTick{RateMbps: 3}})

		Expect(r.Summary().Count).To(Equal(0))
	})
})
