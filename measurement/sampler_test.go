package measurement

import (
	"bytes"
	"math/rand"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/wlanexp/sim"
)

type sampleCollector struct {
	ticks []SampleTick
}

func (c *sampleCollector) Func(ctx sim.HookCtx) {
	if ctx.Pos == HookPosSample {
		c.ticks = append(c.ticks, ctx.Item.(SampleTick))
	}
}

var _ = Describe("Sampler", func() {
	var (
		mockCtrl  *gomock.Controller
		engine    *sim.SerialEngine
		counter   *MockByteCounter
		out       *bytes.Buffer
		sampler   *Sampler
		collector *sampleCollector
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		engine = sim.NewSerialEngine()
		counter = NewMockByteCounter(mockCtrl)
		out = new(bytes.Buffer)
		collector = &sampleCollector{}

		sampler = MakeBuilder().
			WithEngine(engine).
			WithCounter(counter).
			WithOutput(out).
			Build("Sampler")
		sampler.AcceptHook(collector)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should print the rate of each window", func() {
		gomock.InOrder(
			counter.EXPECT().TotalRx().Return(uint64(0)),
			counter.EXPECT().TotalRx().Return(uint64(125000)),
			counter.EXPECT().TotalRx().Return(uint64(250000)),
			counter.EXPECT().TotalRx().Return(uint64(250000)),
		)

		sampler.Start(1.1)
		engine.StopAt(1.4)
		Expect(engine.Run()).To(Succeed())

		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		Expect(lines).To(Equal([]string{
			"1.1s: \t0 Mbit/s",
			"1.2s: \t10 Mbit/s",
			"1.3s: \t10 Mbit/s",
			"1.4s: \t0 Mbit/s",
		}))
	})

	It("should never report negative deltas and never lose bytes", func() {
		total := uint64(0)
		counter.EXPECT().TotalRx().DoAndReturn(func() uint64 {
			total += uint64(rand.Intn(200000))
			return total
		}).AnyTimes()

		sampler.Start(1.1)
		engine.StopAt(11)
		Expect(engine.Run()).To(Succeed())

		sum := uint64(0)
		for _, t := range collector.ticks {
			Expect(t.RateMbps).To(BeNumerically(">=", 0))
			sum += t.DeltaBytes
		}

		Expect(sum).To(Equal(total))
	})

	It("should tick at a fixed cadence until the stop time", func() {
		counter.EXPECT().TotalRx().Return(uint64(0)).AnyTimes()

		sampler.Start(1.1)
		engine.StopAt(11)
		Expect(engine.Run()).To(Succeed())

		Expect(collector.ticks).To(HaveLen(100))
		Expect(sampler.NumSamples()).To(Equal(uint64(100)))
		for i := 1; i < len(collector.ticks); i++ {
			gap := collector.ticks[i].Time - collector.ticks[i-1].Time
			Expect(float64(gap)).To(BeNumerically("~", 0.1, 1e-9))
		}
	})

	It("should expose the latest sample", func() {
		_, ok := sampler.Latest()
		Expect(ok).To(BeFalse())

		counter.EXPECT().TotalRx().Return(uint64(12500))
		sampler.Start(1.1)
		engine.StopAt(1.1)
		Expect(engine.Run()).To(Succeed())

		latest, ok := sampler.Latest()
		Expect(ok).To(BeTrue())
		Expect(latest.Time).To(Equal(sim.VTimeInSec(1.1)))
		Expect(latest.RateMbps).To(BeNumerically("~", 1, 1e-9))
	})

	It("should panic if the counter goes backwards", func() {
		gomock.InOrder(
			counter.EXPECT().TotalRx().Return(uint64(100)),
			counter.EXPECT().TotalRx().Return(uint64(50)),
		)

		Expect(sampler.Tick()).To(BeTrue())
		Expect(func() { sampler.Tick() }).To(Panic())
	})
})

var _ = Describe("RateMbps", func() {
	It("should convert bytes per 100ms to Mbit/s", func() {
		Expect(RateMbps(125000, 0.1)).To(BeNumerically("~", 10, 1e-12))
		Expect(RateMbps(0, 0.1)).To(Equal(0.0))
	})

	It("should scale with the interval", func() {
		Expect(RateMbps(125000, 1)).To(BeNumerically("~", 1, 1e-12))
	})

	It("should format like a C++ stream", func() {
		Expect(FormatFloat(10)).To(Equal("10"))
		Expect(FormatFloat(1.1)).To(Equal("1.1"))
		Expect(FormatFloat(5.8752)).To(Equal("5.8752"))
		Expect(FormatFloat(3.14159265)).To(Equal("3.14159"))
		Expect(FormatFloat(1234567)).To(Equal("1.23457e+06"))
	})
})
