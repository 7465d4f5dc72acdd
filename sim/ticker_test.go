package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

type countingTicker struct {
	engine *SerialEngine
	times  []VTimeInSec
}

func (t *countingTicker) Tick() bool {
	t.times = append(t.times, t.engine.CurrentTime())
	return true
}

var _ = Describe("RecurringTicker", func() {
	var (
		mockCtrl *gomock.Controller
		engine   *MockEngine
		ticker   *MockTicker
		rt       *RecurringTicker
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		engine = NewMockEngine(mockCtrl)
		ticker = NewMockTicker(mockCtrl)
		rt = NewRecurringTicker(engine, 0.1, ticker)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should schedule the first tick at the start time", func() {
		engine.EXPECT().Schedule(gomock.Any()).
			Do(func(e Event) {
				Expect(e.Time()).To(Equal(VTimeInSec(1.1)))
				Expect(e.Handler()).To(BeIdenticalTo(rt))
			})

		rt.Start(1.1)
	})

	It("should not start twice", func() {
		engine.EXPECT().Schedule(gomock.Any())

		rt.Start(1.1)
		Expect(func() { rt.Start(1.2) }).To(Panic())
	})

	It("should re-arm relative to the tick that just ran", func() {
		ticker.EXPECT().Tick().Return(true)
		engine.EXPECT().Schedule(gomock.Any()).
			Do(func(e Event) {
				Expect(e.Time()).To(Equal(VTimeInSec(1.2)))
			})

		Expect(rt.Handle(MakeTickEvent(rt, 1.1))).To(Succeed())
		Expect(rt.NextTickTime()).To(Equal(VTimeInSec(1.2)))
	})

	It("should stop re-arming when the ticker asks to", func() {
		ticker.EXPECT().Tick().Return(false)

		Expect(rt.Handle(MakeTickEvent(rt, 1.1))).To(Succeed())
	})

	It("should reject a non-positive period", func() {
		Expect(func() { NewRecurringTicker(engine, 0, ticker) }).To(Panic())
	})
})

var _ = Describe("RecurringTicker on a SerialEngine", func() {
	It("should tick on the decimal grid until the stop time", func() {
		engine := NewSerialEngine()
		t := &countingTicker{engine: engine}
		rt := NewRecurringTicker(engine, 0.1, t)

		rt.Start(1.1)
		engine.StopAt(11)
		Expect(engine.Run()).To(Succeed())

		Expect(t.times).To(HaveLen(100))
		Expect(t.times[0]).To(Equal(VTimeInSec(1.1)))
		Expect(t.times[1]).To(Equal(VTimeInSec(1.2)))
		Expect(t.times[98]).To(Equal(VTimeInSec(10.9)))
		Expect(t.times[99]).To(Equal(VTimeInSec(11)))
		Expect(engine.DiscardedEvents()).To(Equal(1))
	})
})
