package sim

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

var _ = Describe("EventQueueImpl", func() {
	var (
		mockCtrl *gomock.Controller
		queue    *EventQueueImpl
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		queue = NewEventQueue()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should pop in order", func() {
		numEvents := 100
		for i := 0; i < numEvents; i++ {
			event := NewMockEvent(mockCtrl)
			event.EXPECT().
				Time().
				Return(VTimeInSec(rand.Float64() / 1e8)).
				AnyTimes()
			queue.Push(event)
		}

		now := VTimeInSec(-1)
		for i := 0; i < numEvents; i++ {
			event := queue.Pop()
			Expect(event.Time() >= now).To(BeTrue())
			now = event.Time()
		}
	})

	It("should pop same-time events in push order", func() {
		events := make([]*MockEvent, 0)
		for i := 0; i < 50; i++ {
			event := NewMockEvent(mockCtrl)
			event.EXPECT().Time().Return(VTimeInSec(1.5)).AnyTimes()
			events = append(events, event)
			queue.Push(event)
		}

		for i := 0; i < 50; i++ {
			Expect(queue.Pop()).To(BeIdenticalTo(events[i]))
		}
	})

	It("should keep push order among equal times mixed with others", func() {
		early := NewMockEvent(mockCtrl)
		early.EXPECT().Time().Return(VTimeInSec(1)).AnyTimes()
		tieA := NewMockEvent(mockCtrl)
		tieA.EXPECT().Time().Return(VTimeInSec(2)).AnyTimes()
		tieB := NewMockEvent(mockCtrl)
		tieB.EXPECT().Time().Return(VTimeInSec(2)).AnyTimes()

		queue.Push(tieA)
		queue.Push(early)
		queue.Push(tieB)

		Expect(queue.Peek()).To(BeIdenticalTo(early))
		Expect(queue.Pop()).To(BeIdenticalTo(early))
		Expect(queue.Pop()).To(BeIdenticalTo(tieA))
		Expect(queue.Pop()).To(BeIdenticalTo(tieB))
	})

	It("should clear", func() {
		for i := 0; i < 3; i++ {
			event := NewMockEvent(mockCtrl)
			event.EXPECT().Time().Return(VTimeInSec(i)).AnyTimes()
			queue.Push(event)
		}

		Expect(queue.Clear()).To(Equal(3))
		Expect(queue.Len()).To(Equal(0))
	})
})
