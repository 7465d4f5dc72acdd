package sim

import (
	"log"
	"sync"
)

// TickEvent is a generic event that almost all the component can use to
// update their status.
type TickEvent struct {
	EventBase
}

// MakeTickEvent creates a new TickEvent
func MakeTickEvent(handler Handler, time VTimeInSec) TickEvent {
	evt := TickEvent{}
	evt.ID = GetIDGenerator().Generate()
	evt.handler = handler
	evt.time = time

	return evt
}

// A Ticker is an object that updates states with ticks. Tick returns false
// when the ticker no longer wants to be ticked.
type Ticker interface {
	Tick() bool
}

// RecurringTicker ticks a Ticker at a fixed period. Each tick schedules the
// next one at the time of the tick that just ran plus the period, so the
// cadence is anchored on the previous firing rather than on a frequency grid.
type RecurringTicker struct {
	lock   sync.Mutex
	ticker Ticker
	Period VTimeInSec
	Engine Engine

	started      bool
	nextTickTime VTimeInSec
}

// NewRecurringTicker creates a RecurringTicker. The ticker does not run until
// Start is called.
func NewRecurringTicker(
	engine Engine,
	period VTimeInSec,
	ticker Ticker,
) *RecurringTicker {
	if period <= 0 {
		log.Panic("tick period must be positive")
	}

	t := new(RecurringTicker)
	t.Engine = engine
	t.Period = period
	t.ticker = ticker

	return t
}

// Start schedules the first tick at the given time.
func (t *RecurringTicker) Start(at VTimeInSec) {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.started {
		log.Panic("recurring ticker already started")
	}

	t.started = true
	t.nextTickTime = Quantize(at)
	t.Engine.Schedule(MakeTickEvent(t, t.nextTickTime))
}

// Handle runs one tick and re-arms the ticker.
func (t *RecurringTicker) Handle(e Event) error {
	if !t.ticker.Tick() {
		return nil
	}

	t.lock.Lock()
	t.nextTickTime = e.Time().Later(t.Period)
	next := MakeTickEvent(t, t.nextTickTime)
	t.lock.Unlock()

	t.Engine.Schedule(next)

	return nil
}

// NextTickTime returns the time of the pending tick.
func (t *RecurringTicker) NextTickTime() VTimeInSec {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.nextTickTime
}

// CurrentTime returns the time of the engine that drives the ticker.
func (t *RecurringTicker) CurrentTime() VTimeInSec {
	return t.Engine.CurrentTime()
}

// Name returns the name of the ticked object, so that event logs show who
// ticks.
func (t *RecurringTicker) Name() string {
	if n, ok := t.ticker.(named); ok {
		return n.Name()
	}

	return "RecurringTicker"
}
