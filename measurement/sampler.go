package measurement

import (
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/sarchlab/wlanexp/sim"
)

// HookPosSample is the hook position triggered after every sample. The hook
// item is the SampleTick.
var HookPosSample = &sim.HookPos{Name: "ThroughputSample"}

// Sampler reads a ByteCounter on a fixed cadence and reports the rate of each
// window. It is driven by a sim.RecurringTicker.
type Sampler struct {
	sim.HookableBase

	name     string
	counter  ByteCounter
	clock    sim.TimeTeller
	out      io.Writer
	interval sim.VTimeInSec
	ticker   *sim.RecurringTicker

	lastTotalRx uint64

	latestLock sync.RWMutex
	latest     SampleTick
	numSamples uint64
}

// Name returns the name of the sampler.
func (s *Sampler) Name() string {
	return s.name
}

// Start arms the first tick.
func (s *Sampler) Start(at sim.VTimeInSec) {
	s.ticker.Start(at)
}

// Tick takes one sample.
func (s *Sampler) Tick() bool {
	tick := s.sample()

	_, err := fmt.Fprintln(s.out, tick.TraceLine())
	if err != nil {
		log.Panicf("cannot write throughput trace: %v", err)
	}

	s.InvokeHook(sim.HookCtx{
		Domain: s,
		Now:    tick.Time,
		Pos:    HookPosSample,
		Item:   tick,
	})

	return true
}

func (s *Sampler) sample() SampleTick {
	now := s.clock.CurrentTime()
	current := s.counter.TotalRx()

	if current < s.lastTotalRx {
		log.Panicf("%s: received bytes went backwards, %d -> %d",
			s.name, s.lastTotalRx, current)
	}

	delta := current - s.lastTotalRx
	tick := SampleTick{
		Time:       now,
		DeltaBytes: delta,
		RateMbps:   RateMbps(delta, s.interval),
	}

	s.lastTotalRx = current

	s.latestLock.Lock()
	s.latest = tick
	s.numSamples++
	s.latestLock.Unlock()

	return tick
}

// Latest returns the most recent sample and whether any sample was taken.
// It is safe to call from outside the simulation goroutine.
func (s *Sampler) Latest() (SampleTick, bool) {
	s.latestLock.RLock()
	defer s.latestLock.RUnlock()

	return s.latest, s.numSamples > 0
}

// NumSamples returns how many samples have been taken.
func (s *Sampler) NumSamples() uint64 {
	s.latestLock.RLock()
	defer s.latestLock.RUnlock()

	return s.numSamples
}
