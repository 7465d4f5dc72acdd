package transport

import (
	"log"
	"sync"

	"github.com/sarchlab/wlanexp/sim"
)

// OnOffApplication writes fixed-size chunks into a socket at a constant bit
// rate. The application is always on. Chunks that do not fit in the send
// buffer are not retried.
type OnOffApplication struct {
	name        string
	socket      Socket
	packetSize  int
	dataRateBps float64
	ticker      *sim.RecurringTicker

	statsLock sync.RWMutex
	offered   uint64
	accepted  uint64
}

// Name returns the name of the application.
func (a *OnOffApplication) Name() string {
	return a.name
}

// Interval returns the time between two chunks.
func (a *OnOffApplication) Interval() sim.VTimeInSec {
	return a.ticker.Period
}

// Start schedules the first chunk.
func (a *OnOffApplication) Start(at sim.VTimeInSec) {
	a.ticker.Start(at)
}

// Tick writes one chunk.
func (a *OnOffApplication) Tick() bool {
	ok := a.socket.Send(a.packetSize)

	a.statsLock.Lock()
	a.offered += uint64(a.packetSize)
	if ok {
		a.accepted += uint64(a.packetSize)
	}
	a.statsLock.Unlock()

	return true
}

// Offered returns the bytes the application tried to write and how many of
// them the socket accepted.
func (a *OnOffApplication) Offered() (offered, accepted uint64) {
	a.statsLock.RLock()
	defer a.statsLock.RUnlock()

	return a.offered, a.accepted
}

func chunkInterval(packetSize int, dataRateBps float64) sim.VTimeInSec {
	if packetSize <= 0 || dataRateBps <= 0 {
		log.Panicf("invalid on/off source: %d bytes at %g bps",
			packetSize, dataRateBps)
	}

	interval := sim.Quantize(sim.VTimeInSec(float64(packetSize) * 8 / dataRateBps))
	if interval < sim.Resolution {
		interval = sim.Resolution
	}

	return interval
}
