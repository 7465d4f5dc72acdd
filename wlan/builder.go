package wlan

import (
	"log"
	"math/rand"
	"net/netip"

	"github.com/sarchlab/wlanexp/sim"
)

// DefaultQueueLimit is the capacity of each transmit queue, in frames.
const DefaultQueueLimit = 500

// Builder can build Mediums.
type Builder struct {
	engine         sim.Engine
	manager        WifiManager
	queueLimit     int
	frameErrorRate float64
	seed           int64
	probe          Probe
}

// MakeBuilder creates a Builder with the Arf manager, error-free frames and
// 500-frame queues.
func MakeBuilder() Builder {
	return Builder{
		manager:    wifiManagers["Arf"],
		queueLimit: DefaultQueueLimit,
		seed:       1,
	}
}

// WithEngine sets the engine that schedules the medium's events.
func (b Builder) WithEngine(e sim.Engine) Builder {
	b.engine = e
	return b
}

// WithWifiManager sets the rate manager of the cell.
func (b Builder) WithWifiManager(m WifiManager) Builder {
	b.manager = m
	return b
}

// WithQueueLimit sets the capacity of the transmit queues.
func (b Builder) WithQueueLimit(n int) Builder {
	b.queueLimit = n
	return b
}

// WithFrameErrorRate sets the probability that a single transmission
// attempt fails.
func (b Builder) WithFrameErrorRate(rate float64) Builder {
	b.frameErrorRate = rate
	return b
}

// WithSeed sets the seed of the frame error process.
func (b Builder) WithSeed(seed int64) Builder {
	b.seed = seed
	return b
}

// WithProbe sets the observer of sent, received and lost packets.
func (b Builder) WithProbe(p Probe) Builder {
	b.probe = p
	return b
}

// Build creates the Medium.
func (b Builder) Build(name string) *Medium {
	if b.engine == nil {
		log.Panic("medium requires an engine")
	}

	if b.queueLimit <= 0 {
		log.Panic("queue limit must be positive")
	}

	if b.frameErrorRate < 0 || b.frameErrorRate >= 1 {
		log.Panicf("frame error rate %g is not in [0, 1)", b.frameErrorRate)
	}

	return &Medium{
		name:           name,
		engine:         b.engine,
		manager:        b.manager,
		queueLimit:     b.queueLimit,
		frameErrorRate: b.frameErrorRate,
		rng:            rand.New(rand.NewSource(b.seed)),
		probe:          b.probe,
		byAddr:         make(map[netip.Addr]*Node),
		receivers:      make(map[netip.Addr]Receiver),
		taps:           make(map[int][]Tap),
	}
}
