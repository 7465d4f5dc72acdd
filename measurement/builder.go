package measurement

import (
	"io"
	"os"

	"github.com/sarchlab/wlanexp/sim"
)

// Builder can build Samplers.
type Builder struct {
	engine   sim.Engine
	counter  ByteCounter
	out      io.Writer
	interval sim.VTimeInSec
}

// MakeBuilder creates a Builder with a 100 ms interval writing to stdout.
func MakeBuilder() Builder {
	return Builder{
		out:      os.Stdout,
		interval: DefaultInterval,
	}
}

// WithEngine sets the engine that drives the sampler.
func (b Builder) WithEngine(e sim.Engine) Builder {
	b.engine = e
	return b
}

// WithCounter sets the counter to sample.
func (b Builder) WithCounter(c ByteCounter) Builder {
	b.counter = c
	return b
}

// WithOutput sets where trace lines are written.
func (b Builder) WithOutput(w io.Writer) Builder {
	b.out = w
	return b
}

// WithInterval sets the sampling interval.
func (b Builder) WithInterval(interval sim.VTimeInSec) Builder {
	b.interval = interval
	return b
}

// Build creates the Sampler.
func (b Builder) Build(name string) *Sampler {
	if b.engine == nil {
		panic("sampler requires an engine")
	}

	if b.counter == nil {
		panic("sampler requires a byte counter")
	}

	s := &Sampler{
		name:     name,
		counter:  b.counter,
		clock:    b.engine,
		out:      b.out,
		interval: b.interval,
	}
	s.ticker = sim.NewRecurringTicker(b.engine, b.interval, s)

	return s
}
