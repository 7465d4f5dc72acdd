package flowmon

import (
	"sort"
	"sync"

	"github.com/sarchlab/wlanexp/packet"
	"github.com/sarchlab/wlanexp/sim"
)

// MaxPerHopDelay is how long a packet may stay in flight before it is
// considered lost.
const MaxPerHopDelay sim.VTimeInSec = 10

type inFlight struct {
	flow   FlowID
	sentAt sim.VTimeInSec
}

// Monitor accumulates per-flow statistics. Record methods are called from the
// simulation goroutine; AllFlows may be called from any goroutine.
type Monitor struct {
	lock       sync.RWMutex
	classifier *Classifier
	stats      map[FlowID]*FlowStats
	inFlight   map[uint64]inFlight
}

// NewMonitor creates a Monitor with its own Classifier.
func NewMonitor() *Monitor {
	return &Monitor{
		classifier: NewClassifier(),
		stats:      make(map[FlowID]*FlowStats),
		inFlight:   make(map[uint64]inFlight),
	}
}

// Classifier returns the classifier used by the monitor.
func (m *Monitor) Classifier() *Classifier {
	return m.classifier
}

func (m *Monitor) flowStats(id FlowID) *FlowStats {
	s, found := m.stats[id]
	if !found {
		s = &FlowStats{}
		m.stats[id] = s
	}

	return s
}

// RecordTx accounts a packet handed to the network by its source.
func (m *Monitor) RecordTx(p *packet.Packet, now sim.VTimeInSec) {
	id := m.classifier.Classify(TupleOf(p))

	m.lock.Lock()
	defer m.lock.Unlock()

	s := m.flowStats(id)
	if s.TxPackets == 0 {
		s.TimeFirstTx = now
	}

	s.TxPackets++
	s.TxBytes += uint64(p.Size())

	m.inFlight[p.UID] = inFlight{flow: id, sentAt: now}
}

// RecordRx accounts a packet delivered to its destination. A packet that is
// not in flight (never sent, already received or already declared lost) is
// ignored.
func (m *Monitor) RecordRx(p *packet.Packet, now sim.VTimeInSec) {
	m.lock.Lock()
	defer m.lock.Unlock()

	f, found := m.inFlight[p.UID]
	if !found {
		return
	}

	delete(m.inFlight, p.UID)

	s := m.flowStats(f.flow)
	s.RxPackets++
	s.RxBytes += uint64(p.Size())
	s.TimeLastRx = now
	s.DelaySum += now - f.sentAt
}

// RecordLoss accounts a packet dropped by the network.
func (m *Monitor) RecordLoss(p *packet.Packet) {
	m.lock.Lock()
	defer m.lock.Unlock()

	f, found := m.inFlight[p.UID]
	if !found {
		return
	}

	delete(m.inFlight, p.UID)
	m.flowStats(f.flow).LostPackets++
}

// CheckForLostPackets declares every packet that has been in flight for
// longer than MaxPerHopDelay as lost.
func (m *Monitor) CheckForLostPackets(now sim.VTimeInSec) {
	m.lock.Lock()
	defer m.lock.Unlock()

	for uid, f := range m.inFlight {
		if now-f.sentAt > MaxPerHopDelay {
			delete(m.inFlight, uid)
			m.flowStats(f.flow).LostPackets++
		}
	}
}

// NumInFlight returns the number of packets sent but neither received nor
// lost.
func (m *Monitor) NumInFlight() int {
	m.lock.RLock()
	defer m.lock.RUnlock()

	return len(m.inFlight)
}

// Handle runs the final lost-packet check when the simulation ends.
func (m *Monitor) Handle(now sim.VTimeInSec) {
	m.CheckForLostPackets(now)
}

// AllFlows returns a copy of every flow's statistics in ascending FlowID
// order.
func (m *Monitor) AllFlows() []FlowRecord {
	m.lock.RLock()
	defer m.lock.RUnlock()

	records := make([]FlowRecord, 0, len(m.stats))
	for id, s := range m.stats {
		tuple, _ := m.classifier.FindFlow(id)
		records = append(records, FlowRecord{
			ID:    id,
			Tuple: tuple,
			Stats: *s,
		})
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].ID < records[j].ID
	})

	return records
}

// Validate checks every flow for rx <= tx.
func (m *Monitor) Validate() error {
	for _, r := range m.AllFlows() {
		err := r.Stats.Validate()
		if err != nil {
			return &FlowError{Flow: r.ID, Err: err}
		}
	}

	return nil
}

// FlowError reports a problem found in one flow.
type FlowError struct {
	Flow FlowID
	Err  error
}

func (e *FlowError) Error() string {
	return "flow " + formatID(e.Flow) + ": " + e.Err.Error()
}

func (e *FlowError) Unwrap() error {
	return e.Err
}
