package wlan

import (
	"fmt"
	"log"
	"math/rand"
	"net/netip"
	"sync"

	"github.com/sarchlab/wlanexp/packet"
	"github.com/sarchlab/wlanexp/sim"
)

// MaxRetries is the number of times a frame is retransmitted after its first
// attempt fails.
const MaxRetries = 7

// A Receiver consumes the packets that the medium delivers to a node.
type Receiver interface {
	Receive(p *packet.Packet, now sim.VTimeInSec)
}

// A Probe observes packets at the network layer. Every packet handed to the
// medium is reported as sent, and later as either received or lost.
type Probe interface {
	RecordTx(p *packet.Packet, now sim.VTimeInSec)
	RecordRx(p *packet.Packet, now sim.VTimeInSec)
	RecordLoss(p *packet.Packet)
}

// A Tap sees every packet that a node sends or receives over the air.
type Tap interface {
	Capture(p *packet.Packet, src, dst *Node, now sim.VTimeInSec)
}

// HookPosFrameDelivered is triggered when a frame reaches its destination.
// The item is the packet.
var HookPosFrameDelivered = &sim.HookPos{Name: "FrameDelivered"}

// HookPosFrameDropped is triggered when a frame is discarded. The item is
// the packet and the detail is the reason.
var HookPosFrameDropped = &sim.HookPos{Name: "FrameDropped"}

// Drop reasons.
const (
	DropQueueFull  = "queue full"
	DropRetryLimit = "retry limit"
	DropNoRoute    = "no route"
)

// MediumStats are the counters of a Medium.
type MediumStats struct {
	FramesQueued    uint64
	FramesDelivered uint64
	QueueDrops      uint64
	RetryDrops      uint64
	Retries         uint64
	BusyTime        sim.VTimeInSec
}

type frame struct {
	pkt      *packet.Packet
	src      *Node
	dst      *Node
	attempts int
}

type txDoneEvent struct {
	*sim.EventBase
	frame *frame
	ok    bool
}

type deliverEvent struct {
	*sim.EventBase
	frame *frame
}

// Medium is the shared channel of the cell. Only one frame is on the air at
// a time. Each node has a FIFO transmit queue and the channel is granted to
// the backlogged nodes in turn.
type Medium struct {
	sim.HookableBase

	name           string
	engine         sim.Engine
	manager        WifiManager
	queueLimit     int
	frameErrorRate float64
	rng            *rand.Rand
	probe          Probe

	nodes     []*Node
	byAddr    map[netip.Addr]*Node
	receivers map[netip.Addr]Receiver
	taps      map[int][]Tap

	queues   []sim.Buffer
	nextNode int
	busy     bool

	statsLock sync.RWMutex
	stats     MediumStats
}

// Name returns the name of the medium.
func (m *Medium) Name() string {
	return m.name
}

// Manager returns the rate manager of the cell.
func (m *Medium) Manager() WifiManager {
	return m.manager
}

// AddNode connects a node to the medium. Packets addressed to the node are
// passed to the receiver.
func (m *Medium) AddNode(n *Node, r Receiver) {
	if _, found := m.byAddr[n.Addr]; found {
		panic(fmt.Sprintf("address %s is already used", n.Addr))
	}

	m.nodes = append(m.nodes, n)
	m.queues = append(m.queues,
		sim.NewBuffer(n.Name+".TxQueue", m.queueLimit))
	m.byAddr[n.Addr] = n
	m.receivers[n.Addr] = r
}

// SetReceiver replaces the receiver of a node.
func (m *Medium) SetReceiver(n *Node, r Receiver) {
	if _, found := m.byAddr[n.Addr]; !found {
		panic(fmt.Sprintf("node %s is not attached", n))
	}

	m.receivers[n.Addr] = r
}

// Nodes returns the attached nodes in the order they were added.
func (m *Medium) Nodes() []*Node {
	return m.nodes
}

// NodeByAddr finds an attached node.
func (m *Medium) NodeByAddr(addr netip.Addr) (*Node, bool) {
	n, found := m.byAddr[addr]
	return n, found
}

// AddTap makes the tap see the traffic of a node.
func (m *Medium) AddTap(n *Node, t Tap) {
	m.taps[n.ID] = append(m.taps[n.ID], t)
}

// Stats returns a snapshot of the counters. It is safe to call from any
// goroutine.
func (m *Medium) Stats() MediumStats {
	m.statsLock.RLock()
	defer m.statsLock.RUnlock()

	return m.stats
}

func (m *Medium) updateStats(f func(s *MediumStats)) {
	m.statsLock.Lock()
	f(&m.stats)
	m.statsLock.Unlock()
}

func (m *Medium) nodeIndex(n *Node) int {
	for i, node := range m.nodes {
		if node == n {
			return i
		}
	}

	panic(fmt.Sprintf("node %s is not attached", n))
}

// Send queues a packet at the interface of its source node.
func (m *Medium) Send(p *packet.Packet) {
	now := m.engine.CurrentTime()

	src, found := m.byAddr[p.Src]
	if !found {
		log.Panicf("%s: no node has address %s", m.name, p.Src)
	}

	if m.probe != nil {
		m.probe.RecordTx(p, now)
	}

	dst, found := m.byAddr[p.Dst]
	if !found {
		m.drop(p, DropNoRoute, now)
		return
	}

	queue := m.queues[m.nodeIndex(src)]
	if !queue.CanPush() {
		m.updateStats(func(s *MediumStats) { s.QueueDrops++ })
		m.drop(p, DropQueueFull, now)

		return
	}

	queue.Push(&frame{pkt: p, src: src, dst: dst})
	m.updateStats(func(s *MediumStats) { s.FramesQueued++ })

	if !m.busy {
		m.startNext(now)
	}
}

// TxQueues returns the transmit queues in node order.
func (m *Medium) TxQueues() []sim.Buffer {
	return m.queues
}

// QueueLength returns the number of frames waiting at a node.
func (m *Medium) QueueLength(n *Node) int {
	return m.queues[m.nodeIndex(n)].Size()
}

func (m *Medium) drop(p *packet.Packet, reason string, now sim.VTimeInSec) {
	if m.probe != nil {
		m.probe.RecordLoss(p)
	}

	m.InvokeHook(sim.HookCtx{
		Domain: m,
		Now:    now,
		Pos:    HookPosFrameDropped,
		Item:   p,
		Detail: reason,
	})
}

func (m *Medium) pickNext() *frame {
	for i := 0; i < len(m.queues); i++ {
		idx := (m.nextNode + i) % len(m.queues)
		if m.queues[idx].Size() == 0 {
			continue
		}

		f := m.queues[idx].Pop().(*frame)
		m.nextNode = (idx + 1) % len(m.queues)

		return f
	}

	return nil
}

func (m *Medium) startNext(now sim.VTimeInSec) {
	f := m.pickNext()
	if f == nil {
		m.busy = false
		return
	}

	m.busy = true

	airtime := FrameAirtime(f.pkt.Size(), m.manager)
	ok := false

	var total sim.VTimeInSec

	for f.attempts <= MaxRetries {
		f.attempts++
		total += airtime

		if !m.frameLost() {
			ok = true
			break
		}
	}

	retries := uint64(f.attempts - 1)
	m.updateStats(func(s *MediumStats) {
		s.Retries += retries
		s.BusyTime += total
	})

	m.engine.Schedule(txDoneEvent{
		EventBase: sim.NewEventBase(now.Later(total), m),
		frame:     f,
		ok:        ok,
	})
}

func (m *Medium) frameLost() bool {
	if m.frameErrorRate <= 0 {
		return false
	}

	return m.rng.Float64() < m.frameErrorRate
}

// Handle processes the events of the medium.
func (m *Medium) Handle(e sim.Event) error {
	switch e := e.(type) {
	case txDoneEvent:
		m.handleTxDone(e)
	case deliverEvent:
		m.handleDeliver(e)
	default:
		log.Panicf("%s cannot handle event of type %T", m.name, e)
	}

	return nil
}

func (m *Medium) handleTxDone(e txDoneEvent) {
	now := e.Time()
	f := e.frame

	if e.ok {
		delay := PropagationDelay(f.src.Position, f.dst.Position)
		m.engine.Schedule(deliverEvent{
			EventBase: sim.NewEventBase(now.Later(delay), m),
			frame:     f,
		})
	} else {
		m.updateStats(func(s *MediumStats) { s.RetryDrops++ })
		m.drop(f.pkt, DropRetryLimit, now)
	}

	m.startNext(now)
}

func (m *Medium) handleDeliver(e deliverEvent) {
	now := e.Time()
	f := e.frame

	m.capture(f, now)

	if m.probe != nil {
		m.probe.RecordRx(f.pkt, now)
	}

	m.updateStats(func(s *MediumStats) { s.FramesDelivered++ })

	m.InvokeHook(sim.HookCtx{
		Domain: m,
		Now:    now,
		Pos:    HookPosFrameDelivered,
		Item:   f.pkt,
	})

	if r := m.receivers[f.dst.Addr]; r != nil {
		r.Receive(f.pkt, now)
	}
}

func (m *Medium) capture(f *frame, now sim.VTimeInSec) {
	for _, t := range m.taps[f.src.ID] {
		t.Capture(f.pkt, f.src, f.dst, now)
	}

	if f.dst.ID == f.src.ID {
		return
	}

	for _, t := range m.taps[f.dst.ID] {
		t.Capture(f.pkt, f.src, f.dst, now)
	}
}
