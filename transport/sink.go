package transport

import (
	"log"
	"net/netip"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/sarchlab/wlanexp/packet"
	"github.com/sarchlab/wlanexp/sim"
)

// Delayed acknowledgment parameters.
const (
	DelAckCount                  = 2
	DelAckTimeout sim.VTimeInSec = 0.2
)

type sinkConn struct {
	remote     netip.AddrPort
	rcvNxt     uint64
	unacked    int
	timerGen   uint64
	timerArmed bool
	rxBytes    uint64
	outOfOrder uint64
}

type delAckEvent struct {
	*sim.EventBase
	conn *sinkConn
	gen  uint64
}

// ConnStats are the counters of one connection accepted by a PacketSink.
type ConnStats struct {
	Remote     netip.AddrPort
	RxBytes    uint64
	OutOfOrder uint64
}

// PacketSink accepts every connection to its port and consumes the data.
// Only bytes that arrive in order are delivered and counted; anything else
// is answered with an immediate duplicate acknowledgment. In-order data is
// acknowledged every second segment or when the delayed-ack timer expires.
type PacketSink struct {
	name   string
	engine sim.Engine
	net    Network
	local  netip.AddrPort

	totalRx atomic.Uint64

	connsLock sync.RWMutex
	conns     map[netip.AddrPort]*sinkConn
}

// Name returns the name of the sink.
func (s *PacketSink) Name() string {
	return s.name
}

// Local returns the address the sink listens on.
func (s *PacketSink) Local() netip.AddrPort {
	return s.local
}

// TotalRx returns the number of bytes delivered in order so far, over all
// connections. The value never decreases.
func (s *PacketSink) TotalRx() uint64 {
	return s.totalRx.Load()
}

// Connections returns the counters of every accepted connection, ordered by
// remote address.
func (s *PacketSink) Connections() []ConnStats {
	s.connsLock.RLock()
	defer s.connsLock.RUnlock()

	stats := make([]ConnStats, 0, len(s.conns))
	for _, c := range s.conns {
		stats = append(stats, ConnStats{
			Remote:     c.remote,
			RxBytes:    c.rxBytes,
			OutOfOrder: c.outOfOrder,
		})
	}

	sort.Slice(stats, func(i, j int) bool {
		return stats[i].Remote.Compare(stats[j].Remote) < 0
	})

	return stats
}

func (s *PacketSink) conn(remote netip.AddrPort) *sinkConn {
	s.connsLock.Lock()
	defer s.connsLock.Unlock()

	c, found := s.conns[remote]
	if !found {
		c = &sinkConn{remote: remote}
		s.conns[remote] = c
	}

	return c
}

// Receive processes a data segment.
func (s *PacketSink) Receive(p *packet.Packet, now sim.VTimeInSec) {
	if p.DstPort != s.local.Port() || p.PayloadSize == 0 {
		return
	}

	c := s.conn(netip.AddrPortFrom(p.Src, p.SrcPort))
	size := uint64(p.PayloadSize)

	if p.Seq != uint32(c.rcvNxt) {
		s.connsLock.Lock()
		c.outOfOrder++
		s.connsLock.Unlock()

		s.sendAck(c, now)

		return
	}

	s.connsLock.Lock()
	c.rcvNxt += size
	c.rxBytes += size
	s.connsLock.Unlock()

	s.totalRx.Add(size)

	c.unacked++
	if c.unacked >= DelAckCount {
		s.sendAck(c, now)
		return
	}

	if !c.timerArmed {
		c.timerGen++
		c.timerArmed = true
		s.engine.Schedule(delAckEvent{
			EventBase: sim.NewEventBase(now.Later(DelAckTimeout), s),
			conn:      c,
			gen:       c.timerGen,
		})
	}
}

func (s *PacketSink) sendAck(c *sinkConn, _ sim.VTimeInSec) {
	c.unacked = 0
	c.timerGen++
	c.timerArmed = false

	s.net.Send(packet.NewTCP(s.local, c.remote,
		0, uint32(c.rcvNxt), packet.FlagACK, 0))
}

// Handle processes the delayed-ack timer.
func (s *PacketSink) Handle(e sim.Event) error {
	evt, ok := e.(delAckEvent)
	if !ok {
		log.Panicf("%s cannot handle event of type %T", s.name, e)
	}

	c := evt.conn
	if !c.timerArmed || evt.gen != c.timerGen {
		return nil
	}

	if c.unacked > 0 {
		s.sendAck(c, evt.Time())
	} else {
		c.timerArmed = false
	}

	return nil
}
