package transport

import (
	"log"
	"math"
	"net/netip"
	"sync"

	"github.com/sarchlab/wlanexp/packet"
	"github.com/sarchlab/wlanexp/sim"
)

// Retransmission timer bounds.
const (
	InitialRTO sim.VTimeInSec = 1
	MinRTO     sim.VTimeInSec = 0.2
	MaxRTO     sim.VTimeInSec = 60
)

// SenderStats are the counters of a StreamSender.
type SenderStats struct {
	BytesAccepted   uint64
	BytesRejected   uint64
	BytesAcked      uint64
	SegmentsSent    uint64
	Retransmissions uint64
	Timeouts        uint64
	SRTT            sim.VTimeInSec
	RTO             sim.VTimeInSec
}

type rtoEvent struct {
	*sim.EventBase
	gen uint64
}

// StreamSender is the sending end of a TCP connection. It keeps at most one
// receive window of unacknowledged bytes in flight, advances on cumulative
// acknowledgments and goes back to the first unacknowledged byte when the
// retransmission timer expires. The connection is considered established
// from the start.
type StreamSender struct {
	name        string
	engine      sim.Engine
	net         Network
	local       netip.AddrPort
	remote      netip.AddrPort
	variant     TCPVariant
	segmentSize int
	sndBufSize  uint64
	rwnd        uint64

	bufferedEnd uint64
	sndUna      uint64
	sndNxt      uint64
	highTx      uint64

	srtt   sim.VTimeInSec
	rttvar sim.VTimeInSec
	rto    sim.VTimeInSec
	hasRTT bool

	timing   bool
	timedSeq uint64
	timedAt  sim.VTimeInSec

	rtoGen   uint64
	rtoArmed bool

	statsLock sync.RWMutex
	stats     SenderStats
}

// Name returns the name of the sender.
func (s *StreamSender) Name() string {
	return s.name
}

// Local returns the address the sender sends from.
func (s *StreamSender) Local() netip.AddrPort {
	return s.local
}

// Variant returns the congestion-control variant of the socket.
func (s *StreamSender) Variant() TCPVariant {
	return s.variant
}

// Stats returns a snapshot of the counters.
func (s *StreamSender) Stats() SenderStats {
	s.statsLock.RLock()
	defer s.statsLock.RUnlock()

	return s.stats
}

func (s *StreamSender) updateStats(f func(st *SenderStats)) {
	s.statsLock.Lock()
	f(&s.stats)
	s.statsLock.Unlock()
}

// Send queues n bytes from the application.
func (s *StreamSender) Send(n int) bool {
	if n <= 0 {
		return true
	}

	if s.bufferedEnd-s.sndUna+uint64(n) > s.sndBufSize {
		s.updateStats(func(st *SenderStats) { st.BytesRejected += uint64(n) })
		return false
	}

	s.bufferedEnd += uint64(n)
	s.updateStats(func(st *SenderStats) { st.BytesAccepted += uint64(n) })

	s.trySend(s.engine.CurrentTime())

	return true
}

// InFlight returns the number of bytes sent but not acknowledged.
func (s *StreamSender) InFlight() uint64 {
	return s.sndNxt - s.sndUna
}

func (s *StreamSender) trySend(now sim.VTimeInSec) {
	for s.sndNxt < s.bufferedEnd {
		size := uint64(s.segmentSize)
		if s.bufferedEnd-s.sndNxt < size {
			size = s.bufferedEnd - s.sndNxt
		}

		if s.sndNxt+size-s.sndUna > s.rwnd {
			break
		}

		s.sendSegment(now, size)
	}
}

func (s *StreamSender) sendSegment(now sim.VTimeInSec, size uint64) {
	retransmission := s.sndNxt < s.highTx

	p := packet.NewTCP(s.local, s.remote,
		uint32(s.sndNxt), 0, packet.FlagACK, int(size))

	if !retransmission && !s.timing {
		s.timing = true
		s.timedSeq = s.sndNxt + size
		s.timedAt = now
	}

	s.sndNxt += size
	if s.sndNxt > s.highTx {
		s.highTx = s.sndNxt
	}

	s.updateStats(func(st *SenderStats) {
		st.SegmentsSent++
		if retransmission {
			st.Retransmissions++
		}
	})

	if !s.rtoArmed {
		s.armRTO(now)
	}

	s.net.Send(p)
}

// unwrapAck maps a 32-bit acknowledgment number onto the stream offset
// closest above sndUna. Less than a window is ever in flight, so the
// distance never reaches 2^31.
func (s *StreamSender) unwrapAck(ack uint32) uint64 {
	return s.sndUna + uint64(ack-uint32(s.sndUna))
}

// Receive processes an acknowledgment from the peer.
func (s *StreamSender) Receive(p *packet.Packet, now sim.VTimeInSec) {
	if p.Src != s.remote.Addr() || p.SrcPort != s.remote.Port() {
		return
	}

	ack := s.unwrapAck(p.Ack)
	if ack <= s.sndUna || ack > s.highTx {
		return
	}

	acked := ack - s.sndUna
	s.sndUna = ack

	if s.sndNxt < s.sndUna {
		s.sndNxt = s.sndUna
	}

	if s.timing && ack >= s.timedSeq {
		s.timing = false
		s.updateRTT(now - s.timedAt)
	}

	s.updateStats(func(st *SenderStats) { st.BytesAcked += acked })

	if s.sndUna == s.sndNxt {
		s.cancelRTO()
	} else {
		s.armRTO(now)
	}

	s.trySend(now)
}

func (s *StreamSender) updateRTT(sample sim.VTimeInSec) {
	if !s.hasRTT {
		s.hasRTT = true
		s.srtt = sample
		s.rttvar = sample / 2
	} else {
		diff := sim.VTimeInSec(math.Abs(float64(s.srtt - sample)))
		s.rttvar = 0.75*s.rttvar + 0.25*diff
		s.srtt = 0.875*s.srtt + 0.125*sample
	}

	s.rto = s.srtt + 4*s.rttvar
	if s.rto < MinRTO {
		s.rto = MinRTO
	}

	if s.rto > MaxRTO {
		s.rto = MaxRTO
	}

	srtt, rto := s.srtt, s.rto
	s.updateStats(func(st *SenderStats) {
		st.SRTT = srtt
		st.RTO = rto
	})
}

func (s *StreamSender) armRTO(now sim.VTimeInSec) {
	s.rtoGen++
	s.rtoArmed = true

	s.engine.Schedule(rtoEvent{
		EventBase: sim.NewEventBase(now.Later(s.rto), s),
		gen:       s.rtoGen,
	})
}

func (s *StreamSender) cancelRTO() {
	s.rtoGen++
	s.rtoArmed = false
}

// Handle processes the retransmission timer.
func (s *StreamSender) Handle(e sim.Event) error {
	evt, ok := e.(rtoEvent)
	if !ok {
		log.Panicf("%s cannot handle event of type %T", s.name, e)
	}

	if !s.rtoArmed || evt.gen != s.rtoGen {
		return nil
	}

	s.rtoArmed = false
	s.timing = false
	s.sndNxt = s.sndUna

	s.rto *= 2
	if s.rto > MaxRTO {
		s.rto = MaxRTO
	}

	rto := s.rto
	s.updateStats(func(st *SenderStats) {
		st.Timeouts++
		st.RTO = rto
	})

	s.trySend(evt.Time())

	return nil
}
