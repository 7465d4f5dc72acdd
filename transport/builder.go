package transport

import (
	"log"
	"net/netip"

	"github.com/sarchlab/wlanexp/sim"
)

// Socket defaults.
const (
	DefaultSegmentSize = 536
	DefaultSndBufSize  = 131072
	DefaultRcvWindow   = 65535
)

// Builder can build the endpoints of the experiment.
type Builder struct {
	engine      sim.Engine
	net         Network
	variant     TCPVariant
	segmentSize int
	sndBufSize  int
	rcvWindow   int
}

// MakeBuilder creates a Builder with TcpNewReno sockets and default buffers.
func MakeBuilder() Builder {
	v, _ := ParseTCPVariant("TcpNewReno")

	return Builder{
		variant:     v,
		segmentSize: DefaultSegmentSize,
		sndBufSize:  DefaultSndBufSize,
		rcvWindow:   DefaultRcvWindow,
	}
}

// WithEngine sets the engine that schedules timers.
func (b Builder) WithEngine(e sim.Engine) Builder {
	b.engine = e
	return b
}

// WithNetwork sets the network that carries the packets.
func (b Builder) WithNetwork(n Network) Builder {
	b.net = n
	return b
}

// WithVariant sets the congestion-control variant of the sockets.
func (b Builder) WithVariant(v TCPVariant) Builder {
	b.variant = v
	return b
}

// WithSegmentSize sets the maximum payload of a segment.
func (b Builder) WithSegmentSize(n int) Builder {
	b.segmentSize = n
	return b
}

// WithSendBufferSize sets the capacity of the send buffer.
func (b Builder) WithSendBufferSize(n int) Builder {
	b.sndBufSize = n
	return b
}

// WithReceiveWindow sets the window the receiver advertises.
func (b Builder) WithReceiveWindow(n int) Builder {
	b.rcvWindow = n
	return b
}

func (b Builder) mustHaveEngineAndNetwork() {
	if b.engine == nil {
		log.Panic("transport endpoints require an engine")
	}

	if b.net == nil {
		log.Panic("transport endpoints require a network")
	}
}

// BuildSender creates the sending end of a connection.
func (b Builder) BuildSender(
	name string,
	local, remote netip.AddrPort,
) *StreamSender {
	b.mustHaveEngineAndNetwork()

	if b.segmentSize <= 0 || b.rcvWindow < b.segmentSize {
		log.Panicf("invalid segment size %d for window %d",
			b.segmentSize, b.rcvWindow)
	}

	return &StreamSender{
		name:        name,
		engine:      b.engine,
		net:         b.net,
		local:       local,
		remote:      remote,
		variant:     b.variant,
		segmentSize: b.segmentSize,
		sndBufSize:  uint64(b.sndBufSize),
		rwnd:        uint64(b.rcvWindow),
		rto:         InitialRTO,
		stats:       SenderStats{RTO: InitialRTO},
	}
}

// BuildSink creates a sink that listens on local.
func (b Builder) BuildSink(name string, local netip.AddrPort) *PacketSink {
	b.mustHaveEngineAndNetwork()

	return &PacketSink{
		name:   name,
		engine: b.engine,
		net:    b.net,
		local:  local,
		conns:  make(map[netip.AddrPort]*sinkConn),
	}
}

// BuildOnOff creates a constant-bit-rate source that writes packetSize
// chunks into the socket.
func (b Builder) BuildOnOff(
	name string,
	socket Socket,
	packetSize int,
	dataRateBps float64,
) *OnOffApplication {
	if b.engine == nil {
		log.Panic("on/off application requires an engine")
	}

	a := &OnOffApplication{
		name:        name,
		socket:      socket,
		packetSize:  packetSize,
		dataRateBps: dataRateBps,
	}
	a.ticker = sim.NewRecurringTicker(b.engine,
		chunkInterval(packetSize, dataRateBps), a)

	return a
}
