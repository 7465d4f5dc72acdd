package transport

import "github.com/sarchlab/wlanexp/packet"

// Network carries packets from their source address to their destination
// address.
type Network interface {
	Send(p *packet.Packet)
}

// Socket is the sending side of a connection as seen by an application.
type Socket interface {
	// Send queues n bytes for transmission. It returns false and queues
	// nothing if the send buffer lacks room for all n bytes.
	Send(n int) bool
}
