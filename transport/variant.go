// Package transport provides the TCP endpoints of the experiment: a
// constant-bit-rate source, a window-limited stream sender and a packet sink
// that counts the bytes it delivers in order.
package transport

import (
	"errors"
	"fmt"
)

// ErrUnknownTCPVariant is returned for a congestion-control variant name
// that is not supported.
var ErrUnknownTCPVariant = errors.New("unknown TCP variant")

// TCPVariant identifies the congestion-control flavor of the sockets. The
// variant is carried as configuration; the endpoints do not change their
// behavior with it.
type TCPVariant struct {
	// Name is the name the user selects.
	Name string

	// SocketType is the socket type the name resolves to.
	SocketType string

	// ProtocolType is the flavor option of socket types that implement
	// several, empty otherwise.
	ProtocolType string
}

var tcpVariantNames = []string{
	"TcpNewReno", "TcpHybla", "TcpHighSpeed", "TcpHtcp", "TcpVegas",
	"TcpScalable", "TcpVeno", "TcpBic", "TcpYeah", "TcpIllinois",
	"TcpWestwood", "TcpWestwoodPlus", "TcpLedbat",
}

// ParseTCPVariant resolves a variant name. TcpWestwoodPlus is not a socket
// type of its own; it selects TcpWestwood with the WESTWOODPLUS protocol.
func ParseTCPVariant(name string) (TCPVariant, error) {
	switch name {
	case "TcpWestwoodPlus":
		return TCPVariant{
			Name:         name,
			SocketType:   "ns3::TcpWestwood",
			ProtocolType: "WESTWOODPLUS",
		}, nil
	case "TcpWestwood":
		return TCPVariant{
			Name:         name,
			SocketType:   "ns3::TcpWestwood",
			ProtocolType: "WESTWOOD",
		}, nil
	}

	for _, n := range tcpVariantNames {
		if n == name {
			return TCPVariant{Name: name, SocketType: "ns3::" + name}, nil
		}
	}

	return TCPVariant{}, fmt.Errorf("%w: TypeId ns3::%s not found",
		ErrUnknownTCPVariant, name)
}

// TCPVariantNames lists the supported variants.
func TCPVariantNames() []string {
	names := make([]string, len(tcpVariantNames))
	copy(names, tcpVariantNames)

	return names
}

func (v TCPVariant) String() string {
	if v.ProtocolType == "" {
		return v.SocketType
	}

	return v.SocketType + "[" + v.ProtocolType + "]"
}
