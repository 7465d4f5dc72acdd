package wlan

import (
	"fmt"
	"math"
	"net"
	"net/netip"
)

// Position is a point in meters.
type Position struct {
	X, Y, Z float64
}

// DistanceTo returns the Euclidean distance between two positions.
func (p Position) DistanceTo(o Position) float64 {
	dx := p.X - o.X
	dy := p.Y - o.Y
	dz := p.Z - o.Z

	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Role tells whether a node is the access point or a station.
type Role int

// Node roles.
const (
	RoleAP Role = iota
	RoleSTA
)

func (r Role) String() string {
	if r == RoleAP {
		return "AP"
	}

	return "STA"
}

// Node is a host with one wireless interface.
type Node struct {
	ID       int
	Name     string
	Role     Role
	Addr     netip.Addr
	MAC      net.HardwareAddr
	Position Position
}

func (n *Node) String() string {
	return fmt.Sprintf("%s(%s)", n.Name, n.Addr)
}

// NumStations is the number of stations in the default cell.
const NumStations = 4

var defaultPositions = []Position{
	{100, 60, 20},
	{80, 100, 20},
	{50, 100, 20},
	{120, 100, 20},
	{140, 100, 20},
}

// DefaultTopology creates the access point followed by the four stations.
// Interfaces are numbered from 10.0.0.1 in node order.
func DefaultTopology() []*Node {
	nodes := make([]*Node, 0, len(defaultPositions))
	addr := netip.MustParseAddr("10.0.0.1")

	for i, pos := range defaultPositions {
		n := &Node{
			ID:       i,
			Addr:     addr,
			MAC:      net.HardwareAddr{0, 0, 0, 0, 0, byte(i + 1)},
			Position: pos,
		}

		if i == 0 {
			n.Role = RoleAP
			n.Name = "AP"
		} else {
			n.Role = RoleSTA
			n.Name = fmt.Sprintf("STA%d", i)
		}

		nodes = append(nodes, n)
		addr = addr.Next()
	}

	return nodes
}
