package flowmon

import (
	"errors"
	"fmt"
	"io"
	"net/netip"
	"os"
	"sort"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// ErrNotIPv4 is returned when a frame does not carry an IPv4 datagram.
var ErrNotIPv4 = errors.New("not an IPv4 packet")

// ErrNoTransport is returned when a frame carries neither TCP nor UDP.
var ErrNoTransport = errors.New("not a TCP or UDP packet")

// DecodeFiveTuple decodes a captured frame and returns its five-tuple and the
// size of its IP datagram.
func DecodeFiveTuple(
	frame []byte,
	linkType layers.LinkType,
) (FiveTuple, int, error) {
	var tuple FiveTuple

	pkt := gopacket.NewPacket(frame, linkType, gopacket.Default)

	l := pkt.Layer(layers.LayerTypeIPv4)
	if l == nil {
		return tuple, 0, ErrNotIPv4
	}

	ip := l.(*layers.IPv4)
	tuple.Protocol = uint8(ip.Protocol)
	tuple.Src, _ = netip.AddrFromSlice(ip.SrcIP.To4())
	tuple.Dst, _ = netip.AddrFromSlice(ip.DstIP.To4())

	if l := pkt.Layer(layers.LayerTypeTCP); l != nil {
		tcp := l.(*layers.TCP)
		tuple.SrcPort = uint16(tcp.SrcPort)
		tuple.DstPort = uint16(tcp.DstPort)
	} else if l := pkt.Layer(layers.LayerTypeUDP); l != nil {
		udp := l.(*layers.UDP)
		tuple.SrcPort = uint16(udp.SrcPort)
		tuple.DstPort = uint16(udp.DstPort)
	} else {
		return tuple, 0, ErrNoTransport
	}

	return tuple, int(ip.Length), nil
}

// CaptureFlow is the summary of one flow found in a capture file.
type CaptureFlow struct {
	ID      FlowID
	Tuple   FiveTuple
	Packets uint64
	Bytes   uint64
}

// CaptureSummary is the flow table of a capture file.
type CaptureSummary struct {
	Flows   []CaptureFlow
	Skipped int
}

// SummarizeCapture reads a pcap stream and classifies every frame.
func SummarizeCapture(r io.Reader) (*CaptureSummary, error) {
	reader, err := pcapgo.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture: %w", err)
	}

	classifier := NewClassifier()
	flows := make(map[FlowID]*CaptureFlow)
	summary := &CaptureSummary{}

	for {
		data, _, err := reader.ReadPacketData()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("failed to read capture: %w", err)
		}

		tuple, size, err := DecodeFiveTuple(data, reader.LinkType())
		if err != nil {
			summary.Skipped++
			continue
		}

		id := classifier.Classify(tuple)

		f, found := flows[id]
		if !found {
			f = &CaptureFlow{ID: id, Tuple: tuple}
			flows[id] = f
		}

		f.Packets++
		f.Bytes += uint64(size)
	}

	for _, f := range flows {
		summary.Flows = append(summary.Flows, *f)
	}

	sort.Slice(summary.Flows, func(i, j int) bool {
		return summary.Flows[i].ID < summary.Flows[j].ID
	})

	return summary, nil
}

// SummarizeCaptureFile opens a pcap file and summarizes it.
func SummarizeCaptureFile(path string) (*CaptureSummary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return SummarizeCapture(f)
}
