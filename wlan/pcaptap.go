package wlan

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"github.com/sarchlab/wlanexp/packet"
	"github.com/sarchlab/wlanexp/sim"
)

// snapLen is the capture length written in the file header.
const snapLen = 65535

// PcapTap writes captured packets as Ethernet frames in the pcap format.
type PcapTap struct {
	w      *pcapgo.Writer
	closer io.Closer
	path   string
	failed bool

	NumPackets int
}

// NewPcapTap writes a pcap stream into w.
func NewPcapTap(w io.Writer) (*PcapTap, error) {
	pw := pcapgo.NewWriter(w)

	err := pw.WriteFileHeader(snapLen, layers.LinkTypeEthernet)
	if err != nil {
		return nil, fmt.Errorf("failed to write pcap header: %w", err)
	}

	return &PcapTap{w: pw}, nil
}

// PcapFileName returns the name of the capture of a device, in the form
// <prefix>-<node>-<device>.pcap.
func PcapFileName(prefix string, nodeID, deviceID int) string {
	return fmt.Sprintf("%s-%d-%d.pcap", prefix, nodeID, deviceID)
}

// NewPcapFileTap creates the capture file of a node's wireless device in dir.
func NewPcapFileTap(dir, prefix string, n *Node) (*PcapTap, error) {
	path := filepath.Join(dir, PcapFileName(prefix, n.ID, 0))

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create capture: %w", err)
	}

	bw := bufio.NewWriter(f)

	t, err := NewPcapTap(bw)
	if err != nil {
		f.Close()
		return nil, err
	}

	t.closer = &bufferedFile{Writer: bw, f: f}
	t.path = path

	return t, nil
}

// Path returns the file the tap writes to, if any.
func (t *PcapTap) Path() string {
	return t.path
}

// Capture writes one packet. Write errors are logged once and further
// packets are ignored.
func (t *PcapTap) Capture(
	p *packet.Packet,
	src, dst *Node,
	now sim.VTimeInSec,
) {
	if t.failed {
		return
	}

	data, err := p.Serialize(src.MAC, dst.MAC)
	if err == nil {
		ci := gopacket.CaptureInfo{
			Timestamp:     time.Unix(0, 0).Add(now.Duration()),
			CaptureLength: len(data),
			Length:        len(data),
		}
		err = t.w.WritePacket(ci, data)
	}

	if err != nil {
		t.failed = true
		log.Printf("pcap capture stopped: %v", err)

		return
	}

	t.NumPackets++
}

// Close closes the capture file.
func (t *PcapTap) Close() error {
	if t.closer == nil {
		return nil
	}

	return t.closer.Close()
}

type bufferedFile struct {
	*bufio.Writer
	f *os.File
}

func (b *bufferedFile) Close() error {
	err := b.Flush()
	if err != nil {
		b.f.Close()
		return err
	}

	return b.f.Close()
}
