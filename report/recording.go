package report

import (
	"github.com/sarchlab/wlanexp/datarecording"
)

// Tables written by Record.
const (
	FlowsTable      = "flows"
	RunSummaryTable = "run_summary"
)

// FlowEntry is one row of the flows table.
type FlowEntry struct {
	RunID       string
	FlowID      uint32
	Src         string
	Dst         string
	SrcPort     uint16
	DstPort     uint16
	Protocol    uint8
	TxBytes     uint64
	RxBytes     uint64
	TxPackets   uint64
	RxPackets   uint64
	LostPackets uint64
	MeanDelay   float64
}

// RunSummaryEntry is the row of the run_summary table.
type RunSummaryEntry struct {
	RunID                 string
	TCPVariant            string
	WifiManager           string
	DataRate              string
	PayloadSize           uint32
	SimulationTime        float64
	TotalRxBytes          uint64
	AverageThroughputMbps float64
}

// RunInfo describes the configuration a report belongs to.
type RunInfo struct {
	RunID       string
	TCPVariant  string
	WifiManager string
	DataRate    string
	PayloadSize uint32
}

// Record writes the flows and the summary of the run into a recorder.
func (g *Generator) Record(
	recorder datarecording.DataRecorder,
	info RunInfo,
) {
	recorder.CreateTable(FlowsTable, FlowEntry{})
	recorder.CreateTable(RunSummaryTable, RunSummaryEntry{})

	for _, f := range g.flows.AllFlows() {
		recorder.InsertData(FlowsTable, FlowEntry{
			RunID:       info.RunID,
			FlowID:      uint32(f.ID),
			Src:         f.Tuple.Src.String(),
			Dst:         f.Tuple.Dst.String(),
			SrcPort:     f.Tuple.SrcPort,
			DstPort:     f.Tuple.DstPort,
			Protocol:    f.Tuple.Protocol,
			TxBytes:     f.Stats.TxBytes,
			RxBytes:     f.Stats.RxBytes,
			TxPackets:   f.Stats.TxPackets,
			RxPackets:   f.Stats.RxPackets,
			LostPackets: f.Stats.LostPackets,
			MeanDelay:   float64(f.Stats.MeanDelay()),
		})
	}

	summary := g.Summary()
	recorder.InsertData(RunSummaryTable, RunSummaryEntry{
		RunID:                 info.RunID,
		TCPVariant:            info.TCPVariant,
		WifiManager:           info.WifiManager,
		DataRate:              info.DataRate,
		PayloadSize:           info.PayloadSize,
		SimulationTime:        summary.SimulationTime,
		TotalRxBytes:          summary.TotalRxBytes,
		AverageThroughputMbps: summary.AverageThroughputMbps,
	})

	recorder.Flush()
}
