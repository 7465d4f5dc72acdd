// Package report prints the end-of-run flow statistics and the average
// throughput of an experiment.
package report

import (
	"bufio"
	"fmt"
	"io"

	"github.com/sarchlab/wlanexp/flowmon"
	"github.com/sarchlab/wlanexp/measurement"
)

// FlowSource provides the flow statistics of a finished run.
type FlowSource interface {
	AllFlows() []flowmon.FlowRecord
}

// RunSummary holds the run-wide figures of the report.
type RunSummary struct {
	TotalRxBytes          uint64
	SimulationTime        float64
	AverageThroughputMbps float64
}

// AverageThroughputMbps computes the mean goodput over the nominal run
// duration, in Mbit/s.
func AverageThroughputMbps(totalRxBytes uint64, simulationTime float64) float64 {
	return float64(totalRxBytes) * 8 / (1e6 * simulationTime)
}

// A Generator writes the final report of a run. It only reads its inputs, so
// the same report can be produced any number of times.
type Generator struct {
	flows          FlowSource
	counter        measurement.ByteCounter
	simulationTime float64
}

// NewGenerator creates a Generator. The simulation time is the nominal run
// duration, not the time the engine stopped at.
func NewGenerator(
	flows FlowSource,
	counter measurement.ByteCounter,
	simulationTime float64,
) *Generator {
	if simulationTime <= 0 {
		panic("simulation time must be positive")
	}

	return &Generator{
		flows:          flows,
		counter:        counter,
		simulationTime: simulationTime,
	}
}

// Summary computes the run summary.
func (g *Generator) Summary() RunSummary {
	total := g.counter.TotalRx()

	return RunSummary{
		TotalRxBytes:          total,
		SimulationTime:        g.simulationTime,
		AverageThroughputMbps: AverageThroughputMbps(total, g.simulationTime),
	}
}

// Write prints one block per flow in ascending flow ID order, followed by the
// average throughput.
func (g *Generator) Write(w io.Writer) (RunSummary, error) {
	bw := bufio.NewWriter(w)

	for _, f := range g.flows.AllFlows() {
		writeFlow(bw, f)
	}

	summary := g.Summary()
	fmt.Fprintf(bw, "\nAverage throughput: %s Mbit/s\n",
		measurement.FormatFloat(summary.AverageThroughputMbps))

	err := bw.Flush()
	if err != nil {
		return summary, fmt.Errorf("failed to write report: %w", err)
	}

	return summary, nil
}

func writeFlow(w io.Writer, f flowmon.FlowRecord) {
	fmt.Fprintf(w, "Flow%d(%s->%s)\n", f.ID, f.Tuple.Src, f.Tuple.Dst)
	fmt.Fprintf(w, " Tx Bytes: %d\n", f.Stats.TxBytes)
	fmt.Fprintf(w, " Rx Bytes: %d\n", f.Stats.RxBytes)
	fmt.Fprintf(w, "  Tx Packets: %d\n", f.Stats.TxPackets)
	fmt.Fprintf(w, "  Rx Packets: %d\n", f.Stats.RxPackets)
	fmt.Fprintf(w, "  lostPackets: %d\n", f.Stats.LostPackets)
}
