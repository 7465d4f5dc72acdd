// Package experiment assembles the single-cell WLAN experiment, runs its
// timeline and writes the throughput trace and the final report.
package experiment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/sarchlab/wlanexp/config"
	"github.com/sarchlab/wlanexp/datarecording"
	"github.com/sarchlab/wlanexp/flowmon"
	"github.com/sarchlab/wlanexp/measurement"
	"github.com/sarchlab/wlanexp/monitoring"
	"github.com/sarchlab/wlanexp/report"
	"github.com/sarchlab/wlanexp/sim"
	"github.com/sarchlab/wlanexp/transport"
	"github.com/sarchlab/wlanexp/wlan"
)

// ErrAlreadyRun is returned when Run is called a second time.
var ErrAlreadyRun = errors.New("experiment has already run")

// An Experiment is one configured run of the cell: an access point with a
// packet sink and four stations that each push a bulk TCP stream to it.
type Experiment struct {
	cfg    config.Config
	params config.Params
	runID  string
	out    io.Writer
	logger *log.Logger

	engine  *sim.SerialEngine
	medium  *wlan.Medium
	nodes   []*wlan.Node
	sink    *transport.PacketSink
	senders []*transport.StreamSender
	apps    []*transport.OnOffApplication
	sampler *measurement.Sampler
	flows   *flowmon.Monitor
	report  *report.Generator

	rateStats *measurement.RateStats
	pcap      *wlan.PcapTap
	recorder  datarecording.DataRecorder
	monitor   *monitoring.Monitor

	ran bool
}

// RunID returns the identifier of the run in recordings.
func (x *Experiment) RunID() string {
	return x.runID
}

// Engine returns the engine that drives the run.
func (x *Experiment) Engine() *sim.SerialEngine {
	return x.engine
}

// Medium returns the shared wireless channel.
func (x *Experiment) Medium() *wlan.Medium {
	return x.medium
}

// AccessPoint returns the node that hosts the sink.
func (x *Experiment) AccessPoint() *wlan.Node {
	return x.nodes[0]
}

// Stations returns the sending nodes.
func (x *Experiment) Stations() []*wlan.Node {
	return x.nodes[1:]
}

// Sink returns the packet sink whose byte count is sampled.
func (x *Experiment) Sink() *transport.PacketSink {
	return x.sink
}

// Senders returns the sockets of the stations.
func (x *Experiment) Senders() []*transport.StreamSender {
	return x.senders
}

// Sampler returns the throughput sampler.
func (x *Experiment) Sampler() *measurement.Sampler {
	return x.sampler
}

// Flows returns the flow statistics store.
func (x *Experiment) Flows() *flowmon.Monitor {
	return x.flows
}

// Run starts the applications and the sampler, runs the timeline to
// simulationTime + 1 seconds and writes the report. The trace is written
// while the timeline runs.
func (x *Experiment) Run() (report.RunSummary, error) {
	if x.ran {
		return report.RunSummary{}, ErrAlreadyRun
	}
	x.ran = true

	defer x.closeCapture()

	for _, app := range x.apps {
		app.Start(AppStartTime)
	}
	x.sampler.Start(FirstSampleTime)

	stop := sim.Quantize(sim.VTimeInSec(x.cfg.StopTime()))
	x.engine.StopAt(stop)

	if x.monitor != nil {
		x.startMonitor(stop)
		defer x.stopMonitor()
	}

	start := time.Now()

	err := x.engine.Run()
	if err != nil {
		return report.RunSummary{}, fmt.Errorf("simulation failed: %w", err)
	}

	x.engine.Finished()

	x.logger.Printf("simulated %.1f s in %s, %d samples, %d events discarded",
		float64(stop), time.Since(start).Round(time.Millisecond),
		x.sampler.NumSamples(), x.engine.DiscardedEvents())

	err = x.flows.Validate()
	if err != nil {
		return report.RunSummary{}, err
	}

	summary, err := x.report.Write(x.out)
	if err != nil {
		return summary, fmt.Errorf("failed to write report: %w", err)
	}

	if x.rateStats != nil {
		x.logger.Printf("throughput %s", x.rateStats.Summary())
	}

	if x.pcap != nil {
		x.logger.Printf("captured %d packets into %s",
			x.pcap.NumPackets, x.pcap.Path())
	}

	if x.recorder != nil {
		err = x.finishRecording()
		if err != nil {
			return summary, err
		}
	}

	return summary, nil
}

func (x *Experiment) startMonitor(stop sim.VTimeInSec) {
	x.monitor.TrackSimulatedTime(stop)

	url, err := x.monitor.StartServer()
	if err != nil {
		x.logger.Printf("monitoring disabled: %v", err)
		x.monitor = nil

		return
	}

	if x.cfg.OpenBrowser {
		err = monitoring.OpenInBrowser(url)
		if err != nil {
			x.logger.Printf("failed to open browser: %v", err)
		}
	}
}

func (x *Experiment) stopMonitor() {
	if x.monitor == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := x.monitor.StopServer(ctx)
	if err != nil {
		x.logger.Printf("failed to stop monitor: %v", err)
	}
}

func (x *Experiment) finishRecording() error {
	x.report.Record(x.recorder, report.RunInfo{
		RunID:       x.runID,
		TCPVariant:  x.params.TCPVariant.Name,
		WifiManager: x.params.WifiManager.Name,
		DataRate:    x.cfg.DataRate,
		PayloadSize: x.cfg.PayloadSize,
	})

	err := x.recorder.Close()
	if err != nil {
		return fmt.Errorf("failed to close recorder: %w", err)
	}

	return nil
}

// discardCapture closes and removes a capture that will never be written.
func (x *Experiment) discardCapture() {
	if x.pcap == nil {
		return
	}

	x.closeCapture()

	err := os.Remove(x.pcap.Path())
	if err != nil {
		x.logger.Printf("failed to remove capture: %v", err)
	}

	x.pcap = nil
}

func (x *Experiment) closeCapture() {
	if x.pcap == nil {
		return
	}

	err := x.pcap.Close()
	if err != nil {
		x.logger.Printf("failed to close capture: %v", err)
	}
}
