package experiment

import (
	"fmt"
	"io"
	"log"
	"net/netip"
	"os"

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

// Fixed parts of the experiment layout.
const (
	SinkPort        = 9
	FirstSourcePort = 49153
	AppStartTime    = sim.VTimeInSec(1.0)
	FirstSampleTime = sim.VTimeInSec(1.1)
	PcapPrefix      = "AccessPoint"
	clickHouseBatch = 1000
)

// Builder can be used to build an experiment.
type Builder struct {
	cfg      config.Config
	out      io.Writer
	logger   *log.Logger
	recorder datarecording.DataRecorder
}

// MakeBuilder creates a builder for the reference experiment that prints to
// stdout and logs to stderr.
func MakeBuilder() Builder {
	return Builder{
		cfg:    config.Default(),
		out:    os.Stdout,
		logger: log.New(os.Stderr, "", log.LstdFlags),
	}
}

// WithConfig sets the configuration of the run.
func (b Builder) WithConfig(cfg config.Config) Builder {
	b.cfg = cfg
	return b
}

// WithOutput sets where the throughput trace and the report are written.
func (b Builder) WithOutput(w io.Writer) Builder {
	b.out = w
	return b
}

// WithLogger sets the logger for progress and diagnostics.
func (b Builder) WithLogger(l *log.Logger) Builder {
	b.logger = l
	return b
}

// WithRecorder makes the run record into the given recorder instead of the
// one named by the configuration.
func (b Builder) WithRecorder(r datarecording.DataRecorder) Builder {
	b.recorder = r
	return b
}

// Build validates the configuration and assembles the experiment. Nothing is
// scheduled and nothing is printed until Run is called.
func (b Builder) Build() (*Experiment, error) {
	params, err := b.cfg.Resolve()
	if err != nil {
		return nil, err
	}

	x := &Experiment{
		cfg:    b.cfg,
		params: params,
		runID:  sim.NewRunID(),
		out:    b.out,
		logger: b.logger,
		engine: sim.NewSerialEngine(),
		flows:  flowmon.NewMonitor(),
	}
	x.engine.RegisterSimulationEndHandler(x.flows)

	b.buildCell(x)
	b.buildEndpoints(x)
	b.buildSampler(x)

	err = b.buildCapture(x)
	if err != nil {
		return nil, err
	}

	err = b.buildRecorder(x)
	if err != nil {
		x.discardCapture()
		return nil, err
	}

	if b.cfg.TraceEvents {
		x.engine.AcceptHook(sim.NewEventLogger(b.logger))
	}

	if b.cfg.MonitorPort > 0 || b.cfg.OpenBrowser {
		b.buildMonitor(x)
	}

	x.report = report.NewGenerator(x.flows, x.sink, b.cfg.SimulationTime)

	return x, nil
}

func (b Builder) buildCell(x *Experiment) {
	x.medium = wlan.MakeBuilder().
		WithEngine(x.engine).
		WithWifiManager(x.params.WifiManager).
		WithQueueLimit(b.cfg.QueueLimit).
		WithFrameErrorRate(b.cfg.FrameErrorRate).
		WithSeed(b.cfg.Seed).
		WithProbe(x.flows).
		Build("Medium")

	x.nodes = wlan.DefaultTopology()
}

func (b Builder) buildEndpoints(x *Experiment) {
	tb := transport.MakeBuilder().
		WithEngine(x.engine).
		WithNetwork(x.medium).
		WithVariant(x.params.TCPVariant).
		WithSegmentSize(int(b.cfg.PayloadSize))

	ap := x.AccessPoint()
	sinkAddr := netip.AddrPortFrom(ap.Addr, SinkPort)
	x.sink = tb.BuildSink(ap.Name+".Sink", sinkAddr)
	x.medium.AddNode(ap, x.sink)

	for _, sta := range x.Stations() {
		sender := tb.BuildSender(
			sta.Name+".Socket",
			netip.AddrPortFrom(sta.Addr, FirstSourcePort),
			sinkAddr,
		)
		x.medium.AddNode(sta, sender)

		app := tb.BuildOnOff(
			sta.Name+".OnOff",
			sender,
			int(b.cfg.PayloadSize),
			x.params.DataRateBps,
		)

		x.senders = append(x.senders, sender)
		x.apps = append(x.apps, app)
	}
}

func (b Builder) buildSampler(x *Experiment) {
	x.sampler = measurement.MakeBuilder().
		WithEngine(x.engine).
		WithCounter(x.sink).
		WithOutput(b.out).
		Build("ThroughputSampler")

	if b.cfg.RateStats {
		x.rateStats = measurement.NewRateStats()
		x.sampler.AcceptHook(x.rateStats)
	}
}

func (b Builder) buildCapture(x *Experiment) error {
	if !b.cfg.Pcap {
		return nil
	}

	err := os.MkdirAll(b.cfg.OutputDir, 0o755)
	if err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tap, err := wlan.NewPcapFileTap(b.cfg.OutputDir, PcapPrefix, x.AccessPoint())
	if err != nil {
		return err
	}

	x.pcap = tap
	x.medium.AddTap(x.AccessPoint(), tap)

	return nil
}

func (b Builder) buildRecorder(x *Experiment) error {
	switch {
	case b.recorder != nil:
		x.recorder = b.recorder
	case b.cfg.ClickHouseDSN != "":
		r, err := datarecording.NewClickHouseRecorder(
			b.cfg.ClickHouseDSN, clickHouseBatch)
		if err != nil {
			return err
		}

		x.recorder = r
	case b.cfg.RecordPath != "":
		x.recorder = datarecording.NewDataRecorder(b.cfg.RecordPath)
	default:
		return nil
	}

	x.sampler.AcceptHook(measurement.NewRecordingHook(x.runID, x.recorder))

	if r, ok := x.recorder.(datarecording.ExecInfoRecorder); ok {
		r.RecordExecInfo("Run ID", x.runID)
		r.RecordExecInfo("TCP Variant", x.params.TCPVariant.Name)
		r.RecordExecInfo("Socket Type", x.params.TCPVariant.String())
		r.RecordExecInfo("Wifi Manager", x.params.WifiManager.Name)
		r.RecordExecInfo("Data Rate", b.cfg.DataRate)
		r.RecordExecInfo("Payload Size", fmt.Sprint(b.cfg.PayloadSize))
		r.RecordExecInfo("Simulation Time", fmt.Sprint(b.cfg.SimulationTime))
	}

	return nil
}

func (b Builder) buildMonitor(x *Experiment) {
	m := monitoring.NewMonitor().WithPortNumber(b.cfg.MonitorPort)
	m.RegisterEngine(x.engine)
	m.RegisterThroughputSource(x.sampler)
	m.RegisterFlowSource(x.flows)
	m.RegisterComponent(x.medium)
	m.RegisterComponent(x.sink)
	m.RegisterComponent(x.sampler)

	for _, s := range x.senders {
		m.RegisterComponent(s)
	}

	for _, q := range x.medium.TxQueues() {
		m.RegisterBuffer(q)
	}

	x.monitor = m
}
