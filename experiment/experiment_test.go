package experiment

import (
	"bytes"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/wlanexp/config"
	"github.com/sarchlab/wlanexp/flowmon"
	"github.com/sarchlab/wlanexp/measurement"
	"github.com/sarchlab/wlanexp/report"
	"github.com/sarchlab/wlanexp/sim"
	"github.com/sarchlab/wlanexp/transport"
	"github.com/sarchlab/wlanexp/wlan"
)

type memRecorder struct {
	tables map[string][]any
	order  []string
	closed bool
}

func newMemRecorder() *memRecorder {
	return &memRecorder{tables: make(map[string][]any)}
}

func (r *memRecorder) CreateTable(name string, _ any) {
	r.tables[name] = nil
	r.order = append(r.order, name)
}

func (r *memRecorder) InsertData(name string, entry any) {
	r.tables[name] = append(r.tables[name], entry)
}

func (r *memRecorder) ListTables() []string { return r.order }
func (r *memRecorder) Flush()               {}
func (r *memRecorder) Close() error         { r.closed = true; return nil }

func traceLines(out string) []string {
	var lines []string
	for _, l := range strings.Split(out, "\n") {
		if strings.Contains(l, "s: \t") {
			lines = append(lines, l)
		}
	}

	return lines
}

var _ = Describe("Experiment", func() {
	var (
		cfg    config.Config
		out    *bytes.Buffer
		logger *log.Logger
	)

	build := func() (*Experiment, error) {
		return MakeBuilder().
			WithConfig(cfg).
			WithOutput(out).
			WithLogger(logger).
			Build()
	}

	BeforeEach(func() {
		cfg = config.Default()
		cfg.Pcap = false
		cfg.SimulationTime = 2
		out = new(bytes.Buffer)
		logger = log.New(io.Discard, "", 0)
	})

	It("should abort before any output on an unknown TCP variant", func() {
		cfg.TCPVariant = "TcpFoo"

		x, err := build()

		Expect(x).To(BeNil())
		Expect(err).To(MatchError(transport.ErrUnknownTCPVariant))
		Expect(out.Len()).To(Equal(0))
	})

	It("should abort on an unknown wifi manager", func() {
		cfg.WifiManager = "Magic"

		_, err := build()

		Expect(err).To(MatchError(wlan.ErrUnknownWifiManager))
		Expect(out.Len()).To(Equal(0))
	})

	It("should abort on a bad data rate", func() {
		cfg.DataRate = "fast"

		_, err := build()

		Expect(err).To(MatchError(config.ErrInvalidDataRate))
	})

	It("should lay out one access point and four stations", func() {
		x, err := build()
		Expect(err).NotTo(HaveOccurred())

		Expect(x.AccessPoint().Role).To(Equal(wlan.RoleAP))
		Expect(x.Stations()).To(HaveLen(wlan.NumStations))
		Expect(x.Senders()).To(HaveLen(wlan.NumStations))
		Expect(x.Medium().Nodes()).To(HaveLen(wlan.NumStations + 1))
		Expect(x.Sink().Local().Port()).To(Equal(uint16(SinkPort)))

		for _, s := range x.Senders() {
			Expect(s.Local().Port()).To(Equal(uint16(FirstSourcePort)))
			Expect(s.Variant().Name).To(Equal("TcpVeno"))
		}
	})

	Context("when the whole run is simulated", func() {
		var (
			x       *Experiment
			ticks   []measurement.SampleTick
			summary report.RunSummary
		)

		BeforeEach(func() {
			cfg.SimulationTime = 10

			var err error
			x, err = build()
			Expect(err).NotTo(HaveOccurred())

			ticks = nil
			x.Sampler().AcceptHook(sim.HookFunc(func(ctx sim.HookCtx) {
				if ctx.Pos == measurement.HookPosSample {
					ticks = append(ticks, ctx.Item.(measurement.SampleTick))
				}
			}))

			summary, err = x.Run()
			Expect(err).NotTo(HaveOccurred())
		})

		It("should sample every 100 ms from 1.1 s to the stop time", func() {
			Expect(ticks).To(HaveLen(100))
			Expect(float64(ticks[0].Time)).To(BeNumerically("~", 1.1, 1e-9))
			Expect(float64(ticks[99].Time)).To(BeNumerically("~", 11, 1e-9))

			lines := traceLines(out.String())
			Expect(lines).To(HaveLen(100))
			Expect(lines[0]).To(HavePrefix("1.1s: \t"))
			Expect(lines[99]).To(HavePrefix("11s: \t"))
		})

		It("should account for every received byte in the trace", func() {
			var sum uint64
			for _, t := range ticks {
				sum += t.DeltaBytes
			}

			Expect(x.Sink().TotalRx()).To(BeNumerically(">", 0))
			Expect(sum).To(Equal(x.Sink().TotalRx()))
		})

		It("should never receive more than was sent on a flow", func() {
			flows := x.Flows().AllFlows()
			Expect(flows).NotTo(BeEmpty())

			for i, f := range flows {
				Expect(f.ID).To(Equal(flowmon.FlowID(i + 1)))
				Expect(f.Stats.RxPackets).To(BeNumerically("<=", f.Stats.TxPackets))
				Expect(f.Stats.RxBytes).To(BeNumerically("<=", f.Stats.TxBytes))
			}
		})

		It("should see a data flow from every station", func() {
			sources := map[string]bool{}
			for _, f := range x.Flows().AllFlows() {
				if f.Tuple.DstPort == SinkPort {
					sources[f.Tuple.Src.String()] = true
				}
			}

			Expect(sources).To(HaveLen(wlan.NumStations))
		})

		It("should report the average over the nominal duration", func() {
			expected := float64(x.Sink().TotalRx()) * 8 / 1e7

			Expect(summary.AverageThroughputMbps).To(BeNumerically("~", expected, 1e-9))
			Expect(summary.AverageThroughputMbps).To(BeNumerically("<", 11))
			Expect(out.String()).To(HaveSuffix(
				"\nAverage throughput: " +
					measurement.FormatFloat(summary.AverageThroughputMbps) +
					" Mbit/s\n"))
			Expect(out.String()).To(ContainSubstring("Flow1(10.0.0."))
		})

		It("should refuse to run twice", func() {
			_, err := x.Run()

			Expect(err).To(MatchError(ErrAlreadyRun))
		})
	})

	It("should produce the same output for the same configuration", func() {
		x1, err := build()
		Expect(err).NotTo(HaveOccurred())
		_, err = x1.Run()
		Expect(err).NotTo(HaveOccurred())
		first := out.String()

		out = new(bytes.Buffer)
		x2, err := build()
		Expect(err).NotTo(HaveOccurred())
		_, err = x2.Run()
		Expect(err).NotTo(HaveOccurred())

		Expect(out.String()).To(Equal(first))
	})

	It("should capture the access point traffic", func() {
		cfg.Pcap = true
		cfg.OutputDir = GinkgoT().TempDir()

		x, err := build()
		Expect(err).NotTo(HaveOccurred())
		_, err = x.Run()
		Expect(err).NotTo(HaveOccurred())

		path := filepath.Join(cfg.OutputDir, "AccessPoint-0-0.pcap")
		_, err = os.Stat(path)
		Expect(err).NotTo(HaveOccurred())

		capture, err := flowmon.SummarizeCaptureFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(capture.Skipped).To(Equal(0))
		Expect(len(capture.Flows)).To(BeNumerically(">=", wlan.NumStations))
	})

	It("should leave no capture behind when the recorder fails", func() {
		cfg.Pcap = true
		cfg.OutputDir = GinkgoT().TempDir()
		cfg.ClickHouseDSN = "clickhouse://127.0.0.1:1/default?dial_timeout=200ms"

		x, err := build()

		Expect(x).To(BeNil())
		Expect(err).To(HaveOccurred())
		Expect(out.Len()).To(Equal(0))

		entries, err := os.ReadDir(cfg.OutputDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(BeEmpty())
	})

	It("should record the trace, the flows and the summary", func() {
		rec := newMemRecorder()

		x, err := MakeBuilder().
			WithConfig(cfg).
			WithOutput(out).
			WithLogger(logger).
			WithRecorder(rec).
			Build()
		Expect(err).NotTo(HaveOccurred())

		_, err = x.Run()
		Expect(err).NotTo(HaveOccurred())

		Expect(rec.tables[measurement.ThroughputTable]).To(HaveLen(20))
		Expect(rec.tables[report.FlowsTable]).To(HaveLen(len(x.Flows().AllFlows())))
		Expect(rec.tables[report.RunSummaryTable]).To(HaveLen(1))

		entry := rec.tables[measurement.ThroughputTable][0].(measurement.ThroughputEntry)
		Expect(entry.RunID).To(Equal(x.RunID()))
		Expect(rec.closed).To(BeTrue())
	})

	It("should log events when tracing is on", func() {
		cfg.TraceEvents = true
		cfg.SimulationTime = 0.2
		logBuf := new(bytes.Buffer)
		logger = log.New(logBuf, "", 0)

		x, err := build()
		Expect(err).NotTo(HaveOccurred())
		_, err = x.Run()
		Expect(err).NotTo(HaveOccurred())

		Expect(logBuf.String()).To(ContainSubstring("ThroughputSampler"))
	})

	It("should summarize the rates when asked", func() {
		cfg.RateStats = true
		logBuf := new(bytes.Buffer)
		logger = log.New(logBuf, "", 0)

		x, err := build()
		Expect(err).NotTo(HaveOccurred())
		_, err = x.Run()
		Expect(err).NotTo(HaveOccurred())

		Expect(logBuf.String()).To(ContainSubstring("samples=20"))
	})
})
