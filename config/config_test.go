package config_test

import (
	"math"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/pflag"

	"github.com/sarchlab/wlanexp/config"
	"github.com/sarchlab/wlanexp/transport"
	"github.com/sarchlab/wlanexp/wlan"
)

var _ = Describe("Config", func() {
	It("should default to the reference experiment", func() {
		c := config.Default()

		Expect(c.PayloadSize).To(Equal(uint32(1472)))
		Expect(c.DataRate).To(Equal("100Mbps"))
		Expect(c.TCPVariant).To(Equal("TcpVeno"))
		Expect(c.SimulationTime).To(Equal(10.0))
		Expect(c.Pcap).To(BeTrue())
		Expect(c.WifiManager).To(Equal("Arf"))
		Expect(c.StopTime()).To(Equal(11.0))
	})

	It("should resolve a valid configuration", func() {
		p, err := config.Default().Resolve()

		Expect(err).NotTo(HaveOccurred())
		Expect(p.TCPVariant.SocketType).To(Equal("ns3::TcpVeno"))
		Expect(p.WifiManager.Name).To(Equal("Arf"))
		Expect(p.DataRateBps).To(Equal(100e6))
	})

	DescribeTable("invalid configurations",
		func(mutate func(c *config.Config), target error) {
			c := config.Default()
			mutate(&c)

			err := c.Validate()

			Expect(err).To(HaveOccurred())
			if target != nil {
				Expect(err).To(MatchError(target))
			}
		},
		Entry("unknown variant",
			func(c *config.Config) { c.TCPVariant = "TcpFoo" },
			transport.ErrUnknownTCPVariant),
		Entry("unknown manager",
			func(c *config.Config) { c.WifiManager = "Foo" },
			wlan.ErrUnknownWifiManager),
		Entry("bad rate",
			func(c *config.Config) { c.DataRate = "fast" },
			config.ErrInvalidDataRate),
		Entry("zero payload",
			func(c *config.Config) { c.PayloadSize = 0 }, nil),
		Entry("zero duration",
			func(c *config.Config) { c.SimulationTime = 0 }, nil),
		Entry("undefined duration",
			func(c *config.Config) { c.SimulationTime = math.NaN() }, nil),
		Entry("endless duration",
			func(c *config.Config) { c.SimulationTime = math.Inf(1) }, nil),
		Entry("undefined frame loss",
			func(c *config.Config) { c.FrameErrorRate = math.NaN() }, nil),
		Entry("certain frame loss",
			func(c *config.Config) { c.FrameErrorRate = 1 }, nil),
		Entry("empty queue",
			func(c *config.Config) { c.QueueLimit = 0 }, nil),
		Entry("bad port",
			func(c *config.Config) { c.MonitorPort = 70000 }, nil),
	)

	It("should refuse to overwrite a recording", func() {
		path := filepath.Join(GinkgoT().TempDir(), "run")
		Expect(os.WriteFile(path+".sqlite3", nil, 0o644)).To(Succeed())

		c := config.Default()
		c.RecordPath = path

		Expect(c.Validate()).To(MatchError(ContainSubstring("already exists")))
	})

	It("should overlay a YAML file", func() {
		path := filepath.Join(GinkgoT().TempDir(), "exp.yaml")
		Expect(os.WriteFile(path, []byte(
			"tcp_variant: TcpWestwoodPlus\nsimulation_time: 3\npcap: false\n"),
			0o644)).To(Succeed())

		c := config.Default()
		Expect(config.LoadFile(path, &c)).To(Succeed())

		Expect(c.TCPVariant).To(Equal("TcpWestwoodPlus"))
		Expect(c.SimulationTime).To(Equal(3.0))
		Expect(c.Pcap).To(BeFalse())
		Expect(c.PayloadSize).To(Equal(uint32(1472)))
	})

	It("should report a missing YAML file", func() {
		c := config.Default()
		Expect(config.LoadFile("/nonexistent/exp.yaml", &c)).To(HaveOccurred())
	})

	It("should overlay the env file and the environment", func() {
		dir := GinkgoT().TempDir()
		envFile := filepath.Join(dir, ".env")
		Expect(os.WriteFile(envFile, []byte(
			"WLANEXP_DATA_RATE=20Mbps\nWLANEXP_PAYLOAD_SIZE=1000\n"),
			0o644)).To(Succeed())
		GinkgoT().Setenv("WLANEXP_PAYLOAD_SIZE", "500")

		c := config.Default()
		Expect(config.LoadEnv(envFile, &c)).To(Succeed())

		Expect(c.DataRate).To(Equal("20Mbps"))
		Expect(c.PayloadSize).To(Equal(uint32(500)))
	})

	It("should ignore a missing env file", func() {
		c := config.Default()
		Expect(config.LoadEnv(filepath.Join(GinkgoT().TempDir(), ".env"), &c)).
			To(Succeed())
		Expect(c).To(Equal(config.Default()))
	})

	It("should report invalid environment values", func() {
		GinkgoT().Setenv("WLANEXP_SIMULATION_TIME", "long")

		c := config.Default()
		Expect(config.LoadEnv("", &c)).To(MatchError(ContainSubstring("WLANEXP_SIMULATION_TIME")))
	})

	It("should apply only the flags given on the command line", func() {
		fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
		config.RegisterFlags(fs, config.Default())

		Expect(fs.Parse([]string{
			"--tcpVariant=TcpBic", "--pcap=false", "--simulationTime=2.5",
		})).To(Succeed())

		c := config.Default()
		c.DataRate = "5Mbps"
		Expect(config.ApplyFlags(fs, &c)).To(Succeed())

		Expect(c.TCPVariant).To(Equal("TcpBic"))
		Expect(c.Pcap).To(BeFalse())
		Expect(c.SimulationTime).To(Equal(2.5))
		Expect(c.DataRate).To(Equal("5Mbps"))
	})

	It("should report invalid flag values", func() {
		fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
		config.RegisterFlags(fs, config.Default())
		Expect(fs.Parse([]string{"--payloadSize=big"})).To(Succeed())

		c := config.Default()
		Expect(config.ApplyFlags(fs, &c)).To(MatchError(ContainSubstring("--payloadSize")))
	})
})
