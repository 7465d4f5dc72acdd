package wlan

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("WifiManager", func() {
	It("should know all the managers of the cell", func() {
		Expect(WifiManagerNames()).To(Equal([]string{
			"Aarf", "Aarfcd", "Amrr", "Arf", "Cara",
			"Ideal", "Minstrel", "Onoe", "Rraa",
		}))
	})

	It("should parse a manager", func() {
		m, err := ParseWifiManager("Minstrel")

		Expect(err).NotTo(HaveOccurred())
		Expect(m.Name).To(Equal("Minstrel"))
		Expect(m.ManagerTID).To(Equal("ns3::MinstrelWifiManager"))
		Expect(m.DataMode).To(Equal(DsssRate11Mbps))
	})

	It("should reject unknown managers", func() {
		_, err := ParseWifiManager("Foo")

		Expect(err).To(MatchError(ErrUnknownWifiManager))
		Expect(err.Error()).To(ContainSubstring(`"Foo"`))
	})
})

var _ = Describe("Topology", func() {
	It("should place the access point and four stations", func() {
		nodes := DefaultTopology()

		Expect(nodes).To(HaveLen(1 + NumStations))
		Expect(nodes[0].Role).To(Equal(RoleAP))
		Expect(nodes[0].Addr.String()).To(Equal("10.0.0.1"))
		Expect(nodes[0].Position).To(Equal(Position{100, 60, 20}))
		Expect(nodes[4].Name).To(Equal("STA4"))
		Expect(nodes[4].Addr.String()).To(Equal("10.0.0.5"))
		Expect(nodes[4].Position).To(Equal(Position{140, 100, 20}))
	})

	It("should compute distances", func() {
		Expect(Position{0, 0, 0}.DistanceTo(Position{3, 4, 0})).To(Equal(5.0))
	})
})

var _ = Describe("Airtime", func() {
	It("should include deferral, backoff, data and ack", func() {
		arf, _ := ParseWifiManager("Arf")

		t := FrameAirtime(1512, arf)

		Expect(float64(t)).To(BeNumerically("~", 1.991818e-3, 1e-9))
	})

	It("should compute the propagation delay", func() {
		d := PropagationDelay(Position{0, 0, 0}, Position{299.792458, 0, 0})

		Expect(float64(d)).To(BeNumerically("~", 1e-6, 1e-12))
	})
})
