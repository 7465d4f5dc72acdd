package config_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/wlanexp/config"
)

var _ = Describe("ParseDataRate", func() {
	DescribeTable("valid rates",
		func(s string, bps float64) {
			rate, err := config.ParseDataRate(s)

			Expect(err).NotTo(HaveOccurred())
			Expect(rate).To(BeNumerically("~", bps, 1e-6))
		},
		Entry("megabits", "100Mbps", 100e6),
		Entry("kilobits", "64kbps", 64e3),
		Entry("upper case kilo", "64Kb/s", 64e3),
		Entry("gigabits", "1Gbps", 1e9),
		Entry("fraction", "5.5Mb/s", 5.5e6),
		Entry("bytes", "1MB/s", 8e6),
		Entry("binary bytes", "2KiBps", float64(2*1024*8)),
		Entry("bare number", "9600", 9600.0),
		Entry("exponent", "1e6bps", 1e6),
		Entry("spaces", " 10Mbps ", 10e6),
	)

	DescribeTable("invalid rates",
		func(s string) {
			_, err := config.ParseDataRate(s)

			Expect(err).To(MatchError(config.ErrInvalidDataRate))
		},
		Entry("empty", ""),
		Entry("no number", "Mbps"),
		Entry("unknown unit", "100Mbit"),
		Entry("unknown prefix", "100Xbps"),
		Entry("zero", "0Mbps"),
	)
})
