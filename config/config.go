// Package config holds the parameters of an experiment and loads them from
// defaults, a YAML file, the environment and the command line.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sarchlab/wlanexp/datarecording"
	"github.com/sarchlab/wlanexp/transport"
	"github.com/sarchlab/wlanexp/wlan"
)

// Config is the configuration of one experiment run.
type Config struct {
	PayloadSize    uint32  `yaml:"payload_size"`
	DataRate       string  `yaml:"data_rate"`
	TCPVariant     string  `yaml:"tcp_variant"`
	SimulationTime float64 `yaml:"simulation_time"`
	Pcap           bool    `yaml:"pcap"`
	WifiManager    string  `yaml:"wifi_manager"`

	OutputDir     string `yaml:"output_dir"`
	RecordPath    string `yaml:"record_path"`
	ClickHouseDSN string `yaml:"clickhouse_dsn"`

	MonitorPort int  `yaml:"monitor_port"`
	OpenBrowser bool `yaml:"open_browser"`
	TraceEvents bool `yaml:"trace_events"`
	RateStats   bool `yaml:"rate_stats"`

	FrameErrorRate float64 `yaml:"frame_error_rate"`
	QueueLimit     int     `yaml:"queue_limit"`
	Seed           int64   `yaml:"seed"`
}

// Default returns the configuration of the reference experiment.
func Default() Config {
	return Config{
		PayloadSize:    1472,
		DataRate:       "100Mbps",
		TCPVariant:     "TcpVeno",
		SimulationTime: 10,
		Pcap:           true,
		WifiManager:    "Arf",
		OutputDir:      ".",
		QueueLimit:     wlan.DefaultQueueLimit,
		Seed:           1,
	}
}

// LoadFile overlays the settings found in a YAML file onto cfg. Keys that
// are absent from the file keep their current value.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		return fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}

	return nil
}

// Params are the values of a validated Config in the form the experiment
// components take them.
type Params struct {
	TCPVariant  transport.TCPVariant
	WifiManager wlan.WifiManager
	DataRateBps float64
}

// Resolve validates the configuration and resolves the named values.
func (c Config) Resolve() (Params, error) {
	var p Params

	if c.PayloadSize == 0 {
		return p, errors.New("payloadSize must be positive")
	}

	if c.PayloadSize > transport.DefaultRcvWindow {
		return p, fmt.Errorf("payloadSize %d exceeds the receive window of %d",
			c.PayloadSize, transport.DefaultRcvWindow)
	}

	if !(c.SimulationTime > 0) || math.IsInf(c.SimulationTime, 1) {
		return p, fmt.Errorf("simulationTime must be positive and finite, got %g",
			c.SimulationTime)
	}

	variant, err := transport.ParseTCPVariant(c.TCPVariant)
	if err != nil {
		return p, err
	}

	manager, err := wlan.ParseWifiManager(c.WifiManager)
	if err != nil {
		return p, err
	}

	rate, err := ParseDataRate(c.DataRate)
	if err != nil {
		return p, err
	}

	if !(c.FrameErrorRate >= 0 && c.FrameErrorRate < 1) {
		return p, fmt.Errorf("frameErrorRate must be in [0, 1), got %g",
			c.FrameErrorRate)
	}

	if c.QueueLimit <= 0 {
		return p, fmt.Errorf("queueLimit must be positive, got %d",
			c.QueueLimit)
	}

	if c.MonitorPort < 0 || c.MonitorPort > 65535 {
		return p, fmt.Errorf("monitorPort %d is out of range", c.MonitorPort)
	}

	if c.RecordPath != "" {
		_, err = os.Stat(datarecording.DBFileName(c.RecordPath))
		if err == nil {
			return p, fmt.Errorf("recording %s already exists",
				datarecording.DBFileName(c.RecordPath))
		}
	}

	p.TCPVariant = variant
	p.WifiManager = manager
	p.DataRateBps = rate

	return p, nil
}

// Validate reports the first problem of the configuration.
func (c Config) Validate() error {
	_, err := c.Resolve()
	return err
}

// StopTime returns the time the timeline stops at. Applications start at
// 1 s, so the run lasts one second longer than the nominal duration.
func (c Config) StopTime() float64 {
	return c.SimulationTime + 1
}
