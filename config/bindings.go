package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// EnvPrefix is the prefix of the environment variables that set options.
const EnvPrefix = "WLANEXP_"

type binding struct {
	flag   string
	env    string
	usage  string
	isBool bool
	get    func(c *Config) string
	set    func(c *Config, v string) error
}

func parseUint32(v string, dst *uint32) error {
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return err
	}

	*dst = uint32(n)

	return nil
}

func parseInt(v string, dst *int) error {
	n, err := strconv.Atoi(v)
	if err != nil {
		return err
	}

	*dst = n

	return nil
}

func parseInt64(v string, dst *int64) error {
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return err
	}

	*dst = n

	return nil
}

func parseFloat(v string, dst *float64) error {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return err
	}

	*dst = f

	return nil
}

func parseBool(v string, dst *bool) error {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return err
	}

	*dst = b

	return nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

var bindings = []binding{
	{
		flag: "payloadSize", env: "PAYLOAD_SIZE",
		usage: "Payload size in bytes",
		get:   func(c *Config) string { return strconv.FormatUint(uint64(c.PayloadSize), 10) },
		set:   func(c *Config, v string) error { return parseUint32(v, &c.PayloadSize) },
	},
	{
		flag: "dataRate", env: "DATA_RATE",
		usage: "Application data rate",
		get:   func(c *Config) string { return c.DataRate },
		set:   func(c *Config, v string) error { c.DataRate = v; return nil },
	},
	{
		flag: "tcpVariant", env: "TCP_VARIANT",
		usage: "Transport protocol to use: TcpNewReno, TcpHybla, TcpHighSpeed, " +
			"TcpHtcp, TcpVegas, TcpScalable, TcpVeno, TcpBic, TcpYeah, " +
			"TcpIllinois, TcpWestwood, TcpWestwoodPlus, TcpLedbat",
		get: func(c *Config) string { return c.TCPVariant },
		set: func(c *Config, v string) error { c.TCPVariant = v; return nil },
	},
	{
		flag: "simulationTime", env: "SIMULATION_TIME",
		usage: "Simulation time in seconds",
		get:   func(c *Config) string { return formatFloat(c.SimulationTime) },
		set:   func(c *Config, v string) error { return parseFloat(v, &c.SimulationTime) },
	},
	{
		flag: "pcap", env: "PCAP", isBool: true,
		usage: "Enable/disable PCAP Tracing",
		get:   func(c *Config) string { return strconv.FormatBool(c.Pcap) },
		set:   func(c *Config, v string) error { return parseBool(v, &c.Pcap) },
	},
	{
		flag: "wifiManager", env: "WIFI_MANAGER",
		usage: "Set wifi rate manager (Aarf, Aarfcd, Amrr, Arf, Cara, Ideal, " +
			"Minstrel, Onoe, Rraa)",
		get: func(c *Config) string { return c.WifiManager },
		set: func(c *Config, v string) error { c.WifiManager = v; return nil },
	},
	{
		flag: "output-dir", env: "OUTPUT_DIR",
		usage: "Directory that receives the capture files",
		get:   func(c *Config) string { return c.OutputDir },
		set:   func(c *Config, v string) error { c.OutputDir = v; return nil },
	},
	{
		flag: "record", env: "RECORD",
		usage: "Record the run into <path>.sqlite3",
		get:   func(c *Config) string { return c.RecordPath },
		set:   func(c *Config, v string) error { c.RecordPath = v; return nil },
	},
	{
		flag: "clickhouse", env: "CLICKHOUSE_DSN",
		usage: "Record the run into the ClickHouse server of this DSN",
		get:   func(c *Config) string { return c.ClickHouseDSN },
		set:   func(c *Config, v string) error { c.ClickHouseDSN = v; return nil },
	},
	{
		flag: "monitor-port", env: "MONITOR_PORT",
		usage: "Serve the run monitor on this port, 0 to disable",
		get:   func(c *Config) string { return strconv.Itoa(c.MonitorPort) },
		set:   func(c *Config, v string) error { return parseInt(v, &c.MonitorPort) },
	},
	{
		flag: "open-browser", env: "OPEN_BROWSER", isBool: true,
		usage: "Open the run monitor in a browser",
		get:   func(c *Config) string { return strconv.FormatBool(c.OpenBrowser) },
		set:   func(c *Config, v string) error { return parseBool(v, &c.OpenBrowser) },
	},
	{
		flag: "trace-events", env: "TRACE_EVENTS", isBool: true,
		usage: "Log every simulation event to stderr",
		get:   func(c *Config) string { return strconv.FormatBool(c.TraceEvents) },
		set:   func(c *Config, v string) error { return parseBool(v, &c.TraceEvents) },
	},
	{
		flag: "rate-stats", env: "RATE_STATS", isBool: true,
		usage: "Log the distribution of sampled throughput after the run",
		get:   func(c *Config) string { return strconv.FormatBool(c.RateStats) },
		set:   func(c *Config, v string) error { return parseBool(v, &c.RateStats) },
	},
	{
		flag: "frame-error-rate", env: "FRAME_ERROR_RATE",
		usage: "Probability that one transmission attempt fails",
		get:   func(c *Config) string { return formatFloat(c.FrameErrorRate) },
		set:   func(c *Config, v string) error { return parseFloat(v, &c.FrameErrorRate) },
	},
	{
		flag: "queue-limit", env: "QUEUE_LIMIT",
		usage: "Capacity of each wireless transmit queue, in frames",
		get:   func(c *Config) string { return strconv.Itoa(c.QueueLimit) },
		set:   func(c *Config, v string) error { return parseInt(v, &c.QueueLimit) },
	},
	{
		flag: "seed", env: "SEED",
		usage: "Seed of the frame error process",
		get:   func(c *Config) string { return strconv.FormatInt(c.Seed, 10) },
		set:   func(c *Config, v string) error { return parseInt64(v, &c.Seed) },
	},
}

// RegisterFlags adds one flag per option to the flag set. The defaults shown
// are the values of cfg.
func RegisterFlags(fs *pflag.FlagSet, cfg Config) {
	for _, b := range bindings {
		if b.isBool {
			def, _ := strconv.ParseBool(b.get(&cfg))
			fs.Bool(b.flag, def, b.usage)

			continue
		}

		fs.String(b.flag, b.get(&cfg), b.usage)
	}
}

// ApplyFlags copies the flags that were set on the command line into cfg.
func ApplyFlags(fs *pflag.FlagSet, cfg *Config) error {
	var errs []error

	for _, b := range bindings {
		f := fs.Lookup(b.flag)
		if f == nil || !f.Changed {
			continue
		}

		err := b.set(cfg, f.Value.String())
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid --%s: %w", b.flag, err))
		}
	}

	return errors.Join(errs...)
}

// LoadEnv overlays the WLANEXP_* variables onto cfg. Variables are read from
// the env file first, if it exists, and then from the process environment,
// which takes precedence.
func LoadEnv(envFile string, cfg *Config) error {
	vars := map[string]string{}

	if envFile != "" {
		fileVars, err := godotenv.Read(envFile)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to read %s: %w", envFile, err)
		}

		for k, v := range fileVars {
			vars[k] = v
		}
	}

	for _, kv := range os.Environ() {
		k, v, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(k, EnvPrefix) {
			vars[k] = v
		}
	}

	var errs []error

	for _, b := range bindings {
		name := EnvPrefix + b.env

		v, found := vars[name]
		if !found {
			continue
		}

		err := b.set(cfg, v)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid %s: %w", name, err))
		}
	}

	return errors.Join(errs...)
}
