// Package wlan provides a single-cell 802.11b network: nodes placed in
// space, a shared half-duplex medium that carries IP packets between them,
// and capture taps.
package wlan

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownWifiManager is returned for a rate manager name that is not
// supported.
var ErrUnknownWifiManager = errors.New("unknown wifi manager")

// DataMode is an 802.11b transmission mode.
type DataMode struct {
	Name     string
	RateMbps float64
}

// 802.11b DSSS modes.
var (
	DsssRate1Mbps   = DataMode{Name: "DsssRate1Mbps", RateMbps: 1}
	DsssRate2Mbps   = DataMode{Name: "DsssRate2Mbps", RateMbps: 2}
	DsssRate5_5Mbps = DataMode{Name: "DsssRate5_5Mbps", RateMbps: 5.5}
	DsssRate11Mbps  = DataMode{Name: "DsssRate11Mbps", RateMbps: 11}
)

// WifiManager names a remote-station rate manager. Rate adaptation itself is
// not modeled; a manager selects the mode data frames are sent with once the
// manager has settled, which for the short links of a single cell is the
// fastest 802.11b mode.
type WifiManager struct {
	Name       string
	DataMode   DataMode
	AckMode    DataMode
	ManagerTID string
}

var wifiManagers = map[string]WifiManager{}

func registerWifiManager(name string) {
	wifiManagers[name] = WifiManager{
		Name:       name,
		DataMode:   DsssRate11Mbps,
		AckMode:    DsssRate1Mbps,
		ManagerTID: "ns3::" + name + "WifiManager",
	}
}

func init() {
	for _, name := range []string{
		"Aarf", "Aarfcd", "Amrr", "Arf", "Cara",
		"Ideal", "Minstrel", "Onoe", "Rraa",
	} {
		registerWifiManager(name)
	}
}

// ParseWifiManager looks up a rate manager by name.
func ParseWifiManager(name string) (WifiManager, error) {
	m, found := wifiManagers[name]
	if !found {
		return WifiManager{}, fmt.Errorf("%w: %q (supported: %v)",
			ErrUnknownWifiManager, name, WifiManagerNames())
	}

	return m, nil
}

// WifiManagerNames lists the supported manager names in alphabetical order.
func WifiManagerNames() []string {
	names := make([]string, 0, len(wifiManagers))
	for name := range wifiManagers {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
