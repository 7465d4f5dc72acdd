// Command wlanexp runs the single-cell WLAN throughput experiment.
package main

import (
	"github.com/sarchlab/wlanexp/cmd/wlanexp/cmd"
)

func main() {
	cmd.Execute()
}
