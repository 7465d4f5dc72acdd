// Package web embeds the page that shows a running experiment: the sampled
// throughput, the flow table and the progress of the simulated time.
package web

import (
	"embed"
	"io/fs"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
)

// DevModeEnv names the environment variable that makes the monitor serve the
// page from the source tree, so that edits show up without a rebuild.
const DevModeEnv = "WLANEXP_MONITOR_DEV"

//go:embed dist/index.html
var page embed.FS

// GetAssets returns the file system the monitor serves under "/".
func GetAssets() http.FileSystem {
	if devMode() {
		dir := sourceDir()
		log.Printf("serving monitor page from %s", dir)

		return http.Dir(dir)
	}

	dist, err := fs.Sub(page, "dist")
	if err != nil {
		log.Panic(err)
	}

	return http.FS(dist)
}

func sourceDir() string {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		log.Panic("cannot locate the monitor page sources")
	}

	return filepath.Join(filepath.Dir(file), "dist")
}

func devMode() bool {
	on, err := strconv.ParseBool(os.Getenv(DevModeEnv))
	return err == nil && on
}
