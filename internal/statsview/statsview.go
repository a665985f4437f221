//go:build statsview

package statsview

import (
	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
	"github.com/retroenv/retrogolib/log"
)

// DefaultAddress is used when Launch gets an empty address.
const DefaultAddress = "localhost:12600"

const url = "/debug/statsview"

// Launch starts the stats server in a new goroutine.
func Launch(addr string, logger *log.Logger) {
	if addr == "" {
		addr = DefaultAddress
	}
	go func() {
		viewer.SetConfiguration(viewer.WithAddr(addr))
		mgr := statsview.New()
		mgr.Start()
	}()

	if logger != nil {
		logger.Info("Stats server available", log.String("url", "http://"+addr+url))
	}
}

// Available returns true if a statsview is available to launch.
func Available() bool {
	return true
}
