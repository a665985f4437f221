//go:build !statsview

package statsview

import "github.com/retroenv/retrogolib/log"

const DefaultAddress = "localhost:12600"

// Launch is a no-op without the statsview build tag.
func Launch(addr string, logger *log.Logger) {
	if logger != nil {
		logger.Warn("Stats server not built in, rebuild with -tags statsview")
	}
}

func Available() bool {
	return false
}
