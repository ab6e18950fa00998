package lifecycle

import (
	"sync/atomic"
	"time"
)

// drainStart holds the UnixNano time shutdown began; 0 while serving.
var drainStart atomic.Int64

// BeginShutdown marks the process as draining and returns the recorded start.
// Repeated calls keep the first start time.
func BeginShutdown() time.Time {
	now := time.Now().UnixNano()
	drainStart.CompareAndSwap(0, now)
	return time.Unix(0, drainStart.Load())
}

// IsShuttingDown reports whether BeginShutdown has been called.
// Readiness answers 503 shutting-down while true.
func IsShuttingDown() bool {
	return drainStart.Load() != 0
}

// DrainingFor returns how long the process has been draining, or 0 while serving.
func DrainingFor() time.Duration {
	start := drainStart.Load()
	if start == 0 {
		return 0
	}
	return time.Since(time.Unix(0, start))
}

// Reset returns to the serving state.
func Reset() {
	drainStart.Store(0)
}
