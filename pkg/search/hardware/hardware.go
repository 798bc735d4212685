package hardware

import (
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
)

// LogicalCores returns the number of logical CPUs. gopsutil can fail on
// exotic platforms; fall back to the runtime's view.
func LogicalCores() int {
	if n, err := cpu.Counts(true); err == nil && n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// WorkersFor picks the worker count for a seed range. Small ranges are not
// worth the coordination overhead; large ranges saturate up to eight
// workers but never exceed the machine.
func WorkersFor(totalSeeds int64) int {
	h := LogicalCores()

	var n int
	switch {
	case totalSeeds < 10_000:
		n = 1
	case totalSeeds < 100_000:
		n = min(2, h/2)
	case totalSeeds < 1_000_000:
		n = min(4, h/2)
	default:
		n = min(8, h)
	}

	if n < 1 {
		n = 1
	}
	return n
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
