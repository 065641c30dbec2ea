package utils

import (
	"time"

	"github.com/shirou/gopsutil/cpu"
)

// CheckCPUUsage samples host CPU over window and reports whether it is at or
// below maxCPUUsage. A zero window compares against the previous call.
func CheckCPUUsage(maxCPUUsage float64, window time.Duration) (bool, float64) {
	usage, err := cpu.Percent(window, false)
	if err != nil || len(usage) == 0 {
		return false, 0
	}
	return usage[0] <= maxCPUUsage, usage[0]
}
