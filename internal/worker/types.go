package worker

import (
	"time"

	"github.com/amankumarsingh77/hls-encoder/pkg/utils"
)

const (
	DefaultDequeueWait = 5 * time.Second
	cpuSampleWindow    = time.Second
)

// CPUGate reports whether the host has room for another run, along with
// the sampled usage.
type CPUGate func() (bool, float64)

// HostCPUGate samples host CPU and admits work at or below maxUsage percent.
func HostCPUGate(maxUsage float64) CPUGate {
	return func() (bool, float64) {
		return utils.CheckCPUUsage(maxUsage, cpuSampleWindow)
	}
}

type Option func(*Worker)

func WithCPUGate(g CPUGate) Option {
	return func(w *Worker) { w.cpuGate = g }
}

func WithDequeueWait(d time.Duration) Option {
	return func(w *Worker) { w.dequeueWait = d }
}
