// Package metrics provides Prometheus metrics for capture sessions.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	framesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "camcap",
		Subsystem: "capture",
		Name:      "frames_total",
		Help:      "Frames written to the sink",
	}, []string{"device"})

	bytesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "camcap",
		Subsystem: "capture",
		Name:      "bytes_total",
		Help:      "Payload bytes written to the sink",
	}, []string{"device"})

	timeoutsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "camcap",
		Subsystem: "capture",
		Name:      "timeouts_total",
		Help:      "Readiness waits that timed out",
	}, []string{"device"})

	interruptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "camcap",
		Subsystem: "capture",
		Name:      "interrupts_total",
		Help:      "Readiness waits interrupted by a signal and retried",
	}, []string{"device"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "camcap",
		Subsystem: "capture",
		Name:      "errors_total",
		Help:      "Fatal capture errors by kind",
	}, []string{"device", "kind"})

	buffersArmed = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "camcap",
		Subsystem: "capture",
		Name:      "buffers_armed",
		Help:      "Driver buffers currently mapped",
	}, []string{"device"})

	waitSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "camcap",
		Subsystem: "capture",
		Name:      "wait_seconds",
		Help:      "Time spent waiting for a filled buffer",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
	}, []string{"device"})

	// Local cache for the end-of-run summary.
	summaryCache   = make(map[string]*CaptureSummary)
	summaryCacheMu sync.RWMutex
)

// CaptureSummary holds running totals for a device.
type CaptureSummary struct {
	Frames   uint64
	Bytes    uint64
	Timeouts uint64
	Errors   uint64
}

// Since returns the totals accumulated after before was taken.
func (s CaptureSummary) Since(before CaptureSummary) CaptureSummary {
	return CaptureSummary{
		Frames:   s.Frames - before.Frames,
		Bytes:    s.Bytes - before.Bytes,
		Timeouts: s.Timeouts - before.Timeouts,
		Errors:   s.Errors - before.Errors,
	}
}

// RecordFrame counts one frame of n bytes written to the sink.
func RecordFrame(device string, n int) {
	framesTotal.WithLabelValues(device).Inc()
	bytesTotal.WithLabelValues(device).Add(float64(n))
	updateCache(device, func(s *CaptureSummary) {
		s.Frames++
		s.Bytes += uint64(n)
	})
}

// RecordTimeout counts a readiness wait that timed out.
func RecordTimeout(device string) {
	timeoutsTotal.WithLabelValues(device).Inc()
	updateCache(device, func(s *CaptureSummary) { s.Timeouts++ })
}

// RecordInterrupt counts an interrupted readiness wait.
func RecordInterrupt(device string) {
	interruptsTotal.WithLabelValues(device).Inc()
}

// RecordError counts a fatal error of the given kind.
func RecordError(device, kind string) {
	errorsTotal.WithLabelValues(device, kind).Inc()
	updateCache(device, func(s *CaptureSummary) { s.Errors++ })
}

// SetBuffersArmed sets the number of mapped buffers.
func SetBuffersArmed(device string, n int) {
	buffersArmed.WithLabelValues(device).Set(float64(n))
}

// ObserveWait records how long a readiness wait took.
func ObserveWait(device string, d time.Duration) {
	waitSeconds.WithLabelValues(device).Observe(d.Seconds())
}

// GetCaptureSummary returns the running totals for a device, zero when
// nothing was recorded for it.
func GetCaptureSummary(device string) CaptureSummary {
	summaryCacheMu.RLock()
	defer summaryCacheMu.RUnlock()
	if s, ok := summaryCache[device]; ok {
		return *s
	}
	return CaptureSummary{}
}

func updateCache(device string, update func(*CaptureSummary)) {
	summaryCacheMu.Lock()
	defer summaryCacheMu.Unlock()
	s, ok := summaryCache[device]
	if !ok {
		s = &CaptureSummary{}
		summaryCache[device] = s
	}
	update(s)
}
