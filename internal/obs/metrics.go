package obs

import (
	"sync/atomic"
	"time"
)

// Metrics collects transcoder counters.
//
// Window counters are reset by Window; totals only grow. All methods accept a
// nil receiver.
type Metrics struct {
	read       uint64
	written    uint64
	duplicates uint64

	totalRead       uint64
	totalWritten    uint64
	totalDuplicates uint64
	totalRecords    uint64
	replayed        uint64
	ignored         uint64

	recoveredMessages uint64
	recoveredChannels uint64

	commitLatency LatencyStats

	exporter *Exporter
}

// LatencyStats aggregates duration samples in nanoseconds.
type LatencyStats struct {
	count uint64
	sum   uint64
	min   uint64
	max   uint64
}

// LatencySnapshot is a point-in-time view of latency stats.
type LatencySnapshot struct {
	Count uint64
	Min   time.Duration
	Max   time.Duration
	Avg   time.Duration
}

// WindowSnapshot holds the counters of one reporting window.
type WindowSnapshot struct {
	Read       uint64
	Written    uint64
	Duplicates uint64
}

// Snapshot captures the current totals.
type Snapshot struct {
	Read              uint64
	Written           uint64
	Duplicates        uint64
	Records           uint64
	Replayed          uint64
	Ignored           uint64
	RecoveredMessages uint64
	RecoveredChannels uint64
	CommitLatency     LatencySnapshot
}

// NewMetrics allocates a metrics container. exporter may be nil.
func NewMetrics(exporter *Exporter) *Metrics {
	return &Metrics{exporter: exporter}
}

// IncRead counts an input message of interest.
func (m *Metrics) IncRead() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.read, 1)
	atomic.AddUint64(&m.totalRead, 1)
	m.exporter.incRead()
}

// IncDuplicate counts a message rejected by the sequence watermark.
func (m *Metrics) IncDuplicate() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.duplicates, 1)
	atomic.AddUint64(&m.totalDuplicates, 1)
	m.exporter.incDuplicate()
}

// ObserveCommit counts a committed output message carrying records.
func (m *Metrics) ObserveCommit(records int, latency time.Duration) {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.written, 1)
	atomic.AddUint64(&m.totalWritten, 1)
	atomic.AddUint64(&m.totalRecords, uint64(records))
	m.commitLatency.Observe(latency)
	m.exporter.observeCommit(records, latency)
}

// IncReplayed counts a message whose output was already committed before a restart.
func (m *Metrics) IncReplayed() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.replayed, 1)
	m.exporter.incReplayed()
}

// IncIgnored counts an input record on a stream that is not of interest.
func (m *Metrics) IncIgnored() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.ignored, 1)
}

// SetRecovered stores the result of the recovery scan.
func (m *Metrics) SetRecovered(messages, channels uint64) {
	if m == nil {
		return
	}
	atomic.StoreUint64(&m.recoveredMessages, messages)
	atomic.StoreUint64(&m.recoveredChannels, channels)
	m.exporter.setRecovered(messages)
}

// Window returns the window counters and resets them.
func (m *Metrics) Window() WindowSnapshot {
	if m == nil {
		return WindowSnapshot{}
	}
	return WindowSnapshot{
		Read:       atomic.SwapUint64(&m.read, 0),
		Written:    atomic.SwapUint64(&m.written, 0),
		Duplicates: atomic.SwapUint64(&m.duplicates, 0),
	}
}

// Snapshot returns a copy of the totals.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	return Snapshot{
		Read:              atomic.LoadUint64(&m.totalRead),
		Written:           atomic.LoadUint64(&m.totalWritten),
		Duplicates:        atomic.LoadUint64(&m.totalDuplicates),
		Records:           atomic.LoadUint64(&m.totalRecords),
		Replayed:          atomic.LoadUint64(&m.replayed),
		Ignored:           atomic.LoadUint64(&m.ignored),
		RecoveredMessages: atomic.LoadUint64(&m.recoveredMessages),
		RecoveredChannels: atomic.LoadUint64(&m.recoveredChannels),
		CommitLatency:     m.commitLatency.Snapshot(),
	}
}

// Observe records a duration sample.
func (l *LatencyStats) Observe(d time.Duration) {
	if d < 0 {
		return
	}
	nanos := uint64(d)
	atomic.AddUint64(&l.count, 1)
	atomic.AddUint64(&l.sum, nanos)

	for {
		min := atomic.LoadUint64(&l.min)
		if min != 0 && nanos >= min {
			break
		}
		if atomic.CompareAndSwapUint64(&l.min, min, nanos) {
			break
		}
	}

	for {
		max := atomic.LoadUint64(&l.max)
		if nanos <= max {
			break
		}
		if atomic.CompareAndSwapUint64(&l.max, max, nanos) {
			break
		}
	}
}

// Snapshot returns the aggregated latency stats.
func (l *LatencyStats) Snapshot() LatencySnapshot {
	count := atomic.LoadUint64(&l.count)
	if count == 0 {
		return LatencySnapshot{}
	}
	sum := atomic.LoadUint64(&l.sum)
	min := atomic.LoadUint64(&l.min)
	max := atomic.LoadUint64(&l.max)
	return LatencySnapshot{
		Count: count,
		Min:   time.Duration(min),
		Max:   time.Duration(max),
		Avg:   time.Duration(sum / count),
	}
}
