package obs

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics collects lightweight counters and latency stats for the
// admission path and the audit journal.
type Metrics struct {
	ordersAllowed  uint64
	ordersDenied   uint64
	policyApproved uint64
	policyRejected uint64
	queueDrops     uint64
	queueClosed    uint64
	appendFailures uint64

	denyMu         sync.Mutex
	denialsByModel map[string]uint64

	riskEvalLatency LatencyStats
	appendLatency   LatencyStats
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

// Snapshot captures the current metrics values.
type Snapshot struct {
	OrdersAllowed   uint64
	OrdersDenied    uint64
	PolicyApproved  uint64
	PolicyRejected  uint64
	QueueDrops      uint64
	QueueClosed     uint64
	AppendFailures  uint64
	DenialsByModel  map[string]uint64
	RiskEvalLatency LatencySnapshot
	AppendLatency   LatencySnapshot
}

// NewMetrics allocates a metrics container.
func NewMetrics() *Metrics {
	return &Metrics{denialsByModel: make(map[string]uint64)}
}

// ObserveVerdict counts an order-admission verdict and its evaluation time.
func (m *Metrics) ObserveVerdict(allowed bool, modelID string, d time.Duration) {
	if m == nil {
		return
	}
	if allowed {
		atomic.AddUint64(&m.ordersAllowed, 1)
	} else {
		atomic.AddUint64(&m.ordersDenied, 1)
		m.denyMu.Lock()
		m.denialsByModel[modelID]++
		m.denyMu.Unlock()
	}
	m.riskEvalLatency.Observe(d)
}

// ObserveProof counts a policy engine verdict.
func (m *Metrics) ObserveProof(approved bool) {
	if m == nil {
		return
	}
	if approved {
		atomic.AddUint64(&m.policyApproved, 1)
	} else {
		atomic.AddUint64(&m.policyRejected, 1)
	}
}

// ObserveAppend measures one journal append.
func (m *Metrics) ObserveAppend(d time.Duration) {
	if m == nil {
		return
	}
	m.appendLatency.Observe(d)
}

// IncQueueDrop records a full-queue publish attempt.
func (m *Metrics) IncQueueDrop() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.queueDrops, 1)
}

// IncQueueClosed records a closed-queue publish attempt.
func (m *Metrics) IncQueueClosed() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.queueClosed, 1)
}

// IncAppendFailure records a failed journal append.
func (m *Metrics) IncAppendFailure() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.appendFailures, 1)
}

// Snapshot returns a copy of the current metrics values.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	byModel := make(map[string]uint64)
	m.denyMu.Lock()
	for model, count := range m.denialsByModel {
		byModel[model] = count
	}
	m.denyMu.Unlock()
	return Snapshot{
		OrdersAllowed:   atomic.LoadUint64(&m.ordersAllowed),
		OrdersDenied:    atomic.LoadUint64(&m.ordersDenied),
		PolicyApproved:  atomic.LoadUint64(&m.policyApproved),
		PolicyRejected:  atomic.LoadUint64(&m.policyRejected),
		QueueDrops:      atomic.LoadUint64(&m.queueDrops),
		QueueClosed:     atomic.LoadUint64(&m.queueClosed),
		AppendFailures:  atomic.LoadUint64(&m.appendFailures),
		DenialsByModel:  byModel,
		RiskEvalLatency: m.riskEvalLatency.Snapshot(),
		AppendLatency:   m.appendLatency.Snapshot(),
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
