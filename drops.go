// Internal self-metrics: every drop — LaneFull or callback failure — is
// recorded as a Measurement on a lazily-created internal metric stream
// named "otlpmmap.lane.drops", tagged with which lane dropped it. A
// collector reading the file can observe its own producer's data loss
// instead of the count silently vanishing.
package otlpmmap

import "sync/atomic"

const dropsMetricName = "otlpmmap.lane.drops"

// dropLane identifies which region a drop is attributed to.
type dropLane string

const (
	dropLaneMetric   dropLane = "metric"
	dropLaneSpan     dropLane = "span"
	dropLaneEvent    dropLane = "event"
	dropLaneCallback dropLane = "callback"
)

// dropCounters tracks cumulative drops per lane in memory; each
// recordDrop call both increments the in-process counter and attempts
// to append a Measurement reflecting the new cumulative value. The
// in-process counter is authoritative even if the append itself drops
// (recursion is avoided: a failed self-metric append is ignored; the
// drop itself has already been logged).
type dropCounters struct {
	metric   atomic.Uint64
	span     atomic.Uint64
	event    atomic.Uint64
	callback atomic.Uint64
}

func (d *dropCounters) counter(lane dropLane) *atomic.Uint64 {
	switch lane {
	case dropLaneMetric:
		return &d.metric
	case dropLaneSpan:
		return &d.span
	case dropLaneEvent:
		return &d.event
	default:
		return &d.callback
	}
}
