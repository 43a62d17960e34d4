// The producer façade: the public surface adapters call. Every
// method here either delegates to the dictionary for interning or
// appends a record to a lane. Nothing on this path performs file
// I/O beyond a memcpy into the mapping. A full lane becomes a drop
// counter, never a returned error. Errors are returned for malformed
// calls (ErrInvalidArgument), a closed exporter (ErrClosed), and a
// dictionary region too full to intern a new name or attribute set
// (errLaneFull).
package otlpmmap

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/edsrzf/mmap-go"
	"go.uber.org/zap"
)

func nowNs() int64 { return time.Now().UnixNano() }

// NameArg lets a caller supply a span/event name or severity text either
// as a raw string, interned on this call, or as a Handle it already
// interned itself. Adapters that emit the same name repeatedly (a span
// operation name, a hot log event name) can intern it once up front with
// InternString and pass the Handle from then on, skipping the dictionary
// lookup on every subsequent call. The zero value is the empty string.
type NameArg struct {
	handle Handle
	str    string
}

// Name wraps a raw string, to be interned when the record is written.
func Name(s string) NameArg { return NameArg{str: s} }

// NameHandle wraps an already-interned Handle, bypassing interning
// entirely.
func NameHandle(h Handle) NameArg { return NameArg{handle: h} }

// resolve interns the wrapped string if needed. An empty, unhandled
// NameArg resolves to NoHandle rather than an error — callers that
// require a non-empty name (span/event names) reject NoHandle
// themselves; optional fields (severity text) accept it as "absent".
func (n NameArg) resolve(d *Dictionary) (Handle, error) {
	if n.handle != NoHandle {
		return n.handle, nil
	}
	if n.str == "" {
		return NoHandle, nil
	}
	return d.InternString([]byte(n.str))
}

// resolveRequired is resolve, but rejects an empty result: used for
// fields the wire format requires to be present (a span or event name).
func (n NameArg) resolveRequired(d *Dictionary) (Handle, error) {
	h, err := n.resolve(d)
	if err != nil {
		return 0, err
	}
	if h == NoHandle {
		return 0, ErrInvalidArgument
	}
	return h, nil
}

// Exporter is the producer-side entry point: one per backing file per
// process, obtained via Get or New.
type Exporter struct {
	path   string
	cfg    Config
	file   *mappedFile
	dict   *Dictionary
	logger *zap.SugaredLogger

	drops dropCounters

	internalScopeOnce sync.Once
	internalScope     Handle
	internalStream    atomic.Uint32 // Handle; 0 until lazily created

	closed atomic.Bool

	collector *collector
}

// New creates (or opens, if it already exists) the backing file at path
// and returns an Exporter bound to it. Most callers should prefer Get,
// which enforces the one-exporter-per-path-per-process policy.
func New(path string, cfg Config) (*Exporter, error) {
	return newExporter(path, cfg)
}

func newExporter(path string, cfg Config) (*Exporter, error) {
	cfg = cfg.resolve()

	mf, err := openFile(path, mmap.RDWR)
	if err != nil {
		mf, err = createFile(path, cfg.Capacities, nowNs())
		if err != nil {
			return nil, err
		}
	}

	e := &Exporter{
		path:   path,
		cfg:    cfg,
		file:   mf,
		dict:   newDictionary(mf.region(RegionDictionary), cfg.HashAlgorithm),
		logger: cfg.Logger,
	}
	e.collector = newCollector(e)
	return e, nil
}

// Close stops the async collector (if running) and unmaps the file.
func (e *Exporter) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}
	e.collector.Stop()
	forget(e.path)
	return e.file.Close()
}

func (e *Exporter) checkOpen() error {
	if e.closed.Load() {
		return ErrClosed
	}
	return nil
}

// InternString interns a raw string, returning a stable handle.
func (e *Exporter) InternString(s string) (Handle, error) {
	if err := e.checkOpen(); err != nil {
		return 0, err
	}
	return e.dict.InternString([]byte(s))
}

// InternAttributeSet interns an attribute map.
func (e *Exporter) InternAttributeSet(attrs Attrs) (Handle, error) {
	if err := e.checkOpen(); err != nil {
		return 0, err
	}
	return e.dict.InternAttributeSet(attrs)
}

// CreateResource interns a Resource from an already-interned attribute
// set and an optional schema URL handle (NoHandle if absent).
func (e *Exporter) CreateResource(attrSet, schema Handle) (Handle, error) {
	if err := e.checkOpen(); err != nil {
		return 0, err
	}
	return e.dict.InternResource(attrSet, schema)
}

// CreateInstrumentationScope interns an InstrumentationScope.
func (e *Exporter) CreateInstrumentationScope(resource, name, version, attrSet Handle) (Handle, error) {
	if err := e.checkOpen(); err != nil {
		return 0, err
	}
	return e.dict.InternScope(resource, name, version, attrSet)
}

// CreateMetricStream interns a MetricStream descriptor.
func (e *Exporter) CreateMetricStream(scope, name, description, unit Handle, agg Aggregation) (Handle, error) {
	if err := e.checkOpen(); err != nil {
		return 0, err
	}
	return e.dict.InternMetricStream(scope, name, description, unit, agg)
}

// RecordMeasurement interns attrs and appends a Measurement to the
// metric lane. A full lane is recorded as a drop, not returned as an
// error — the hot path never fails visibly to the caller.
func (e *Exporter) RecordMeasurement(stream Handle, attrs Attrs, timeNs int64, value float64, span SpanContext) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	attrSet, err := e.dict.InternAttributeSet(attrs)
	if err != nil {
		return err
	}
	m := Measurement{StreamHandle: stream, AttrSet: attrSet, TimeNs: timeNs, IsFloat: true, F64: value, Span: span}
	return e.appendMeasurement(m)
}

// RecordCounterAdd is the adapter-shaped entry point for a monotonic
// sum: it rejects negative deltas and otherwise forwards to
// RecordMeasurement.
func (e *Exporter) RecordCounterAdd(stream Handle, attrs Attrs, timeNs int64, delta float64) error {
	if delta < 0 {
		return ErrInvalidArgument
	}
	return e.RecordMeasurement(stream, attrs, timeNs, delta, SpanContext{})
}

func (e *Exporter) appendMeasurement(m Measurement) error {
	if err := writeMeasurement(e.file.region(RegionMetricLane), m); err != nil {
		e.recordDrop(dropLaneMetric)
		return nil
	}
	return nil
}

// RecordSpanStart appends a SpanStart record to the span lane. name may
// be a raw string (Name) or a handle interned ahead of time (NameHandle).
func (e *Exporter) RecordSpanStart(scope Handle, traceID TraceID, spanID SpanID, parent *SpanID, flags uint8, name NameArg, kind SpanKind, startNs int64, attrs Attrs) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	nameHandle, err := name.resolveRequired(e.dict)
	if err != nil {
		return err
	}
	attrSet, err := e.dict.InternAttributeSet(attrs)
	if err != nil {
		return err
	}
	s := SpanStart{
		Scope: scope, TraceID: traceID, SpanID: spanID,
		Flags: flags, Name: nameHandle, Kind: kind, StartNs: startNs, AttrSet: attrSet,
	}
	if parent != nil {
		s.HasParent = true
		s.ParentID = *parent
	}
	if err := writeSpanStart(e.file.region(RegionSpanLane), s); err != nil {
		e.recordDrop(dropLaneSpan)
	}
	return nil
}

// RecordSpanEnd appends a SpanEnd record to the span lane.
func (e *Exporter) RecordSpanEnd(scope Handle, traceID TraceID, spanID SpanID, endNs int64) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	end := SpanEnd{Scope: scope, TraceID: traceID, SpanID: spanID, EndNs: endNs}
	if err := writeSpanEnd(e.file.region(RegionSpanLane), end); err != nil {
		e.recordDrop(dropLaneSpan)
	}
	return nil
}

// RecordEvent appends an Event record to the event lane, used for both
// span events (span non-nil) and log records (span nil). name and
// severityText may each be a raw string (Name) or a handle interned
// ahead of time (NameHandle); severityText may also be left as the zero
// NameArg to mean "no severity text".
func (e *Exporter) RecordEvent(scope Handle, span SpanContext, name NameArg, timeNs int64, severityNumber uint8, severityText NameArg, attrs Attrs) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	nameHandle, err := name.resolveRequired(e.dict)
	if err != nil {
		return err
	}
	severityTextHandle, err := severityText.resolve(e.dict)
	if err != nil {
		return err
	}
	attrSet, err := e.dict.InternAttributeSet(attrs)
	if err != nil {
		return err
	}
	ev := Event{
		Scope: scope, Span: span, Name: nameHandle, TimeNs: timeNs,
		SeverityNumber: severityNumber, SeverityText: severityTextHandle, AttrSet: attrSet,
	}
	if err := writeEvent(e.file.region(RegionEventLane), ev); err != nil {
		e.recordDrop(dropLaneEvent)
	}
	return nil
}

// recordDrop increments the in-process counter for lane and attempts to
// reflect the new cumulative count as a Measurement on the internal
// otlpmmap.lane.drops stream. Logged via the configured logger
// regardless of whether the self-metric append itself succeeds.
func (e *Exporter) recordDrop(lane dropLane) {
	count := e.drops.counter(lane).Add(1)
	e.logger.Warnw("otlpmmap: record dropped", "lane", string(lane), "cumulative", count)

	stream, attrSet, ok := e.internalDropsStream(lane)
	if !ok {
		return
	}
	m := Measurement{StreamHandle: stream, AttrSet: attrSet, TimeNs: nowNs(), IsFloat: false, I64: int64(count)}
	// A failed self-metric append is not itself retried or re-dropped:
	// doing so risks recursion under sustained lane pressure.
	_ = writeMeasurement(e.file.region(RegionMetricLane), m)
}

// internalDropsStream lazily creates the internal scope and metric
// stream used for self-observability, returning false if any interning
// step fails (e.g. the dictionary region itself is full).
func (e *Exporter) internalDropsStream(lane dropLane) (stream, attrSet Handle, ok bool) {
	e.internalScopeOnce.Do(func() {
		nameHandle, err := e.dict.InternString([]byte("otlpmmap"))
		if err != nil {
			return
		}
		scopeHandle, err := e.dict.InternScope(NoHandle, nameHandle, NoHandle, NoHandle)
		if err != nil {
			return
		}
		e.internalScope = scopeHandle
	})
	if e.internalScope == NoHandle {
		return 0, 0, false
	}

	if h := Handle(e.internalStream.Load()); h != NoHandle {
		attrSet, err := e.dict.InternAttributeSet(Attrs{"lane": StringValue(mustIntern(e.dict, string(lane)))})
		return h, attrSet, err == nil
	}

	nameHandle, err := e.dict.InternString([]byte(dropsMetricName))
	if err != nil {
		return 0, 0, false
	}
	streamHandle, err := e.dict.InternMetricStream(e.internalScope, nameHandle, NoHandle, NoHandle,
		Aggregation{Kind: AggregationSum, Temporality: TemporalityCumulative, Monotonic: true})
	if err != nil {
		return 0, 0, false
	}
	e.internalStream.Store(uint32(streamHandle))

	attrSet, err = e.dict.InternAttributeSet(Attrs{"lane": StringValue(mustIntern(e.dict, string(lane)))})
	if err != nil {
		return 0, 0, false
	}
	return streamHandle, attrSet, true
}

// mustIntern interns s and returns NoHandle on failure, letting the
// caller's own error check short-circuit the rest of the attribute set
// build rather than panicking deep inside self-metric bookkeeping.
func mustIntern(d *Dictionary, s string) Handle {
	h, err := d.InternString([]byte(s))
	if err != nil {
		return NoHandle
	}
	return h
}
