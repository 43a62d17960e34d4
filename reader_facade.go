// The companion reader façade: the three read-only operations an
// external collector process calls — read_metric, read_span, read_event
// — plus the dictionary resolution needed to make sense of the handles
// each record carries. Reader never mutates the file; it is safe to run
// in a separate process from the producer, sharing nothing but the
// mapped bytes.
package otlpmmap

import "github.com/edsrzf/mmap-go"

// Reader is a read-only view over an existing backing file: one
// LaneReader per lane plus a DictionaryReader for resolving the handles
// those lanes reference.
type Reader struct {
	file *mappedFile

	Metric *LaneReader
	Span   *LaneReader
	Event  *LaneReader
	Dict   *DictionaryReader
}

// OpenReader maps an existing file read-only. It does not create one:
// a collector is expected to attach to a file a producer has already
// opened with New or Get.
func OpenReader(path string) (*Reader, error) {
	mf, err := openFile(path, mmap.RDONLY)
	if err != nil {
		return nil, err
	}
	return &Reader{
		file:   mf,
		Metric: newLaneReader(mf.region(RegionMetricLane)),
		Span:   newLaneReader(mf.region(RegionSpanLane)),
		Event:  newLaneReader(mf.region(RegionEventLane)),
		Dict:   NewDictionaryReader(mf),
	}, nil
}

// Close unmaps the file. It never touches the producer's cursors —
// there's nothing to flush on the reader side.
func (r *Reader) Close() error {
	return r.file.Close()
}

// ReadMetric returns the next Measurement on the metric lane, or
// ok=false if the reader has caught up with the producer.
func (r *Reader) ReadMetric() (m Measurement, ok bool, err error) {
	kind, payload, ok := r.Metric.ReadNext()
	if !ok {
		return Measurement{}, false, nil
	}
	if kind != laneKindMeasurement {
		return Measurement{}, true, ErrCorruptRecord
	}
	m, err = decodeMeasurement(payload)
	return m, true, err
}

// ReadSpan returns the next span-lane record. Exactly one of the
// returned SpanStart/SpanEnd is meaningful; isStart distinguishes
// which, since the span lane interleaves both kinds.
func (r *Reader) ReadSpan() (start SpanStart, end SpanEnd, isStart bool, ok bool, err error) {
	kind, payload, ok := r.Span.ReadNext()
	if !ok {
		return SpanStart{}, SpanEnd{}, false, false, nil
	}
	switch kind {
	case laneKindSpanStart:
		start, err = decodeSpanStart(payload)
		return start, SpanEnd{}, true, true, err
	case laneKindSpanEnd:
		end, err = decodeSpanEnd(payload)
		return SpanStart{}, end, false, true, err
	default:
		return SpanStart{}, SpanEnd{}, false, true, ErrCorruptRecord
	}
}

// ReadEvent returns the next Event on the event lane (used for both
// span events and log records).
func (r *Reader) ReadEvent() (ev Event, ok bool, err error) {
	kind, payload, ok := r.Event.ReadNext()
	if !ok {
		return Event{}, false, nil
	}
	if kind != laneKindEvent {
		return Event{}, true, ErrCorruptRecord
	}
	ev, err = decodeEvent(payload)
	return ev, true, err
}
