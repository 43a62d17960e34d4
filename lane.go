// Record encoding for the three lanes. The metric lane carries only
// Measurement; the span lane carries SpanStart and SpanEnd; the event
// lane carries Event, used for both span events and log records.
//
// Every Write* function is a thin layer over appendFrame: reserve, write
// zero-first, fill, release-store the real length. Lane-full is reported
// back to the caller as errLaneFull so the façade can turn it into a
// drop counter instead of a propagated error.
package otlpmmap

import (
	"encoding/binary"
	"math"
)

// Lane record kinds. Each lane only ever sees its own kind byte(s); the
// byte is still written so a reader can self-describe the stream without
// consulting which region it came from.
const (
	laneKindMeasurement byte = 1
	laneKindSpanStart   byte = 2
	laneKindSpanEnd     byte = 3
	laneKindEvent       byte = 4
)

// measurementValueKind distinguishes the int64/double union carried by a
// Measurement payload.
type measurementValueKind uint8

const (
	measurementInt64 measurementValueKind = iota + 1
	measurementFloat64
)

// Measurement is one metric lane record.
type Measurement struct {
	StreamHandle  Handle
	AttrSet       Handle
	TimeNs        int64
	IsFloat       bool
	I64           int64
	F64           float64
	Span          SpanContext
}

func appendSpanContext(buf []byte, sc SpanContext) []byte {
	if !sc.HasSpan {
		return append(buf, 0)
	}
	buf = append(buf, 1)
	buf = append(buf, sc.TraceID[:]...)
	buf = append(buf, sc.SpanID[:]...)
	return append(buf, sc.Flags)
}

func readSpanContext(buf []byte) (SpanContext, int, error) {
	if len(buf) < 1 {
		return SpanContext{}, 0, ErrCorruptRecord
	}
	if buf[0] == 0 {
		return SpanContext{}, 1, nil
	}
	if len(buf) < 1+16+8+1 {
		return SpanContext{}, 0, ErrCorruptRecord
	}
	var sc SpanContext
	sc.HasSpan = true
	copy(sc.TraceID[:], buf[1:17])
	copy(sc.SpanID[:], buf[17:25])
	sc.Flags = buf[25]
	return sc, 26, nil
}

// encodeMeasurement lays out: streamHandle(4) | attrSet(4) | timeNs(8) |
// valueKind(1) | value(8) | spanContext.
func encodeMeasurement(m Measurement) []byte {
	buf := binary.LittleEndian.AppendUint32(nil, uint32(m.StreamHandle))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(m.AttrSet))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(m.TimeNs))
	if m.IsFloat {
		buf = append(buf, byte(measurementFloat64))
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(m.F64))
	} else {
		buf = append(buf, byte(measurementInt64))
		buf = binary.LittleEndian.AppendUint64(buf, uint64(m.I64))
	}
	return appendSpanContext(buf, m.Span)
}

func decodeMeasurement(payload []byte) (Measurement, error) {
	if len(payload) < 21 {
		return Measurement{}, ErrCorruptRecord
	}
	m := Measurement{
		StreamHandle: Handle(binary.LittleEndian.Uint32(payload)),
		AttrSet:      Handle(binary.LittleEndian.Uint32(payload[4:])),
		TimeNs:       int64(binary.LittleEndian.Uint64(payload[8:])),
	}
	kind := measurementValueKind(payload[16])
	rawValue := binary.LittleEndian.Uint64(payload[17:])
	switch kind {
	case measurementFloat64:
		m.IsFloat = true
		m.F64 = math.Float64frombits(rawValue)
	case measurementInt64:
		m.I64 = int64(rawValue)
	default:
		return Measurement{}, ErrCorruptRecord
	}
	sc, _, err := readSpanContext(payload[25:])
	if err != nil {
		return Measurement{}, err
	}
	m.Span = sc
	return m, nil
}

// writeMeasurement appends a Measurement record to the metric lane.
func writeMeasurement(r *region, m Measurement) error {
	_, err := appendFrame(r, laneKindMeasurement, encodeMeasurement(m))
	return err
}

// SpanStart is one span-lane record opening a span.
type SpanStart struct {
	Scope     Handle
	TraceID   TraceID
	SpanID    SpanID
	HasParent bool
	ParentID  SpanID
	Flags     uint8
	Name      Handle
	Kind      SpanKind
	StartNs   int64
	AttrSet   Handle
}

// encodeSpanStart lays out: scope(4) | traceId(16) | spanId(8) |
// hasParent(1) | parentId(8 if present) | flags(1) | name(4) | kind(1) |
// startNs(8) | attrSet(4).
func encodeSpanStart(s SpanStart) []byte {
	buf := binary.LittleEndian.AppendUint32(nil, uint32(s.Scope))
	buf = append(buf, s.TraceID[:]...)
	buf = append(buf, s.SpanID[:]...)
	if s.HasParent {
		buf = append(buf, 1)
		buf = append(buf, s.ParentID[:]...)
	} else {
		buf = append(buf, 0)
	}
	buf = append(buf, s.Flags)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(s.Name))
	buf = append(buf, byte(s.Kind))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(s.StartNs))
	return binary.LittleEndian.AppendUint32(buf, uint32(s.AttrSet))
}

func decodeSpanStart(payload []byte) (SpanStart, error) {
	if len(payload) < 4+16+8+1 {
		return SpanStart{}, ErrCorruptRecord
	}
	var s SpanStart
	s.Scope = Handle(binary.LittleEndian.Uint32(payload))
	off := 4
	copy(s.TraceID[:], payload[off:off+16])
	off += 16
	copy(s.SpanID[:], payload[off:off+8])
	off += 8
	hasParent := payload[off]
	off++
	if hasParent != 0 {
		if len(payload) < off+8 {
			return SpanStart{}, ErrCorruptRecord
		}
		s.HasParent = true
		copy(s.ParentID[:], payload[off:off+8])
		off += 8
	}
	if len(payload) < off+1+4+1+8+4 {
		return SpanStart{}, ErrCorruptRecord
	}
	s.Flags = payload[off]
	off++
	s.Name = Handle(binary.LittleEndian.Uint32(payload[off:]))
	off += 4
	s.Kind = SpanKind(payload[off])
	off++
	s.StartNs = int64(binary.LittleEndian.Uint64(payload[off:]))
	off += 8
	s.AttrSet = Handle(binary.LittleEndian.Uint32(payload[off:]))
	return s, nil
}

func writeSpanStart(r *region, s SpanStart) error {
	_, err := appendFrame(r, laneKindSpanStart, encodeSpanStart(s))
	return err
}

// SpanEnd is one span-lane record closing a span previously opened by a
// SpanStart with the same trace/span id.
type SpanEnd struct {
	Scope   Handle
	TraceID TraceID
	SpanID  SpanID
	EndNs   int64
}

func encodeSpanEnd(e SpanEnd) []byte {
	buf := binary.LittleEndian.AppendUint32(nil, uint32(e.Scope))
	buf = append(buf, e.TraceID[:]...)
	buf = append(buf, e.SpanID[:]...)
	return binary.LittleEndian.AppendUint64(buf, uint64(e.EndNs))
}

func decodeSpanEnd(payload []byte) (SpanEnd, error) {
	if len(payload) != 4+16+8+8 {
		return SpanEnd{}, ErrCorruptRecord
	}
	var e SpanEnd
	e.Scope = Handle(binary.LittleEndian.Uint32(payload))
	copy(e.TraceID[:], payload[4:20])
	copy(e.SpanID[:], payload[20:28])
	e.EndNs = int64(binary.LittleEndian.Uint64(payload[28:]))
	return e, nil
}

func writeSpanEnd(r *region, e SpanEnd) error {
	_, err := appendFrame(r, laneKindSpanEnd, encodeSpanEnd(e))
	return err
}

// Event is one event-lane record: used for both span events (Span set)
// and log records (Span unset).
type Event struct {
	Scope          Handle
	Span           SpanContext
	Name           Handle
	TimeNs         int64
	SeverityNumber uint8
	SeverityText   Handle
	AttrSet        Handle
}

// encodeEvent lays out: scope(4) | spanContext | name(4) | timeNs(8) |
// severityNumber(1) | severityText(4) | attrSet(4).
func encodeEvent(e Event) []byte {
	buf := binary.LittleEndian.AppendUint32(nil, uint32(e.Scope))
	buf = appendSpanContext(buf, e.Span)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(e.Name))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(e.TimeNs))
	buf = append(buf, e.SeverityNumber)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(e.SeverityText))
	return binary.LittleEndian.AppendUint32(buf, uint32(e.AttrSet))
}

func decodeEvent(payload []byte) (Event, error) {
	if len(payload) < 5 {
		return Event{}, ErrCorruptRecord
	}
	var e Event
	e.Scope = Handle(binary.LittleEndian.Uint32(payload))
	sc, n, err := readSpanContext(payload[4:])
	if err != nil {
		return Event{}, err
	}
	e.Span = sc
	rest := payload[4+n:]
	if len(rest) < 4+8+1+4+4 {
		return Event{}, ErrCorruptRecord
	}
	e.Name = Handle(binary.LittleEndian.Uint32(rest))
	e.TimeNs = int64(binary.LittleEndian.Uint64(rest[4:]))
	e.SeverityNumber = rest[12]
	e.SeverityText = Handle(binary.LittleEndian.Uint32(rest[13:]))
	e.AttrSet = Handle(binary.LittleEndian.Uint32(rest[17:]))
	return e, nil
}

func writeEvent(r *region, e Event) error {
	_, err := appendFrame(r, laneKindEvent, encodeEvent(e))
	return err
}
