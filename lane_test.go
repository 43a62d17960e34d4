// Encode/decode round-trip tests for the three lane record kinds and
// the shared span-context sub-encoding.
package otlpmmap

import "testing"

func TestSpanContextRoundTripPresent(t *testing.T) {
	sc := SpanContext{HasSpan: true, TraceID: TraceID{1, 2, 3}, SpanID: SpanID{4, 5}, Flags: 1}
	buf := appendSpanContext(nil, sc)
	got, n, err := readSpanContext(buf)
	if err != nil {
		t.Fatalf("readSpanContext: %v", err)
	}
	if n != len(buf) {
		t.Errorf("consumed %d, want %d", n, len(buf))
	}
	if got != sc {
		t.Errorf("got %+v, want %+v", got, sc)
	}
	if !got.Sampled() {
		t.Error("expected Sampled() true with flags bit 0 set")
	}
}

func TestSpanContextRoundTripAbsent(t *testing.T) {
	buf := appendSpanContext(nil, SpanContext{})
	got, n, err := readSpanContext(buf)
	if err != nil {
		t.Fatalf("readSpanContext: %v", err)
	}
	if n != 1 {
		t.Errorf("consumed %d, want 1", n)
	}
	if got.HasSpan {
		t.Error("expected HasSpan false")
	}
}

func TestMeasurementRoundTripFloat(t *testing.T) {
	m := Measurement{StreamHandle: 3, AttrSet: 4, TimeNs: 1000, IsFloat: true, F64: 3.25}
	got, err := decodeMeasurement(encodeMeasurement(m))
	if err != nil {
		t.Fatalf("decodeMeasurement: %v", err)
	}
	if got != m {
		t.Errorf("got %+v, want %+v", got, m)
	}
}

func TestMeasurementRoundTripInt(t *testing.T) {
	m := Measurement{StreamHandle: 1, AttrSet: 2, TimeNs: 500, IsFloat: false, I64: -7}
	got, err := decodeMeasurement(encodeMeasurement(m))
	if err != nil {
		t.Fatalf("decodeMeasurement: %v", err)
	}
	if got != m {
		t.Errorf("got %+v, want %+v", got, m)
	}
}

func TestMeasurementWithSpanRoundTrip(t *testing.T) {
	m := Measurement{
		StreamHandle: 1, AttrSet: 2, TimeNs: 500, IsFloat: true, F64: 1.5,
		Span: SpanContext{HasSpan: true, TraceID: TraceID{9}, SpanID: SpanID{8}, Flags: 1},
	}
	got, err := decodeMeasurement(encodeMeasurement(m))
	if err != nil {
		t.Fatalf("decodeMeasurement: %v", err)
	}
	if got != m {
		t.Errorf("got %+v, want %+v", got, m)
	}
}

func TestSpanStartRoundTripNoParent(t *testing.T) {
	s := SpanStart{
		Scope: 1, TraceID: TraceID{1, 2, 3}, SpanID: SpanID{4, 5},
		Flags: 1, Name: 9, Kind: SpanKindServer, StartNs: 1000, AttrSet: 2,
	}
	got, err := decodeSpanStart(encodeSpanStart(s))
	if err != nil {
		t.Fatalf("decodeSpanStart: %v", err)
	}
	if got != s {
		t.Errorf("got %+v, want %+v", got, s)
	}
}

func TestSpanStartRoundTripWithParent(t *testing.T) {
	s := SpanStart{
		Scope: 1, TraceID: TraceID{1}, SpanID: SpanID{2},
		HasParent: true, ParentID: SpanID{9, 9},
		Flags: 0, Name: 3, Kind: SpanKindClient, StartNs: 42, AttrSet: 5,
	}
	got, err := decodeSpanStart(encodeSpanStart(s))
	if err != nil {
		t.Fatalf("decodeSpanStart: %v", err)
	}
	if got != s {
		t.Errorf("got %+v, want %+v", got, s)
	}
}

func TestSpanEndRoundTrip(t *testing.T) {
	e := SpanEnd{Scope: 1, TraceID: TraceID{1, 2}, SpanID: SpanID{3, 4}, EndNs: 9999}
	got, err := decodeSpanEnd(encodeSpanEnd(e))
	if err != nil {
		t.Fatalf("decodeSpanEnd: %v", err)
	}
	if got != e {
		t.Errorf("got %+v, want %+v", got, e)
	}
}

func TestEventRoundTripNoSpan(t *testing.T) {
	e := Event{Scope: 1, Name: 2, TimeNs: 123, SeverityNumber: 9, SeverityText: 4, AttrSet: 5}
	got, err := decodeEvent(encodeEvent(e))
	if err != nil {
		t.Fatalf("decodeEvent: %v", err)
	}
	if got != e {
		t.Errorf("got %+v, want %+v", got, e)
	}
}

func TestEventRoundTripWithSpan(t *testing.T) {
	e := Event{
		Scope: 1,
		Span:  SpanContext{HasSpan: true, TraceID: TraceID{1}, SpanID: SpanID{2}, Flags: 1},
		Name:  2, TimeNs: 123, SeverityNumber: 9, SeverityText: 4, AttrSet: 5,
	}
	got, err := decodeEvent(encodeEvent(e))
	if err != nil {
		t.Fatalf("decodeEvent: %v", err)
	}
	if got != e {
		t.Errorf("got %+v, want %+v", got, e)
	}
}

func TestWriteMeasurementSurfacesLaneFull(t *testing.T) {
	r, _ := newTestRegion(4)
	err := writeMeasurement(r, Measurement{})
	if err != errLaneFull {
		t.Fatalf("err = %v, want errLaneFull", err)
	}
}
