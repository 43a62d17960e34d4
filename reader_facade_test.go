// Companion Reader façade tests: read_metric/read_span/read_event
// against a file a producer has already written to.
package otlpmmap

import (
	"path/filepath"
	"testing"
)

func TestReaderReadMetricSpanEvent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "companion.otlpmmap")
	e, err := New(path, Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	scopeName, _ := e.InternString("scope")
	scope, err := e.CreateInstrumentationScope(NoHandle, scopeName, NoHandle, NoHandle)
	if err != nil {
		t.Fatalf("CreateInstrumentationScope: %v", err)
	}
	metricName, _ := e.InternString("m")
	stream, err := e.CreateMetricStream(scope, metricName, NoHandle, NoHandle, Aggregation{Kind: AggregationGauge})
	if err != nil {
		t.Fatalf("CreateMetricStream: %v", err)
	}
	if err := e.RecordMeasurement(stream, Attrs{}, 100, 1.0, SpanContext{}); err != nil {
		t.Fatalf("RecordMeasurement: %v", err)
	}

	var traceID TraceID
	var spanID SpanID
	if err := e.RecordSpanStart(scope, traceID, spanID, nil, 0, Name("op"), SpanKindInternal, 1, Attrs{}); err != nil {
		t.Fatalf("RecordSpanStart: %v", err)
	}
	if err := e.RecordSpanEnd(scope, traceID, spanID, 2); err != nil {
		t.Fatalf("RecordSpanEnd: %v", err)
	}

	evName, err := e.InternString("ev")
	if err != nil {
		t.Fatalf("InternString(ev): %v", err)
	}
	if err := e.RecordEvent(scope, SpanContext{}, NameHandle(evName), 3, 1, NameArg{}, Attrs{}); err != nil {
		t.Fatalf("RecordEvent: %v", err)
	}
	if err := e.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r, err := OpenReader(path)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer r.Close()

	m, ok, err := r.ReadMetric()
	if err != nil || !ok {
		t.Fatalf("ReadMetric: ok=%v err=%v", ok, err)
	}
	if m.StreamHandle != stream {
		t.Errorf("StreamHandle = %d, want %d", m.StreamHandle, stream)
	}

	start, _, isStart, ok, err := r.ReadSpan()
	if err != nil || !ok || !isStart {
		t.Fatalf("ReadSpan (start): ok=%v isStart=%v err=%v", ok, isStart, err)
	}
	if start.TraceID != traceID {
		t.Errorf("start.TraceID mismatch")
	}

	_, end, isStart, ok, err := r.ReadSpan()
	if err != nil || !ok || isStart {
		t.Fatalf("ReadSpan (end): ok=%v isStart=%v err=%v", ok, isStart, err)
	}
	if end.EndNs != 2 {
		t.Errorf("end.EndNs = %d, want 2", end.EndNs)
	}

	ev, ok, err := r.ReadEvent()
	if err != nil || !ok {
		t.Fatalf("ReadEvent: ok=%v err=%v", ok, err)
	}
	if ev.Name != evName {
		t.Errorf("ev.Name = %d, want %d", ev.Name, evName)
	}

	if _, ok, _ := r.ReadMetric(); ok {
		t.Error("expected metric lane to be caught up")
	}
}
