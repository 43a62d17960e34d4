// Dictionary record payload encode/decode tests, including the
// zstd-compression path for large string values.
package otlpmmap

import (
	"bytes"
	"strings"
	"testing"
)

func TestEncodeDecodeStringPayloadSmall(t *testing.T) {
	payload := encodeStringPayload(7, []byte("short"))
	h, raw, err := decodeStringPayload(payload)
	if err != nil {
		t.Fatalf("decodeStringPayload: %v", err)
	}
	if h != 7 || string(raw) != "short" {
		t.Errorf("got (%d,%q), want (7,%q)", h, raw, "short")
	}
}

func TestEncodeDecodeStringPayloadCompressed(t *testing.T) {
	long := strings.Repeat("a", 512)
	payload := encodeStringPayload(3, []byte(long))
	if payload[4] != 1 {
		t.Fatalf("expected the compressed flag to be set for a %d-byte payload", len(long))
	}
	h, raw, err := decodeStringPayload(payload)
	if err != nil {
		t.Fatalf("decodeStringPayload: %v", err)
	}
	if h != 3 || !bytes.Equal(raw, []byte(long)) {
		t.Errorf("round trip mismatch: got %d bytes, want %d", len(raw), len(long))
	}
}

func TestEncodeDecodeAttributeSetPayload(t *testing.T) {
	set := AttributeSet{
		{Key: 1, Value: Int64Value(5)},
		{Key: 2, Value: BoolValue(true)},
	}
	payload := encodeAttributeSetPayload(9, set)
	h, got, err := decodeAttributeSetPayload(payload)
	if err != nil {
		t.Fatalf("decodeAttributeSetPayload: %v", err)
	}
	if h != 9 || !equalAttributeSets(got, set) {
		t.Errorf("got (%d,%+v), want (9,%+v)", h, got, set)
	}
}

func TestEncodeDecodeResourcePayload(t *testing.T) {
	h, attrSet, schema, err := decodeResourcePayload(encodeResourcePayload(1, 2, 3))
	if err != nil {
		t.Fatalf("decodeResourcePayload: %v", err)
	}
	if h != 1 || attrSet != 2 || schema != 3 {
		t.Errorf("got (%d,%d,%d), want (1,2,3)", h, attrSet, schema)
	}
}

func TestEncodeDecodeScopePayload(t *testing.T) {
	h, resource, name, version, attrSet, err := decodeScopePayload(encodeScopePayload(1, 2, 3, 4, 5))
	if err != nil {
		t.Fatalf("decodeScopePayload: %v", err)
	}
	if h != 1 || resource != 2 || name != 3 || version != 4 || attrSet != 5 {
		t.Errorf("got (%d,%d,%d,%d,%d), want (1,2,3,4,5)", h, resource, name, version, attrSet)
	}
}

func TestEncodeDecodeMetricStreamPayloadSum(t *testing.T) {
	agg := Aggregation{Kind: AggregationSum, Temporality: TemporalityCumulative, Monotonic: true}
	h, scope, name, description, unit, got, err := decodeMetricStreamPayload(
		encodeMetricStreamPayload(1, 2, 3, 4, 5, agg))
	if err != nil {
		t.Fatalf("decodeMetricStreamPayload: %v", err)
	}
	if h != 1 || scope != 2 || name != 3 || description != 4 || unit != 5 || !equalAggregations(got, agg) {
		t.Errorf("got (%d,%d,%d,%d,%d,%+v), want (1,2,3,4,5,%+v)", h, scope, name, description, unit, got, agg)
	}
}

func TestEncodeDecodeMetricStreamPayloadHistogram(t *testing.T) {
	agg := Aggregation{Kind: AggregationHistogram, Temporality: TemporalityDelta, Boundaries: []float64{1, 5, 10}}
	_, _, _, _, _, got, err := decodeMetricStreamPayload(encodeMetricStreamPayload(1, 2, 3, 4, 5, agg))
	if err != nil {
		t.Fatalf("decodeMetricStreamPayload: %v", err)
	}
	if !equalAggregations(got, agg) {
		t.Errorf("got %+v, want %+v", got, agg)
	}
}

func TestEncodeDecodeMetricStreamPayloadGauge(t *testing.T) {
	agg := Aggregation{Kind: AggregationGauge}
	_, _, _, _, _, got, err := decodeMetricStreamPayload(encodeMetricStreamPayload(1, 2, 3, 4, 5, agg))
	if err != nil {
		t.Fatalf("decodeMetricStreamPayload: %v", err)
	}
	if got.Kind != AggregationGauge {
		t.Errorf("got %+v, want Gauge", got)
	}
}
