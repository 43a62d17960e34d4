package otlpmmap

import "math"

// Handle is a 32-bit stable identifier for an interned entity. Handle 0
// ("NoHandle") means absent — e.g. a scope with no version, or a
// Resource with no schema URL.
type Handle uint32

// NoHandle is the reserved value meaning "absent".
const NoHandle Handle = 0

// ValueKind tags the variant held by an AttributeValue.
type ValueKind uint8

const (
	KindString ValueKind = iota + 1
	KindInt64
	KindFloat64
	KindBool
	KindBytes
	KindArray
)

// AttributeValue is a tagged union over the value types this format
// supports: string (by handle, already interned), i64, f64, bool, a raw
// byte array, or a homogeneous array of any of the above (Array never
// contains KindArray elements — arrays of arrays are not part of the
// data model).
type AttributeValue struct {
	Kind  ValueKind
	Str   Handle // valid when Kind == KindString
	I64   int64
	F64   float64
	Bool  bool
	Bytes []byte
	Array []AttributeValue
}

// StringValue builds a string-kinded AttributeValue from an already
// interned string handle.
func StringValue(h Handle) AttributeValue { return AttributeValue{Kind: KindString, Str: h} }

// Int64Value builds an i64-kinded AttributeValue.
func Int64Value(v int64) AttributeValue { return AttributeValue{Kind: KindInt64, I64: v} }

// Float64Value builds an f64-kinded AttributeValue.
func Float64Value(v float64) AttributeValue { return AttributeValue{Kind: KindFloat64, F64: v} }

// BoolValue builds a bool-kinded AttributeValue.
func BoolValue(v bool) AttributeValue { return AttributeValue{Kind: KindBool, Bool: v} }

// BytesValue builds a byte-array-kinded AttributeValue.
func BytesValue(v []byte) AttributeValue { return AttributeValue{Kind: KindBytes, Bytes: v} }

// ArrayValue builds an array-kinded AttributeValue. All elements must
// share the same Kind and none may itself be KindArray; validated by
// validateValue during interning.
func ArrayValue(elems []AttributeValue) AttributeValue { return AttributeValue{Kind: KindArray, Array: elems} }

// validateValue rejects values that cannot be canonicalized deterministically:
// NaN floats (no total order, would break structural equality) and
// non-homogeneous or nested arrays.
func validateValue(v AttributeValue) error {
	switch v.Kind {
	case KindFloat64:
		if math.IsNaN(v.F64) {
			return ErrInvalidArgument
		}
	case KindArray:
		if len(v.Array) == 0 {
			return nil
		}
		elemKind := v.Array[0].Kind
		if elemKind == KindArray {
			return ErrInvalidArgument
		}
		for _, e := range v.Array {
			if e.Kind != elemKind {
				return ErrInvalidArgument
			}
			if err := validateValue(e); err != nil {
				return err
			}
		}
	case KindString, KindInt64, KindBool, KindBytes:
		// no further validation
	default:
		return ErrInvalidArgument
	}
	return nil
}

// equalValues reports structural equality: arrays compare element-wise,
// floats compare by IEEE-754 bit pattern (NaN excluded by validateValue
// at interning time, so bit equality is sufficient here).
func equalValues(a, b AttributeValue) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindString:
		return a.Str == b.Str
	case KindInt64:
		return a.I64 == b.I64
	case KindFloat64:
		return math.Float64bits(a.F64) == math.Float64bits(b.F64)
	case KindBool:
		return a.Bool == b.Bool
	case KindBytes:
		if len(a.Bytes) != len(b.Bytes) {
			return false
		}
		for i := range a.Bytes {
			if a.Bytes[i] != b.Bytes[i] {
				return false
			}
		}
		return true
	case KindArray:
		if len(a.Array) != len(b.Array) {
			return false
		}
		for i := range a.Array {
			if !equalValues(a.Array[i], b.Array[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// AttrEntry is one (key, value) pair as supplied by a caller, before the
// key string is interned and the set is canonicalized.
type AttrEntry struct {
	Key   string
	Value AttributeValue
}

// attrPair is a canonicalized (key-handle, value) pair — the unit the
// dictionary sorts and compares structurally.
type attrPair struct {
	Key   Handle
	Value AttributeValue
}

// AttributeSet is the canonical, sorted-by-key-handle form of an interned
// attribute map. Two logically equal maps always produce an identical
// AttributeSet regardless of input order.
type AttributeSet []attrPair

func equalAttributeSets(a, b AttributeSet) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Key != b[i].Key || !equalValues(a[i].Value, b[i].Value) {
			return false
		}
	}
	return true
}

// AggregationKind tags a MetricStream's aggregation descriptor.
type AggregationKind uint8

const (
	AggregationSum AggregationKind = iota + 1
	AggregationGauge
	AggregationHistogram
)

// Temporality selects delta or cumulative accumulation for Sum and
// Histogram aggregations.
type Temporality uint8

const (
	TemporalityDelta Temporality = iota + 1
	TemporalityCumulative
)

// Aggregation is the tagged union describing a metric stream's
// aggregation: Sum carries temporality and monotonicity, Gauge carries
// nothing, Histogram carries temporality plus sorted, deduplicated,
// finite bucket boundaries.
type Aggregation struct {
	Kind        AggregationKind
	Temporality Temporality // Sum, Histogram
	Monotonic   bool        // Sum only
	Boundaries  []float64   // Histogram only; nil means sum/count only
}

// equalAggregations compares two descriptors structurally: histogram
// boundaries compare element-wise by IEEE-754 bit pattern.
func equalAggregations(a, b Aggregation) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case AggregationSum:
		return a.Temporality == b.Temporality && a.Monotonic == b.Monotonic
	case AggregationGauge:
		return true
	case AggregationHistogram:
		if a.Temporality != b.Temporality || len(a.Boundaries) != len(b.Boundaries) {
			return false
		}
		for i := range a.Boundaries {
			if math.Float64bits(a.Boundaries[i]) != math.Float64bits(b.Boundaries[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// validateAggregation rejects NaN and infinite boundaries; an empty
// boundary list is valid and means "sum and count only". sortBoundaries
// in canon.go handles ordering and duplicate rejection before interning.
func validateAggregation(a Aggregation) error {
	if a.Kind == AggregationHistogram {
		for _, b := range a.Boundaries {
			if math.IsNaN(b) || math.IsInf(b, 0) {
				return ErrInvalidArgument
			}
		}
	}
	return nil
}
