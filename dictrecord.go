// Payload encoding for the five kinds of dictionary record. Every payload
// begins with the entity's own handle so a reader rescanning the
// dictionary region can validate the sequence and stop as soon as it has
// found the handle it was looking for.
package otlpmmap

import (
	"encoding/binary"
	"math"

	"github.com/klauspost/compress/zstd"
)

// Dictionary record kinds.
const (
	dictKindString       byte = 1
	dictKindAttributeSet byte = 2
	dictKindResource     byte = 3
	dictKindScope        byte = 4
	dictKindMetricStream byte = 5
)

// compressThreshold is the size at or above which an interned string is
// zstd-compressed before being written to the dictionary region (kept
// compressed only if that makes it shorter). Byte-array attribute values
// inside attribute-set records are written uncompressed. Compression
// runs on the producer when a string is first interned, so the fastest
// encoder level is used, favouring encode speed over ratio.
const compressThreshold = 64

var (
	dictZstdEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	dictZstdDecoder, _ = zstd.NewReader(nil)
)

// encodeStringPayload lays out: handle(4) | compressed-flag(1) | rawLen(4
// if compressed) | bytes.
func encodeStringPayload(h Handle, raw []byte) []byte {
	buf := binary.LittleEndian.AppendUint32(nil, uint32(h))
	if len(raw) >= compressThreshold {
		compressed := dictZstdEncoder.EncodeAll(raw, nil)
		if len(compressed) < len(raw) {
			buf = append(buf, 1)
			buf = binary.LittleEndian.AppendUint32(buf, uint32(len(raw)))
			return append(buf, compressed...)
		}
	}
	buf = append(buf, 0)
	return append(buf, raw...)
}

func decodeStringPayload(payload []byte) (h Handle, raw []byte, err error) {
	if len(payload) < 5 {
		return 0, nil, ErrCorruptRecord
	}
	h = Handle(binary.LittleEndian.Uint32(payload))
	compressed := payload[4]
	rest := payload[5:]
	if compressed == 0 {
		return h, rest, nil
	}
	if len(rest) < 4 {
		return 0, nil, ErrCorruptRecord
	}
	rawLen := binary.LittleEndian.Uint32(rest)
	out, err := dictZstdDecoder.DecodeAll(rest[4:], make([]byte, 0, rawLen))
	if err != nil {
		return 0, nil, ErrCorruptRecord
	}
	return h, out, nil
}

// encodeAttributeSetPayload lays out: handle(4) | count(2) | repeated
// (keyHandle(4) | value bytes, reusing appendValueBytes's shape).
func encodeAttributeSetPayload(h Handle, set AttributeSet) []byte {
	buf := binary.LittleEndian.AppendUint32(nil, uint32(h))
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(set)))
	for _, pair := range set {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(pair.Key))
		buf = appendValueBytes(buf, pair.Value)
	}
	return buf
}

func decodeAttributeSetPayload(payload []byte) (h Handle, set AttributeSet, err error) {
	if len(payload) < 6 {
		return 0, nil, ErrCorruptRecord
	}
	h = Handle(binary.LittleEndian.Uint32(payload))
	count := binary.LittleEndian.Uint16(payload[4:])
	rest := payload[6:]
	set = make(AttributeSet, 0, count)
	for i := uint16(0); i < count; i++ {
		if len(rest) < 4 {
			return 0, nil, ErrCorruptRecord
		}
		key := Handle(binary.LittleEndian.Uint32(rest))
		rest = rest[4:]
		v, n, err := decodeValueBytes(rest)
		if err != nil {
			return 0, nil, err
		}
		rest = rest[n:]
		set = append(set, attrPair{Key: key, Value: v})
	}
	return h, set, nil
}

// decodeValueBytes decodes one appendValueBytes-encoded value and returns
// the number of bytes consumed.
func decodeValueBytes(buf []byte) (AttributeValue, int, error) {
	if len(buf) < 1 {
		return AttributeValue{}, 0, ErrCorruptRecord
	}
	kind := ValueKind(buf[0])
	switch kind {
	case KindString:
		if len(buf) < 5 {
			return AttributeValue{}, 0, ErrCorruptRecord
		}
		return AttributeValue{Kind: kind, Str: Handle(binary.LittleEndian.Uint32(buf[1:]))}, 5, nil
	case KindInt64:
		if len(buf) < 9 {
			return AttributeValue{}, 0, ErrCorruptRecord
		}
		return AttributeValue{Kind: kind, I64: int64(binary.LittleEndian.Uint64(buf[1:]))}, 9, nil
	case KindFloat64:
		if len(buf) < 9 {
			return AttributeValue{}, 0, ErrCorruptRecord
		}
		return AttributeValue{Kind: kind, F64: math.Float64frombits(binary.LittleEndian.Uint64(buf[1:]))}, 9, nil
	case KindBool:
		if len(buf) < 2 {
			return AttributeValue{}, 0, ErrCorruptRecord
		}
		return AttributeValue{Kind: kind, Bool: buf[1] != 0}, 2, nil
	case KindBytes:
		if len(buf) < 5 {
			return AttributeValue{}, 0, ErrCorruptRecord
		}
		n := binary.LittleEndian.Uint32(buf[1:])
		if uint32(len(buf)-5) < n {
			return AttributeValue{}, 0, ErrCorruptRecord
		}
		raw := append([]byte(nil), buf[5:5+n]...)
		return AttributeValue{Kind: kind, Bytes: raw}, 5 + int(n), nil
	case KindArray:
		if len(buf) < 5 {
			return AttributeValue{}, 0, ErrCorruptRecord
		}
		n := binary.LittleEndian.Uint32(buf[1:])
		rest := buf[5:]
		consumed := 5
		elems := make([]AttributeValue, 0, n)
		for i := uint32(0); i < n; i++ {
			v, c, err := decodeValueBytes(rest)
			if err != nil {
				return AttributeValue{}, 0, err
			}
			elems = append(elems, v)
			rest = rest[c:]
			consumed += c
		}
		return AttributeValue{Kind: kind, Array: elems}, consumed, nil
	default:
		return AttributeValue{}, 0, ErrCorruptRecord
	}
}

// encodeResourcePayload lays out: handle(4) | attrSetHandle(4) | schemaHandle(4).
func encodeResourcePayload(h, attrSet, schema Handle) []byte {
	buf := binary.LittleEndian.AppendUint32(nil, uint32(h))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(attrSet))
	return binary.LittleEndian.AppendUint32(buf, uint32(schema))
}

func decodeResourcePayload(payload []byte) (h, attrSet, schema Handle, err error) {
	if len(payload) != 12 {
		return 0, 0, 0, ErrCorruptRecord
	}
	h = Handle(binary.LittleEndian.Uint32(payload))
	attrSet = Handle(binary.LittleEndian.Uint32(payload[4:]))
	schema = Handle(binary.LittleEndian.Uint32(payload[8:]))
	return h, attrSet, schema, nil
}

// encodeScopePayload lays out: handle(4) | resource(4) | name(4) | version(4) | attrSet(4).
func encodeScopePayload(h, resource, name, version, attrSet Handle) []byte {
	buf := binary.LittleEndian.AppendUint32(nil, uint32(h))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(resource))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(name))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(version))
	return binary.LittleEndian.AppendUint32(buf, uint32(attrSet))
}

func decodeScopePayload(payload []byte) (h, resource, name, version, attrSet Handle, err error) {
	if len(payload) != 20 {
		return 0, 0, 0, 0, 0, ErrCorruptRecord
	}
	h = Handle(binary.LittleEndian.Uint32(payload))
	resource = Handle(binary.LittleEndian.Uint32(payload[4:]))
	name = Handle(binary.LittleEndian.Uint32(payload[8:]))
	version = Handle(binary.LittleEndian.Uint32(payload[12:]))
	attrSet = Handle(binary.LittleEndian.Uint32(payload[16:]))
	return h, resource, name, version, attrSet, nil
}

// encodeMetricStreamPayload lays out: handle(4) | scope(4) | name(4) |
// description(4) | unit(4) | aggregation kind(1) | aggregation-specific.
func encodeMetricStreamPayload(h, scope, name, description, unit Handle, agg Aggregation) []byte {
	buf := binary.LittleEndian.AppendUint32(nil, uint32(h))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(scope))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(name))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(description))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(unit))
	buf = append(buf, byte(agg.Kind))
	switch agg.Kind {
	case AggregationSum:
		buf = append(buf, byte(agg.Temporality))
		if agg.Monotonic {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
	case AggregationGauge:
		// no payload
	case AggregationHistogram:
		buf = append(buf, byte(agg.Temporality))
		buf = binary.LittleEndian.AppendUint16(buf, uint16(len(agg.Boundaries)))
		for _, b := range agg.Boundaries {
			buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(b))
		}
	}
	return buf
}

func decodeMetricStreamPayload(payload []byte) (h, scope, name, description, unit Handle, agg Aggregation, err error) {
	if len(payload) < 21 {
		return 0, 0, 0, 0, 0, Aggregation{}, ErrCorruptRecord
	}
	h = Handle(binary.LittleEndian.Uint32(payload))
	scope = Handle(binary.LittleEndian.Uint32(payload[4:]))
	name = Handle(binary.LittleEndian.Uint32(payload[8:]))
	description = Handle(binary.LittleEndian.Uint32(payload[12:]))
	unit = Handle(binary.LittleEndian.Uint32(payload[16:]))
	kind := AggregationKind(payload[20])
	rest := payload[21:]
	switch kind {
	case AggregationSum:
		if len(rest) < 2 {
			return 0, 0, 0, 0, 0, Aggregation{}, ErrCorruptRecord
		}
		agg = Aggregation{Kind: kind, Temporality: Temporality(rest[0]), Monotonic: rest[1] != 0}
	case AggregationGauge:
		agg = Aggregation{Kind: kind}
	case AggregationHistogram:
		if len(rest) < 3 {
			return 0, 0, 0, 0, 0, Aggregation{}, ErrCorruptRecord
		}
		temp := Temporality(rest[0])
		n := binary.LittleEndian.Uint16(rest[1:])
		rest = rest[3:]
		if len(rest) < int(n)*8 {
			return 0, 0, 0, 0, 0, Aggregation{}, ErrCorruptRecord
		}
		bounds := make([]float64, n)
		for i := range bounds {
			bounds[i] = math.Float64frombits(binary.LittleEndian.Uint64(rest[i*8:]))
		}
		agg = Aggregation{Kind: kind, Temporality: temp, Boundaries: bounds}
	default:
		return 0, 0, 0, 0, 0, Aggregation{}, ErrCorruptRecord
	}
	return h, scope, name, description, unit, agg, nil
}
