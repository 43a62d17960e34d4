package otlpmmap

// TraceID is a 16-byte W3C trace identifier.
type TraceID [16]byte

// SpanID is an 8-byte W3C span identifier.
type SpanID [8]byte

// spanFlagSampled marks bit 0 of a SpanContext's flags byte.
const spanFlagSampled = 1 << 0

// SpanContext identifies the span a Measurement or Event record belongs
// to (SpanStart and SpanEnd carry their ids as separate fields). A
// zero-value SpanContext (HasSpan false) means "no span" — used for log
// records, for Events not attached to a span, and for Measurements
// taken outside a span.
type SpanContext struct {
	HasSpan bool
	TraceID TraceID
	SpanID  SpanID
	Flags   uint8
}

// Sampled reports whether the sampled bit is set in Flags.
func (c SpanContext) Sampled() bool { return c.Flags&spanFlagSampled != 0 }

// SpanKind tags a SpanStart's OpenTelemetry span kind.
type SpanKind uint8

const (
	SpanKindInternal SpanKind = iota + 1
	SpanKindServer
	SpanKindClient
	SpanKindProducer
	SpanKindConsumer
)
