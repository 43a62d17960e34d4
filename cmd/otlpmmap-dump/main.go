// Command otlpmmap-dump opens a backing file read-only and prints one
// JSON object per record across all three lanes, resolving the string
// and attribute-set handles in those records through the dictionary.
// Dictionary records are not printed on their own. A thin operational
// tool for inspecting a file's contents, not a reimplementation of the
// downstream OTLP serializer.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/goccy/go-json"

	otlpmmap "github.com/jsuereth/otlp-mmap-go"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s <path-to-otlpmmap-file>\n", os.Args[0])
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(flag.Arg(0)); err != nil {
		fmt.Fprintf(os.Stderr, "otlpmmap-dump: %s\n", err)
		os.Exit(1)
	}
}

func run(path string) error {
	r, err := otlpmmap.OpenReader(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer r.Close()

	enc := json.NewEncoder(os.Stdout)

	for {
		m, ok, err := r.ReadMetric()
		if err != nil {
			return fmt.Errorf("read metric: %w", err)
		}
		if !ok {
			break
		}
		if err := enc.Encode(metricRecord(r, m)); err != nil {
			return err
		}
	}

	for {
		start, end, isStart, ok, err := r.ReadSpan()
		if err != nil {
			return fmt.Errorf("read span: %w", err)
		}
		if !ok {
			break
		}
		if isStart {
			if err := enc.Encode(spanStartRecord(r, start)); err != nil {
				return err
			}
		} else {
			if err := enc.Encode(spanEndRecord(end)); err != nil {
				return err
			}
		}
	}

	for {
		ev, ok, err := r.ReadEvent()
		if err != nil {
			return fmt.Errorf("read event: %w", err)
		}
		if !ok {
			break
		}
		if err := enc.Encode(eventRecord(r, ev)); err != nil {
			return err
		}
	}

	return nil
}

func metricRecord(r *otlpmmap.Reader, m otlpmmap.Measurement) map[string]any {
	value := any(m.I64)
	if m.IsFloat {
		value = m.F64
	}
	return map[string]any{
		"kind":       "measurement",
		"stream":     m.StreamHandle,
		"attributes": resolveAttrs(r, m.AttrSet),
		"time_ns":    m.TimeNs,
		"value":      value,
	}
}

func spanStartRecord(r *otlpmmap.Reader, s otlpmmap.SpanStart) map[string]any {
	return map[string]any{
		"kind":          "span_start",
		"scope":         s.Scope,
		"trace_id":      fmt.Sprintf("%x", s.TraceID),
		"span_id":       fmt.Sprintf("%x", s.SpanID),
		"name":          resolveString(r, s.Name),
		"span_kind":     s.Kind,
		"start_time_ns": s.StartNs,
		"attributes":    resolveAttrs(r, s.AttrSet),
	}
}

func spanEndRecord(e otlpmmap.SpanEnd) map[string]any {
	return map[string]any{
		"kind":        "span_end",
		"trace_id":    fmt.Sprintf("%x", e.TraceID),
		"span_id":     fmt.Sprintf("%x", e.SpanID),
		"end_time_ns": e.EndNs,
	}
}

func eventRecord(r *otlpmmap.Reader, ev otlpmmap.Event) map[string]any {
	return map[string]any{
		"kind":            "event",
		"scope":           ev.Scope,
		"name":            resolveString(r, ev.Name),
		"time_ns":         ev.TimeNs,
		"severity_number": ev.SeverityNumber,
		"severity_text":   resolveString(r, ev.SeverityText),
		"attributes":      resolveAttrs(r, ev.AttrSet),
	}
}

func resolveString(r *otlpmmap.Reader, h otlpmmap.Handle) string {
	if h == otlpmmap.NoHandle {
		return ""
	}
	raw, err := r.Dict.ResolveString(h)
	if err != nil {
		return fmt.Sprintf("<unresolved:%d>", h)
	}
	return string(raw)
}

func resolveAttrs(r *otlpmmap.Reader, h otlpmmap.Handle) map[string]any {
	if h == otlpmmap.NoHandle {
		return nil
	}
	set, err := r.Dict.ResolveAttributeSet(h)
	if err != nil {
		return map[string]any{"error": err.Error()}
	}
	out := make(map[string]any, len(set))
	for _, pair := range set {
		key, err := r.Dict.ResolveString(pair.Key)
		name := fmt.Sprintf("<unresolved:%d>", pair.Key)
		if err == nil {
			name = string(key)
		}
		out[name] = attrValue(r, pair.Value)
	}
	return out
}

func attrValue(r *otlpmmap.Reader, v otlpmmap.AttributeValue) any {
	switch v.Kind {
	case otlpmmap.KindString:
		return resolveString(r, v.Str)
	case otlpmmap.KindInt64:
		return v.I64
	case otlpmmap.KindFloat64:
		return v.F64
	case otlpmmap.KindBool:
		return v.Bool
	case otlpmmap.KindBytes:
		return fmt.Sprintf("%x", v.Bytes)
	case otlpmmap.KindArray:
		out := make([]any, len(v.Array))
		for i, e := range v.Array {
			out[i] = attrValue(r, e)
		}
		return out
	default:
		return nil
	}
}
