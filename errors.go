// Package otlpmmap is a telemetry exporter that writes traces, metrics, and
// logs into a shared memory-mapped file for an external collector process to
// drain asynchronously. The hot path never serializes, never blocks on I/O,
// and never propagates a failure into the instrumented application: capacity
// exhaustion and callback failures are recorded as drops instead.
package otlpmmap

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by exporter operations.
var (
	// ErrInvalidArgument is returned for malformed input: an empty metric
	// or scope name, a NaN or infinite histogram boundary, or duplicate
	// boundaries. Trace and span ids are fixed-size arrays, so their
	// length is never checked at run time.
	ErrInvalidArgument = errors.New("otlpmmap: invalid argument")

	// ErrClosed is returned when operating on a closed exporter.
	ErrClosed = errors.New("otlpmmap: exporter is closed")

	// ErrFileIO wraps failures creating, truncating, or mapping the
	// backing file. Only returned from Open/New; never from the hot path.
	ErrFileIO = errors.New("otlpmmap: file i/o error")

	// ErrCorruptHeader is returned when an existing file's header cannot
	// be parsed or fails its magic/version check.
	ErrCorruptHeader = errors.New("otlpmmap: corrupt header")

	// ErrUnknownHandle is returned by the reader when a record references
	// a handle that does not resolve after a full dictionary rescan.
	ErrUnknownHandle = errors.New("otlpmmap: unknown handle")

	// ErrCorruptRecord is returned when a lane or dictionary record fails
	// to decode.
	ErrCorruptRecord = errors.New("otlpmmap: corrupt record")

	// errLaneFull reports a region with no room for the next record. A
	// lane append that can't fit increments a drop counter instead (see
	// drops.go), the record is discarded, and the caller sees no error.
	// A dictionary-region append that can't fit is not turned into a
	// drop: the interning call returns errLaneFull, and so do the Record*
	// methods that intern names or attributes on the caller's behalf.
	errLaneFull = errors.New("otlpmmap: lane full")

	// errCallbackFailure is not returned by any function: the collector
	// tick records a failed or panicking callback as a drop directly
	// (see collector.go) and never propagates it.
	errCallbackFailure = errors.New("otlpmmap: observable callback failed")
)

// errorf wraps sentinel with a formatted detail message, joining them so
// callers can still match via errors.Is(err, sentinel).
func errorf(sentinel error, format string, args ...any) error {
	return errors.Join(sentinel, fmt.Errorf(format, args...))
}
