// Shared record framing used by both the dictionary region and the three
// lanes: a 4-byte length prefix, a 1-byte kind, then the kind-specific
// payload. length covers kind+payload, never itself.
//
// appendFrame reserves space with region.reserve (a lock-free fetch-add),
// writes the length word zero-first, fills in kind and payload, then
// issues the release store of the true length — so a reader never
// observes a partially written record.
package otlpmmap

const frameLengthSize = 4
const frameKindSize = 1
const frameHeaderSize = frameLengthSize + frameKindSize

// appendFrame writes one framed record into r and returns the region-
// relative offset of its length prefix (the same offset the reader uses
// to read it back). Returns errLaneFull if there is no room.
func appendFrame(r *region, kind byte, payload []byte) (uint64, error) {
	total := uint64(frameKindSize + len(payload))
	start, ok := r.reserve(frameLengthSize + total)
	if !ok {
		return 0, errLaneFull
	}

	// length is written zero-first (it already is, in fresh mmap'd
	// memory, but the explicit store matches the protocol regardless of
	// what backs the mapping) so a concurrent reader polling this offset
	// observes "not ready" until the final release store below.
	r.publish(start, 0)

	r.data[start+frameLengthSize] = kind
	copy(r.data[start+frameHeaderSize:start+frameHeaderSize+uint64(len(payload))], payload)

	r.publish(start, uint32(total))
	return start, nil
}

// readFrame loads the frame at a region-relative offset. ok is false when
// the record at that offset has not yet been published (length still
// zero) — the caller must separately check the offset against the
// region's write-cursor to distinguish "not yet written" from "caught up".
func readFrame(r *region, offset uint64) (kind byte, payload []byte, recordLen uint64, ok bool) {
	length := r.peekLength(offset)
	if length == 0 {
		return 0, nil, 0, false
	}
	kind = r.data[offset+frameLengthSize]
	payload = r.data[offset+frameHeaderSize : offset+frameLengthSize+uint64(length)]
	return kind, payload, frameLengthSize + uint64(length), true
}
