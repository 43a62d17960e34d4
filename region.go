package otlpmmap

import (
	"sync/atomic"
	"unsafe"
)

// region binds a RegionDescriptor to the live mapped file so its cursor
// word can be addressed directly in memory. The cursor lives inside the
// header at offRegions+i*regionDescSize+16, which is 8-byte aligned because
// HeaderSize and regionDescSize are both multiples of 8 — required for the
// atomic load/store below to be well-defined.
type region struct {
	desc   RegionDescriptor
	cursor *atomic.Uint64 // points into the mapped header bytes
	data   []byte         // the region's own byte range within the mapping
}

// newRegion constructs a region view over a mapped file. idx selects which
// of the four header region descriptors owns the cursor word.
func newRegion(mapped []byte, idx int, desc RegionDescriptor) region {
	cursorOff := offRegions + idx*regionDescSize + 16
	cursor := (*atomic.Uint64)(unsafe.Pointer(&mapped[cursorOff]))
	return region{
		desc:   desc,
		cursor: cursor,
		data:   mapped[desc.Offset : desc.Offset+desc.Capacity],
	}
}

// Cursor loads the region's write-cursor with acquire semantics: a reader
// that observes a cursor value also observes every byte written before the
// matching release store that advanced it to that value.
func (r *region) Cursor() uint64 {
	return r.cursor.Load()
}

// reserve atomically reserves length bytes by fetch-add on the cursor,
// returning the start offset. If the new cursor overflows capacity, it
// attempts a best-effort CAS rewind back to the pre-reservation value;
// this only succeeds if no other writer reserved space after ours. When
// the rewind loses the race, the bytes between the old and new cursor are
// a permanent padded hole: never written, so a reader reaching that
// offset keeps observing length zero and returns Empty — tolerated
// rather than retried, since there is no wraparound to recover the space
// anyway.
func (r *region) reserve(length uint64) (start uint64, ok bool) {
	capacity := uint64(r.desc.Capacity)
	newCursor := r.cursor.Add(length)
	start = newCursor - length
	if newCursor > capacity {
		r.cursor.CompareAndSwap(newCursor, start)
		return 0, false
	}
	return start, true
}

// publish issues the release store of the true record length into the
// record's 4-byte length prefix at the given region-relative offset. Must
// be called only after the record's payload bytes have been fully written.
func (r *region) publish(offset uint64, length uint32) {
	word := (*atomic.Uint32)(unsafe.Pointer(&r.data[offset]))
	word.Store(length)
}

// peekLength loads the 4-byte length prefix at a region-relative offset
// with acquire semantics. Zero means "not yet published" (or past the
// write-cursor, which the caller must check separately).
func (r *region) peekLength(offset uint64) uint32 {
	word := (*atomic.Uint32)(unsafe.Pointer(&r.data[offset]))
	return word.Load()
}
