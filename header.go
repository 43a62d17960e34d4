// Binary file header: magic, version, creation epoch, and the four region
// descriptors (dictionary, metric lane, span lane, event lane).
//
// Unlike the rest of this package's on-disk format, the header is not
// written once and forgotten: each region's cursor word lives inside the
// header and is mutated in place via atomic load/store for the lifetime of
// the file (see region.go). The header is therefore a fixed binary layout,
// not a self-describing encoding — every field lives at a constant byte
// offset so cursor words can be addressed directly in the mapped memory.
package otlpmmap

import (
	"encoding/binary"
	"errors"
)

// HeaderSize is the fixed, page-aligned size of the header region. Keeping
// it at one page means the dictionary region that follows starts
// page-aligned; the lane regions after it are page-aligned only when the
// capacities before them are page multiples.
const HeaderSize = 4096

// magic identifies a file created by this package. Written once at create
// time and checked on every open.
var magic = [8]byte{'O', 'T', 'L', 'P', 'M', 'M', 'A', 'P'}

// FormatVersion is the current on-disk format version.
const FormatVersion = 1

// Region indices into Header.Regions, matching the component table in the
// specification: one dictionary region plus one lane per record family.
const (
	RegionDictionary = 0
	RegionMetricLane = 1
	RegionSpanLane   = 2
	RegionEventLane  = 3
	numRegions       = 4
)

// Fixed byte offsets within the header. Each region descriptor is 24 bytes:
// 8-byte offset, 8-byte capacity, 8-byte cursor, all little-endian. All
// three fields are 8-byte aligned from a page-aligned base.
const (
	offMagic     = 0
	offVersion   = 8
	offCreatedNs = 16
	offRegions   = 24
	regionDescSize = 24
)

// RegionDescriptor is the host-side, non-atomic view of one region's
// static layout. Capacity is read once at open (the header itself never
// grows); Offset is the byte offset from the start of the file.
type RegionDescriptor struct {
	Offset   int64
	Capacity int64
}

// Header is a parsed snapshot of the fixed header fields (excluding the
// live cursor words, which are read through region — see region.go —
// because they change after the header is first written).
type Header struct {
	Version   uint32
	CreatedNs int64
	Regions   [numRegions]RegionDescriptor
}

// parseHeader validates the magic and version and extracts the static
// region layout from a freshly read or mapped header buffer.
func parseHeader(buf []byte) (*Header, error) {
	if len(buf) < HeaderSize {
		return nil, errors.Join(ErrCorruptHeader, errors.New("short header"))
	}
	if [8]byte(buf[offMagic:offMagic+8]) != magic {
		return nil, ErrCorruptHeader
	}
	h := &Header{
		Version:   binary.LittleEndian.Uint32(buf[offVersion:]),
		CreatedNs: int64(binary.LittleEndian.Uint64(buf[offCreatedNs:])),
	}
	if h.Version != FormatVersion {
		return nil, ErrCorruptHeader
	}
	for i := 0; i < numRegions; i++ {
		base := offRegions + i*regionDescSize
		h.Regions[i] = RegionDescriptor{
			Offset:   int64(binary.LittleEndian.Uint64(buf[base:])),
			Capacity: int64(binary.LittleEndian.Uint64(buf[base+8:])),
		}
	}
	return h, nil
}

// layout computes the region offsets for a fresh file given the four
// region capacities, placing the dictionary first and the three lanes
// after it, each starting immediately after the previous region ends.
// Only the dictionary is guaranteed to start page-aligned (at
// HeaderSize); capacities are chosen by the caller and need not be page
// multiples, so later regions start wherever the previous one ends.
func layout(dictCap, metricCap, spanCap, eventCap int64) [numRegions]RegionDescriptor {
	var regions [numRegions]RegionDescriptor
	caps := [numRegions]int64{dictCap, metricCap, spanCap, eventCap}
	offset := int64(HeaderSize)
	for i, c := range caps {
		regions[i] = RegionDescriptor{Offset: offset, Capacity: c}
		offset += c
	}
	return regions
}

// totalSize returns the full file size implied by a region layout.
func totalSize(regions [numRegions]RegionDescriptor) int64 {
	last := regions[numRegions-1]
	return last.Offset + last.Capacity
}

// encodeHeader renders the static header fields (magic, version, creation
// time, region offsets/capacities) into a HeaderSize buffer. Cursor words
// are left zero; region.go's cursor accessors own them from then on.
func encodeHeader(createdNs int64, regions [numRegions]RegionDescriptor) []byte {
	buf := make([]byte, HeaderSize)
	copy(buf[offMagic:], magic[:])
	binary.LittleEndian.PutUint32(buf[offVersion:], FormatVersion)
	binary.LittleEndian.PutUint64(buf[offCreatedNs:], uint64(createdNs))
	for i, r := range regions {
		base := offRegions + i*regionDescSize
		binary.LittleEndian.PutUint64(buf[base:], uint64(r.Offset))
		binary.LittleEndian.PutUint64(buf[base+8:], uint64(r.Capacity))
		// cursor word at base+16 left zero
	}
	return buf
}
