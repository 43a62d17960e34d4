// The file and region manager: creates or opens the backing file,
// sizes and maps it with mmap-go, and exposes the four regions.
//
// Creating a fresh file is protected by an exclusive OS flock held only
// across the create-truncate-write-header sequence, adapted from the
// teacher's lock.go/lock_unix.go/lock_windows.go: two processes racing
// to create the same path must not truncate each other's header mid-
// write. Once the header is mapped, the lock is released — producer
// access afterward is governed by the atomic cursor protocol in
// region.go, not file locks.
package otlpmmap

import (
	"os"

	"github.com/edsrzf/mmap-go"
)

// DefaultFileSize is the total backing-file size used when a Config
// leaves Capacities unset: 64 MiB.
const DefaultFileSize = 64 << 20

// Capacities sizes the four regions of a fresh file. Ignored when
// opening an existing file — its header is authoritative.
type Capacities struct {
	Dictionary int64
	MetricLane int64
	SpanLane   int64
	EventLane  int64
}

// DefaultCapacities splits DefaultFileSize evenly across the four
// regions after the header.
func DefaultCapacities() Capacities {
	each := (int64(DefaultFileSize) - HeaderSize) / 4
	return Capacities{Dictionary: each, MetricLane: each, SpanLane: each, EventLane: each}
}

// mappedFile owns the open file descriptor and its mmap-go mapping for
// the lifetime of an Exporter or LaneReader.
type mappedFile struct {
	f       *os.File
	mapping mmap.MMap
	header  *Header
	regions [numRegions]region
}

// createFile creates a fresh file at path sized per caps, writes the
// header, and maps it read-write. Fails with an error wrapping
// ErrFileIO if the path already exists and is a valid file — callers
// wanting open-or-create semantics should try openFile first.
func createFile(path string, caps Capacities, nowNs int64) (*mappedFile, error) {
	lockFile, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, errorf(ErrFileIO, "create: %w", err)
	}
	lock := &fileLock{}
	lock.setFile(lockFile)
	if err := lock.Lock(LockExclusive); err != nil {
		lockFile.Close()
		return nil, errorf(ErrFileIO, "lock: %w", err)
	}
	defer func() {
		lock.Unlock()
		lockFile.Close()
	}()

	existing := make([]byte, HeaderSize)
	if n, _ := lockFile.ReadAt(existing, 0); n == HeaderSize {
		if _, err := parseHeader(existing); err == nil {
			return nil, errorf(ErrFileIO, "create: %s already holds a valid header", path)
		}
	}

	regions := layout(caps.Dictionary, caps.MetricLane, caps.SpanLane, caps.EventLane)
	size := totalSize(regions)

	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, errorf(ErrFileIO, "open: %w", err)
	}
	if err := f.Truncate(size); err != nil {
		f.Close()
		return nil, errorf(ErrFileIO, "truncate: %w", err)
	}
	if _, err := f.WriteAt(encodeHeader(nowNs, regions), 0); err != nil {
		f.Close()
		return nil, errorf(ErrFileIO, "write header: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return nil, errorf(ErrFileIO, "sync: %w", err)
	}

	return mapFile(f, mmap.RDWR)
}

// openFile maps an existing file, validating its header. mode is
// mmap.RDWR for a producer, mmap.RDONLY for a reader-only open.
func openFile(path string, mode int) (*mappedFile, error) {
	flags := os.O_RDWR
	if mode == mmap.RDONLY {
		flags = os.O_RDONLY
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, errorf(ErrFileIO, "open: %w", err)
	}
	return mapFile(f, mode)
}

func mapFile(f *os.File, mode int) (*mappedFile, error) {
	m, err := mmap.Map(f, mode, 0)
	if err != nil {
		f.Close()
		return nil, errorf(ErrFileIO, "mmap: %w", err)
	}
	h, err := parseHeader(m)
	if err != nil {
		m.Unmap()
		f.Close()
		return nil, err
	}

	mf := &mappedFile{f: f, mapping: m, header: h}
	for i := 0; i < numRegions; i++ {
		mf.regions[i] = newRegion(m, i, h.Regions[i])
	}
	return mf, nil
}

// Close unmaps and closes the backing file.
func (mf *mappedFile) Close() error {
	if err := mf.mapping.Unmap(); err != nil {
		mf.f.Close()
		return errorf(ErrFileIO, "unmap: %w", err)
	}
	if err := mf.f.Close(); err != nil {
		return errorf(ErrFileIO, "close: %w", err)
	}
	return nil
}

func (mf *mappedFile) region(idx int) *region { return &mf.regions[idx] }
