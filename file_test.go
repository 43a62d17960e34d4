// File & region manager tests: creation, mapping, and reopening an
// existing file with its header intact.
package otlpmmap

import (
	"path/filepath"
	"testing"

	"github.com/edsrzf/mmap-go"
)

func TestCreateFileLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.bin")
	caps := Capacities{Dictionary: 1 << 10, MetricLane: 1 << 10, SpanLane: 1 << 10, EventLane: 1 << 10}

	mf, err := createFile(path, caps, 123)
	if err != nil {
		t.Fatalf("createFile: %v", err)
	}
	defer mf.Close()

	if mf.header.Version != FormatVersion {
		t.Errorf("Version = %d, want %d", mf.header.Version, FormatVersion)
	}
	if mf.header.CreatedNs != 123 {
		t.Errorf("CreatedNs = %d, want 123", mf.header.CreatedNs)
	}
	for i := 0; i < numRegions; i++ {
		if mf.header.Regions[i].Capacity != 1<<10 {
			t.Errorf("region %d capacity = %d, want 1024", i, mf.header.Regions[i].Capacity)
		}
	}
}

func TestOpenFileRejectsMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.bin")
	if _, err := openFile(path, mmap.RDWR); err == nil {
		t.Fatal("expected an error opening a nonexistent file")
	}
}

func TestReopenPreservesWrittenData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.bin")

	e1, err := New(path, Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h, err := e1.InternString("persisted")
	if err != nil {
		t.Fatalf("InternString: %v", err)
	}
	if err := e1.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	mf, err := openFile(path, mmap.RDONLY)
	if err != nil {
		t.Fatalf("openFile: %v", err)
	}
	defer mf.Close()

	dr := NewDictionaryReader(mf)
	raw, err := dr.ResolveString(h)
	if err != nil {
		t.Fatalf("ResolveString after reopen: %v", err)
	}
	if string(raw) != "persisted" {
		t.Errorf("raw = %q, want %q", raw, "persisted")
	}
}
