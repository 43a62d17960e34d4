// Frame append/read round-trip and LaneFull tests for the shared
// record-framing primitive used by the dictionary region and all three
// lanes.
package otlpmmap

import "testing"

func newTestRegion(capacity uint64) (*region, []byte) {
	mapped := make([]byte, HeaderSize+capacity)
	r := newRegion(mapped, 0, RegionDescriptor{Offset: HeaderSize, Capacity: int64(capacity)})
	return &r, mapped
}

func TestAppendReadFrameRoundTrip(t *testing.T) {
	r, _ := newTestRegion(256)

	offset, err := appendFrame(r, 7, []byte("hello"))
	if err != nil {
		t.Fatalf("appendFrame: %v", err)
	}

	kind, payload, recordLen, ok := readFrame(r, offset)
	if !ok {
		t.Fatal("expected frame to be ready")
	}
	if kind != 7 {
		t.Errorf("kind = %d, want 7", kind)
	}
	if string(payload) != "hello" {
		t.Errorf("payload = %q, want %q", payload, "hello")
	}
	if recordLen != frameLengthSize+uint64(frameKindSize+len("hello")) {
		t.Errorf("recordLen = %d, want %d", recordLen, frameLengthSize+uint64(frameKindSize+len("hello")))
	}
}

func TestAppendFrameLaneFull(t *testing.T) {
	r, _ := newTestRegion(8)

	if _, err := appendFrame(r, 1, make([]byte, 16)); err != errLaneFull {
		t.Fatalf("err = %v, want errLaneFull", err)
	}
}

func TestReadFrameNotYetPublished(t *testing.T) {
	r, _ := newTestRegion(64)

	if _, _, _, ok := readFrame(r, 0); ok {
		t.Fatal("expected readFrame to report not-ready on an untouched offset")
	}
}

func TestAppendFrameSequentialOffsets(t *testing.T) {
	r, _ := newTestRegion(256)

	off1, err := appendFrame(r, 1, []byte("aa"))
	if err != nil {
		t.Fatalf("appendFrame 1: %v", err)
	}
	off2, err := appendFrame(r, 2, []byte("bbb"))
	if err != nil {
		t.Fatalf("appendFrame 2: %v", err)
	}
	if off2 <= off1 {
		t.Fatalf("off2 (%d) should be after off1 (%d)", off2, off1)
	}

	_, p1, _, ok := readFrame(r, off1)
	if !ok || string(p1) != "aa" {
		t.Errorf("first record = %q, ok=%v", p1, ok)
	}
	_, p2, _, ok := readFrame(r, off2)
	if !ok || string(p2) != "bbb" {
		t.Errorf("second record = %q, ok=%v", p2, ok)
	}
}
