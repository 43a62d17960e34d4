// The dictionary: five intern tables — strings, attribute sets,
// resources, scopes, metric streams — each deduplicating on a canonical
// form and minting a stable Handle the first time a value is seen.
//
// Each table is guarded by its own mutex; the critical section is O(1)
// amortized, so one lock per table is enough to keep concurrent
// producers from contending. The lock is held across the
// dictionary-region append on a cache miss, and released only after the
// record is durably visible to readers — that ordering is what
// guarantees a record never references a handle before the handle's own
// dictionary record has been published.
package otlpmmap

import (
	"sync"
	"sync/atomic"
)

type stringEntry struct {
	bytes  []byte
	handle Handle
}

type attrSetEntry struct {
	set    AttributeSet
	handle Handle
}

type resourceEntry struct {
	attrSet, schema Handle
	handle          Handle
}

type scopeEntry struct {
	resource, name, version, attrSet Handle
	handle                           Handle
}

type streamEntry struct {
	scope, name, description, unit Handle
	agg                            Aggregation
	handle                         Handle
}

// Dictionary holds the five intern tables and the region they publish
// their records into.
type Dictionary struct {
	alg    HashAlgorithm
	region *region

	stringsMu    sync.Mutex
	strings      map[uint64][]stringEntry
	stringHandle atomic.Uint32

	attrSetsMu    sync.Mutex
	attrSets      map[uint64][]attrSetEntry
	attrSetHandle atomic.Uint32

	resourcesMu    sync.Mutex
	resources      map[uint64][]resourceEntry
	resourceHandle atomic.Uint32

	scopesMu    sync.Mutex
	scopes      map[uint64][]scopeEntry
	scopeHandle atomic.Uint32

	streamsMu    sync.Mutex
	streams      map[uint64][]streamEntry
	streamHandle atomic.Uint32
}

func newDictionary(r *region, alg HashAlgorithm) *Dictionary {
	return &Dictionary{
		alg:       alg,
		region:    r,
		strings:   make(map[uint64][]stringEntry),
		attrSets:  make(map[uint64][]attrSetEntry),
		resources: make(map[uint64][]resourceEntry),
		scopes:    make(map[uint64][]scopeEntry),
		streams:   make(map[uint64][]streamEntry),
	}
}

// InternString interns raw UTF-8 bytes, returning a stable handle.
// Byte-identical inputs always collapse to the same handle.
func (d *Dictionary) InternString(b []byte) (Handle, error) {
	if len(b) == 0 {
		return 0, ErrInvalidArgument
	}
	digest := digestBytes(d.alg, b)

	d.stringsMu.Lock()
	defer d.stringsMu.Unlock()

	for _, e := range d.strings[digest] {
		if bytesEqual(e.bytes, b) {
			return e.handle, nil
		}
	}

	h := Handle(d.stringHandle.Add(1))
	owned := append([]byte(nil), b...)
	if _, err := appendFrame(d.region, dictKindString, encodeStringPayload(h, owned)); err != nil {
		d.stringHandle.Add(^uint32(0)) // undo the mint: the record never reached the file
		return 0, err
	}
	d.strings[digest] = append(d.strings[digest], stringEntry{bytes: owned, handle: h})
	return h, nil
}

// Attrs is the caller-facing attribute map: plain string keys (interned
// internally) mapped to already-tagged values.
type Attrs map[string]AttributeValue

// InternAttributeSet canonicalizes and interns an attribute map. Two maps
// with equal (key,value) pairs in any order/iteration sequence always
// collapse to the same handle.
func (d *Dictionary) InternAttributeSet(attrs Attrs) (Handle, error) {
	entries := make([]attrPair, 0, len(attrs))
	for k, v := range attrs {
		if err := validateValue(v); err != nil {
			return 0, err
		}
		kh, err := d.InternString([]byte(k))
		if err != nil {
			return 0, err
		}
		entries = append(entries, attrPair{Key: kh, Value: v})
	}
	canonical := sortAttributes(entries)
	digest := digestBytes(d.alg, canonicalAttrBytes(canonical))

	d.attrSetsMu.Lock()
	defer d.attrSetsMu.Unlock()

	for _, e := range d.attrSets[digest] {
		if equalAttributeSets(e.set, canonical) {
			return e.handle, nil
		}
	}

	h := Handle(d.attrSetHandle.Add(1))
	if _, err := appendFrame(d.region, dictKindAttributeSet, encodeAttributeSetPayload(h, canonical)); err != nil {
		d.attrSetHandle.Add(^uint32(0))
		return 0, err
	}
	d.attrSets[digest] = append(d.attrSets[digest], attrSetEntry{set: canonical, handle: h})
	return h, nil
}

// InternResource interns a Resource (an attribute-set handle plus an
// optional schema URL handle).
func (d *Dictionary) InternResource(attrSet, schema Handle) (Handle, error) {
	digest := digestBytes(d.alg, resourceCanonicalBytes(attrSet, schema))

	d.resourcesMu.Lock()
	defer d.resourcesMu.Unlock()

	for _, e := range d.resources[digest] {
		if e.attrSet == attrSet && e.schema == schema {
			return e.handle, nil
		}
	}

	h := Handle(d.resourceHandle.Add(1))
	if _, err := appendFrame(d.region, dictKindResource, encodeResourcePayload(h, attrSet, schema)); err != nil {
		d.resourceHandle.Add(^uint32(0))
		return 0, err
	}
	d.resources[digest] = append(d.resources[digest], resourceEntry{attrSet: attrSet, schema: schema, handle: h})
	return h, nil
}

// InternScope interns an InstrumentationScope.
func (d *Dictionary) InternScope(resource, name, version, attrSet Handle) (Handle, error) {
	if name == NoHandle {
		return 0, ErrInvalidArgument
	}
	digest := digestBytes(d.alg, scopeCanonicalBytes(resource, name, version, attrSet))

	d.scopesMu.Lock()
	defer d.scopesMu.Unlock()

	for _, e := range d.scopes[digest] {
		if e.resource == resource && e.name == name && e.version == version && e.attrSet == attrSet {
			return e.handle, nil
		}
	}

	h := Handle(d.scopeHandle.Add(1))
	if _, err := appendFrame(d.region, dictKindScope, encodeScopePayload(h, resource, name, version, attrSet)); err != nil {
		d.scopeHandle.Add(^uint32(0))
		return 0, err
	}
	d.scopes[digest] = append(d.scopes[digest], scopeEntry{resource: resource, name: name, version: version, attrSet: attrSet, handle: h})
	return h, nil
}

// InternMetricStream interns a MetricStream descriptor. Histogram
// boundaries are sorted before canonicalization; duplicate boundaries
// are rejected with ErrInvalidArgument.
func (d *Dictionary) InternMetricStream(scope, name, description, unit Handle, agg Aggregation) (Handle, error) {
	if name == NoHandle {
		return 0, ErrInvalidArgument
	}
	if err := validateAggregation(agg); err != nil {
		return 0, err
	}
	if agg.Kind == AggregationHistogram {
		sorted, err := sortBoundaries(agg.Boundaries)
		if err != nil {
			return 0, err
		}
		agg.Boundaries = sorted
	}

	digest := digestBytes(d.alg, metricStreamCanonicalBytes(scope, name, description, unit, agg))

	d.streamsMu.Lock()
	defer d.streamsMu.Unlock()

	for _, e := range d.streams[digest] {
		if e.scope == scope && e.name == name && e.description == description && e.unit == unit && equalAggregations(e.agg, agg) {
			return e.handle, nil
		}
	}

	h := Handle(d.streamHandle.Add(1))
	if _, err := appendFrame(d.region, dictKindMetricStream, encodeMetricStreamPayload(h, scope, name, description, unit, agg)); err != nil {
		d.streamHandle.Add(^uint32(0))
		return 0, err
	}
	d.streams[digest] = append(d.streams[digest], streamEntry{scope: scope, name: name, description: description, unit: unit, agg: agg, handle: h})
	return h, nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func resourceCanonicalBytes(attrSet, schema Handle) []byte {
	buf := make([]byte, 0, 8)
	buf = appendHandle(buf, attrSet)
	return appendHandle(buf, schema)
}

func scopeCanonicalBytes(resource, name, version, attrSet Handle) []byte {
	buf := make([]byte, 0, 16)
	buf = appendHandle(buf, resource)
	buf = appendHandle(buf, name)
	buf = appendHandle(buf, version)
	return appendHandle(buf, attrSet)
}

func metricStreamCanonicalBytes(scope, name, description, unit Handle, agg Aggregation) []byte {
	buf := make([]byte, 0, 32)
	buf = appendHandle(buf, scope)
	buf = appendHandle(buf, name)
	buf = appendHandle(buf, description)
	buf = appendHandle(buf, unit)
	buf = append(buf, byte(agg.Kind), byte(agg.Temporality))
	if agg.Monotonic {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	for _, b := range agg.Boundaries {
		buf = appendFloat64(buf, b)
	}
	return buf
}
