// The lane reader: one reader per lane, tracking only a next-read
// offset. Never mutates the file.
package otlpmmap

// LaneReader reads framed records from one lane region in publish order.
type LaneReader struct {
	region   *region
	nextRead uint64
}

// newLaneReader returns a reader positioned at the start of region.
func newLaneReader(r *region) *LaneReader {
	return &LaneReader{region: r}
}

// ReadNext returns the next record's kind and payload, or ok=false if
// the lane has no new record yet (writer caught up, or mid-publish) —
// distinguished from "nothing written" purely by the caller retrying
// later; both look identical to a reader.
func (r *LaneReader) ReadNext() (kind byte, payload []byte, ok bool) {
	cursor := r.region.Cursor()
	if r.nextRead >= cursor {
		return 0, nil, false
	}
	kind, payload, recordLen, ready := readFrame(r.region, r.nextRead)
	if !ready {
		return 0, nil, false
	}
	r.nextRead += recordLen
	return kind, payload, true
}

// DictionaryReader resolves handles by lazily scanning the dictionary
// region, using a bloom filter to skip rescans for handles it has
// already resolved.
type DictionaryReader struct {
	region   *region
	nextRead uint64
	seen     *bloom

	strings   map[Handle][]byte
	attrSets  map[Handle]AttributeSet
	resources map[Handle]resourceEntry
	scopes    map[Handle]scopeEntry
	streams   map[Handle]streamEntry
}

// NewDictionaryReader returns a reader bound to the dictionary region of
// an opened file.
func NewDictionaryReader(mf *mappedFile) *DictionaryReader {
	return &DictionaryReader{
		region:    mf.region(RegionDictionary),
		seen:      newBloom(),
		strings:   make(map[Handle][]byte),
		attrSets:  make(map[Handle]AttributeSet),
		resources: make(map[Handle]resourceEntry),
		scopes:    make(map[Handle]scopeEntry),
		streams:   make(map[Handle]streamEntry),
	}
}

// advance consumes as many newly published dictionary records as are
// currently visible, caching each by its self-declared handle.
func (d *DictionaryReader) advance() {
	cursor := d.region.Cursor()
	for d.nextRead < cursor {
		kind, payload, recordLen, ready := readFrame(d.region, d.nextRead)
		if !ready {
			return
		}
		d.cacheRecord(kind, payload)
		d.nextRead += recordLen
	}
}

func (d *DictionaryReader) cacheRecord(kind byte, payload []byte) {
	switch kind {
	case dictKindString:
		h, raw, err := decodeStringPayload(payload)
		if err == nil {
			d.strings[h] = raw
			d.seen.Add(h)
		}
	case dictKindAttributeSet:
		h, set, err := decodeAttributeSetPayload(payload)
		if err == nil {
			d.attrSets[h] = set
			d.seen.Add(h)
		}
	case dictKindResource:
		h, attrSet, schema, err := decodeResourcePayload(payload)
		if err == nil {
			d.resources[h] = resourceEntry{attrSet: attrSet, schema: schema, handle: h}
			d.seen.Add(h)
		}
	case dictKindScope:
		h, resource, name, version, attrSet, err := decodeScopePayload(payload)
		if err == nil {
			d.scopes[h] = scopeEntry{resource: resource, name: name, version: version, attrSet: attrSet, handle: h}
			d.seen.Add(h)
		}
	case dictKindMetricStream:
		h, scope, name, description, unit, agg, err := decodeMetricStreamPayload(payload)
		if err == nil {
			d.streams[h] = streamEntry{scope: scope, name: name, description: description, unit: unit, agg: agg, handle: h}
			d.seen.Add(h)
		}
	}
}

// resolve ensures h has been cached, rescanning the dictionary region
// from where it left off only if the bloom filter reports h as
// possibly-unseen. Returns ErrUnknownHandle if h still isn't found
// after a full catch-up scan (the writer hasn't published it yet, or it
// never will).
func (d *DictionaryReader) resolve(h Handle) error {
	if h == NoHandle {
		return nil
	}
	if d.seen.Contains(h) {
		return nil
	}
	d.advance()
	if !d.seen.Contains(h) {
		return ErrUnknownHandle
	}
	return nil
}

// ResolveString resolves a string handle to its raw bytes.
func (d *DictionaryReader) ResolveString(h Handle) ([]byte, error) {
	if err := d.resolve(h); err != nil {
		return nil, err
	}
	raw, ok := d.strings[h]
	if !ok {
		return nil, ErrUnknownHandle
	}
	return raw, nil
}

// ResolveAttributeSet resolves an attribute-set handle to its canonical
// entries.
func (d *DictionaryReader) ResolveAttributeSet(h Handle) (AttributeSet, error) {
	if h == NoHandle {
		return nil, nil
	}
	if err := d.resolve(h); err != nil {
		return nil, err
	}
	set, ok := d.attrSets[h]
	if !ok {
		return nil, ErrUnknownHandle
	}
	return set, nil
}

// ResolveResource resolves a resource handle to its attribute-set and
// schema-URL handles.
func (d *DictionaryReader) ResolveResource(h Handle) (attrSet, schema Handle, err error) {
	if err := d.resolve(h); err != nil {
		return 0, 0, err
	}
	e, ok := d.resources[h]
	if !ok {
		return 0, 0, ErrUnknownHandle
	}
	return e.attrSet, e.schema, nil
}

// ResolveScope resolves an instrumentation-scope handle to its
// constituent handles.
func (d *DictionaryReader) ResolveScope(h Handle) (resource, name, version, attrSet Handle, err error) {
	if err := d.resolve(h); err != nil {
		return 0, 0, 0, 0, err
	}
	e, ok := d.scopes[h]
	if !ok {
		return 0, 0, 0, 0, ErrUnknownHandle
	}
	return e.resource, e.name, e.version, e.attrSet, nil
}

// ResolveMetricStream resolves a metric-stream handle to its descriptor.
func (d *DictionaryReader) ResolveMetricStream(h Handle) (scope, name, description, unit Handle, agg Aggregation, err error) {
	if err := d.resolve(h); err != nil {
		return 0, 0, 0, 0, Aggregation{}, err
	}
	e, ok := d.streams[h]
	if !ok {
		return 0, 0, 0, 0, Aggregation{}, ErrUnknownHandle
	}
	return e.scope, e.name, e.description, e.unit, e.agg, nil
}
