// Canonicalization and digesting for the dictionary's intern tables.
//
// Every intern table keys its in-memory map not by the canonical struct
// itself but by a fast digest of its canonical byte encoding, with a
// structural equality check on collision — the digest is purely a lookup
// accelerant, never the source of truth. The default is xxh3, and
// blake2b is offered as an alternative for installations that value
// distribution over raw speed.
package otlpmmap

import (
	"cmp"
	"encoding/binary"
	"math"
	"slices"

	"github.com/zeebo/xxh3"
	"golang.org/x/crypto/blake2b"
)

// HashAlgorithm selects the digest function used to key the dictionary's
// in-memory intern maps. It has no effect on the on-disk record format.
type HashAlgorithm int

const (
	// HashXXH3 is the default: the fastest of the two digest choices.
	HashXXH3 HashAlgorithm = iota + 1
	HashBlake2b
)

func digestBytes(alg HashAlgorithm, data []byte) uint64 {
	switch alg {
	case HashBlake2b:
		sum := blake2b.Sum512(data)
		return binary.LittleEndian.Uint64(sum[:8])
	default:
		return xxh3.Hash(data)
	}
}

// sortAttributes sorts caller-supplied entries by key handle ascending,
// producing the canonical AttributeSet form: two attribute maps with the
// same (key, value) pairs in any order must collapse to the same sorted
// sequence. Callers pass entries derived from a Go map, so key handles
// are already unique (distinct interned strings never collapse to one
// handle).
func sortAttributes(entries []attrPair) AttributeSet {
	out := make(AttributeSet, len(entries))
	copy(out, entries)
	slices.SortFunc(out, func(a, b attrPair) int {
		return cmp.Compare(a.Key, b.Key)
	})
	return out
}

// canonicalAttrBytes renders a sorted AttributeSet into a deterministic
// byte sequence used only as digest input — never written to the file.
func canonicalAttrBytes(set AttributeSet) []byte {
	var buf []byte
	for _, pair := range set {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(pair.Key))
		buf = appendValueBytes(buf, pair.Value)
	}
	return buf
}

func appendHandle(buf []byte, h Handle) []byte {
	return binary.LittleEndian.AppendUint32(buf, uint32(h))
}

func appendFloat64(buf []byte, f float64) []byte {
	return binary.LittleEndian.AppendUint64(buf, math.Float64bits(f))
}

func appendValueBytes(buf []byte, v AttributeValue) []byte {
	buf = append(buf, byte(v.Kind))
	switch v.Kind {
	case KindString:
		buf = binary.LittleEndian.AppendUint32(buf, uint32(v.Str))
	case KindInt64:
		buf = binary.LittleEndian.AppendUint64(buf, uint64(v.I64))
	case KindFloat64:
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(v.F64))
	case KindBool:
		if v.Bool {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
	case KindBytes:
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(v.Bytes)))
		buf = append(buf, v.Bytes...)
	case KindArray:
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(v.Array)))
		for _, e := range v.Array {
			buf = appendValueBytes(buf, e)
		}
	}
	return buf
}

// sortBoundaries sorts histogram bucket boundaries ascending and rejects
// duplicates (bit-exact equality): determinism of the canonical form
// requires a total order with no ties.
func sortBoundaries(boundaries []float64) ([]float64, error) {
	if len(boundaries) == 0 {
		return nil, nil
	}
	out := append([]float64(nil), boundaries...)
	slices.Sort(out)
	for i := 1; i < len(out); i++ {
		if out[i-1] == out[i] {
			return nil, ErrInvalidArgument
		}
	}
	return out, nil
}
