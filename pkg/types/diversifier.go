package types

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"
)

// DiversifierIndexSize is the encoded length of a diversifier index (88 bits).
const DiversifierIndexSize = 11

// MaxTransparentChildIndex is the largest diversifier index usable for a
// transparent receiver: transparent receivers are non-hardened BIP-32 children.
const MaxTransparentChildIndex = 1<<31 - 1

// ErrDiversifierIndexRange is returned for values that do not fit in 88 bits.
var ErrDiversifierIndexRange = errors.New("diversifier index is too large")

// MaxDiversifierIndex is 2^88 - 1.
var MaxDiversifierIndex = func() DiversifierIndex {
	var d DiversifierIndex
	for i := range d {
		d[i] = 0xff
	}
	return d
}()

// DiversifierIndex selects one of the addresses derivable from an account's key
// material. It is stored little-endian, as in ZIP 32.
type DiversifierIndex [DiversifierIndexSize]byte

// DiversifierIndexFromUint64 returns the index with the given value.
func DiversifierIndexFromUint64(v uint64) DiversifierIndex {
	var d DiversifierIndex
	binary.LittleEndian.PutUint64(d[:8], v)
	return d
}

// DiversifierIndexFromBig converts v into an index. Negative values and values
// with any bit set above bit 87 are rejected.
func DiversifierIndexFromBig(v *big.Int) (DiversifierIndex, error) {
	if v.Sign() < 0 {
		return DiversifierIndex{}, fmt.Errorf("diversifier index must not be negative")
	}
	if v.BitLen() > DiversifierIndexSize*8 {
		return DiversifierIndex{}, ErrDiversifierIndexRange
	}
	var be [DiversifierIndexSize]byte
	v.FillBytes(be[:])
	var d DiversifierIndex
	for i := range be {
		d[i] = be[DiversifierIndexSize-1-i]
	}
	return d, nil
}

// ParseDiversifierIndex parses a base-10 diversifier index.
func ParseDiversifierIndex(s string) (DiversifierIndex, error) {
	v, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok {
		return DiversifierIndex{}, fmt.Errorf("invalid diversifier index %q", s)
	}
	return DiversifierIndexFromBig(v)
}

// DiversifierIndexFromTime derives a shielded-only index from the wall clock.
// The value is whole seconds since the Unix epoch, which always fits in 88 bits.
func DiversifierIndexFromTime(t time.Time) DiversifierIndex {
	secs := t.Unix()
	if secs < 0 {
		secs = 0
	}
	return DiversifierIndexFromUint64(uint64(secs))
}

// Big returns the index as a big integer.
func (d DiversifierIndex) Big() *big.Int {
	var be [DiversifierIndexSize]byte
	for i := range d {
		be[i] = d[DiversifierIndexSize-1-i]
	}
	return new(big.Int).SetBytes(be[:])
}

// String returns the base-10 representation.
func (d DiversifierIndex) String() string {
	return d.Big().String()
}

// Compare returns -1, 0 or +1 depending on whether d is less than, equal to or
// greater than o.
func (d DiversifierIndex) Compare(o DiversifierIndex) int {
	for i := DiversifierIndexSize - 1; i >= 0; i-- {
		switch {
		case d[i] < o[i]:
			return -1
		case d[i] > o[i]:
			return 1
		}
	}
	return 0
}

// Next returns d+1, or ErrDiversifierIndexRange if d is the maximum index.
func (d DiversifierIndex) Next() (DiversifierIndex, error) {
	n := d
	for i := 0; i < DiversifierIndexSize; i++ {
		n[i]++
		if n[i] != 0 {
			return n, nil
		}
	}
	return DiversifierIndex{}, ErrDiversifierIndexRange
}

// TransparentChild returns the BIP-32 child number for a transparent receiver
// at this index. ok is false when the index is outside the non-hardened range.
func (d DiversifierIndex) TransparentChild() (child uint32, ok bool) {
	for _, b := range d[4:] {
		if b != 0 {
			return 0, false
		}
	}
	v := binary.LittleEndian.Uint32(d[:4])
	if v > MaxTransparentChildIndex {
		return 0, false
	}
	return v, true
}

// SortKey returns the big-endian encoding, which orders lexicographically the
// same way the indices order numerically.
func (d DiversifierIndex) SortKey() []byte {
	b := make([]byte, DiversifierIndexSize)
	for i := range d {
		b[i] = d[DiversifierIndexSize-1-i]
	}
	return b
}

// DiversifierIndexFromSortKey is the inverse of SortKey.
func DiversifierIndexFromSortKey(b []byte) (DiversifierIndex, error) {
	if len(b) != DiversifierIndexSize {
		return DiversifierIndex{}, fmt.Errorf("diversifier index key must be %d bytes, got %d", DiversifierIndexSize, len(b))
	}
	var d DiversifierIndex
	for i := range d {
		d[i] = b[DiversifierIndexSize-1-i]
	}
	return d, nil
}

// MarshalJSON encodes the index as a bare JSON number; values above 2^53 are
// still exact because the digits are written verbatim.
func (d DiversifierIndex) MarshalJSON() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalJSON accepts a JSON number or a decimal string.
func (d *DiversifierIndex) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := ParseDiversifierIndex(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
