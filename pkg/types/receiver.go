package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ReceiverType identifies one receiver inside a unified address. The values are
// the ZIP 316 typecodes.
type ReceiverType uint8

const (
	ReceiverP2PKH   ReceiverType = 0x00
	ReceiverP2SH    ReceiverType = 0x01
	ReceiverSapling ReceiverType = 0x02
	ReceiverOrchard ReceiverType = 0x03
)

// receiverPreference lists the receiver types from most to least preferred.
var receiverPreference = []ReceiverType{ReceiverOrchard, ReceiverSapling, ReceiverP2SH, ReceiverP2PKH}

// ShieldedPreference lists shielded receiver types from best to worst.
var ShieldedPreference = []ReceiverType{ReceiverOrchard, ReceiverSapling}

// String returns the RPC name of the receiver type.
func (r ReceiverType) String() string {
	switch r {
	case ReceiverP2PKH:
		return "p2pkh"
	case ReceiverP2SH:
		return "p2sh"
	case ReceiverSapling:
		return "sapling"
	case ReceiverOrchard:
		return "orchard"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(r))
	}
}

// IsShielded reports whether the receiver type belongs to a shielded pool.
func (r ReceiverType) IsShielded() bool {
	return r == ReceiverSapling || r == ReceiverOrchard
}

// IsTransparent reports whether the receiver type is transparent.
func (r ReceiverType) IsTransparent() bool {
	return r == ReceiverP2PKH || r == ReceiverP2SH
}

// ReceiverSize returns the raw receiver length for the type.
func (r ReceiverType) ReceiverSize() int {
	switch r {
	case ReceiverP2PKH, ReceiverP2SH:
		return 20
	case ReceiverSapling, ReceiverOrchard:
		return 43
	default:
		return 0
	}
}

// ParseReceiverType parses an RPC receiver type name.
func ParseReceiverType(s string) (ReceiverType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "p2pkh":
		return ReceiverP2PKH, nil
	case "p2sh":
		return ReceiverP2SH, nil
	case "sapling":
		return ReceiverSapling, nil
	case "orchard":
		return ReceiverOrchard, nil
	default:
		return 0, fmt.Errorf("unknown receiver type %q", s)
	}
}

// ReceiverSet is an unordered set of receiver types.
type ReceiverSet uint8

// NewReceiverSet returns the set containing the given types.
func NewReceiverSet(types ...ReceiverType) ReceiverSet {
	var s ReceiverSet
	for _, t := range types {
		s = s.With(t)
	}
	return s
}

// With returns s with t added.
func (s ReceiverSet) With(t ReceiverType) ReceiverSet {
	return s | 1<<t
}

// Without returns s with t removed.
func (s ReceiverSet) Without(t ReceiverType) ReceiverSet {
	return s &^ (1 << t)
}

// Has reports whether t is in the set.
func (s ReceiverSet) Has(t ReceiverType) bool {
	return s&(1<<t) != 0
}

// Intersect returns the types present in both sets.
func (s ReceiverSet) Intersect(o ReceiverSet) ReceiverSet {
	return s & o
}

// IsEmpty reports whether the set has no members.
func (s ReceiverSet) IsEmpty() bool {
	return s == 0
}

// Len returns the number of members.
func (s ReceiverSet) Len() int {
	n := 0
	for _, t := range receiverPreference {
		if s.Has(t) {
			n++
		}
	}
	return n
}

// HasShielded reports whether any member is a shielded type.
func (s ReceiverSet) HasShielded() bool {
	return s.Has(ReceiverSapling) || s.Has(ReceiverOrchard)
}

// HasTransparent reports whether any member is a transparent type.
func (s ReceiverSet) HasTransparent() bool {
	return s.Has(ReceiverP2PKH) || s.Has(ReceiverP2SH)
}

// Types returns the members in preference order (best first).
func (s ReceiverSet) Types() []ReceiverType {
	out := make([]ReceiverType, 0, 4)
	for _, t := range receiverPreference {
		if s.Has(t) {
			out = append(out, t)
		}
	}
	return out
}

// Strings returns the member names in preference order.
func (s ReceiverSet) Strings() []string {
	types := s.Types()
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.String()
	}
	return out
}

// String implements fmt.Stringer.
func (s ReceiverSet) String() string {
	return "[" + strings.Join(s.Strings(), ",") + "]"
}

// MarshalJSON encodes the set as a list of names in preference order.
func (s ReceiverSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Strings())
}

// UnmarshalJSON decodes a list of receiver type names.
func (s *ReceiverSet) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	var set ReceiverSet
	for _, n := range names {
		t, err := ParseReceiverType(n)
		if err != nil {
			return err
		}
		set = set.With(t)
	}
	*s = set
	return nil
}
