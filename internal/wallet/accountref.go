package wallet

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

type accountRefKind uint8

const (
	refOther accountRefKind = iota
	refNumber
	refText
)

// AccountRef is the account parameter of an RPC request: a legacy account
// number, a UUID string, or anything else. It is decided once when the
// request is decoded.
type AccountRef struct {
	kind accountRefKind
	num  uint64
	text string
}

// AccountNumber returns a numeric account reference.
func AccountNumber(n uint64) AccountRef {
	return AccountRef{kind: refNumber, num: n}
}

// AccountText returns a textual (UUID) account reference.
func AccountText(s string) AccountRef {
	return AccountRef{kind: refText, text: s}
}

// AccountOther returns a reference of an unsupported JSON type.
func AccountOther() AccountRef {
	return AccountRef{kind: refOther}
}

// AccountRefFromJSON classifies a raw JSON account parameter. Numbers that are
// not unsigned 64-bit integers (negative, fractional, huge) are kept as
// numbers with an out-of-range value so they fail the range check.
func AccountRefFromJSON(raw json.RawMessage) AccountRef {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return AccountOther()
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return AccountOther()
		}
		return AccountText(s)
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return AccountOther()
		}
		v, err := strconv.ParseUint(n.String(), 10, 64)
		if err != nil {
			return AccountNumber(math.MaxUint64)
		}
		return AccountNumber(v)
	default:
		return AccountOther()
	}
}

// IsNumber reports whether the reference is a legacy account number.
func (r AccountRef) IsNumber() bool {
	return r.kind == refNumber
}

// Number returns the legacy account number, if the reference is one.
func (r AccountRef) Number() (uint64, bool) {
	return r.num, r.kind == refNumber
}
