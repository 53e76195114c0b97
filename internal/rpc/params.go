package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/zecrocks/zallet-go/internal/asyncop"
	"github.com/zecrocks/zallet-go/pkg/types"
)

// maxU128 bounds integers accepted where the wire type is an unsigned 128-bit
// integer.
var maxU128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

// bindParams lines the request params up with the method's parameter names.
// Params may be a positional array (the legacy form) or an object keyed by
// name. The result has one entry per name; absent and null params are nil.
func bindParams(raw json.RawMessage, names ...string) ([]json.RawMessage, *Error) {
	out := make([]json.RawMessage, len(names))
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return out, nil
	}

	switch raw[0] {
	case '[':
		var list []json.RawMessage
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, invalidParams("invalid params: " + err.Error())
		}
		if len(list) > len(names) {
			return nil, invalidParams(fmt.Sprintf("too many params: expected at most %d, got %d", len(names), len(list)))
		}
		for i, v := range list {
			out[i] = present(v)
		}
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, invalidParams("invalid params: " + err.Error())
		}
		for key, v := range obj {
			i := indexOf(names, key)
			if i < 0 {
				return nil, invalidParams(fmt.Sprintf("unknown param %q", key))
			}
			out[i] = present(v)
		}
	default:
		return nil, invalidParams("params must be an array or an object")
	}
	return out, nil
}

func present(v json.RawMessage) json.RawMessage {
	v = bytes.TrimSpace(v)
	if len(v) == 0 || bytes.Equal(v, []byte("null")) {
		return nil
	}
	return v
}

func indexOf(names []string, key string) int {
	for i, n := range names {
		if n == key {
			return i
		}
	}
	return -1
}

func requireParam(v json.RawMessage, name string) *Error {
	if v == nil {
		return invalidParams(fmt.Sprintf("missing required param %q", name))
	}
	return nil
}

func parseString(v json.RawMessage, name string) (string, *Error) {
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return "", invalidParams(fmt.Sprintf("%s must be a string", name))
	}
	return s, nil
}

func parseOptionalString(v json.RawMessage, name string) (*string, *Error) {
	if v == nil {
		return nil, nil
	}
	s, rerr := parseString(v, name)
	if rerr != nil {
		return nil, rerr
	}
	return &s, nil
}

func parseSeedFingerprint(v json.RawMessage) (*types.SeedFingerprint, *Error) {
	if v == nil {
		return nil, nil
	}
	s, rerr := parseString(v, "seedfp")
	if rerr != nil {
		return nil, rerr
	}
	fp, err := types.ParseSeedFingerprint(s)
	if err != nil {
		return nil, invalidParameter("Invalid seed fingerprint: " + err.Error())
	}
	return &fp, nil
}

// parseReceiverTypes decodes an optional list of receiver type names. The
// list is returned as given; duplicates are left for the wallet to reject.
func parseReceiverTypes(v json.RawMessage) ([]types.ReceiverType, *Error) {
	if v == nil {
		return nil, nil
	}
	var names []string
	if err := json.Unmarshal(v, &names); err != nil {
		return nil, invalidParams("receiver_types must be an array of strings")
	}
	out := make([]types.ReceiverType, 0, len(names))
	for _, n := range names {
		rt, err := types.ParseReceiverType(n)
		if err != nil {
			return nil, invalidParameter(fmt.Sprintf("Invalid receiver type %q", n))
		}
		out = append(out, rt)
	}
	return out, nil
}

// parseDiversifierIndex decodes an optional diversifier index. The wire type
// is an unsigned 128-bit integer; values that fit it but need more than 88
// bits are out of range for a diversifier index.
func parseDiversifierIndex(v json.RawMessage) (*types.DiversifierIndex, *Error) {
	if v == nil {
		return nil, nil
	}
	if v[0] == '"' {
		return nil, invalidParams("diversifier_index must be a non-negative integer")
	}
	dec := json.NewDecoder(bytes.NewReader(v))
	dec.UseNumber()
	var n json.Number
	if err := dec.Decode(&n); err != nil {
		return nil, invalidParams("diversifier_index must be a non-negative integer")
	}
	s := n.String()
	if strings.ContainsAny(s, ".eE") {
		return nil, invalidParams("diversifier_index must be a non-negative integer")
	}
	val, ok := new(big.Int).SetString(s, 10)
	if !ok || val.Sign() < 0 || val.Cmp(maxU128) > 0 {
		return nil, invalidParams("diversifier_index must be a non-negative integer")
	}
	idx, err := types.DiversifierIndexFromBig(val)
	if err != nil {
		return nil, invalidParameter("diversifier index is too large.")
	}
	return &idx, nil
}

// parseOperationIDs decodes an optional array of operation ids.
func parseOperationIDs(v json.RawMessage) ([]asyncop.ID, *Error) {
	if v == nil {
		return nil, nil
	}
	var ids []string
	if err := json.Unmarshal(v, &ids); err != nil {
		return nil, invalidParams("operationid must be an array of strings")
	}
	out := make([]asyncop.ID, len(ids))
	for i, id := range ids {
		out[i] = asyncop.ID(id)
	}
	return out, nil
}
