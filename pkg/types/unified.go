package types

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
)

// uaPaddingSize is the length of the HRP padding appended before encoding.
const uaPaddingSize = 16

// Receiver is one typed receiver inside a unified address.
type Receiver struct {
	Type ReceiverType
	Data []byte
}

// UnifiedAddress is a set of receivers for a single payee, at most one per type.
type UnifiedAddress struct {
	Receivers []Receiver
}

// Unified address decoding errors.
var (
	ErrUAHRP       = errors.New("unified address: unexpected HRP")
	ErrUAPadding   = errors.New("unified address: invalid padding")
	ErrUAEmpty     = errors.New("unified address: no receivers")
	ErrUADuplicate = errors.New("unified address: duplicate receiver type")
	ErrUAOrder     = errors.New("unified address: receivers out of order")
	ErrUATransOnly = errors.New("unified address: only transparent receivers")
)

// ReceiverTypes returns the set of receiver types present.
func (ua *UnifiedAddress) ReceiverTypes() ReceiverSet {
	var s ReceiverSet
	for _, r := range ua.Receivers {
		s = s.With(r.Type)
	}
	return s
}

// Receiver returns the raw receiver of type t, or nil.
func (ua *UnifiedAddress) Receiver(t ReceiverType) []byte {
	for _, r := range ua.Receivers {
		if r.Type == t {
			return r.Data
		}
	}
	return nil
}

func (ua *UnifiedAddress) validate() error {
	if len(ua.Receivers) == 0 {
		return ErrUAEmpty
	}
	var seen ReceiverSet
	for _, r := range ua.Receivers {
		if seen.Has(r.Type) {
			return ErrUADuplicate
		}
		seen = seen.With(r.Type)
		if want := r.Type.ReceiverSize(); want == 0 || len(r.Data) != want {
			return fmt.Errorf("unified address: %s receiver must be %d bytes, got %d", r.Type, want, len(r.Data))
		}
	}
	if seen.Has(ReceiverP2PKH) && seen.Has(ReceiverP2SH) {
		return fmt.Errorf("unified address: both p2pkh and p2sh receivers")
	}
	if !seen.HasShielded() {
		return ErrUATransOnly
	}
	return nil
}

// Encode returns the Bech32m string for the address under the given network.
// Receivers are written in ascending typecode order as typecode, length, data
// followed by the HRP padded to 16 bytes.
func (ua *UnifiedAddress) Encode(params *NetworkParams) (string, error) {
	if err := ua.validate(); err != nil {
		return "", err
	}
	rs := make([]Receiver, len(ua.Receivers))
	copy(rs, ua.Receivers)
	sort.Slice(rs, func(i, j int) bool { return rs[i].Type < rs[j].Type })

	var buf bytes.Buffer
	for _, r := range rs {
		writeCompactSize(&buf, uint64(r.Type))
		writeCompactSize(&buf, uint64(len(r.Data)))
		buf.Write(r.Data)
	}
	buf.Write(hrpPadding(params.UnifiedHRP))
	return Bech32mEncode(params.UnifiedHRP, buf.Bytes())
}

// DecodeUnifiedAddress parses a unified address for the given network.
func DecodeUnifiedAddress(s string, params *NetworkParams) (*UnifiedAddress, error) {
	hrp, data, err := Bech32mDecode(s)
	if err != nil {
		return nil, err
	}
	if hrp != params.UnifiedHRP {
		return nil, fmt.Errorf("%w: %q", ErrUAHRP, hrp)
	}
	if len(data) < uaPaddingSize {
		return nil, ErrUAPadding
	}
	body, pad := data[:len(data)-uaPaddingSize], data[len(data)-uaPaddingSize:]
	if !bytes.Equal(pad, hrpPadding(hrp)) {
		return nil, ErrUAPadding
	}

	ua := &UnifiedAddress{}
	r := bytes.NewReader(body)
	prev := -1
	for r.Len() > 0 {
		typecode, err := readCompactSize(r)
		if err != nil {
			return nil, err
		}
		length, err := readCompactSize(r)
		if err != nil {
			return nil, err
		}
		if length > uint64(r.Len()) {
			return nil, fmt.Errorf("unified address: truncated receiver")
		}
		if typecode > uint64(ReceiverOrchard) {
			return nil, fmt.Errorf("unified address: unsupported typecode %d", typecode)
		}
		if int(typecode) <= prev {
			if int(typecode) == prev {
				return nil, ErrUADuplicate
			}
			return nil, ErrUAOrder
		}
		prev = int(typecode)
		recv := make([]byte, length)
		if _, err := r.Read(recv); err != nil {
			return nil, err
		}
		ua.Receivers = append(ua.Receivers, Receiver{Type: ReceiverType(typecode), Data: recv})
	}
	if err := ua.validate(); err != nil {
		return nil, err
	}
	return ua, nil
}

func hrpPadding(hrp string) []byte {
	pad := make([]byte, uaPaddingSize)
	copy(pad, hrp)
	return pad
}

func writeCompactSize(buf *bytes.Buffer, v uint64) {
	switch {
	case v < 0xfd:
		buf.WriteByte(byte(v))
	case v <= 0xffff:
		buf.WriteByte(0xfd)
		var b [2]byte
		binary.LittleEndian.PutUint16(b[:], uint16(v))
		buf.Write(b[:])
	case v <= 0xffffffff:
		buf.WriteByte(0xfe)
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], uint32(v))
		buf.Write(b[:])
	default:
		buf.WriteByte(0xff)
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], v)
		buf.Write(b[:])
	}
}

func readCompactSize(r *bytes.Reader) (uint64, error) {
	first, err := r.ReadByte()
	if err != nil {
		return 0, fmt.Errorf("unified address: truncated length: %w", err)
	}
	var n int
	switch first {
	case 0xfd:
		n = 2
	case 0xfe:
		n = 4
	case 0xff:
		n = 8
	default:
		return uint64(first), nil
	}
	var b [8]byte
	if _, err := r.Read(b[:n]); err != nil {
		return 0, fmt.Errorf("unified address: truncated length: %w", err)
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}
