package types

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	"github.com/mr-tron/base58"
)

// TransparentAddressSize is the length of a transparent address payload hash.
const TransparentAddressSize = 20

// EncodeP2PKH returns the Base58Check transparent address for a 20-byte
// public key hash.
func EncodeP2PKH(hash []byte, params *NetworkParams) (string, error) {
	return encodeTransparent(params.P2PKHPrefix, hash)
}

// EncodeP2SH returns the Base58Check transparent address for a 20-byte script hash.
func EncodeP2SH(hash []byte, params *NetworkParams) (string, error) {
	return encodeTransparent(params.P2SHPrefix, hash)
}

// DecodeTransparent parses a Base58Check transparent address and reports
// which receiver type it encodes.
func DecodeTransparent(s string, params *NetworkParams) (ReceiverType, []byte, error) {
	raw, err := base58.Decode(s)
	if err != nil {
		return 0, nil, fmt.Errorf("base58: %w", err)
	}
	if len(raw) != 2+TransparentAddressSize+4 {
		return 0, nil, fmt.Errorf("transparent address: bad length %d", len(raw))
	}
	payload, sum := raw[:len(raw)-4], raw[len(raw)-4:]
	if !bytes.Equal(checksum4(payload), sum) {
		return 0, nil, fmt.Errorf("transparent address: bad checksum")
	}
	var prefix [2]byte
	copy(prefix[:], payload[:2])
	hash := append([]byte(nil), payload[2:]...)
	switch prefix {
	case params.P2PKHPrefix:
		return ReceiverP2PKH, hash, nil
	case params.P2SHPrefix:
		return ReceiverP2SH, hash, nil
	default:
		return 0, nil, fmt.Errorf("transparent address: unknown prefix %x", prefix)
	}
}

func encodeTransparent(prefix [2]byte, hash []byte) (string, error) {
	if len(hash) != TransparentAddressSize {
		return "", fmt.Errorf("transparent address: hash must be %d bytes, got %d", TransparentAddressSize, len(hash))
	}
	payload := make([]byte, 0, 2+TransparentAddressSize+4)
	payload = append(payload, prefix[:]...)
	payload = append(payload, hash...)
	payload = append(payload, checksum4(payload)...)
	return base58.Encode(payload), nil
}

func checksum4(b []byte) []byte {
	first := sha256.Sum256(b)
	second := sha256.Sum256(first[:])
	return second[:4]
}
