// Package types defines the primitive wallet types shared by the daemon:
// account identifiers, seed fingerprints, diversifier indices, receiver types
// and address encodings.
package types

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// SeedFingerprintSize is the length of a seed fingerprint in bytes.
const SeedFingerprintSize = 32

// SeedFingerprint identifies a mnemonic seed without revealing it (ZIP 32).
type SeedFingerprint [SeedFingerprintSize]byte

// IsZero returns true if the fingerprint is all zeros.
func (f SeedFingerprint) IsZero() bool {
	return f == SeedFingerprint{}
}

// String returns the hex-encoded fingerprint.
func (f SeedFingerprint) String() string {
	return hex.EncodeToString(f[:])
}

// Bytes returns a copy of the fingerprint as a byte slice.
func (f SeedFingerprint) Bytes() []byte {
	b := make([]byte, SeedFingerprintSize)
	copy(b, f[:])
	return b
}

// MarshalJSON encodes the fingerprint as a hex string.
func (f SeedFingerprint) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.String())
}

// UnmarshalJSON decodes a hex string into a fingerprint.
func (f *SeedFingerprint) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseSeedFingerprint(s)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// ParseSeedFingerprint converts a hex string to a SeedFingerprint.
// Returns an error if the string is not exactly 64 hex characters.
func ParseSeedFingerprint(s string) (SeedFingerprint, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return SeedFingerprint{}, fmt.Errorf("invalid seed fingerprint hex: %w", err)
	}
	if len(b) != SeedFingerprintSize {
		return SeedFingerprint{}, fmt.Errorf("seed fingerprint must be %d bytes, got %d", SeedFingerprintSize, len(b))
	}
	var f SeedFingerprint
	copy(f[:], b)
	return f, nil
}
