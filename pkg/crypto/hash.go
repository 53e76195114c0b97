// Package crypto provides the hash and key primitives used for address derivation.
package crypto

import (
	"crypto/sha256"
	"fmt"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // HASH160 is defined in terms of RIPEMD-160.
)

// Hash160Size is the length of a HASH160 digest.
const Hash160Size = ripemd160.Size

// Hash computes a BLAKE3-256 hash of the input data.
func Hash(data []byte) [32]byte {
	return blake3.Sum256(data)
}

// Hash160 computes RIPEMD160(SHA256(data)), the transparent key hash.
func Hash160(data []byte) [Hash160Size]byte {
	s := sha256.Sum256(data)
	r := ripemd160.New()
	r.Write(s[:])
	var out [Hash160Size]byte
	copy(out[:], r.Sum(nil))
	return out
}

// DeriveKey derives size bytes of key material from ikm under a domain
// separation context string.
func DeriveKey(context string, ikm []byte, size int) []byte {
	out := make([]byte, size)
	blake3.DeriveKey(context, ikm, out)
	return out
}

// KeyedHash returns the 32-byte keyed BLAKE3 hash of the concatenated parts.
func KeyedHash(key []byte, parts ...[]byte) ([32]byte, error) {
	h, err := blake3.NewKeyed(key)
	if err != nil {
		return [32]byte{}, fmt.Errorf("keyed hash: %w", err)
	}
	for _, p := range parts {
		h.Write(p)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out, nil
}
