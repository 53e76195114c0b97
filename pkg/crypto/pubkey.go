package crypto

import (
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// CompressPubKey parses a secp256k1 public key in any SEC encoding and returns
// the 33-byte compressed form.
func CompressPubKey(pub []byte) ([]byte, error) {
	pk, err := secp256k1.ParsePubKey(pub)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	return pk.SerializeCompressed(), nil
}

// PubKeyFromPrivate returns the compressed public key for a 32-byte secret.
func PubKeyFromPrivate(priv []byte) ([]byte, error) {
	if len(priv) != 32 {
		return nil, fmt.Errorf("private key must be 32 bytes, got %d", len(priv))
	}
	key := secp256k1.PrivKeyFromBytes(priv)
	return key.PubKey().SerializeCompressed(), nil
}
