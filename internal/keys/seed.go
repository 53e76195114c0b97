package keys

import (
	"fmt"

	"github.com/tyler-smith/go-bip39"

	"github.com/zecrocks/zallet-go/pkg/crypto"
	"github.com/zecrocks/zallet-go/pkg/types"
)

// SeedSize is the length of a derived seed in bytes (512 bits).
const SeedSize = 64

// seedFingerprintContext domain-separates seed fingerprints from every other
// use of the seed.
const seedFingerprintContext = "Zcash_HD_Seed_FP"

// SeedFromMnemonic derives a 512-bit seed from a mnemonic and optional passphrase
// using PBKDF2-SHA512 as specified in BIP-39.
func SeedFromMnemonic(mnemonic, passphrase string) ([]byte, error) {
	if !ValidateMnemonic(mnemonic) {
		return nil, fmt.Errorf("invalid mnemonic")
	}
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, passphrase)
	if err != nil {
		return nil, fmt.Errorf("derive seed: %w", err)
	}
	return seed, nil
}

// Fingerprint returns the seed fingerprint that identifies seed in the wallet.
func Fingerprint(seed []byte) types.SeedFingerprint {
	var fp types.SeedFingerprint
	copy(fp[:], crypto.DeriveKey(seedFingerprintContext, seed, types.SeedFingerprintSize))
	return fp
}
