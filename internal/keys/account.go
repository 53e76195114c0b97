package keys

import (
	"errors"
	"fmt"

	"github.com/zecrocks/zallet-go/pkg/crypto"
	"github.com/zecrocks/zallet-go/pkg/types"
)

// ShieldedKeySize is the length of one pool's stored key material:
// a 32-byte diversifier key followed by a 32-byte incoming viewing key.
const ShieldedKeySize = 64

// Key derivation contexts for the shielded pools.
const (
	saplingDKContext  = "zallet-go 2025 sapling diversifier key"
	saplingIVKContext = "zallet-go 2025 sapling incoming viewing key"
	orchardDKContext  = "zallet-go 2025 orchard diversifier key"
	orchardIVKContext = "zallet-go 2025 orchard incoming viewing key"
)

// ErrMaxAccountIndex is returned for account indices in the hardened range.
var ErrMaxAccountIndex = errors.New("account index must be below 2^31")

// AccountKeys is the public key material of one account. A pool whose field
// is empty is not supported by the account.
type AccountKeys struct {
	// Transparent is the xpub at m/44'/coin'/account'.
	Transparent string `json:"transparent,omitempty"`
	Sapling     []byte `json:"sapling,omitempty"`
	Orchard     []byte `json:"orchard,omitempty"`
}

// DeriveAccountKeys derives the public key material of ZIP-32 account
// accountIndex from seed.
func DeriveAccountKeys(seed []byte, params *types.NetworkParams, accountIndex uint32) (*AccountKeys, error) {
	if accountIndex > types.MaxTransparentChildIndex {
		return nil, ErrMaxAccountIndex
	}
	master, err := NewMasterKey(seed)
	if err != nil {
		return nil, err
	}

	tAcct, err := master.DerivePath(PurposeBIP44, Hardened(params.CoinType), Hardened(accountIndex))
	if err != nil {
		return nil, fmt.Errorf("derive transparent account: %w", err)
	}

	zAcct, err := master.DerivePath(PurposeZIP32, Hardened(params.CoinType), Hardened(accountIndex))
	if err != nil {
		return nil, fmt.Errorf("derive shielded account: %w", err)
	}
	orchardAcct, err := zAcct.DeriveChild(Hardened(1))
	if err != nil {
		return nil, fmt.Errorf("derive orchard account: %w", err)
	}

	return &AccountKeys{
		Transparent: tAcct.Neuter().String(),
		Sapling:     shieldedKey(zAcct, saplingDKContext, saplingIVKContext),
		Orchard:     shieldedKey(orchardAcct, orchardDKContext, orchardIVKContext),
	}, nil
}

func shieldedKey(k *HDKey, dkContext, ivkContext string) []byte {
	ikm := make([]byte, 0, 64)
	ikm = append(ikm, k.PrivateKeyBytes()...)
	ikm = append(ikm, k.ChainCode()...)
	out := make([]byte, 0, ShieldedKeySize)
	out = append(out, crypto.DeriveKey(dkContext, ikm, 32)...)
	out = append(out, crypto.DeriveKey(ivkContext, ikm, 32)...)
	return out
}

// Supported returns the receiver types this key material can derive.
func (k *AccountKeys) Supported() types.ReceiverSet {
	var s types.ReceiverSet
	if k == nil {
		return s
	}
	if k.Transparent != "" {
		s = s.With(types.ReceiverP2PKH)
	}
	if len(k.Sapling) == ShieldedKeySize {
		s = s.With(types.ReceiverSapling)
	}
	if len(k.Orchard) == ShieldedKeySize {
		s = s.With(types.ReceiverOrchard)
	}
	return s
}
