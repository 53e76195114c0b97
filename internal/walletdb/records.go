// Package walletdb persists accounts and derived addresses.
package walletdb

import (
	"time"

	"github.com/zecrocks/zallet-go/internal/keys"
	"github.com/zecrocks/zallet-go/pkg/types"
)

// SeedDerivation records which seed and ZIP-32 account index an account was
// derived from.
type SeedDerivation struct {
	SeedFingerprint types.SeedFingerprint `json:"seedfp"`
	AccountIndex    uint32                `json:"account_index"`
}

// Account is a stored wallet account.
type Account struct {
	ID         types.AccountID   `json:"id"`
	Name       string            `json:"name"`
	Derivation *SeedDerivation   `json:"derivation,omitempty"`
	Keys       *keys.AccountKeys `json:"keys"`
	CreatedAt  time.Time         `json:"created_at"`
}

// IsImported reports whether the account has no seed derivation.
func (a *Account) IsImported() bool {
	return a.Derivation == nil
}

// LegacyIndex returns the ZIP-32 account index, which doubles as the legacy
// numeric account reference. ok is false for imported accounts.
func (a *Account) LegacyIndex() (index uint32, ok bool) {
	if a.Derivation == nil {
		return 0, false
	}
	return a.Derivation.AccountIndex, true
}

// AddressRecord is the immutable result of deriving an address for an
// account at a diversifier index.
type AddressRecord struct {
	AccountID types.AccountID        `json:"account_id"`
	Index     types.DiversifierIndex `json:"diversifier_index"`
	Receivers types.ReceiverSet      `json:"receiver_types"`
	Address   string                 `json:"address"`
	CreatedAt time.Time              `json:"created_at"`
}
