package wallet

import (
	"errors"
	"fmt"

	"github.com/zecrocks/zallet-go/internal/walletdb"
	"github.com/zecrocks/zallet-go/pkg/types"
)

// MaxLegacyAccount is the largest accepted legacy account number (2^31 - 2).
const MaxLegacyAccount = 0x7fff_fffe

// AccountReader is the read side of the wallet store used for resolution.
type AccountReader interface {
	ListAccountIDs() ([]types.AccountID, error)
	Account(id types.AccountID) (*walletdb.Account, error)
}

// Resolver maps account references to account ids.
//
// Enumeration and lookups share one store snapshot, so an account listed at
// the start of the scan is always found. If a store cannot provide that and
// the lookup misses anyway, the miss is reported as an internal error.
type Resolver struct {
	view func(fn func(AccountReader) error) error
}

// NewResolver returns a resolver reading from store.
func NewResolver(store *walletdb.Store) *Resolver {
	return &Resolver{view: func(fn func(AccountReader) error) error {
		return store.View(func(tx *walletdb.ReadTx) error { return fn(tx) })
	}}
}

// Resolve returns the account id referenced by ref. A UUID reference is
// returned without checking that the account exists.
func (r *Resolver) Resolve(ref AccountRef) (types.AccountID, error) {
	const op Op = "wallet.Resolve"
	switch ref.kind {
	case refNumber:
		return r.resolveNumber(op, ref.num)
	case refText:
		id, err := types.ParseAccountID(ref.text)
		if err != nil {
			return types.AccountID{}, E(op, InvalidParams, "Invalid account UUID", err)
		}
		return id, nil
	default:
		return types.AccountID{}, E(op, InvalidParams, "Invalid account parameter: expected an account number or UUID")
	}
}

func (r *Resolver) resolveNumber(op Op, n uint64) (types.AccountID, error) {
	if n > MaxLegacyAccount {
		return types.AccountID{}, E(op, InvalidParameter, "Invalid account number, must be 0 <= account <= (2^31)-2.")
	}

	var (
		found *types.AccountID
		seeds = make(map[types.SeedFingerprint]struct{})
	)
	err := r.view(func(tx AccountReader) error {
		ids, err := tx.ListAccountIDs()
		if err != nil {
			return E(op, Database, err)
		}
		for _, id := range ids {
			acct, err := tx.Account(id)
			if err != nil {
				return E(op, Database, err)
			}
			if acct == nil {
				return E(op, Internal, fmt.Sprintf("account %s disappeared while resolving account number %d", id, n))
			}
			if acct.IsImported() {
				continue
			}
			seeds[acct.Derivation.SeedFingerprint] = struct{}{}
			if uint64(acct.Derivation.AccountIndex) == n {
				id := id
				found = &id
			}
		}
		return nil
	})
	if err != nil {
		var werr *Error
		if errors.As(err, &werr) {
			return types.AccountID{}, err
		}
		return types.AccountID{}, E(op, Database, err)
	}

	if len(seeds) != 1 {
		return types.AccountID{}, E(op, WalletRule, "Account numbers are not supported in wallets with multiple seeds. Use the account UUID instead.")
	}
	if found == nil {
		return types.AccountID{}, E(op, WalletRule, fmt.Sprintf("Error: account %d has not been generated by z_getnewaccount.", n))
	}
	return *found, nil
}
