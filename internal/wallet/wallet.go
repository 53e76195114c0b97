// Package wallet implements account management and address derivation on
// top of the wallet store and keystore.
package wallet

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/zecrocks/zallet-go/internal/keys"
	"github.com/zecrocks/zallet-go/internal/keystore"
	"github.com/zecrocks/zallet-go/internal/log"
	"github.com/zecrocks/zallet-go/internal/walletdb"
	"github.com/zecrocks/zallet-go/pkg/types"
)

// Seeds is the keystore surface the wallet needs.
type Seeds interface {
	Fingerprints() ([]types.SeedFingerprint, error)
	Seed(fp types.SeedFingerprint) ([]byte, error)
}

// Wallet ties together the store, keystore and address derivation.
type Wallet struct {
	store    *walletdb.Store
	seeds    Seeds
	engine   *keys.Engine
	resolver *Resolver
	deriver  *Deriver
	now      func() time.Time

	// Account creation reads the highest index then writes the next one.
	createMu sync.Mutex
}

// New returns a wallet for the given network.
func New(store *walletdb.Store, seeds Seeds, params *types.NetworkParams) *Wallet {
	engine := keys.NewEngine(params)
	return &Wallet{
		store:    store,
		seeds:    seeds,
		engine:   engine,
		resolver: NewResolver(store),
		deriver:  NewDeriver(store, engine),
		now:      time.Now,
	}
}

// Params returns the network the wallet encodes addresses for.
func (w *Wallet) Params() *types.NetworkParams {
	return w.engine.Params()
}

// Resolve maps an account reference to an account id.
func (w *Wallet) Resolve(ref AccountRef) (types.AccountID, error) {
	return w.resolver.Resolve(ref)
}

// DeriveAddress derives (or returns the stored) address for an account.
func (w *Wallet) DeriveAddress(id types.AccountID, receivers []types.ReceiverType, index *types.DiversifierIndex) (*walletdb.AddressRecord, error) {
	return w.deriver.Derive(id, receivers, index)
}

// Account returns the account with id.
func (w *Wallet) Account(id types.AccountID) (*walletdb.Account, error) {
	const op Op = "wallet.Account"
	acct, err := w.store.Account(id)
	if err != nil {
		return nil, E(op, Database, err)
	}
	if acct == nil {
		return nil, E(op, WalletRule, fmt.Sprintf("Error: account %s does not exist.", id))
	}
	return acct, nil
}

// AccountWithAddresses pairs an account with its derived addresses.
type AccountWithAddresses struct {
	Account   *walletdb.Account
	Addresses []*walletdb.AddressRecord
}

// Accounts returns every account with its addresses, read from one snapshot.
func (w *Wallet) Accounts() ([]AccountWithAddresses, error) {
	var out []AccountWithAddresses
	err := w.store.View(func(tx *walletdb.ReadTx) error {
		accts, err := tx.Accounts()
		if err != nil {
			return err
		}
		for _, a := range accts {
			addrs, err := tx.Addresses(a.ID)
			if err != nil {
				return err
			}
			out = append(out, AccountWithAddresses{Account: a, Addresses: addrs})
		}
		return nil
	})
	if err != nil {
		return nil, E(Op("wallet.Accounts"), Database, err)
	}
	return out, nil
}

// Info summarizes wallet contents.
type Info struct {
	Seeds    int
	Accounts int
}

// Info returns counts of seeds and accounts.
func (w *Wallet) Info() (Info, error) {
	const op Op = "wallet.Info"
	fps, err := w.seeds.Fingerprints()
	if err != nil {
		return Info{}, E(op, Database, err)
	}
	ids, err := w.store.ListAccountIDs()
	if err != nil {
		return Info{}, E(op, Database, err)
	}
	return Info{Seeds: len(fps), Accounts: len(ids)}, nil
}

// seedFor picks the seed for a new account. fp may be nil when the keystore
// holds exactly one seed.
func (w *Wallet) seedFor(op Op, fp *types.SeedFingerprint) (types.SeedFingerprint, []byte, error) {
	var chosen types.SeedFingerprint
	if fp != nil {
		chosen = *fp
	} else {
		fps, err := w.seeds.Fingerprints()
		if err != nil {
			return chosen, nil, E(op, Database, err)
		}
		switch len(fps) {
		case 0:
			return chosen, nil, E(op, WalletRule, "Error: the wallet has no seeds. Use generate-mnemonic or import-mnemonic first.")
		case 1:
			chosen = fps[0]
		default:
			return chosen, nil, E(op, InvalidParameter, "seedfp argument is required because the wallet has more than one seed.")
		}
	}
	seed, err := w.seeds.Seed(chosen)
	switch {
	case errors.Is(err, keystore.ErrLocked):
		return chosen, nil, E(op, WalletRule, "Error: the wallet is locked.", err)
	case errors.Is(err, keystore.ErrUnknownSeed):
		return chosen, nil, E(op, InvalidParameter, fmt.Sprintf("Unknown seed fingerprint %s", chosen), err)
	case err != nil:
		return chosen, nil, E(op, WalletRule, err)
	}
	return chosen, seed, nil
}

// CreateAccount derives a new account from a seed at the next unused ZIP-32
// account index for that seed.
func (w *Wallet) CreateAccount(name string, fp *types.SeedFingerprint) (*walletdb.Account, error) {
	const op Op = "wallet.CreateAccount"
	seedfp, seed, err := w.seedFor(op, fp)
	if err != nil {
		return nil, err
	}

	w.createMu.Lock()
	defer w.createMu.Unlock()

	var acct *walletdb.Account
	err = w.store.Update(func(tx *walletdb.WriteTx) error {
		accts, err := tx.Accounts()
		if err != nil {
			return E(op, Database, err)
		}
		next := uint64(0)
		for _, a := range accts {
			if d := a.Derivation; d != nil && d.SeedFingerprint == seedfp && uint64(d.AccountIndex) >= next {
				next = uint64(d.AccountIndex) + 1
			}
		}
		if next > MaxLegacyAccount {
			return E(op, WalletRule, "Error: the seed has no unused account indices left.")
		}
		acct, err = w.newAccount(op, name, seedfp, seed, uint32(next))
		if err != nil {
			return err
		}
		if err := tx.PutAccount(acct); err != nil {
			return E(op, Database, err)
		}
		return nil
	})
	if err != nil {
		return nil, dbErr(op, err)
	}
	log.Wallet.Info().
		Str("account", acct.ID.String()).
		Str("seedfp", seedfp.String()).
		Uint32("index", acct.Derivation.AccountIndex).
		Msg("Created account")
	return acct, nil
}

// RecoverAccount adds the account at a specific ZIP-32 index of a seed. If the
// wallet already has it, the existing account is returned.
func (w *Wallet) RecoverAccount(name string, fp types.SeedFingerprint, index uint32) (*walletdb.Account, error) {
	const op Op = "wallet.RecoverAccount"
	if index > MaxLegacyAccount {
		return nil, E(op, InvalidParameter, "Invalid zip32_account_index, must be 0 <= index <= (2^31)-2.")
	}
	_, seed, err := w.seedFor(op, &fp)
	if err != nil {
		return nil, err
	}

	w.createMu.Lock()
	defer w.createMu.Unlock()

	var (
		acct    *walletdb.Account
		created bool
	)
	err = w.store.Update(func(tx *walletdb.WriteTx) error {
		existing, err := tx.DerivedAccount(fp, index)
		if err != nil {
			return E(op, Database, err)
		}
		if existing != nil {
			acct, created = existing, false
			return nil
		}
		acct, err = w.newAccount(op, name, fp, seed, index)
		if err != nil {
			return err
		}
		if err := tx.PutAccount(acct); err != nil {
			return E(op, Database, err)
		}
		created = true
		return nil
	})
	if err != nil {
		return nil, dbErr(op, err)
	}
	if created {
		log.Wallet.Info().
			Str("account", acct.ID.String()).
			Str("seedfp", fp.String()).
			Uint32("index", index).
			Msg("Recovered account")
	}
	return acct, nil
}

func (w *Wallet) newAccount(op Op, name string, fp types.SeedFingerprint, seed []byte, index uint32) (*walletdb.Account, error) {
	k, err := keys.DeriveAccountKeys(seed, w.engine.Params(), index)
	if err != nil {
		return nil, E(op, WalletRule, err)
	}
	return &walletdb.Account{
		ID:         types.NewAccountID(),
		Name:       name,
		Derivation: &walletdb.SeedDerivation{SeedFingerprint: fp, AccountIndex: index},
		Keys:       k,
		CreatedAt:  w.now().UTC(),
	}, nil
}
