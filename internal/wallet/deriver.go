package wallet

import (
	"fmt"
	"sync"
	"time"

	"github.com/zecrocks/zallet-go/internal/keys"
	"github.com/zecrocks/zallet-go/internal/log"
	"github.com/zecrocks/zallet-go/internal/walletdb"
	"github.com/zecrocks/zallet-go/pkg/types"
)

// KeyDeriver derives addresses from stored account key material.
type KeyDeriver interface {
	SupportedReceiverTypes(k *keys.AccountKeys) types.ReceiverSet
	DeriveAddress(k *keys.AccountKeys, idx types.DiversifierIndex, set types.ReceiverSet) (string, error)
}

// Deriver produces unified addresses for accounts and records them.
type Deriver struct {
	store *walletdb.Store
	keys  KeyDeriver
	now   func() time.Time

	// Next-unused allocation is serialized per account rather than per
	// (account, receiver set); the wider lock also covers the shared
	// transparent watermark.
	locks sync.Map // types.AccountID -> *sync.Mutex
}

// NewDeriver returns a deriver over store.
func NewDeriver(store *walletdb.Store, kd KeyDeriver) *Deriver {
	return &Deriver{store: store, keys: kd, now: time.Now}
}

func (d *Deriver) lockFor(id types.AccountID) *sync.Mutex {
	mu, _ := d.locks.LoadOrStore(id, new(sync.Mutex))
	return mu.(*sync.Mutex)
}

// DefaultReceivers returns the receiver set used when a request names none:
// the two preferred shielded types and p2pkh, limited to what is supported.
func DefaultReceivers(supported types.ReceiverSet) types.ReceiverSet {
	want := types.NewReceiverSet(types.ShieldedPreference[0], types.ShieldedPreference[1], types.ReceiverP2PKH)
	return want.Intersect(supported)
}

// Derive returns the unified address of account id at a diversifier index.
//
// requested lists the receiver types to include; nil or empty selects the
// defaults. index selects the diversifier index; nil lets the wallet choose
// (next unused if p2pkh is included, time-based otherwise). Deriving again at
// an index returns the stored record, and asking for a different receiver set
// at an index already used is a conflict.
func (d *Deriver) Derive(id types.AccountID, requested []types.ReceiverType, index *types.DiversifierIndex) (*walletdb.AddressRecord, error) {
	const op Op = "wallet.Derive"

	acct, err := d.store.Account(id)
	if err != nil {
		return nil, E(op, Database, err)
	}
	if acct == nil {
		return nil, E(op, WalletRule, fmt.Sprintf("Error: account %s does not exist.", id))
	}
	supported := d.keys.SupportedReceiverTypes(acct.Keys)

	explicit := len(requested) > 0
	var set types.ReceiverSet
	if explicit {
		for _, rt := range requested {
			if set.Has(rt) {
				return nil, E(op, InvalidParameter, "receiver type arguments must be unique.")
			}
			if rt == types.ReceiverP2SH {
				return nil, E(op, InvalidParameter, "p2sh receivers are not supported.")
			}
			set = set.With(rt)
		}
		if !set.HasShielded() {
			return nil, E(op, InvalidParameter, "receiver types must include at least one shielded receiver.")
		}
		for _, rt := range set.Types() {
			if !supported.Has(rt) {
				return nil, E(op, WalletRule, fmt.Sprintf("Error: account %s cannot derive %s receivers.", id, rt))
			}
		}
	} else {
		set = DefaultReceivers(supported)
		if !set.HasShielded() {
			return nil, E(op, WalletRule, fmt.Sprintf("Error: account %s cannot derive any shielded receivers.", id))
		}
	}

	if index != nil {
		if set.Has(types.ReceiverP2PKH) {
			if _, ok := index.TransparentChild(); !ok {
				if explicit {
					return nil, E(op, InvalidParameter, "diversifier index is out of range for a p2pkh receiver.")
				}
				set = set.Without(types.ReceiverP2PKH)
			}
		}
		return d.deriveAt(op, acct, *index, set)
	}
	if set.Has(types.ReceiverP2PKH) {
		return d.deriveNextUnused(op, acct, set)
	}
	return d.deriveAt(op, acct, types.DiversifierIndexFromTime(d.now()), set)
}

// deriveAt returns the stored record at idx if its receiver set matches, or
// derives and stores a fresh one.
func (d *Deriver) deriveAt(op Op, acct *walletdb.Account, idx types.DiversifierIndex, set types.ReceiverSet) (*walletdb.AddressRecord, error) {
	var existing *walletdb.AddressRecord
	err := d.store.View(func(tx *walletdb.ReadTx) error {
		var err error
		existing, err = tx.AddressAt(acct.ID, idx)
		return err
	})
	if err != nil {
		return nil, E(op, Database, err)
	}
	if existing != nil {
		return matchExisting(op, existing, set)
	}

	rec, err := d.newRecord(op, acct, idx, set)
	if err != nil {
		return nil, err
	}
	stored, _, err := d.insert(op, rec, false)
	if err != nil {
		return nil, err
	}
	return matchExisting(op, stored, set)
}

// deriveNextUnused allocates the lowest free index above the transparent
// watermark and advances the watermark to it.
func (d *Deriver) deriveNextUnused(op Op, acct *walletdb.Account, set types.ReceiverSet) (*walletdb.AddressRecord, error) {
	mu := d.lockFor(acct.ID)
	mu.Lock()
	defer mu.Unlock()

	var idx types.DiversifierIndex
	err := d.store.View(func(tx *walletdb.ReadTx) error {
		last, ok, err := tx.TransparentWatermark(acct.ID)
		if err != nil {
			return err
		}
		if ok {
			idx, err = last.Next()
			if err != nil {
				return err
			}
		}
		// Skip indices already claimed by explicit requests.
		for {
			rec, err := tx.AddressAt(acct.ID, idx)
			if err != nil {
				return err
			}
			if rec == nil {
				return nil
			}
			if idx, err = idx.Next(); err != nil {
				return err
			}
		}
	})
	if err != nil {
		return nil, E(op, Database, err)
	}

	for {
		if _, ok := idx.TransparentChild(); !ok {
			return nil, E(op, WalletRule, fmt.Sprintf("Error: account %s has no unused transparent diversifier indices left.", acct.ID))
		}
		rec, err := d.newRecord(op, acct, idx, set)
		if err != nil {
			return nil, err
		}
		stored, inserted, err := d.insert(op, rec, true)
		if err != nil {
			return nil, err
		}
		if inserted {
			return stored, nil
		}
		// An explicit request claimed idx after we looked; try the next one.
		if idx, err = idx.Next(); err != nil {
			return nil, E(op, WalletRule, err)
		}
	}
}

func (d *Deriver) newRecord(op Op, acct *walletdb.Account, idx types.DiversifierIndex, set types.ReceiverSet) (*walletdb.AddressRecord, error) {
	addr, err := d.keys.DeriveAddress(acct.Keys, idx, set)
	if err != nil {
		return nil, E(op, WalletRule, err)
	}
	return &walletdb.AddressRecord{
		AccountID: acct.ID,
		Index:     idx,
		Receivers: set,
		Address:   addr,
		CreatedAt: d.now().UTC(),
	}, nil
}

// insert stores rec unless its index is taken and returns whatever is stored
// there afterwards.
func (d *Deriver) insert(op Op, rec *walletdb.AddressRecord, advance bool) (*walletdb.AddressRecord, bool, error) {
	var (
		stored   *walletdb.AddressRecord
		inserted bool
	)
	err := d.store.Update(func(tx *walletdb.WriteTx) error {
		var err error
		stored, inserted, err = tx.InsertAddress(rec)
		if err != nil || !inserted || !advance {
			return err
		}
		return tx.AdvanceTransparentWatermark(rec.AccountID, rec.Index)
	})
	if err != nil {
		return nil, false, E(op, Database, err)
	}
	if inserted {
		log.Wallet.Debug().
			Str("account", rec.AccountID.String()).
			Str("diversifier_index", rec.Index.String()).
			Stringer("receivers", rec.Receivers).
			Msg("Derived new address")
	}
	return stored, inserted, nil
}

func matchExisting(op Op, rec *walletdb.AddressRecord, set types.ReceiverSet) (*walletdb.AddressRecord, error) {
	if rec.Receivers != set {
		return nil, E(op, WalletRule, fmt.Sprintf(
			"Error: address at diversifier index %s was already generated with receiver types %s.",
			rec.Index, rec.Receivers))
	}
	return rec, nil
}
