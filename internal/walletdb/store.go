package walletdb

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zecrocks/zallet-go/internal/storage"
	"github.com/zecrocks/zallet-go/pkg/types"
)

// Key layout:
//
//	a/<account id>                     -> Account
//	d/<account id><sort key(index)>    -> AddressRecord
//	w/<account id>                     -> highest transparent-inclusive index
var (
	accountPrefix   = []byte("a/")
	addressPrefix   = []byte("d/")
	watermarkPrefix = []byte("w/")
)

const accountIDSize = 16

func accountKey(id types.AccountID) []byte {
	return append(append([]byte{}, accountPrefix...), id[:]...)
}

func addressAccountPrefix(id types.AccountID) []byte {
	return append(append([]byte{}, addressPrefix...), id[:]...)
}

func addressKey(id types.AccountID, idx types.DiversifierIndex) []byte {
	return append(addressAccountPrefix(id), idx.SortKey()...)
}

func watermarkKey(id types.AccountID) []byte {
	return append(append([]byte{}, watermarkPrefix...), id[:]...)
}

// Store is the wallet database. All reads that must agree with each other go
// through View; all mutations go through Update.
type Store struct {
	db storage.DB
}

// New returns a store over db.
func New(db storage.DB) *Store {
	return &Store{db: db}
}

// View runs fn against a consistent snapshot.
func (s *Store) View(fn func(tx *ReadTx) error) error {
	return s.db.View(func(r storage.Reader) error {
		return fn(&ReadTx{r: r})
	})
}

// Update runs fn in a read-write transaction; nothing is written unless fn
// returns nil.
func (s *Store) Update(fn func(tx *WriteTx) error) error {
	return s.db.Update(func(w storage.Writer) error {
		return fn(&WriteTx{ReadTx: ReadTx{r: w}, w: w})
	})
}

// ListAccountIDs returns every account id.
func (s *Store) ListAccountIDs() ([]types.AccountID, error) {
	var ids []types.AccountID
	err := s.View(func(tx *ReadTx) error {
		var err error
		ids, err = tx.ListAccountIDs()
		return err
	})
	return ids, err
}

// Account returns the account with id, or nil if there is none.
func (s *Store) Account(id types.AccountID) (*Account, error) {
	var acct *Account
	err := s.View(func(tx *ReadTx) error {
		var err error
		acct, err = tx.Account(id)
		return err
	})
	return acct, err
}

// ReadTx is a read-only view of the wallet.
type ReadTx struct {
	r storage.Reader
}

// ListAccountIDs returns every account id in key order.
func (tx *ReadTx) ListAccountIDs() ([]types.AccountID, error) {
	var ids []types.AccountID
	err := tx.r.ForEach(accountPrefix, func(key, _ []byte) error {
		if len(key) != len(accountPrefix)+accountIDSize {
			return fmt.Errorf("malformed account key %x", key)
		}
		var id types.AccountID
		copy(id[:], key[len(accountPrefix):])
		ids = append(ids, id)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Accounts returns every account in key order.
func (tx *ReadTx) Accounts() ([]*Account, error) {
	var out []*Account
	err := tx.r.ForEach(accountPrefix, func(_, value []byte) error {
		var a Account
		if err := json.Unmarshal(value, &a); err != nil {
			return fmt.Errorf("decode account: %w", err)
		}
		out = append(out, &a)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Account returns the account with id, or nil if there is none.
func (tx *ReadTx) Account(id types.AccountID) (*Account, error) {
	data, err := tx.r.Get(accountKey(id))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var a Account
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode account %s: %w", id, err)
	}
	return &a, nil
}

// DerivedAccount returns the account derived from seed fp at index, or nil.
func (tx *ReadTx) DerivedAccount(fp types.SeedFingerprint, index uint32) (*Account, error) {
	accts, err := tx.Accounts()
	if err != nil {
		return nil, err
	}
	for _, a := range accts {
		if d := a.Derivation; d != nil && d.SeedFingerprint == fp && d.AccountIndex == index {
			return a, nil
		}
	}
	return nil, nil
}

// AddressAt returns the address record for (id, idx), or nil.
func (tx *ReadTx) AddressAt(id types.AccountID, idx types.DiversifierIndex) (*AddressRecord, error) {
	data, err := tx.r.Get(addressKey(id, idx))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rec AddressRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode address record: %w", err)
	}
	return &rec, nil
}

// Addresses returns the account's address records in ascending index order.
func (tx *ReadTx) Addresses(id types.AccountID) ([]*AddressRecord, error) {
	var out []*AddressRecord
	err := tx.r.ForEach(addressAccountPrefix(id), func(_, value []byte) error {
		var rec AddressRecord
		if err := json.Unmarshal(value, &rec); err != nil {
			return fmt.Errorf("decode address record: %w", err)
		}
		out = append(out, &rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// TransparentWatermark returns the highest diversifier index allocated by
// the next-unused policy. ok is false if none has been allocated.
func (tx *ReadTx) TransparentWatermark(id types.AccountID) (idx types.DiversifierIndex, ok bool, err error) {
	data, err := tx.r.Get(watermarkKey(id))
	if errors.Is(err, storage.ErrNotFound) {
		return idx, false, nil
	}
	if err != nil {
		return idx, false, err
	}
	idx, err = types.DiversifierIndexFromSortKey(data)
	if err != nil {
		return idx, false, err
	}
	return idx, true, nil
}

// WriteTx is a read-write transaction.
type WriteTx struct {
	ReadTx
	w storage.Writer
}

// PutAccount stores a.
func (tx *WriteTx) PutAccount(a *Account) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode account: %w", err)
	}
	return tx.w.Put(accountKey(a.ID), data)
}

// InsertAddress stores rec unless a record already exists at its
// (account, index). It returns the record that is stored after the call and
// whether rec was inserted.
func (tx *WriteTx) InsertAddress(rec *AddressRecord) (*AddressRecord, bool, error) {
	existing, err := tx.AddressAt(rec.AccountID, rec.Index)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, false, fmt.Errorf("encode address record: %w", err)
	}
	if err := tx.w.Put(addressKey(rec.AccountID, rec.Index), data); err != nil {
		return nil, false, err
	}
	return rec, true, nil
}

// AdvanceTransparentWatermark raises the account's watermark to idx. Lower
// values are ignored so the watermark never decreases.
func (tx *WriteTx) AdvanceTransparentWatermark(id types.AccountID, idx types.DiversifierIndex) error {
	cur, ok, err := tx.TransparentWatermark(id)
	if err != nil {
		return err
	}
	if ok && cur.Compare(idx) >= 0 {
		return nil
	}
	return tx.w.Put(watermarkKey(id), idx.SortKey())
}
