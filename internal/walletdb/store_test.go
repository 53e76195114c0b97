package walletdb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zecrocks/zallet-go/internal/keys"
	"github.com/zecrocks/zallet-go/internal/storage"
	"github.com/zecrocks/zallet-go/pkg/types"
)

func newAccount(fp byte, index uint32) *Account {
	a := &Account{
		ID:        types.NewAccountID(),
		Name:      "acct",
		Keys:      &keys.AccountKeys{Sapling: make([]byte, keys.ShieldedKeySize)},
		CreatedAt: time.Unix(1_700_000_000, 0).UTC(),
	}
	if fp != 0 {
		var f types.SeedFingerprint
		f[0] = fp
		a.Derivation = &SeedDerivation{SeedFingerprint: f, AccountIndex: index}
	}
	return a
}

func putAccounts(t *testing.T, s *Store, accts ...*Account) {
	t.Helper()
	require.NoError(t, s.Update(func(tx *WriteTx) error {
		for _, a := range accts {
			if err := tx.PutAccount(a); err != nil {
				return err
			}
		}
		return nil
	}))
}

func TestStore_Accounts(t *testing.T) {
	s := New(storage.NewMemory())
	a := newAccount(1, 0)
	b := newAccount(1, 5)
	imported := newAccount(0, 0)
	putAccounts(t, s, a, b, imported)

	ids, err := s.ListAccountIDs()
	require.NoError(t, err)
	assert.ElementsMatch(t, []types.AccountID{a.ID, b.ID, imported.ID}, ids)

	got, err := s.Account(b.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, b.Name, got.Name)
	assert.Equal(t, b.Derivation, got.Derivation)
	assert.Equal(t, b.Keys.Sapling, got.Keys.Sapling)
	idx, ok := got.LegacyIndex()
	assert.True(t, ok)
	assert.Equal(t, uint32(5), idx)

	missing, err := s.Account(types.NewAccountID())
	require.NoError(t, err)
	assert.Nil(t, missing)

	gotImported, err := s.Account(imported.ID)
	require.NoError(t, err)
	assert.True(t, gotImported.IsImported())
	_, ok = gotImported.LegacyIndex()
	assert.False(t, ok)

	require.NoError(t, s.View(func(tx *ReadTx) error {
		d, err := tx.DerivedAccount(b.Derivation.SeedFingerprint, 5)
		require.NoError(t, err)
		require.NotNil(t, d)
		assert.Equal(t, b.ID, d.ID)

		none, err := tx.DerivedAccount(b.Derivation.SeedFingerprint, 4)
		assert.Nil(t, none)
		return err
	}))
}

func TestStore_InsertAddressIfAbsent(t *testing.T) {
	s := New(storage.NewMemory())
	a := newAccount(1, 0)
	putAccounts(t, s, a)

	idx := types.DiversifierIndexFromUint64(7)
	first := &AddressRecord{AccountID: a.ID, Index: idx, Receivers: types.NewReceiverSet(types.ReceiverSapling), Address: "u1first"}
	second := &AddressRecord{AccountID: a.ID, Index: idx, Receivers: types.NewReceiverSet(types.ReceiverOrchard), Address: "u1second"}

	var inserted bool
	require.NoError(t, s.Update(func(tx *WriteTx) error {
		var err error
		_, inserted, err = tx.InsertAddress(first)
		return err
	}))
	assert.True(t, inserted)

	var stored *AddressRecord
	require.NoError(t, s.Update(func(tx *WriteTx) error {
		var err error
		stored, inserted, err = tx.InsertAddress(second)
		return err
	}))
	assert.False(t, inserted)
	assert.Equal(t, "u1first", stored.Address)
	assert.Equal(t, first.Receivers, stored.Receivers)
}

func TestStore_AddressesOrdered(t *testing.T) {
	s := New(storage.NewMemory())
	a := newAccount(1, 0)
	other := newAccount(1, 1)
	putAccounts(t, s, a, other)

	require.NoError(t, s.Update(func(tx *WriteTx) error {
		for _, v := range []uint64{300, 2, 1 << 40, 256} {
			rec := &AddressRecord{AccountID: a.ID, Index: types.DiversifierIndexFromUint64(v), Address: "x"}
			if _, _, err := tx.InsertAddress(rec); err != nil {
				return err
			}
		}
		_, _, err := tx.InsertAddress(&AddressRecord{AccountID: other.ID, Index: types.DiversifierIndexFromUint64(0)})
		return err
	}))

	require.NoError(t, s.View(func(tx *ReadTx) error {
		recs, err := tx.Addresses(a.ID)
		require.NoError(t, err)
		var got []string
		for _, r := range recs {
			got = append(got, r.Index.String())
		}
		assert.Equal(t, []string{"2", "256", "300", "1099511627776"}, got)
		return nil
	}))
}

func TestStore_Watermark(t *testing.T) {
	s := New(storage.NewMemory())
	id := types.NewAccountID()

	require.NoError(t, s.View(func(tx *ReadTx) error {
		_, ok, err := tx.TransparentWatermark(id)
		assert.False(t, ok)
		return err
	}))

	advance := func(v uint64) {
		require.NoError(t, s.Update(func(tx *WriteTx) error {
			return tx.AdvanceTransparentWatermark(id, types.DiversifierIndexFromUint64(v))
		}))
	}
	advance(3)
	advance(1) // ignored: never decreases
	require.NoError(t, s.View(func(tx *ReadTx) error {
		w, ok, err := tx.TransparentWatermark(id)
		assert.True(t, ok)
		assert.Equal(t, "3", w.String())
		return err
	}))
}

func TestStore_BadgerBacked(t *testing.T) {
	db, err := storage.NewBadger(t.TempDir())
	require.NoError(t, err)
	defer db.Close()

	s := New(storage.NewPrefixDB(db, []byte("w/")))
	a := newAccount(9, 2)
	putAccounts(t, s, a)
	got, err := s.Account(a.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, a.ID, got.ID)
}
