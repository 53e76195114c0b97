package wallet

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zecrocks/zallet-go/internal/keys"
	"github.com/zecrocks/zallet-go/internal/walletdb"
	"github.com/zecrocks/zallet-go/pkg/types"
)

var (
	p2pkh   = types.ReceiverP2PKH
	sapling = types.ReceiverSapling
	orchard = types.ReceiverOrchard
)

func idx(v uint64) *types.DiversifierIndex {
	d := types.DiversifierIndexFromUint64(v)
	return &d
}

func TestDerive_DefaultsUseNextUnused(t *testing.T) {
	w, _ := newTestWallet(t, mnemonicA)
	a := mustCreate(t, w, nil)
	all := types.NewReceiverSet(p2pkh, sapling, orchard)

	for want := uint64(0); want < 3; want++ {
		rec, err := w.DeriveAddress(a.ID, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, types.DiversifierIndexFromUint64(want), rec.Index)
		assert.Equal(t, all, rec.Receivers)
		assert.Equal(t, all, receiverTypes(t, rec.Address))
	}

	// An empty list is the same as no list.
	rec, err := w.DeriveAddress(a.ID, []types.ReceiverType{}, nil)
	require.NoError(t, err)
	assert.Equal(t, types.DiversifierIndexFromUint64(3), rec.Index)
}

func TestDerive_DefaultsLimitedToSupported(t *testing.T) {
	w, _ := newTestWallet(t, mnemonicA)
	a := mustCreate(t, w, nil)
	a.Keys = &keys.AccountKeys{Sapling: a.Keys.Sapling}
	require.NoError(t, w.store.Update(func(tx *walletdb.WriteTx) error { return tx.PutAccount(a) }))

	w.deriver.now = func() time.Time { return time.Unix(1_750_000_000, 0) }
	rec, err := w.DeriveAddress(a.ID, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, types.NewReceiverSet(sapling), rec.Receivers)
	// Shielded-only sets use a time-based index.
	assert.Equal(t, types.DiversifierIndexFromUint64(1_750_000_000), rec.Index)

	_, err = w.DeriveAddress(a.ID, []types.ReceiverType{orchard}, nil)
	requireKind(t, WalletRule, err)

	_, err = w.DeriveAddress(a.ID, []types.ReceiverType{sapling, p2pkh}, idx(1))
	requireKind(t, WalletRule, err)
}

func TestDerive_NoShieldedKeys(t *testing.T) {
	w, _ := newTestWallet(t, mnemonicA)
	a := mustCreate(t, w, nil)
	a.Keys = &keys.AccountKeys{Transparent: a.Keys.Transparent}
	require.NoError(t, w.store.Update(func(tx *walletdb.WriteTx) error { return tx.PutAccount(a) }))

	_, err := w.DeriveAddress(a.ID, nil, nil)
	requireKind(t, WalletRule, err)
}

func TestDerive_IdempotentAndConflict(t *testing.T) {
	w, _ := newTestWallet(t, mnemonicA)
	a := mustCreate(t, w, nil)

	first, err := w.DeriveAddress(a.ID, []types.ReceiverType{orchard, sapling}, idx(42))
	require.NoError(t, err)

	// Order does not matter.
	again, err := w.DeriveAddress(a.ID, []types.ReceiverType{sapling, orchard}, idx(42))
	require.NoError(t, err)
	assert.Equal(t, first, again)

	_, err = w.DeriveAddress(a.ID, []types.ReceiverType{orchard}, idx(42))
	requireKind(t, WalletRule, err)

	// The stored record is untouched.
	var stored *walletdb.AddressRecord
	require.NoError(t, w.store.View(func(tx *walletdb.ReadTx) error {
		var err error
		stored, err = tx.AddressAt(a.ID, *idx(42))
		return err
	}))
	assert.Equal(t, first, stored)
}

func TestDerive_ExplicitIndexLeavesWatermark(t *testing.T) {
	w, _ := newTestWallet(t, mnemonicA)
	a := mustCreate(t, w, nil)

	rec, err := w.DeriveAddress(a.ID, nil, idx(7))
	require.NoError(t, err)
	assert.True(t, rec.Receivers.Has(p2pkh))

	require.NoError(t, w.store.View(func(tx *walletdb.ReadTx) error {
		_, ok, err := tx.TransparentWatermark(a.ID)
		assert.False(t, ok)
		return err
	}))

	rec, err = w.DeriveAddress(a.ID, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, types.DiversifierIndexFromUint64(0), rec.Index)
}

func TestDerive_NextUnusedSkipsTakenIndices(t *testing.T) {
	w, _ := newTestWallet(t, mnemonicA)
	a := mustCreate(t, w, nil)

	_, err := w.DeriveAddress(a.ID, []types.ReceiverType{sapling}, idx(0))
	require.NoError(t, err)
	_, err = w.DeriveAddress(a.ID, []types.ReceiverType{orchard}, idx(1))
	require.NoError(t, err)

	rec, err := w.DeriveAddress(a.ID, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, types.DiversifierIndexFromUint64(2), rec.Index)
}

func TestDerive_TransparentIndexBound(t *testing.T) {
	w, _ := newTestWallet(t, mnemonicA)
	a := mustCreate(t, w, nil)
	outside := idx(types.MaxTransparentChildIndex + 1)

	_, err := w.DeriveAddress(a.ID, []types.ReceiverType{orchard, p2pkh}, outside)
	requireKind(t, InvalidParameter, err)

	rec, err := w.DeriveAddress(a.ID, nil, outside)
	require.NoError(t, err)
	assert.Equal(t, types.NewReceiverSet(orchard, sapling), rec.Receivers)

	// The largest 88-bit index is still valid for shielded receivers.
	rec, err = w.DeriveAddress(a.ID, []types.ReceiverType{orchard}, &types.MaxDiversifierIndex)
	require.NoError(t, err)
	assert.Equal(t, types.MaxDiversifierIndex, rec.Index)
}

func TestDerive_TransparentSpaceExhausted(t *testing.T) {
	w, _ := newTestWallet(t, mnemonicA)
	a := mustCreate(t, w, nil)
	require.NoError(t, w.store.Update(func(tx *walletdb.WriteTx) error {
		return tx.AdvanceTransparentWatermark(a.ID, *idx(types.MaxTransparentChildIndex))
	}))

	_, err := w.DeriveAddress(a.ID, nil, nil)
	requireKind(t, WalletRule, err)
}

func TestDerive_InvalidRequests(t *testing.T) {
	w, _ := newTestWallet(t, mnemonicA)
	a := mustCreate(t, w, nil)

	tests := []struct {
		name      string
		receivers []types.ReceiverType
		kind      Kind
	}{
		{"duplicate", []types.ReceiverType{orchard, orchard}, InvalidParameter},
		{"p2sh", []types.ReceiverType{types.ReceiverP2SH, orchard}, InvalidParameter},
		{"transparent only", []types.ReceiverType{p2pkh}, InvalidParameter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := w.DeriveAddress(a.ID, tt.receivers, idx(1))
			requireKind(t, tt.kind, err)
		})
	}

	_, err := w.DeriveAddress(types.NewAccountID(), nil, nil)
	requireKind(t, WalletRule, err)
}

func TestDerive_ConcurrentNextUnused(t *testing.T) {
	w, _ := newTestWallet(t, mnemonicA)
	a := mustCreate(t, w, nil)

	const n = 16
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		indices = make(map[types.DiversifierIndex]bool)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec, err := w.DeriveAddress(a.ID, nil, nil)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			indices[rec.Index] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, indices, n)
	for i := uint64(0); i < n; i++ {
		assert.True(t, indices[types.DiversifierIndexFromUint64(i)], "missing index %d", i)
	}
}

func TestDerive_ConcurrentExplicitSameIndex(t *testing.T) {
	w, _ := newTestWallet(t, mnemonicA)
	a := mustCreate(t, w, nil)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		okCount int
		results = make(map[types.ReceiverSet]bool)
	)
	sets := [][]types.ReceiverType{{orchard}, {sapling}}
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(req []types.ReceiverType) {
			defer wg.Done()
			rec, err := w.DeriveAddress(a.ID, req, idx(9))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				okCount++
				results[rec.Receivers] = true
			} else {
				assert.Equal(t, WalletRule, KindOf(err))
			}
		}(sets[i%2])
	}
	wg.Wait()

	// Exactly one receiver set won the index.
	assert.Len(t, results, 1)
	assert.Positive(t, okCount)
}
