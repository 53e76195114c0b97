package wallet

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zecrocks/zallet-go/internal/keys"
	"github.com/zecrocks/zallet-go/internal/keystore"
	"github.com/zecrocks/zallet-go/internal/storage"
	"github.com/zecrocks/zallet-go/internal/walletdb"
	"github.com/zecrocks/zallet-go/pkg/types"
)

const (
	mnemonicA = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
	mnemonicB = "legal winner thank year wave sausage worth useful legal winner thank yellow"
)

// fakeSeeds is an in-memory Seeds.
type fakeSeeds struct {
	order  []types.SeedFingerprint
	seeds  map[types.SeedFingerprint][]byte
	locked bool
}

func newFakeSeeds(t *testing.T, mnemonics ...string) *fakeSeeds {
	t.Helper()
	f := &fakeSeeds{seeds: make(map[types.SeedFingerprint][]byte)}
	for _, m := range mnemonics {
		seed, err := keys.SeedFromMnemonic(m, "")
		require.NoError(t, err)
		fp := keys.Fingerprint(seed)
		f.order = append(f.order, fp)
		f.seeds[fp] = seed
	}
	return f
}

func (f *fakeSeeds) Fingerprints() ([]types.SeedFingerprint, error) {
	return append([]types.SeedFingerprint(nil), f.order...), nil
}

func (f *fakeSeeds) Seed(fp types.SeedFingerprint) ([]byte, error) {
	if f.locked {
		return nil, keystore.ErrLocked
	}
	seed, ok := f.seeds[fp]
	if !ok {
		return nil, keystore.ErrUnknownSeed
	}
	return seed, nil
}

func newTestWallet(t *testing.T, mnemonics ...string) (*Wallet, *fakeSeeds) {
	t.Helper()
	seeds := newFakeSeeds(t, mnemonics...)
	w := New(walletdb.New(storage.NewMemory()), seeds, &types.MainNetParams)
	return w, seeds
}

func mustCreate(t *testing.T, w *Wallet, fp *types.SeedFingerprint) *walletdb.Account {
	t.Helper()
	acct, err := w.CreateAccount("test", fp)
	require.NoError(t, err)
	return acct
}

func requireKind(t *testing.T, kind Kind, err error) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, KindOf(err), "error: %v", err)
}

func receiverTypes(t *testing.T, addr string) types.ReceiverSet {
	t.Helper()
	ua, err := types.DecodeUnifiedAddress(addr, &types.MainNetParams)
	require.NoError(t, err)
	return ua.ReceiverTypes()
}
