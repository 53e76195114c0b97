package keystore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zecrocks/zallet-go/internal/keys"
	"github.com/zecrocks/zallet-go/internal/storage"
	"github.com/zecrocks/zallet-go/pkg/types"
)

const (
	mnemonicA = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
	mnemonicB = "legal winner thank year wave sausage worth useful legal winner thank yellow"
)

var pass = []byte("correct horse")

func newTestKeystore(t *testing.T) (*Keystore, storage.DB) {
	t.Helper()
	db := storage.NewPrefixDB(storage.NewMemory(), []byte("ks/"))
	ks := New(db, FastParams())
	require.NoError(t, ks.Initialize(pass))
	return ks, db
}

func TestKeystore_Initialize(t *testing.T) {
	ks := New(storage.NewMemory(), FastParams())
	ok, err := ks.IsInitialized()
	require.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, ks.Unlock(pass), ErrNotInitialized)
	_, err = ks.AddMnemonic(mnemonicA, pass)
	assert.ErrorIs(t, err, ErrNotInitialized)

	assert.Error(t, ks.Initialize(nil))
	require.NoError(t, ks.Initialize(pass))
	assert.ErrorIs(t, ks.Initialize(pass), ErrAlreadyInitialized)

	ok, err = ks.IsInitialized()
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestKeystore_AddAndUnlock(t *testing.T) {
	ks, db := newTestKeystore(t)

	fpA, err := ks.AddMnemonic(mnemonicA, pass)
	require.NoError(t, err)
	fpB, err := ks.AddMnemonic("  "+mnemonicB+"\n", pass)
	require.NoError(t, err)

	_, err = ks.AddMnemonic(mnemonicA, pass)
	assert.ErrorIs(t, err, ErrDuplicateSeed)
	_, err = ks.AddMnemonic(mnemonicA, []byte("nope"))
	assert.ErrorIs(t, err, ErrWrongPassphrase)
	_, err = ks.AddMnemonic("not a mnemonic", pass)
	assert.Error(t, err)

	fps, err := ks.Fingerprints()
	require.NoError(t, err)
	assert.ElementsMatch(t, []types.SeedFingerprint{fpA, fpB}, fps)

	_, err = ks.Seed(fpA)
	assert.ErrorIs(t, err, ErrLocked)

	// A fresh instance over the same store sees the persisted seeds.
	ks2 := New(db, FastParams())
	assert.ErrorIs(t, ks2.Unlock([]byte("wrong")), ErrWrongPassphrase)
	assert.False(t, ks2.IsUnlocked())
	require.NoError(t, ks2.Unlock(pass))
	assert.True(t, ks2.IsUnlocked())

	seedA, err := ks2.Seed(fpA)
	require.NoError(t, err)
	want, err := keys.SeedFromMnemonic(mnemonicA, "")
	require.NoError(t, err)
	assert.Equal(t, want, seedA)
	assert.Equal(t, fpA, keys.Fingerprint(seedA))

	unknown := fpA
	unknown[0] ^= 1
	_, err = ks2.Seed(unknown)
	assert.ErrorIs(t, err, ErrUnknownSeed)

	ks2.Lock()
	_, err = ks2.Seed(fpA)
	assert.ErrorIs(t, err, ErrLocked)
}

func TestKeystore_AddWhileUnlocked(t *testing.T) {
	ks, _ := newTestKeystore(t)
	require.NoError(t, ks.Unlock(pass))

	fp, err := ks.AddMnemonic(mnemonicA, pass)
	require.NoError(t, err)
	seed, err := ks.Seed(fp)
	require.NoError(t, err)
	assert.Len(t, seed, keys.SeedSize)
}
