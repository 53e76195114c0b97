// Package keystore stores wallet mnemonics encrypted under a passphrase and
// holds the decrypted seeds in memory while unlocked.
package keystore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/zecrocks/zallet-go/internal/keys"
	"github.com/zecrocks/zallet-go/internal/log"
	"github.com/zecrocks/zallet-go/internal/storage"
	"github.com/zecrocks/zallet-go/pkg/types"
)

// Keystore errors.
var (
	ErrNotInitialized     = errors.New("wallet encryption has not been initialized")
	ErrAlreadyInitialized = errors.New("wallet encryption is already initialized")
	ErrWrongPassphrase    = errors.New("incorrect passphrase")
	ErrLocked             = errors.New("keystore is locked")
	ErrUnknownSeed        = errors.New("no seed with that fingerprint")
	ErrDuplicateSeed      = errors.New("seed is already in the keystore")
)

var (
	verifierKey  = []byte("verifier")
	seedPrefix   = []byte("s/")
	verifierText = []byte("zallet-go keystore v1")
)

// seedRecord is the stored form of one mnemonic.
type seedRecord struct {
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	Mnemonic  []byte    `json:"mnemonic"` // sealed
}

// Keystore manages encrypted mnemonics in a storage.DB namespace.
type Keystore struct {
	db     storage.DB
	params EncryptionParams

	mu    sync.RWMutex
	seeds map[types.SeedFingerprint][]byte // nil while locked
}

// New returns a keystore backed by db. params are used for newly sealed values.
func New(db storage.DB, params EncryptionParams) *Keystore {
	return &Keystore{db: db, params: params}
}

func seedKey(fp types.SeedFingerprint) []byte {
	return append(append([]byte{}, seedPrefix...), fp[:]...)
}

// IsInitialized reports whether a passphrase has been set.
func (ks *Keystore) IsInitialized() (bool, error) {
	return ks.db.Has(verifierKey)
}

// Initialize sets the keystore passphrase. It fails if one is already set.
func (ks *Keystore) Initialize(passphrase []byte) error {
	if len(passphrase) == 0 {
		return fmt.Errorf("passphrase must not be empty")
	}
	sealed, err := Seal(verifierText, passphrase, verifierKey, ks.params)
	if err != nil {
		return err
	}
	err = ks.db.Update(func(tx storage.Writer) error {
		ok, err := tx.Has(verifierKey)
		if err != nil {
			return err
		}
		if ok {
			return ErrAlreadyInitialized
		}
		return tx.Put(verifierKey, sealed)
	})
	if err != nil {
		return err
	}
	log.Keystore.Info().Msg("Wallet encryption initialized")
	return nil
}

func (ks *Keystore) checkPassphrase(passphrase []byte) error {
	sealed, err := ks.db.Get(verifierKey)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrNotInitialized
	}
	if err != nil {
		return err
	}
	plain, err := Open(sealed, passphrase, verifierKey)
	if err != nil {
		return err
	}
	if !bytes.Equal(plain, verifierText) {
		return ErrWrongPassphrase
	}
	return nil
}

// Unlock verifies passphrase and decrypts every stored seed into memory.
func (ks *Keystore) Unlock(passphrase []byte) error {
	if err := ks.checkPassphrase(passphrase); err != nil {
		return err
	}

	seeds := make(map[types.SeedFingerprint][]byte)
	err := ks.db.ForEach(seedPrefix, func(key, value []byte) error {
		seed, fp, err := openSeed(key, value, passphrase)
		if err != nil {
			return err
		}
		seeds[fp] = seed
		return nil
	})
	if err != nil {
		return err
	}

	ks.mu.Lock()
	ks.seeds = seeds
	ks.mu.Unlock()
	log.Keystore.Info().Int("seeds", len(seeds)).Msg("Keystore unlocked")
	return nil
}

func openSeed(key, value, passphrase []byte) ([]byte, types.SeedFingerprint, error) {
	var rec seedRecord
	if err := json.Unmarshal(value, &rec); err != nil {
		return nil, types.SeedFingerprint{}, fmt.Errorf("parse seed record: %w", err)
	}
	if rec.Version != 1 {
		return nil, types.SeedFingerprint{}, fmt.Errorf("unsupported seed record version: %d", rec.Version)
	}
	mnemonic, err := Open(rec.Mnemonic, passphrase, key)
	if err != nil {
		return nil, types.SeedFingerprint{}, err
	}
	seed, err := keys.SeedFromMnemonic(string(mnemonic), "")
	if err != nil {
		return nil, types.SeedFingerprint{}, err
	}
	fp := keys.Fingerprint(seed)
	if !bytes.Equal(key[len(seedPrefix):], fp[:]) {
		return nil, types.SeedFingerprint{}, fmt.Errorf("seed record %x does not match its fingerprint", key[len(seedPrefix):])
	}
	return seed, fp, nil
}

// Lock drops the decrypted seeds.
func (ks *Keystore) Lock() {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	for _, s := range ks.seeds {
		zero(s)
	}
	ks.seeds = nil
}

// IsUnlocked reports whether seeds are available.
func (ks *Keystore) IsUnlocked() bool {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	return ks.seeds != nil
}

// AddMnemonic seals a mnemonic under passphrase and stores it. The returned
// fingerprint identifies the seed from then on. If the keystore is unlocked
// the seed becomes usable immediately.
func (ks *Keystore) AddMnemonic(mnemonic string, passphrase []byte) (types.SeedFingerprint, error) {
	mnemonic = keys.NormalizeMnemonic(mnemonic)
	seed, err := keys.SeedFromMnemonic(mnemonic, "")
	if err != nil {
		return types.SeedFingerprint{}, err
	}
	if err := ks.checkPassphrase(passphrase); err != nil {
		return types.SeedFingerprint{}, err
	}

	fp := keys.Fingerprint(seed)
	key := seedKey(fp)
	sealed, err := Seal([]byte(mnemonic), passphrase, key, ks.params)
	if err != nil {
		return types.SeedFingerprint{}, err
	}
	data, err := json.Marshal(seedRecord{Version: 1, CreatedAt: time.Now().UTC(), Mnemonic: sealed})
	if err != nil {
		return types.SeedFingerprint{}, fmt.Errorf("marshal seed record: %w", err)
	}

	err = ks.db.Update(func(tx storage.Writer) error {
		ok, err := tx.Has(key)
		if err != nil {
			return err
		}
		if ok {
			return ErrDuplicateSeed
		}
		return tx.Put(key, data)
	})
	if err != nil {
		return types.SeedFingerprint{}, err
	}

	ks.mu.Lock()
	if ks.seeds != nil {
		ks.seeds[fp] = seed
	}
	ks.mu.Unlock()
	log.Keystore.Info().Str("seedfp", fp.String()).Msg("Mnemonic added")
	return fp, nil
}

// Fingerprints returns the fingerprints of all stored seeds in ascending order.
// It does not require the keystore to be unlocked.
func (ks *Keystore) Fingerprints() ([]types.SeedFingerprint, error) {
	var out []types.SeedFingerprint
	err := ks.db.ForEach(seedPrefix, func(key, _ []byte) error {
		var fp types.SeedFingerprint
		if len(key) != len(seedPrefix)+len(fp) {
			return fmt.Errorf("malformed seed key %x", key)
		}
		copy(fp[:], key[len(seedPrefix):])
		out = append(out, fp)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i][:], out[j][:]) < 0 })
	return out, nil
}

// Seed returns a copy of the seed with fingerprint fp.
func (ks *Keystore) Seed(fp types.SeedFingerprint) ([]byte, error) {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	if ks.seeds == nil {
		return nil, ErrLocked
	}
	seed, ok := ks.seeds[fp]
	if !ok {
		return nil, ErrUnknownSeed
	}
	out := make([]byte, len(seed))
	copy(out, seed)
	return out, nil
}
