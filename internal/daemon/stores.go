package daemon

import (
	"fmt"
	"os"

	"github.com/zecrocks/zallet-go/config"
	"github.com/zecrocks/zallet-go/internal/keystore"
	"github.com/zecrocks/zallet-go/internal/storage"
	"github.com/zecrocks/zallet-go/internal/walletdb"
)

// Key prefixes separating the keystore from the wallet records in the
// shared database.
var (
	keystorePrefix = []byte("keystore/")
	walletPrefix   = []byte("wallet/")
)

// Stores are the persistent stores of one wallet, backed by a single
// database.
type Stores struct {
	DB       storage.DB
	Keystore *keystore.Keystore
	Wallet   *walletdb.Store
}

// OpenStores opens (creating if needed) the wallet database for cfg.
func OpenStores(cfg *config.Config) (*Stores, error) {
	if err := os.MkdirAll(cfg.NetworkDataDir(), 0700); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	db, err := storage.NewBadger(cfg.WalletDBDir())
	if err != nil {
		return nil, fmt.Errorf("open database at %s: %w", cfg.WalletDBDir(), err)
	}
	return NewStores(db, cfg.EncryptionParams()), nil
}

// NewStores lays the keystore and wallet store over db.
func NewStores(db storage.DB, params keystore.EncryptionParams) *Stores {
	return &Stores{
		DB:       db,
		Keystore: keystore.New(storage.NewPrefixDB(db, keystorePrefix), params),
		Wallet:   walletdb.New(storage.NewPrefixDB(db, walletPrefix)),
	}
}

// Close locks the keystore and closes the database.
func (s *Stores) Close() error {
	s.Keystore.Lock()
	return s.DB.Close()
}
