// Package config handles zalletd configuration.
//
// Settings come from three layers, later ones winning: built-in defaults,
// the zallet.toml file (plus ZALLET_* environment variables), and
// command-line options.
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/zecrocks/zallet-go/internal/keystore"
	"github.com/zecrocks/zallet-go/pkg/types"
)

// ConfigFilename is the name of the config file inside the data directory.
const ConfigFilename = "zallet.toml"

// Config holds the daemon's runtime configuration.
type Config struct {
	Network string `mapstructure:"network"`
	DataDir string `mapstructure:"datadir"`

	RPC      RPCConfig      `mapstructure:"rpc"`
	Limits   LimitsConfig   `mapstructure:"limits"`
	Keystore KeystoreConfig `mapstructure:"keystore"`
	Log      LogConfig      `mapstructure:"log"`
}

// RPCConfig holds JSON-RPC server settings. The server is disabled when Bind
// is empty.
type RPCConfig struct {
	Bind        []string `mapstructure:"bind"`    // host:port listen addresses
	Timeout     int      `mapstructure:"timeout"` // seconds
	AllowedIPs  []string `mapstructure:"allowed"`
	CORSOrigins []string `mapstructure:"cors"` // "*" = all
	Metrics     bool     `mapstructure:"metrics"`
}

// LimitsConfig bounds resource use.
type LimitsConfig struct {
	// Maximum number of async operations executing at once.
	AsyncOperations int `mapstructure:"async_operations"`
}

// KeystoreConfig holds seed encryption settings.
type KeystoreConfig struct {
	// File holding the wallet passphrase, read at startup to unlock the
	// keystore. Empty means prompt on the terminal.
	PassphraseFile   string `mapstructure:"passphrase_file"`
	Argon2Memory     uint32 `mapstructure:"argon2_memory"` // KiB
	Argon2Iterations uint32 `mapstructure:"argon2_iterations"`
	Argon2Threads    uint8  `mapstructure:"argon2_threads"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
	JSON  bool   `mapstructure:"json"`
}

// DefaultDataDir returns the platform-specific default data directory.
//
//	Linux:   ~/.zallet
//	macOS:   ~/Library/Application Support/Zallet
//	Windows: %APPDATA%\Zallet
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".zallet"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Zallet")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "Zallet")
		}
		return filepath.Join(home, "AppData", "Roaming", "Zallet")
	default:
		return filepath.Join(home, ".zallet")
	}
}

// Params returns the network parameters.
func (c *Config) Params() (*types.NetworkParams, error) {
	return types.ParamsForNetwork(c.Network)
}

// NetworkDataDir returns the network-specific data directory.
func (c *Config) NetworkDataDir() string {
	return filepath.Join(c.DataDir, c.Network)
}

// WalletDBDir returns the wallet database directory.
func (c *Config) WalletDBDir() string {
	return filepath.Join(c.NetworkDataDir(), "wallet.db")
}

// LogsDir returns the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// LogFile returns the configured log file, resolving relative paths against
// the logs directory.
func (c *Config) LogFile() string {
	if c.Log.File == "" || filepath.IsAbs(c.Log.File) {
		return c.Log.File
	}
	return filepath.Join(c.LogsDir(), c.Log.File)
}

// ConfigFile returns the default config file path.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, ConfigFilename)
}

// RPCTimeout returns the HTTP request timeout.
func (c *Config) RPCTimeout() time.Duration {
	return time.Duration(c.RPC.Timeout) * time.Second
}

// EncryptionParams returns the Argon2id parameters for newly sealed secrets.
func (c *Config) EncryptionParams() keystore.EncryptionParams {
	return keystore.EncryptionParams{
		Memory:      c.Keystore.Argon2Memory,
		Iterations:  c.Keystore.Argon2Iterations,
		Parallelism: c.Keystore.Argon2Threads,
	}
}
