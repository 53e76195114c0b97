package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFilename)
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestDefault_Valid(t *testing.T) {
	cfg := Default()
	require.NoError(t, Validate(cfg))
	assert.Equal(t, "main", cfg.Network)
	assert.Empty(t, cfg.RPC.Bind)
	assert.Positive(t, cfg.Limits.AsyncOperations)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, `
network = "test"
datadir = "`+filepath.ToSlash(dir)+`"

[rpc]
bind = ["127.0.0.1:18232", "[::1]:18232"]
timeout = 5

[limits]
async_operations = 2

[keystore]
passphrase_file = "/run/secrets/zallet"

[log]
level = "debug"
json = true
`)

	cfg, err := Load(path, true)
	require.NoError(t, err)
	require.NoError(t, Validate(cfg))

	assert.Equal(t, "test", cfg.Network)
	assert.Equal(t, dir, filepath.FromSlash(cfg.DataDir))
	assert.Equal(t, []string{"127.0.0.1:18232", "[::1]:18232"}, cfg.RPC.Bind)
	assert.Equal(t, 5, cfg.RPC.Timeout)
	assert.Equal(t, 2, cfg.Limits.AsyncOperations)
	assert.Equal(t, "/run/secrets/zallet", cfg.Keystore.PassphraseFile)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.JSON)

	// Untouched keys keep their defaults.
	assert.Equal(t, Default().Keystore.Argon2Memory, cfg.Keystore.Argon2Memory)
	assert.Equal(t, filepath.Join(dir, "test", "wallet.db"), cfg.WalletDBDir())
}

func TestLoad_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.toml")

	cfg, err := Load(path, false)
	require.NoError(t, err)
	assert.Equal(t, Default().Network, cfg.Network)

	_, err = Load(path, true)
	assert.Error(t, err)
}

func TestLoad_Malformed(t *testing.T) {
	path := writeFile(t, t.TempDir(), "network = [")
	_, err := Load(path, false)
	assert.Error(t, err)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("ZALLET_RPC_TIMEOUT", "7")
	t.Setenv("ZALLET_NETWORK", "regtest")

	cfg, err := Load("", false)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.RPC.Timeout)
	assert.Equal(t, "regtest", cfg.Network)
}

func TestOptions_Override(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, `
network = "test"
[log]
level = "warn"
`)
	opts := &Options{DataDir: dir, Network: "regtest", Verbose: true}
	cfg, err := LoadWithOptions(opts)
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, "regtest", cfg.Network)
	assert.Equal(t, "debug", cfg.Log.Level)

	_, err = LoadWithOptions(&Options{ConfigFile: filepath.Join(dir, "missing.toml")})
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"testnet alias", func(c *Config) { c.Network = "testnet" }, true},
		{"unknown network", func(c *Config) { c.Network = "moon" }, false},
		{"empty datadir", func(c *Config) { c.DataDir = "" }, false},
		{"bind", func(c *Config) { c.RPC.Bind = []string{"127.0.0.1:0"} }, true},
		{"bind no port", func(c *Config) { c.RPC.Bind = []string{"127.0.0.1"} }, false},
		{"bind hostname", func(c *Config) { c.RPC.Bind = []string{"localhost:28232"} }, false},
		{"bind port range", func(c *Config) { c.RPC.Bind = []string{"127.0.0.1:70000"} }, false},
		{"zero timeout", func(c *Config) { c.RPC.Timeout = 0 }, false},
		{"allowed cidr", func(c *Config) { c.RPC.AllowedIPs = []string{"10.0.0.0/8"} }, true},
		{"allowed junk", func(c *Config) { c.RPC.AllowedIPs = []string{"nope"} }, false},
		{"zero async limit", func(c *Config) { c.Limits.AsyncOperations = 0 }, false},
		{"zero argon2 iterations", func(c *Config) { c.Keystore.Argon2Iterations = 0 }, false},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := Validate(cfg)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}

	cfg := Default()
	cfg.Network = "testnet"
	require.NoError(t, Validate(cfg))
	assert.Equal(t, "test", cfg.Network)
}

func TestLogFile(t *testing.T) {
	cfg := Default()
	cfg.DataDir = "/data"
	assert.Equal(t, "", cfg.LogFile())
	cfg.Log.File = "zallet.log"
	assert.Equal(t, filepath.Join("/data", "logs", "zallet.log"), cfg.LogFile())
	cfg.Log.File = "/var/log/zallet.log"
	assert.Equal(t, "/var/log/zallet.log", cfg.LogFile())
}
