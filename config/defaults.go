package config

import (
	"github.com/spf13/viper"

	"github.com/zecrocks/zallet-go/internal/asyncop"
	"github.com/zecrocks/zallet-go/internal/keystore"
)

// DefaultRPCTimeout is the HTTP request timeout in seconds.
const DefaultRPCTimeout = 30

// Default returns the default configuration. The RPC server is off until a
// bind address is configured.
func Default() *Config {
	kp := keystore.DefaultParams()
	return &Config{
		Network: "main",
		DataDir: DefaultDataDir(),
		RPC: RPCConfig{
			Timeout:    DefaultRPCTimeout,
			AllowedIPs: []string{"127.0.0.1", "::1"},
			Metrics:    true,
		},
		Limits: LimitsConfig{
			AsyncOperations: asyncop.DefaultMaxConcurrent,
		},
		Keystore: KeystoreConfig{
			Argon2Memory:     kp.Memory,
			Argon2Iterations: kp.Iterations,
			Argon2Threads:    kp.Parallelism,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// setDefaults registers every key with v so environment variables and
// Unmarshal see them.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("network", d.Network)
	v.SetDefault("datadir", d.DataDir)

	v.SetDefault("rpc.bind", d.RPC.Bind)
	v.SetDefault("rpc.timeout", d.RPC.Timeout)
	v.SetDefault("rpc.allowed", d.RPC.AllowedIPs)
	v.SetDefault("rpc.cors", d.RPC.CORSOrigins)
	v.SetDefault("rpc.metrics", d.RPC.Metrics)

	v.SetDefault("limits.async_operations", d.Limits.AsyncOperations)

	v.SetDefault("keystore.passphrase_file", d.Keystore.PassphraseFile)
	v.SetDefault("keystore.argon2_memory", d.Keystore.Argon2Memory)
	v.SetDefault("keystore.argon2_iterations", d.Keystore.Argon2Iterations)
	v.SetDefault("keystore.argon2_threads", d.Keystore.Argon2Threads)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.json", d.Log.JSON)
}
