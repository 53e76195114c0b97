package config

import (
	"fmt"
	"net"
	"strconv"

	"github.com/zecrocks/zallet-go/internal/log"
)

// Validate checks the config for operator mistakes and canonicalizes the
// network name.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	params, err := cfg.Params()
	if err != nil {
		return fmt.Errorf("network: %w", err)
	}
	cfg.Network = params.Name

	if cfg.DataDir == "" {
		return fmt.Errorf("datadir must not be empty")
	}

	for i, addr := range cfg.RPC.Bind {
		if err := validateBind(addr); err != nil {
			return fmt.Errorf("rpc.bind[%d]: %w", i, err)
		}
	}
	if cfg.RPC.Timeout <= 0 {
		return fmt.Errorf("rpc.timeout must be positive")
	}
	for i, entry := range cfg.RPC.AllowedIPs {
		if _, _, err := net.ParseCIDR(entry); err == nil {
			continue
		}
		if net.ParseIP(entry) == nil {
			return fmt.Errorf("rpc.allowed[%d]: %q is not an IP or CIDR", i, entry)
		}
	}

	if cfg.Limits.AsyncOperations <= 0 {
		return fmt.Errorf("limits.async_operations must be positive")
	}

	if err := cfg.EncryptionParams().Validate(); err != nil {
		return fmt.Errorf("keystore: %w", err)
	}

	if !log.ValidLevel(cfg.Log.Level) {
		return fmt.Errorf("log.level must be one of trace, debug, info, warn, error")
	}
	return nil
}

func validateBind(addr string) error {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}
	if host != "" && net.ParseIP(host) == nil {
		return fmt.Errorf("host %q is not an IP address", host)
	}
	p, err := strconv.Atoi(port)
	if err != nil || p < 0 || p > 65535 {
		return fmt.Errorf("port %q out of range", port)
	}
	return nil
}
