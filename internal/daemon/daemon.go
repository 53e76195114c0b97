// Package daemon wires the wallet's components into a runnable process
// that can be embedded in any binary.
package daemon

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/zecrocks/zallet-go/config"
	"github.com/zecrocks/zallet-go/internal/asyncop"
	klog "github.com/zecrocks/zallet-go/internal/log"
	"github.com/zecrocks/zallet-go/internal/rpc"
	"github.com/zecrocks/zallet-go/internal/wallet"
)

// shutdownTimeout bounds how long Stop waits for operations and in-flight
// requests.
const shutdownTimeout = 10 * time.Second

// PassphraseFunc supplies the keystore passphrase when no passphrase file is
// configured, typically by prompting on a terminal.
type PassphraseFunc func() ([]byte, error)

// Daemon is a fully-initialized wallet daemon.
type Daemon struct {
	cfg    *config.Config
	logger zerolog.Logger

	stores  *Stores
	wallet  *wallet.Wallet
	ops     *asyncop.Registry
	metrics *prometheus.Registry

	// nil when RPC is disabled
	rpcServer *rpc.Server
}

// New creates and initializes a daemon: logger, storage, keystore unlock,
// wallet, operation registry and RPC server. It does not start listening;
// call Start for that.
func New(cfg *config.Config, prompt PassphraseFunc) (*Daemon, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	// ── 1. Logger ───────────────────────────────────────────────────
	if err := klog.Init(cfg.Log.Level, cfg.Log.JSON, cfg.LogFile()); err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}
	logger := klog.WithComponent("daemon")

	params, err := cfg.Params()
	if err != nil {
		return nil, err
	}
	logger.Info().
		Str("network", params.Name).
		Str("datadir", cfg.DataDir).
		Msg("Starting zallet wallet daemon")

	// ── 2. Storage ──────────────────────────────────────────────────
	stores, err := OpenStores(cfg)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("path", cfg.WalletDBDir()).Msg("Database opened")

	// ── 3. Keystore ─────────────────────────────────────────────────
	if err := unlock(cfg, stores, prompt, logger); err != nil {
		stores.Close()
		return nil, err
	}

	// ── 4. Metrics ──────────────────────────────────────────────────
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	opMetrics, err := asyncop.NewMetrics(reg)
	if err != nil {
		stores.Close()
		return nil, err
	}

	// ── 5. Wallet and operations ────────────────────────────────────
	w := wallet.New(stores.Wallet, stores.Keystore, params)
	ops := asyncop.New(asyncop.Config{
		MaxConcurrent: cfg.Limits.AsyncOperations,
		Metrics:       opMetrics,
	})

	d := &Daemon{
		cfg:     cfg,
		logger:  logger,
		stores:  stores,
		wallet:  w,
		ops:     ops,
		metrics: reg,
	}

	// ── 6. RPC ──────────────────────────────────────────────────────
	if len(cfg.RPC.Bind) > 0 {
		srv, err := rpc.New(cfg.RPC, rpc.Deps{
			Wallet:     w,
			Operations: ops,
			Keystore:   stores.Keystore,
			Metrics:    reg,
		})
		if err != nil {
			d.Stop()
			return nil, fmt.Errorf("create rpc server: %w", err)
		}
		d.rpcServer = srv
	} else {
		logger.Warn().Msg("RPC disabled by config (rpc.bind is empty)")
	}

	return d, nil
}

func unlock(cfg *config.Config, stores *Stores, prompt PassphraseFunc, logger zerolog.Logger) error {
	ks := stores.Keystore
	ok, err := ks.IsInitialized()
	if err != nil {
		return fmt.Errorf("read keystore: %w", err)
	}
	if !ok {
		logger.Warn().Msg("Wallet encryption is not initialized; run init-wallet-encryption")
		return nil
	}

	var pass []byte
	switch {
	case cfg.Keystore.PassphraseFile != "":
		pass, err = readPassphraseFile(cfg.Keystore.PassphraseFile)
	case prompt != nil:
		pass, err = prompt()
	default:
		logger.Warn().Msg("No passphrase source; keystore stays locked")
		return nil
	}
	if err != nil {
		return err
	}
	defer func() {
		for i := range pass {
			pass[i] = 0
		}
	}()
	if err := ks.Unlock(pass); err != nil {
		return fmt.Errorf("unlock keystore: %w", err)
	}
	return nil
}

// Start begins serving RPC.
func (d *Daemon) Start() error {
	if d.rpcServer != nil {
		if err := d.rpcServer.Start(); err != nil {
			return err
		}
	}
	info, err := d.wallet.Info()
	if err != nil {
		return err
	}
	d.logger.Info().
		Int("seeds", info.Seeds).
		Int("accounts", info.Accounts).
		Bool("unlocked", d.stores.Keystore.IsUnlocked()).
		Msg("Daemon started successfully")
	return nil
}

// Run starts the daemon and blocks until ctx is done, then stops it.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.Start(); err != nil {
		d.Stop()
		return err
	}
	<-ctx.Done()
	return d.Stop()
}

// Stop cancels in-flight operations and stops the RPC server, then closes
// the database.
func (d *Daemon) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var g errgroup.Group
	g.Go(func() error { return d.ops.Shutdown(ctx) })
	if d.rpcServer != nil {
		g.Go(func() error { return d.rpcServer.Stop(ctx) })
	}
	err := g.Wait()
	if err != nil {
		d.logger.Warn().Err(err).Msg("Shutdown incomplete")
	}

	if cerr := d.stores.Close(); cerr != nil && err == nil {
		err = cerr
	}
	d.logger.Info().Msg("Goodbye!")
	klog.Close()
	return err
}

// RPCAddrs returns the addresses the RPC server is listening on.
func (d *Daemon) RPCAddrs() []string {
	if d.rpcServer == nil {
		return nil
	}
	return d.rpcServer.Addrs()
}

// Wallet returns the daemon's wallet.
func (d *Daemon) Wallet() *wallet.Wallet {
	return d.wallet
}

// Operations returns the daemon's async operation registry.
func (d *Daemon) Operations() *asyncop.Registry {
	return d.ops
}
