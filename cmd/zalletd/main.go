// zalletd is the zallet wallet daemon.
//
// Usage:
//
//	zalletd [-c zallet.toml] start                 Run the daemon
//	zalletd init-wallet-encryption                 Set the keystore passphrase
//	zalletd generate-mnemonic                      Create and store a new seed
//	zalletd import-mnemonic                        Store an existing seed
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	flags "github.com/jessevdk/go-flags"

	"github.com/zecrocks/zallet-go/config"
	"github.com/zecrocks/zallet-go/internal/daemon"
	klog "github.com/zecrocks/zallet-go/internal/log"
)

// opts are the global options, filled in before any command runs.
var opts config.Options

func main() {
	parser := flags.NewParser(&opts, flags.Default)
	parser.SubcommandsOptional = true
	parser.AddCommand("start", "Start the wallet daemon",
		"Start the wallet daemon and serve JSON-RPC until interrupted.", &startCmd{})
	parser.AddCommand("init-wallet-encryption", "Initialize wallet encryption",
		"Set the passphrase that encrypts every seed stored in the wallet.", &initEncryptionCmd{})
	parser.AddCommand("generate-mnemonic", "Generate a mnemonic and store it",
		"Generate a BIP 39 mnemonic phrase and store it in the wallet.", &generateMnemonicCmd{})
	parser.AddCommand("import-mnemonic", "Import a mnemonic",
		"Read a BIP 39 mnemonic phrase from the terminal and store it in the wallet.", &importMnemonicCmd{})

	if _, err := parser.Parse(); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
	if parser.Active == nil {
		if err := (&startCmd{}).Execute(nil); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadWithOptions(&opts)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

type startCmd struct{}

func (c *startCmd) Execute(args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	d, err := daemon.New(cfg, terminalPassphrase)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return d.Run(ctx)
}

// openStores loads the config and opens the wallet database for a
// maintenance command. Logging goes to the console only.
func openStores() (*daemon.Stores, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if err := klog.Init(cfg.Log.Level, false, ""); err != nil {
		return nil, err
	}
	return daemon.OpenStores(cfg)
}
