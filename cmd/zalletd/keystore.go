package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/zecrocks/zallet-go/internal/keys"
)

var errNotInitialized = errors.New("wallet encryption is not initialized; run init-wallet-encryption first")

type initEncryptionCmd struct{}

func (c *initEncryptionCmd) Execute(args []string) error {
	stores, err := openStores()
	if err != nil {
		return err
	}
	defer stores.Close()

	ok, err := stores.Keystore.IsInitialized()
	if err != nil {
		return err
	}
	if ok {
		return fmt.Errorf("wallet encryption is already initialized")
	}

	pass, err := readPassword("New wallet passphrase: ")
	if err != nil {
		return err
	}
	defer zero(pass)
	confirm, err := readPassword("Confirm passphrase: ")
	if err != nil {
		return err
	}
	defer zero(confirm)
	if !bytes.Equal(pass, confirm) {
		return fmt.Errorf("passphrases do not match")
	}

	if err := stores.Keystore.Initialize(pass); err != nil {
		return err
	}
	fmt.Println("Wallet encryption initialized.")
	return nil
}

type generateMnemonicCmd struct{}

func (c *generateMnemonicCmd) Execute(args []string) error {
	mnemonic, err := keys.GenerateMnemonic()
	if err != nil {
		return err
	}
	return storeMnemonic(mnemonic)
}

type importMnemonicCmd struct{}

func (c *importMnemonicCmd) Execute(args []string) error {
	raw, err := readPassword("Mnemonic phrase: ")
	if err != nil {
		return err
	}
	defer zero(raw)
	mnemonic := keys.NormalizeMnemonic(strings.TrimSpace(string(raw)))
	if !keys.ValidateMnemonic(mnemonic) {
		return fmt.Errorf("invalid mnemonic phrase")
	}
	return storeMnemonic(mnemonic)
}

func storeMnemonic(mnemonic string) error {
	stores, err := openStores()
	if err != nil {
		return err
	}
	defer stores.Close()

	ok, err := stores.Keystore.IsInitialized()
	if err != nil {
		return err
	}
	if !ok {
		return errNotInitialized
	}

	pass, err := readPassword("Wallet passphrase: ")
	if err != nil {
		return err
	}
	defer zero(pass)

	fp, err := stores.Keystore.AddMnemonic(mnemonic, pass)
	if err != nil {
		return err
	}
	fmt.Printf("Seed fingerprint: %s\n", fp)
	return nil
}

// terminalPassphrase prompts for the keystore passphrase on the terminal.
func terminalPassphrase() ([]byte, error) {
	if !term.IsTerminal(int(syscall.Stdin)) {
		return nil, fmt.Errorf("no terminal to prompt for the wallet passphrase; set keystore.passphrase_file")
	}
	return readPassword("Wallet passphrase: ")
}

func readPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr) // newline after hidden input
	if err != nil {
		return nil, err
	}
	return password, nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
