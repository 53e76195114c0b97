package types

import "fmt"

// NetworkParams holds the per-network constants used for key derivation and
// address encoding.
type NetworkParams struct {
	Name        string
	CoinType    uint32 // SLIP-44 coin type used in ZIP 32 / BIP 44 paths.
	UnifiedHRP  string
	SaplingHRP  string
	P2PKHPrefix [2]byte
	P2SHPrefix  [2]byte
}

// Known networks.
var (
	MainNetParams = NetworkParams{
		Name:        "main",
		CoinType:    133,
		UnifiedHRP:  "u",
		SaplingHRP:  "zs",
		P2PKHPrefix: [2]byte{0x1c, 0xb8},
		P2SHPrefix:  [2]byte{0x1c, 0xbd},
	}

	TestNetParams = NetworkParams{
		Name:        "test",
		CoinType:    1,
		UnifiedHRP:  "utest",
		SaplingHRP:  "ztestsapling",
		P2PKHPrefix: [2]byte{0x1d, 0x25},
		P2SHPrefix:  [2]byte{0x1c, 0xba},
	}

	RegTestParams = NetworkParams{
		Name:        "regtest",
		CoinType:    1,
		UnifiedHRP:  "uregtest",
		SaplingHRP:  "zregtestsapling",
		P2PKHPrefix: [2]byte{0x1d, 0x25},
		P2SHPrefix:  [2]byte{0x1c, 0xba},
	}
)

// ParamsForNetwork returns the parameters for a network name.
func ParamsForNetwork(name string) (*NetworkParams, error) {
	switch name {
	case MainNetParams.Name, "mainnet":
		return &MainNetParams, nil
	case TestNetParams.Name, "testnet":
		return &TestNetParams, nil
	case RegTestParams.Name:
		return &RegTestParams, nil
	default:
		return nil, fmt.Errorf("unknown network %q", name)
	}
}
