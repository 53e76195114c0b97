package types

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBech32_Roundtrip(t *testing.T) {
	data := []byte{0x8f, 0x3a, 0x44, 0xb8, 0x05, 0x6c, 0xaf, 0xec, 0x36, 0x8d,
		0xea, 0x0c, 0xbe, 0x0a, 0xd1, 0xd9, 0xbc, 0x3f, 0x43, 0x05}

	for _, tc := range []struct {
		name   string
		encode func(string, []byte) (string, error)
		decode func(string) (string, []byte, error)
	}{
		{"bech32", Bech32Encode, Bech32Decode},
		{"bech32m", Bech32mEncode, Bech32mDecode},
	} {
		t.Run(tc.name, func(t *testing.T) {
			encoded, err := tc.encode("zs", data)
			require.NoError(t, err)
			hrp, decoded, err := tc.decode(encoded)
			require.NoError(t, err)
			assert.Equal(t, "zs", hrp)
			assert.Equal(t, data, decoded)
		})
	}
}

func TestBech32_KnownVectors(t *testing.T) {
	// Empty-payload vectors from BIP-173 and BIP-350.
	hrp, data, err := Bech32Decode("a12uel5l")
	require.NoError(t, err)
	assert.Equal(t, "a", hrp)
	assert.Empty(t, data)

	hrp, data, err = Bech32mDecode("a1lqfn3a")
	require.NoError(t, err)
	assert.Equal(t, "a", hrp)
	assert.Empty(t, data)

	hrp, _, err = Bech32mDecode("A1LQFN3A")
	require.NoError(t, err)
	assert.Equal(t, "a", hrp)
}

func TestBech32_VariantsDoNotCrossDecode(t *testing.T) {
	data := bytes.Repeat([]byte{0x42}, 32)

	b32, err := Bech32Encode("utest", data)
	require.NoError(t, err)
	_, _, err = Bech32mDecode(b32)
	assert.Error(t, err)

	b32m, err := Bech32mEncode("utest", data)
	require.NoError(t, err)
	_, _, err = Bech32Decode(b32m)
	assert.Error(t, err)
}

func TestBech32Decode_InvalidChecksum(t *testing.T) {
	encoded, err := Bech32mEncode("u", make([]byte, 20))
	require.NoError(t, err)

	// Flip the last character.
	last := encoded[len(encoded)-1]
	repl := byte('q')
	if last == 'q' {
		repl = 'p'
	}
	corrupted := encoded[:len(encoded)-1] + string(repl)
	_, _, err = Bech32mDecode(corrupted)
	assert.ErrorContains(t, err, "checksum")
}

func TestBech32Decode_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"no separator", "qqqqqqqqqq"},
		{"separator first", "1qqqqqqqq"},
		{"too short", "a1qqqq"},
		{"mixed case", "A1lqfn3a"},
		{"invalid char", "a1bqfn3a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Bech32mDecode(tt.input)
			assert.Error(t, err)
		})
	}
}

func TestBech32Encode_InvalidHRP(t *testing.T) {
	_, err := Bech32mEncode("", []byte{1})
	assert.Error(t, err)
	_, err = Bech32mEncode("a b", []byte{1})
	assert.Error(t, err)
}

func TestBech32m_LongPayload(t *testing.T) {
	// Unified addresses exceed the 90 character BIP-173 limit.
	data := bytes.Repeat([]byte{0xa5}, 200)
	encoded, err := Bech32mEncode("u", data)
	require.NoError(t, err)
	assert.Greater(t, len(encoded), 90)
	_, decoded, err := Bech32mDecode(encoded)
	require.NoError(t, err)
	assert.Equal(t, data, decoded)
}
