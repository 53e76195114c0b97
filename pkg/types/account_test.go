package types

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountID_ParseAndJSON(t *testing.T) {
	id := NewAccountID()
	back, err := ParseAccountID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, back)

	data, err := json.Marshal(id)
	require.NoError(t, err)
	assert.Equal(t, `"`+id.String()+`"`, string(data))

	var decoded AccountID
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, id, decoded)

	_, err = ParseAccountID("not-a-uuid")
	assert.Error(t, err)
}

func TestSeedFingerprint(t *testing.T) {
	var fp SeedFingerprint
	assert.True(t, fp.IsZero())
	fp[0] = 0xab
	assert.False(t, fp.IsZero())

	parsed, err := ParseSeedFingerprint(fp.String())
	require.NoError(t, err)
	assert.Equal(t, fp, parsed)

	data, err := json.Marshal(fp)
	require.NoError(t, err)
	var back SeedFingerprint
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, fp, back)

	_, err = ParseSeedFingerprint(strings.Repeat("ab", 31))
	assert.Error(t, err)
	_, err = ParseSeedFingerprint("zz")
	assert.Error(t, err)
}

func TestParamsForNetwork(t *testing.T) {
	p, err := ParamsForNetwork("main")
	require.NoError(t, err)
	assert.Equal(t, uint32(133), p.CoinType)
	p, err = ParamsForNetwork("testnet")
	require.NoError(t, err)
	assert.Equal(t, "utest", p.UnifiedHRP)
	_, err = ParamsForNetwork("signet")
	assert.Error(t, err)
}
