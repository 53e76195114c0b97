package log

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetOutput_ComponentField(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, "debug")
	t.Cleanup(func() { SetOutput(os.Stdout, "info") })

	Wallet.Info().Str("account", "x").Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "wallet", entry["component"])
	assert.Equal(t, "hello", entry["message"])
	assert.Equal(t, "x", entry["account"])
}

func TestParseLevel(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, "warn")
	t.Cleanup(func() { SetOutput(os.Stdout, "info") })

	RPC.Info().Msg("dropped")
	assert.Zero(t, buf.Len())
	RPC.Warn().Msg("kept")
	assert.NotZero(t, buf.Len())

	assert.True(t, ValidLevel("trace"))
	assert.False(t, ValidLevel("verbose"))
}

func TestInit_File(t *testing.T) {
	file := filepath.Join(t.TempDir(), "logs", "zallet.log")
	require.NoError(t, Init("info", true, file))
	t.Cleanup(func() { SetOutput(os.Stdout, "info") })

	Daemon.Info().Msg("to file")
	require.NoError(t, Close())

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
}
