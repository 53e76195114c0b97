package rpcclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zecrocks/zallet-go/config"
	"github.com/zecrocks/zallet-go/internal/asyncop"
	"github.com/zecrocks/zallet-go/internal/keystore"
	klog "github.com/zecrocks/zallet-go/internal/log"
	"github.com/zecrocks/zallet-go/internal/rpc"
	"github.com/zecrocks/zallet-go/internal/storage"
	"github.com/zecrocks/zallet-go/internal/wallet"
	"github.com/zecrocks/zallet-go/internal/walletdb"
	"github.com/zecrocks/zallet-go/pkg/types"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func setupClient(t *testing.T) *Client {
	t.Helper()
	klog.Init("error", false, "")

	db := storage.NewMemory()
	ks := keystore.New(storage.NewPrefixDB(db, []byte("ks/")), keystore.FastParams())
	require.NoError(t, ks.Initialize([]byte("pw")))
	_, err := ks.AddMnemonic(testMnemonic, []byte("pw"))
	require.NoError(t, err)
	require.NoError(t, ks.Unlock([]byte("pw")))

	w := wallet.New(walletdb.New(storage.NewPrefixDB(db, []byte("wdb/"))), ks, &types.MainNetParams)
	ops := asyncop.New(asyncop.Config{})

	srv, err := rpc.New(config.RPCConfig{Bind: []string{"127.0.0.1:0"}, Timeout: 5}, rpc.Deps{
		Wallet:     w,
		Operations: ops,
		Keystore:   ks,
	})
	require.NoError(t, err)
	require.NoError(t, srv.Start())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Stop(ctx)
		ops.Shutdown(ctx)
	})

	return New("http://" + srv.Addrs()[0] + "/")
}

func TestClient_GetWalletInfo(t *testing.T) {
	client := setupClient(t)

	var info rpc.WalletInfoResult
	require.NoError(t, client.Call("getwalletinfo", nil, &info))
	assert.Equal(t, 1, info.Seeds)
	assert.True(t, info.Unlocked)
}

func TestClient_AccountFlow(t *testing.T) {
	client := setupClient(t)

	var acct rpc.NewAccountResult
	require.NoError(t, client.Call("z_getnewaccount", ParseArgs([]string{"savings"}), &acct))

	var addr rpc.AddressForAccountResult
	require.NoError(t, client.Call("z_getaddressforaccount", ParseArgs([]string{acct.AccountUUID, `["orchard"]`, "3"}), &addr))
	assert.Equal(t, acct.AccountUUID, addr.AccountUUID)
	assert.Equal(t, "3", addr.DiversifierIndex.String())
}

func TestClient_RPCError(t *testing.T) {
	client := setupClient(t)

	err := client.Call("z_getaddressforaccount", []interface{}{2147483647}, nil)
	var rerr *RPCError
	require.True(t, errors.As(err, &rerr), "err = %v", err)
	assert.Equal(t, rpc.CodeInvalidParameter, rerr.Code)

	err = client.Call("no_such_method", nil, nil)
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, rpc.CodeMethodNotFound, rerr.Code)
}

func TestClient_BadResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer ts.Close()

	err := New(ts.URL).Call("getwalletinfo", nil, nil)
	require.Error(t, err)
	var rerr *RPCError
	assert.False(t, errors.As(err, &rerr))
}

func TestClient_Unreachable(t *testing.T) {
	client := NewWithTimeout("http://127.0.0.1:1/", time.Second)
	require.Error(t, client.Call("getwalletinfo", nil, nil))
}

func TestParseArgs(t *testing.T) {
	params := ParseArgs([]string{"0", `["orchard","sapling"]`, "6f1b4e2a-5d8c-4f0e-9b3a-2c7d1e8f4a6b", "queued", "null"})
	data, err := json.Marshal(params)
	require.NoError(t, err)
	assert.JSONEq(t, `[0, ["orchard","sapling"], "6f1b4e2a-5d8c-4f0e-9b3a-2c7d1e8f4a6b", "queued", null]`, string(data))
}
