package rpc

import (
	"encoding/json"

	"github.com/zecrocks/zallet-go/pkg/types"
)

// JSON-RPC 2.0 error codes, plus the legacy wallet codes carried over from
// zcashd.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603

	CodeMiscError        = -1
	CodeWalletError      = -4
	CodeInvalidParameter = -8
	CodeDatabaseError    = -20
)

// Request is a JSON-RPC request. Params stay raw so large integers survive
// decoding exactly.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      interface{}     `json:"id"`
}

// Response is a JSON-RPC response.
type Response struct {
	JSONRPC string      `json:"jsonrpc"`
	Result  interface{} `json:"result,omitempty"`
	Error   *Error      `json:"error,omitempty"`
	ID      interface{} `json:"id"`
}

// Error is a JSON-RPC error object.
type Error struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return e.Message
}

// ── Results ─────────────────────────────────────────────────────────────

// WalletInfoResult is returned by getwalletinfo.
type WalletInfoResult struct {
	WalletVersion int  `json:"walletversion"`
	Seeds         int  `json:"seeds"`
	Accounts      int  `json:"accounts"`
	Operations    int  `json:"operations"`
	Unlocked      bool `json:"unlocked"`
}

// NewAccountResult is returned by z_getnewaccount.
type NewAccountResult struct {
	AccountUUID string `json:"account_uuid"`
	Account     uint32 `json:"account"`
}

// RecoveredAccount is one entry of a z_recoveraccounts operation result.
type RecoveredAccount struct {
	AccountUUID       string                `json:"account_uuid"`
	SeedFingerprint   types.SeedFingerprint `json:"seedfp"`
	ZIP32AccountIndex uint32                `json:"zip32_account_index"`
}

// AccountAddress is one derived address in z_listaccounts.
type AccountAddress struct {
	DiversifierIndex types.DiversifierIndex `json:"diversifier_index"`
	UA               string                 `json:"ua"`
}

// AccountResult is one entry of z_listaccounts.
type AccountResult struct {
	AccountUUID     string                 `json:"account_uuid"`
	Name            string                 `json:"name"`
	SeedFingerprint *types.SeedFingerprint `json:"seedfp,omitempty"`
	Account         *uint32                `json:"account,omitempty"`
	Addresses       []AccountAddress       `json:"addresses"`
}

// AddressForAccountResult is returned by z_getaddressforaccount.
type AddressForAccountResult struct {
	AccountUUID      string                 `json:"account_uuid"`
	Account          *uint64                `json:"account,omitempty"`
	DiversifierIndex types.DiversifierIndex `json:"diversifier_index"`
	ReceiverTypes    types.ReceiverSet      `json:"receiver_types"`
	Address          string                 `json:"address"`
}

// AddressSource groups addresses by origin in listaddresses.
type AddressSource struct {
	Source          string                 `json:"source"`
	SeedFingerprint *types.SeedFingerprint `json:"seedfp,omitempty"`
	Unified         []UnifiedAccountAddrs  `json:"unified"`
}

// UnifiedAccountAddrs lists one account's unified addresses.
type UnifiedAccountAddrs struct {
	AccountUUID string         `json:"account_uuid"`
	Account     *uint32        `json:"account,omitempty"`
	Addresses   []UnifiedEntry `json:"addresses"`
}

// UnifiedEntry is one unified address in listaddresses.
type UnifiedEntry struct {
	Address          string                 `json:"address"`
	DiversifierIndex types.DiversifierIndex `json:"diversifier_index"`
	ReceiverTypes    types.ReceiverSet      `json:"receiver_types"`
}

// UnifiedReceiversResult is returned by z_listunifiedreceivers.
type UnifiedReceiversResult struct {
	P2PKH   string `json:"p2pkh,omitempty"`
	P2SH    string `json:"p2sh,omitempty"`
	Sapling string `json:"sapling,omitempty"`
	Orchard string `json:"orchard,omitempty"`
}

// OperationStatus describes an async operation.
type OperationStatus struct {
	ID            string      `json:"id"`
	Status        string      `json:"status"`
	CreationTime  int64       `json:"creation_time"`
	Method        string      `json:"method"`
	Params        interface{} `json:"params,omitempty"`
	Result        interface{} `json:"result,omitempty"`
	Error         *Error      `json:"error,omitempty"`
	ExecutionSecs *float64    `json:"execution_secs,omitempty"`
}

// CancelResult is returned by z_canceloperation.
type CancelResult struct {
	OperationID string `json:"operationid"`
	Status      string `json:"status"`
}
