package rpc

import (
	"encoding/json"
	"fmt"

	"github.com/zecrocks/zallet-go/internal/wallet"
	"github.com/zecrocks/zallet-go/internal/walletdb"
	"github.com/zecrocks/zallet-go/pkg/types"
)

// walletVersion is reported by getwalletinfo.
const walletVersion = 1

// methods returns the closed set of supported methods.
func methods() map[string]handlerFunc {
	return map[string]handlerFunc{
		"getwalletinfo":          (*Server).handleGetWalletInfo,
		"z_getnewaccount":        (*Server).handleGetNewAccount,
		"z_recoveraccounts":      (*Server).handleRecoverAccounts,
		"z_listaccounts":         (*Server).handleListAccounts,
		"z_getaddressforaccount": (*Server).handleGetAddressForAccount,
		"listaddresses":          (*Server).handleListAddresses,
		"z_listunifiedreceivers": (*Server).handleListUnifiedReceivers,
		"z_listoperationids":     (*Server).handleListOperationIDs,
		"z_getoperationstatus":   (*Server).handleGetOperationStatus,
		"z_getoperationresult":   (*Server).handleGetOperationResult,
		"z_canceloperation":      (*Server).handleCancelOperation,
	}
}

func (s *Server) handleGetWalletInfo(params json.RawMessage) (interface{}, *Error) {
	if _, rerr := bindParams(params); rerr != nil {
		return nil, rerr
	}
	info, err := s.wallet.Info()
	if err != nil {
		return nil, toRPCError(err)
	}
	res := &WalletInfoResult{
		WalletVersion: walletVersion,
		Seeds:         info.Seeds,
		Accounts:      info.Accounts,
		Operations:    s.ops.Len(),
	}
	if s.keystore != nil {
		res.Unlocked = s.keystore.IsUnlocked()
	}
	return res, nil
}

func (s *Server) handleGetNewAccount(params json.RawMessage) (interface{}, *Error) {
	p, rerr := bindParams(params, "account_name", "seedfp")
	if rerr != nil {
		return nil, rerr
	}
	if rerr := requireParam(p[0], "account_name"); rerr != nil {
		return nil, rerr
	}
	name, rerr := parseString(p[0], "account_name")
	if rerr != nil {
		return nil, rerr
	}
	fp, rerr := parseSeedFingerprint(p[1])
	if rerr != nil {
		return nil, rerr
	}

	acct, err := s.wallet.CreateAccount(name, fp)
	if err != nil {
		return nil, toRPCError(err)
	}
	idx, _ := acct.LegacyIndex()
	return &NewAccountResult{AccountUUID: acct.ID.String(), Account: idx}, nil
}

type recoverRequest struct {
	Name              string          `json:"name"`
	SeedFingerprint   string          `json:"seedfp"`
	ZIP32AccountIndex json.RawMessage `json:"zip32_account_index"`
}

type recoverTarget struct {
	name  string
	fp    types.SeedFingerprint
	index uint32
}

func (s *Server) handleRecoverAccounts(params json.RawMessage) (interface{}, *Error) {
	p, rerr := bindParams(params, "accounts")
	if rerr != nil {
		return nil, rerr
	}
	if rerr := requireParam(p[0], "accounts"); rerr != nil {
		return nil, rerr
	}
	var reqs []recoverRequest
	if err := json.Unmarshal(p[0], &reqs); err != nil {
		return nil, invalidParams("accounts must be an array of {name, seedfp, zip32_account_index}")
	}

	targets := make([]recoverTarget, 0, len(reqs))
	for i, r := range reqs {
		fp, err := types.ParseSeedFingerprint(r.SeedFingerprint)
		if err != nil {
			return nil, invalidParameter(fmt.Sprintf("accounts[%d]: Invalid seed fingerprint", i))
		}
		var index uint64
		if err := json.Unmarshal(r.ZIP32AccountIndex, &index); err != nil {
			return nil, invalidParams(fmt.Sprintf("accounts[%d]: zip32_account_index must be a non-negative integer", i))
		}
		if index > wallet.MaxLegacyAccount {
			return nil, invalidParameter("Invalid zip32_account_index, must be 0 <= index <= (2^31)-2.")
		}
		targets = append(targets, recoverTarget{name: r.Name, fp: fp, index: uint32(index)})
	}

	id, err := s.ops.Submit("z_recoveraccounts", reqs, s.recoverJob(targets))
	if err != nil {
		return nil, toRPCError(err)
	}
	return string(id), nil
}

func (s *Server) handleListAccounts(params json.RawMessage) (interface{}, *Error) {
	if _, rerr := bindParams(params); rerr != nil {
		return nil, rerr
	}
	accts, err := s.wallet.Accounts()
	if err != nil {
		return nil, toRPCError(err)
	}
	out := make([]AccountResult, 0, len(accts))
	for _, a := range accts {
		res := AccountResult{
			AccountUUID: a.Account.ID.String(),
			Name:        a.Account.Name,
			Addresses:   make([]AccountAddress, 0, len(a.Addresses)),
		}
		if d := a.Account.Derivation; d != nil {
			fp, idx := d.SeedFingerprint, d.AccountIndex
			res.SeedFingerprint = &fp
			res.Account = &idx
		}
		for _, rec := range a.Addresses {
			res.Addresses = append(res.Addresses, AccountAddress{DiversifierIndex: rec.Index, UA: rec.Address})
		}
		out = append(out, res)
	}
	return out, nil
}

func (s *Server) handleGetAddressForAccount(params json.RawMessage) (interface{}, *Error) {
	p, rerr := bindParams(params, "account", "receiver_types", "diversifier_index")
	if rerr != nil {
		return nil, rerr
	}
	if rerr := requireParam(p[0], "account"); rerr != nil {
		return nil, rerr
	}
	// Shape and range errors take precedence over wallet state.
	receivers, rerr := parseReceiverTypes(p[1])
	if rerr != nil {
		return nil, rerr
	}
	index, rerr := parseDiversifierIndex(p[2])
	if rerr != nil {
		return nil, rerr
	}
	ref := wallet.AccountRefFromJSON(p[0])
	id, err := s.wallet.Resolve(ref)
	if err != nil {
		return nil, toRPCError(err)
	}

	rec, err := s.wallet.DeriveAddress(id, receivers, index)
	if err != nil {
		return nil, toRPCError(err)
	}
	res := &AddressForAccountResult{
		AccountUUID:      rec.AccountID.String(),
		DiversifierIndex: rec.Index,
		ReceiverTypes:    rec.Receivers,
		Address:          rec.Address,
	}
	if n, ok := ref.Number(); ok {
		res.Account = &n
	}
	return res, nil
}

func (s *Server) handleListAddresses(params json.RawMessage) (interface{}, *Error) {
	if _, rerr := bindParams(params); rerr != nil {
		return nil, rerr
	}
	accts, err := s.wallet.Accounts()
	if err != nil {
		return nil, toRPCError(err)
	}

	var (
		sources  []*AddressSource
		bySeed   = make(map[types.SeedFingerprint]*AddressSource)
		imported *AddressSource
	)
	for _, a := range accts {
		var src *AddressSource
		if d := a.Account.Derivation; d != nil {
			src = bySeed[d.SeedFingerprint]
			if src == nil {
				fp := d.SeedFingerprint
				src = &AddressSource{Source: "mnemonic_seed", SeedFingerprint: &fp}
				bySeed[fp] = src
				sources = append(sources, src)
			}
		} else {
			if imported == nil {
				imported = &AddressSource{Source: "imported"}
				sources = append(sources, imported)
			}
			src = imported
		}
		src.Unified = append(src.Unified, unifiedAddrs(a))
	}

	out := make([]AddressSource, len(sources))
	for i, src := range sources {
		out[i] = *src
	}
	return out, nil
}

func unifiedAddrs(a wallet.AccountWithAddresses) UnifiedAccountAddrs {
	u := UnifiedAccountAddrs{
		AccountUUID: a.Account.ID.String(),
		Addresses:   make([]UnifiedEntry, 0, len(a.Addresses)),
	}
	if idx, ok := a.Account.LegacyIndex(); ok {
		u.Account = &idx
	}
	for _, rec := range a.Addresses {
		u.Addresses = append(u.Addresses, unifiedEntry(rec))
	}
	return u
}

func unifiedEntry(rec *walletdb.AddressRecord) UnifiedEntry {
	return UnifiedEntry{
		Address:          rec.Address,
		DiversifierIndex: rec.Index,
		ReceiverTypes:    rec.Receivers,
	}
}

func (s *Server) handleListUnifiedReceivers(params json.RawMessage) (interface{}, *Error) {
	p, rerr := bindParams(params, "unified_address")
	if rerr != nil {
		return nil, rerr
	}
	if rerr := requireParam(p[0], "unified_address"); rerr != nil {
		return nil, rerr
	}
	addr, rerr := parseString(p[0], "unified_address")
	if rerr != nil {
		return nil, rerr
	}

	netParams := s.wallet.Params()
	ua, err := types.DecodeUnifiedAddress(addr, netParams)
	if err != nil {
		return nil, invalidParameter("Invalid address")
	}

	res := &UnifiedReceiversResult{}
	for _, r := range ua.Receivers {
		var (
			enc string
			err error
		)
		switch r.Type {
		case types.ReceiverP2PKH:
			enc, err = types.EncodeP2PKH(r.Data, netParams)
			res.P2PKH = enc
		case types.ReceiverP2SH:
			enc, err = types.EncodeP2SH(r.Data, netParams)
			res.P2SH = enc
		case types.ReceiverSapling:
			enc, err = types.EncodeSapling(r.Data, netParams)
			res.Sapling = enc
		case types.ReceiverOrchard:
			enc, err = types.EncodeOrchard(r.Data, netParams)
			res.Orchard = enc
		}
		if err != nil {
			return nil, &Error{Code: CodeInternalError, Message: err.Error()}
		}
	}
	return res, nil
}
