package keys

import (
	"errors"
	"fmt"

	"github.com/zecrocks/zallet-go/pkg/crypto"
	"github.com/zecrocks/zallet-go/pkg/types"
)

// Address derivation errors.
var (
	ErrUnsupportedReceiver = errors.New("account has no key material for receiver type")
	ErrTransparentIndex    = errors.New("diversifier index is out of range for a transparent receiver")
)

// Engine derives unified addresses from stored account key material.
type Engine struct {
	params *types.NetworkParams
}

// NewEngine returns an engine for the given network.
func NewEngine(params *types.NetworkParams) *Engine {
	return &Engine{params: params}
}

// Params returns the network parameters addresses are encoded for.
func (e *Engine) Params() *types.NetworkParams {
	return e.params
}

// SupportedReceiverTypes returns the receiver types derivable from k.
func (e *Engine) SupportedReceiverTypes(k *AccountKeys) types.ReceiverSet {
	return k.Supported()
}

// DeriveAddress returns the encoded unified address at idx containing exactly
// the receivers in set. The result is a pure function of its inputs.
func (e *Engine) DeriveAddress(k *AccountKeys, idx types.DiversifierIndex, set types.ReceiverSet) (string, error) {
	ua, err := e.DeriveUnified(k, idx, set)
	if err != nil {
		return "", err
	}
	return ua.Encode(e.params)
}

// DeriveUnified is DeriveAddress without the final encoding step.
func (e *Engine) DeriveUnified(k *AccountKeys, idx types.DiversifierIndex, set types.ReceiverSet) (*types.UnifiedAddress, error) {
	supported := k.Supported()
	ua := &types.UnifiedAddress{}
	for _, rt := range set.Types() {
		if !supported.Has(rt) {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedReceiver, rt)
		}
		var data []byte
		var err error
		switch rt {
		case types.ReceiverP2PKH:
			data, err = transparentReceiver(k.Transparent, idx)
		case types.ReceiverSapling:
			data, err = shieldedReceiver(k.Sapling, idx)
		case types.ReceiverOrchard:
			data, err = shieldedReceiver(k.Orchard, idx)
		default:
			err = fmt.Errorf("%w: %s", ErrUnsupportedReceiver, rt)
		}
		if err != nil {
			return nil, err
		}
		ua.Receivers = append(ua.Receivers, types.Receiver{Type: rt, Data: data})
	}
	return ua, nil
}

// transparentReceiver returns HASH160 of the external child public key at idx.
func transparentReceiver(xpub string, idx types.DiversifierIndex) ([]byte, error) {
	child, ok := idx.TransparentChild()
	if !ok {
		return nil, ErrTransparentIndex
	}
	acct, err := ParseExtendedKey(xpub)
	if err != nil {
		return nil, err
	}
	key, err := acct.DerivePath(ChangeExternal, child)
	if err != nil {
		return nil, fmt.Errorf("derive transparent child: %w", err)
	}
	pub, err := crypto.CompressPubKey(key.PublicKeyBytes())
	if err != nil {
		return nil, err
	}
	h := crypto.Hash160(pub)
	return h[:], nil
}

// shieldedReceiver returns the 43-byte receiver d || pk_d for idx, where d is
// the diversifier keyed by dk and pk_d is the transmission key keyed by ivk.
func shieldedReceiver(material []byte, idx types.DiversifierIndex) ([]byte, error) {
	if len(material) != ShieldedKeySize {
		return nil, fmt.Errorf("shielded key material must be %d bytes, got %d", ShieldedKeySize, len(material))
	}
	dk, ivk := material[:32], material[32:]
	dHash, err := crypto.KeyedHash(dk, idx[:])
	if err != nil {
		return nil, err
	}
	d := dHash[:types.DiversifierIndexSize]
	pkd, err := crypto.KeyedHash(ivk, d)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, 43)
	out = append(out, d...)
	out = append(out, pkd[:]...)
	return out, nil
}
