package types

import "fmt"

// EncodeSapling returns the Bech32 Sapling payment address for a 43-byte
// receiver.
func EncodeSapling(receiver []byte, params *NetworkParams) (string, error) {
	if len(receiver) != ReceiverSapling.ReceiverSize() {
		return "", fmt.Errorf("sapling receiver must be %d bytes, got %d", ReceiverSapling.ReceiverSize(), len(receiver))
	}
	return Bech32Encode(params.SaplingHRP, receiver)
}

// EncodeOrchard returns a unified address holding only the given Orchard
// receiver, the standalone form of an Orchard address.
func EncodeOrchard(receiver []byte, params *NetworkParams) (string, error) {
	ua := &UnifiedAddress{Receivers: []Receiver{{Type: ReceiverOrchard, Data: receiver}}}
	return ua.Encode(params)
}
