package keys

import "github.com/zecrocks/zallet-go/pkg/crypto"

func hash160(pub []byte) []byte {
	h := crypto.Hash160(pub)
	return h[:]
}
