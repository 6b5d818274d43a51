package weavetest

import (
	weave "github.com/iov-one/grantd"
	"github.com/iov-one/grantd/crypto"
)

// NewKey returns a freshly generated private key.
func NewKey() *crypto.PrivateKey {
	return crypto.GenPrivKeyEd25519()
}

// NewCondition returns a signature condition of a random key.
func NewCondition() weave.Condition {
	return NewKey().PublicKey().Condition()
}

// SequenceID returns an ID encoded as a sequence value would be.
func SequenceID(n uint64) []byte {
	b := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		b[i] = byte(n)
		n >>= 8
	}
	return b
}
