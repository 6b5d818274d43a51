/*
Package crypto holds the ed25519 keys used to sign transactions.

Keys and signatures are protobuf messages so they can be embedded in a
transaction and stored next to the signer nonce.
*/
package crypto

import (
	"github.com/gogo/protobuf/proto"
	weave "github.com/iov-one/grantd"
	"golang.org/x/crypto/ed25519"
)

// ExtensionName is used for the conditions we get from signatures
const ExtensionName = "sigs"

// Signer is the functionality we use from a private key
// No serializing to support hardware devices as well.
type Signer interface {
	Sign(message []byte) (*Signature, error)
	PublicKey() *PublicKey
}

// PublicKey is an ed25519 public key.
type PublicKey struct {
	Ed25519 []byte `protobuf:"bytes,1,opt,name=ed25519,proto3" json:"ed25519,omitempty"`
}

func (m *PublicKey) Reset()         { *m = PublicKey{} }
func (m *PublicKey) String() string { return proto.CompactTextString(m) }
func (*PublicKey) ProtoMessage()    {}

// GetEd25519 returns the raw key bytes.
func (m *PublicKey) GetEd25519() []byte {
	if m == nil {
		return nil
	}
	return m.Ed25519
}

// Verify verifies the signature was created with this message and public key
func (m *PublicKey) Verify(message []byte, sig *Signature) bool {
	if len(m.GetEd25519()) != ed25519.PublicKeySize {
		return false
	}
	raw := sig.GetEd25519()
	if len(raw) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(m.Ed25519), message, raw)
}

// Condition encodes the public key into a weave condition. It returns nil
// for an empty key.
func (m *PublicKey) Condition() weave.Condition {
	if len(m.GetEd25519()) == 0 {
		return nil
	}
	return weave.NewCondition(ExtensionName, "ed25519", m.Ed25519)
}

// Address returns the address of the key condition, or nil for an empty
// key.
func (m *PublicKey) Address() weave.Address {
	c := m.Condition()
	if c == nil {
		return nil
	}
	return c.Address()
}

// PrivateKey is an ed25519 private key.
type PrivateKey struct {
	Ed25519 []byte `protobuf:"bytes,1,opt,name=ed25519,proto3" json:"ed25519,omitempty"`
}

func (m *PrivateKey) Reset()         { *m = PrivateKey{} }
func (m *PrivateKey) String() string { return "PrivateKey{...}" }
func (*PrivateKey) ProtoMessage()    {}

var _ Signer = (*PrivateKey)(nil)

// GetEd25519 returns the raw key bytes.
func (m *PrivateKey) GetEd25519() []byte {
	if m == nil {
		return nil
	}
	return m.Ed25519
}

// Sign returns a matching signature for this private key
func (m *PrivateKey) Sign(message []byte) (*Signature, error) {
	bz := ed25519.Sign(ed25519.PrivateKey(m.Ed25519), message)
	return &Signature{Ed25519: bz}, nil
}

// PublicKey returns the corresponding PublicKey
func (m *PrivateKey) PublicKey() *PublicKey {
	pub := ed25519.PrivateKey(m.Ed25519).Public().(ed25519.PublicKey)
	return &PublicKey{Ed25519: pub}
}

// Signature is an ed25519 signature.
type Signature struct {
	Ed25519 []byte `protobuf:"bytes,1,opt,name=ed25519,proto3" json:"ed25519,omitempty"`
}

func (m *Signature) Reset()         { *m = Signature{} }
func (m *Signature) String() string { return proto.CompactTextString(m) }
func (*Signature) ProtoMessage()    {}

// GetEd25519 returns the raw signature bytes.
func (m *Signature) GetEd25519() []byte {
	if m == nil {
		return nil
	}
	return m.Ed25519
}

// GenPrivKeyEd25519 returns a random new private key
func GenPrivKeyEd25519() *PrivateKey {
	_, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		panic(err)
	}
	return &PrivateKey{Ed25519: priv}
}

// PrivKeyEd25519FromSeed will deterministically generate a private key from
// a given seed. Use if you have a strong source of external randomness,
// or for deterministic keys in test cases.
func PrivKeyEd25519FromSeed(seed []byte) *PrivateKey {
	return &PrivateKey{Ed25519: ed25519.NewKeyFromSeed(seed)}
}
