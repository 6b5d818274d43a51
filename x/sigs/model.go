package sigs

import (
	"github.com/gogo/protobuf/proto"
	weave "github.com/iov-one/grantd"
	"github.com/iov-one/grantd/crypto"
	"github.com/iov-one/grantd/errors"
	"github.com/iov-one/grantd/orm"
)

// BucketName is where we store the accounts
const BucketName = "sigs"

// UserData just stores the current sequence of a signer and its public
// key, so the nonce can be checked and replays rejected.
type UserData struct {
	Metadata *weave.Metadata   `protobuf:"bytes,1,opt,name=metadata" json:"metadata,omitempty"`
	Pubkey   *crypto.PublicKey `protobuf:"bytes,2,opt,name=pubkey" json:"pubkey,omitempty"`
	Sequence int64             `protobuf:"varint,3,opt,name=sequence,proto3" json:"sequence,omitempty"`
}

func (m *UserData) Reset()         { *m = UserData{} }
func (m *UserData) String() string { return proto.CompactTextString(m) }
func (*UserData) ProtoMessage()    {}

var _ orm.Model = (*UserData)(nil)

func (u *UserData) Validate() error {
	if err := u.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if seq := u.Sequence; seq < 0 {
		return errors.Wrap(ErrInvalidSequence, "negative")
	} else if seq > 0 && u.Pubkey == nil {
		return errors.Wrap(ErrInvalidSequence, "needs Pubkey")
	}
	return nil
}

// CheckAndIncrementSequence implements check and increment operation.
// If current sequence value is the same as given expected value then it is
// incremented. Otherwise an error is returned.
// Before incrementing the sequence, this function is testing for a value
// overflow.
func (u *UserData) CheckAndIncrementSequence(expected int64) error {
	if u.Sequence != expected {
		return errors.Wrapf(ErrInvalidSequence, "mismatch expected %d, got %d", expected, u.Sequence)
	}

	next := u.Sequence + 1

	// Clients encode the nonce as a javascript number, so the greatest
	// supported value is 2^53 - 1.
	const maxSequenceValue = (1 << 53) - 1
	if next <= 0 || next > maxSequenceValue {
		return errors.Wrap(errors.ErrOverflow, "sequence out of range")
	}
	u.Sequence = next
	return nil
}

// StdSignature represents the signature, the identity of the signer
// (the Pubkey), and a sequence number to prevent replay attacks.
type StdSignature struct {
	Sequence  int64             `protobuf:"varint,1,opt,name=sequence,proto3" json:"sequence,omitempty"`
	Pubkey    *crypto.PublicKey `protobuf:"bytes,2,opt,name=pubkey" json:"pubkey,omitempty"`
	Signature *crypto.Signature `protobuf:"bytes,4,opt,name=signature" json:"signature,omitempty"`
}

func (m *StdSignature) Reset()         { *m = StdSignature{} }
func (m *StdSignature) String() string { return proto.CompactTextString(m) }
func (*StdSignature) ProtoMessage()    {}

// Validate ensures the StdSignature meets basic standards
func (s *StdSignature) Validate() error {
	if s.Sequence < 0 {
		return errors.Wrap(ErrInvalidSequence, "negative")
	}
	if len(s.Pubkey.GetEd25519()) == 0 {
		return errors.Wrap(errors.ErrUnauthorized, "missing public key")
	}
	if len(s.Signature.GetEd25519()) == 0 {
		return errors.Wrap(errors.ErrUnauthorized, "missing signature")
	}
	return nil
}

// SignedTx represents a transaction that contains signatures,
// which can be verified by the sigs.Decorator
type SignedTx interface {
	// GetSignBytes returns the canonical byte representation of the Msg.
	// Equivalent to proto.Marshal(tx) with the signatures removed.
	GetSignBytes() ([]byte, error)

	// Signatures returns the signature of signers who signed the Msg.
	GetSignatures() []*StdSignature
}

// Bucket stores UserData indexed by the signer address.
type Bucket struct {
	orm.ModelBucket
}

// NewBucket creates the proper bucket for this extension
func NewBucket() Bucket {
	return Bucket{ModelBucket: orm.NewModelBucket(BucketName)}
}

// GetOrCreate loads the UserData of given key or initializes a new one with
// the sequence set to zero.
func (b Bucket) GetOrCreate(db weave.ReadOnlyKVStore, pubkey *crypto.PublicKey) (*UserData, error) {
	var user UserData
	switch err := b.One(db, pubkey.Address(), &user); {
	case err == nil:
		return &user, nil
	case errors.ErrNotFound.Is(err):
		return &UserData{
			Metadata: &weave.Metadata{Schema: 1},
			Pubkey:   pubkey,
		}, nil
	default:
		return nil, err
	}
}

// NextNonce returns the next numeric nonce value that should be used during a
// transaction signing.
// If not yet present, nonce counting starts with zero.
func NextNonce(db weave.ReadOnlyKVStore, signer weave.Address) (int64, error) {
	var user UserData
	switch err := NewBucket().One(db, signer, &user); {
	case err == nil:
		return user.Sequence, nil
	case errors.ErrNotFound.Is(err):
		return 0, nil
	default:
		return 0, errors.Wrap(err, "bucket get")
	}
}

// RegisterQuery will register this bucket as "/auth"
func RegisterQuery(qr weave.QueryRouter) {
	orm.Register(BucketName, "auth", qr)
}
