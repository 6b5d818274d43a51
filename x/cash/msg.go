package cash

import (
	"github.com/gogo/protobuf/proto"
	weave "github.com/iov-one/grantd"
	"github.com/iov-one/grantd/coin"
	"github.com/iov-one/grantd/errors"
)

const (
	pathSendMsg = "cash/send"

	sendTxCost int64 = 100

	maxMemoSize int = 128
)

// SendMsg is a request to move these coins from the given
// source to the given destination address.
type SendMsg struct {
	Metadata    *weave.Metadata `protobuf:"bytes,1,opt,name=metadata" json:"metadata,omitempty"`
	Source      weave.Address   `protobuf:"bytes,2,opt,name=source,proto3" json:"source,omitempty"`
	Destination weave.Address   `protobuf:"bytes,3,opt,name=destination,proto3" json:"destination,omitempty"`
	Amount      *coin.Coin      `protobuf:"bytes,4,opt,name=amount" json:"amount,omitempty"`
	// max length 128 character
	Memo string `protobuf:"bytes,5,opt,name=memo,proto3" json:"memo,omitempty"`
}

func (m *SendMsg) Reset()         { *m = SendMsg{} }
func (m *SendMsg) String() string { return proto.CompactTextString(m) }
func (*SendMsg) ProtoMessage()    {}

// Ensure we implement the Msg interface
var _ weave.Msg = (*SendMsg)(nil)

// Path returns the routing path for this message
func (SendMsg) Path() string {
	return pathSendMsg
}

// Validate makes sure that this is sensible
func (s *SendMsg) Validate() error {
	if err := s.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if coin.IsEmpty(s.Amount) || !s.Amount.IsPositive() {
		return errors.Wrapf(errors.ErrAmount, "non-positive SendMsg: %v", s.Amount)
	}
	if err := s.Amount.Validate(); err != nil {
		return errors.Wrap(err, "amount")
	}
	if err := s.Source.Validate(); err != nil {
		return errors.Wrap(err, "source")
	}
	if err := s.Destination.Validate(); err != nil {
		return errors.Wrap(err, "destination")
	}
	if len(s.Memo) > maxMemoSize {
		return errors.Wrap(errors.ErrInput, "memo too long")
	}
	return nil
}
