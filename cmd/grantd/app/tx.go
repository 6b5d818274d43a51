package grantd

import (
	"github.com/gogo/protobuf/proto"
	weave "github.com/iov-one/grantd"
	"github.com/iov-one/grantd/errors"
	"github.com/iov-one/grantd/x/cash"
	"github.com/iov-one/grantd/x/grant"
	"github.com/iov-one/grantd/x/sigs"
)

// Tx is the transaction accepted by the grantd application. Exactly one of
// the message fields must be set.
type Tx struct {
	Signatures []*sigs.StdSignature `protobuf:"bytes,1,rep,name=signatures" json:"signatures,omitempty"`

	SendMsg              *cash.SendMsg               `protobuf:"bytes,51,opt,name=send_msg" json:"send_msg,omitempty"`
	CreateProposalMsg    *grant.CreateProposalMsg    `protobuf:"bytes,52,opt,name=create_proposal_msg" json:"create_proposal_msg,omitempty"`
	UpvoteProposalMsg    *grant.UpvoteProposalMsg    `protobuf:"bytes,53,opt,name=upvote_proposal_msg" json:"upvote_proposal_msg,omitempty"`
	DownvoteProposalMsg  *grant.DownvoteProposalMsg  `protobuf:"bytes,54,opt,name=downvote_proposal_msg" json:"downvote_proposal_msg,omitempty"`
	FundProjectMsg       *grant.FundProjectMsg       `protobuf:"bytes,55,opt,name=fund_project_msg" json:"fund_project_msg,omitempty"`
	CreateProjectPoolMsg *grant.CreateProjectPoolMsg `protobuf:"bytes,56,opt,name=create_project_pool_msg" json:"create_project_pool_msg,omitempty"`
	FundProjectPoolMsg   *grant.FundProjectPoolMsg   `protobuf:"bytes,57,opt,name=fund_project_pool_msg" json:"fund_project_pool_msg,omitempty"`
	WithdrawFundsMsg     *grant.WithdrawFundsMsg     `protobuf:"bytes,58,opt,name=withdraw_funds_msg" json:"withdraw_funds_msg,omitempty"`
}

func (m *Tx) Reset()         { *m = Tx{} }
func (m *Tx) String() string { return proto.CompactTextString(m) }
func (*Tx) ProtoMessage()    {}

// make sure tx fulfills all interfaces
var _ weave.Tx = (*Tx)(nil)
var _ sigs.SignedTx = (*Tx)(nil)

// TxDecoder creates a Tx and unmarshals bytes into it
func TxDecoder(bz []byte) (weave.Tx, error) {
	tx := new(Tx)
	if err := proto.Unmarshal(bz, tx); err != nil {
		return nil, errors.Wrap(errors.ErrInput, err.Error())
	}
	return tx, nil
}

// GetMsg returns the single message carried by the transaction.
func (tx *Tx) GetMsg() (weave.Msg, error) {
	var found []weave.Msg
	if tx.SendMsg != nil {
		found = append(found, tx.SendMsg)
	}
	if tx.CreateProposalMsg != nil {
		found = append(found, tx.CreateProposalMsg)
	}
	if tx.UpvoteProposalMsg != nil {
		found = append(found, tx.UpvoteProposalMsg)
	}
	if tx.DownvoteProposalMsg != nil {
		found = append(found, tx.DownvoteProposalMsg)
	}
	if tx.FundProjectMsg != nil {
		found = append(found, tx.FundProjectMsg)
	}
	if tx.CreateProjectPoolMsg != nil {
		found = append(found, tx.CreateProjectPoolMsg)
	}
	if tx.FundProjectPoolMsg != nil {
		found = append(found, tx.FundProjectPoolMsg)
	}
	if tx.WithdrawFundsMsg != nil {
		found = append(found, tx.WithdrawFundsMsg)
	}
	switch len(found) {
	case 0:
		return nil, errors.Wrap(errors.ErrInput, "no message")
	case 1:
		return found[0], nil
	default:
		return nil, errors.Wrapf(errors.ErrInput, "%d messages", len(found))
	}
}

// GetSignatures returns all signatures attached to the transaction.
func (tx *Tx) GetSignatures() []*sigs.StdSignature {
	return tx.Signatures
}

// GetSignBytes returns the bytes to sign...
func (tx *Tx) GetSignBytes() ([]byte, error) {
	// temporarily unset the signatures, as the sign bytes
	// should only come from the data itself, not previous signatures
	sigs := tx.Signatures
	tx.Signatures = nil

	bz, err := proto.Marshal(tx)

	// reset the signatures after calculating the bytes
	tx.Signatures = sigs
	return bz, err
}

// WithMsg returns a new unsigned transaction carrying given message.
func WithMsg(msg weave.Msg) (*Tx, error) {
	tx := new(Tx)
	switch m := msg.(type) {
	case *cash.SendMsg:
		tx.SendMsg = m
	case *grant.CreateProposalMsg:
		tx.CreateProposalMsg = m
	case *grant.UpvoteProposalMsg:
		tx.UpvoteProposalMsg = m
	case *grant.DownvoteProposalMsg:
		tx.DownvoteProposalMsg = m
	case *grant.FundProjectMsg:
		tx.FundProjectMsg = m
	case *grant.CreateProjectPoolMsg:
		tx.CreateProjectPoolMsg = m
	case *grant.FundProjectPoolMsg:
		tx.FundProjectPoolMsg = m
	case *grant.WithdrawFundsMsg:
		tx.WithdrawFundsMsg = m
	default:
		return nil, errors.Wrapf(errors.ErrType, "unsupported message %T", msg)
	}
	return tx, nil
}
