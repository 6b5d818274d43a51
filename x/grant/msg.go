package grant

import (
	"github.com/gogo/protobuf/proto"
	weave "github.com/iov-one/grantd"
	"github.com/iov-one/grantd/coin"
	"github.com/iov-one/grantd/errors"
)

const (
	pathCreateProposalMsg    = "grant/create_proposal"
	pathUpvoteProposalMsg    = "grant/upvote_proposal"
	pathDownvoteProposalMsg  = "grant/downvote_proposal"
	pathFundProjectMsg       = "grant/fund_project"
	pathCreateProjectPoolMsg = "grant/create_project_pool"
	pathFundProjectPoolMsg   = "grant/fund_project_pool"
	pathWithdrawFundsMsg     = "grant/withdraw_funds"
)

var (
	_ weave.Msg = (*CreateProposalMsg)(nil)
	_ weave.Msg = (*UpvoteProposalMsg)(nil)
	_ weave.Msg = (*DownvoteProposalMsg)(nil)
	_ weave.Msg = (*FundProjectMsg)(nil)
	_ weave.Msg = (*CreateProjectPoolMsg)(nil)
	_ weave.Msg = (*FundProjectPoolMsg)(nil)
	_ weave.Msg = (*WithdrawFundsMsg)(nil)
)

// CreateProposalMsg registers a new funding request. The signer becomes the
// proposer.
type CreateProposalMsg struct {
	Metadata    *weave.Metadata `protobuf:"bytes,1,opt,name=metadata" json:"metadata,omitempty"`
	Name        string          `protobuf:"bytes,2,opt,name=name,proto3" json:"name,omitempty"`
	Project     string          `protobuf:"bytes,3,opt,name=project,proto3" json:"project,omitempty"`
	Description string          `protobuf:"bytes,4,opt,name=description,proto3" json:"description,omitempty"`
	FundingGoal *coin.Coin      `protobuf:"bytes,5,opt,name=funding_goal" json:"funding_goal,omitempty"`
}

func (m *CreateProposalMsg) Reset()         { *m = CreateProposalMsg{} }
func (m *CreateProposalMsg) String() string { return proto.CompactTextString(m) }
func (*CreateProposalMsg) ProtoMessage()    {}

func (CreateProposalMsg) Path() string {
	return pathCreateProposalMsg
}

func (m *CreateProposalMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := validateText(m.Name, m.Project, m.Description); err != nil {
		return err
	}
	if m.FundingGoal == nil {
		return errors.Wrap(errors.ErrInput, "missing funding goal")
	}
	if err := m.FundingGoal.Validate(); err != nil {
		return errors.Wrap(err, "funding goal")
	}
	if !m.FundingGoal.IsNonNegative() {
		return errors.Wrap(errors.ErrInput, "negative funding goal")
	}
	return nil
}

// UpvoteProposalMsg records an approval signal.
type UpvoteProposalMsg struct {
	Metadata   *weave.Metadata `protobuf:"bytes,1,opt,name=metadata" json:"metadata,omitempty"`
	ProposalID int64           `protobuf:"varint,2,opt,name=proposal_id,proto3" json:"proposal_id,omitempty"`
}

func (m *UpvoteProposalMsg) Reset()         { *m = UpvoteProposalMsg{} }
func (m *UpvoteProposalMsg) String() string { return proto.CompactTextString(m) }
func (*UpvoteProposalMsg) ProtoMessage()    {}

func (UpvoteProposalMsg) Path() string {
	return pathUpvoteProposalMsg
}

func (m *UpvoteProposalMsg) Validate() error {
	return validateRef(m.Metadata, m.ProposalID)
}

// DownvoteProposalMsg records a disapproval signal.
type DownvoteProposalMsg struct {
	Metadata   *weave.Metadata `protobuf:"bytes,1,opt,name=metadata" json:"metadata,omitempty"`
	ProposalID int64           `protobuf:"varint,2,opt,name=proposal_id,proto3" json:"proposal_id,omitempty"`
}

func (m *DownvoteProposalMsg) Reset()         { *m = DownvoteProposalMsg{} }
func (m *DownvoteProposalMsg) String() string { return proto.CompactTextString(m) }
func (*DownvoteProposalMsg) ProtoMessage()    {}

func (DownvoteProposalMsg) Path() string {
	return pathDownvoteProposalMsg
}

func (m *DownvoteProposalMsg) Validate() error {
	return validateRef(m.Metadata, m.ProposalID)
}

// FundProjectMsg moves value from the signer directly to a proposal.
type FundProjectMsg struct {
	Metadata   *weave.Metadata `protobuf:"bytes,1,opt,name=metadata" json:"metadata,omitempty"`
	ProposalID int64           `protobuf:"varint,2,opt,name=proposal_id,proto3" json:"proposal_id,omitempty"`
	Amount     *coin.Coin      `protobuf:"bytes,3,opt,name=amount" json:"amount,omitempty"`
}

func (m *FundProjectMsg) Reset()         { *m = FundProjectMsg{} }
func (m *FundProjectMsg) String() string { return proto.CompactTextString(m) }
func (*FundProjectMsg) ProtoMessage()    {}

func (FundProjectMsg) Path() string {
	return pathFundProjectMsg
}

func (m *FundProjectMsg) Validate() error {
	if err := validateRef(m.Metadata, m.ProposalID); err != nil {
		return err
	}
	return validateAmount(m.Amount)
}

// CreateProjectPoolMsg sets the signer pool entry of a proposal to the
// attached amount, replacing any previous entry.
type CreateProjectPoolMsg struct {
	Metadata   *weave.Metadata `protobuf:"bytes,1,opt,name=metadata" json:"metadata,omitempty"`
	ProposalID int64           `protobuf:"varint,2,opt,name=proposal_id,proto3" json:"proposal_id,omitempty"`
	Amount     *coin.Coin      `protobuf:"bytes,3,opt,name=amount" json:"amount,omitempty"`
}

func (m *CreateProjectPoolMsg) Reset()         { *m = CreateProjectPoolMsg{} }
func (m *CreateProjectPoolMsg) String() string { return proto.CompactTextString(m) }
func (*CreateProjectPoolMsg) ProtoMessage()    {}

func (CreateProjectPoolMsg) Path() string {
	return pathCreateProjectPoolMsg
}

func (m *CreateProjectPoolMsg) Validate() error {
	if err := validateRef(m.Metadata, m.ProposalID); err != nil {
		return err
	}
	return validateAmount(m.Amount)
}

// FundProjectPoolMsg increases the signer pool entry of a proposal by the
// attached amount.
type FundProjectPoolMsg struct {
	Metadata   *weave.Metadata `protobuf:"bytes,1,opt,name=metadata" json:"metadata,omitempty"`
	ProposalID int64           `protobuf:"varint,2,opt,name=proposal_id,proto3" json:"proposal_id,omitempty"`
	Amount     *coin.Coin      `protobuf:"bytes,3,opt,name=amount" json:"amount,omitempty"`
}

func (m *FundProjectPoolMsg) Reset()         { *m = FundProjectPoolMsg{} }
func (m *FundProjectPoolMsg) String() string { return proto.CompactTextString(m) }
func (*FundProjectPoolMsg) ProtoMessage()    {}

func (FundProjectPoolMsg) Path() string {
	return pathFundProjectPoolMsg
}

func (m *FundProjectPoolMsg) Validate() error {
	if err := validateRef(m.Metadata, m.ProposalID); err != nil {
		return err
	}
	return validateAmount(m.Amount)
}

// WithdrawFundsMsg transfers value held by the ledger to its owner.
type WithdrawFundsMsg struct {
	Metadata *weave.Metadata `protobuf:"bytes,1,opt,name=metadata" json:"metadata,omitempty"`
	Amount   *coin.Coin      `protobuf:"bytes,2,opt,name=amount" json:"amount,omitempty"`
}

func (m *WithdrawFundsMsg) Reset()         { *m = WithdrawFundsMsg{} }
func (m *WithdrawFundsMsg) String() string { return proto.CompactTextString(m) }
func (*WithdrawFundsMsg) ProtoMessage()    {}

func (WithdrawFundsMsg) Path() string {
	return pathWithdrawFundsMsg
}

func (m *WithdrawFundsMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	return validateAmount(m.Amount)
}

func validateRef(meta *weave.Metadata, id int64) error {
	if err := meta.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	// Ids start at 1, anything lower references nothing.
	if id < 1 {
		return errors.Wrapf(errors.ErrNotFound, "proposal %d", id)
	}
	return nil
}

func validateAmount(amount *coin.Coin) error {
	if amount == nil || !amount.IsPositive() {
		return errors.Wrapf(errors.ErrAmount, "non-positive amount %v", amount)
	}
	if err := amount.Validate(); err != nil {
		return errors.Wrap(err, "amount")
	}
	return nil
}
