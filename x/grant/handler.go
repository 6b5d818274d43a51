package grant

import (
	"strconv"

	weave "github.com/iov-one/grantd"
	"github.com/iov-one/grantd/coin"
	"github.com/iov-one/grantd/errors"
	"github.com/iov-one/grantd/orm"
	"github.com/iov-one/grantd/x"
	"github.com/iov-one/grantd/x/cash"
	"github.com/tendermint/tendermint/libs/common"
)

const (
	createProposalCost int64 = 200
	voteCost           int64 = 10
	fundCost           int64 = 100
	withdrawCost       int64 = 100
)

const (
	tagProposalID  = "proposal-id"
	tagSigner      = "signer"
	tagCompleted   = "funding-completed"
	tagWithdrawnTo = "withdrawn-to"
)

// RegisterRoutes registers handlers for all grant ledger messages.
func RegisterRoutes(r weave.Registry, auth x.Authenticator, bank cash.CoinMover) {
	proposals := NewProposalBucket()
	ledgers := NewLedgerBucket()
	r.Handle(&CreateProposalMsg{}, CreateProposalHandler{auth: auth, proposals: proposals, ledgers: ledgers})
	r.Handle(&UpvoteProposalMsg{}, VoteHandler{auth: auth, proposals: proposals, ledgers: ledgers, up: true})
	r.Handle(&DownvoteProposalMsg{}, VoteHandler{auth: auth, proposals: proposals, ledgers: ledgers, up: false})
	r.Handle(&FundProjectMsg{}, FundProjectHandler{auth: auth, proposals: proposals, ledgers: ledgers, bank: bank})
	r.Handle(&CreateProjectPoolMsg{}, CreatePoolHandler{auth: auth, proposals: proposals, ledgers: ledgers, bank: bank})
	r.Handle(&FundProjectPoolMsg{}, FundPoolHandler{auth: auth, proposals: proposals, ledgers: ledgers, bank: bank})
	r.Handle(&WithdrawFundsMsg{}, WithdrawHandler{auth: auth, ledgers: ledgers, bank: bank})
}

// signer returns the address of the main signer of the transaction.
func signer(ctx weave.Context, auth x.Authenticator) (weave.Address, error) {
	cond := x.MainSigner(ctx, auth)
	if cond == nil {
		return nil, errors.Wrap(errors.ErrUnauthorized, "missing signature")
	}
	return cond.Address(), nil
}

// openLedger loads the ledger and refuses to continue while funds are being
// released.
func openLedger(db weave.ReadOnlyKVStore, ledgers LedgerBucket) (*Ledger, error) {
	ledger, err := ledgers.Get(db)
	if err != nil {
		return nil, err
	}
	if ledger.Releasing {
		return nil, errors.Wrap(errors.ErrState, "funds release in progress")
	}
	return ledger, nil
}

func idTag(id int64) common.KVPair {
	return common.KVPair{Key: []byte(tagProposalID), Value: []byte(strconv.FormatInt(id, 10))}
}

func signerTag(addr weave.Address) common.KVPair {
	return common.KVPair{Key: []byte(tagSigner), Value: []byte(addr.String())}
}

// CreateProposalHandler registers new proposals.
type CreateProposalHandler struct {
	auth      x.Authenticator
	proposals ProposalBucket
	ledgers   LedgerBucket
}

var _ weave.Handler = CreateProposalHandler{}

func (h CreateProposalHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weave.CheckResult{GasAllocated: createProposalCost}, nil
}

// Deliver stores a new proposal under the next sequential id. The id is
// returned as the result data.
func (h CreateProposalHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	msg, proposer, ledger, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	id, err := h.proposals.NextID(db)
	if err != nil {
		return nil, errors.Wrap(err, "cannot acquire id")
	}
	proposal := &Proposal{
		Metadata:    &weave.Metadata{Schema: 1},
		ID:          id,
		Proposer:    proposer,
		Name:        msg.Name,
		Project:     msg.Project,
		Description: msg.Description,
		FundingGoal: msg.FundingGoal.Clone(),
		TotalFunds:  coin.NewCoinp(0, 0, ledger.Ticker),
	}
	if err := h.proposals.Save(db, proposal); err != nil {
		return nil, errors.Wrap(err, "cannot store proposal")
	}
	ledger.ProposalCount = id
	if err := h.ledgers.Save(db, ledger); err != nil {
		return nil, errors.Wrap(err, "cannot store ledger")
	}

	weave.GetLogger(ctx).Info("proposal created", "id", id, "proposer", proposer, "goal", proposal.FundingGoal)
	return &weave.DeliverResult{
		Data: orm.EncodeSequence(id),
		Tags: []common.KVPair{idTag(id), signerTag(proposer)},
	}, nil
}

func (h CreateProposalHandler) validate(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*CreateProposalMsg, weave.Address, *Ledger, error) {
	var msg CreateProposalMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, nil, nil, errors.Wrap(err, "load msg")
	}
	proposer, err := signer(ctx, h.auth)
	if err != nil {
		return nil, nil, nil, err
	}
	ledger, err := openLedger(db, h.ledgers)
	if err != nil {
		return nil, nil, nil, err
	}
	if msg.FundingGoal.Ticker != ledger.Ticker {
		return nil, nil, nil, errors.Wrapf(errors.ErrCurrency, "funding goal must be in %s", ledger.Ticker)
	}
	return &msg, proposer, ledger, nil
}

// VoteHandler counts approval or disapproval signals. Votes are not
// deduplicated.
type VoteHandler struct {
	auth      x.Authenticator
	proposals ProposalBucket
	ledgers   LedgerBucket
	up        bool
}

var _ weave.Handler = VoteHandler{}

func (h VoteHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weave.CheckResult{GasAllocated: voteCost}, nil
}

func (h VoteHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	proposal, voter, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if h.up {
		proposal.Upvotes++
	} else {
		proposal.Downvotes++
	}
	if err := h.proposals.Save(db, proposal); err != nil {
		return nil, errors.Wrap(err, "cannot store proposal")
	}
	return &weave.DeliverResult{
		Tags: []common.KVPair{idTag(proposal.ID), signerTag(voter)},
	}, nil
}

func (h VoteHandler) validate(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*Proposal, weave.Address, error) {
	var id int64
	if h.up {
		var msg UpvoteProposalMsg
		if err := weave.LoadMsg(tx, &msg); err != nil {
			return nil, nil, errors.Wrap(err, "load msg")
		}
		id = msg.ProposalID
	} else {
		var msg DownvoteProposalMsg
		if err := weave.LoadMsg(tx, &msg); err != nil {
			return nil, nil, errors.Wrap(err, "load msg")
		}
		id = msg.ProposalID
	}
	voter, err := signer(ctx, h.auth)
	if err != nil {
		return nil, nil, err
	}
	if _, err := openLedger(db, h.ledgers); err != nil {
		return nil, nil, err
	}
	proposal, err := h.proposals.GetProposal(db, id)
	if err != nil {
		return nil, nil, err
	}
	return proposal, voter, nil
}

// funding holds everything a funding operation needs after validation.
type funding struct {
	contributor weave.Address
	amount      coin.Coin
	ledger      *Ledger
	proposal    *Proposal
}

func loadFunding(ctx weave.Context, db weave.KVStore, auth x.Authenticator, proposals ProposalBucket, ledgers LedgerBucket, id int64, amount coin.Coin) (*funding, error) {
	contributor, err := signer(ctx, auth)
	if err != nil {
		return nil, err
	}
	ledger, err := openLedger(db, ledgers)
	if err != nil {
		return nil, err
	}
	if err := ledger.checkAmount(amount); err != nil {
		return nil, err
	}
	proposal, err := proposals.GetProposal(db, id)
	if err != nil {
		return nil, err
	}
	return &funding{
		contributor: contributor,
		amount:      amount,
		ledger:      ledger,
		proposal:    proposal,
	}, nil
}

// deposit moves the attached value into custody and credits both the
// proposal and the ledger balance.
func (f *funding) deposit(ctx weave.Context, db weave.KVStore, bank cash.CoinMover, proposals ProposalBucket, ledgers LedgerBucket) (*weave.DeliverResult, error) {
	if err := bank.MoveCoins(db, f.contributor, f.ledger.Address, f.amount); err != nil {
		return nil, errors.Wrap(err, "cannot move funds")
	}
	if err := f.ledger.receive(f.amount); err != nil {
		return nil, err
	}
	completed, err := f.proposal.receive(f.amount)
	if err != nil {
		return nil, err
	}
	if err := proposals.Save(db, f.proposal); err != nil {
		return nil, errors.Wrap(err, "cannot store proposal")
	}
	if err := ledgers.Save(db, f.ledger); err != nil {
		return nil, errors.Wrap(err, "cannot store ledger")
	}

	tags := []common.KVPair{idTag(f.proposal.ID), signerTag(f.contributor)}
	if completed {
		weave.GetLogger(ctx).Info("funding completed", "id", f.proposal.ID, "total", f.proposal.TotalFunds)
		tags = append(tags, common.KVPair{Key: []byte(tagCompleted), Value: []byte("true")})
	}
	return &weave.DeliverResult{Tags: tags}, nil
}

// FundProjectHandler handles direct funding of a proposal.
type FundProjectHandler struct {
	auth      x.Authenticator
	proposals ProposalBucket
	ledgers   LedgerBucket
	bank      cash.CoinMover
}

var _ weave.Handler = FundProjectHandler{}

func (h FundProjectHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weave.CheckResult{GasAllocated: fundCost}, nil
}

func (h FundProjectHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	f, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	return f.deposit(ctx, db, h.bank, h.proposals, h.ledgers)
}

func (h FundProjectHandler) validate(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*funding, error) {
	var msg FundProjectMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	return loadFunding(ctx, db, h.auth, h.proposals, h.ledgers, msg.ProposalID, *msg.Amount)
}

// CreatePoolHandler sets the signer pool entry to the attached amount.
type CreatePoolHandler struct {
	auth      x.Authenticator
	proposals ProposalBucket
	ledgers   LedgerBucket
	bank      cash.CoinMover
}

var _ weave.Handler = CreatePoolHandler{}

func (h CreatePoolHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weave.CheckResult{GasAllocated: fundCost}, nil
}

func (h CreatePoolHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	f, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	f.proposal.setPool(f.contributor, f.amount)
	return f.deposit(ctx, db, h.bank, h.proposals, h.ledgers)
}

func (h CreatePoolHandler) validate(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*funding, error) {
	var msg CreateProjectPoolMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	return loadFunding(ctx, db, h.auth, h.proposals, h.ledgers, msg.ProposalID, *msg.Amount)
}

// FundPoolHandler adds the attached amount to the signer pool entry.
type FundPoolHandler struct {
	auth      x.Authenticator
	proposals ProposalBucket
	ledgers   LedgerBucket
	bank      cash.CoinMover
}

var _ weave.Handler = FundPoolHandler{}

func (h FundPoolHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weave.CheckResult{GasAllocated: fundCost}, nil
}

func (h FundPoolHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	f, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if err := f.proposal.addPool(f.contributor, f.amount); err != nil {
		return nil, errors.Wrap(err, "pool")
	}
	return f.deposit(ctx, db, h.bank, h.proposals, h.ledgers)
}

func (h FundPoolHandler) validate(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*funding, error) {
	var msg FundProjectPoolMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	return loadFunding(ctx, db, h.auth, h.proposals, h.ledgers, msg.ProposalID, *msg.Amount)
}

// WithdrawHandler releases ledger funds to the owner.
type WithdrawHandler struct {
	auth    x.Authenticator
	ledgers LedgerBucket
	bank    cash.CoinMover
}

var _ weave.Handler = WithdrawHandler{}

func (h WithdrawHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weave.CheckResult{GasAllocated: withdrawCost}, nil
}

// Deliver decrements the balance and sets the releasing latch before the
// transfer is made. Any grant operation reached from within the transfer
// fails.
func (h WithdrawHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	msg, ledger, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	amount := *msg.Amount

	remaining, err := ledger.Balance.Subtract(amount)
	if err != nil {
		return nil, errors.Wrap(err, "balance")
	}
	ledger.Balance = &remaining
	ledger.Releasing = true
	if err := h.ledgers.Save(db, ledger); err != nil {
		return nil, errors.Wrap(err, "cannot store ledger")
	}

	if err := h.bank.MoveCoins(db, ledger.Address, ledger.Owner, amount); err != nil {
		return nil, errors.Wrap(err, "cannot release funds")
	}

	ledger.Releasing = false
	if err := h.ledgers.Save(db, ledger); err != nil {
		return nil, errors.Wrap(err, "cannot store ledger")
	}

	weave.GetLogger(ctx).Info("funds released", "amount", amount, "owner", ledger.Owner, "balance", ledger.Balance)
	return &weave.DeliverResult{
		Tags: []common.KVPair{
			{Key: []byte(tagWithdrawnTo), Value: []byte(ledger.Owner.String())},
		},
	}, nil
}

// validate authorizes the caller before the message is looked at, so a
// non-owner is refused regardless of what was requested.
func (h WithdrawHandler) validate(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*WithdrawFundsMsg, *Ledger, error) {
	caller, err := signer(ctx, h.auth)
	if err != nil {
		return nil, nil, err
	}
	ledger, err := h.ledgers.Get(db)
	if err != nil {
		return nil, nil, err
	}
	if !caller.Equals(ledger.Owner) {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "only the owner can withdraw")
	}
	if ledger.Releasing {
		return nil, nil, errors.Wrap(errors.ErrState, "funds release in progress")
	}
	var msg WithdrawFundsMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	if err := ledger.checkAmount(*msg.Amount); err != nil {
		return nil, nil, err
	}
	if !ledger.Balance.IsGTE(*msg.Amount) {
		return nil, nil, errors.Wrapf(ErrInsufficientBalance, "balance %s, requested %s", ledger.Balance, msg.Amount)
	}
	return &msg, ledger, nil
}
