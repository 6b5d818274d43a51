package grant

import (
	"bytes"
	"sort"

	"github.com/gogo/protobuf/proto"
	weave "github.com/iov-one/grantd"
	"github.com/iov-one/grantd/coin"
	"github.com/iov-one/grantd/errors"
	"github.com/iov-one/grantd/orm"
)

const (
	proposalBucketName = "proposal"
	ledgerBucketName   = "ledger"

	maxNameLength        = 128
	maxProjectLength     = 128
	maxDescriptionLength = 4096
)

var ledgerKey = []byte("state")

// CustodyAddress is the account holding all value received by the ledger.
var CustodyAddress = weave.NewCondition("grant", "ledger", []byte("custody")).Address()

// Proposal is a single funding request.
type Proposal struct {
	Metadata    *weave.Metadata `protobuf:"bytes,1,opt,name=metadata" json:"metadata,omitempty"`
	ID          int64           `protobuf:"varint,2,opt,name=id,proto3" json:"id,omitempty"`
	Proposer    weave.Address   `protobuf:"bytes,3,opt,name=proposer,proto3" json:"proposer,omitempty"`
	Name        string          `protobuf:"bytes,4,opt,name=name,proto3" json:"name,omitempty"`
	Project     string          `protobuf:"bytes,5,opt,name=project,proto3" json:"project,omitempty"`
	Description string          `protobuf:"bytes,6,opt,name=description,proto3" json:"description,omitempty"`
	FundingGoal *coin.Coin      `protobuf:"bytes,7,opt,name=funding_goal" json:"funding_goal,omitempty"`
	Upvotes     int64           `protobuf:"varint,8,opt,name=upvotes,proto3" json:"upvotes,omitempty"`
	Downvotes   int64           `protobuf:"varint,9,opt,name=downvotes,proto3" json:"downvotes,omitempty"`
	TotalFunds  *coin.Coin      `protobuf:"bytes,10,opt,name=total_funds" json:"total_funds,omitempty"`
	// FundingCompleted is set once total funds reach the goal and is never
	// cleared.
	FundingCompleted bool `protobuf:"varint,11,opt,name=funding_completed,proto3" json:"funding_completed,omitempty"`
	// PooledFunds is ordered by contributor address.
	PooledFunds []*PoolEntry `protobuf:"bytes,12,rep,name=pooled_funds" json:"pooled_funds,omitempty"`
}

func (m *Proposal) Reset()         { *m = Proposal{} }
func (m *Proposal) String() string { return proto.CompactTextString(m) }
func (*Proposal) ProtoMessage()    {}

var _ orm.Model = (*Proposal)(nil)

// PoolEntry is the amount a single contributor placed into a proposal pool.
type PoolEntry struct {
	Contributor weave.Address `protobuf:"bytes,1,opt,name=contributor,proto3" json:"contributor,omitempty"`
	Amount      *coin.Coin    `protobuf:"bytes,2,opt,name=amount" json:"amount,omitempty"`
}

func (m *PoolEntry) Reset()         { *m = PoolEntry{} }
func (m *PoolEntry) String() string { return proto.CompactTextString(m) }
func (*PoolEntry) ProtoMessage()    {}

// Validate ensures the proposal is consistent.
func (p *Proposal) Validate() error {
	if err := p.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if p.ID < 1 {
		return errors.Wrap(errors.ErrModel, "invalid id")
	}
	if err := p.Proposer.Validate(); err != nil {
		return errors.Wrap(err, "proposer")
	}
	if err := validateText(p.Name, p.Project, p.Description); err != nil {
		return err
	}
	if p.FundingGoal == nil {
		return errors.Wrap(errors.ErrModel, "missing funding goal")
	}
	if err := validateNonNegative(*p.FundingGoal); err != nil {
		return errors.Wrap(err, "funding goal")
	}
	if p.TotalFunds == nil {
		return errors.Wrap(errors.ErrModel, "missing total funds")
	}
	if err := validateNonNegative(*p.TotalFunds); err != nil {
		return errors.Wrap(err, "total funds")
	}
	if !p.TotalFunds.SameType(*p.FundingGoal) {
		return errors.Wrap(errors.ErrCurrency, "total funds and goal differ")
	}
	if p.Upvotes < 0 || p.Downvotes < 0 {
		return errors.Wrap(errors.ErrModel, "negative vote count")
	}
	// A positive total is only reachable through funding, which updates the
	// completion latch.
	if p.TotalFunds.IsPositive() && p.TotalFunds.IsGTE(*p.FundingGoal) && !p.FundingCompleted {
		return errors.Wrap(errors.ErrState, "funding goal reached but not completed")
	}

	pooled := coin.NewCoin(0, 0, p.TotalFunds.Ticker)
	for i, e := range p.PooledFunds {
		if e == nil {
			return errors.Wrapf(errors.ErrModel, "pool entry %d missing", i)
		}
		if err := e.Contributor.Validate(); err != nil {
			return errors.Wrapf(err, "pool entry %d contributor", i)
		}
		if i > 0 && bytes.Compare(p.PooledFunds[i-1].Contributor, e.Contributor) >= 0 {
			return errors.Wrap(errors.ErrModel, "pool entries not sorted")
		}
		if e.Amount == nil {
			return errors.Wrapf(errors.ErrModel, "pool entry %d amount missing", i)
		}
		if err := validateNonNegative(*e.Amount); err != nil {
			return errors.Wrapf(err, "pool entry %d amount", i)
		}
		var err error
		if pooled, err = pooled.Add(*e.Amount); err != nil {
			return errors.Wrapf(err, "pool entry %d amount", i)
		}
	}
	if !p.TotalFunds.IsGTE(pooled) {
		return errors.Wrap(errors.ErrState, "pooled funds exceed total funds")
	}
	return nil
}

func validateText(name, project, description string) error {
	switch {
	case len(name) > maxNameLength:
		return errors.Wrap(errors.ErrInput, "name too long")
	case len(project) > maxProjectLength:
		return errors.Wrap(errors.ErrInput, "project too long")
	case len(description) > maxDescriptionLength:
		return errors.Wrap(errors.ErrInput, "description too long")
	}
	return nil
}

func validateNonNegative(c coin.Coin) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if !c.IsNonNegative() {
		return errors.Wrapf(errors.ErrAmount, "negative value %s", c)
	}
	return nil
}

// Pool returns the amount given contributor placed into this proposal pool.
// A contributor without an entry holds nothing.
func (p *Proposal) Pool(contributor weave.Address) coin.Coin {
	if i, ok := p.poolIndex(contributor); ok {
		return *p.PooledFunds[i].Amount
	}
	return coin.NewCoin(0, 0, p.FundingGoal.Ticker)
}

func (p *Proposal) poolIndex(contributor weave.Address) (int, bool) {
	i := sort.Search(len(p.PooledFunds), func(i int) bool {
		return bytes.Compare(p.PooledFunds[i].Contributor, contributor) >= 0
	})
	return i, i < len(p.PooledFunds) && p.PooledFunds[i].Contributor.Equals(contributor)
}

// setPool replaces the pool entry of the contributor.
func (p *Proposal) setPool(contributor weave.Address, amount coin.Coin) {
	i, ok := p.poolIndex(contributor)
	if ok {
		p.PooledFunds[i].Amount = &amount
		return
	}
	entry := &PoolEntry{Contributor: contributor, Amount: &amount}
	p.PooledFunds = append(p.PooledFunds, nil)
	copy(p.PooledFunds[i+1:], p.PooledFunds[i:])
	p.PooledFunds[i] = entry
}

// addPool increases the pool entry of the contributor by amount.
func (p *Proposal) addPool(contributor weave.Address, amount coin.Coin) error {
	total, err := p.Pool(contributor).Add(amount)
	if err != nil {
		return err
	}
	p.setPool(contributor, total)
	return nil
}

// receive adds funding to the proposal and updates the completion latch.
// It returns true if this call completed the funding.
func (p *Proposal) receive(amount coin.Coin) (bool, error) {
	total, err := p.TotalFunds.Add(amount)
	if err != nil {
		return false, errors.Wrap(err, "total funds")
	}
	p.TotalFunds = &total
	if p.FundingCompleted {
		return false, nil
	}
	p.FundingCompleted = total.IsGTE(*p.FundingGoal)
	return p.FundingCompleted, nil
}

// Ledger is the single record holding the ledger wide state.
type Ledger struct {
	Metadata *weave.Metadata `protobuf:"bytes,1,opt,name=metadata" json:"metadata,omitempty"`
	// Owner is the only account allowed to withdraw funds.
	Owner weave.Address `protobuf:"bytes,2,opt,name=owner,proto3" json:"owner,omitempty"`
	// Address is the custody account holding the balance.
	Address       weave.Address `protobuf:"bytes,3,opt,name=address,proto3" json:"address,omitempty"`
	Ticker        string        `protobuf:"bytes,4,opt,name=ticker,proto3" json:"ticker,omitempty"`
	Balance       *coin.Coin    `protobuf:"bytes,5,opt,name=balance" json:"balance,omitempty"`
	ProposalCount int64         `protobuf:"varint,6,opt,name=proposal_count,proto3" json:"proposal_count,omitempty"`
	// Releasing is set while funds are being transferred out.
	Releasing bool `protobuf:"varint,7,opt,name=releasing,proto3" json:"releasing,omitempty"`
}

func (m *Ledger) Reset()         { *m = Ledger{} }
func (m *Ledger) String() string { return proto.CompactTextString(m) }
func (*Ledger) ProtoMessage()    {}

var _ orm.Model = (*Ledger)(nil)

// Validate ensures the ledger is consistent.
func (l *Ledger) Validate() error {
	if err := l.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := l.Owner.Validate(); err != nil {
		return errors.Wrap(err, "owner")
	}
	if err := l.Address.Validate(); err != nil {
		return errors.Wrap(err, "address")
	}
	if !coin.IsCC(l.Ticker) {
		return errors.Wrapf(errors.ErrCurrency, "invalid ticker %q", l.Ticker)
	}
	if l.Balance == nil {
		return errors.Wrap(errors.ErrModel, "missing balance")
	}
	if err := validateNonNegative(*l.Balance); err != nil {
		return errors.Wrap(err, "balance")
	}
	if l.Balance.Ticker != l.Ticker {
		return errors.Wrap(errors.ErrCurrency, "balance ticker")
	}
	if l.ProposalCount < 0 {
		return errors.Wrap(errors.ErrModel, "negative proposal count")
	}
	return nil
}

// checkAmount returns an error unless amount is a positive value in the
// ledger currency.
func (l *Ledger) checkAmount(amount coin.Coin) error {
	if !amount.IsPositive() {
		return errors.Wrapf(errors.ErrAmount, "non-positive amount %s", amount)
	}
	if amount.Ticker != l.Ticker {
		return errors.Wrapf(errors.ErrCurrency, "want %s, got %s", l.Ticker, amount.Ticker)
	}
	return nil
}

func (l *Ledger) receive(amount coin.Coin) error {
	total, err := l.Balance.Add(amount)
	if err != nil {
		return errors.Wrap(err, "balance")
	}
	l.Balance = &total
	return nil
}

// ProposalBucket stores proposals under their sequential id.
type ProposalBucket struct {
	orm.ModelBucket
	seq orm.Sequence
}

// NewProposalBucket returns a bucket for proposals.
func NewProposalBucket() ProposalBucket {
	return ProposalBucket{
		ModelBucket: orm.NewModelBucket(proposalBucketName),
		seq:         orm.NewSequence(proposalBucketName, "id"),
	}
}

// NextID allocates the next proposal id.
func (b ProposalBucket) NextID(db weave.KVStore) (int64, error) {
	return b.seq.NextInt(db)
}

// GetProposal loads the proposal with given id.
func (b ProposalBucket) GetProposal(db weave.ReadOnlyKVStore, id int64) (*Proposal, error) {
	var p Proposal
	if err := b.One(db, orm.EncodeSequence(id), &p); err != nil {
		return nil, errors.Wrapf(err, "proposal %d", id)
	}
	return &p, nil
}

// Save writes the proposal under its id.
func (b ProposalBucket) Save(db weave.KVStore, p *Proposal) error {
	return b.Put(db, orm.EncodeSequence(p.ID), p)
}

// LedgerBucket stores the ledger record.
type LedgerBucket struct {
	orm.ModelBucket
}

// NewLedgerBucket returns a bucket for the ledger record.
func NewLedgerBucket() LedgerBucket {
	return LedgerBucket{ModelBucket: orm.NewModelBucket(ledgerBucketName)}
}

// Get loads the ledger. It fails with ErrState when the ledger was never
// deployed.
func (b LedgerBucket) Get(db weave.ReadOnlyKVStore) (*Ledger, error) {
	var l Ledger
	switch err := b.One(db, ledgerKey, &l); {
	case err == nil:
		return &l, nil
	case errors.ErrNotFound.Is(err):
		return nil, errors.Wrap(errors.ErrState, "ledger not deployed")
	default:
		return nil, err
	}
}

// Save writes the ledger record.
func (b LedgerBucket) Save(db weave.KVStore, l *Ledger) error {
	return b.Put(db, ledgerKey, l)
}
