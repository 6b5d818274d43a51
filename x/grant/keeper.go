package grant

import (
	"github.com/gogo/protobuf/proto"
	weave "github.com/iov-one/grantd"
	"github.com/iov-one/grantd/coin"
	"github.com/iov-one/grantd/errors"
	"github.com/iov-one/grantd/orm"
)

// Keeper gives read access to the ledger state.
type Keeper struct {
	proposals ProposalBucket
	ledgers   LedgerBucket
}

// NewKeeper returns a Keeper.
func NewKeeper() Keeper {
	return Keeper{
		proposals: NewProposalBucket(),
		ledgers:   NewLedgerBucket(),
	}
}

// Proposal returns a snapshot of the proposal with given id.
func (k Keeper) Proposal(db weave.ReadOnlyKVStore, id int64) (*Proposal, error) {
	return k.proposals.GetProposal(db, id)
}

// Pool returns the amount contributor placed into the pool of the proposal.
func (k Keeper) Pool(db weave.ReadOnlyKVStore, id int64, contributor weave.Address) (coin.Coin, error) {
	p, err := k.proposals.GetProposal(db, id)
	if err != nil {
		return coin.Coin{}, err
	}
	return p.Pool(contributor), nil
}

// Ledger returns the ledger record.
func (k Keeper) Ledger(db weave.ReadOnlyKVStore) (*Ledger, error) {
	return k.ledgers.Get(db)
}

// Proposals returns all proposals in id order.
func (k Keeper) Proposals(db weave.ReadOnlyKVStore) ([]*Proposal, error) {
	ledger, err := k.ledgers.Get(db)
	if err != nil {
		return nil, err
	}
	res := make([]*Proposal, 0, ledger.ProposalCount)
	for id := int64(1); id <= ledger.ProposalCount; id++ {
		p, err := k.proposals.GetProposal(db, id)
		if err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, nil
}

// RegisterQuery exposes proposals under /proposals, the ledger record under
// /ledger and pool entries under /pools.
func RegisterQuery(qr weave.QueryRouter) {
	orm.Register(proposalBucketName, "proposals", qr)
	orm.Register(ledgerBucketName, "ledger", qr)
	qr.Register("/pools", PoolQuery{keeper: NewKeeper()})
}

// PoolQuery resolves a pool entry. Query data is the 8 byte proposal id
// followed by the contributor address. The result value is the serialized
// coin, zero for a contributor without an entry.
//
// An unknown proposal yields an empty result, as the bucket queries do.
// Use Keeper.Pool to get ErrNotFound instead.
type PoolQuery struct {
	keeper Keeper
}

var _ weave.QueryHandler = PoolQuery{}

func (q PoolQuery) Query(db weave.ReadOnlyKVStore, mod string, data []byte) ([]weave.Model, error) {
	if mod != weave.KeyQueryMod {
		return nil, errors.Wrapf(errors.ErrInput, "unknown query mode %q", mod)
	}
	if len(data) <= 8 {
		return nil, errors.Wrap(errors.ErrInput, "want proposal id and address")
	}
	id, err := orm.DecodeSequence(data[:8])
	if err != nil {
		return nil, err
	}
	amount, err := q.keeper.Pool(db, id, weave.Address(data[8:]))
	switch {
	case errors.ErrNotFound.Is(err):
		return nil, nil
	case err != nil:
		return nil, err
	}
	raw, err := proto.Marshal(&amount)
	if err != nil {
		return nil, errors.Wrap(err, "cannot serialize")
	}
	return []weave.Model{weave.Pair(data, raw)}, nil
}
