package grant

import (
	"context"
	"testing"

	weave "github.com/iov-one/grantd"
	"github.com/iov-one/grantd/coin"
	"github.com/iov-one/grantd/store"
	"github.com/iov-one/grantd/weavetest"
	"github.com/iov-one/grantd/x/cash"
	"github.com/iov-one/grantd/x/utils"
	"github.com/stretchr/testify/require"
)

const ticker = "FTM"

func ftm(whole int64) *coin.Coin {
	return coin.NewCoinp(whole, 0, ticker)
}

// router collects handlers the same way the application router does.
type router map[string]weave.Handler

func (r router) Handle(m weave.Msg, h weave.Handler) {
	r[m.Path()] = h
}

// fixture is a deployed ledger with three funded accounts.
type fixture struct {
	t      testing.TB
	db     weave.CacheableKVStore
	auth   *weavetest.CtxAuth
	routes router
	bank   cash.BaseController
	keeper Keeper

	owner weave.Condition
	alice weave.Condition
	bob   weave.Condition
}

func newFixture(t testing.TB) *fixture {
	return newFixtureWithMover(t, nil)
}

// newFixtureWithMover deploys the ledger. When mover is not nil it is used
// by the handlers instead of the cash controller.
func newFixtureWithMover(t testing.TB, mover func(cash.CoinMover) cash.CoinMover) *fixture {
	t.Helper()
	f := &fixture{
		t:      t,
		db:     store.MemStore(),
		auth:   &weavetest.CtxAuth{Key: "grant"},
		routes: router{},
		bank:   cash.NewController(cash.NewBucket()),
		keeper: NewKeeper(),
		owner:  weavetest.NewCondition(),
		alice:  weavetest.NewCondition(),
		bob:    weavetest.NewCondition(),
	}
	_, err := Deploy(f.db, f.owner.Address(), ticker)
	require.NoError(t, err)
	for _, c := range []weave.Condition{f.owner, f.alice, f.bob} {
		require.NoError(t, f.bank.IssueCoins(f.db, c.Address(), *ftm(1000)))
	}
	var bank cash.CoinMover = f.bank
	if mover != nil {
		bank = mover(f.bank)
	}
	RegisterRoutes(f.routes, f.auth, bank)
	return f
}

func (f *fixture) handler(msg weave.Msg) weave.Handler {
	h, ok := f.routes[msg.Path()]
	if !ok {
		f.t.Fatalf("no handler for %q", msg.Path())
	}
	return weavetest.Decorate(h, utils.NewSavepoint().OnDeliver().OnCheck())
}

func (f *fixture) ctx(signer weave.Condition) weave.Context {
	ctx := context.Background()
	if signer != nil {
		ctx = f.auth.SetConditions(ctx, signer)
	}
	return ctx
}

func (f *fixture) deliver(signer weave.Condition, msg weave.Msg) (*weave.DeliverResult, error) {
	return f.handler(msg).Deliver(f.ctx(signer), f.db, &weavetest.Tx{Msg: msg})
}

func (f *fixture) check(signer weave.Condition, msg weave.Msg) (*weave.CheckResult, error) {
	return f.handler(msg).Check(f.ctx(signer), f.db, &weavetest.Tx{Msg: msg})
}

func (f *fixture) mustDeliver(signer weave.Condition, msg weave.Msg) *weave.DeliverResult {
	f.t.Helper()
	res, err := f.deliver(signer, msg)
	require.NoError(f.t, err)
	return res
}

func (f *fixture) proposal(id int64) *Proposal {
	f.t.Helper()
	p, err := f.keeper.Proposal(f.db, id)
	require.NoError(f.t, err)
	return p
}

func (f *fixture) ledger() *Ledger {
	f.t.Helper()
	l, err := f.keeper.Ledger(f.db)
	require.NoError(f.t, err)
	return l
}

func (f *fixture) wallet(c weave.Address) coin.Coin {
	f.t.Helper()
	b, err := f.bank.Balance(f.db, c, ticker)
	require.NoError(f.t, err)
	return b
}

func (f *fixture) createProposal(signer weave.Condition, goal int64) int64 {
	f.t.Helper()
	res := f.mustDeliver(signer, &CreateProposalMsg{
		Metadata:    &weave.Metadata{Schema: 1},
		Name:        "Proposal",
		Project:     "Project",
		Description: "Description",
		FundingGoal: ftm(goal),
	})
	require.Len(f.t, res.Data, 8)
	var id int64
	for _, b := range res.Data {
		id = id<<8 | int64(b)
	}
	return id
}

func fundMsg(id, amount int64) *FundProjectMsg {
	return &FundProjectMsg{Metadata: &weave.Metadata{Schema: 1}, ProposalID: id, Amount: ftm(amount)}
}

func createPoolMsg(id, amount int64) *CreateProjectPoolMsg {
	return &CreateProjectPoolMsg{Metadata: &weave.Metadata{Schema: 1}, ProposalID: id, Amount: ftm(amount)}
}

func fundPoolMsg(id, amount int64) *FundProjectPoolMsg {
	return &FundProjectPoolMsg{Metadata: &weave.Metadata{Schema: 1}, ProposalID: id, Amount: ftm(amount)}
}

func withdrawMsg(amount int64) *WithdrawFundsMsg {
	return &WithdrawFundsMsg{Metadata: &weave.Metadata{Schema: 1}, Amount: ftm(amount)}
}

func upvoteMsg(id int64) *UpvoteProposalMsg {
	return &UpvoteProposalMsg{Metadata: &weave.Metadata{Schema: 1}, ProposalID: id}
}

func downvoteMsg(id int64) *DownvoteProposalMsg {
	return &DownvoteProposalMsg{Metadata: &weave.Metadata{Schema: 1}, ProposalID: id}
}

func txOf(msg weave.Msg) weave.Tx {
	return &weavetest.Tx{Msg: msg}
}
