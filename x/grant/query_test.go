package grant

import (
	"testing"

	"github.com/gogo/protobuf/proto"
	weave "github.com/iov-one/grantd"
	"github.com/iov-one/grantd/coin"
	"github.com/iov-one/grantd/errors"
	"github.com/iov-one/grantd/orm"
	"github.com/iov-one/grantd/weavetest/assert"
	"github.com/stretchr/testify/require"
)

func TestQueries(t *testing.T) {
	f := newFixture(t)
	id := f.createProposal(f.alice, 100)
	f.mustDeliver(f.bob, createPoolMsg(id, 7))

	qr := weave.NewQueryRouter()
	RegisterQuery(qr)

	// proposals by id
	models, err := qr.Handler("/proposals").Query(f.db, weave.KeyQueryMod, orm.EncodeSequence(id))
	require.NoError(t, err)
	require.Len(t, models, 1)
	var p Proposal
	require.NoError(t, proto.Unmarshal(models[0].Value, &p))
	assert.Equal(t, id, p.ID)
	assert.Equal(t, *ftm(7), *p.TotalFunds)

	models, err = qr.Handler("/proposals").Query(f.db, weave.KeyQueryMod, orm.EncodeSequence(id+1))
	require.NoError(t, err)
	assert.Equal(t, 0, len(models))

	// ledger record
	models, err = qr.Handler("/ledger").Query(f.db, weave.KeyQueryMod, ledgerKey)
	require.NoError(t, err)
	require.Len(t, models, 1)
	var l Ledger
	require.NoError(t, proto.Unmarshal(models[0].Value, &l))
	assert.Equal(t, int64(1), l.ProposalCount)
	assert.Equal(t, *ftm(7), *l.Balance)

	// pool entries
	pools := qr.Handler("/pools")
	key := append(orm.EncodeSequence(id), f.bob.Address()...)
	models, err = pools.Query(f.db, weave.KeyQueryMod, key)
	require.NoError(t, err)
	require.Len(t, models, 1)
	var amount coin.Coin
	require.NoError(t, proto.Unmarshal(models[0].Value, &amount))
	assert.Equal(t, *ftm(7), amount)

	key = append(orm.EncodeSequence(id+5), f.bob.Address()...)
	models, err = pools.Query(f.db, weave.KeyQueryMod, key)
	require.NoError(t, err)
	assert.Equal(t, 0, len(models))
	_, err = f.keeper.Pool(f.db, id+5, f.bob.Address())
	assert.IsErr(t, errors.ErrNotFound, err)

	_, err = pools.Query(f.db, weave.KeyQueryMod, []byte{1, 2})
	assert.IsErr(t, errors.ErrInput, err)
	_, err = pools.Query(f.db, "?prefix", key)
	assert.IsErr(t, errors.ErrInput, err)
}
