package cash

import (
	"context"
	"testing"

	weave "github.com/iov-one/grantd"
	"github.com/iov-one/grantd/coin"
	"github.com/iov-one/grantd/errors"
	"github.com/iov-one/grantd/store"
	"github.com/iov-one/grantd/weavetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getWallet(t *testing.T, kv weave.ReadOnlyKVStore, addr weave.Address) *Set {
	t.Helper()
	set, err := NewBucket().Get(kv, addr)
	require.NoError(t, err)
	return set
}

func TestIssueCoins(t *testing.T) {
	kv := store.MemStore()
	addr := weavetest.NewCondition().Address()
	addr2 := weavetest.NewCondition().Address()

	controller := NewController(NewBucket())

	plus := coin.NewCoin(500, 1000, "FOO")
	minus := coin.NewCoin(-400, -600, "FOO")
	total := coin.NewCoin(100, 400, "FOO")
	other := coin.NewCoin(1, 0, "DING")

	assert.Nil(t, getWallet(t, kv, addr))
	assert.Nil(t, getWallet(t, kv, addr2))

	// issue positive
	require.NoError(t, controller.IssueCoins(kv, addr, plus))
	w := getWallet(t, kv, addr)
	require.NotNil(t, w)
	assert.True(t, w.Contains(plus))
	assert.True(t, w.Contains(total))
	assert.False(t, w.Contains(other))
	assert.Nil(t, getWallet(t, kv, addr2))

	// issue negative
	require.NoError(t, controller.IssueCoins(kv, addr, minus))
	w = getWallet(t, kv, addr)
	assert.False(t, w.Contains(plus))
	assert.True(t, w.Contains(total))

	// issue to other wallet
	require.NoError(t, controller.IssueCoins(kv, addr2, other))
	w2 := getWallet(t, kv, addr2)
	assert.True(t, w2.Contains(other))
	assert.False(t, w2.Contains(total))

	// set to zero is fine
	require.NoError(t, controller.IssueCoins(kv, addr2, other.Negative()))
	assert.True(t, getWallet(t, kv, addr2).IsEmpty())

	// cannot go below zero
	err := controller.IssueCoins(kv, addr2, other.Negative())
	assert.True(t, errors.ErrInsufficientAmount.Is(err))

	// overflow is rejected
	err = controller.IssueCoins(kv, addr, coin.NewCoin(coin.MaxInt, 0, "FOO"))
	assert.True(t, errors.ErrOverflow.Is(err))
}

func TestMoveCoins(t *testing.T) {
	kv := store.MemStore()
	controller := NewController(NewBucket())

	src := weavetest.NewCondition().Address()
	dst := weavetest.NewCondition().Address()
	require.NoError(t, controller.IssueCoins(kv, src, coin.NewCoin(10, 0, "IOV")))

	cases := map[string]struct {
		amount  coin.Coin
		from    weave.Address
		wantErr *errors.Error
	}{
		"zero amount": {
			amount:  coin.NewCoin(0, 0, "IOV"),
			from:    src,
			wantErr: errors.ErrAmount,
		},
		"negative amount": {
			amount:  coin.NewCoin(-1, 0, "IOV"),
			from:    src,
			wantErr: errors.ErrAmount,
		},
		"unknown source": {
			amount:  coin.NewCoin(1, 0, "IOV"),
			from:    weavetest.NewCondition().Address(),
			wantErr: errors.ErrEmpty,
		},
		"too much": {
			amount:  coin.NewCoin(10, 1, "IOV"),
			from:    src,
			wantErr: errors.ErrInsufficientAmount,
		},
		"other currency": {
			amount:  coin.NewCoin(1, 0, "ETH"),
			from:    src,
			wantErr: errors.ErrInsufficientAmount,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			err := controller.MoveCoins(kv, tc.from, dst, tc.amount)
			if !tc.wantErr.Is(err) {
				t.Fatalf("want %q error, got %+v", tc.wantErr, err)
			}
		})
	}

	require.NoError(t, controller.MoveCoins(kv, src, dst, coin.NewCoin(3, 500, "IOV")))
	bal, err := controller.Balance(kv, src, "IOV")
	require.NoError(t, err)
	assert.Equal(t, coin.NewCoin(6, 999999500, "IOV"), bal)
	bal, err = controller.Balance(kv, dst, "IOV")
	require.NoError(t, err)
	assert.Equal(t, coin.NewCoin(3, 500, "IOV"), bal)

	// moving to self does not create value
	require.NoError(t, controller.MoveCoins(kv, dst, dst, coin.NewCoin(3, 500, "IOV")))
	bal, err = controller.Balance(kv, dst, "IOV")
	require.NoError(t, err)
	assert.Equal(t, coin.NewCoin(3, 500, "IOV"), bal)

	// unknown accounts hold nothing
	bal, err = controller.Balance(kv, weavetest.NewCondition().Address(), "IOV")
	require.NoError(t, err)
	assert.True(t, bal.IsZero())
}

func TestSendHandler(t *testing.T) {
	kv := store.MemStore()
	controller := NewController(NewBucket())

	src := weavetest.NewCondition()
	dst := weavetest.NewCondition().Address()
	require.NoError(t, controller.IssueCoins(kv, src.Address(), coin.NewCoin(5, 0, "IOV")))

	msg := &SendMsg{
		Metadata:    &weave.Metadata{Schema: 1},
		Source:      src.Address(),
		Destination: dst,
		Amount:      coin.NewCoinp(2, 0, "IOV"),
	}
	tx := &weavetest.Tx{Msg: msg}

	// only the owner may send
	h := NewSendHandler(&weavetest.Auth{Signer: weavetest.NewCondition()}, controller)
	_, err := h.Check(context.Background(), kv, tx)
	assert.True(t, errors.ErrUnauthorized.Is(err))
	_, err = h.Deliver(context.Background(), kv, tx)
	assert.True(t, errors.ErrUnauthorized.Is(err))

	h = NewSendHandler(&weavetest.Auth{Signer: src}, controller)
	_, err = h.Check(context.Background(), kv, tx)
	require.NoError(t, err)
	_, err = h.Deliver(context.Background(), kv, tx)
	require.NoError(t, err)
	assert.True(t, getWallet(t, kv, dst).Contains(coin.NewCoin(2, 0, "IOV")))

	bad := &weavetest.Tx{Msg: &SendMsg{
		Metadata:    &weave.Metadata{Schema: 1},
		Source:      src.Address(),
		Destination: dst,
		Amount:      coin.NewCoinp(0, 0, "IOV"),
	}}
	_, err = h.Deliver(context.Background(), kv, bad)
	assert.True(t, errors.ErrAmount.Is(err))
}

func TestSendToReservedAddress(t *testing.T) {
	kv := store.MemStore()
	controller := NewController(NewBucket())
	src := weavetest.NewCondition()
	reserved := weavetest.NewCondition().Address()
	require.NoError(t, controller.IssueCoins(kv, src.Address(), coin.NewCoin(50, 0, "IOV")))

	r := make(router)
	RegisterRoutes(r, &weavetest.Auth{Signer: src}, controller, reserved)
	h := r[pathSendMsg]

	tx := &weavetest.Tx{Msg: &SendMsg{
		Metadata:    &weave.Metadata{Schema: 1},
		Source:      src.Address(),
		Destination: reserved,
		Amount:      coin.NewCoinp(30, 0, "IOV"),
	}}
	_, err := h.Check(context.Background(), kv, tx)
	assert.True(t, errors.ErrInput.Is(err))
	_, err = h.Deliver(context.Background(), kv, tx)
	assert.True(t, errors.ErrInput.Is(err))

	assert.Nil(t, getWallet(t, kv, reserved))
	assert.True(t, getWallet(t, kv, src.Address()).Contains(coin.NewCoin(50, 0, "IOV")))
}

func TestInitializerRejectsReservedAccount(t *testing.T) {
	reserved := weavetest.NewCondition().Address()
	opts := weave.Options{"cash": []byte(`[{"address": "` + reserved.String() + `", "coins": ["1 IOV"]}]`)}

	kv := store.MemStore()
	err := Initializer{Reserved: []weave.Address{reserved}}.FromGenesis(opts, kv)
	assert.True(t, errors.ErrInput.Is(err))
	assert.Nil(t, getWallet(t, kv, reserved))

	require.NoError(t, Initializer{}.FromGenesis(opts, store.MemStore()))
}

type router map[string]weave.Handler

func (r router) Handle(m weave.Msg, h weave.Handler) {
	r[m.Path()] = h
}

func TestInitializer(t *testing.T) {
	addr := weavetest.NewCondition().Address()

	cases := map[string]struct {
		opts    weave.Options
		wantErr *errors.Error
		want    coin.Coin
	}{
		"no data": {
			opts: weave.Options{},
		},
		"other section": {
			opts: weave.Options{"foo": []byte(`"bar"`)},
		},
		"invalid json": {
			opts:    weave.Options{"cash": []byte(`[{"coins": 123}]`)},
			wantErr: errors.ErrInput,
		},
		"missing address": {
			opts:    weave.Options{"cash": []byte(`[{"coins": ["1 IOV"]}]`)},
			wantErr: errors.ErrInput,
		},
		"negative coins": {
			opts:    weave.Options{"cash": []byte(`[{"address": "` + addr.String() + `", "coins": ["-1 IOV"]}]`)},
			wantErr: errors.ErrAmount,
		},
		"duplicated account": {
			opts: weave.Options{"cash": []byte(`[
				{"address": "` + addr.String() + `", "coins": ["1 IOV"]},
				{"address": "` + addr.String() + `", "coins": ["1 IOV"]}
			]`)},
			wantErr: errors.ErrDuplicate,
		},
		"human readable coins are combined": {
			opts: weave.Options{"cash": []byte(`[{"address": "` + addr.String() + `", "coins": ["1.5 IOV", {"whole": 2, "ticker": "IOV"}]}]`)},
			want: coin.NewCoin(3, 500000000, "IOV"),
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			kv := store.MemStore()
			err := Initializer{}.FromGenesis(tc.opts, kv)
			if !tc.wantErr.Is(err) {
				t.Fatalf("want %q error, got %+v", tc.wantErr, err)
			}
			if tc.want.IsZero() {
				return
			}
			bal, err := NewController(NewBucket()).Balance(kv, addr, tc.want.Ticker)
			require.NoError(t, err)
			assert.Equal(t, tc.want, bal)
		})
	}
}
