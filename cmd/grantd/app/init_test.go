package grantd

import (
	"encoding/json"
	"testing"

	weave "github.com/iov-one/grantd"
	"github.com/iov-one/grantd/errors"
	"github.com/iov-one/grantd/weavetest"
	"github.com/iov-one/grantd/weavetest/assert"
	"github.com/iov-one/grantd/x/cash"
	"github.com/iov-one/grantd/x/grant"
)

func TestGenInitOptions(t *testing.T) {
	owner := weavetest.NewCondition().Address()
	wallet, err := ParseWallet(owner.String() + "=12 FTM")
	assert.Nil(t, err)

	raw, err := GenInitOptions(owner, "", []cash.GenesisAccount{wallet})
	assert.Nil(t, err)

	var opts weave.Options
	assert.Nil(t, json.Unmarshal(raw, &opts))
	var gen grant.Genesis
	assert.Nil(t, opts.ReadOptions("grant", &gen))
	assert.Equal(t, owner, gen.Owner)
	assert.Equal(t, DefaultTicker, gen.Ticker)

	var accts []cash.GenesisAccount
	assert.Nil(t, opts.ReadOptions("cash", &accts))
	assert.Equal(t, 1, len(accts))
	assert.Equal(t, *ftm(12), accts[0].Coins[0])

	_, err = GenInitOptions(owner, "ftm", nil)
	assert.IsErr(t, errors.ErrCurrency, err)
	_, err = GenInitOptions(nil, "", nil)
	assert.IsErr(t, errors.ErrInput, err)
}

func TestGenInitOptionsKeepsWalletOrder(t *testing.T) {
	first := weavetest.RandomAddr(t)
	second := weavetest.DecodeAddr(t, "8F3A7F6A2B4C5D6E7F8091A2B3C4D5E6F708192A")
	third := weavetest.ParseAddress(t, "hex:"+first.String())

	var wallets []cash.GenesisAccount
	for _, a := range []weave.Address{first, second, third} {
		w, err := ParseWallet(a.String() + "=1 FTM")
		assert.Nil(t, err)
		wallets = append(wallets, w)
	}
	raw, err := GenInitOptions(second, "FTM", wallets)
	assert.Nil(t, err)

	var gen GenesisState
	assert.Nil(t, json.Unmarshal(raw, &gen))
	assert.Equal(t, 3, len(gen.Cash))
	assert.Equal(t, first, gen.Cash[0].Address)
	assert.Equal(t, second, gen.Cash[1].Address)
	assert.Equal(t, first, gen.Cash[2].Address)
	assert.Equal(t, second, gen.Grant.Owner)
}

func TestParseWallet(t *testing.T) {
	addr := weavetest.NewCondition().Address()
	bech, err := addr.Bech32String("tiov")
	assert.Nil(t, err)

	cases := map[string]struct {
		raw     string
		wantErr *errors.Error
	}{
		"hex":             {raw: addr.String() + "=1 FTM"},
		"bech32":          {raw: "bech32:" + bech + "=1.5 FTM"},
		"missing amount":  {raw: addr.String(), wantErr: errors.ErrInput},
		"invalid amount":  {raw: addr.String() + "=lots", wantErr: errors.ErrInput},
		"invalid address": {raw: "zz=1 FTM", wantErr: errors.ErrInput},
		"empty address":   {raw: "=1 FTM", wantErr: errors.ErrInput},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			acct, err := ParseWallet(tc.raw)
			assert.IsErr(t, tc.wantErr, err)
			if tc.wantErr == nil {
				assert.Equal(t, addr, acct.Address)
			}
		})
	}
}
