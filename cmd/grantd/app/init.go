package grantd

import (
	"encoding/json"
	"strings"

	weave "github.com/iov-one/grantd"
	"github.com/iov-one/grantd/coin"
	"github.com/iov-one/grantd/errors"
	"github.com/iov-one/grantd/x/cash"
	"github.com/iov-one/grantd/x/grant"
)

// DefaultTicker is the ledger currency used when none is configured.
const DefaultTicker = "FTM"

// GenesisState is the app_state section of the genesis file.
type GenesisState struct {
	Cash  []cash.GenesisAccount `json:"cash"`
	Grant *grant.Genesis        `json:"grant"`
}

// GenInitOptions produces the app_state for a ledger owned by given
// address. Every wallet is funded with given coins at genesis.
func GenInitOptions(owner weave.Address, ticker string, wallets []cash.GenesisAccount) (json.RawMessage, error) {
	if ticker == "" {
		ticker = DefaultTicker
	}
	if !coin.IsCC(ticker) {
		return nil, errors.Wrapf(errors.ErrCurrency, "invalid ticker %q", ticker)
	}
	if err := owner.Validate(); err != nil {
		return nil, errors.Wrap(err, "owner")
	}
	if wallets == nil {
		wallets = []cash.GenesisAccount{}
	}
	state := GenesisState{
		Cash: wallets,
		Grant: &grant.Genesis{
			Owner:  owner,
			Ticker: ticker,
		},
	}
	raw, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, err.Error())
	}
	return raw, nil
}

// ParseWallet reads a genesis account given as "<address>=<amount>", for
// example "bech32:tiov1...=100 FTM". Addresses use any format accepted by
// weave.ParseAddress.
func ParseWallet(raw string) (cash.GenesisAccount, error) {
	var acct cash.GenesisAccount
	i := strings.LastIndexByte(raw, '=')
	if i < 0 {
		return acct, errors.Wrapf(errors.ErrInput, "wallet %q: expected <address>=<amount>", raw)
	}
	addr, err := weave.ParseAddress(raw[:i])
	if err != nil {
		return acct, errors.Wrapf(err, "wallet %q", raw)
	}
	if err := addr.Validate(); err != nil {
		return acct, errors.Wrapf(err, "wallet %q", raw)
	}
	amount, err := coin.ParseHumanFormat(raw[i+1:])
	if err != nil {
		return acct, errors.Wrapf(err, "wallet %q", raw)
	}
	acct.Address = addr
	acct.Coins = []coin.Coin{amount}
	return acct, nil
}
