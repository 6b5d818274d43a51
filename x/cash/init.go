/*
Package cash holds the wallets of every account and moves coins between them.

Other extensions never touch wallets directly. They hold value by moving it
through a Controller into an address they control.
*/
package cash

import (
	weave "github.com/iov-one/grantd"
	"github.com/iov-one/grantd/coin"
	"github.com/iov-one/grantd/errors"
)

const optKey = "cash"

// GenesisAccount is used to parse the json from genesis file
// use weave.Address, so address in hex, not base64
type GenesisAccount struct {
	Address weave.Address `json:"address"`
	Coins   []coin.Coin   `json:"coins"`
}

// Initializer fulfils the Initializer interface to load data from
// the genesis file. Genesis accounts cannot use a Reserved address.
type Initializer struct {
	Reserved []weave.Address
}

var _ weave.Initializer = Initializer{}

// FromGenesis will parse initial account info from genesis
// and save it to the database
func (i Initializer) FromGenesis(opts weave.Options, kv weave.KVStore) error {
	var accts []GenesisAccount
	if err := opts.ReadOptions(optKey, &accts); err != nil {
		return err
	}
	bucket := NewBucket()
	for _, acct := range accts {
		if err := acct.Address.Validate(); err != nil {
			return errors.Wrap(err, "genesis account address")
		}
		if isReserved(i.Reserved, acct.Address) {
			return errors.Wrapf(errors.ErrInput, "genesis account %s is reserved", acct.Address)
		}
		if err := bucket.Has(kv, acct.Address); err == nil {
			return errors.Wrapf(errors.ErrDuplicate, "genesis account %s", acct.Address)
		}
		coins, err := coin.CombineCoins(acct.Coins...)
		if err != nil {
			return errors.Wrapf(err, "genesis account %s coins", acct.Address)
		}
		if !coins.IsNonNegative() {
			return errors.Wrapf(errors.ErrAmount, "genesis account %s holds negative coins", acct.Address)
		}
		set := &Set{
			Metadata: &weave.Metadata{Schema: 1},
			Coins:    coins,
		}
		if err := bucket.Put(kv, acct.Address, set); err != nil {
			return err
		}
	}
	return nil
}
