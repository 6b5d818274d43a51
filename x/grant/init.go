/*
Package grant implements the grant funding ledger.

Proposers register funding requests, anyone can vote on them and fund them
directly or through a per contributor pool, and the ledger owner can
withdraw the value held in custody. All attached value is moved into the
custody account through a cash.CoinMover.
*/
package grant

import (
	weave "github.com/iov-one/grantd"
	"github.com/iov-one/grantd/coin"
	"github.com/iov-one/grantd/errors"
	"github.com/iov-one/grantd/x/cash"
)

const optKey = "grant"

// Genesis is the "grant" section of the genesis file.
type Genesis struct {
	Owner  weave.Address `json:"owner"`
	Ticker string        `json:"ticker"`
}

// Initializer deploys the ledger from the genesis file.
type Initializer struct{}

var _ weave.Initializer = Initializer{}

// FromGenesis creates the ledger record. The ledger can be deployed only
// once.
func (Initializer) FromGenesis(opts weave.Options, db weave.KVStore) error {
	var gen *Genesis
	if err := opts.ReadOptions(optKey, &gen); err != nil {
		return err
	}
	if gen == nil {
		return nil
	}
	_, err := Deploy(db, gen.Owner, gen.Ticker)
	return err
}

// Deploy creates the ledger owned by given address that accepts value in
// given currency. The custody wallet must be empty, the ledger starts with
// a zero balance.
func Deploy(db weave.KVStore, owner weave.Address, ticker string) (*Ledger, error) {
	bucket := NewLedgerBucket()
	if err := bucket.Has(db, ledgerKey); err == nil {
		return nil, errors.Wrap(errors.ErrDuplicate, "ledger already deployed")
	}
	custody, err := cash.NewBucket().Get(db, CustodyAddress)
	if err != nil {
		return nil, errors.Wrap(err, "custody wallet")
	}
	if custody != nil && !custody.IsEmpty() {
		return nil, errors.Wrap(errors.ErrState, "custody wallet is not empty")
	}
	ledger := &Ledger{
		Metadata: &weave.Metadata{Schema: 1},
		Owner:    owner,
		Address:  CustodyAddress,
		Ticker:   ticker,
		Balance:  coin.NewCoinp(0, 0, ticker),
	}
	if err := bucket.Save(db, ledger); err != nil {
		return nil, errors.Wrap(err, "cannot deploy ledger")
	}
	return ledger, nil
}
