package cash

import (
	weave "github.com/iov-one/grantd"
	"github.com/iov-one/grantd/coin"
	"github.com/iov-one/grantd/errors"
)

// CoinMover is an interface for moving coins between accounts.
type CoinMover interface {
	// MoveCoins removes funds from the source account and adds them to the
	// destination account. This operation is atomic.
	MoveCoins(store weave.KVStore, src weave.Address, dest weave.Address, amount coin.Coin) error
}

// Controller is the functionality needed by cash.Handler and other
// extensions that hold value.
type Controller interface {
	CoinMover
	// Balance returns the amount of given ticker held by the account.
	Balance(store weave.ReadOnlyKVStore, addr weave.Address, ticker string) (coin.Coin, error)
	// IssueCoins adds the amount to the destination account.
	IssueCoins(store weave.KVStore, dest weave.Address, amount coin.Coin) error
}

// BaseController is a simple implementation of controller
// wallet must return something that supports AsSet
type BaseController struct {
	bucket Bucket
}

var _ Controller = BaseController{}

// NewController returns a base controller
func NewController(bucket Bucket) BaseController {
	return BaseController{bucket: bucket}
}

// Balance returns the amount of given ticker held by the account. An
// unknown account holds nothing.
func (c BaseController) Balance(store weave.ReadOnlyKVStore, addr weave.Address, ticker string) (coin.Coin, error) {
	set, err := c.bucket.Get(store, addr)
	if err != nil {
		return coin.Coin{}, err
	}
	if set == nil {
		return coin.Coin{Ticker: ticker}, nil
	}
	return set.Balance(ticker), nil
}

// MoveCoins moves the given amount from src to dest.
// If src doesn't exist, or doesn't have sufficient
// coins, it fails.
func (c BaseController) MoveCoins(store weave.KVStore, src weave.Address, dest weave.Address, amount coin.Coin) error {
	if !amount.IsPositive() {
		return errors.Wrapf(errors.ErrAmount, "non-positive amount %s", amount)
	}
	if err := amount.Validate(); err != nil {
		return errors.Wrap(err, "amount")
	}

	sender, err := c.bucket.Get(store, src)
	if err != nil {
		return err
	}
	if sender == nil {
		return errors.Wrapf(errors.ErrEmpty, "empty account %s", src)
	}
	if !sender.Contains(amount) {
		return errors.Wrapf(errors.ErrInsufficientAmount, "%s holds less than %s", src, amount)
	}
	if err := sender.Subtract(amount); err != nil {
		return err
	}
	if err := c.bucket.Put(store, src, sender); err != nil {
		return errors.Wrap(err, "save sender")
	}

	// Recipient is loaded after the sender is saved, so moving coins to
	// the same address does not create value.
	recipient, err := c.bucket.GetOrCreate(store, dest)
	if err != nil {
		return err
	}
	if err := recipient.Add(amount); err != nil {
		return err
	}
	if err := c.bucket.Put(store, dest, recipient); err != nil {
		return errors.Wrap(err, "save recipient")
	}
	return nil
}

// IssueCoins attempts to add the given amount of coins to
// the destination address. Fails if it overflows the wallet.
//
// Note the amount may also be negative:
// "the lord giveth and the lord taketh away"
func (c BaseController) IssueCoins(store weave.KVStore, dest weave.Address, amount coin.Coin) error {
	if err := amount.Validate(); err != nil {
		return errors.Wrap(err, "amount")
	}
	recipient, err := c.bucket.GetOrCreate(store, dest)
	if err != nil {
		return err
	}
	if err := recipient.Add(amount); err != nil {
		return err
	}
	if !coin.Coins(recipient.Coins).IsNonNegative() {
		return errors.Wrap(errors.ErrInsufficientAmount, "wallet balance cannot be negative")
	}
	return c.bucket.Put(store, dest, recipient)
}
