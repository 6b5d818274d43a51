package utils

import (
	weave "github.com/iov-one/grantd"
	"github.com/iov-one/grantd/errors"
)

// Savepoint runs the rest of the stack on a cache of the store. The cache is
// written back only when the call succeeds, so a rejected grant message
// leaves no partial state behind. Each phase must be enabled explicitly.
type Savepoint struct {
	onCheck   bool
	onDeliver bool
}

var _ weave.Decorator = Savepoint{}

// NewSavepoint returns a Savepoint that is active for neither phase.
func NewSavepoint() Savepoint {
	return Savepoint{}
}

func (s Savepoint) OnCheck() Savepoint {
	s.onCheck = true
	return s
}

func (s Savepoint) OnDeliver() Savepoint {
	s.onDeliver = true
	return s
}

func (s Savepoint) Check(ctx weave.Context, store weave.KVStore, tx weave.Tx, next weave.Checker) (*weave.CheckResult, error) {
	var res *weave.CheckResult
	err := isolate(s.onCheck, store, func(db weave.KVStore) (err error) {
		res, err = next.Check(ctx, db, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s Savepoint) Deliver(ctx weave.Context, store weave.KVStore, tx weave.Tx, next weave.Deliverer) (*weave.DeliverResult, error) {
	var res *weave.DeliverResult
	err := isolate(s.onDeliver, store, func(db weave.KVStore) (err error) {
		res, err = next.Deliver(ctx, db, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// isolate calls fn with a cache wrapped store when enabled and the store
// supports caching, otherwise with the store itself.
func isolate(enabled bool, store weave.KVStore, fn func(weave.KVStore) error) error {
	cstore, ok := store.(weave.CacheableKVStore)
	if !enabled || !ok {
		return fn(store)
	}
	cache := cstore.CacheWrap()
	if err := fn(cache); err != nil {
		cache.Discard()
		return err
	}
	if err := cache.Write(); err != nil {
		return errors.Wrap(err, "write savepoint")
	}
	return nil
}
