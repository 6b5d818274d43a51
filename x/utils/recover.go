package utils

import (
	weave "github.com/iov-one/grantd"
	"github.com/iov-one/grantd/errors"
)

// Recovery converts a panic raised further down the stack into an
// errors.ErrPanic failure. It must wrap Savepoint so that state written
// before the panic is discarded.
type Recovery struct{}

var _ weave.Decorator = Recovery{}

func NewRecovery() Recovery {
	return Recovery{}
}

func (Recovery) Check(ctx weave.Context, store weave.KVStore, tx weave.Tx, next weave.Checker) (res *weave.CheckResult, err error) {
	defer errors.Recover(&err)
	res, err = next.Check(ctx, store, tx)
	return res, err
}

func (Recovery) Deliver(ctx weave.Context, store weave.KVStore, tx weave.Tx, next weave.Deliverer) (res *weave.DeliverResult, err error) {
	defer errors.Recover(&err)
	res, err = next.Deliver(ctx, store, tx)
	return res, err
}
