package utils

import (
	"time"

	weave "github.com/iov-one/grantd"
	"github.com/iov-one/grantd/errors"
	"github.com/tendermint/tendermint/libs/common"
)

// Logging writes one entry per processed transaction. Successful checks are
// logged at debug level, successful deliveries at info level and every
// failure at error level. Delivery entries carry the result tags, so a funded
// proposal can be followed in the node log by its proposal-id.
type Logging struct{}

var _ weave.Decorator = Logging{}

func NewLogging() Logging {
	return Logging{}
}

func (Logging) Check(ctx weave.Context, store weave.KVStore, tx weave.Tx, next weave.Checker) (*weave.CheckResult, error) {
	start := time.Now()
	res, err := next.Check(ctx, store, tx)
	keyvals := []interface{}{"phase", "check", "path", msgPath(tx), "duration", time.Since(start)}
	if err == nil {
		weave.GetLogger(ctx).Debug(res.Log, keyvals...)
	} else {
		logFailure(ctx, keyvals, err)
	}
	return res, err
}

func (Logging) Deliver(ctx weave.Context, store weave.KVStore, tx weave.Tx, next weave.Deliverer) (*weave.DeliverResult, error) {
	start := time.Now()
	res, err := next.Deliver(ctx, store, tx)
	keyvals := []interface{}{"phase", "deliver", "path", msgPath(tx), "duration", time.Since(start)}
	if err == nil {
		weave.GetLogger(ctx).Info(res.Log, appendTags(keyvals, res.Tags)...)
	} else {
		logFailure(ctx, keyvals, err)
	}
	return res, err
}

func logFailure(ctx weave.Context, keyvals []interface{}, err error) {
	code, _ := errors.ABCIInfo(err, false)
	weave.GetLogger(ctx).Error("tx failed", append(keyvals, "code", code, "err", err)...)
}

func appendTags(keyvals []interface{}, tags []common.KVPair) []interface{} {
	for _, t := range tags {
		keyvals = append(keyvals, string(t.Key), string(t.Value))
	}
	return keyvals
}
