package utils

import (
	weave "github.com/iov-one/grantd"
	"github.com/tendermint/tendermint/libs/common"
)

const (
	// ActionKey tags a delivered transaction with its full message path.
	ActionKey = "action"
	// ModuleKey tags a delivered transaction with the extension that
	// handled it, so clients can subscribe to all grant activity at once.
	ModuleKey = "module"
)

// ActionTagger tags every successful delivery with the message path and
// the name of the extension it was routed to.
type ActionTagger struct{}

var _ weave.Decorator = ActionTagger{}

func NewActionTagger() ActionTagger {
	return ActionTagger{}
}

func (ActionTagger) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx, next weave.Checker) (*weave.CheckResult, error) {
	return next.Check(ctx, db, tx)
}

func (ActionTagger) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx, next weave.Deliverer) (*weave.DeliverResult, error) {
	// A transaction without a message cannot be routed, fail before
	// anything is executed.
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, err
	}
	res, err := next.Deliver(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	path := msg.Path()
	res.Tags = append(res.Tags,
		common.KVPair{Key: []byte(ActionKey), Value: []byte(path)},
		common.KVPair{Key: []byte(ModuleKey), Value: []byte(msgModule(path))},
	)
	return res, nil
}
