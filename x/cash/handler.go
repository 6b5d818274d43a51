package cash

import (
	weave "github.com/iov-one/grantd"
	"github.com/iov-one/grantd/errors"
	"github.com/iov-one/grantd/orm"
	"github.com/iov-one/grantd/x"
)

// RegisterRoutes will instantiate and register
// all handlers in this package. Reserved addresses cannot receive a send.
func RegisterRoutes(r weave.Registry, auth x.Authenticator, control Controller, reserved ...weave.Address) {
	r.Handle(&SendMsg{}, NewSendHandler(auth, control, reserved...))
}

// RegisterQuery will register this bucket as "/wallets"
func RegisterQuery(qr weave.QueryRouter) {
	orm.Register(BucketName, "wallets", qr)
}

// SendHandler will handle sending coins
type SendHandler struct {
	auth     x.Authenticator
	control  Controller
	reserved []weave.Address
}

var _ weave.Handler = SendHandler{}

// NewSendHandler creates a handler for SendMsg. Reserved addresses belong
// to other extensions which account for every coin they hold, so they only
// receive value through those extensions.
func NewSendHandler(auth x.Authenticator, control Controller, reserved ...weave.Address) SendHandler {
	return SendHandler{
		auth:     auth,
		control:  control,
		reserved: reserved,
	}
}

// Check just verifies it is properly formed and returns
// the cost of executing it
func (h SendHandler) Check(ctx weave.Context, store weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if _, err := h.validate(ctx, tx); err != nil {
		return nil, err
	}
	res := weave.NewCheck(sendTxCost, "")
	return &res, nil
}

// Deliver moves the tokens from source to receiver if
// all preconditions are met
func (h SendHandler) Deliver(ctx weave.Context, store weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	msg, err := h.validate(ctx, tx)
	if err != nil {
		return nil, err
	}
	if err := h.control.MoveCoins(store, msg.Source, msg.Destination, *msg.Amount); err != nil {
		return nil, err
	}
	return &weave.DeliverResult{}, nil
}

func (h SendHandler) validate(ctx weave.Context, tx weave.Tx) (*SendMsg, error) {
	var msg SendMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	// Make sure we have permission from the source.
	if !h.auth.HasAddress(ctx, msg.Source) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "account owner signature missing")
	}
	if isReserved(h.reserved, msg.Destination) {
		return nil, errors.Wrapf(errors.ErrInput, "destination %s is reserved", msg.Destination)
	}
	return &msg, nil
}

func isReserved(reserved []weave.Address, addr weave.Address) bool {
	for _, r := range reserved {
		if r.Equals(addr) {
			return true
		}
	}
	return false
}
