package weavetest

import (
	"context"

	weave "github.com/iov-one/grantd"
)

// Auth is an x.Authenticator that authenticates a fixed set of conditions,
// whatever the context. Signer and Signers are combined, Signer comes last.
type Auth struct {
	Signer  weave.Condition
	Signers []weave.Condition
}

func (a *Auth) GetConditions(weave.Context) []weave.Condition {
	if a.Signer == nil {
		return a.Signers
	}
	conds := make([]weave.Condition, 0, len(a.Signers)+1)
	conds = append(conds, a.Signers...)
	return append(conds, a.Signer)
}

func (a *Auth) HasAddress(ctx weave.Context, addr weave.Address) bool {
	return hasAddress(a.GetConditions(ctx), addr)
}

// CtxAuth is an x.Authenticator reading conditions stored in the context
// under Key. Two CtxAuth with different keys do not see each other's
// conditions.
type CtxAuth struct {
	Key string
}

type ctxAuthKey string

// SetConditions returns a context authenticating given conditions.
func (a *CtxAuth) SetConditions(ctx weave.Context, conds ...weave.Condition) weave.Context {
	return context.WithValue(ctx, ctxAuthKey(a.Key), conds)
}

func (a *CtxAuth) GetConditions(ctx weave.Context) []weave.Condition {
	conds, _ := ctx.Value(ctxAuthKey(a.Key)).([]weave.Condition)
	return conds
}

func (a *CtxAuth) HasAddress(ctx weave.Context, addr weave.Address) bool {
	return hasAddress(a.GetConditions(ctx), addr)
}

func hasAddress(conds []weave.Condition, addr weave.Address) bool {
	for _, c := range conds {
		if addr.Equals(c.Address()) {
			return true
		}
	}
	return false
}
