/*
Package grantd links together all the various components
to construct the grantd app.
*/
package grantd

import (
	"context"

	weave "github.com/iov-one/grantd"
	"github.com/iov-one/grantd/app"
	"github.com/iov-one/grantd/store"
	"github.com/iov-one/grantd/x"
	"github.com/iov-one/grantd/x/cash"
	"github.com/iov-one/grantd/x/grant"
	"github.com/iov-one/grantd/x/sigs"
	"github.com/iov-one/grantd/x/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/tendermint/tendermint/libs/log"
)

// Name is reported to tendermint on Info.
const Name = "grantd"

// Authenticator returns the typical authentication,
// just using public key signatures
func Authenticator() x.Authenticator {
	return x.ChainAuth(sigs.Authenticate{})
}

// Chain returns a chain of decorators, to handle authentication,
// logging, metrics and recovery. reg may be nil to skip metrics.
func Chain(reg prometheus.Registerer) app.Decorators {
	var metrics weave.Decorator
	if reg != nil {
		metrics = utils.NewMetrics(reg)
	}
	return app.ChainDecorators(
		utils.NewLogging(),
		utils.NewRecovery(),
		metrics,
		// on CheckTx, bad tx don't affect state
		utils.NewSavepoint().OnCheck(),
		sigs.NewDecorator(),
		utils.NewActionTagger(),
		// on DeliverTx, bad tx will increment nonce
		// even if the message fails
		utils.NewSavepoint().OnDeliver(),
	)
}

// Router returns a default router, dispatching to cash and grant handlers.
// Plain sends into the ledger custody are refused, the ledger must see every
// coin it holds.
func Router(authFn x.Authenticator) *app.Router {
	r := app.NewRouter()
	ctrl := cash.NewController(cash.NewBucket())
	cash.RegisterRoutes(r, authFn, ctrl, grant.CustodyAddress)
	grant.RegisterRoutes(r, authFn, ctrl)
	return r
}

// QueryRouter returns a default query router,
// allowing access to "/wallets", "/auth", "/proposals", "/ledger" and
// "/pools"
func QueryRouter() weave.QueryRouter {
	r := weave.NewQueryRouter()
	r.RegisterAll(
		cash.RegisterQuery,
		sigs.RegisterQuery,
		grant.RegisterQuery,
	)
	return r
}

// Stack wires up a standard router with a standard decorator
// chain. This can be passed into BaseApp.
func Stack(reg prometheus.Registerer) weave.Handler {
	authFn := Authenticator()
	return Chain(reg).WithHandler(Router(authFn))
}

// Initializers returns the genesis loaders of all extensions.
func Initializers() weave.Initializer {
	return weave.ChainInitializers(
		cash.Initializer{Reserved: []weave.Address{grant.CustodyAddress}},
		grant.Initializer{},
	)
}

// Application constructs a basic ABCI application with
// the given arguments. If you are not sure what to use
// for the Handler, just use Stack().
//
// State is kept in memory and lost on restart.
func Application(name string, h weave.Handler, tx weave.TxDecoder, logger log.Logger, debug bool) app.BaseApp {
	ctx := context.Background()
	storeApp := app.NewStoreApp(name, store.NewBTreeStore(), QueryRouter(), ctx).
		WithInit(Initializers()).
		WithLogger(logger)
	return app.NewBaseApp(storeApp, tx, h, debug)
}
