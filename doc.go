/*
Package weave holds the interfaces shared by every part of grantd: messages
and transactions, handlers and decorators, the key value store, addresses
and conditions, and the context helpers carrying block data and the logger.

Extensions under x/ implement handlers for their messages. The app package
puts them behind a decorator chain and exposes the result over ABCI.
*/
package weave
