package grant

import "github.com/iov-one/grantd/errors"

// ErrInsufficientBalance is returned when a withdrawal requests more than
// the ledger holds.
var ErrInsufficientBalance = errors.Register(1000, "insufficient ledger balance")
