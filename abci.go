package weave

import (
	"github.com/iov-one/grantd/errors"
	abci "github.com/tendermint/tendermint/abci/types"
	"github.com/tendermint/tendermint/libs/common"
)

// DeliverResult is returned by a successful Deliver call. Failures are
// always reported as errors.
type DeliverResult struct {
	// Data is returned to the client, for example the id of a created
	// proposal.
	Data []byte
	Log  string
	// Tags index the transaction in tendermint, so clients can search by
	// proposal id or signer.
	Tags []common.KVPair
}

// ToABCI converts the result into a DeliverTx response.
func (d DeliverResult) ToABCI() abci.ResponseDeliverTx {
	return abci.ResponseDeliverTx{Data: d.Data, Log: d.Log, Tags: d.Tags}
}

// CheckResult is returned by a successful Check call.
type CheckResult struct {
	Data []byte
	Log  string
	// GasAllocated is the amount of work the transaction is expected to
	// take. It is reported to tendermint as gas wanted.
	GasAllocated int64
}

// NewCheck returns a CheckResult with given gas and log.
func NewCheck(gasAllocated int64, log string) CheckResult {
	return CheckResult{GasAllocated: gasAllocated, Log: log}
}

// ToABCI converts the result into a CheckTx response.
func (c CheckResult) ToABCI() abci.ResponseCheckTx {
	return abci.ResponseCheckTx{Data: c.Data, Log: c.Log, GasWanted: c.GasAllocated}
}

// DeliverOrError returns the DeliverTx response for the outcome of a Deliver
// call.
func DeliverOrError(result *DeliverResult, err error, debug bool) abci.ResponseDeliverTx {
	if err != nil {
		return DeliverTxError(err, debug)
	}
	return result.ToABCI()
}

// CheckOrError returns the CheckTx response for the outcome of a Check call.
func CheckOrError(result *CheckResult, err error, debug bool) abci.ResponseCheckTx {
	if err != nil {
		return CheckTxError(err, debug)
	}
	return result.ToABCI()
}

// DeliverTxError converts err into a failed DeliverTx response. Outside of
// debug mode internal errors are reported without details.
func DeliverTxError(err error, debug bool) abci.ResponseDeliverTx {
	code, log := failure("deliver", err, debug)
	return abci.ResponseDeliverTx{Code: code, Log: log}
}

// CheckTxError converts err into a failed CheckTx response. Outside of
// debug mode internal errors are reported without details.
func CheckTxError(err error, debug bool) abci.ResponseCheckTx {
	code, log := failure("check", err, debug)
	return abci.ResponseCheckTx{Code: code, Log: log}
}

func failure(phase string, err error, debug bool) (uint32, string) {
	code, log := errors.ABCIInfo(err, debug)
	if code == errors.SuccessABCICode {
		return code, log
	}
	return code, "cannot " + phase + " tx: " + log
}

// ParseDeliverOrError turns a DeliverTx response back into a result, or into
// the registered error matching its code.
func ParseDeliverOrError(res abci.ResponseDeliverTx) (*DeliverResult, error) {
	if res.Code != errors.SuccessABCICode {
		return nil, errors.ABCIError(res.Code, res.Log)
	}
	return &DeliverResult{Data: res.Data, Log: res.Log, Tags: res.Tags}, nil
}
