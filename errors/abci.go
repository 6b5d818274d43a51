package errors

import "fmt"

const (
	// SuccessABCICode is the code of a successfully processed request.
	SuccessABCICode = 0

	// Errors that do not wrap a registered error are reported under a single
	// internal code with a generic log.
	internalABCICode uint32 = 1
	internalABCILog         = "internal error"
)

// ABCIInfo returns the code and log of an ABCI response for given error.
//
// Registered errors keep their code and message. Unregistered errors get
// code 1, and their message is replaced with "internal error". A recovered
// panic keeps its code but not its message. Debug mode reports the full
// message, including the stack trace when one was recorded.
func ABCIInfo(err error, debug bool) (uint32, string) {
	if isNilErr(err) {
		return SuccessABCICode, ""
	}
	code := abciCode(err)
	switch {
	case debug:
		return code, fmt.Sprintf("%+v", err)
	case code == internalABCICode:
		return code, internalABCILog
	case ErrPanic.Is(err):
		return code, ErrPanic.desc
	default:
		return code, err.Error()
	}
}

type coder interface {
	ABCICode() uint32
}

// abciCode returns the code of the first error in the chain that declares
// one.
func abciCode(err error) uint32 {
	for err != nil {
		if c, ok := err.(coder); ok {
			return c.ABCICode()
		}
		c, ok := err.(causer)
		if !ok {
			break
		}
		err = c.Cause()
	}
	return internalABCICode
}
