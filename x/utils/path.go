package utils

import (
	"strings"

	weave "github.com/iov-one/grantd"
)

const missingPath = "(missing)"

// msgPath returns the path of the message carried by tx. Decorators may be
// called with a nil transaction in tests.
func msgPath(tx weave.Tx) string {
	if tx == nil {
		return missingPath
	}
	return weave.GetPath(tx)
}

// msgModule returns the extension part of a message path, for example
// "grant" for "grant/fund_project".
func msgModule(path string) string {
	if i := strings.IndexByte(path, '/'); i > 0 {
		return path[:i]
	}
	return path
}
