package weavetest

import (
	"crypto/rand"
	"encoding/hex"
	"testing"

	weave "github.com/iov-one/grantd"
)

// ParseAddress parses any text form weave.ParseAddress accepts and fails the
// test on error.
func ParseAddress(t testing.TB, encoded string) weave.Address {
	t.Helper()
	addr, err := weave.ParseAddress(encoded)
	if err != nil {
		t.Fatalf("parse address %q: %s", encoded, err)
	}
	return validAddress(t, addr)
}

// DecodeAddr decodes a plain hex address.
func DecodeAddr(t testing.TB, encoded string) weave.Address {
	t.Helper()
	raw, err := hex.DecodeString(encoded)
	if err != nil {
		t.Fatalf("decode address %q: %s", encoded, err)
	}
	return validAddress(t, raw)
}

// RandomAddr returns an address not derived from any key, useful as a
// wallet nobody can sign for.
func RandomAddr(t testing.TB) weave.Address {
	t.Helper()
	raw := make([]byte, weave.AddressLength)
	if _, err := rand.Read(raw); err != nil {
		t.Fatalf("random address: %s", err)
	}
	return validAddress(t, raw)
}

func validAddress(t testing.TB, raw []byte) weave.Address {
	t.Helper()
	addr := weave.Address(raw)
	if err := addr.Validate(); err != nil {
		t.Fatalf("invalid address %X: %s", raw, err)
	}
	return addr
}
