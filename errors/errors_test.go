package errors

import (
	stdlib "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/pkg/errors"
)

func TestCause(t *testing.T) {
	std := stdlib.New("this is a stdlib error")

	cases := map[string]struct {
		err  error
		root error
	}{
		"Errors are self-causing": {
			err:  ErrNotFound,
			root: ErrNotFound,
		},
		"Wrap reveals root cause": {
			err:  Wrap(ErrNotFound, "foo"),
			root: ErrNotFound,
		},
		"Cause works for stderr as root": {
			err:  Wrap(std, "Some helpful text"),
			root: std,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			if got := errors.Cause(tc.err); got != tc.root {
				t.Fatal("unexpected result")
			}
		})
	}
}

func TestErrorIs(t *testing.T) {
	cases := map[string]struct {
		a      *Error
		b      error
		wantIs bool
	}{
		"instance of the same error": {
			a:      ErrNotFound,
			b:      ErrNotFound,
			wantIs: true,
		},
		"two different coded errors": {
			a:      ErrNotFound,
			b:      ErrModel,
			wantIs: false,
		},
		"successful comparison to a wrapped error": {
			a:      ErrNotFound,
			b:      errors.Wrap(ErrNotFound, "gone"),
			wantIs: true,
		},
		"unsuccessful comparison to a wrapped error": {
			a:      ErrNotFound,
			b:      errors.Wrap(ErrOverflow, "too big"),
			wantIs: false,
		},
		"not equal to stdlib error": {
			a:      ErrNotFound,
			b:      fmt.Errorf("stdlib error"),
			wantIs: false,
		},
		"not equal to a wrapped stdlib error": {
			a:      ErrNotFound,
			b:      errors.Wrap(fmt.Errorf("stdlib error"), "wrapped"),
			wantIs: false,
		},
		"nil is nil": {
			a:      nil,
			b:      nil,
			wantIs: true,
		},
		"nil is any error nil": {
			a:      nil,
			b:      (*customError)(nil),
			wantIs: true,
		},
		"nil is not not-nil": {
			a:      nil,
			b:      ErrNotFound,
			wantIs: false,
		},
		"not-nil is not nil": {
			a:      ErrNotFound,
			b:      nil,
			wantIs: false,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			if got := tc.a.Is(tc.b); got != tc.wantIs {
				t.Fatalf("unexpected result - got:%v want: %v", got, tc.wantIs)
			}
		})
	}
}

type customError struct {
}

func (customError) Error() string {
	return "custom error"
}

func TestWrapEmpty(t *testing.T) {
	if err := Wrap(nil, "wrapping <nil>"); err != nil {
		t.Fatal(err)
	}
}

func TestRegisterDuplicatedCode(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("registering a used code must panic")
		}
	}()
	Register(ErrNotFound.code, "shadow")
}

func TestRegisterInternalCode(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("registering code 1 must panic")
		}
	}()
	Register(internalABCICode, "internal")
}

func TestABCIErrorRestoresRootCause(t *testing.T) {
	err := ABCIError(ErrUnauthorized.code, "owner only")
	if !ErrUnauthorized.Is(err) {
		t.Fatalf("want unauthorized, got %+v", err)
	}
	unknown := ABCIError(424242, "who knows")
	if ErrUnauthorized.Is(unknown) || ErrNotFound.Is(unknown) {
		t.Fatalf("unknown code matched a registered error: %v", unknown)
	}
}

func TestRecover(t *testing.T) {
	fn := func() (err error) {
		defer Recover(&err)
		panic("boom")
	}
	err := fn()
	if !ErrPanic.Is(err) {
		t.Fatalf("want panic error, got %+v", err)
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Fatalf("panic message lost: %q", err)
	}
}

func TestWrapAttachesStackOnce(t *testing.T) {
	err := Wrap(Wrap(ErrState, "inner"), "outer")
	if stackTrace(err) == nil {
		t.Fatal("missing stack trace")
	}
	full := fmt.Sprintf("%+v", err)
	if !strings.HasPrefix(full, "outer: inner: invalid state") {
		t.Fatalf("unexpected verbose format: %q", full)
	}
	if got := fmt.Sprintf("%v", err); got != "outer: inner: invalid state" {
		t.Fatalf("unexpected format: %q", got)
	}
}
