package weave_test

import (
	"fmt"
	"testing"

	weave "github.com/iov-one/grantd"
	"github.com/iov-one/grantd/errors"
	"github.com/stretchr/testify/assert"
	"github.com/tendermint/tendermint/libs/common"
)

func TestDeliverTxError(t *testing.T) {
	cases := map[string]struct {
		err      error
		debug    bool
		wantCode uint32
		wantLog  string
	}{
		"registered error": {
			err:      errors.Wrap(errors.ErrUnauthorized, "no signer"),
			wantCode: errors.ErrUnauthorized.ABCICode(),
			wantLog:  "cannot deliver tx: no signer: unauthorized",
		},
		"internal error is redacted": {
			err:      fmt.Errorf("disk on fire"),
			wantCode: 1,
			wantLog:  "cannot deliver tx: internal error",
		},
		"panic message is not exposed": {
			err:      errors.Wrap(errors.ErrPanic, "nil pointer in ledger"),
			wantCode: errors.ErrPanic.ABCICode(),
			wantLog:  "cannot deliver tx: panic",
		},
		"internal error in debug mode": {
			err:      fmt.Errorf("disk on fire"),
			debug:    true,
			wantCode: 1,
			wantLog:  "cannot deliver tx: disk on fire",
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			res := weave.DeliverTxError(tc.err, tc.debug)
			assert.Equal(t, tc.wantCode, res.Code)
			assert.Equal(t, tc.wantLog, res.Log)

			check := weave.CheckTxError(tc.err, tc.debug)
			assert.Equal(t, tc.wantCode, check.Code)
		})
	}
}

func TestDeliverOrError(t *testing.T) {
	tags := []common.KVPair{{Key: []byte("proposal-id"), Value: []byte("1")}}
	res := weave.DeliverOrError(&weave.DeliverResult{Data: []byte{1}, Tags: tags}, nil, false)
	assert.Equal(t, uint32(0), res.Code)
	assert.Equal(t, []byte{1}, res.Data)
	assert.Equal(t, tags, res.Tags)

	parsed, err := weave.ParseDeliverOrError(res)
	assert.NoError(t, err)
	assert.Equal(t, tags, parsed.Tags)

	res = weave.DeliverOrError(nil, errors.Wrap(errors.ErrState, "ledger not deployed"), false)
	_, err = weave.ParseDeliverOrError(res)
	assert.True(t, errors.ErrState.Is(err))
}

func TestCheckOrError(t *testing.T) {
	ok := weave.NewCheck(100, "fine")
	res := weave.CheckOrError(&ok, nil, false)
	assert.Equal(t, uint32(0), res.Code)
	assert.Equal(t, int64(100), res.GasWanted)
	assert.Equal(t, "fine", res.Log)

	res = weave.CheckOrError(nil, errors.ErrAmount, false)
	assert.Equal(t, errors.ErrAmount.ABCICode(), res.Code)
	assert.Equal(t, "cannot check tx: invalid amount", res.Log)
	assert.Equal(t, int64(0), res.GasWanted)
}
