package utils_test

import (
	"context"
	"testing"

	weave "github.com/iov-one/grantd"
	"github.com/iov-one/grantd/app"
	"github.com/iov-one/grantd/errors"
	"github.com/iov-one/grantd/store"
	"github.com/iov-one/grantd/weavetest"
	"github.com/iov-one/grantd/weavetest/assert"
	"github.com/iov-one/grantd/x/utils"
	"github.com/tendermint/tendermint/libs/common"
)

func stringTag(key, value string) common.KVPair {
	return common.KVPair{
		Key:   []byte(key),
		Value: []byte(value),
	}
}

func TestActionTagger(t *testing.T) {
	cases := map[string]struct {
		stack weave.Handler
		tx    weave.Tx
		err   *errors.Error
		tags  []common.KVPair
	}{
		"grant message": {
			stack: app.ChainDecorators(utils.NewActionTagger()).WithHandler(
				&weavetest.Handler{},
			),
			tx: &weavetest.Tx{Msg: &weavetest.Msg{RoutePath: "grant/create_proposal"}},
			tags: []common.KVPair{
				stringTag(utils.ActionKey, "grant/create_proposal"),
				stringTag(utils.ModuleKey, "grant"),
			},
		},
		"passes through error": {
			stack: app.ChainDecorators(utils.NewActionTagger()).WithHandler(
				&weavetest.Handler{DeliverErr: errors.ErrUnauthorized},
			),
			tx:  &weavetest.Tx{Msg: &weavetest.Msg{RoutePath: "grant/withdraw_funds"}},
			err: errors.ErrUnauthorized,
		},
		"path without module": {
			stack: app.ChainDecorators(utils.NewActionTagger()).WithHandler(
				&weavetest.Handler{},
			),
			tx: &weavetest.Tx{Msg: &weavetest.Msg{RoutePath: "ping"}},
			tags: []common.KVPair{
				stringTag(utils.ActionKey, "ping"),
				stringTag(utils.ModuleKey, "ping"),
			},
		},
		"tags are additive": {
			stack: app.ChainDecorators(utils.NewActionTagger()).WithHandler(
				&weavetest.Handler{
					DeliverResult: weave.DeliverResult{Tags: []common.KVPair{stringTag(utils.ActionKey, "random")}},
				},
			),
			tx: &weavetest.Tx{Msg: &weavetest.Msg{RoutePath: "cash/send"}},
			tags: []common.KVPair{
				stringTag(utils.ActionKey, "random"),
				stringTag(utils.ActionKey, "cash/send"),
				stringTag(utils.ModuleKey, "cash"),
			},
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := store.MemStore()

			res, err := tc.stack.Deliver(ctx, store, tc.tx)
			if tc.err != nil {
				if !tc.err.Is(err) {
					t.Fatalf("Unexpected error type returned: %v", err)
				}
				return
			}
			assert.Nil(t, err)
			assert.Equal(t, len(tc.tags), len(res.Tags))
			for i := range tc.tags {
				assert.Equal(t, string(tc.tags[i].Key), string(res.Tags[i].Key))
				assert.Equal(t, string(tc.tags[i].Value), string(res.Tags[i].Value))
			}
		})
	}
}
