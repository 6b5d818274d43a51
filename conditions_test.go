package weave_test

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"testing"

	weave "github.com/iov-one/grantd"
	"github.com/iov-one/grantd/errors"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressPrinting(t *testing.T) {
	Convey("test hexademical address printing", t, func() {
		b := []byte("ABCD123456LHB")
		addr := weave.Address(b)

		So(addr.String(), ShouldEqual, fmt.Sprintf("%X", b))
		So(weave.Address(nil).String(), ShouldEqual, "(nil)")
	})

	Convey("test hexademical condition printing", t, func() {
		cond := weave.NewCondition("grant", "ledger", []byte("custody"))

		So(cond.String(), ShouldEqual, "grant/ledger/"+fmt.Sprintf("%X", "custody"))
		So(weave.Condition("no separators").String(), ShouldStartWith, "Invalid Condition")
	})
}

func TestConditionAddress(t *testing.T) {
	Convey("conditions map to fixed size addresses", t, func() {
		a := weave.NewCondition("grant", "ledger", []byte("custody"))
		b := weave.NewCondition("grant", "ledger", []byte("other"))

		So(len(a.Address()), ShouldEqual, weave.AddressLength)
		So(a.Address().Validate(), ShouldBeNil)
		So(a.Address().Equals(a.Address()), ShouldBeTrue)
		So(a.Address().Equals(b.Address()), ShouldBeFalse)
	})

	Convey("conditions parse into their sections", t, func() {
		ext, typ, data, err := weave.NewCondition("sigs", "ed25519", []byte{1, 2}).Parse()
		So(err, ShouldBeNil)
		So(ext, ShouldEqual, "sigs")
		So(typ, ShouldEqual, "ed25519")
		So(data, ShouldResemble, []byte{1, 2})

		_, _, _, err = weave.Condition("x/y").Parse()
		So(errors.ErrInput.Is(err), ShouldBeTrue)
	})
}

func TestAddressUnmarshalJSON(t *testing.T) {
	raw := []byte("twenty-byte-address!")
	enc := hex.EncodeToString(raw)

	cases := map[string]struct {
		json     string
		wantErr  *errors.Error
		wantAddr weave.Address
	}{
		"default decoding": {
			json:     `"` + enc + `"`,
			wantAddr: weave.Address(raw),
		},
		"upper case decoding": {
			json:     `"` + strings.ToUpper(enc) + `"`,
			wantAddr: weave.Address(raw),
		},
		"hex decoding": {
			json:     `"hex:` + enc + `"`,
			wantAddr: weave.Address(raw),
		},
		"cond decoding": {
			json:     `"cond:foo/bar/636f6e646974696f6e64617461"`,
			wantAddr: weave.NewCondition("foo", "bar", []byte("conditiondata")).Address(),
		},
		"short address": {
			json:    `"6865782d61646472"`,
			wantErr: errors.ErrInput,
		},
		"invalid condition format": {
			json:    `"cond:foo/636f6e646974696f6e64617461"`,
			wantErr: errors.ErrInput,
		},
		"invalid condition data": {
			json:    `"cond:foo/bar/zzzzz"`,
			wantErr: errors.ErrInput,
		},
		"unknown format": {
			json:    `"foobar:xxx"`,
			wantErr: errors.ErrType,
		},
		"zero address": {
			json:     `""`,
			wantAddr: nil,
		},
		"zero hex address": {
			json:     `"hex:"`,
			wantAddr: nil,
		},
		"zero cond address": {
			json:     `"cond:"`,
			wantAddr: nil,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			var a weave.Address
			err := json.Unmarshal([]byte(tc.json), &a)
			if !tc.wantErr.Is(err) {
				t.Fatalf("got error: %+v", err)
			}
			if err == nil && !reflect.DeepEqual(a, tc.wantAddr) {
				t.Fatalf("got address: %q", a)
			}
		})
	}
}

func TestAddressJSONRoundTrip(t *testing.T) {
	addr := weave.NewCondition("grant", "ledger", []byte("custody")).Address()
	raw, err := json.Marshal(addr)
	require.NoError(t, err)
	assert.Equal(t, `"`+addr.String()+`"`, string(raw))

	var got weave.Address
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, addr, got)
}

func TestAddressBech32(t *testing.T) {
	addr := weave.NewCondition("grant", "ledger", []byte("custody")).Address()
	enc, err := addr.Bech32String("grant")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(enc, "grant1"))

	got, err := weave.ParseAddress("bech32:" + enc)
	require.NoError(t, err)
	assert.Equal(t, addr, got)

	_, err = weave.ParseAddress("bech32:grant1invalid")
	assert.True(t, errors.ErrInput.Is(err))
}

func TestConditionUnmarshalJSON(t *testing.T) {
	cases := map[string]struct {
		json          string
		wantErr       *errors.Error
		wantCondition weave.Condition
	}{
		"default decoding": {
			json:          `"foo/bar/636f6e646974696f6e64617461"`,
			wantCondition: weave.NewCondition("foo", "bar", []byte("conditiondata")),
		},
		"invalid condition format": {
			json:    `"foo/636f6e646974696f6e64617461"`,
			wantErr: errors.ErrInput,
		},
		"invalid condition data": {
			json:    `"foo/bar/zzzzz"`,
			wantErr: errors.ErrInput,
		},
		"zero address": {
			json:          `""`,
			wantCondition: nil,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			var got weave.Condition
			err := json.Unmarshal([]byte(tc.json), &got)
			if !tc.wantErr.Is(err) {
				t.Fatalf("got error: %+v", err)
			}
			if err == nil && !got.Equals(tc.wantCondition) {
				t.Fatalf("expected %q but got condition: %q", tc.wantCondition, got)
			}
		})
	}
}

func TestConditionMarshalJSON(t *testing.T) {
	cases := map[string]struct {
		source   weave.Condition
		wantJson string
	}{
		"cond encoding": {
			source:   weave.NewCondition("foo", "bar", []byte("conditiondata")),
			wantJson: `"foo/bar/636F6E646974696F6E64617461"`,
		},
		"nil encoding": {
			source:   nil,
			wantJson: `""`,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			got, err := json.Marshal(tc.source)
			require.NoError(t, err)
			assert.Equal(t, tc.wantJson, string(got))
		})
	}
}
