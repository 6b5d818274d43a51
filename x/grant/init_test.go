package grant

import (
	"encoding/json"
	"testing"

	weave "github.com/iov-one/grantd"
	"github.com/iov-one/grantd/coin"
	"github.com/iov-one/grantd/errors"
	"github.com/iov-one/grantd/store"
	"github.com/iov-one/grantd/weavetest"
	"github.com/iov-one/grantd/x/cash"
	. "github.com/smartystreets/goconvey/convey"
)

func TestGenesis(t *testing.T) {
	Convey("Test initializer", t, func() {
		owner := weavetest.NewCondition().Address()
		raw, err := json.Marshal(map[string]interface{}{
			"grant": Genesis{Owner: owner, Ticker: "FTM"},
		})
		So(err, ShouldBeNil)
		var opts weave.Options
		So(json.Unmarshal(raw, &opts), ShouldBeNil)

		db := store.MemStore()
		var init Initializer
		So(init.FromGenesis(opts, db), ShouldBeNil)

		Convey("The ledger is deployed", func() {
			l, err := NewKeeper().Ledger(db)
			So(err, ShouldBeNil)
			So(l.Owner, ShouldResemble, owner)
			So(l.Address, ShouldResemble, CustodyAddress)
			So(l.Ticker, ShouldEqual, "FTM")
			So(l.Balance.IsZero(), ShouldBeTrue)
			So(l.ProposalCount, ShouldEqual, 0)
			So(l.Releasing, ShouldBeFalse)
		})

		Convey("The ledger is deployed only once", func() {
			err := init.FromGenesis(opts, db)
			So(errors.ErrDuplicate.Is(err), ShouldBeTrue)
		})
	})

	Convey("Missing section deploys nothing", t, func() {
		db := store.MemStore()
		So(Initializer{}.FromGenesis(weave.Options{}, db), ShouldBeNil)
		_, err := NewKeeper().Ledger(db)
		So(errors.ErrState.Is(err), ShouldBeTrue)
	})

	Convey("Value already in custody blocks deployment", t, func() {
		db := store.MemStore()
		bank := cash.NewController(cash.NewBucket())
		So(bank.IssueCoins(db, CustodyAddress, coin.NewCoin(30, 0, "FTM")), ShouldBeNil)
		_, err := Deploy(db, weavetest.NewCondition().Address(), "FTM")
		So(errors.ErrState.Is(err), ShouldBeTrue)
		_, err = NewKeeper().Ledger(db)
		So(errors.ErrState.Is(err), ShouldBeTrue)
	})

	Convey("Invalid ticker is rejected", t, func() {
		db := store.MemStore()
		_, err := Deploy(db, weavetest.NewCondition().Address(), "ftm")
		So(errors.ErrCurrency.Is(err), ShouldBeTrue)
	})
}
