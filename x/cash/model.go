package cash

import (
	"github.com/gogo/protobuf/proto"
	weave "github.com/iov-one/grantd"
	"github.com/iov-one/grantd/coin"
	"github.com/iov-one/grantd/errors"
	"github.com/iov-one/grantd/orm"
)

// BucketName is where we store the balances
const BucketName = "cash"

// Set may contain Coin of many different currencies.
// It handles adding and subtracting sets of currencies.
type Set struct {
	Metadata *weave.Metadata `protobuf:"bytes,1,opt,name=metadata" json:"metadata,omitempty"`
	Coins    []*coin.Coin    `protobuf:"bytes,2,rep,name=coins" json:"coins,omitempty"`
}

func (m *Set) Reset()         { *m = Set{} }
func (m *Set) String() string { return proto.CompactTextString(m) }
func (*Set) ProtoMessage()    {}

var _ orm.Model = (*Set)(nil)

// Validate requires that all coins are in alphabetical order, unique and
// non zero.
func (s *Set) Validate() error {
	if err := s.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	return coin.Coins(s.Coins).Validate()
}

// Balance returns the amount of given ticker held in the set.
func (s *Set) Balance(ticker string) coin.Coin {
	return coin.Coins(s.Coins).Balance(ticker)
}

// Contains returns true if there is at least that much coin in the set.
func (s *Set) Contains(c coin.Coin) bool {
	return coin.Coins(s.Coins).Contains(c)
}

// IsEmpty returns true if the set holds no coins.
func (s *Set) IsEmpty() bool {
	return len(s.Coins) == 0
}

// Add modifies the set to add Coin c
func (s *Set) Add(c coin.Coin) error {
	cs, err := coin.Coins(s.Coins).Add(c)
	if err != nil {
		return err
	}
	s.Coins = cs
	return nil
}

// Subtract modifies the set to remove Coin c
func (s *Set) Subtract(c coin.Coin) error {
	return s.Add(c.Negative())
}

// Bucket is a type-safe wrapper around orm.ModelBucket storing a Set for
// each wallet address.
type Bucket struct {
	orm.ModelBucket
}

// NewBucket initializes a cash.Bucket with default name
func NewBucket() Bucket {
	return Bucket{ModelBucket: orm.NewModelBucket(BucketName)}
}

// Get returns the wallet stored under given address or nil if there is
// none.
func (b Bucket) Get(db weave.ReadOnlyKVStore, addr weave.Address) (*Set, error) {
	var set Set
	switch err := b.One(db, addr, &set); {
	case err == nil:
		return &set, nil
	case errors.ErrNotFound.Is(err):
		return nil, nil
	default:
		return nil, err
	}
}

// GetOrCreate returns the wallet stored under given address or a new empty
// one.
func (b Bucket) GetOrCreate(db weave.ReadOnlyKVStore, addr weave.Address) (*Set, error) {
	set, err := b.Get(db, addr)
	if err != nil {
		return nil, err
	}
	if set == nil {
		set = &Set{Metadata: &weave.Metadata{Schema: 1}}
	}
	return set, nil
}
