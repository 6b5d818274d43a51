/*
Package store provides the in-memory state backing the application.

BTreeStore is the committed root. BTreeCacheWrap layers a scratch pad on top
of any KVStore; all writes stay in the wrap until Write replays them into the
parent in order, or Discard drops them. Wraps may be nested to build
savepoints.
*/
package store

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"sync"

	"github.com/google/btree"
	weave "github.com/iov-one/grantd"
	"github.com/iov-one/grantd/errors"
)

const (
	// DefaultFreeListSize is the size we hold for free node in btree
	DefaultFreeListSize = btree.DefaultFreeListSize

	degree = 2
)

// MemStore returns a simple implementation useful for tests.
// There is no persistence here....
func MemStore() weave.CacheableKVStore {
	return NewBTreeStore()
}

// BTreeStore is the root, committed layer of the state. It is safe for
// concurrent use.
type BTreeStore struct {
	mu      sync.RWMutex
	bt      *btree.BTree
	free    *btree.FreeList
	version int64
	hash    []byte
}

var _ weave.CommitKVStore = (*BTreeStore)(nil)

// NewBTreeStore returns an empty store at version 0.
func NewBTreeStore() *BTreeStore {
	free := btree.NewFreeList(DefaultFreeListSize)
	return &BTreeStore{
		bt:   btree.NewWithFreeList(degree, free),
		free: free,
	}
}

// Get returns the value stored under given key or nil.
func (s *BTreeStore) Get(key []byte) ([]byte, error) {
	if key == nil {
		return nil, errors.Wrap(errors.ErrDatabase, "nil key")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := s.bt.Get(bkey{key})
	if res == nil {
		return nil, nil
	}
	item, ok := res.(setItem)
	if !ok {
		return nil, errors.Wrapf(errors.ErrDatabase, "unknown item in btree: %#v", res)
	}
	return item.value, nil
}

// Has returns true if a value is stored under given key.
func (s *BTreeStore) Has(key []byte) (bool, error) {
	if key == nil {
		return false, errors.Wrap(errors.ErrDatabase, "nil key")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bt.Has(bkey{key}), nil
}

// Set writes the value under given key, replacing any previous value.
func (s *BTreeStore) Set(key, value []byte) error {
	if key == nil {
		return errors.Wrap(errors.ErrDatabase, "nil key")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bt.ReplaceOrInsert(newSetItem(key, value))
	return nil
}

// Delete removes the value stored under given key, if any.
func (s *BTreeStore) Delete(key []byte) error {
	if key == nil {
		return errors.Wrap(errors.ErrDatabase, "nil key")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bt.Delete(bkey{key})
	return nil
}

// CacheWrap returns a BTreeCacheWrap that can be later
// written to this store, or rolled back
func (s *BTreeStore) CacheWrap() weave.KVCacheWrap {
	return NewBTreeCacheWrap(s, s.free)
}

// Commit seals the current state as the next version. The hash is a digest
// of all key value pairs in ascending key order so two stores holding the
// same data always produce the same hash.
func (s *BTreeStore) Commit() weave.CommitID {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := sha256.New()
	var lenbuf [8]byte
	s.bt.Ascend(func(i btree.Item) bool {
		item := i.(setItem)
		binary.BigEndian.PutUint64(lenbuf[:], uint64(len(item.key)))
		h.Write(lenbuf[:])
		h.Write(item.key)
		binary.BigEndian.PutUint64(lenbuf[:], uint64(len(item.value)))
		h.Write(lenbuf[:])
		h.Write(item.value)
		return true
	})
	s.version++
	s.hash = h.Sum(nil)
	return weave.CommitID{Version: s.version, Hash: s.hash}
}

// LatestVersion returns info on the latest committed version.
func (s *BTreeStore) LatestVersion() weave.CommitID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return weave.CommitID{Version: s.version, Hash: s.hash}
}

///////////////////////////////////////////////
// Actual CacheWrap implementation

// BTreeCacheWrap places a btree cache over a KVStore
type BTreeCacheWrap struct {
	bt   *btree.BTree
	free *btree.FreeList
	back weave.KVStore
	ops  *[]op
}

var _ weave.KVCacheWrap = BTreeCacheWrap{}

// NewBTreeCacheWrap initializes a BTree to cache around this
// kv store. Reads fall through to kv for any key not written in the
// cache. kv is written to only when Write is called.
//
// free may be nil, but set to an existing list to reuse it
// for memory savings
func NewBTreeCacheWrap(kv weave.KVStore, free *btree.FreeList) BTreeCacheWrap {
	if free == nil {
		free = btree.NewFreeList(DefaultFreeListSize)
	}
	return BTreeCacheWrap{
		bt:   btree.NewWithFreeList(degree, free),
		free: free,
		back: kv,
		ops:  new([]op),
	}
}

// CacheWrap layers another BTree on top of this one.
func (b BTreeCacheWrap) CacheWrap() weave.KVCacheWrap {
	return NewBTreeCacheWrap(b, b.free)
}

// Write replays all operations, in the order they were done, on the
// underlying store. And then cleans up
func (b BTreeCacheWrap) Write() error {
	for _, o := range *b.ops {
		var err error
		if o.delete {
			err = b.back.Delete(o.key)
		} else {
			err = b.back.Set(o.key, o.value)
		}
		if err != nil {
			return errors.Wrap(err, "cannot write cache")
		}
	}
	b.Discard()
	return nil
}

// Discard invalidates this CacheWrap and releases all data
func (b BTreeCacheWrap) Discard() {
	// clean up the btree -> freelist
	for stop := false; !stop; {
		rem := b.bt.DeleteMin()
		stop = (rem == nil)
	}
	*b.ops = nil
}

// Set writes to the BTree and to the batch
func (b BTreeCacheWrap) Set(key, value []byte) error {
	if key == nil {
		return errors.Wrap(errors.ErrDatabase, "nil key")
	}
	b.bt.ReplaceOrInsert(newSetItem(key, value))
	*b.ops = append(*b.ops, op{key: key, value: value})
	return nil
}

// Delete deletes from the BTree and to the batch
func (b BTreeCacheWrap) Delete(key []byte) error {
	if key == nil {
		return errors.Wrap(errors.ErrDatabase, "nil key")
	}
	b.bt.ReplaceOrInsert(newDeletedItem(key))
	*b.ops = append(*b.ops, op{key: key, delete: true})
	return nil
}

// Get reads from btree if there, else backing store
func (b BTreeCacheWrap) Get(key []byte) ([]byte, error) {
	if key == nil {
		return nil, errors.Wrap(errors.ErrDatabase, "nil key")
	}
	res := b.bt.Get(bkey{key})
	if res != nil {
		switch t := res.(type) {
		case setItem:
			return t.value, nil
		case deletedItem:
			return nil, nil
		default:
			return nil, errors.Wrapf(errors.ErrDatabase, "unknown item in btree: %#v", res)
		}
	}
	return b.back.Get(key)
}

// Has reads from btree if there, else backing store
func (b BTreeCacheWrap) Has(key []byte) (bool, error) {
	if key == nil {
		return false, errors.Wrap(errors.ErrDatabase, "nil key")
	}
	res := b.bt.Get(bkey{key})
	if res != nil {
		switch res.(type) {
		case setItem:
			return true, nil
		case deletedItem:
			return false, nil
		default:
			return false, errors.Wrapf(errors.ErrDatabase, "unknown item in btree: %#v", res)
		}
	}
	return b.back.Has(key)
}

// op is a single recorded write, replayed on Write
type op struct {
	key    []byte
	value  []byte
	delete bool
}

/////////////////////////////////////////////////////////
// Items to write to btree

// we enforce all data in our btree implements keyer so we
// can compare nicely
type keyer interface {
	Key() []byte
}

// bkey implements keyer and btree.Item
// and may be used for queries or embedded in data to store
type bkey struct {
	key []byte
}

var _ keyer = bkey{}
var _ btree.Item = bkey{}

func (k bkey) Key() []byte {
	return k.key
}

// Less returns true iff second argument is greater than first
//
// panics if the item to compare doesn't implement keyer.
func (k bkey) Less(item btree.Item) bool {
	cmp := item.(keyer).Key()
	return bytes.Compare(k.key, cmp) < 0
}

type deletedItem struct {
	bkey
}

func newDeletedItem(key []byte) deletedItem {
	return deletedItem{bkey{key}}
}

type setItem struct {
	bkey
	value []byte
}

func newSetItem(key, value []byte) setItem {
	return setItem{bkey{key}, value}
}
