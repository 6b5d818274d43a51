/*
Package orm provides the thin persistence layer used by the extensions.

Models are protobuf messages stored under a bucket prefix. Every bucket
operates directly on a weave.KVStore so it can be used with the committed
store as well as with any cache wrap stacked on top of it.
*/
package orm

import (
	"regexp"

	"github.com/gogo/protobuf/proto"
	weave "github.com/iov-one/grantd"
	"github.com/iov-one/grantd/errors"
)

// Model is impelemented by any entity that can be stored using ModelBucket.
type Model interface {
	weave.Persistent
	Validate() error
}

// ModelBucket stores models of a single type under a common prefix.
type ModelBucket interface {
	// One query the database for a single model instance. Lookup is done
	// by the primary key. Result is loaded into given destination model.
	// This method returns ErrNotFound if the entity does not exist in the
	// database.
	One(db weave.ReadOnlyKVStore, key []byte, dest Model) error

	// Has returns nil if an entity with given key exists and ErrNotFound
	// otherwise.
	Has(db weave.ReadOnlyKVStore, key []byte) error

	// Put saves given model in the database. The model is validated
	// first and never written when invalid.
	Put(db weave.KVStore, key []byte, m Model) error

	// Delete removes an entity with given primary key from the database.
	// It returns ErrNotFound if an entity with given key does not exist.
	Delete(db weave.KVStore, key []byte) error

	// Query exposes stored entities to the query router.
	weave.QueryHandler
}

var isBucketName = regexp.MustCompile(`^[a-z_]{3,10}$`).MatchString

// NewModelBucket returns a ModelBucket storing all entities under
// "<name>:" prefix. It panics if the name is not a valid bucket name.
func NewModelBucket(name string) ModelBucket {
	if !isBucketName(name) {
		panic("illegal bucket name: " + name)
	}
	return &modelBucket{prefix: []byte(name + ":")}
}

type modelBucket struct {
	prefix []byte
}

var _ ModelBucket = (*modelBucket)(nil)

func (mb *modelBucket) dbKey(key []byte) []byte {
	k := make([]byte, 0, len(mb.prefix)+len(key))
	return append(append(k, mb.prefix...), key...)
}

func (mb *modelBucket) One(db weave.ReadOnlyKVStore, key []byte, dest Model) error {
	raw, err := db.Get(mb.dbKey(key))
	if err != nil {
		return errors.Wrap(err, "cannot read from the database")
	}
	if raw == nil {
		return errors.Wrapf(errors.ErrNotFound, "%T not in the store", dest)
	}
	if err := proto.Unmarshal(raw, dest); err != nil {
		return errors.Wrapf(errors.ErrModel, "cannot unmarshal into %T: %s", dest, err)
	}
	return nil
}

func (mb *modelBucket) Has(db weave.ReadOnlyKVStore, key []byte) error {
	ok, err := db.Has(mb.dbKey(key))
	if err != nil {
		return errors.Wrap(err, "cannot read from the database")
	}
	if !ok {
		return errors.ErrNotFound
	}
	return nil
}

func (mb *modelBucket) Put(db weave.KVStore, key []byte, m Model) error {
	if len(key) == 0 {
		return errors.Wrap(errors.ErrInput, "empty key")
	}
	if err := m.Validate(); err != nil {
		return errors.Wrap(err, "invalid model")
	}
	raw, err := proto.Marshal(m)
	if err != nil {
		return errors.Wrap(err, "cannot serialize")
	}
	if err := db.Set(mb.dbKey(key), raw); err != nil {
		return errors.Wrap(err, "cannot store in the database")
	}
	return nil
}

func (mb *modelBucket) Delete(db weave.KVStore, key []byte) error {
	if err := mb.Has(db, key); err != nil {
		return err
	}
	if err := db.Delete(mb.dbKey(key)); err != nil {
		return errors.Wrap(err, "cannot delete from the database")
	}
	return nil
}

// Register makes the bucket content available to queries under /<path>.
// Query data is the primary key and the result is the stored model.
func Register(name, path string, qr weave.QueryRouter) {
	qr.Register("/"+path, NewModelBucket(name))
}

// Query implements weave.QueryHandler. Only exact key lookups are
// supported.
func (mb *modelBucket) Query(db weave.ReadOnlyKVStore, mod string, data []byte) ([]weave.Model, error) {
	if mod != weave.KeyQueryMod {
		return nil, errors.Wrapf(errors.ErrInput, "unknown query mode %q", mod)
	}
	key := mb.dbKey(data)
	raw, err := db.Get(key)
	if err != nil {
		return nil, errors.Wrap(err, "cannot read from the database")
	}
	if raw == nil {
		return nil, nil
	}
	return []weave.Model{weave.Pair(key, raw)}, nil
}
