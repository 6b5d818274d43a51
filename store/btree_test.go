package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBTreeCacheGetSet does basic sanity checks on our cache layered over
// the committed root.
func TestBTreeCacheGetSet(t *testing.T) {
	base := NewBTreeStore()

	// make sure the btree is empty at start but returns results
	// that are writen to it
	k, v := []byte("french"), []byte("fry")
	mustGet(t, base, k, nil)
	require.NoError(t, base.Set(k, v))
	mustGet(t, base, k, v)

	// now layer another btree on top and make sure that we get
	// base data
	cache := base.CacheWrap()
	mustGet(t, cache, k, v)

	// writing more data is only visible in the cache
	k2, v2 := []byte("LA"), []byte("Dodgers")
	require.NoError(t, cache.Set(k2, v2))
	mustGet(t, cache, k2, v2)
	mustGet(t, base, k2, nil)

	// we can write the cache to the base layer...
	require.NoError(t, cache.Write())
	mustGet(t, base, k, v)
	mustGet(t, base, k2, v2)

	// we can discard one
	k3, v3 := []byte("Bayern"), []byte("Munich")
	c2 := base.CacheWrap()
	require.NoError(t, c2.Set(k3, v3))
	c2.Discard()
	mustGet(t, base, k3, nil)

	// and commit another with a delete
	c3 := base.CacheWrap()
	require.NoError(t, c3.Delete(k))
	mustGet(t, c3, k, nil)
	mustGet(t, base, k, v)
	require.NoError(t, c3.Write())

	mustGet(t, base, k, nil)
	mustGet(t, base, k2, v2)
	mustGet(t, base, k3, nil)
}

func TestNestedCacheWrapRollback(t *testing.T) {
	base := NewBTreeStore()
	outer := base.CacheWrap()
	require.NoError(t, outer.Set([]byte("a"), []byte("1")))

	inner := outer.CacheWrap()
	require.NoError(t, inner.Set([]byte("a"), []byte("2")))
	require.NoError(t, inner.Set([]byte("b"), []byte("3")))
	inner.Discard()

	mustGet(t, outer, []byte("a"), []byte("1"))
	mustGet(t, outer, []byte("b"), nil)

	inner = outer.CacheWrap()
	require.NoError(t, inner.Set([]byte("b"), []byte("4")))
	require.NoError(t, inner.Write())
	require.NoError(t, outer.Write())

	mustGet(t, base, []byte("a"), []byte("1"))
	mustGet(t, base, []byte("b"), []byte("4"))
}

func TestCommitHashIsDeterministic(t *testing.T) {
	a := NewBTreeStore()
	b := NewBTreeStore()

	empty := a.Commit()
	assert.Equal(t, int64(1), empty.Version)

	// insertion order must not matter
	require.NoError(t, a.Set([]byte("x"), []byte("1")))
	require.NoError(t, a.Set([]byte("y"), []byte("2")))
	require.NoError(t, b.Set([]byte("y"), []byte("2")))
	require.NoError(t, b.Set([]byte("x"), []byte("1")))

	ca := a.Commit()
	cb := b.Commit()
	assert.Equal(t, int64(2), ca.Version)
	assert.Equal(t, int64(1), cb.Version)
	assert.Equal(t, ca.Hash, cb.Hash)
	assert.NotEqual(t, empty.Hash, ca.Hash)
	assert.Equal(t, ca, a.LatestVersion())

	require.NoError(t, b.Set([]byte("x"), []byte("changed")))
	assert.NotEqual(t, ca.Hash, b.Commit().Hash)
}

func TestNilKeyIsRejected(t *testing.T) {
	base := NewBTreeStore()
	_, err := base.Get(nil)
	assert.Error(t, err)
	assert.Error(t, base.CacheWrap().Set(nil, []byte("x")))
}

type getHaser interface {
	Get([]byte) ([]byte, error)
	Has([]byte) (bool, error)
}

func mustGet(t *testing.T, db getHaser, key, want []byte) {
	t.Helper()
	got, err := db.Get(key)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	has, err := db.Has(key)
	require.NoError(t, err)
	assert.Equal(t, want != nil, has)
}
