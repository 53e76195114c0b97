package storage

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrefixDB_Suite(t *testing.T) {
	testDB(t, NewPrefixDB(NewMemory(), []byte("ns1/")))
}

func TestPrefixDB_Isolation(t *testing.T) {
	inner := NewMemory()
	dbA := NewPrefixDB(inner, []byte("a/"))
	dbB := NewPrefixDB(inner, []byte("b/"))

	require.NoError(t, dbA.Put([]byte("key"), []byte("fromA")))
	require.NoError(t, dbB.Put([]byte("key"), []byte("fromB")))

	got, err := dbA.Get([]byte("key"))
	require.NoError(t, err)
	assert.Equal(t, "fromA", string(got))
	got, err = dbB.Get([]byte("key"))
	require.NoError(t, err)
	assert.Equal(t, "fromB", string(got))

	raw, err := inner.Get([]byte("a/key"))
	require.NoError(t, err)
	assert.Equal(t, "fromA", string(raw))

	require.NoError(t, dbA.Delete([]byte("key")))
	ok, _ := dbB.Has([]byte("key"))
	assert.True(t, ok)
}

func TestPrefixDB_ForEachStripsPrefix(t *testing.T) {
	inner := NewMemory()
	db := NewPrefixDB(inner, []byte("ns/"))
	require.NoError(t, db.Put([]byte("x/1"), []byte("a")))
	require.NoError(t, db.Put([]byte("x/2"), []byte("b")))
	require.NoError(t, inner.Put([]byte("other/x/3"), []byte("c")))

	var keys []string
	require.NoError(t, db.ForEach([]byte("x/"), func(k, _ []byte) error {
		keys = append(keys, string(k))
		return nil
	}))
	assert.Equal(t, []string{"x/1", "x/2"}, keys)
}

func TestPrefixDB_ForEachStopEarly(t *testing.T) {
	db := NewPrefixDB(NewMemory(), []byte("ns/"))
	for _, k := range []string{"a", "b", "c"} {
		require.NoError(t, db.Put([]byte(k), []byte("v")))
	}
	stop := errors.New("stop")
	var n int
	err := db.ForEach(nil, func(_, _ []byte) error {
		n++
		if n == 2 {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 2, n)
}

func TestPrefixDB_UpdateScoped(t *testing.T) {
	inner := NewMemory()
	db := NewPrefixDB(inner, []byte("w/"))
	require.NoError(t, db.Update(func(tx Writer) error {
		return tx.Put([]byte("k"), []byte("v"))
	}))
	ok, err := inner.Has([]byte("w/k"))
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, db.View(func(tx Reader) error {
		v, err := tx.Get([]byte("k"))
		assert.Equal(t, []byte("v"), v)
		return err
	}))
}

func TestPrefixDB_CloseIsNoop(t *testing.T) {
	inner := NewMemory()
	db := NewPrefixDB(inner, []byte("ns/"))
	require.NoError(t, db.Close())
	require.NoError(t, inner.Put([]byte("still"), []byte("open")))
}
