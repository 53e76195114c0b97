package storage

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testDB runs the shared test suite against a DB implementation.
func testDB(t *testing.T, db DB) {
	t.Helper()

	t.Run("PutAndGet", func(t *testing.T) {
		require.NoError(t, db.Put([]byte("key1"), []byte("value1")))
		val, err := db.Get([]byte("key1"))
		require.NoError(t, err)
		assert.Equal(t, []byte("value1"), val)
	})

	t.Run("GetNonexistent", func(t *testing.T) {
		_, err := db.Get([]byte("nonexistent"))
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Has", func(t *testing.T) {
		require.NoError(t, db.Put([]byte("exists"), []byte("yes")))
		ok, err := db.Has([]byte("exists"))
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = db.Has([]byte("missing"))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, db.Put([]byte("ow"), []byte("first")))
		require.NoError(t, db.Put([]byte("ow"), []byte("second")))
		val, err := db.Get([]byte("ow"))
		require.NoError(t, err)
		assert.Equal(t, []byte("second"), val)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, db.Put([]byte("del"), []byte("value")))
		require.NoError(t, db.Delete([]byte("del")))
		ok, _ := db.Has([]byte("del"))
		assert.False(t, ok)
		_, err := db.Get([]byte("del"))
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("DeleteNonexistent", func(t *testing.T) {
		assert.NoError(t, db.Delete([]byte("never-existed")))
	})

	t.Run("BinaryData", func(t *testing.T) {
		key := []byte{0x00, 0x01, 0xFF}
		value := make([]byte, 256)
		for i := range value {
			value[i] = byte(i)
		}
		require.NoError(t, db.Put(key, value))
		got, err := db.Get(key)
		require.NoError(t, err)
		assert.Equal(t, value, got)
	})

	t.Run("ForEachOrdered", func(t *testing.T) {
		require.NoError(t, db.Put([]byte("prefix/c"), []byte("3")))
		require.NoError(t, db.Put([]byte("prefix/a"), []byte("1")))
		require.NoError(t, db.Put([]byte("prefix/b"), []byte("2")))
		require.NoError(t, db.Put([]byte("other/x"), []byte("4")))

		var keys []string
		err := db.ForEach([]byte("prefix/"), func(key, value []byte) error {
			keys = append(keys, string(key))
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"prefix/a", "prefix/b", "prefix/c"}, keys)
	})

	t.Run("ForEachEmpty", func(t *testing.T) {
		var count int
		err := db.ForEach([]byte("nonexistent/"), func(key, value []byte) error {
			count++
			return nil
		})
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("UpdateCommits", func(t *testing.T) {
		err := db.Update(func(tx Writer) error {
			if err := tx.Put([]byte("tx/a"), []byte("1")); err != nil {
				return err
			}
			// Writes are visible inside the same transaction.
			v, err := tx.Get([]byte("tx/a"))
			if err != nil {
				return err
			}
			assert.Equal(t, []byte("1"), v)
			return tx.Put([]byte("tx/b"), []byte("2"))
		})
		require.NoError(t, err)

		var n int
		require.NoError(t, db.View(func(tx Reader) error {
			return tx.ForEach([]byte("tx/"), func(_, _ []byte) error {
				n++
				return nil
			})
		}))
		assert.Equal(t, 2, n)
	})

	t.Run("UpdateRollsBack", func(t *testing.T) {
		boom := errors.New("boom")
		err := db.Update(func(tx Writer) error {
			if err := tx.Put([]byte("rb/a"), []byte("1")); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)
		ok, err := db.Has([]byte("rb/a"))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("UpdateDeleteThenIterate", func(t *testing.T) {
		require.NoError(t, db.Put([]byte("di/a"), []byte("1")))
		require.NoError(t, db.Put([]byte("di/b"), []byte("2")))
		err := db.Update(func(tx Writer) error {
			if err := tx.Delete([]byte("di/a")); err != nil {
				return err
			}
			var keys []string
			err := tx.ForEach([]byte("di/"), func(k, _ []byte) error {
				keys = append(keys, string(k))
				return nil
			})
			assert.Equal(t, []string{"di/b"}, keys)
			return err
		})
		require.NoError(t, err)
	})
}

func TestMemoryDB(t *testing.T) {
	db := NewMemory()
	defer db.Close()
	testDB(t, db)
}

func TestBadgerDB(t *testing.T) {
	db, err := NewBadger(t.TempDir())
	require.NoError(t, err)
	defer db.Close()
	testDB(t, db)
}

func TestBadgerDB_Persistence(t *testing.T) {
	dir := t.TempDir()

	db1, err := NewBadger(dir)
	require.NoError(t, err)
	require.NoError(t, db1.Put([]byte("persist"), []byte("data")))
	require.NoError(t, db1.Close())

	db2, err := NewBadger(dir)
	require.NoError(t, err)
	defer db2.Close()

	val, err := db2.Get([]byte("persist"))
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), val)
}

func TestBadgerDB_Locked(t *testing.T) {
	dir := t.TempDir()
	db1, err := NewBadger(dir)
	require.NoError(t, err)
	defer db1.Close()

	_, err = NewBadger(dir)
	assert.Error(t, err)
}

// Concurrent read-modify-write counters must not lose increments.
func testConcurrentUpdate(t *testing.T, db DB) {
	const workers = 8
	const rounds = 25
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				err := db.Update(func(tx Writer) error {
					v, err := tx.Get([]byte("counter"))
					if err != nil && !errors.Is(err, ErrNotFound) {
						return err
					}
					n := 0
					if len(v) > 0 {
						n = int(v[0]) | int(v[1])<<8
					}
					n++
					return tx.Put([]byte("counter"), []byte{byte(n), byte(n >> 8)})
				})
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()
	v, err := db.Get([]byte("counter"))
	require.NoError(t, err)
	assert.Equal(t, workers*rounds, int(v[0])|int(v[1])<<8)
}

func TestMemoryDB_ConcurrentUpdate(t *testing.T) {
	testConcurrentUpdate(t, NewMemory())
}
