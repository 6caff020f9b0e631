// Copyright (c) 2018 The Calyx developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package lvldb_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calyxlabs/calyx/kv"
	"github.com/calyxlabs/calyx/lvldb"
)

func TestLevelDBGetPut(t *testing.T) {
	db, err := lvldb.NewMem()
	require.Nil(t, err)
	defer db.Close()

	_, err = db.Get([]byte("k"))
	assert.True(t, db.IsNotFound(err))

	assert.Nil(t, db.Put([]byte("k"), []byte("v")))

	val, err := db.Get([]byte("k"))
	assert.Nil(t, err)
	assert.Equal(t, []byte("v"), val)

	has, err := db.Has([]byte("k"))
	assert.Nil(t, err)
	assert.True(t, has)

	assert.Nil(t, db.Delete([]byte("k")))
	_, err = db.Get([]byte("k"))
	assert.True(t, db.IsNotFound(err))
}

func TestLevelDBSnapshot(t *testing.T) {
	db, err := lvldb.NewMem()
	require.Nil(t, err)
	defer db.Close()

	require.Nil(t, db.Put([]byte("k"), []byte("v1")))

	err = db.Snapshot(func(getter kv.Getter) error {
		// writes after the snapshot are invisible inside it
		if err := db.Put([]byte("k"), []byte("v2")); err != nil {
			return err
		}
		val, err := getter.Get([]byte("k"))
		if err != nil {
			return err
		}
		assert.Equal(t, []byte("v1"), val)
		return nil
	})
	assert.Nil(t, err)

	val, err := db.Get([]byte("k"))
	assert.Nil(t, err)
	assert.Equal(t, []byte("v2"), val)
}

func TestLevelDBBatchAtomic(t *testing.T) {
	db, err := lvldb.NewMem()
	require.Nil(t, err)
	defer db.Close()

	errBoom := errors.New("boom")
	err = db.Batch(func(putter kv.Putter) error {
		if err := putter.Put([]byte("a"), []byte("1")); err != nil {
			return err
		}
		return errBoom
	})
	assert.Equal(t, errBoom, err)

	_, err = db.Get([]byte("a"))
	assert.True(t, db.IsNotFound(err))

	require.Nil(t, db.Batch(func(putter kv.Putter) error {
		return putter.Put([]byte("a"), []byte("1"))
	}))
	val, err := db.Get([]byte("a"))
	assert.Nil(t, err)
	assert.Equal(t, []byte("1"), val)
}

func TestLevelDBIterate(t *testing.T) {
	db, err := lvldb.NewMem()
	require.Nil(t, err)
	defer db.Close()

	for _, k := range []string{"a", "b", "c"} {
		require.Nil(t, db.Put([]byte(k), []byte(k)))
	}

	var keys []string
	err = db.Iterate(kv.Range{Start: []byte("a"), Limit: []byte("c")}, func(pair kv.Pair) bool {
		keys = append(keys, string(pair.Key()))
		return true
	})
	assert.Nil(t, err)
	assert.Equal(t, []string{"a", "b"}, keys)
}

func TestLevelDBPersistent(t *testing.T) {
	dir := t.TempDir()

	db, err := lvldb.New(dir, lvldb.Options{})
	require.Nil(t, err)
	require.Nil(t, db.Put([]byte("k"), []byte("v")))
	require.Nil(t, db.Close())

	db, err = lvldb.New(dir, lvldb.Options{})
	require.Nil(t, err)
	defer db.Close()

	val, err := db.Get([]byte("k"))
	assert.Nil(t, err)
	assert.Equal(t, []byte("v"), val)
}
