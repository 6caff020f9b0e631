// Copyright (c) 2021 The Calyx developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calyxlabs/calyx/kv"
	"github.com/calyxlabs/calyx/lvldb"
)

func TestRegistrySharesHandle(t *testing.T) {
	opened := 0
	reg := kv.NewRegistry(func(string) (kv.Store, error) {
		opened++
		return lvldb.NewMem()
	})

	h1, err := reg.Open("/tmp/db")
	require.Nil(t, err)
	h2, err := reg.Open("/tmp/db/") // same path after cleaning
	require.Nil(t, err)
	assert.Equal(t, 1, opened)

	// both handles see the same store
	require.Nil(t, h1.Put([]byte("k"), []byte("v")))
	val, err := h2.Get([]byte("k"))
	assert.Nil(t, err)
	assert.Equal(t, []byte("v"), val)

	h3, err := reg.Open("/tmp/other")
	require.Nil(t, err)
	assert.Equal(t, 2, opened)
	assert.Nil(t, h3.Close())
}

func TestRegistryRefCount(t *testing.T) {
	reg := kv.NewRegistry(func(string) (kv.Store, error) {
		return lvldb.NewMem()
	})

	h1, err := reg.Open("/tmp/db")
	require.Nil(t, err)
	h2, err := reg.Open("/tmp/db")
	require.Nil(t, err)

	require.Nil(t, h1.Put([]byte("k"), []byte("v")))

	// the store stays open until the last handle is closed
	assert.Nil(t, h1.Close())
	val, err := h2.Get([]byte("k"))
	assert.Nil(t, err)
	assert.Equal(t, []byte("v"), val)

	assert.Nil(t, h2.Close())
	// closing a handle twice is a no-op
	assert.Nil(t, h2.Close())

	// reopening creates a fresh store
	h3, err := reg.Open("/tmp/db")
	require.Nil(t, err)
	defer h3.Close()
	_, err = h3.Get([]byte("k"))
	assert.True(t, h3.IsNotFound(err))
}
