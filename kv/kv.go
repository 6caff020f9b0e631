// Copyright (c) 2019 The Calyx developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package kv defines the interfaces of the durable key-value layer.
// Values cross this boundary as opaque byte blobs only.
package kv

// Getter defines methods to read kv.
type Getter interface {
	// Get retrieves the value for the given key.
	// An error is returned if the key is not found. It can be checked via Store.IsNotFound.
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
}

// Putter defines methods to write kv.
type Putter interface {
	Put(key, val []byte) error
	Delete(key []byte) error
}

// GetPutter defines methods to read/write kv.
type GetPutter interface {
	Getter
	Putter
}

// Pair defines key-value pair.
type Pair interface {
	Key() []byte
	Value() []byte
}

// Range is the key range.
type Range struct {
	Start []byte // start of key range (included)
	Limit []byte // limit of key range (excluded)
}

// Store defines the full functional kv store.
//
// Batch is all-or-nothing: either every put performed inside fn becomes
// durable in one transaction, or none does.
type Store interface {
	Getter
	Putter

	IsNotFound(err error) bool

	Snapshot(fn func(Getter) error) error
	Batch(fn func(Putter) error) error
	Iterate(rng Range, fn func(Pair) bool) error

	Close() error
}
