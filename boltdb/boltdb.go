// Copyright (c) 2019 The Calyx developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package boltdb implements the kv store interface with bbolt.
//
// The database is memory-mapped with a single writer and any number of
// readers; readers never block the writer or each other. Batch runs inside
// one update transaction, so a failed batch leaves nothing behind.
package boltdb

import (
	"bytes"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"

	"github.com/calyxlabs/calyx/kv"
)

var _ kv.Store = (*BoltDB)(nil)

const dataFileName = "data.db"

var bucketName = []byte("calyx")

var errNotFound = errors.New("not found")

// Options options for creating bolt db instance.
type Options struct {
	// Timeout is the duration to wait for the file lock, 0 waits indefinitely.
	Timeout time.Duration
	// NoSync skips fsync on commit. Trades durability for write speed,
	// only suitable for tests.
	NoSync bool
}

// BoltDB wraps bbolt impls.
type BoltDB struct {
	db *bolt.DB
}

// New opens or creates the database environment at the given directory path.
func New(path string, opts Options) (*BoltDB, error) {
	if err := os.MkdirAll(path, 0700); err != nil {
		return nil, errors.Wrap(err, "new bolt db")
	}
	db, err := bolt.Open(filepath.Join(path, dataFileName), 0600, &bolt.Options{
		Timeout: opts.Timeout,
	})
	if err != nil {
		return nil, errors.Wrap(err, "open bolt db")
	}
	db.NoSync = opts.NoSync

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	}); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "create root bucket")
	}
	return &BoltDB{db: db}, nil
}

// IsNotFound to check if the error returned by Get indicates key not found.
func (bdb *BoltDB) IsNotFound(err error) bool {
	return err == errNotFound
}

// Get retrieve value for given key.
// It returns an error if key not found. The error can be checked via IsNotFound.
func (bdb *BoltDB) Get(key []byte) ([]byte, error) {
	var val []byte
	if err := bdb.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketName).Get(key)
		if v == nil {
			return errNotFound
		}
		val = append([]byte(nil), v...)
		return nil
	}); err != nil {
		return nil, err
	}
	return val, nil
}

// Has returns whether a key exists.
func (bdb *BoltDB) Has(key []byte) (bool, error) {
	var has bool
	if err := bdb.db.View(func(tx *bolt.Tx) error {
		has = tx.Bucket(bucketName).Get(key) != nil
		return nil
	}); err != nil {
		return false, err
	}
	return has, nil
}

// Put save value for the given key.
func (bdb *BoltDB) Put(key, val []byte) error {
	return bdb.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Put(key, val)
	})
}

// Delete deletes the given key and its value.
func (bdb *BoltDB) Delete(key []byte) error {
	return bdb.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Delete(key)
	})
}

// Snapshot runs fn over one read transaction.
func (bdb *BoltDB) Snapshot(fn func(kv.Getter) error) error {
	return bdb.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(bucketName)
		return fn(&struct {
			kv.GetFunc
			kv.HasFunc
		}{
			func(key []byte) ([]byte, error) {
				v := bkt.Get(key)
				if v == nil {
					return nil, errNotFound
				}
				return append([]byte(nil), v...), nil
			},
			func(key []byte) (bool, error) {
				return bkt.Get(key) != nil, nil
			},
		})
	})
}

// Batch runs fn inside one update transaction.
// The transaction is rolled back as a whole if fn returns an error.
func (bdb *BoltDB) Batch(fn func(kv.Putter) error) error {
	return bdb.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(bucketName)
		return fn(&struct {
			kv.PutFunc
			kv.DeleteFunc
		}{
			bkt.Put,
			bkt.Delete,
		})
	})
}

type pair struct {
	key, val []byte
}

func (p *pair) Key() []byte   { return p.key }
func (p *pair) Value() []byte { return p.val }

// Iterate iterates kv pairs within the key range in ascending key order.
func (bdb *BoltDB) Iterate(rng kv.Range, fn func(kv.Pair) bool) error {
	return bdb.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketName).Cursor()
		for k, v := c.Seek(rng.Start); k != nil; k, v = c.Next() {
			if len(rng.Limit) > 0 && bytes.Compare(k, rng.Limit) >= 0 {
				break
			}
			if !fn(&pair{k, v}) {
				break
			}
		}
		return nil
	})
}

// Close closes the bolt db.
// Later operations will all fail.
func (bdb *BoltDB) Close() error {
	return bdb.db.Close()
}
