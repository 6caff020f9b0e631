// Copyright (c) 2021 The Calyx developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

// Bucket provides logical bucket for kv store.
type Bucket string

// NewGetter creates a bucket getter from the source getter.
func (b Bucket) NewGetter(src Getter) Getter {
	return &struct {
		GetFunc
		HasFunc
	}{
		func(key []byte) ([]byte, error) {
			return src.Get(b.makeKey(key))
		},
		func(key []byte) (bool, error) {
			return src.Has(b.makeKey(key))
		},
	}
}

// NewPutter creates a bucket putter from the source putter.
func (b Bucket) NewPutter(src Putter) Putter {
	return &struct {
		PutFunc
		DeleteFunc
	}{
		func(key, val []byte) error {
			return src.Put(b.makeKey(key), val)
		},
		func(key []byte) error {
			return src.Delete(b.makeKey(key))
		},
	}
}

// NewStore creates a bucket store from the source store.
func (b Bucket) NewStore(src Store) Store {
	return &struct {
		Getter
		Putter
		IsNotFoundFunc
		SnapshotFunc
		BatchFunc
		IterateFunc
		CloseFunc
	}{
		b.NewGetter(src),
		b.NewPutter(src),
		src.IsNotFound,
		func(fn func(Getter) error) error {
			return src.Snapshot(func(getter Getter) error {
				return fn(b.NewGetter(getter))
			})
		},
		func(fn func(Putter) error) error {
			return src.Batch(func(putter Putter) error {
				return fn(b.NewPutter(putter))
			})
		},
		func(rng Range, fn func(Pair) bool) error {
			rng.Start = b.makeKey(rng.Start)
			if len(rng.Limit) == 0 {
				rng.Limit = bucketEdge([]byte(b))
			} else {
				rng.Limit = b.makeKey(rng.Limit)
			}
			return src.Iterate(rng, func(pair Pair) bool {
				return fn(&struct {
					KeyFunc
					ValueFunc
				}{
					func() []byte { return pair.Key()[len(b):] },
					pair.Value,
				})
			})
		},
		src.Close,
	}
}

func (b Bucket) makeKey(key []byte) []byte {
	return append(append(make([]byte, 0, len(b)+len(key)), b...), key...)
}

// bucketEdge returns the smallest key greater than all keys prefixed with b.
// Nil is returned if no such key exists (all 0xff).
func bucketEdge(b []byte) []byte {
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] != 0xff {
			edge := make([]byte, i+1)
			copy(edge, b)
			edge[i]++
			return edge
		}
	}
	return nil
}
