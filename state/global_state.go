// Copyright (c) 2019 The Calyx developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/calyxlabs/calyx/cache"
	"github.com/calyxlabs/calyx/kv"
)

const (
	// StoreName is the name of the kv space holding the global state.
	StoreName = "global_state"

	valueCacheSize = 2048
)

// Reader provides read access to the global state.
type Reader interface {
	// Get returns the value stored under the given key.
	Get(key Key) (Value, error)
}

// KeyValue is one key-value pair of a write batch.
type KeyValue struct {
	Key   Key
	Value Value
}

// GlobalState is the authoritative, durable view of world state and the merge
// point for effects. It is safe for concurrent use; reads never block the
// writer, while the read-merge-write sequence of Apply and Commit is
// serialized by the engine's writer lock so applies on one key cannot
// interleave.
type GlobalState struct {
	store kv.Store
	cache *cache.LRU
	lock  sync.Mutex    // serializes read-merge-write sequences
	seq   atomic.Uint64 // bumped by every durable write, guards cache fills
}

var _ Reader = (*GlobalState)(nil)

// New creates a global state over the given store.
// Durable keys are placed in the global_state kv space.
func New(store kv.Store) *GlobalState {
	valueCache, _ := cache.NewLRU(valueCacheSize)
	return &GlobalState{
		store: kv.Bucket(StoreName).NewStore(store),
		cache: valueCache,
	}
}

// Get returns the value stored under the given key.
// An absent key yields a KeyNotFoundError; stored bytes that fail to parse
// yield a DecodeError. The two are never conflated.
func (g *GlobalState) Get(key Key) (Value, error) {
	if v, ok := g.cache.Get(key); ok {
		metricCacheCount().AddWithLabel(1, map[string]string{"event": "hit"})
		return v.(Value), nil
	}
	metricCacheCount().AddWithLabel(1, map[string]string{"event": "miss"})

	seq := g.seq.Load()
	v, err := g.read(key)
	if err != nil {
		return nil, err
	}
	// fill the cache only if no write landed since the store read,
	// otherwise the stale value would shadow the durable one
	g.lock.Lock()
	if g.seq.Load() == seq {
		g.cache.Add(key, v)
	}
	g.lock.Unlock()
	return v, nil
}

// getLocked reads with the writer lock held and fills the cache directly.
func (g *GlobalState) getLocked(key Key) (Value, error) {
	loaded := false
	v, err := g.cache.GetOrLoad(key, func(interface{}) (interface{}, error) {
		loaded = true
		return g.read(key)
	})
	if loaded {
		metricCacheCount().AddWithLabel(1, map[string]string{"event": "miss"})
	} else {
		metricCacheCount().AddWithLabel(1, map[string]string{"event": "hit"})
	}
	if err != nil {
		return nil, err
	}
	return v.(Value), nil
}

func (g *GlobalState) read(key Key) (Value, error) {
	data, err := g.store.Get(key.Bytes())
	if err != nil {
		if g.store.IsNotFound(err) {
			return nil, &KeyNotFoundError{Key: key}
		}
		return nil, &StoreError{Cause: err}
	}
	return DecodeValue(data)
}

// Apply merges one transform into the value stored under the given key.
//
// A Write against an absent key creates it. Any other transform against an
// absent key fails with KeyNotFoundError; a shape mismatch fails with
// MergeTypeError and leaves the stored value unchanged. The read and the
// write happen under the writer lock, so concurrent applies cannot observe
// each other's intermediate state.
func (g *GlobalState) Apply(key Key, transform Transform) error {
	start := time.Now()
	g.lock.Lock()
	defer g.lock.Unlock()

	err := g.applyLocked(key, transform)
	metricApplyDuration().Observe(time.Since(start).Microseconds())
	metricOpCount().AddWithLabel(1, map[string]string{"op": "apply", "result": opResult(err)})
	return err
}

func (g *GlobalState) applyLocked(key Key, transform Transform) error {
	curr, err := g.getLocked(key)
	if err != nil {
		if IsKeyNotFound(err) {
			if write, ok := transform.(Write); ok {
				return g.writeLocked([]KeyValue{{key, write.Value}})
			}
		}
		return err
	}
	next, err := transform.Apply(curr)
	if err != nil {
		return err
	}
	return g.writeLocked([]KeyValue{{key, next}})
}

// Write stores the given key-value pairs in one atomic batch.
// Either every pair becomes durable or none does.
func (g *GlobalState) Write(kvs []KeyValue) error {
	g.lock.Lock()
	defer g.lock.Unlock()

	err := g.writeLocked(kvs)
	metricOpCount().AddWithLabel(1, map[string]string{"op": "write", "result": opResult(err)})
	return err
}

// WriteSingle stores one key-value pair.
func (g *GlobalState) WriteSingle(key Key, value Value) error {
	return g.Write([]KeyValue{{key, value}})
}

func (g *GlobalState) writeLocked(kvs []KeyValue) error {
	// encode everything first, so an encode failure aborts
	// before the store is touched
	encoded := make([][]byte, len(kvs))
	for i, kvp := range kvs {
		data, err := EncodeValue(kvp.Value)
		if err != nil {
			return err
		}
		encoded[i] = data
	}

	if err := g.store.Batch(func(putter kv.Putter) error {
		for i, kvp := range kvs {
			if err := putter.Put(kvp.Key.Bytes(), encoded[i]); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return &StoreError{Cause: err}
	}

	// invalidates in-flight unlocked cache fills
	g.seq.Add(1)
	for _, kvp := range kvs {
		g.cache.Add(kvp.Key, kvp.Value)
	}
	return nil
}

// Commit replays an effect log in order and flushes every resulting write in
// one atomic batch. This is the commit path for tracking copies: either the
// whole log becomes durable or, on any merge or store failure, none of it.
func (g *GlobalState) Commit(effects []Effect) error {
	g.lock.Lock()
	defer g.lock.Unlock()

	err := g.commitLocked(effects)
	metricOpCount().AddWithLabel(1, map[string]string{"op": "commit", "result": opResult(err)})
	return err
}

func (g *GlobalState) commitLocked(effects []Effect) error {
	staged := make(map[Key]Value, len(effects))
	order := make([]Key, 0, len(effects))

	for _, effect := range effects {
		curr, ok := staged[effect.Key]
		if !ok {
			v, err := g.getLocked(effect.Key)
			switch {
			case err == nil:
				curr, ok = v, true
			case IsKeyNotFound(err):
			default:
				return err
			}
		}

		var next Value
		if ok {
			v, err := effect.Transform.Apply(curr)
			if err != nil {
				return err
			}
			next = v
		} else {
			write, isWrite := effect.Transform.(Write)
			if !isWrite {
				return &KeyNotFoundError{Key: effect.Key}
			}
			next = write.Value
		}

		if _, seen := staged[effect.Key]; !seen {
			order = append(order, effect.Key)
		}
		staged[effect.Key] = next
	}

	kvs := make([]KeyValue, 0, len(order))
	for _, key := range order {
		kvs = append(kvs, KeyValue{key, staged[key]})
	}
	return g.writeLocked(kvs)
}

// TrackingCopy creates a new overlay bound to this global state.
// It is cheap and does not touch the store until first use.
func (g *GlobalState) TrackingCopy() *TrackingCopy {
	return NewTrackingCopy(g)
}

func opResult(err error) string {
	if err != nil {
		return "err"
	}
	return "ok"
}
