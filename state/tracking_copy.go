// Copyright (c) 2019 The Calyx developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import "github.com/calyxlabs/calyx/stackedmap"

// TrackingCopy gives one execution an isolated view of the global state.
//
// Reads fall through to the underlying reader and are cached for the life of
// the copy, so rereading a key yields the same value even when the underlying
// state advances mid-execution; writes accumulate in an ordered effect log and
// never touch the underlying state. Reads see the copy's own prior writes.
// The owner decides what to do with the log: replay Effects through
// GlobalState.Commit on success, or drop the copy to discard everything.
//
// A TrackingCopy is not safe for concurrent use.
type TrackingCopy struct {
	reader  Reader
	fetched map[Key]Value // memoized reader results, nil marks absence
	sm      *stackedmap.StackedMap[Key, Value]
	effects []Effect
	marks   []int // effect log length per checkpoint
}

// NewTrackingCopy creates a tracking copy over the given reader.
func NewTrackingCopy(reader Reader) *TrackingCopy {
	tc := &TrackingCopy{
		reader:  reader,
		fetched: make(map[Key]Value),
	}
	tc.sm = stackedmap.New(func(key Key) (Value, bool, error) {
		if v, ok := tc.fetched[key]; ok {
			return v, v != nil, nil
		}
		v, err := reader.Get(key)
		if err != nil {
			if IsKeyNotFound(err) {
				tc.fetched[key] = nil
				return nil, false, nil
			}
			return nil, false, err
		}
		tc.fetched[key] = v
		return v, true, nil
	})
	tc.sm.Push() // base level
	return tc
}

// Read returns the value at the given key as seen by this copy:
// its own pending writes first, then the underlying state.
func (tc *TrackingCopy) Read(key Key) (Value, error) {
	v, ok, err := tc.sm.Get(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &KeyNotFoundError{Key: key}
	}
	return v, nil
}

// Write records one transform in the effect log.
//
// The transform is merged against the copy's current view so that shape
// mismatches and accumulations on absent keys surface immediately; replay
// through the global state validates them again authoritatively. The
// underlying state is never touched.
func (tc *TrackingCopy) Write(key Key, transform Transform) error {
	var next Value
	if write, ok := transform.(Write); ok {
		next = write.Value
	} else {
		curr, ok, err := tc.sm.Get(key)
		if err != nil {
			return err
		}
		if !ok {
			return &KeyNotFoundError{Key: key}
		}
		if next, err = transform.Apply(curr); err != nil {
			return err
		}
	}
	tc.sm.Put(key, next)
	tc.effects = append(tc.effects, Effect{key, transform})
	return nil
}

// Effects returns the ordered log of accumulated effects.
func (tc *TrackingCopy) Effects() []Effect {
	return tc.effects
}

// NewCheckpoint makes a checkpoint of the current state.
// It returns a revision to be passed to RevertTo.
func (tc *TrackingCopy) NewCheckpoint() int {
	tc.marks = append(tc.marks, len(tc.effects))
	return tc.sm.Push()
}

// RevertTo reverts to the checkpoint specified by the given revision.
// All writes recorded since the checkpoint are discarded.
func (tc *TrackingCopy) RevertTo(revision int) {
	tc.effects = tc.effects[:tc.marks[revision-1]]
	tc.marks = tc.marks[:revision-1]
	tc.sm.PopTo(revision)
}
