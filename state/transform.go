// Copyright (c) 2019 The Calyx developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import "github.com/holiman/uint256"

// Transform describes how to derive a new value from a current one.
//
// The set of shapes is closed. Write replaces unconditionally and is the only
// shape valid against an absent key. All other shapes are accumulations: they
// require a prior value of a matching shape and commute with each other, so a
// multiset of accumulations applied in any order yields the same final value.
// Adds are modular (wrapping); the named-key union takes the bytewise-greater
// key on name conflicts.
type Transform interface {
	// Name returns the name of the transform's shape.
	Name() string
	// Apply merges the transform into the current value.
	Apply(curr Value) (Value, error)

	isTransform()
}

// Identity keeps the current value unchanged.
type Identity struct{}

// Write replaces the current value, or creates the key if absent.
type Write struct {
	Value Value
}

// AddUInt64 adds to a UInt64 value, wrapping on overflow.
type AddUInt64 uint64

// AddUInt256 adds to a UInt256 value, mod 2^256.
type AddUInt256 struct {
	N uint256.Int
}

// NewAddUInt256 creates an AddUInt256 transform from i.
func NewAddUInt256(i *uint256.Int) AddUInt256 {
	return AddUInt256{*i}
}

// AddNamedKeys unions named keys into a NamedKeys, Account or Contract value.
type AddNamedKeys NamedKeys

func (Identity) Name() string     { return "identity" }
func (Write) Name() string        { return "write" }
func (AddUInt64) Name() string    { return "add-uint64" }
func (AddUInt256) Name() string   { return "add-uint256" }
func (AddNamedKeys) Name() string { return "add-named-keys" }

func (Identity) isTransform()     {}
func (Write) isTransform()        {}
func (AddUInt64) isTransform()    {}
func (AddUInt256) isTransform()   {}
func (AddNamedKeys) isTransform() {}

func (Identity) Apply(curr Value) (Value, error) {
	return curr, nil
}

func (t Write) Apply(Value) (Value, error) {
	return t.Value, nil
}

func (t AddUInt64) Apply(curr Value) (Value, error) {
	u, ok := curr.(UInt64)
	if !ok {
		return nil, &MergeTypeError{Transform: t.Name(), Have: curr.Type()}
	}
	return u + UInt64(t), nil
}

func (t AddUInt256) Apply(curr Value) (Value, error) {
	u, ok := curr.(UInt256)
	if !ok {
		return nil, &MergeTypeError{Transform: t.Name(), Have: curr.Type()}
	}
	var sum uint256.Int
	sum.Add(&u.Int, &t.N)
	return UInt256{sum}, nil
}

func (t AddNamedKeys) Apply(curr Value) (Value, error) {
	switch curr := curr.(type) {
	case NamedKeys:
		return curr.merge(NamedKeys(t)), nil
	case Account:
		return Account{curr.PubKey, curr.Nonce, curr.Keys.merge(NamedKeys(t))}, nil
	case Contract:
		return Contract{curr.Code, curr.Keys.merge(NamedKeys(t))}, nil
	default:
		return nil, &MergeTypeError{Transform: t.Name(), Have: curr.Type()}
	}
}

// Combine composes two transforms applied in sequence into one equivalent
// transform: for every value v, Combine(a, b).Apply(v) == b.Apply(a.Apply(v)).
// It allows folding a per-key run of effects before replay.
func Combine(prev, next Transform) (Transform, error) {
	switch next.(type) {
	case Identity:
		return prev, nil
	case Write:
		return next, nil
	}

	switch prev := prev.(type) {
	case Identity:
		return next, nil
	case Write:
		v, err := next.Apply(prev.Value)
		if err != nil {
			return nil, err
		}
		return Write{v}, nil
	case AddUInt64:
		if next, ok := next.(AddUInt64); ok {
			return prev + next, nil
		}
	case AddUInt256:
		if next, ok := next.(AddUInt256); ok {
			var sum uint256.Int
			sum.Add(&prev.N, &next.N)
			return AddUInt256{sum}, nil
		}
	case AddNamedKeys:
		if next, ok := next.(AddNamedKeys); ok {
			return AddNamedKeys(NamedKeys(prev).merge(NamedKeys(next))), nil
		}
	}
	return nil, &MergeTypeError{Transform: next.Name(), Have: prev.Name()}
}

// Effect is one pending state change produced by an execution.
type Effect struct {
	Key       Key
	Transform Transform
}
