// Copyright (c) 2019 The Calyx developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calyxlabs/calyx/calyx"
	"github.com/calyxlabs/calyx/state"
)

func TestTransformApply(t *testing.T) {
	uref := state.URefKey(calyx.BytesToBytes32([]byte("uref")))

	tests := []struct {
		name      string
		transform state.Transform
		curr      state.Value
		want      state.Value
	}{
		{"identity", state.Identity{}, state.UInt64(1), state.UInt64(1)},
		{"write replaces", state.Write{Value: state.String("new")}, state.UInt64(1), state.String("new")},
		{"add uint64", state.AddUInt64(50), state.UInt64(100), state.UInt64(150)},
		{"add uint64 wraps", state.AddUInt64(2), state.UInt64(math.MaxUint64), state.UInt64(1)},
		{
			"add uint256",
			state.NewAddUInt256(uint256.NewInt(50)),
			state.NewUInt256(uint256.NewInt(100)),
			state.NewUInt256(uint256.NewInt(150)),
		},
		{
			"add named keys to named keys",
			state.AddNamedKeys{"b": uref},
			state.NamedKeys{"a": uref},
			state.NamedKeys{"a": uref, "b": uref},
		},
		{
			"add named keys to account",
			state.AddNamedKeys{"purse": uref},
			state.Account{Nonce: 3, Keys: state.NamedKeys{}},
			state.Account{Nonce: 3, Keys: state.NamedKeys{"purse": uref}},
		},
		{
			"add named keys to contract",
			state.AddNamedKeys{"b": uref},
			state.Contract{Code: []byte{1}, Keys: state.NamedKeys{"a": uref}},
			state.Contract{Code: []byte{1}, Keys: state.NamedKeys{"a": uref, "b": uref}},
		},
	}

	for _, tt := range tests {
		got, err := tt.transform.Apply(tt.curr)
		require.Nil(t, err, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}
}

func TestTransformTypeMismatch(t *testing.T) {
	tests := []struct {
		name      string
		transform state.Transform
		curr      state.Value
	}{
		{"add uint64 to string", state.AddUInt64(1), state.String("hello")},
		{"add uint64 to uint256", state.AddUInt64(1), state.NewUInt256(uint256.NewInt(1))},
		{"add uint256 to uint64", state.NewAddUInt256(uint256.NewInt(1)), state.UInt64(1)},
		{"add named keys to bytes", state.AddNamedKeys{}, state.Bytes{1}},
	}

	for _, tt := range tests {
		_, err := tt.transform.Apply(tt.curr)
		assert.True(t, state.IsMergeTypeError(err), tt.name)
	}
}

func TestTransformCommutativity(t *testing.T) {
	k1 := state.URefKey(calyx.BytesToBytes32([]byte{1}))
	k2 := state.URefKey(calyx.BytesToBytes32([]byte{2}))

	tests := []struct {
		name       string
		seed       state.Value
		transforms []state.Transform
		want       state.Value
	}{
		{
			"uint64 adds",
			state.UInt64(100),
			[]state.Transform{state.AddUInt64(1), state.AddUInt64(2), state.AddUInt64(3), state.Identity{}},
			state.UInt64(106),
		},
		{
			"uint256 adds",
			state.NewUInt256(uint256.NewInt(0)),
			[]state.Transform{
				state.NewAddUInt256(uint256.NewInt(10)),
				state.NewAddUInt256(uint256.NewInt(20)),
				state.NewAddUInt256(uint256.NewInt(30)),
			},
			state.NewUInt256(uint256.NewInt(60)),
		},
		{
			"named key unions with conflict",
			state.NamedKeys{},
			[]state.Transform{
				state.AddNamedKeys{"a": k1},
				state.AddNamedKeys{"a": k2, "b": k1},
				state.AddNamedKeys{"c": k2},
			},
			// a conflicting name resolves to the bytewise-greater key
			state.NamedKeys{"a": k2, "b": k1, "c": k2},
		},
	}

	rng := rand.New(rand.NewSource(1))
	for _, tt := range tests {
		for range 10 {
			transforms := append([]state.Transform(nil), tt.transforms...)
			rng.Shuffle(len(transforms), func(i, j int) {
				transforms[i], transforms[j] = transforms[j], transforms[i]
			})

			v := tt.seed
			for _, transform := range transforms {
				next, err := transform.Apply(v)
				require.Nil(t, err, tt.name)
				v = next
			}
			assert.Equal(t, tt.want, v, tt.name)
		}
	}
}

func TestCombine(t *testing.T) {
	k1 := state.URefKey(calyx.BytesToBytes32([]byte{1}))

	tests := []struct {
		name       string
		prev, next state.Transform
		want       state.Transform
	}{
		{"write then write", state.Write{Value: state.UInt64(1)}, state.Write{Value: state.UInt64(2)}, state.Write{Value: state.UInt64(2)}},
		{"write then add", state.Write{Value: state.UInt64(100)}, state.AddUInt64(50), state.Write{Value: state.UInt64(150)}},
		{"add then add", state.AddUInt64(1), state.AddUInt64(2), state.AddUInt64(3)},
		{"identity neutral left", state.Identity{}, state.AddUInt64(5), state.AddUInt64(5)},
		{"identity neutral right", state.AddUInt64(5), state.Identity{}, state.AddUInt64(5)},
		{
			"union then union",
			state.AddNamedKeys{"a": k1},
			state.AddNamedKeys{"b": k1},
			state.AddNamedKeys{"a": k1, "b": k1},
		},
		{
			"uint256 adds",
			state.NewAddUInt256(uint256.NewInt(1)),
			state.NewAddUInt256(uint256.NewInt(2)),
			state.NewAddUInt256(uint256.NewInt(3)),
		},
	}

	for _, tt := range tests {
		got, err := state.Combine(tt.prev, tt.next)
		require.Nil(t, err, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}
}

func TestCombineEquivalence(t *testing.T) {
	// Combine(a, b).Apply(v) must equal b.Apply(a.Apply(v))
	seed := state.UInt64(7)
	a, b := state.AddUInt64(3), state.AddUInt64(4)

	combined, err := state.Combine(a, b)
	require.Nil(t, err)

	sequential, err := a.Apply(seed)
	require.Nil(t, err)
	sequential, err = b.Apply(sequential)
	require.Nil(t, err)

	folded, err := combined.Apply(seed)
	require.Nil(t, err)
	assert.Equal(t, sequential, folded)
}

func TestCombineMismatch(t *testing.T) {
	_, err := state.Combine(state.AddUInt64(1), state.AddNamedKeys{})
	assert.True(t, state.IsMergeTypeError(err))

	// a write makes the next transform's shape requirement checkable eagerly
	_, err = state.Combine(state.Write{Value: state.String("x")}, state.AddUInt64(1))
	assert.True(t, state.IsMergeTypeError(err))
}
