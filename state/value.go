// Copyright (c) 2019 The Calyx developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"

	"github.com/calyxlabs/calyx/calyx"
)

// Value is a storable payload of the global state. The set of shapes is
// closed: Bytes, String, UInt64, UInt256, NamedKeys, Account and Contract.
//
// Every shape round-trips through the canonical byte encoding produced by
// EncodeValue: one tag byte followed by the RLP encoded payload. The encoding
// is the durable on-disk contract, so tags and payload layouts must never be
// reused or reordered.
type Value interface {
	// Type returns the name of the value's shape.
	Type() string

	isValue()
}

// value tags. Append-only.
const (
	bytesValueTag byte = iota
	stringValueTag
	uint64ValueTag
	uint256ValueTag
	namedKeysValueTag
	accountValueTag
	contractValueTag
)

// Bytes is an opaque byte string.
type Bytes []byte

// String is a UTF-8 string.
type String string

// UInt64 is an unsigned 64-bit integer.
type UInt64 uint64

// UInt256 is an unsigned 256-bit integer.
type UInt256 struct {
	Int uint256.Int
}

// NewUInt256 creates a UInt256 value from i.
func NewUInt256(i *uint256.Int) UInt256 {
	return UInt256{*i}
}

// NamedKeys maps names to keys.
type NamedKeys map[string]Key

// Account is the stored representation of an account.
type Account struct {
	PubKey calyx.Bytes32
	Nonce  uint64
	Keys   NamedKeys
}

// Contract is the stored representation of a contract.
type Contract struct {
	Code []byte
	Keys NamedKeys
}

func (Bytes) Type() string     { return "bytes" }
func (String) Type() string    { return "string" }
func (UInt64) Type() string    { return "uint64" }
func (UInt256) Type() string   { return "uint256" }
func (NamedKeys) Type() string { return "named-keys" }
func (Account) Type() string   { return "account" }
func (Contract) Type() string  { return "contract" }

func (Bytes) isValue()     {}
func (String) isValue()    {}
func (UInt64) isValue()    {}
func (UInt256) isValue()   {}
func (NamedKeys) isValue() {}
func (Account) isValue()   {}
func (Contract) isValue()  {}

// merge returns the union of nk and other. A name bound by both sides
// resolves to the bytewise-greater key, which makes the union commutative,
// associative and idempotent.
func (nk NamedKeys) merge(other NamedKeys) NamedKeys {
	out := make(NamedKeys, len(nk)+len(other))
	for name, key := range nk {
		out[name] = key
	}
	for name, key := range other {
		if cur, ok := out[name]; !ok || cur.Compare(key) < 0 {
			out[name] = key
		}
	}
	return out
}

// namedKeyPair is the wire form of one named key. Pair lists are sorted by
// name so that the encoding is independent of map iteration order.
type namedKeyPair struct {
	Name string
	Key  []byte
}

func (nk NamedKeys) pairs() []namedKeyPair {
	pairs := make([]namedKeyPair, 0, len(nk))
	for name, key := range nk {
		pairs = append(pairs, namedKeyPair{name, key.Bytes()})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Name < pairs[j].Name })
	return pairs
}

func namedKeysFromPairs(pairs []namedKeyPair) (NamedKeys, error) {
	nk := make(NamedKeys, len(pairs))
	for _, pair := range pairs {
		key, err := DecodeKey(pair.Key)
		if err != nil {
			return nil, err
		}
		nk[pair.Name] = key
	}
	return nk, nil
}

type accountPayload struct {
	PubKey calyx.Bytes32
	Nonce  uint64
	Keys   []namedKeyPair
}

type contractPayload struct {
	Code []byte
	Keys []namedKeyPair
}

// EncodeValue encodes v into its canonical byte form.
func EncodeValue(v Value) ([]byte, error) {
	var (
		tag     byte
		payload []byte
		err     error
	)
	switch v := v.(type) {
	case Bytes:
		tag = bytesValueTag
		payload, err = rlp.EncodeToBytes([]byte(v))
	case String:
		tag = stringValueTag
		payload, err = rlp.EncodeToBytes(string(v))
	case UInt64:
		tag = uint64ValueTag
		payload, err = rlp.EncodeToBytes(uint64(v))
	case UInt256:
		tag = uint256ValueTag
		payload, err = rlp.EncodeToBytes(v.Int.Bytes())
	case NamedKeys:
		tag = namedKeysValueTag
		payload, err = rlp.EncodeToBytes(v.pairs())
	case Account:
		tag = accountValueTag
		payload, err = rlp.EncodeToBytes(&accountPayload{v.PubKey, v.Nonce, v.Keys.pairs()})
	case Contract:
		tag = contractValueTag
		payload, err = rlp.EncodeToBytes(&contractPayload{v.Code, v.Keys.pairs()})
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
	if err != nil {
		return nil, err
	}
	return append([]byte{tag}, payload...), nil
}

// DecodeValue parses the canonical byte form produced by EncodeValue.
// Malformed input is reported as a DecodeError, never as key absence.
func DecodeValue(data []byte) (Value, error) {
	if len(data) == 0 {
		return nil, &DecodeError{Msg: "empty value bytes"}
	}
	tag, payload := data[0], data[1:]
	switch tag {
	case bytesValueTag:
		var b []byte
		if err := rlp.DecodeBytes(payload, &b); err != nil {
			return nil, &DecodeError{Msg: "bytes value", Cause: err}
		}
		return Bytes(b), nil
	case stringValueTag:
		var s string
		if err := rlp.DecodeBytes(payload, &s); err != nil {
			return nil, &DecodeError{Msg: "string value", Cause: err}
		}
		return String(s), nil
	case uint64ValueTag:
		var u uint64
		if err := rlp.DecodeBytes(payload, &u); err != nil {
			return nil, &DecodeError{Msg: "uint64 value", Cause: err}
		}
		return UInt64(u), nil
	case uint256ValueTag:
		var b []byte
		if err := rlp.DecodeBytes(payload, &b); err != nil {
			return nil, &DecodeError{Msg: "uint256 value", Cause: err}
		}
		if len(b) > 32 {
			return nil, &DecodeError{Msg: fmt.Sprintf("uint256 value length %d", len(b))}
		}
		var i uint256.Int
		i.SetBytes(b)
		return UInt256{i}, nil
	case namedKeysValueTag:
		var pairs []namedKeyPair
		if err := rlp.DecodeBytes(payload, &pairs); err != nil {
			return nil, &DecodeError{Msg: "named keys value", Cause: err}
		}
		return namedKeysFromPairs(pairs)
	case accountValueTag:
		var acc accountPayload
		if err := rlp.DecodeBytes(payload, &acc); err != nil {
			return nil, &DecodeError{Msg: "account value", Cause: err}
		}
		keys, err := namedKeysFromPairs(acc.Keys)
		if err != nil {
			return nil, err
		}
		return Account{acc.PubKey, acc.Nonce, keys}, nil
	case contractValueTag:
		var c contractPayload
		if err := rlp.DecodeBytes(payload, &c); err != nil {
			return nil, &DecodeError{Msg: "contract value", Cause: err}
		}
		keys, err := namedKeysFromPairs(c.Keys)
		if err != nil {
			return nil, err
		}
		return Contract{c.Code, keys}, nil
	default:
		return nil, &DecodeError{Msg: fmt.Sprintf("unknown value tag %d", tag)}
	}
}
