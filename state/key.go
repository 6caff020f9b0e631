// Copyright (c) 2019 The Calyx developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"bytes"
	"fmt"

	"github.com/calyxlabs/calyx/calyx"
)

// KeyTag identifies the kind of a key.
type KeyTag byte

const (
	// AccountKeyTag keys an account by its address.
	AccountKeyTag KeyTag = iota
	// HashKeyTag keys a stored contract by its hash.
	HashKeyTag
	// URefKeyTag keys an unforgeable reference.
	URefKeyTag
)

// Key identifies one storage slot of the global state.
// It is immutable, comparable and usable as a map key. Its byte form
// determines the on-disk key, so equality and ordering are bitwise.
type Key struct {
	tag     KeyTag
	payload calyx.Bytes32
}

// AccountKey creates a key for the account at the given address.
func AccountKey(addr calyx.Address) Key {
	var payload calyx.Bytes32
	copy(payload[:], addr[:])
	return Key{AccountKeyTag, payload}
}

// HashKey creates a key for the contract stored under the given hash.
func HashKey(hash calyx.Bytes32) Key {
	return Key{HashKeyTag, hash}
}

// URefKey creates a key for the given unforgeable reference.
func URefKey(uref calyx.Bytes32) Key {
	return Key{URefKeyTag, uref}
}

// Tag returns the kind of the key.
func (k Key) Tag() KeyTag { return k.tag }

// Address returns the account address for an account key.
// The second return value is false for other key kinds.
func (k Key) Address() (calyx.Address, bool) {
	if k.tag != AccountKeyTag {
		return calyx.Address{}, false
	}
	return calyx.Address(k.payload[:calyx.AddressLength]), true
}

// Bytes returns the canonical byte form: one tag byte followed by the payload.
func (k Key) Bytes() []byte {
	n := 32
	if k.tag == AccountKeyTag {
		n = calyx.AddressLength
	}
	b := make([]byte, 1+n)
	b[0] = byte(k.tag)
	copy(b[1:], k.payload[:n])
	return b
}

// Compare bytewise-compares the canonical forms of two keys.
func (k Key) Compare(other Key) int {
	return bytes.Compare(k.Bytes(), other.Bytes())
}

// String implements stringer.
func (k Key) String() string {
	switch k.tag {
	case AccountKeyTag:
		addr, _ := k.Address()
		return "account:" + addr.String()
	case HashKeyTag:
		return "hash:" + k.payload.String()
	case URefKeyTag:
		return "uref:" + k.payload.String()
	default:
		return fmt.Sprintf("key(%d):%s", k.tag, k.payload)
	}
}

// DecodeKey parses the canonical byte form produced by Bytes.
func DecodeKey(data []byte) (Key, error) {
	if len(data) == 0 {
		return Key{}, &DecodeError{Msg: "empty key bytes"}
	}
	tag := KeyTag(data[0])
	payload := data[1:]
	switch tag {
	case AccountKeyTag:
		if len(payload) != calyx.AddressLength {
			return Key{}, &DecodeError{Msg: fmt.Sprintf("account key payload length %d", len(payload))}
		}
		return AccountKey(calyx.Address(payload)), nil
	case HashKeyTag, URefKeyTag:
		if len(payload) != 32 {
			return Key{}, &DecodeError{Msg: fmt.Sprintf("key payload length %d", len(payload))}
		}
		return Key{tag, calyx.Bytes32(payload)}, nil
	default:
		return Key{}, &DecodeError{Msg: fmt.Sprintf("unknown key tag %d", tag)}
	}
}
