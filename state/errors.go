// Copyright (c) 2019 The Calyx developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"errors"
	"fmt"
)

// KeyNotFoundError is returned when reading an absent key, or when an
// accumulation transform is applied to an absent key.
type KeyNotFoundError struct {
	Key Key
}

func (e *KeyNotFoundError) Error() string {
	return fmt.Sprintf("key not found: %v", e.Key)
}

// DecodeError is returned when stored bytes do not parse as a valid value or
// key. It indicates data corruption or a version mismatch, never key absence.
type DecodeError struct {
	Msg   string
	Cause error
}

func (e *DecodeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("decode: %s: %v", e.Msg, e.Cause)
	}
	return "decode: " + e.Msg
}

func (e *DecodeError) Unwrap() error { return e.Cause }

// MergeTypeError is returned when a transform's required prior-value shape
// does not match the current value's shape.
type MergeTypeError struct {
	Transform string
	Have      string
}

func (e *MergeTypeError) Error() string {
	return fmt.Sprintf("transform %s not applicable to %s", e.Transform, e.Have)
}

// StoreError wraps a failure of the backing kv layer.
type StoreError struct {
	Cause error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("backing store: %v", e.Cause)
}

func (e *StoreError) Unwrap() error { return e.Cause }

// IsKeyNotFound returns whether the error indicates key absence.
func IsKeyNotFound(err error) bool {
	var e *KeyNotFoundError
	return errors.As(err, &e)
}

// IsDecodeError returns whether the error indicates malformed stored bytes.
func IsDecodeError(err error) bool {
	var e *DecodeError
	return errors.As(err, &e)
}

// IsMergeTypeError returns whether the error indicates a transform/value shape mismatch.
func IsMergeTypeError(err error) bool {
	var e *MergeTypeError
	return errors.As(err, &e)
}

// IsStoreError returns whether the error originated in the backing kv layer.
func IsStoreError(err error) bool {
	var e *StoreError
	return errors.As(err, &e)
}
