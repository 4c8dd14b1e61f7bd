// Copyright 2013 Richard Lehane. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cfb

import (
	"errors"
	"fmt"
)

// Coarse error kinds. Consumers should prefer errors.Is against these
// sentinels; CorruptedFormat failures additionally carry an *Error with
// the offending sector id where one is known.
var (
	ErrUnsupportedVersion = errors.New("cfb: unsupported major version")
	ErrItemNotFound       = errors.New("cfb: item not found")
	ErrDuplicatedItem     = errors.New("cfb: duplicated item")
	ErrInvalidName        = errors.New("cfb: invalid name")
	ErrInvalidOperation   = errors.New("cfb: invalid operation")
	ErrDisposed           = errors.New("cfb: compound file is closed")
	ErrCorruptedFormat    = errors.New("cfb: corrupted format")
)

// Error is a CorruptedFormat failure with positional context: the
// sector or directory id that triggered it, when known. val is -1 when
// no single id is responsible.
type Error struct {
	msg string
	val int64
}

func corrupted(msg string) error {
	return &Error{msg: msg, val: -1}
}

func corruptedAt(msg string, val uint32) error {
	return &Error{msg: msg, val: int64(val)}
}

func (e *Error) Error() string {
	if e.val < 0 {
		return fmt.Sprintf("cfb: corrupted format: %s", e.msg)
	}
	return fmt.Sprintf("cfb: corrupted format: %s (sector %d)", e.msg, e.val)
}

func (e *Error) Unwrap() error { return ErrCorruptedFormat }

// ioError wraps an underlying stream failure with operation context,
// matching the teacher's blanket ErrRead sentinel but preserving the
// original error for errors.Is/As.
func ioError(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("cfb: %s: %w", op, err)
}
