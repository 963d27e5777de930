// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package actionbus

import (
	"fmt"
	"strings"
)

// ValueKind identifies the shape of a declared value.
type ValueKind uint8

const (
	// INT_VALUE is a single unsigned integer.
	INT_VALUE ValueKind = iota
	// RANGE_VALUE is an inclusive range of unsigned integers.
	RANGE_VALUE
	// STRING_VALUE is a name.
	STRING_VALUE
	// CMD_VALUE is a name applied to zero or more argument values.
	CMD_VALUE
)

// Value is a typed value from a declaration, as produced by the reader of the
// surrounding assembly language.
type Value struct {
	Kind ValueKind
	// Integer (or start of range).
	Lo uint
	// End of range.
	Hi uint
	// Name of string or command.
	Str string
	// Arguments of command.
	Args []Value
}

// Int constructs an integer value.
func Int(v uint) Value {
	return Value{Kind: INT_VALUE, Lo: v, Hi: v}
}

// Range constructs a range value.
func Range(lo uint, hi uint) Value {
	return Value{Kind: RANGE_VALUE, Lo: lo, Hi: hi}
}

// Str constructs a string value.
func Str(s string) Value {
	return Value{Kind: STRING_VALUE, Str: s}
}

// Cmd constructs a command value.
func Cmd(name string, args ...Value) Value {
	return Value{Kind: CMD_VALUE, Str: name, Args: args}
}

// Is determines whether this value is a given string.
func (v Value) Is(s string) bool {
	return v.Kind == STRING_VALUE && v.Str == s
}

func (v Value) String() string {
	switch v.Kind {
	case INT_VALUE:
		return fmt.Sprintf("%d", v.Lo)
	case RANGE_VALUE:
		return fmt.Sprintf("%d..%d", v.Lo, v.Hi)
	case STRING_VALUE:
		return v.Str
	}
	//
	args := make([]string, len(v.Args))
	for i, a := range v.Args {
		args[i] = a.String()
	}
	//
	return fmt.Sprintf("%s(%s)", v.Str, strings.Join(args, ", "))
}

// Index identifies either a single bus byte, or an inclusive range of them.
type Index struct {
	Lo      uint
	Hi      uint
	IsRange bool
}

// Byte constructs an index for a single bus byte.
func Byte(b uint) Index {
	return Index{b, b, false}
}

// Bytes constructs an index for an inclusive range of bus bytes.
func Bytes(lo uint, hi uint) Index {
	return Index{lo, hi, true}
}

// Declaration is one entry of a table's action bus declaration, stating that a
// given source occupies the bus from a given byte.
type Declaration struct {
	Line  int
	Key   Index
	Value Value
}
