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
package format

import (
	"cmp"
	"fmt"
)

// Bitrange identifies an inclusive range of bits within a table entry.
type Bitrange struct {
	Lo uint
	Hi uint
}

// Size returns the number of bits in this range.
func (r Bitrange) Size() uint {
	return r.Hi - r.Lo + 1
}

func (r Bitrange) String() string {
	return fmt.Sprintf("%d..%d", r.Lo, r.Hi)
}

// Flags records how a field is used by the rest of the assembler.
type Flags uint8

const (
	// USED_IMMED indicates the field is routed onto the action bus as
	// immediate data.
	USED_IMMED Flags = 1 << iota
)

// Key uniquely identifies a field across all formats, and is used to give
// fields a stable order.
type Key struct {
	Format uint
	Group  uint
	Index  uint
}

// Cmp compares two keys lexicographically.
func (k Key) Cmp(o Key) int {
	if c := cmp.Compare(k.Format, o.Format); c != 0 {
		return c
	} else if c := cmp.Compare(k.Group, o.Group); c != 0 {
		return c
	}
	//
	return cmp.Compare(k.Index, o.Index)
}

// Field is a named value within a table entry format.  A field may be split
// across several (non-contiguous) ranges of bits, in which case its logical
// bits are laid out across those ranges in order.
type Field struct {
	// Name of this field.
	Name string
	// Width of this field (in bits).
	Size uint
	// Physical bit ranges occupied by this field.
	Bits []Bitrange
	// Usage flags.
	Flags Flags
	// Enclosing format
	format *Format
	// Group and position of this field within the enclosing format.
	group uint
	index uint
}

// Format returns the format which owns this field.
func (f *Field) Format() *Format {
	return f.format
}

// Group returns the index of the parallel group which contains this field.
func (f *Field) Group() uint {
	return f.group
}

// Key returns the unique key identifying this field.
func (f *Field) Key() Key {
	return Key{f.format.id, f.group, f.index}
}

// Bit returns the physical bit holding a given logical bit of this field.
func (f *Field) Bit(offset uint) uint {
	for _, r := range f.Bits {
		if offset < r.Size() {
			return r.Lo + offset
		}
		//
		offset -= r.Size()
	}
	//
	panic(fmt.Sprintf("bit %d out of range for field %s", offset, f.Name))
}

// ImmedBit returns the position of a given logical bit of this field within
// the immediate data of its format, or false if that bit lies below the start
// of the immediate data.  For formats without immediate data this is the same
// as Bit.
func (f *Field) ImmedBit(offset uint) (uint, bool) {
	bit := f.Bit(offset)
	if bit < f.format.immed {
		return 0, false
	}
	//
	return bit - f.format.immed, true
}

// IsImmediate determines whether every bit of this field lies within the
// immediate data of its format.
func (f *Field) IsImmediate() bool {
	for _, r := range f.Bits {
		if r.Lo < f.format.immed {
			return false
		}
	}
	//
	return true
}

// Lo returns the physical bit holding the least significant bit of this field.
func (f *Field) Lo() uint {
	return f.Bits[0].Lo
}

// Hi returns the physical bit holding the most significant bit of this field.
func (f *Field) Hi() uint {
	return f.Bits[len(f.Bits)-1].Hi
}

// ByGroup returns this field along with every same-named field in the other
// groups of the enclosing format.  Such fields are replicated identically
// across groups, and must be treated as one.
func (f *Field) ByGroup() []*Field {
	var fields []*Field
	//
	for g := range f.format.groups {
		if h := f.format.FieldIn(uint(g), f.Name); h != nil {
			fields = append(fields, h)
		}
	}
	//
	return fields
}

// SameGroupAs determines whether two fields are variants of the same field in
// different groups of one format.
func (f *Field) SameGroupAs(o *Field) bool {
	return f.format == o.format && f.Name == o.Name
}

func (f *Field) String() string {
	return f.Name
}
