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
	"cmp"
	"fmt"

	"github.com/consensys/go-actionbus/pkg/mau/format"
	"github.com/consensys/go-actionbus/pkg/mau/hw"
)

// SourceKind identifies what sort of value a source provides.
type SourceKind uint8

const (
	// NONE is the empty source.
	NONE SourceKind = iota
	// FIELD is a field of a table format.
	FIELD
	// HASH_DIST is a single hash distribution unit.
	HASH_DIST
	// HASH_DIST_PAIR is two hash distribution units forming one 32bit value.
	HASH_DIST_PAIR
	// RANDOM_GEN is a random number generator unit.
	RANDOM_GEN
	// TABLE_OUTPUT is the result of a table.
	TABLE_OUTPUT
	// TABLE_COLOR is the color output of a meter.
	TABLE_COLOR
	// TABLE_ADDRESS is the address output of a table.
	TABLE_ADDRESS
	// EALU is passthrough data from an exact match ALU.
	EALU
	// XCMP_DATA is a byte of the crossbar from a given group.
	XCMP_DATA
	// NAME_REF is an unresolved reference to a table (output) or field.
	NAME_REF
	// COLOR_REF is an unresolved reference to the color of a meter.
	COLOR_REF
	// ADDRESS_REF is an unresolved reference to the address of a table.
	ADDRESS_REF
)

// Source identifies a value which can be placed on the action bus.  Sources
// are comparable, and can be used as map keys.  Fields, tables and hash
// distribution units are compared by identity.
type Source struct {
	kind  SourceKind
	field *format.Field
	table Table
	hd    [2]*hw.HashDist
	// Unit for random number generators and ealus, byte for xcmp.
	index uint
	// Group for xcmp data.
	group uint
	// Name for references.
	name string
	// Hash distribution unit feeding the high half of the immediate data.
	high bool
}

// FieldSource constructs a source for a format field.
func FieldSource(field *format.Field) Source {
	return Source{kind: FIELD, field: field}
}

// HashDistSource constructs a source for a single hash distribution unit.
func HashDistSource(hd *hw.HashDist) Source {
	return Source{kind: HASH_DIST, hd: [2]*hw.HashDist{hd, nil}}
}

// HashDistHighSource constructs a source for a single hash distribution unit
// feeding the high half of the immediate data.  The same unit may also feed
// the low half through a separate source.
func HashDistHighSource(hd *hw.HashDist) Source {
	return Source{kind: HASH_DIST, hd: [2]*hw.HashDist{hd, nil}, high: true}
}

// HashDistPairSource constructs a source for a pair of hash distribution units
// forming the low and high halves of a 32bit value.
func HashDistPairSource(lo *hw.HashDist, hi *hw.HashDist) Source {
	return Source{kind: HASH_DIST_PAIR, hd: [2]*hw.HashDist{lo, hi}}
}

// RandomSource constructs a source for a random number generator unit.
func RandomSource(unit uint) Source {
	return Source{kind: RANDOM_GEN, index: unit}
}

// TableOutputSource constructs a source for the output of a table.
func TableOutputSource(table Table) Source {
	return Source{kind: TABLE_OUTPUT, table: table}
}

// TableColorSource constructs a source for the color of a meter.
func TableColorSource(table Table) Source {
	return Source{kind: TABLE_COLOR, table: table}
}

// TableAddressSource constructs a source for the address of a table.
func TableAddressSource(table Table) Source {
	return Source{kind: TABLE_ADDRESS, table: table}
}

// EaluSource constructs a source for an exact match ALU.
func EaluSource(unit uint) Source {
	return Source{kind: EALU, index: unit}
}

// XcmpSource constructs a source for a byte of a given crossbar group.
func XcmpSource(group uint, offset uint) Source {
	return Source{kind: XCMP_DATA, group: group, index: offset}
}

// NameRef constructs an unresolved reference.  An empty name refers to the
// (single) meter attached to the table.
func NameRef(name string) Source {
	return Source{kind: NAME_REF, name: name}
}

// ColorRef constructs an unresolved reference to the color of a meter.
func ColorRef(name string) Source {
	return Source{kind: COLOR_REF, name: name}
}

// AddressRef constructs an unresolved reference to the address of a table.
func AddressRef(name string) Source {
	return Source{kind: ADDRESS_REF, name: name}
}

// Kind returns the kind of this source.
func (s Source) Kind() SourceKind {
	return s.kind
}

// Field returns the field of a FIELD source.
func (s Source) Field() *format.Field {
	return s.field
}

// Table returns the table of a TABLE_OUTPUT, TABLE_COLOR or TABLE_ADDRESS
// source.
func (s Source) Table() Table {
	return s.table
}

// HashDist returns the ith hash distribution unit of a HASH_DIST (i==0) or
// HASH_DIST_PAIR source.
func (s Source) HashDist(i uint) *hw.HashDist {
	return s.hd[i]
}

// Unit returns the unit of a RANDOM_GEN or EALU source, or the byte of an
// XCMP_DATA source.
func (s Source) Unit() uint {
	return s.index
}

// Name returns the name carried by an unresolved reference.
func (s Source) Name() string {
	return s.name
}

// IsHigh determines whether this is a hash distribution source feeding the
// high half of the immediate data, either because it was declared that way or
// because its unit feeds only the high half.
func (s Source) IsHigh() bool {
	return s.kind == HASH_DIST && (s.high || s.hd[0].IsHigh())
}

// IsRef determines whether this source is an unresolved reference.
func (s Source) IsRef() bool {
	return s.kind == NAME_REF || s.kind == COLOR_REF || s.kind == ADDRESS_REF
}

// IsTableResult determines whether this source is the result of some table.
// Such sources cannot share bus bytes with immediate data.
func (s Source) IsTableResult() bool {
	return s.kind == TABLE_OUTPUT || s.kind == TABLE_COLOR || s.kind == TABLE_ADDRESS
}

// Cmp orders sources by kind and then by a stable key for their payload.
func (s Source) Cmp(o Source) int {
	if c := cmp.Compare(s.kind, o.kind); c != 0 {
		return c
	}
	//
	switch s.kind {
	case FIELD:
		return s.field.Key().Cmp(o.field.Key())
	case HASH_DIST:
		if c := s.hd[0].Cmp(o.hd[0]); c != 0 {
			return c
		}
		//
		return cmp.Compare(btoi(s.high), btoi(o.high))
	case HASH_DIST_PAIR:
		if c := s.hd[0].Cmp(o.hd[0]); c != 0 {
			return c
		}
		//
		return s.hd[1].Cmp(o.hd[1])
	case TABLE_OUTPUT, TABLE_COLOR, TABLE_ADDRESS:
		return cmp.Compare(s.table.Uid(), o.table.Uid())
	case XCMP_DATA:
		if c := cmp.Compare(s.group, o.group); c != 0 {
			return c
		}
		//
		return cmp.Compare(s.index, o.index)
	case NAME_REF, COLOR_REF, ADDRESS_REF:
		return cmp.Compare(s.name, o.name)
	default:
		return cmp.Compare(s.index, o.index)
	}
}

func (s Source) String() string {
	switch s.kind {
	case FIELD:
		return s.field.Name
	case HASH_DIST:
		if s.high {
			return s.hd[0].String() + " hi"
		}
		//
		return s.hd[0].String()
	case HASH_DIST_PAIR:
		return fmt.Sprintf("hash_dist %d,%d", s.hd[0].ID, s.hd[1].ID)
	case RANDOM_GEN:
		return fmt.Sprintf("rng %d", s.index)
	case TABLE_OUTPUT:
		return s.table.Name()
	case TABLE_COLOR:
		return fmt.Sprintf("%s:color", s.table.Name())
	case TABLE_ADDRESS:
		return fmt.Sprintf("%s:address", s.table.Name())
	case EALU:
		return fmt.Sprintf("ealu %d", s.index)
	case XCMP_DATA:
		return fmt.Sprintf("xcmp(%d:%d)", s.group, s.index)
	case NAME_REF:
		return refName(s.name, "")
	case COLOR_REF:
		return refName(s.name, ":color")
	case ADDRESS_REF:
		return refName(s.name, ":address")
	}
	//
	return "<none>"
}

func btoi(b bool) int {
	if b {
		return 1
	}
	//
	return 0
}

func refName(name string, suffix string) string {
	if name == "" {
		name = "meter"
	}
	//
	return name + suffix
}

// Entry is a source along with the offset (in bits) of the part of that source
// which starts at the beginning of a slot.
type Entry struct {
	Source Source
	Offset uint
}

// Cmp orders entries by source and then offset.
func (e Entry) Cmp(o Entry) int {
	if c := e.Source.Cmp(o.Source); c != 0 {
		return c
	}
	//
	return cmp.Compare(e.Offset, o.Offset)
}

func (e Entry) String() string {
	if e.Offset == 0 {
		return e.Source.String()
	}
	//
	return fmt.Sprintf("%s(%d)", e.Source, e.Offset)
}
