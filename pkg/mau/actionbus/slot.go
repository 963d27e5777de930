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
	"slices"
	"strings"

	"github.com/consensys/go-actionbus/pkg/mau/format"
	"github.com/consensys/go-actionbus/pkg/mau/hw"
)

// Slot is a region of the action bus starting at a fixed byte, along with the
// (compatible) entries which occupy it.  The byte of a slot never changes,
// whilst its size is the largest size ever assigned to it.
type Slot struct {
	// Name used when reporting on this slot.
	Name string
	// First bus byte of this slot.
	Byte uint
	// Width of this slot (in bits).
	Size uint
	// Line on which this slot was first declared (or allocated).
	Line int
	// Entries sorted by source and offset.
	data []Entry
}

func newSlot(name string, b uint, size uint, line int) *Slot {
	return &Slot{name, b, size, line, nil}
}

// Data returns the entries of this slot, in ascending order.
func (p *Slot) Data() []Entry {
	return p.data
}

// Insert an entry into this slot, returning false if it was already present.
func (p *Slot) Insert(e Entry) bool {
	i, found := slices.BinarySearchFunc(p.data, e, Entry.Cmp)
	if found {
		return false
	}
	//
	p.data = slices.Insert(p.data, i, e)
	//
	return true
}

// Insert an entry, along with the same entry for the variants of a field in
// the other groups of its format.  Such fields are marked as immediates.
func (p *Slot) add(e Entry) {
	p.Insert(e)
	//
	if e.Source.kind == FIELD {
		for _, f := range e.Source.field.ByGroup() {
			f.Flags |= format.USED_IMMED
			p.Insert(Entry{FieldSource(f), e.Offset})
		}
	}
}

// Remove an entry from this slot, returning false if it was not present.
func (p *Slot) Remove(e Entry) bool {
	i, found := slices.BinarySearchFunc(p.data, e, Entry.Cmp)
	if found {
		p.data = slices.Delete(p.data, i, i+1)
	}
	//
	return found
}

// Has determines whether this slot contains a given entry.
func (p *Slot) Has(e Entry) bool {
	_, found := slices.BinarySearchFunc(p.data, e, Entry.Cmp)
	return found
}

// HasSource determines whether any entry of this slot has a given source.
func (p *Slot) HasSource(src Source) bool {
	for _, e := range p.data {
		if e.Source == src {
			return true
		}
	}
	//
	return false
}

// IsTableOutput determines whether this slot carries the result of a table.
// Such slots never carry immediate data.
func (p *Slot) IsTableOutput() bool {
	return len(p.data) > 0 && p.data[0].Source.IsTableResult()
}

// Lo returns the input bit which feeds the first byte of this slot, or false if
// this slot carries only unresolved references.
func (p *Slot) Lo() (uint, bool) {
	for _, e := range p.data {
		if bit, ok := InputBit(e); ok {
			return bit, true
		}
	}
	//
	return 0, false
}

// Units returns the hardware slots covered by this slot.  The second result is
// false when this slot extends beyond the end of the bus.
func (p *Slot) Units(target *hw.Target) ([]uint, bool) {
	var units []uint
	//
	for b := p.Byte; b < p.Byte+(p.Size+7)/8; {
		unit, ok := target.SlotOf(b)
		if !ok {
			return units, false
		}
		//
		units = append(units, unit)
		b = target.SlotStart(unit) + target.SlotSize(unit)/8
	}
	//
	return units, true
}

func (p *Slot) String() string {
	var entries []string
	//
	for _, e := range p.data {
		entries = append(entries, e.String())
	}
	//
	return fmt.Sprintf("%d: %s [%d bits] {%s}", p.Byte, p.Name, p.Size, strings.Join(entries, ", "))
}

// InputBit returns the bit of its input word which supplies an entry, or false
// for unresolved references (and fields outside the immediate data).  Fields are numbered within their immediate data,
// and the high unit of a hash distribution pair supplies bits 16 and up.
func InputBit(e Entry) (uint, bool) {
	switch e.Source.kind {
	case FIELD:
		return e.Source.field.ImmedBit(e.Offset)
	case HASH_DIST:
		if e.Source.IsHigh() {
			return e.Offset + hw.HASH_DIST_BITS, true
		}
		//
		return e.Offset, true
	case NAME_REF, COLOR_REF, ADDRESS_REF, NONE:
		return 0, false
	default:
		return e.Offset, true
	}
}
