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
	"slices"
	"strings"

	"github.com/bits-and-blooms/bitset"
	"github.com/consensys/go-actionbus/pkg/mau/format"
	"github.com/consensys/go-actionbus/pkg/mau/hw"
	log "github.com/sirupsen/logrus"
)

// SizeMask identifies a set of hardware slot widths.
type SizeMask uint8

const (
	// BYTE_SLOT requests an 8bit slot.
	BYTE_SLOT SizeMask = 1 << iota
	// HALF_SLOT requests a 16bit slot.
	HALF_SLOT
	// WORD_SLOT requests a 32bit slot.
	WORD_SLOT
)

// Widths returns the slot widths (in bits) in this mask, smallest first.
func (m SizeMask) Widths() []uint {
	var widths []uint
	//
	for i, w := range []uint{8, 16, 32} {
		if m&(1<<i) != 0 {
			widths = append(widths, w)
		}
	}
	//
	return widths
}

// Need records that part of a source must be placed on the bus, in slots of
// one or more widths.
type Need struct {
	Source Source
	Offset uint
	Size   SizeMask
	// Line of the first request, against which placement errors are reported.
	Line int
}

// ActionBus is the action bus allocation for a single table.  This is populated
// from the table's declarations and then completed by Pass1 and Pass3.  Once
// complete it is read only.
type ActionBus struct {
	// Line on which the bus was declared.
	Line int
	// Target hardware
	target *hw.Target
	// Slots indexed by their first byte.
	slots []*Slot
	// Sources still requiring space, by offset.
	needPlace map[Source]map[uint]Need
	// Input bytes consumed.
	byteUse *bitset.BitSet
	// Byte groups used, indexed by input word and then output slice.
	sliceUse [][]uint16
	// Bus bits occupied by this table.
	bitUse *bitset.BitSet
	// Input bit feeding each hardware slot used.
	unitBit map[uint]uint
}

// New constructs an empty action bus for a given target.
func New(target *hw.Target, line int) *ActionBus {
	sliceUse := make([][]uint16, target.InputWords)
	for i := range sliceUse {
		sliceUse[i] = make([]uint16, target.Slices())
	}
	//
	return &ActionBus{
		Line:      line,
		target:    target,
		slots:     make([]*Slot, target.BusBytes()),
		needPlace: make(map[Source]map[uint]Need),
		byteUse:   bitset.New(target.InputWords * hw.INPUT_WORD_BYTES),
		sliceUse:  sliceUse,
		bitUse:    bitset.New(target.BusBytes() * 8),
		unitBit:   make(map[uint]uint),
	}
}

// Target returns the hardware target of this bus.
func (p *ActionBus) Target() *hw.Target {
	return p.target
}

// Slot returns the slot starting at a given byte, or nil.
func (p *ActionBus) Slot(b uint) *Slot {
	if b >= uint(len(p.slots)) {
		return nil
	}
	//
	return p.slots[b]
}

// Slots returns all slots of this bus in ascending byte order.
func (p *ActionBus) Slots() []*Slot {
	var slots []*Slot
	//
	for _, s := range p.slots {
		if s != nil {
			slots = append(slots, s)
		}
	}
	//
	return slots
}

// ByteUse returns the input bytes consumed by this bus.
func (p *ActionBus) ByteUse() *bitset.BitSet {
	return p.byteUse
}

// BitUse returns the bus bits occupied by this table.
func (p *ActionBus) BitUse() *bitset.BitSet {
	return p.bitUse
}

// SliceUse returns the byte groups of a given input word which are routed into
// a given output slice.  Returns false if either is out of range.
func (p *ActionBus) SliceUse(word uint, slice uint) (uint16, bool) {
	if word >= uint(len(p.sliceUse)) || slice >= uint(len(p.sliceUse[word])) {
		return 0, false
	}
	//
	return p.sliceUse[word][slice], true
}

// NeedAlloc records that part of a source must be placed on this bus in slots
// of the given widths.  Repeated requests accumulate.
func (p *ActionBus) NeedAlloc(src Source, offset uint, size SizeMask) {
	p.needAt(p.Line, src, offset, size)
}

func (p *ActionBus) needAt(line int, src Source, offset uint, size SizeMask) {
	if _, ok := p.needPlace[src]; !ok {
		p.needPlace[src] = make(map[uint]Need)
	}
	//
	n, ok := p.needPlace[src][offset]
	if !ok {
		n = Need{src, offset, 0, line}
	}
	//
	n.Size |= size
	p.needPlace[src][offset] = n
}

// NeedAllocField records that a range of bits of a field must be placed on
// this bus in slots of the given widths.
func (p *ActionBus) NeedAllocField(field *format.Field, lo uint, size SizeMask) {
	p.NeedAlloc(FieldSource(field), lo, size)
}

// Needs returns the outstanding placement requests in a stable order.
func (p *ActionBus) Needs() []Need {
	var needs []Need
	//
	for _, offsets := range p.needPlace {
		for _, n := range offsets {
			needs = append(needs, n)
		}
	}
	//
	slices.SortFunc(needs, func(a, b Need) int {
		if c := a.Source.Cmp(b.Source); c != 0 {
			return c
		}
		//
		return cmp.Compare(a.Offset, b.Offset)
	})
	//
	return needs
}

// Find looks for the bus byte holding a given bit offset of a source, such
// that at least the given number of bits of the source are available from
// there.
func (p *ActionBus) Find(src Source, offset uint, bits uint) (uint, bool) {
	return p.find(src, offset, bits, nil)
}

// FindIn is like Find, but only considers bytes within the regions searched
// when allocating slots of a given width.
func (p *ActionBus) FindIn(src Source, offset uint, bits uint, width uint) (uint, bool) {
	return p.find(src, offset, bits, p.target.SearchRegions(width))
}

func (p *ActionBus) find(src Source, offset uint, bits uint, regions []hw.Region) (uint, bool) {
	for _, slot := range p.slots {
		if slot == nil {
			continue
		}
		//
		for _, e := range slot.data {
			if e.Source != src || offset < e.Offset || offset >= e.Offset+slot.Size {
				continue
			}
			//
			delta := offset - e.Offset
			b := slot.Byte + delta/8
			//
			if delta%8 == 0 && slot.Size-delta >= bits && (regions == nil || inRegions(b, regions)) {
				return b, true
			}
		}
	}
	//
	return 0, false
}

func inRegions(b uint, regions []hw.Region) bool {
	for _, r := range regions {
		if r.Min <= b && b <= r.Max {
			return true
		}
	}
	//
	return false
}

// SetupSlot records that an entry of a given size (in bits) occupies the bus
// starting at a given byte.  Field entries are replicated across all groups of
// the field's format.
func (p *ActionBus) SetupSlot(line int, tbl Table, name string, b uint, src Source, size uint, offset uint) {
	if b >= p.target.BusBytes() {
		tbl.Stage().Diag.Errorf(line, "Action bus index %d out of range", b)
		return
	}
	//
	slot := p.slots[b]
	if slot == nil {
		slot = newSlot(name, b, size, line)
		p.slots[b] = slot
	} else {
		slot.Size = max(slot.Size, size)
	}
	//
	slot.add(Entry{src, offset})
	//
	log.Debugf("%s: action bus %d <- %s(%d) [%d bits]", tbl.Name(), b, src, offset, size)
}

func (p *ActionBus) String() string {
	var lines []string
	//
	for _, s := range p.Slots() {
		lines = append(lines, s.String())
	}
	//
	return strings.Join(lines, "\n")
}

// Mark the bus bits of a given byte range as used by a given table.
func (p *ActionBus) markBus(tbl Table, b uint, bytes uint) {
	for i := b * 8; i < (b+bytes)*8 && i < p.bitUse.Len(); i++ {
		p.bitUse.Set(i)
		tbl.Stage().busBits.Set(i)
	}
}

// Mark a run of input bytes as routed onto a run of output bytes.  Returns the
// first input byte beyond the crossbar, if any.
func (p *ActionBus) markInput(inbyte uint, outbyte uint, bytes uint) (uint, bool) {
	for k := uint(0); k < bytes; k++ {
		in, out := inbyte+k, outbyte+k
		word, slice := in/hw.INPUT_WORD_BYTES, out/p.target.SliceBytes
		//
		if _, ok := p.SliceUse(word, slice); !ok {
			return in, false
		}
		//
		p.byteUse.Set(in)
		p.sliceUse[word][slice] |= p.target.ByteGroup(in)
	}
	//
	return 0, true
}

// Record the input bit feeding a hardware slot, returning the bit recorded
// earlier if it differs.
func (p *ActionBus) recordUnit(unit uint, bit uint) (uint, bool) {
	if old, ok := p.unitBit[unit]; ok && old != bit {
		return old, false
	}
	//
	p.unitBit[unit] = bit
	//
	return bit, true
}

// unitInputBit returns the input bit feeding the start of a hardware slot,
// given the input bit lo feeding some bus byte b.
func (p *ActionBus) unitInputBit(b uint, lo uint, unit uint) (uint, bool) {
	start := p.target.SlotStart(unit)
	//
	if start >= b {
		return lo + (start-b)*8, true
	} else if delta := (b - start) * 8; delta <= lo {
		return lo - delta, true
	}
	//
	return 0, false
}

// isXbar determines whether a source is routed through the action hv crossbar
// from a table's input words, and hence consumes crossbar byte groups.
func isXbar(src Source) bool {
	return src.kind == FIELD
}

func (m SizeMask) String() string {
	var names []string
	//
	for _, w := range m.Widths() {
		names = append(names, fmt.Sprintf("%d", w))
	}
	//
	return strings.Join(names, "|")
}
