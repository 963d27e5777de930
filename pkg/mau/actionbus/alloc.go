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
	"github.com/consensys/go-actionbus/pkg/mau/diag"
	log "github.com/sirupsen/logrus"
)

// Pass3 places every source which has been requested through NeedAlloc.  This
// must follow Pass1 for every table of the stage.  Sources already placed are
// left where they are, so repeating this pass has no effect.
func (p *ActionBus) Pass3(tbl Table) {
	for _, n := range p.Needs() {
		p.allocField(tbl, n.Line, n.Source, n.Offset, n.Size)
	}
}

// AllocField places a source starting from a given bit offset on the bus, in
// a slot of each width in the given mask.  For each width an existing
// placement in the stage is reused if possible, then an existing slot of this
// table is merged into if possible, and otherwise free space is allocated.
// Errors are reported against the line of the bus.
func (p *ActionBus) AllocField(tbl Table, src Source, offset uint, size SizeMask) {
	p.allocField(tbl, p.Line, src, offset, size)
}

func (p *ActionBus) allocField(tbl Table, line int, src Source, offset uint, size SizeMask) {
	var (
		stage    = tbl.Stage()
		reporter = stage.Diag
	)
	//
	lo, hi, ok := bitRange(src, offset)
	if !ok && src.kind == FIELD {
		reporter.Errorf(line, "Field %s is not in immediate data", src)
		return
	} else if !ok {
		reporter.Errorf(line, "Unresolved action bus source %s", src)
		return
	}
	//
	hi = min(hi, lo+31)
	//
	var (
		lobyte   = lo / 8
		bytes    = hi/8 - lobyte + 1
		step     = uint(4)
		canMerge = !src.IsTableResult() && src.kind != RANDOM_GEN
	)
	//
	if src.kind == FIELD && tbl.Kind() == ACTION_TABLE {
		step = p.target.Step(lobyte)
	}
	//
	log.Debugf("%s: alloc_field(%s, %d) bits %d..%d step %d sizes %s", tbl.Name(), src, offset, lo, hi, step, size)
	//
	for _, width := range size.Widths() {
		straddle := lo/width != hi/width
		//
		if width == 8 && straddle {
			reporter.Errorf(line, "%s misaligned for 8-bit part of action bus", src)
			continue
		}
		//
		use, found := stage.Find(src, offset, hi-lo+1, width)
		//
		if !found && canMerge {
			use, found = p.FindMerge(tbl, src, offset, lo, hi, width)
		}
		//
		if !found && straddle {
			reporter.Errorf(line, "%s misaligned for %d-bit part of action bus", src, width)
			continue
		} else if !found {
			use, found = p.FindFree(tbl, src, lobyte, bytes, width, step)
		}
		//
		if !found {
			reporter.Errorf(line, "Can't allocate space on %d-bit part of action bus for %s", width, src)
			continue
		}
		//
		p.DoAlloc(tbl, src, offset, use, lobyte, bytes)
	}
}

// FindMerge looks for an existing slot of this table whose input already covers
// the bits lo..hi of a source, such that the source can be read from (part of)
// that slot without using any more of the bus.  Returns the bus byte holding
// bit lo.
func (p *ActionBus) FindMerge(tbl Table, src Source, offset uint, lo uint, hi uint, width uint) (uint, bool) {
	lobyte, hibyte := lo/8, hi/8
	//
	for _, slot := range p.Slots() {
		if slot.IsTableOutput() {
			continue
		}
		//
		for _, e := range slot.data {
			if e.Source != src && (e.Source.kind != FIELD || src.kind != FIELD) {
				continue
			}
			//
			bit, ok := InputBit(e)
			if !ok {
				continue
			}
			//
			inbyte := bit / 8
			//
			if inbyte > lobyte || hibyte >= inbyte+(slot.Size+7)/8 {
				continue
			}
			//
			out := slot.Byte + lobyte - inbyte
			//
			if p.canMergeAt(tbl, out, hibyte-lobyte+1, width) {
				log.Debugf("%s: merging %s(%d) into slot %d at %d", tbl.Name(), src, offset, slot.Byte, out)
				return out, true
			}
		}
	}
	//
	return 0, false
}

// Check whether the bytes from a given output byte lie in hardware slots of a
// suitable width, which are not claimed by any table which cannot share with
// this one.
func (p *ActionBus) canMergeAt(tbl Table, out uint, bytes uint, width uint) bool {
	for b := out; b < out+bytes; b++ {
		unit, ok := p.target.SlotOf(b)
		if !ok {
			return false
		}
		//
		size := p.target.SlotSize(unit)
		//
		if (width == 8) != (size == 8) {
			return false
		}
		//
		for _, o := range tbl.Stage().Owners(unit) {
			if o != tbl && !AllowBusSharing(tbl, o) {
				return false
			}
		}
	}
	//
	return true
}

// FindFree looks for unused bus bytes to hold a given number of bytes of a
// source, starting at input byte lobyte, in the regions used for slots of a
// given width.  Candidates agree with lobyte modulo the step (and the width),
// and every hardware slot they touch must be unclaimed.  For sources routed
// through the action crossbar, candidates which would route an input byte
// into a slice already fed from the same byte group are rejected, and the
// search moves onto the next slice.
func (p *ActionBus) FindFree(tbl Table, src Source, lobyte uint, bytes uint, width uint, step uint) (uint, bool) {
	var (
		align = max(step, width/8)
		phase = lobyte % align
	)
	//
	for _, r := range p.target.SearchRegions(width) {
		for i := atPhase(r.Min, phase, align); i+bytes-1 <= r.Max; {
			if !p.unclaimed(tbl, i, bytes) {
				i += align
				continue
			}
			//
			if isXbar(src) {
				if k, conflict := p.sliceConflict(lobyte, i, bytes); conflict {
					next := ((i+k)/p.target.SliceBytes + 1) * p.target.SliceBytes
					i = atPhase(next, phase, align)
					//
					continue
				}
			}
			//
			log.Debugf("%s: find_free(%s) found %d", tbl.Name(), src, i)
			//
			return i, true
		}
	}
	//
	return 0, false
}

// DoAlloc places part of a source on the bus from a given byte, claiming the
// hardware slots covered.  Any other table already holding those hardware
// slots must either be able to share with this one, or hold the same source.
func (p *ActionBus) DoAlloc(tbl Table, src Source, offset uint, use uint, lobyte uint, bytes uint) {
	var (
		stage  = tbl.Stage()
		e      = Entry{src, offset}
		lo, ok = InputBit(e)
	)
	//
	diag.BugCheck(ok, "allocating unresolved source %s", src)
	//
	slot := p.slots[use]
	if slot == nil {
		slot = newSlot(src.String(), use, bytes*8, p.Line)
		p.slots[use] = slot
	} else {
		slot.Size = max(slot.Size, bytes*8)
	}
	//
	slot.add(e)
	//
	for b := use; b < use+bytes; {
		unit, ok := p.target.SlotOf(b)
		diag.BugCheck(ok, "action bus byte %d out of range", b)
		//
		for _, o := range stage.Owners(unit) {
			diag.BugCheck(o == tbl || AllowBusSharing(tbl, o) || hasSource(o, src),
				"action bus slot %d for %s already in use by %s", unit, src, o.Name())
		}
		//
		stage.claim(unit, tbl)
		//
		bit, ok := p.unitInputBit(use, lo, unit)
		diag.BugCheck(ok, "action bus slot %d cannot be fed from bit %d", unit, lo)
		_, ok = p.recordUnit(unit, bit)
		diag.BugCheck(ok, "action bus slot %d fed inconsistently", unit)
		//
		b = p.target.SlotStart(unit) + p.target.SlotSize(unit)/8
	}
	//
	p.markBus(tbl, use, bytes)
	//
	if isXbar(src) {
		_, ok := p.markInput(lobyte, use, bytes)
		diag.BugCheck(ok, "input byte %d beyond action crossbar", lobyte)
	}
	//
	log.Debugf("%s: do_alloc(%s, %d) at %d [%d bytes]", tbl.Name(), src, offset, use, bytes)
}

// Check no hardware slot touched by a run of bus bytes has been claimed.
func (p *ActionBus) unclaimed(tbl Table, b uint, bytes uint) bool {
	for i := b; i < b+bytes; i++ {
		unit, ok := p.target.SlotOf(i)
		if !ok || len(tbl.Stage().Owners(unit)) > 0 || p.slots[i] != nil {
			return false
		}
	}
	//
	return true
}

// Check whether routing input bytes from lobyte onto output bytes from outbyte
// would share a slice with another byte of the same group.  Returns the index
// of the first conflicting byte.
func (p *ActionBus) sliceConflict(lobyte uint, outbyte uint, bytes uint) (uint, bool) {
	for k := uint(0); k < bytes; k++ {
		in, out := lobyte+k, outbyte+k
		use, ok := p.SliceUse(in/16, out/p.target.SliceBytes)
		//
		if !ok || use&p.target.ByteGroup(in) != 0 {
			return k, true
		}
	}
	//
	return 0, false
}

// First value at least min which agrees with phase modulo align.
func atPhase(min uint, phase uint, align uint) uint {
	return min + (phase+align-min%align)%align
}

func hasSource(tbl Table, src Source) bool {
	for _, slot := range tbl.ActionBus().Slots() {
		if slot.HasSource(src) {
			return true
		}
	}
	//
	return false
}

// bitRange returns the input bits lo..hi covered by a source from a given
// offset.
func bitRange(src Source, offset uint) (uint, uint, bool) {
	lo, ok := InputBit(Entry{src, offset})
	if !ok {
		return 0, 0, false
	}
	//
	switch src.kind {
	case FIELD:
		hi, ok := src.field.ImmedBit(src.field.Size - 1)
		return lo, hi, ok
	case HASH_DIST:
		return lo, lo | 15, true
	case TABLE_COLOR, XCMP_DATA:
		return lo, lo | 7, true
	default:
		return lo, lo | 31, true
	}
}
