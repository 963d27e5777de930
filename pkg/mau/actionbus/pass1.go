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
	"github.com/consensys/go-actionbus/pkg/mau/format"
	log "github.com/sirupsen/logrus"
)

// Pass1 resolves the references on this bus, and then checks every slot is
// consistent both with itself and with the slots of tables processed earlier
// in the same stage.  Hardware slots used are claimed in the stage.  The
// checks are skipped if any reference of this table could not be resolved.
func (p *ActionBus) Pass1(tbl Table) {
	var (
		reporter = tbl.Stage().Diag
		errors   = reporter.ErrorCount()
	)
	//
	p.resolveRefs(tbl)
	//
	if reporter.ErrorCount() > errors {
		return
	}
	// First slot (and its input bit) claiming each hardware slot.
	var (
		first = make(map[uint]*Slot)
		bits  = make(map[uint]uint)
	)
	//
	for _, slot := range p.Slots() {
		if p.checkSlot(tbl, slot) {
			p.claimSlot(tbl, slot, first, bits)
		}
	}
	//
	for unit, bit := range bits {
		p.unitBit[unit] = bit
	}
}

type resolution struct {
	slot *Slot
	from Entry
	to   Entry
}

// Resolve all references in two phases, so that no slot is modified whilst it
// is being traversed.
func (p *ActionBus) resolveRefs(tbl Table) {
	var todo []resolution
	//
	for _, slot := range p.Slots() {
		for _, e := range slot.data {
			if !e.Source.IsRef() {
				continue
			} else if r, ok := p.resolve(tbl, slot.Line, e); ok {
				todo = append(todo, resolution{slot, e, r})
			}
		}
	}
	//
	for _, r := range todo {
		log.Debugf("%s: resolved %s as %s", tbl.Name(), r.from, r.to)
		r.slot.Remove(r.from)
		r.slot.add(r.to)
	}
}

// Resolve a reference to a table, meter or action alias.
func (p *ActionBus) resolve(tbl Table, line int, e Entry) (Entry, bool) {
	var (
		reporter = tbl.Stage().Diag
		src      = e.Source
	)
	// Placeholder for the attached meter
	if src.name == "" {
		meters := tbl.Meters()
		//
		switch len(meters) {
		case 0:
			reporter.Errorf(line, "No meter attached to table %s", tbl.Name())
			return e, false
		case 1:
			return Entry{tableResult(src.kind, meters[0]), e.Offset}, true
		default:
			reporter.Errorf(line, "Multiple meters attached to table %s", tbl.Name())
			return e, false
		}
	}
	//
	if t := tbl.Stage().TableByName(src.name); t != nil {
		return Entry{tableResult(src.kind, t), e.Offset}, true
	} else if src.kind != NAME_REF {
		reporter.Errorf(line, "No table named %s", src.name)
		return e, false
	}
	// Search the aliases of every action
	var (
		field  *format.Field
		offset uint
		action Action
	)
	//
	for _, a := range tbl.Actions() {
		f, off, ok := a.Alias(src.name)
		//
		if !ok {
			continue
		} else if field == nil {
			field, offset, action = f, off, a
		} else if f != field || off != offset {
			reporter.Errorf(line, "incompatible aliases in actions %s and %s", action.Name(), a.Name())
			return e, false
		}
	}
	//
	if field != nil {
		return Entry{FieldSource(field), offset + e.Offset}, checkImmediate(tbl, line, field)
	}
	//
	reporter.Errorf(line, "No format field or table named %s", src.name)
	//
	return e, false
}

// Convert a reference kind into the corresponding result of a given table,
// marking that result as used.
func tableResult(kind SourceKind, t Table) Source {
	switch kind {
	case COLOR_REF:
		t.MarkUsed(COLOR_USED)
		return TableColorSource(t)
	case ADDRESS_REF:
		t.MarkUsed(ADDRESS_USED)
		return TableAddressSource(t)
	default:
		t.MarkUsed(OUTPUT_USED)
		return TableOutputSource(t)
	}
}

// Check all entries of a slot are compatible with the first.
func (p *ActionBus) checkSlot(tbl Table, slot *Slot) bool {
	if len(slot.data) == 0 {
		return false
	}
	//
	for _, e := range slot.data[1:] {
		if !Compatible(slot.data[0], e) {
			tbl.Stage().Diag.Errorf(slot.Line, "Incompatible action bus entries at offset %d", slot.Byte)
			return false
		}
	}
	//
	return true
}

// Claim the hardware slots covered by a slot, checking for conflicts with other
// tables, and with other slots of this table.
func (p *ActionBus) claimSlot(tbl Table, slot *Slot, first map[uint]*Slot, bits map[uint]uint) {
	var (
		stage    = tbl.Stage()
		reporter = stage.Diag
		lo, isLo = slot.Lo()
	)
	//
	units, ok := slot.Units(p.target)
	if !ok {
		reporter.Errorf(slot.Line, "Action bus slot at byte %d (%d bits) extends beyond end of bus", slot.Byte, slot.Size)
		return
	}
	//
	for _, unit := range units {
		start := p.target.SlotStart(unit)
		//
		for _, o := range stage.Owners(unit) {
			if o == tbl {
				continue
			} else if AllowBusSharing(tbl, o) {
				reporter.Warnf(slot.Line, "Action bus byte %d shared by ATCAM partitions %s and %s", start, o.Name(),
					tbl.Name())
			} else if p.overlaps(o, slot, unit) && !sameData(o, slot) {
				// Identical data at the same byte (e.g. a meter shared by two
				// match tables) is not reported.
				reporter.Warnf(slot.Line, "Action bus byte %d set in table %s and table %s", start, o.Name(), tbl.Name())
			}
		}
		//
		stage.claim(unit, tbl)
		//
		if !isLo {
			continue
		}
		//
		bit, ok := p.unitInputBit(slot.Byte, lo, unit)
		//
		if prev, seen := first[unit]; seen && (!ok || bits[unit] != bit) {
			reporter.Errorf(slot.Line, "Action bus byte %d used inconsistently for %s and %s", start,
				prev.data[0].Source, slot.data[0].Source)
		} else if width := p.target.SlotSize(unit); ok && isXbar(slot.data[0].Source) && bit%width != 0 {
			// The crossbar selects whole slots from the input word
			reporter.Errorf(slot.Line, "%s misaligned for %d-bit part of action bus", slot.data[0].Source, width)
		} else if !seen && ok {
			first[unit] = slot
			bits[unit] = bit
		}
	}
	//
	bytes := (slot.Size + 7) / 8
	p.markBus(tbl, slot.Byte, bytes)
	//
	if isLo && isXbar(slot.data[0].Source) {
		if in, ok := p.markInput(lo/8, slot.Byte, bytes); !ok {
			reporter.Errorf(slot.Line, "Action data byte %d is beyond the action crossbar", in)
		}
	}
}

// Check whether another table occupies any bits of a slot within a given
// hardware slot.
func (p *ActionBus) overlaps(other Table, slot *Slot, unit uint) bool {
	var (
		start = max(slot.Byte, p.target.SlotStart(unit))
		end   = min(slot.Byte+(slot.Size+7)/8, p.target.SlotStart(unit)+p.target.SlotSize(unit)/8)
		use   = other.ActionBus().BitUse()
	)
	//
	for i := start * 8; i < end*8; i++ {
		if use.Test(i) {
			return true
		}
	}
	//
	return false
}

// Check whether another table holds the same data at the start of a slot.
func sameData(other Table, slot *Slot) bool {
	s := other.ActionBus().Slot(slot.Byte)
	//
	return s != nil && s.Has(slot.data[0])
}
