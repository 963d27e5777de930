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
	"github.com/consensys/go-actionbus/pkg/mau/hw"
	log "github.com/sirupsen/logrus"
)

// ACTION_WORD_BITS is the width of the action data read from a single RAM row.
const ACTION_WORD_BITS = 128

// WriteActionRegs programs the action hv crossbar of a given RAM row, for the
// slots of this bus fed from a given 128bit word of a table's action data (or
// from its output, in the case of an attached table).  This must follow Pass3
// for every table of the stage.
func (p *ActionBus) WriteActionRegs(w *hw.Block, tbl Table, homeRow uint, word uint) {
	var (
		schema   = w.Schema()
		reporter = tbl.Stage().Diag
	)
	//
	for _, slot := range p.Slots() {
		bit, ok := p.actionBit(tbl, slot)
		//
		if !ok || bit/ACTION_WORD_BITS != word {
			continue
		} else if (bit+slot.Size-1)/ACTION_WORD_BITS != word {
			reporter.Errorf(slot.Line, "%s: field split across SRAM rows", slot.Name)
			continue
		}
		//
		units, ok := slot.Units(p.target)
		diag.BugCheck(ok, "action bus slot %d beyond end of bus", slot.Byte)
		//
		for _, unit := range units {
			var (
				width     = p.target.SlotSize(unit)
				index     = p.target.SlotIndex(unit)
				ubit, ok  = p.unitInputBit(slot.Byte, bit, unit)
				prev, has = p.unitBit[unit]
			)
			//
			diag.BugCheck(ok && ubit%width == 0, "misaligned action bus slot %d (bit %d) for %s", unit, ubit, slot.Name)
			diag.BugCheck(!has || prev == ubit, "action bus slot %d fed from bit %d and %d", unit, prev, ubit)
			//
			sel := (ubit % ACTION_WORD_BITS) / width
			//
			w.Set(schema.ActionSelect(homeRow, width, index), uint64(sel))
			w.Or(schema.ActionEnable(homeRow, width), 1<<index)
			//
			log.Debugf("%s: action xbar row %d %d-bit slot %d <- %d", tbl.Name(), homeRow, width, index, sel)
		}
	}
}

// Determine the bit of a table's action data (or output) feeding a slot,
// returning false if the slot does not carry data from that table.
func (p *ActionBus) actionBit(tbl Table, slot *Slot) (uint, bool) {
	for _, e := range slot.data {
		switch e.Source.kind {
		case FIELD:
			if tbl.Format() != nil && e.Source.field.Format() == tbl.Format() {
				return InputBit(e)
			}
		case TABLE_OUTPUT:
			if e.Source.table == tbl {
				return e.Offset, true
			}
		}
	}
	//
	return 0, false
}

// WriteImmedRegs programs the immediate data crossbar for the slots of this bus
// carrying a match table's immediate data, hash distribution or random numbers.
// Registers are indexed by the table's logical id.
func (p *ActionBus) WriteImmedRegs(w *hw.Block, tbl Table) {
	var (
		schema = w.Schema()
		lid    = tbl.LogicalID()
		rng    = false
	)
	//
	for _, slot := range p.Slots() {
		if len(slot.data) == 0 || slot.IsTableOutput() {
			continue
		}
		//
		e := slot.data[0]
		//
		lo, ok := InputBit(e)
		if !ok {
			diag.Bug("unresolved action bus source %s in %s", e.Source, tbl.Name())
		}
		//
		units, ok := slot.Units(p.target)
		diag.BugCheck(ok, "action bus slot %d beyond end of bus", slot.Byte)
		//
		for _, unit := range units {
			var (
				width    = p.target.SlotSize(unit)
				index    = p.target.SlotIndex(unit)
				ubit, ok = p.unitInputBit(slot.Byte, lo, unit)
				ctl      uint
			)
			//
			diag.BugCheck(ok, "action bus slot %d cannot be fed from bit %d", unit, lo)
			//
			switch width {
			case 8:
				ctl = lid*4 + (ubit/8)%4
			case 16:
				ctl = lid*2 + (ubit/16)%2
			default:
				ctl = lid
			}
			//
			w.Set(schema.ImmedSelect(width, index), uint64(ctl))
			w.Or(schema.ImmedEnable(width, index), 1<<lid)
		}
		//
		if e.Source.kind == RANDOM_GEN {
			rng = true
			w.Or(schema.RngUnit(lid), 1<<e.Source.index)
		}
	}
	//
	if rng {
		w.Or(schema.RngEnable(), 1<<lid)
	}
}
