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

	"github.com/bits-and-blooms/bitset"
	"github.com/consensys/go-actionbus/pkg/mau/diag"
	"github.com/consensys/go-actionbus/pkg/mau/hw"
)

// Stage holds the action bus state shared by all tables in one pipeline stage.
// Tables must be processed in the order they were added: Pass1 for every
// table, then Pass3 for every table, then register emission.
type Stage struct {
	// Target hardware.
	Target *hw.Target
	// Stage number.
	Number uint
	// Sink for diagnostics.
	Diag *diag.Reporter
	// Tables in this stage, in processing order.
	tables []Table
	// Tables which have claimed each hardware slot.
	owners [][]Table
	// Bus bits occupied by any table in this stage.
	busBits *bitset.BitSet
}

// NewStage constructs an empty stage for a given target.
func NewStage(target *hw.Target, number uint, reporter *diag.Reporter) *Stage {
	return &Stage{
		Target:  target,
		Number:  number,
		Diag:    reporter,
		owners:  make([][]Table, target.Slots()),
		busBits: bitset.New(target.BusBytes() * 8),
	}
}

// Add a table to this stage.  The uid of every table must be unique within its
// stage.
func (p *Stage) Add(tbl Table) error {
	for _, t := range p.tables {
		if t.Uid() == tbl.Uid() {
			return fmt.Errorf("duplicate table uid %d (%s and %s)", tbl.Uid(), t.Name(), tbl.Name())
		} else if t.Name() == tbl.Name() {
			return fmt.Errorf("duplicate table %s", tbl.Name())
		}
	}
	//
	p.tables = append(p.tables, tbl)
	//
	return nil
}

// Tables returns the tables of this stage in processing order.
func (p *Stage) Tables() []Table {
	return p.tables
}

// TableByName returns the table with a given name, or nil.
func (p *Stage) TableByName(name string) Table {
	for _, t := range p.tables {
		if t.Name() == name {
			return t
		}
	}
	//
	return nil
}

// Owners returns the tables which have claimed a given hardware slot, in the
// order they claimed it.
func (p *Stage) Owners(unit uint) []Table {
	return p.owners[unit]
}

// BusBits returns the bus bits occupied by any table in this stage.
func (p *Stage) BusBits() *bitset.BitSet {
	return p.busBits
}

// Find looks for a given part of a source on the bus of any table in this
// stage, within the regions used for slots of a given width.  See
// ActionBus.FindIn.
func (p *Stage) Find(src Source, offset uint, bits uint, width uint) (uint, bool) {
	for _, t := range p.tables {
		if b, ok := t.ActionBus().FindIn(src, offset, bits, width); ok {
			return b, true
		}
	}
	//
	return 0, false
}

// claim records a table as an owner of a hardware slot.  Existing owners are
// retained.
func (p *Stage) claim(unit uint, tbl Table) {
	if !slices.Contains(p.owners[unit], tbl) {
		p.owners[unit] = append(p.owners[unit], tbl)
	}
}
