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
package table

import (
	"fmt"
	"slices"

	"github.com/consensys/go-actionbus/pkg/mau/actionbus"
	"github.com/consensys/go-actionbus/pkg/mau/format"
	"github.com/consensys/go-actionbus/pkg/mau/hw"
)

// Need records a source which a table requires on its action bus, without
// saying where it should go.
type Need struct {
	Line  int
	Value actionbus.Value
	Size  actionbus.SizeMask
}

// Table is a single match or attached table within a stage, along with its
// action bus.
type Table struct {
	name      string
	uid       uint
	kind      actionbus.TableKind
	line      int
	format    *format.Format
	actions   []*Action
	meters    []actionbus.Table
	hashDist  map[uint]*hw.HashDist
	bus       *actionbus.ActionBus
	stage     *actionbus.Stage
	p4        string
	atcam     bool
	logicalID uint
	homeRow   uint
	used      actionbus.OutputUse
	// Explicit action bus declarations.
	Declarations []actionbus.Declaration
	// Sources to be placed by the allocator.
	Needs []Need
}

// New constructs a table of a given kind and adds it to a given stage.  The uid
// of the table is its position within the stage.  An error is returned if the
// stage already holds a table of the same name.
func New(stage *actionbus.Stage, name string, kind actionbus.TableKind, line int) (*Table, error) {
	t := &Table{
		name:     name,
		uid:      uint(len(stage.Tables())),
		kind:     kind,
		line:     line,
		hashDist: make(map[uint]*hw.HashDist),
		bus:      actionbus.New(stage.Target, line),
		stage:    stage,
	}
	//
	if err := stage.Add(t); err != nil {
		return nil, err
	}
	//
	return t, nil
}

// Name implementation for actionbus.Table interface.
func (t *Table) Name() string {
	return t.name
}

// Uid implementation for actionbus.Table interface.
func (t *Table) Uid() uint {
	return t.uid
}

// Kind implementation for actionbus.Table interface.
func (t *Table) Kind() actionbus.TableKind {
	return t.kind
}

// Line implementation for actionbus.Table interface.
func (t *Table) Line() int {
	return t.line
}

// Format implementation for actionbus.Table interface.
func (t *Table) Format() *format.Format {
	return t.format
}

// SetFormat assigns the entry format of this table.
func (t *Table) SetFormat(f *format.Format) {
	t.format = f
}

// LookupField implementation for actionbus.Table interface.  When an action is
// given, its aliases take priority over the fields of the format.
func (t *Table) LookupField(name string, action string) *format.Field {
	if a := t.Action(action); a != nil {
		if f, off, ok := a.Alias(name); ok && off == 0 {
			return f
		}
	}
	//
	if t.format == nil {
		return nil
	}
	//
	return t.format.Field(name)
}

// HashDist implementation for actionbus.Table interface.
func (t *Table) HashDist(id uint) *hw.HashDist {
	return t.hashDist[id]
}

// AddHashDist declares a hash distribution unit for this table.
func (t *Table) AddHashDist(group uint, id uint) error {
	if _, ok := t.hashDist[id]; ok {
		return fmt.Errorf("duplicate hash_dist %d in table %s", id, t.name)
	}
	//
	t.hashDist[id] = hw.NewHashDist(group, id)
	//
	return nil
}

// Meters implementation for actionbus.Table interface.
func (t *Table) Meters() []actionbus.Table {
	return t.meters
}

// Attach a meter (or other attached table) to this table.
func (t *Table) Attach(m actionbus.Table) {
	if !slices.Contains(t.meters, m) {
		t.meters = append(t.meters, m)
	}
}

// Actions implementation for actionbus.Table interface.
func (t *Table) Actions() []actionbus.Action {
	actions := make([]actionbus.Action, len(t.actions))
	//
	for i, a := range t.actions {
		actions[i] = a
	}
	//
	return actions
}

// Action returns the action of a given name, or nil.
func (t *Table) Action(name string) *Action {
	for _, a := range t.actions {
		if a.name == name {
			return a
		}
	}
	//
	return nil
}

// AddAction declares a new (alias free) action for this table.
func (t *Table) AddAction(name string) (*Action, error) {
	if t.Action(name) != nil {
		return nil, fmt.Errorf("duplicate action %s in table %s", name, t.name)
	}
	//
	a := &Action{name, make(map[string]alias)}
	t.actions = append(t.actions, a)
	//
	return a, nil
}

// ActionBus implementation for actionbus.Table interface.
func (t *Table) ActionBus() *actionbus.ActionBus {
	return t.bus
}

// Stage implementation for actionbus.Table interface.
func (t *Table) Stage() *actionbus.Stage {
	return t.stage
}

// P4Table implementation for actionbus.Table interface.
func (t *Table) P4Table() string {
	return t.p4
}

// IsAtcam implementation for actionbus.Table interface.
func (t *Table) IsAtcam() bool {
	return t.atcam
}

// SetP4Table records the P4 table implemented by this table, and whether it is
// one partition of an ATCAM.
func (t *Table) SetP4Table(name string, atcam bool) {
	t.p4 = name
	t.atcam = atcam
}

// LogicalID implementation for actionbus.Table interface.
func (t *Table) LogicalID() uint {
	return t.logicalID
}

// HomeRow implementation for actionbus.Table interface.
func (t *Table) HomeRow() uint {
	return t.homeRow
}

// SetLayout assigns the logical id and home row of this table.
func (t *Table) SetLayout(logicalID uint, homeRow uint) {
	t.logicalID = logicalID
	t.homeRow = homeRow
}

// MarkUsed implementation for actionbus.Table interface.
func (t *Table) MarkUsed(use actionbus.OutputUse) {
	t.used |= use
}

// Used returns the results of this table routed onto some action bus.
func (t *Table) Used() actionbus.OutputUse {
	return t.used
}

// Words returns the number of 128bit action data words spanned by the format
// of this table.
func (t *Table) Words() uint {
	if t.format == nil {
		return 0
	}
	//
	return (t.format.Width() + actionbus.ACTION_WORD_BITS - 1) / actionbus.ACTION_WORD_BITS
}

func (t *Table) String() string {
	return fmt.Sprintf("%s (%s)", t.name, t.kind)
}
