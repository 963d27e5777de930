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
	"github.com/consensys/go-actionbus/pkg/mau/hw"
)

// TableKind identifies the flavour of a table.
type TableKind uint8

const (
	// ACTION_TABLE holds action data for a match table.
	ACTION_TABLE TableKind = iota
	// EXACT_MATCH is an SRAM based exact match table.
	EXACT_MATCH
	// TERNARY_MATCH is a TCAM based match table.
	TERNARY_MATCH
	// HASH_ACTION is a match table whose result is computed from a hash.
	HASH_ACTION
	// ATCAM_MATCH is an algorithmic TCAM partition.
	ATCAM_MATCH
	// METER is an attached meter (or LPF / WRED) table.
	METER
	// SELECTION is an attached selector table.
	SELECTION
	// COUNTER is an attached statistics table.
	COUNTER
)

var tableKindNames = []string{"action", "exact", "ternary", "hash-action", "atcam", "meter", "selection", "counter"}

func (k TableKind) String() string {
	if int(k) < len(tableKindNames) {
		return tableKindNames[k]
	}
	//
	return "unknown"
}

// ParseTableKind returns the kind with the given name, or false if there is no
// such kind.
func ParseTableKind(name string) (TableKind, bool) {
	for i, n := range tableKindNames {
		if n == name {
			return TableKind(i), true
		}
	}
	//
	return 0, false
}

// IsMatch determines whether this kind of table is a match table (i.e. one
// which provides immediate data).
func (k TableKind) IsMatch() bool {
	return k == EXACT_MATCH || k == TERNARY_MATCH || k == HASH_ACTION || k == ATCAM_MATCH
}

// OutputUse records which results of a table are routed onto an action bus.
type OutputUse uint8

const (
	// OUTPUT_USED indicates the table output is used.
	OUTPUT_USED OutputUse = 1 << iota
	// COLOR_USED indicates the (meter) color is used.
	COLOR_USED
	// ADDRESS_USED indicates the table address is used.
	ADDRESS_USED
)

// Table is the view of a table required by the action bus allocator.
type Table interface {
	// Name of this table.
	Name() string
	// Uid is unique amongst the tables of a stage, and orders tables stably.
	Uid() uint
	// Kind of this table.
	Kind() TableKind
	// Line on which this table was declared.
	Line() int
	// Format of this table's entries (which may be nil).
	Format() *format.Format
	// LookupField finds a field by name, optionally through the aliases of a
	// given action.  Returns nil if no such field exists.
	LookupField(name string, action string) *format.Field
	// HashDist returns the hash distribution unit with a given id, or nil.
	HashDist(id uint) *hw.HashDist
	// Meters returns the meters attached to this table.
	Meters() []Table
	// Actions returns the actions of this table.
	Actions() []Action
	// ActionBus returns the action bus allocation for this table.
	ActionBus() *ActionBus
	// Stage returns the stage containing this table.
	Stage() *Stage
	// P4Table returns the name of the P4 table this table implements.
	P4Table() string
	// IsAtcam determines whether this table is (or serves) one partition of
	// an ATCAM.
	IsAtcam() bool
	// LogicalID returns the logical table id used for immediate data.
	LogicalID() uint
	// HomeRow returns the RAM row whose crossbar this table drives.
	HomeRow() uint
	// MarkUsed records that some result of this table is used on an action
	// bus.
	MarkUsed(use OutputUse)
}

// Action is the view of a table action required by the allocator.
type Action interface {
	// Name of this action.
	Name() string
	// Alias maps a name local to this action onto a field (and offset within
	// that field).  Returns false if no such alias exists.
	Alias(name string) (*format.Field, uint, bool)
}

// AllowBusSharing determines whether two tables can safely place different
// data on the same action bus bytes.  This holds only for partitions of the
// same ATCAM, which are never active at the same time.
func AllowBusSharing(a Table, b Table) bool {
	return a.IsAtcam() && b.IsAtcam() && a.P4Table() != "" && a.P4Table() == b.P4Table()
}
