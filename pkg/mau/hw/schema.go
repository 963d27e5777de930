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
package hw

import "fmt"

// Schema names the crossbar control registers of a given target.  Emission
// logic is identical across targets, and only the names (and hence the
// layout) of the registers being written differ.  Widths are given in bits
// and must be one of 8, 16 or 32.
type Schema interface {
	// ActionSelect identifies the mux select register for the index'th
	// hardware slot of the given width in the action hv crossbar of a row.
	ActionSelect(row uint, width uint, index uint) string
	// ActionEnable identifies the enable mask register covering all hardware
	// slots of the given width in the action hv crossbar of a row.
	ActionEnable(row uint, width uint) string
	// ImmedSelect identifies the mux select register for the index'th
	// hardware slot of the given width in the immediate data crossbar.
	ImmedSelect(width uint, index uint) string
	// ImmedEnable identifies the register holding the mask of logical tables
	// enabled on the index'th hardware slot of the given width.
	ImmedEnable(width uint, index uint) string
	// RngEnable identifies the register holding the mask of logical tables
	// using a random number generator.
	RngEnable() string
	// RngUnit identifies the register selecting the random number generator
	// units used by a given logical table.
	RngUnit(logicalID uint) string
}

var widthNames = map[uint]string{8: "byte", 16: "half", 32: "word"}

func widthName(width uint) string {
	if n, ok := widthNames[width]; ok {
		return n
	}
	//
	panic(fmt.Sprintf("invalid slot width %d", width))
}

// TofinoSchema is the register schema of the TOFINO target.
type TofinoSchema struct{}

// ActionSelect implementation for Schema interface.
func (s TofinoSchema) ActionSelect(row uint, width uint, index uint) string {
	return fmt.Sprintf("rams.array.row[%d].action_hv_xbar.action_hv_ixbar_ctl_%s[%d]", row, widthName(width), index)
}

// ActionEnable implementation for Schema interface.
func (s TofinoSchema) ActionEnable(row uint, width uint) string {
	return fmt.Sprintf("rams.array.row[%d].action_hv_xbar.action_hv_ixbar_ctl_%s_enable", row, widthName(width))
}

// ImmedSelect implementation for Schema interface.
func (s TofinoSchema) ImmedSelect(width uint, index uint) string {
	return fmt.Sprintf("rams.match.adrdist.immediate_data_%db_ixbar_ctl[%d]", width, index)
}

// ImmedEnable implementation for Schema interface.
func (s TofinoSchema) ImmedEnable(width uint, index uint) string {
	return fmt.Sprintf("rams.match.adrdist.immediate_data_%db_enable[%d]", width, index)
}

// RngEnable implementation for Schema interface.
func (s TofinoSchema) RngEnable() string {
	return "rams.match.adrdist.immediate_data_rng_enable"
}

// RngUnit implementation for Schema interface.
func (s TofinoSchema) RngUnit(logicalID uint) string {
	return fmt.Sprintf("rams.match.adrdist.immediate_data_rng_logical_map_ctl[%d]", logicalID)
}

// JBaySchema is the register schema of the JBAY target.
type JBaySchema struct{}

// ActionSelect implementation for Schema interface.
func (s JBaySchema) ActionSelect(row uint, width uint, index uint) string {
	return fmt.Sprintf("rams.array.row[%d].action_hv_xbar.action_hv_xbar_ctl_%s[%d]", row, widthName(width), index)
}

// ActionEnable implementation for Schema interface.
func (s JBaySchema) ActionEnable(row uint, width uint) string {
	return fmt.Sprintf("rams.array.row[%d].action_hv_xbar.action_hv_xbar_%s_enable", row, widthName(width))
}

// ImmedSelect implementation for Schema interface.
func (s JBaySchema) ImmedSelect(width uint, index uint) string {
	return fmt.Sprintf("rams.match.adrdist.immed_data_%db_ixbar_ctl[%d]", width, index)
}

// ImmedEnable implementation for Schema interface.
func (s JBaySchema) ImmedEnable(width uint, index uint) string {
	return fmt.Sprintf("rams.match.adrdist.immed_data_%db_ixbar_ctl[%d].enabled_logical_tables", width, index)
}

// RngEnable implementation for Schema interface.
func (s JBaySchema) RngEnable() string {
	return "rams.match.adrdist.immed_data_rng_enable"
}

// RngUnit implementation for Schema interface.
func (s JBaySchema) RngUnit(logicalID uint) string {
	return fmt.Sprintf("rams.match.adrdist.immed_data_rng_logical_map_ctl[%d].rng_select", logicalID)
}
