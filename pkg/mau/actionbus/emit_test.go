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
	"testing"

	"github.com/consensys/go-actionbus/pkg/mau/hw"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Emit_ActionRegs(t *testing.T) {
	stage := newTestStage()
	tbl := newTestTable(t, stage, "act", ACTION_TABLE, "A", 0, 7, "B", 8, 15)
	tbl.row = 3
	//
	tbl.bus.NeedAllocField(tbl.field("A"), 0, BYTE_SLOT)
	tbl.bus.NeedAllocField(tbl.field("B"), 0, BYTE_SLOT)
	allocate(stage)
	require.Equal(t, uint(0), stage.Diag.ErrorCount())
	//
	w := hw.NewBlock(stage.Target)
	tbl.bus.WriteActionRegs(w, tbl, tbl.row, 0)
	//
	assert.Equal(t, []hw.Write{
		{Path: "rams.array.row[3].action_hv_xbar.action_hv_ixbar_ctl_byte[0]", Value: 0},
		{Path: "rams.array.row[3].action_hv_xbar.action_hv_ixbar_ctl_byte_enable", Value: 1<<0 | 1<<17},
		{Path: "rams.array.row[3].action_hv_xbar.action_hv_ixbar_ctl_byte[17]", Value: 1},
	}, w.Writes())
	// Nothing from the second word
	w = hw.NewBlock(stage.Target)
	tbl.bus.WriteActionRegs(w, tbl, tbl.row+1, 1)
	assert.Equal(t, 0, w.Len())
}

func Test_Emit_SplitAcrossRows(t *testing.T) {
	stage := newTestStage()
	tbl := newTestTable(t, stage, "act", ACTION_TABLE, "f", 120, 135)
	// Two 8bit slots, fed from the end of one word and the start of the next
	tbl.bus.Declare(tbl, []Declaration{decl(0, Str("f"))})
	allocate(stage)
	require.Equal(t, uint(0), stage.Diag.ErrorCount())
	//
	tbl.bus.WriteActionRegs(hw.NewBlock(stage.Target), tbl, 0, 0)
	//
	assert.Equal(t, []string{"f: field split across SRAM rows"}, stage.Diag.Errors())
}

func Test_Emit_MeterOutput(t *testing.T) {
	stage := newTestStage()
	tbl := newTestTable(t, stage, "exm", EXACT_MATCH)
	meter := newTestTable(t, stage, "m0", METER)
	meter.row = 7
	tbl.meters = []Table{meter}
	//
	tbl.bus.DeclareNeed(tbl, 1, Str("meter"), WORD_SLOT)
	allocate(stage)
	require.Equal(t, uint(0), stage.Diag.ErrorCount())
	//
	w := hw.NewBlock(hw.JBAY)
	tbl.bus.WriteActionRegs(w, meter, meter.row, 0)
	//
	assert.Equal(t, []hw.Write{
		{Path: "rams.array.row[7].action_hv_xbar.action_hv_xbar_ctl_word[0]", Value: 0},
		{Path: "rams.array.row[7].action_hv_xbar.action_hv_xbar_word_enable", Value: 1},
	}, w.Writes())
	// Table outputs are not immediate data
	w = hw.NewBlock(hw.JBAY)
	tbl.bus.WriteImmedRegs(w, tbl)
	assert.Equal(t, 0, w.Len())
}

func Test_Emit_ImmedRegs(t *testing.T) {
	stage := newTestStage()
	tbl := newTestTable(t, stage, "exm", EXACT_MATCH, "f", 0, 31)
	tbl.lid = 2
	//
	tbl.bus.NeedAllocField(tbl.field("f"), 0, WORD_SLOT)
	tbl.bus.NeedAllocField(tbl.field("f"), 16, HALF_SLOT)
	allocate(stage)
	require.Equal(t, uint(0), stage.Diag.ErrorCount())
	//
	w := hw.NewBlock(stage.Target)
	tbl.bus.WriteImmedRegs(w, tbl)
	//
	assert.Equal(t, []hw.Write{
		{Path: "rams.match.adrdist.immediate_data_32b_ixbar_ctl[0]", Value: 2},
		{Path: "rams.match.adrdist.immediate_data_32b_enable[0]", Value: 1 << 2},
	}, w.Writes())
}

func Test_Emit_Rng(t *testing.T) {
	stage := newTestStage()
	tbl := newTestTable(t, stage, "exm", EXACT_MATCH)
	tbl.lid = 1
	//
	tbl.bus.Declare(tbl, []Declaration{decl(40, Cmd("rng", Int(1)))})
	allocate(stage)
	require.Equal(t, uint(0), stage.Diag.ErrorCount())
	//
	w := hw.NewBlock(stage.Target)
	tbl.bus.WriteImmedRegs(w, tbl)
	//
	assert.Equal(t, []hw.Write{
		{Path: "rams.match.adrdist.immediate_data_16b_ixbar_ctl[4]", Value: 2},
		{Path: "rams.match.adrdist.immediate_data_16b_enable[4]", Value: 1 << 1},
		{Path: "rams.match.adrdist.immediate_data_rng_logical_map_ctl[1]", Value: 1 << 1},
		{Path: "rams.match.adrdist.immediate_data_rng_enable", Value: 1 << 1},
	}, w.Writes())
}

func Test_Emit_UnresolvedIsBug(t *testing.T) {
	stage := newTestStage()
	tbl := newTestTable(t, stage, "exm", EXACT_MATCH)
	//
	tbl.bus.Declare(tbl, []Declaration{decl(96, Str("nowhere"))})
	//
	assert.Panics(t, func() { tbl.bus.WriteImmedRegs(hw.NewBlock(stage.Target), tbl) })
}
