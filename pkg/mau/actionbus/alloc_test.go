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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Scenario 3
func Test_Alloc_TableOutput(t *testing.T) {
	stage := newTestStage()
	tbl := newTestTable(t, stage, "exm", EXACT_MATCH)
	meter := newTestTable(t, stage, "m0", METER)
	tbl.meters = []Table{meter}
	//
	tbl.bus.DeclareNeed(tbl, 1, Str("meter"), WORD_SLOT)
	allocate(stage)
	//
	require.Equal(t, uint(0), stage.Diag.ErrorCount())
	require.Len(t, tbl.bus.Slots(), 1)
	//
	slot := tbl.bus.Slots()[0]
	assert.Equal(t, uint(96), slot.Byte)
	assert.Equal(t, uint(32), slot.Size)
	assert.Equal(t, []Entry{{TableOutputSource(meter), 0}}, slot.Data())
	assert.Equal(t, []Table{tbl}, stage.Owners(64))
	assert.Equal(t, OUTPUT_USED, meter.used)
	// Table results are not routed through the crossbar
	assert.Equal(t, uint(0), tbl.bus.ByteUse().Count())
}

func Test_Alloc_ReuseBeforeAllocate(t *testing.T) {
	stage := newTestStage()
	a := newTestTable(t, stage, "a", EXACT_MATCH)
	b := newTestTable(t, stage, "b", EXACT_MATCH)
	meter := newTestTable(t, stage, "m0", METER)
	a.meters = []Table{meter}
	b.meters = []Table{meter}
	//
	a.bus.DeclareNeed(a, 1, Str("meter"), WORD_SLOT)
	b.bus.DeclareNeed(b, 2, Str("meter"), WORD_SLOT)
	allocate(stage)
	//
	require.Equal(t, uint(0), stage.Diag.ErrorCount())
	require.Len(t, b.bus.Slots(), 1)
	assert.Equal(t, uint(96), b.bus.Slots()[0].Byte)
	assert.Equal(t, []Table{a, b}, stage.Owners(64))
	assert.Empty(t, stage.Owners(65))
}

func Test_Alloc_Merge(t *testing.T) {
	stage := newTestStage()
	tbl := newTestTable(t, stage, "exm", EXACT_MATCH, "f", 0, 31)
	f := FieldSource(tbl.field("f"))
	//
	tbl.bus.NeedAlloc(f, 0, WORD_SLOT)
	tbl.bus.NeedAlloc(f, 16, HALF_SLOT)
	allocate(stage)
	//
	require.Equal(t, uint(0), stage.Diag.ErrorCount())
	require.Len(t, tbl.bus.Slots(), 2)
	assert.Equal(t, []Entry{{f, 0}}, tbl.bus.Slot(96).Data())
	assert.Equal(t, []Entry{{f, 16}}, tbl.bus.Slot(98).Data())
	assert.Equal(t, uint(16), tbl.bus.Slot(98).Size)
	// No further input bytes consumed
	assert.Equal(t, uint(4), tbl.bus.ByteUse().Count())
	// Nothing claimed outside the original word
	for unit := uint(0); unit < 64; unit++ {
		assert.Empty(t, stage.Owners(unit))
	}
}

func Test_Alloc_Alignment(t *testing.T) {
	stage := newTestStage()
	tbl := newTestTable(t, stage, "exm", EXACT_MATCH, "h", 0, 15, "w", 32, 63)
	//
	tbl.bus.NeedAlloc(FieldSource(tbl.field("h")), 0, HALF_SLOT)
	tbl.bus.NeedAlloc(FieldSource(tbl.field("w")), 0, WORD_SLOT)
	allocate(stage)
	//
	require.Equal(t, uint(0), stage.Diag.ErrorCount())
	//
	for _, slot := range tbl.bus.Slots() {
		unit, ok := stage.Target.SlotOf(slot.Byte)
		require.True(t, ok)
		assert.Equal(t, uint(0), slot.Byte*8%stage.Target.SlotSize(unit), "slot %s", slot)
	}
	//
	assert.Equal(t, []Entry{{FieldSource(tbl.field("h")), 0}}, tbl.bus.Slot(32).Data())
	assert.Equal(t, []Entry{{FieldSource(tbl.field("w")), 0}}, tbl.bus.Slot(96).Data())
}

func Test_Alloc_Misaligned(t *testing.T) {
	stage := newTestStage()
	tbl := newTestTable(t, stage, "exm", EXACT_MATCH, "f", 0, 15)
	//
	tbl.bus.NeedAlloc(FieldSource(tbl.field("f")), 4, BYTE_SLOT)
	allocate(stage)
	//
	assert.Equal(t, []string{"f misaligned for 8-bit part of action bus"}, stage.Diag.Errors())
	assert.Empty(t, tbl.bus.Slots())
}

func Test_Alloc_Exhausted(t *testing.T) {
	stage := newTestStage()
	tbl := newTestTable(t, stage, "exm", EXACT_MATCH)
	//
	for i := uint(0); i < 9; i++ {
		tbl.bus.NeedAlloc(XcmpSource(0, i), 0, BYTE_SLOT)
	}
	//
	allocate(stage)
	//
	assert.Equal(t, []string{"Can't allocate space on 8-bit part of action bus for xcmp(0:8)"}, stage.Diag.Errors())
	assert.Len(t, tbl.bus.Slots(), 8)
	//
	for i, slot := range tbl.bus.Slots() {
		assert.Equal(t, uint(4*i), slot.Byte)
	}
}

func Test_Alloc_SliceNonInterference(t *testing.T) {
	stage := newTestStage()
	tbl := newTestTable(t, stage, "act", ACTION_TABLE, "A", 0, 7, "B", 8, 15)
	//
	tbl.bus.NeedAllocField(tbl.field("A"), 0, BYTE_SLOT)
	tbl.bus.NeedAllocField(tbl.field("B"), 0, BYTE_SLOT)
	allocate(stage)
	//
	require.Equal(t, uint(0), stage.Diag.ErrorCount())
	assert.True(t, tbl.bus.Slot(0).HasSource(FieldSource(tbl.field("A"))))
	assert.True(t, tbl.bus.Slot(17).HasSource(FieldSource(tbl.field("B"))))
	// Input bytes 0 and 1 share a byte group, so must feed different slices.
	s0, _ := tbl.bus.SliceUse(0, 0)
	s1, _ := tbl.bus.SliceUse(0, 1)
	assert.Equal(t, uint16(0x3), s0)
	assert.Equal(t, uint16(0x3), s1)
}

func Test_Alloc_Idempotent(t *testing.T) {
	stage := newTestStage()
	tbl := newTestTable(t, stage, "exm", EXACT_MATCH, "f", 0, 31, "g", 32, 39)
	meter := newTestTable(t, stage, "m0", METER)
	tbl.meters = []Table{meter}
	//
	tbl.bus.Declare(tbl, []Declaration{decl(8, Str("g"))})
	tbl.bus.NeedAllocField(tbl.field("f"), 0, WORD_SLOT)
	tbl.bus.NeedAllocField(tbl.field("f"), 16, HALF_SLOT)
	tbl.bus.DeclareNeed(tbl, 1, Str("meter"), WORD_SLOT)
	allocate(stage)
	//
	require.Equal(t, uint(0), stage.Diag.ErrorCount())
	//
	before := tbl.bus.String()
	used := tbl.bus.ByteUse().Clone()
	//
	allocate(stage)
	//
	assert.Equal(t, uint(0), stage.Diag.ErrorCount())
	assert.Equal(t, before, tbl.bus.String())
	assert.True(t, used.Equal(tbl.bus.ByteUse()))
}

func Test_Alloc_NoDoubleAllocation(t *testing.T) {
	stage := newTestStage()
	a := newTestTable(t, stage, "a", EXACT_MATCH, "f", 0, 15)
	b := newTestTable(t, stage, "b", EXACT_MATCH, "g", 0, 15)
	//
	a.bus.NeedAllocField(a.field("f"), 0, HALF_SLOT|WORD_SLOT)
	b.bus.NeedAllocField(b.field("g"), 0, HALF_SLOT|WORD_SLOT)
	allocate(stage)
	//
	require.Equal(t, uint(0), stage.Diag.ErrorCount())
	//
	for unit := uint(0); unit < stage.Target.Slots(); unit++ {
		assert.LessOrEqual(t, len(stage.Owners(unit)), 1, "hardware slot %d", unit)
	}
	//
	assert.False(t, a.bus.BitUse().IntersectionCardinality(b.bus.BitUse()) > 0)
}
