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
package asm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/consensys/go-actionbus/pkg/mau/actionbus"
	"github.com/consensys/go-actionbus/pkg/mau/hw"
	"github.com/consensys/go-actionbus/pkg/util/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Determines the (relative) location of the test files
const TestDir = "testdata"

// ===================================================================
// Reader
// ===================================================================

func Test_Read_Basic(t *testing.T) {
	prog := checkRead(t, "basic.abus")
	//
	assert.Equal(t, hw.TOFINO, prog.Target)
	require.Len(t, prog.Stages, 1)
	require.Len(t, prog.Stages[0].Tables, 3)
	//
	act, exm, m0 := prog.Table("act0"), prog.Table("exm"), prog.Table("m0")
	//
	assert.Equal(t, actionbus.ACTION_TABLE, act.Kind())
	assert.Equal(t, uint(2), act.HomeRow())
	assert.Equal(t, uint(24), act.Format().Width())
	assert.Equal(t, []actionbus.Declaration{
		{Line: 7, Key: actionbus.Byte(32), Value: actionbus.Str("f1")},
		{Line: 7, Key: actionbus.Byte(2), Value: actionbus.Str("f2")},
	}, act.Declarations)
	//
	assert.Equal(t, uint(1), exm.LogicalID())
	assert.Equal(t, []actionbus.Table{m0}, exm.Meters())
	require.Len(t, exm.Needs, 1)
	assert.Equal(t, actionbus.WORD_SLOT, exm.Needs[0].Size)
	assert.Equal(t, 10, exm.Needs[0].Line)
	//
	assert.Equal(t, actionbus.METER, m0.Kind())
	assert.Nil(t, prog.Table("missing"))
}

func Test_Read_Values(t *testing.T) {
	prog := readString(t, `(stage 1 (table t :kind exact
		(hash-dist (0 3))
		(action-bus ([32 33] (hash_dist 3 [0 7])) (64 0x10) (96 m.color))))`)
	//
	tbl := prog.Table("t")
	require.NotNil(t, tbl)
	//
	assert.Equal(t, uint(1), prog.Stages[0].Number)
	assert.Equal(t, hw.TOFINO, prog.Target)
	assert.NotNil(t, tbl.HashDist(3))
	assert.Equal(t, []actionbus.Value{
		actionbus.Cmd("hash_dist", actionbus.Int(3), actionbus.Range(0, 7)),
		actionbus.Int(16),
		actionbus.Str("m.color"),
	}, []actionbus.Value{tbl.Declarations[0].Value, tbl.Declarations[1].Value, tbl.Declarations[2].Value})
	assert.Equal(t, actionbus.Bytes(32, 33), tbl.Declarations[0].Key)
}

func Test_Read_DefaultTarget(t *testing.T) {
	srcfile := source.NewSourceFile("test.abus", []byte("(stage 0)"))
	//
	prog, errs := Read(srcfile, hw.JBAY)
	require.Empty(t, errs)
	assert.Equal(t, hw.JBAY, prog.Target)
	assert.Equal(t, hw.JBAY, prog.Stages[0].Target)
	// An explicit target takes priority
	srcfile = source.NewSourceFile("test.abus", []byte("(target tofino) (stage 0)"))
	prog, errs = Read(srcfile, hw.JBAY)
	require.Empty(t, errs)
	assert.Equal(t, hw.TOFINO, prog.Target)
}

func Test_Read_Aliases(t *testing.T) {
	prog := readString(t, `(target jbay)
		(stage 0 (table t :kind exact :p4 ingress.fwd :atcam true
		  (format :immediate 32 (group (imm 32 47) (split [48 51] [60 63])))
		  (action set_port (alias port imm) (alias hi imm 8))))`)
	//
	tbl := prog.Table("t")
	//
	assert.Equal(t, hw.JBAY, prog.Target)
	assert.Equal(t, "ingress.fwd", tbl.P4Table())
	assert.True(t, tbl.IsAtcam())
	assert.Equal(t, uint(32), tbl.Format().Immediate())
	assert.Equal(t, uint(8), tbl.Format().Field("split").Size)
	// Aliases at offset zero are visible to the allocator
	assert.Equal(t, tbl.Format().Field("imm"), tbl.LookupField("port", "set_port"))
	assert.Nil(t, tbl.LookupField("hi", "set_port"))
	//
	field, offset, ok := tbl.Action("set_port").Alias("hi")
	assert.True(t, ok)
	assert.Equal(t, "imm", field.Name)
	assert.Equal(t, uint(8), offset)
}

func Test_Read_Errors(t *testing.T) {
	var tests = []struct {
		input string
		err   string
	}{
		{"(target z80)", "test.abus:1: unknown target z80"},
		{"(stage 0)\n(target tofino)", "test.abus:2: target must be declared first"},
		{"(table t)", "test.abus:1: expected (target ...) or (stage ...)"},
		{"(stage x)", "test.abus:1: expected unsigned integer"},
		{"(stage 0)\n(stage 0)", "test.abus:2: duplicate stage 0"},
		{"(stage 0 (table t :kind bogus))", "test.abus:1: unknown table kind bogus"},
		{"(stage 0 (table t)\n(table t))", "test.abus:2: duplicate table t"},
		{"(stage 0 (table t (attach m)))", "test.abus:1: unknown table m"},
		{"(stage 0 (table t :colour red))", "test.abus:1: unknown table property :colour"},
		{"(stage 0 (table t (gateway)))", "test.abus:1: unknown table clause gateway"},
		{"(stage 0 (table t (format (group (f 8 4)))))", "test.abus:1: invalid bit range 8..4 for field f"},
		{"(stage 0 (table t (format (group (f 0 7) (f 8 15)))))", "test.abus:1: duplicate field f"},
		{"(stage 0 (table t (action a (alias x y))))", "test.abus:1: unknown field y"},
		{"(stage 0 (table t (hash-dist (0 1) (0 1))))", "test.abus:1: duplicate hash_dist 1 in table t"},
		{"(stage 0 (table t (action-bus (0))))", "test.abus:1: expected (index value)"},
		{"(stage 0 (table t (action-bus ([0] f))))", "test.abus:1: expected [lo hi]"},
		{"(stage 0 (table t (need f quad)))", "test.abus:1: unknown slot size quad"},
		{"(stage 0", "test.abus:1: unexpected end-of-file"},
	}
	//
	for _, test := range tests {
		_, errs := Read(source.NewSourceFile("test.abus", []byte(test.input)), nil)
		//
		if assert.NotEmpty(t, errs, test.input) {
			assert.Equal(t, test.err, errs[0].Error(), test.input)
		}
	}
}

// ===================================================================
// Allocate
// ===================================================================

func Test_Allocate_Basic(t *testing.T) {
	prog := checkRead(t, "basic.abus")
	//
	require.True(t, Allocate(prog, true))
	assert.Empty(t, prog.Diag.Warnings())
	// Meter output is placed on the 32bit part of the bus
	exm := prog.Table("exm")
	require.NotNil(t, exm.ActionBus().Slot(96))
	assert.Equal(t, actionbus.TABLE_OUTPUT, exm.ActionBus().Slot(96).Data()[0].Source.Kind())
	//
	assert.Equal(t, []hw.Write{
		{Path: "rams.array.row[2].action_hv_xbar.action_hv_ixbar_ctl_byte[2]", Value: 2},
		{Path: "rams.array.row[2].action_hv_xbar.action_hv_ixbar_ctl_byte_enable", Value: 1 << 2},
		{Path: "rams.array.row[2].action_hv_xbar.action_hv_ixbar_ctl_half[0]", Value: 0},
		{Path: "rams.array.row[2].action_hv_xbar.action_hv_ixbar_ctl_half_enable", Value: 1},
		{Path: "rams.array.row[6].action_hv_xbar.action_hv_ixbar_ctl_word[0]", Value: 0},
		{Path: "rams.array.row[6].action_hv_xbar.action_hv_ixbar_ctl_word_enable", Value: 1},
	}, prog.Stages[0].Regs.Writes())
}

func Test_Allocate_NoEmit(t *testing.T) {
	prog := checkRead(t, "basic.abus")
	//
	require.True(t, Allocate(prog, false))
	assert.Nil(t, prog.Stages[0].Regs)
	assert.NotNil(t, prog.Table("exm").ActionBus().Slot(96))
}

func Test_Allocate_HashDist(t *testing.T) {
	prog := checkRead(t, "hash_dist.abus")
	//
	require.True(t, Allocate(prog, true))
	assert.Empty(t, prog.Diag.Diagnostics())
	// The single unit feeds both halves
	hd := prog.Table("exm").HashDist(3)
	assert.Equal(t, hw.IMMEDIATE_LOW|hw.IMMEDIATE_HIGH, hd.XbarUse)
	//
	assert.Equal(t, uint(3), prog.Stages[0].Number)
	assert.Equal(t, []hw.Write{
		{Path: "rams.match.adrdist.immediate_data_16b_ixbar_ctl[16]", Value: 2},
		{Path: "rams.match.adrdist.immediate_data_16b_enable[16]", Value: 1 << 1},
		{Path: "rams.match.adrdist.immediate_data_16b_ixbar_ctl[17]", Value: 3},
		{Path: "rams.match.adrdist.immediate_data_16b_enable[17]", Value: 1 << 1},
	}, prog.Stages[0].Regs.Writes())
}

func Test_Allocate_Atcam(t *testing.T) {
	prog := checkRead(t, "atcam.abus")
	//
	require.True(t, Allocate(prog, false))
	//
	assert.Equal(t, []string{
		"Action bus byte 10 shared by ATCAM partitions part0 and part1",
		"Action bus byte 11 shared by ATCAM partitions part0 and part1",
	}, prog.Diag.Warnings())
	// Reported against the declaration in the second partition
	assert.Equal(t, 8, prog.Diag.Diagnostics()[0].Line)
}

func Test_Allocate_Misaligned(t *testing.T) {
	prog := checkRead(t, "misaligned.abus")
	//
	assert.False(t, Allocate(prog, true))
	assert.Equal(t, []string{"f misaligned for 8-bit part of action bus"}, prog.Diag.Errors())
	// Nothing is emitted for a stage with errors
	assert.Nil(t, prog.Stages[0].Regs)
}

func Test_Allocate_StagesIndependent(t *testing.T) {
	prog := readString(t, `
		(stage 0 (table t :kind exact (action-bus (0 missing))))
		(stage 1 (table t :kind exact :logical-id 2 (action-bus (40 (rng 1)))))
		(stage 2 (table a :kind action
		  (format (group (f 0 7) (g 8 15)))
		  (action-bus (0 f) (0 g))))`)
	//
	assert.False(t, Allocate(prog, true))
	assert.Equal(t, []string{
		"No format field or table named missing",
		"Incompatible action bus entries at offset 0",
	}, prog.Diag.Errors())
	assert.Equal(t, 2, prog.Diag.Diagnostics()[0].Line)
	assert.Equal(t, 6, prog.Diag.Diagnostics()[1].Line)
	// The second stage is still processed
	assert.Nil(t, prog.Stages[0].Regs)
	require.NotNil(t, prog.Stages[1].Regs)
	assert.Equal(t, 4, prog.Stages[1].Regs.Len())
	// Errors in the third stage are found despite those of the first
	assert.Nil(t, prog.Stages[2].Regs)
}

func Test_Allocate_MisalignedField(t *testing.T) {
	prog := readString(t, `(stage 0 (table a :kind action
		(format (group (f 4 11)))
		(action-bus (0 f))))`)
	//
	assert.False(t, Allocate(prog, true))
	assert.Equal(t, []string{"f misaligned for 8-bit part of action bus"}, prog.Diag.Errors())
	assert.Nil(t, prog.Stages[0].Regs)
}

func Test_Allocate_BelowImmediate(t *testing.T) {
	prog := readString(t, `(stage 0 (table t :kind exact
		(format :immediate 16 (group (f 0 7) (g 16 23)))
		(need g byte)
		(need f byte)))`)
	//
	assert.False(t, Allocate(prog, false))
	assert.Equal(t, []string{"Field f is not in immediate data"}, prog.Diag.Errors())
	assert.Equal(t, 4, prog.Diag.Diagnostics()[0].Line)
}

func Test_Allocate_NeedLines(t *testing.T) {
	prog := readString(t, `(stage 0 (table t :kind exact
		(format (group (f 4 19) (g 0 7)))
		(need g byte)
		(need f byte)))`)
	//
	assert.False(t, Allocate(prog, false))
	assert.Equal(t, []string{"f misaligned for 8-bit part of action bus"}, prog.Diag.Errors())
	// Reported against the request rather than the table
	assert.Equal(t, 4, prog.Diag.Diagnostics()[0].Line)
}

// ===================================================================
// Helpers
// ===================================================================

func checkRead(t *testing.T, name string) *Program {
	filename := filepath.Join(TestDir, name)
	bytes, err := os.ReadFile(filename)
	require.NoError(t, err)
	//
	prog, errs := Read(source.NewSourceFile(filename, bytes), nil)
	require.Empty(t, errs)
	//
	return prog
}

func readString(t *testing.T, text string) *Program {
	prog, errs := Read(source.NewSourceFile("test.abus", []byte(text)), nil)
	require.Empty(t, errs)
	//
	return prog
}
