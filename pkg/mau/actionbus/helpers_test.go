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

	"github.com/consensys/go-actionbus/pkg/mau/diag"
	"github.com/consensys/go-actionbus/pkg/mau/format"
	"github.com/consensys/go-actionbus/pkg/mau/hw"
	"github.com/stretchr/testify/require"
)

// Minimal table used for testing the allocator in isolation.
type testTable struct {
	name    string
	uid     uint
	kind    TableKind
	format  *format.Format
	actions []Action
	meters  []Table
	hd      map[uint]*hw.HashDist
	bus     *ActionBus
	stage   *Stage
	p4      string
	atcam   bool
	lid     uint
	row     uint
	used    OutputUse
}

type testAction struct {
	name    string
	aliases map[string]Entry
}

func (a *testAction) Name() string { return a.name }

func (a *testAction) Alias(name string) (*format.Field, uint, bool) {
	if e, ok := a.aliases[name]; ok {
		return e.Source.field, e.Offset, true
	}
	//
	return nil, 0, false
}

func (t *testTable) Name() string           { return t.name }
func (t *testTable) Uid() uint              { return t.uid }
func (t *testTable) Kind() TableKind        { return t.kind }
func (t *testTable) Line() int              { return 1 }
func (t *testTable) Format() *format.Format { return t.format }
func (t *testTable) Meters() []Table        { return t.meters }
func (t *testTable) Actions() []Action      { return t.actions }
func (t *testTable) ActionBus() *ActionBus  { return t.bus }
func (t *testTable) Stage() *Stage          { return t.stage }
func (t *testTable) P4Table() string        { return t.p4 }
func (t *testTable) IsAtcam() bool          { return t.atcam }
func (t *testTable) LogicalID() uint        { return t.lid }
func (t *testTable) HomeRow() uint          { return t.row }
func (t *testTable) MarkUsed(use OutputUse) { t.used |= use }

func (t *testTable) LookupField(name string, action string) *format.Field {
	if t.format == nil {
		return nil
	}
	//
	return t.format.Field(name)
}

func (t *testTable) HashDist(id uint) *hw.HashDist {
	return t.hd[id]
}

func newTestStage() *Stage {
	return NewStage(hw.TOFINO, 0, diag.NewReporter())
}

// Construct a table with a single group format holding the given fields, each
// given as a name followed by its (inclusive) bit range.
func newTestTable(t *testing.T, stage *Stage, name string, kind TableKind, fields ...any) *testTable {
	tbl := &testTable{
		name:  name,
		uid:   uint(len(stage.Tables())),
		kind:  kind,
		hd:    make(map[uint]*hw.HashDist),
		bus:   New(stage.Target, 1),
		stage: stage,
	}
	//
	if len(fields) > 0 {
		tbl.format = format.New(tbl.uid)
		tbl.format.AddGroup()
		//
		for i := 0; i+2 < len(fields); i += 3 {
			_, err := tbl.format.Add(0, fields[i].(string), format.Bitrange{Lo: uint(fields[i+1].(int)),
				Hi: uint(fields[i+2].(int))})
			require.NoError(t, err)
		}
	}
	//
	require.NoError(t, stage.Add(tbl))
	//
	return tbl
}

func (t *testTable) field(name string) *format.Field {
	return t.format.Field(name)
}

func decl(b uint, v Value) Declaration {
	return Declaration{Line: int(b) + 1, Key: Byte(b), Value: v}
}

func declRange(lo uint, hi uint, v Value) Declaration {
	return Declaration{Line: int(lo) + 1, Key: Bytes(lo, hi), Value: v}
}

// Run the allocation passes over every table of a stage, in order.
func allocate(stage *Stage) {
	for _, t := range stage.Tables() {
		t.ActionBus().Pass1(t)
	}
	//
	if stage.Diag.ErrorCount() > 0 {
		return
	}
	//
	for _, t := range stage.Tables() {
		t.ActionBus().Pass3(t)
	}
}
