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
package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/consensys/go-actionbus/pkg/mau/asm"
	"github.com/consensys/go-actionbus/pkg/mau/diag"
	"github.com/consensys/go-actionbus/pkg/mau/hw"
	"github.com/consensys/go-actionbus/pkg/util/termio"
)

// Report summarises the outcome of allocating one stage description file.
type Report struct {
	File        string            `json:"file"`
	Target      string            `json:"target"`
	Diagnostics []diag.Diagnostic `json:"diagnostics"`
	Stages      []StageReport     `json:"stages"`
}

// StageReport holds the final action bus of every table in a stage, along with
// any registers generated for it.
type StageReport struct {
	Stage     uint          `json:"stage"`
	Tables    []TableReport `json:"tables"`
	Registers []hw.Write    `json:"registers,omitempty"`
}

// TableReport holds the action bus slots of a single table.
type TableReport struct {
	Name  string       `json:"name"`
	Kind  string       `json:"kind"`
	Slots []SlotReport `json:"slots"`
}

// SlotReport describes a single slot of an action bus.
type SlotReport struct {
	Byte    uint     `json:"byte"`
	Size    uint     `json:"size"`
	Name    string   `json:"name"`
	Sources []string `json:"sources"`
}

// NewReport constructs a report for a program which has been allocated.
func NewReport(filename string, prog *asm.Program) Report {
	report := Report{
		File:        filename,
		Target:      prog.Target.Name,
		Diagnostics: prog.Diag.Diagnostics(),
	}
	//
	for _, stage := range prog.Stages {
		sr := StageReport{Stage: stage.Number}
		//
		if stage.Regs != nil {
			sr.Registers = stage.Regs.Writes()
		}
		//
		for _, t := range stage.Tables {
			tr := TableReport{Name: t.Name(), Kind: t.Kind().String()}
			//
			for _, slot := range t.ActionBus().Slots() {
				var sources []string
				//
				for _, e := range slot.Data() {
					sources = append(sources, e.String())
				}
				//
				tr.Slots = append(tr.Slots, SlotReport{slot.Byte, slot.Size, slot.Name, sources})
			}
			//
			sr.Tables = append(sr.Tables, tr)
		}
		//
		report.Stages = append(report.Stages, sr)
	}
	//
	return report
}

// Print the action bus slots of every table in a report, one table per stage.
// The width of the sources column is limited so the table fits within a given
// width.
func printSlots(w io.Writer, report Report, ansi bool, width uint) {
	var (
		titles = []string{"table", "byte", "bits", "slot", "sources"}
		title  = termio.BoldAnsiEscape()
		colour = termio.NewAnsiEscape().FgColour(termio.TERM_CYAN)
	)
	//
	for _, stage := range report.Stages {
		var height uint = 1
		//
		for _, t := range stage.Tables {
			height += uint(len(t.Slots))
		}
		//
		tp := termio.NewTablePrinter(uint(len(titles)), height)
		tp.AnsiEscapes(ansi)
		tp.SetRow(0, titles...)
		//
		for col := range titles {
			tp.SetEscape(uint(col), 0, title)
		}
		//
		row := uint(1)
		// Width of all columns except the last
		used := uint(len(titles[0]) + len(titles[1]) + len(titles[2]) + len(titles[3]))
		//
		for _, t := range stage.Tables {
			for _, slot := range t.Slots {
				cells := []string{t.Name, fmt.Sprintf("%d", slot.Byte), fmt.Sprintf("%d", slot.Size), slot.Name,
					strings.Join(slot.Sources, ", ")}
				//
				tp.SetRow(row, cells...)
				tp.SetEscape(0, row, colour)
				used = max(used, uint(len(cells[0])+len(cells[1])+len(cells[2])+len(cells[3])))
				row++
			}
		}
		// Leave room for the other columns and their separators
		used += 3 * uint(len(titles))
		tp.SetMaxWidth(uint(len(titles)-1), max(width, used+10)-used)
		//
		fmt.Fprintf(w, "stage %d (%s)\n", stage.Stage, report.File)
		tp.Fprint(w)
	}
}

// Print the registers generated for every stage in a report.
func printRegisters(w io.Writer, report Report) {
	for _, stage := range report.Stages {
		for _, reg := range stage.Registers {
			fmt.Fprintf(w, "stage %d: %s\n", stage.Stage, reg)
		}
	}
}
