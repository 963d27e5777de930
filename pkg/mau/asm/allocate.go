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
	"github.com/consensys/go-actionbus/pkg/mau/actionbus"
	"github.com/consensys/go-actionbus/pkg/mau/hw"
	log "github.com/sirupsen/logrus"
)

// Allocate the action bus of every table in a program, stage by stage.  Each
// stage runs its passes in order (declarations, checking, allocation and then,
// optionally, register emission) and stops at the first pass which reports an
// error.  Stages are independent of each other, so errors in one stage do not
// prevent later stages being processed.  Returns true if no errors were
// reported.
func Allocate(prog *Program, emit bool) bool {
	for _, stage := range prog.Stages {
		allocateStage(prog, stage, emit)
	}
	//
	return prog.Diag.ErrorCount() == 0
}

func allocateStage(prog *Program, stage *Stage, emit bool) {
	errors := prog.Diag.ErrorCount()
	// Check whether the current pass reported any errors
	failed := func(pass string) bool {
		if prog.Diag.ErrorCount() > errors {
			log.Debugf("stage %d: stopping after %s", stage.Number, pass)
			return true
		}
		//
		return false
	}
	//
	for _, t := range stage.Tables {
		bus := t.ActionBus()
		bus.Declare(t, t.Declarations)
		//
		for _, need := range t.Needs {
			bus.DeclareNeed(t, need.Line, need.Value, need.Size)
		}
	}
	//
	if failed("declarations") {
		return
	}
	//
	for _, t := range stage.Tables {
		t.ActionBus().Pass1(t)
	}
	//
	if failed("pass1") {
		return
	}
	//
	for _, t := range stage.Tables {
		t.ActionBus().Pass3(t)
	}
	//
	if failed("pass3") || !emit {
		return
	}
	//
	stage.Regs = hw.NewBlock(prog.Target)
	//
	for _, t := range stage.Tables {
		bus := t.ActionBus()
		//
		switch {
		case t.Kind() == actionbus.ACTION_TABLE:
			for word := uint(0); word < t.Words(); word++ {
				bus.WriteActionRegs(stage.Regs, t, t.HomeRow()+word, word)
			}
		case t.Kind().IsMatch():
			bus.WriteImmedRegs(stage.Regs, t)
			//
			for _, m := range t.Meters() {
				bus.WriteActionRegs(stage.Regs, m, m.HomeRow(), 0)
			}
		}
	}
	//
	log.Debugf("stage %d: %d register writes", stage.Number, stage.Regs.Len())
}
