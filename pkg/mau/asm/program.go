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
	"github.com/consensys/go-actionbus/pkg/mau/diag"
	"github.com/consensys/go-actionbus/pkg/mau/hw"
	"github.com/consensys/go-actionbus/pkg/mau/table"
)

// Program is a parsed stage description, consisting of one or more pipeline
// stages for a given target.
type Program struct {
	// Target hardware
	Target *hw.Target
	// Sink for allocation diagnostics (shared by all stages).
	Diag *diag.Reporter
	// Stages in the order they were declared.
	Stages []*Stage
}

// Stage is a pipeline stage along with the concrete tables it contains.
type Stage struct {
	*actionbus.Stage
	// Tables in declaration order.
	Tables []*table.Table
	// Register writes produced for this stage (if any).
	Regs *hw.Block
}

// Table returns the table of a given name in any stage, or nil.
func (p *Program) Table(name string) *table.Table {
	for _, s := range p.Stages {
		for _, t := range s.Tables {
			if t.Name() == name {
				return t
			}
		}
	}
	//
	return nil
}
