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

// Write records the value assigned to a given register.
type Write struct {
	Path  string `json:"path"`
	Value uint64 `json:"value"`
}

func (w Write) String() string {
	return fmt.Sprintf("%s = 0x%x", w.Path, w.Value)
}

// Block accumulates register writes for a given target.  Registers are
// reported in the order they were first written, and each register appears at
// most once (with its final value).
type Block struct {
	target *Target
	index  map[string]int
	writes []Write
}

// NewBlock constructs an (initially empty) block of register writes for a
// given target.
func NewBlock(target *Target) *Block {
	return &Block{target, make(map[string]int), nil}
}

// Schema returns the register schema of the target being written.
func (p *Block) Schema() Schema {
	return p.target.Schema
}

// Set assigns a given value to a given register.
func (p *Block) Set(path string, value uint64) {
	if i, ok := p.index[path]; ok {
		p.writes[i].Value = value
	} else {
		p.index[path] = len(p.writes)
		p.writes = append(p.writes, Write{path, value})
	}
}

// Or sets the given mask bits in a given register, leaving any bits set by
// earlier writes in place.
func (p *Block) Or(path string, mask uint64) {
	if i, ok := p.index[path]; ok {
		p.writes[i].Value |= mask
	} else {
		p.Set(path, mask)
	}
}

// Writes returns the register writes accumulated so far.
func (p *Block) Writes() []Write {
	return p.writes
}

// Len returns the number of distinct registers written.
func (p *Block) Len() int {
	return len(p.writes)
}
