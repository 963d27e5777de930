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

// INPUT_WORD_BYTES is the number of bytes in one (128bit) word on the input
// side of the action crossbar.  The crossbar byte-group tables are indexed
// modulo this value.
const INPUT_WORD_BYTES = 16

// Region identifies an inclusive range of bytes on the action bus.
type Region struct {
	Min uint
	Max uint
}

// SlotClass describes a contiguous run of equally sized hardware slots on the
// action bus.
type SlotClass struct {
	// Width (in bits) of each slot in this class.
	Bits uint
	// Number of slots in this class.
	Count uint
}

// Target captures the fixed action bus geometry of a given hardware target,
// along with the register schema used to program its crossbars.  None of
// this is user configurable: it is a description of the silicon.
type Target struct {
	// Name suitable for identifying the target (e.g. on the command line).
	Name string
	// Number of output bytes in one slice of the action hv crossbar.
	SliceBytes uint
	// Number of 128bit words available on the input side of the crossbar.
	InputWords uint
	// Bus bytes occupied by each size class, in slot order.
	Classes []SlotClass
	// For each byte of an input word, the mask of input bytes which share a
	// single mux with it.  Such bytes can only be routed into a slice as a
	// unit.
	ByteGroups [INPUT_WORD_BYTES]uint16
	// For each byte of an input word, the alignment mask that must be
	// preserved when routing it onto the bus.
	GroupAlign [INPUT_WORD_BYTES]uint
	// Placement search order for 8, 16 and 32 bit requests.
	Regions [3][]Region
	// Register schema for emission.
	Schema Schema
	// Derived slot tables
	slotMap   []uint
	slotSize  []uint
	slotStart []uint
}

var tofinoGroups = [INPUT_WORD_BYTES]uint16{
	0x3, 0x3, 0xc, 0xc,
	0xf0, 0xf0, 0xf0, 0xf0,
	0xff00, 0xff00, 0xff00, 0xff00, 0xff00, 0xff00, 0xff00, 0xff00,
}

var tofinoAlign = [INPUT_WORD_BYTES]uint{1, 1, 1, 1, 3, 3, 3, 3, 7, 7, 7, 7, 7, 7, 7, 7}

var tofinoClasses = []SlotClass{{8, 32}, {16, 32}, {32, 8}}

var tofinoRegions = [3][]Region{
	{{0, 31}},
	{{32, 95}, {0, 31}},
	{{96, 127}, {32, 95}},
}

// TOFINO is the first generation target.
var TOFINO = newTarget("tofino", 16, 8, tofinoClasses, tofinoGroups, tofinoAlign, tofinoRegions, TofinoSchema{})

// JBAY shares the bus geometry of TOFINO, but has a different register
// layout.
var JBAY = newTarget("jbay", 16, 8, tofinoClasses, tofinoGroups, tofinoAlign, tofinoRegions, JBaySchema{})

// TARGETS determines the set of supported targets.
var TARGETS = []*Target{TOFINO, JBAY}

// GetTarget returns the target corresponding with the given name, or nil no
// such target exists.
func GetTarget(name string) *Target {
	for _, t := range TARGETS {
		if t.Name == name {
			return t
		}
	}
	//
	return nil
}

func newTarget(name string, sliceBytes uint, inputWords uint, classes []SlotClass,
	groups [INPUT_WORD_BYTES]uint16, align [INPUT_WORD_BYTES]uint, regions [3][]Region, schema Schema) *Target {
	//
	t := &Target{
		Name:       name,
		SliceBytes: sliceBytes,
		InputWords: inputWords,
		Classes:    classes,
		ByteGroups: groups,
		GroupAlign: align,
		Regions:    regions,
		Schema:     schema,
	}
	// Construct the slot map
	for _, c := range classes {
		for i := uint(0); i < c.Count; i++ {
			slot := uint(len(t.slotSize))
			t.slotSize = append(t.slotSize, c.Bits)
			t.slotStart = append(t.slotStart, uint(len(t.slotMap)))
			//
			for j := uint(0); j < c.Bits/8; j++ {
				t.slotMap = append(t.slotMap, slot)
			}
		}
	}
	//
	return t
}

// BusBytes returns the total number of bytes on the action bus.
func (t *Target) BusBytes() uint {
	return uint(len(t.slotMap))
}

// Slots returns the number of hardware slots on the action bus.
func (t *Target) Slots() uint {
	return uint(len(t.slotSize))
}

// Slices returns the number of hv crossbar slices covering the action bus.
func (t *Target) Slices() uint {
	return t.BusBytes() / t.SliceBytes
}

// SlotOf returns the hardware slot containing a given bus byte, or false if
// the byte is beyond the end of the bus.
func (t *Target) SlotOf(b uint) (uint, bool) {
	if b >= uint(len(t.slotMap)) {
		return 0, false
	}
	//
	return t.slotMap[b], true
}

// SlotSize returns the width (in bits) of a given hardware slot.
func (t *Target) SlotSize(slot uint) uint {
	return t.slotSize[slot]
}

// SlotStart returns the first bus byte of a given hardware slot.
func (t *Target) SlotStart(slot uint) uint {
	return t.slotStart[slot]
}

// SlotIndex returns the index of a given hardware slot within its size class.
// For example, the first 16bit slot has index 0.
func (t *Target) SlotIndex(slot uint) uint {
	for _, c := range t.Classes {
		if slot < c.Count {
			return slot
		}
		//
		slot -= c.Count
	}
	//
	panic("invalid hardware slot")
}

// ByteGroup returns the crossbar byte-group mask for a given input byte.
func (t *Target) ByteGroup(inbyte uint) uint16 {
	return t.ByteGroups[inbyte%INPUT_WORD_BYTES]
}

// Step returns the routing granularity (in bytes) of a given input byte.  An
// input byte can only be placed on output bytes which agree with it modulo
// this value.
func (t *Target) Step(inbyte uint) uint {
	return t.GroupAlign[inbyte%INPUT_WORD_BYTES] + 1
}

// SearchRegions returns the bus regions to search (in order) when placing a
// value of the given size (in bits) which must be one of 8, 16 or 32.
func (t *Target) SearchRegions(bits uint) []Region {
	switch bits {
	case 8:
		return t.Regions[0]
	case 16:
		return t.Regions[1]
	case 32:
		return t.Regions[2]
	}
	//
	panic("invalid size class")
}
