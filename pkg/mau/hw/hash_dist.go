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

import (
	"cmp"
	"fmt"
)

// XbarUse records how the output of a hash distribution unit is consumed.
type XbarUse uint8

const (
	// IMMEDIATE_LOW indicates the unit feeds the low half of the immediate
	// data path.
	IMMEDIATE_LOW XbarUse = 1 << iota
	// IMMEDIATE_HIGH indicates the unit feeds the high half of the immediate
	// data path.
	IMMEDIATE_HIGH
	// METER_ADDRESS indicates the unit drives a meter address.
	METER_ADDRESS
	// STATISTICS_ADDRESS indicates the unit drives a statistics address.
	STATISTICS_ADDRESS
	// ACTION_DATA_ADDRESS indicates the unit drives an action data address.
	ACTION_DATA_ADDRESS
)

// HASH_DIST_BITS is the width of a single hash distribution unit.
const HASH_DIST_BITS = 16

// HashDist is a single (16bit) hash distribution unit.  Units are owned by the
// table which declares them, and are identified by their hash group and unit
// id.
type HashDist struct {
	Group   uint
	ID      uint
	XbarUse XbarUse
}

// NewHashDist constructs a hash distribution unit with no recorded uses.
func NewHashDist(group uint, id uint) *HashDist {
	return &HashDist{group, id, 0}
}

// IsHigh determines whether this unit feeds (only) the high half of the
// immediate data path.
func (p *HashDist) IsHigh() bool {
	return p.XbarUse&IMMEDIATE_HIGH != 0 && p.XbarUse&IMMEDIATE_LOW == 0
}

// Cmp orders hash distribution units by group and then id.
func (p *HashDist) Cmp(o *HashDist) int {
	if c := cmp.Compare(p.Group, o.Group); c != 0 {
		return c
	}
	//
	return cmp.Compare(p.ID, o.ID)
}

func (p *HashDist) String() string {
	return fmt.Sprintf("hash_dist %d", p.ID)
}
