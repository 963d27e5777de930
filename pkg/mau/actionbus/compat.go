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

import "github.com/consensys/go-actionbus/pkg/mau/hw"

// Compatible determines whether two entries can occupy the same bus byte, which
// is the case only when they denote the same bits.  This is symmetric.
func Compatible(a Entry, b Entry) bool {
	if a.Source.kind != b.Source.kind {
		if a.Source.kind == HASH_DIST_PAIR && b.Source.kind == HASH_DIST {
			a, b = b, a
		}
		//
		if a.Source.kind == HASH_DIST && b.Source.kind == HASH_DIST_PAIR {
			lo := Entry{HashDistSource(b.Source.hd[0]), b.Offset}
			hi := Entry{HashDistHighSource(b.Source.hd[1]), b.Offset}
			//
			return Compatible(a, lo) || Compatible(a, hi)
		}
		//
		return false
	}
	//
	switch a.Source.kind {
	case FIELD:
		f, g := a.Source.field, b.Source.field
		if f.SameGroupAs(g) && a.Offset == b.Offset {
			return true
		}
		//
		return f.Bit(a.Offset) == g.Bit(b.Offset)
	case HASH_DIST:
		return sameUnit(a.Source.hd[0], b.Source.hd[0]) && hashDistBit(a) == hashDistBit(b)
	case HASH_DIST_PAIR:
		return sameUnit(a.Source.hd[0], b.Source.hd[0]) && sameUnit(a.Source.hd[1], b.Source.hd[1]) &&
			a.Offset == b.Offset
	case TABLE_OUTPUT:
		return a.Source.table == b.Source.table
	default:
		return a == b
	}
}

// Bit of a 32bit hash distribution value supplied by a single unit entry.
func hashDistBit(e Entry) uint {
	if e.Source.high {
		return e.Offset + hw.HASH_DIST_BITS
	}
	//
	return e.Offset
}

func sameUnit(a *hw.HashDist, b *hw.HashDist) bool {
	return a.Group == b.Group && a.ID == b.ID
}
