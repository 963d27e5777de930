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
	"strings"

	"github.com/consensys/go-actionbus/pkg/mau/format"
	"github.com/consensys/go-actionbus/pkg/mau/hw"
)

const (
	noHalf = iota
	loHalf
	hiHalf
)

// descriptor is a parsed source descriptor.
type descriptor struct {
	entry Entry
	// Width implied by the descriptor, or 0.
	size uint
	// High unit of an explicit hash distribution pair.
	pairHi *hw.HashDist
	// Which half of the immediate data a single hash distribution unit feeds.
	half int
}

// a hash distribution unit declared as one half of the immediate data
type declaredHalf struct {
	line   int
	at     uint
	hd     *hw.HashDist
	offset uint
	high   bool
}

// Declare populates this bus from a table's declarations.  Problems are
// reported against the line of the offending declaration, which is then
// skipped.
func (p *ActionBus) Declare(tbl Table, decls []Declaration) {
	var (
		reporter = tbl.Stage().Diag
		halves   []declaredHalf
	)
	//
	for _, d := range decls {
		if d.Key.Hi < d.Key.Lo {
			reporter.Errorf(d.Line, "Invalid action bus range %d..%d", d.Key.Lo, d.Key.Hi)
			continue
		} else if d.Key.Hi >= p.target.BusBytes() {
			reporter.Errorf(d.Line, "Action bus index %d out of range", d.Key.Hi)
			continue
		}
		//
		desc, ok := p.parseDescriptor(tbl, d.Line, d.Value)
		if !ok {
			continue
		}
		//
		b := d.Key.Lo
		size := desc.size
		//
		if d.Key.IsRange {
			size = (d.Key.Hi - d.Key.Lo + 1) * 8
		} else if size == 0 {
			size = p.slotSize(b)
		}
		//
		name := d.Value.String()
		//
		switch {
		case desc.pairHi != nil:
			lo := desc.entry.Source.hd[0]
			p.SetupSlot(d.Line, tbl, name, b, desc.entry.Source, hw.HASH_DIST_BITS, desc.entry.Offset)
			p.SetupSlot(d.Line, tbl, name, b, HashDistPairSource(lo, desc.pairHi), max(size, 2*hw.HASH_DIST_BITS),
				desc.entry.Offset)
			p.SetupSlot(d.Line, tbl, name, b+2, HashDistHighSource(desc.pairHi), hw.HASH_DIST_BITS, desc.entry.Offset)
		case desc.half != noHalf:
			halves = append(halves, declaredHalf{d.Line, b, desc.entry.Source.hd[0], desc.entry.Offset, desc.half == hiHalf})
			p.SetupSlot(d.Line, tbl, name, b, desc.entry.Source, size, desc.entry.Offset)
		default:
			p.SetupSlot(d.Line, tbl, name, b, desc.entry.Source, size, desc.entry.Offset)
		}
	}
	// Join low and high halves declared separately.
	for _, lo := range halves {
		for _, hi := range halves {
			if !lo.high && hi.high && hi.at == lo.at+2 && hi.hd.Group == lo.hd.Group && hi.offset == lo.offset {
				pair := HashDistPairSource(lo.hd, hi.hd)
				p.SetupSlot(lo.line, tbl, pair.String(), lo.at, pair, 2*hw.HASH_DIST_BITS, lo.offset)
			}
		}
	}
}

// DeclareNeed records that a source described by a given value must be placed
// on the bus in slots of the given widths.  Unlike a declaration, references to
// tables and meters are resolved immediately.
func (p *ActionBus) DeclareNeed(tbl Table, line int, v Value, size SizeMask) {
	desc, ok := p.parseDescriptor(tbl, line, v)
	if !ok {
		return
	}
	//
	e := desc.entry
	if desc.pairHi != nil {
		e.Source = HashDistPairSource(e.Source.hd[0], desc.pairHi)
	}
	//
	if e.Source.IsRef() {
		if e, ok = p.resolve(tbl, line, e); !ok {
			return
		}
	}
	//
	p.needAt(line, e.Source, e.Offset, size)
}

func (p *ActionBus) parseDescriptor(tbl Table, line int, v Value) (descriptor, bool) {
	reporter := tbl.Stage().Diag
	//
	switch v.Kind {
	case STRING_VALUE:
		return p.parseName(tbl, line, v.Str)
	case CMD_VALUE:
		switch v.Str {
		case "hash_dist":
			return p.parseHashDist(tbl, line, v)
		case "rng", "ealu":
			return p.parseUnit(tbl, line, v)
		case "xcmp":
			if len(v.Args) != 2 || v.Args[0].Kind != INT_VALUE || v.Args[1].Kind != INT_VALUE {
				break
			}
			//
			return descriptor{entry: Entry{XcmpSource(v.Args[0].Lo, v.Args[1].Lo), 0}, size: 8}, true
		case "color", "address":
			if len(v.Args) != 1 || v.Args[0].Kind != STRING_VALUE {
				break
			}
			//
			src := ColorRef(v.Args[0].Str)
			if v.Str == "address" {
				src = AddressRef(v.Args[0].Str)
			}
			//
			return descriptor{entry: Entry{src, 0}}, true
		default:
			return p.parseSlice(tbl, line, v)
		}
	}
	//
	reporter.Errorf(line, "Invalid action bus entry %s", v)
	//
	return descriptor{}, false
}

// Parse a bare name, which is either a field, a meter placeholder, or a
// reference to be resolved later.
func (p *ActionBus) parseName(tbl Table, line int, name string) (descriptor, bool) {
	switch name {
	case "meter":
		return descriptor{entry: Entry{NameRef(""), 0}}, true
	case "meter:color":
		return descriptor{entry: Entry{ColorRef(""), 0}}, true
	case "meter:address":
		return descriptor{entry: Entry{AddressRef(""), 0}}, true
	}
	//
	if f := lookupField(tbl, name); f != nil {
		return descriptor{entry: Entry{FieldSource(f), 0}, size: f.Size}, checkImmediate(tbl, line, f)
	} else if tbl.Kind() == ACTION_TABLE {
		tbl.Stage().Diag.Errorf(line, "No field %s in format", name)
		return descriptor{}, false
	} else if n, ok := strings.CutSuffix(name, ":color"); ok {
		return descriptor{entry: Entry{ColorRef(n), 0}}, true
	} else if n, ok := strings.CutSuffix(name, ":address"); ok {
		return descriptor{entry: Entry{AddressRef(n), 0}}, true
	}
	//
	return descriptor{entry: Entry{NameRef(name), 0}}, true
}

// Parse a slice of a named field, given either as (name [lo hi]) or (name lo
// hi).
func (p *ActionBus) parseSlice(tbl Table, line int, v Value) (descriptor, bool) {
	var (
		reporter = tbl.Stage().Diag
		lo, hi   uint
	)
	//
	switch {
	case len(v.Args) == 1 && v.Args[0].Kind == RANGE_VALUE:
		lo, hi = v.Args[0].Lo, v.Args[0].Hi
	case len(v.Args) == 2 && v.Args[0].Kind == INT_VALUE && v.Args[1].Kind == INT_VALUE:
		lo, hi = v.Args[0].Lo, v.Args[1].Lo
	default:
		reporter.Errorf(line, "Invalid action bus entry %s", v)
		return descriptor{}, false
	}
	//
	if lo > hi {
		reporter.Errorf(line, "Invalid slice %d..%d of %s", lo, hi, v.Str)
		return descriptor{}, false
	}
	//
	f := lookupField(tbl, v.Str)
	//
	if f == nil && tbl.Kind() == ACTION_TABLE {
		reporter.Errorf(line, "No field %s in format", v.Str)
		return descriptor{}, false
	} else if f == nil {
		return descriptor{entry: Entry{NameRef(v.Str), lo}, size: hi - lo + 1}, true
	} else if hi >= f.Size {
		reporter.Errorf(line, "Slice %d..%d out of range for field %s (%d bits)", lo, hi, f.Name, f.Size)
		return descriptor{}, false
	}
	//
	return descriptor{entry: Entry{FieldSource(f), lo}, size: hi - lo + 1}, checkImmediate(tbl, line, f)
}

// Parse (hash_dist ID [lo|low|hi|high|ID2] [[lo hi]]).
func (p *ActionBus) parseHashDist(tbl Table, line int, v Value) (descriptor, bool) {
	reporter := tbl.Stage().Diag
	args := v.Args
	//
	if len(args) == 0 || args[0].Kind != INT_VALUE {
		reporter.Errorf(line, "Invalid action bus entry %s", v)
		return descriptor{}, false
	}
	//
	hd := tbl.HashDist(args[0].Lo)
	if hd == nil {
		reporter.Errorf(line, "No hash_dist %d in table %s", args[0].Lo, tbl.Name())
		return descriptor{}, false
	}
	//
	desc := descriptor{entry: Entry{HashDistSource(hd), 0}, size: hw.HASH_DIST_BITS}
	args = args[1:]
	//
	if n := len(args); n > 0 && args[n-1].Kind == RANGE_VALUE {
		desc.entry.Offset = args[n-1].Lo
		desc.size = args[n-1].Hi - args[n-1].Lo + 1
		args = args[:n-1]
	}
	//
	if len(args) > 1 {
		reporter.Errorf(line, "Invalid action bus entry %s", v)
		return descriptor{}, false
	} else if len(args) == 0 {
		return desc, true
	}
	//
	switch q := args[0]; {
	case q.Is("lo") || q.Is("low"):
		hd.XbarUse |= hw.IMMEDIATE_LOW
		desc.half = loHalf
	case q.Is("hi") || q.Is("high"):
		hd.XbarUse |= hw.IMMEDIATE_HIGH
		desc.entry.Source = HashDistHighSource(hd)
		desc.half = hiHalf
	case q.Kind == INT_VALUE:
		hi := tbl.HashDist(q.Lo)
		if hi == nil {
			reporter.Errorf(line, "No hash_dist %d in table %s", q.Lo, tbl.Name())
			return descriptor{}, false
		}
		//
		hd.XbarUse |= hw.IMMEDIATE_LOW
		hi.XbarUse |= hw.IMMEDIATE_HIGH
		desc.pairHi = hi
		desc.size = 2 * hw.HASH_DIST_BITS
	default:
		reporter.Errorf(line, "Invalid action bus entry %s", v)
		return descriptor{}, false
	}
	//
	return desc, true
}

// Parse (rng UNIT [[lo hi]]) or (ealu UNIT [[lo hi]]).
func (p *ActionBus) parseUnit(tbl Table, line int, v Value) (descriptor, bool) {
	args := v.Args
	//
	if len(args) == 0 || len(args) > 2 || args[0].Kind != INT_VALUE ||
		(len(args) == 2 && args[1].Kind != RANGE_VALUE) {
		tbl.Stage().Diag.Errorf(line, "Invalid action bus entry %s", v)
		return descriptor{}, false
	}
	//
	desc := descriptor{entry: Entry{RandomSource(args[0].Lo), 0}}
	if v.Str == "ealu" {
		desc.entry.Source = EaluSource(args[0].Lo)
	}
	//
	if len(args) == 2 {
		desc.entry.Offset = args[1].Lo
		desc.size = args[1].Hi - args[1].Lo + 1
	}
	//
	return desc, true
}

// Width of the hardware slot containing a given bus byte.
func (p *ActionBus) slotSize(b uint) uint {
	unit, _ := p.target.SlotOf(b)
	return p.target.SlotSize(unit)
}

// Only fields within the immediate data can be placed on the action bus.
func checkImmediate(tbl Table, line int, f *format.Field) bool {
	if !f.IsImmediate() {
		tbl.Stage().Diag.Errorf(line, "Field %s is not in immediate data", f.Name)
		return false
	}
	//
	return true
}

// Look up a field by name, allowing for names qualified by a table name.
func lookupField(tbl Table, name string) *format.Field {
	if f := tbl.LookupField(name, ""); f != nil {
		return f
	} else if _, n, ok := strings.Cut(name, "."); ok {
		return tbl.LookupField(n, "")
	}
	//
	return nil
}
