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
	"fmt"

	"github.com/consensys/go-actionbus/pkg/mau/actionbus"
	"github.com/consensys/go-actionbus/pkg/mau/diag"
	"github.com/consensys/go-actionbus/pkg/mau/format"
	"github.com/consensys/go-actionbus/pkg/mau/hw"
	"github.com/consensys/go-actionbus/pkg/mau/table"
	"github.com/consensys/go-actionbus/pkg/util/source"
	"github.com/consensys/go-actionbus/pkg/util/source/sexp"
)

// DEFAULT_TARGET is used when a file does not include a (target ...) form.
const DEFAULT_TARGET = "tofino"

// Read a stage description file.  A file consists of an optional target form
// followed by one or more stages, for example:
//
//	(target tofino)
//	(stage 0
//	  (table act :kind action :home-row 2
//	    (format (group (f1 0 15) (f2 16 23)))
//	    (action-bus (32 f1) ([4 5] f2)))
//	  (table exm :kind exact :logical-id 1
//	    (attach m0)
//	    (hash-dist (0 3) (0 4))
//	    (action-bus (96 meter) (64 (hash_dist 3 4)))
//	    (need (rng 0) word))
//	  (table m0 :kind meter :home-row 6))
//
// Files without a target form are read for the given default target (or for
// DEFAULT_TARGET when this is nil).  Problems with the structure of the file are
// reported as syntax errors.  Problems with the allocation itself are reported
// later by Allocate.
func Read(srcfile *source.File, target *hw.Target) (*Program, []source.SyntaxError) {
	terms, srcmap, err := sexp.ParseAll(srcfile)
	if err != nil {
		return nil, []source.SyntaxError{*err}
	}
	//
	r := &reader{srcmap: srcmap}
	if target == nil {
		target = hw.GetTarget(DEFAULT_TARGET)
	}
	//
	prog := &Program{Target: target, Diag: diag.NewReporter()}
	//
	for i, term := range terms {
		list := term.AsList()
		//
		switch {
		case list != nil && list.MatchSymbols(2, "target"):
			if i != 0 {
				r.errorf(term, "target must be declared first")
			} else if prog.Target = hw.GetTarget(list.Get(1).String()); prog.Target == nil {
				r.errorf(list.Get(1), "unknown target %s", list.Get(1))
				return nil, r.errors
			}
		case list != nil && list.MatchSymbols(2, "stage"):
			if s := r.readStage(prog, list); s != nil {
				prog.Stages = append(prog.Stages, s)
			}
		default:
			r.errorf(term, "expected (target ...) or (stage ...)")
		}
	}
	//
	if len(r.errors) > 0 {
		return nil, r.errors
	}
	//
	return prog, nil
}

type reader struct {
	srcmap *source.Map[sexp.SExp]
	errors []source.SyntaxError
	// Next format id to allocate.
	formats uint
}

func (r *reader) errorf(term sexp.SExp, msg string, args ...any) {
	r.errors = append(r.errors, *r.srcmap.SyntaxError(term, fmt.Sprintf(msg, args...)))
}

func (r *reader) line(term sexp.SExp) int {
	return r.srcmap.Line(term)
}

// (stage N table...)
func (r *reader) readStage(prog *Program, list *sexp.List) *Stage {
	number, ok := r.readUint(list.Get(1))
	if !ok {
		return nil
	}
	//
	for _, s := range prog.Stages {
		if s.Number == number {
			r.errorf(list.Get(1), "duplicate stage %d", number)
			return nil
		}
	}
	//
	stage := &Stage{Stage: actionbus.NewStage(prog.Target, number, prog.Diag)}
	// Attachments are resolved once every table of the stage is known.
	var attachments []*sexp.List
	//
	for _, term := range list.Elements[2:] {
		tl := term.AsList()
		if tl == nil || !tl.MatchSymbols(2, "table") {
			r.errorf(term, "expected (table ...)")
			continue
		}
		//
		if t, attach := r.readTable(stage, tl); t != nil {
			stage.Tables = append(stage.Tables, t)
			attachments = append(attachments, attach)
		}
	}
	//
	for i, attach := range attachments {
		if attach == nil {
			continue
		}
		//
		for _, name := range attach.Elements[1:] {
			if m := stage.TableByName(name.String()); m == nil {
				r.errorf(name, "unknown table %s", name)
			} else {
				stage.Tables[i].Attach(m)
			}
		}
	}
	//
	return stage
}

// (table NAME :key value ... clause...)
func (r *reader) readTable(stage *Stage, list *sexp.List) (*table.Table, *sexp.List) {
	var (
		name    = list.Get(1).String()
		kind    = actionbus.EXACT_MATCH
		attach  *sexp.List
		clauses []*sexp.List
		props   = make(map[string]sexp.SExp)
	)
	// Keyword properties come first
	i := 2
	for ; i+1 < list.Len() && isKeyword(list.Get(i)); i += 2 {
		props[list.Get(i).String()] = list.Get(i + 1)
	}
	//
	for _, term := range list.Elements[i:] {
		if cl := term.AsList(); cl != nil && cl.Head() != "" {
			clauses = append(clauses, cl)
		} else {
			r.errorf(term, "unexpected table clause %s", term)
		}
	}
	//
	if k, ok := props[":kind"]; ok {
		if kind, ok = actionbus.ParseTableKind(k.String()); !ok {
			r.errorf(k, "unknown table kind %s", k)
			return nil, nil
		}
	}
	//
	t, err := table.New(stage.Stage, name, kind, r.line(list))
	if err != nil {
		r.errorf(list.Get(1), "%s", err.Error())
		return nil, nil
	}
	//
	r.readProperties(t, props)
	//
	for _, cl := range clauses {
		switch cl.Head() {
		case "format":
			r.readFormat(t, cl)
		case "action":
			r.readAction(t, cl)
		case "attach":
			attach = cl
		case "hash-dist":
			r.readHashDist(t, cl)
		case "action-bus":
			r.readActionBus(t, cl)
		case "need":
			r.readNeed(t, cl)
		default:
			r.errorf(cl, "unknown table clause %s", cl.Head())
		}
	}
	//
	return t, attach
}

func (r *reader) readProperties(t *table.Table, props map[string]sexp.SExp) {
	var (
		lid, row uint
		p4       string
		atcam    bool
	)
	//
	for key, val := range props {
		switch key {
		case ":kind":
		case ":logical-id":
			lid, _ = r.readUint(val)
		case ":home-row":
			row, _ = r.readUint(val)
		case ":p4":
			p4 = val.String()
		case ":atcam":
			atcam = val.String() == "true"
		default:
			r.errorf(val, "unknown table property %s", key)
		}
	}
	//
	t.SetLayout(lid, row)
	t.SetP4Table(p4, atcam)
}

// (format [:immediate N] (group FIELD...)...)
func (r *reader) readFormat(t *table.Table, list *sexp.List) {
	if t.Format() != nil {
		r.errorf(list, "duplicate format")
		return
	}
	//
	f := format.New(r.formats)
	r.formats++
	//
	elements := list.Elements[1:]
	//
	if len(elements) >= 2 && elements[0].String() == ":immediate" {
		if immed, ok := r.readUint(elements[1]); ok {
			f.SetImmediate(immed)
		}
		//
		elements = elements[2:]
	}
	//
	for _, term := range elements {
		group := term.AsList()
		if group == nil || group.Head() != "group" {
			r.errorf(term, "expected (group ...)")
			continue
		}
		//
		grp := f.AddGroup()
		//
		for _, fterm := range group.Elements[1:] {
			r.readField(f, grp, fterm)
		}
	}
	//
	t.SetFormat(f)
}

// (NAME LO HI) or (NAME [LO HI]...)
func (r *reader) readField(f *format.Format, grp uint, term sexp.SExp) {
	list := term.AsList()
	if list == nil || list.Len() < 2 || list.Head() == "" {
		r.errorf(term, "expected (name lo hi)")
		return
	}
	//
	var bits []format.Bitrange
	//
	if list.Len() == 3 && list.Get(1).AsSymbol() != nil {
		lo, ok1 := r.readUint(list.Get(1))
		hi, ok2 := r.readUint(list.Get(2))
		//
		if !ok1 || !ok2 {
			return
		}
		//
		bits = append(bits, format.Bitrange{Lo: lo, Hi: hi})
	} else {
		for _, e := range list.Elements[1:] {
			lo, hi, ok := r.readRange(e)
			if !ok {
				return
			}
			//
			bits = append(bits, format.Bitrange{Lo: lo, Hi: hi})
		}
	}
	//
	if _, err := f.Add(grp, list.Head(), bits...); err != nil {
		r.errorf(term, "%s", err.Error())
	}
}

// (action NAME (alias NAME FIELD [OFFSET])...)
func (r *reader) readAction(t *table.Table, list *sexp.List) {
	if !list.MatchSymbols(2, "action") {
		r.errorf(list, "expected (action name ...)")
		return
	}
	//
	action, err := t.AddAction(list.Get(1).String())
	if err != nil {
		r.errorf(list.Get(1), "%s", err.Error())
		return
	}
	//
	for _, term := range list.Elements[2:] {
		alias := term.AsList()
		if alias == nil || !alias.MatchSymbols(3, "alias") || alias.Len() > 4 {
			r.errorf(term, "expected (alias name field [offset])")
			continue
		}
		//
		var (
			offset uint
			ok     = true
			field  = t.LookupField(alias.Get(2).String(), "")
		)
		//
		if alias.Len() == 4 {
			offset, ok = r.readUint(alias.Get(3))
		}
		//
		if field == nil {
			r.errorf(alias.Get(2), "unknown field %s", alias.Get(2))
		} else if ok {
			if err := action.AddAlias(alias.Get(1).String(), field, offset); err != nil {
				r.errorf(term, "%s", err.Error())
			}
		}
	}
}

// (hash-dist (GROUP ID)...)
func (r *reader) readHashDist(t *table.Table, list *sexp.List) {
	for _, term := range list.Elements[1:] {
		hd := term.AsList()
		if hd == nil || hd.Len() != 2 {
			r.errorf(term, "expected (group id)")
			continue
		}
		//
		group, ok1 := r.readUint(hd.Get(0))
		id, ok2 := r.readUint(hd.Get(1))
		//
		if ok1 && ok2 {
			if err := t.AddHashDist(group, id); err != nil {
				r.errorf(term, "%s", err.Error())
			}
		}
	}
}

// (action-bus (INDEX VALUE)...) where INDEX is either N or [LO HI]
func (r *reader) readActionBus(t *table.Table, list *sexp.List) {
	for _, term := range list.Elements[1:] {
		entry := term.AsList()
		if entry == nil || entry.Len() != 2 {
			r.errorf(term, "expected (index value)")
			continue
		}
		//
		var index actionbus.Index
		//
		if entry.Get(0).AsArray() != nil {
			lo, hi, ok := r.readRange(entry.Get(0))
			if !ok {
				continue
			}
			//
			index = actionbus.Bytes(lo, hi)
		} else if b, ok := r.readUint(entry.Get(0)); ok {
			index = actionbus.Byte(b)
		} else {
			continue
		}
		//
		t.Declarations = append(t.Declarations, actionbus.Declaration{
			Line:  r.line(term),
			Key:   index,
			Value: readValue(entry.Get(1)),
		})
	}
}

// (need VALUE byte|half|word...)
func (r *reader) readNeed(t *table.Table, list *sexp.List) {
	if list.Len() < 3 {
		r.errorf(list, "expected (need value size...)")
		return
	}
	//
	var size actionbus.SizeMask
	//
	for _, term := range list.Elements[2:] {
		switch term.String() {
		case "byte":
			size |= actionbus.BYTE_SLOT
		case "half":
			size |= actionbus.HALF_SLOT
		case "word":
			size |= actionbus.WORD_SLOT
		default:
			r.errorf(term, "unknown slot size %s", term)
		}
	}
	//
	t.Needs = append(t.Needs, table.Need{Line: r.line(list), Value: readValue(list.Get(1)), Size: size})
}

func (r *reader) readUint(term sexp.SExp) (uint, bool) {
	if v, ok := symbolUint(term); ok {
		return v, true
	}
	//
	r.errorf(term, "expected unsigned integer")
	//
	return 0, false
}

// [LO HI]
func (r *reader) readRange(term sexp.SExp) (uint, uint, bool) {
	arr := term.AsArray()
	if arr == nil || arr.Len() != 2 {
		r.errorf(term, "expected [lo hi]")
		return 0, 0, false
	}
	//
	lo, ok1 := r.readUint(arr.Get(0))
	hi, ok2 := r.readUint(arr.Get(1))
	//
	return lo, hi, ok1 && ok2
}

// Convert a term into a declaration value.  Integers and [lo hi] arrays become
// integer and range values, lists become commands and everything else is a
// string.
func readValue(term sexp.SExp) actionbus.Value {
	switch t := term.(type) {
	case *sexp.Symbol:
		if v, ok := t.Uint(); ok {
			return actionbus.Int(v)
		}
		//
		return actionbus.Str(t.Value)
	case *sexp.Array:
		if t.Len() == 2 {
			lo, ok1 := symbolUint(t.Get(0))
			hi, ok2 := symbolUint(t.Get(1))
			//
			if ok1 && ok2 {
				return actionbus.Range(lo, hi)
			}
		}
	case *sexp.List:
		if t.Head() != "" {
			args := make([]actionbus.Value, t.Len()-1)
			for i, e := range t.Elements[1:] {
				args[i] = readValue(e)
			}
			//
			return actionbus.Cmd(t.Head(), args...)
		}
	}
	//
	return actionbus.Str(term.String())
}

func symbolUint(term sexp.SExp) (uint, bool) {
	if s := term.AsSymbol(); s != nil {
		return s.Uint()
	}
	//
	return 0, false
}

func isKeyword(term sexp.SExp) bool {
	s := term.AsSymbol()
	return s != nil && s.IsKeyword()
}
