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
package format

import (
	"fmt"
	"slices"
)

// Format describes the layout of a table entry.  A format consists of one or
// more parallel groups (e.g. several entries packed into one RAM word), each of
// which holds the same set of fields at different positions.
type Format struct {
	id     uint
	immed  uint
	groups []group
}

type group struct {
	fields []*Field
	byName map[string]*Field
}

// New constructs an empty format with a given identifier.  Identifiers are
// used only to give fields a stable order, and should be unique amongst the
// formats in use.
func New(id uint) *Format {
	return &Format{id, 0, nil}
}

// ID returns the identifier of this format.
func (p *Format) ID() uint {
	return p.id
}

// SetImmediate records the bit where immediate data begins in this format.
func (p *Format) SetImmediate(bit uint) {
	p.immed = bit
}

// Immediate returns the bit where immediate data begins in this format.
func (p *Format) Immediate() uint {
	return p.immed
}

// Groups returns the number of parallel groups in this format.
func (p *Format) Groups() uint {
	return uint(len(p.groups))
}

// AddGroup appends a new (empty) group to this format, returning its index.
func (p *Format) AddGroup() uint {
	p.groups = append(p.groups, group{nil, make(map[string]*Field)})
	return uint(len(p.groups) - 1)
}

// Add a field to a given group of this format.  An error is returned if the
// group already has a field of the same name, or the bit ranges given are
// invalid.
func (p *Format) Add(grp uint, name string, bits ...Bitrange) (*Field, error) {
	if grp >= uint(len(p.groups)) {
		return nil, fmt.Errorf("invalid format group %d", grp)
	} else if len(bits) == 0 {
		return nil, fmt.Errorf("field %s has no bits", name)
	} else if _, ok := p.groups[grp].byName[name]; ok {
		return nil, fmt.Errorf("duplicate field %s", name)
	}
	//
	size := uint(0)
	//
	for _, r := range bits {
		if r.Lo > r.Hi {
			return nil, fmt.Errorf("invalid bit range %s for field %s", r, name)
		}
		//
		size += r.Size()
	}
	//
	g := &p.groups[grp]
	field := &Field{name, size, slices.Clone(bits), 0, p, grp, uint(len(g.fields))}
	g.fields = append(g.fields, field)
	g.byName[name] = field
	//
	return field, nil
}

// Field returns the field of a given name in the first group of this format,
// or nil if no such field exists.
func (p *Format) Field(name string) *Field {
	if len(p.groups) == 0 {
		return nil
	}
	//
	return p.groups[0].byName[name]
}

// FieldIn returns the field of a given name in a given group, or nil if no such
// field exists.
func (p *Format) FieldIn(grp uint, name string) *Field {
	if grp >= uint(len(p.groups)) {
		return nil
	}
	//
	return p.groups[grp].byName[name]
}

// Fields returns the fields of a given group, in the order they were added.
func (p *Format) Fields(grp uint) []*Field {
	return p.groups[grp].fields
}

// Width returns the number of bits spanned by this format (i.e. one more than
// the highest bit used by any field).
func (p *Format) Width() uint {
	width := uint(0)
	//
	for _, g := range p.groups {
		for _, f := range g.fields {
			width = max(width, f.Hi()+1)
		}
	}
	//
	return width
}
