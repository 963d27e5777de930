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
package table

import (
	"fmt"

	"github.com/consensys/go-actionbus/pkg/mau/format"
)

type alias struct {
	field  *format.Field
	offset uint
}

// Action of a table, which may give local names to (parts of) format fields.
type Action struct {
	name    string
	aliases map[string]alias
}

// Name implementation for actionbus.Action interface.
func (a *Action) Name() string {
	return a.name
}

// Alias implementation for actionbus.Action interface.
func (a *Action) Alias(name string) (*format.Field, uint, bool) {
	if al, ok := a.aliases[name]; ok {
		return al.field, al.offset, true
	}
	//
	return nil, 0, false
}

// AddAlias gives a local name to the bits of a field from a given offset.
func (a *Action) AddAlias(name string, field *format.Field, offset uint) error {
	if _, ok := a.aliases[name]; ok {
		return fmt.Errorf("duplicate alias %s in action %s", name, a.name)
	} else if offset >= field.Size {
		return fmt.Errorf("alias %s offset %d out of range for field %s", name, offset, field.Name)
	}
	//
	a.aliases[name] = alias{field, offset}
	//
	return nil
}
