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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Field_Bit(t *testing.T) {
	fmt := New(0)
	fmt.AddGroup()
	f, err := fmt.Add(0, "split", Bitrange{4, 7}, Bitrange{16, 19})
	require.NoError(t, err)
	//
	assert.Equal(t, uint(8), f.Size)
	assert.Equal(t, uint(4), f.Bit(0))
	assert.Equal(t, uint(7), f.Bit(3))
	assert.Equal(t, uint(16), f.Bit(4))
	assert.Equal(t, uint(19), f.Bit(7))
	assert.Panics(t, func() { f.Bit(8) })
}

func Test_Field_ImmedBit(t *testing.T) {
	fmt := New(0)
	fmt.AddGroup()
	fmt.SetImmediate(32)
	f, err := fmt.Add(0, "imm", Bitrange{40, 47})
	require.NoError(t, err)
	//
	assert.Equal(t, uint(40), f.Bit(0))
	assert.True(t, f.IsImmediate())
	//
	bit, ok := f.ImmedBit(0)
	assert.True(t, ok)
	assert.Equal(t, uint(8), bit)
	bit, ok = f.ImmedBit(7)
	assert.True(t, ok)
	assert.Equal(t, uint(15), bit)
}

func Test_Field_BelowImmediate(t *testing.T) {
	fmt := New(0)
	fmt.AddGroup()
	fmt.SetImmediate(16)
	f, err := fmt.Add(0, "f", Bitrange{0, 7})
	require.NoError(t, err)
	g, err := fmt.Add(0, "g", Bitrange{20, 23}, Bitrange{8, 11})
	require.NoError(t, err)
	//
	assert.False(t, f.IsImmediate())
	assert.False(t, g.IsImmediate())
	//
	_, ok := f.ImmedBit(0)
	assert.False(t, ok)
	// Only the bits below the immediate data are rejected
	bit, ok := g.ImmedBit(0)
	assert.True(t, ok)
	assert.Equal(t, uint(4), bit)
	_, ok = g.ImmedBit(4)
	assert.False(t, ok)
}

func Test_Field_ByGroup(t *testing.T) {
	fmt := New(3)
	fmt.AddGroup()
	fmt.AddGroup()
	a, _ := fmt.Add(0, "x", Bitrange{0, 7})
	b, _ := fmt.Add(1, "x", Bitrange{64, 71})
	c, _ := fmt.Add(1, "y", Bitrange{72, 79})
	//
	assert.Equal(t, []*Field{a, b}, a.ByGroup())
	assert.Equal(t, []*Field{c}, c.ByGroup())
	assert.True(t, a.SameGroupAs(b))
	assert.False(t, a.SameGroupAs(c))
	assert.Equal(t, -1, a.Key().Cmp(b.Key()))
	assert.Equal(t, uint(80), fmt.Width())
}

func Test_Format_Errors(t *testing.T) {
	fmt := New(0)
	_, err := fmt.Add(0, "x", Bitrange{0, 7})
	assert.Error(t, err)
	//
	fmt.AddGroup()
	_, err = fmt.Add(0, "x", Bitrange{7, 0})
	assert.Error(t, err)
	_, err = fmt.Add(0, "x", Bitrange{0, 7})
	assert.NoError(t, err)
	_, err = fmt.Add(0, "x", Bitrange{8, 15})
	assert.Error(t, err)
}
