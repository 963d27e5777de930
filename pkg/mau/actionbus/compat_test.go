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
	"testing"

	"github.com/consensys/go-actionbus/pkg/mau/format"
	"github.com/consensys/go-actionbus/pkg/mau/hw"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Compatible_Fields(t *testing.T) {
	f := format.New(0)
	f.AddGroup()
	f.AddGroup()
	x0, err := f.Add(0, "x", format.Bitrange{Lo: 0, Hi: 7})
	require.NoError(t, err)
	x1, err := f.Add(1, "x", format.Bitrange{Lo: 64, Hi: 71})
	require.NoError(t, err)
	y, err := f.Add(0, "y", format.Bitrange{Lo: 0, Hi: 3})
	require.NoError(t, err)
	z, err := f.Add(0, "z", format.Bitrange{Lo: 8, Hi: 15})
	require.NoError(t, err)
	//
	tests := []struct {
		a, b Entry
		ok   bool
	}{
		// Same field in parallel groups
		{Entry{FieldSource(x0), 0}, Entry{FieldSource(x1), 0}, true},
		{Entry{FieldSource(x0), 0}, Entry{FieldSource(x1), 4}, false},
		// Same physical bit
		{Entry{FieldSource(x0), 0}, Entry{FieldSource(y), 0}, true},
		{Entry{FieldSource(x0), 0}, Entry{FieldSource(z), 0}, false},
	}
	//
	for _, tt := range tests {
		assert.Equal(t, tt.ok, Compatible(tt.a, tt.b), "%s ~ %s", tt.a, tt.b)
		assert.Equal(t, tt.ok, Compatible(tt.b, tt.a), "%s ~ %s", tt.b, tt.a)
	}
}

func Test_Compatible_HashDist(t *testing.T) {
	lo, hi, other := hw.NewHashDist(0, 3), hw.NewHashDist(0, 4), hw.NewHashDist(1, 3)
	pair := HashDistPairSource(lo, hi)
	//
	tests := []struct {
		a, b Entry
		ok   bool
	}{
		{Entry{HashDistSource(lo), 0}, Entry{pair, 0}, true},
		{Entry{HashDistSource(hi), 16}, Entry{pair, 0}, true},
		{Entry{HashDistSource(hi), 0}, Entry{pair, 0}, false},
		{Entry{HashDistHighSource(hi), 0}, Entry{pair, 0}, true},
		{Entry{HashDistHighSource(lo), 0}, Entry{HashDistSource(lo), 0}, false},
		{Entry{HashDistHighSource(lo), 0}, Entry{HashDistSource(lo), 16}, true},
		{Entry{HashDistSource(lo), 0}, Entry{HashDistPairSource(lo, lo), 0}, true},
		{Entry{HashDistSource(lo), 0}, Entry{HashDistSource(hw.NewHashDist(0, 3)), 0}, true},
		{Entry{HashDistSource(lo), 0}, Entry{HashDistSource(other), 0}, false},
		{Entry{HashDistSource(lo), 0}, Entry{HashDistSource(lo), 8}, false},
		{Entry{pair, 0}, Entry{HashDistPairSource(lo, other), 0}, false},
	}
	//
	for _, tt := range tests {
		assert.Equal(t, tt.ok, Compatible(tt.a, tt.b), "%s ~ %s", tt.a, tt.b)
		assert.Equal(t, tt.ok, Compatible(tt.b, tt.a), "%s ~ %s", tt.b, tt.a)
	}
}

func Test_Compatible_Other(t *testing.T) {
	stage := newTestStage()
	a := newTestTable(t, stage, "a", METER)
	b := newTestTable(t, stage, "b", METER)
	//
	assert.True(t, Compatible(Entry{TableOutputSource(a), 0}, Entry{TableOutputSource(a), 8}))
	assert.False(t, Compatible(Entry{TableOutputSource(a), 0}, Entry{TableOutputSource(b), 0}))
	assert.True(t, Compatible(Entry{RandomSource(1), 0}, Entry{RandomSource(1), 0}))
	assert.False(t, Compatible(Entry{RandomSource(1), 0}, Entry{RandomSource(2), 0}))
	assert.False(t, Compatible(Entry{TableColorSource(a), 0}, Entry{TableOutputSource(a), 0}))
	assert.False(t, Compatible(Entry{XcmpSource(0, 1), 0}, Entry{XcmpSource(0, 2), 0}))
}
