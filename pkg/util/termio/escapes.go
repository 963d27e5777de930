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
package termio

import "fmt"

const (
	// TERM_BLACK represents black
	TERM_BLACK = uint(iota)
	// TERM_RED represents red
	TERM_RED
	// TERM_GREEN represents green
	TERM_GREEN
	// TERM_YELLOW represents yellow
	TERM_YELLOW
	// TERM_BLUE represents blue
	TERM_BLUE
	// TERM_MAGENTA represents magenta
	TERM_MAGENTA
	// TERM_CYAN represents cyan
	TERM_CYAN
	// TERM_WHITE represents white
	TERM_WHITE
)

// AnsiEscape represents an ANSI escape code used for formatting text in a
// terminal.  Escapes are built up from zero or more attributes, for example:
//
//	termio.BoldAnsiEscape().FgColour(termio.TERM_RED).Build()
type AnsiEscape struct {
	escape string
	count  uint
}

// NewAnsiEscape construct an empty escape
func NewAnsiEscape() AnsiEscape {
	return AnsiEscape{"\033", 0}
}

// ResetAnsiEscape constructs a reset term.
func ResetAnsiEscape() AnsiEscape {
	return AnsiEscape{"\033[0", 1}
}

// BoldAnsiEscape constructs a bold term.
func BoldAnsiEscape() AnsiEscape {
	return AnsiEscape{"\033[1", 1}
}

// FgColour sets the foreground colour
func (p AnsiEscape) FgColour(col uint) AnsiEscape {
	return p.attribute(30 + col)
}

// BgColour sets the background colour
func (p AnsiEscape) BgColour(col uint) AnsiEscape {
	return p.attribute(40 + col)
}

// Build constructs the final escape
func (p AnsiEscape) Build() string {
	if p.count == 0 {
		return ""
	}
	//
	return fmt.Sprintf("%sm", p.escape)
}

func (p AnsiEscape) attribute(code uint) AnsiEscape {
	if p.count > 0 {
		return AnsiEscape{fmt.Sprintf("%s;%d", p.escape, code), p.count + 1}
	}
	//
	return AnsiEscape{fmt.Sprintf("%s[%d", p.escape, code), 1}
}
