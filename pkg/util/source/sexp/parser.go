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
package sexp

import (
	"unicode"

	"github.com/consensys/go-actionbus/pkg/util/source"
)

// ParseAll converts a given file into zero or more S-expressions, or returns
// an error if the file is malformed.  A source map is also returned, so that
// later errors can be reported against the original text.
func ParseAll(s *source.File) ([]SExp, *source.Map[SExp], *source.SyntaxError) {
	p := NewParser(s)
	//
	terms := make([]SExp, 0)
	//
	for {
		term, err := p.Parse()
		//
		if err != nil {
			return terms, p.srcmap, err
		} else if term == nil {
			// EOF reached
			return terms, p.srcmap, nil
		}
		//
		terms = append(terms, term)
	}
}

// Parser represents a parser in the process of parsing a given file into one
// or more S-expressions.
type Parser struct {
	// Source file being parsed
	srcfile *source.File
	// Cache (for simplicity)
	text []rune
	// Determine current position within text
	index int
	// Mapping from constructed S-Expressions to their spans in the original text.
	srcmap *source.Map[SExp]
}

// NewParser constructs a new instance of Parser
func NewParser(srcfile *source.File) *Parser {
	return &Parser{
		srcfile: srcfile,
		text:    srcfile.Contents(),
		index:   0,
		srcmap:  source.NewSourceMap[SExp](*srcfile),
	}
}

// SourceMap returns the internal source map constructing during parsing.
func (p *Parser) SourceMap() *source.Map[SExp] {
	return p.srcmap
}

// Parse the next S-Expression, or produce an error.  Returns nil at the end of
// the input.
func (p *Parser) Parse() (SExp, *source.SyntaxError) {
	var term SExp
	// Skip over any whitespace, so that the span of this term starts at its
	// first character.
	p.skipWhiteSpace()
	//
	start := p.index
	token := p.next()
	//
	switch {
	case token == nil:
		return nil, nil
	case isClose(token):
		p.index--
		return nil, p.error("unexpected " + string(token))
	case len(token) == 1 && token[0] == '(':
		elements, err := p.parseSequence(')')
		if err != nil {
			return nil, err
		}
		//
		term = &List{elements}
	case len(token) == 1 && token[0] == '[':
		elements, err := p.parseSequence(']')
		if err != nil {
			return nil, err
		}
		//
		term = &Array{elements}
	default:
		term = &Symbol{string(token)}
	}
	// Register item in source map
	p.srcmap.Put(term, source.NewSpan(start, p.index))
	//
	return term, nil
}

// Extract the next token.
func (p *Parser) next() []rune {
	p.skipWhiteSpace()
	// Catch end-of-file
	if p.index == len(p.text) {
		return nil
	}
	//
	if isBrace(p.text[p.index]) {
		p.index++
		return p.text[p.index-1 : p.index]
	}
	//
	start := p.index
	//
	for p.index < len(p.text) && !isBrace(p.text[p.index]) && !unicode.IsSpace(p.text[p.index]) &&
		p.text[p.index] != ';' {
		p.index++
	}
	//
	return p.text[start:p.index]
}

// Skip over any whitespace, including comments.
func (p *Parser) skipWhiteSpace() {
	for p.index < len(p.text) {
		switch {
		case p.text[p.index] == ';':
			for p.index < len(p.text) && p.text[p.index] != '\n' {
				p.index++
			}
		case unicode.IsSpace(p.text[p.index]):
			p.index++
		default:
			return
		}
	}
}

func (p *Parser) parseSequence(terminator rune) ([]SExp, *source.SyntaxError) {
	var elements []SExp
	//
	for {
		p.skipWhiteSpace()
		//
		if p.index == len(p.text) {
			return nil, p.error("unexpected end-of-file")
		} else if p.text[p.index] == terminator {
			p.index++
			return elements, nil
		}
		//
		element, err := p.Parse()
		if err != nil {
			return nil, err
		}
		//
		elements = append(elements, element)
	}
}

// Construct a parser error at the current position in the input stream.
func (p *Parser) error(msg string) *source.SyntaxError {
	span := source.NewSpan(p.index, min(p.index+1, len(p.text)))
	return p.srcfile.SyntaxError(span, msg)
}

func isBrace(r rune) bool {
	return r == '(' || r == ')' || r == '[' || r == ']'
}

func isClose(token []rune) bool {
	return len(token) == 1 && (token[0] == ')' || token[0] == ']')
}
