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
package diag

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Severity distinguishes errors (which prevent code generation) from warnings
// (which do not).
type Severity uint8

const (
	// ERROR is a problem which prevents further processing.
	ERROR Severity = iota
	// WARNING is purely informational.
	WARNING
)

func (s Severity) String() string {
	if s == ERROR {
		return "error"
	}
	//
	return "warning"
}

// MarshalText implementation for encoding.TextMarshaler interface.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Diagnostic is a single message reported against a line of the input.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Line     int      `json:"line"`
	Msg      string   `json:"message"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%d: %s: %s", d.Line, d.Severity, d.Msg)
}

// Reporter accumulates diagnostics.  Processing is expected to continue after
// an error is reported, so that as many problems as possible are found in one
// run.  Callers check ErrorCount() before moving onto the next pass.
type Reporter struct {
	diagnostics []Diagnostic
	errors      uint
}

// NewReporter constructs an empty reporter.
func NewReporter() *Reporter {
	return &Reporter{}
}

// Errorf reports an error on a given line.
func (p *Reporter) Errorf(line int, format string, args ...any) {
	p.report(ERROR, line, fmt.Sprintf(format, args...))
	p.errors++
}

// Warnf reports a warning on a given line.
func (p *Reporter) Warnf(line int, format string, args ...any) {
	p.report(WARNING, line, fmt.Sprintf(format, args...))
}

// ErrorCount returns the number of errors reported so far.
func (p *Reporter) ErrorCount() uint {
	return p.errors
}

// Diagnostics returns all diagnostics reported so far, in the order they were
// reported.
func (p *Reporter) Diagnostics() []Diagnostic {
	return p.diagnostics
}

// Errors returns the messages of all errors reported so far.
func (p *Reporter) Errors() []string {
	return p.messages(ERROR)
}

// Warnings returns the messages of all warnings reported so far.
func (p *Reporter) Warnings() []string {
	return p.messages(WARNING)
}

func (p *Reporter) messages(severity Severity) []string {
	var msgs []string
	//
	for _, d := range p.diagnostics {
		if d.Severity == severity {
			msgs = append(msgs, d.Msg)
		}
	}
	//
	return msgs
}

func (p *Reporter) report(severity Severity, line int, msg string) {
	d := Diagnostic{severity, line, msg}
	log.Debug(d.String())
	p.diagnostics = append(p.diagnostics, d)
}
