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
package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/consensys/go-actionbus/pkg/mau/asm"
	"github.com/consensys/go-actionbus/pkg/mau/diag"
	"github.com/consensys/go-actionbus/pkg/mau/hw"
	"github.com/consensys/go-actionbus/pkg/util/source"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// GetFlag gets an expected flag, or panic if an error arises.
func GetFlag(cmd *cobra.Command, flag string) bool {
	r, err := cmd.Flags().GetBool(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	return r
}

// GetString gets an expected string, or panic if an error arises.
func GetString(cmd *cobra.Command, flag string) string {
	r, err := cmd.Flags().GetString(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	return r
}

// Configure the log level from the verbose flag.
func configureLogging(cmd *cobra.Command) {
	if GetFlag(cmd, "verbose") {
		log.SetLevel(log.DebugLevel)
	}
}

// Determine the default target selected on the command line (if any).
func defaultTarget(cmd *cobra.Command) *hw.Target {
	name := GetString(cmd, "target")
	//
	if name == "" {
		return nil
	} else if target := hw.GetTarget(name); target != nil {
		return target
	}
	//
	var names []string
	for _, t := range hw.TARGETS {
		names = append(names, t.Name)
	}
	//
	fmt.Printf("unknown target \"%s\" (expected one of %s)\n", name, strings.Join(names, ", "))
	os.Exit(2)
	// unreachable
	return nil
}

// ReadStageFiles reads a set of stage description files, printing any syntax
// errors found and exiting if there are any.  Programs are returned in the
// order of the given files.
func ReadStageFiles(filenames []string, target *hw.Target) []*asm.Program {
	var (
		errors   []source.SyntaxError
		programs = make([]*asm.Program, len(filenames))
	)
	//
	srcfiles, err := source.ReadFiles(filenames...)
	// Sanity check for errors
	if err != nil {
		fmt.Println(err)
		os.Exit(3)
	}
	//
	for i := range srcfiles {
		var errs []source.SyntaxError
		//
		log.Debug(fmt.Sprintf("reading stage file %s", srcfiles[i].Filename()))
		//
		programs[i], errs = asm.Read(&srcfiles[i], target)
		errors = append(errors, errs...)
	}
	// Check for errors
	if len(errors) != 0 {
		for _, err := range errors {
			printSyntaxError(os.Stdout, &err)
		}
		// Fail
		os.Exit(4)
	}
	//
	return programs
}

// Print a syntax error with appropriate highlighting.
func printSyntaxError(w io.Writer, err *source.SyntaxError) {
	span := err.Span()
	line := err.FirstEnclosingLine()
	lineOffset := span.Start() - line.Start()
	// Calculate length (ensures don't overflow line)
	length := max(1, min(line.Length()-lineOffset, span.Length()))
	// Print error + line number
	fmt.Fprintf(w, "%s:%d:%d-%d %s\n", err.SourceFile().Filename(),
		line.Number(), 1+lineOffset, 1+lineOffset+length, err.Message())
	// Print separator line
	fmt.Fprintln(w)
	// Print line
	fmt.Fprintln(w, line.String())
	// Print indent (todo: account for tabs)
	fmt.Fprint(w, strings.Repeat(" ", lineOffset))
	// Print highlight
	fmt.Fprintln(w, strings.Repeat("^", length))
}

// Print the diagnostics reported for a given file.
func printDiagnostics(w io.Writer, filename string, reporter *diag.Reporter) {
	for _, d := range reporter.Diagnostics() {
		fmt.Fprintf(w, "%s:%d: %s: %s\n", filename, d.Line, d.Severity, d.Msg)
	}
}
