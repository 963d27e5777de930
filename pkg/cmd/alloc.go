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
	"os"

	"github.com/consensys/go-actionbus/pkg/mau/asm"
	"github.com/consensys/go-actionbus/pkg/util/termio"
	"github.com/spf13/cobra"
	"github.com/sugawarayuuta/sonnet"
)

var allocCmd = &cobra.Command{
	Use:   "alloc [flags] file1.abus file2.abus ...",
	Short: "allocate the action bus of every table in one or more stage files.",
	Long: `Allocate the action bus of every table in the given stage description
	files, reporting any errors or warnings.  The final allocation and the
	generated crossbar registers can optionally be printed.`,
	Run: func(cmd *cobra.Command, args []string) {
		configureLogging(cmd)
		//
		if len(args) == 0 {
			fmt.Println(cmd.UsageString())
			os.Exit(1)
		}
		//
		var (
			slots    = GetFlag(cmd, "slots")
			regs     = GetFlag(cmd, "regs")
			json     = GetFlag(cmd, "json")
			ok       = true
			programs = ReadStageFiles(args, defaultTarget(cmd))
			reports  = make([]Report, len(programs))
		)
		//
		for i, prog := range programs {
			ok = asm.Allocate(prog, regs || json) && ok
			reports[i] = NewReport(args[i], prog)
		}
		//
		if json {
			bytes, err := sonnet.Marshal(reports)
			if err != nil {
				fmt.Println(err)
				os.Exit(2)
			}
			//
			fmt.Println(string(bytes))
		} else {
			for i, report := range reports {
				printDiagnostics(os.Stdout, report.File, programs[i].Diag)
				//
				if slots {
					printSlots(os.Stdout, report, termio.IsTerminal(), termio.Width(120))
				}
				//
				if regs {
					printRegisters(os.Stdout, report)
				}
			}
		}
		//
		if !ok {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(allocCmd)
	allocCmd.Flags().Bool("slots", false, "print the action bus slots of every table")
	allocCmd.Flags().Bool("regs", false, "generate (and print) crossbar registers")
	allocCmd.Flags().Bool("json", false, "print allocation and registers as json")
}
