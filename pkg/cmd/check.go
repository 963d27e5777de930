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
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] file1.abus file2.abus ...",
	Short: "check the action bus declarations of one or more stage files.",
	Long: `Check the action bus declarations of every table in the given stage
	description files can be allocated, without generating registers.`,
	Run: func(cmd *cobra.Command, args []string) {
		configureLogging(cmd)
		//
		if len(args) == 0 {
			fmt.Println(cmd.UsageString())
			os.Exit(1)
		}
		//
		var (
			werror   = GetFlag(cmd, "werror")
			failed   = false
			programs = ReadStageFiles(args, defaultTarget(cmd))
		)
		//
		for i, prog := range programs {
			ok := asm.Allocate(prog, false)
			printDiagnostics(os.Stdout, args[i], prog.Diag)
			//
			if !ok || (werror && len(prog.Diag.Warnings()) > 0) {
				failed = true
			}
		}
		//
		if failed {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().Bool("werror", false, "treat warnings as errors")
}
