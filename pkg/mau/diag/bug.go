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

import "fmt"

// BugError signals an internal inconsistency in the allocator, as opposed to a
// problem with its input.  These are raised as panics.
type BugError struct {
	Msg string
}

func (e *BugError) Error() string {
	return fmt.Sprintf("internal error: %s", e.Msg)
}

// Bug panics with a BugError carrying the given message.
func Bug(format string, args ...any) {
	panic(&BugError{fmt.Sprintf(format, args...)})
}

// BugCheck panics with a BugError carrying the given message when the given
// condition does not hold.
func BugCheck(cond bool, format string, args ...any) {
	if !cond {
		Bug(format, args...)
	}
}
