// Copyright 2026 The Cockroach Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

// Package journal interprets the journal metadata that accompanies each
// change event: the A_ENTTYP entry-type code and the A_TIMSTAMP source
// timestamp.
package journal

import (
	"sort"
	"strings"

	"github.com/cockroachdb/journal-sink/internal/types"
)

// entryTypes maps journal entry-type codes to CDC operations. It must
// not be modified after package initialization.
var entryTypes = map[string]types.Operation{
	"PT": types.OpInsert,
	"RR": types.OpInsert,
	"PX": types.OpInsert,

	"UP": types.OpUpdate,
	"FI": types.OpUpdate,
	"FP": types.OpUpdate,

	// UR may describe either an insert or an update.
	"UR": types.OpUpsert,

	"DL": types.OpDelete,
	"DR": types.OpDelete,
}

// Operation returns the CDC operation for a journal entry-type code.
// Codes are matched case-insensitively after trimming whitespace. The
// boolean will be false for blank or unrecognized codes.
func Operation(code string) (types.Operation, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return 0, false
	}
	op, ok := entryTypes[code]
	return op, ok
}

// IsValidEntryType returns true if the code maps to an operation.
func IsValidEntryType(code string) bool {
	_, ok := Operation(code)
	return ok
}

// EntryTypes returns a sorted copy of the recognized codes.
func EntryTypes() []string {
	ret := make([]string, 0, len(entryTypes))
	for code := range entryTypes {
		ret = append(ret, code)
	}
	sort.Strings(ret)
	return ret
}
