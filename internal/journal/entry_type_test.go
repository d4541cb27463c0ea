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

package journal

import (
	"testing"

	"github.com/cockroachdb/journal-sink/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperation(t *testing.T) {
	tcs := []struct {
		code     string
		expected types.Operation
		ok       bool
	}{
		{"PT", types.OpInsert, true},
		{"RR", types.OpInsert, true},
		{"PX", types.OpInsert, true},
		{"UP", types.OpUpdate, true},
		{"FI", types.OpUpdate, true},
		{"FP", types.OpUpdate, true},
		{"UR", types.OpUpsert, true},
		{"DL", types.OpDelete, true},
		{"DR", types.OpDelete, true},
		{" pt ", types.OpInsert, true},
		{"dl", types.OpDelete, true},
		{"Ur", types.OpUpsert, true},
		{"", 0, false},
		{"   ", 0, false},
		{"XX", 0, false},
		{"PTX", 0, false},
	}

	for _, tc := range tcs {
		t.Run(tc.code, func(t *testing.T) {
			a := assert.New(t)
			op, ok := Operation(tc.code)
			a.Equal(tc.ok, ok)
			a.Equal(tc.expected, op)
			a.Equal(tc.ok, IsValidEntryType(tc.code))
		})
	}
}

func TestEntryTypesIsCopy(t *testing.T) {
	r := require.New(t)

	codes := EntryTypes()
	r.Equal([]string{"DL", "DR", "FI", "FP", "PT", "PX", "RR", "UP", "UR"}, codes)

	codes[0] = "ZZ"
	r.Equal("DL", EntryTypes()[0])
	r.False(IsValidEntryType("ZZ"))
}
