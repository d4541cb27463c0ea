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

package start

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlags(t *testing.T) {
	a := assert.New(t)
	r := require.New(t)

	cmd := Command()
	f := cmd.Flags()
	for _, name := range []string{
		"autoCreate",
		"autoEvolve",
		"batchSize",
		"broker",
		"flushInterval",
		"group",
		"maxRetries",
		"metricsAddr",
		"pkFields",
		"pkMode",
		"quarantineTable",
		"retryBackoff",
		"tableNameFormat",
		"defaultTimezone",
		"targetConn",
		"timestampColumn",
		"topic",
	} {
		a.NotNil(f.Lookup(name), name)
	}

	cmd.SetArgs([]string{"--targetConn", "sqlite::memory:"})
	r.ErrorContains(cmd.Execute(), "no group was configured")
}
