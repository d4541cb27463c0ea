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

package preflight

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPreflight(t *testing.T) {
	tcs := []struct {
		args    []string
		wantErr string
	}{
		{args: []string{}},
		{args: []string{"--targetConn", "sqlite:file:preflight?mode=memory&cache=shared"}},
		{args: []string{"--targetConn", "sqlite:file:preflight?mode=memory", "--targetWaitForStartup"}},
		{args: []string{"--targetConn", "sqlite:file:preflight?mode=memory", "--group=ignored"}},
		{
			args:    []string{"--targetConn", "oracle://localhost"},
			wantErr: "unable to connect to targetConn",
		},
	}
	for idx, tc := range tcs {
		t.Run(fmt.Sprint(idx), func(t *testing.T) {
			r := require.New(t)
			cmd := Command()
			cmd.SetArgs(tc.args)
			err := cmd.Execute()
			if tc.wantErr != "" {
				r.ErrorContains(err, tc.wantErr)
				return
			}
			r.NoError(err)
		})
	}
}
