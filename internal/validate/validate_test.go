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

package validate

import (
	"testing"
	"time"

	"github.com/cockroachdb/journal-sink/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newValidator(t *testing.T, format, zone string) *Validator {
	t.Helper()
	v, err := New(&Config{TableNameFormat: format, Timezone: zone})
	require.NoError(t, err)
	return v
}

func headers(kv ...any) []types.Header {
	ret := make([]types.Header, 0, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		ret = append(ret, types.Header{Key: kv[i].(string), Value: kv[i+1]})
	}
	return ret
}

func TestValidate(t *testing.T) {
	value := (&types.Struct{}).Put("ID", int64(1)).Put("NAME", "a")
	key := (&types.Struct{}).Put("ID", int64(1))

	tcs := []struct {
		name   string
		ev     *types.Event
		table  string
		op     types.Operation
		reason string // Set if a rejection is expected.
	}{
		{
			name: "insert",
			ev: &types.Event{
				Topic:   "t",
				Value:   value,
				Headers: headers("TableName", "ORDERS", "A_ENTTYP", "PT"),
			},
			table: "ORDERS",
			op:    types.OpInsert,
		},
		{
			name: "byte headers",
			ev: &types.Event{
				Topic:   "t",
				Value:   value,
				Headers: headers("TableName", []byte("ORDERS"), "A_ENTTYP", []byte("up")),
			},
			table: "ORDERS",
			op:    types.OpUpdate,
		},
		{
			name: "last header wins",
			ev: &types.Event{
				Value:   value,
				Headers: headers("TableName", "A", "A_ENTTYP", "PT", "TableName", "B"),
			},
			table: "B",
			op:    types.OpInsert,
		},
		{
			name: "delete with key and no value",
			ev: &types.Event{
				Key:     key,
				Headers: headers("TableName", "ORDERS", "A_ENTTYP", "DL"),
			},
			table: "ORDERS",
			op:    types.OpDelete,
		},
		{
			name: "upsert",
			ev: &types.Event{
				Value:   value,
				Headers: headers("TableName", "ORDERS", "A_ENTTYP", "UR"),
			},
			table: "ORDERS",
			op:    types.OpUpsert,
		},
		{
			name:   "no headers",
			ev:     &types.Event{Value: value},
			reason: "Missing header: TableName. Missing header: A_ENTTYP.",
		},
		{
			name: "missing entry type",
			ev: &types.Event{
				Key:     key,
				Value:   value,
				Headers: headers("TableName", "ORDERS"),
			},
			reason: "Missing header: A_ENTTYP.",
		},
		{
			name: "blank table name",
			ev: &types.Event{
				Value:   value,
				Headers: headers("TableName", "  ", "A_ENTTYP", "PT"),
			},
			reason: "Missing header: TableName.",
		},
		{
			name: "nil header value",
			ev: &types.Event{
				Value:   value,
				Headers: headers("TableName", "ORDERS", "A_ENTTYP", nil),
			},
			reason: "Missing header: A_ENTTYP.",
		},
		{
			name: "unknown code",
			ev: &types.Event{
				Value:   value,
				Headers: headers("TableName", "ORDERS", "A_ENTTYP", "XX"),
			},
			reason: `Unrecognized A_ENTTYP code: "XX"`,
		},
		{
			name: "delete without key",
			ev: &types.Event{
				Value:   value,
				Headers: headers("TableName", "ORDERS", "A_ENTTYP", "DR"),
			},
			reason: "DELETE operation requires a record key",
		},
		{
			name: "insert without value",
			ev: &types.Event{
				Key:     key,
				Headers: headers("TableName", "ORDERS", "A_ENTTYP", "PT"),
			},
			reason: "INSERT operation requires a non-null value",
		},
		{
			name: "update without value",
			ev: &types.Event{
				Key:     key,
				Headers: headers("TableName", "ORDERS", "A_ENTTYP", "FP"),
			},
			reason: "UPDATE operation requires a non-null value",
		},
		{
			name: "upsert without value",
			ev: &types.Event{
				Key:     key,
				Headers: headers("TableName", "ORDERS", "A_ENTTYP", "UR"),
			},
			reason: "UPSERT operation requires a non-null value",
		},
	}

	v := newValidator(t, "", "")
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			r := require.New(t)
			out := v.Validate(tc.ev)
			if tc.reason != "" {
				r.Nil(out.Record)
				r.NotNil(out.Rejected)
				r.Equal(tc.reason, out.Rejected.Reason)
				r.Same(tc.ev, out.Rejected.Event)
				return
			}
			r.Nil(out.Rejected)
			r.NotNil(out.Record)
			r.Equal(tc.table, out.Record.Table)
			r.Equal(tc.op, out.Record.Op)
			r.Same(tc.ev, out.Record.Source)
			r.True(out.Record.Timestamp.IsZero())
		})
	}
}

func TestValidateTimestamp(t *testing.T) {
	a := assert.New(t)
	v := newValidator(t, "", "+08:00")

	ev := &types.Event{
		Value: map[string]any{"ID": 1},
		Headers: headers(
			"TableName", "ORDERS",
			"A_ENTTYP", "PT",
			"A_TIMSTAMP", "2025-01-22 11:17:14.000000000000"),
	}
	out := v.Validate(ev)
	a.NotNil(out.Record)
	a.True(time.Date(2025, 1, 22, 3, 17, 14, 0, time.UTC).Equal(out.Record.Timestamp))

	// An unparseable timestamp is not a rejection.
	ev.Headers = headers("TableName", "ORDERS", "A_ENTTYP", "PT", "A_TIMSTAMP", "yesterday")
	out = v.Validate(ev)
	a.NotNil(out.Record)
	a.True(out.Record.Timestamp.IsZero())
}

func TestTableTemplate(t *testing.T) {
	tcs := []struct {
		format   string
		table    string
		topic    string
		expected string
	}{
		{"${TableName}", "ORDERS", "topic", "ORDERS"},
		{"${topic}", "ORDERS", "topic", "topic"},
		{"stage_${TableName}", "ORDERS", "topic", "stage_ORDERS"},
		{"${topic}_${TableName}", "ORDERS", "cdc", "cdc_ORDERS"},
		{"${topic}_${TableName}", "ORDERS", "", "_ORDERS"},
		{"fixed", "ORDERS", "topic", "fixed"},
		{"${TableName}", "${topic}", "topic", "${topic}"},
	}

	for _, tc := range tcs {
		t.Run(tc.format, func(t *testing.T) {
			a := assert.New(t)
			a.Equal(tc.expected, ResolveTable(tc.format, tc.table, tc.topic))

			v := newValidator(t, tc.format, "")
			out := v.Validate(&types.Event{
				Topic:   tc.topic,
				Value:   map[string]any{"ID": 1},
				Headers: headers("TableName", tc.table, "A_ENTTYP", "PT"),
			})
			if a.NotNil(out.Record) {
				a.Equal(tc.expected, out.Record.Table)
			}
		})
	}
}

func TestEmptyResolvedTable(t *testing.T) {
	r := require.New(t)
	v := newValidator(t, "${topic}", "")

	out := v.Validate(&types.Event{
		Value:   map[string]any{"ID": 1},
		Headers: headers("TableName", "ORDERS", "A_ENTTYP", "PT"),
	})
	r.NotNil(out.Rejected)
	r.Equal("Resolved target table name is empty", out.Rejected.Reason)
}

func TestPanicBecomesRejection(t *testing.T) {
	r := require.New(t)
	v := newValidator(t, "", "")
	v.resolveTable = func(string, string, string) string { panic("boom") }

	ev := &types.Event{
		Value:   map[string]any{"ID": 1},
		Headers: headers("TableName", "ORDERS", "A_ENTTYP", "PT"),
	}
	out := v.Validate(ev)
	r.Nil(out.Record)
	r.NotNil(out.Rejected)
	r.Equal("Processing error: boom", out.Rejected.Reason)
	r.Same(ev, out.Rejected.Event)

	out = v.Validate(nil)
	r.NotNil(out.Rejected)
}

func TestConfigPreflight(t *testing.T) {
	a := assert.New(t)

	cfg := &Config{}
	a.NoError(cfg.Preflight())
	a.Equal(DefaultTableNameFormat, cfg.TableNameFormat)
	a.Equal(DefaultTimezone, cfg.Timezone)

	cfg = &Config{TableNameFormat: "   "}
	a.ErrorContains(cfg.Preflight(), "tableNameFormat")

	// A bad zone is not fatal; timestamps are interpreted as UTC.
	v := newValidator(t, "", "+99:00")
	out := v.Validate(&types.Event{
		Value: map[string]any{"ID": 1},
		Headers: headers("TableName", "ORDERS", "A_ENTTYP", "PT",
			"A_TIMSTAMP", "2025-01-22 11:17:14"),
	})
	if a.NotNil(out.Record) {
		a.True(time.Date(2025, 1, 22, 11, 17, 14, 0, time.UTC).Equal(out.Record.Timestamp))
	}
}
