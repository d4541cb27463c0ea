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

package quarantine

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/journal-sink/internal/sinktest"
	"github.com/cockroachdb/journal-sink/internal/sinktest/recorder"
	"github.com/cockroachdb/journal-sink/internal/target/dialect"
	"github.com/cockroachdb/journal-sink/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerialize(t *testing.T) {
	tcs := []struct {
		name     string
		value    any
		expected any
		wantErr  bool
	}{
		{name: "nil", value: nil, expected: nil},
		{name: "nil struct", value: (*types.Struct)(nil), expected: nil},
		{
			name:     "struct keeps order",
			value:    (&types.Struct{}).Put("z", int64(1)).Put("a", "x"),
			expected: `{"z":1,"a":"x"}`,
		},
		{
			name:     "map is sorted",
			value:    map[string]any{"b": true, "a": nil, "c": 2.5},
			expected: `{"a":null,"b":true,"c":2.5}`,
		},
		{
			name:     "escaping",
			value:    map[string]any{"s": "quote\" slash\\ nl\n cr\r tab\t ctl\x01"},
			expected: `{"s":"quote\" slash\\ nl\n cr\r tab\t ctl\u0001"}`,
		},
		{
			name: "nested",
			value: (&types.Struct{}).
				Put("inner", map[string]any{"k": "v"}).
				Put("list", []any{int64(1), "two", nil}),
			expected: `{"inner":{"k":"v"},"list":[1,"two",null]}`,
		},
		{
			name:     "other values are quoted",
			value:    map[string]any{"at": time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
			expected: `{"at":"2024-01-02T03:04:05Z"}`,
		},
		{name: "bytes", value: []byte("raw text"), expected: "raw text"},
		{name: "string", value: `not "quoted"`, expected: `not "quoted"`},
		{name: "int", value: int64(42), expected: "42"},
		{name: "float", value: 0.25, expected: "0.25"},
		{name: "bool", value: false, expected: "false"},
		{name: "NaN", value: math.NaN(), wantErr: true},
		{name: "nested Inf", value: map[string]any{"x": math.Inf(1)}, wantErr: true},
		{name: "deep float32 Inf", value: []any{float32(math.Inf(-1))}, wantErr: true},
		{name: "array", value: []any{"a", int64(1)}, expected: `["a",1]`},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			r := require.New(t)
			s, err := Serialize(tc.value)
			if tc.wantErr {
				r.Error(err)
				return
			}
			r.NoError(err)
			r.Equal(tc.expected, s)
		})
	}
}

func TestSerializeHeaders(t *testing.T) {
	a := assert.New(t)
	a.Equal("{}", SerializeHeaders(nil))
	a.Equal(`{"TableName":"orders","A_ENTTYP":"PT","empty":null}`, SerializeHeaders([]types.Header{
		{Key: "TableName", Value: []byte("customers")},
		{Key: "A_ENTTYP", Value: "PT"},
		{Key: "empty", Value: nil},
		{Key: "TableName", Value: "orders"},
	}))
}

func TestTruncate(t *testing.T) {
	a := assert.New(t)
	a.Equal("short", Truncate("short", 1000))

	exact := strings.Repeat("x", 1000)
	a.Equal(exact, Truncate(exact, 1000))

	long := strings.Repeat("y", 1001)
	truncated := Truncate(long, 1000)
	a.Len(truncated, 1000)
	a.True(strings.HasSuffix(truncated, "yyy..."))

	a.Equal("日本...", Truncate("日本語のテキスト", 5))
}

func TestConfigPreflight(t *testing.T) {
	r := require.New(t)

	cfg := &Config{}
	r.NoError(cfg.Preflight())
	r.Equal(DefaultTable, cfg.Table)

	cfg = &Config{Table: " errors "}
	r.NoError(cfg.Preflight())
	r.Equal("errors", cfg.Table)

	cfg = &Config{Table: "bad; DROP TABLE x"}
	r.Error(cfg.Preflight())
}

func TestEnsureAndWrite(t *testing.T) {
	r := require.New(t)
	a := assert.New(t)
	ctx, pool := sinktest.OpenSQLite(t)

	cfg := &Config{AutoCreate: true}
	r.NoError(cfg.Preflight())
	s := New(cfg, dialect.ForProduct(types.ProductSQLite))
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	r.NoError(s.Ensure(ctx, pool))
	// Idempotent.
	r.NoError(s.Ensure(ctx, pool))

	tx, err := pool.BeginTx(ctx, nil)
	r.NoError(err)
	defer func() { _ = tx.Rollback() }()
	rec := &recorder.Recorder{Next: tx}

	r.NoError(s.Write(ctx, rec, []*types.Rejected{
		{
			Event: &types.Event{
				Topic:     "journal",
				Partition: 3,
				Offset:    17,
				Key:       (&types.Struct{}).Put("id", int64(1)),
				Value:     map[string]any{"name": "bad\nrow"},
				Headers: []types.Header{
					{Key: "TableName", Value: "orders"},
					{Key: "A_ENTTYP", Value: "ZZ"},
				},
			},
			Reason: "Unknown entry type: ZZ",
		},
		{
			Event:  &types.Event{Topic: "journal", Offset: 18, Value: math.NaN()},
			Reason: "dropped",
		},
		{
			Event:  &types.Event{Topic: "journal", Offset: 19},
			Reason: strings.Repeat("r", 1500),
		},
	}))
	a.Equal([]string{
		"INSERT INTO streaming_corrupt_events (topic, kafka_partition, kafka_offset, record_key, " +
			"record_value, headers, error_reason, table_name, entry_type, created_at) " +
			"VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
	}, rec.Statements("Prepare"))

	rows, err := sinktest.Rows(ctx, tx,
		"SELECT topic, kafka_partition, kafka_offset, record_key, record_value, headers, "+
			"error_reason, table_name, entry_type FROM streaming_corrupt_events ORDER BY kafka_offset")
	r.NoError(err)
	r.Len(rows, 2)

	a.Equal([]any{
		"journal", "3", "17",
		`{"id":1}`, `{"name":"bad\nrow"}`,
		`{"TableName":"orders","A_ENTTYP":"ZZ"}`,
		"Unknown entry type: ZZ", "orders", "ZZ",
	}, rows[0])

	a.Equal([]any{
		"journal", "0", "19",
		nil, nil,
		"{}",
		strings.Repeat("r", 997) + "...", nil, nil,
	}, rows[1])
}

func TestEnsureDisabled(t *testing.T) {
	r := require.New(t)
	ctx, pool := sinktest.OpenSQLite(t)

	cfg := &Config{}
	r.NoError(cfg.Preflight())
	rec := &recorder.Recorder{Next: pool}
	r.NoError(New(cfg, dialect.ForProduct(types.ProductSQLite)).Ensure(ctx, rec))
	r.Empty(rec.Calls())
}

func TestWriteEmpty(t *testing.T) {
	r := require.New(t)
	ctx, pool := sinktest.OpenSQLite(t)

	cfg := &Config{}
	r.NoError(cfg.Preflight())
	rec := &recorder.Recorder{Next: pool}
	r.NoError(New(cfg, dialect.ForProduct(types.ProductSQLite)).Write(ctx, rec, nil))
	r.Empty(rec.Calls())
}
