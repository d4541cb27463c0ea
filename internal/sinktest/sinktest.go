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

// Package sinktest contains utility types for writing journal-sink
// tests against an embedded database.
package sinktest

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/cockroachdb/field-eng-powertools/stopper"
	"github.com/cockroachdb/journal-sink/internal/types"
	"github.com/cockroachdb/journal-sink/internal/util/stdpool"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

var dbCounter atomic.Int64

// OpenSQLite returns a stopper and an empty, private in-memory SQLite
// database. Both are cleaned up when the test ends.
func OpenSQLite(t testing.TB) (*stopper.Context, *types.TargetPool) {
	t.Helper()
	ctx := stopper.WithContext(context.Background())
	t.Cleanup(func() {
		ctx.Stop(0)
		_ = ctx.Wait()
	})

	name := fmt.Sprintf("sqlite:file:sinktest_%d?mode=memory&cache=shared", dbCounter.Add(1))
	pool, err := stdpool.OpenTarget(ctx, name)
	require.NoError(t, err)
	return ctx, pool
}

// Count returns the number of rows in the table.
func Count(ctx context.Context, db types.TargetQuerier, table string) (int, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("SELECT count(*) FROM %s", table))
	if err != nil {
		return 0, errors.WithStack(err)
	}
	defer func() { _ = rows.Close() }()
	var ret int
	if rows.Next() {
		if err := rows.Scan(&ret); err != nil {
			return 0, errors.WithStack(err)
		}
	}
	return ret, errors.WithStack(rows.Err())
}

// Rows returns the stringified contents of the query's result set.
// NULL values are returned as nil.
func Rows(
	ctx context.Context, db types.TargetQuerier, query string, args ...any,
) ([][]any, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	var ret [][]any
	for rows.Next() {
		raw := make([]sql.NullString, len(cols))
		ptrs := make([]any, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, errors.WithStack(err)
		}
		row := make([]any, len(cols))
		for i, v := range raw {
			if v.Valid {
				row[i] = v.String
			}
		}
		ret = append(ret, row)
	}
	return ret, errors.WithStack(rows.Err())
}
