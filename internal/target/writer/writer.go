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

// Package writer applies validated records to their target tables.
package writer

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/journal-sink/internal/target/dialect"
	"github.com/cockroachdb/journal-sink/internal/types"
	"github.com/cockroachdb/journal-sink/internal/util/metrics"
	"github.com/golang/groupcache/lru"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// sqlCacheSize bounds the number of generated statements that are
// retained between batches.
const sqlCacheSize = 1024

// bucketOrder is the sequence in which the operations for a single
// table are applied.
var bucketOrder = []types.Operation{
	types.OpInsert,
	types.OpUpdate,
	types.OpUpsert,
	types.OpDelete,
}

// Writer applies records to target tables, creating or evolving the
// tables if so configured. A Writer never commits or rolls back the
// transaction it is given. It is safe for concurrent use.
type Writer struct {
	cfg     *Config
	dialect dialect.Dialect

	mu struct {
		sync.Mutex
		sql *lru.Cache
	}
}

// New constructs a Writer. The Config must have been preflighted.
func New(cfg *Config, d dialect.Dialect) *Writer {
	w := &Writer{cfg: cfg, dialect: d}
	w.mu.sql = lru.New(sqlCacheSize)
	return w
}

// Write applies the records, grouped by target table, using the given
// transaction. Records that cannot be mapped onto columns are returned
// as rejections; all other records have been executed if the error is
// nil.
func (w *Writer) Write(
	ctx context.Context, tx types.TargetQuerier, batch map[string][]*types.Record,
) ([]*types.Rejected, error) {
	tables := make([]string, 0, len(batch))
	for table, recs := range batch {
		if len(recs) > 0 {
			tables = append(tables, table)
		}
	}
	sort.Strings(tables)

	var rejected []*types.Rejected
	for _, table := range tables {
		rej, err := w.writeTable(ctx, tx, table, batch[table])
		rejected = append(rejected, rej...)
		if err != nil {
			writeErrors.WithLabelValues(metrics.TableValues(table)...).Inc()
			return rejected, err
		}
	}
	return rejected, nil
}

func (w *Writer) writeTable(
	ctx context.Context, tx types.TargetQuerier, table string, recs []*types.Record,
) ([]*types.Rejected, error) {
	start := time.Now()
	labels := metrics.TableValues(table)

	var rejected []*types.Rejected
	buckets := make(map[types.Operation][]*row, len(bucketOrder))
	var sample *row
	for _, rec := range recs {
		r, reason := w.flatten(rec)
		if reason != "" {
			rejected = append(rejected, &types.Rejected{Event: rec.Source, Reason: reason})
			continue
		}
		if sample == nil && len(r.columns) > 0 {
			sample = r
		}
		buckets[rec.Op] = append(buckets[rec.Op], r)
	}
	if len(rejected) > 0 {
		writeUnmappable.WithLabelValues(labels...).Add(float64(len(rejected)))
	}

	if sample != nil && (w.cfg.AutoCreate || w.cfg.AutoEvolve) {
		if err := w.ensureSchema(ctx, tx, table, sample); err != nil {
			return rejected, err
		}
	}

	for _, op := range bucketOrder {
		rows := buckets[op]
		if len(rows) == 0 {
			continue
		}
		if err := w.writeBucket(ctx, tx, table, op, rows); err != nil {
			return rejected, err
		}
	}

	writeDurations.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
	log.WithFields(log.Fields{
		"table":    table,
		"records":  len(recs),
		"rejected": len(rejected),
		"duration": time.Since(start),
	}).Debug("wrote table")
	return rejected, nil
}

func (w *Writer) writeBucket(
	ctx context.Context, tx types.TargetQuerier, table string, op types.Operation, rows []*row,
) error {
	keys := w.cfg.keys()
	columns := w.withTimestamp(rows[0].columns)

	switch op {
	case types.OpInsert:
		q := w.statement(table, op, columns, nil, func() string {
			return w.dialect.Insert(table, columns)
		})
		return w.exec(ctx, tx, table, op, q, rows, w.insertArgs(columns))

	case types.OpUpdate:
		if len(keys) == 0 {
			log.WithFields(log.Fields{
				"table": table,
				"count": len(rows),
			}).Warn("no primary key fields configured; applying UPDATE operations as " +
				"upserts, updates to existing rows may be dropped")
			return w.writeBucket(ctx, tx, table, types.OpUpsert, rows)
		}
		if !hasNonKey(columns, keys) {
			// There is nothing to SET, so only the row's existence matters.
			log.WithField("table", table).Debug(
				"every column is a key column; applying UPDATE operations as upserts")
			return w.writeBucket(ctx, tx, table, types.OpUpsert, rows)
		}
		q := w.statement(table, op, columns, keys, func() string {
			return w.dialect.Update(table, columns, keys)
		})
		return w.exec(ctx, tx, table, op, q, rows, w.updateArgs(columns, keys))

	case types.OpUpsert:
		q := w.statement(table, op, columns, keys, func() string {
			return w.dialect.Upsert(table, columns, keys)
		})
		return w.exec(ctx, tx, table, op, q, rows, w.insertArgs(columns))

	case types.OpDelete:
		if len(keys) == 0 {
			log.WithFields(log.Fields{
				"table": table,
				"count": len(rows),
			}).Warn("no primary key fields configured; skipping DELETE operations")
			writeSkippedDeletes.WithLabelValues(metrics.TableValues(table)...).Add(float64(len(rows)))
			return nil
		}
		q := w.statement(table, op, nil, keys, func() string {
			return w.dialect.Delete(table, keys)
		})
		return w.exec(ctx, tx, table, op, q, rows, w.deleteArgs(keys))

	default:
		return errors.Errorf("unknown operation %s", op)
	}
}

// hasNonKey returns true if any column is not a key column.
func hasNonKey(columns, keys []string) bool {
	isKey := make(map[string]bool, len(keys))
	for _, k := range keys {
		isKey[k] = true
	}
	for _, col := range columns {
		if !isKey[col] {
			return true
		}
	}
	return false
}

func (w *Writer) insertArgs(columns []string) func(*row) []any {
	return func(r *row) []any {
		args := make([]any, len(columns))
		for i, col := range columns {
			args[i] = w.columnValue(r, col)
		}
		return args
	}
}

// updateArgs binds the non-key columns, then the key columns.
func (w *Writer) updateArgs(columns, keys []string) func(*row) []any {
	isKey := make(map[string]bool, len(keys))
	for _, k := range keys {
		isKey[k] = true
	}
	return func(r *row) []any {
		args := make([]any, 0, len(columns)+len(keys))
		for _, col := range columns {
			if !isKey[col] {
				args = append(args, w.columnValue(r, col))
			}
		}
		for _, k := range keys {
			args = append(args, w.keyValue(r, k))
		}
		return args
	}
}

func (w *Writer) deleteArgs(keys []string) func(*row) []any {
	return func(r *row) []any {
		args := make([]any, len(keys))
		for i, k := range keys {
			args[i] = w.keyValue(r, k)
		}
		return args
	}
}

// exec prepares a statement and executes it once per row, in order.
func (w *Writer) exec(
	ctx context.Context,
	tx types.TargetQuerier,
	table string,
	op types.Operation,
	q string,
	rows []*row,
	args func(*row) []any,
) error {
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		return errors.Wrapf(err, "could not prepare %s for %s: %s", op, table, q)
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range rows {
		bound := args(r)
		for i := range bound {
			if bound[i], err = bindable(bound[i]); err != nil {
				return errors.Wrapf(err, "could not bind %s argument %d for %s", op, i+1, table)
			}
		}
		if _, err := stmt.ExecContext(ctx, bound...); err != nil {
			return errors.Wrapf(err, "could not execute %s for %s: %s", op, table, q)
		}
	}
	writeRows.WithLabelValues(metrics.OperationValues(table, op)...).Add(float64(len(rows)))
	return nil
}

// statement returns the memoized SQL text for a table, operation, and
// column list.
func (w *Writer) statement(
	table string, op types.Operation, columns, keys []string, generate func() string,
) string {
	key := strings.Join([]string{
		table, op.String(), strings.Join(columns, ","), strings.Join(keys, ","),
	}, "\x00")

	w.mu.Lock()
	defer w.mu.Unlock()
	if found, ok := w.mu.sql.Get(key); ok {
		return found.(string)
	}
	q := generate()
	w.mu.sql.Add(key, q)
	return q
}

// ensureSchema creates or alters the target table.
func (w *Writer) ensureSchema(
	ctx context.Context, tx types.TargetQuerier, table string, sample *row,
) error {
	existing, err := w.columns(ctx, tx, table)
	if err != nil {
		return err
	}
	rec := w.sampleRecord(sample)
	labels := metrics.TableValues(table)

	if len(existing) == 0 {
		if !w.cfg.AutoCreate {
			return nil
		}
		ddl := w.dialect.CreateTable(table, rec, w.cfg.keys())
		log.WithFields(log.Fields{
			"table": table,
			"ddl":   ddl,
		}).Info("creating table")
		if _, err := tx.ExecContext(ctx, ddl); err != nil {
			return errors.Wrapf(err, "could not create table %s: %s", table, ddl)
		}
		writeDDL.WithLabelValues(labels...).Inc()
		return nil
	}

	if !w.cfg.AutoEvolve {
		return nil
	}
	var missing []string
	for _, col := range w.withTimestamp(sample.columns) {
		if _, found := existing[strings.ToUpper(col)]; !found {
			missing = append(missing, col)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	log.WithFields(log.Fields{
		"table":   table,
		"columns": missing,
	}).Info("adding columns to table")
	for _, ddl := range w.dialect.AlterTable(table, missing, rec) {
		if _, err := tx.ExecContext(ctx, ddl); err != nil {
			return errors.Wrapf(err, "could not alter table %s: %s", table, ddl)
		}
		writeDDL.WithLabelValues(labels...).Inc()
	}
	return nil
}

// columns returns the upper-cased names of the table's columns. The
// map will be empty if the table does not exist.
func (w *Writer) columns(
	ctx context.Context, tx types.TargetQuerier, table string,
) (map[string]struct{}, error) {
	rows, err := tx.QueryContext(ctx, w.dialect.ColumnsQuery(), w.dialect.NormalizeIdentifier(table))
	if err != nil {
		return nil, errors.Wrapf(err, "could not query columns of %s", table)
	}
	defer func() { _ = rows.Close() }()

	ret := make(map[string]struct{})
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.WithStack(err)
		}
		ret[strings.ToUpper(name)] = struct{}{}
	}
	return ret, errors.WithStack(rows.Err())
}
