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

// Package dialect generates the SQL text used to write records into a
// target database. Each supported database family has a stateless
// Dialect; unrecognized products use a generic, standards-based
// dialect.
package dialect

import (
	"strings"

	"github.com/cockroachdb/journal-sink/internal/types"
	log "github.com/sirupsen/logrus"
)

// A Dialect encapsulates the differences in SQL syntax, column types,
// and metadata lookups between database products. Implementations are
// immutable and safe for concurrent use. Identifiers are never quoted.
type Dialect interface {
	// Name returns a human-readable name for logging.
	Name() string
	// Product returns the database product the dialect targets.
	Product() types.Product
	// Placeholder returns the positional parameter marker for the
	// n-th (1-based) argument.
	Placeholder(n int) string

	// Insert returns a plain INSERT statement.
	Insert(table string, columns []string) string
	// Update returns an UPDATE statement whose arguments are the
	// non-key columns followed by the key columns.
	Update(table string, columns, keys []string) string
	// Upsert returns an idempotent insert-or-update statement whose
	// arguments follow the column order.
	Upsert(table string, columns, keys []string) string
	// Delete returns a DELETE statement whose arguments are the key
	// columns.
	Delete(table string, keys []string) string

	// CreateTable returns DDL for a table whose columns are derived
	// from the sample record's value.
	CreateTable(table string, sample *types.Record, keys []string) string
	// AlterTable returns one statement per missing column.
	AlterTable(table string, missing []string, sample *types.Record) []string

	// ColumnType maps a field schema onto a native column type. A nil
	// schema yields the dialect's fallback type.
	ColumnType(s *types.Schema) string
	// InferType chooses a column type for a schema-less value.
	InferType(value any) string

	// NormalizeIdentifier folds an unquoted identifier the way the
	// database stores it in its catalog.
	NormalizeIdentifier(name string) string
	// ColumnsQuery returns a query, accepting the normalized table
	// name as its only argument, that lists the table's columns. No
	// rows are returned if the table does not exist.
	ColumnsQuery() string
	// QuarantineDDL returns statements that idempotently create the
	// quarantine table and its indexes.
	QuarantineDDL(table string) []string
}

// ForProduct returns the Dialect for a database product.
func ForProduct(p types.Product) Dialect {
	switch p {
	case types.ProductMySQL, types.ProductMariaDB:
		return newMySQL(p)
	case types.ProductPostgreSQL, types.ProductCockroachDB:
		return newPostgres(p)
	case types.ProductSQLite:
		return newSQLite()
	default:
		return newGeneric()
	}
}

// ForName returns the Dialect for a product name, as reported by a
// database driver. Names are matched case-insensitively. Unknown names
// yield the generic dialect.
func ForName(productName string) Dialect {
	p := types.ParseProduct(productName)
	if p == types.ProductUnknown {
		log.WithField("product", productName).Warn(
			"no specific dialect found; using generic dialect with limited functionality")
	}
	return ForProduct(p)
}

func joinPairs(cols []string, sep string, pair func(i int, col string) string) string {
	var sb strings.Builder
	for i, col := range cols {
		if i > 0 {
			sb.WriteString(sep)
		}
		sb.WriteString(pair(i, col))
	}
	return sb.String()
}

// without returns the elements of cols that are not in keys.
func without(cols, keys []string) []string {
	skip := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		skip[k] = struct{}{}
	}
	ret := make([]string, 0, len(cols))
	for _, c := range cols {
		if _, found := skip[c]; !found {
			ret = append(ret, c)
		}
	}
	return ret
}

// containsAll returns true if every key appears in cols.
func containsAll(cols, keys []string) bool {
	have := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		have[c] = struct{}{}
	}
	for _, k := range keys {
		if _, found := have[k]; !found {
			return false
		}
	}
	return true
}
