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

package dialect

import (
	"fmt"

	"github.com/cockroachdb/journal-sink/internal/types"
)

// newSQLite returns a dialect for embedded SQLite targets. SQLite
// accepts the PostgreSQL conflict syntax with positional ? markers.
func newSQLite() Dialect {
	g := newGeneric()
	g.name = "SQLite"
	g.product = types.ProductSQLite
	g.columnType = liteColumnType
	g.inferType = liteInferType
	g.columnsSQL = "SELECT name FROM pragma_table_info(?)"
	g.quarantine = liteQuarantineDDL
	g.upsert = onConflictUpsert(g)
	return g
}

func liteColumnType(s *types.Schema) string {
	if s == nil {
		return "TEXT"
	}
	switch s.Type {
	case types.SchemaInt8, types.SchemaInt16, types.SchemaInt32, types.SchemaInt64, types.SchemaBoolean:
		return "INTEGER"
	case types.SchemaFloat32, types.SchemaFloat64:
		return "REAL"
	case types.SchemaBytes:
		return "BLOB"
	default:
		return "TEXT"
	}
}

func liteInferType(value any) string {
	switch kindOf(value) {
	case kindInt, kindBool:
		return "INTEGER"
	case kindFloat:
		return "REAL"
	case kindBytes:
		return "BLOB"
	default:
		return "TEXT"
	}
}

const liteQuarantineSchema = `CREATE TABLE IF NOT EXISTS %[1]s (
id INTEGER PRIMARY KEY AUTOINCREMENT,
topic TEXT NOT NULL,
kafka_partition INTEGER NOT NULL,
kafka_offset INTEGER NOT NULL,
record_key TEXT,
record_value TEXT,
headers TEXT,
error_reason TEXT NOT NULL,
table_name TEXT,
entry_type TEXT,
created_at TEXT DEFAULT CURRENT_TIMESTAMP
)`

func liteQuarantineDDL(table string) []string {
	return append([]string{fmt.Sprintf(liteQuarantineSchema, table)}, indexDDL(table)...)
}
