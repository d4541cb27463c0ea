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
	"strconv"
	"strings"

	"github.com/cockroachdb/journal-sink/internal/types"
)

// newPostgres returns a dialect for PostgreSQL and CockroachDB.
func newPostgres(p types.Product) Dialect {
	g := newGeneric()
	g.name = p.String()
	g.product = p
	g.placeholder = func(n int) string { return "$" + strconv.Itoa(n) }
	g.columnType = pgColumnType
	g.inferType = pgInferType
	g.normalize = strings.ToLower
	g.columnsSQL = "SELECT column_name FROM information_schema.columns " +
		"WHERE table_schema = current_schema() AND table_name = $1"
	g.quarantine = pgQuarantineDDL
	g.upsert = onConflictUpsert(g)
	return g
}

// onConflictUpsert builds INSERT ... ON CONFLICT statements. If every
// column is part of the key, there is nothing to update and conflicting
// rows are ignored.
func onConflictUpsert(g *generic) func(table string, columns, keys []string) string {
	return func(table string, columns, keys []string) string {
		insert := g.Insert(table, columns)
		if len(keys) == 0 {
			return insert + " ON CONFLICT DO NOTHING"
		}
		target := strings.Join(keys, ", ")
		update := without(columns, keys)
		if len(update) == 0 {
			return fmt.Sprintf("%s ON CONFLICT (%s) DO NOTHING", insert, target)
		}
		set := joinPairs(update, ", ", func(_ int, col string) string {
			return fmt.Sprintf("%[1]s = EXCLUDED.%[1]s", col)
		})
		return fmt.Sprintf("%s ON CONFLICT (%s) DO UPDATE SET %s", insert, target, set)
	}
}

func pgColumnType(s *types.Schema) string {
	if s == nil {
		return "TEXT"
	}
	switch s.Type {
	case types.SchemaInt8, types.SchemaInt16:
		return "SMALLINT"
	case types.SchemaInt32:
		return "INT"
	case types.SchemaInt64:
		return "BIGINT"
	case types.SchemaFloat32:
		return "REAL"
	case types.SchemaFloat64:
		return "DOUBLE PRECISION"
	case types.SchemaBoolean:
		return "BOOLEAN"
	case types.SchemaString:
		return "VARCHAR(255)"
	case types.SchemaBytes:
		return "BYTEA"
	case types.SchemaTimestamp:
		return "TIMESTAMPTZ"
	default:
		return "TEXT"
	}
}

func pgInferType(value any) string {
	switch kindOf(value) {
	case kindInt:
		return "BIGINT"
	case kindFloat:
		return "DOUBLE PRECISION"
	case kindBool:
		return "BOOLEAN"
	case kindString:
		return "VARCHAR(1024)"
	case kindBytes:
		return "BYTEA"
	case kindTime:
		return "TIMESTAMPTZ"
	default:
		return "TEXT"
	}
}

const pgQuarantineSchema = `CREATE TABLE IF NOT EXISTS %[1]s (
id BIGSERIAL PRIMARY KEY,
topic VARCHAR(255) NOT NULL,
kafka_partition INT NOT NULL,
kafka_offset BIGINT NOT NULL,
record_key TEXT,
record_value TEXT,
headers TEXT,
error_reason VARCHAR(1000) NOT NULL,
table_name VARCHAR(255),
entry_type VARCHAR(10),
created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
)`

// indexDDL returns the secondary indexes of the quarantine table, for
// databases that declare indexes in separate statements.
func indexDDL(table string) []string {
	suffix := indexSuffix(table)
	return []string{
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_topic_partition_offset ON %s (topic, kafka_partition, kafka_offset)", suffix, table),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_table_name ON %s (table_name)", suffix, table),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_created_at ON %s (created_at)", suffix, table),
	}
}

func pgQuarantineDDL(table string) []string {
	return append([]string{fmt.Sprintf(pgQuarantineSchema, table)}, indexDDL(table)...)
}
