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
	"strings"

	"github.com/cockroachdb/journal-sink/internal/types"
)

// newMySQL returns a dialect for MySQL and MariaDB. Upserts use ON
// DUPLICATE KEY UPDATE over every column, relying on the table's
// primary or unique keys to detect conflicts.
func newMySQL(p types.Product) Dialect {
	g := newGeneric()
	g.name = "MySQL"
	if p == types.ProductMariaDB {
		g.name = "MariaDB"
	}
	g.product = p
	g.columnType = myColumnType
	g.inferType = myInferType
	g.columnsSQL = "SELECT column_name FROM information_schema.columns " +
		"WHERE table_schema = DATABASE() AND table_name = ?"
	g.quarantine = myQuarantineDDL
	g.upsert = func(table string, columns, _ []string) string {
		update := joinPairs(columns, ", ", func(_ int, col string) string {
			return fmt.Sprintf("%[1]s = VALUES(%[1]s)", col)
		})
		return fmt.Sprintf("%s ON DUPLICATE KEY UPDATE %s", g.Insert(table, columns), update)
	}
	return g
}

func myColumnType(s *types.Schema) string {
	if s == nil {
		return "TEXT"
	}
	switch s.Type {
	case types.SchemaInt8:
		return "TINYINT"
	case types.SchemaInt16:
		return "SMALLINT"
	case types.SchemaInt32:
		return "INT"
	case types.SchemaInt64:
		return "BIGINT"
	case types.SchemaFloat32:
		return "FLOAT"
	case types.SchemaFloat64:
		return "DOUBLE"
	case types.SchemaBoolean:
		return "BOOLEAN"
	case types.SchemaString:
		return "VARCHAR(255)"
	case types.SchemaBytes:
		return "VARBINARY(255)"
	case types.SchemaTimestamp:
		return "DATETIME(6)"
	default:
		return "TEXT"
	}
}

func myInferType(value any) string {
	switch kindOf(value) {
	case kindInt:
		return "BIGINT"
	case kindFloat:
		return "DOUBLE"
	case kindBool:
		return "BOOLEAN"
	case kindString:
		return "VARCHAR(1024)"
	case kindBytes:
		return "BLOB"
	case kindTime:
		return "DATETIME(6)"
	default:
		return "TEXT"
	}
}

const myQuarantineSchema = `CREATE TABLE IF NOT EXISTS %[1]s (
id BIGINT AUTO_INCREMENT PRIMARY KEY,
topic VARCHAR(255) NOT NULL,
kafka_partition INT NOT NULL,
kafka_offset BIGINT NOT NULL,
record_key TEXT,
record_value LONGTEXT,
headers TEXT,
error_reason VARCHAR(1000) NOT NULL,
table_name VARCHAR(255),
entry_type VARCHAR(10),
created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
INDEX idx_%[2]s_topic_partition_offset (topic, kafka_partition, kafka_offset),
INDEX idx_%[2]s_table_name (table_name),
INDEX idx_%[2]s_created_at (created_at)
)`

func myQuarantineDDL(table string) []string {
	return []string{fmt.Sprintf(myQuarantineSchema, table, indexSuffix(table))}
}

// indexSuffix derives a name fragment from a possibly-qualified table.
func indexSuffix(table string) string {
	return strings.NewReplacer(".", "_", " ", "_").Replace(table)
}
