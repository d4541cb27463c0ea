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
	"time"

	"github.com/cockroachdb/journal-sink/internal/types"
	log "github.com/sirupsen/logrus"
)

// generic is the default strategy. Other dialects are built by
// replacing its hooks, so that the shared statement builders use the
// overriding dialect's placeholders and column types.
type generic struct {
	name    string
	product types.Product

	placeholder func(n int) string
	columnType  func(s *types.Schema) string
	inferType   func(value any) string
	normalize   func(name string) string
	upsert      func(table string, columns, keys []string) string
	columnsSQL  string
	quarantine  func(table string) []string
}

var _ Dialect = (*generic)(nil)

func newGeneric() *generic {
	g := &generic{
		name:        "Generic",
		product:     types.ProductUnknown,
		placeholder: func(int) string { return "?" },
		columnType:  genericColumnType,
		inferType:   genericInferType,
		normalize:   func(name string) string { return name },
		quarantine:  genericQuarantineDDL,
	}
	g.columnsSQL = "SELECT column_name FROM information_schema.columns " +
		"WHERE table_schema = CURRENT_SCHEMA AND table_name = ?"
	g.upsert = g.insertAsUpsert
	return g
}

func (g *generic) Name() string             { return g.name }
func (g *generic) Product() types.Product   { return g.product }
func (g *generic) Placeholder(n int) string { return g.placeholder(n) }

func (g *generic) Insert(table string, columns []string) string {
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(columns, ", "), g.placeholders(1, len(columns)))
}

func (g *generic) Update(table string, columns, keys []string) string {
	set := without(columns, keys)
	setClause := joinPairs(set, ", ", func(i int, col string) string {
		return col + " = " + g.placeholder(i+1)
	})
	whereClause := joinPairs(keys, " AND ", func(i int, col string) string {
		return col + " = " + g.placeholder(len(set)+i+1)
	})
	return fmt.Sprintf("UPDATE %s SET %s WHERE %s", table, setClause, whereClause)
}

func (g *generic) Upsert(table string, columns, keys []string) string {
	return g.upsert(table, columns, keys)
}

// insertAsUpsert is used when the database has no known upsert syntax.
// Duplicate rows will cause the statement to fail.
func (g *generic) insertAsUpsert(table string, columns, _ []string) string {
	log.WithFields(log.Fields{
		"dialect": g.name,
		"table":   table,
	}).Warn("upsert is not supported by this dialect; using a plain INSERT")
	return g.Insert(table, columns)
}

func (g *generic) Delete(table string, keys []string) string {
	whereClause := joinPairs(keys, " AND ", func(i int, col string) string {
		return col + " = " + g.placeholder(i+1)
	})
	return fmt.Sprintf("DELETE FROM %s WHERE %s", table, whereClause)
}

func (g *generic) CreateTable(table string, sample *types.Record, keys []string) string {
	columns, values, _ := types.FieldsOf(sample.Value)

	var sb strings.Builder
	fmt.Fprintf(&sb, "CREATE TABLE %s (", table)
	for i, col := range columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(col)
		sb.WriteString(" ")
		sb.WriteString(g.typeOf(sample, col, values[col]))
	}
	if len(keys) > 0 && containsAll(columns, keys) {
		fmt.Fprintf(&sb, ", PRIMARY KEY (%s)", strings.Join(keys, ", "))
	}
	sb.WriteString(")")
	return sb.String()
}

func (g *generic) AlterTable(table string, missing []string, sample *types.Record) []string {
	_, values, _ := types.FieldsOf(sample.Value)
	ret := make([]string, len(missing))
	for i, col := range missing {
		ret[i] = fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s",
			table, col, g.typeOf(sample, col, values[col]))
	}
	return ret
}

func (g *generic) ColumnType(s *types.Schema) string      { return g.columnType(s) }
func (g *generic) InferType(value any) string             { return g.inferType(value) }
func (g *generic) NormalizeIdentifier(name string) string { return g.normalize(name) }
func (g *generic) ColumnsQuery() string                   { return g.columnsSQL }
func (g *generic) QuarantineDDL(table string) []string    { return g.quarantine(table) }

// typeOf prefers the declared schema of a column and falls back to
// inspecting its value.
func (g *generic) typeOf(sample *types.Record, col string, value any) string {
	if sample.ValueSchema != nil {
		if s := sample.ValueSchema.Field(col); s != nil {
			return g.columnType(s)
		}
		if value == nil {
			return g.columnType(nil)
		}
	}
	return g.inferType(value)
}

func (g *generic) placeholders(from, count int) string {
	var sb strings.Builder
	for i := 0; i < count; i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(g.placeholder(from + i))
	}
	return sb.String()
}

func genericColumnType(s *types.Schema) string {
	if s == nil {
		return "VARCHAR(1024)"
	}
	switch s.Type {
	case types.SchemaInt8, types.SchemaInt16, types.SchemaInt32:
		return "INTEGER"
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
	case types.SchemaTimestamp:
		return "TIMESTAMP"
	default:
		return "VARCHAR(1024)"
	}
}

func genericInferType(value any) string {
	switch kindOf(value) {
	case kindInt:
		return "BIGINT"
	case kindFloat:
		return "DOUBLE"
	case kindBool:
		return "BOOLEAN"
	case kindTime:
		return "TIMESTAMP"
	default:
		return "VARCHAR(1024)"
	}
}

type valueKind int

const (
	kindOther valueKind = iota
	kindInt
	kindFloat
	kindBool
	kindString
	kindLongString
	kindBytes
	kindTime
)

// longString is the length past which a schema-less string is given
// an unbounded column type.
const longString = 255

func kindOf(value any) valueKind {
	switch t := value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return kindInt
	case float32, float64:
		return kindFloat
	case bool:
		return kindBool
	case string:
		if len([]rune(t)) > longString {
			return kindLongString
		}
		return kindString
	case []byte:
		return kindBytes
	case time.Time:
		return kindTime
	default:
		return kindOther
	}
}

func genericQuarantineDDL(table string) []string {
	return []string{fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %[1]s (
id BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
topic VARCHAR(255) NOT NULL,
kafka_partition INTEGER NOT NULL,
kafka_offset BIGINT NOT NULL,
record_key VARCHAR(4096),
record_value VARCHAR(32672),
headers VARCHAR(4096),
error_reason VARCHAR(1000) NOT NULL,
table_name VARCHAR(255),
entry_type VARCHAR(10),
created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`, table)}
}
