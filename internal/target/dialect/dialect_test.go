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
	"testing"
	"time"

	"github.com/cockroachdb/journal-sink/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForName(t *testing.T) {
	tcs := []struct {
		name    string
		product types.Product
		dialect string
	}{
		{"MySQL", types.ProductMySQL, "MySQL"},
		{"mysql", types.ProductMySQL, "MySQL"},
		{"MariaDB", types.ProductMariaDB, "MariaDB"},
		{"PostgreSQL", types.ProductPostgreSQL, "PostgreSQL"},
		{"postgresql", types.ProductPostgreSQL, "PostgreSQL"},
		{"CockroachDB", types.ProductCockroachDB, "CockroachDB"},
		{"SQLite", types.ProductSQLite, "SQLite"},
		{"Oracle", types.ProductUnknown, "Generic"},
		{"", types.ProductUnknown, "Generic"},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			a := assert.New(t)
			d := ForName(tc.name)
			a.Equal(tc.product, d.Product())
			a.Equal(tc.dialect, d.Name())
		})
	}
}

// Column lookups are scoped to the connection's schema so that a table
// of the same name elsewhere is not merged in.
func TestColumnsQuery(t *testing.T) {
	tcs := []struct {
		name     string
		expected string
	}{
		{"Generic", "SELECT column_name FROM information_schema.columns " +
			"WHERE table_schema = CURRENT_SCHEMA AND table_name = ?"},
		{"MySQL", "SELECT column_name FROM information_schema.columns " +
			"WHERE table_schema = DATABASE() AND table_name = ?"},
		{"PostgreSQL", "SELECT column_name FROM information_schema.columns " +
			"WHERE table_schema = current_schema() AND table_name = $1"},
		{"SQLite", "SELECT name FROM pragma_table_info(?)"},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ForName(tc.name).ColumnsQuery())
		})
	}
}

func TestStatements(t *testing.T) {
	cols := []string{"ID", "NAME", "QTY"}
	keys := []string{"ID"}

	tcs := []struct {
		product types.Product
		insert  string
		update  string
		upsert  string
		delete  string
	}{
		{
			product: types.ProductUnknown,
			insert:  "INSERT INTO ORDERS (ID, NAME, QTY) VALUES (?, ?, ?)",
			update:  "UPDATE ORDERS SET NAME = ?, QTY = ? WHERE ID = ?",
			upsert:  "INSERT INTO ORDERS (ID, NAME, QTY) VALUES (?, ?, ?)",
			delete:  "DELETE FROM ORDERS WHERE ID = ?",
		},
		{
			product: types.ProductMySQL,
			insert:  "INSERT INTO ORDERS (ID, NAME, QTY) VALUES (?, ?, ?)",
			update:  "UPDATE ORDERS SET NAME = ?, QTY = ? WHERE ID = ?",
			upsert: "INSERT INTO ORDERS (ID, NAME, QTY) VALUES (?, ?, ?) ON DUPLICATE KEY UPDATE " +
				"ID = VALUES(ID), NAME = VALUES(NAME), QTY = VALUES(QTY)",
			delete: "DELETE FROM ORDERS WHERE ID = ?",
		},
		{
			product: types.ProductPostgreSQL,
			insert:  "INSERT INTO ORDERS (ID, NAME, QTY) VALUES ($1, $2, $3)",
			update:  "UPDATE ORDERS SET NAME = $1, QTY = $2 WHERE ID = $3",
			upsert: "INSERT INTO ORDERS (ID, NAME, QTY) VALUES ($1, $2, $3) ON CONFLICT (ID) DO UPDATE SET " +
				"NAME = EXCLUDED.NAME, QTY = EXCLUDED.QTY",
			delete: "DELETE FROM ORDERS WHERE ID = $1",
		},
		{
			product: types.ProductSQLite,
			insert:  "INSERT INTO ORDERS (ID, NAME, QTY) VALUES (?, ?, ?)",
			update:  "UPDATE ORDERS SET NAME = ?, QTY = ? WHERE ID = ?",
			upsert: "INSERT INTO ORDERS (ID, NAME, QTY) VALUES (?, ?, ?) ON CONFLICT (ID) DO UPDATE SET " +
				"NAME = EXCLUDED.NAME, QTY = EXCLUDED.QTY",
			delete: "DELETE FROM ORDERS WHERE ID = ?",
		},
	}

	for _, tc := range tcs {
		t.Run(tc.product.String(), func(t *testing.T) {
			a := assert.New(t)
			d := ForProduct(tc.product)
			a.Equal(tc.insert, d.Insert("ORDERS", cols))
			a.Equal(tc.update, d.Update("ORDERS", cols, keys))
			a.Equal(tc.upsert, d.Upsert("ORDERS", cols, keys))
			a.Equal(tc.delete, d.Delete("ORDERS", keys))
		})
	}
}

func TestCompositeKeys(t *testing.T) {
	a := assert.New(t)
	d := ForProduct(types.ProductCockroachDB)

	cols := []string{"A", "B", "C", "D"}
	keys := []string{"A", "C"}
	a.Equal("UPDATE T SET B = $1, D = $2 WHERE A = $3 AND C = $4", d.Update("T", cols, keys))
	a.Equal("DELETE FROM T WHERE A = $1 AND C = $2", d.Delete("T", keys))
	a.Equal("INSERT INTO T (A, B, C, D) VALUES ($1, $2, $3, $4) ON CONFLICT (A, C) DO UPDATE SET "+
		"B = EXCLUDED.B, D = EXCLUDED.D", d.Upsert("T", cols, keys))
}

// For any column list and key set, the on-conflict upsert updates only
// the non-key columns, and ignores the conflict when there are none.
func TestOnConflictProperty(t *testing.T) {
	all := []string{"A", "B", "C", "D"}
	for _, product := range []types.Product{types.ProductPostgreSQL, types.ProductSQLite} {
		d := ForProduct(product)
		// Enumerate every non-empty key subset.
		for mask := 1; mask < 1<<len(all); mask++ {
			var keys, nonKeys []string
			for i, col := range all {
				if mask&(1<<i) != 0 {
					keys = append(keys, col)
				} else {
					nonKeys = append(nonKeys, col)
				}
			}
			t.Run(fmt.Sprintf("%s/%s", product, strings.Join(keys, "")), func(t *testing.T) {
				a := assert.New(t)
				sql := d.Upsert("T", all, keys)
				a.Contains(sql, fmt.Sprintf("ON CONFLICT (%s)", strings.Join(keys, ", ")))
				if len(nonKeys) == 0 {
					a.True(strings.HasSuffix(sql, "DO NOTHING"))
					a.NotContains(sql, "EXCLUDED")
					return
				}
				a.Contains(sql, "DO UPDATE SET")
				for _, col := range nonKeys {
					a.Contains(sql, fmt.Sprintf("%[1]s = EXCLUDED.%[1]s", col))
				}
				for _, col := range keys {
					a.NotContains(sql, fmt.Sprintf("EXCLUDED.%s", col))
				}
			})
		}
	}
}

func TestUpsertWithoutKeys(t *testing.T) {
	a := assert.New(t)
	d := ForProduct(types.ProductPostgreSQL)
	a.Equal("INSERT INTO T (A) VALUES ($1) ON CONFLICT DO NOTHING", d.Upsert("T", []string{"A"}, nil))
}

func TestColumnTypes(t *testing.T) {
	schemaTypes := []types.SchemaType{
		types.SchemaInt8, types.SchemaInt16, types.SchemaInt32, types.SchemaInt64,
		types.SchemaFloat32, types.SchemaFloat64, types.SchemaBoolean,
		types.SchemaString, types.SchemaBytes, types.SchemaArray,
	}
	tcs := []struct {
		product  types.Product
		expected []string // Parallel to schemaTypes.
		fallback string
	}{
		{
			product: types.ProductUnknown,
			expected: []string{"INTEGER", "INTEGER", "INTEGER", "BIGINT", "FLOAT", "DOUBLE",
				"BOOLEAN", "VARCHAR(255)", "VARCHAR(1024)", "VARCHAR(1024)"},
			fallback: "VARCHAR(1024)",
		},
		{
			product: types.ProductMySQL,
			expected: []string{"TINYINT", "SMALLINT", "INT", "BIGINT", "FLOAT", "DOUBLE",
				"BOOLEAN", "VARCHAR(255)", "VARBINARY(255)", "TEXT"},
			fallback: "TEXT",
		},
		{
			product: types.ProductPostgreSQL,
			expected: []string{"SMALLINT", "SMALLINT", "INT", "BIGINT", "REAL", "DOUBLE PRECISION",
				"BOOLEAN", "VARCHAR(255)", "BYTEA", "TEXT"},
			fallback: "TEXT",
		},
		{
			product: types.ProductSQLite,
			expected: []string{"INTEGER", "INTEGER", "INTEGER", "INTEGER", "REAL", "REAL",
				"INTEGER", "TEXT", "BLOB", "TEXT"},
			fallback: "TEXT",
		},
	}

	for _, tc := range tcs {
		t.Run(tc.product.String(), func(t *testing.T) {
			r := require.New(t)
			r.Len(tc.expected, len(schemaTypes))
			d := ForProduct(tc.product)
			for i, st := range schemaTypes {
				r.Equal(tc.expected[i], d.ColumnType(&types.Schema{Type: st}), "type %d", st)
			}
			r.Equal(tc.fallback, d.ColumnType(nil))
		})
	}
}

func TestInferType(t *testing.T) {
	a := assert.New(t)
	d := ForProduct(types.ProductPostgreSQL)

	a.Equal("BIGINT", d.InferType(int32(1)))
	a.Equal("BIGINT", d.InferType(int64(1)))
	a.Equal("DOUBLE PRECISION", d.InferType(1.5))
	a.Equal("DOUBLE PRECISION", d.InferType(float32(1.5)))
	a.Equal("BOOLEAN", d.InferType(true))
	a.Equal("VARCHAR(1024)", d.InferType("short"))
	a.Equal("VARCHAR(1024)", d.InferType(strings.Repeat("x", 255)))
	a.Equal("TEXT", d.InferType(strings.Repeat("x", 256)))
	a.Equal("TEXT", d.InferType(nil))
	a.Equal("TEXT", d.InferType([]any{1}))
	a.Equal("TIMESTAMPTZ", d.InferType(time.Now()))
}

func TestNormalizeIdentifier(t *testing.T) {
	a := assert.New(t)
	a.Equal("orders", ForProduct(types.ProductPostgreSQL).NormalizeIdentifier("ORDERS"))
	a.Equal("orders", ForProduct(types.ProductCockroachDB).NormalizeIdentifier("Orders"))
	a.Equal("ORDERS", ForProduct(types.ProductMySQL).NormalizeIdentifier("ORDERS"))
	a.Equal("ORDERS", ForProduct(types.ProductUnknown).NormalizeIdentifier("ORDERS"))
}

func TestCreateTable(t *testing.T) {
	schema := &types.Schema{
		Type: types.SchemaStruct,
		Fields: []types.Field{
			{Name: "ID", Schema: &types.Schema{Type: types.SchemaInt64}},
			{Name: "NAME", Schema: &types.Schema{Type: types.SchemaString}},
			{Name: "PRICE", Schema: &types.Schema{Type: types.SchemaFloat64}},
		},
	}
	value := (&types.Struct{}).Put("ID", int64(1)).Put("NAME", "x").Put("PRICE", 1.5)
	withSchema := &types.Record{Value: value, ValueSchema: schema}
	schemaless := &types.Record{Value: map[string]any{"ID": int64(1), "NAME": "x", "ACTIVE": true}}

	tcs := []struct {
		product  types.Product
		sample   *types.Record
		keys     []string
		expected string
	}{
		{
			product:  types.ProductPostgreSQL,
			sample:   withSchema,
			keys:     []string{"ID"},
			expected: "CREATE TABLE ORDERS (ID BIGINT, NAME VARCHAR(255), PRICE DOUBLE PRECISION, PRIMARY KEY (ID))",
		},
		{
			product:  types.ProductMySQL,
			sample:   withSchema,
			expected: "CREATE TABLE ORDERS (ID BIGINT, NAME VARCHAR(255), PRICE DOUBLE)",
		},
		{
			// Keys that are not columns are not declared.
			product:  types.ProductUnknown,
			sample:   withSchema,
			keys:     []string{"MISSING"},
			expected: "CREATE TABLE ORDERS (ID BIGINT, NAME VARCHAR(255), PRICE DOUBLE)",
		},
		{
			// Map keys are sorted.
			product:  types.ProductPostgreSQL,
			sample:   schemaless,
			keys:     []string{"ID"},
			expected: "CREATE TABLE ORDERS (ACTIVE BOOLEAN, ID BIGINT, NAME VARCHAR(1024), PRIMARY KEY (ID))",
		},
		{
			product:  types.ProductSQLite,
			sample:   schemaless,
			keys:     []string{"ID"},
			expected: "CREATE TABLE ORDERS (ACTIVE INTEGER, ID INTEGER, NAME TEXT, PRIMARY KEY (ID))",
		},
	}

	for idx, tc := range tcs {
		t.Run(fmt.Sprintf("%d", idx), func(t *testing.T) {
			a := assert.New(t)
			a.Equal(tc.expected, ForProduct(tc.product).CreateTable("ORDERS", tc.sample, tc.keys))
		})
	}
}

func TestAlterTable(t *testing.T) {
	a := assert.New(t)
	d := ForProduct(types.ProductMySQL)

	sample := &types.Record{
		Value: (&types.Struct{}).Put("ID", 1).Put("NOTE", "x").Put("FLAG", true),
		ValueSchema: &types.Schema{
			Type: types.SchemaStruct,
			Fields: []types.Field{
				{Name: "ID", Schema: &types.Schema{Type: types.SchemaInt32}},
				{Name: "NOTE", Schema: &types.Schema{Type: types.SchemaString}},
				{Name: "FLAG", Schema: &types.Schema{Type: types.SchemaBoolean}},
			},
		},
	}
	a.Equal([]string{
		"ALTER TABLE ORDERS ADD COLUMN NOTE VARCHAR(255)",
		"ALTER TABLE ORDERS ADD COLUMN FLAG BOOLEAN",
	}, d.AlterTable("ORDERS", []string{"NOTE", "FLAG"}, sample))
	a.Empty(d.AlterTable("ORDERS", nil, sample))
}

func TestQuarantineDDL(t *testing.T) {
	for _, p := range []types.Product{
		types.ProductUnknown, types.ProductMySQL, types.ProductPostgreSQL, types.ProductSQLite,
	} {
		t.Run(p.String(), func(t *testing.T) {
			a := assert.New(t)
			stmts := ForProduct(p).QuarantineDDL("db.corrupt")
			a.NotEmpty(stmts)
			a.True(strings.HasPrefix(stmts[0], "CREATE TABLE IF NOT EXISTS db.corrupt ("))
			for _, col := range []string{
				"topic", "kafka_partition", "kafka_offset", "record_key", "record_value",
				"headers", "error_reason", "table_name", "entry_type", "created_at",
			} {
				a.Contains(stmts[0], "\n"+col+" ")
			}
			for _, stmt := range stmts[1:] {
				a.Contains(stmt, "idx_db_corrupt_")
			}
		})
	}
}
