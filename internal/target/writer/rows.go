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

package writer

import (
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/journal-sink/internal/types"
)

// A row is a record that has been flattened into named column values.
type row struct {
	rec     *types.Record
	columns []string       // Value field names, in order.
	values  map[string]any // Value fields.
	keys    map[string]any // Key fields; may be nil.
}

// flatten maps a record onto columns. A non-empty reason is returned
// if the record cannot be written.
func (w *Writer) flatten(rec *types.Record) (*row, string) {
	ret := &row{rec: rec}
	columns, values, valueOK := types.FieldsOf(rec.Value)
	if valueOK {
		ret.columns, ret.values = columns, values
	}

	if _, keys, ok := types.FieldsOf(rec.Key); ok {
		ret.keys = keys
	} else if rec.Key != nil {
		// A primitive key can only supply a single-column key.
		if keyCols := w.cfg.keys(); len(keyCols) == 1 {
			ret.keys = map[string]any{keyCols[0]: rec.Key}
		}
	}

	if rec.Op == types.OpDelete {
		if !valueOK && ret.keys == nil {
			return nil, fmt.Sprintf("Cannot map DELETE key of type %T to columns", rec.Key)
		}
		return ret, ""
	}
	if !valueOK {
		return nil, fmt.Sprintf("Cannot map %s value of type %T to columns", rec.Op, rec.Value)
	}
	if len(columns) == 0 {
		return nil, fmt.Sprintf("%s value has no fields", rec.Op)
	}
	return ret, ""
}

// keyValue returns the value of a key column. The record value is
// preferred in record_value mode, but a DELETE usually has no value, so
// the record key is consulted when the value lacks the column.
func (w *Writer) keyValue(r *row, col string) any {
	if w.cfg.PKMode == PKRecordValue {
		if v, ok := r.values[col]; ok && v != nil {
			return v
		}
		return r.keys[col]
	}
	if v, ok := r.keys[col]; ok && v != nil {
		return v
	}
	return r.values[col]
}

// columnValue returns the value to bind for a non-key column.
func (w *Writer) columnValue(r *row, col string) any {
	if col == w.cfg.TimestampColumn {
		if _, ok := r.values[col]; !ok {
			if r.rec.Timestamp.IsZero() {
				return nil
			}
			return r.rec.Timestamp
		}
	}
	return r.values[col]
}

// bindable converts nested values, which drivers cannot accept as
// arguments, to JSON text.
func bindable(v any) (any, error) {
	switch v.(type) {
	case *types.Struct, map[string]any, []any:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return string(data), nil
	default:
		return v, nil
	}
}

// withTimestamp appends the timestamp column, if one is configured and
// not already present.
func (w *Writer) withTimestamp(columns []string) []string {
	col := w.cfg.TimestampColumn
	if col == "" {
		return columns
	}
	for _, existing := range columns {
		if existing == col {
			return columns
		}
	}
	ret := make([]string, len(columns), len(columns)+1)
	copy(ret, columns)
	return append(ret, col)
}

// sampleRecord returns a record whose value describes every column the
// writer will produce, for use in generating DDL.
func (w *Writer) sampleRecord(r *row) *types.Record {
	col := w.cfg.TimestampColumn
	if col == "" {
		return r.rec
	}
	if _, ok := r.values[col]; ok {
		return r.rec
	}
	value := &types.Struct{}
	for _, name := range r.columns {
		value.Put(name, r.values[name])
	}
	value.Put(col, r.rec.Timestamp)

	ret := *r.rec
	ret.Value = value
	if schema := r.rec.ValueSchema; schema != nil {
		augmented := *schema
		augmented.Fields = append(append([]types.Field(nil), schema.Fields...), types.Field{
			Name:   col,
			Schema: &types.Schema{Type: types.SchemaTimestamp, Optional: true},
		})
		ret.ValueSchema = &augmented
	}
	return &ret
}
