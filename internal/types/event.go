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

package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// An Event is a single inbound change event, as delivered by the
// source. Events are never modified once they have been constructed.
type Event struct {
	Topic     string
	Partition int32
	Offset    int64

	// Key and Value are nil, a *Struct, a map[string]any for
	// schema-less data, or a primitive value.
	Key   any
	Value any

	Headers     []Header // Source order.
	KeySchema   *Schema  // May be nil.
	ValueSchema *Schema  // May be nil.
}

// A Header is a named piece of per-event metadata.
type Header struct {
	Key   string
	Value any
}

// HeaderString returns the last header with the given name, converted
// to a string. The boolean will be false if no such header exists or
// if its value is nil.
func (e *Event) HeaderString(name string) (string, bool) {
	for i := len(e.Headers) - 1; i >= 0; i-- {
		h := e.Headers[i]
		if h.Key != name {
			continue
		}
		if h.Value == nil {
			return "", false
		}
		return HeaderValueString(h.Value), true
	}
	return "", false
}

// HeaderValueString renders a header value as text. Byte slices are
// interpreted as UTF-8.
func HeaderValueString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}

// A Struct is an ordered collection of named values.
type Struct struct {
	Fields []FieldValue
}

// A FieldValue is a single named value within a Struct.
type FieldValue struct {
	Name  string
	Value any
}

// Get returns the value of the named field.
func (s *Struct) Get(name string) (any, bool) {
	if s == nil {
		return nil, false
	}
	for _, f := range s.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Put appends or replaces a field and returns the Struct to allow
// chaining.
func (s *Struct) Put(name string, value any) *Struct {
	for i := range s.Fields {
		if s.Fields[i].Name == name {
			s.Fields[i].Value = value
			return s
		}
	}
	s.Fields = append(s.Fields, FieldValue{Name: name, Value: value})
	return s
}

// Names returns the field names in order.
func (s *Struct) Names() []string {
	ret := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		ret[i] = f.Name
	}
	return ret
}

// MarshalJSON renders the Struct as a JSON object, preserving field
// order.
func (s *Struct) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range s.Fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		value, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// FieldsOf flattens a structured key or value into its field names and
// values. The names of a *Struct are returned in declaration order;
// the keys of a map are sorted. The boolean will be false if the value
// is not structured.
func FieldsOf(v any) (names []string, values map[string]any, ok bool) {
	switch t := v.(type) {
	case *Struct:
		if t == nil {
			return nil, nil, false
		}
		values = make(map[string]any, len(t.Fields))
		for _, f := range t.Fields {
			if _, dup := values[f.Name]; !dup {
				names = append(names, f.Name)
			}
			values[f.Name] = f.Value
		}
		return names, values, true
	case map[string]any:
		if t == nil {
			return nil, nil, false
		}
		names = make([]string, 0, len(t))
		for k := range t {
			names = append(names, k)
		}
		sort.Strings(names)
		return names, t, true
	default:
		return nil, nil, false
	}
}

// SchemaType enumerates the abstract field types that can be mapped
// onto native column types.
type SchemaType int

// The abstract schema types.
const (
	SchemaUnknown SchemaType = iota
	SchemaInt8
	SchemaInt16
	SchemaInt32
	SchemaInt64
	SchemaFloat32
	SchemaFloat64
	SchemaBoolean
	SchemaString
	SchemaBytes
	SchemaStruct
	SchemaMap
	SchemaArray
	SchemaTimestamp
)

var schemaTypeNames = map[string]SchemaType{
	"int8":    SchemaInt8,
	"int16":   SchemaInt16,
	"int32":   SchemaInt32,
	"int64":   SchemaInt64,
	"float":   SchemaFloat32,
	"float32": SchemaFloat32,
	"double":  SchemaFloat64,
	"float64": SchemaFloat64,
	"boolean": SchemaBoolean,
	"string":  SchemaString,
	"bytes":   SchemaBytes,
	"struct":  SchemaStruct,
	"map":     SchemaMap,
	"array":   SchemaArray,

	"timestamp": SchemaTimestamp,
}

// ParseSchemaType converts a type name, as found in a JSON schema
// envelope, into a SchemaType.
func ParseSchemaType(name string) (SchemaType, bool) {
	t, ok := schemaTypeNames[name]
	return t, ok
}

// Schema describes the shape of a key or value.
type Schema struct {
	Type     SchemaType
	Name     string
	Optional bool
	Fields   []Field // Only for SchemaStruct.
}

// A Field is a named member of a struct Schema.
type Field struct {
	Name   string
	Schema *Schema
}

// Field returns the schema of the named field, or nil if the receiver
// is nil or the field is unknown.
func (s *Schema) Field(name string) *Schema {
	if s == nil {
		return nil
	}
	for _, f := range s.Fields {
		if f.Name == name {
			return f.Schema
		}
	}
	return nil
}
